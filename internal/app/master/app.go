/**
 * Master应用程序核心逻辑
 * @author: sun977
 * @date: 2025.12.06
 * @description: 加载配置、初始化日志与存储、装配路由并管理HTTP服务的生命周期
 */

package master

import (
	"context"
	"fmt"
	"net/http"

	"neovuln/internal/app/master/router"
	"neovuln/internal/config"
	"neovuln/internal/pkg/database"
	"neovuln/internal/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App 应用程序结构体
type App struct {
	config      *config.Config
	logger      *logger.LoggerManager
	db          *gorm.DB
	redisClient *redis.Client
	router      *router.Router
	httpServer  *http.Server
	watcher     *config.ConfigWatcher
}

// NewApp 创建新的应用程序实例
// configPath 为空时使用 NEOVULN_CONFIG_PATH 或 configs 目录，env 为空时读取 NEOVULN_ENV
func NewApp(configPath, env string) (*App, error) {
	cfg, err := config.LoadConfig(configPath, env)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	loggerManager, err := logger.InitLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	redisClient, err := database.NewRedisConnection(&cfg.Database.Redis)
	if err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}

	r, err := router.NewRouter(context.Background(), db, redisClient, cfg)
	if err != nil {
		_ = database.Close(db)
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, err
	}
	r.SetupRoutes()

	app := &App{
		config:      cfg,
		logger:      loggerManager,
		db:          db,
		redisClient: redisClient,
		router:      r,
		httpServer: &http.Server{
			Addr:           cfg.Server.GetAddress(),
			Handler:        r.GetEngine(),
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			IdleTimeout:    cfg.Server.IdleTimeout,
			MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		},
	}
	app.watchConfig(configPath, env)

	logger.LogSystemEvent("master", "init", "application initialized", logrus.InfoLevel, map[string]interface{}{
		"environment": cfg.App.Environment,
		"driver":      cfg.Database.Driver,
		"redis":       redisClient != nil,
	})
	return app, nil
}

// watchConfig 配置文件变化时热更新日志配置，监听失败只记录日志
func (a *App) watchConfig(configPath, env string) {
	watcher, err := config.NewConfigWatcher(configPath, env)
	if err != nil {
		logger.LogError(err, "", "", "", "watch_config", "SYSTEM", nil)
		return
	}
	watcher.AddCallback(func(_, newConfig *config.Config) error {
		previous := a.logger.GetConfig().Level
		if err := a.logger.UpdateConfig(&newConfig.Log); err != nil {
			return err
		}
		logger.LogSystemEvent("config", "reload", "log config reloaded", logrus.InfoLevel, map[string]interface{}{
			"previous_level": previous,
			"level":          newConfig.Log.Level,
		})
		return nil
	})
	if err := watcher.Start(); err != nil {
		logger.LogError(err, "", "", "", "watch_config", "SYSTEM", nil)
		_ = watcher.Stop()
		return
	}
	a.watcher = watcher
}

// GetConfig 获取配置实例
func (a *App) GetConfig() *config.Config {
	return a.config
}

// GetRouter 获取路由器实例
func (a *App) GetRouter() *router.Router {
	return a.router
}

// Start 启动HTTP服务，阻塞直到服务关闭
func (a *App) Start() error {
	logger.LogSystemEvent("master", "start", "http server listening", logrus.InfoLevel, map[string]interface{}{
		"addr": a.httpServer.Addr,
	})
	if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start http server: %w", err)
	}
	return nil
}

// Stop 优雅关闭HTTP服务并释放连接
func (a *App) Stop(ctx context.Context) error {
	logger.LogSystemEvent("master", "stop", "shutting down", logrus.InfoLevel, nil)

	if a.watcher != nil {
		_ = a.watcher.Stop()
	}
	if err := a.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop http server: %w", err)
	}
	if a.redisClient != nil {
		_ = a.redisClient.Close()
	}
	return database.Close(a.db)
}
