/**
 * 路由:路由管理器
 * @author: sun977
 * @date: 2025.10.10
 * @description: 路由管理器，包含Router结构体、NewRouter函数和SetupRoutes主函数
 * @func:
 */
package router

import (
	"context"

	"neovuln/internal/app/master/middleware"
	"neovuln/internal/app/master/setup"
	"neovuln/internal/config"

	// 统一使用项目封装的日志模块，便于采集规范字段与统一输出
	"neovuln/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Router 路由管理器
type Router struct {
	config            *config.Config
	engine            *gin.Engine
	db                *gorm.DB
	redisClient       *redis.Client
	middlewareManager *middleware.MiddlewareManager

	tagModule   *setup.TagModule
	vulnModule  *setup.VulnModule
	pteamModule *setup.PTeamModule
}

// NewRouter 创建路由管理器实例
// 工单引擎需要在数据库中解析系统账号，解析失败时返回错误
func NewRouter(ctx context.Context, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) (*Router, error) {
	// 初始化处理器(控制器是服务集合,先初始化服务,然后服务装填成控制器)
	core, err := setup.BuildCoreModule(ctx, db, redisClient, cfg)
	if err != nil {
		return nil, err
	}
	authModule := setup.BuildAuthModule(db, cfg)
	tagModule := setup.BuildTagSystemModule(db)
	vulnModule := setup.BuildVulnModule(db, core, tagModule)
	pteamModule := setup.BuildPTeamModule(db, cfg, core, tagModule)

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	return &Router{
		config:            cfg,
		engine:            engine,
		db:                db,
		redisClient:       redisClient,
		middlewareManager: authModule.MiddlewareManager,
		tagModule:         tagModule,
		vulnModule:        vulnModule,
		pteamModule:       pteamModule,
	}, nil
}

// SetupRoutes 设置全局中间件和路由
func (r *Router) SetupRoutes() {
	// 1) 先注册全局中间件；2) 再注册各模块路由。
	r.registerGlobalMiddleware()
	r.registerRoutes()
}

// GetEngine 获取Gin引擎实例
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// registerGlobalMiddleware 注册全局中间件
// 请求ID必须先于日志中间件，日志中间件负责把请求ID和客户端IP写入标准上下文
func (r *Router) registerGlobalMiddleware() {
	logger.WithFields(map[string]interface{}{
		"path":      "router_manager.registerGlobalMiddleware",
		"operation": "register_global_middleware",
		"option":    "middlewareManager.attach",
		"func_name": "router.registerGlobalMiddleware",
	}).Info("开始注册全局中间件")

	r.engine.Use(gin.Recovery())
	r.engine.Use(r.middlewareManager.GinRequestIDMiddleware())
	r.engine.Use(r.middlewareManager.GinCORSMiddleware())
	r.engine.Use(r.middlewareManager.GinSecurityHeadersMiddleware())
	r.engine.Use(r.middlewareManager.GinLoggingMiddleware())
	r.engine.Use(r.middlewareManager.GinRateLimitMiddleware())

	logger.WithFields(map[string]interface{}{
		"path":      "router_manager.registerGlobalMiddleware",
		"operation": "register_global_middleware",
		"option":    "middlewareManager.attach.done",
		"func_name": "router.registerGlobalMiddleware",
	}).Info("全局中间件注册完成")
}

// registerRoutes 注册路由
func (r *Router) registerRoutes() {
	api := r.engine.Group("/api")
	v1 := api.Group("/v1")
	// 业务接口都需要操作人令牌
	v1.Use(r.middlewareManager.GinActorAuthMiddleware())

	r.setupTagSystemRoutes(v1)
	r.setupVulnRoutes(v1)
	r.setupPTeamRoutes(v1)
	// 健康检查路由
	r.setupHealthRoutes(api)

	logger.WithFields(map[string]interface{}{
		"path":      "router_manager.registerRoutes",
		"operation": "register_routes",
		"option":    "routes.attach.done",
		"func_name": "router.registerRoutes",
		"routes":    len(r.engine.Routes()),
	}).Info("路由注册完成")
}
