package setup

import (
	"context"
	"fmt"

	"neovuln/internal/config"
	"neovuln/internal/pkg/logger"
	redisrepo "neovuln/internal/repo/redis"
	"neovuln/internal/service/ticket"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// BuildCoreModule 构建工单引擎
// 系统账号不存在时返回错误，服务不能在没有自动关闭操作人的情况下启动
func BuildCoreModule(ctx context.Context, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) (*CoreModule, error) {
	logger.WithFields(map[string]interface{}{
		"path":      "internal.app.master.setup.core.BuildCoreModule",
		"operation": "setup",
		"option":    "setup.core.begin",
		"func_name": "setup.core.BuildCoreModule",
	}).Info("开始构建工单引擎")

	engine, err := ticket.NewEngine(ctx, db, cfg.App.SystemAccount.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to init ticket engine: %w", err)
	}
	cache := redisrepo.NewSummaryCache(redisClient, cfg.App.SummaryCache.TTL, cfg.App.SummaryCache.KeyPrefix)

	logger.WithFields(map[string]interface{}{
		"path":           "internal.app.master.setup.core.BuildCoreModule",
		"operation":      "setup",
		"option":         "setup.core.done",
		"func_name":      "setup.core.BuildCoreModule",
		"system_user_id": engine.SystemUserID(),
		"summary_cache":  cache.Enabled(),
	}).Info("工单引擎构建完成")

	return &CoreModule{Engine: engine, Cache: cache}, nil
}
