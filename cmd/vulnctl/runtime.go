package main

import (
	"context"
	"fmt"

	"neovuln/internal/app/master/setup"
	"neovuln/internal/config"
	"neovuln/internal/pkg/database"
	"neovuln/internal/pkg/logger"
	"neovuln/internal/pkg/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// runtime 命令执行所需的连接与模块
type runtime struct {
	cfg         *config.Config
	db          *gorm.DB
	redisClient *redis.Client
	auth        *setup.AuthModule
	vuln        *setup.VulnModule
	pteam       *setup.PTeamModule
	actorID     string
}

// newRuntime 加载配置并装配服务，ctx 中写入请求ID与操作人
func newRuntime(ctx context.Context) (*runtime, context.Context, error) {
	cfg, err := config.LoadConfig(cfgPath, env)
	if err != nil {
		return nil, ctx, fmt.Errorf("failed to load config: %w", err)
	}
	if _, err := logger.InitLogger(&cfg.Log); err != nil {
		return nil, ctx, fmt.Errorf("failed to init logger: %w", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, ctx, fmt.Errorf("failed to connect database: %w", err)
	}
	rt := &runtime{cfg: cfg, db: db}
	rt.redisClient, err = database.NewRedisConnection(&cfg.Database.Redis)
	if err != nil {
		rt.Close()
		return nil, ctx, fmt.Errorf("failed to connect redis: %w", err)
	}

	core, err := setup.BuildCoreModule(ctx, db, rt.redisClient, cfg)
	if err != nil {
		rt.Close()
		return nil, ctx, err
	}
	tags := setup.BuildTagSystemModule(db)
	rt.auth = setup.BuildAuthModule(db, cfg)
	rt.vuln = setup.BuildVulnModule(db, core, tags)
	rt.pteam = setup.BuildPTeamModule(db, cfg, core, tags)

	rt.actorID = core.Engine.SystemUserID()
	if actorEmail != "" {
		account, err := rt.auth.Accounts.GetByEmail(ctx, actorEmail)
		if err != nil {
			rt.Close()
			return nil, ctx, err
		}
		if account == nil {
			rt.Close()
			return nil, ctx, fmt.Errorf("account %q not found", actorEmail)
		}
		rt.actorID = account.UserID
	}

	ctx = context.WithValue(ctx, utils.ContextKeyRequestID, "cli-"+uuid.NewString())
	ctx = context.WithValue(ctx, utils.ContextKeyActorID, rt.actorID)
	return rt, ctx, nil
}

func (rt *runtime) Close() {
	if rt.redisClient != nil {
		_ = rt.redisClient.Close()
	}
	_ = database.Close(rt.db)
}
