package database

import (
	"fmt"

	"neovuln/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewPostgresConnection 创建PostgreSQL数据库连接
func NewPostgresConnection(cfg *config.PostgresConfig) (*gorm.DB, error) {
	gormCfg := newGormConfig(cfg.LogLevel)
	gormCfg.DisableForeignKeyConstraintWhenMigrating = true

	db, err := gorm.Open(postgres.Open(cfg.GetPostgresDSN()), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := configurePool(db, poolOptions{
		maxIdleConns:    cfg.MaxIdleConns,
		maxOpenConns:    cfg.MaxOpenConns,
		connMaxLifetime: cfg.ConnMaxLifetime,
		connMaxIdleTime: cfg.ConnMaxIdleTime,
	}); err != nil {
		return nil, fmt.Errorf("failed to configure Postgres pool: %w", err)
	}

	return db, nil
}
