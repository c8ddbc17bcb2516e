package database

import (
	"fmt"

	"neovuln/internal/config"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NewMySQLConnection 创建MySQL数据库连接
func NewMySQLConnection(cfg *config.MySQLConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.GetMySQLDSN()), newGormConfig(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	if err := configurePool(db, poolOptions{
		maxIdleConns:    cfg.MaxIdleConns,
		maxOpenConns:    cfg.MaxOpenConns,
		connMaxLifetime: cfg.ConnMaxLifetime,
		connMaxIdleTime: cfg.ConnMaxIdleTime,
	}); err != nil {
		return nil, fmt.Errorf("failed to configure MySQL pool: %w", err)
	}

	return db, nil
}
