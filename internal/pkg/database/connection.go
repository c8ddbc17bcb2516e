package database

import (
	"fmt"
	"time"

	"neovuln/internal/config"
	model "neovuln/internal/model/basemodel"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewConnection 按配置的驱动创建关系库连接
func NewConnection(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case "mysql", "":
		return NewMySQLConnection(&cfg.MySQL)
	case "postgres":
		return NewPostgresConnection(&cfg.Postgres)
	case "sqlite":
		return NewSQLiteConnection(&cfg.SQLite)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// Close 关闭底层连接池
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// newGormConfig 根据配置的日志级别生成GORM配置
func newGormConfig(level string) *gorm.Config {
	var logLevel logger.LogLevel
	switch level {
	case "silent":
		logLevel = logger.Silent
	case "error":
		logLevel = logger.Error
	case "warn":
		logLevel = logger.Warn
	case "info":
		logLevel = logger.Info
	default:
		logLevel = logger.Warn
	}

	return &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// 与列精度(微秒)一致，写入前后的时间可以直接比较
		NowFunc: model.Now,
	}
}

type poolOptions struct {
	maxIdleConns    int
	maxOpenConns    int
	connMaxLifetime time.Duration
	connMaxIdleTime time.Duration
}

// configurePool 配置连接池并测试连接
func configurePool(db *gorm.DB, opts poolOptions) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if opts.maxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.maxIdleConns)
	}
	if opts.maxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.maxOpenConns)
	}
	if opts.connMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.connMaxLifetime)
	}
	if opts.connMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(opts.connMaxIdleTime)
	}

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}
