package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"neovuln/internal/config"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// NewSQLiteConnection 创建SQLite数据库连接 (纯Go驱动)
// SQLite 同一时刻只允许一个写事务，这里把连接池固定为单连接，内存库也依赖这一点保持同一个实例
func NewSQLiteConnection(cfg *config.SQLiteConfig) (*gorm.DB, error) {
	if !strings.Contains(cfg.Path, ":memory:") {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), newGormConfig(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	if err := configurePool(db, poolOptions{maxIdleConns: 1, maxOpenConns: 1}); err != nil {
		return nil, fmt.Errorf("failed to configure SQLite pool: %w", err)
	}

	return db, nil
}
