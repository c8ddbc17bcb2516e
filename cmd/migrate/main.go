/*
*
  - 数据库迁移工具
  - @author: Sun977
  - @date: 2025.10.15
  - @description: 数据库模型迁移和基础数据初始化工具
  - @usage: go run main.go -env=test -seed=true -drop=true
    -drop
    是否先删除表（危险操作）
    -env string
    环境标识 (test, development, production) (default "test")
    -seed
    是否填充基础数据 (default true)

示例:
main.exe -env=test -seed=true    # 测试环境迁移并创建系统账号
main.exe -env=production -seed=false   # 生产环境仅迁移表结构
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"neovuln/internal/config"
	"neovuln/internal/pkg/database"
	"neovuln/internal/pkg/logger"
	systemrepo "neovuln/internal/repo/mysql/system"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MigrateOptions 迁移选项配置
type MigrateOptions struct {
	ConfigPath  string // 配置文件目录
	Environment string // 环境标识
	SeedData    bool   // 是否填充基础数据
	DropFirst   bool   // 是否先删除表（危险操作）
}

func main() {
	opts := parseFlags()

	cfg, err := config.LoadConfig(opts.ConfigPath, opts.Environment)
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	logManager, err := logger.InitLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}
	entry := logManager.GetLogger().WithFields(logrus.Fields{
		"path":        "cmd/migrate/main.go",
		"operation":   "database_migration",
		"environment": opts.Environment,
		"driver":      cfg.Database.Driver,
	})
	entry.WithFields(logrus.Fields{
		"seed_data":  opts.SeedData,
		"drop_first": opts.DropFirst,
	}).Info("开始数据库迁移")

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		entry.WithField("error", err.Error()).Fatal("数据库连接失败")
	}
	defer func() { _ = database.Close(db) }()

	if err := performMigration(db, cfg, opts, entry); err != nil {
		entry.WithField("error", err.Error()).Fatal("数据库迁移失败")
	}
	entry.Info("数据库迁移完成")
}

// parseFlags 解析命令行参数
func parseFlags() *MigrateOptions {
	opts := &MigrateOptions{}

	flag.StringVar(&opts.ConfigPath, "config", "", "配置文件目录")
	flag.StringVar(&opts.Environment, "env", "test", "环境标识 (test, development, production)")
	flag.BoolVar(&opts.SeedData, "seed", true, "是否填充基础数据")
	flag.BoolVar(&opts.DropFirst, "drop", false, "是否先删除表（危险操作）")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "NeoVuln 数据库迁移工具\n\n")
		fmt.Fprintf(os.Stderr, "用法: %s [选项]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "选项:\n")
		flag.PrintDefaults()
	}

	flag.Parse()
	return opts
}

// performMigration 删除表(可选) -> 迁移模型 -> 创建系统账号(可选)
func performMigration(db *gorm.DB, cfg *config.Config, opts *MigrateOptions, entry *logrus.Entry) error {
	if opts.DropFirst {
		entry.Warn("开始删除数据库表")
		if err := database.DropAll(db); err != nil {
			return fmt.Errorf("删除表失败: %w", err)
		}
	}

	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("模型迁移失败: %w", err)
	}
	for _, model := range database.Models() {
		entry.WithField("model", fmt.Sprintf("%T", model)).Info("模型迁移成功")
	}

	if !opts.SeedData {
		return nil
	}
	// 自动关闭以系统账号的身份写入动作日志和状态
	account, err := systemrepo.NewAccountRepository(db).EnsureByEmail(context.Background(), cfg.App.SystemAccount.Email)
	if err != nil {
		return fmt.Errorf("创建系统账号失败: %w", err)
	}
	entry.WithFields(logrus.Fields{
		"user_id": account.UserID,
		"email":   account.Email,
	}).Info("系统账号就绪")
	return nil
}
