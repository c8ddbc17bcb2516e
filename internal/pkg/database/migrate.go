package database

import (
	"fmt"

	"neovuln/internal/model/pteam"
	"neovuln/internal/model/system"
	"neovuln/internal/model/tag_system"
	"neovuln/internal/model/vuln"

	"gorm.io/gorm"
)

// Models 需要迁移的全部模型，按依赖顺序排列
func Models() []interface{} {
	return []interface{}{
		&system.Account{},
		&tag_system.Tag{},
		&vuln.MispTag{},
		&vuln.Topic{},
		&vuln.TopicTag{},
		&vuln.TopicMispTag{},
		&vuln.TopicAction{},
		&vuln.ActionLog{},
		&pteam.PTeam{},
		&pteam.PTeamTagReference{},
		&pteam.PTeamTopicTagStatus{},
		&pteam.CurrentPTeamTopicTagStatus{},
	}
}

// AutoMigrate 创建或更新全部表结构
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// DropAll 删除全部表，逆序执行
func DropAll(db *gorm.DB) error {
	models := Models()
	for i := len(models) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(models[i]); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}
	return nil
}
