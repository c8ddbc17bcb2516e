package setup

import (
	tagHandler "neovuln/internal/handler/tag_system"
	"neovuln/internal/pkg/logger"
	tagService "neovuln/internal/service/tag_system"

	"gorm.io/gorm"
)

// BuildTagSystemModule 构建标签系统模块
func BuildTagSystemModule(db *gorm.DB) *TagModule {
	service := tagService.NewTagService(db)
	handler := tagHandler.NewTagHandler(service)

	logger.WithFields(map[string]interface{}{
		"path":      "internal.app.master.setup.tag_system.BuildTagSystemModule",
		"operation": "setup",
		"option":    "setup.tag_system.done",
		"func_name": "setup.tag_system.BuildTagSystemModule",
	}).Info("标签系统模块构建完成")

	return &TagModule{
		TagHandler: handler,
		TagService: service,
	}
}
