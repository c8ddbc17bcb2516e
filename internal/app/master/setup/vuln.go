package setup

import (
	vulnHandler "neovuln/internal/handler/vuln"
	"neovuln/internal/pkg/logger"
	vulnService "neovuln/internal/service/vuln"

	"gorm.io/gorm"
)

// BuildVulnModule 构建话题与处置动作模块
// 话题标签沿用标签模块的服务，写操作都经由工单引擎
func BuildVulnModule(db *gorm.DB, core *CoreModule, tags *TagModule) *VulnModule {
	topics := vulnService.NewTopicService(db, core.Engine, tags.TagService, core.Cache)
	actions := vulnService.NewActionService(db, core.Engine, core.Cache)

	logger.WithFields(map[string]interface{}{
		"path":      "internal.app.master.setup.vuln.BuildVulnModule",
		"operation": "setup",
		"option":    "setup.vuln.done",
		"func_name": "setup.vuln.BuildVulnModule",
	}).Info("话题模块构建完成")

	return &VulnModule{
		TopicHandler:  vulnHandler.NewTopicHandler(topics, actions),
		TopicService:  topics,
		ActionService: actions,
	}
}
