package setup

import (
	"neovuln/internal/config"
	pteamHandler "neovuln/internal/handler/pteam"
	"neovuln/internal/pkg/logger"
	pteamService "neovuln/internal/service/pteam"

	"gorm.io/gorm"
)

// BuildPTeamModule 构建团队模块
func BuildPTeamModule(db *gorm.DB, cfg *config.Config, core *CoreModule, tags *TagModule) *PTeamModule {
	service := pteamService.NewPTeamService(db, core.Engine, tags.TagService, core.Cache,
		pteamService.WithMaxLineBytes(cfg.App.Upload.MaxLineBytes))

	logger.WithFields(map[string]interface{}{
		"path":           "internal.app.master.setup.pteam.BuildPTeamModule",
		"operation":      "setup",
		"option":         "setup.pteam.done",
		"func_name":      "setup.pteam.BuildPTeamModule",
		"max_line_bytes": cfg.App.Upload.MaxLineBytes,
	}).Info("团队模块构建完成")

	return &PTeamModule{
		PTeamHandler: pteamHandler.NewPTeamHandler(service),
		PTeamService: service,
	}
}
