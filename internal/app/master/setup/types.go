/**
 * 初始化
 * @author: sun977
 * @date: 2025.11.05
 * @description: 包含master程序初始化相关的类型定义
 * @func: Handler 本身包含 Service,但是Servicer本身又重新暴露一遍,方便调用
 */
package setup

import (
	"neovuln/internal/app/master/middleware"
	pteamHandler "neovuln/internal/handler/pteam"
	tagHandler "neovuln/internal/handler/tag_system"
	vulnHandler "neovuln/internal/handler/vuln"
	"neovuln/internal/pkg/auth"
	systemrepo "neovuln/internal/repo/mysql/system"
	redisrepo "neovuln/internal/repo/redis"
	pteamService "neovuln/internal/service/pteam"
	tagService "neovuln/internal/service/tag_system"
	"neovuln/internal/service/ticket"
	vulnService "neovuln/internal/service/vuln"
)

// CoreModule 工单引擎与摘要缓存，所有写操作共用
type CoreModule struct {
	Engine *ticket.Engine
	Cache  *redisrepo.SummaryCache
}

// AuthModule 操作人令牌与中间件
type AuthModule struct {
	JWTManager        *auth.JWTManager
	Accounts          systemrepo.AccountRepository
	MiddlewareManager *middleware.MiddlewareManager
}

// TagModule 是标签系统模块的聚合输出
type TagModule struct {
	TagHandler *tagHandler.TagHandler
	TagService tagService.TagService
}

// VulnModule 话题与处置动作模块
type VulnModule struct {
	TopicHandler  *vulnHandler.TopicHandler
	TopicService  vulnService.TopicService
	ActionService vulnService.ActionService
}

// PTeamModule 团队模块
type PTeamModule struct {
	PTeamHandler *pteamHandler.PTeamHandler
	PTeamService pteamService.PTeamService
}
