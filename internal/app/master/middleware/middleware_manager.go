package middleware

import (
	"neovuln/internal/config"
	"neovuln/internal/pkg/auth"
	systemrepo "neovuln/internal/repo/mysql/system"
)

// MiddlewareManager 中间件管理器
// 负责管理所有Gin框架的中间件，提供统一的中间件接口
type MiddlewareManager struct {
	jwtManager     *auth.JWTManager             // 操作人令牌验证
	accounts       systemrepo.AccountRepository // 令牌中的账号必须存在且未禁用
	securityConfig *config.SecurityConfig       // 安全配置，用于中间件配置
	limiter        *ipLimiter                   // 未启用限流时为 nil
}

// NewMiddlewareManager 创建中间件管理器
func NewMiddlewareManager(jwtManager *auth.JWTManager, accounts systemrepo.AccountRepository, securityConfig *config.SecurityConfig) *MiddlewareManager {
	m := &MiddlewareManager{
		jwtManager:     jwtManager,
		accounts:       accounts,
		securityConfig: securityConfig,
	}
	if securityConfig.RateLimit.Enabled {
		m.limiter = newIPLimiter(securityConfig.RateLimit)
	}
	return m
}
