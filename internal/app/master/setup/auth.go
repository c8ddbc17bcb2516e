package setup

import (
	"neovuln/internal/app/master/middleware"
	"neovuln/internal/config"
	"neovuln/internal/pkg/auth"
	systemrepo "neovuln/internal/repo/mysql/system"

	"gorm.io/gorm"
)

// BuildAuthModule 构建操作人令牌管理器与中间件管理器
func BuildAuthModule(db *gorm.DB, cfg *config.Config) *AuthModule {
	jwtManager := auth.NewJWTManager(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer, cfg.Security.JWT.AccessTokenExpire)
	accounts := systemrepo.NewAccountRepository(db)

	return &AuthModule{
		JWTManager:        jwtManager,
		Accounts:          accounts,
		MiddlewareManager: middleware.NewMiddlewareManager(jwtManager, accounts, &cfg.Security),
	}
}
