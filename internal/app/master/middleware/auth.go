/**
 * 中间件:操作人认证
 * @author: sun977
 * @date: 2025.12.06
 * @description: 解析 Bearer 令牌得到操作人账号，写入Gin上下文与标准上下文
 * @func:
 *   - GinActorAuthMiddleware 操作人令牌中间件
 */
package middleware

import (
	"context"
	"errors"
	"net/http"

	"neovuln/internal/model/system"
	"neovuln/internal/pkg/auth"
	"neovuln/internal/pkg/logger"
	"neovuln/internal/pkg/utils"

	"github.com/gin-gonic/gin"
)

// GinActorAuthMiddleware 操作人令牌中间件
// 使用方式: group.Use(middlewareManager.GinActorAuthMiddleware())
func (m *MiddlewareManager) GinActorAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := utils.GetClientIP(c)
		requestID := c.GetString("request_id")

		token := auth.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if token == "" {
			m.abortUnauthorized(c, "missing bearer token")
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logger.LogBusinessError(err, requestID, "", clientIP, c.Request.URL.Path, c.Request.Method, map[string]interface{}{
				"operation": "actor_auth",
				"step":      "validate_token",
			})
			message := "invalid token"
			if errors.Is(err, auth.ErrTokenExpired) {
				message = "token has expired"
			}
			m.abortUnauthorized(c, message)
			return
		}

		account, err := m.accounts.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			logger.LogError(err, requestID, claims.UserID, clientIP, c.Request.URL.Path, c.Request.Method, map[string]interface{}{
				"operation": "actor_auth",
				"step":      "load_account",
			})
			c.AbortWithStatusJSON(http.StatusInternalServerError, system.APIResponse{
				Code:    http.StatusInternalServerError,
				Status:  "failed",
				Message: "Internal server error",
			})
			return
		}
		if account == nil {
			m.abortUnauthorized(c, system.ErrAccountNotFound.Error())
			return
		}
		if account.Disabled {
			m.abortUnauthorized(c, system.ErrUserDisabled.Error())
			return
		}

		c.Set(utils.GinKeyActorID, account.UserID)
		ctx := context.WithValue(c.Request.Context(), utils.ContextKeyActorID, account.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func (m *MiddlewareManager) abortUnauthorized(c *gin.Context, reason string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, system.APIResponse{
		Code:    http.StatusUnauthorized,
		Status:  "failed",
		Message: "Unauthorized",
		Error:   reason,
	})
}
