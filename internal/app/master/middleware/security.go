/**
 * 中间件:安全中间件
 * @author: sun977
 * @date: 2025.10.10
 * @description: 定义安全中间件
 * @func:
 *   - GinCORSMiddleware CORS跨域资源共享中间件,按配置的来源白名单设置CORS头部
 *   - GinSecurityHeadersMiddleware 安全头部中间件,设置必要的安全头部信息
 *   - GinRequestIDMiddleware 请求ID中间件,为每个请求添加唯一的请求ID,方便日志跟踪和调试
 */
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// GinCORSMiddleware CORS跨域资源共享中间件
// allow_origins 为空时回显请求来源，否则只放行列表中的来源
func (m *MiddlewareManager) GinCORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.securityConfig != nil && !m.securityConfig.CORS.Enabled {
			c.Next()
			return
		}

		origin := c.Request.Header.Get("Origin")
		logrus.WithFields(logrus.Fields{
			"path":      c.Request.URL.Path,
			"operation": "cors_middleware",
			"func_name": "middleware.security.GinCORSMiddleware",
			"method":    c.Request.Method,
			"origin":    origin,
		}).Debug("Processing CORS request")

		if allowed := m.allowedOrigin(origin); allowed != "" {
			c.Header("Access-Control-Allow-Origin", allowed)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers",
			"Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Cache-Control, X-Requested-With, X-Request-ID")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")
		c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Type, X-Request-ID")

		// 预检请求直接返回
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (m *MiddlewareManager) allowedOrigin(origin string) string {
	var allow []string
	if m.securityConfig != nil {
		allow = m.securityConfig.CORS.AllowOrigins
	}
	if len(allow) == 0 {
		if origin == "" {
			return "*"
		}
		return origin
	}
	for _, o := range allow {
		if o == "*" || o == origin {
			return origin
		}
	}
	return ""
}

// GinSecurityHeadersMiddleware 安全头中间件
func (m *MiddlewareManager) GinSecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// X-Content-Type-Options: 防止MIME类型嗅探攻击
		c.Header("X-Content-Type-Options", "nosniff")
		// X-Frame-Options: 防止点击劫持攻击
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		// 纯 JSON 接口，不需要加载任何资源
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// Strict-Transport-Security: 强制HTTPS（仅在HTTPS环境下设置）
		if c.Request.TLS != nil || c.Request.Header.Get("X-Forwarded-Proto") == "https" {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Header("Server", "NeoVuln")

		c.Next()
	}
}

// GinRequestIDMiddleware 请求ID中间件
// 沿用代理传入的 X-Request-ID，没有时生成新的
func (m *MiddlewareManager) GinRequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}
