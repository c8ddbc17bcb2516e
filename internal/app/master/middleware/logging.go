/**
 * 中间件:日志相关中间件
 * @author: sun977
 * @date: 2025.10.10
 * @description: 定义日志中间件
 * @func:
 *   - GinLoggingMiddleware Gin日志中间件[同时把客户端IP和请求ID存储到Gin上下文和标准上下文,供后续使用]
 */
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"neovuln/internal/pkg/logger"
	"neovuln/internal/pkg/utils"

	"github.com/gin-gonic/gin"
)

// GinLoggingMiddleware Gin日志中间件
// 记录所有HTTP请求的访问日志，4xx/5xx 额外记录错误日志
// 使用方式: router.Use(middlewareManager.GinLoggingMiddleware())
func (m *MiddlewareManager) GinLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		clientIP := utils.GetClientIP(c)
		requestID := c.GetString("request_id")
		if requestID == "" {
			requestID = c.GetHeader("X-Request-ID")
		}

		// 存储到Gin上下文
		c.Set("client_ip", clientIP)

		// 存储到标准上下文，service 层只拿得到标准上下文
		ctx := context.WithValue(c.Request.Context(), utils.ContextKeyClientIP, clientIP)
		ctx = context.WithValue(ctx, utils.ContextKeyRequestID, requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if m.skipRequestLog(c.Request.URL.Path) {
			return
		}

		actorID := utils.GetActorIDFromGinContext(c)
		logger.LogAccessRequest(c, start, requestID, actorID)

		duration := time.Since(start)
		if threshold := m.slowRequestThreshold(); threshold > 0 && duration > threshold {
			logger.WithFields(map[string]interface{}{
				"type":       logger.SystemLog,
				"operation":  "slow_request",
				"method":     c.Request.Method,
				"path":       c.Request.URL.Path,
				"duration":   duration.Milliseconds(),
				"request_id": requestID,
			}).Warn("slow request")
		}

		statusCode := c.Writer.Status()
		if statusCode >= 400 {
			errorMsg := http.StatusText(statusCode)
			if errs := c.Errors; len(errs) > 0 {
				errorMsg = errs.String()
			}
			logger.LogError(fmt.Errorf("HTTP %d: %s", statusCode, errorMsg), requestID, actorID, clientIP, c.Request.URL.Path, c.Request.Method, map[string]interface{}{
				"operation":   "http_request",
				"url":         c.Request.URL.String(),
				"status_code": statusCode,
				"user_agent":  c.GetHeader("User-Agent"),
				"timestamp":   logger.NowFormatted(),
			})
		}
	}
}

func (m *MiddlewareManager) skipRequestLog(path string) bool {
	if m.securityConfig == nil {
		return false
	}
	if !m.securityConfig.Logging.EnableRequestLog {
		return true
	}
	for _, p := range m.securityConfig.Logging.SkipPaths {
		if p == path {
			return true
		}
	}
	return false
}

func (m *MiddlewareManager) slowRequestThreshold() time.Duration {
	if m.securityConfig == nil {
		return 0
	}
	return m.securityConfig.Logging.SlowRequestThreshold
}
