/*
 * @author: sun977
 * @date: 2025.11.12
 * @description: 通用的工具包
 */

package utils

import (
	"context"

	"github.com/gin-gonic/gin"
)

// ContextKey 类型用于标准上下文键的定义，避免使用裸字符串造成键冲突
type ContextKey string

const (
	// ContextKeyClientIP 标准上下文中存储客户端IP的统一键
	ContextKeyClientIP ContextKey = "client_ip"
	// ContextKeyActorID 标准上下文中存储当前操作人ID的统一键
	ContextKeyActorID ContextKey = "actor_id"
	// ContextKeyRequestID 标准上下文中存储请求ID的统一键
	ContextKeyRequestID ContextKey = "request_id"
)

// GinKeyActorID 操作人ID在Gin上下文中的键，由操作人令牌中间件写入
const GinKeyActorID = "actor_id"

// GetActorIDFromGinContext 从 Gin 上下文中提取当前操作人ID
// 不存在时返回空字符串
func GetActorIDFromGinContext(c *gin.Context) string {
	if v, ok := c.Get(GinKeyActorID); ok {
		if id, ok2 := v.(string); ok2 {
			return id
		}
	}
	return ""
}

// GetClientIPFromContext 从标准上下文读取客户端IP（统一键）
// 来源：logging 中间件写入请求的标准上下文
func GetClientIPFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// GetActorIDFromContext 从标准上下文读取操作人ID
func GetActorIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyActorID).(string); ok {
		return id
	}
	return ""
}

// GetRequestIDFromContext 从标准上下文读取请求ID
func GetRequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}
