/**
 * 处理器:统一响应
 * @author: sun977
 * @date: 2025.12.06
 * @description: 服务层错误到 HTTP 状态码的映射与统一响应结构
 *   ValidationError -> 400, ErrNotFound -> 404, ErrConflict -> 409, 其余 500
 */
package common

import (
	"errors"
	"net/http"

	"neovuln/internal/model/system"
	"neovuln/internal/pkg/logger"
	"neovuln/internal/pkg/utils"

	"github.com/gin-gonic/gin"
)

// StatusFor 服务层错误对应的 HTTP 状态码
func StatusFor(err error) int {
	switch {
	case system.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, system.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, system.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, system.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Success 成功响应
func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

// BadRequest 请求参数无法绑定
func BadRequest(c *gin.Context, operation string, err error) {
	logger.LogBusinessError(err, requestID(c), utils.GetActorIDFromGinContext(c), utils.GetClientIP(c),
		c.Request.URL.String(), c.Request.Method, map[string]interface{}{
			"operation":  operation,
			"error":      "invalid_request",
			"user_agent": c.GetHeader("User-Agent"),
		})
	c.JSON(http.StatusBadRequest, system.APIResponse{
		Code:    http.StatusBadRequest,
		Status:  "failed",
		Message: "Invalid request",
		Error:   err.Error(),
	})
}

// Error 按错误类型响应，5xx 以外的错误不记录错误日志
func Error(c *gin.Context, operation string, err error, fields map[string]interface{}) {
	code := StatusFor(err)
	resp := system.APIResponse{Code: code, Status: "failed", Error: err.Error()}

	var ve *system.ValidationError
	switch {
	case errors.As(err, &ve):
		resp.Message = "Validation failed"
		resp.Errors = []system.ValidationError{*ve}
	case code == http.StatusNotFound:
		resp.Message = "Resource not found"
	case code == http.StatusConflict:
		resp.Message = "Resource already exists"
	case code == http.StatusUnauthorized:
		resp.Message = "Unauthorized"
	default:
		resp.Message = "Internal server error"
		if fields == nil {
			fields = map[string]interface{}{}
		}
		fields["operation"] = operation
		logger.LogBusinessError(err, requestID(c), utils.GetActorIDFromGinContext(c), utils.GetClientIP(c),
			c.Request.URL.String(), c.Request.Method, fields)
	}
	c.JSON(code, resp)
}

func requestID(c *gin.Context) string {
	if id := utils.GetRequestIDFromContext(c.Request.Context()); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}
