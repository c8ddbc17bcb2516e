/**
 * 模型:错误定义
 * @author: sun977
 * @date: 2025.08.29
 * @description: 系统错误常量和错误类型定义
 */
package system

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 资源不存在，handler 映射为 404
	ErrNotFound = errors.New("资源不存在")

	ErrTagNotFound     = fmt.Errorf("%w: tag", ErrNotFound)
	ErrTopicNotFound   = fmt.Errorf("%w: topic", ErrNotFound)
	ErrActionNotFound  = fmt.Errorf("%w: action", ErrNotFound)
	ErrPTeamNotFound   = fmt.Errorf("%w: pteam", ErrNotFound)
	ErrAccountNotFound = fmt.Errorf("%w: account", ErrNotFound)

	// ErrConflict 资源已存在
	ErrConflict = errors.New("资源已存在")

	// 认证错误
	ErrUnauthorized = errors.New("未授权访问")
	ErrUserDisabled = errors.New("用户已被禁用")
)

// ValidationError 验证错误结构体
type ValidationError struct {
	Field   string `json:"field"`   // 字段名
	Message string `json:"message"` // 错误消息
}

// NewValidationError 创建验证错误
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error 实现error接口
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// IsValidationError 检查是否为验证错误(允许被包装)
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
