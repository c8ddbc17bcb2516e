package model

import (
	"time"

	"github.com/google/uuid"
)

// 约定：
//  1. 业务表主键统一为 UUID 字符串(char(36))，字段名带表前缀(tag_id, topic_id ...)，
//     由各模型的 BeforeCreate 钩子调用 EnsureID 生成。
//  2. 时间字段使用微秒精度，状态历史依赖 created_at 排序判断最新记录。

// NewID 生成主键
func NewID() string {
	return uuid.NewString()
}

// EnsureID 主键为空时生成新的主键
func EnsureID(id *string) {
	if *id == "" {
		*id = NewID()
	}
}

// Now 当前时间，截断到数据库能保存的微秒精度
func Now() time.Time {
	return time.Now().Truncate(time.Microsecond)
}
