package system

import (
	"time"

	model "neovuln/internal/model/basemodel"

	"gorm.io/gorm"
)

// Account 账号
// 只保存识别操作人所需的信息，登录与权限不在本服务内管理
type Account struct {
	UserID    string    `json:"user_id" gorm:"primaryKey;type:char(36)"`
	Email     string    `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Disabled  bool      `json:"disabled" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;precision:6"`
}

func (Account) TableName() string {
	return "accounts"
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	model.EnsureID(&a.UserID)
	return nil
}
