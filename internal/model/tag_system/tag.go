// 标签系统模型
// 标签是软件包标识，形如 "名称:生态:包管理器"，最多一层父标签
package tag_system

import (
	model "neovuln/internal/model/basemodel"

	"gorm.io/gorm"
)

// Tag 标签表
// ParentID/ParentName 指向父标签，组级标签可以以自身为父标签
type Tag struct {
	TagID      string  `json:"tag_id" gorm:"primaryKey;type:char(36)"`
	TagName    string  `json:"tag_name" gorm:"size:255;not null;uniqueIndex"`
	ParentID   *string `json:"parent_id" gorm:"type:char(36);index"`
	ParentName *string `json:"parent_name" gorm:"size:255"`
}

func (Tag) TableName() string {
	return "tags"
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	model.EnsureID(&t.TagID)
	return nil
}

// ParentNameOrEmpty 父标签名，没有父标签时为空串
func (t *Tag) ParentNameOrEmpty() string {
	if t.ParentName == nil {
		return ""
	}
	return *t.ParentName
}
