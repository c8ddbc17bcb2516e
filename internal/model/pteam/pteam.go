// 团队模型
// 团队(PTeam)通过引用(PTeamTagReference)声明自己运行的软件包及版本
package pteam

import (
	"time"

	model "neovuln/internal/model/basemodel"

	"gorm.io/gorm"
)

// PTeam 团队表
type PTeam struct {
	PTeamID     string    `json:"pteam_id" gorm:"column:pteam_id;primaryKey;type:char(36)"`
	PTeamName   string    `json:"pteam_name" gorm:"column:pteam_name;size:255;not null"`
	ContactInfo string    `json:"contact_info" gorm:"size:255"`
	Disabled    bool      `json:"disabled" gorm:"not null;default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"precision:6"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"precision:6"`
}

func (PTeam) TableName() string {
	return "pteams"
}

func (p *PTeam) BeforeCreate(tx *gorm.DB) error {
	model.EnsureID(&p.PTeamID)
	return nil
}

// PTeamTagReference 团队标签引用
// 同一标签可以有多条引用(不同分组/目标/版本)
type PTeamTagReference struct {
	ReferenceID string `json:"reference_id" gorm:"primaryKey;type:char(36)"`
	PTeamID     string `json:"pteam_id" gorm:"column:pteam_id;type:char(36);not null;index:idx_ref_pteam_tag;index:idx_ref_pteam_group"`
	TagID       string `json:"tag_id" gorm:"type:char(36);not null;index:idx_ref_pteam_tag;index"`
	Group       string `json:"group" gorm:"column:group;size:255;not null;index:idx_ref_pteam_group"`
	Target      string `json:"target" gorm:"size:255;not null"`
	Version     string `json:"version" gorm:"size:255;not null"`
}

func (PTeamTagReference) TableName() string {
	return "pteam_tag_references"
}

func (r *PTeamTagReference) BeforeCreate(tx *gorm.DB) error {
	model.EnsureID(&r.ReferenceID)
	return nil
}
