// 漏洞话题模型
// 话题(Topic)是一条漏洞通告，带有影响的标签、MISP 分类标签和若干处置动作(TopicAction)
package vuln

import (
	"time"

	model "neovuln/internal/model/basemodel"
	"neovuln/internal/model/tag_system"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 威胁影响等级，数值越小越紧急
const (
	ThreatImpactImmediate  = 1
	ThreatImpactOffCycle   = 2
	ThreatImpactAcceptable = 3
	ThreatImpactNone       = 4
)

// Topic 话题表
type Topic struct {
	TopicID            string    `json:"topic_id" gorm:"primaryKey;type:char(36)"`
	Title              string    `json:"title" gorm:"size:255;not null"`
	Abstract           string    `json:"abstract" gorm:"type:text;not null"`
	ThreatImpact       int       `json:"threat_impact" gorm:"not null;index"`
	Disabled           bool      `json:"disabled" gorm:"not null;default:false;index"`
	ContentFingerprint string    `json:"content_fingerprint" gorm:"size:32;not null"`
	CreatedBy          string    `json:"created_by" gorm:"type:char(36);index"`
	CreatedAt          time.Time `json:"created_at" gorm:"precision:6"`
	UpdatedAt          time.Time `json:"updated_at" gorm:"precision:6"`

	// 以下字段由仓库层按关联表填充
	Tags     []*tag_system.Tag `json:"tags" gorm:"-"`
	MispTags []*MispTag        `json:"misp_tags" gorm:"-"`
	Actions  []*TopicAction    `json:"actions,omitempty" gorm:"-"`
}

func (Topic) TableName() string {
	return "topics"
}

func (t *Topic) BeforeCreate(tx *gorm.DB) error {
	model.EnsureID(&t.TopicID)
	return nil
}

// TagIDs 话题标签ID列表
func (t *Topic) TagIDs() []string {
	ids := make([]string, 0, len(t.Tags))
	for _, tag := range t.Tags {
		ids = append(ids, tag.TagID)
	}
	return ids
}

// TagNames 话题标签名列表
func (t *Topic) TagNames() []string {
	names := make([]string, 0, len(t.Tags))
	for _, tag := range t.Tags {
		names = append(names, tag.TagName)
	}
	return names
}

// TopicTag 话题-标签关联表
type TopicTag struct {
	TopicID string `gorm:"primaryKey;type:char(36)"`
	TagID   string `gorm:"primaryKey;type:char(36);index"`
}

func (TopicTag) TableName() string {
	return "topic_tags"
}

// MispTag MISP 分类标签，没有层级
type MispTag struct {
	TagID   string `json:"tag_id" gorm:"primaryKey;type:char(36)"`
	TagName string `json:"tag_name" gorm:"size:255;not null;uniqueIndex"`
}

func (MispTag) TableName() string {
	return "misp_tags"
}

func (t *MispTag) BeforeCreate(tx *gorm.DB) error {
	model.EnsureID(&t.TagID)
	return nil
}

// TopicMispTag 话题-MISP标签关联表
type TopicMispTag struct {
	TopicID string `gorm:"primaryKey;type:char(36)"`
	TagID   string `gorm:"primaryKey;type:char(36);index"`
}

func (TopicMispTag) TableName() string {
	return "topic_misp_tags"
}

// ActionType 处置动作类型
type ActionType string

const (
	ActionTypeElimination ActionType = "elimination"
	ActionTypeTransfer    ActionType = "transfer"
	ActionTypeMitigation  ActionType = "mitigation"
	ActionTypeAcceptance  ActionType = "acceptance"
	ActionTypeDetection   ActionType = "detection"
	ActionTypeRejection   ActionType = "rejection"
)

// Valid 是否为已知的动作类型
func (t ActionType) Valid() bool {
	switch t {
	case ActionTypeElimination, ActionTypeTransfer, ActionTypeMitigation,
		ActionTypeAcceptance, ActionTypeDetection, ActionTypeRejection:
		return true
	}
	return false
}

// ActionExt 处置动作扩展信息
// VulnerableVersions: 标签名 -> 受影响版本范围表达式列表，每个表达式可用 "||" 连接多个子范围
type ActionExt struct {
	Tags               []string            `json:"tags"`
	VulnerableVersions map[string][]string `json:"vulnerable_versions"`
}

// TopicAction 处置动作表
type TopicAction struct {
	ActionID    string                        `json:"action_id" gorm:"primaryKey;type:char(36)"`
	TopicID     string                        `json:"topic_id" gorm:"type:char(36);not null;index"`
	Action      string                        `json:"action" gorm:"type:text;not null"`
	ActionType  ActionType                    `json:"action_type" gorm:"size:32;not null"`
	Recommended bool                          `json:"recommended" gorm:"not null;default:false"`
	Ext         datatypes.JSONType[ActionExt] `json:"ext"`
	CreatedBy   string                        `json:"created_by" gorm:"type:char(36)"`
	CreatedAt   time.Time                     `json:"created_at" gorm:"precision:6"`
}

func (TopicAction) TableName() string {
	return "topic_actions"
}

func (a *TopicAction) BeforeCreate(tx *gorm.DB) error {
	model.EnsureID(&a.ActionID)
	return nil
}

// ExtData 扩展信息
func (a *TopicAction) ExtData() ActionExt {
	return a.Ext.Data()
}

// ActionLog 动作执行日志
// 动作的内容在执行时做快照，动作被删除后日志仍然可读
type ActionLog struct {
	LoggingID   string     `json:"logging_id" gorm:"primaryKey;type:char(36)"`
	ActionID    string     `json:"action_id" gorm:"type:char(36);not null;index"`
	TopicID     string     `json:"topic_id" gorm:"type:char(36);not null;index"`
	UserID      string     `json:"user_id" gorm:"type:char(36);not null"`
	PTeamID     *string    `json:"pteam_id" gorm:"column:pteam_id;type:char(36);index"`
	Action      string     `json:"action" gorm:"type:text;not null"`
	ActionType  ActionType `json:"action_type" gorm:"size:32;not null"`
	Recommended bool       `json:"recommended" gorm:"not null;default:false"`
	ExecutedAt  time.Time  `json:"executed_at" gorm:"precision:6"`
	CreatedAt   time.Time  `json:"created_at" gorm:"precision:6"`
}

func (ActionLog) TableName() string {
	return "action_logs"
}

func (l *ActionLog) BeforeCreate(tx *gorm.DB) error {
	model.EnsureID(&l.LoggingID)
	return nil
}
