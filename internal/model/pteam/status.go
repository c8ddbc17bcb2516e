package pteam

import (
	"time"

	model "neovuln/internal/model/basemodel"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TopicStatus 工单状态
// alerted 只表示"没有任何状态记录"，不会写入状态历史表
type TopicStatus string

const (
	TopicStatusAlerted      TopicStatus = "alerted"
	TopicStatusAcknowledged TopicStatus = "acknowledged"
	TopicStatusScheduled    TopicStatus = "scheduled"
	TopicStatusCompleted    TopicStatus = "completed"
)

// Valid 是否为已知状态
func (s TopicStatus) Valid() bool {
	switch s {
	case TopicStatusAlerted, TopicStatusAcknowledged, TopicStatusScheduled, TopicStatusCompleted:
		return true
	}
	return false
}

// PTeamTopicTagStatus 状态历史，只追加不修改
// 同一 (pteam, topic, tag) 下 created_at 最大的一条即当前状态
type PTeamTopicTagStatus struct {
	StatusID    string                      `json:"status_id" gorm:"primaryKey;type:char(36)"`
	PTeamID     string                      `json:"pteam_id" gorm:"column:pteam_id;type:char(36);not null;index:idx_status_triple"`
	TopicID     string                      `json:"topic_id" gorm:"type:char(36);not null;index:idx_status_triple;index"`
	TagID       string                      `json:"tag_id" gorm:"type:char(36);not null;index:idx_status_triple"`
	TopicStatus TopicStatus                 `json:"topic_status" gorm:"size:32;not null"`
	UserID      string                      `json:"user_id" gorm:"type:char(36);not null"`
	Note        string                      `json:"note" gorm:"type:text"`
	Assignees   datatypes.JSONSlice[string] `json:"assignees"`
	LoggingIDs  datatypes.JSONSlice[string] `json:"logging_ids" gorm:"column:logging_ids"`
	ScheduledAt *time.Time                  `json:"scheduled_at" gorm:"precision:6"`
	CreatedAt   time.Time                   `json:"created_at" gorm:"precision:6;index"`
}

func (PTeamTopicTagStatus) TableName() string {
	return "pteam_topic_tag_statuses"
}

func (s *PTeamTopicTagStatus) BeforeCreate(tx *gorm.DB) error {
	model.EnsureID(&s.StatusID)
	if s.Assignees == nil {
		s.Assignees = datatypes.JSONSlice[string]{}
	}
	if s.LoggingIDs == nil {
		s.LoggingIDs = datatypes.JSONSlice[string]{}
	}
	return nil
}

// ScheduledInFuture 是否为计划在 now 之后处理的 scheduled 状态
func (s *PTeamTopicTagStatus) ScheduledInFuture(now time.Time) bool {
	return s.TopicStatus == TopicStatusScheduled && s.ScheduledAt != nil && s.ScheduledAt.After(now)
}

// CurrentPTeamTopicTagStatus 当前状态物化表
// 行存在当且仅当团队引用的标签(或其父标签)出现在启用话题的标签中且团队启用
// 最新状态为 completed 时 threat_impact 与 updated_at 置空
type CurrentPTeamTopicTagStatus struct {
	PTeamID      string      `json:"pteam_id" gorm:"column:pteam_id;primaryKey;type:char(36)"`
	TopicID      string      `json:"topic_id" gorm:"primaryKey;type:char(36);index"`
	TagID        string      `json:"tag_id" gorm:"primaryKey;type:char(36)"`
	StatusID     *string     `json:"status_id" gorm:"type:char(36)"`
	TopicStatus  TopicStatus `json:"topic_status" gorm:"size:32;not null;default:'alerted'"`
	ThreatImpact *int        `json:"threat_impact"`
	UpdatedAt    *time.Time  `json:"updated_at" gorm:"precision:6;autoUpdateTime:false"`
}

func (CurrentPTeamTopicTagStatus) TableName() string {
	return "current_pteam_topic_tag_statuses"
}

// Key 三元组主键
func (c *CurrentPTeamTopicTagStatus) Key() StatusKey {
	return StatusKey{PTeamID: c.PTeamID, TopicID: c.TopicID, TagID: c.TagID}
}

// StatusKey (pteam, topic, tag) 三元组
type StatusKey struct {
	PTeamID string
	TopicID string
	TagID   string
}

// KeyOf 状态历史记录的三元组
func KeyOf(s *PTeamTopicTagStatus) StatusKey {
	return StatusKey{PTeamID: s.PTeamID, TopicID: s.TopicID, TagID: s.TagID}
}
