package pteam

import "time"

// CreatePTeamRequest 创建团队请求
type CreatePTeamRequest struct {
	PTeamName   string `json:"pteam_name" binding:"required"`
	ContactInfo string `json:"contact_info"`
}

// UpdatePTeamRequest 更新团队请求，为空的字段不修改
type UpdatePTeamRequest struct {
	PTeamName   *string `json:"pteam_name"`
	ContactInfo *string `json:"contact_info"`
	Disabled    *bool   `json:"disabled"`
}

// SetTopicStatusRequest 设置工单状态请求
type SetTopicStatusRequest struct {
	TopicStatus TopicStatus `json:"topic_status" binding:"required"`
	Note        string      `json:"note"`
	Assignees   []string    `json:"assignees"`
	LoggingIDs  []string    `json:"logging_ids"`
	ScheduledAt *time.Time  `json:"scheduled_at"`
}

// ReferenceLine 引用上传文件(JSONL)中的一行
type ReferenceLine struct {
	TagName    string          `json:"tag_name"`
	References []ReferenceItem `json:"references"`
}

// ReferenceItem 单条引用
type ReferenceItem struct {
	Target  string `json:"target"`
	Version string `json:"version"`
}
