package pteam

import (
	"time"

	"neovuln/internal/model/vuln"
)

// PTeamResponse 团队详情
type PTeamResponse struct {
	PTeamID     string               `json:"pteam_id"`
	PTeamName   string               `json:"pteam_name"`
	ContactInfo string               `json:"contact_info"`
	Disabled    bool                 `json:"disabled"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	References  []*ReferenceResponse `json:"references"`
}

// ReferenceResponse 团队引用
type ReferenceResponse struct {
	TagID   string `json:"tag_id"`
	TagName string `json:"tag_name"`
	Group   string `json:"group"`
	Target  string `json:"target"`
	Version string `json:"version"`
}

// UploadReferencesResponse 引用上传结果
type UploadReferencesResponse struct {
	PTeamID     string   `json:"pteam_id"`
	Group       string   `json:"group"`
	Tags        int      `json:"tags"`
	References  int      `json:"references"`
	ChangedTags []string `json:"changed_tags"`
}

// TopicStatusResponse 工单当前状态
// 没有任何状态记录时 TopicStatus 为 alerted，其余字段为空
type TopicStatusResponse struct {
	PTeamID     string      `json:"pteam_id"`
	TopicID     string      `json:"topic_id"`
	TagID       string      `json:"tag_id"`
	StatusID    *string     `json:"status_id"`
	TopicStatus TopicStatus `json:"topic_status"`
	UserID      string      `json:"user_id,omitempty"`
	Note        string      `json:"note,omitempty"`
	Assignees   []string    `json:"assignees"`
	LoggingIDs  []string    `json:"logging_ids"`
	ScheduledAt *time.Time  `json:"scheduled_at"`
	CreatedAt   *time.Time  `json:"created_at"`
}

// NewTopicStatusResponse 由最新状态记录生成响应，status 可以为 nil
func NewTopicStatusResponse(key StatusKey, status *PTeamTopicTagStatus) *TopicStatusResponse {
	resp := &TopicStatusResponse{
		PTeamID:     key.PTeamID,
		TopicID:     key.TopicID,
		TagID:       key.TagID,
		TopicStatus: TopicStatusAlerted,
		Assignees:   []string{},
		LoggingIDs:  []string{},
	}
	if status == nil {
		return resp
	}
	createdAt := status.CreatedAt
	resp.StatusID = &status.StatusID
	resp.TopicStatus = status.TopicStatus
	resp.UserID = status.UserID
	resp.Note = status.Note
	resp.Assignees = append(resp.Assignees, status.Assignees...)
	resp.LoggingIDs = append(resp.LoggingIDs, status.LoggingIDs...)
	resp.ScheduledAt = status.ScheduledAt
	resp.CreatedAt = &createdAt
	return resp
}

// TopicStatusHistoryEntry 一条状态历史记录，附带其引用的动作日志(按执行时间倒序)
type TopicStatusHistoryEntry struct {
	*TopicStatusResponse
	ActionLogs []*vuln.ActionLog `json:"action_logs"`
}

// TagSummary 团队单个标签的工单统计
// ThreatImpactCount 只统计未完成的工单，键为威胁等级 "1".."4"
type TagSummary struct {
	TagID             string         `json:"tag_id"`
	TagName           string         `json:"tag_name"`
	ThreatImpactCount map[string]int `json:"threat_impact_count"`
	StatusCount       map[string]int `json:"status_count"`
	UpdatedAt         *time.Time     `json:"updated_at"`
}

// PTeamSummary 团队工单统计
type PTeamSummary struct {
	PTeamID string        `json:"pteam_id"`
	Tags    []*TagSummary `json:"tags"`
}
