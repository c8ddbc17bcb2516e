package vuln

import (
	"sort"
	"time"

	"neovuln/internal/model/tag_system"
)

// TopicResponse 话题详情
type TopicResponse struct {
	TopicID            string                    `json:"topic_id"`
	Title              string                    `json:"title"`
	Abstract           string                    `json:"abstract"`
	ThreatImpact       int                       `json:"threat_impact"`
	Disabled           bool                      `json:"disabled"`
	ContentFingerprint string                    `json:"content_fingerprint"`
	CreatedBy          string                    `json:"created_by"`
	CreatedAt          time.Time                 `json:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at"`
	Tags               []*tag_system.TagResponse `json:"tags"`
	MispTags           []string                  `json:"misp_tags"`
	Actions            []*ActionResponse         `json:"actions,omitempty"`
}

// NewTopicResponse 转换为响应结构
func NewTopicResponse(t *Topic) *TopicResponse {
	resp := &TopicResponse{
		TopicID:            t.TopicID,
		Title:              t.Title,
		Abstract:           t.Abstract,
		ThreatImpact:       t.ThreatImpact,
		Disabled:           t.Disabled,
		ContentFingerprint: t.ContentFingerprint,
		CreatedBy:          t.CreatedBy,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
		Tags:               make([]*tag_system.TagResponse, 0, len(t.Tags)),
		MispTags:           make([]string, 0, len(t.MispTags)),
	}
	for _, tag := range t.Tags {
		resp.Tags = append(resp.Tags, tag_system.NewTagResponse(tag))
	}
	for _, tag := range t.MispTags {
		resp.MispTags = append(resp.MispTags, tag.TagName)
	}
	sort.Strings(resp.MispTags)
	for _, a := range t.Actions {
		resp.Actions = append(resp.Actions, NewActionResponse(a))
	}
	return resp
}

// ActionResponse 处置动作
type ActionResponse struct {
	ActionID    string     `json:"action_id"`
	TopicID     string     `json:"topic_id"`
	Action      string     `json:"action"`
	ActionType  ActionType `json:"action_type"`
	Recommended bool       `json:"recommended"`
	Ext         ActionExt  `json:"ext"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewActionResponse 转换为响应结构
func NewActionResponse(a *TopicAction) *ActionResponse {
	return &ActionResponse{
		ActionID:    a.ActionID,
		TopicID:     a.TopicID,
		Action:      a.Action,
		ActionType:  a.ActionType,
		Recommended: a.Recommended,
		Ext:         a.ExtData(),
		CreatedBy:   a.CreatedBy,
		CreatedAt:   a.CreatedAt,
	}
}

// TopicListResponse 话题列表
type TopicListResponse struct {
	Topics   []*TopicResponse `json:"topics"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}
