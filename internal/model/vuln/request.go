package vuln

import "time"

// CreateTopicRequest 创建话题请求
// TopicID 可由调用方指定，便于外部通告源保持同一标识
type CreateTopicRequest struct {
	TopicID      string                 `json:"topic_id"`
	Title        string                 `json:"title" binding:"required"`
	Abstract     string                 `json:"abstract"`
	ThreatImpact int                    `json:"threat_impact" binding:"required,min=1,max=4"`
	Tags         []string               `json:"tags"`
	MispTags     []string               `json:"misp_tags"`
	Actions      []*CreateActionRequest `json:"actions"`
}

// UpdateTopicRequest 更新话题请求，为空的字段不修改
type UpdateTopicRequest struct {
	Title        *string   `json:"title"`
	Abstract     *string   `json:"abstract"`
	ThreatImpact *int      `json:"threat_impact" binding:"omitempty,min=1,max=4"`
	Tags         *[]string `json:"tags"`
	MispTags     *[]string `json:"misp_tags"`
	Disabled     *bool     `json:"disabled"`
}

// CreateActionRequest 创建处置动作请求
type CreateActionRequest struct {
	ActionID    string     `json:"action_id"`
	Action      string     `json:"action" binding:"required"`
	ActionType  ActionType `json:"action_type" binding:"required"`
	Recommended bool       `json:"recommended"`
	Ext         ActionExt  `json:"ext"`
}

// ListTopicsRequest 话题列表请求
type ListTopicsRequest struct {
	Keyword         string `form:"keyword"`
	TagName         string `form:"tag_name"`
	IncludeDisabled bool   `form:"include_disabled"`
	Page            int    `form:"page"`
	PageSize        int    `form:"page_size"`
}

// CreateActionLogRequest 记录动作执行
type CreateActionLogRequest struct {
	ActionID   string     `json:"action_id" binding:"required"`
	TopicID    string     `json:"topic_id" binding:"required"`
	PTeamID    *string    `json:"pteam_id"`
	ExecutedAt *time.Time `json:"executed_at"`
}
