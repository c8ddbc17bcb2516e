package tag_system

// TagResponse 标签详情响应
type TagResponse struct {
	TagID      string  `json:"tag_id"`
	TagName    string  `json:"tag_name"`
	ParentID   *string `json:"parent_id"`
	ParentName *string `json:"parent_name"`
}

// NewTagResponse 转换为响应结构
func NewTagResponse(t *Tag) *TagResponse {
	return &TagResponse{
		TagID:      t.TagID,
		TagName:    t.TagName,
		ParentID:   t.ParentID,
		ParentName: t.ParentName,
	}
}

// TagListResponse 标签列表响应
type TagListResponse struct {
	Tags     []*TagResponse `json:"tags"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}
