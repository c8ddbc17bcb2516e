package tag_system

// CreateTagRequest 创建标签请求
type CreateTagRequest struct {
	TagName string `json:"tag_name" binding:"required"` // 标签名称
}

// ListTagsRequest 获取标签列表请求
type ListTagsRequest struct {
	Keyword  string `form:"keyword"`   // 名称关键字
	Page     int    `form:"page"`      // 页码
	PageSize int    `form:"page_size"` // 每页数量
}
