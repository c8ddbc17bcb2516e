package tag_system

import (
	"github.com/gin-gonic/gin"

	"neovuln/internal/handler/common"
	"neovuln/internal/model/tag_system"
	"neovuln/internal/pkg/logger"
	"neovuln/internal/pkg/utils"
	service "neovuln/internal/service/tag_system"
)

type TagHandler struct {
	service service.TagService
}

func NewTagHandler(service service.TagService) *TagHandler {
	return &TagHandler{service: service}
}

// CreateTag 创建标签，已存在时直接返回
func (h *TagHandler) CreateTag(c *gin.Context) {
	var req tag_system.CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BadRequest(c, "create_tag", err)
		return
	}

	tag, err := h.service.GetOrCreateTag(c.Request.Context(), req.TagName)
	if err != nil {
		common.Error(c, "create_tag", err, map[string]interface{}{"tag_name": req.TagName})
		return
	}

	logger.LogBusinessOperation("create_tag", utils.GetActorIDFromGinContext(c), "", utils.GetClientIP(c),
		c.GetHeader("X-Request-ID"), "success", "Tag created successfully", map[string]interface{}{
			"tag_id":   tag.TagID,
			"tag_name": tag.TagName,
		})
	common.Success(c, "Tag created successfully", tag_system.NewTagResponse(tag))
}

// GetTag 获取标签详情
func (h *TagHandler) GetTag(c *gin.Context) {
	tag, err := h.service.GetTag(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.Error(c, "get_tag", err, map[string]interface{}{"tag_id": c.Param("id")})
		return
	}
	common.Success(c, "Tag retrieved successfully", tag_system.NewTagResponse(tag))
}

// ListTags 标签列表，支持 ?keyword=&page=&page_size=
func (h *TagHandler) ListTags(c *gin.Context) {
	var req tag_system.ListTagsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		common.BadRequest(c, "list_tags", err)
		return
	}

	tags, total, err := h.service.ListTags(c.Request.Context(), &req)
	if err != nil {
		common.Error(c, "list_tags", err, nil)
		return
	}

	resp := &tag_system.TagListResponse{
		Tags:     make([]*tag_system.TagResponse, 0, len(tags)),
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	for _, t := range tags {
		resp.Tags = append(resp.Tags, tag_system.NewTagResponse(t))
	}
	common.Success(c, "Tags retrieved successfully", resp)
}

// SearchTags 按名称模糊搜索
func (h *TagHandler) SearchTags(c *gin.Context) {
	tags, err := h.service.SearchTags(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		common.Error(c, "search_tags", err, nil)
		return
	}
	resp := make([]*tag_system.TagResponse, 0, len(tags))
	for _, t := range tags {
		resp = append(resp, tag_system.NewTagResponse(t))
	}
	common.Success(c, "Tags retrieved successfully", resp)
}
