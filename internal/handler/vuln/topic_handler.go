/**
 * 处理器:漏洞话题
 * @author: sun977
 * @date: 2025.12.06
 * @description: 话题与处置动作接口，写操作以令牌中的账号为操作人
 */
package vuln

import (
	"github.com/gin-gonic/gin"

	"neovuln/internal/handler/common"
	"neovuln/internal/model/vuln"
	"neovuln/internal/pkg/utils"
	service "neovuln/internal/service/vuln"
)

type TopicHandler struct {
	topics  service.TopicService
	actions service.ActionService
}

func NewTopicHandler(topics service.TopicService, actions service.ActionService) *TopicHandler {
	return &TopicHandler{topics: topics, actions: actions}
}

// CreateTopic 创建话题，可同时创建处置动作
func (h *TopicHandler) CreateTopic(c *gin.Context) {
	var req vuln.CreateTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BadRequest(c, "create_topic", err)
		return
	}

	topic, err := h.topics.CreateTopic(c.Request.Context(), &req, utils.GetActorIDFromGinContext(c))
	if err != nil {
		common.Error(c, "create_topic", err, map[string]interface{}{"title": req.Title})
		return
	}
	common.Success(c, "Topic created successfully", vuln.NewTopicResponse(topic))
}

// GetTopic 获取话题详情(含处置动作)
func (h *TopicHandler) GetTopic(c *gin.Context) {
	topic, err := h.topics.GetTopic(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.Error(c, "get_topic", err, map[string]interface{}{"topic_id": c.Param("id")})
		return
	}
	common.Success(c, "Topic retrieved successfully", vuln.NewTopicResponse(topic))
}

// ListTopics 话题列表 ?keyword=&tag_name=&include_disabled=&page=&page_size=
func (h *TopicHandler) ListTopics(c *gin.Context) {
	var req vuln.ListTopicsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		common.BadRequest(c, "list_topics", err)
		return
	}

	topics, total, err := h.topics.ListTopics(c.Request.Context(), &req)
	if err != nil {
		common.Error(c, "list_topics", err, nil)
		return
	}

	resp := &vuln.TopicListResponse{
		Topics:   make([]*vuln.TopicResponse, 0, len(topics)),
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	for _, t := range topics {
		resp.Topics = append(resp.Topics, vuln.NewTopicResponse(t))
	}
	common.Success(c, "Topics retrieved successfully", resp)
}

// UpdateTopic 更新话题，未提供的字段保持不变
func (h *TopicHandler) UpdateTopic(c *gin.Context) {
	var req vuln.UpdateTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BadRequest(c, "update_topic", err)
		return
	}

	topic, err := h.topics.UpdateTopic(c.Request.Context(), c.Param("id"), &req, utils.GetActorIDFromGinContext(c))
	if err != nil {
		common.Error(c, "update_topic", err, map[string]interface{}{"topic_id": c.Param("id")})
		return
	}
	common.Success(c, "Topic updated successfully", vuln.NewTopicResponse(topic))
}

// DeleteTopic 删除话题
func (h *TopicHandler) DeleteTopic(c *gin.Context) {
	id := c.Param("id")
	if err := h.topics.DeleteTopic(c.Request.Context(), id, utils.GetActorIDFromGinContext(c)); err != nil {
		common.Error(c, "delete_topic", err, map[string]interface{}{"topic_id": id})
		return
	}
	common.Success(c, "Topic deleted successfully", gin.H{"topic_id": id})
}

// CreateAction 为话题添加处置动作
func (h *TopicHandler) CreateAction(c *gin.Context) {
	var req vuln.CreateActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BadRequest(c, "create_action", err)
		return
	}

	action, err := h.actions.CreateAction(c.Request.Context(), c.Param("id"), &req, utils.GetActorIDFromGinContext(c))
	if err != nil {
		common.Error(c, "create_action", err, map[string]interface{}{"topic_id": c.Param("id")})
		return
	}
	common.Success(c, "Action created successfully", vuln.NewActionResponse(action))
}

// ListActions 话题的处置动作
func (h *TopicHandler) ListActions(c *gin.Context) {
	actions, err := h.actions.ListActions(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.Error(c, "list_actions", err, map[string]interface{}{"topic_id": c.Param("id")})
		return
	}
	resp := make([]*vuln.ActionResponse, 0, len(actions))
	for _, a := range actions {
		resp = append(resp, vuln.NewActionResponse(a))
	}
	common.Success(c, "Actions retrieved successfully", resp)
}

// DeleteAction 删除处置动作
func (h *TopicHandler) DeleteAction(c *gin.Context) {
	id := c.Param("id")
	if err := h.actions.DeleteAction(c.Request.Context(), id, utils.GetActorIDFromGinContext(c)); err != nil {
		common.Error(c, "delete_action", err, map[string]interface{}{"action_id": id})
		return
	}
	common.Success(c, "Action deleted successfully", gin.H{"action_id": id})
}

// CreateActionLog 记录人工执行的处置动作
func (h *TopicHandler) CreateActionLog(c *gin.Context) {
	var req vuln.CreateActionLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BadRequest(c, "create_action_log", err)
		return
	}

	log, err := h.actions.CreateActionLog(c.Request.Context(), &req, utils.GetActorIDFromGinContext(c))
	if err != nil {
		common.Error(c, "create_action_log", err, map[string]interface{}{
			"action_id": req.ActionID,
			"topic_id":  req.TopicID,
		})
		return
	}
	common.Success(c, "Action log created successfully", log)
}
