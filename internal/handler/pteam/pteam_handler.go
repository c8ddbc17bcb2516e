/**
 * 处理器:团队
 * @author: sun977
 * @date: 2025.12.06
 * @description: 团队、标签引用上传、工单状态与摘要接口
 */
package pteam

import (
	"github.com/gin-gonic/gin"

	"neovuln/internal/handler/common"
	"neovuln/internal/model/pteam"
	"neovuln/internal/pkg/utils"
	service "neovuln/internal/service/pteam"
)

type PTeamHandler struct {
	service service.PTeamService
}

func NewPTeamHandler(service service.PTeamService) *PTeamHandler {
	return &PTeamHandler{service: service}
}

func (h *PTeamHandler) CreatePTeam(c *gin.Context) {
	var req pteam.CreatePTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BadRequest(c, "create_pteam", err)
		return
	}

	p, err := h.service.CreatePTeam(c.Request.Context(), &req, utils.GetActorIDFromGinContext(c))
	if err != nil {
		common.Error(c, "create_pteam", err, map[string]interface{}{"pteam_name": req.PTeamName})
		return
	}
	common.Success(c, "PTeam created successfully", p)
}

func (h *PTeamHandler) GetPTeam(c *gin.Context) {
	resp, err := h.service.GetPTeam(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.Error(c, "get_pteam", err, map[string]interface{}{"pteam_id": c.Param("id")})
		return
	}
	common.Success(c, "PTeam retrieved successfully", resp)
}

// UpdatePTeam 更新团队；disabled 变化会删除或重建团队的当前工单
func (h *PTeamHandler) UpdatePTeam(c *gin.Context) {
	var req pteam.UpdatePTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BadRequest(c, "update_pteam", err)
		return
	}

	p, err := h.service.UpdatePTeam(c.Request.Context(), c.Param("id"), &req, utils.GetActorIDFromGinContext(c))
	if err != nil {
		common.Error(c, "update_pteam", err, map[string]interface{}{"pteam_id": c.Param("id")})
		return
	}
	common.Success(c, "PTeam updated successfully", p)
}

// UploadReferences 请求体为 JSONL，整体替换 ?group= 分组的引用
func (h *PTeamHandler) UploadReferences(c *gin.Context) {
	id := c.Param("id")
	group := c.Query("group")

	resp, err := h.service.UploadReferences(c.Request.Context(), id, group, c.Request.Body, utils.GetActorIDFromGinContext(c))
	if err != nil {
		common.Error(c, "upload_references", err, map[string]interface{}{"pteam_id": id, "group": group})
		return
	}
	common.Success(c, "References uploaded successfully", resp)
}

func (h *PTeamHandler) Summary(c *gin.Context) {
	resp, err := h.service.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.Error(c, "get_summary", err, map[string]interface{}{"pteam_id": c.Param("id")})
		return
	}
	common.Success(c, "Summary retrieved successfully", resp)
}

// SetTopicStatus 人工设置 (团队, 话题, 标签) 的工单状态
func (h *PTeamHandler) SetTopicStatus(c *gin.Context) {
	var req pteam.SetTopicStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BadRequest(c, "set_topic_status", err)
		return
	}

	resp, err := h.service.SetTopicStatus(c.Request.Context(), c.Param("id"), c.Param("topic_id"), c.Param("tag_id"),
		&req, utils.GetActorIDFromGinContext(c))
	if err != nil {
		common.Error(c, "set_topic_status", err, map[string]interface{}{
			"pteam_id": c.Param("id"),
			"topic_id": c.Param("topic_id"),
			"tag_id":   c.Param("tag_id"),
		})
		return
	}
	common.Success(c, "Topic status updated successfully", resp)
}

// GetTopicStatus 最新状态，没有记录时返回 alerted
func (h *PTeamHandler) GetTopicStatus(c *gin.Context) {
	resp, err := h.service.GetTopicStatus(c.Request.Context(), c.Param("id"), c.Param("topic_id"), c.Param("tag_id"))
	if err != nil {
		common.Error(c, "get_topic_status", err, map[string]interface{}{
			"pteam_id": c.Param("id"),
			"topic_id": c.Param("topic_id"),
			"tag_id":   c.Param("tag_id"),
		})
		return
	}
	common.Success(c, "Topic status retrieved successfully", resp)
}

// ListTopicStatusHistory 工单状态历史，新的在前
func (h *PTeamHandler) ListTopicStatusHistory(c *gin.Context) {
	resp, err := h.service.ListTopicStatusHistory(c.Request.Context(), c.Param("id"), c.Param("topic_id"), c.Param("tag_id"))
	if err != nil {
		common.Error(c, "list_topic_status_history", err, map[string]interface{}{
			"pteam_id": c.Param("id"),
			"topic_id": c.Param("topic_id"),
			"tag_id":   c.Param("tag_id"),
		})
		return
	}
	common.Success(c, "Topic status history retrieved successfully", resp)
}

// FixStatusMismatch 重新尝试自动关闭并重算团队工单 ?tag_id=
func (h *PTeamHandler) FixStatusMismatch(c *gin.Context) {
	var tagID *string
	if v := c.Query("tag_id"); v != "" {
		tagID = &v
	}

	result, err := h.service.FixStatusMismatch(c.Request.Context(), c.Param("id"), tagID, utils.GetActorIDFromGinContext(c))
	if err != nil {
		common.Error(c, "fix_status_mismatch", err, map[string]interface{}{"pteam_id": c.Param("id")})
		return
	}
	common.Success(c, "Status mismatch fixed", result)
}
