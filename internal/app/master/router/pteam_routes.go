package router

import (
	"github.com/gin-gonic/gin"
)

// setupPTeamRoutes 注册团队相关路由
func (r *Router) setupPTeamRoutes(rg *gin.RouterGroup) {
	h := r.pteamModule.PTeamHandler

	pteams := rg.Group("/pteams")
	{
		pteams.POST("", h.CreatePTeam)
		pteams.GET("/:id", h.GetPTeam)
		pteams.PUT("/:id", h.UpdatePTeam)

		pteams.POST("/:id/upload_references", h.UploadReferences) // ?group=，请求体为 JSONL
		pteams.GET("/:id/summary", h.Summary)
		pteams.POST("/:id/fix_status_mismatch", h.FixStatusMismatch) // ?tag_id=

		pteams.POST("/:id/topicstatus/:topic_id/:tag_id", h.SetTopicStatus)
		pteams.GET("/:id/topicstatus/:topic_id/:tag_id", h.GetTopicStatus)
		pteams.GET("/:id/topicstatus/:topic_id/:tag_id/history", h.ListTopicStatusHistory)
	}
}
