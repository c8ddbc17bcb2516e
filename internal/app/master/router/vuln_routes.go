package router

import (
	"github.com/gin-gonic/gin"
)

// setupVulnRoutes 注册话题、处置动作与执行日志路由
func (r *Router) setupVulnRoutes(rg *gin.RouterGroup) {
	h := r.vulnModule.TopicHandler

	topics := rg.Group("/topics")
	{
		topics.POST("", h.CreateTopic)
		topics.GET("", h.ListTopics)
		topics.GET("/:id", h.GetTopic)
		topics.PUT("/:id", h.UpdateTopic)
		topics.DELETE("/:id", h.DeleteTopic)

		topics.POST("/:id/actions", h.CreateAction)
		topics.GET("/:id/actions", h.ListActions)
	}

	rg.DELETE("/actions/:id", h.DeleteAction)
	rg.POST("/actionlogs", h.CreateActionLog)
}
