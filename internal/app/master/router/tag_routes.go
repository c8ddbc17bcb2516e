package router

import (
	"github.com/gin-gonic/gin"
)

// setupTagSystemRoutes 注册标签系统相关路由
func (r *Router) setupTagSystemRoutes(rg *gin.RouterGroup) {
	h := r.tagModule.TagHandler
	tags := rg.Group("/tags")
	{
		tags.POST("", h.CreateTag)
		tags.GET("", h.ListTags) // 支持 ?keyword=&page=&page_size=
		tags.GET("/search", h.SearchTags)
		tags.GET("/:id", h.GetTag)
	}
}
