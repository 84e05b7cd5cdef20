package api

import (
	"github.com/gin-gonic/gin"

	"github.com/clivefinesse/jobtracker/internal/handlers"
)

func registerApplicationRoutes(api *gin.RouterGroup, handler *handlers.ApplicationHandler, requireAuth gin.HandlerFunc) {
	apps := api.Group("/job-applications")
	apps.Use(requireAuth)
	{
		apps.GET("", handler.List)
		apps.POST("", handler.Create)
		apps.GET("/:id", handler.Get)
		apps.PUT("/:id", handler.Update)
		apps.DELETE("/:id", handler.Delete)
		apps.POST("/:id/mark_as_secured", handler.MarkAsSecured)
	}
}
