package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyhive/resource-api/internal/middleware"
	"github.com/studyhive/resource-api/internal/service"
)

// RouterDeps bundles everything route registration needs.
type RouterDeps struct {
	Resources *ResourceHandler
	Auth      *service.AuthService
	Metrics   *service.MetricsService
}

// RegisterRoutes wires the resource endpoints onto the engine.
func RegisterRoutes(r *gin.Engine, apiPrefix string, deps RouterDeps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	resources := r.Group(apiPrefix + "/resources")
	{
		resources.GET("", middleware.OptionalAuth(deps.Auth), deps.Resources.List)
		resources.POST("", middleware.Auth(deps.Auth), deps.Resources.Create)
		resources.POST("/upload", middleware.Auth(deps.Auth), deps.Resources.UploadFile)
		resources.GET("/:id", middleware.OptionalAuth(deps.Auth), deps.Resources.Get)
		resources.PUT("/:id", middleware.Auth(deps.Auth), deps.Resources.Update)
		resources.DELETE("/:id", middleware.Auth(deps.Auth), deps.Resources.Delete)
		resources.DELETE("/:id/:type/:index", middleware.Auth(deps.Auth), deps.Resources.DeleteMediaEntry)
		resources.PATCH("/:id/:type/:index", middleware.Auth(deps.Auth), deps.Resources.UpdateMediaEntry)
	}
}
