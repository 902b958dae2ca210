package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/feichai0017/docintel/api/handlers"
	"github.com/feichai0017/docintel/api/middleware"
	"github.com/feichai0017/docintel/pkg/logger"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handlers, log logger.Logger, allowedOrigins []string) {
	r.Use(middleware.CORS(allowedOrigins))
	r.Use(middleware.RequestLogger(log))

	v1 := r.Group("/api/v1")
	v1.GET("/health", handlers.HealthCheck)

	docs := v1.Group("/documents")
	{
		docs.POST("/analyze", h.Document.AnalyzeDocument)
		docs.POST("/process", h.Document.ProcessDocument)
		docs.POST("/batch", h.Document.ProcessBatch)
		docs.GET("/status/:taskId", h.Document.GetStatus)
		docs.GET("/download/:taskId", h.Document.DownloadResult)
		docs.DELETE("/task/:taskId", h.Document.CancelTask)
	}

	fields := v1.Group("/fields")
	{
		fields.POST("/extract", h.Fields.Extract)
		fields.POST("/match", h.Fields.Match)
	}
}
