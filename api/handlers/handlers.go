package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/docintel/internal/service/document"
	"github.com/feichai0017/docintel/pkg/logger"
)

type Handlers struct {
	Document *DocumentHandler
	Fields   *FieldHandler
}

// Service is everything the HTTP layer calls
type Service interface {
	document.DocumentProcessor
	document.FieldProcessor
}

func NewHandlers(service Service, log logger.Logger) *Handlers {
	return &Handlers{
		Document: NewDocumentHandler(service, log),
		Fields:   NewFieldHandler(service, log),
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
