package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/docintel/internal/agent/classify"
	"github.com/feichai0017/docintel/internal/agent/fields"
	"github.com/feichai0017/docintel/internal/service/document"
	"github.com/feichai0017/docintel/pkg/logger"
	"github.com/feichai0017/docintel/pkg/queue"
	"github.com/feichai0017/docintel/pkg/storage"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Stage   string `json:"stage,omitempty"`
}

// StatusFor maps a service error onto an HTTP status. A failed text
// extraction is an upstream failure; missing form fields are the
// document's fault.
func StatusFor(err error) int {
	if stage, ok := classify.FailedStage(err); ok {
		if stage == classify.StateTextExtracted {
			return http.StatusBadGateway
		}
		return http.StatusUnprocessableEntity
	}
	switch {
	case errors.Is(err, document.ErrInvalidFile):
		return http.StatusBadRequest
	case errors.Is(err, fields.ErrNoFields):
		return http.StatusUnprocessableEntity
	case errors.Is(err, queue.ErrTaskNotFound), storage.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, document.ErrTaskNotCompleted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func handleError(log logger.Logger, c *gin.Context, status int, message string, err error) {
	logFields := []logger.Field{
		logger.String("path", c.Request.URL.Path),
		logger.Int("status", status),
	}
	if err != nil {
		logFields = append(logFields, logger.Error(err))
	}
	if status >= http.StatusInternalServerError {
		log.Error(message, logFields...)
	} else {
		log.Warn(message, logFields...)
	}

	response := ErrorResponse{Message: message}
	if err != nil {
		response.Error = err.Error()
		if stage, ok := classify.FailedStage(err); ok {
			response.Stage = string(stage)
		}
	}
	c.JSON(status, response)
}
