package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/docintel/internal/models"
	"github.com/feichai0017/docintel/internal/service/document"
	"github.com/feichai0017/docintel/pkg/logger"
)

type FieldHandler struct {
	service document.FieldProcessor
	logger  logger.Logger
}

func NewFieldHandler(service document.FieldProcessor, log logger.Logger) *FieldHandler {
	return &FieldHandler{service: service, logger: log}
}

type ExtractRequest struct {
	Blocks            []models.Block             `json:"Blocks" binding:"required"`
	ElementsToExtract []models.ConfiguredElement `json:"elementsToExtract"`
	ExpectFields      bool                       `json:"expectFields"`
}

type MatchRequest struct {
	Elements []models.ConfiguredElement `json:"elements"`
	Fields   []models.ExtractedField    `json:"fields" binding:"required"`
}

type FieldsResponse struct {
	Fields []models.ExtractedField `json:"fields"`
	Count  int                     `json:"count"`
}

// Extract resolves fields from a block document in the OCR provider's shape
func (h *FieldHandler) Extract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(h.logger, c, http.StatusBadRequest, "Invalid block document", err)
		return
	}

	out, err := h.service.ExtractFields(c.Request.Context(), req.Blocks, document.FieldOptions{
		Elements:     req.ElementsToExtract,
		ExpectFields: req.ExpectFields,
	})
	if err != nil {
		handleError(h.logger, c, StatusFor(err), "Failed to extract fields", err)
		return
	}

	c.JSON(http.StatusOK, FieldsResponse{Fields: out, Count: len(out)})
}

func (h *FieldHandler) Match(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(h.logger, c, http.StatusBadRequest, "Invalid match request", err)
		return
	}

	out := h.service.MatchFields(c.Request.Context(), req.Elements, req.Fields)
	c.JSON(http.StatusOK, FieldsResponse{Fields: out, Count: len(out)})
}
