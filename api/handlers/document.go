package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/docintel/internal/models"
	"github.com/feichai0017/docintel/internal/service/document"
	"github.com/feichai0017/docintel/pkg/logger"
)

type DocumentHandler struct {
	service document.DocumentProcessor
	logger  logger.Logger
}

type ProcessResponse struct {
	TaskID     string `json:"taskId"`
	DocumentID string `json:"documentId"`
	Status     string `json:"status"`
	Filename   string `json:"filename"`
	FileSize   int64  `json:"fileSize"`
	FileType   string `json:"fileType"`
	CreatedAt  string `json:"createdAt"`
}

func NewDocumentHandler(service document.DocumentProcessor, log logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  log,
	}
}

// AnalyzeDocument runs the pipeline synchronously. Partial results, with
// failed optional stages listed in stages, are still a 200.
func (h *DocumentHandler) AnalyzeDocument(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		handleError(h.logger, c, http.StatusBadRequest, "Invalid file upload", err)
		return
	}

	sub, err := parseSubmission(c)
	if err != nil {
		handleError(h.logger, c, http.StatusBadRequest, "Invalid analysis options", err)
		return
	}

	results, err := h.service.AnalyzeFile(c.Request.Context(), header, sub)
	if err != nil {
		handleError(h.logger, c, StatusFor(err), "Failed to analyze document", err)
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *DocumentHandler) ProcessDocument(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		handleError(h.logger, c, http.StatusBadRequest, "Invalid file upload", err)
		return
	}
	defer file.Close()

	sub, err := parseSubmission(c)
	if err != nil {
		handleError(h.logger, c, http.StatusBadRequest, "Invalid analysis options", err)
		return
	}

	task, err := h.service.ProcessFile(c.Request.Context(), file, header, sub)
	if err != nil {
		handleError(h.logger, c, StatusFor(err), "Failed to process file", err)
		return
	}

	c.JSON(http.StatusAccepted, processResponse(task, header.Filename, header.Size))
}

func (h *DocumentHandler) ProcessBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		handleError(h.logger, c, http.StatusBadRequest, "Invalid form data", err)
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		handleError(h.logger, c, http.StatusBadRequest, "No files provided", nil)
		return
	}

	sub, err := parseSubmission(c)
	if err != nil {
		handleError(h.logger, c, http.StatusBadRequest, "Invalid analysis options", err)
		return
	}

	tasks, err := h.service.ProcessBatch(c.Request.Context(), files, sub)
	if err != nil && len(tasks) == 0 {
		handleError(h.logger, c, StatusFor(err), "Failed to process files", err)
		return
	}

	responses := make([]ProcessResponse, 0, len(tasks))
	for _, task := range tasks {
		size, _ := strconv.ParseInt(task.Metadata["size"], 10, 64)
		responses = append(responses, processResponse(task, task.Metadata["filename"], size))
	}

	body := gin.H{
		"message": fmt.Sprintf("Processing %d of %d documents", len(tasks), len(files)),
		"tasks":   responses,
	}
	if err != nil {
		body["error"] = err.Error()
	}
	c.JSON(http.StatusAccepted, body)
}

func (h *DocumentHandler) GetStatus(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		handleError(h.logger, c, http.StatusBadRequest, "Task ID is required", nil)
		return
	}

	task, err := h.service.GetProcessingStatus(c.Request.Context(), taskID)
	if err != nil {
		handleError(h.logger, c, StatusFor(err), "Failed to get status", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"taskId":     task.ID,
		"documentId": task.DocumentID,
		"status":     string(task.Status),
		"progress":   task.Progress,
		"error":      task.Error,
		"metadata":   task.Metadata,
		"createdAt":  task.CreatedAt.Format(time.RFC3339),
		"updatedAt":  task.UpdatedAt.Format(time.RFC3339),
	})
}

func (h *DocumentHandler) DownloadResult(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		handleError(h.logger, c, http.StatusBadRequest, "Task ID is required", nil)
		return
	}

	result, err := h.service.GetProcessedDocument(c.Request.Context(), taskID)
	if err != nil {
		handleError(h.logger, c, StatusFor(err), "Failed to get result", err)
		return
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		handleError(h.logger, c, http.StatusInternalServerError, "Failed to serialize result", err)
		return
	}

	filename := fmt.Sprintf("result_%s.json", taskID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/json", resultJSON)
}

func (h *DocumentHandler) CancelTask(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		handleError(h.logger, c, http.StatusBadRequest, "Task ID is required", nil)
		return
	}

	if err := h.service.CancelTask(c.Request.Context(), taskID); err != nil {
		handleError(h.logger, c, StatusFor(err), "Failed to cancel task", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task cancelled successfully",
		"taskId":  taskID,
	})
}

func processResponse(task *models.ProcessingTask, filename string, size int64) ProcessResponse {
	return ProcessResponse{
		TaskID:     task.ID,
		DocumentID: task.DocumentID,
		Status:     string(task.Status),
		Filename:   filename,
		FileSize:   size,
		FileType:   filepath.Ext(filename),
		CreatedAt:  task.CreatedAt.Format(time.RFC3339),
	}
}

// parseSubmission reads the optional form fields. "options" carries the
// full JSON options; the individual flag fields override it.
func parseSubmission(c *gin.Context) (document.Submission, error) {
	sub := document.Submission{DocumentID: c.PostForm("documentId")}

	if raw := c.PostForm("options"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &sub.Options); err != nil {
			return sub, fmt.Errorf("options: %w", err)
		}
	}

	flags := []struct {
		name string
		dst  *bool
	}{
		{"autoClassify", &sub.Options.Flags.AutoClassify},
		{"useTextExtraction", &sub.Options.Flags.UseTextExtraction},
		{"scanForTFN", &sub.Options.Flags.ScanForTFN},
		{"expectFields", &sub.Options.ExpectFields},
	}
	for _, f := range flags {
		raw, ok := c.GetPostForm(f.name)
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return sub, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}

	return sub, nil
}
