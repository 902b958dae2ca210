package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	cfg "github.com/feichai0017/docintel/config"
	"github.com/feichai0017/docintel/internal/agent"
	"github.com/feichai0017/docintel/internal/agent/classify"
	"github.com/feichai0017/docintel/internal/agent/fields"
	"github.com/feichai0017/docintel/internal/agent/schema"
	"github.com/feichai0017/docintel/internal/models"
	"github.com/feichai0017/docintel/internal/utils/validator"
	"github.com/feichai0017/docintel/pkg/converters"
	"github.com/feichai0017/docintel/pkg/logger"
	"github.com/feichai0017/docintel/pkg/queue"
	"github.com/feichai0017/docintel/pkg/storage"
)

type DocumentService struct {
	analyzer  Analyzer
	registry  RequestRegistry
	queue     queue.Queue
	storage   storage.Storage
	validator *validator.DocumentValidator
	extractor *fields.Extractor
	matcher   *schema.Matcher
	logger    logger.Logger
	config    *ServiceConfig
}

type ServiceConfig struct {
	QueuePriority   int
	MaxConcurrent   int
	ProcessTimeout  time.Duration
	RetentionPeriod time.Duration
	// DefaultElements apply when a request names none
	DefaultElements []models.ConfiguredElement
}

func defaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		QueuePriority:   2,
		MaxConcurrent:   5,
		ProcessTimeout:  30 * time.Minute,
		RetentionPeriod: 24 * time.Hour,
	}
}

type Dependencies struct {
	Analyzer  Analyzer
	Registry  RequestRegistry
	Queue     queue.Queue
	Storage   storage.Storage
	Validator *validator.DocumentValidator
	Matcher   *schema.Matcher
}

func NewService(deps Dependencies, log logger.Logger, config *ServiceConfig) *DocumentService {
	if config == nil {
		config = defaultServiceConfig()
	}
	if log == nil {
		log = logger.NewNop()
	}
	if deps.Validator == nil {
		deps.Validator = validator.NewDocumentValidator(log, nil)
	}
	if deps.Registry == nil {
		deps.Registry = classify.NewTracker()
	}
	if deps.Matcher == nil {
		deps.Matcher = schema.NewMatcher(schema.NewPatternCache(30*time.Minute, time.Hour), log)
	}

	return &DocumentService{
		analyzer:  deps.Analyzer,
		registry:  deps.Registry,
		queue:     deps.Queue,
		storage:   deps.Storage,
		validator: deps.Validator,
		extractor: fields.NewExtractor(log),
		matcher:   deps.Matcher,
		logger:    log.Named("document"),
		config:    config,
	}
}

// GetService wires the production service: Redis queue and registry,
// configured object storage and the full provider pipeline.
func GetService(ctx context.Context, log logger.Logger) (*DocumentService, error) {
	pipelineCfg := cfg.GetPipelineConfig()

	store, err := storage.NewStorage(ctx, storage.StorageType(pipelineCfg.StorageBackend), log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	q, err := queue.GetQueue()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize queue: %w", err)
	}
	registry := queue.NewLatestRegistry(q.Redis(), cfg.GetRedisConfig().ProcessTimeout)

	factory, err := agent.NewProcessorFactory(ctx, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize processor factory: %w", err)
	}

	orchestrator, err := agent.NewOrchestrator(ctx, factory, registry, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orchestrator: %w", err)
	}

	elements, err := agent.DefaultElements()
	if err != nil {
		return nil, fmt.Errorf("failed to load elements: %w", err)
	}

	config := defaultServiceConfig()
	config.DefaultElements = elements

	return NewService(Dependencies{
		Analyzer: orchestrator,
		Registry: registry,
		Queue:    q,
		Storage:  store,
	}, log, config), nil
}

// AnalyzeFile runs the pipeline in the request goroutine
func (s *DocumentService) AnalyzeFile(ctx context.Context, header *multipart.FileHeader, sub Submission) (*models.AnalysisResults, error) {
	result, data, err := s.validator.ValidateFile(header)
	if err != nil {
		return nil, err
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	documentID := sub.DocumentID
	if documentID == "" {
		documentID = result.FileInfo.Hash
	}

	requestID, err := s.registry.Begin(ctx, documentID)
	if err != nil {
		s.logger.Warn("Failed to register request", logger.String("documentId", documentID), logger.Error(err))
		requestID = uuid.New().String()
	}
	defer s.finish(documentID, requestID)

	return s.analyzer.Analyze(ctx, classify.Request{
		DocumentID: documentID,
		RequestID:  requestID,
		Document:   newDocument(documentID, header.Filename, result.FileInfo.MimeType, data),
		Options:    s.withDefaults(sub.Options),
	})
}

func (s *DocumentService) ProcessFile(
	ctx context.Context,
	file multipart.File,
	header *multipart.FileHeader,
	sub Submission,
) (*models.ProcessingTask, error) {
	s.logger.Info("Starting file processing",
		logger.String("filename", header.Filename),
		logger.Int64("size", header.Size),
	)

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	result := s.validator.ValidateContent(header.Filename, data)
	if err := result.Err(); err != nil {
		s.logger.Error("File validation failed",
			logger.String("filename", header.Filename),
			logger.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	documentID := sub.DocumentID
	if documentID == "" {
		documentID = result.FileInfo.Hash
	}

	taskID := uuid.New().String()
	now := time.Now()
	task := &models.ProcessingTask{
		ID:         taskID,
		DocumentID: documentID,
		Status:     models.StatusPending,
		Type:       queue.TaskTypeDocumentAnalyze,
		Priority:   s.config.QueuePriority,
		CreatedAt:  now,
		UpdatedAt:  now,
		Metadata: map[string]string{
			"filename": header.Filename,
			"size":     strconv.Itoa(len(data)),
			"type":     filepath.Ext(header.Filename),
		},
	}

	fileID, err := s.storage.Store(ctx, bytes.NewReader(data), fmt.Sprintf("upload:%s%s", taskID, filepath.Ext(header.Filename)))
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	// the newest submission for a document wins, so register at enqueue time
	requestID, err := s.registry.Begin(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to register request: %w", err)
	}

	queueTask := &queue.Task{
		ID:       taskID,
		Type:     task.Type,
		Priority: task.Priority,
		Payload: queue.Payload{
			FileID:     fileID,
			Filename:   header.Filename,
			MimeType:   result.FileInfo.MimeType,
			Size:       int64(len(data)),
			DocumentID: documentID,
			RequestID:  requestID,
			Options:    s.withDefaults(sub.Options),
		},
		Metadata:  task.Metadata,
		CreatedAt: task.CreatedAt,
	}

	if err := s.queue.Enqueue(ctx, queueTask); err != nil {
		s.logger.Error("Failed to enqueue task",
			logger.String("taskId", taskID),
			logger.Error(err),
		)
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	s.saveStatus(ctx, &queue.TaskStatus{
		TaskID:     taskID,
		DocumentID: documentID,
		Status:     string(models.StatusPending),
		StartedAt:  now,
	})

	s.logger.Info("File processing task created",
		logger.String("taskId", taskID),
		logger.String("documentId", documentID),
		logger.String("filename", header.Filename),
	)
	return task, nil
}

// ProcessBatch enqueues every file. Tasks come back in input order; the
// error reports the first file that could not be enqueued.
func (s *DocumentService) ProcessBatch(ctx context.Context, files []*multipart.FileHeader, sub Submission) ([]*models.ProcessingTask, error) {
	tasks := make([]*models.ProcessingTask, len(files))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxConcurrent)

	for i, header := range files {
		i, header := i, header
		g.Go(func() error {
			file, err := header.Open()
			if err != nil {
				return fmt.Errorf("failed to open file %s: %w", header.Filename, err)
			}
			defer file.Close()

			// a batch shares options but every file is its own document
			task, err := s.ProcessFile(ctx, file, header, Submission{Options: sub.Options})
			if err != nil {
				return fmt.Errorf("failed to process file %s: %w", header.Filename, err)
			}

			mu.Lock()
			tasks[i] = task
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	out := make([]*models.ProcessingTask, 0, len(tasks))
	for _, t := range tasks {
		if t != nil {
			out = append(out, t)
		}
	}
	return out, err
}

// HandleDocument is the worker side of ProcessFile
func (s *DocumentService) HandleDocument(ctx context.Context, task *queue.Task) error {
	if task == nil || task.ID == "" || task.Payload.FileID == "" {
		return fmt.Errorf("invalid task: missing required data")
	}
	p := task.Payload
	log := s.logger.With(
		logger.String("taskId", task.ID),
		logger.String("documentId", p.DocumentID),
		logger.String("requestId", p.RequestID),
	)
	log.Info("Processing document", logger.String("filename", p.Filename))

	start := time.Now()
	s.saveStatus(ctx, &queue.TaskStatus{
		TaskID:     task.ID,
		DocumentID: p.DocumentID,
		Status:     string(models.StatusRunning),
		Progress:   0.1,
		StartedAt:  start,
	})

	reader, err := s.storage.Get(ctx, p.FileID)
	if err != nil {
		return s.fail(ctx, task, start, fmt.Errorf("failed to get file: %w", err))
	}
	data, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		return s.fail(ctx, task, start, fmt.Errorf("failed to read file: %w", err))
	}

	results, err := s.analyzer.Analyze(ctx, classify.Request{
		DocumentID: p.DocumentID,
		RequestID:  p.RequestID,
		Document:   newDocument(p.DocumentID, p.Filename, p.MimeType, data),
		Options:    p.Options,
	})
	if err != nil {
		return s.fail(ctx, task, start, err)
	}

	if results.Superseded {
		log.Info("Result superseded by a newer request, not persisted")
		s.saveStatus(ctx, &queue.TaskStatus{
			TaskID:     task.ID,
			DocumentID: p.DocumentID,
			Status:     string(models.StatusSuperseded),
			Progress:   1.0,
			StartedAt:  start,
			FinishedAt: time.Now(),
		})
		return nil
	}

	processedDoc, err := converters.NewJSONConverter().Convert(results)
	if err != nil {
		return s.fail(ctx, task, start, fmt.Errorf("failed to convert document: %w", err))
	}
	processedDoc.TaskID = task.ID
	processedDoc.Metadata.FileName = p.Filename
	processedDoc.Metadata.FileType = filepath.Ext(p.Filename)
	processedDoc.Metadata.FileSize = p.Size
	processedDoc.Metadata.ProcessingMs = time.Since(start).Milliseconds()

	resultData, err := json.Marshal(processedDoc)
	if err != nil {
		return s.fail(ctx, task, start, fmt.Errorf("failed to marshal result: %w", err))
	}
	if _, err := s.storage.Store(ctx, bytes.NewReader(resultData), resultKey(task.ID)); err != nil {
		return s.fail(ctx, task, start, fmt.Errorf("failed to store result: %w", err))
	}

	s.saveStatus(ctx, &queue.TaskStatus{
		TaskID:     task.ID,
		DocumentID: p.DocumentID,
		Status:     string(models.StatusCompleted),
		Progress:   1.0,
		StartedAt:  start,
		FinishedAt: time.Now(),
	})
	s.finish(p.DocumentID, p.RequestID)

	log.Info("Document processing completed",
		logger.Int("fields", len(results.ExtractedFields)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (s *DocumentService) fail(ctx context.Context, task *queue.Task, start time.Time, err error) error {
	status := &queue.TaskStatus{
		TaskID:     task.ID,
		DocumentID: task.Payload.DocumentID,
		Status:     string(models.StatusFailed),
		Error:      err.Error(),
		StartedAt:  start,
		FinishedAt: time.Now(),
	}
	if stage, ok := classify.FailedStage(err); ok {
		status.Stage = string(stage)
	}
	s.saveStatus(ctx, status)
	s.logger.Error("Document processing failed",
		logger.String("taskId", task.ID),
		logger.String("stage", status.Stage),
		logger.Error(err),
	)
	return err
}

func (s *DocumentService) GetProcessingStatus(ctx context.Context, taskID string) (*models.ProcessingTask, error) {
	status, err := s.queue.GetTaskStatus(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task status: %w", err)
	}

	metadata := make(map[string]string)
	if status.Stage != "" {
		metadata["stage"] = status.Stage
	}

	return &models.ProcessingTask{
		ID:         status.TaskID,
		DocumentID: status.DocumentID,
		Status:     toProcessingStatus(status.Status),
		Type:       queue.TaskTypeDocumentAnalyze,
		Progress:   status.Progress,
		Error:      status.Error,
		Metadata:   metadata,
		CreatedAt:  status.StartedAt,
		UpdatedAt:  status.FinishedAt,
	}, nil
}

func toProcessingStatus(s string) models.ProcessingStatus {
	switch s {
	case "running", "active":
		return models.StatusRunning
	case "completed":
		return models.StatusCompleted
	case "failed":
		return models.StatusFailed
	case "cancelled":
		return models.StatusCancelled
	case "superseded":
		return models.StatusSuperseded
	default:
		return models.StatusPending
	}
}

func (s *DocumentService) GetProcessedDocument(ctx context.Context, taskID string) (*converters.ProcessedDocument, error) {
	status, err := s.GetProcessingStatus(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if status.Status != models.StatusCompleted {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotCompleted, status.Status)
	}

	reader, err := s.storage.Get(ctx, resultKey(taskID))
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	defer reader.Close()

	var result converters.ProcessedDocument
	if err := json.NewDecoder(reader).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return &result, nil
}

func (s *DocumentService) CancelTask(ctx context.Context, taskID string) error {
	if err := s.queue.CancelTask(ctx, taskID); err != nil {
		return fmt.Errorf("failed to cancel task: %w", err)
	}
	s.logger.Info("Task cancelled", logger.String("taskId", taskID))
	return nil
}

func (s *DocumentService) CleanupTasks(ctx context.Context) error {
	threshold := time.Now().Add(-s.config.RetentionPeriod)
	if err := s.storage.CleanupBefore(ctx, threshold); err != nil {
		return fmt.Errorf("failed to cleanup storage: %w", err)
	}
	s.logger.Info("Completed tasks cleanup", logger.Time("threshold", threshold))
	return nil
}

func (s *DocumentService) withDefaults(opts models.AnalysisOptions) models.AnalysisOptions {
	if len(opts.ElementsToExtract) == 0 && len(s.config.DefaultElements) > 0 {
		opts.ElementsToExtract = s.config.DefaultElements
	}
	return opts
}

func (s *DocumentService) saveStatus(ctx context.Context, status *queue.TaskStatus) {
	if err := s.queue.SaveFinalStatus(ctx, status); err != nil {
		s.logger.Error("Failed to save task status",
			logger.String("taskId", status.TaskID),
			logger.String("status", status.Status),
			logger.Error(err),
		)
	}
}

// finish runs detached from the request context so a cancelled request
// still releases its registration.
func (s *DocumentService) finish(documentID, requestID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.registry.Finish(ctx, documentID, requestID); err != nil {
		s.logger.Warn("Failed to release request",
			logger.String("documentId", documentID),
			logger.Error(err),
		)
	}
}

func resultKey(taskID string) string {
	return fmt.Sprintf("result:%s", taskID)
}

func newDocument(id, filename, mimeType string, data []byte) models.Document {
	if mime, ok := agent.MimeTypeOf(filename); ok && (mimeType == "" || mimeType == "application/octet-stream") {
		mimeType = mime
	}
	fileType := models.Image
	if strings.HasSuffix(mimeType, "/pdf") {
		fileType = models.PDF
	}
	return models.Document{
		ID:       id,
		Filename: filename,
		MimeType: mimeType,
		FileType: fileType,
		Content:  data,
	}
}

// IsClientError reports errors caused by the submitted input
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidFile)
}
