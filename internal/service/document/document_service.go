package document

import (
	"context"
	"errors"
	"mime/multipart"

	"github.com/feichai0017/docintel/internal/agent/classify"
	"github.com/feichai0017/docintel/internal/models"
	"github.com/feichai0017/docintel/pkg/converters"
	"github.com/feichai0017/docintel/pkg/queue"
)

var (
	ErrInvalidFile      = errors.New("invalid file")
	ErrTaskNotCompleted = errors.New("task is not completed")
)

// Submission caller supplied context for one document
type Submission struct {
	DocumentID string
	Options    models.AnalysisOptions
}

type DocumentProcessor interface {
	AnalyzeFile(ctx context.Context, header *multipart.FileHeader, sub Submission) (*models.AnalysisResults, error)
	ProcessFile(ctx context.Context, file multipart.File, header *multipart.FileHeader, sub Submission) (*models.ProcessingTask, error)
	ProcessBatch(ctx context.Context, files []*multipart.FileHeader, sub Submission) ([]*models.ProcessingTask, error)
	GetProcessingStatus(ctx context.Context, taskID string) (*models.ProcessingTask, error)
	HandleDocument(ctx context.Context, task *queue.Task) error
	GetProcessedDocument(ctx context.Context, taskID string) (*converters.ProcessedDocument, error)
	CancelTask(ctx context.Context, taskID string) error
	CleanupTasks(ctx context.Context) error
}

// FieldProcessor runs extraction and matching on caller supplied blocks
type FieldProcessor interface {
	ExtractFields(ctx context.Context, blocks []models.Block, opts FieldOptions) ([]models.ExtractedField, error)
	MatchFields(ctx context.Context, elements []models.ConfiguredElement, fields []models.ExtractedField) []models.ExtractedField
}

type FieldOptions struct {
	Elements     []models.ConfiguredElement
	ExpectFields bool
}

// Analyzer is satisfied by *classify.Orchestrator
type Analyzer interface {
	Analyze(ctx context.Context, req classify.Request) (*models.AnalysisResults, error)
}

// RequestRegistry tracks the latest request per document
type RequestRegistry interface {
	Begin(ctx context.Context, documentID string) (string, error)
	Finish(ctx context.Context, documentID, requestID string) error
}
