package classify

import (
	"context"

	"github.com/feichai0017/docintel/internal/models"
)

// EntityDetector backs the heuristic stage
type EntityDetector interface {
	DetectEntities(ctx context.Context, text string) ([]models.Entity, error)
}

// SentimentDetector is optional; its failure never fails the heuristic stage
type SentimentDetector interface {
	DetectSentiment(ctx context.Context, text string) (*models.Sentiment, error)
}

// TypeClassifier backs the LLM stage. Implementations return a result whose
// source is set by the orchestrator.
type TypeClassifier interface {
	ClassifyType(ctx context.Context, text string, taxonomy []models.DocumentType) (*models.ClassificationResult, error)
}

// Scanner backs the sensitive-identifier stage
type Scanner interface {
	ScanTFN(ctx context.Context, text string) (models.TFNDetection, error)
}

// Guard reports whether a newer request for the same document has started
type Guard interface {
	Superseded(ctx context.Context, documentID, requestID string) (bool, error)
}
