package document

import (
	"context"

	"github.com/feichai0017/docintel/internal/models"
)

// TextExtractor runs OCR (or a local text layer read) over one document
type TextExtractor interface {
	// Name identifies the provider in results and logs
	Name() string

	// CanProcess checks whether the extractor accepts the MIME type
	CanProcess(mimeType string) bool

	// ExtractText returns the plain text and, when the provider reports them, the raw blocks
	ExtractText(ctx context.Context, doc models.Document) (*models.TextExtraction, error)

	// Close releases provider resources
	Close() error
}
