package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/docintel/internal/agent/blocks"
	"github.com/feichai0017/docintel/internal/models"
	"github.com/feichai0017/docintel/pkg/logger"
)

const ProviderName = "pdf-text"

// Processor reads the embedded text layer of a PDF. Scanned PDFs
// without one produce an empty extraction.
type Processor struct {
	logger     logger.Logger
	maxWorkers int
}

func NewProcessor(log logger.Logger) *Processor {
	if log == nil {
		log = logger.NewNop()
	}
	return &Processor{
		logger:     log.Named(ProviderName),
		maxWorkers: 4,
	}
}

func (p *Processor) Name() string {
	return ProviderName
}

func (p *Processor) CanProcess(mimeType string) bool {
	return mimeType == "application/pdf"
}

func (p *Processor) ExtractText(ctx context.Context, doc models.Document) (*models.TextExtraction, error) {
	reader := bytes.NewReader(doc.Content)
	pdfReader, err := pdf.NewReader(reader, reader.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages := pdfReader.NumPage()
	pages := make([][]models.Block, numPages)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxWorkers)

	for i := 1; i <= numPages; i++ {
		pageNum := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			page := pdfReader.Page(pageNum)
			if page.V.IsNull() {
				return nil
			}

			text, err := page.GetPlainText(nil)
			if err != nil {
				return fmt.Errorf("failed to get text from page %d: %w", pageNum, err)
			}
			pages[pageNum-1] = PageLines(text, pageNum)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var lines []models.Block
	for _, page := range pages {
		lines = append(lines, page...)
	}

	p.logger.Debug("Text layer read",
		logger.String("filename", doc.Filename),
		logger.Int("pages", numPages),
		logger.Int("lines", len(lines)),
	)

	return &models.TextExtraction{
		Text:       blocks.LineText(lines, 0),
		Pages:      numPages,
		Confidence: 100,
		Provider:   ProviderName,
		Blocks:     lines,
	}, nil
}

// PageLines splits a page's plain text into LINE blocks
func PageLines(text string, page int) []models.Block {
	var out []models.Block
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, models.Block{
			ID:         "p" + strconv.Itoa(page) + "-l" + strconv.Itoa(i+1),
			BlockType:  models.BlockTypeLine,
			Text:       line,
			Confidence: 100,
			Page:       page,
		})
	}
	return out
}

func (p *Processor) Close() error {
	return nil
}
