package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/feichai0017/docintel/internal/agent/blocks"
	"github.com/feichai0017/docintel/internal/models"
	"github.com/feichai0017/docintel/pkg/logger"
)

const ProviderName = "tesseract"

// Processor runs local tesseract OCR. It yields LINE blocks only,
// so documents read this way have no key-value pairs.
type Processor struct {
	logger        logger.Logger
	preprocessors []ImagePreprocessor
	config        *ProcessOptions
}

type ProcessOptions struct {
	Language      []string
	PageSegMode   gosseract.PageSegMode
	MinConfidence float64
}

func NewProcessor(log logger.Logger, opts *ProcessOptions) (*Processor, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if opts == nil {
		opts = &ProcessOptions{
			Language:    []string{"eng"},
			PageSegMode: gosseract.PSM_AUTO,
		}
	}
	if len(opts.Language) == 0 {
		opts.Language = []string{"eng"}
	}

	return &Processor{
		logger:        log.Named(ProviderName),
		preprocessors: DefaultPipeline(),
		config:        opts,
	}, nil
}

func (p *Processor) Name() string {
	return ProviderName
}

func (p *Processor) CanProcess(mimeType string) bool {
	switch mimeType {
	case "image/jpeg", "image/jpg", "image/png", "image/tiff":
		return true
	default:
		return false
	}
}

func (p *Processor) ExtractText(ctx context.Context, doc models.Document) (*models.TextExtraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(doc.Content), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	processed, err := p.applyPreprocessing(img)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, processed, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	// a client per call, gosseract clients are not goroutine safe
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(p.config.Language...); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(p.config.PageSegMode); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("failed to read text lines: %w", err)
	}

	lines := LineBlocks(boxes, processed.Bounds())
	extraction := &models.TextExtraction{
		Text:       blocks.LineText(lines, p.config.MinConfidence),
		Pages:      1,
		Confidence: blocks.AverageConfidence(lines),
		Provider:   ProviderName,
		Blocks:     lines,
	}

	p.logger.Info("Image recognized",
		logger.String("filename", doc.Filename),
		logger.Int("lines", len(lines)),
	)
	return extraction, nil
}

func (p *Processor) applyPreprocessing(img image.Image) (image.Image, error) {
	var err error
	result := img
	for _, processor := range p.preprocessors {
		result, err = processor.Process(result)
		if err != nil {
			return nil, fmt.Errorf("preprocessing failed: %w", err)
		}
	}
	return result, nil
}

// LineBlocks converts tesseract line boxes into LINE blocks with
// geometry normalized against bounds.
func LineBlocks(boxes []gosseract.BoundingBox, bounds image.Rectangle) []models.Block {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	out := make([]models.Block, 0, len(boxes))
	for i, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		block := models.Block{
			ID:         "line-" + strconv.Itoa(i+1),
			BlockType:  models.BlockTypeLine,
			Text:       text,
			Confidence: box.Confidence,
			Page:       1,
		}
		if w > 0 && h > 0 {
			block.Geometry = &models.Geometry{
				BoundingBox: &models.BoundingBox{
					Left:   float64(box.Box.Min.X-bounds.Min.X) / w,
					Top:    float64(box.Box.Min.Y-bounds.Min.Y) / h,
					Width:  float64(box.Box.Dx()) / w,
					Height: float64(box.Box.Dy()) / h,
				},
			}
		}
		out = append(out, block)
	}
	return out
}

func (p *Processor) Close() error {
	return nil
}
