package image

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/feichai0017/docintel/internal/models"
)

const (
	DefaultMaxBytes     = 5 * 1024 * 1024
	DefaultMaxDimension = 10000
)

// ImagePreprocessor is one step of the OCR preprocessing pipeline
type ImagePreprocessor interface {
	Process(img image.Image) (image.Image, error)
}

type GrayscaleProcessor struct{}

func NewGrayscaleProcessor() *GrayscaleProcessor {
	return &GrayscaleProcessor{}
}

func (p *GrayscaleProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.Grayscale(img), nil
}

type DenoiseProcessor struct {
	strength float64
}

func NewDenoiseProcessor(strength float64) *DenoiseProcessor {
	return &DenoiseProcessor{strength: strength}
}

func (p *DenoiseProcessor) Process(img image.Image) (image.Image, error) {
	if p.strength <= 0 {
		return img, nil
	}
	return imaging.Blur(img, p.strength), nil
}

type ContrastProcessor struct {
	percentage float64
}

func NewContrastProcessor(percentage float64) *ContrastProcessor {
	return &ContrastProcessor{percentage: percentage}
}

func (p *ContrastProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.AdjustContrast(img, p.percentage), nil
}

type SharpenProcessor struct {
	strength float64
}

func NewSharpenProcessor(strength float64) *SharpenProcessor {
	return &SharpenProcessor{strength: strength}
}

func (p *SharpenProcessor) Process(img image.Image) (image.Image, error) {
	if p.strength <= 0 {
		return img, nil
	}
	return imaging.Sharpen(img, p.strength), nil
}

// DefaultPipeline is the preprocessing applied before tesseract
func DefaultPipeline() []ImagePreprocessor {
	return []ImagePreprocessor{
		NewGrayscaleProcessor(),
		NewDenoiseProcessor(0.5),
		NewContrastProcessor(20),
		NewSharpenProcessor(0.5),
	}
}

// Normalizer keeps images inside the upload limits of the OCR provider.
type Normalizer struct {
	MaxBytes     int
	MaxDimension int
}

func NewNormalizer(maxBytes, maxDimension int) *Normalizer {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &Normalizer{MaxBytes: maxBytes, MaxDimension: maxDimension}
}

// Prepare returns doc unchanged when it already fits, otherwise a
// downscaled JPEG re-encode.
func (n *Normalizer) Prepare(doc models.Document) (models.Document, error) {
	img, err := imaging.Decode(bytes.NewReader(doc.Content), imaging.AutoOrientation(true))
	if err != nil {
		return doc, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if len(doc.Content) <= n.MaxBytes && bounds.Dx() <= n.MaxDimension && bounds.Dy() <= n.MaxDimension {
		return doc, nil
	}

	if bounds.Dx() > n.MaxDimension || bounds.Dy() > n.MaxDimension {
		img = imaging.Fit(img, n.MaxDimension, n.MaxDimension, imaging.Lanczos)
	}

	quality := 90
	for {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return doc, fmt.Errorf("failed to encode image: %w", err)
		}
		if buf.Len() <= n.MaxBytes {
			doc.Content = buf.Bytes()
			doc.MimeType = "image/jpeg"
			return doc, nil
		}
		if quality > 50 {
			quality -= 10
			continue
		}
		b := img.Bounds()
		if b.Dx() < 64 || b.Dy() < 64 {
			return doc, fmt.Errorf("image cannot be reduced below %d bytes", n.MaxBytes)
		}
		img = imaging.Resize(img, b.Dx()*3/4, 0, imaging.Lanczos)
	}
}
