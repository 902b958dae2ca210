package textract

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/feichai0017/docintel/internal/agent/blocks"
	"github.com/feichai0017/docintel/internal/models"
	"github.com/feichai0017/docintel/pkg/logger"
)

const ProviderName = "textract"

// AnalyzeAPI is the subset of *textract.Client used here
type AnalyzeAPI interface {
	AnalyzeDocument(ctx context.Context, params *textract.AnalyzeDocumentInput, optFns ...func(*textract.Options)) (*textract.AnalyzeDocumentOutput, error)
}

// Preprocessor may rewrite the document bytes before upload
type Preprocessor interface {
	Prepare(doc models.Document) (models.Document, error)
}

type TextractProcessor struct {
	client       AnalyzeAPI
	preprocessor Preprocessor
	logger       logger.Logger
	config       *TextractConfig
}

type TextractConfig struct {
	Region        string
	AccessKey     string
	SecretKey     string
	MinConfidence float64
	FeatureTypes  []types.FeatureType
}

func NewTextractProcessor(ctx context.Context, cfg *TextractConfig, pre Preprocessor, log logger.Logger) (*TextractProcessor, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	return New(textract.NewFromConfig(awsCfg), cfg, pre, log), nil
}

// New wraps an existing AnalyzeAPI
func New(client AnalyzeAPI, cfg *TextractConfig, pre Preprocessor, log logger.Logger) *TextractProcessor {
	c := TextractConfig{}
	if cfg != nil {
		c = *cfg
	}
	if len(c.FeatureTypes) == 0 {
		c.FeatureTypes = []types.FeatureType{types.FeatureTypeForms, types.FeatureTypeTables}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &TextractProcessor{
		client:       client,
		preprocessor: pre,
		logger:       log.Named(ProviderName),
		config:       &c,
	}
}

func (p *TextractProcessor) Name() string {
	return ProviderName
}

func (p *TextractProcessor) CanProcess(mimeType string) bool {
	supportedTypes := map[string]bool{
		"image/jpeg":      true,
		"image/jpg":       true,
		"image/png":       true,
		"image/tiff":      true,
		"application/pdf": true,
	}
	return supportedTypes[strings.ToLower(mimeType)]
}

func (p *TextractProcessor) ExtractText(ctx context.Context, doc models.Document) (*models.TextExtraction, error) {
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("document %q is empty", doc.Filename)
	}

	if p.preprocessor != nil && doc.FileType == models.Image {
		prepared, err := p.preprocessor.Prepare(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare image: %w", err)
		}
		doc = prepared
	}

	result, err := p.client.AnalyzeDocument(ctx, &textract.AnalyzeDocumentInput{
		Document:     &types.Document{Bytes: doc.Content},
		FeatureTypes: p.config.FeatureTypes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to analyze document: %w", err)
	}

	converted := ConvertBlocks(result.Blocks)
	extraction := &models.TextExtraction{
		Text:       blocks.LineText(converted, p.config.MinConfidence),
		Pages:      blocks.PageCount(converted),
		Confidence: blocks.AverageConfidence(converted),
		Provider:   ProviderName,
		Blocks:     converted,
	}
	if result.DocumentMetadata != nil && result.DocumentMetadata.Pages != nil {
		extraction.Pages = int(aws.ToInt32(result.DocumentMetadata.Pages))
	}

	p.logger.Info("Document analyzed",
		logger.String("filename", doc.Filename),
		logger.Int("blocks", len(converted)),
		logger.Int("pages", extraction.Pages),
	)
	return extraction, nil
}

func (p *TextractProcessor) Close() error {
	return nil
}

// ConvertBlocks maps Textract blocks onto the provider-neutral model
func ConvertBlocks(in []types.Block) []models.Block {
	out := make([]models.Block, 0, len(in))
	for _, b := range in {
		block := models.Block{
			ID:         aws.ToString(b.Id),
			BlockType:  models.BlockType(b.BlockType),
			Text:       aws.ToString(b.Text),
			Confidence: float64(aws.ToFloat32(b.Confidence)),
			Page:       int(aws.ToInt32(b.Page)),
		}
		if block.Page <= 0 {
			block.Page = 1
		}
		for _, et := range b.EntityTypes {
			block.EntityTypes = append(block.EntityTypes, models.EntityType(et))
		}
		for _, rel := range b.Relationships {
			block.Relationships = append(block.Relationships, models.Relationship{
				Type: models.RelationshipType(rel.Type),
				Ids:  append([]string(nil), rel.Ids...),
			})
		}
		if b.Geometry != nil {
			block.Geometry = convertGeometry(b.Geometry)
		}
		out = append(out, block)
	}
	return out
}

func convertGeometry(g *types.Geometry) *models.Geometry {
	geometry := &models.Geometry{}
	if bb := g.BoundingBox; bb != nil {
		geometry.BoundingBox = &models.BoundingBox{
			Width:  float64(bb.Width),
			Height: float64(bb.Height),
			Left:   float64(bb.Left),
			Top:    float64(bb.Top),
		}
	}
	for _, pt := range g.Polygon {
		geometry.Polygon = append(geometry.Polygon, models.Point{X: float64(pt.X), Y: float64(pt.Y)})
	}
	return geometry
}
