package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	cfg "github.com/feichai0017/docintel/config"
	"github.com/feichai0017/docintel/internal/agent/classify"
	"github.com/feichai0017/docintel/internal/agent/comprehend"
	"github.com/feichai0017/docintel/internal/agent/document"
	"github.com/feichai0017/docintel/internal/agent/document/image"
	"github.com/feichai0017/docintel/internal/agent/document/pdf"
	"github.com/feichai0017/docintel/internal/agent/document/textract"
	"github.com/feichai0017/docintel/internal/agent/fields"
	"github.com/feichai0017/docintel/internal/agent/llm"
	"github.com/feichai0017/docintel/internal/agent/schema"
	"github.com/feichai0017/docintel/internal/agent/tfn"
	"github.com/feichai0017/docintel/internal/models"
	"github.com/feichai0017/docintel/pkg/logger"
	"github.com/feichai0017/docintel/pkg/ratelimit"
)

var extToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".pdf":  "application/pdf",
}

// MimeTypeOf maps a filename or bare extension to a supported MIME type
func MimeTypeOf(name string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = "." + strings.TrimPrefix(strings.ToLower(name), ".")
	}
	mimeType, ok := extToMIME[ext]
	return mimeType, ok
}

// ProcessorFactory routes documents to a text extractor by MIME type.
// It is itself a document.TextExtractor.
type ProcessorFactory struct {
	processors map[string]document.TextExtractor
	all        []document.TextExtractor
	logger     logger.Logger
}

func NewProcessorFactory(ctx context.Context, log logger.Logger) (*ProcessorFactory, error) {
	textractCfg := cfg.GetTextractConfig()
	pipelineCfg := cfg.GetPipelineConfig()

	textractProcessor, err := textract.NewTextractProcessor(ctx, &textract.TextractConfig{
		Region:        textractCfg.Region,
		AccessKey:     textractCfg.AccessKey,
		SecretKey:     textractCfg.SecretKey,
		MinConfidence: textractCfg.MinConfidence,
	}, image.NewNormalizer(textractCfg.MaxImageBytes, textractCfg.MaxImageSide), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create textract processor: %w", err)
	}

	imageProcessor, err := image.NewProcessor(log, &image.ProcessOptions{
		Language:      pipelineCfg.TesseractLangs,
		MinConfidence: textractCfg.MinConfidence,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create image processor: %w", err)
	}

	return NewProcessorFactoryWith(log,
		document.NewChain(log, textractProcessor, pdf.NewProcessor(log)),
		document.NewChain(log, textractProcessor, imageProcessor),
	), nil
}

// NewProcessorFactoryWith registers extractors in order; the first one
// claiming a MIME type serves it.
func NewProcessorFactoryWith(log logger.Logger, extractors ...document.TextExtractor) *ProcessorFactory {
	if log == nil {
		log = logger.NewNop()
	}
	f := &ProcessorFactory{
		processors: make(map[string]document.TextExtractor),
		all:        extractors,
		logger:     log,
	}
	for _, mimeType := range extToMIME {
		for _, e := range extractors {
			if e.CanProcess(mimeType) {
				f.processors[mimeType] = e
				break
			}
		}
	}
	return f
}

// GetProcessor accepts a MIME type, a filename or an extension
func (f *ProcessorFactory) GetProcessor(fileType string) (document.TextExtractor, error) {
	mimeType := strings.ToLower(fileType)
	if !strings.Contains(mimeType, "/") {
		var ok bool
		if mimeType, ok = MimeTypeOf(fileType); !ok {
			f.logger.Error("Unsupported file type", logger.String("fileType", fileType))
			return nil, fmt.Errorf("unsupported file type: %s", fileType)
		}
	}

	processor, ok := f.processors[mimeType]
	if !ok {
		f.logger.Error("No processor found", logger.String("mimeType", mimeType))
		return nil, fmt.Errorf("no processor found for mime type: %s", mimeType)
	}
	return processor, nil
}

func (f *ProcessorFactory) Name() string {
	return "router"
}

func (f *ProcessorFactory) CanProcess(mimeType string) bool {
	_, ok := f.processors[strings.ToLower(mimeType)]
	return ok
}

func (f *ProcessorFactory) ExtractText(ctx context.Context, doc models.Document) (*models.TextExtraction, error) {
	key := doc.MimeType
	if key == "" {
		key = doc.Filename
	}
	processor, err := f.GetProcessor(key)
	if err != nil {
		return nil, err
	}
	return processor.ExtractText(ctx, doc)
}

func (f *ProcessorFactory) Close() error {
	seen := make(map[document.TextExtractor]bool)
	for _, e := range f.all {
		if seen[e] {
			continue
		}
		seen[e] = true
		if err := e.Close(); err != nil {
			f.logger.Warn("Failed to close extractor", logger.String("extractor", e.Name()), logger.Error(err))
		}
	}
	return nil
}

// NewOrchestrator wires the classification providers that are enabled
// and configured. guard may be nil.
func NewOrchestrator(ctx context.Context, extractor document.TextExtractor, guard classify.Guard, log logger.Logger) (*classify.Orchestrator, error) {
	pipelineCfg := cfg.GetPipelineConfig()

	opts := []classify.Option{
		classify.WithFieldExtraction(
			fields.NewExtractor(log),
			schema.NewMatcher(schema.NewPatternCache(pipelineCfg.PatternCacheTTL, 2*pipelineCfg.PatternCacheTTL), log),
		),
		classify.WithStageTimeout(pipelineCfg.StageTimeout),
	}
	if guard != nil {
		opts = append(opts, classify.WithGuard(guard))
	}

	limiter := ratelimit.NewLimiter(0, 0)

	if pipelineCfg.EnableComprehend {
		comprehendCfg := cfg.GetComprehendConfig()
		limiter.SetRate(comprehend.ProviderName, comprehendCfg.RateLimit, comprehendCfg.Burst)
		client, err := comprehend.NewClient(ctx, &comprehend.Config{
			Region:       comprehendCfg.Region,
			AccessKey:    comprehendCfg.AccessKey,
			SecretKey:    comprehendCfg.SecretKey,
			LanguageCode: comprehendCfg.LanguageCode,
		}, limiter, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create comprehend client: %w", err)
		}
		opts = append(opts, classify.WithEntityDetector(client))
		if pipelineCfg.EnableSentiment {
			opts = append(opts, classify.WithSentimentDetector(client))
		}
	}

	if pipelineCfg.EnableOpenAI {
		openAICfg := cfg.GetOpenAIConfig()
		if openAICfg.APIKey == "" && openAICfg.BaseURL == "" {
			log.Warn("OpenAI classification enabled without credentials, stage will report unavailable")
		} else {
			limiter.SetRate(llm.ProviderName, openAICfg.RateLimit, openAICfg.Burst)
			classifier, err := llm.NewOpenAIClassifier(llm.Config{
				APIKey:      openAICfg.APIKey,
				BaseURL:     openAICfg.BaseURL,
				Model:       openAICfg.Model,
				Temperature: openAICfg.Temperature,
				MaxTokens:   openAICfg.MaxTokens,
				MaxChars:    openAICfg.MaxChars,
				Timeout:     openAICfg.Timeout,
			}, limiter, log)
			if err != nil {
				return nil, fmt.Errorf("failed to create openai classifier: %w", err)
			}
			opts = append(opts, classify.WithTypeClassifier(classifier))
		}
	}

	if pipelineCfg.EnableTFN {
		opts = append(opts, classify.WithScanner(tfn.NewScanner()))
	}

	return classify.New(extractor, log, opts...), nil
}

// DefaultElements loads the configured element list, if any
func DefaultElements() ([]models.ConfiguredElement, error) {
	path := cfg.GetPipelineConfig().ElementsFile
	if path == "" {
		return nil, nil
	}
	return schema.LoadElementsFile(path)
}
