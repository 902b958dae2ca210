// Package llm adapts an OpenAI chat model to the LLM classification stage.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/feichai0017/docintel/internal/models"
	"github.com/feichai0017/docintel/pkg/logger"
	"github.com/feichai0017/docintel/pkg/ratelimit"
)

const ProviderName = "openai"

var (
	ErrEmptyTaxonomy   = errors.New("taxonomy is empty")
	ErrInvalidResponse = errors.New("invalid model response")
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	MaxChars    int
	Timeout     time.Duration
}

type OpenAIClassifier struct {
	client  *openai.Client
	config  Config
	limiter *ratelimit.Limiter
	logger  logger.Logger
}

type answer struct {
	Type       string  `json:"type"`
	SubType    string  `json:"subType"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

func NewOpenAIClassifier(cfg Config, limiter *ratelimit.Limiter, log logger.Logger) (*OpenAIClassifier, error) {
	// self-hosted compatible endpoints may run without a key
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 300
	}
	if cfg.MaxChars == 0 {
		cfg.MaxChars = 12000
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIClassifier{
		client:  openai.NewClientWithConfig(clientConfig),
		config:  cfg,
		limiter: limiter,
		logger:  log.Named(ProviderName),
	}, nil
}

// ClassifyType asks the model for one type/sub-type from taxonomy and
// validates the answer before returning it.
func (c *OpenAIClassifier) ClassifyType(ctx context.Context, text string, taxonomy []models.DocumentType) (*models.ClassificationResult, error) {
	if len(taxonomy) == 0 {
		return nil, ErrEmptyTaxonomy
	}
	if err := c.limiter.Wait(ctx, ProviderName); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildUserPrompt(text, taxonomy, c.config.MaxChars)},
		},
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrInvalidResponse)
	}

	content := []byte(strings.TrimSpace(resp.Choices[0].Message.Content))
	if err := ValidateJSONAgainstSchema(BuildClassificationSchema(taxonomy), content); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	var a answer
	if err := json.Unmarshal(content, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	a.SubType = c.checkSubType(taxonomy, a)

	c.logger.Info("Document type classified",
		logger.String("type", a.Type),
		logger.String("subType", a.SubType),
		logger.Float64("confidence", a.Confidence),
		logger.Int("tokens", resp.Usage.TotalTokens),
		logger.Duration("elapsed", time.Since(start)),
	)

	return &models.ClassificationResult{
		Type:       a.Type,
		SubType:    a.SubType,
		Confidence: a.Confidence,
		Source:     models.SourceOpenAI,
	}, nil
}

// checkSubType drops a sub-type that belongs to a different type
func (c *OpenAIClassifier) checkSubType(taxonomy []models.DocumentType, a answer) string {
	if a.SubType == "" {
		return ""
	}
	for _, t := range taxonomy {
		if t.Name != a.Type {
			continue
		}
		for _, s := range t.SubTypes {
			if s.Name == a.SubType {
				return a.SubType
			}
		}
	}
	c.logger.Warn("Dropping sub-type outside the chosen type",
		logger.String("type", a.Type),
		logger.String("subType", a.SubType),
	)
	return ""
}
