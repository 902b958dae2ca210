// Package comprehend adapts AWS Comprehend to the heuristic classification stage.
package comprehend

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/comprehend"
	"github.com/aws/aws-sdk-go-v2/service/comprehend/types"

	"github.com/feichai0017/docintel/internal/models"
	"github.com/feichai0017/docintel/pkg/logger"
	"github.com/feichai0017/docintel/pkg/ratelimit"
)

const (
	ProviderName = "comprehend"

	// request size limits in UTF-8 bytes
	maxEntitiesBytes  = 100000
	maxSentimentBytes = 5000
)

// API is the subset of *comprehend.Client the adapter calls
type API interface {
	DetectEntities(ctx context.Context, params *comprehend.DetectEntitiesInput, optFns ...func(*comprehend.Options)) (*comprehend.DetectEntitiesOutput, error)
	DetectSentiment(ctx context.Context, params *comprehend.DetectSentimentInput, optFns ...func(*comprehend.Options)) (*comprehend.DetectSentimentOutput, error)
}

type Config struct {
	Region       string
	AccessKey    string
	SecretKey    string
	LanguageCode string
}

type Client struct {
	api      API
	language types.LanguageCode
	limiter  *ratelimit.Limiter
	logger   logger.Logger
}

// NewClient builds a Comprehend client from static credentials, or the
// default AWS chain when no access key is configured.
func NewClient(ctx context.Context, cfg *Config, limiter *ratelimit.Limiter, log logger.Logger) (*Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	return New(comprehend.NewFromConfig(awsCfg), cfg.LanguageCode, limiter, log), nil
}

// New wraps an existing API implementation
func New(api API, languageCode string, limiter *ratelimit.Limiter, log logger.Logger) *Client {
	if languageCode == "" {
		languageCode = string(types.LanguageCodeEn)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		api:      api,
		language: types.LanguageCode(languageCode),
		limiter:  limiter,
		logger:   log.Named(ProviderName),
	}
}

func (c *Client) DetectEntities(ctx context.Context, text string) ([]models.Entity, error) {
	if err := c.limiter.Wait(ctx, ProviderName); err != nil {
		return nil, err
	}

	out, err := c.api.DetectEntities(ctx, &comprehend.DetectEntitiesInput{
		Text:         aws.String(truncateUTF8(text, maxEntitiesBytes)),
		LanguageCode: c.language,
	})
	if err != nil {
		return nil, fmt.Errorf("comprehend detect entities: %w", err)
	}

	entities := make([]models.Entity, 0, len(out.Entities))
	for _, e := range out.Entities {
		entities = append(entities, models.Entity{
			Type:        string(e.Type),
			Text:        aws.ToString(e.Text),
			Score:       float64(aws.ToFloat32(e.Score)),
			BeginOffset: int(aws.ToInt32(e.BeginOffset)),
			EndOffset:   int(aws.ToInt32(e.EndOffset)),
		})
	}

	c.logger.Debug("Entities detected", logger.Int("count", len(entities)))
	return entities, nil
}

func (c *Client) DetectSentiment(ctx context.Context, text string) (*models.Sentiment, error) {
	if err := c.limiter.Wait(ctx, ProviderName); err != nil {
		return nil, err
	}

	out, err := c.api.DetectSentiment(ctx, &comprehend.DetectSentimentInput{
		Text:         aws.String(truncateUTF8(text, maxSentimentBytes)),
		LanguageCode: c.language,
	})
	if err != nil {
		return nil, fmt.Errorf("comprehend detect sentiment: %w", err)
	}

	sentiment := &models.Sentiment{
		Sentiment: string(out.Sentiment),
		Scores:    make(map[string]float64, 4),
	}
	if s := out.SentimentScore; s != nil {
		sentiment.Scores["positive"] = float64(aws.ToFloat32(s.Positive))
		sentiment.Scores["negative"] = float64(aws.ToFloat32(s.Negative))
		sentiment.Scores["neutral"] = float64(aws.ToFloat32(s.Neutral))
		sentiment.Scores["mixed"] = float64(aws.ToFloat32(s.Mixed))
	}
	return sentiment, nil
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
