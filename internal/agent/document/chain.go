package document

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/feichai0017/docintel/internal/models"
	"github.com/feichai0017/docintel/pkg/logger"
)

// Chain tries extractors in order and returns the first success
type Chain struct {
	extractors []TextExtractor
	logger     logger.Logger
}

func NewChain(log logger.Logger, extractors ...TextExtractor) *Chain {
	if log == nil {
		log = logger.NewNop()
	}
	return &Chain{extractors: extractors, logger: log}
}

func (c *Chain) Name() string {
	names := make([]string, 0, len(c.extractors))
	for _, e := range c.extractors {
		names = append(names, e.Name())
	}
	return strings.Join(names, ">")
}

func (c *Chain) CanProcess(mimeType string) bool {
	for _, e := range c.extractors {
		if e.CanProcess(mimeType) {
			return true
		}
	}
	return false
}

func (c *Chain) ExtractText(ctx context.Context, doc models.Document) (*models.TextExtraction, error) {
	var errs []error
	for _, e := range c.extractors {
		if !e.CanProcess(doc.MimeType) {
			continue
		}
		out, err := e.ExtractText(ctx, doc)
		if err == nil {
			return out, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
		if ctx.Err() != nil {
			break
		}
		c.logger.Warn("Text extractor failed, trying next",
			logger.String("extractor", e.Name()),
			logger.String("filename", doc.Filename),
			logger.Error(err),
		)
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("no extractor for mime type %s", doc.MimeType)
	}
	return nil, errors.Join(errs...)
}

func (c *Chain) Close() error {
	var errs []error
	for _, e := range c.extractors {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
