package document

import (
	"context"

	"github.com/feichai0017/docintel/internal/models"
	"github.com/feichai0017/docintel/pkg/logger"
)

func (s *DocumentService) ExtractFields(ctx context.Context, blocks []models.Block, opts FieldOptions) ([]models.ExtractedField, error) {
	all, err := s.extractor.ExtractFor(blocks, opts.ExpectFields)
	if err != nil {
		return nil, err
	}

	elements := opts.Elements
	if len(elements) == 0 {
		elements = s.config.DefaultElements
	}
	matched := s.matcher.Match(elements, all)

	logger.FromContext(ctx, s.logger).Debug("Fields extracted",
		logger.Int("blocks", len(blocks)),
		logger.Int("fields", len(all)),
		logger.Int("matched", len(matched)),
	)
	if matched == nil {
		matched = []models.ExtractedField{}
	}
	return matched, nil
}

func (s *DocumentService) MatchFields(ctx context.Context, elements []models.ConfiguredElement, extracted []models.ExtractedField) []models.ExtractedField {
	matched := s.matcher.Match(elements, extracted)
	if matched == nil {
		matched = []models.ExtractedField{}
	}
	return matched
}
