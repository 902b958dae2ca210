// Package fields turns an OCR block graph into labelled key/value fields.
package fields

import (
	"errors"

	"github.com/feichai0017/docintel/internal/agent/blocks"
	"github.com/feichai0017/docintel/internal/agent/datatype"
	"github.com/feichai0017/docintel/internal/models"
	"github.com/feichai0017/docintel/pkg/logger"
)

// ErrNoFields is returned by ExtractExpected when the block graph resolves to
// no field at all.
var ErrNoFields = errors.New("block graph yielded no fields")

// Extractor is stateless and safe for concurrent use.
type Extractor struct {
	logger logger.Logger
}

func NewExtractor(log logger.Logger) *Extractor {
	if log == nil {
		log = logger.NewNop()
	}
	return &Extractor{logger: log}
}

// Extract produces every field of the document. A KEY without text, without a
// resolvable VALUE, or whose VALUE has no text is dropped. When two KEY blocks
// share the same label the later one replaces the earlier at the earlier's
// position.
func (e *Extractor) Extract(blks []models.Block) []models.ExtractedField {
	g := blocks.NewGraph(blks)
	set := newFieldSet(g.KeyCount())

	dropped := 0
	for _, key := range g.Keys() {
		field, ok := e.resolve(g, key)
		if !ok {
			dropped++
			continue
		}
		set.put(field)
	}

	e.logger.Debug("Fields extracted",
		logger.Int("keys", g.KeyCount()),
		logger.Int("values", g.ValueCount()),
		logger.Int("fields", set.len()),
		logger.Int("dropped", dropped),
	)

	return set.list()
}

// ExtractExpected is Extract for callers that require at least one field.
func (e *Extractor) ExtractExpected(blks []models.Block) ([]models.ExtractedField, error) {
	out := e.Extract(blks)
	if len(out) == 0 {
		return nil, ErrNoFields
	}
	return out, nil
}

// ExtractFor runs ExtractExpected when expect is set and Extract otherwise.
func (e *Extractor) ExtractFor(blks []models.Block, expect bool) ([]models.ExtractedField, error) {
	if expect {
		return e.ExtractExpected(blks)
	}
	return e.Extract(blks), nil
}

func (e *Extractor) resolve(g *blocks.Graph, key *models.Block) (models.ExtractedField, bool) {
	keyText := g.ChildText(key)
	if keyText == "" {
		return models.ExtractedField{}, false
	}

	valueBlock, ok := g.ValueBlockOf(key)
	if !ok {
		return models.ExtractedField{}, false
	}

	valueText := g.ChildText(valueBlock)
	if valueText == "" {
		return models.ExtractedField{}, false
	}

	return models.ExtractedField{
		ID:              key.ID,
		Label:           keyText,
		Value:           valueText,
		Confidence:      key.Confidence,
		DataType:        datatype.Infer(valueText),
		BoundingBox:     valueBlock.BoundingBox(),
		KeyBoundingBox:  key.BoundingBox(),
		ValueWordBlocks: g.WordsOf(valueBlock),
		Page:            valueBlock.PageNumber(),
	}, true
}

// fieldSet is an insertion-ordered map keyed by label with last-write-wins
type fieldSet struct {
	index  map[string]int
	fields []models.ExtractedField
}

func newFieldSet(capacity int) *fieldSet {
	return &fieldSet{
		index:  make(map[string]int, capacity),
		fields: make([]models.ExtractedField, 0, capacity),
	}
}

func (s *fieldSet) put(f models.ExtractedField) {
	if i, ok := s.index[f.Label]; ok {
		s.fields[i] = f
		return
	}
	s.index[f.Label] = len(s.fields)
	s.fields = append(s.fields, f)
}

func (s *fieldSet) len() int {
	return len(s.fields)
}

func (s *fieldSet) list() []models.ExtractedField {
	return s.fields
}
