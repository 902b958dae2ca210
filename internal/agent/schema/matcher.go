// Package schema matches caller-configured elements against extracted fields.
package schema

import (
	"sort"
	"strings"

	"github.com/feichai0017/docintel/internal/models"
	"github.com/feichai0017/docintel/pkg/logger"
)

type Matcher struct {
	patterns *PatternCache
	logger   logger.Logger
}

// NewMatcher patterns may be nil, in which case every call compiles afresh
func NewMatcher(patterns *PatternCache, log logger.Logger) *Matcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &Matcher{patterns: patterns, logger: log}
}

// Match returns, for each element in order, the fields it matches sorted by
// confidence descending and stamped with the element's type and category. A
// field may appear once per element it matches. With no elements the fields
// are returned unchanged.
func (m *Matcher) Match(elements []models.ConfiguredElement, fields []models.ExtractedField) []models.ExtractedField {
	if len(elements) == 0 {
		return fields
	}

	out := make([]models.ExtractedField, 0, len(fields))
	for _, el := range elements {
		matched := m.matchElement(el, fields)
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Confidence > matched[j].Confidence
		})

		elementType := el.Type
		if elementType == "" {
			elementType = models.DefaultElementType
		}
		category := el.Category
		if category == "" {
			category = models.DefaultCategory
		}
		for _, f := range matched {
			f.ElementType = elementType
			f.Category = category
			out = append(out, f)
		}
	}

	m.logger.Debug("Schema matched",
		logger.Int("elements", len(elements)),
		logger.Int("fields", len(fields)),
		logger.Int("matches", len(out)),
	)
	return out
}

func (m *Matcher) matchElement(el models.ConfiguredElement, fields []models.ExtractedField) []models.ExtractedField {
	switch {
	case el.Pattern != "":
		return m.matchPattern(el.Pattern, fields)
	case strings.TrimSpace(el.Name) != "":
		return matchName(el.Name, fields)
	default:
		return nil
	}
}

func (m *Matcher) matchPattern(pattern string, fields []models.ExtractedField) []models.ExtractedField {
	re, err := m.patterns.Compile(pattern)
	if err != nil {
		m.logger.Warn("Skipping element with invalid pattern",
			logger.String("pattern", pattern),
			logger.Error(err),
		)
		return nil
	}

	var matched []models.ExtractedField
	for _, f := range fields {
		if re.MatchString(f.Label) || re.MatchString(f.Value) {
			matched = append(matched, f)
		}
	}
	return matched
}

func matchName(name string, fields []models.ExtractedField) []models.ExtractedField {
	var matched []models.ExtractedField
	for _, f := range fields {
		if FuzzyMatch(name, f.Label) {
			matched = append(matched, f)
		}
	}
	return matched
}

// FuzzyMatch compares case-insensitively: either string containing the other,
// or an edit distance of at most MaxFuzzyDistance.
func FuzzyMatch(name, label string) bool {
	n := strings.ToLower(name)
	l := strings.ToLower(label)
	if l == "" || n == "" {
		return false
	}
	if strings.Contains(l, n) || strings.Contains(n, l) {
		return true
	}
	return Distance(n, l) <= MaxFuzzyDistance
}
