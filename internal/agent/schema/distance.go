package schema

import (
	"github.com/agext/levenshtein"
)

// MaxFuzzyDistance is the largest edit distance accepted as a fuzzy label match
const MaxFuzzyDistance = 3

// Distance is the unit-cost Levenshtein edit distance between a and b, counted in runes
func Distance(a, b string) int {
	return levenshtein.Distance(a, b, nil)
}
