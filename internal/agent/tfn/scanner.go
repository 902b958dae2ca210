// Package tfn finds Australian tax file numbers in free text.
package tfn

import (
	"context"
	"regexp"

	"github.com/feichai0017/docintel/internal/models"
)

var (
	candidatePattern = regexp.MustCompile(`\b\d{3}[ \-]?\d{3}[ \-]?\d{2,3}\b`)

	weights9 = []int{1, 4, 3, 7, 5, 8, 6, 9, 10}
	weights8 = []int{10, 7, 8, 4, 6, 3, 5, 1}
)

// Scanner reports checksum-valid TFNs. It holds no state.
type Scanner struct{}

func NewScanner() *Scanner {
	return &Scanner{}
}

func (s *Scanner) ScanTFN(ctx context.Context, text string) (models.TFNDetection, error) {
	if err := ctx.Err(); err != nil {
		return models.TFNDetection{}, err
	}

	count := 0
	for _, candidate := range candidatePattern.FindAllString(text, -1) {
		if Valid(candidate) {
			count++
		}
	}
	return models.TFNDetection{Detected: count > 0, Count: count}, nil
}

// Valid checks the ATO weighted checksum of an 8 or 9 digit number;
// spaces and hyphens are ignored.
func Valid(s string) bool {
	digits := make([]int, 0, 9)
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits = append(digits, int(r-'0'))
		case r == ' ' || r == '-':
		default:
			return false
		}
	}

	var weights []int
	switch len(digits) {
	case 9:
		weights = weights9
	case 8:
		weights = weights8
	default:
		return false
	}

	sum := 0
	for i, d := range digits {
		sum += d * weights[i]
	}
	return sum != 0 && sum%11 == 0
}
