package classify

import (
	"github.com/feichai0017/docintel/internal/models"
)

// State pipeline stage, in execution order
type State string

const (
	StateStart               State = "START"
	StateTextExtracted       State = "TEXT_EXTRACTED"
	StateFieldsExtracted     State = "FIELDS_EXTRACTED"
	StateHeuristicClassified State = "HEURISTIC_CLASSIFIED"
	StateLLMClassified       State = "LLM_CLASSIFIED"
	StateTFNScanned          State = "TFN_SCANNED"
	StateDone                State = "DONE"
)

// Output is what one stage contributes to the aggregate
type Output struct {
	Stage          State
	Status         models.StageStatus
	Err            error
	Extraction     *models.TextExtraction
	Fields         []models.ExtractedField
	Classification *models.ClassificationResult
	Entities       []models.Entity
	EntityProfile  map[string]models.EntityStats
	Sentiment      *models.Sentiment
	TFN            *models.TFNDetection
	Superseded     bool
}

// Precedence picks the authoritative classification: the later stage wins
// whenever it produced one.
func Precedence(current, next *models.ClassificationResult) *models.ClassificationResult {
	if next != nil {
		return next
	}
	return current
}

// Merge returns a new aggregate with out applied; agg is left untouched.
func Merge(agg models.AnalysisResults, out Output) models.AnalysisResults {
	next := agg
	next.Stages = make([]models.StageReport, len(agg.Stages), len(agg.Stages)+1)
	copy(next.Stages, agg.Stages)

	report := models.StageReport{Stage: string(out.Stage), Status: out.Status}
	if out.Err != nil {
		report.Error = out.Err.Error()
	}
	next.Stages = append(next.Stages, report)

	if out.Extraction != nil {
		next.TextExtraction = out.Extraction
	}
	if out.Fields != nil {
		next.ExtractedFields = out.Fields
	}
	if out.Entities != nil {
		next.Entities = out.Entities
	}
	if out.EntityProfile != nil {
		next.EntityProfile = out.EntityProfile
	}
	if out.Sentiment != nil {
		next.Sentiment = out.Sentiment
	}
	if out.TFN != nil {
		next.TFNDetection = out.TFN
	}
	if out.Superseded {
		next.Superseded = true
	}

	if out.Status == models.StageOK && out.Classification != nil {
		switch out.Classification.Source {
		case models.SourceComprehend:
			next.AWSClassification = out.Classification
		case models.SourceOpenAI:
			next.GPTClassification = out.Classification
		}
		next.Classification = Precedence(agg.Classification, out.Classification)
	}

	return next
}
