package models

// ClassificationSource identifies which stage produced a classification
type ClassificationSource string

const (
	SourceComprehend ClassificationSource = "AWS Comprehend"
	SourceOpenAI     ClassificationSource = "OpenAI"
)

type ClassificationResult struct {
	Type       string               `json:"type"`
	SubType    string               `json:"subType"`
	Confidence float64              `json:"confidence"`
	Source     ClassificationSource `json:"source"`
}

// DocumentType is one entry of the taxonomy offered to the LLM stage
type DocumentType struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	SubTypes    []DocumentSub `json:"subTypes,omitempty" yaml:"subTypes,omitempty"`
}

type DocumentSub struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// AnalysisFlags toggles the optional classification stages
type AnalysisFlags struct {
	AutoClassify      bool `json:"autoClassify"`
	UseTextExtraction bool `json:"useTextExtraction"`
	ScanForTFN        bool `json:"scanForTFN"`
}

// Entity is one named entity detected in the document text
type Entity struct {
	Type        string  `json:"type"`
	Text        string  `json:"text"`
	Score       float64 `json:"score"`
	BeginOffset int     `json:"beginOffset"`
	EndOffset   int     `json:"endOffset"`
}

// EntityStats frequency and running average score for one entity type
type EntityStats struct {
	Count        int     `json:"count"`
	AverageScore float64 `json:"averageScore"`
}

type Sentiment struct {
	Sentiment string             `json:"sentiment"`
	Scores    map[string]float64 `json:"scores"`
}

type TFNDetection struct {
	Detected bool   `json:"detected"`
	Count    int    `json:"count,omitempty"`
	Error    string `json:"error,omitempty"`
}

// TextExtraction is the output of the mandatory OCR stage
type TextExtraction struct {
	Text       string  `json:"text"`
	Pages      int     `json:"pages"`
	Confidence float64 `json:"confidence"`
	Provider   string  `json:"provider"`
	Blocks     []Block `json:"-"`
}

// StageStatus outcome of one pipeline stage
type StageStatus string

const (
	StageOK         StageStatus = "ok"
	StageSkipped    StageStatus = "skipped"
	StageFailed     StageStatus = "failed"
	StageSuperseded StageStatus = "superseded"
)

type StageReport struct {
	Stage  string      `json:"stage"`
	Status StageStatus `json:"status"`
	Error  string      `json:"error,omitempty"`
}

// AnalysisResults aggregate output of one document analysis
type AnalysisResults struct {
	DocumentID        string                 `json:"documentId,omitempty"`
	RequestID         string                 `json:"requestId,omitempty"`
	TextExtraction    *TextExtraction        `json:"textExtraction"`
	Classification    *ClassificationResult  `json:"classification,omitempty"`
	AWSClassification *ClassificationResult  `json:"awsClassification,omitempty"`
	GPTClassification *ClassificationResult  `json:"gptClassification,omitempty"`
	Entities          []Entity               `json:"entities,omitempty"`
	EntityProfile     map[string]EntityStats `json:"entityProfile,omitempty"`
	Sentiment         *Sentiment             `json:"sentiment,omitempty"`
	TFNDetection      *TFNDetection          `json:"tfnDetection,omitempty"`
	ExtractedFields   []ExtractedField       `json:"extractedFields,omitempty"`
	Stages            []StageReport          `json:"stages"`
	Superseded        bool                   `json:"superseded,omitempty"`
}

// AnalysisOptions per-request knobs shared by the sync API, task payloads and the CLI
type AnalysisOptions struct {
	Flags             AnalysisFlags       `json:"flags"`
	Taxonomy          []DocumentType      `json:"taxonomy,omitempty"`
	ElementsToExtract []ConfiguredElement `json:"elementsToExtract,omitempty"`
	ExpectFields      bool                `json:"expectFields,omitempty"`
}
