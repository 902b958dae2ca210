package converters

import (
	"fmt"
	"strings"
	"time"

	"github.com/feichai0017/docintel/internal/models"
)

type DocumentConverter interface {
	Convert(results *models.AnalysisResults) (*ProcessedDocument, error)
}

// ProcessedDocument is the stored and downloadable form of one analysis
type ProcessedDocument struct {
	TaskID      string                  `json:"taskId"`
	Status      string                  `json:"status"`
	Content     []ChunkContent          `json:"content"`
	Results     *models.AnalysisResults `json:"results"`
	Metadata    DocumentMetadata        `json:"metadata"`
	ProcessedAt time.Time               `json:"processedAt"`
}

// ChunkContent one page of extracted text
type ChunkContent struct {
	Text     string `json:"text"`
	Position int    `json:"position"`
	Type     string `json:"type"`
}

type DocumentMetadata struct {
	FileName       string   `json:"fileName"`
	FileType       string   `json:"fileType"`
	FileSize       int64    `json:"fileSize"`
	PageCount      int      `json:"pageCount,omitempty"`
	Provider       string   `json:"provider,omitempty"`
	DocumentType   string   `json:"documentType,omitempty"`
	DocumentSub    string   `json:"documentSubType,omitempty"`
	FieldCount     int      `json:"fieldCount"`
	FailedStages   []string `json:"failedStages,omitempty"`
	Confidence     float64  `json:"confidence"`
	ProcessingMs   int64    `json:"processingMs"`
	ContainsTFN    bool     `json:"containsTfn"`
	DominantEntity string   `json:"dominantEntity,omitempty"`
}

type JSONConverter struct{}

func NewJSONConverter() *JSONConverter {
	return &JSONConverter{}
}

func (c *JSONConverter) Convert(results *models.AnalysisResults) (*ProcessedDocument, error) {
	if results == nil || results.TextExtraction == nil {
		return nil, fmt.Errorf("no analysis results to convert")
	}

	status := string(models.StatusCompleted)
	if results.Superseded {
		status = string(models.StatusSuperseded)
	}

	doc := &ProcessedDocument{
		Status:      status,
		Results:     results,
		ProcessedAt: time.Now(),
		Content:     pageContent(results.TextExtraction),
		Metadata: DocumentMetadata{
			PageCount:  results.TextExtraction.Pages,
			Provider:   results.TextExtraction.Provider,
			Confidence: results.TextExtraction.Confidence,
			FieldCount: len(results.ExtractedFields),
		},
	}

	if cl := results.Classification; cl != nil {
		doc.Metadata.DocumentType = cl.Type
		doc.Metadata.DocumentSub = cl.SubType
	}
	if results.TFNDetection != nil {
		doc.Metadata.ContainsTFN = results.TFNDetection.Detected
	}
	for _, st := range results.Stages {
		if st.Status == models.StageFailed {
			doc.Metadata.FailedStages = append(doc.Metadata.FailedStages, st.Stage)
		}
	}
	doc.Metadata.DominantEntity = dominantEntity(results.Entities, results.EntityProfile)

	return doc, nil
}

// pageContent groups LINE blocks by page; extractions without blocks
// become a single chunk.
func pageContent(ext *models.TextExtraction) []ChunkContent {
	pages := make(map[int][]string)
	order := make([]int, 0)
	for i := range ext.Blocks {
		b := &ext.Blocks[i]
		if b.BlockType != models.BlockTypeLine || b.Text == "" {
			continue
		}
		p := b.PageNumber()
		if _, ok := pages[p]; !ok {
			order = append(order, p)
		}
		pages[p] = append(pages[p], b.Text)
	}

	if len(order) == 0 {
		if ext.Text == "" {
			return []ChunkContent{}
		}
		return []ChunkContent{{Text: ext.Text, Position: 1, Type: "page"}}
	}

	out := make([]ChunkContent, 0, len(order))
	for _, p := range order {
		out = append(out, ChunkContent{Text: strings.Join(pages[p], "\n"), Position: p, Type: "page"})
	}
	return out
}

// dominantEntity the most frequent entity type, ties to the first seen
func dominantEntity(entities []models.Entity, profile map[string]models.EntityStats) string {
	best, bestCount := "", 0
	for _, e := range entities {
		if st, ok := profile[e.Type]; ok && st.Count > bestCount {
			best, bestCount = e.Type, st.Count
		}
	}
	return best
}
