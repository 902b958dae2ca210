package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/docintel/internal/agent/fields"
	"github.com/feichai0017/docintel/internal/agent/schema"
	"github.com/feichai0017/docintel/internal/models"
	"github.com/feichai0017/docintel/pkg/logger"
)

type fakeExtractor struct {
	out *models.TextExtraction
	err error
}

func (f *fakeExtractor) Name() string           { return "fake" }
func (f *fakeExtractor) CanProcess(string) bool { return true }
func (f *fakeExtractor) Close() error           { return nil }

func (f *fakeExtractor) ExtractText(context.Context, models.Document) (*models.TextExtraction, error) {
	return f.out, f.err
}

type fakeEntities struct {
	entities []models.Entity
	err      error
}

func (f *fakeEntities) DetectEntities(context.Context, string) ([]models.Entity, error) {
	return f.entities, f.err
}

type fakeSentiment struct {
	err error
}

func (f *fakeSentiment) DetectSentiment(context.Context, string) (*models.Sentiment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Sentiment{Sentiment: "NEUTRAL"}, nil
}

type fakeTyper struct {
	result *models.ClassificationResult
	err    error
	calls  int
}

func (f *fakeTyper) ClassifyType(context.Context, string, []models.DocumentType) (*models.ClassificationResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeScanner struct {
	detection models.TFNDetection
	err       error
}

func (f *fakeScanner) ScanTFN(context.Context, string) (models.TFNDetection, error) {
	return f.detection, f.err
}

func textOnly(text string) *fakeExtractor {
	return &fakeExtractor{out: &models.TextExtraction{Text: text, Pages: 1, Provider: "fake"}}
}

func personEntities() *fakeEntities {
	return &fakeEntities{entities: []models.Entity{
		{Type: "PERSON", Score: 0.9},
		{Type: "DATE", Score: 0.5},
		{Type: "PERSON", Score: 0.7},
	}}
}

func allFlags() models.AnalysisOptions {
	return models.AnalysisOptions{Flags: models.AnalysisFlags{AutoClassify: true, UseTextExtraction: true, ScanForTFN: true}}
}

func stageStatus(t *testing.T, res *models.AnalysisResults, stage State) models.StageReport {
	t.Helper()
	for _, s := range res.Stages {
		if s.Stage == string(stage) {
			return s
		}
	}
	t.Fatalf("stage %s not reported", stage)
	return models.StageReport{}
}

func TestAnalyzeLLMOverridesHeuristic(t *testing.T) {
	typer := &fakeTyper{result: &models.ClassificationResult{Type: "Invoice", SubType: "Tax", Confidence: 0.8}}
	o := New(textOnly("Invoice for John"), logger.NewNop(),
		WithEntityDetector(personEntities()),
		WithTypeClassifier(typer),
	)

	res, err := o.Analyze(context.Background(), Request{Options: models.AnalysisOptions{
		Flags: models.AnalysisFlags{AutoClassify: true, UseTextExtraction: true},
	}})
	require.NoError(t, err)
	require.NotNil(t, res.Classification)
	assert.Equal(t, models.SourceOpenAI, res.Classification.Source)
	assert.Equal(t, "Invoice", res.Classification.Type)
	require.NotNil(t, res.AWSClassification)
	assert.Equal(t, "PERSON", res.AWSClassification.Type)
	assert.Equal(t, models.StageSkipped, stageStatus(t, res, StateTFNScanned).Status)
}

func TestAnalyzeHeuristicOnly(t *testing.T) {
	o := New(textOnly("John Smith 01/01/1990"), nil,
		WithEntityDetector(personEntities()),
		WithSentimentDetector(&fakeSentiment{}),
	)

	res, err := o.Analyze(context.Background(), Request{Options: models.AnalysisOptions{
		Flags: models.AnalysisFlags{AutoClassify: true},
	}})
	require.NoError(t, err)
	require.NotNil(t, res.Classification)
	assert.Equal(t, models.SourceComprehend, res.Classification.Source)
	assert.Equal(t, "PERSON", res.Classification.Type)
	assert.Equal(t, "", res.Classification.SubType)
	assert.InDelta(t, 0.8, res.Classification.Confidence, 1e-9)
	assert.Equal(t, 2, res.EntityProfile["PERSON"].Count)
	require.NotNil(t, res.Sentiment)
	assert.Len(t, res.Entities, 3)
}

func TestAnalyzeLLMFailureKeepsHeuristic(t *testing.T) {
	log := logger.NewTestLogger()
	o := New(textOnly("some text"), log,
		WithEntityDetector(personEntities()),
		WithTypeClassifier(&fakeTyper{err: errors.New("rate limited")}),
	)

	res, err := o.Analyze(context.Background(), Request{Options: allFlags()})
	require.NoError(t, err)
	require.NotNil(t, res.Classification)
	assert.Equal(t, models.SourceComprehend, res.Classification.Source)
	assert.Nil(t, res.GPTClassification)

	llm := stageStatus(t, res, StateLLMClassified)
	assert.Equal(t, models.StageFailed, llm.Status)
	assert.Contains(t, llm.Error, "rate limited")
	assert.True(t, log.HasEntry("WARN", "Stage failed, continuing"))

	tfn := stageStatus(t, res, StateTFNScanned)
	assert.Equal(t, models.StageFailed, tfn.Status)
	require.NotNil(t, res.TFNDetection)
	assert.False(t, res.TFNDetection.Detected)
	assert.Equal(t, ErrProviderUnavailable.Error(), res.TFNDetection.Error)
}

func TestAnalyzeHeuristicWithoutEntities(t *testing.T) {
	o := New(textOnly("text"), nil, WithEntityDetector(&fakeEntities{}))

	res, err := o.Analyze(context.Background(), Request{Options: models.AnalysisOptions{
		Flags: models.AnalysisFlags{AutoClassify: true},
	}})
	require.NoError(t, err)
	assert.Nil(t, res.Classification)
	report := stageStatus(t, res, StateHeuristicClassified)
	assert.Equal(t, models.StageFailed, report.Status)
	assert.Equal(t, ErrNoEntities.Error(), report.Error)
}

func TestAnalyzeTFNScan(t *testing.T) {
	o := New(textOnly("TFN 123 456 782"), nil,
		WithScanner(&fakeScanner{detection: models.TFNDetection{Detected: true, Count: 1}}),
	)
	res, err := o.Analyze(context.Background(), Request{Options: models.AnalysisOptions{
		Flags: models.AnalysisFlags{ScanForTFN: true},
	}})
	require.NoError(t, err)
	require.NotNil(t, res.TFNDetection)
	assert.True(t, res.TFNDetection.Detected)
	assert.Nil(t, res.Classification)

	o = New(textOnly("TFN"), nil, WithScanner(&fakeScanner{err: errors.New("boom")}))
	res, err = o.Analyze(context.Background(), Request{Options: models.AnalysisOptions{
		Flags: models.AnalysisFlags{ScanForTFN: true},
	}})
	require.NoError(t, err)
	require.NotNil(t, res.TFNDetection)
	assert.False(t, res.TFNDetection.Detected)
	assert.Equal(t, "boom", res.TFNDetection.Error)
}

func TestAnalyzeEmptyTextSkipsTextStages(t *testing.T) {
	typer := &fakeTyper{result: &models.ClassificationResult{Type: "Letter"}}
	o := New(textOnly(""), nil,
		WithEntityDetector(personEntities()),
		WithTypeClassifier(typer),
		WithScanner(&fakeScanner{}),
	)

	res, err := o.Analyze(context.Background(), Request{Options: allFlags()})
	require.NoError(t, err)
	assert.Zero(t, typer.calls)
	assert.Nil(t, res.Classification)
	for _, stage := range []State{StateHeuristicClassified, StateLLMClassified, StateTFNScanned} {
		st := stageStatus(t, res, stage)
		assert.Equal(t, models.StageSkipped, st.Status, stage)
		assert.Equal(t, ErrNoText.Error(), st.Error, stage)
	}
}

func TestAnalyzeTextExtractionFailureIsFatal(t *testing.T) {
	o := New(&fakeExtractor{err: errors.New("textract down")}, nil)

	res, err := o.Analyze(context.Background(), Request{Options: allFlags()})
	assert.Nil(t, res)
	require.Error(t, err)

	stage, ok := FailedStage(err)
	require.True(t, ok)
	assert.Equal(t, StateTextExtracted, stage)

	_, err = New(nil, nil).Analyze(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	_, err = New(&fakeExtractor{}, nil).Analyze(context.Background(), Request{})
	stage, _ = FailedStage(err)
	assert.Equal(t, StateTextExtracted, stage)
}

func TestAnalyzeSupersededSkipsGuardedStages(t *testing.T) {
	tracker := NewTracker()
	ctx := context.Background()
	first, err := tracker.Begin(ctx, "doc-1")
	require.NoError(t, err)
	_, err = tracker.Begin(ctx, "doc-1")
	require.NoError(t, err)

	typer := &fakeTyper{result: &models.ClassificationResult{Type: "Invoice"}}
	o := New(textOnly("text"), nil,
		WithEntityDetector(personEntities()),
		WithTypeClassifier(typer),
		WithGuard(tracker),
	)

	res, err := o.Analyze(ctx, Request{DocumentID: "doc-1", RequestID: first, Options: allFlags()})
	require.NoError(t, err)
	assert.True(t, res.Superseded)
	assert.Zero(t, typer.calls)
	assert.Equal(t, models.StageOK, stageStatus(t, res, StateHeuristicClassified).Status)
	assert.Equal(t, models.StageSuperseded, stageStatus(t, res, StateLLMClassified).Status)
	assert.Equal(t, models.StageSuperseded, stageStatus(t, res, StateTFNScanned).Status)
}

func TestAnalyzeExtractsAndMatchesFields(t *testing.T) {
	blks := []models.Block{
		{ID: "w1", BlockType: models.BlockTypeWord, Text: "Name"},
		{ID: "w2", BlockType: models.BlockTypeWord, Text: "John"},
		{ID: "w3", BlockType: models.BlockTypeWord, Text: "Smith"},
		{
			ID: "k1", BlockType: models.BlockTypeKeyValueSet,
			EntityTypes: []models.EntityType{models.EntityTypeKey},
			Relationships: []models.Relationship{
				{Type: models.RelationshipChild, Ids: []string{"w1"}},
				{Type: models.RelationshipValue, Ids: []string{"v1"}},
			},
			Confidence: 90,
		},
		{
			ID: "v1", BlockType: models.BlockTypeKeyValueSet,
			EntityTypes:   []models.EntityType{models.EntityTypeValue},
			Relationships: []models.Relationship{{Type: models.RelationshipChild, Ids: []string{"w2", "w3"}}},
		},
	}
	ext := &fakeExtractor{out: &models.TextExtraction{Text: "Name John Smith", Blocks: blks}}
	o := New(ext, nil, WithFieldExtraction(fields.NewExtractor(nil), schema.NewMatcher(nil, nil)))

	res, err := o.Analyze(context.Background(), Request{Options: models.AnalysisOptions{
		ElementsToExtract: []models.ConfiguredElement{{Name: "name", Category: "IDENTITY"}},
	}})
	require.NoError(t, err)
	require.Len(t, res.ExtractedFields, 1)
	assert.Equal(t, "John Smith", res.ExtractedFields[0].Value)
	assert.Equal(t, "IDENTITY", res.ExtractedFields[0].Category)
	assert.Equal(t, models.StageOK, stageStatus(t, res, StateFieldsExtracted).Status)
}

func TestAnalyzeExpectFieldsFailsWithoutFields(t *testing.T) {
	o := New(textOnly("plain"), nil, WithFieldExtraction(fields.NewExtractor(nil), nil))

	_, err := o.Analyze(context.Background(), Request{Options: models.AnalysisOptions{ExpectFields: true}})
	require.Error(t, err)
	stage, ok := FailedStage(err)
	require.True(t, ok)
	assert.Equal(t, StateFieldsExtracted, stage)
	assert.ErrorIs(t, err, fields.ErrNoFields)
}

func TestAnalyzeConcurrentRequestsAreIsolated(t *testing.T) {
	o := New(textOnly("text"), nil, WithEntityDetector(personEntities()))

	done := make(chan *models.AnalysisResults, 8)
	for i := 0; i < cap(done); i++ {
		go func() {
			res, err := o.Analyze(context.Background(), Request{Options: models.AnalysisOptions{
				Flags: models.AnalysisFlags{AutoClassify: true},
			}})
			if err != nil {
				done <- nil
				return
			}
			done <- res
		}()
	}
	for i := 0; i < cap(done); i++ {
		res := <-done
		require.NotNil(t, res)
		assert.Len(t, res.Stages, 4)
	}
}
