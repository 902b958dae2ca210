// Package classify runs the document analysis state machine:
// START -> TEXT_EXTRACTED -> [FIELDS_EXTRACTED] -> [HEURISTIC_CLASSIFIED] ->
// [LLM_CLASSIFIED] -> [TFN_SCANNED] -> DONE.
//
// Only text extraction (and field extraction when fields are expected) is
// fatal. Every optional stage degrades to "no contribution" on failure.
package classify

import (
	"context"
	"fmt"
	"time"

	"github.com/feichai0017/docintel/internal/agent/document"
	"github.com/feichai0017/docintel/internal/agent/fields"
	"github.com/feichai0017/docintel/internal/agent/schema"
	"github.com/feichai0017/docintel/internal/models"
	"github.com/feichai0017/docintel/pkg/logger"
)

// Request one document analysis
type Request struct {
	DocumentID string
	RequestID  string
	Document   models.Document
	Options    models.AnalysisOptions
}

// Orchestrator holds providers only; every Analyze call builds its own
// aggregate, so one instance serves concurrent requests.
type Orchestrator struct {
	extractor    document.TextExtractor
	entities     EntityDetector
	sentiment    SentimentDetector
	typer        TypeClassifier
	scanner      Scanner
	guard        Guard
	fields       *fields.Extractor
	matcher      *schema.Matcher
	stageTimeout time.Duration
	logger       logger.Logger
}

type Option func(*Orchestrator)

func WithEntityDetector(d EntityDetector) Option {
	return func(o *Orchestrator) { o.entities = d }
}

func WithSentimentDetector(d SentimentDetector) Option {
	return func(o *Orchestrator) { o.sentiment = d }
}

func WithTypeClassifier(c TypeClassifier) Option {
	return func(o *Orchestrator) { o.typer = c }
}

func WithScanner(s Scanner) Option {
	return func(o *Orchestrator) { o.scanner = s }
}

// WithGuard enables supersession checks before the LLM and scan stages
func WithGuard(g Guard) Option {
	return func(o *Orchestrator) { o.guard = g }
}

// WithFieldExtraction enables field extraction from the OCR blocks
func WithFieldExtraction(e *fields.Extractor, m *schema.Matcher) Option {
	return func(o *Orchestrator) {
		o.fields = e
		o.matcher = m
	}
}

// WithStageTimeout bounds each optional provider call
func WithStageTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.stageTimeout = d }
}

func New(extractor document.TextExtractor, log logger.Logger, opts ...Option) *Orchestrator {
	if log == nil {
		log = logger.NewNop()
	}
	o := &Orchestrator{
		extractor: extractor,
		logger:    log.Named("classify"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type optionalStage struct {
	state   State
	enabled func(models.AnalysisFlags) bool
	// needsText stages are skipped, not attempted, on empty text
	needsText bool
	// guarded stages are skipped once the request is superseded
	guarded bool
	run     func(ctx context.Context, req *Request, text string) Output
}

// Analyze runs the pipeline. The error is always a *StageError.
func (o *Orchestrator) Analyze(ctx context.Context, req Request) (*models.AnalysisResults, error) {
	ctx = logger.WithRequest(ctx, req.DocumentID, req.RequestID)
	log := logger.FromContext(ctx, o.logger)
	start := time.Now()

	agg := models.AnalysisResults{
		DocumentID: req.DocumentID,
		RequestID:  req.RequestID,
		Stages:     make([]models.StageReport, 0, 5),
	}

	extraction, err := o.extractText(ctx, req.Document)
	if err != nil {
		log.Error("Text extraction failed", logger.Error(err))
		return nil, &StageError{Stage: StateTextExtracted, Err: err}
	}
	agg = Merge(agg, Output{Stage: StateTextExtracted, Status: models.StageOK, Extraction: extraction})
	log.Info("Text extracted",
		logger.String("provider", extraction.Provider),
		logger.Int("chars", len(extraction.Text)),
		logger.Int("blocks", len(extraction.Blocks)),
	)

	if o.fields != nil && (len(extraction.Blocks) > 0 || req.Options.ExpectFields) {
		out, err := o.extractFields(extraction.Blocks, req.Options)
		if err != nil {
			log.Error("Field extraction failed", logger.Error(err))
			return nil, &StageError{Stage: StateFieldsExtracted, Err: err}
		}
		agg = Merge(agg, out)
	}

	for _, st := range o.stages() {
		agg = Merge(agg, o.runStage(ctx, log, st, &req, extraction.Text))
	}

	log.Info("Analysis completed",
		logger.Duration("elapsed", time.Since(start)),
		logger.Bool("classified", agg.Classification != nil),
		logger.Bool("superseded", agg.Superseded),
	)
	return &agg, nil
}

func (o *Orchestrator) stages() []optionalStage {
	return []optionalStage{
		{
			state:     StateHeuristicClassified,
			enabled:   func(f models.AnalysisFlags) bool { return f.AutoClassify },
			needsText: true,
			run:       o.heuristic,
		},
		{
			state:     StateLLMClassified,
			enabled:   func(f models.AnalysisFlags) bool { return f.UseTextExtraction },
			needsText: true,
			guarded:   true,
			run:       o.llm,
		},
		{
			state:     StateTFNScanned,
			enabled:   func(f models.AnalysisFlags) bool { return f.ScanForTFN },
			needsText: true,
			guarded:   true,
			run:       o.scan,
		},
	}
}

func (o *Orchestrator) runStage(ctx context.Context, log logger.Logger, st optionalStage, req *Request, text string) Output {
	log = log.With(logger.String("stage", string(st.state)))

	if !st.enabled(req.Options.Flags) {
		return Output{Stage: st.state, Status: models.StageSkipped}
	}
	if st.needsText && text == "" {
		log.Info("Stage skipped, no text")
		return Output{Stage: st.state, Status: models.StageSkipped, Err: ErrNoText}
	}
	if st.guarded {
		if err := ctx.Err(); err != nil {
			log.Warn("Stage skipped, request cancelled", logger.Error(err))
			return Output{Stage: st.state, Status: models.StageSkipped, Err: err}
		}
		if o.superseded(ctx, log, req) {
			log.Info("Stage skipped, request superseded")
			return Output{Stage: st.state, Status: models.StageSuperseded, Superseded: true}
		}
	}

	stageCtx := ctx
	if o.stageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, o.stageTimeout)
		defer cancel()
	}

	out := st.run(stageCtx, req, text)
	out.Stage = st.state
	if out.Err != nil {
		out.Status = models.StageFailed
		log.Warn("Stage failed, continuing", logger.Error(out.Err))
		return out
	}
	out.Status = models.StageOK
	log.Info("Stage completed")
	return out
}

func (o *Orchestrator) superseded(ctx context.Context, log logger.Logger, req *Request) bool {
	if o.guard == nil || req.DocumentID == "" || req.RequestID == "" {
		return false
	}
	superseded, err := o.guard.Superseded(ctx, req.DocumentID, req.RequestID)
	if err != nil {
		// an unreachable registry must not block analysis
		log.Warn("Supersession check failed", logger.Error(err))
		return false
	}
	return superseded
}

func (o *Orchestrator) extractText(ctx context.Context, doc models.Document) (*models.TextExtraction, error) {
	if o.extractor == nil {
		return nil, ErrProviderUnavailable
	}
	extraction, err := o.extractor.ExtractText(ctx, doc)
	if err != nil {
		return nil, err
	}
	if extraction == nil {
		return nil, fmt.Errorf("%s returned no extraction", o.extractor.Name())
	}
	return extraction, nil
}

func (o *Orchestrator) extractFields(blks []models.Block, opts models.AnalysisOptions) (Output, error) {
	all, err := o.fields.ExtractFor(blks, opts.ExpectFields)
	if err != nil {
		return Output{}, err
	}

	matched := all
	if o.matcher != nil {
		matched = o.matcher.Match(opts.ElementsToExtract, all)
	}
	if matched == nil {
		matched = []models.ExtractedField{}
	}
	return Output{Stage: StateFieldsExtracted, Status: models.StageOK, Fields: matched}, nil
}

func (o *Orchestrator) heuristic(ctx context.Context, _ *Request, text string) Output {
	if o.entities == nil {
		return Output{Err: ErrProviderUnavailable}
	}

	entities, err := o.entities.DetectEntities(ctx, text)
	if err != nil {
		return Output{Err: fmt.Errorf("detect entities: %w", err)}
	}

	profile := BuildProfile(entities)
	out := Output{Entities: entities, EntityProfile: profile.Snapshot()}

	if o.sentiment != nil {
		sentiment, err := o.sentiment.DetectSentiment(ctx, text)
		if err != nil {
			logger.FromContext(ctx, o.logger).Warn("Sentiment detection failed", logger.Error(err))
		} else {
			out.Sentiment = sentiment
		}
	}

	dominant, stats, ok := profile.Dominant()
	if !ok {
		out.Err = ErrNoEntities
		return out
	}
	out.Classification = &models.ClassificationResult{
		Type:       dominant,
		SubType:    "",
		Confidence: stats.AverageScore,
		Source:     models.SourceComprehend,
	}
	return out
}

func (o *Orchestrator) llm(ctx context.Context, req *Request, text string) Output {
	if o.typer == nil {
		return Output{Err: ErrProviderUnavailable}
	}
	result, err := o.typer.ClassifyType(ctx, text, req.Options.Taxonomy)
	if err != nil {
		return Output{Err: fmt.Errorf("classify type: %w", err)}
	}
	if result == nil {
		return Output{Err: fmt.Errorf("classify type: empty result")}
	}
	classification := *result
	classification.Source = models.SourceOpenAI
	return Output{Classification: &classification}
}

func (o *Orchestrator) scan(ctx context.Context, _ *Request, text string) Output {
	if o.scanner == nil {
		return Output{
			Err: ErrProviderUnavailable,
			TFN: &models.TFNDetection{Detected: false, Error: ErrProviderUnavailable.Error()},
		}
	}
	detection, err := o.scanner.ScanTFN(ctx, text)
	if err != nil {
		return Output{
			Err: fmt.Errorf("scan: %w", err),
			TFN: &models.TFNDetection{Detected: false, Error: err.Error()},
		}
	}
	return Output{TFN: &detection}
}
