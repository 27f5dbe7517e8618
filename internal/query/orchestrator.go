// Package query contains the top-level orchestrator that turns one user query
// into a complete result: resolve the document set, fan out per-document
// analysis, extract themes, synthesize.
package query

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/wakaru/internal/analysis"
	"github.com/hyperjump/wakaru/internal/config"
	"github.com/hyperjump/wakaru/internal/models"
	"github.com/hyperjump/wakaru/internal/storage"
)

// ErrNoDocuments is returned when a query arrives with no document selection
// and the corpus is empty. It is the only way a query can fail once accepted.
var ErrNoDocuments = errors.New("no documents available for query")

// Stage names one step of the per-query state machine. Every query that
// resolves a document set reaches StageComplete; the stages in between exist
// for logging and progress reporting.
type Stage string

const (
	StageReceived        Stage = "received"
	StageDispatching     Stage = "dispatching"
	StageAggregating     Stage = "aggregating"
	StageThemeExtraction Stage = "theme_extraction"
	StageSynthesizing    Stage = "synthesizing"
	StageComplete        Stage = "complete"
)

// Orchestrator runs the full query pipeline. Per-document inference calls run
// concurrently under a bounded pool; theme extraction and synthesis start only
// after every document answer (real or fallback) is in.
type Orchestrator struct {
	store       storage.Storage
	executor    *analysis.Executor
	themes      *analysis.ThemeIdentifier
	synthesizer *analysis.Synthesizer

	maxConcurrent int
	callTimeout   time.Duration
	logger        *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// NewOrchestrator wires the query pipeline together.
func NewOrchestrator(store storage.Storage, executor *analysis.Executor, themes *analysis.ThemeIdentifier, synthesizer *analysis.Synthesizer, queryCfg *config.QueryConfig, inferenceCfg *config.InferenceConfig, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:         store,
		executor:      executor,
		themes:        themes,
		synthesizer:   synthesizer,
		maxConcurrent: queryCfg.MaxConcurrent,
		callTimeout:   inferenceCfg.Timeout(),
		logger:        zap.NewNop(),
	}
	if o.maxConcurrent < 1 {
		o.maxConcurrent = 1
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Execute runs one query end to end and returns an immutable result snapshot.
// Document selection falls back to the full corpus; an empty corpus with no
// selection is the only error condition. Canceling ctx stops in-flight
// per-document calls and skips the remaining stages.
func (o *Orchestrator) Execute(ctx context.Context, req *models.QueryRequest) (*models.QueryResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	o.logStage(StageReceived, req.Query, 0)

	docs, err := o.resolveDocuments(ctx, req.DocumentIDs)
	if err != nil {
		return nil, err
	}

	o.logStage(StageDispatching, req.Query, len(docs))
	answers := o.fanOut(ctx, req.Query, docs)

	o.logStage(StageAggregating, req.Query, len(answers))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o.logStage(StageThemeExtraction, req.Query, len(answers))
	themes := o.themes.Identify(ctx, answers)

	o.logStage(StageSynthesizing, req.Query, len(themes))
	synthesized := o.synthesizer.Synthesize(ctx, req.Query, themes, answers)

	o.logStage(StageComplete, req.Query, len(answers))
	return &models.QueryResult{
		Query:             req.Query,
		Themes:            themes,
		DocumentAnswers:   answers,
		SynthesizedAnswer: synthesized,
		QueryTime:         time.Since(start).Milliseconds(),
	}, nil
}

// resolveDocuments maps the caller's selection to loaded documents. With no
// selection the full corpus is used. Selected IDs that no longer exist are
// skipped; only an entirely empty resolution is an error.
func (o *Orchestrator) resolveDocuments(ctx context.Context, ids []string) ([]*models.Document, error) {
	if len(ids) == 0 {
		infos, err := o.store.ListDocumentInfos(ctx)
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			ids = append(ids, info.ID)
		}
	}

	docs := make([]*models.Document, 0, len(ids))
	for _, id := range ids {
		doc, err := o.store.GetDocument(ctx, id)
		if err != nil {
			o.logger.Warn("skipping unresolvable document",
				zap.String("document_id", id),
				zap.Error(err))
			continue
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	return docs, nil
}

// fanOut answers the query against every document concurrently, bounded by
// the pool size. Results land in the slot matching their document, never by
// completion order. Each call carries its own timeout so one slow document
// degrades to its fallback instead of stalling the query.
func (o *Orchestrator) fanOut(ctx context.Context, queryText string, docs []*models.Document) []models.DocumentAnswer {
	answers := make([]models.DocumentAnswer, len(docs))
	sem := make(chan struct{}, o.maxConcurrent)
	var wg sync.WaitGroup

	for i, doc := range docs {
		wg.Add(1)
		go func(slot int, doc *models.Document) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
			defer cancel()
			answers[slot] = *o.executor.Answer(callCtx, queryText, doc)
		}(i, doc)
	}
	wg.Wait()
	return answers
}

func (o *Orchestrator) logStage(stage Stage, queryText string, n int) {
	o.logger.Debug("query stage",
		zap.String("stage", string(stage)),
		zap.String("query", queryText),
		zap.Int("count", n))
}
