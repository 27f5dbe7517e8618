// Package analysis holds the inference-backed stages of query processing:
// per-document answering, cross-document theme identification, and final
// synthesis. Every stage degrades to a deterministic fallback when inference
// fails, so a query always produces a complete result.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/wakaru/internal/config"
	"github.com/hyperjump/wakaru/internal/inference"
	"github.com/hyperjump/wakaru/internal/models"
	"github.com/hyperjump/wakaru/pkg/utils"
)

const executorSystemPrompt = `You are a document analysis assistant. You'll analyze a document to answer a query.
Provide a comprehensive response based only on the document's content.

Include specific citations in your response using the format [Page X, Paragraph Y] or [Section Z].
If the exact location cannot be determined, use [Document] as a general citation.

Provide fact-based responses with no speculation or external knowledge.
If the document doesn't contain information to answer the query, state this clearly.

Format your response in valid JSON with the following structure:
{
    "response": "Your detailed answer here with embedded citations",
    "citations": [
        {"text": "Cited text excerpt", "location": "Page X, Paragraph Y"}
    ]
}`

// Executor answers a query against a single document. It never returns an
// error: when inference fails the answer degrades to a document preview
// marked with IsFallback.
type Executor struct {
	client inference.Client
	cfg    *config.AnalysisConfig
	logger *zap.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithExecutorLogger sets the logger.
func WithExecutorLogger(logger *zap.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates a per-document query executor.
func NewExecutor(client inference.Client, cfg *config.AnalysisConfig, opts ...ExecutorOption) *Executor {
	e := &Executor{
		client: client,
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type executorResponse struct {
	Response  string            `json:"response"`
	Citations []models.Citation `json:"citations"`
}

// Answer asks the model to answer query from doc's content and returns the
// answer with citations. The document text is truncated to the configured
// excerpt size before prompting so large documents stay within model limits.
func (e *Executor) Answer(ctx context.Context, query string, doc *models.Document) *models.DocumentAnswer {
	excerpt := utils.TruncateExact(doc.RawText, e.cfg.DocumentExcerptChars)

	userPrompt := fmt.Sprintf(`DOCUMENT INFORMATION:
Title: %s
ID: %s
Pages: %d

DOCUMENT CONTENT:
%s
[Note: Document content has been truncated to fit within token limits. Analysis is based on this excerpt only.]

USER QUERY:
%s

Please analyze this document excerpt and provide a concise response to the query with proper citations.
Keep your response brief and focused. Do not add unnecessary information.`,
		doc.Filename, doc.ID, doc.PageCount, excerpt, query)

	raw, err := e.client.Ask(ctx, &inference.Request{
		System: executorSystemPrompt,
		User:   userPrompt,
	})
	if err != nil {
		e.logger.Warn("document answer fell back to preview",
			zap.String("document_id", doc.ID),
			zap.Error(err))
		return e.fallbackAnswer(doc)
	}

	var parsed executorResponse
	if err := json.Unmarshal(raw, &parsed); err != nil || parsed.Response == "" {
		e.logger.Warn("document answer had unusable shape",
			zap.String("document_id", doc.ID))
		return e.fallbackAnswer(doc)
	}

	citations := parsed.Citations
	if citations == nil {
		citations = []models.Citation{}
	}
	return &models.DocumentAnswer{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		AnswerText: parsed.Response,
		Citations:  citations,
		IsFallback: false,
	}
}

// fallbackAnswer builds a degraded answer from the document itself: a preview
// of its raw text with no citations.
func (e *Executor) fallbackAnswer(doc *models.Document) *models.DocumentAnswer {
	preview := utils.Truncate(doc.RawText, e.cfg.FallbackPreviewChars)
	return &models.DocumentAnswer{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		AnswerText: fmt.Sprintf("This document contains information that might be relevant to your query. Here's a preview: %s", preview),
		Citations:  []models.Citation{},
		IsFallback: true,
	}
}
