package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/wakaru/internal/config"
	"github.com/hyperjump/wakaru/internal/inference"
	"github.com/hyperjump/wakaru/internal/models"
	"github.com/hyperjump/wakaru/pkg/utils"
)

const synthesizerSystemPrompt = `You are a research synthesis assistant. Your task is to create a comprehensive synthesized response
based on identified themes across multiple documents.

For each theme, provide:
1. A clear explanation of the theme
2. Evidence supporting the theme with citations to specific documents
3. How the theme relates to the original query

Format your response in valid JSON with the following structure:
{
    "synthesized_response": "Your comprehensive answer covering all identified themes"
}

Ensure your response is well-structured, factual, and based only on the provided document information.`

// Synthesizer merges themes and per-document answers into one narrative
// answer. When inference fails it produces a deterministic summary built from
// the themes and answers it was given, so synthesis never fails a query.
type Synthesizer struct {
	client inference.Client
	cfg    *config.AnalysisConfig
	logger *zap.Logger
}

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithSynthesizerLogger sets the logger.
func WithSynthesizerLogger(logger *zap.Logger) SynthesizerOption {
	return func(s *Synthesizer) {
		s.logger = logger
	}
}

// NewSynthesizer creates a synthesizer.
func NewSynthesizer(client inference.Client, cfg *config.AnalysisConfig, opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{
		client: client,
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type synthesisResponse struct {
	SynthesizedResponse string `json:"synthesized_response"`
}

// Synthesize produces the final answer for query from the identified themes
// and the per-document answers. Answer summaries are truncated and capped at
// a fixed document count to keep the prompt within model limits.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, themes []models.Theme, answers []models.DocumentAnswer) string {
	var docSummary strings.Builder
	for i, ans := range answers {
		if i >= s.cfg.SynthesisMaxDocuments {
			fmt.Fprintf(&docSummary, "\n[Additional %d documents omitted to stay within token limits]\n",
				len(answers)-s.cfg.SynthesisMaxDocuments)
			break
		}
		fmt.Fprintf(&docSummary, "\nDOCUMENT %d: %s\n", i+1, ans.Filename)
		text := ans.AnswerText
		if len([]rune(text)) > s.cfg.SynthesisSummaryChars {
			text = utils.TruncateExact(text, s.cfg.SynthesisSummaryChars) + "... [truncated]"
		}
		fmt.Fprintf(&docSummary, "Response: %s\n", text)
		fmt.Fprintf(&docSummary, "Document ID: %s\n", ans.DocumentID)
	}

	var themeSummary strings.Builder
	for _, t := range themes {
		fmt.Fprintf(&themeSummary, "\nTHEME: %s\n", t.Name)
		fmt.Fprintf(&themeSummary, "Description: %s\n", t.Description)
		fmt.Fprintf(&themeSummary, "Supporting Documents: %s\n", strings.Join(t.SupportingDocumentIDs, ", "))
	}

	userPrompt := fmt.Sprintf(`ORIGINAL QUERY:
%s

IDENTIFIED THEMES:
%s

DOCUMENT RESPONSES:
%s

Please synthesize a comprehensive response that addresses the original query by analyzing the identified themes
across all documents. Include specific document citations where appropriate.`,
		query, themeSummary.String(), docSummary.String())

	raw, err := s.client.Ask(ctx, &inference.Request{
		System:      synthesizerSystemPrompt,
		User:        userPrompt,
		Temperature: 0.2,
	})
	if err != nil {
		s.logger.Warn("synthesis fell back to document summaries", zap.Error(err))
		return s.fallbackSynthesis(themes, answers)
	}

	var parsed synthesisResponse
	if err := json.Unmarshal(raw, &parsed); err != nil || parsed.SynthesizedResponse == "" {
		s.logger.Warn("synthesis output had unusable shape")
		return s.fallbackSynthesis(themes, answers)
	}
	return parsed.SynthesizedResponse
}

// fallbackSynthesis builds a deterministic answer listing every theme and a
// short summary of each document answer.
func (s *Synthesizer) fallbackSynthesis(themes []models.Theme, answers []models.DocumentAnswer) string {
	var b strings.Builder
	b.WriteString("Unable to synthesize themes due to inference issues. Here's a summary of the findings:\n")

	if len(themes) > 0 {
		b.WriteString("\nIdentified Themes:\n")
		for _, t := range themes {
			fmt.Fprintf(&b, "• %s: %s\n", t.Name, t.Description)
		}
	}

	if len(answers) > 0 {
		b.WriteString("\nDocument Summaries:\n")
		for i, ans := range answers {
			name := ans.Filename
			if name == "" {
				name = fmt.Sprintf("Document %d", i+1)
			}
			fmt.Fprintf(&b, "• %s: %s\n", name, utils.Truncate(ans.AnswerText, 200))
		}
	}
	return b.String()
}
