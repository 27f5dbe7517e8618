package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/wakaru/internal/config"
	"github.com/hyperjump/wakaru/internal/inference"
	"github.com/hyperjump/wakaru/internal/models"
	"github.com/hyperjump/wakaru/pkg/utils"
)

const themesSystemPrompt = `You are a theme identification expert. Your task is to analyze multiple document responses
and identify common themes across them.

For each identified theme:
1. Provide a clear, concise name
2. Write a detailed description
3. List all document IDs that support this theme

Format your response in valid JSON with the following structure:
{
    "themes": [
        {
            "id": "unique_id",
            "name": "Theme Name",
            "description": "Detailed description of this theme",
            "supporting_docs": ["DOC001", "DOC002"]
        }
    ]
}

Ensure themes are truly present across multiple documents where possible.
If no common themes exist, identify the most important individual themes.
Aim to identify 2-5 significant themes.`

// ThemeIdentifier finds shared themes across per-document answers. Like the
// other analysis stages it never fails: inference errors and empty model
// output both yield a single generic theme spanning every input document.
type ThemeIdentifier struct {
	client inference.Client
	cfg    *config.AnalysisConfig
	logger *zap.Logger
}

// ThemeOption configures a ThemeIdentifier.
type ThemeOption func(*ThemeIdentifier)

// WithThemeLogger sets the logger.
func WithThemeLogger(logger *zap.Logger) ThemeOption {
	return func(ti *ThemeIdentifier) {
		ti.logger = logger
	}
}

// NewThemeIdentifier creates a theme identifier.
func NewThemeIdentifier(client inference.Client, cfg *config.AnalysisConfig, opts ...ThemeOption) *ThemeIdentifier {
	ti := &ThemeIdentifier{
		client: client,
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ti)
	}
	return ti
}

type themesResponse struct {
	Themes []struct {
		ID             string   `json:"id"`
		Name           string   `json:"name"`
		Description    string   `json:"description"`
		SupportingDocs []string `json:"supporting_docs"`
	} `json:"themes"`
}

// Identify extracts themes from the given answers. An empty answer set yields
// no themes; otherwise at least one theme is always returned.
func (ti *ThemeIdentifier) Identify(ctx context.Context, answers []models.DocumentAnswer) []models.Theme {
	if len(answers) == 0 {
		return []models.Theme{}
	}

	var summary strings.Builder
	for i, ans := range answers {
		fmt.Fprintf(&summary, "\nDOCUMENT %d: %s\n", i+1, ans.Filename)
		text := ans.AnswerText
		if len([]rune(text)) > ti.cfg.AnswerSummaryChars {
			text = utils.TruncateExact(text, ti.cfg.AnswerSummaryChars) + "... [truncated]"
		}
		fmt.Fprintf(&summary, "Response: %s\n", text)
		fmt.Fprintf(&summary, "Document ID: %s\n", ans.DocumentID)
		summary.WriteString("--------------------------------------------------\n")
	}

	userPrompt := fmt.Sprintf(`Please analyze the following document responses and identify common themes across them:

%s

Identify meaningful themes that connect these documents. For each theme, provide a name,
description, and list of document IDs that support it.`, summary.String())

	raw, err := ti.client.Ask(ctx, &inference.Request{
		System:      themesSystemPrompt,
		User:        userPrompt,
		Temperature: 0.3,
	})
	if err != nil {
		ti.logger.Warn("theme identification fell back", zap.Error(err))
		return ti.fallbackThemes(answers)
	}

	var parsed themesResponse
	if err := json.Unmarshal(raw, &parsed); err != nil || len(parsed.Themes) == 0 {
		ti.logger.Warn("no themes in model output, using fallback")
		return ti.fallbackThemes(answers)
	}

	themes := make([]models.Theme, 0, len(parsed.Themes))
	for _, t := range parsed.Themes {
		id := t.ID
		if id == "" {
			id = uuid.New().String()
		}
		docs := t.SupportingDocs
		if docs == nil {
			docs = []string{}
		}
		themes = append(themes, models.Theme{
			ID:                    id,
			Name:                  t.Name,
			Description:           t.Description,
			SupportingDocumentIDs: docs,
		})
	}
	return themes
}

// fallbackThemes builds the single generic theme covering every answered
// document.
func (ti *ThemeIdentifier) fallbackThemes(answers []models.DocumentAnswer) []models.Theme {
	ids := make([]string, 0, len(answers))
	for _, ans := range answers {
		if ans.DocumentID != "" {
			ids = append(ids, ans.DocumentID)
		}
	}
	return []models.Theme{{
		ID:                    uuid.New().String(),
		Name:                  "Document Analysis",
		Description:           "Analysis of document content related to the query.",
		SupportingDocumentIDs: ids,
	}}
}
