package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/hyperjump/wakaru/internal/inference"
	"github.com/hyperjump/wakaru/internal/models"
)

func sampleThemes() []models.Theme {
	return []models.Theme{
		{ID: "t1", Name: "Climate Policy", Description: "Policy discussion.", SupportingDocumentIDs: []string{"doc-1", "doc-2"}},
	}
}

func TestSynthesizer_Synthesize(t *testing.T) {
	mock := inference.NewMockClient(`{"synthesized_response": "Both documents address climate policy [doc-1, doc-2]."}`)
	s := NewSynthesizer(mock, analysisConfig())

	out := s.Synthesize(context.Background(), "what do the documents say?", sampleThemes(), sampleAnswers())
	if out != "Both documents address climate policy [doc-1, doc-2]." {
		t.Errorf("unexpected synthesis: %s", out)
	}
}

func TestSynthesizer_FallbackContainsThemes(t *testing.T) {
	mock := &inference.MockClient{Err: inference.ErrUnavailable}
	s := NewSynthesizer(mock, analysisConfig())

	out := s.Synthesize(context.Background(), "q", sampleThemes(), sampleAnswers())
	if !strings.Contains(out, "Climate Policy") {
		t.Errorf("fallback should name every theme: %s", out)
	}
	if !strings.Contains(out, "a.txt") || !strings.Contains(out, "b.txt") {
		t.Errorf("fallback should summarize each document: %s", out)
	}
}

func TestSynthesizer_FallbackOnBadShape(t *testing.T) {
	mock := inference.NewMockClient(`{"wrong_key": "x"}`)
	s := NewSynthesizer(mock, analysisConfig())

	out := s.Synthesize(context.Background(), "q", sampleThemes(), sampleAnswers())
	if !strings.Contains(out, "Climate Policy") {
		t.Errorf("expected deterministic fallback, got: %s", out)
	}
}

func TestSynthesizer_CapsDocumentCount(t *testing.T) {
	cfg := analysisConfig()
	cfg.SynthesisMaxDocuments = 2

	mock := inference.NewMockClient(`{"synthesized_response": "ok"}`)
	s := NewSynthesizer(mock, cfg)

	answers := []models.DocumentAnswer{
		{DocumentID: "d1", Filename: "1.txt", AnswerText: "one"},
		{DocumentID: "d2", Filename: "2.txt", AnswerText: "two"},
		{DocumentID: "d3", Filename: "3.txt", AnswerText: "three"},
		{DocumentID: "d4", Filename: "4.txt", AnswerText: "four"},
	}
	s.Synthesize(context.Background(), "q", sampleThemes(), answers)

	reqs := mock.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected one call, got %d", len(reqs))
	}
	prompt := reqs[0].User
	if strings.Contains(prompt, "3.txt") || strings.Contains(prompt, "4.txt") {
		t.Error("documents beyond the cap should be omitted from the prompt")
	}
	if !strings.Contains(prompt, "2 documents omitted") {
		t.Error("prompt should note how many documents were omitted")
	}
}
