package e2e

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/wakaru/internal/analysis"
	"github.com/hyperjump/wakaru/internal/config"
	"github.com/hyperjump/wakaru/internal/embedding"
	"github.com/hyperjump/wakaru/internal/indexer"
	"github.com/hyperjump/wakaru/internal/inference"
	"github.com/hyperjump/wakaru/internal/models"
	"github.com/hyperjump/wakaru/internal/query"
	"github.com/hyperjump/wakaru/internal/search"
	"github.com/hyperjump/wakaru/internal/storage"
	"github.com/hyperjump/wakaru/internal/vector"
)

const e2eDimensions = 8

type pipeline struct {
	store        storage.Storage
	indexer      *indexer.Indexer
	engine       *search.Engine
	orchestrator *query.Orchestrator
}

func newPipeline(t *testing.T, client inference.Client) *pipeline {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Index.ChunkSize = 64
	cfg.Index.ChunkOverlap = 8

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	embedder := embedding.NewMockEmbedder(e2eDimensions)
	vecIndex, err := vector.NewMemoryIndex(e2eDimensions)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { vecIndex.Close() })

	idx := indexer.NewIndexer(store, embedder, vecIndex, &cfg.Index)
	engine := search.NewEngine(store, embedder, vecIndex)
	orch := query.NewOrchestrator(
		store,
		analysis.NewExecutor(client, &cfg.Analysis),
		analysis.NewThemeIdentifier(client, &cfg.Analysis),
		analysis.NewSynthesizer(client, &cfg.Analysis),
		&cfg.Query,
		&cfg.Inference,
	)
	return &pipeline{store: store, indexer: idx, engine: engine, orchestrator: orch}
}

func TestE2E_QueryAcrossTwoDocuments(t *testing.T) {
	client := inference.NewMockClient(
		`{"response": "Blue is mentioned [Document].", "citations": [{"location": "Document", "text": "The sky is blue."}]}`,
		`{"response": "Green is mentioned [Document].", "citations": [{"location": "Document", "text": "Grass is green."}]}`,
		`{"themes": [{"id": "t1", "name": "Colors", "description": "Each document names a color.", "supporting_docs": ["doc1", "doc2"]}]}`,
		`{"synthesized_response": "The corpus mentions blue [doc1] and green [doc2]."}`,
	)
	p := newPipeline(t, client)
	ctx := context.Background()

	docs := []*models.DocumentInput{
		{ID: "doc1", Filename: "doc1.txt", Text: "The sky is blue. Water is wet."},
		{ID: "doc2", Filename: "doc2.txt", Text: "Grass is green. Water is wet."},
	}
	for _, d := range docs {
		if err := p.indexer.IndexDocument(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	result, err := p.orchestrator.Execute(ctx, &models.QueryRequest{Query: "What color is mentioned?"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.DocumentAnswers) != 2 {
		t.Fatalf("expected answers for both documents, got %d", len(result.DocumentAnswers))
	}
	byID := map[string]models.DocumentAnswer{}
	for _, ans := range result.DocumentAnswers {
		byID[ans.DocumentID] = ans
	}
	if _, ok := byID["doc1"]; !ok {
		t.Error("missing answer for doc1")
	}
	if _, ok := byID["doc2"]; !ok {
		t.Error("missing answer for doc2")
	}
	if len(result.Themes) == 0 {
		t.Error("themes must be non-empty for a non-empty answer set")
	}
	if strings.TrimSpace(result.SynthesizedAnswer) == "" {
		t.Error("synthesized answer must be non-empty")
	}
}

func TestE2E_EmptyCorpusRejectsQuery(t *testing.T) {
	p := newPipeline(t, inference.NewMockClient())
	_, err := p.orchestrator.Execute(context.Background(), &models.QueryRequest{Query: "anything"})
	if !errors.Is(err, query.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestE2E_InferenceOutageDegradesGracefully(t *testing.T) {
	client := &inference.MockClient{Err: inference.ErrUnavailable}
	p := newPipeline(t, client)
	ctx := context.Background()

	if err := p.indexer.IndexDocument(ctx, &models.DocumentInput{
		ID:       "doc1",
		Filename: "doc1.txt",
		Text:     "Observations from the northern field site, recorded in spring.",
	}); err != nil {
		t.Fatal(err)
	}

	result, err := p.orchestrator.Execute(ctx, &models.QueryRequest{Query: "What was observed?"})
	if err != nil {
		t.Fatalf("query must complete during an inference outage, got %v", err)
	}
	if len(result.DocumentAnswers) != 1 || !result.DocumentAnswers[0].IsFallback {
		t.Errorf("expected one fallback answer, got %+v", result.DocumentAnswers)
	}
	if len(result.Themes) != 1 {
		t.Errorf("expected the single fallback theme, got %d", len(result.Themes))
	}
	if result.SynthesizedAnswer == "" {
		t.Error("synthesis must still produce text")
	}
}

func TestE2E_SimilaritySearchAfterIngest(t *testing.T) {
	p := newPipeline(t, inference.NewMockClient())
	ctx := context.Background()

	if err := p.indexer.IndexDocument(ctx, &models.DocumentInput{
		ID:       "doc1",
		Filename: "rivers.txt",
		Text:     "Rivers carry sediment downstream. Lakes collect runoff from the surrounding hills.",
	}); err != nil {
		t.Fatal(err)
	}

	results, err := p.engine.QuerySimilar(ctx, &models.SearchRequest{Query: "sediment", TopK: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one similarity hit")
	}
	if results[0].DocumentID != "doc1" || results[0].Filename != "rivers.txt" {
		t.Errorf("hit not mapped back to its document: %+v", results[0])
	}
}

func TestE2E_ReingestThenQueryUsesNewContent(t *testing.T) {
	client := inference.NewMockClient(
		`{"response": "ok", "citations": []}`,
		`{"themes": [{"id": "t1", "name": "T", "description": "d", "supporting_docs": ["doc1"]}]}`,
		`{"synthesized_response": "done"}`,
	)
	p := newPipeline(t, client)
	ctx := context.Background()

	if err := p.indexer.IndexDocument(ctx, &models.DocumentInput{
		ID: "doc1", Filename: "doc1.txt", Text: "Old content about volcanoes.",
	}); err != nil {
		t.Fatal(err)
	}
	if err := p.indexer.IndexDocument(ctx, &models.DocumentInput{
		ID: "doc1", Filename: "doc1.txt", Text: "New content about glaciers.",
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := p.orchestrator.Execute(ctx, &models.QueryRequest{Query: "What is the content about?"}); err != nil {
		t.Fatal(err)
	}
	reqs := client.Requests()
	if len(reqs) == 0 {
		t.Fatal("no inference calls recorded")
	}
	if !strings.Contains(reqs[0].User, "glaciers") || strings.Contains(reqs[0].User, "volcanoes") {
		t.Error("query prompt should carry only the re-ingested content")
	}
}
