package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

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

type mockWatchService struct {
	dirs []string
}

func (m *mockWatchService) Directories() []string {
	return append([]string(nil), m.dirs...)
}

func (m *mockWatchService) AddDirectory(path string, _ bool) error {
	for _, d := range m.dirs {
		if d == path {
			return nil
		}
	}
	m.dirs = append(m.dirs, path)
	return nil
}

func (m *mockWatchService) RemoveDirectory(path string) error {
	for i, d := range m.dirs {
		if d == path {
			m.dirs = append(m.dirs[:i], m.dirs[i+1:]...)
			return nil
		}
	}
	return nil
}

func testServer(t *testing.T, client inference.Client) *Server {
	t.Helper()
	srv, _ := testServerWithEmbedder(t, client)
	return srv
}

func testServerWithEmbedder(t *testing.T, client inference.Client) (*Server, *embedding.MockEmbedder) {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.DatabasePath = filepath.Join(t.TempDir(), "db.sqlite")
	cfg.Index.ChunkSize = 100
	cfg.Index.ChunkOverlap = 20

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	embedder := embedding.NewMockEmbedder(8)
	vecIdx, err := vector.NewMemoryIndex(8)
	if err != nil {
		t.Fatal(err)
	}
	idx := indexer.NewIndexer(store, embedder, vecIdx, &cfg.Index)
	engine := search.NewEngine(store, embedder, vecIdx)
	orch := query.NewOrchestrator(
		store,
		analysis.NewExecutor(client, &cfg.Analysis),
		analysis.NewThemeIdentifier(client, &cfg.Analysis),
		analysis.NewSynthesizer(client, &cfg.Analysis),
		&cfg.Query,
		&cfg.Inference,
	)
	return NewServer(orch, engine, idx, store, client, cfg, zap.NewNop()), embedder
}

func ingestDoc(t *testing.T, srv *Server, id, filename, text string) {
	t.Helper()
	err := srv.indexer.IndexDocument(context.Background(), &models.DocumentInput{
		ID:       id,
		Filename: filename,
		Text:     text,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestHandleIngestAndGet(t *testing.T) {
	srv := testServer(t, inference.NewMockClient())
	router := srv.Router()

	body, _ := json.Marshal(models.DocumentInput{
		ID:       "doc-1",
		Filename: "a.txt",
		Text:     "Some document content for ingestion.",
	})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/documents", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusCreated {
		t.Fatalf("ingest status: got %d, body %s", w.Code, w.Body.String())
	}

	r = httptest.NewRequest(http.MethodGet, "/api/v1/documents/doc-1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("get status: got %d", w.Code)
	}
	var doc models.Document
	if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	if doc.Filename != "a.txt" {
		t.Errorf("unexpected document: %+v", doc)
	}
}

func TestHandleIngestRejectsMissingFilename(t *testing.T) {
	srv := testServer(t, inference.NewMockClient())
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/documents", bytes.NewReader([]byte(`{"text": "no name"}`)))
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleListDocuments(t *testing.T) {
	srv := testServer(t, inference.NewMockClient())
	ingestDoc(t, srv, "doc-1", "a.txt", "First document.")
	ingestDoc(t, srv, "doc-2", "b.txt", "Second document.")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Documents []models.DocumentInfo `json:"documents"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Documents) != 2 {
		t.Errorf("expected 2 documents, got %d", len(out.Documents))
	}
}

func TestHandleDeleteDocument(t *testing.T) {
	srv := testServer(t, inference.NewMockClient())
	ingestDoc(t, srv, "doc-1", "a.txt", "To be removed.")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodDelete, "/api/v1/documents/doc-1", nil)
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status: got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/api/v1/documents/doc-1", nil)
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
}

func TestHandleQuery(t *testing.T) {
	client := inference.NewMockClient(
		`{"response": "Blue [Document].", "citations": [{"location": "Document", "text": "sky is blue"}]}`,
		`{"themes": [{"id": "t1", "name": "Colors", "description": "d", "supporting_docs": ["doc-1"]}]}`,
		`{"synthesized_response": "Blue is the color mentioned."}`,
	)
	srv := testServer(t, client)
	ingestDoc(t, srv, "doc-1", "sky.txt", "The sky is blue.")

	body := []byte(`{"query": "What color is mentioned?"}`)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewReader(body))
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("query status: got %d, body %s", w.Code, w.Body.String())
	}
	var result models.QueryResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.DocumentAnswers) != 1 || result.SynthesizedAnswer == "" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestHandleQueryEmptyCorpus(t *testing.T) {
	srv := testServer(t, inference.NewMockClient())

	body := []byte(`{"query": "anything"}`)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewReader(body))
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for empty corpus, got %d", w.Code)
	}
}

func TestHandleSearch(t *testing.T) {
	srv := testServer(t, inference.NewMockClient())
	ingestDoc(t, srv, "doc-1", "a.txt", "Deterministic content about rivers and lakes.")

	body := []byte(`{"query": "rivers", "top_k": 3}`)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewReader(body))
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("search status: got %d", w.Code)
	}
	var out struct {
		Results []models.ChunkResult `json:"results"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Results) == 0 {
		t.Error("expected at least one search result")
	}
}

func TestHandleSearchDegradesOnIndexReadFailure(t *testing.T) {
	srv, embedder := testServerWithEmbedder(t, inference.NewMockClient())
	ingestDoc(t, srv, "doc-1", "a.txt", "Deterministic content about rivers and lakes.")
	embedder.Fail = true

	body := []byte(`{"query": "rivers"}`)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewReader(body))
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("search status: got %d, body %s", w.Code, w.Body.String())
	}
	var out struct {
		Results []models.ChunkResult `json:"results"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Results == nil {
		t.Fatal("expected an empty results array, got null")
	}
	if len(out.Results) != 0 {
		t.Errorf("expected no results, got %d", len(out.Results))
	}
}

func TestHandleSearchRejectsEmptyQuery(t *testing.T) {
	srv := testServer(t, inference.NewMockClient())

	body := []byte(`{"query": "   "}`)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewReader(body))
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("search status: got %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleStatus(t *testing.T) {
	srv := testServer(t, inference.NewMockClient())
	ingestDoc(t, srv, "doc-1", "a.txt", "Content.")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["documents"].(float64) != 1 {
		t.Errorf("expected 1 document, got %v", out["documents"])
	}
	if _, ok := out["inference_available"]; !ok {
		t.Error("status should report inference availability")
	}
}

func TestHandleWatchDirectories(t *testing.T) {
	srv := testServer(t, inference.NewMockClient())
	srv.SetWatcher(&mockWatchService{dirs: []string{"/tmp/docs"}}, "")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/watch/directories", nil)
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("list status: got %d", w.Code)
	}
	var out struct {
		Directories []string `json:"directories"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Directories) != 1 || out.Directories[0] != "/tmp/docs" {
		t.Errorf("unexpected directories: %v", out.Directories)
	}

	dir := t.TempDir()
	body, _ := json.Marshal(watchAddRequest{Path: dir})
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/api/v1/watch/directories", bytes.NewReader(body))
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusCreated {
		t.Fatalf("add status: got %d, body %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodDelete, "/api/v1/watch/directories?path="+dir, nil)
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("remove status: got %d", w.Code)
	}
}

func TestHandleWatchNotEnabled(t *testing.T) {
	srv := testServer(t, inference.NewMockClient())
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/watch/directories", nil)
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusNotImplemented {
		t.Errorf("expected 501 without watcher, got %d", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := testServer(t, inference.NewMockClient())
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("health status: got %d", w.Code)
	}
}
