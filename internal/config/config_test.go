package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: 0.0.0.0
  port: 9090
storage:
  database_path: ./data/db/documents.db
index:
  chunk_size: 800
  chunk_overlap: 100
query:
  max_concurrent: 8
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port: got %d", cfg.Server.Port)
	}
	if cfg.Index.ChunkSize != 800 || cfg.Index.ChunkOverlap != 100 {
		t.Errorf("index: got %+v", cfg.Index)
	}
	if cfg.Query.MaxConcurrent != 8 {
		t.Errorf("max_concurrent: got %d", cfg.Query.MaxConcurrent)
	}
	want := filepath.Join(dir, "data/db/documents.db")
	if cfg.Storage.DatabasePath != want {
		t.Errorf("database path: got %s, want %s", cfg.Storage.DatabasePath, want)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Index.ChunkSize != 1000 || cfg.Index.ChunkOverlap != 200 {
		t.Errorf("default chunking: got %+v", cfg.Index)
	}
	if cfg.Analysis.DocumentExcerptChars != 10000 {
		t.Errorf("default excerpt budget: got %d", cfg.Analysis.DocumentExcerptChars)
	}
	if cfg.Analysis.AnswerSummaryChars != 500 {
		t.Errorf("default summary budget: got %d", cfg.Analysis.AnswerSummaryChars)
	}
	if cfg.Query.MaxConcurrent != 4 {
		t.Errorf("default max concurrent: got %d", cfg.Query.MaxConcurrent)
	}
	if cfg.Inference.Timeout().Seconds() != 60 {
		t.Errorf("default inference timeout: got %v", cfg.Inference.Timeout())
	}
	if !cfg.Watch.RecursiveOrDefault() {
		t.Error("recursive should default to true")
	}
}
