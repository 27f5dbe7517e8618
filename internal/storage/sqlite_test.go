package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/wakaru/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testChunks(docID string, texts ...string) []*models.DocumentChunk {
	chunks := make([]*models.DocumentChunk, len(texts))
	for i, text := range texts {
		chunks[i] = &models.DocumentChunk{
			ID:         docID + "_chunk_" + string(rune('0'+i)),
			DocumentID: docID,
			Ordinal:    i,
			Text:       text,
		}
	}
	return chunks
}

func TestSQLiteStorage_ReplaceAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := &models.Document{
		ID:        "doc1",
		Filename:  "report.pdf",
		RawText:   "The sky is blue. Water is wet.",
		PageCount: 2,
		Metadata:  map[string]interface{}{"source": "upload"},
	}
	if err := store.ReplaceDocument(ctx, doc, testChunks("doc1", "The sky is blue.", "Water is wet.")); err != nil {
		t.Fatal(err)
	}
	if doc.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := store.GetDocument(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Filename != "report.pdf" || got.PageCount != 2 {
		t.Errorf("got %+v", got)
	}
	if got.Metadata["source"] != "upload" {
		t.Errorf("metadata: got %v", got.Metadata)
	}

	chunks, err := store.GetChunksByDocumentID(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Ordinal != 0 || chunks[1].Ordinal != 1 {
		t.Errorf("ordinals out of order: %d, %d", chunks[0].Ordinal, chunks[1].Ordinal)
	}
}

func TestSQLiteStorage_ReplaceIsAtomicSwap(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := &models.Document{ID: "doc1", Filename: "a.txt", RawText: "old"}
	if err := store.ReplaceDocument(ctx, doc, testChunks("doc1", "old-a", "old-b", "old-c")); err != nil {
		t.Fatal(err)
	}

	doc2 := &models.Document{ID: "doc1", Filename: "a.txt", RawText: "new"}
	if err := store.ReplaceDocument(ctx, doc2, testChunks("doc1", "new-a")); err != nil {
		t.Fatal(err)
	}

	chunks, err := store.GetChunksByDocumentID(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected exactly the new chunk set, got %d chunks", len(chunks))
	}
	if chunks[0].Text != "new-a" {
		t.Errorf("got %s", chunks[0].Text)
	}

	n, err := store.CountChunks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("orphaned chunks remain: count=%d", n)
	}
}

func TestSQLiteStorage_DeleteDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := &models.Document{ID: "doc1", RawText: "text"}
	if err := store.ReplaceDocument(ctx, doc, testChunks("doc1", "text")); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteDocument(ctx, "doc1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetDocument(ctx, "doc1"); err == nil {
		t.Error("document should be gone")
	}
	n, _ := store.CountChunks(ctx)
	if n != 0 {
		t.Errorf("chunks should be gone, count=%d", n)
	}

	// Deleting an absent document is a no-op, not an error.
	if err := store.DeleteDocument(ctx, "missing"); err != nil {
		t.Errorf("delete of absent document: %v", err)
	}
}

func TestSQLiteStorage_ListDocumentInfos(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	d1 := &models.Document{ID: "doc1", Filename: "one.txt", PageCount: 1, RawText: "a b"}
	if err := store.ReplaceDocument(ctx, d1, testChunks("doc1", "a", "b")); err != nil {
		t.Fatal(err)
	}
	d2 := &models.Document{ID: "doc2", Filename: "two.txt", PageCount: 3, RawText: "c"}
	if err := store.ReplaceDocument(ctx, d2, testChunks("doc2", "c")); err != nil {
		t.Fatal(err)
	}

	infos, err := store.ListDocumentInfos(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 infos, got %d", len(infos))
	}
	byID := map[string]*models.DocumentInfo{}
	for _, info := range infos {
		byID[info.ID] = info
	}
	if byID["doc1"].ChunkCount != 2 {
		t.Errorf("doc1 chunk count: got %d", byID["doc1"].ChunkCount)
	}
	if byID["doc2"].PageCount != 3 || byID["doc2"].ChunkCount != 1 {
		t.Errorf("doc2: got %+v", byID["doc2"])
	}
}

func TestSQLiteStorage_Restart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	ctx := context.Background()

	store, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	doc := &models.Document{ID: "doc1", Filename: "persist.txt", RawText: "survives restart"}
	if err := store.ReplaceDocument(ctx, doc, testChunks("doc1", "survives restart")); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	got, err := reopened.GetDocument(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if got.RawText != "survives restart" {
		t.Errorf("got %s", got.RawText)
	}
}
