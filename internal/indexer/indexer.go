// Package indexer provides document ingestion into storage and the vector index.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/wakaru/internal/config"
	"github.com/hyperjump/wakaru/internal/embedding"
	"github.com/hyperjump/wakaru/internal/models"
	"github.com/hyperjump/wakaru/internal/storage"
	"github.com/hyperjump/wakaru/internal/vector"
	"go.uber.org/zap"
)

// ErrIndexWrite marks an ingest failure caused by the embedding backend or the
// index itself. On this error the index holds the document's prior state in
// full; no partial chunk set is ever visible.
var ErrIndexWrite = errors.New("index write failed")

// Indexer ingests documents: chunk, embed, store, and index. Writes to the same
// document ID are serialized; writes to different documents proceed concurrently.
type Indexer struct {
	storage     storage.Storage
	embedder    embedding.Embedder
	vectorIndex vector.VectorIndex
	chunker     *Chunker
	logger      *zap.Logger // optional; when set, logs debug events

	docLocks sync.Map // document ID -> *sync.Mutex
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (document indexed, document deleted, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer with the given dependencies.
func NewIndexer(
	store storage.Storage,
	embedder embedding.Embedder,
	vectorIndex vector.VectorIndex,
	cfg *config.IndexConfig,
	opts ...IndexerOption,
) *Indexer {
	idx := &Indexer{
		storage:     store,
		embedder:    embedder,
		vectorIndex: vectorIndex,
		chunker:     NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

func (idx *Indexer) lockFor(docID string) *sync.Mutex {
	m, _ := idx.docLocks.LoadOrStore(docID, &sync.Mutex{})
	return m.(*sync.Mutex)
}

// IndexDocument ingests a document: chunk, embed, store, and index. Re-indexing
// an existing document ID replaces the document and all of its chunks; the old
// state stays intact until embeddings have been produced, so an unreachable
// embedding backend leaves the index unchanged.
func (idx *Indexer) IndexDocument(ctx context.Context, input *models.DocumentInput) error {
	if input.ID == "" {
		input.ID = uuid.New().String()
	}
	metadata := input.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	if _, ok := metadata["ingested_at"]; !ok {
		metadata["ingested_at"] = time.Now().UTC().Format(time.RFC3339)
	}
	doc := &models.Document{
		ID:        input.ID,
		Filename:  input.Filename,
		RawText:   input.Text,
		PageCount: input.PageCount,
		Metadata:  metadata,
	}

	chunks := idx.chunker.Chunk(doc.ID, doc.RawText)
	if len(chunks) == 0 {
		// Empty documents are still registered with a single empty chunk.
		chunks = []*models.DocumentChunk{{
			ID:         ChunkID(doc.ID, 0),
			DocumentID: doc.ID,
			Ordinal:    0,
			Text:       "",
		}}
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	embeddings, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: embed chunks for %s: %v", ErrIndexWrite, doc.ID, err)
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	mu := idx.lockFor(doc.ID)
	mu.Lock()
	defer mu.Unlock()

	oldChunks, err := idx.storage.GetChunksByDocumentID(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("%w: load prior chunks for %s: %v", ErrIndexWrite, doc.ID, err)
	}

	if err := idx.storage.ReplaceDocument(ctx, doc, chunks); err != nil {
		return fmt.Errorf("%w: store document %s: %v", ErrIndexWrite, doc.ID, err)
	}

	if len(oldChunks) > 0 {
		oldIDs := make([]string, len(oldChunks))
		for i, ch := range oldChunks {
			oldIDs[i] = ch.ID
		}
		if err := idx.vectorIndex.Remove(ctx, oldIDs); err != nil {
			return fmt.Errorf("%w: remove prior vectors for %s: %v", ErrIndexWrite, doc.ID, err)
		}
	}
	chunkIDs := make([]string, len(chunks))
	for i, ch := range chunks {
		chunkIDs[i] = ch.ID
	}
	if err := idx.vectorIndex.Add(ctx, chunkIDs, embeddings); err != nil {
		return fmt.Errorf("%w: index vectors for %s: %v", ErrIndexWrite, doc.ID, err)
	}

	if idx.logger != nil {
		idx.logger.Debug("document indexed",
			zap.String("id", doc.ID),
			zap.String("filename", doc.Filename),
			zap.Int("chunks", len(chunks)))
	}
	return nil
}

// DeleteDocument removes a document from the vector index and storage.
// Deleting an absent document is a no-op.
func (idx *Indexer) DeleteDocument(ctx context.Context, id string) error {
	mu := idx.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	chunks, err := idx.storage.GetChunksByDocumentID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}
	if len(chunks) > 0 {
		chunkIDs := make([]string, len(chunks))
		for i, ch := range chunks {
			chunkIDs[i] = ch.ID
		}
		if err := idx.vectorIndex.Remove(ctx, chunkIDs); err != nil {
			return fmt.Errorf("failed to delete from vector index: %w", err)
		}
	}
	if err := idx.storage.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if idx.logger != nil {
		idx.logger.Debug("document deleted", zap.String("id", id))
	}
	return nil
}

// ListDocuments returns document-level metadata for the whole corpus.
func (idx *Indexer) ListDocuments(ctx context.Context) ([]*models.DocumentInfo, error) {
	return idx.storage.ListDocumentInfos(ctx)
}
