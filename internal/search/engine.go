// Package search provides similarity search over indexed document chunks.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/wakaru/internal/embedding"
	"github.com/hyperjump/wakaru/internal/models"
	"github.com/hyperjump/wakaru/internal/storage"
	"github.com/hyperjump/wakaru/internal/vector"
)

// ErrIndexRead marks a similarity read failure (embedding backend or vector
// index). Callers treat it as "no similarity results", not a fatal error.
var ErrIndexRead = errors.New("index read failed")

// Engine runs similarity search over chunk embeddings, optionally restricted
// to a set of document IDs.
type Engine struct {
	storage     storage.Storage
	embedder    embedding.Embedder
	vectorIndex vector.VectorIndex
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(store storage.Storage, embedder embedding.Embedder, vectorIndex vector.VectorIndex) *Engine {
	return &Engine{
		storage:     store,
		embedder:    embedder,
		vectorIndex: vectorIndex,
	}
}

// QuerySimilar returns the top-k chunks most similar to the query text. When
// the request names document IDs, only chunks from those documents are
// returned, for any corpus.
func (e *Engine) QuerySimilar(ctx context.Context, req *models.SearchRequest) ([]*models.ChunkResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	queryEmbedding, err := e.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrIndexRead, err)
	}

	// With a document filter, hits from other documents are discarded after
	// the fact, so search the whole index to keep topK meaningful.
	k := req.TopK
	var allowed map[string]bool
	if len(req.DocumentIDs) > 0 {
		allowed = make(map[string]bool, len(req.DocumentIDs))
		for _, id := range req.DocumentIDs {
			allowed[id] = true
		}
		k = e.vectorIndex.Size()
	}

	hits, err := e.vectorIndex.Search(ctx, queryEmbedding, k)
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %v", ErrIndexRead, err)
	}

	filenames := make(map[string]string)
	results := make([]*models.ChunkResult, 0, req.TopK)
	for _, hit := range hits {
		if len(results) == req.TopK {
			break
		}
		chunk, err := e.storage.GetChunk(ctx, hit.ID)
		if err != nil {
			continue
		}
		if allowed != nil && !allowed[chunk.DocumentID] {
			continue
		}
		filename, ok := filenames[chunk.DocumentID]
		if !ok {
			if doc, docErr := e.storage.GetDocument(ctx, chunk.DocumentID); docErr == nil {
				filename = doc.Filename
			}
			filenames[chunk.DocumentID] = filename
		}
		results = append(results, &models.ChunkResult{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Filename:   filename,
			Ordinal:    chunk.Ordinal,
			Text:       chunk.Text,
			Score:      hit.Score,
		})
	}
	return results, nil
}

// VectorIndexSize returns the number of vectors currently indexed.
func (e *Engine) VectorIndexSize() int {
	return e.vectorIndex.Size()
}
