// Package storage defines the persistence interface for documents and chunks.
package storage

import (
	"context"

	"github.com/hyperjump/wakaru/internal/models"
)

// Storage defines document and chunk persistence operations.
type Storage interface {
	// Document operations
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)
	ListDocumentInfos(ctx context.Context) ([]*models.DocumentInfo, error)

	// ReplaceDocument atomically replaces a document and all of its chunks.
	// Any previously stored chunks for the document ID are removed in the same
	// transaction, so the store never holds a partial chunk set.
	ReplaceDocument(ctx context.Context, doc *models.Document, chunks []*models.DocumentChunk) error

	// Chunk operations
	GetChunk(ctx context.Context, id string) (*models.DocumentChunk, error)
	GetChunksByDocumentID(ctx context.Context, docID string) ([]*models.DocumentChunk, error)

	// Stats
	CountDocuments(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)

	Close() error
}
