// Package models defines core data structures for documents, queries, and analysis results.
package models

import "time"

// Document represents an ingested document. RawText is the already-extracted plain
// text; extraction from PDFs or images happens upstream of this service. Documents
// are immutable once ingested: re-ingesting the same ID replaces the document and
// all of its chunks.
type Document struct {
	ID        string                 `json:"id" db:"id"`
	Filename  string                 `json:"filename" db:"filename"`
	RawText   string                 `json:"raw_text" db:"raw_text"`
	PageCount int                    `json:"page_count" db:"page_count"`
	Metadata  map[string]interface{} `json:"metadata" db:"metadata"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt time.Time              `json:"updated_at" db:"updated_at"`
}

// DocumentChunk is a bounded contiguous segment of a document's text, the unit
// indexed for similarity search. Chunk IDs are deterministic
// ("<documentID>_chunk_<ordinal>") and ordinals are contiguous from 0.
type DocumentChunk struct {
	ID         string    `json:"id" db:"id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	Ordinal    int       `json:"ordinal" db:"ordinal"`
	Text       string    `json:"text" db:"text"`
	Embedding  []float32 `json:"-" db:"-"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// DocumentInput is the ingestion payload: text already extracted upstream,
// page count reported by the converter. ID is generated when absent.
type DocumentInput struct {
	ID        string                 `json:"id,omitempty"`
	Filename  string                 `json:"filename"`
	Text      string                 `json:"text"`
	PageCount int                    `json:"page_count,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// DocumentInfo is the document-level metadata record returned by corpus listing.
type DocumentInfo struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	PageCount  int    `json:"page_count"`
	ChunkCount int    `json:"chunk_count"`
}
