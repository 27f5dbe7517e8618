// Package indexer provides document chunking and indexing.
package indexer

import (
	"fmt"

	"github.com/hyperjump/wakaru/internal/models"
)

// Chunker splits text into fixed-size overlapping segments. Splitting is a pure
// function of (text, chunkSize, chunkOverlap): the same input always yields the
// same chunks, and concatenating the chunks minus the declared overlaps
// reproduces the input exactly. Sizes are in runes so multi-byte characters are
// never cut in half.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in runes).
// Overlap must be smaller than size; a non-positive step is clamped to 1.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Split returns the ordered chunk texts for text. Empty text yields no chunks;
// text shorter than the chunk size yields exactly one chunk.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	step := c.chunkSize - c.chunkOverlap
	if step <= 0 {
		step = 1
	}
	var chunks []string
	for i := 0; i < len(runes); i += step {
		end := i + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end >= len(runes) {
			break
		}
	}
	return chunks
}

// Chunk splits text and wraps the segments as DocumentChunks with deterministic
// IDs and contiguous ordinals from 0.
func (c *Chunker) Chunk(docID, text string) []*models.DocumentChunk {
	parts := c.Split(text)
	chunks := make([]*models.DocumentChunk, len(parts))
	for i, part := range parts {
		chunks[i] = &models.DocumentChunk{
			ID:         ChunkID(docID, i),
			DocumentID: docID,
			Ordinal:    i,
			Text:       part,
		}
	}
	return chunks
}

// ChunkID returns the deterministic chunk ID for a document and ordinal.
func ChunkID(docID string, ordinal int) string {
	return fmt.Sprintf("%s_chunk_%d", docID, ordinal)
}

// Reassemble reconstructs the original text from ordered chunk texts produced by
// Split with the given overlap: the first chunk in full, then each subsequent
// chunk minus its leading overlap runes.
func Reassemble(chunks []string, overlap int) string {
	if len(chunks) == 0 {
		return ""
	}
	out := []rune(chunks[0])
	for _, chunk := range chunks[1:] {
		runes := []rune(chunk)
		if overlap < len(runes) {
			out = append(out, runes[overlap:]...)
		}
	}
	return string(out)
}
