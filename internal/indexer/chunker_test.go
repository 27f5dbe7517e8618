package indexer

import (
	"strings"
	"testing"
)

func TestChunker_Split(t *testing.T) {
	c := NewChunker(10, 2)
	chunks := c.Split("abcdefghijklmnopqrstuvwxyz")
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	if chunks[0] != "abcdefghij" {
		t.Errorf("first chunk: got %q", chunks[0])
	}
	// Step is size-overlap, so the second chunk starts 8 runes in.
	if chunks[1] != "ijklmnopqr" {
		t.Errorf("second chunk: got %q", chunks[1])
	}
}

func TestChunker_SplitRoundTrip(t *testing.T) {
	texts := []string{
		"The sky is blue. Water is wet.",
		strings.Repeat("lorem ipsum dolor sit amet ", 100),
		"héllo wörld ünïcode tëxt répeated ",
		"short",
	}
	cases := []struct{ size, overlap int }{
		{10, 0}, {10, 3}, {100, 20}, {1000, 200}, {7, 6},
	}
	for _, text := range texts {
		for _, tc := range cases {
			c := NewChunker(tc.size, tc.overlap)
			chunks := c.Split(text)
			got := Reassemble(chunks, tc.overlap)
			if got != text {
				t.Errorf("size=%d overlap=%d: round trip lost characters (len %d vs %d)",
					tc.size, tc.overlap, len(got), len(text))
			}
		}
	}
}

func TestChunker_SplitDeterministic(t *testing.T) {
	c := NewChunker(50, 10)
	text := strings.Repeat("determinism matters ", 30)
	a := c.Split(text)
	b := c.Split(text)
	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs", i)
		}
	}
}

func TestChunker_SplitChunkCount(t *testing.T) {
	size, overlap := 100, 20
	c := NewChunker(size, overlap)
	text := strings.Repeat("a", 1000)
	chunks := c.Split(text)
	// count ~= ceil(n / (size-overlap))
	step := size - overlap
	want := (1000 + step - 1) / step
	if len(chunks) != want && len(chunks) != want-1 {
		t.Errorf("chunk count: got %d, want about %d", len(chunks), want)
	}
}

func TestChunker_SplitEmpty(t *testing.T) {
	c := NewChunker(10, 2)
	if chunks := c.Split(""); chunks != nil {
		t.Errorf("empty text should yield no chunks, got %v", chunks)
	}
}

func TestChunker_SplitShort(t *testing.T) {
	c := NewChunker(100, 10)
	chunks := c.Split("tiny")
	if len(chunks) != 1 || chunks[0] != "tiny" {
		t.Errorf("short text should yield one chunk, got %v", chunks)
	}
}

func TestChunker_Chunk(t *testing.T) {
	c := NewChunker(10, 0)
	chunks := c.Chunk("doc1", "abcdefghijklmnop")
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if ch.DocumentID != "doc1" {
			t.Errorf("chunk %d DocumentID=%s", i, ch.DocumentID)
		}
		if ch.Ordinal != i {
			t.Errorf("chunk %d Ordinal=%d", i, ch.Ordinal)
		}
	}
	if chunks[0].ID != "doc1_chunk_0" || chunks[1].ID != "doc1_chunk_1" {
		t.Errorf("chunk IDs not deterministic: %s, %s", chunks[0].ID, chunks[1].ID)
	}
}
