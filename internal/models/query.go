package models

import (
	"fmt"
	"strings"
)

// QueryRequest is a research query over the corpus. DocumentIDs restricts the
// query to the given documents; when empty the full corpus is used.
type QueryRequest struct {
	Query       string   `json:"query"`
	DocumentIDs []string `json:"document_ids,omitempty"`
}

// Validate ensures the query has a non-empty question.
func (q *QueryRequest) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return fmt.Errorf("query cannot be empty")
	}
	return nil
}

// SearchRequest is a similarity search over indexed chunks, optionally
// restricted to a set of document IDs.
type SearchRequest struct {
	Query       string   `json:"query"`
	DocumentIDs []string `json:"document_ids,omitempty"`
	TopK        int      `json:"top_k,omitempty"`
}

// Validate normalizes TopK and rejects empty queries.
func (s *SearchRequest) Validate() error {
	if strings.TrimSpace(s.Query) == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if s.TopK <= 0 {
		s.TopK = 5
	}
	if s.TopK > 100 {
		s.TopK = 100
	}
	return nil
}
