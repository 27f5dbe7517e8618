package models

// Citation points into a document: a human-readable location ("Page 2, Paragraph 3",
// "Section 1.2" or "Document") and the quoted excerpt it refers to.
type Citation struct {
	Location string `json:"location"`
	Text     string `json:"text"`
}

// DocumentAnswer is one document's answer to a query. IsFallback marks degraded
// output produced when inference failed for this document; the answer text is
// then a preview of the raw document instead of a model response.
type DocumentAnswer struct {
	DocumentID string     `json:"document_id"`
	Filename   string     `json:"filename"`
	AnswerText string     `json:"answer_text"`
	Citations  []Citation `json:"citations"`
	IsFallback bool       `json:"is_fallback"`
}

// Theme is a named cluster of shared meaning across per-document answers,
// with the set of document IDs that support it.
type Theme struct {
	ID                    string   `json:"id"`
	Name                  string   `json:"name"`
	Description           string   `json:"description"`
	SupportingDocumentIDs []string `json:"supporting_document_ids"`
}

// QueryResult is the full result of one query: cross-document themes, the
// per-document answers they were derived from, and a single synthesized
// narrative answer with citations. It is a snapshot owned by the caller;
// later re-ingestion of documents does not affect it.
type QueryResult struct {
	Query             string           `json:"query"`
	Themes            []Theme          `json:"themes"`
	DocumentAnswers   []DocumentAnswer `json:"document_answers"`
	SynthesizedAnswer string           `json:"synthesized_answer"`
	QueryTime         int64            `json:"query_time_ms"`
}

// ChunkResult is a single similarity search hit.
type ChunkResult struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	Ordinal    int     `json:"ordinal"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}
