// Package inference abstracts "ask a language model a structured question, get
// structured JSON back". Only the analysis components (document query executor,
// theme identifier, response synthesizer) call it; each caller builds its own
// prompts and parses its own response schema.
package inference

import (
	"context"
	"encoding/json"
	"errors"
)

// Failure taxonomy. Callers convert all three into fallback values at the
// smallest possible scope; none of them may propagate past the component that
// made the call.
var (
	// ErrUnavailable covers connectivity and authentication failures.
	ErrUnavailable = errors.New("inference backend unavailable")
	// ErrTimeout covers calls that exceeded their deadline.
	ErrTimeout = errors.New("inference call timed out")
	// ErrMalformed covers responses that are not parseable JSON.
	ErrMalformed = errors.New("inference response malformed")
)

// IsInferenceError reports whether err belongs to the inference failure taxonomy.
func IsInferenceError(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrMalformed)
}

// Request is one structured question for the model. The system prompt fixes the
// role and response schema; the user prompt carries the content. Temperature 0
// means the client default.
type Request struct {
	System      string
	User        string
	Temperature float64
}

// Client asks a language model a structured question and returns the raw JSON
// object it produced. Callers wrap with their own timeout via ctx and unmarshal
// against their own schema.
type Client interface {
	Ask(ctx context.Context, req *Request) (json.RawMessage, error)
	// Ping checks connectivity with a minimal request.
	Ping(ctx context.Context) error
}

// ExtractJSONObject salvages a JSON object from near-JSON model output: the
// content as-is if valid, otherwise the region between the first '{' and the
// last '}'. Returns ErrMalformed when no valid object can be recovered.
func ExtractJSONObject(content string) (json.RawMessage, error) {
	trimmed := []byte(content)
	if json.Valid(trimmed) {
		return trimmed, nil
	}
	start := -1
	end := -1
	for i, b := range content {
		if b == '{' {
			start = i
			break
		}
	}
	for i := len(content) - 1; i >= 0; i-- {
		if content[i] == '}' {
			end = i
			break
		}
	}
	if start >= 0 && end > start {
		candidate := []byte(content[start : end+1])
		if json.Valid(candidate) {
			return candidate, nil
		}
	}
	return nil, ErrMalformed
}
