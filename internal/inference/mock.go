package inference

import (
	"context"
	"encoding/json"
	"sync"
)

// MockClient is a deterministic stand-in for tests. Responses are served in
// order; when exhausted, the last response repeats. Err, when set, is returned
// from every call instead.
type MockClient struct {
	Responses []json.RawMessage
	Err       error

	mu    sync.Mutex
	calls int
	asked []*Request
}

// NewMockClient returns a mock serving the given JSON responses in order.
func NewMockClient(responses ...string) *MockClient {
	m := &MockClient{}
	for _, r := range responses {
		m.Responses = append(m.Responses, json.RawMessage(r))
	}
	return m
}

// Ask returns the next canned response, or the configured error.
func (m *MockClient) Ask(ctx context.Context, req *Request) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.asked = append(m.asked, req)
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) == 0 {
		return nil, ErrMalformed
	}
	i := m.calls
	if i >= len(m.Responses) {
		i = len(m.Responses) - 1
	}
	m.calls++
	return m.Responses[i], nil
}

// Ping reports the configured error, if any.
func (m *MockClient) Ping(ctx context.Context) error {
	return m.Err
}

// Calls returns how many times Ask was invoked.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns the requests seen so far.
func (m *MockClient) Requests() []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Request, len(m.asked))
	copy(out, m.asked)
	return out
}
