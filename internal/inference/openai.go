package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/hyperjump/wakaru/internal/config"
)

// OpenAIClient calls an OpenAI-compatible chat-completions endpoint (OpenAI,
// Groq, Ollama, and others) and requests JSON-object responses.
type OpenAIClient struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	client      *http.Client
}

// NewOpenAIClient creates a client from config. The API key is read from the
// environment variable named by cfg.APIKeyEnv; an empty key is allowed for
// local backends that do not authenticate.
func NewOpenAIClient(cfg *config.InferenceConfig) *OpenAIClient {
	return &OpenAIClient{
		baseURL:     cfg.BaseURL,
		apiKey:      os.Getenv(cfg.APIKeyEnv),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: cfg.Timeout()},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Ask sends the prompts and returns the JSON object the model produced.
// Failures map onto the package taxonomy: connectivity and auth problems are
// ErrUnavailable, deadline hits are ErrTimeout, unparseable content is
// ErrMalformed.
func (c *OpenAIClient) Ask(ctx context.Context, req *Request) (json.RawMessage, error) {
	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: temperature,
		ResponseFormat: &struct {
			Type string `json:"type"`
		}{Type: "json_object"},
	}
	content, err := c.complete(ctx, &payload)
	if err != nil {
		return nil, err
	}
	obj, err := ExtractJSONObject(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrMalformed, truncateForError(content))
	}
	return obj, nil
}

// Ping checks connectivity with a minimal completion request.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	payload := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: "Hello"}},
		Temperature: c.temperature,
		MaxTokens:   5,
	}
	_, err := c.complete(ctx, &payload)
	return err
}

func (c *OpenAIClient) complete(ctx context.Context, payload *chatRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: backend returned %s", ErrUnavailable, resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response envelope: %v", ErrMalformed, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: response has no choices", ErrMalformed)
	}
	return parsed.Choices[0].Message.Content, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncateForError(s string) string {
	if len(s) > 100 {
		return s[:100] + "..."
	}
	return s
}
