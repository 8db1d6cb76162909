package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// DefaultURL is the OpenRouter chat completions endpoint
const DefaultURL = "https://openrouter.ai/api/v1/chat/completions"

// Temperature is the fixed sampling temperature for every completion
const Temperature = 0.7

// ChatMessage for the API. Content is usually a string but is forwarded
// untouched, so multi-part content from proxied requests survives.
type ChatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// Reasoning toggles provider-side reasoning
type Reasoning struct {
	Enabled bool `json:"enabled"`
}

// MarshalMessages encodes msgs for a ChatRequest.
func MarshalMessages(msgs []ChatMessage) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, len(msgs))
	for i, m := range msgs {
		b, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}

// ChatRequest to OpenRouter. Messages are sent as given, so fields beyond
// role and content reach the provider.
type ChatRequest struct {
	Model       string            `json:"model"`
	Messages    []json.RawMessage `json:"messages"`
	Temperature float64           `json:"temperature"`
	Reasoning   *Reasoning        `json:"reasoning,omitempty"`
}

// ChatResponse (non-streaming)
type ChatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Content returns the text of the first choice, or "" when there is none.
func (r *ChatResponse) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// APIError is a non-2xx answer from the provider
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, string(e.Body))
}

// ProviderMessage extracts error.message from the provider body, if any.
func (e *APIError) ProviderMessage() string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return ""
	}
	return body.Error.Message
}

// Client calls the OpenRouter chat completions API
type Client struct {
	APIKey string
	URL    string
	// Title is sent as X-Title, Referer as HTTP-Referer.
	Title   string
	Referer string
	HTTP    *http.Client
}

// GenerateText makes a non-streaming chat completion. A non-2xx response
// is returned as *APIError; every other failure means no usable response.
func (c *Client) GenerateText(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.Temperature == 0 {
		req.Temperature = Temperature
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.URL
	if url == "" {
		url = DefaultURL
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	if c.Referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.Referer)
	}
	if c.Title != "" {
		httpReq.Header.Set("X-Title", c.Title)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: respBody}
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &chatResp, nil
}

// IsAPIError reports whether err carries a provider status.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
