// Package gpt provides an intent classifier that asks an OpenAI-compatible
// chat model about commands the keyword parser misses.
package gpt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hammamikhairi/ottolift/internal/logger"
)

// Role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Classification replies are one small JSON object.
const (
	maxReplyTokens = 60
	maxBodyBytes   = 64 << 10
)

// ErrTruncated is returned when the model hit the token limit mid-reply.
var ErrTruncated = errors.New("gpt: reply truncated")

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// APIError is a non-200 response from the endpoint.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gpt: API %d: %s", e.Status, e.Body)
}

type request struct {
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	Model          string          `json:"model,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type response struct {
	Choices []struct {
		FinishReason string `json:"finish_reason"`
		Message      struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithModel sets the model name. Azure deployments leave it empty.
func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

// WithHTTPTimeout sets the HTTP client timeout.
func WithHTTPTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// WithJSONMode asks the endpoint to constrain replies to a JSON object.
// On by default; older Azure API versions reject it.
func WithJSONMode(on bool) ClientOption {
	return func(c *Client) { c.jsonMode = on }
}

// Client sends classification requests to a chat-completions endpoint:
// deterministic sampling, a short reply, no streaming.
type Client struct {
	endpoint string
	apiKey   string
	azure    bool
	model    string
	jsonMode bool
	http     *http.Client
	log      *logger.Logger
}

// NewClient creates a client for endpoint, the full chat/completions URL.
// Azure endpoints authenticate with an api-key header, anything else with a
// bearer token.
func NewClient(endpoint, apiKey string, log *logger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		azure:    isAzure(endpoint),
		jsonMode: true,
		http:     &http.Client{Timeout: 8 * time.Second},
		log:      log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Complete sends messages and returns the model's reply.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	body := request{
		Messages:  messages,
		MaxTokens: maxReplyTokens,
		Model:     c.model,
	}
	if c.jsonMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("gpt: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("gpt: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.azure {
		req.Header.Set("api-key", c.apiKey)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gpt: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("gpt: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Status: resp.StatusCode, Body: truncate(string(raw), 200)}
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("gpt: unmarshal response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("gpt: empty response (no choices)")
	}
	choice := out.Choices[0]
	if choice.FinishReason == "length" {
		return "", ErrTruncated
	}

	c.log.Debug("gpt: reply in %s: %s", time.Since(start).Round(time.Millisecond), truncate(choice.Message.Content, 120))
	return choice.Message.Content, nil
}

func isAzure(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false
	}
	return strings.HasSuffix(u.Hostname(), ".openai.azure.com")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
