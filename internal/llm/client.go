// Package llm talks to an OpenAI-compatible chat completion endpoint and
// holds the prompts lit uses to label papers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	// DefaultEndpoint is the OpenAI chat completions URL.
	DefaultEndpoint = "https://api.openai.com/v1/chat/completions"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second
)

var (
	// ErrMisconfigured indicates a missing endpoint, model or API key.
	ErrMisconfigured = errors.New("chat client misconfigured")

	// ErrInvalidResponse indicates a reply without choices.0.message.content.
	ErrInvalidResponse = errors.New("invalid response from chat endpoint")
)

// APIError is a non-2xx answer from the chat endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("chat endpoint error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("chat endpoint error (status %d): %s", e.StatusCode, e.Message)
}

// Config holds connection settings.
type Config struct {
	Endpoint string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// Request is one chat completion call.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Completer returns the assistant reply for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Client is a chat completion client.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ Completer = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit caps calls per second.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewClient builds a client from configuration.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatPayload struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

// Complete posts the request and returns the trimmed reply text.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", ErrMisconfigured
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}
	}

	payload := chatPayload{
		Model:       c.model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.System != "" {
		payload.Messages = append(payload.Messages, chatMessage{Role: "system", Content: req.System})
	}
	payload.Messages = append(payload.Messages, chatMessage{Role: "user", Content: req.User})

	var body string
	status := 0
	err := requests.URL(c.endpoint).
		Client(c.httpClient).
		Bearer(c.apiKey).
		BodyJSON(&payload).
		Post().
		AddValidator(nil).
		Handle(func(res *http.Response) error {
			status = res.StatusCode
			return requests.ToString(&body)(res)
		}).
		Fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("sending chat request: %w", err)
	}

	if status < 200 || status >= 300 {
		return "", &APIError{StatusCode: status, Message: gjson.Get(body, "error.message").String()}
	}

	content := gjson.Get(body, "choices.0.message.content")
	if !content.Exists() {
		return "", fmt.Errorf("%w: missing choices.0.message.content", ErrInvalidResponse)
	}
	return strings.TrimSpace(content.String()), nil
}
