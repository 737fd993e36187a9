// Package llm adapts an external messages-style text-generation API to the
// ModelClient contract consumed by the model recommender.
package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/okian/vireo/internal/domain/model"
	"github.com/okian/vireo/pkg/logger"
	"github.com/okian/vireo/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultEndpoint    = "https://api.anthropic.com/v1/messages"
	defaultModel       = "claude-3-7-sonnet-20250219"
	defaultMaxTokens   = 4000
	defaultHTTPTimeout = 120 * time.Second
	defaultRequestRate = rate.Limit(0.5) // requests per second
	defaultBurst       = 1

	apiVersionHeader = "anthropic-version"
	apiVersion       = "2023-06-01"
	apiKeyHeader     = "x-api-key"

	breakerFailureThreshold = 3
	breakerTimeout          = 60 * time.Second
)

// Client calls the messages API. Requests are deterministic (temperature 0)
// and pass through a rate limiter and a circuit breaker; the breaker fails
// fast while the backend is unhealthy instead of queueing doomed requests.
type Client struct {
	apiKey    string
	endpoint  string
	model     string
	maxTokens int

	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithEndpoint overrides the API endpoint (used by tests).
func WithEndpoint(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.endpoint = u
		}
	}
}

// WithModel sets the model identifier.
func WithModel(m string) Option {
	return func(c *Client) {
		if m != "" {
			c.model = m
		}
	}
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithRateLimit sets the outbound request rate and burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a messages-API client.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: model API key must not be empty", model.ErrInvalidArgument)
	}
	c := &Client{
		apiKey:    apiKey,
		endpoint:  defaultEndpoint,
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
		client:    &http.Client{Timeout: defaultHTTPTimeout},
		limiter:   rate.NewLimiter(defaultRequestRate, defaultBurst),
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "model-backend",
		Timeout: breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
	})
	return c, nil
}

// message is one conversation turn.
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// completionRequest mirrors the messages API request schema.
type completionRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system"`
	Messages    []message `json:"messages"`
}

// completionResponse mirrors the messages API response schema.
type completionResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete sends one prompt and returns the concatenated text content.
// Temperature is fixed at zero for reproducible recommendations.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	reqBody, err := json.Marshal(completionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: 0,
		System:      system,
		Messages:    []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrService, err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %v", ErrService, err)
	}

	metrics.RecordModelRequest()
	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.post(ctx, reqBody)
	})
	metrics.RecordModelLatency(time.Since(start).Seconds())
	if err != nil {
		metrics.RecordModelError()
		return "", fmt.Errorf("%w: %v", ErrService, err)
	}

	var resp completionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		metrics.RecordModelError()
		return "", fmt.Errorf("%w: decode response: %v", ErrService, err)
	}
	if len(resp.Content) == 0 {
		metrics.RecordModelError()
		return "", fmt.Errorf("%w: empty response content", ErrService)
	}

	var text bytes.Buffer
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set(apiVersionHeader, apiVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(respBody, 256))
	}
	return respBody, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
