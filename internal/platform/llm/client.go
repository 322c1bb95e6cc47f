// Package llm wraps the Anthropic Messages API for care plan generation.
// It owns request construction, the error taxonomy the workflows depend on,
// and bounded retry with backoff for transient failures.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the default Anthropic API endpoint.
	DefaultBaseURL = "https://api.anthropic.com"

	// DefaultAPIVersion is the Anthropic API version header value.
	DefaultAPIVersion = "2023-06-01"

	// DefaultModel is the model used when none is configured.
	DefaultModel = "claude-sonnet-4-20250514"

	// DefaultMaxTokens bounds the generated care plan length.
	DefaultMaxTokens = 4096

	// DefaultTemperature matches the original generation settings.
	DefaultTemperature = 0.7

	// DefaultTimeout is the per-attempt HTTP timeout.
	DefaultTimeout = 90 * time.Second

	// DefaultMaxRetries bounds automatic retries for transient failures.
	DefaultMaxRetries = 3

	// DefaultRetryBase is the initial backoff delay; it doubles per attempt.
	DefaultRetryBase = 2 * time.Second
)

// ErrorKind classifies a generation failure.
type ErrorKind string

const (
	// AuthenticationFailed means the API rejected our credentials. Fatal,
	// never retried.
	AuthenticationFailed ErrorKind = "authentication_failed"

	// RateLimited means the API throttled us. Retryable; any Retry-After
	// hint is honored.
	RateLimited ErrorKind = "rate_limited"

	// ConnectionFailed covers transport errors, timeouts, and 5xx
	// responses. Retryable.
	ConnectionFailed ErrorKind = "connection_failed"

	// InvalidResponse means the API answered but the answer is unusable:
	// unparsable body, empty content, or a request the API rejected
	// outright. Not retried.
	InvalidResponse ErrorKind = "invalid_response"
)

// GenerationError is the classified failure returned by Generate.
type GenerationError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *GenerationError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("generation failed (%s, status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("generation failed (%s): %s", e.Kind, e.Message)
}

// Retryable reports whether the failure is transient.
func (e *GenerationError) Retryable() bool {
	return e.Kind == RateLimited || e.Kind == ConnectionFailed
}

// HTTPClient is the subset of http.Client the client needs; tests inject
// their own implementation.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config contains configuration for the generation client.
type Config struct {
	APIKey      string        // Required
	BaseURL     string        // Default: https://api.anthropic.com
	APIVersion  string        // Default: 2023-06-01
	Model       string        // Default: DefaultModel
	MaxTokens   int           // Default: 4096
	Temperature float64       // Default: 0.7; negative means unset
	Timeout     time.Duration // Per-attempt HTTP timeout
	MaxRetries  int           // Automatic retries for transient failures
	RetryBase   time.Duration // Initial backoff delay
	HTTPClient  HTTPClient    // Optional override, used by tests
}

// Client calls the Anthropic Messages API. It holds no state between calls.
type Client struct {
	apiKey      string
	baseURL     string
	apiVersion  string
	model       string
	maxTokens   int
	temperature float64
	maxRetries  int
	retryBase   time.Duration
	httpClient  HTTPClient
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewClient creates a generation client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature < 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = DefaultRetryBase
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		apiVersion:  cfg.APIVersion,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
		retryBase:   cfg.RetryBase,
		httpClient:  httpClient,
		sleep:       sleepCtx,
	}, nil
}

// Generate sends the system instruction and user prompt to the messages
// endpoint and returns the generated text. Transient failures (rate limit,
// transport error, 5xx) are retried with exponential backoff up to the
// configured budget; authentication and content failures surface immediately.
func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	var lastErr *GenerationError

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryBase << (attempt - 1)
			if lastErr != nil && lastErr.RetryAfter > delay {
				delay = lastErr.RetryAfter
			}
			if err := c.sleep(ctx, delay); err != nil {
				return "", &GenerationError{Kind: ConnectionFailed, Message: err.Error()}
			}
		}

		text, genErr := c.generateOnce(ctx, system, prompt)
		if genErr == nil {
			return text, nil
		}
		if !genErr.Retryable() {
			return "", genErr
		}
		lastErr = genErr
	}

	return "", lastErr
}

func (c *Client) generateOnce(ctx context.Context, system, prompt string) (string, *GenerationError) {
	apiReq := messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    system,
		Messages: []message{
			{Role: "user", Content: prompt},
		},
	}
	if c.temperature >= 0 {
		apiReq.Temperature = &c.temperature
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return "", &GenerationError{Kind: InvalidResponse, Message: fmt.Sprintf("marshal request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", &GenerationError{Kind: InvalidResponse, Message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", c.apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts land here too; both classify as transport failures.
		return "", &GenerationError{Kind: ConnectionFailed, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", classifyStatus(resp.StatusCode, respBody, resp.Header.Get("Retry-After"))
	}

	var apiResp messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", &GenerationError{Kind: InvalidResponse, StatusCode: resp.StatusCode,
			Message: fmt.Sprintf("decode response: %v", err)}
	}

	var sb strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := sb.String()
	if text == "" {
		return "", &GenerationError{Kind: InvalidResponse, StatusCode: resp.StatusCode,
			Message: "response contained no text content"}
	}

	return text, nil
}

// classifyStatus maps a non-200 response onto the error taxonomy.
func classifyStatus(status int, body []byte, retryAfter string) *GenerationError {
	msg := apiErrorMessage(body)

	genErr := &GenerationError{StatusCode: status, Message: msg}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		genErr.Kind = AuthenticationFailed
	case status == http.StatusTooManyRequests:
		genErr.Kind = RateLimited
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
			genErr.RetryAfter = time.Duration(secs) * time.Second
		}
	case status >= 500:
		genErr.Kind = ConnectionFailed
	default:
		genErr.Kind = InvalidResponse
	}
	return genErr
}

// apiErrorMessage extracts the error message from an API error body, falling
// back to the raw body when it is not the expected shape.
func apiErrorMessage(body []byte) string {
	var errResp struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	return strings.TrimSpace(string(body))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Wire types for the messages endpoint.

type messagesRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	ID         string `json:"id"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Content    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}
