package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/richxcame/fleet-analytics/pkg/logger"
	"github.com/richxcame/fleet-analytics/pkg/middleware"
	"github.com/richxcame/fleet-analytics/pkg/resilience"
)

// Client wraps http.Client with JSON helpers and retry support for reads.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	retry      *resilience.Policy
}

// Option configures the HTTP client
type Option func(*Client)

// WithRetry repeats GETs under policy.
func WithRetry(policy resilience.Policy) Option {
	return func(c *Client) {
		c.retry = &policy
	}
}

// WithReadRetry repeats GETs on transient backend failures, attempts times
// at most, with short backoffs.
func WithReadRetry(attempts int) Option {
	return WithRetry(resilience.ReadPolicy(attempts))
}

// WithBearerToken authenticates every call against the backend.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient creates a new HTTP client
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get makes a GET request. GETs are retried when a retry policy is set.
func (c *Client) Get(ctx context.Context, path string, headers map[string]string) ([]byte, error) {
	if c.retry == nil {
		return c.do(ctx, http.MethodGet, path, nil, headers)
	}
	return resilience.Do(ctx, *c.retry, "GET "+path, func(ctx context.Context) ([]byte, error) {
		return c.do(ctx, http.MethodGet, path, nil, headers)
	})
}

// Post makes a POST request with JSON body
func (c *Client) Post(ctx context.Context, path string, body interface{}, headers map[string]string) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, body, headers)
}

// Put makes a PUT request with JSON body
func (c *Client) Put(ctx context.Context, path string, body interface{}, headers map[string]string) ([]byte, error) {
	return c.do(ctx, http.MethodPut, path, body, headers)
}

// Patch makes a PATCH request with JSON body
func (c *Client) Patch(ctx context.Context, path string, body interface{}, headers map[string]string) ([]byte, error) {
	return c.do(ctx, http.MethodPatch, path, body, headers)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, headers map[string]string) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	injectCorrelationID(ctx, req)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &HTTPError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	return respBody, nil
}

// HTTPError represents an HTTP error response
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// HTTPStatus lets the retry policy classify backend answers.
func (e *HTTPError) HTTPStatus() int {
	return e.StatusCode
}

// StatusCode extracts the HTTP status from err, 0 when err is not an HTTPError.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

func injectCorrelationID(ctx context.Context, req *http.Request) {
	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		req.Header.Set(middleware.CorrelationIDHeader, correlationID)
	}
}
