package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prashan-s/cinema-labs/pkg/metrics"
)

const defaultTimeout = 10 * time.Second

// APIError is the structured error value returned for any upstream failure:
// network errors, non-2xx statuses and malformed bodies. Callers branch on
// error presence; nothing is raised across the orchestrator boundary.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("tmdb: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("tmdb: %s", e.Message)
}

// Unwrap exposes the underlying error for errors.Is / errors.As compatibility.
func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Config contains upstream connection options.
type Config struct {
	BaseURL     string
	BearerToken string
	Timeout     time.Duration
}

// Client is a thin authenticated transport for the TMDB API. It performs no
// caching of its own.
type Client struct {
	baseURL    string
	configured string
	httpClient *http.Client

	mu       sync.RWMutex
	override string
}

// NewClient constructs a Client from the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("tmdb client: base URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    base,
		configured: strings.TrimSpace(cfg.BearerToken),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// SetToken installs a runtime bearer-token override. An empty token reverts
// to the configured credential.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.override = strings.TrimSpace(token)
}

// Token returns the credential currently in effect.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.override != "" {
		return c.override
	}
	return c.configured
}

// Request issues an authenticated GET and returns the decoded JSON body.
func (c *Client) Request(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	target := c.baseURL + endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("error").Inc()
		return nil, &APIError{Message: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.Token())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("error").Inc()
		return nil, &APIError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("error").Inc()
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "read response body", Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		metrics.UpstreamRequests.WithLabelValues("error").Inc()
		return nil, &APIError{StatusCode: resp.StatusCode, Message: statusMessage(body)}
	}

	if !json.Valid(body) {
		metrics.UpstreamRequests.WithLabelValues("error").Inc()
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "malformed response body"}
	}

	metrics.UpstreamRequests.WithLabelValues("success").Inc()
	return json.RawMessage(body), nil
}

// ValidateToken probes the authentication endpoint and reports whether the
// current bearer token is accepted.
func (c *Client) ValidateToken(ctx context.Context) bool {
	_, err := c.Request(ctx, "/authentication", nil)
	return err == nil
}

// statusMessage extracts TMDB's status_message from an error body when present.
func statusMessage(body []byte) string {
	var payload struct {
		StatusMessage string `json:"status_message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.StatusMessage != "" {
		return payload.StatusMessage
	}
	return "unexpected response status"
}
