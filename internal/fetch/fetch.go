package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// Failure kinds returned by Fetch. Each is a distinct sentinel so callers
// can branch with errors.Is without parsing messages.
var (
	// ErrEmptyURL is returned before any I/O when the request URL is empty.
	ErrEmptyURL = errors.New("url is empty")
	// ErrTimeout wraps a request that exceeded its deadline.
	ErrTimeout = errors.New("request timed out")
	// ErrUnexpectedContentType is returned when the response Content-Type
	// does not contain application/json.
	ErrUnexpectedContentType = errors.New("unexpected content type")
	// ErrMalformedJSON is returned when the response body is not valid JSON.
	ErrMalformedJSON = errors.New("malformed json response")
	// ErrEmptyResponse is returned when the body parses but carries no data
	// ("", null, {} or []). Callers always need data to proceed.
	ErrEmptyResponse = errors.New("empty json response")
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.Code, http.StatusText(e.Code))
}

// IsRetryable reports whether the status should trigger a retry.
func (e *StatusError) IsRetryable() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// BasicAuth carries credentials for HTTP basic authentication.
type BasicAuth struct {
	Username string
	Password string
}

// Request describes one upstream GET. Header and BasicAuth are optional.
type Request struct {
	URL       string
	Header    http.Header
	BasicAuth *BasicAuth
}

// Client issues bounded-timeout GET requests expecting JSON responses.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a fetch client with a 10 second default timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch issues a GET for req and returns the raw JSON body. All failure
// kinds are logged and returned uniformly so a retry wrapper needs no
// special-casing.
func (c *Client) Fetch(ctx context.Context, req Request) ([]byte, error) {
	if req.URL == "" {
		c.logger.Error("fetch rejected", "error", ErrEmptyURL)
		return nil, ErrEmptyURL
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if req.BasicAuth != nil {
		httpReq.SetBasicAuth(req.BasicAuth.Username, req.BasicAuth.Password)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			c.logger.Warn("fetch timed out", "url", req.URL)
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		c.logger.Warn("fetch failed", "url", req.URL, "error", err)
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Code: resp.StatusCode, Body: body}
		c.logger.Warn("fetch returned error status",
			"url", req.URL,
			"status", resp.StatusCode,
		)
		return nil, statusErr
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		c.logger.Warn("fetch returned unexpected content type",
			"url", req.URL,
			"content_type", contentType,
		)
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedContentType, contentType)
	}

	if !json.Valid(body) {
		c.logger.Warn("fetch returned malformed json", "url", req.URL)
		return nil, ErrMalformedJSON
	}

	if isEmptyJSON(body) {
		c.logger.Warn("fetch returned empty json body", "url", req.URL)
		return nil, ErrEmptyResponse
	}

	return body, nil
}

// isEmptyJSON reports whether a valid JSON body carries no data.
func isEmptyJSON(body []byte) bool {
	switch string(bytes.TrimSpace(body)) {
	case "", "null", "{}", "[]", `""`:
		return true
	}
	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
