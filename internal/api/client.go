// Package api is the client for the external auth, persistence and
// notification services.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
)

const maxErrorBody = 4 << 10

// Error is a failed call to an external service. It matches
// models.ErrExternalService with errors.Is.
type Error struct {
	Endpoint   string
	StatusCode int // 0 when no response was received
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Endpoint, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
	}
}

// Unwrap exposes both the taxonomy sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{models.ErrExternalService}
	}
	return []error{models.ErrExternalService, e.Err}
}

// Client talks to the external services over HTTP/JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	timeout   time.Duration
	transport http.RoundTripper
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// WithTimeout bounds every request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithTransport replaces the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) { o.transport = rt }
}

// WithMetrics records request counts and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *clientOptions) { o.metrics = m }
}

// WithLogger sets the logger for request logs.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// New creates a client for baseURL. token supplies the current bearer token
// for each request; it may return "" for anonymous calls.
func New(baseURL string, token func() string, opts ...Option) *Client {
	o := clientOptions{
		timeout:   30 * time.Second,
		transport: http.DefaultTransport,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if token == nil {
		token = func() string { return "" }
	}

	transport := middleware.Logging(o.logger,
		middleware.RequestID(
			middleware.BearerAuth(token, o.transport)))

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Transport: transport, Timeout: o.timeout},
		metrics:    o.metrics,
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// do sends body as JSON and returns the raw response body of a 2xx response.
func (c *Client) do(ctx context.Context, endpoint, method, path string, body any) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode %s request: %w", endpoint, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, &Error{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(endpoint, 0, time.Since(start))
		return nil, 0, &Error{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()
	c.metrics.ObserveRequest(endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, resp.StatusCode, &Error{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    decodeMessage(msg),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &Error{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: err}
	}
	return data, resp.StatusCode, nil
}

// decodeMessage turns a response body into a human readable message. The
// services answer with a JSON string, a {"message"|"error": ...} object or
// plain text.
func decodeMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &obj); err == nil {
		if obj.Message != "" {
			return obj.Message
		}
		if obj.Error != "" {
			return obj.Error
		}
	}
	return string(body)
}

func decodeInto(endpoint string, data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Endpoint: endpoint, Message: "malformed response", Err: err}
	}
	return nil
}

// IsStatus reports whether err is an *Error with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}
