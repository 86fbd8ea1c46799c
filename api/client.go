// Package api implements the HTTP client for the supermarket task backend.
//
// HTTP-level failures (4xx, 5xx, transport errors) are never returned as Go
// errors; every call produces a Result carrying either the decoded payload or
// the server's error message plus the observed status code. Status 0 marks a
// transport failure where no response was received at all.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MasatoraSakikoyama/supermarket-task-client/telemetry"
)

// Result is the uniform outcome of a single API call.
type Result[T any] struct {
	// Data holds the decoded response body on success, nil otherwise.
	Data *T

	// Error holds the server's error message on failure, "" otherwise.
	Error string

	// Status is the HTTP status code, or 0 when no response was received.
	Status int
}

// OK reports whether the call succeeded at the HTTP level.
func (r Result[T]) OK() bool {
	return r.Error == "" && r.Status >= 200 && r.Status < 300
}

// TokenSource supplies the current bearer credential. An empty string means
// no credential is available and the Authorization header is omitted.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a plain function to a TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Client issues requests against the backend. The zero value is not usable;
// construct with NewClient.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  TokenSource
	logger  zerolog.Logger

	// onUnauthorized is invoked for every 401 response. The session store
	// guarantees idempotency, the client just reports the observation.
	onUnauthorized func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpc = hc }
}

// WithTokenSource sets the bearer credential supplier.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithUnauthorizedHook registers the callback fired on any 401 response.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithLogger sets the structured logger for request events.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for the given backend origin.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// callOptions carries per-request modifiers.
type callOptions struct {
	noAuth bool
}

// CallOption configures a single request.
type CallOption func(*callOptions)

// WithoutAuth skips the Authorization header. Used by login and register,
// which are the only anonymous endpoints.
func WithoutAuth() CallOption {
	return func(o *callOptions) { o.noAuth = true }
}

// apiError mirrors the backend's error body: {"detail": "..."}.
type apiError struct {
	Detail string `json:"detail"`
}

// Do executes a single request and normalizes the outcome into a Result.
// The generic parameter is the expected response body; use struct{} for
// endpoints that return no content.
func Do[T any](ctx context.Context, c *Client, method, path string, body any, opts ...CallOption) Result[T] {
	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}

	timer := telemetry.FromContext(ctx).Start(fmt.Sprintf("api %s %s", method, path))
	defer timer.End()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return Result[T]{Error: fmt.Sprintf("encode request body: %v", err), Status: 0}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return Result[T]{Error: fmt.Sprintf("build request: %v", err), Status: 0}
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !co.noAuth && c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	started := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Debug().
			Str("request_id", requestID).
			Str("method", method).
			Str("path", path).
			Dur("elapsed", time.Since(started)).
			Err(err).
			Msg("request failed in transport")
		return Result[T]{Error: "no response from server", Status: 0}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("request completed")

	if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.onUnauthorized()
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result[T]{Error: fmt.Sprintf("read response body: %v", err), Status: 0}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result[T]{Error: errorMessage(resp.StatusCode, raw), Status: resp.StatusCode}
	}

	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		if _, ok := any(*new(T)).(struct{}); ok {
			return Result[T]{Status: resp.StatusCode}
		}
		// A typed endpoint answering 2xx with no body: callers dereference
		// Data after OK(), so this degenerates to a transport failure.
		return Result[T]{Error: "empty response from server", Status: 0}
	}

	data := new(T)
	if err := json.Unmarshal(raw, data); err != nil {
		// Malformed JSON from the server is indistinguishable from a broken
		// transport as far as callers are concerned.
		return Result[T]{Error: fmt.Sprintf("decode response body: %v", err), Status: 0}
	}
	return Result[T]{Data: data, Status: resp.StatusCode}
}

// errorMessage extracts the server's error detail, falling back to a generic
// message per status class. Validation failures (4xx) surface the body
// verbatim; server failures (5xx) stay generic.
func errorMessage(status int, raw []byte) string {
	var body apiError
	if err := json.Unmarshal(raw, &body); err == nil && body.Detail != "" {
		if status < 500 {
			return body.Detail
		}
	}
	switch {
	case status == http.StatusUnauthorized:
		return "authentication required"
	case status >= 500:
		return "server error"
	default:
		return fmt.Sprintf("request failed with status %d", status)
	}
}
