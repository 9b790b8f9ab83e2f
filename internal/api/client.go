// Package api is the backend REST client. Every call returns a Result
// instead of an error: HTTP failures, transport failures and undecodable
// bodies all come back as Success=false with a readable message.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/felixgeelhaar/hirelink/internal/errors"
	"github.com/felixgeelhaar/hirelink/internal/log"
	"github.com/felixgeelhaar/hirelink/internal/metrics"
	"github.com/felixgeelhaar/hirelink/internal/session"
	"github.com/felixgeelhaar/hirelink/internal/version"
)

const (
	// NetworkErrorMessage is reported when the backend cannot be reached
	NetworkErrorMessage = "network error: unable to reach server"

	maxResponseBytes = 10 << 20
)

// Client performs requests against the backend base URL
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   session.Provider
	limiter    *rate.Limiter
	metrics    *metrics.Metrics
	logger     *log.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the transport timeout. There is no other deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRateLimit paces outgoing requests to rps with the given burst.
// rps <= 0 disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMetrics records request counts and latency
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the client logger
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client for baseURL. sessions may be nil for
// unauthenticated use; otherwise its credential is attached to every request.
func NewClient(baseURL string, sessions session.Provider, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		sessions:   sessions,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = log.OrDiscard(c.logger).With("component", "api")
	return c
}

// BaseURL returns the normalized base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Result is the uniform outcome of a backend call
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	// Status is the HTTP status, or 0 when no response was received
	Status int `json:"status,omitempty"`
}

// Err converts a failed result into a coded error. It returns nil on success.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	return errors.NewAPIError(r.Status, r.Error)
}

func failure[T any](status int, msg string) Result[T] {
	return Result[T]{Status: status, Error: msg}
}

// Request describes one backend call
type Request struct {
	// Method defaults to GET
	Method string
	// Path is resolved against the client's base URL
	Path  string
	Query url.Values
	// Body is JSON-encoded when set. Ignored when Multipart is set.
	Body      any
	Multipart *Multipart
	// Header entries override the defaults, except Content-Type on
	// multipart requests which always carries the form boundary.
	Header http.Header
}

// Multipart is a form submission with optional file parts
type Multipart struct {
	Fields map[string]string
	Files  []File
}

// File is one uploaded file part
type File struct {
	Field   string
	Name    string
	Content io.Reader
}

// Do performs req and decodes a successful body into T.
func Do[T any](ctx context.Context, c *Client, req Request) Result[T] {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return failure[T](0, fmt.Sprintf("failed to encode request: %v", err))
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return failure[T](0, fmt.Sprintf("request not sent: %v", err))
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.resolve(req.Path, req.Query), body)
	if err != nil {
		return failure[T](0, fmt.Sprintf("failed to create request: %v", err))
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	httpReq.Header.Set("User-Agent", version.UserAgent())
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if c.sessions != nil {
		if sess, ok := c.sessions.Load(); ok {
			httpReq.Header.Set("Authorization", "Bearer "+sess.Token)
		}
	}
	for k, vs := range req.Header {
		if req.Multipart != nil && http.CanonicalHeaderKey(k) == "Content-Type" {
			continue
		}
		httpReq.Header[http.CanonicalHeaderKey(k)] = vs
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.ObserveRequest(method, 0, time.Since(start))
		if ctx.Err() != nil {
			return failure[T](0, fmt.Sprintf("request cancelled: %v", ctx.Err()))
		}
		c.logger.Debug("request failed", "method", method, "path", req.Path, "error", err)
		return failure[T](0, NetworkErrorMessage)
	}
	defer resp.Body.Close()
	c.metrics.ObserveRequest(method, resp.StatusCode, time.Since(start))

	return decodeResponse[T](resp)
}

func (c *Client) resolve(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func encodeBody(req Request) (io.Reader, string, error) {
	if req.Multipart != nil {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for k, v := range req.Multipart.Fields {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", err
			}
		}
		for _, f := range req.Multipart.Files {
			part, err := w.CreateFormFile(f.Field, f.Name)
			if err != nil {
				return nil, "", err
			}
			if _, err := io.Copy(part, f.Content); err != nil {
				return nil, "", err
			}
		}
		if err := w.Close(); err != nil {
			return nil, "", err
		}
		return &buf, w.FormDataContentType(), nil
	}

	if req.Body == nil {
		return nil, "", nil
	}
	data, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), "application/json", nil
}

// errorBody is the backend's error shape. error may be a string or an object.
type errorBody struct {
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

// envelope is the backend's optional success wrapper
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func decodeResponse[T any](resp *http.Response) Result[T] {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return failure[T](resp.StatusCode, fmt.Sprintf("failed to read response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failure[T](resp.StatusCode, errorMessage(resp.StatusCode, data))
	}

	out := Result[T]{Success: true, Status: resp.StatusCode}
	payload := bytes.TrimSpace(data)
	if len(payload) == 0 {
		return out
	}

	if env, ok := asEnvelope(payload); ok {
		if !*env.Success {
			msg := env.Message
			if msg == "" {
				msg = fmt.Sprintf("request failed with status %d", resp.StatusCode)
			}
			return failure[T](resp.StatusCode, msg)
		}
		payload = env.Data
		if len(payload) == 0 || string(payload) == "null" {
			return out
		}
	}

	if err := json.Unmarshal(payload, &out.Data); err != nil {
		return failure[T](resp.StatusCode, fmt.Sprintf("failed to decode response: %v", err))
	}
	return out
}

func asEnvelope(payload []byte) (envelope, bool) {
	if payload[0] != '{' {
		return envelope{}, false
	}
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil || env.Success == nil {
		return envelope{}, false
	}
	if !*env.Success || env.Data != nil {
		return env, true
	}
	return envelope{}, false
}

func errorMessage(status int, data []byte) string {
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil {
		if eb.Message != "" {
			return eb.Message
		}
		var s string
		if err := json.Unmarshal(eb.Error, &s); err == nil && s != "" {
			return s
		}
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(eb.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
	}
	return fmt.Sprintf("request failed with status %d", status)
}
