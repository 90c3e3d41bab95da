// Package api is the REST client for the contentflow backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Gyana491/contentflow/internal/logging"
	"github.com/Gyana491/contentflow/internal/tracing"
)

// MaxResponseSize caps every response body the client reads (1 MiB)
const MaxResponseSize int64 = 1 << 20

// ErrResponseTooLarge is returned when a body exceeds MaxResponseSize
var ErrResponseTooLarge = errors.New("response exceeds maximum allowed size")

const (
	defaultTimeout    = 15 * time.Second
	defaultMaxRetries = 3
	defaultRetryDelay = 500 * time.Millisecond
)

// TokenSource yields the current bearer token; empty means anonymous.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource with a fixed value
type StaticToken string

func (s StaticToken) Token() string { return string(s) }

// Client handles communication with the contentflow backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
	maxRetries int
	retryDelay time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithTokenSource attaches a bearer token to every request that has one
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = logging.OrDiscard(l) }
}

// WithRetry sets how many attempts idempotent requests get and the base backoff
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.maxRetries = attempts
		}
		c.retryDelay = delay
	}
}

// NewClient creates a new API client. baseURL includes the API prefix,
// e.g. http://localhost:8080/api.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.Discard(),
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

func isRetryableStatus(code int) bool {
	return code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable ||
		code == http.StatusGatewayTimeout
}

type noRetryKey struct{}

// withoutRetry marks requests sent with ctx as single-attempt.
func withoutRetry(ctx context.Context) context.Context {
	return context.WithValue(ctx, noRetryKey{}, true)
}

// retryableRequest sends req, retrying idempotent methods on transport
// errors and 502/503/504 with linear backoff. Requests whose context went
// through withoutRetry get exactly one attempt.
func (c *Client) retryableRequest(req *http.Request) (*http.Response, error) {
	attempts := 1
	if isIdempotent(req.Method) && req.Context().Value(noRetryKey{}) == nil {
		attempts = c.maxRetries
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("failed to reset request body: %w", err)
				}
				req.Body = body
			}

			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(time.Duration(attempt-1) * c.retryDelay):
			}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if req.Context().Err() != nil {
				break
			}
			continue
		}

		if attempt < attempts && isRetryableStatus(resp.StatusCode) {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseSize))
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// readLimitedResponse reads at most maxSize bytes and fails with
// ErrResponseTooLarge when more are available.
func readLimitedResponse(r io.Reader, maxSize int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > maxSize {
		return nil, ErrResponseTooLarge
	}
	return body, nil
}

// errorBody is the server's error shape
type errorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Suggestion string `json:"suggestion"`
}

func httpError(status int, body []byte) *Error {
	e := &Error{Kind: KindHTTP, Status: status, Payload: body}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		e.Message = eb.Error
		if e.Message == "" {
			e.Message = eb.Message
		}
		e.Details = eb.Details
		e.Suggestion = eb.Suggestion
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("HTTP %d", status)
	}
	return e
}

// send performs one request and returns the raw success body.
func (c *Client) send(ctx context.Context, method, path string, body []byte, contentType string) ([]byte, error) {
	ctx, span := tracing.StartClientSpan(ctx, method, path)
	status := 0
	var err error
	defer func() { tracing.EndSpan(span, status, err) }()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		err = fmt.Errorf("failed to create request: %w", err)
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.retryableRequest(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
			return nil, err
		}
		c.logger.Debug("request failed", "method", method, "path", path, "error", err)
		err = networkError(err)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	status = resp.StatusCode

	respBody, err := readLimitedResponse(resp.Body, MaxResponseSize)
	if err != nil {
		if !errors.Is(err, ErrResponseTooLarge) {
			err = networkError(err)
		}
		return nil, err
	}

	c.logger.Debug("request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = httpError(resp.StatusCode, respBody)
		return nil, err
	}
	return respBody, nil
}

// sendJSON marshals payload (nil means no body) and returns the raw success body.
func (c *Client) sendJSON(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = data
	}
	return c.send(ctx, method, path, body, "application/json")
}

// unwrap returns the value of a top-level "data" key when present, else body.
func unwrap(body []byte) []byte {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return body
	}
	if data, ok := envelope["data"]; ok {
		return data
	}
	return body
}

func decode(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(unwrap(body), out); err != nil {
		return MalformedResponseError("Invalid JSON response from server", body)
	}
	return nil
}

// do sends a JSON request and decodes the unwrapped success body into out.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	body, err := c.sendJSON(ctx, method, path, payload)
	if err != nil {
		return err
	}
	return decode(body, out)
}

// FormFile is a file part of a multipart upload
type FormFile struct {
	Field       string
	Filename    string
	ContentType string
	Content     io.Reader
}

// FormField is a text part of a multipart upload
type FormField struct {
	Name  string
	Value string
}

func (c *Client) upload(ctx context.Context, path string, fields []FormField, file *FormFile, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", f.Name, err)
		}
	}

	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Filename))
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		part, err := w.CreatePart(h)
		if err != nil {
			return fmt.Errorf("failed to create file part: %w", err)
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return fmt.Errorf("failed to write file part: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	body, err := c.send(ctx, http.MethodPost, path, buf.Bytes(), w.FormDataContentType())
	if err != nil {
		return err
	}
	return decode(body, out)
}
