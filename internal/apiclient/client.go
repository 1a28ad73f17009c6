// Package apiclient talks to the DormSwap REST backend.
package apiclient

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
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 15 * time.Second

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:3000/api"

// TokenSource returns the bearer token for the current session, or "".
type TokenSource func(ctx context.Context) string

// Client issues REST calls against the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenSource attaches a bearer token to every request.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

// New creates a Client for baseURL.
func New(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        logger.With("adapter", "api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Error is a normalized failure at the HTTP boundary. Status is 0 for
// transport failures.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// File is one binary part of a multipart upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// do sends a request and decodes a 2xx JSON body into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return &Error{Message: fmt.Sprintf("building request: %v", err)}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != nil {
		if tok := c.token(ctx); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WarnContext(ctx, "api request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		return &Error{Message: transportMessage(err)}
	}
	defer resp.Body.Close()

	c.log.DebugContext(ctx, "api request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
		slog.String("request_id", requestID),
	)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Status: resp.StatusCode, Message: fmt.Sprintf("reading response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Status: resp.StatusCode, Message: fmt.Sprintf("decoding response: %v", err)}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, "", out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return &Error{Message: fmt.Sprintf("encoding request: %v", err)}
	}
	return c.do(ctx, method, path, nil, bytes.NewReader(data), "application/json", out)
}

// sendMultipart sends a "payload" JSON part plus one "images" part per file.
func (c *Client) sendMultipart(ctx context.Context, method, path string, payload any, files []File, out any) error {
	meta, err := json.Marshal(payload)
	if err != nil {
		return &Error{Message: fmt.Sprintf("encoding payload: %v", err)}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("payload", string(meta)); err != nil {
		return &Error{Message: fmt.Sprintf("writing payload: %v", err)}
	}
	for i, f := range files {
		name := f.Name
		if name == "" {
			name = fmt.Sprintf("image-%d", i+1)
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, name))
		ct := f.ContentType
		if ct == "" {
			ct = http.DetectContentType(f.Data)
		}
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		if err != nil {
			return &Error{Message: fmt.Sprintf("creating image part: %v", err)}
		}
		if _, err := part.Write(f.Data); err != nil {
			return &Error{Message: fmt.Sprintf("writing image part: %v", err)}
		}
	}
	if err := mw.Close(); err != nil {
		return &Error{Message: fmt.Sprintf("closing multipart body: %v", err)}
	}

	return c.do(ctx, method, path, nil, &buf, mw.FormDataContentType(), out)
}

// errorMessage picks the human-readable message out of an error body.
func errorMessage(status int, body []byte) string {
	var env struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &env) == nil {
		if env.Message != "" {
			return env.Message
		}
		if len(env.Error) > 0 {
			var s string
			if json.Unmarshal(env.Error, &s) == nil && s != "" {
				return s
			}
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(env.Error, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
		}
	}
	if text := http.StatusText(status); text != "" {
		return fmt.Sprintf("Request failed with status code %d (%s)", status, text)
	}
	return fmt.Sprintf("Request failed with status code %d", status)
}

func transportMessage(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return "Request timed out"
		}
		return fmt.Sprintf("Network error: %v", urlErr.Err)
	}
	return fmt.Sprintf("Network error: %v", err)
}
