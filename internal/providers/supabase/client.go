// Package supabase talks to a Supabase-compatible backend over its REST
// surfaces: GoTrue for auth, PostgREST for tables and the storage API.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stencil/internal/domain"
	"stencil/internal/infra"
)

// ErrMissingConfig indicates that URL or key were not provided.
var ErrMissingConfig = errors.New("supabase: url and key are required")

// Options configures the client.
type Options struct {
	URL            string
	Key            string
	Bucket         string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client is shared by the auth, table and storage adapters.
type Client struct {
	baseURL    string
	key        string
	bucket     string
	httpClient *http.Client
	logger     *infra.Logger
}

// NewClient validates options and applies defaults.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.URL), "/")
	key := strings.TrimSpace(opts.Key)
	if baseURL == "" || key == "" {
		return nil, ErrMissingConfig
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		bucket = "user-files"
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &Client{baseURL: baseURL, key: key, bucket: bucket, httpClient: httpClient, logger: logger}, nil
}

// Error is a non-2xx answer from any Supabase surface.
type Error struct {
	StatusCode int
	Message    string
	kind       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("supabase: status %d: %s", e.StatusCode, e.Message)
}

// Unwrap exposes the domain sentinel recognised from the message, if any.
func (e *Error) Unwrap() error { return e.kind }

type request struct {
	method      string
	path        string
	query       url.Values
	body        any
	raw         []byte
	contentType string
	token       string
	headers     map[string]string
}

func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}
	var body io.Reader
	contentType := r.contentType
	switch {
	case r.raw != nil:
		body = bytes.NewReader(r.raw)
	case r.body != nil:
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("supabase: encode request: %w", err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}
	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("supabase: build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("apikey", c.key)
	token := r.token
	if token == "" {
		token = c.key
	}
	req.Header.Set("Authorization", "Bearer "+token)
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase: http request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("supabase: read response: %w", err)
	}
	c.logger.Debug().Str("method", r.method).Str("path", r.path).Int("status", resp.StatusCode).Msg("supabase: call finished")
	if resp.StatusCode >= 300 {
		return nil, parseError(resp.StatusCode, raw)
	}
	return raw, nil
}

func parseError(status int, raw []byte) error {
	var detail struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	msg := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &detail); err == nil {
		for _, candidate := range []string{detail.Msg, detail.ErrorDescription, detail.Message, detail.Error} {
			if candidate != "" {
				msg = candidate
				break
			}
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{StatusCode: status, Message: msg, kind: classify(status, msg)}
}

func classify(status int, msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "invalid login credentials"):
		return domain.ErrInvalidCredentials
	case strings.Contains(lower, "email not confirmed"):
		return domain.ErrEmailNotConfirmed
	case strings.Contains(lower, "already registered"):
		return domain.ErrEmailTaken
	case strings.Contains(lower, "bucket not found"):
		return domain.ErrBucketNotFound
	case strings.Contains(lower, "already exists"), strings.Contains(lower, "duplicate"), status == http.StatusConflict:
		return domain.ErrAlreadyExists
	case status == http.StatusNotFound, strings.Contains(lower, "not found"):
		return domain.ErrNotFound
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return domain.ErrUnauthorized
	default:
		return nil
	}
}

func accessToken(ctx context.Context) string {
	if c, ok := domain.CredentialsFrom(ctx); ok {
		return c.AccessToken
	}
	return ""
}
