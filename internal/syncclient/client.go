// Package syncclient talks to the onboarding progress API. Every call is a
// single attempt: no retries, no queueing.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/marcus/onboard/internal/models"
)

// ProgressPath is the progress resource, relative to the base URL.
const ProgressPath = "/api/onboarding/progress"

// DefaultSessionCookieName is used when a session cookie is configured as a
// bare value rather than name=value.
const DefaultSessionCookieName = "session"

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method     string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, ProgressPath, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, ProgressPath, e.StatusCode)
}

// Unwrap maps auth failures onto the sentinel errors.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	}
	return nil
}

// Client is an HTTP client for the progress API.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client

	online func() bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.HTTP = h }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.HTTP.Timeout = d
		}
	}
}

// WithToken sends a bearer token with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.Token = token }
}

// WithSessionCookie stores a session cookie for the API host. The value is
// either "name=value" or a bare value sent as DefaultSessionCookieName.
func WithSessionCookie(raw string) Option {
	return func(c *Client) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return
		}
		u, err := url.Parse(c.BaseURL)
		if err != nil {
			return
		}
		name, value := DefaultSessionCookieName, raw
		if k, v, ok := strings.Cut(raw, "="); ok && k != "" {
			name, value = strings.TrimSpace(k), strings.TrimSpace(v)
		}
		if c.HTTP.Jar == nil {
			jar, err := cookiejar.New(nil)
			if err != nil {
				return
			}
			c.HTTP.Jar = jar
		}
		c.HTTP.Jar.SetCookies(u, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
	}
}

// WithConnectivity sets the connectivity check consulted by ShouldAttemptSync.
func WithConnectivity(online func() bool) Option {
	return func(c *Client) { c.online = online }
}

// New creates a progress client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ShouldAttemptSync reports whether the environment appears online. It never
// touches the network.
func (c *Client) ShouldAttemptSync() bool {
	if c.online == nil {
		return true
	}
	return c.online()
}

// FetchProgress returns the stored progress snapshot, or nil when the server
// has none (204, 404 or an empty/null body).
func (c *Client) FetchProgress(ctx context.Context) (*models.Snapshot, error) {
	body, status, err := c.doRequest(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent || status == http.StatusNotFound {
		return nil, nil
	}
	if status < 200 || status >= 300 {
		return nil, &StatusError{Method: http.MethodGet, StatusCode: status, Body: trimBody(body)}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var snap models.Snapshot
	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	return &snap, nil
}

// SaveProgress replaces the stored snapshot with snap.
func (c *Client) SaveProgress(ctx context.Context, snap *models.Snapshot) error {
	if snap == nil {
		return errors.New("save progress: nil snapshot")
	}
	body, status, err := c.doRequest(ctx, http.MethodPut, snap)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &StatusError{Method: http.MethodPut, StatusCode: status, Body: trimBody(body)}
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method string, body any) ([]byte, int, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+ProgressPath, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

// trimBody shortens an error body to at most 200 bytes, cutting on a rune
// boundary.
func trimBody(b []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(b))
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
