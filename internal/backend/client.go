package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// ErrNotConfigured is returned when the two required environment values
// (BACKEND_URL and BACKEND_ANON_KEY) are missing. We surface this as its
// own state so login attempts can be blocked up front instead of failing
// somewhere downstream with a confusing network error.
var ErrNotConfigured = errors.New("backend not configured: set BACKEND_URL and BACKEND_ANON_KEY")

// Config holds the connection settings for the remote backend.
type Config struct {
	URL     string
	AnonKey string

	// Timeout applied to every request by the underlying HTTP client.
	// Kept deliberately long: the free-tier backend can take tens of
	// seconds to wake from a paused state.
	RequestTimeout time.Duration
}

// ConfigFromEnv reads the two required values from the environment.
// It does NOT fail when they are missing; callers check Configured()
// so the "not configured" state can be reported instead of crashed on.
func ConfigFromEnv() Config {
	return Config{
		URL:            strings.TrimRight(strings.TrimSpace(os.Getenv("BACKEND_URL")), "/"),
		AnonKey:        strings.TrimSpace(os.Getenv("BACKEND_ANON_KEY")),
		RequestTimeout: 90 * time.Second,
	}
}

// Configured reports whether both required values are present.
func (c Config) Configured() bool {
	return c.URL != "" && c.AnonKey != ""
}

// Client is a thin HTTP client for the remote backend: identity/session
// issuance, the row store, and callable server-side functions. Each
// portal session gets its own Client because the Client carries that
// session's tokens; the http.Client itself is shared.
type Client struct {
	cfg  Config
	http *http.Client

	mu      sync.Mutex
	session *Session
	subs    map[int]chan AuthEvent
	nextSub int
}

// sharedHTTP is reused across Clients so connections are pooled.
var (
	sharedHTTP     *http.Client
	sharedHTTPOnce sync.Once
)

// NewClient creates a client for the given config. Returns
// ErrNotConfigured when the required values are missing.
func NewClient(cfg Config) (*Client, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 90 * time.Second
	}
	sharedHTTPOnce.Do(func() {
		sharedHTTP = &http.Client{Timeout: cfg.RequestTimeout}
	})
	return &Client{
		cfg:  cfg,
		http: sharedHTTP,
		subs: make(map[int]chan AuthEvent),
	}, nil
}

// Row is a raw record from the remote row store. Mapping into typed
// entities (with defaults for every optional field) lives in models.
type Row = map[string]any

// apiError is the JSON error envelope the backend returns.
type apiError struct {
	Error       string `json:"error"`
	Message     string `json:"message"`
	Msg         string `json:"msg"`
	Description string `json:"error_description"`
}

func (e apiError) text() string {
	for _, s := range []string{e.Description, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// RequestError is a non-2xx response from the backend, with the message
// the backend sent when it sent one.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %s (HTTP %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("backend: HTTP %d", e.Status)
}

// do performs a request with the standard headers. authToken may be
// empty, in which case the anon key is used as the bearer token.
func (c *Client) do(ctx context.Context, method, path string, query string, body any, authToken string, extra map[string]string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	url := c.cfg.URL + path
	if query != "" {
		url += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.cfg.AnonKey)
	if authToken == "" {
		authToken = c.cfg.AnonKey
	}
	req.Header.Set("Authorization", "Bearer "+authToken)
	for k, v := range extra {
		req.Header.Set(k, v)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var apiErr apiError
		_ = json.Unmarshal(data, &apiErr)
		return nil, &RequestError{Status: res.StatusCode, Message: apiErr.text()}
	}
	return data, nil
}
