package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Callable server-side functions (payment-provider integration, bulk
// email). These run with the caller's session token so the backend can
// attribute the action to the authenticated operator.

// ErrNoSession is returned when a function is invoked without an
// authenticated session.
var ErrNoSession = errors.New("backend: no authenticated session")

// FunctionError is a failed function invocation. Status carries the
// HTTP status so callers can tell an authorization failure (401/403,
// stale or invalid token) from a provider-side rejection.
type FunctionError struct {
	Name    string
	Status  int
	Message string
}

func (e *FunctionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("function %s: %s (HTTP %d)", e.Name, e.Message, e.Status)
	}
	return fmt.Sprintf("function %s: HTTP %d", e.Name, e.Status)
}

// Unauthorized reports whether the failure was the token being rejected
// rather than the function itself failing.
func (e *FunctionError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// Invoke calls a server-side function with the current session's token
// and decodes the JSON response. An "error" field embedded in a 2xx
// response is still treated as a failure.
func (c *Client) Invoke(ctx context.Context, name string, payload any) (map[string]any, error) {
	sess := c.currentSession()
	if sess == nil {
		return nil, ErrNoSession
	}

	data, err := c.do(ctx, http.MethodPost, "/functions/v1/"+name, "", payload, sess.AccessToken, nil)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			return nil, &FunctionError{Name: name, Status: reqErr.Status, Message: reqErr.Message}
		}
		return nil, err
	}

	var out map[string]any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("function %s: invalid response: %w", name, err)
		}
	}
	if msg, ok := out["error"].(string); ok && msg != "" {
		return nil, &FunctionError{Name: name, Status: http.StatusOK, Message: msg}
	}
	return out, nil
}
