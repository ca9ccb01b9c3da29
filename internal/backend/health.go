package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// DefaultHealthTimeout is deliberately generous: a paused free-tier
// backend can take this long to wake, and the whole point of the probe
// is telling "asleep, try again shortly" apart from "unreachable".
const DefaultHealthTimeout = 15 * time.Second

// ErrHealthTimeout means the probe got no answer within its budget.
var ErrHealthTimeout = errors.New("backend: health probe timed out")

// CheckConnection probes the identity service's health endpoint. Used
// to pre-flight connectivity before a login attempt so credential
// errors and connectivity errors reach the user as different problems.
func (c *Client) CheckConnection(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultHealthTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := c.do(ctx, http.MethodGet, "/auth/v1/health", "", nil, "", nil)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrHealthTimeout
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("backend: health probe failed: HTTP %d", reqErr.Status)
	}
	return fmt.Errorf("backend: health probe failed: %w", err)
}
