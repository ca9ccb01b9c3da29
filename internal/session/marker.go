package session

import (
	"context"
	"strconv"
	"time"

	"github.com/Ruhancpereira/conectacond.site/internal/kv"
)

const markerPrefix = "conectacond:session_at:"

// Markers records when a session was last confirmed active, per portal
// session. The marker is only ever a hint for the bootstrap retry —
// never a source of truth for identity.
type Markers struct {
	store *kv.Store
}

func NewMarkers(store *kv.Store) *Markers {
	return &Markers{store: store}
}

// Mark stamps the session as active now. Failures are swallowed: a
// missing marker only costs a retry, the same price as not having one.
func (m *Markers) Mark(ctx context.Context, id string, window time.Duration) {
	value := strconv.FormatInt(time.Now().UnixMilli(), 10)
	_ = m.store.Set(ctx, markerPrefix+id, value, window)
}

// Recent reports whether a marker was written within the window. The
// timestamp is double-checked even though the TTL should already have
// evicted stale ones.
func (m *Markers) Recent(ctx context.Context, id string, window time.Duration) bool {
	raw, err := m.store.Get(ctx, markerPrefix+id)
	if err != nil || raw == "" {
		return false
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false
	}
	return time.Since(time.UnixMilli(ms)) < window
}

// Clear removes the marker.
func (m *Markers) Clear(ctx context.Context, id string) {
	m.store.Del(ctx, markerPrefix+id)
}
