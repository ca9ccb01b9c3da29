package session

import (
	"sync"
	"time"

	"github.com/Ruhancpereira/conectacond.site/internal/backend"
	"github.com/google/uuid"
)

// Entry pairs a store with the backend client carrying that portal
// session's tokens. Handlers use the client for row access on behalf
// of the caller; the store owns the auth state.
type Entry struct {
	Store  *Store
	Client *backend.Client
}

// Registry owns the live portal sessions. Each one gets its own
// backend client so its tokens never mix with another session's.
type Registry struct {
	factory func() (*backend.Client, error)
	markers *Markers
	opts    Options

	mu      sync.Mutex
	entries map[string]*Entry
}

// NewRegistry creates a registry. factory builds a fresh backend client
// per portal session.
func NewRegistry(factory func() (*backend.Client, error), markers *Markers, opts Options) *Registry {
	return &Registry{
		factory: factory,
		markers: markers,
		opts:    opts,
		entries: make(map[string]*Entry),
	}
}

// Open creates a new portal session under a fresh opaque id. The
// caller decides whether to Start the store (bootstrap) or go straight
// to Login.
func (r *Registry) Open() (*Entry, error) {
	client, err := r.factory()
	if err != nil {
		return nil, err
	}
	entry := &Entry{
		Store:  NewStore(uuid.NewString(), client, r.markers, r.opts),
		Client: client,
	}

	r.mu.Lock()
	r.entries[entry.Store.ID()] = entry
	r.mu.Unlock()
	return entry, nil
}

// Lookup returns the entry for an id, or nil. Touches it for sweeping.
func (r *Registry) Lookup(id string) *Entry {
	r.mu.Lock()
	entry := r.entries[id]
	r.mu.Unlock()
	if entry != nil {
		entry.Store.Touch()
	}
	return entry
}

// Close tears down and forgets a portal session.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	entry := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if entry != nil {
		entry.Store.Close()
	}
}

// Sweep closes sessions idle longer than maxIdle and reports how many
// it reaped. Meant to run from a background ticker.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	var idle []*Entry
	for id, entry := range r.entries {
		if entry.Store.LastSeen().Before(cutoff) {
			idle = append(idle, entry)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, entry := range idle {
		entry.Store.Close()
	}
	return len(idle)
}
