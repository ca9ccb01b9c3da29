package session

import (
	"context"
	"sync"
	"time"

	"github.com/Ruhancpereira/conectacond.site/internal/backend"
	"github.com/Ruhancpereira/conectacond.site/internal/models"
)

// State is the resolved authentication state of a portal session.
// A store starts loading and resolves to exactly one of the other two
// within the safety ceiling, whatever the backend does.
type State string

const (
	StateLoading         State = "loading"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

// Backend is the slice of the remote client the session layer needs.
// *backend.Client satisfies it; tests swap in a scripted fake.
type Backend interface {
	GetSession(ctx context.Context) (*backend.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*backend.Session, error)
	SignOut(ctx context.Context) error
	Subscribe() *backend.Subscription
	SelectRow(ctx context.Context, table string, filters map[string]string) (backend.Row, error)
}

// Options bound the bootstrap procedure in time.
type Options struct {
	// SessionTimeout is the hard budget for one get-session round trip.
	SessionTimeout time.Duration
	// RetryDelay is the fixed wait before the marker-gated second try.
	RetryDelay time.Duration
	// MarkerWindow is how recent a session marker must be to justify
	// that second try.
	MarkerWindow time.Duration
	// SafetyCeiling caps the loading state even if every backend call
	// hangs.
	SafetyCeiling time.Duration
}

func (o Options) withDefaults() Options {
	if o.SessionTimeout <= 0 {
		o.SessionTimeout = 6 * time.Second
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 1500 * time.Millisecond
	}
	if o.MarkerWindow <= 0 {
		o.MarkerWindow = 5 * time.Minute
	}
	if o.SafetyCeiling <= 0 {
		o.SafetyCeiling = 8 * time.Second
	}
	return o
}

// Store holds the resolved User for one portal session. It is the
// single writer of that state: bootstrap, the auth-event watcher,
// Login and Logout all live here; everyone else only reads.
//
// The one invariant everything below protects: a resolved
// authenticated user is never overwritten by a stale or ambiguous
// "no session" signal. Only Logout or a fresh bootstrap that finds
// nothing may leave the store unauthenticated.
type Store struct {
	id      string
	backend Backend
	markers *Markers
	opts    Options

	mu        sync.Mutex
	state     State
	user      *models.User
	loggingIn bool
	lastSeen  time.Time

	ready     chan struct{}
	readyOnce sync.Once
	closed    chan struct{}
	closeOnce sync.Once
	sub       *backend.Subscription
}

// NewStore creates a store in the loading state. Call Start to run the
// bootstrap procedure, or Login to authenticate directly.
func NewStore(id string, b Backend, markers *Markers, opts Options) *Store {
	return &Store{
		id:       id,
		backend:  b,
		markers:  markers,
		opts:     opts.withDefaults(),
		state:    StateLoading,
		lastSeen: time.Now(),
		ready:    make(chan struct{}),
		closed:   make(chan struct{}),
	}
}

// Start launches the bootstrap procedure, the auth-event watcher and
// the safety timer. It returns immediately; Ready() closes once the
// loading state has been left.
func (s *Store) Start() {
	s.StartWatch()
	go s.bootstrap()
	go s.safetyTimer()
}

// StartWatch launches only the auth-event watcher, for stores that
// authenticate via Login instead of restoring a session.
func (s *Store) StartWatch() {
	s.mu.Lock()
	if s.sub != nil {
		s.mu.Unlock()
		return
	}
	s.sub = s.backend.Subscribe()
	sub := s.sub
	s.mu.Unlock()
	go s.watch(sub)
}

// Close tears the store down. In-flight recovery attempts notice and
// discard their results instead of applying them to a dead store.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.mu.Lock()
		sub := s.sub
		s.mu.Unlock()
		if sub != nil {
			sub.Unsubscribe()
		}
	})
	s.signalReady()
}

// Ready is closed once the store has left the loading state.
func (s *Store) Ready() <-chan struct{} { return s.ready }

// ID returns the opaque portal-session id.
func (s *Store) ID() string { return s.id }

// Snapshot returns the current state and user.
func (s *Store) Snapshot() (State, *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.user
}

// User returns the resolved user, or nil.
func (s *Store) User() *models.User {
	_, u := s.Snapshot()
	return u
}

// Authenticated reports whether a user is resolved.
func (s *Store) Authenticated() bool {
	st, _ := s.Snapshot()
	return st == StateAuthenticated
}

// Touch records activity for idle sweeping.
func (s *Store) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// LastSeen returns the time of the last recorded activity.
func (s *Store) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Store) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *Store) signalReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

// bootstrap restores an existing session within a bounded time budget:
// one bounded get-session call, then — only when a recent marker says a
// session was alive minutes ago — a short wait and one retry. A slow
// backend resuming from a pause loses the first call to the timeout;
// the marker is what keeps that from being read as "logged out".
func (s *Store) bootstrap() {
	ctx := context.Background()

	sess, err := firstOf(ctx, s.opts.SessionTimeout, s.backend.GetSession)
	if s.isClosed() {
		return
	}
	if err == nil && sess != nil {
		s.applySession(ctx, sess)
		return
	}

	if s.markers.Recent(ctx, s.id, s.opts.MarkerWindow) {
		select {
		case <-time.After(s.opts.RetryDelay):
		case <-s.closed:
			return
		}
		sess, err = firstOf(ctx, s.opts.SessionTimeout, s.backend.GetSession)
		if s.isClosed() {
			return
		}
		if err == nil && sess != nil {
			s.applySession(ctx, sess)
			return
		}
	}

	s.resolveUnauthenticated()
}

// safetyTimer abandons the loading state after a fixed ceiling even if
// every backend call hangs. The UI must never wait forever.
func (s *Store) safetyTimer() {
	select {
	case <-time.After(s.opts.SafetyCeiling):
		s.resolveUnauthenticated()
	case <-s.ready:
	case <-s.closed:
	}
}

// watch applies auth-state-change events. A new session refreshes the
// resolved user. A null session is deliberately ignored: the backend
// emits those on refresh races and hiccups, and acting on them would
// log people out at random. Only Logout or an empty bootstrap may
// leave the store unauthenticated.
func (s *Store) watch(sub *backend.Subscription) {
	for {
		select {
		case <-s.closed:
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if ev.Session == nil {
				continue
			}
			s.applySession(context.Background(), ev.Session)
		}
	}
}

// Refresh re-checks the session, meant for a restored portal session
// or for when the page/tab becomes visible again after being hidden.
// A present session refreshes the user; an absent or unanswerable one
// leaves the existing user untouched. When a recent marker says a
// session was alive minutes ago, a failed first call earns a short
// wait and one retry, so a backend resuming from a pause is not read
// as "logged out". It yields to a login in flight rather than racing
// it.
func (s *Store) Refresh(ctx context.Context) {
	s.mu.Lock()
	busy := s.loggingIn
	s.mu.Unlock()
	if busy || s.isClosed() {
		return
	}

	sess, err := firstOf(ctx, s.opts.SessionTimeout, s.backend.GetSession)
	if err != nil || sess == nil {
		if !s.markers.Recent(ctx, s.id, s.opts.MarkerWindow) {
			return
		}
		select {
		case <-time.After(s.opts.RetryDelay):
		case <-s.closed:
			return
		case <-ctx.Done():
			return
		}
		sess, err = firstOf(ctx, s.opts.SessionTimeout, s.backend.GetSession)
	}
	if err != nil || sess == nil || s.isClosed() {
		return
	}
	s.applySession(ctx, sess)
}

// applySession resolves the profile behind a confirmed session and
// publishes the user. A profile failure degrades that attempt only —
// it never clears a user resolved earlier.
func (s *Store) applySession(ctx context.Context, sess *backend.Session) {
	s.markers.Mark(ctx, s.id, s.opts.MarkerWindow)

	user, err := s.fetchProfile(ctx, sess)
	if s.isClosed() {
		return
	}

	s.mu.Lock()
	if err != nil || user == nil {
		if s.user == nil && s.state == StateLoading {
			s.state = StateUnauthenticated
		}
	} else {
		s.user = user
		s.state = StateAuthenticated
	}
	s.mu.Unlock()
	s.signalReady()
}

// resolveUnauthenticated only ever transitions loading →
// unauthenticated. An already-resolved user is left alone.
func (s *Store) resolveUnauthenticated() {
	s.mu.Lock()
	if s.state == StateLoading {
		s.state = StateUnauthenticated
		s.user = nil
	}
	s.mu.Unlock()
	s.signalReady()
}

func (s *Store) fetchProfile(ctx context.Context, sess *backend.Session) (*models.User, error) {
	row, err := s.backend.SelectRow(ctx, "profiles", map[string]string{"id": sess.UserID})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return models.UserFromProfile(row, sess.Email), nil
}

// firstOf races op against a timer. Whichever settles first wins; the
// loser is cancelled through its context and its eventual result
// discarded, so a late completion can never be acted on after the
// timeout already was.
func firstOf[T any](ctx context.Context, d time.Duration, op func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := op(ctx)
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
