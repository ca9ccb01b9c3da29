package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Ruhancpereira/conectacond.site/internal/auth"
)

// Session is the backend-issued proof of authentication. The core only
// cares about presence/absence and the identity attached to it; the
// tokens themselves are opaque.
type Session struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	Email        string
	ExpiresAt    time.Time
}

// Expired reports whether the access token is past (or within leeway of)
// its expiry and needs a refresh before being sent anywhere.
func (s *Session) Expired(leeway time.Duration) bool {
	if s == nil {
		return true
	}
	return time.Now().Add(leeway).After(s.ExpiresAt)
}

// AuthEvent is delivered to subscribers whenever the client observes a
// session change. Session == nil means the backend reported signed-out;
// consumers decide what that signal is worth (the session store
// deliberately ignores it unless the app itself initiated logout).
type AuthEvent struct {
	Session *Session
}

// Subscription is an explicit handle on the auth-state event stream.
// Always call Unsubscribe when the consumer goes away, otherwise the
// handler leaks across remounts.
type Subscription struct {
	C      <-chan AuthEvent
	cancel func()
}

// Unsubscribe detaches the subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Subscribe registers a listener for auth-state changes. Events are
// delivered best-effort: a slow consumer drops events rather than
// blocking the client.
func (c *Client) Subscribe() *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan AuthEvent, 8)
	c.subs[id] = ch

	return &Subscription{
		C: ch,
		cancel: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		},
	}
}

func (c *Client) emit(ev AuthEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (c *Client) currentSession() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	copied := *c.session
	return &copied
}

func (c *Client) setSession(s *Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

// tokenResponse is the identity endpoint's grant response.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (c *Client) sessionFromToken(tr tokenResponse) *Session {
	s := &Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		UserID:       tr.User.ID,
		Email:        tr.User.Email,
	}
	if tr.ExpiresIn > 0 {
		s.ExpiresAt = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	// Fill identity and expiry from the token claims when the grant
	// response leaves them out.
	if claims, err := auth.ParseRemoteToken(tr.AccessToken); err == nil {
		if s.UserID == "" {
			s.UserID = claims.UserID
		}
		if s.Email == "" {
			s.Email = claims.Email
		}
		if s.ExpiresAt.IsZero() {
			s.ExpiresAt = claims.ExpiresAt
		}
	}
	return s
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	data, err := c.do(ctx, http.MethodPost, "/auth/v1/token", "grant_type=password", body, "", nil)
	if err != nil {
		return nil, err
	}
	var tr tokenResponse
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, err
	}
	if tr.AccessToken == "" {
		return nil, errors.New("backend: sign-in response carried no session")
	}
	sess := c.sessionFromToken(tr)
	c.setSession(sess)
	c.emit(AuthEvent{Session: sess})
	return c.currentSession(), nil
}

// refresh exchanges the refresh token for a new session. A definitive
// rejection (4xx) discards the local session; transport failures leave
// it in place so a later attempt can still succeed.
func (c *Client) refresh(ctx context.Context, refreshToken string) (*Session, error) {
	body := map[string]string{"refresh_token": refreshToken}
	data, err := c.do(ctx, http.MethodPost, "/auth/v1/token", "grant_type=refresh_token", body, "", nil)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) && reqErr.Status >= 400 && reqErr.Status < 500 {
			c.setSession(nil)
			c.emit(AuthEvent{Session: nil})
			return nil, nil
		}
		return nil, err
	}
	var tr tokenResponse
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, err
	}
	sess := c.sessionFromToken(tr)
	c.setSession(sess)
	c.emit(AuthEvent{Session: sess})
	return c.currentSession(), nil
}

// GetSession resolves the current session, hitting the identity service
// so the answer reflects the server, not a local cache. Returns
// (nil, nil) when there is definitively no session; errors mean the
// question could not be answered (timeout, connectivity) and must NOT be
// read as "signed out".
func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	sess := c.currentSession()
	if sess == nil {
		return nil, nil
	}
	if sess.Expired(30 * time.Second) {
		return c.refresh(ctx, sess.RefreshToken)
	}

	// Validate against the server; a cached token can outlive the
	// session it belongs to.
	_, err := c.do(ctx, http.MethodGet, "/auth/v1/user", "", nil, sess.AccessToken, nil)
	if err == nil {
		return sess, nil
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Status == http.StatusUnauthorized {
		return c.refresh(ctx, sess.RefreshToken)
	}
	return nil, err
}

// SignOut revokes the session with the backend and drops it locally.
// The local state is cleared even when the revoke call fails.
func (c *Client) SignOut(ctx context.Context) error {
	sess := c.currentSession()
	c.setSession(nil)
	c.emit(AuthEvent{Session: nil})
	if sess == nil {
		return nil
	}
	_, err := c.do(ctx, http.MethodPost, "/auth/v1/logout", "", nil, sess.AccessToken, nil)
	return err
}

// SignUp registers a new identity with profile metadata the backend
// copies into the profiles collection.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) error {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     metadata,
	}
	_, err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", body, "", nil)
	return err
}

// ResetPassword asks the identity service to send a password-reset
// email.
func (c *Client) ResetPassword(ctx context.Context, email string) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/v1/recover", "", map[string]string{"email": email}, "", nil)
	return err
}
