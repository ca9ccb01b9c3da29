package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// The backend issues and verifies its own access tokens; we never hold
// the signing secret. What we CAN do locally is read the claims, which
// is enough to know who a token belongs to and when it dies — the
// billing bridge uses that to tell "your session went stale, log in
// again" apart from a genuine provider rejection.

// RemoteClaims is the subset of the access-token claims this core uses.
type RemoteClaims struct {
	UserID    string
	Email     string
	Role      string
	ExpiresAt time.Time
}

// ParseRemoteToken decodes the claims of a backend-issued access token
// WITHOUT verifying the signature. Never use this to grant access; only
// the backend can vouch for a token. It exists for expiry inspection
// and identity display.
func ParseRemoteToken(tokenString string) (*RemoteClaims, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, err
	}

	out := &RemoteClaims{}
	if sub, ok := claims["sub"].(string); ok {
		out.UserID = sub
	}
	if email, ok := claims["email"].(string); ok {
		out.Email = email
	}
	if role, ok := claims["role"].(string); ok {
		out.Role = role
	}
	if exp, ok := claims["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(exp), 0)
	}
	if out.UserID == "" {
		return nil, errors.New("token carries no subject claim")
	}
	return out, nil
}

// TokenExpired reports whether the token is past (or within leeway of)
// its expiry claim. Tokens without an exp claim are treated as expired;
// the backend never issues those.
func TokenExpired(tokenString string, leeway time.Duration) bool {
	claims, err := ParseRemoteToken(tokenString)
	if err != nil || claims.ExpiresAt.IsZero() {
		return true
	}
	return time.Now().Add(leeway).After(claims.ExpiresAt)
}
