package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

func encodeSegment(v any) string {
	data, _ := json.Marshal(v)
	return base64.RawURLEncoding.EncodeToString(data)
}

func token(claims map[string]any) string {
	header := encodeSegment(map[string]string{"alg": "none", "typ": "JWT"})
	return fmt.Sprintf("%s.%s.", header, encodeSegment(claims))
}

func TestParseRemoteToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	claims, err := ParseRemoteToken(token(map[string]any{
		"sub":   "u1",
		"email": "a@b.com",
		"role":  "authenticated",
		"exp":   exp,
	}))
	if err != nil {
		t.Fatalf("ParseRemoteToken failed: %v", err)
	}
	if claims.UserID != "u1" || claims.Email != "a@b.com" || claims.Role != "authenticated" {
		t.Errorf("Unexpected claims: %+v", claims)
	}
	if claims.ExpiresAt.Unix() != exp {
		t.Errorf("Unexpected expiry: %v", claims.ExpiresAt)
	}
}

func TestParseRemoteTokenRequiresSubject(t *testing.T) {
	if _, err := ParseRemoteToken(token(map[string]any{"email": "a@b.com"})); err == nil {
		t.Fatal("Expected an error for a token without a subject")
	}
}

func TestParseRemoteTokenGarbage(t *testing.T) {
	if _, err := ParseRemoteToken("not-a-token"); err == nil {
		t.Fatal("Expected an error for a malformed token")
	}
}

func TestTokenExpired(t *testing.T) {
	live := token(map[string]any{"sub": "u1", "exp": time.Now().Add(time.Hour).Unix()})
	if TokenExpired(live, 10*time.Second) {
		t.Error("Expected a live token not expired")
	}

	soon := token(map[string]any{"sub": "u1", "exp": time.Now().Add(5 * time.Second).Unix()})
	if !TokenExpired(soon, 10*time.Second) {
		t.Error("Expected a token inside the leeway treated as expired")
	}

	noExp := token(map[string]any{"sub": "u1"})
	if !TokenExpired(noExp, 0) {
		t.Error("Expected a token without exp treated as expired")
	}

	if !TokenExpired("garbage", 0) {
		t.Error("Expected garbage treated as expired")
	}
}
