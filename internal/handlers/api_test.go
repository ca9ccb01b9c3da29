package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Ruhancpereira/conectacond.site/internal/backend"
	"github.com/Ruhancpereira/conectacond.site/internal/handlers"
	"github.com/Ruhancpereira/conectacond.site/internal/kv"
	"github.com/Ruhancpereira/conectacond.site/internal/routes"
	"github.com/Ruhancpereira/conectacond.site/internal/session"
	"github.com/gin-gonic/gin"
)

// fakeRemote simulates the remote backend: identity endpoints plus a
// couple of collections, just enough for the protocol round trips.
func fakeRemote(t *testing.T) *httptest.Server {
	t.Helper()

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	profiles := map[string]map[string]any{
		"u-admin": {"id": "u-admin", "name": "Admin", "role": "superAdmin", "condo_id": "condo1"},
		"u-res":   {"id": "u-res", "name": "Morador", "role": "resident", "condo_id": "condo1"},
	}
	passwords := map[string]string{
		"admin@conectacond.site":   "u-admin",
		"morador@conectacond.site": "u-res",
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/auth/v1/health":
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})

		case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "password":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			userID, ok := passwords[body["email"]]
			if !ok || body["password"] != "correta" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error_description": "Invalid login credentials"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token":  "access-" + userID,
				"refresh_token": "refresh-" + userID,
				"expires_in":    3600,
				"user":          map[string]string{"id": userID, "email": body["email"]},
			})

		case r.URL.Path == "/auth/v1/user":
			writeJSON(w, http.StatusOK, map[string]string{"id": "whoever"})

		case r.URL.Path == "/auth/v1/logout":
			w.WriteHeader(http.StatusNoContent)

		case r.URL.Path == "/rest/v1/profiles":
			if vals, ok := r.URL.Query()["id"]; ok && strings.HasPrefix(vals[0], "eq.") {
				if row, ok := profiles[strings.TrimPrefix(vals[0], "eq.")]; ok {
					writeJSON(w, http.StatusOK, []map[string]any{row})
					return
				}
				writeJSON(w, http.StatusOK, []map[string]any{})
				return
			}
			rows := make([]map[string]any, 0, len(profiles))
			for _, row := range profiles {
				rows = append(rows, row)
			}
			writeJSON(w, http.StatusOK, rows)

		case r.URL.Path == "/rest/v1/licenses":
			writeJSON(w, http.StatusOK, []map[string]any{
				{"id": "lic1", "condo_id": "condo1", "plan_type": "basic", "status": "active"},
			})

		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "no route"})
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	remote := fakeRemote(t)
	cfg := backend.Config{URL: remote.URL, AnonKey: "anon-key"}
	probe, err := backend.NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	store, err := kv.New("")
	if err != nil {
		t.Fatalf("kv.New failed: %v", err)
	}
	registry := session.NewRegistry(func() (*backend.Client, error) {
		return backend.NewClient(cfg)
	}, session.NewMarkers(store), session.Options{})

	return routes.SetupRouter(&handlers.Handlers{
		Cfg:      cfg,
		Probe:    probe,
		Sessions: registry,
		BaseURL:  "https://conectacond.site",
	})
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func loginAdmin(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/v1/auth/login", "",
		`{"email":"admin@conectacond.site","password":"correta","role":"superAdmin"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Token == "" {
		t.Fatal("login returned no session token")
	}
	return resp.Token
}

func TestLoginAndListLicenses(t *testing.T) {
	router := newTestRouter(t)
	token := loginAdmin(t, router)

	w := doJSON(t, router, http.MethodGet, "/v1/admin/licenses", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list licenses returned %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "lic1") {
		t.Errorf("Expected the seeded license in the response, got %s", w.Body.String())
	}
}

func TestLoginWrongPassword(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/auth/login", "",
		`{"email":"admin@conectacond.site","password":"errada","role":"superAdmin"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "invalid_credentials") {
		t.Errorf("Expected the error kind in the response, got %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "diagnostics") {
		t.Errorf("Expected the diagnostics record, got %s", w.Body.String())
	}
}

func TestLoginRoleMismatch(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/auth/login", "",
		`{"email":"morador@conectacond.site","password":"correta","role":"superAdmin"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "access_denied") {
		t.Errorf("Expected access_denied, got %s", w.Body.String())
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/v1/admin/licenses", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without a token, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/v1/admin/licenses", "desconhecido", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 for an unknown token, got %d", w.Code)
	}
}

func TestAdminListsProfiles(t *testing.T) {
	router := newTestRouter(t)
	token := loginAdmin(t, router)

	w := doJSON(t, router, http.MethodGet, "/v1/admin/profiles", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list profiles returned %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "u-admin") || !strings.Contains(w.Body.String(), "u-res") {
		t.Errorf("Expected both profiles in the response, got %s", w.Body.String())
	}
}

func TestResumeFreshSessionResolves(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/auth/resume", "", `{}`)
	if w.Code != http.StatusOK {
		t.Fatalf("resume returned %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
		State string `json:"state"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Token == "" {
		t.Error("Expected a session token")
	}
	// A fresh session with no backend session resolves definitively.
	if resp.State != "unauthenticated" {
		t.Errorf("Expected unauthenticated, got %q", resp.State)
	}
}

func TestResumeKnownSession(t *testing.T) {
	router := newTestRouter(t)
	token := loginAdmin(t, router)

	w := doJSON(t, router, http.MethodPost, "/v1/auth/resume", "", `{"token":"`+token+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("resume returned %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"state":"authenticated"`) {
		t.Errorf("Expected the session restored, got %s", w.Body.String())
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	router := newTestRouter(t)
	token := loginAdmin(t, router)

	w := doJSON(t, router, http.MethodPost, "/v1/auth/logout", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("logout returned %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/v1/admin/licenses", token, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected the token dead after logout, got %d", w.Code)
	}
}

func TestConfigStatus(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/v1/config", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("config returned %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"configured":true`) {
		t.Errorf("Expected configured true, got %s", w.Body.String())
	}
}
