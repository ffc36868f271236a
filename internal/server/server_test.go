package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Vishal-jatia/youtube-backend/internal/api"
	"github.com/Vishal-jatia/youtube-backend/internal/auth"
	"github.com/Vishal-jatia/youtube-backend/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := storage.NewStore("")
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		AccessSecret:  []byte("access-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshSecret: []byte("refresh-secret"),
		RefreshTTL:    24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenManager returned error: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := api.NewHandler(store, auth.NewService(store, tokens), tokens, api.WithLogger(logger))
	return New(DefaultConfig(), handler, logger)
}

func TestHealthzRoute(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	srv := newTestServer(t)
	protected := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodPost, "/api/auth/change-password"},
		{http.MethodGet, "/api/users/me"},
	}
	for _, route := range protected {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(route.method, route.path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: status = %d, want 401", route.method, route.path, rec.Code)
		}
	}
}

func TestPublicRoutesSkipTheGate(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/videos", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous catalogue list: status = %d, want 200", rec.Code)
	}

	// Register is reachable anonymously; a bad body is a 400, never a 401.
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader("not json")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("register with bad body: status = %d, want 400", rec.Code)
	}
}

func TestEndToEndSessionFlow(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Handler()

	rec := httptest.NewRecorder()
	register := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"username":"alice","email":"alice@example.com","fullName":"Alice","password":"password123"}`))
	handler.ServeHTTP(rec, register)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	login := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"username":"alice","password":"password123"}`))
	handler.ServeHTTP(rec, login)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) < 2 {
		t.Fatalf("expected token cookies, got %d", len(cookies))
	}

	rec = httptest.NewRecorder()
	me := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	for _, cookie := range cookies {
		me.AddCookie(cookie)
	}
	handler.ServeHTTP(rec, me)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile with session cookies: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "alice") {
		t.Fatalf("unexpected profile body: %s", rec.Body.String())
	}
}
