// Package api exposes the HTTP surface: authentication endpoints, the
// current-user profile, and the video catalogue. Handlers translate between
// JSON requests and the auth service and datastore, and map taxonomy errors
// to status codes.
package api

import (
	"log/slog"
	"net/http"

	"github.com/Vishal-jatia/youtube-backend/internal/auth"
	"github.com/Vishal-jatia/youtube-backend/internal/stats"
	"github.com/Vishal-jatia/youtube-backend/internal/storage"
)

// Handler bundles the dependencies shared by the HTTP endpoints.
type Handler struct {
	Store        storage.Repository
	Auth         *auth.Service
	Tokens       *auth.TokenManager
	Views        stats.ViewCounter
	Logger       *slog.Logger
	CookiePolicy CookiePolicy
}

// NewHandler constructs the API handler. A nil view counter falls back to an
// in-memory one and a nil logger falls back to slog.Default.
func NewHandler(store storage.Repository, authService *auth.Service, tokens *auth.TokenManager, opts ...HandlerOption) *Handler {
	h := &Handler{
		Store:        store,
		Auth:         authService,
		Tokens:       tokens,
		Views:        stats.NewMemoryViewCounter(),
		Logger:       slog.Default(),
		CookiePolicy: DefaultCookiePolicy(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// HandlerOption configures optional Handler dependencies.
type HandlerOption func(*Handler)

// WithViewCounter swaps the view counter implementation.
func WithViewCounter(views stats.ViewCounter) HandlerOption {
	return func(h *Handler) {
		if views != nil {
			h.Views = views
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.Logger = logger
		}
	}
}

// WithCookiePolicy overrides the cookie attributes applied to token cookies.
func WithCookiePolicy(policy CookiePolicy) HandlerOption {
	return func(h *Handler) {
		h.CookiePolicy = policy
	}
}

// Healthz reports process liveness and datastore reachability.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}
	if err := h.Store.Ping(r.Context()); err != nil {
		h.Logger.Error("datastore ping failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
