package api

import (
	"net/http"
	"strings"

	"github.com/Vishal-jatia/youtube-backend/internal/apperr"
	"github.com/Vishal-jatia/youtube-backend/internal/auth"
	"github.com/Vishal-jatia/youtube-backend/internal/models"
)

type registerRequest struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	FullName      string `json:"fullName"`
	Password      string `json:"password"`
	AvatarURL     string `json:"avatarUrl"`
	CoverImageURL string `json:"coverImageUrl"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type sessionResponse struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// HandleRegister creates a new user account. Secrets never appear in the
// response; the caller logs in separately to start a session.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeAppError(w, r, apperr.Validation("invalid request body"))
		return
	}
	user, err := h.Auth.Register(auth.RegisterParams{
		Username:      req.Username,
		Email:         req.Email,
		FullName:      req.FullName,
		Password:      req.Password,
		AvatarURL:     req.AvatarURL,
		CoverImageURL: req.CoverImageURL,
	})
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]models.User{"user": user.Redacted()})
}

// HandleLogin verifies credentials and starts a session. The token pair is
// returned in the body and mirrored into HttpOnly cookies.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeAppError(w, r, apperr.Validation("invalid request body"))
		return
	}
	identifier := strings.TrimSpace(req.Username)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}
	user, pair, err := h.Auth.Login(identifier, req.Password)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	h.setTokenCookies(w, r, pair.AccessToken, pair.RefreshToken)
	writeJSON(w, http.StatusOK, sessionResponse{
		User:         user.Redacted(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// HandleLogout ends the caller's session and clears the token cookies.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	if err := h.Auth.Logout(user.ID); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	h.clearTokenCookies(w, r)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleRefresh rotates the refresh token. The presented token comes from the
// refresh cookie or, failing that, the request body.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}
	presented := ""
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		presented = strings.TrimSpace(cookie.Value)
	}
	if presented == "" {
		var req refreshRequest
		if err := decodeJSON(r, &req); err == nil {
			presented = strings.TrimSpace(req.RefreshToken)
		}
	}
	pair, err := h.Auth.Refresh(presented)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	h.setTokenCookies(w, r, pair.AccessToken, pair.RefreshToken)
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// HandleChangePassword verifies the old password and stores a new hash. The
// current session stays valid.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeAppError(w, r, apperr.Validation("invalid request body"))
		return
	}
	if err := h.Auth.ChangePassword(user.ID, req.OldPassword, req.NewPassword); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}
