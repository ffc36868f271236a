package api

import (
	"net/http"

	"github.com/Vishal-jatia/youtube-backend/internal/apperr"
	"github.com/Vishal-jatia/youtube-backend/internal/models"
	"github.com/Vishal-jatia/youtube-backend/internal/storage"
)

type updateProfileRequest struct {
	FullName      *string `json:"fullName"`
	Email         *string `json:"email"`
	AvatarURL     *string `json:"avatarUrl"`
	CoverImageURL *string `json:"coverImageUrl"`
}

// HandleCurrentUser serves the authenticated user's profile: GET returns it,
// PATCH updates the mutable fields.
func (h *Handler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]models.User{"user": user})
	case http.MethodPatch:
		h.updateCurrentUser(w, r, user)
	default:
		writeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
	}
}

func (h *Handler) updateCurrentUser(w http.ResponseWriter, r *http.Request, user models.User) {
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeAppError(w, r, apperr.Validation("invalid request body"))
		return
	}
	if req.FullName == nil && req.Email == nil && req.AvatarURL == nil && req.CoverImageURL == nil {
		h.writeAppError(w, r, apperr.Validation("no fields to update"))
		return
	}
	updated, err := h.Store.UpdateUser(user.ID, storage.UserUpdate{
		FullName:      req.FullName,
		Email:         req.Email,
		AvatarURL:     req.AvatarURL,
		CoverImageURL: req.CoverImageURL,
	})
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]models.User{"user": updated.Redacted()})
}
