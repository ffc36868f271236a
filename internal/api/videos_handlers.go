package api

import (
	"net/http"
	"strings"

	"github.com/Vishal-jatia/youtube-backend/internal/apperr"
	"github.com/Vishal-jatia/youtube-backend/internal/models"
	"github.com/Vishal-jatia/youtube-backend/internal/storage"
)

type createVideoRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	VideoURL        string `json:"videoUrl"`
	ThumbnailURL    string `json:"thumbnailUrl"`
	DurationSeconds int    `json:"durationSeconds"`
	Published       bool   `json:"published"`
}

type updateVideoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Published   *bool   `json:"published"`
}

// HandleVideos routes the collection endpoint: GET lists the catalogue, POST
// publishes a new entry for the authenticated owner.
func (h *Handler) HandleVideos(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listVideos(w, r)
	case http.MethodPost:
		h.createVideo(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
	}
}

// HandleVideoByID routes a single catalogue entry: GET fetches it and counts
// a view, PATCH and DELETE are restricted to the owner.
func (h *Handler) HandleVideoByID(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/videos/"), "/")
	if id == "" || strings.Contains(id, "/") {
		h.writeAppError(w, r, apperr.NotFound("video not found"))
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.getVideo(w, r, id)
	case http.MethodPatch:
		h.updateVideo(w, r, id)
	case http.MethodDelete:
		h.deleteVideo(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
	}
}

func (h *Handler) listVideos(w http.ResponseWriter, r *http.Request) {
	ownerID := strings.TrimSpace(r.URL.Query().Get("ownerId"))
	includeUnpublished := false
	if user, ok := UserFromContext(r.Context()); ok {
		if ownerID == "me" {
			ownerID = user.ID
		}
		includeUnpublished = ownerID != "" && ownerID == user.ID
	} else if ownerID == "me" {
		h.writeAppError(w, r, apperr.Auth("unauthorized request"))
		return
	}
	videos := h.Store.ListVideos(ownerID, includeUnpublished)
	writeJSON(w, http.StatusOK, map[string][]models.Video{"videos": videos})
}

func (h *Handler) createVideo(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req createVideoRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeAppError(w, r, apperr.Validation("invalid request body"))
		return
	}
	video, err := h.Store.CreateVideo(storage.CreateVideoParams{
		OwnerID:         user.ID,
		Title:           req.Title,
		Description:     req.Description,
		VideoURL:        req.VideoURL,
		ThumbnailURL:    req.ThumbnailURL,
		DurationSeconds: req.DurationSeconds,
		Published:       req.Published,
	})
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]models.Video{"video": video})
}

func (h *Handler) getVideo(w http.ResponseWriter, r *http.Request, id string) {
	video, ok := h.Store.GetVideo(id)
	if !ok {
		h.writeAppError(w, r, apperr.NotFound("video not found"))
		return
	}
	viewer, authed := UserFromContext(r.Context())
	if !video.Published && (!authed || viewer.ID != video.OwnerID) {
		h.writeAppError(w, r, apperr.NotFound("video not found"))
		return
	}
	// Owners previewing their own video do not inflate the count.
	if video.Published && (!authed || viewer.ID != video.OwnerID) {
		if _, err := h.Views.Increment(r.Context(), video.ID); err != nil {
			h.Logger.Warn("view counter increment failed", "video_id", video.ID, "error", err)
		}
		updated, err := h.Store.AddVideoViews(video.ID, 1)
		if err != nil {
			h.Logger.Warn("persist view count failed", "video_id", video.ID, "error", err)
		} else {
			video = updated
		}
	}
	writeJSON(w, http.StatusOK, map[string]models.Video{"video": video})
}

func (h *Handler) updateVideo(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	video, found := h.Store.GetVideo(id)
	if !found {
		h.writeAppError(w, r, apperr.NotFound("video not found"))
		return
	}
	if video.OwnerID != user.ID {
		h.writeAppError(w, r, apperr.Auth("not the video owner"))
		return
	}
	var req updateVideoRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeAppError(w, r, apperr.Validation("invalid request body"))
		return
	}
	if req.Title == nil && req.Description == nil && req.Published == nil {
		h.writeAppError(w, r, apperr.Validation("no fields to update"))
		return
	}
	updated, err := h.Store.UpdateVideo(id, storage.VideoUpdate{
		Title:       req.Title,
		Description: req.Description,
		Published:   req.Published,
	})
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]models.Video{"video": updated})
}

func (h *Handler) deleteVideo(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	video, found := h.Store.GetVideo(id)
	if !found {
		h.writeAppError(w, r, apperr.NotFound("video not found"))
		return
	}
	if video.OwnerID != user.ID {
		h.writeAppError(w, r, apperr.Auth("not the video owner"))
		return
	}
	if err := h.Store.DeleteVideo(id); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "video deleted"})
}
