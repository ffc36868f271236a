package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Vishal-jatia/youtube-backend/internal/apperr"
)

var errMethodNotAllowed = errors.New("method not allowed")

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeAppError maps a taxonomy error to its status. Errors outside the
// taxonomy are logged and reported as a generic server failure so internal
// detail never reaches the caller.
func (h *Handler) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.StatusOf(err)
	if status == http.StatusInternalServerError {
		logger := h.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, status, errors.New("internal server error"))
		return
	}
	writeError(w, status, err)
}

func decodeJSON(r *http.Request, dest interface{}) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}
