package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/folio/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
	Kind  string `json:"kind,omitempty" example:"parse_failure"`
	Path  string `json:"path,omitempty" example:"/srv/articles/hello.json"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps service errors onto HTTP responses. Cache failures carry
// their kind and offending path so clients can tell a bad record from an
// unreadable directory.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	case errors.Is(err, apperr.ErrBadRequest):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	kind := apperr.KindOf(err)
	if kind == apperr.KindUnknown {
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindDirectoryUnreadable, apperr.KindFileVanished:
		// Both clear up on their own; a retry usually succeeds.
		status = http.StatusServiceUnavailable
	}
	slog.Error(op+" failed",
		slog.String("kind", kind.String()),
		slog.String("path", apperr.PathOf(err)),
		slog.String("error", err.Error()))
	writeJSON(w, status, errResponse{
		Error: "article collection unavailable",
		Kind:  kind.String(),
		Path:  apperr.PathOf(err),
	})
}
