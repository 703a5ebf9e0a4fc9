package handlers

import (
	"blogpress/internal/blog"
	"blogpress/internal/middleware"
	"blogpress/internal/storage"
	"encoding/json"
	"errors"
	"net/http"
)

var (
	ErrInvalidID   = errors.New("invalid blog id")
	ErrInvalidBody = errors.New("invalid request body")
	ErrInvalidPage = errors.New("offset and limit must be non negative integers")
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)

	// compiled html travels as is
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

// ServiceError maps err to a status code. Unexpected errors are logged and
// hidden behind a 500.
func (h *BlogHandler) ServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case blog.IsInvalidInput(err), errors.Is(err, storage.ErrCheckViolation):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalidBody), errors.Is(err, ErrInvalidPage):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "blog not found")
	case errors.Is(err, storage.ErrUniqueViolation):
		writeError(w, http.StatusConflict, "a blog with this title already exists")
	default:
		middleware.LoggerFrom(r.Context(), h.Logger).Error("500 internal server error", "err", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// NotFound answers unknown routes.
func (h *BlogHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	middleware.LoggerFrom(r.Context(), h.Logger).Warn("404 not found", "path", r.URL.Path, "method", r.Method)
	writeError(w, http.StatusNotFound, "not found")
}
