package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mycloudhq/mycloud/internal/repository"
	"github.com/mycloudhq/mycloud/internal/service"
	"github.com/mycloudhq/mycloud/internal/validation"
)

// Error codes exposed in the JSON error envelope.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeConflict        = "CONFLICT"
	CodeLinkExpired     = "LINK_EXPIRED"
	CodeInternalError   = "INTERNAL_ERROR"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		err := json.NewEncoder(w).Encode(v)
		if err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// writeError writes the standard error envelope:
// {"error": {"code": "...", "message": "..."}}
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeServiceError maps service and repository sentinel errors to HTTP
// responses. Anything unrecognized is logged and reported as an opaque
// internal error so storage paths and stack details never leak to clients.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrFileNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, "file not found")
	case errors.Is(err, repository.ErrUserNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, "user not found")
	case errors.Is(err, service.ErrShareLinkExpired):
		writeError(w, http.StatusGone, CodeLinkExpired, "share link has expired")
	case errors.Is(err, service.ErrNameRequired):
		writeError(w, http.StatusBadRequest, CodeValidationError, "name: file name is required")
	case errors.Is(err, validation.ErrInvalidUsername),
		errors.Is(err, validation.ErrInvalidEmail),
		errors.Is(err, validation.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, CodeValidationError, err.Error())
	case errors.Is(err, repository.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, CodeConflict, "username: already taken")
	case errors.Is(err, repository.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, CodeConflict, "email: already in use")
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
	}
}
