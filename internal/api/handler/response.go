package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/stephen-lakes/optimalvid/internal/auth"
	"github.com/stephen-lakes/optimalvid/internal/domain/model"
	"github.com/stephen-lakes/optimalvid/internal/domain/repository"
	"github.com/stephen-lakes/optimalvid/internal/usecase"
)

// Error codes carried in ErrorResponse.Error.
const (
	CodeInvalidRequest     = "invalid_request"
	CodeValidation         = "validation_error"
	CodeInvalidPagination  = "invalid_pagination"
	CodeDuplicateEmail     = "duplicate_email"
	CodeInvalidCredentials = "invalid_credentials"
	CodeMissingToken       = "missing_token"
	CodeTokenExpired       = "token_expired"
	CodeInvalidToken       = "invalid_token"
	CodeForbidden          = "forbidden"
	CodeUserNotFound       = "user_not_found"
	CodeMediaNotUploaded   = "media_not_uploaded"
	CodeStorageDisabled    = "storage_disabled"
	CodeInternal           = "internal_error"
)

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func Error(w http.ResponseWriter, status int, code string, message string) {
	JSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// MessageResponse is a bare confirmation body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ServiceError maps a usecase error to its HTTP status and body.
// Anything unrecognised is a 500 and is logged with the request ID.
func ServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case model.IsValidationError(err):
		Error(w, http.StatusBadRequest, CodeValidation, err.Error())
	case errors.Is(err, usecase.ErrInvalidPagination):
		Error(w, http.StatusBadRequest, CodeInvalidPagination, err.Error())
	case errors.Is(err, repository.ErrDuplicateEmail):
		Error(w, http.StatusBadRequest, CodeDuplicateEmail, "Email is already registered")
	case errors.Is(err, usecase.ErrInvalidCredentials):
		Error(w, http.StatusUnauthorized, CodeInvalidCredentials, "Invalid email or password")
	case errors.Is(err, auth.ErrTokenExpired):
		Error(w, http.StatusUnauthorized, CodeTokenExpired, "Token has expired")
	case errors.Is(err, auth.ErrTokenMalformed):
		Error(w, http.StatusForbidden, CodeInvalidToken, "Token is invalid")
	case errors.Is(err, repository.ErrVideoNotFound):
		// Missing and foreign videos answer alike.
		Error(w, http.StatusForbidden, CodeForbidden, "Video not found or not owned by caller")
	case errors.Is(err, repository.ErrUserNotFound):
		Error(w, http.StatusNotFound, CodeUserNotFound, "User not found")
	case errors.Is(err, usecase.ErrMediaNotUploaded):
		Error(w, http.StatusConflict, CodeMediaNotUploaded, "Media has not been uploaded")
	case errors.Is(err, usecase.ErrStorageDisabled):
		Error(w, http.StatusServiceUnavailable, CodeStorageDisabled, "Media storage is not configured")
	default:
		slog.Error("request failed",
			"request_id", chimw.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		Error(w, http.StatusInternalServerError, CodeInternal, "An unexpected error occurred")
	}
}

// identity returns the caller attached by the auth middleware, writing a 401 if absent.
func identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		Error(w, http.StatusUnauthorized, CodeMissingToken, "Authorization header is required")
		return auth.Identity{}, false
	}
	return id, true
}
