// Package handlers implements the HTTP handlers for the coordinator API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gatherworks/coordinator/internal/auth"
	"github.com/gatherworks/coordinator/internal/billing"
	"github.com/gatherworks/coordinator/internal/entitlement"
	"github.com/gatherworks/coordinator/internal/store/postgres"
	"github.com/gatherworks/coordinator/internal/workflow"
)

// APIError represents a standard API error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Common error codes.
const (
	ErrCodeInvalidRequest    = "invalid_request"
	ErrCodeInvalidTransition = "invalid_transition"
	ErrCodeNotFound          = "not_found"
	ErrCodeUnauthorized      = "unauthorized"
	ErrCodeForbidden         = "forbidden"
	ErrCodeEntitlement       = "entitlement_denied"
	ErrCodeGateFailed        = "gate_failed"
	ErrCodeInternalError     = "internal_error"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, &APIError{
		Code:    code,
		Message: message,
	})
}

// WriteErrorWithDetails writes an error response with additional details.
func WriteErrorWithDetails(w http.ResponseWriter, status int, code, message string, details any) {
	WriteJSON(w, status, &APIError{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, message)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// WriteUnauthorized writes a 401 Unauthorized response.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// WriteForbidden writes a 403 Forbidden response.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// WriteDomainError maps service-layer sentinel errors to HTTP responses.
// Cross-event access is 403, absence is 404, bad transitions are 400.
func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workflow.ErrEventNotFound),
		errors.Is(err, workflow.ErrConflictNotFound),
		errors.Is(err, workflow.ErrRevisionNotFound),
		errors.Is(err, postgres.ErrNotFound):
		WriteNotFound(w, err.Error())
	case errors.Is(err, workflow.ErrWrongEvent),
		errors.Is(err, auth.ErrForbidden):
		WriteForbidden(w, "Access denied")
	case errors.Is(err, auth.ErrUnauthorized):
		WriteUnauthorized(w, "Authentication required")
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrNotDelegatable):
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidTransition, err.Error())
	case errors.Is(err, workflow.ErrGateFailed):
		WriteError(w, http.StatusConflict, ErrCodeGateFailed, err.Error())
	case errors.Is(err, entitlement.ErrNotEntitled):
		WriteError(w, http.StatusForbidden, ErrCodeEntitlement, err.Error())
	case errors.Is(err, entitlement.ErrUserNotFound),
		errors.Is(err, billing.ErrUserNotFound):
		WriteNotFound(w, err.Error())
	default:
		WriteInternalError(w, "An unexpected error occurred")
	}
}

// decodeJSON decodes a request body into dst, limiting body size.
func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
