package utils

import (
	"fmt"
	"net/http"
	"strings"
)

// APIError is a domain failure with an HTTP status and a machine readable code
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAPIError creates an APIError
func NewAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

// ValidationError reports malformed input
func ValidationError(message string) *APIError {
	return NewAPIError(http.StatusBadRequest, "VALIDATION_ERROR", message)
}

// NotFound reports a missing entity as <ENTITY>_NOT_FOUND
func NotFound(entity, message string) *APIError {
	code := strings.ToUpper(strings.ReplaceAll(entity, " ", "_")) + "_NOT_FOUND"
	return NewAPIError(http.StatusNotFound, code, message)
}

// BadRequest reports a rule violation with a specific code
func BadRequest(code, message string) *APIError {
	return NewAPIError(http.StatusBadRequest, code, message)
}

var (
	ErrUnauthorized = NewAPIError(http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	ErrForbidden    = NewAPIError(http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
	ErrRateLimited  = NewAPIError(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests")
	ErrInternal     = NewAPIError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)
