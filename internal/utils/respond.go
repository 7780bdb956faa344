package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// WriteJSON sends data as a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Debug("failed to write response", zap.Error(err))
	}
}

// WriteError maps err onto the {error, code} body. Anything that is not an
// APIError is logged and reported as a 500.
func WriteError(w http.ResponseWriter, err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		zap.L().Error("unhandled error", zap.Error(err))
		apiErr = ErrInternal
	}
	WriteJSON(w, apiErr.Status, apiErr)
}
