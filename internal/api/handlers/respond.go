package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/clinicops/clinic-flow/backend/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithServiceError maps a typed application error to its HTTP
// status. The error type is included in the body so clients can tell a
// safe-to-retry failure from one that must not be retried.
func respondWithServiceError(w http.ResponseWriter, err error) {
	// The retry helper wraps the last error, so unwrap through the chain.
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Type {
	case apperrors.ErrorTypeNotFound, apperrors.ErrorTypeEmptyQueue:
		status = http.StatusNotFound
	case apperrors.ErrorTypeValidation:
		status = http.StatusBadRequest
	case apperrors.ErrorTypeInvalidState, apperrors.ErrorTypeAlreadyCheckedIn, apperrors.ErrorTypeConflict:
		status = http.StatusConflict
	case apperrors.ErrorTypeAllocationConflict:
		// retries exhausted; nothing was written, the client may try again
		status = http.StatusServiceUnavailable
	case apperrors.ErrorTypeTransactionFailed:
		status = http.StatusInternalServerError
	}

	respondWithJSON(w, status, map[string]string{
		"error": appErr.Message,
		"type":  string(appErr.Type),
	})
}
