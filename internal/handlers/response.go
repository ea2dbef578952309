// internal/handlers/response.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ammerola/keuringen-be/internal/core/domain"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func respondError(w http.ResponseWriter, logger *slog.Logger, status int, code, message string) {
	respondJSON(w, logger, status, ErrorResponse{Error: message, Code: code})
}

// respondServiceError maps domain errors to statuses. Anything unknown is
// a 500 and gets logged with the request context.
func respondServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, message string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		respondError(w, logger, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, domain.ErrInspectionNotFound):
		respondError(w, logger, http.StatusNotFound, "not_found", "Inspection not found")
	case errors.Is(err, domain.ErrExportNotFound):
		respondError(w, logger, http.StatusNotFound, "not_found", "Export not found")
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrSessionInvalid):
		respondError(w, logger, http.StatusUnauthorized, "unauthorized", "Invalid credentials")
	case errors.Is(err, domain.ErrFetchFailed):
		logger.ErrorContext(r.Context(), message, slog.String("error", err.Error()))
		respondError(w, logger, http.StatusBadGateway, "fetch_failed", "Failed to fetch inspections")
	default:
		logger.ErrorContext(r.Context(), message, slog.String("error", err.Error()))
		respondError(w, logger, http.StatusInternalServerError, "internal", message)
	}
}

// decodeJSON reads a strict JSON body into dst. It writes the error
// response itself and reports whether the handler may continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			respondError(w, logger, http.StatusRequestEntityTooLarge, "body_too_large", "Request body too large")
			return false
		}
		respondError(w, logger, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return false
	}
	return true
}
