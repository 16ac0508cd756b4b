package handler

import (
	"encoding/json"
	"net/http"

	"pdf-intake/internal/domain"
	apperrors "pdf-intake/pkg/errors"
)

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response (helper function)
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeAppError maps err to its HTTP status and writes the public message.
// Server-side failures are logged with their cause.
func writeAppError(w http.ResponseWriter, r *http.Request, logger domain.Logger, err error) {
	status := apperrors.GetStatusCode(err)
	logServerError(logger, r, status, err)
	writeError(w, status, apperrors.PublicMessage(err))
}

func logServerError(logger domain.Logger, r *http.Request, status int, err error) {
	if status < http.StatusInternalServerError {
		return
	}
	// Failures of the hosted conversion and keyword services are not ours.
	if apperrors.IsType(err, apperrors.ErrorTypeUpstream) || apperrors.IsType(err, apperrors.ErrorTypeNetwork) {
		logger.Warn("Upstream request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err,
		)
		return
	}
	logger.Error("Request failed", err,
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"request_id", RequestIDFromContext(r.Context()),
	)
}
