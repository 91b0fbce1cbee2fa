package api

// responses.go provides helper functions for sending HTTP responses from the API handlers.

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/information-sharing-networks/walletpass/internal/logger"
)

// RespondWithErrorResponse logs err and sends the mapped ErrorResponse as a JSON payload.
//
// Client errors (4xx) are logged at warn, everything else at error.
func RespondWithErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse := MapErrorToResponse(err, r)

	reqLogger := logger.ContextRequestLogger(r.Context())
	level := slog.LevelWarn
	if errorResponse.StatusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	reqLogger.Log(r.Context(), level, "Request failed",
		slog.String("error", err.Error()),
		slog.Int("status_code", errorResponse.StatusCode),
		slog.String("error_code_text", errorResponse.StatusCodeMessage),
		slog.String("request_id", errorResponse.ProviderCorrelationReference),
	)

	RespondWithJSONPayload(w, errorResponse.StatusCode, errorResponse)
}

// RespondWithJSONPayload sends a JSON response with the given status code
func RespondWithJSONPayload(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			// headers are already written
			slog.Error("Failed to encode JSON response",
				slog.String("error", err.Error()),
			)
		}
	}
}

// RespondWithRedirect sends a 302 to location
func RespondWithRedirect(w http.ResponseWriter, r *http.Request, location string) {
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, location, http.StatusFound)
}
