package handlers

import (
	"context"
	"net/http"
)

// ReadinessChecker is implemented by database.Queries
type ReadinessChecker interface {
	IsDatabaseRunning(ctx context.Context) (bool, error)
}

// HandleHealth godoc
//
//	@Summary		Health (liveness) Check
//	@Description	Check if the HTTP service is alive and responding.
//	@Tags			Common
//	@Produce		plain
//
//	@Success		200	{string}	string	"OK"
//
//	@Router			/health/live [get]
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// HandleReadiness godoc
//
//	@Summary		Readiness Check
//	@Description	Checks if the service is ready to accept traffic (includes database connectivity)
//	@Tags			Common
//	@Produce		json
//	@Success		200	{object}	map[string]string	"status ready"
//	@Failure		503	{object}	map[string]string	"status not ready"
//	@Router			/health/ready [get]
func HandleReadiness(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		running, err := checker.IsDatabaseRunning(r.Context())
		if err != nil || !running {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"not ready","reason":"database unavailable"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}
}
