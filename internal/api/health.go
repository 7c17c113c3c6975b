package api

import (
	"context"
	"net/http"
	"time"

	"github.com/shabelingo/shabelingo-api/internal/api/shared"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// HealthHandler returns a handler that reports 200 when the database answers
// a ping within two seconds and 503 otherwise. A nil db (in-memory store) is
// always healthy.
func HealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok", Database: "memory"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, "Database unavailable", err)
			return
		}
		shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok", Database: "up"})
	}
}
