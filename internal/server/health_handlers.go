package server

import (
	"net/http"
	"time"
)

// HealthStatus represents operational status for the /health endpoint.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Catalog   string                 `json:"catalog"`
	Storage   string                 `json:"storage"`
	Tracks    int                    `json:"trackCount"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// handleHealthCheck returns basic liveness + dependency checks.
func (ms *MediaServer) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	health := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Catalog:   "ok",
		Storage:   "ok",
		Details:   make(map[string]interface{}),
	}

	count, err := ms.catalog.CountTracks()
	if err != nil {
		health.Status = "unhealthy"
		health.Catalog = "error"
		health.Details["catalog_error"] = err.Error()
	} else {
		health.Tracks = count
	}

	if _, err := ms.store.List(r.Context()); err != nil {
		health.Status = "unhealthy"
		health.Storage = "error"
		health.Details["storage_error"] = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	if health.Status == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	ms.respondJSON(w, health)
}
