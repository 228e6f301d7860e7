package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthHandler handles health check requests for liveness probes.
type HealthHandler struct{}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// ServeHTTP implements http.Handler for liveness checks.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

// ReadyCheck probes one dependency. A non-nil error marks the gateway
// not ready.
type ReadyCheck func(ctx context.Context) error

// ReadyHandler handles readiness check requests by probing the gateway's
// storage dependencies.
type ReadyHandler struct {
	checks map[string]ReadyCheck
}

// NewReadyHandler creates a new readiness check handler.
func NewReadyHandler(checks map[string]ReadyCheck) *ReadyHandler {
	return &ReadyHandler{checks: checks}
}

// ServeHTTP implements http.Handler for readiness checks.
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	ready := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			ready = false
		} else {
			results[name] = "ok"
		}
	}

	status := "ready"
	statusCode := http.StatusOK
	if !ready {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, map[string]any{
		"status":    status,
		"checks":    results,
		"timestamp": time.Now().Unix(),
	})
}
