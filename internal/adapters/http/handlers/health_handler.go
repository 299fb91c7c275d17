package handlers

import (
	"net/http"

	"github.com/mentana/user-service/internal/ports"
)

const statusOK = "ok"

// HealthHandler handles liveness and readiness HTTP endpoints.
type HealthHandler struct {
	registry ports.HealthRegistry
}

// NewHealthHandler creates a new HealthHandler with the given health registry.
func NewHealthHandler(registry ports.HealthRegistry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

// Liveness handles GET /health/live. Always returns 200 OK: the process is
// up, regardless of downstream state.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": statusOK})
}

// healthCheckBody is one probe's outcome in the readiness response.
type healthCheckBody struct {
	Reachable bool   `json:"reachable"`
	Required  bool   `json:"required"`
	Detail    string `json:"detail,omitempty"`
}

// readinessBody is the readiness response.
type readinessBody struct {
	Status string                     `json:"status"`
	Checks map[string]healthCheckBody `json:"checks"`
}

// Readiness handles GET /health/ready. A degraded report still returns 200
// because the service can serve some traffic; only unhealthy returns 503.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	report := h.registry.Check(r.Context())

	checks := make(map[string]healthCheckBody, len(report.Checks))
	for name, res := range report.Checks {
		checks[name] = healthCheckBody{
			Reachable: res.Reachable,
			Required:  res.Required,
			Detail:    res.Detail,
		}
	}

	code := http.StatusOK
	if report.Status == ports.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, readinessBody{
		Status: string(report.Status),
		Checks: checks,
	})
}
