package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/mesavista/storefront-core/internal/core/ports"
)

// HealthHandler handles GET /health, the liveness probe.
// Returns 200 immediately; confirms the process is alive.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// ReadinessHandler handles GET /health/ready. It checks that the upstream
// storefront backend answers with JSON and, when Redis backs the session
// store, that Redis responds to a ping.
type ReadinessHandler struct {
	probe ports.Transport
	redis *redis.Client
}

// NewReadinessHandler builds the readiness probe. rdb may be nil when the
// file store is configured.
func NewReadinessHandler(probe ports.Transport, rdb *redis.Client) *ReadinessHandler {
	return &ReadinessHandler{probe: probe, redis: rdb}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *ReadinessHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	deps := make(map[string]dependencyStatus)
	healthy := true

	// Backend: the CSRF endpoint is the cheapest JSON round trip upstream.
	if _, err := h.probe.Send(ctx, http.MethodGet, "/api/csrf-token/", nil, nil); err != nil {
		deps["backend"] = dependencyStatus{Status: "down", Error: err.Error()}
		healthy = false
	} else {
		deps["backend"] = dependencyStatus{Status: "up"}
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			deps["redis"] = dependencyStatus{Status: "down", Error: err.Error()}
			healthy = false
		} else {
			deps["redis"] = dependencyStatus{Status: "up"}
		}
	}

	status := http.StatusOK
	overall := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	return c.JSON(status, readinessResponse{Status: overall, Dependencies: deps})
}
