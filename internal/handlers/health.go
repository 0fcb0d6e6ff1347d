package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/jpgoodman17/SPN-Site-Search/internal/middleware"
)

const (
	// APIVersion is the current version of the API
	APIVersion = "0.1.0"
	// HealthCheckTimeout bounds the upstream reachability check
	HealthCheckTimeout = 5 * time.Second
)

// ReadinessProbe checks that the remote GIS services are reachable.
type ReadinessProbe interface {
	Check(ctx context.Context) error
}

// HealthHandler handles health check and readiness endpoints.
type HealthHandler struct {
	probe      ReadinessProbe
	clock      clockwork.Clock
	startTime  time.Time
	env        string
	skipRemote bool
}

// NewHealthHandler creates a new HealthHandler instance. probe may be nil
// when the service runs offline.
func NewHealthHandler(probe ReadinessProbe, clock clockwork.Clock, env string, skipRemote bool) *HealthHandler {
	return &HealthHandler{
		probe:      probe,
		clock:      clock,
		startTime:  clock.Now(),
		env:        env,
		skipRemote: skipRemote,
	}
}

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status string `json:"status"`
	ArcGIS string `json:"arcgis"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Uptime      string `json:"uptime"`
	SkipRemote  bool   `json:"skip_remote"`
}

// Health handles GET /health. It checks no dependencies.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy"})
}

// Ready handles GET /health/ready. Offline deployments are always ready;
// otherwise the ArcGIS portal must answer within HealthCheckTimeout.
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.skipRemote || h.probe == nil {
		c.JSON(http.StatusOK, ReadyResponse{Status: "ready", ArcGIS: "skipped"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	if err := h.probe.Check(ctx); err != nil {
		if log := middleware.GetLogger(c); log != nil {
			log.Error("ArcGIS readiness check failed", err, map[string]interface{}{
				"timeout": HealthCheckTimeout.String(),
			})
		}
		c.JSON(http.StatusServiceUnavailable, ReadyResponse{Status: "not_ready", ArcGIS: "unreachable"})
		return
	}

	c.JSON(http.StatusOK, ReadyResponse{Status: "ready", ArcGIS: "reachable"})
}

// Info handles GET /api/v1/info.
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Version:     APIVersion,
		Environment: h.env,
		Uptime:      formatUptime(h.clock.Since(h.startTime)),
		SkipRemote:  h.skipRemote,
	})
}

// formatUptime formats a duration into a human-readable string.
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
