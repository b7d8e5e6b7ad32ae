package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/logging"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/prometheus"
)

// HealthChecker is implemented by every infrastructure client the readiness
// probe consults.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	components map[string]HealthChecker
	metrics    *prometheus.AppMetrics
	logger     logging.Logger
}

// NewHealthHandler builds the probe handler. metrics may be nil.
func NewHealthHandler(components map[string]HealthChecker, metrics *prometheus.AppMetrics, logger logging.Logger) *HealthHandler {
	return &HealthHandler{components: components, metrics: metrics, logger: logger.Named("health")}
}

// Liveness handles GET /healthz. It only proves the process is serving.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz. It pings every registered component and
// reports per-component state; any failure turns the probe 503.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.components))
	for name, checker := range h.components {
		err := checker.HealthCheck(ctx)
		up := err == nil
		if up {
			results[name] = "up"
		} else {
			results[name] = "down"
			status = http.StatusServiceUnavailable
			h.logger.Warn("component unhealthy", logging.String("component", name), logging.Err(err))
		}
		if h.metrics != nil {
			prometheus.SetComponentHealth(h.metrics, name, up)
		}
	}

	c.JSON(status, gin.H{"status": statusWord(status), "components": results})
}

func statusWord(status int) string {
	if status == http.StatusOK {
		return "ready"
	}
	return "degraded"
}
