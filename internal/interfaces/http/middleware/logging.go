package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/logging"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/prometheus"
)

// LoggingConfig tunes the request logger.
type LoggingConfig struct {
	// SkipPaths are not logged (health probes, metrics scrapes).
	SkipPaths []string
	// SlowThreshold marks requests logged at warn level.
	SlowThreshold time.Duration
}

func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:     []string{"/healthz", "/readyz", "/metrics"},
		SlowThreshold: 3 * time.Second,
	}
}

// LoggingMiddleware logs one line per request and feeds the HTTP metrics.
type LoggingMiddleware struct {
	cfg     LoggingConfig
	skip    map[string]struct{}
	logger  logging.Logger
	metrics *prometheus.AppMetrics
}

// NewLoggingMiddleware builds the request logger. metrics may be nil.
func NewLoggingMiddleware(cfg LoggingConfig, logger logging.Logger, metrics *prometheus.AppMetrics) *LoggingMiddleware {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	return &LoggingMiddleware{cfg: cfg, skip: skip, logger: logger.Named("http"), metrics: metrics}
}

func (m *LoggingMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := m.skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		done := prometheus.TrackActiveRequest(m.metrics, c.Request.Method)
		c.Next()
		done()
		elapsed := time.Since(start)

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		prometheus.RecordHTTPRequest(m.metrics, c.Request.Method, path, status, elapsed)

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", path),
			logging.Int("status", status),
			logging.Duration("elapsed", elapsed),
			logging.String("client_ip", c.ClientIP()),
			logging.Int("size", c.Writer.Size()),
		}
		if p, ok := PrincipalFrom(c); ok {
			fields = append(fields, logging.String("user_id", p.UserID), logging.String("role", string(p.Role)))
		}

		switch {
		case status >= 500:
			m.logger.Error("request failed", fields...)
		case elapsed > m.cfg.SlowThreshold && m.cfg.SlowThreshold > 0:
			m.logger.Warn("slow request", fields...)
		default:
			m.logger.Info("request", fields...)
		}
	}
}
