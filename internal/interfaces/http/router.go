// Package http assembles the gin route tree and the HTTP server around it.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ipfolio/ipfolio/internal/config"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/logging"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/prometheus"
	"github.com/ipfolio/ipfolio/internal/interfaces/http/handlers"
	"github.com/ipfolio/ipfolio/internal/interfaces/http/middleware"
)

// RouterConfig aggregates every handler and middleware the route tree needs.
// Nil handlers leave their routes unregistered, nil middleware is skipped.
type RouterConfig struct {
	PatentHandler  *handlers.PatentHandler
	ImportHandler  *handlers.ImportHandler
	CatalogHandler *handlers.CatalogHandler
	HealthHandler  *handlers.HealthHandler

	AuthMiddleware      *middleware.AuthMiddleware
	LoggingMiddleware   *middleware.LoggingMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
	CORSConfig          *middleware.CORSConfig

	Mode             string // gin mode: "debug" | "release" | "test"
	MaxBodySize      int64
	Logger           logging.Logger
	MetricsCollector prometheus.MetricsCollector
}

// NewRouter builds the complete route tree: public probes and metrics, then
// the authenticated /api/v1 group.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	r := gin.New()

	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.CORSConfig != nil {
		r.Use(middleware.CORS(*cfg.CORSConfig))
	}
	if cfg.LoggingMiddleware != nil {
		r.Use(cfg.LoggingMiddleware.Handler())
	}
	if cfg.MaxBodySize > 0 {
		r.Use(bodyLimit(cfg.MaxBodySize))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	api := r.Group("/api/v1")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.Handler())
	}
	if cfg.RateLimitMiddleware != nil {
		api.Use(cfg.RateLimitMiddleware.Handler())
	}

	registerPatentRoutes(api, cfg.PatentHandler, cfg.ImportHandler)
	registerCatalogRoutes(api, cfg.CatalogHandler)

	return r
}

func registerPatentRoutes(api *gin.RouterGroup, h *handlers.PatentHandler, imp *handlers.ImportHandler) {
	if h == nil {
		return
	}
	patents := api.Group("/patents")
	{
		patents.GET("", h.List)
		patents.POST("", h.Create)
		if imp != nil {
			patents.POST("/import/preview", imp.Preview)
			patents.POST("/import/:clientId", imp.Import)
		}
		patents.GET("/:id", h.Get)
		patents.PUT("/:id", h.Update)
		patents.DELETE("/:id", h.Delete)
		patents.GET("/:id/access", h.Access)
	}
}

func registerCatalogRoutes(api *gin.RouterGroup, h *handlers.CatalogHandler) {
	if h == nil {
		return
	}
	catalogs := api.Group("/catalogs")
	{
		catalogs.GET("/countries", h.ListCountries)
		catalogs.GET("/countries/:id", h.GetCountry)
		catalogs.GET("/statuses", h.ListStatuses)
	}
}

// bodyLimit caps request body size before any handler reads it.
func bodyLimit(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		c.Next()
	}
}

// DefaultRouterConfig fills middleware from the application config. Callers
// still supply the handlers.
func DefaultRouterConfig(appCfg *config.Config, logger logging.Logger, metrics prometheus.MetricsCollector, appMetrics *prometheus.AppMetrics) RouterConfig {
	cors := middleware.DefaultCORSConfig()
	rateCfg := middleware.DefaultRateLimitConfig()
	return RouterConfig{
		AuthMiddleware:      middleware.NewAuthMiddleware(appCfg.Auth, logger, appMetrics),
		LoggingMiddleware:   middleware.NewLoggingMiddleware(middleware.DefaultLoggingConfig(), logger, appMetrics),
		RateLimitMiddleware: middleware.NewRateLimitMiddleware(rateCfg),
		CORSConfig:          &cors,
		Mode:                appCfg.Server.Mode,
		MaxBodySize:         appCfg.Server.MaxBodySize,
		Logger:              logger,
		MetricsCollector:    metrics,
	}
}
