// Package app is the composition root: it wires configuration, storage,
// messaging, services and the HTTP transport into runnable units.
package app

import (
	"context"

	"github.com/ipfolio/ipfolio/internal/application/importer"
	patentapp "github.com/ipfolio/ipfolio/internal/application/patent"
	"github.com/ipfolio/ipfolio/internal/config"
	"github.com/ipfolio/ipfolio/internal/domain/catalog"
	"github.com/ipfolio/ipfolio/internal/infrastructure/database/postgres"
	"github.com/ipfolio/ipfolio/internal/infrastructure/database/postgres/repositories"
	"github.com/ipfolio/ipfolio/internal/infrastructure/database/redis"
	"github.com/ipfolio/ipfolio/internal/infrastructure/messaging/kafka"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/logging"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/prometheus"
	"github.com/ipfolio/ipfolio/internal/infrastructure/storage/minio"
	httpapi "github.com/ipfolio/ipfolio/internal/interfaces/http"
	"github.com/ipfolio/ipfolio/internal/interfaces/http/handlers"
)

// App bundles everything the API server needs, with a single Close.
type App struct {
	Config *config.Config
	Logger logging.Logger

	Pool      *postgres.Pool
	Redis     *redis.Client
	Minio     *minio.Client
	Publisher *kafka.Publisher

	Patents   patentapp.Service
	Imports   importer.Service
	Countries catalog.CountryRepository
	Statuses  catalog.StatusRepository

	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics

	Server *httpapi.Server
}

// New wires the full API server. Optional infrastructure (redis, kafka,
// minio) is skipped when unconfigured; the services degrade to their
// store-only behavior.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	pool, err := postgres.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	a.Pool = pool

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "ipfolio",
		Subsystem:            "api",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Collector = collector
	a.Metrics = prometheus.NewAppMetrics(collector)

	patentRepo := repositories.NewPatentRepository(pool.Pool, logger)
	directory := repositories.NewPartyDirectory(pool.Pool)
	a.Countries = repositories.NewCountryRepository(pool.Pool)
	a.Statuses = repositories.NewStatusRepository(pool.Pool)

	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Redis = rdb
		a.Countries = redis.NewCachedCountryRepository(a.Countries, rdb, a.Metrics, logger)
		a.Statuses = redis.NewCachedStatusRepository(a.Statuses, rdb, a.Metrics, logger)
	}

	var publisher patentapp.EventPublisher = patentapp.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		a.Publisher = kafka.NewPublisher(cfg.Kafka, logger)
		publisher = a.Publisher
	}

	a.Patents = patentapp.NewService(patentRepo, directory, a.Countries, a.Statuses, publisher, a.Metrics, logger)

	var archiver importer.Archiver
	if cfg.Import.ArchiveUploads && cfg.MinIO.Endpoint != "" {
		mc, err := minio.NewClient(ctx, cfg.MinIO, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Minio = mc
		store := minio.NewArchiveStore(mc, cfg.Import.ArchiveBucket, logger)
		if err := mc.EnsureBucket(ctx, cfg.Import.ArchiveBucket); err != nil {
			a.Close()
			return nil, err
		}
		archiver = store
	}
	a.Imports = importer.NewService(a.Patents, a.Countries, a.Statuses, archiver, cfg.Import.MaxRows, a.Metrics, logger)

	routerCfg := httpapi.DefaultRouterConfig(cfg, logger, collector, a.Metrics)
	routerCfg.PatentHandler = handlers.NewPatentHandler(a.Patents, logger)
	routerCfg.ImportHandler = handlers.NewImportHandler(a.Imports, logger)
	routerCfg.CatalogHandler = handlers.NewCatalogHandler(a.Countries, a.Statuses)
	routerCfg.HealthHandler = handlers.NewHealthHandler(a.healthComponents(), a.Metrics, logger)

	a.Server = httpapi.NewServer(cfg.Server, httpapi.NewRouter(routerCfg), logger)
	return a, nil
}

func (a *App) healthComponents() map[string]handlers.HealthChecker {
	components := map[string]handlers.HealthChecker{
		"postgres": a.Pool,
	}
	if a.Redis != nil {
		components["redis"] = a.Redis
	}
	if a.Minio != nil {
		components["minio"] = a.Minio
	}
	return components
}

// Run serves HTTP until ctx is canceled, then drains.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- a.Server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	return a.Server.Stop(context.Background())
}

// Close releases every held connection. Safe to call on a partially built
// App.
func (a *App) Close() {
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			a.Logger.Warn("closing event publisher", logging.Err(err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("closing redis client", logging.Err(err))
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
