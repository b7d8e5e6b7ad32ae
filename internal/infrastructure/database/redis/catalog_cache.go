package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/redis/go-redis/v9"

	"github.com/ipfolio/ipfolio/internal/domain/catalog"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/logging"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/prometheus"
)

// CachedCountryRepository decorates a country repository with an advisory
// redis cache. Only List is cached; id lookups and ExistAll always hit the
// store because write-time validation must see committed state. Cache
// failures degrade to the inner repository, never to an error.
type CachedCountryRepository struct {
	inner   catalog.CountryRepository
	client  *Client
	metrics *prometheus.AppMetrics
	logger  logging.Logger
}

// NewCachedCountryRepository decorates inner with the redis list cache.
// metrics may be nil.
func NewCachedCountryRepository(inner catalog.CountryRepository, client *Client, metrics *prometheus.AppMetrics, logger logging.Logger) *CachedCountryRepository {
	return &CachedCountryRepository{inner: inner, client: client, metrics: metrics, logger: logger.Named("country_cache")}
}

var _ catalog.CountryRepository = (*CachedCountryRepository)(nil)

func (r *CachedCountryRepository) List(ctx context.Context) ([]catalog.Country, error) {
	key := r.client.key("catalog", "countries")
	if cached, err := r.client.rdb.Get(ctx, key).Bytes(); err == nil {
		var out []catalog.Country
		if err := json.Unmarshal(cached, &out); err == nil {
			prometheus.RecordCacheAccess(r.metrics, "countries", true)
			return out, nil
		}
	} else if !stderrors.Is(err, redis.Nil) {
		r.logger.Warn("country cache read failed", logging.Err(err))
	}
	prometheus.RecordCacheAccess(r.metrics, "countries", false)

	out, err := r.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(out); err == nil {
		if err := r.client.rdb.Set(ctx, key, payload, r.client.ttl).Err(); err != nil {
			r.logger.Warn("country cache write failed", logging.Err(err))
		}
	}
	return out, nil
}

func (r *CachedCountryRepository) GetByID(ctx context.Context, id int64) (*catalog.Country, error) {
	return r.inner.GetByID(ctx, id)
}

func (r *CachedCountryRepository) GetByAlpha2(ctx context.Context, alpha2 string) (*catalog.Country, error) {
	return r.inner.GetByAlpha2(ctx, alpha2)
}

func (r *CachedCountryRepository) ExistAll(ctx context.Context, ids []int64) ([]int64, error) {
	return r.inner.ExistAll(ctx, ids)
}

// Invalidate drops the cached list after a catalog edit.
func (r *CachedCountryRepository) Invalidate(ctx context.Context) {
	if err := r.client.rdb.Del(ctx, r.client.key("catalog", "countries")).Err(); err != nil {
		r.logger.Warn("country cache invalidation failed", logging.Err(err))
	}
}

// CachedStatusRepository mirrors CachedCountryRepository for statuses.
type CachedStatusRepository struct {
	inner   catalog.StatusRepository
	client  *Client
	metrics *prometheus.AppMetrics
	logger  logging.Logger
}

func NewCachedStatusRepository(inner catalog.StatusRepository, client *Client, metrics *prometheus.AppMetrics, logger logging.Logger) *CachedStatusRepository {
	return &CachedStatusRepository{inner: inner, client: client, metrics: metrics, logger: logger.Named("status_cache")}
}

var _ catalog.StatusRepository = (*CachedStatusRepository)(nil)

func (r *CachedStatusRepository) List(ctx context.Context) ([]catalog.Status, error) {
	key := r.client.key("catalog", "statuses")
	if cached, err := r.client.rdb.Get(ctx, key).Bytes(); err == nil {
		var out []catalog.Status
		if err := json.Unmarshal(cached, &out); err == nil {
			prometheus.RecordCacheAccess(r.metrics, "statuses", true)
			return out, nil
		}
	} else if !stderrors.Is(err, redis.Nil) {
		r.logger.Warn("status cache read failed", logging.Err(err))
	}
	prometheus.RecordCacheAccess(r.metrics, "statuses", false)

	out, err := r.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(out); err == nil {
		if err := r.client.rdb.Set(ctx, key, payload, r.client.ttl).Err(); err != nil {
			r.logger.Warn("status cache write failed", logging.Err(err))
		}
	}
	return out, nil
}

func (r *CachedStatusRepository) GetByID(ctx context.Context, id int64) (*catalog.Status, error) {
	return r.inner.GetByID(ctx, id)
}

func (r *CachedStatusRepository) ExistAll(ctx context.Context, ids []int64) ([]int64, error) {
	return r.inner.ExistAll(ctx, ids)
}

func (r *CachedStatusRepository) Invalidate(ctx context.Context) {
	if err := r.client.rdb.Del(ctx, r.client.key("catalog", "statuses")).Err(); err != nil {
		r.logger.Warn("status cache invalidation failed", logging.Err(err))
	}
}
