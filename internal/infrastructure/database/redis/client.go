// Package redis provides the shared Redis client and the advisory cache in
// front of the reference catalogs.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ipfolio/ipfolio/internal/config"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/logging"
	"github.com/ipfolio/ipfolio/pkg/errors"
)

// Client wraps the go-redis client with lifecycle logging and key prefixing.
type Client struct {
	rdb       *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    logging.Logger
}

// NewClient connects and pings within a short deadline.
func NewClient(ctx context.Context, cfg config.RedisConfig, logger logging.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "redis unreachable")
	}

	logger.Info("connected to redis", logging.String("addr", cfg.Addr))
	return &Client{
		rdb:       rdb,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.DefaultTTL,
		logger:    logger,
	}, nil
}

func (c *Client) key(parts ...string) string {
	key := c.keyPrefix
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// HealthCheck pings redis within the caller's deadline.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "redis health check failed")
	}
	return nil
}

// Close releases the connection pool.
func (c *Client) Close() error {
	err := c.rdb.Close()
	if err != nil {
		c.logger.Error("closing redis client failed", logging.Err(err))
		return err
	}
	c.logger.Info("closed redis client")
	return nil
}
