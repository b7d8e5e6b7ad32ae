package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ipfolio/ipfolio/pkg/errors"
)

// RateLimitConfig tunes the per-caller token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// SkipPaths bypass limiting entirely.
	SkipPaths []string
	// CleanupInterval controls how often idle buckets are dropped.
	CleanupInterval time.Duration
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 20,
		BurstSize:         40,
		SkipPaths:         []string{"/healthz", "/readyz", "/metrics"},
		CleanupInterval:   5 * time.Minute,
	}
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// RateLimitMiddleware applies a token bucket per client IP. Authenticated
// callers are keyed by user id instead so shared NATs do not starve each
// other.
type RateLimitMiddleware struct {
	cfg     RateLimitConfig
	skip    map[string]struct{}
	mu      sync.Mutex
	buckets map[string]*bucket
	stop    chan struct{}
}

func NewRateLimitMiddleware(cfg RateLimitConfig) *RateLimitMiddleware {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	m := &RateLimitMiddleware{
		cfg:     cfg,
		skip:    skip,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go m.cleanupLoop()
	}
	return m
}

func (m *RateLimitMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := m.skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		key := c.ClientIP()
		if p, ok := PrincipalFrom(c); ok && p.UserID != "" {
			key = "user:" + p.UserID
		}

		allowed, remaining := m.allow(key)
		c.Header("X-RateLimit-Limit", strconv.Itoa(m.cfg.BurstSize))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{"code": errors.ErrCodeTooManyRequests.String(), "message": "rate limit exceeded"},
			})
			return
		}
		c.Next()
	}
}

func (m *RateLimitMiddleware) allow(key string) (bool, int) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(m.cfg.BurstSize), lastRefill: now}
		m.buckets[key] = b
	}

	b.tokens += now.Sub(b.lastRefill).Seconds() * m.cfg.RequestsPerSecond
	if b.tokens > float64(m.cfg.BurstSize) {
		b.tokens = float64(m.cfg.BurstSize)
	}
	b.lastRefill = now

	if b.tokens < 1 {
		return false, 0
	}
	b.tokens--
	return true, int(b.tokens)
}

func (m *RateLimitMiddleware) cleanupLoop() {
	ticker := time.NewTicker(m.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-m.cfg.CleanupInterval)
			m.mu.Lock()
			for key, b := range m.buckets {
				if b.lastRefill.Before(cutoff) {
					delete(m.buckets, key)
				}
			}
			m.mu.Unlock()
		}
	}
}

// Close stops the cleanup goroutine.
func (m *RateLimitMiddleware) Close() {
	close(m.stop)
}
