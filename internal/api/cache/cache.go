// internal/api/cache/cache.go

// Package cache provides the optional response cache for the HTTP edge.
// The core packages are read-only and idempotent, so whole response
// bodies keyed by the normalized request are safe to reuse. Redis
// problems degrade to a direct fetch, never to a failed request.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"recordmap-service/internal/common/logger"
	"recordmap-service/internal/common/metrics"
)

const keyPrefix = "recordmap:v1:"

// Key derives a cache key from the normalized request parts. Callers
// pass the endpoint name followed by its parameters in a fixed order.
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Cache wraps a Redis client with degrade-on-error semantics. A nil
// *Cache is a valid no-op, so handlers never branch on whether caching
// is enabled.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func New(client *redis.Client, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "response-cache"}),
	}
}

// Get returns the cached body for key. A Redis error counts as a miss.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if c == nil || c.client == nil {
		return "", false
	}

	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		metrics.CacheEvents.WithLabelValues("miss").Inc()
		return "", false
	}
	if err != nil {
		metrics.CacheEvents.WithLabelValues("error").Inc()
		c.logger.Warn("cache read failed, serving direct", map[string]interface{}{
			"error": err.Error(),
		})
		return "", false
	}

	metrics.CacheEvents.WithLabelValues("hit").Inc()
	return val, true
}

// Set stores the body under key for the configured TTL. Failures only warn.
func (c *Cache) Set(ctx context.Context, key, body string) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Set(ctx, key, body, c.ttl).Err(); err != nil {
		metrics.CacheEvents.WithLabelValues("error").Inc()
		c.logger.Warn("cache write failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	metrics.CacheEvents.WithLabelValues("fill").Inc()
}
