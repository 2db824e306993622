package industry

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sells-group/valuation-cli/internal/metrics"
)

const cacheKeyPrefix = "industry:multiplier:"

// RedisCache is a read-through cache in front of another Provider. Redis
// failures are logged and bypassed; they never fail a lookup.
type RedisCache struct {
	client redis.UniversalClient
	next   Provider
	ttl    time.Duration
}

// NewRedisCache wraps next with a Redis cache whose entries live for ttl.
func NewRedisCache(client redis.UniversalClient, next Provider, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, next: next, ttl: ttl}
}

// Lookup serves from Redis when possible, otherwise asks the wrapped
// provider and stores the answer.
func (c *RedisCache) Lookup(ctx context.Context, code string) (Match, error) {
	key := cacheKeyPrefix + Normalize(code)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var m Match
		if jsonErr := json.Unmarshal(data, &m); jsonErr == nil {
			metrics.IndustryCache.WithLabelValues("hit").Inc()
			return m, nil
		}
		zap.L().Warn("industry: discarding malformed cache entry", zap.String("key", key))
		metrics.IndustryCache.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		metrics.IndustryCache.WithLabelValues("miss").Inc()
	default:
		zap.L().Warn("industry: cache read failed", zap.String("key", key), zap.Error(err))
		metrics.IndustryCache.WithLabelValues("error").Inc()
	}

	m, err := c.next.Lookup(ctx, code)
	if err != nil {
		return Match{}, err
	}

	if data, err := json.Marshal(m); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			zap.L().Warn("industry: cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return m, nil
}

// Invalidate drops every cached multiplier, e.g. after a table reload.
func (c *RedisCache) Invalidate(ctx context.Context) (int, error) {
	var removed int
	iter := c.client.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, iter.Err()
}
