package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// ChartCache memoizes rendered chart payloads. A miss of any kind, including a
// Redis outage, just falls through to a fresh render; the cache is never on
// the error path of a request.
type ChartCache struct {
	client *Client
	ttl    time.Duration
}

// NewChartCache creates a chart cache with the given entry TTL
func NewChartCache(client *Client, ttl time.Duration) *ChartCache {
	return &ChartCache{
		client: client,
		ttl:    ttl,
	}
}

// Key derives the cache key for one render: the card identity plus a digest of
// the request overrides, so different ranges cache separately.
func (c *ChartCache) Key(projectID, metricID int64, request any) string {
	digest := sha256.New()
	if b, err := json.Marshal(request); err == nil {
		digest.Write(b)
	}
	return fmt.Sprintf("chart:%d:%d:%s", projectID, metricID, hex.EncodeToString(digest.Sum(nil))[:16])
}

// Get loads a cached render. The second return reports whether it was found.
func (c *ChartCache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	ctx, span := tracing.StartSpan(ctx, "cache.ChartCache.Get")
	defer span.End()

	value, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.client.logger.WithContext(ctx).WithError(err).Warn("chart cache read failed")
		}
		return nil, false
	}

	metrics.ChartCacheHits.Inc()
	return value, true
}

// Set stores a rendered chart under the key for the cache's TTL.
func (c *ChartCache) Set(ctx context.Context, key string, chart any) {
	if c == nil || c.client == nil {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "cache.ChartCache.Set")
	defer span.End()

	value, err := json.Marshal(chart)
	if err != nil {
		return
	}
	if err := c.client.rdb.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.client.logger.WithContext(ctx).WithError(err).Warn("chart cache write failed")
	}
}

// Invalidate drops every cached render of a card, called after the card
// changes.
func (c *ChartCache) Invalidate(ctx context.Context, projectID, metricID int64) {
	if c == nil || c.client == nil {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "cache.ChartCache.Invalidate")
	defer span.End()

	pattern := fmt.Sprintf("chart:%d:%d:*", projectID, metricID)
	iter := c.client.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			c.client.logger.WithContext(ctx).WithError(err).Warn("chart cache invalidation failed")
			return
		}
	}
	if err := iter.Err(); err != nil {
		c.client.logger.WithContext(ctx).WithError(err).Warn("chart cache scan failed")
	}
}
