// Package cache fronts the pipeline with a Redis-backed result cache.
// Concurrent requests for the same key are collapsed with singleflight so a
// cold key triggers exactly one build.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/footprintlab/timeline-engine/internal/pipeline"
	"github.com/footprintlab/timeline-engine/pkg/metrics"
	"github.com/footprintlab/timeline-engine/pkg/redis"
)

const keyPrefix = "timeline:result:"

// Builder is the slice of the engine the cache needs.
type Builder interface {
	Build(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
	Stages() []string
}

// TimelineCache caches completed builds keyed by target, range, and the
// enabled stage set.
type TimelineCache struct {
	client  *redis.Client
	builder Builder
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a TimelineCache. A nil client disables caching entirely and
// GetOrBuild degrades to a plain build.
func New(client *redis.Client, builder Builder, ttl time.Duration, m *metrics.Metrics) *TimelineCache {
	return &TimelineCache{
		client:  client,
		builder: builder,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "cache"),
	}
}

// Key derives the cache key for a request. The enabled stage list is part of
// the key so reconfiguring the pipeline never serves stale annotations.
func (c *TimelineCache) Key(req pipeline.Request) string {
	var b strings.Builder
	b.WriteString(req.Target)
	b.WriteByte('|')
	if req.Range != nil {
		b.WriteString(req.Range.Start.UTC().Format(time.RFC3339))
		b.WriteByte('|')
		b.WriteString(req.Range.End.UTC().Format(time.RFC3339))
	}
	b.WriteByte('|')
	b.WriteString(strings.Join(c.builder.Stages(), ","))
	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%s%x", keyPrefix, sum[:16])
}

// GetOrBuild returns the cached result for the request, building and storing
// it on a miss. Cache errors are logged and treated as misses; a failure to
// store never fails the request.
func (c *TimelineCache) GetOrBuild(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	if c.client == nil {
		return c.builder.Build(ctx, req)
	}
	key := c.Key(req)

	if cached, ok := c.lookup(ctx, key); ok {
		return cached, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Recheck under the flight lock: a concurrent caller may have
		// populated the key while this one was queued.
		if cached, ok := c.lookup(ctx, key); ok {
			return cached, nil
		}
		result, err := c.builder.Build(ctx, req)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, result)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pipeline.Result), nil
}

// Invalidate removes every cached timeline result.
func (c *TimelineCache) Invalidate(ctx context.Context) (int64, error) {
	if c.client == nil {
		return 0, nil
	}
	return c.client.FlushByPattern(ctx, keyPrefix+"*")
}

func (c *TimelineCache) lookup(ctx context.Context, key string) (*pipeline.Result, bool) {
	raw, err := c.client.Get(ctx, key)
	if err != nil {
		if !redis.IsNilError(err) {
			c.logger.Warn("cache read failed", "key", key, "error", err)
		}
		if c.metrics != nil {
			c.metrics.CacheMissesTotal.Inc()
		}
		return nil, false
	}
	var result pipeline.Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		c.logger.Warn("cache entry corrupt, discarding", "key", key, "error", err)
		_ = c.client.Del(ctx, key)
		if c.metrics != nil {
			c.metrics.CacheMissesTotal.Inc()
		}
		return nil, false
	}
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	return &result, true
}

func (c *TimelineCache) store(ctx context.Context, key string, result *pipeline.Result) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("cache serialization failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}
