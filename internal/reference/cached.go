package reference

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/analisavet/hemogram-server/internal/domain"
)

// CacheConfig tunes a CachedSource
type CacheConfig struct {
	// Size bounds the in-memory tier
	Size int
	// TTL applies to both tiers
	TTL time.Duration
	// RedisClient enables the shared tier when set
	RedisClient *redis.Client
	KeyPrefix   string
}

// CacheStats counts lookups per tier
type CacheStats struct {
	MemoryHits int64 `json:"memory_hits"`
	RedisHits  int64 `json:"redis_hits"`
	Misses     int64 `json:"misses"`
}

// CachedSource memoizes found tables in an in-process LRU and, optionally,
// in Redis. Missing species are never cached so a later sync is seen at once.
type CachedSource struct {
	next   domain.ReferenceSource
	memory *expirable.LRU[string, *domain.ReferenceTable]
	redis  *redis.Client
	ttl    time.Duration
	prefix string
	logger *logrus.Logger

	memoryHits atomic.Int64
	redisHits  atomic.Int64
	misses     atomic.Int64
}

// NewCachedSource wraps next with the caches described by config
func NewCachedSource(next domain.ReferenceSource, config CacheConfig, logger *logrus.Logger) *CachedSource {
	if config.Size <= 0 {
		config.Size = 32
	}
	if config.TTL <= 0 {
		config.TTL = 15 * time.Minute
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "hemogram:reference:"
	}
	return &CachedSource{
		next:   next,
		memory: expirable.NewLRU[string, *domain.ReferenceTable](config.Size, nil, config.TTL),
		redis:  config.RedisClient,
		ttl:    config.TTL,
		prefix: config.KeyPrefix,
		logger: logger,
	}
}

// ReferenceTable returns the cached table of species, loading it on a miss
func (c *CachedSource) ReferenceTable(ctx context.Context, species string) (*domain.ReferenceTable, error) {
	if t, ok := c.memory.Get(species); ok {
		c.memoryHits.Add(1)
		return cloneTable(t), nil
	}

	if t, ok := c.fromRedis(ctx, species); ok {
		c.redisHits.Add(1)
		c.memory.Add(species, t)
		return cloneTable(t), nil
	}

	c.misses.Add(1)
	t, err := c.next.ReferenceTable(ctx, species)
	if err != nil {
		return nil, err
	}
	c.memory.Add(species, cloneTable(t))
	c.toRedis(ctx, species, t)
	return t, nil
}

// Invalidate drops species from both tiers
func (c *CachedSource) Invalidate(ctx context.Context, species string) {
	c.memory.Remove(species)
	if c.redis != nil {
		if err := c.redis.Del(ctx, c.prefix+species).Err(); err != nil {
			c.logger.WithError(err).WithField("species", species).Warn("Failed to invalidate cached reference table")
		}
	}
}

// Stats returns the lookup counters
func (c *CachedSource) Stats() CacheStats {
	return CacheStats{
		MemoryHits: c.memoryHits.Load(),
		RedisHits:  c.redisHits.Load(),
		Misses:     c.misses.Load(),
	}
}

// Redis failures degrade to the next source; they are logged, not returned.
func (c *CachedSource) fromRedis(ctx context.Context, species string) (*domain.ReferenceTable, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, c.prefix+species).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("species", species).Warn("Redis reference lookup failed")
		}
		return nil, false
	}
	var t domain.ReferenceTable
	if err := json.Unmarshal(data, &t); err != nil || t.IsEmpty() {
		c.logger.WithField("species", species).Warn("Discarding malformed cached reference table")
		return nil, false
	}
	return &t, true
}

func (c *CachedSource) toRedis(ctx context.Context, species string, t *domain.ReferenceTable) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, c.prefix+species, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("species", species).Warn("Failed to cache reference table in Redis")
	}
}
