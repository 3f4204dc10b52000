package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ortoqbank/ortoqbank-backend/internal/platform/envutil"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
)

const hierarchyCacheKey = "ortoqbank:taxonomy:hierarchy"

// HierarchyCache stores the rendered taxonomy tree in redis so the public
// hierarchy endpoint rarely touches postgres. A nil cache (no REDIS_ADDR) is
// a valid cache that never hits.
type HierarchyCache struct {
	log *logger.Logger
	rdb *redis.Client
	ttl time.Duration
}

func NewHierarchyCache(baseLog *logger.Logger) *HierarchyCache {
	addr := envutil.String("REDIS_ADDR", "")
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: envutil.String("REDIS_PASSWORD", ""),
		DB:       envutil.Int("REDIS_DB", 0),
	})
	return &HierarchyCache{
		log: baseLog.With("component", "HierarchyCache"),
		rdb: rdb,
		ttl: time.Duration(envutil.Int("TAXONOMY_CACHE_TTL_SECONDS", 300)) * time.Second,
	}
}

func (c *HierarchyCache) Get(ctx context.Context) ([]*HierarchyNode, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, hierarchyCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("hierarchy cache read failed", "error", err)
		}
		return nil, false
	}
	var nodes []*HierarchyNode
	if err := json.Unmarshal(raw, &nodes); err != nil {
		c.log.Warn("hierarchy cache entry corrupt, dropping", "error", err)
		_ = c.rdb.Del(ctx, hierarchyCacheKey).Err()
		return nil, false
	}
	return nodes, true
}

func (c *HierarchyCache) Set(ctx context.Context, nodes []*HierarchyNode) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(nodes)
	if err != nil {
		c.log.Warn("hierarchy cache marshal failed", "error", err)
		return
	}
	if err := c.rdb.Set(ctx, hierarchyCacheKey, raw, c.ttl).Err(); err != nil {
		c.log.Warn("hierarchy cache write failed", "error", err)
	}
}

func (c *HierarchyCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, hierarchyCacheKey).Err(); err != nil {
		c.log.Warn("hierarchy cache invalidate failed", "error", err)
	}
}
