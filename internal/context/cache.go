package context

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL bounds how long a cached snapshot survives, so that
// repeated tool-loop iterations within one generate_with_planning call
// reuse the same optimised snapshot without re-running the pass, per
// spec.md §4.9 ("caches ... subsequent operations update the snapshot
// via update_memory rather than reloading").
const DefaultCacheTTL = 2 * time.Minute

// Cache wraps a Loader with a Redis-backed snapshot cache, keyed by
// project_id. Falls back to direct recomputation if Redis is
// unreachable, never surfacing a cache failure to the caller.
type Cache struct {
	loader *Loader
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache. client may be nil, in which case Get
// always recomputes.
func NewCache(loader *Loader, client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{loader: loader, client: client, ttl: ttl}
}

func cacheKey(projectID string) string {
	return "appgen:snapshot:" + projectID
}

// Get returns a cached snapshot if present and unexpired, otherwise
// builds one via Build and stores it.
func (c *Cache) Get(ctx context.Context, projectID string, limits Limits) (Snapshot, error) {
	if c.client != nil {
		if snap, ok := c.readCached(ctx, projectID); ok {
			return snap, nil
		}
	}

	snap, err := c.loader.Build(projectID, limits)
	if err != nil {
		return Snapshot{}, err
	}

	if c.client != nil {
		c.writeCached(ctx, projectID, snap)
	}
	return snap, nil
}

// Invalidate drops a project's cached snapshot, used after update_memory
// mutates persisted state.
func (c *Cache) Invalidate(ctx context.Context, projectID string) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, cacheKey(projectID)).Err(); err != nil {
		log.Printf("[ContextCache] invalidate %s: %v", projectID, err)
	}
}

func (c *Cache) readCached(ctx context.Context, projectID string) (Snapshot, bool) {
	raw, err := c.client.Get(ctx, cacheKey(projectID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[ContextCache] read %s: %v", projectID, err)
		}
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		log.Printf("[ContextCache] decode %s: %v", projectID, err)
		return Snapshot{}, false
	}
	return snap, true
}

func (c *Cache) writeCached(ctx context.Context, projectID string, snap Snapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		log.Printf("[ContextCache] encode %s: %v", projectID, err)
		return
	}
	if err := c.client.Set(ctx, cacheKey(projectID), raw, c.ttl).Err(); err != nil {
		log.Printf("[ContextCache] write %s: %v", projectID, fmt.Errorf("redis set: %w", err))
	}
}
