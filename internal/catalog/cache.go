package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	cacheVersionKey = "catalog:version"
	// loadTimeout bounds a collapsed load, which outlives the caller that started it.
	loadTimeout = 10 * time.Second
)

// Lister is satisfied by Engine and CachedEngine.
type Lister interface {
	ListProducts(ctx context.Context, filter ListFilter) (ListResult, error)
}

// CachedEngine serves listings from Redis, keyed by filter and catalog version.
// Bumping the version invalidates every cached page at once.
type CachedEngine struct {
	engine   *Engine
	client   *redis.Client
	ttl      time.Duration
	group    singleflight.Group
	observer CacheObserver
}

// CacheObserver receives "hit", "miss" or "error" for every lookup.
type CacheObserver interface {
	ObserveCache(result string)
}

// NewCachedEngine wraps engine. A nil client disables caching.
func NewCachedEngine(engine *Engine, client *redis.Client, ttl time.Duration) *CachedEngine {
	return &CachedEngine{engine: engine, client: client, ttl: ttl}
}

// WithObserver attaches o and returns c.
func (c *CachedEngine) WithObserver(o CacheObserver) *CachedEngine {
	c.observer = o
	return c
}

func (c *CachedEngine) observe(result string) {
	if c.observer != nil {
		c.observer.ObserveCache(result)
	}
}

// ListProducts returns the cached page or computes and stores it.
func (c *CachedEngine) ListProducts(ctx context.Context, filter ListFilter) (ListResult, error) {
	filter = normalizeFilter(filter)
	if c.client == nil {
		return c.engine.ListProducts(ctx, filter)
	}

	key, err := c.key(ctx, filter)
	if err != nil {
		// Redis trouble must not take the shop down.
		c.observe("error")
		return c.engine.ListProducts(ctx, filter)
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached ListResult
		if err := json.Unmarshal(payload, &cached); err == nil {
			c.observe("hit")
			return cached, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.observe("error")
		return c.engine.ListProducts(ctx, filter)
	}
	c.observe("miss")

	ch := c.group.DoChan(key, func() (interface{}, error) {
		// Followers share this load, so it must not die with the leader's request.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		res, err := c.engine.ListProducts(loadCtx, filter)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(res); err == nil {
			_ = c.client.Set(loadCtx, key, raw, c.ttl).Err()
		}
		return res, nil
	})
	select {
	case <-ctx.Done():
		return ListResult{}, ctx.Err()
	case out := <-ch:
		if out.Err != nil {
			return ListResult{}, out.Err
		}
		return out.Val.(ListResult), nil
	}
}

// Version returns the current catalog version, initialising when missing.
func (c *CachedEngine) Version(ctx context.Context) (int64, error) {
	if c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, cacheVersionKey).Int64()
	case err != nil:
		return 0, err
	case ver <= 0:
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	return ver, nil
}

// Bump invalidates every cached listing. The version lives in Redis, so all
// instances sharing it see the bump on their next lookup.
func (c *CachedEngine) Bump(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}

func (c *CachedEngine) key(ctx context.Context, f ListFilter) (string, error) {
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("catalog:list:%t:%s:%s:%d:%d",
		f.FeaturedOnly, url.QueryEscape(f.Category), f.Sort, f.Page, ver), nil
}
