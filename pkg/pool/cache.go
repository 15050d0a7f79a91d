package pool

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"communityscout/pkg/config"
	"communityscout/pkg/model"
	"communityscout/pkg/store"
)

// FetchFunc produces a fresh, ranked candidate set and reports how many
// queries were issued.
type FetchFunc func(ctx context.Context) ([]model.ScoredPlace, int, error)

// Cache persists place pools keyed by (zip, category, audience?,
// service-area signature?). Pools carry no numeric TTL; the month-based
// staleness check governs refresh instead.
//
// A nil store degrades to always-refetch.
type Cache struct {
	store  store.CacheStore
	engine *config.EngineConfig
	log    *slog.Logger
	now    func() time.Time

	// Single-flight guard: at most one background refresh per key.
	mu       sync.Mutex
	inflight map[string]bool
}

// NewCache creates a pool cache over the given store. store may be nil.
func NewCache(s store.CacheStore, engine *config.EngineConfig) *Cache {
	return &Cache{
		store:    s,
		engine:   engine,
		log:      slog.With("component", "pool"),
		now:      time.Now,
		inflight: make(map[string]bool),
	}
}

// Get returns the pool for key, fetching via fetch when needed.
//
// Fresh pool: served directly, no fetch. Stale but non-empty pool: served
// immediately while a background refresh overwrites the cached pool for next
// time; refresh errors are logged and swallowed, never surfaced to the
// caller who received stale data. Miss or stale-and-empty: a synchronous
// fetch-and-write, whose error does propagate since there is nothing to
// serve.
func (c *Cache) Get(ctx context.Context, key string, fetch FetchFunc) ([]model.ScoredPlace, error) {
	if c.store == nil {
		items, _, err := fetch(ctx)
		return c.cap(items), err
	}

	if raw, hit := c.store.GetCache(ctx, key); hit {
		var cached model.CachedPlacePool
		if err := json.Unmarshal(raw, &cached); err != nil {
			c.log.Warn("Discarding unreadable pool", "key", key, "error", err)
		} else {
			if !IsStale(cached.FetchedAt, c.now()) {
				return cached.Items, nil
			}
			if len(cached.Items) > 0 {
				c.refreshAsync(key, fetch)
				return cached.Items, nil
			}
		}
	}

	return c.refresh(ctx, key, fetch)
}

// refreshAsync schedules a fire-and-forget refresh for key, unless one is
// already running.
func (c *Cache) refreshAsync(key string, fetch FetchFunc) {
	c.mu.Lock()
	if c.inflight[key] {
		c.mu.Unlock()
		return
	}
	c.inflight[key] = true
	c.mu.Unlock()

	c.log.Debug("Scheduling background pool refresh", "key", key)

	go func() {
		defer func() {
			c.mu.Lock()
			delete(c.inflight, key)
			c.mu.Unlock()
		}()

		// Detached from the request context: the caller already has its
		// (stale) answer and must not cancel the refresh.
		if _, err := c.refresh(context.Background(), key, fetch); err != nil {
			c.log.Warn("Background pool refresh failed", "key", key, "error", err)
		}
	}()
}

// refresh fetches, caps, and writes the pool, returning the capped items.
func (c *Cache) refresh(ctx context.Context, key string, fetch FetchFunc) ([]model.ScoredPlace, error) {
	items, queryCount, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	items = c.cap(items)

	cached := model.CachedPlacePool{
		Items:      items,
		FetchedAt:  c.now().UTC(),
		QueryCount: queryCount,
	}
	raw, err := json.Marshal(&cached)
	if err != nil {
		c.log.Error("Failed to encode pool", "key", key, "error", err)
		return items, nil
	}

	// ttl 0: pools expire by month staleness, not by the store.
	if err := c.store.SetCache(ctx, key, raw, 0); err != nil {
		c.log.Warn("Failed to write pool", "key", key, "error", err)
	}
	return items, nil
}

// cap truncates a ranked pool to the configured maximum size.
func (c *Cache) cap(items []model.ScoredPlace) []model.ScoredPlace {
	if c.engine.MaxPoolSize > 0 && len(items) > c.engine.MaxPoolSize {
		return items[:c.engine.MaxPoolSize]
	}
	return items
}
