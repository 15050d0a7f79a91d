package store

import (
	"context"
	"time"
)

// CacheStore handles generic key-value caching with optional expiry.
// The engine tolerates a nil CacheStore by degrading to always-refetch.
type CacheStore interface {
	GetCache(ctx context.Context, key string) ([]byte, bool)
	// SetCache stores a value. ttl <= 0 means no expiry; such entries are
	// governed by caller-side staleness checks instead.
	SetCache(ctx context.Context, key string, val []byte, ttl time.Duration) error
	HasCache(ctx context.Context, key string) (bool, error)
	ListCacheKeys(ctx context.Context, prefix string) ([]string, error)
}

// Store composes the cache contract with lifecycle management.
type Store interface {
	CacheStore

	// Close closes the store connection.
	Close() error
}
