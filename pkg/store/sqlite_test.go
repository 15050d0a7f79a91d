package store

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"communityscout/pkg/db"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	d, err := db.Init(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return NewSQLiteStore(d)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	payload := []byte(`{"items":[{"name":"Joe's Cafe"}]}`)
	require.NoError(t, s.SetCache(ctx, "community:97201:pool:dining", payload, 0))

	got, hit := s.GetCache(ctx, "community:97201:pool:dining")
	require.True(t, hit)
	assert.Equal(t, payload, got)
}

func TestSQLiteStoreCompressesTransparently(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Highly repetitive payload so gzip definitely shrinks it.
	payload := bytes.Repeat([]byte("community data "), 500)
	require.NoError(t, s.SetCache(ctx, "big", payload, 0))

	var raw []byte
	err := s.db.QueryRow("SELECT value FROM cache WHERE key = ?", "big").Scan(&raw)
	require.NoError(t, err)
	assert.Less(t, len(raw), len(payload), "value stored compressed")
	assert.Equal(t, byte(0x1f), raw[0], "gzip magic")

	got, hit := s.GetCache(ctx, "big")
	require.True(t, hit)
	assert.Equal(t, payload, got)
}

func TestSQLiteStoreExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetCache(ctx, "short", []byte("v"), time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	_, hit := s.GetCache(ctx, "short")
	assert.False(t, hit, "expiry enforced on read")

	require.NoError(t, s.SetCache(ctx, "forever", []byte("v"), 0))
	_, hit = s.GetCache(ctx, "forever")
	assert.True(t, hit, "no-expiry entries never age out")
}

func TestSQLiteStoreOverwrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetCache(ctx, "k", []byte("old"), 0))
	require.NoError(t, s.SetCache(ctx, "k", []byte("new"), 0))

	got, hit := s.GetCache(ctx, "k")
	require.True(t, hit)
	assert.Equal(t, []byte("new"), got)
}

func TestSQLiteStoreHasAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetCache(ctx, "community:97201:data", []byte("a"), 0))
	require.NoError(t, s.SetCache(ctx, "place:abc", []byte("b"), 0))

	ok, err := s.HasCache(ctx, "community:97201:data")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasCache(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	keys, err := s.ListCacheKeys(ctx, "community:")
	require.NoError(t, err)
	assert.Equal(t, []string{"community:97201:data"}, keys)
}
