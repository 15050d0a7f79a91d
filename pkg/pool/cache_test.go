package pool

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"communityscout/pkg/config"
	"communityscout/pkg/model"
	"communityscout/pkg/store"
)

func testEngine() *config.EngineConfig {
	cfg := config.DefaultConfig()
	return &cfg.Engine
}

func seedPool(t *testing.T, s store.CacheStore, key string, fetchedAt time.Time, items []model.ScoredPlace) {
	t.Helper()
	raw, err := json.Marshal(&model.CachedPlacePool{Items: items, FetchedAt: fetchedAt, QueryCount: 3})
	require.NoError(t, err)
	require.NoError(t, s.SetCache(context.Background(), key, raw, 0))
}

func countingFetch(calls *atomic.Int32, items []model.ScoredPlace, err error) FetchFunc {
	return func(context.Context) ([]model.ScoredPlace, int, error) {
		calls.Add(1)
		return items, 3, err
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestGetFreshPoolSkipsFetch(t *testing.T) {
	s := store.NewMemoryStore()
	c := NewCache(s, testEngine())
	c.now = func() time.Time { return time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC) }

	items := []model.ScoredPlace{{Name: "Gino's", PlaceID: "p1"}}
	seedPool(t, s, "community:94110:pool:dining", time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC), items)

	var calls atomic.Int32
	got, err := c.Get(context.Background(), "community:94110:pool:dining", countingFetch(&calls, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, items, got)
	assert.Zero(t, calls.Load())
}

func TestGetStalePoolServesAndRefreshes(t *testing.T) {
	s := store.NewMemoryStore()
	c := NewCache(s, testEngine())
	c.now = func() time.Time { return time.Date(2026, time.February, 1, 0, 0, 1, 0, time.UTC) }

	stale := []model.ScoredPlace{{Name: "Old Place", PlaceID: "p1"}}
	seedPool(t, s, "community:94110:pool:dining", time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC), stale)

	fresh := []model.ScoredPlace{{Name: "New Place", PlaceID: "p2"}}
	var calls atomic.Int32

	got, err := c.Get(context.Background(), "community:94110:pool:dining", countingFetch(&calls, fresh, nil))
	require.NoError(t, err)
	assert.Equal(t, stale, got, "caller must receive the stale pool immediately")

	waitFor(t, func() bool { return calls.Load() == 1 })
	waitFor(t, func() bool {
		raw, hit := s.GetCache(context.Background(), "community:94110:pool:dining")
		if !hit {
			return false
		}
		var cached model.CachedPlacePool
		return json.Unmarshal(raw, &cached) == nil && len(cached.Items) == 1 && cached.Items[0].PlaceID == "p2"
	})
}

func TestGetStalePoolRefreshErrorSwallowed(t *testing.T) {
	s := store.NewMemoryStore()
	c := NewCache(s, testEngine())
	c.now = func() time.Time { return time.Date(2026, time.February, 1, 0, 0, 1, 0, time.UTC) }

	stale := []model.ScoredPlace{{Name: "Old Place", PlaceID: "p1"}}
	seedPool(t, s, "k", time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC), stale)

	var calls atomic.Int32
	got, err := c.Get(context.Background(), "k", countingFetch(&calls, nil, fmt.Errorf("provider down")))
	require.NoError(t, err, "refresh failure must not surface to the stale-serve caller")
	assert.Equal(t, stale, got)

	waitFor(t, func() bool { return calls.Load() == 1 })

	// The stale pool is still there for the next caller.
	raw, hit := s.GetCache(context.Background(), "k")
	require.True(t, hit)
	var cached model.CachedPlacePool
	require.NoError(t, json.Unmarshal(raw, &cached))
	assert.Equal(t, "p1", cached.Items[0].PlaceID)
}

func TestGetMissFetchesSynchronously(t *testing.T) {
	s := store.NewMemoryStore()
	c := NewCache(s, testEngine())

	fresh := []model.ScoredPlace{{Name: "New Place", PlaceID: "p2"}}
	var calls atomic.Int32

	got, err := c.Get(context.Background(), "k", countingFetch(&calls, fresh, nil))
	require.NoError(t, err)
	assert.Equal(t, fresh, got)
	assert.Equal(t, int32(1), calls.Load())

	hit, err := s.HasCache(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, hit, "synchronous miss must write the pool")
}

func TestGetMissPropagatesError(t *testing.T) {
	c := NewCache(store.NewMemoryStore(), testEngine())

	var calls atomic.Int32
	_, err := c.Get(context.Background(), "k", countingFetch(&calls, nil, fmt.Errorf("provider down")))
	assert.Error(t, err)
}

func TestGetNilStoreAlwaysFetches(t *testing.T) {
	c := NewCache(nil, testEngine())

	fresh := []model.ScoredPlace{{Name: "New Place"}}
	var calls atomic.Int32

	for i := 0; i < 3; i++ {
		got, err := c.Get(context.Background(), "k", countingFetch(&calls, fresh, nil))
		require.NoError(t, err)
		assert.Equal(t, fresh, got)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestRefreshCapsPoolSize(t *testing.T) {
	engine := testEngine()
	engine.MaxPoolSize = 5

	s := store.NewMemoryStore()
	c := NewCache(s, engine)

	big := make([]model.ScoredPlace, 20)
	for i := range big {
		big[i] = model.ScoredPlace{Name: fmt.Sprintf("place-%d", i), PlaceID: fmt.Sprintf("p%d", i)}
	}

	var calls atomic.Int32
	got, err := c.Get(context.Background(), "k", countingFetch(&calls, big, nil))
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.Equal(t, "p0", got[0].PlaceID, "cap keeps the head of the ranked pool")
}

func TestSingleFlightBackgroundRefresh(t *testing.T) {
	s := store.NewMemoryStore()
	c := NewCache(s, testEngine())
	c.now = func() time.Time { return time.Date(2026, time.February, 1, 0, 0, 1, 0, time.UTC) }

	stale := []model.ScoredPlace{{Name: "Old Place", PlaceID: "p1"}}
	seedPool(t, s, "k", time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC), stale)

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	slowFetch := func(context.Context) ([]model.ScoredPlace, int, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return stale, 1, nil
	}

	_, err := c.Get(context.Background(), "k", slowFetch)
	require.NoError(t, err)
	<-started

	// While the first refresh is in flight, further stale hits must not
	// schedule another.
	for i := 0; i < 5; i++ {
		_, err := c.Get(context.Background(), "k", slowFetch)
		require.NoError(t, err)
	}
	close(release)

	waitFor(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.inflight) == 0
	})
	assert.Equal(t, int32(1), calls.Load())
}
