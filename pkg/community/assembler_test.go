package community

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"communityscout/pkg/audience"
	"communityscout/pkg/config"
	"communityscout/pkg/geo"
	"communityscout/pkg/model"
	"communityscout/pkg/places"
	"communityscout/pkg/pool"
	"communityscout/pkg/query"
	"communityscout/pkg/sampler"
	"communityscout/pkg/scorer"
	"communityscout/pkg/store"
)

const testDatasetCSV = `"city","city_ascii","state_id","state_name","county_fips","county_name","lat","lng","population","zips"
"San Francisco","San Francisco","CA","California","06075","San Francisco","37.7558","-122.4449","873965","94110 94103 94107"
"Oakland","Oakland","CA","California","06001","Alameda","37.7904","-122.2166","440646","94601 94602"
`

func testDataset(t *testing.T) *geo.Dataset {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cities.csv")
	require.NoError(t, os.WriteFile(path, []byte(testDatasetCSV), 0o644))
	return geo.NewDataset(path)
}

// fakeProvider answers every text query with the same result set.
type fakeProvider struct {
	mu      sync.Mutex
	results []places.PlaceResult
	details map[string]*places.PlaceDetails
	fail    map[string]error
	calls   int
}

func (f *fakeProvider) SearchText(context.Context, string, float64, float64) ([]places.PlaceResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.results, nil
}

func (f *fakeProvider) SearchNearby(context.Context, float64, float64, []string) ([]places.PlaceResult, error) {
	return nil, nil
}

func (f *fakeProvider) GetDetails(_ context.Context, id string) (*places.PlaceDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fail[id]; ok {
		return nil, err
	}
	if d, ok := f.details[id]; ok {
		return d, nil
	}
	return &places.PlaceDetails{ID: id}, nil
}

func sfPlace(id, name string, rating float64, reviews int) places.PlaceResult {
	return places.PlaceResult{
		ID:          id,
		Name:        name,
		Address:     name + " St, San Francisco",
		Rating:      rating,
		ReviewCount: reviews,
		Lat:         37.7558,
		Lng:         -122.4449,
	}
}

func newTestAssembler(t *testing.T, provider *fakeProvider, s store.CacheStore) *Assembler {
	t.Helper()
	cfg := config.DefaultConfig()
	cats := config.DefaultCategories()
	sc := scorer.NewScorer(cats, &cfg.Engine)
	fetcher := pool.NewFetcher(provider, sc, &cfg.Engine)
	pools := pool.NewCache(s, &cfg.Engine)
	smp := sampler.New(rand.New(rand.NewSource(11)))
	composer := query.NewComposer(cats)
	builder := audience.NewBuilder(cats, &cfg.Engine, composer, pools, fetcher, smp, s)
	return NewAssembler(testDataset(t), cats, &cfg.Engine, composer, pools, fetcher, smp, builder, provider, s)
}

func TestAggregateUnknownZipReturnsNil(t *testing.T) {
	a := newTestAssembler(t, &fakeProvider{}, store.NewMemoryStore())

	data, err := a.Aggregate(context.Background(), &Request{Zip: "00000"})
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestAggregateDatasetMissingDegrades(t *testing.T) {
	cfg := config.DefaultConfig()
	cats := config.DefaultCategories()
	s := store.NewMemoryStore()
	provider := &fakeProvider{}
	sc := scorer.NewScorer(cats, &cfg.Engine)
	fetcher := pool.NewFetcher(provider, sc, &cfg.Engine)
	pools := pool.NewCache(s, &cfg.Engine)
	smp := sampler.New(rand.New(rand.NewSource(11)))
	composer := query.NewComposer(cats)
	builder := audience.NewBuilder(cats, &cfg.Engine, composer, pools, fetcher, smp, s)
	dataset := geo.NewDataset(filepath.Join(t.TempDir(), "absent.csv"))
	a := NewAssembler(dataset, cats, &cfg.Engine, composer, pools, fetcher, smp, builder, provider, s)

	// An unloadable dataset must not fail the request; it behaves like an
	// unknown zip.
	data, err := a.Aggregate(context.Background(), &Request{Zip: "94110"})
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.Zero(t, provider.calls)
}

func TestAggregateBuildsAllCategories(t *testing.T) {
	provider := &fakeProvider{results: []places.PlaceResult{
		sfPlace("p1", "Alpha", 4.8, 500),
		sfPlace("p2", "Beta", 4.2, 50),
		sfPlace("p3", "Gamma", 4.5, 120),
	}}
	a := newTestAssembler(t, provider, store.NewMemoryStore())

	data, err := a.Aggregate(context.Background(), &Request{Zip: "94110"})
	require.NoError(t, err)
	require.NotNil(t, data)

	assert.Equal(t, "94110", data.Zip)
	assert.Equal(t, "San Francisco", data.City)
	assert.Equal(t, "CA", data.StateCode)

	for name, list := range map[string]string{
		"dining": data.Dining, "coffee": data.CoffeeShops, "parks": data.Parks,
		"schools": data.Schools, "shopping": data.Shopping,
		"entertainment": data.Entertainment, "fitness": data.Fitness,
		"family_fun": data.FamilyFun, "neighborhoods": data.Neighborhoods,
	} {
		assert.NotEmpty(t, list, "category %s must never be empty", name)
		assert.Contains(t, list, "Alpha", "category %s", name)
	}

	// Variants fall back to the general list when the audience fetch finds
	// the same places.
	assert.NotEmpty(t, data.NeighborhoodsFamily)
	assert.NotEmpty(t, data.NeighborhoodsLuxury)
	assert.NotEmpty(t, data.NeighborhoodsSenior)
	assert.NotEmpty(t, data.NeighborhoodsRelocators)
	assert.False(t, data.GeneratedAt.IsZero())
}

func TestAggregateSentinelWhenNoResults(t *testing.T) {
	a := newTestAssembler(t, &fakeProvider{}, store.NewMemoryStore())

	data, err := a.Aggregate(context.Background(), &Request{Zip: "94110"})
	require.NoError(t, err)
	require.NotNil(t, data)

	assert.Equal(t, model.NoEntriesSentinel, data.Dining)
	assert.Equal(t, model.NoEntriesSentinel, data.Neighborhoods)
}

func TestAggregateServesFromCache(t *testing.T) {
	provider := &fakeProvider{results: []places.PlaceResult{
		sfPlace("p1", "Alpha", 4.8, 500),
		sfPlace("p2", "Beta", 4.2, 50),
		sfPlace("p3", "Gamma", 4.5, 120),
	}}
	s := store.NewMemoryStore()
	a := newTestAssembler(t, provider, s)

	first, err := a.Aggregate(context.Background(), &Request{Zip: "94110"})
	require.NoError(t, err)

	provider.mu.Lock()
	callsAfterFirst := provider.calls
	provider.mu.Unlock()
	require.Greater(t, callsAfterFirst, 0)

	second, err := a.Aggregate(context.Background(), &Request{Zip: "94110"})
	require.NoError(t, err)

	provider.mu.Lock()
	callsAfterSecond := provider.calls
	provider.mu.Unlock()

	assert.Equal(t, callsAfterFirst, callsAfterSecond, "second aggregation must be served from cache")
	assert.Equal(t, first.GeneratedAt, second.GeneratedAt)
}

func TestAggregateHydratesSampledPlaces(t *testing.T) {
	provider := &fakeProvider{
		results: []places.PlaceResult{
			sfPlace("p1", "Alpha", 4.8, 500),
			sfPlace("p2", "Beta", 4.2, 50),
		},
		details: map[string]*places.PlaceDetails{
			"p1": {ID: "p1", Summary: "A neighborhood institution."},
			"p2": {ID: "p2", Summary: "Beloved corner spot."},
		},
	}
	a := newTestAssembler(t, provider, store.NewMemoryStore())

	data, err := a.Aggregate(context.Background(), &Request{Zip: "94110"})
	require.NoError(t, err)
	assert.Contains(t, data.Dining, "A neighborhood institution.")
}

func TestAggregateToleratesHydrationFailures(t *testing.T) {
	provider := &fakeProvider{
		results: []places.PlaceResult{
			sfPlace("p1", "Alpha", 4.8, 500),
			sfPlace("p2", "Beta", 4.2, 50),
		},
		details: map[string]*places.PlaceDetails{
			"p2": {ID: "p2", Summary: "Beloved corner spot."},
		},
		fail: map[string]error{"p1": fmt.Errorf("quota exceeded")},
	}
	a := newTestAssembler(t, provider, store.NewMemoryStore())

	data, err := a.Aggregate(context.Background(), &Request{Zip: "94110"})
	require.NoError(t, err)

	// The failed place still renders, just without a summary.
	assert.Contains(t, data.Dining, "Alpha")
	assert.Contains(t, data.Dining, "Beta")
}

func TestAggregateAudienceViewSelectsVariant(t *testing.T) {
	provider := &fakeProvider{results: []places.PlaceResult{
		sfPlace("p1", "Alpha", 4.8, 500),
		sfPlace("p2", "Beta", 4.2, 50),
		sfPlace("p3", "Gamma", 4.5, 120),
	}}
	s := store.NewMemoryStore()
	a := newTestAssembler(t, provider, s)

	base, err := a.Aggregate(context.Background(), &Request{Zip: "94110"})
	require.NoError(t, err)

	view, err := a.Aggregate(context.Background(), &Request{Zip: "94110", Audience: "luxury_homebuyers"})
	require.NoError(t, err)
	require.NotNil(t, view)

	// Sampling order varies between builds, so compare the line sets.
	assert.ElementsMatch(t,
		strings.Split(base.NeighborhoodsLuxury, "\n"),
		strings.Split(view.Neighborhoods, "\n"),
		"the audience view surfaces the segment's neighborhood variant")

	// The base cached record is untouched by the merge.
	rebase, err := a.Aggregate(context.Background(), &Request{Zip: "94110"})
	require.NoError(t, err)
	assert.Equal(t, base.Dining, rebase.Dining)
}

func TestAggregateAudienceViewNeverExceedsDisplayCount(t *testing.T) {
	var results []places.PlaceResult
	for i := 0; i < 15; i++ {
		results = append(results, sfPlace(fmt.Sprintf("p%d", i), fmt.Sprintf("Place %c", 'A'+i), 4.5, 100+i))
	}
	provider := &fakeProvider{results: results}
	a := newTestAssembler(t, provider, store.NewMemoryStore())

	view, err := a.Aggregate(context.Background(), &Request{Zip: "94110", Audience: model.AudienceFamily})
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	for _, list := range []string{view.Dining, view.Parks, view.Schools} {
		if list == model.NoEntriesSentinel {
			continue
		}
		assert.LessOrEqual(t, len(strings.Split(list, "\n")), cfg.Engine.DisplayCount)
	}
}

func TestAggregateServiceAreaKeysDiffer(t *testing.T) {
	provider := &fakeProvider{results: []places.PlaceResult{
		sfPlace("p1", "Alpha", 4.8, 500),
		sfPlace("p2", "Beta", 4.2, 50),
		sfPlace("p3", "Gamma", 4.5, 120),
	}}
	s := store.NewMemoryStore()
	a := newTestAssembler(t, provider, s)

	_, err := a.Aggregate(context.Background(), &Request{Zip: "94110", ServiceAreas: []string{"Oakland, CA"}})
	require.NoError(t, err)

	keys, err := s.ListCacheKeys(context.Background(), "community:94110:pool:dining")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], ":sa:", "service-area requests get their own pool keys")
}

func TestAggregateEndOfMonthTTL(t *testing.T) {
	provider := &fakeProvider{results: []places.PlaceResult{
		sfPlace("p1", "Alpha", 4.8, 500),
		sfPlace("p2", "Beta", 4.2, 50),
		sfPlace("p3", "Gamma", 4.5, 120),
	}}
	s := store.NewMemoryStore()
	a := newTestAssembler(t, provider, s)
	a.now = func() time.Time { return time.Now() }

	_, err := a.Aggregate(context.Background(), &Request{Zip: "94110"})
	require.NoError(t, err)

	hit, err := s.HasCache(context.Background(), pool.CommunityKey(pool.BaseKey("94110", "", "")))
	require.NoError(t, err)
	assert.True(t, hit)
}
