package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"communityscout/pkg/config"
	"communityscout/pkg/geo"
	"communityscout/pkg/model"
	"communityscout/pkg/places"
	"communityscout/pkg/scorer"
)

// Fetcher turns a query plan into a deduplicated, ranked candidate set by
// fanning out over geographic anchors and flattening the results.
type Fetcher struct {
	provider places.SearchProvider
	scorer   *scorer.Scorer
	engine   *config.EngineConfig
	log      *slog.Logger
}

// NewFetcher creates a Fetcher.
func NewFetcher(provider places.SearchProvider, sc *scorer.Scorer, engine *config.EngineConfig) *Fetcher {
	return &Fetcher{
		provider: provider,
		scorer:   sc,
		engine:   engine,
		log:      slog.With("component", "pool"),
	}
}

// Fetch issues every query at every anchor concurrently, scores and filters
// the raw results against dist, then dedupes and ranks. Results are
// flattened in query-list order before deduping, so earlier queries win
// first-occurrence ties; the final rank sort determines output order.
//
// Individual query failures are logged and tolerated; Fetch only errors when
// every call failed and nothing at all came back.
func (f *Fetcher) Fetch(ctx context.Context, category string, queries []string, anchors []geo.Anchor, dist geo.Distancer) ([]model.ScoredPlace, error) {
	if len(queries) == 0 || len(anchors) == 0 {
		return nil, nil
	}

	type slot struct {
		results []places.PlaceResult
		query   string
		err     error
	}
	slots := make([]slot, len(queries)*len(anchors))

	var wg sync.WaitGroup
	for qi, q := range queries {
		for ai, a := range anchors {
			wg.Add(1)
			go func(i int, query string, anchor geo.Anchor) {
				defer wg.Done()
				results, err := f.provider.SearchText(ctx, query, anchor.Lat, anchor.Lng)
				slots[i] = slot{results: results, query: query, err: err}
			}(qi*len(anchors)+ai, q, a)
		}
	}
	wg.Wait()

	var flat []model.ScoredPlace
	var failures int
	for _, s := range slots {
		if s.err != nil {
			failures++
			f.log.Warn("Query failed", "category", category, "query", s.query, "error", s.err)
			continue
		}
		for _, r := range s.results {
			p := model.ScoredPlace{
				Name:          r.Name,
				Rating:        r.Rating,
				ReviewCount:   r.ReviewCount,
				Address:       r.Address,
				Category:      category,
				PlaceID:       r.ID,
				DistanceKm:    dist.DistanceKm(r.Lat, r.Lng),
				SourceQueries: []string{s.query},
			}
			if f.scorer.Accept(&p, category, s.query) {
				flat = append(flat, p)
			}
		}
	}

	if len(flat) == 0 && failures == len(slots) {
		return nil, fmt.Errorf("all %d queries failed for category %s", failures, category)
	}

	return f.scorer.Rank(scorer.Dedupe(flat)), nil
}
