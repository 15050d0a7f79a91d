package audience

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"communityscout/pkg/config"
	"communityscout/pkg/geo"
	"communityscout/pkg/model"
	"communityscout/pkg/pool"
	"communityscout/pkg/query"
	"communityscout/pkg/sampler"
	"communityscout/pkg/store"
)

// Builder computes audience deltas: per-segment category list overrides
// layered on top of the base community data. Deltas are cached separately
// from the base record with their own TTL.
type Builder struct {
	cats     *config.CategoriesConfig
	engine   *config.EngineConfig
	composer *query.Composer
	pools    *pool.Cache
	fetcher  *pool.Fetcher
	sampler  *sampler.Sampler
	store    store.CacheStore
	log      *slog.Logger
	now      func() time.Time
}

// NewBuilder creates a Builder. store may be nil; deltas are then rebuilt on
// every request.
func NewBuilder(cats *config.CategoriesConfig, engine *config.EngineConfig, composer *query.Composer, pools *pool.Cache, fetcher *pool.Fetcher, smp *sampler.Sampler, s store.CacheStore) *Builder {
	return &Builder{
		cats:     cats,
		engine:   engine,
		composer: composer,
		pools:    pools,
		fetcher:  fetcher,
		sampler:  smp,
		store:    s,
		log:      slog.With("component", "audience"),
		now:      time.Now,
	}
}

// Request carries the resolved location context for one delta build.
type Request struct {
	Location    *model.Location
	BaseKey     string
	Segment     string // canonical, via model.NormalizeAudience
	SASignature string
	Anchors     []geo.Anchor
	Dist        geo.Distancer
	// SeasonalAllowed gates seasonal phrasing per category, shared with the
	// base pipeline so both stay on the same monthly rotation.
	SeasonalAllowed map[string]bool
}

// Build returns the audience delta for the request, from cache when fresh.
// Only categories that produced at least one real entry appear in the delta;
// the sentinel is never cached and never merged.
func (b *Builder) Build(ctx context.Context, req *Request) (model.AudienceDelta, error) {
	cacheKey := pool.AudienceKey(req.BaseKey, req.Segment, req.SASignature)

	if b.store != nil {
		if raw, hit := b.store.GetCache(ctx, cacheKey); hit {
			var delta model.AudienceDelta
			if err := json.Unmarshal(raw, &delta); err == nil {
				return delta, nil
			}
			b.log.Warn("Discarding unreadable audience delta", "key", cacheKey)
		}
	}

	delta := make(model.AudienceDelta)

	categories := b.cats.AugmentableCategories()
	sort.Strings(categories)
	for _, category := range categories {
		formatted, err := b.BuildCategoryList(ctx, req, category)
		if err != nil {
			// One thin or failing category never sinks the delta.
			b.log.Warn("Audience category failed",
				"zip", req.Location.Zip, "segment", req.Segment, "category", category, "error", err)
			continue
		}
		if formatted != "" {
			delta[category] = formatted
		}
	}

	if len(delta) > 0 && b.store != nil {
		if raw, err := json.Marshal(delta); err == nil {
			ttl := time.Duration(b.engine.AudienceDeltaTTL)
			if err := b.store.SetCache(ctx, cacheKey, raw, ttl); err != nil {
				b.log.Warn("Failed to cache audience delta", "key", cacheKey, "error", err)
			}
		}
	}

	return delta, nil
}

// BuildCategoryList fetches and formats the segment-flavored list for one
// category, returning "" when no real entries were found. The assembler also
// calls this directly to build neighborhood variants.
func (b *Builder) BuildCategoryList(ctx context.Context, req *Request, category string) (string, error) {
	cat, ok := b.cats.Get(category)
	if !ok {
		return "", nil
	}

	audienceQueries := b.cats.AudienceQueries(req.Segment, category)
	if len(audienceQueries) == 0 && len(cat.Queries) == 0 {
		return "", nil
	}

	// Pad thin audience packs with category fallback queries, appended only
	// up to the shortfall against the target count.
	combined := audienceQueries
	if len(combined) < cat.TargetCount {
		combined = query.MergeQueries(combined, cat.Queries, cat.TargetCount)
	}
	localized := b.composer.Localize(req.Location, category, combined, b.now(), req.SeasonalAllowed[category])

	poolKey := pool.PoolKey(req.BaseKey, category, req.Segment, req.SASignature)
	results, err := b.pools.Get(ctx, poolKey, func(ctx context.Context) ([]model.ScoredPlace, int, error) {
		found, err := b.fetcher.Fetch(ctx, category, localized, req.Anchors, req.Dist)
		return found, len(localized), err
	})
	if err != nil {
		return "", err
	}

	// Escalation: when the audience-flavored fetch came back too thin, issue
	// the pure fallback queries and append their results after the primary
	// ones. Primary results keep priority; the dedupe pass keeps first
	// occurrences.
	if len(results) < cat.MinResults && len(cat.Queries) > 0 {
		basePoolKey := pool.PoolKey(req.BaseKey, category, "", req.SASignature)
		fallback, ferr := b.pools.Get(ctx, basePoolKey, func(ctx context.Context) ([]model.ScoredPlace, int, error) {
			found, err := b.fetcher.Fetch(ctx, category, cat.Queries, req.Anchors, req.Dist)
			return found, len(cat.Queries), err
		})
		if ferr != nil {
			b.log.Warn("Fallback escalation failed",
				"zip", req.Location.Zip, "segment", req.Segment, "category", category, "error", ferr)
		} else {
			results = appendUnique(results, fallback)
		}
	}

	if len(results) == 0 {
		return "", nil
	}

	picked := b.sampler.Sample(results, b.engine.DisplayCount)
	formatted := model.FormatList(picked, b.engine.DisplayCount)
	if formatted == model.NoEntriesSentinel {
		return "", nil
	}
	return formatted, nil
}

// appendUnique appends extras whose dedupe key is not already present,
// preserving primary order.
func appendUnique(primary, extras []model.ScoredPlace) []model.ScoredPlace {
	seen := make(map[string]bool, len(primary))
	for i := range primary {
		seen[primary[i].DedupeKey()] = true
	}
	for i := range extras {
		key := extras[i].DedupeKey()
		if key == "" || key == "|" || seen[key] {
			continue
		}
		seen[key] = true
		primary = append(primary, extras[i])
	}
	return primary
}
