// Package community assembles the final community data record for a zip:
// category fan-out over cached place pools, weighted sampling, detail
// hydration, and the audience-merged view.
package community

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"communityscout/pkg/audience"
	"communityscout/pkg/config"
	"communityscout/pkg/geo"
	"communityscout/pkg/model"
	"communityscout/pkg/places"
	"communityscout/pkg/pool"
	"communityscout/pkg/query"
	"communityscout/pkg/sampler"
	"communityscout/pkg/store"
)

// Assembler orchestrates the aggregation pipeline for one zip code.
type Assembler struct {
	dataset  *geo.Dataset
	cats     *config.CategoriesConfig
	engine   *config.EngineConfig
	composer *query.Composer
	pools    *pool.Cache
	fetcher  *pool.Fetcher
	sampler  *sampler.Sampler
	builder  *audience.Builder
	details  places.DetailsProvider // nil: render without summaries
	store    store.CacheStore       // nil: rebuild on every request
	log      *slog.Logger
	now      func() time.Time
}

// NewAssembler creates an Assembler.
func NewAssembler(dataset *geo.Dataset, cats *config.CategoriesConfig, engine *config.EngineConfig,
	composer *query.Composer, pools *pool.Cache, fetcher *pool.Fetcher, smp *sampler.Sampler,
	builder *audience.Builder, details places.DetailsProvider, s store.CacheStore) *Assembler {
	return &Assembler{
		dataset:  dataset,
		cats:     cats,
		engine:   engine,
		composer: composer,
		pools:    pools,
		fetcher:  fetcher,
		sampler:  smp,
		builder:  builder,
		details:  details,
		store:    s,
		log:      slog.With("component", "community"),
		now:      time.Now,
	}
}

// Request identifies the location and view to aggregate.
type Request struct {
	Zip          string
	City         string // optional disambiguation
	State        string // optional disambiguation
	ServiceAreas []string
	Audience     string // optional segment; aliases are normalized
}

// neighborhood variant segments built alongside the general list.
var variantSegments = map[string]string{
	"family":     model.AudienceFamily,
	"luxury":     model.AudienceLuxury,
	"senior":     model.AudienceSenior,
	"relocators": model.AudienceRelocators,
}

// Aggregate returns the community data for the request. The base record is
// cached until the end of the current UTC month; an audience view is merged
// on top per call. A nil result with nil error means the zip resolved to no
// known location, which is an expected outcome.
func (a *Assembler) Aggregate(ctx context.Context, req *Request) (*model.CommunityData, error) {
	reqID := uuid.NewString()
	log := a.log.With("request_id", reqID, "zip", req.Zip)

	loc, err := a.dataset.ResolveLocation(req.Zip, req.City, req.State)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		log.Info("Zip resolved to no known location")
		return nil, nil
	}

	baseKey := pool.BaseKey(req.Zip, req.State, req.City)
	saSig := pool.ServiceAreaSignature(req.ServiceAreas)

	base, err := a.baseData(ctx, log, req, loc, baseKey, saSig)
	if err != nil {
		return nil, err
	}

	if req.Audience == "" {
		return base, nil
	}
	return a.audienceView(ctx, log, req, loc, base, baseKey, saSig)
}

// baseData returns the cached base record or builds and caches a new one.
func (a *Assembler) baseData(ctx context.Context, log *slog.Logger, req *Request, loc *model.Location, baseKey, saSig string) (*model.CommunityData, error) {
	cacheKey := pool.CommunityKey(baseKey)

	if a.store != nil {
		if raw, hit := a.store.GetCache(ctx, cacheKey); hit {
			var cached model.CommunityData
			if err := json.Unmarshal(raw, &cached); err == nil {
				log.Debug("Serving cached community data", "key", cacheKey)
				return &cached, nil
			}
			log.Warn("Discarding unreadable community data", "key", cacheKey)
		}
	}

	data, err := a.build(ctx, log, req, loc, baseKey, saSig)
	if err != nil {
		return nil, err
	}

	if a.store != nil {
		if raw, err := json.Marshal(data); err == nil {
			ttl := pool.EndOfMonthTTL(a.now())
			if err := a.store.SetCache(ctx, cacheKey, raw, ttl); err != nil {
				log.Warn("Failed to cache community data", "key", cacheKey, "error", err)
			}
		}
	}
	return data, nil
}

// build runs the full pipeline: anchors, distance model, seasonal rotation,
// concurrent category fan-out, sampling, hydration, formatting.
func (a *Assembler) build(ctx context.Context, log *slog.Logger, req *Request, loc *model.Location, baseKey, saSig string) (*model.CommunityData, error) {
	now := a.now()
	anchors := geo.Anchors(loc.Lat, loc.Lng, a.engine.AnchorOffsetKm)
	dist := a.distancer(log, req, loc)

	seed := query.SeasonalSeed(req.Zip, now, "community")
	allowed := make(map[string]bool)
	for _, cat := range query.PickSeasonalCategories(seed, a.cats.SeasonalCategories(), a.engine.SeasonalLimit) {
		allowed[cat] = true
	}

	data := &model.CommunityData{
		Zip:         req.Zip,
		City:        loc.City,
		StateCode:   loc.StateCode,
		GeneratedAt: now.UTC(),
	}

	type catResult struct {
		category string
		list     string
		seasonal string
	}

	categories := []string{
		config.CatDining, config.CatCoffee, config.CatParks, config.CatSchools,
		config.CatShopping, config.CatEntertainment, config.CatFitness,
		config.CatFamilyFun, config.CatNeighborhoods,
	}

	results := make(chan catResult, len(categories))
	var wg sync.WaitGroup
	for _, category := range categories {
		wg.Add(1)
		go func(category string) {
			defer wg.Done()
			list, seasonal := a.buildCategory(ctx, log, loc, baseKey, saSig, category, anchors, dist, now, allowed[category])
			results <- catResult{category: category, list: list, seasonal: seasonal}
		}(category)
	}
	wg.Wait()
	close(results)

	for r := range results {
		a.assign(data, r.category, r.list)
		if r.seasonal != "" {
			if data.Seasonal == nil {
				data.Seasonal = make(map[string]string)
			}
			data.Seasonal[r.category] = r.seasonal
		}
	}

	a.buildNeighborhoodVariants(ctx, log, req, loc, data, baseKey, saSig, anchors, dist, allowed)

	return data, nil
}

// buildCategory produces the formatted list for one category, plus the
// seasonal section when the category is in this month's rotation and
// season-flavored queries surfaced anything.
func (a *Assembler) buildCategory(ctx context.Context, log *slog.Logger, loc *model.Location, baseKey, saSig, category string, anchors []geo.Anchor, dist geo.Distancer, now time.Time, seasonalAllowed bool) (list, seasonal string) {
	cat, ok := a.cats.Get(category)
	if !ok {
		return model.NoEntriesSentinel, ""
	}

	queries := a.composer.Build(loc, category, cat.Queries, now, seasonalAllowed)
	poolKey := pool.PoolKey(baseKey, category, "", saSig)

	items, err := a.pools.Get(ctx, poolKey, func(ctx context.Context) ([]model.ScoredPlace, int, error) {
		found, err := a.fetcher.Fetch(ctx, category, queries, anchors, dist)
		return found, len(queries), err
	})
	if err != nil {
		log.Warn("Category fetch failed", "category", category, "error", err)
		return model.NoEntriesSentinel, ""
	}
	if len(items) == 0 {
		return model.NoEntriesSentinel, ""
	}

	picked := a.sampler.Sample(items, a.engine.DisplayCount)
	a.hydrate(ctx, log, picked)
	list = model.FormatList(picked, a.engine.DisplayCount)

	if seasonalAllowed {
		seasonal = a.seasonalSection(loc, category, items, now)
	}
	return list, seasonal
}

// seasonalSection formats the pool entries that were surfaced by
// season-flavored queries. Empty when none were.
func (a *Assembler) seasonalSection(loc *model.Location, category string, items []model.ScoredPlace, now time.Time) string {
	season := query.SeasonFor(loc.Lat, now.UTC().Month())
	variants := make(map[string]bool)
	for _, q := range query.SeasonVariants(season, category) {
		variants[q] = true
	}
	if len(variants) == 0 {
		return ""
	}

	var seasonalItems []model.ScoredPlace
	for _, item := range items {
		for _, q := range item.SourceQueries {
			if variants[q] {
				seasonalItems = append(seasonalItems, item)
				break
			}
		}
	}
	if len(seasonalItems) == 0 {
		return ""
	}
	return model.FormatList(seasonalItems, a.engine.DisplayCount)
}

// buildNeighborhoodVariants fills the per-audience neighborhood lists. A
// variant that comes back thin falls back to the general list.
func (a *Assembler) buildNeighborhoodVariants(ctx context.Context, log *slog.Logger, req *Request, loc *model.Location, data *model.CommunityData, baseKey, saSig string, anchors []geo.Anchor, dist geo.Distancer, allowed map[string]bool) {
	for variant, segment := range variantSegments {
		areq := &audience.Request{
			Location:        loc,
			BaseKey:         baseKey,
			Segment:         segment,
			SASignature:     saSig,
			Anchors:         anchors,
			Dist:            dist,
			SeasonalAllowed: allowed,
		}
		list, err := a.builder.BuildCategoryList(ctx, areq, config.CatNeighborhoods)
		if err != nil {
			log.Warn("Neighborhood variant failed", "variant", variant, "error", err)
		}
		if list == "" {
			list = data.Neighborhoods
		}
		a.assignVariant(data, variant, list)
	}
}

// hydrate backfills summary/keywords for the top sampled places from the
// details provider. Failures degrade that single place, never the list.
func (a *Assembler) hydrate(ctx context.Context, log *slog.Logger, picked []model.ScoredPlace) {
	if a.details == nil {
		return
	}

	hydrated := 0
	for i := range picked {
		if hydrated >= a.engine.HydrateCount {
			break
		}
		p := &picked[i]
		if p.PlaceID == "" || (p.Summary != "" && len(p.Keywords) > 0) {
			continue
		}

		d, err := a.details.GetDetails(ctx, p.PlaceID)
		if err != nil {
			log.Warn("Place hydration failed", "place_id", p.PlaceID, "error", err)
			continue
		}
		if p.Summary == "" {
			p.Summary = d.Summary
		}
		if len(p.Keywords) == 0 {
			p.Keywords = d.Keywords
		}
		hydrated++
	}
}

// audienceView merges the segment's delta over a copy of the base record and
// selects the matching neighborhood variant.
func (a *Assembler) audienceView(ctx context.Context, log *slog.Logger, req *Request, loc *model.Location, base *model.CommunityData, baseKey, saSig string) (*model.CommunityData, error) {
	segment := model.NormalizeAudience(req.Audience)

	now := a.now()
	seed := query.SeasonalSeed(req.Zip, now, "community")
	allowed := make(map[string]bool)
	for _, cat := range query.PickSeasonalCategories(seed, a.cats.SeasonalCategories(), a.engine.SeasonalLimit) {
		allowed[cat] = true
	}

	delta, err := a.builder.Build(ctx, &audience.Request{
		Location:        loc,
		BaseKey:         baseKey,
		Segment:         segment,
		SASignature:     saSig,
		Anchors:         geo.Anchors(loc.Lat, loc.Lng, a.engine.AnchorOffsetKm),
		Dist:            a.distancer(log, req, loc),
		SeasonalAllowed: allowed,
	})
	if err != nil {
		// The base record is still worth returning.
		log.Warn("Audience delta failed, serving base data", "segment", segment, "error", err)
		delta = nil
	}

	view := *base
	view.Neighborhoods = a.variantList(base, model.NeighborhoodVariant(segment))

	for category, deltaList := range delta {
		field := a.field(&view, category)
		if field == nil {
			continue
		}
		*field = audience.MergeLists(deltaList, *field, a.engine.DisplayCount)
	}

	return &view, nil
}

// distancer picks the distance model: nearest service-area center when the
// caller supplied areas that resolve, plain origin distance otherwise.
func (a *Assembler) distancer(log *slog.Logger, req *Request, loc *model.Location) geo.Distancer {
	if len(req.ServiceAreas) > 0 {
		centers, err := a.dataset.ResolveServiceAreaCenters(req.ServiceAreas, loc)
		if err != nil {
			log.Warn("Service area resolution failed", "error", err)
		}
		if len(centers) > 0 {
			return geo.NewServiceAreaDistanceCache(centers)
		}
	}
	return geo.NewDistanceCache(loc.Lat, loc.Lng)
}

// assign writes a category's formatted list into its CommunityData field.
func (a *Assembler) assign(data *model.CommunityData, category, list string) {
	if field := a.field(data, category); field != nil {
		*field = list
	}
}

func (a *Assembler) field(data *model.CommunityData, category string) *string {
	switch category {
	case config.CatDining:
		return &data.Dining
	case config.CatCoffee:
		return &data.CoffeeShops
	case config.CatParks:
		return &data.Parks
	case config.CatSchools:
		return &data.Schools
	case config.CatShopping:
		return &data.Shopping
	case config.CatEntertainment:
		return &data.Entertainment
	case config.CatFitness:
		return &data.Fitness
	case config.CatFamilyFun:
		return &data.FamilyFun
	case config.CatNeighborhoods:
		return &data.Neighborhoods
	}
	return nil
}

func (a *Assembler) assignVariant(data *model.CommunityData, variant, list string) {
	switch variant {
	case "family":
		data.NeighborhoodsFamily = list
	case "luxury":
		data.NeighborhoodsLuxury = list
	case "senior":
		data.NeighborhoodsSenior = list
	case "relocators":
		data.NeighborhoodsRelocators = list
	}
}

func (a *Assembler) variantList(data *model.CommunityData, variant string) string {
	switch variant {
	case "family":
		return data.NeighborhoodsFamily
	case "luxury":
		return data.NeighborhoodsLuxury
	case "senior":
		return data.NeighborhoodsSenior
	case "relocators":
		return data.NeighborhoodsRelocators
	default:
		return data.Neighborhoods
	}
}
