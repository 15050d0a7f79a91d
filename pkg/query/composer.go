package query

import (
	"strings"
	"time"

	"communityscout/pkg/config"
	"communityscout/pkg/model"
)

// Composer builds the search query plan for a category at a location.
type Composer struct {
	cats *config.CategoriesConfig
}

// NewComposer creates a Composer over the given category configuration.
func NewComposer(cats *config.CategoriesConfig) *Composer {
	return &Composer{cats: cats}
}

// Build merges base queries with regional and seasonal variants for the
// location. Base queries always survive; variants fill up to the category's
// target count. seasonalAllowed gates season phrasing so only the monthly
// rotation of categories injects it. The merge is case-insensitive
// deduplicating and order-preserving: base first, then seasonal, then
// regional.
func (c *Composer) Build(loc *model.Location, category string, baseQueries []string, now time.Time, seasonalAllowed bool) []string {
	target := 0
	if cat, ok := c.cats.Get(category); ok {
		target = cat.TargetCount
	}

	merged := make([]string, 0, len(baseQueries)+4)
	seen := make(map[string]bool, len(baseQueries)+4)

	add := func(q string) {
		q = strings.TrimSpace(q)
		if q == "" {
			return
		}
		key := strings.ToLower(q)
		if seen[key] {
			return
		}
		seen[key] = true
		merged = append(merged, q)
	}

	for _, q := range baseQueries {
		add(q)
	}
	base := len(merged)

	var additions []string
	if seasonalAllowed {
		season := SeasonFor(loc.Lat, now.UTC().Month())
		additions = append(additions, SeasonVariants(season, category)...)
	}
	additions = append(additions, GeoVariants(loc.StateCode, loc.Lat, category)...)

	for _, q := range additions {
		if target > 0 && len(merged) >= target && len(merged) >= base {
			break
		}
		add(q)
	}

	return merged
}

// Localize is the fallback-escalation variant of Build: it localizes an
// already-combined query list without re-applying the target cap, used when
// an audience pack plus fallbacks must all be issued.
func (c *Composer) Localize(loc *model.Location, category string, queries []string, now time.Time, seasonalAllowed bool) []string {
	merged := make([]string, 0, len(queries)+4)
	seen := make(map[string]bool, len(queries)+4)

	add := func(q string) {
		q = strings.TrimSpace(q)
		if q == "" {
			return
		}
		key := strings.ToLower(q)
		if seen[key] {
			return
		}
		seen[key] = true
		merged = append(merged, q)
	}

	for _, q := range queries {
		add(q)
	}
	if seasonalAllowed {
		season := SeasonFor(loc.Lat, now.UTC().Month())
		for _, q := range SeasonVariants(season, category) {
			add(q)
		}
	}
	for _, q := range GeoVariants(loc.StateCode, loc.Lat, category) {
		add(q)
	}

	return merged
}

// MergeQueries appends extras to primary, order-preserving and
// case-insensitive deduplicating, stopping once target is reached (0 = no
// cap). Primary entries are never dropped.
func MergeQueries(primary, extras []string, target int) []string {
	merged := make([]string, 0, len(primary)+len(extras))
	seen := make(map[string]bool, len(primary)+len(extras))

	for _, q := range primary {
		key := strings.ToLower(strings.TrimSpace(q))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, q)
	}

	for _, q := range extras {
		if target > 0 && len(merged) >= target {
			break
		}
		key := strings.ToLower(strings.TrimSpace(q))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, q)
	}

	return merged
}
