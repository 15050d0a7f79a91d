package query

import (
	"fmt"
	"hash/fnv"
	"sort"
	"time"
)

// PickSeasonalCategories deterministically chooses which categories may use
// seasonal phrasing for the given seed key (typically zip:month:purpose).
// The selection is stable within a calendar month and bounded by limit, so a
// refresh never swings every category's queries at once.
func PickSeasonalCategories(seedKey string, categories []string, limit int) []string {
	if limit <= 0 || len(categories) == 0 {
		return nil
	}
	if len(categories) <= limit {
		out := append([]string(nil), categories...)
		sort.Strings(out)
		return out
	}

	type scored struct {
		name  string
		score uint64
	}

	scoredCats := make([]scored, 0, len(categories))
	for _, cat := range categories {
		h := fnv.New64a()
		h.Write([]byte(seedKey + "|" + cat))
		scoredCats = append(scoredCats, scored{name: cat, score: h.Sum64()})
	}

	sort.Slice(scoredCats, func(i, j int) bool {
		if scoredCats[i].score != scoredCats[j].score {
			return scoredCats[i].score < scoredCats[j].score
		}
		return scoredCats[i].name < scoredCats[j].name
	})

	out := make([]string, 0, limit)
	for _, sc := range scoredCats[:limit] {
		out = append(out, sc.name)
	}
	sort.Strings(out)
	return out
}

// SeasonalSeed builds the rotation seed for a zip and month.
func SeasonalSeed(zip string, now time.Time, purpose string) string {
	return fmt.Sprintf("%s:%d-%02d:%s", zip, now.UTC().Year(), int(now.UTC().Month()), purpose)
}
