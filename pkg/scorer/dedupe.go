package scorer

import (
	"communityscout/pkg/model"
)

// Dedupe merges duplicate candidates. Identity is the provider place id when
// present, otherwise the normalized name|address key. On collision the
// record with higher reviewCount+rating keeps its scalar fields, while
// summary, keywords, and source queries are unioned from both. Input order
// is preserved for first occurrences.
func Dedupe(places []model.ScoredPlace) []model.ScoredPlace {
	byKey := make(map[string]int, len(places))
	out := make([]model.ScoredPlace, 0, len(places))

	for i := range places {
		key := places[i].DedupeKey()
		if key == "" || key == "|" {
			continue
		}

		idx, ok := byKey[key]
		if !ok {
			byKey[key] = len(out)
			out = append(out, places[i])
			continue
		}

		out[idx] = merge(out[idx], places[i])
	}

	return out
}

// merge combines two records sharing a dedupe key.
func merge(a, b model.ScoredPlace) model.ScoredPlace {
	winner, loser := a, b
	if b.Rating+float64(b.ReviewCount) > a.Rating+float64(a.ReviewCount) {
		winner, loser = b, a
	}

	// Backfill enrichment fields from the losing record rather than
	// discarding them.
	if winner.Summary == "" {
		winner.Summary = loser.Summary
	}
	if winner.PlaceID == "" {
		winner.PlaceID = loser.PlaceID
	}
	winner.Keywords = unionStrings(winner.Keywords, loser.Keywords)
	winner.SourceQueries = unionStrings(winner.SourceQueries, loser.SourceQueries)

	return winner
}

func unionStrings(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
