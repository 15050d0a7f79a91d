package scorer

import (
	"math"
	"sort"
	"strings"

	"communityscout/pkg/config"
	"communityscout/pkg/model"
)

// Scorer filters, scores, and ranks place candidates.
type Scorer struct {
	cats   *config.CategoriesConfig
	engine *config.EngineConfig
}

// NewScorer creates a Scorer.
func NewScorer(cats *config.CategoriesConfig, engine *config.EngineConfig) *Scorer {
	return &Scorer{cats: cats, engine: engine}
}

// RankScore is the composite quality score: popularity (log-scaled reviews),
// quality (rating), and proximity (capped distance penalty). Higher is
// better. The cap keeps far-but-excellent results from being punished
// unboundedly.
func (s *Scorer) RankScore(p *model.ScoredPlace) float64 {
	dist := p.DistanceKm
	if dist > s.engine.DistanceCapKm {
		dist = s.engine.DistanceCapKm
	}
	return math.Log10(float64(p.ReviewCount)+1)*10 + p.Rating - dist*s.engine.DistanceWeight
}

// Accept reports whether a candidate passes the category's filters for the
// query that surfaced it. Distance is checked for every category;
// neighborhood categories use the name blocklist instead of quality floors.
func (s *Scorer) Accept(p *model.ScoredPlace, category, query string) bool {
	if p.Name == "" {
		return false
	}
	if p.DistanceKm > s.engine.MaxDistanceKm {
		return false
	}

	cat, _ := s.cats.Get(category)

	if cat.Neighborhood {
		lower := strings.ToLower(p.Name)
		for _, blocked := range s.cats.NeighborhoodBlocklist {
			if strings.Contains(lower, blocked) {
				return false
			}
		}
		return true
	}

	minRating, minReviews := s.cats.ResolveFloors(category, query, s.engine.MinRating, s.engine.MinReviews)
	if p.Rating < minRating || p.ReviewCount < minReviews {
		return false
	}

	if cat.QualityFiltered {
		lower := strings.ToLower(p.Name)
		for _, chain := range s.cats.ChainBlocklist {
			if strings.Contains(lower, chain) {
				return false
			}
		}
	}

	return true
}

// Rank sorts places by descending rank score, in place, and returns the
// slice for chaining.
func (s *Scorer) Rank(places []model.ScoredPlace) []model.ScoredPlace {
	sort.SliceStable(places, func(i, j int) bool {
		return s.RankScore(&places[i]) > s.RankScore(&places[j])
	})
	return places
}
