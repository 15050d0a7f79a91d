package scorer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"communityscout/pkg/config"
	"communityscout/pkg/model"
)

func testEngine() *config.EngineConfig {
	return &config.EngineConfig{
		MaxDistanceKm:  40,
		DistanceCapKm:  15,
		DistanceWeight: 0.5,
		MinRating:      4.0,
		MinReviews:     25,
	}
}

func newTestScorer() *Scorer {
	return NewScorer(config.DefaultCategories(), testEngine())
}

func TestRankScore(t *testing.T) {
	s := newTestScorer()

	p := &model.ScoredPlace{Rating: 4.5, ReviewCount: 999, DistanceKm: 2}
	// log10(1000)*10 + 4.5 - 2*0.5 = 30 + 4.5 - 1 = 33.5
	assert.InDelta(t, 33.5, s.RankScore(p), 1e-9)
}

func TestRankScoreDistanceCapped(t *testing.T) {
	s := newTestScorer()

	near := &model.ScoredPlace{Rating: 4.0, ReviewCount: 99, DistanceKm: 15}
	far := &model.ScoredPlace{Rating: 4.0, ReviewCount: 99, DistanceKm: 38}
	assert.Equal(t, s.RankScore(near), s.RankScore(far))
}

func TestRankOrdersReviewHeavyFirst(t *testing.T) {
	s := newTestScorer()

	places := []model.ScoredPlace{
		{Name: "boutique", Rating: 4.9, ReviewCount: 30, DistanceKm: 1},
		{Name: "institution", Rating: 4.4, ReviewCount: 3000, DistanceKm: 5},
	}
	ranked := s.Rank(places)
	assert.Equal(t, "institution", ranked[0].Name)
}

func TestAcceptQualityFloors(t *testing.T) {
	s := newTestScorer()

	good := &model.ScoredPlace{Name: "Good Spot", Rating: 4.2, ReviewCount: 120, DistanceKm: 3}
	assert.True(t, s.Accept(good, config.CatDining, "best restaurants"))

	lowRating := &model.ScoredPlace{Name: "Meh", Rating: 3.9, ReviewCount: 500, DistanceKm: 3}
	assert.False(t, s.Accept(lowRating, config.CatDining, "best restaurants"))

	fewReviews := &model.ScoredPlace{Name: "New Spot", Rating: 4.8, ReviewCount: 10, DistanceKm: 3}
	assert.False(t, s.Accept(fewReviews, config.CatDining, "best restaurants"))
}

func TestAcceptDistanceFilter(t *testing.T) {
	s := newTestScorer()

	outlier := &model.ScoredPlace{Name: "Far Away", Rating: 4.9, ReviewCount: 900, DistanceKm: 41}
	assert.False(t, s.Accept(outlier, config.CatDining, "best restaurants"))
}

func TestAcceptChainBlocklist(t *testing.T) {
	s := newTestScorer()

	chain := &model.ScoredPlace{Name: "McDonald's", Rating: 4.1, ReviewCount: 2000, DistanceKm: 1}
	assert.False(t, s.Accept(chain, config.CatDining, "best restaurants"))

	// Parks are not quality-filtered, so the blocklist does not apply there.
	oddPark := &model.ScoredPlace{Name: "Starbucks Memorial Park", Rating: 4.5, ReviewCount: 80, DistanceKm: 1}
	assert.True(t, s.Accept(oddPark, config.CatParks, "best parks"))
}

func TestAcceptNeighborhoodBlocklist(t *testing.T) {
	s := newTestScorer()

	// Neighborhoods skip rating floors entirely.
	unrated := &model.ScoredPlace{Name: "Ladd's Addition", Rating: 0, ReviewCount: 0, DistanceKm: 2}
	assert.True(t, s.Accept(unrated, config.CatNeighborhoods, "neighborhoods"))

	complex := &model.ScoredPlace{Name: "Riverview Apartments", Rating: 4.8, ReviewCount: 300, DistanceKm: 2}
	assert.False(t, s.Accept(complex, config.CatNeighborhoods, "neighborhoods"))
}

func TestAcceptQueryOverride(t *testing.T) {
	s := newTestScorer()

	// Libraries carry a lower review floor via the schools override.
	library := &model.ScoredPlace{Name: "Central Library", Rating: 4.6, ReviewCount: 8, DistanceKm: 2}
	assert.True(t, s.Accept(library, config.CatSchools, "public library"))
	assert.False(t, s.Accept(library, config.CatSchools, "top rated schools"))
}

func TestAcceptNamelessRejected(t *testing.T) {
	s := newTestScorer()
	assert.False(t, s.Accept(&model.ScoredPlace{Rating: 5, ReviewCount: 1000}, config.CatDining, "q"))
}

func TestRankScoreMonotonicInReviews(t *testing.T) {
	s := newTestScorer()
	prev := math.Inf(-1)
	for _, reviews := range []int{0, 10, 100, 1000, 10000} {
		score := s.RankScore(&model.ScoredPlace{Rating: 4.0, ReviewCount: reviews, DistanceKm: 1})
		assert.Greater(t, score, prev)
		prev = score
	}
}
