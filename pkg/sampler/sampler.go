package sampler

import (
	"math"
	"math/rand"
	"sync"

	"communityscout/pkg/model"
)

// Sampler draws a display-sized, shuffled subset from a rank-sorted pool,
// biased toward higher-ranked candidates but never deterministic, so
// repeated requests show variety without re-querying providers.
//
// The random source is injected so tests can seed it; production callers use
// New with a time-seeded source.
type Sampler struct {
	mu  sync.Mutex // rand.Rand is not safe for concurrent draws
	rng *rand.Rand
}

// New creates a Sampler over the given random source.
func New(rng *rand.Rand) *Sampler {
	return &Sampler{rng: rng}
}

// Tier split of the rank-sorted pool and the share of the draw each tier
// contributes.
const (
	topTierShare    = 0.20
	middleTierShare = 0.50

	topDrawShare    = 0.60
	middleDrawShare = 0.30
	bottomDrawShare = 0.10
)

// Sample returns count items drawn from the pool. When the pool fits within
// count, the whole pool is returned shuffled. Otherwise items are drawn from
// top/middle/bottom rank tiers with a 60/30/10 bias and backfilled from the
// remaining pool, then shuffled again so presentation order doesn't reveal
// tier membership. The input must already be rank-sorted, best first.
func (s *Sampler) Sample(pool []model.ScoredPlace, count int) []model.ScoredPlace {
	if count <= 0 || len(pool) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(pool) <= count {
		out := append([]model.ScoredPlace(nil), pool...)
		s.shuffle(out)
		return out
	}

	topEnd := int(math.Floor(float64(len(pool)) * topTierShare))
	if topEnd < 1 {
		topEnd = 1
	}
	midEnd := topEnd + int(math.Floor(float64(len(pool))*middleTierShare))
	if midEnd <= topEnd {
		midEnd = topEnd + 1
	}
	if midEnd > len(pool) {
		midEnd = len(pool)
	}

	top := pool[:topEnd]
	middle := pool[topEnd:midEnd]
	bottom := pool[midEnd:]

	wantTop := capInt(int(math.Ceil(float64(count)*topDrawShare)), len(top))
	wantMid := capInt(int(math.Ceil(float64(count)*middleDrawShare)), len(middle))
	wantBot := capInt(int(math.Ceil(float64(count)*bottomDrawShare)), len(bottom))

	picked := make([]model.ScoredPlace, 0, count)
	taken := make(map[int]bool, count)

	pick := func(tier []model.ScoredPlace, offset, want int) {
		idxs := s.rng.Perm(len(tier))
		for _, i := range idxs {
			if len(picked) >= count || want <= 0 {
				return
			}
			picked = append(picked, tier[i])
			taken[offset+i] = true
			want--
		}
	}

	pick(top, 0, wantTop)
	pick(middle, topEnd, wantMid)
	pick(bottom, midEnd, wantBot)

	// Backfill any shortfall from the unsampled remainder, in rank order.
	for i := 0; len(picked) < count && i < len(pool); i++ {
		if taken[i] {
			continue
		}
		picked = append(picked, pool[i])
		taken[i] = true
	}

	if len(picked) > count {
		picked = picked[:count]
	}

	s.shuffle(picked)
	return picked
}

// shuffle is an in-place Fisher–Yates shuffle.
func (s *Sampler) shuffle(places []model.ScoredPlace) {
	for i := len(places) - 1; i > 0; i-- {
		j := s.rng.Intn(i + 1)
		places[i], places[j] = places[j], places[i]
	}
}

func capInt(v, max int) int {
	if v > max {
		return max
	}
	return v
}
