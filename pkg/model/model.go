package model

import (
	"strings"
	"time"
)

// CityRecord is one row of the static city/zip reference dataset.
// Records are immutable after load; many zip codes may map to one record.
type CityRecord struct {
	City       string   `json:"city"`
	StateCode  string   `json:"state_code"`
	CountyName string   `json:"county_name"`
	Lat        float64  `json:"lat"`
	Lng        float64  `json:"lng"`
	Population int      `json:"population"`
	ZipCodes   []string `json:"zip_codes"`
}

// HasZip reports whether the record claims the given zip code.
func (c *CityRecord) HasZip(zip string) bool {
	for _, z := range c.ZipCodes {
		if z == zip {
			return true
		}
	}
	return false
}

// Location is a resolved request location: the zip the caller asked about
// plus the best-matching city record.
type Location struct {
	Zip        string  `json:"zip"`
	City       string  `json:"city"`
	StateCode  string  `json:"state_code"`
	CountyName string  `json:"county_name"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Population int     `json:"population"`
}

// ScoredPlace is a normalized, scored place candidate built from provider
// results. Only dedupe merging mutates it (summary/keyword backfill).
type ScoredPlace struct {
	Name        string   `json:"name"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"review_count"`
	Address     string   `json:"address"`
	Category    string   `json:"category"`
	PlaceID     string   `json:"place_id,omitempty"`
	DistanceKm  float64  `json:"distance_km,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	// Queries that surfaced this place, for debugging pool composition.
	SourceQueries []string `json:"source_queries,omitempty"`
}

// DedupeKey returns the identity used for pool deduplication: the provider
// place id when present, otherwise a normalized name|address composite.
func (p *ScoredPlace) DedupeKey() string {
	if p.PlaceID != "" {
		return p.PlaceID
	}
	return NormalizeKey(p.Name + "|" + p.Address)
}

// NormalizeKey lowercases and strips non-alphanumerics (keeping the field
// separator) so cosmetic differences don't defeat deduplication.
func NormalizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '|':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CachedPlacePool is the persisted candidate set for one
// (zip, category, audience?, service-area signature?) combination.
// It is replaced wholesale on refresh, never mutated in place.
type CachedPlacePool struct {
	Items      []ScoredPlace `json:"items"`
	FetchedAt  time.Time     `json:"fetched_at"`
	QueryCount int           `json:"query_count"`
}

// AudienceDelta holds per-category formatted list overrides for one buyer
// segment. Only categories with at least one real entry are present.
type AudienceDelta map[string]string

// CommunityData is the final assembled record: one formatted text list per
// category plus neighborhood variants and optional seasonal sections.
type CommunityData struct {
	Zip       string `json:"zip"`
	City      string `json:"city"`
	StateCode string `json:"state_code"`

	Dining        string `json:"dining"`
	CoffeeShops   string `json:"coffee_shops"`
	Parks         string `json:"parks"`
	Schools       string `json:"schools"`
	Shopping      string `json:"shopping"`
	Entertainment string `json:"entertainment"`
	Fitness       string `json:"fitness"`
	FamilyFun     string `json:"family_fun"`

	// Neighborhood lists by buyer angle. General is always populated; the
	// others fall back to it when thin.
	Neighborhoods           string `json:"neighborhoods"`
	NeighborhoodsFamily     string `json:"neighborhoods_family"`
	NeighborhoodsLuxury     string `json:"neighborhoods_luxury"`
	NeighborhoodsSenior     string `json:"neighborhoods_senior"`
	NeighborhoodsRelocators string `json:"neighborhoods_relocators"`

	// Seasonal sections, present only for the categories chosen by the
	// monthly rotation.
	Seasonal map[string]string `json:"seasonal,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// NoEntriesSentinel is the exact marker used when a category produced no
// usable places. Lists contain either real entries or this string, never
// a mix and never "".
const NoEntriesSentinel = "No entries found"
