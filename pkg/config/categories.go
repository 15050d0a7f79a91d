package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CategoriesConfig holds per-category search configuration plus the audience
// query packs layered on top by the delta builder.
type CategoriesConfig struct {
	Categories map[string]Category `yaml:"categories"`

	// AudiencePacks maps segment -> category -> extra queries.
	AudiencePacks map[string]map[string][]string `yaml:"audience_packs"`

	// NeighborhoodBlocklist rejects place names that are clearly not
	// neighborhoods (substring match, case-insensitive).
	NeighborhoodBlocklist []string `yaml:"neighborhood_blocklist"`

	// ChainBlocklist rejects national chains in quality-filtered categories.
	ChainBlocklist []string `yaml:"chain_blocklist"`
}

// Category holds the query plan configuration for one place category.
type Category struct {
	Queries     []string `yaml:"queries"`      // fallback queries, issued in order
	TargetCount int      `yaml:"target_count"` // desired query count after geo/season merge
	MinResults  int      `yaml:"min_results"`  // below this, audience deltas escalate to fallbacks
	MinRating   float64  `yaml:"min_rating"`   // 0 = use the global floor
	MinReviews  int      `yaml:"min_reviews"`  // 0 = use the global floor

	Neighborhood    bool `yaml:"neighborhood"`     // name blocklist instead of rating floors
	QualityFiltered bool `yaml:"quality_filtered"` // apply the chain blocklist
	Augmentable     bool `yaml:"augmentable"`      // participates in audience deltas
	Seasonal        bool `yaml:"seasonal"`         // eligible for seasonal query variants

	Overrides []QueryOverride `yaml:"overrides"`
}

// QueryOverride adjusts quality floors for specific queries within a
// category, matched by case-insensitive substring.
type QueryOverride struct {
	QueryContains string  `yaml:"query_contains"`
	MinRating     float64 `yaml:"min_rating"`
	MinReviews    int     `yaml:"min_reviews"`
}

// Category identifiers. These are also the cache-key category components.
const (
	CatDining        = "dining"
	CatCoffee        = "coffee_shops"
	CatParks         = "parks"
	CatSchools       = "schools"
	CatShopping      = "shopping"
	CatEntertainment = "entertainment"
	CatFitness       = "fitness"
	CatFamilyFun     = "family_fun"
	CatNeighborhoods = "neighborhoods"
)

// DefaultCategories returns the built-in category configuration.
func DefaultCategories() *CategoriesConfig {
	return &CategoriesConfig{
		Categories: map[string]Category{
			CatDining: {
				Queries:         []string{"best restaurants", "top rated dinner spots", "local favorite restaurants"},
				TargetCount:     5,
				MinResults:      3,
				QualityFiltered: true,
				Augmentable:     true,
				Seasonal:        true,
			},
			CatCoffee: {
				Queries:         []string{"best coffee shops", "local cafes"},
				TargetCount:     4,
				MinResults:      3,
				QualityFiltered: true,
				Augmentable:     true,
				Seasonal:        true,
			},
			CatParks: {
				Queries:     []string{"best parks", "nature trails", "outdoor recreation areas"},
				TargetCount: 5,
				MinResults:  3,
				MinReviews:  10,
				Augmentable: true,
				Seasonal:    true,
			},
			CatSchools: {
				Queries:     []string{"top rated schools", "elementary schools", "public library"},
				TargetCount: 4,
				MinResults:  2,
				MinRating:   3.5,
				Augmentable: true,
				Overrides: []QueryOverride{
					// Libraries collect far fewer reviews than schools, but a
					// handful of ratings on a library is still a strong signal.
					{QueryContains: "library", MinReviews: 5, MinRating: 4.0},
				},
			},
			CatShopping: {
				Queries:         []string{"best shopping", "boutique shops", "farmers market"},
				TargetCount:     4,
				MinResults:      3,
				QualityFiltered: true,
				Augmentable:     true,
				Seasonal:        true,
			},
			CatEntertainment: {
				Queries:     []string{"things to do", "live music venues", "museums and attractions"},
				TargetCount: 5,
				MinResults:  3,
				Augmentable: true,
				Seasonal:    true,
			},
			CatFitness: {
				Queries:     []string{"gyms and fitness studios", "yoga studios"},
				TargetCount: 3,
				MinResults:  2,
				Augmentable: true,
			},
			CatFamilyFun: {
				Queries:     []string{"family friendly activities", "playgrounds", "kid friendly attractions"},
				TargetCount: 4,
				MinResults:  3,
				Augmentable: true,
				Seasonal:    true,
			},
			CatNeighborhoods: {
				Queries:      []string{"neighborhoods", "residential neighborhoods", "subdivisions"},
				TargetCount:  4,
				MinResults:   3,
				Neighborhood: true,
				Augmentable:  true,
			},
		},
		AudiencePacks: map[string]map[string][]string{
			"first_time_buyers": {
				CatDining:        {"affordable restaurants", "casual dining"},
				CatEntertainment: {"free things to do", "nightlife"},
				CatNeighborhoods: {"starter home neighborhoods", "up and coming neighborhoods"},
			},
			"family_buyers": {
				CatDining:        {"family friendly restaurants"},
				CatParks:         {"playgrounds", "family parks"},
				CatSchools:       {"top rated elementary schools", "daycare centers"},
				CatFamilyFun:     {"family entertainment centers"},
				CatNeighborhoods: {"family friendly neighborhoods", "neighborhoods with good schools"},
			},
			"luxury_buyers": {
				CatDining:        {"fine dining restaurants", "upscale restaurants"},
				CatShopping:      {"luxury shopping", "designer boutiques"},
				CatFitness:       {"country clubs", "private fitness clubs"},
				CatNeighborhoods: {"luxury neighborhoods", "gated communities", "golf course communities"},
			},
			"senior_downsizers": {
				CatDining:        {"quiet restaurants", "brunch spots"},
				CatParks:         {"walking trails", "botanical gardens"},
				CatFitness:       {"senior fitness centers", "community centers"},
				CatNeighborhoods: {"55+ communities", "quiet residential neighborhoods"},
			},
			"relocators": {
				CatDining:        {"local favorite restaurants", "iconic local eateries"},
				CatEntertainment: {"local landmarks", "downtown attractions"},
				CatNeighborhoods: {"most popular neighborhoods", "best commuter neighborhoods"},
			},
			"investors": {
				CatDining:        {"new restaurants", "trending restaurants"},
				CatNeighborhoods: {"up and coming neighborhoods", "new development neighborhoods"},
			},
		},
		NeighborhoodBlocklist: []string{
			"apartments", "apartment", "storage", "self storage", "mobile home",
			"rv park", "shopping center", "plaza", "mall", "office",
		},
		ChainBlocklist: []string{
			"mcdonald", "burger king", "subway", "taco bell", "wendy's",
			"starbucks", "dunkin", "domino", "pizza hut", "kfc", "chick-fil-a",
			"walmart", "target", "applebee", "chili's", "olive garden", "ihop",
			"denny's", "panera",
		},
	}
}

// LoadCategories loads category configuration from a YAML file, overlaying
// the defaults. A missing path returns the defaults unchanged.
func LoadCategories(path string) (*CategoriesConfig, error) {
	cfg := DefaultCategories()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read categories file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse categories file: %w", err)
	}

	// Normalize category keys so lookups don't have to care about case.
	normalized := make(map[string]Category, len(cfg.Categories))
	for k, v := range cfg.Categories {
		normalized[strings.ToLower(k)] = v
	}
	cfg.Categories = normalized

	return cfg, nil
}

// Get returns the configuration for a category, and whether it exists.
func (c *CategoriesConfig) Get(category string) (Category, bool) {
	cat, ok := c.Categories[strings.ToLower(category)]
	return cat, ok
}

// ResolveFloors returns the effective rating/review floors for a query within
// a category, applying per-query overrides on top of category and global
// defaults.
func (c *CategoriesConfig) ResolveFloors(category, query string, globalRating float64, globalReviews int) (minRating float64, minReviews int) {
	minRating = globalRating
	minReviews = globalReviews

	cat, ok := c.Get(category)
	if !ok {
		return minRating, minReviews
	}
	if cat.MinRating > 0 {
		minRating = cat.MinRating
	}
	if cat.MinReviews > 0 {
		minReviews = cat.MinReviews
	}

	q := strings.ToLower(query)
	for _, ov := range cat.Overrides {
		if ov.QueryContains != "" && strings.Contains(q, strings.ToLower(ov.QueryContains)) {
			if ov.MinRating > 0 {
				minRating = ov.MinRating
			}
			if ov.MinReviews > 0 {
				minReviews = ov.MinReviews
			}
		}
	}
	return minRating, minReviews
}

// AudienceQueries returns the extra queries for a segment and category.
func (c *CategoriesConfig) AudienceQueries(segment, category string) []string {
	pack, ok := c.AudiencePacks[segment]
	if !ok {
		return nil
	}
	return pack[strings.ToLower(category)]
}

// AugmentableCategories lists categories that participate in audience deltas.
func (c *CategoriesConfig) AugmentableCategories() []string {
	var out []string
	for name, cat := range c.Categories {
		if cat.Augmentable {
			out = append(out, name)
		}
	}
	return out
}

// SeasonalCategories lists categories eligible for seasonal phrasing.
func (c *CategoriesConfig) SeasonalCategories() []string {
	var out []string
	for name, cat := range c.Categories {
		if cat.Seasonal {
			out = append(out, name)
		}
	}
	return out
}
