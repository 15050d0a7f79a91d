package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCategoriesMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadCategories(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	cat, ok := cfg.Get(CatDining)
	require.True(t, ok)
	assert.Contains(t, cat.Queries, "best restaurants")
}

func TestLoadCategoriesOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	overlay := `
categories:
  dining:
    queries: ["hidden gem restaurants"]
    target_count: 7
  Wine_Bars:
    queries: ["wine bars"]
    target_count: 2
`
	require.NoError(t, os.WriteFile(path, []byte(overlay), 0o644))

	cfg, err := LoadCategories(path)
	require.NoError(t, err)

	cat, ok := cfg.Get(CatDining)
	require.True(t, ok)
	assert.Equal(t, []string{"hidden gem restaurants"}, cat.Queries)
	assert.Equal(t, 7, cat.TargetCount)

	_, ok = cfg.Get("wine_bars")
	assert.True(t, ok, "keys normalized to lowercase")

	// Other categories keep their defaults.
	parks, ok := cfg.Get(CatParks)
	require.True(t, ok)
	assert.NotEmpty(t, parks.Queries)
}

func TestResolveFloors(t *testing.T) {
	cfg := DefaultCategories()

	// Category floor overrides the global one.
	rating, reviews := cfg.ResolveFloors(CatSchools, "top rated schools", 4.0, 25)
	assert.Equal(t, 3.5, rating)
	assert.Equal(t, 25, reviews)

	// Per-query override wins over both.
	rating, reviews = cfg.ResolveFloors(CatSchools, "public library near me", 4.0, 25)
	assert.Equal(t, 4.0, rating)
	assert.Equal(t, 5, reviews)

	// Unknown category falls back to the globals.
	rating, reviews = cfg.ResolveFloors("unknown", "q", 4.2, 30)
	assert.Equal(t, 4.2, rating)
	assert.Equal(t, 30, reviews)
}

func TestAudienceQueries(t *testing.T) {
	cfg := DefaultCategories()

	qs := cfg.AudienceQueries("luxury_buyers", CatDining)
	assert.Contains(t, qs, "fine dining restaurants")

	assert.Nil(t, cfg.AudienceQueries("nonexistent_segment", CatDining))
	assert.Nil(t, cfg.AudienceQueries("luxury_buyers", "nonexistent_category"))
}

func TestCategoryFlagLists(t *testing.T) {
	cfg := DefaultCategories()

	assert.Contains(t, cfg.SeasonalCategories(), CatParks)
	assert.NotContains(t, cfg.SeasonalCategories(), CatNeighborhoods)

	aug := cfg.AugmentableCategories()
	assert.Contains(t, aug, CatDining)
	assert.Contains(t, aug, CatNeighborhoods)
}
