// Package places defines the place-search and place-details provider
// contracts and a Google Places API (New) implementation.
package places

import "context"

// PlaceResult is a single normalized search result.
type PlaceResult struct {
	ID          string
	Name        string
	Address     string
	Rating      float64
	ReviewCount int
	Lat         float64
	Lng         float64
	PrimaryType string
	Types       []string
}

// PlaceDetails holds the detail fields used to enrich a sampled place.
// Summary and Keywords may be empty; callers render without them.
type PlaceDetails struct {
	ID       string
	Name     string
	Summary  string
	Keywords []string
}

// SearchProvider finds places by free-text query or by proximity.
type SearchProvider interface {
	// SearchText runs a free-text query biased toward the given point.
	SearchText(ctx context.Context, query string, lat, lng float64) ([]PlaceResult, error)
	// SearchNearby returns places of the given types around the point.
	SearchNearby(ctx context.Context, lat, lng float64, includedTypes []string) ([]PlaceResult, error)
}

// DetailsProvider fetches detail fields for a known place id.
type DetailsProvider interface {
	GetDetails(ctx context.Context, placeID string) (*PlaceDetails, error)
}
