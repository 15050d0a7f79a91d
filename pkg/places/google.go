package places

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"communityscout/pkg/config"
	"communityscout/pkg/request"
)

const googlePlacesBaseURL = "https://places.googleapis.com/v1/places"

// Field masks for the Places API (New). Search responses carry the fields the
// scorer needs; details add the generative summary used for hydration.
const (
	searchFieldMask  = "places.id,places.displayName,places.formattedAddress,places.location,places.rating,places.userRatingCount,places.types,places.primaryType"
	detailsFieldMask = "id,displayName,types,generativeSummary,editorialSummary"
)

// GoogleClient implements SearchProvider and DetailsProvider against the
// Places API (New). All traffic goes through the queued request client, so
// calls are serialized per provider and subject to its backoff.
type GoogleClient struct {
	client     *request.Client
	baseURL    string
	key        string
	maxResults int
	radiusM    float64
	log        *slog.Logger
}

// NewGoogleClient creates a Places API client from config.
func NewGoogleClient(c *request.Client, cfg *config.PlacesConfig) *GoogleClient {
	maxResults := cfg.MaxResults
	if maxResults <= 0 || maxResults > 20 {
		maxResults = 20
	}
	radius := float64(cfg.RadiusMeters)
	if radius <= 0 {
		radius = 8000
	}
	return &GoogleClient{
		client:     c,
		baseURL:    googlePlacesBaseURL,
		key:        cfg.Key,
		maxResults: maxResults,
		radiusM:    radius,
		log:        slog.With("component", "places"),
	}
}

// googlePlace mirrors the Places API (New) place resource, restricted to the
// masked fields.
type googlePlace struct {
	ID          string `json:"id"`
	DisplayName *struct {
		Text string `json:"text"`
	} `json:"displayName"`
	FormattedAddress string `json:"formattedAddress"`
	Location         struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	Rating            float64  `json:"rating"`
	UserRatingCount   int      `json:"userRatingCount"`
	Types             []string `json:"types"`
	PrimaryType       string   `json:"primaryType"`
	GenerativeSummary *struct {
		Overview *struct {
			Text string `json:"text"`
		} `json:"overview"`
	} `json:"generativeSummary"`
	EditorialSummary *struct {
		Text string `json:"text"`
	} `json:"editorialSummary"`
}

type googleSearchResponse struct {
	Places []googlePlace `json:"places"`
}

// SearchText runs a Text Search biased toward the given point.
func (g *GoogleClient) SearchText(ctx context.Context, query string, lat, lng float64) ([]PlaceResult, error) {
	if g.key == "" {
		return nil, fmt.Errorf("places: no API key configured")
	}

	payload := map[string]any{
		"textQuery":      query,
		"maxResultCount": g.maxResults,
		"locationBias": map[string]any{
			"circle": map[string]any{
				"center": map[string]any{
					"latitude":  lat,
					"longitude": lng,
				},
				"radius": g.radiusM,
			},
		},
	}

	return g.search(ctx, g.baseURL+":searchText", payload)
}

// SearchNearby returns places of the given types around the point. The Places
// API restricts (rather than biases) nearby searches to the circle.
func (g *GoogleClient) SearchNearby(ctx context.Context, lat, lng float64, includedTypes []string) ([]PlaceResult, error) {
	if g.key == "" {
		return nil, fmt.Errorf("places: no API key configured")
	}

	payload := map[string]any{
		"maxResultCount": g.maxResults,
		"locationRestriction": map[string]any{
			"circle": map[string]any{
				"center": map[string]any{
					"latitude":  lat,
					"longitude": lng,
				},
				"radius": g.radiusM,
			},
		},
	}
	if len(includedTypes) > 0 {
		payload["includedTypes"] = includedTypes
	}

	return g.search(ctx, g.baseURL+":searchNearby", payload)
}

func (g *GoogleClient) search(ctx context.Context, endpoint string, payload map[string]any) ([]PlaceResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("places: marshal request: %w", err)
	}

	// Search responses are not cached at the HTTP layer; the pool cache
	// above this client already persists the aggregated result.
	respBody, err := g.client.PostJSON(ctx, endpoint, body, g.headers(searchFieldMask), "")
	if err != nil {
		return nil, fmt.Errorf("places: search failed: %w", err)
	}

	var resp googleSearchResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("places: parse response: %w", err)
	}

	results := make([]PlaceResult, 0, len(resp.Places))
	for _, p := range resp.Places {
		if p.DisplayName == nil || p.DisplayName.Text == "" {
			continue
		}
		results = append(results, PlaceResult{
			ID:          p.ID,
			Name:        p.DisplayName.Text,
			Address:     p.FormattedAddress,
			Rating:      p.Rating,
			ReviewCount: p.UserRatingCount,
			Lat:         p.Location.Latitude,
			Lng:         p.Location.Longitude,
			PrimaryType: p.PrimaryType,
			Types:       p.Types,
		})
	}

	g.log.Debug("Search complete", "endpoint", endpoint, "results", len(results))
	return results, nil
}

// GetDetails fetches detail fields for a place id. Responses are cached for
// 12h under a place-scoped key so re-sampling the same place stays cheap.
func (g *GoogleClient) GetDetails(ctx context.Context, placeID string) (*PlaceDetails, error) {
	if g.key == "" {
		return nil, fmt.Errorf("places: no API key configured")
	}
	if placeID == "" {
		return nil, fmt.Errorf("places: empty place id")
	}

	u := g.baseURL + "/" + placeID
	respBody, err := g.client.Get(ctx, u, g.headers(detailsFieldMask), "place:"+placeID)
	if err != nil {
		return nil, fmt.Errorf("places: details failed for %s: %w", placeID, err)
	}

	var p googlePlace
	if err := json.Unmarshal(respBody, &p); err != nil {
		return nil, fmt.Errorf("places: parse details: %w", err)
	}

	details := &PlaceDetails{
		ID:       p.ID,
		Keywords: keywordsFromTypes(p.Types),
	}
	if p.DisplayName != nil {
		details.Name = p.DisplayName.Text
	}
	if p.GenerativeSummary != nil && p.GenerativeSummary.Overview != nil {
		details.Summary = p.GenerativeSummary.Overview.Text
	}
	if details.Summary == "" && p.EditorialSummary != nil {
		details.Summary = p.EditorialSummary.Text
	}
	return details, nil
}

func (g *GoogleClient) headers(fieldMask string) map[string]string {
	return map[string]string{
		"X-Goog-Api-Key":   g.key,
		"X-Goog-FieldMask": fieldMask,
	}
}

// keywordsFromTypes converts API type tags into display keywords, skipping
// the generic tags every place carries.
func keywordsFromTypes(types []string) []string {
	var out []string
	for _, t := range types {
		switch t {
		case "point_of_interest", "establishment", "food", "store":
			continue
		}
		out = append(out, humanizeType(t))
	}
	return out
}

func humanizeType(t string) string {
	b := []byte(t)
	for i := range b {
		if b[i] == '_' {
			b[i] = ' '
		}
	}
	return string(b)
}
