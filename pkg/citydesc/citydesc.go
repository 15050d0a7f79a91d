// Package citydesc generates and caches short marketing descriptions of a
// city, sharing the cache store with the aggregation engine.
package citydesc

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"communityscout/pkg/llm"
	"communityscout/pkg/pool"
	"communityscout/pkg/store"
)

// Provider produces city descriptions, from cache when available.
type Provider struct {
	llm   llm.Provider
	store store.CacheStore // may be nil
	log   *slog.Logger
}

// New creates a Provider.
func New(l llm.Provider, s store.CacheStore) *Provider {
	return &Provider{
		llm:   l,
		store: s,
		log:   slog.With("component", "citydesc"),
	}
}

// Key returns the cache key for a city description.
func Key(stateCode, city string) string {
	return "citydesc:" + strings.ToUpper(stateCode) + ":" + pool.CitySlug(city)
}

const promptTemplate = `Write a warm, factual two-sentence description of %s, %s for
prospective home buyers. Mention what the area is best known for. Plain text,
no headings, no superlatives stacked back to back.`

// Describe returns a short description of the city. Descriptions are stable
// content, so cache entries carry no expiry.
func (p *Provider) Describe(ctx context.Context, city, stateCode string) (string, error) {
	if city == "" || stateCode == "" {
		return "", fmt.Errorf("citydesc: city and state are required")
	}
	key := Key(stateCode, city)

	if p.store != nil {
		if raw, hit := p.store.GetCache(ctx, key); hit {
			return string(raw), nil
		}
	}

	prompt := fmt.Sprintf(promptTemplate, city, strings.ToUpper(stateCode))
	text, err := p.llm.GenerateText(ctx, "citydesc", prompt)
	if err != nil {
		return "", fmt.Errorf("citydesc: generation failed for %s, %s: %w", city, stateCode, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("citydesc: empty description for %s, %s", city, stateCode)
	}

	if p.store != nil {
		if err := p.store.SetCache(ctx, key, []byte(text), 0); err != nil {
			p.log.Warn("Failed to cache city description", "key", key, "error", err)
		}
	}
	return text, nil
}
