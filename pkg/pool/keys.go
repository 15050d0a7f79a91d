// Package pool persists per-category candidate place sets ("pools") with
// month-granularity staleness, serving stale pools while refreshing them in
// the background.
package pool

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// BaseKey returns the hierarchical cache key prefix for a location:
// community:<zip> or community:<zip>:<STATE>:<city-slug> when the caller
// disambiguated the zip by city/state. Identical inputs always produce the
// identical key.
func BaseKey(zip, stateCode, city string) string {
	var b strings.Builder
	b.WriteString("community:")
	b.WriteString(zip)
	if stateCode != "" && city != "" {
		b.WriteString(":")
		b.WriteString(strings.ToUpper(stateCode))
		b.WriteString(":")
		b.WriteString(CitySlug(city))
	}
	return b.String()
}

// PoolKey returns the cache key for a place pool:
// <base>:pool:<category>[:<audience>][:sa:<hash12>].
func PoolKey(baseKey, category, audience, saSignature string) string {
	var b strings.Builder
	b.WriteString(baseKey)
	b.WriteString(":pool:")
	b.WriteString(category)
	if audience != "" {
		b.WriteString(":")
		b.WriteString(audience)
	}
	if saSignature != "" {
		b.WriteString(":sa:")
		b.WriteString(saSignature)
	}
	return b.String()
}

// AudienceKey returns the cache key for an audience delta:
// <base>:aud:<segment>[:sa:<hash12>].
func AudienceKey(baseKey, segment, saSignature string) string {
	key := baseKey + ":aud:" + segment
	if saSignature != "" {
		key += ":sa:" + saSignature
	}
	return key
}

// CommunityKey returns the cache key for the assembled community data
// record.
func CommunityKey(baseKey string) string {
	return baseKey + ":data"
}

// PlaceKey returns the cache key for hydrated place details.
func PlaceKey(placeID string) string {
	return "place:" + placeID
}

// ServiceAreaSignature hashes a caller-supplied service-area list into a
// short stable signature. The list is normalized (trimmed, lowercased,
// sorted) first so input order never changes the key. Empty input yields "".
func ServiceAreaSignature(areas []string) string {
	normalized := make([]string, 0, len(areas))
	for _, a := range areas {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" {
			normalized = append(normalized, a)
		}
	}
	if len(normalized) == 0 {
		return ""
	}
	sort.Strings(normalized)

	sum := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(sum[:])[:12]
}

// CitySlug lowercases a city name and collapses runs of non-alphanumerics
// into single dashes.
func CitySlug(city string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(city)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
