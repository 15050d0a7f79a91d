package model

import "strings"

// Audience segments. The canonical short names are used everywhere,
// including cache keys; aliases from older data are normalized on input.
const (
	AudienceFirstTime  = "first_time_buyers"
	AudienceFamily     = "family_buyers"
	AudienceLuxury     = "luxury_buyers"
	AudienceSenior     = "senior_downsizers"
	AudienceRelocators = "relocators"
	AudienceInvestors  = "investors"
)

var audienceAliases = map[string]string{
	"luxury_homebuyers": AudienceLuxury,
	"first_time":        AudienceFirstTime,
	"family":            AudienceFamily,
	"seniors":           AudienceSenior,
}

// NormalizeAudience maps a caller-supplied segment name to its canonical
// form. Unknown segments are returned lowercased as-is so cache keys stay
// stable even for segments added later.
func NormalizeAudience(segment string) string {
	s := strings.ToLower(strings.TrimSpace(segment))
	if canonical, ok := audienceAliases[s]; ok {
		return canonical
	}
	return s
}

// NeighborhoodVariant returns which neighborhood list a segment should see.
func NeighborhoodVariant(segment string) string {
	switch NormalizeAudience(segment) {
	case AudienceFamily:
		return "family"
	case AudienceLuxury:
		return "luxury"
	case AudienceSenior:
		return "senior"
	case AudienceRelocators:
		return "relocators"
	default:
		return "general"
	}
}
