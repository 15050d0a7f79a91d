package geo

import (
	"math"

	"github.com/uber/h3-go/v4"
)

// Anchor is one of the nearby points queried to broaden geographic coverage
// of a single logical search.
type Anchor struct {
	Lat float64
	Lng float64
}

// anchorCellResolution groups anchors into ~1km H3 cells, so offsets that
// land in the same cell collapse into one provider call.
const anchorCellResolution = 8

// Anchors returns the origin plus four offset points spread offsetKm away,
// deduplicated by H3 cell. For a zero or negative offset only the origin is
// returned.
func Anchors(originLat, originLng, offsetKm float64) []Anchor {
	candidates := []Anchor{{Lat: originLat, Lng: originLng}}

	if offsetKm > 0 {
		dLat := offsetKm / 110.574
		dLng := offsetKm / (111.320 * math.Cos(originLat*math.Pi/180.0))

		candidates = append(candidates,
			Anchor{Lat: originLat + dLat, Lng: originLng},
			Anchor{Lat: originLat - dLat, Lng: originLng},
			Anchor{Lat: originLat, Lng: originLng + dLng},
			Anchor{Lat: originLat, Lng: originLng - dLng},
		)
	}

	seen := make(map[h3.Cell]bool, len(candidates))
	out := make([]Anchor, 0, len(candidates))
	for _, a := range candidates {
		cell, err := h3.LatLngToCell(h3.NewLatLng(a.Lat, a.Lng), anchorCellResolution)
		if err != nil {
			out = append(out, a)
			continue
		}
		if seen[cell] {
			continue
		}
		seen[cell] = true
		out = append(out, a)
	}
	return out
}
