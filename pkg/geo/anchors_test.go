package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnchorsZeroOffsetReturnsOrigin(t *testing.T) {
	anchors := Anchors(45.5372, -122.65, 0)
	require.Len(t, anchors, 1)
	assert.Equal(t, 45.5372, anchors[0].Lat)
	assert.Equal(t, -122.65, anchors[0].Lng)
}

func TestAnchorsSpreadsFourOffsets(t *testing.T) {
	anchors := Anchors(45.5372, -122.65, 3.0)
	require.Len(t, anchors, 5)

	// Each offset point sits roughly offsetKm from the origin.
	for _, a := range anchors[1:] {
		d := DistanceKm(45.5372, -122.65, a.Lat, a.Lng)
		assert.InDelta(t, 3.0, d, 0.2)
	}
}

func TestAnchorsTinyOffsetCollapses(t *testing.T) {
	// 50m offsets land in the origin's H3 cell and dedupe away.
	anchors := Anchors(45.5372, -122.65, 0.05)
	assert.Less(t, len(anchors), 5)
}
