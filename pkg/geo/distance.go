package geo

import (
	"fmt"
	"sync"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// Center is a named service-area center point.
type Center struct {
	Name string
	Lat  float64
	Lng  float64
}

// Distancer computes the distance in km from a fixed origin (or set of
// origins) to arbitrary coordinates.
type Distancer interface {
	DistanceKm(lat, lng float64) float64
}

// DistanceCache memoizes great-circle distance from a single origin point.
// It is request-scoped: create one per aggregation, let it go afterwards.
type DistanceCache struct {
	origin orb.Point

	mu    sync.Mutex
	cache map[string]float64
}

// NewDistanceCache creates a cache anchored at the given origin.
func NewDistanceCache(originLat, originLng float64) *DistanceCache {
	return &DistanceCache{
		origin: orb.Point{originLng, originLat},
		cache:  make(map[string]float64),
	}
}

// DistanceKm returns the haversine distance from the origin in km.
func (c *DistanceCache) DistanceKm(lat, lng float64) float64 {
	key := roundedKey(lat, lng)

	c.mu.Lock()
	defer c.mu.Unlock()

	if d, ok := c.cache[key]; ok {
		return d
	}

	d := orbgeo.DistanceHaversine(c.origin, orb.Point{lng, lat}) / 1000.0
	c.cache[key] = d
	return d
}

// ServiceAreaDistanceCache memoizes the minimum haversine distance to any of
// several service-area centers. Used when the caller supplies a service-area
// list instead of relying purely on the origin zip.
type ServiceAreaDistanceCache struct {
	centers []orb.Point

	mu    sync.Mutex
	cache map[string]float64
}

// NewServiceAreaDistanceCache creates a cache over the given centers.
func NewServiceAreaDistanceCache(centers []Center) *ServiceAreaDistanceCache {
	pts := make([]orb.Point, len(centers))
	for i, c := range centers {
		pts[i] = orb.Point{c.Lng, c.Lat}
	}
	return &ServiceAreaDistanceCache{
		centers: pts,
		cache:   make(map[string]float64),
	}
}

// DistanceKm returns the distance to the nearest center in km.
func (c *ServiceAreaDistanceCache) DistanceKm(lat, lng float64) float64 {
	key := roundedKey(lat, lng)

	c.mu.Lock()
	defer c.mu.Unlock()

	if d, ok := c.cache[key]; ok {
		return d
	}

	p := orb.Point{lng, lat}
	best := -1.0
	for _, center := range c.centers {
		d := orbgeo.DistanceHaversine(center, p) / 1000.0
		if best < 0 || d < best {
			best = d
		}
	}
	if best < 0 {
		best = 0
	}

	c.cache[key] = best
	return best
}

// roundedKey collapses coordinates to 5 decimals (~1m) for memoization.
func roundedKey(lat, lng float64) string {
	return fmt.Sprintf("%.5f,%.5f", lat, lng)
}

// DistanceKm is a convenience for one-off distance computations.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	return orbgeo.DistanceHaversine(orb.Point{lng1, lat1}, orb.Point{lng2, lat2}) / 1000.0
}
