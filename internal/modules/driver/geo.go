// README: Flat-earth proximity helpers used by the nearby-drivers query.
package driver

import (
	"math"

	"sahayog/internal/types"
)

const (
	kmPerDegree     = 111.0
	DefaultRadiusKm = 10.0
)

// degreeDistanceKm sums the absolute latitude and longitude deltas and scales
// them by a constant km-per-degree. It is not a great-circle distance.
func degreeDistanceKm(a, b types.Point) float64 {
	return (math.Abs(a.Lat-b.Lat) + math.Abs(a.Lng-b.Lng)) * kmPerDegree
}

func roundKm(d float64) float64 {
	return math.Round(d*100) / 100
}

// nearby keeps available profiles within radiusKm of origin. Input order is preserved.
func nearby(profiles []*Profile, origin types.Point, radiusKm float64) []NearbyDriver {
	out := make([]NearbyDriver, 0, len(profiles))
	for _, p := range profiles {
		if !p.Available() {
			continue
		}
		loc, _ := p.Location()
		d := degreeDistanceKm(origin, loc)
		if !(d <= radiusKm) {
			continue
		}
		out = append(out, NearbyDriver{Profile: *p, Distance: roundKm(d)})
	}
	return out
}
