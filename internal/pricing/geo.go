package pricing

import (
	"math"

	"github.com/smartkurv/pricing-service/internal/stores"
)

const earthRadiusMeters = 6371000.0

// Haversine calculates the great-circle distance between two points in
// meters.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// FilterByRadius returns the stores within radiusMeters of loc, preserving
// input order. The boundary is inclusive. A nil location fails open and
// returns all stores.
func FilterByRadius(all []stores.Store, loc *Location, radiusMeters float64) []stores.Store {
	if loc == nil {
		return all
	}
	var out []stores.Store
	for _, s := range all {
		if Haversine(loc.Lat, loc.Lon, s.Lat, s.Lon) <= radiusMeters {
			out = append(out, s)
		}
	}
	return out
}
