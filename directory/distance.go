package directory

import (
	"math"
	"sort"
)

const earthRadiusKm = 6371

// haversine calculates the great-circle distance in kilometres between two
// points given in degrees.
func haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * (math.Pi / 180.0)
	dLng := (lng2 - lng1) * (math.Pi / 180.0)
	lat1R := lat1 * (math.Pi / 180.0)
	lat2R := lat2 * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(lat1R)*math.Cos(lat2R)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// DistanceKm returns the distance from the location to the given point.
func (l Location) DistanceKm(lat, lng float64) float64 {
	return haversine(l.Lat, l.Lng, lat, lng)
}

// SortByDistance returns a copy of locs ordered nearest first from the given
// point. Equal distances keep their original relative order.
func SortByDistance(locs []Location, lat, lng float64) []Location {
	sorted := make([]Location, len(locs))
	copy(sorted, locs)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DistanceKm(lat, lng) < sorted[j].DistanceKm(lat, lng)
	})
	return sorted
}
