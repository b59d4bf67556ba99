package domain

import "math"

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Coordinates is a resolved point. Both fields are required; unresolved
// locations are represented by a nil *Coordinates, not zero values.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Haversine returns the great-circle distance in kilometers between two points.
func Haversine(a, b Coordinates) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// PathDistanceKm sums pairwise great-circle legs along an ordered path of
// [longitude, latitude] pairs, the coordinate order used by the directions
// service. Paths with fewer than two points have zero length.
func PathDistanceKm(path [][2]float64) float64 {
	if len(path) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(path); i++ {
		prev := Coordinates{Latitude: path[i-1][1], Longitude: path[i-1][0]}
		curr := Coordinates{Latitude: path[i][1], Longitude: path[i][0]}
		total += Haversine(prev, curr)
	}
	return total
}
