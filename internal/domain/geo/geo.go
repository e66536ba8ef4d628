// Package geo provides coordinates and great-circle distance scoring.
package geo

import "math"

// EarthRadiusKm is the mean radius of Earth used for Haversine distance.
const EarthRadiusKm = 6371.0

// FallbackDistanceKm is the distance assigned to candidates whose address
// could not be resolved. Large enough to rank last under any scale, but the
// candidate stays in the pool unless an explicit radius filter removes it.
const FallbackDistanceKm = 10000.0

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Valid reports whether latitude is in [-90,90] and longitude in [-180,180].
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// HaversineKm returns the great-circle distance in kilometers between two
// points, using the half-angle haversine formula.
func HaversineKm(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// DistanceScore normalizes a distance into [0,1]: 1 at zero distance,
// linearly decaying to 0 at scaleKm and beyond. scaleKm is a per-caller
// policy constant, never a hidden default.
func DistanceScore(distanceKm, scaleKm float64) float64 {
	if scaleKm <= 0 {
		return 0
	}
	return math.Max(0, 1-distanceKm/scaleKm)
}
