package spatial

import (
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the Earth's mean radius
const EarthRadiusMeters = 6371000.0

// DistanceToLatLng returns the great-circle distance in meters between a point and a precomputed s2.LatLng
func DistanceToLatLng(lat, lon float64, target s2.LatLng) float64 {
	return s2.LatLngFromDegrees(lat, lon).Distance(target).Radians() * EarthRadiusMeters
}

// PlanarDistance returns the Euclidean distance between two projected coordinates
func PlanarDistance(easting1, northing1, easting2, northing2 float64) float64 {
	return math.Hypot(easting2-easting1, northing2-northing1)
}
