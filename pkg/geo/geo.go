// Package geo provides great-circle helpers for positions reported in
// state vectors.
package geo

import (
	"math"

	"github.com/unklstewy/opensky/pkg/opensky"
)

const (
	degreesToRadians = math.Pi / 180.0
	radiansToDegrees = 180.0 / math.Pi

	// EarthRadiusKm is the WGS84 mean radius
	EarthRadiusKm = 6371.0

	// KmPerNauticalMile converts nautical miles to kilometers
	KmPerNauticalMile = 1.852
)

// Point is a WGS84 position in decimal degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// FromState returns the position of a state vector. ok is false when the
// vector carries no position.
func FromState(sv opensky.StateVector) (p Point, ok bool) {
	if sv.Latitude == nil || sv.Longitude == nil {
		return Point{}, false
	}
	return Point{Latitude: *sv.Latitude, Longitude: *sv.Longitude}, true
}

// Center returns the midpoint of a bounding box.
func Center(r opensky.Region) Point {
	return Point{
		Latitude:  (r.MinLatitude + r.MaxLatitude) / 2,
		Longitude: (r.MinLongitude + r.MaxLongitude) / 2,
	}
}

// NormalizeBearing maps a bearing into [0, 360).
func NormalizeBearing(bearing float64) float64 {
	b := math.Mod(bearing, 360.0)
	if b < 0 {
		b += 360.0
	}
	return b
}

// Bearing returns the initial great-circle bearing from one point to another
// in degrees, where 0 = North and 90 = East.
func Bearing(from, to Point) float64 {
	lat1 := from.Latitude * degreesToRadians
	lat2 := to.Latitude * degreesToRadians
	dLon := (to.Longitude - from.Longitude) * degreesToRadians

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return NormalizeBearing(math.Atan2(y, x) * radiansToDegrees)
}

// DistanceKm returns the haversine great-circle distance in kilometers.
func DistanceKm(from, to Point) float64 {
	lat1 := from.Latitude * degreesToRadians
	lat2 := to.Latitude * degreesToRadians
	dLat := lat2 - lat1
	dLon := (to.Longitude - from.Longitude) * degreesToRadians

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// DistanceNauticalMiles returns the great-circle distance in nautical miles.
func DistanceNauticalMiles(from, to Point) float64 {
	return DistanceKm(from, to) / KmPerNauticalMile
}

var compassPoints = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Compass returns the eight-point compass direction nearest a bearing.
func Compass(bearing float64) string {
	idx := int(math.Floor(NormalizeBearing(bearing)/45.0+0.5)) % len(compassPoints)
	return compassPoints[idx]
}
