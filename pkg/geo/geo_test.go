package geo

import (
	"math"
	"testing"

	"github.com/unklstewy/opensky/pkg/opensky"
)

// TestNormalizeBearing tests bearing normalization
func TestNormalizeBearing(t *testing.T) {
	tests := []struct {
		input float64
		want  float64
	}{
		{0.0, 0.0},
		{359.0, 359.0},
		{360.0, 0.0},
		{361.0, 1.0},
		{-1.0, 359.0},
		{-90.0, 270.0},
		{720.0, 0.0},
	}

	for _, tt := range tests {
		got := NormalizeBearing(tt.input)
		if math.Abs(got-tt.want) > 0.0001 {
			t.Errorf("NormalizeBearing(%.1f) = %.1f, want %.1f", tt.input, got, tt.want)
		}
	}
}

// TestBearing tests cardinal bearings along meridians and the equator
func TestBearing(t *testing.T) {
	origin := Point{Latitude: 0, Longitude: 0}
	tests := []struct {
		name string
		to   Point
		want float64
	}{
		{"north", Point{Latitude: 1, Longitude: 0}, 0},
		{"east", Point{Latitude: 0, Longitude: 1}, 90},
		{"south", Point{Latitude: -1, Longitude: 0}, 180},
		{"west", Point{Latitude: 0, Longitude: -1}, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(origin, tt.to)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("Expected %.2f, got %.2f", tt.want, got)
			}
		})
	}
}

// TestDistance tests haversine distances against known values
func TestDistance(t *testing.T) {
	// One degree of latitude is about 111.19 km on the mean sphere
	got := DistanceKm(Point{Latitude: 0, Longitude: 0}, Point{Latitude: 1, Longitude: 0})
	if math.Abs(got-111.195) > 0.01 {
		t.Errorf("Expected 111.195 km, got %.3f", got)
	}

	// Zurich to Geneva airports, roughly 230 km
	zrh := Point{Latitude: 47.4647, Longitude: 8.5492}
	gva := Point{Latitude: 46.2381, Longitude: 6.1090}
	if d := DistanceKm(zrh, gva); d < 220 || d > 240 {
		t.Errorf("Expected about 230 km, got %.1f", d)
	}
	if nm := DistanceNauticalMiles(zrh, gva); math.Abs(nm-DistanceKm(zrh, gva)/KmPerNauticalMile) > 1e-9 {
		t.Errorf("Expected nautical miles to match km / 1.852, got %.3f", nm)
	}
}

// TestCompass tests compass point rounding
func TestCompass(t *testing.T) {
	tests := map[float64]string{
		0:     "N",
		22.4:  "N",
		22.6:  "NE",
		90:    "E",
		200:   "S",
		337.6: "N",
		-45:   "NW",
	}
	for bearing, want := range tests {
		if got := Compass(bearing); got != want {
			t.Errorf("Compass(%.1f) = %s, want %s", bearing, got, want)
		}
	}
}

// TestFromState tests that vectors without a position are reported
func TestFromState(t *testing.T) {
	lat, lon := 46.5, 7.5
	if _, ok := FromState(opensky.StateVector{Latitude: &lat}); ok {
		t.Error("Expected no position without longitude")
	}
	p, ok := FromState(opensky.StateVector{Latitude: &lat, Longitude: &lon})
	if !ok || p.Latitude != 46.5 || p.Longitude != 7.5 {
		t.Errorf("Expected 46.5,7.5, got %+v (ok=%v)", p, ok)
	}

	c := Center(opensky.NewRegion(45, 47, 6, 10))
	if c.Latitude != 46 || c.Longitude != 8 {
		t.Errorf("Expected center 46,8, got %+v", c)
	}
}
