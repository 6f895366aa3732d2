package opensky

import "fmt"

// Region is a WGS-84 bounding box used to filter state vectors and airports.
type Region struct {
	MinLatitude  float64 `json:"lamin"`
	MaxLatitude  float64 `json:"lamax"`
	MinLongitude float64 `json:"lomin"`
	MaxLongitude float64 `json:"lomax"`
}

// NewRegion creates a bounding box. It does not validate; call Validate or
// let the client do it before the region is sent.
func NewRegion(lamin, lamax, lomin, lomax float64) Region {
	return Region{
		MinLatitude:  lamin,
		MaxLatitude:  lamax,
		MinLongitude: lomin,
		MaxLongitude: lomax,
	}
}

// Validate checks the bounds are ordered and within range.
// The returned error is a *RequestRejectedError.
func (r Region) Validate() error {
	if err := r.validate(); err != nil {
		return &RequestRejectedError{Op: "Region", Reason: err.Error()}
	}
	return nil
}

func (r Region) validate() error {
	switch {
	case r.MinLatitude < -90 || r.MinLatitude > 90:
		return fmt.Errorf("minimum latitude %g out of range [-90, 90]", r.MinLatitude)
	case r.MaxLatitude < -90 || r.MaxLatitude > 90:
		return fmt.Errorf("maximum latitude %g out of range [-90, 90]", r.MaxLatitude)
	case r.MinLongitude < -180 || r.MinLongitude > 180:
		return fmt.Errorf("minimum longitude %g out of range [-180, 180]", r.MinLongitude)
	case r.MaxLongitude < -180 || r.MaxLongitude > 180:
		return fmt.Errorf("maximum longitude %g out of range [-180, 180]", r.MaxLongitude)
	case r.MinLatitude > r.MaxLatitude:
		return fmt.Errorf("minimum latitude %g exceeds maximum %g", r.MinLatitude, r.MaxLatitude)
	case r.MinLongitude > r.MaxLongitude:
		return fmt.Errorf("minimum longitude %g exceeds maximum %g", r.MinLongitude, r.MaxLongitude)
	}
	return nil
}

// Contains reports whether a position lies inside the box (bounds inclusive).
func (r Region) Contains(lat, lon float64) bool {
	return lat >= r.MinLatitude && lat <= r.MaxLatitude &&
		lon >= r.MinLongitude && lon <= r.MaxLongitude
}
