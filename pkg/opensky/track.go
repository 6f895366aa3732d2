package opensky

import (
	"bytes"
	"encoding/json"
	"time"
)

// Track is the trajectory of one aircraft.
type Track struct {
	ICAO24 string `json:"icao24"`

	// StartTime and EndTime are the times of the first and last waypoint
	StartTime FlexTimestamp `json:"startTime"`
	EndTime   FlexTimestamp `json:"endTime"`

	// Callsign is nil if no callsign was received
	Callsign *string `json:"callsign"`

	// Path holds the waypoints in order. Empty when the API sends no path
	Path Waypoints `json:"path"`
}

// Waypoint is one point of a track.
type Waypoint struct {
	Time         time.Time
	Latitude     *float64
	Longitude    *float64
	BaroAltitude *float64
	TrueTrack    *float64
	OnGround     bool
}

var waypointFields = []positionalField[Waypoint]{
	{"time", flexTime(func(w *Waypoint) *time.Time { return &w.Time })},
	{"latitude", nullable(func(w *Waypoint) **float64 { return &w.Latitude })},
	{"longitude", nullable(func(w *Waypoint) **float64 { return &w.Longitude })},
	{"baro_altitude", nullable(func(w *Waypoint) **float64 { return &w.BaroAltitude })},
	{"true_track", nullable(func(w *Waypoint) **float64 { return &w.TrueTrack })},
	{"on_ground", orZero(func(w *Waypoint) *bool { return &w.OnGround })},
}

// Waypoints decodes the positional path array of a track.
type Waypoints []Waypoint

// UnmarshalJSON decodes the path. Anything other than an array (including
// null) decodes to an empty path.
func (w *Waypoints) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		*w = Waypoints{}
		return nil
	}
	path, err := decodePositionalArray(trimmed, waypointFields)
	if err != nil {
		return err
	}
	*w = path
	return nil
}

// DecodeTrack decodes a track response body.
func DecodeTrack(data []byte) (*Track, error) {
	var t Track
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, asDecodeError("track", data, err)
	}
	if t.Path == nil {
		t.Path = Waypoints{}
	}
	return &t, nil
}
