package opensky

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// PositionSource identifies the origin of a state vector's position.
type PositionSource int

const (
	PositionSourceADSB    PositionSource = 0
	PositionSourceASTERIX PositionSource = 1
	PositionSourceMLAT    PositionSource = 2
)

func (p PositionSource) String() string {
	switch p {
	case PositionSourceADSB:
		return "ADS-B"
	case PositionSourceASTERIX:
		return "ASTERIX"
	case PositionSourceMLAT:
		return "MLAT"
	default:
		return fmt.Sprintf("PositionSource(%d)", int(p))
	}
}

// StateVector is one aircraft's reported state at a point in time.
//
// Optional values are pointers (or a nil slice) so that "unknown" is never
// confused with zero. All positions are WGS-84.
type StateVector struct {
	// ICAO24 is the unique 24-bit transponder address as hex (e.g. "3c6444")
	ICAO24 string `json:"icao24"`

	// Callsign with trailing padding removed. Nil if none was received
	Callsign *string `json:"callsign"`

	// OriginCountry is inferred from the ICAO24 address
	OriginCountry string `json:"origin_country"`

	// TimePosition is the time of the last position update
	TimePosition *time.Time `json:"time_position"`

	// LastContact is the epoch-seconds time of the last message of any kind
	LastContact int64 `json:"last_contact"`

	// Longitude and Latitude in decimal degrees
	Longitude *float64 `json:"longitude"`
	Latitude  *float64 `json:"latitude"`

	// BaroAltitude is barometric altitude in meters
	BaroAltitude *float64 `json:"baro_altitude"`

	// OnGround is true when the position came from a surface report
	OnGround bool `json:"on_ground"`

	// Velocity over ground in m/s
	Velocity *float64 `json:"velocity"`

	// TrueTrack is heading in degrees clockwise from north (0 = north)
	TrueTrack *float64 `json:"true_track"`

	// VerticalRate in m/s, positive when climbing
	VerticalRate *float64 `json:"vertical_rate"`

	// Sensors lists the receiver IDs that contributed. Nil when not requested
	Sensors []int `json:"sensors"`

	// GeoAltitude is geometric altitude in meters
	GeoAltitude *float64 `json:"geo_altitude"`

	// Squawk is the transponder code
	Squawk *string `json:"squawk"`

	// SPI is the special purpose indicator flag
	SPI bool `json:"spi"`

	PositionSource PositionSource `json:"position_source"`
}

// LastContactTime returns LastContact as a UTC time.
func (s StateVector) LastContactTime() time.Time {
	return FromUnixSeconds(s.LastContact)
}

// stateVectorFields is the wire layout of a state vector, one entry per
// array index.
var stateVectorFields = []positionalField[StateVector]{
	{"icao24", required(func(s *StateVector) *string { return &s.ICAO24 })},
	{"callsign", nullableTrimmed(func(s *StateVector) **string { return &s.Callsign })},
	{"origin_country", orZero(func(s *StateVector) *string { return &s.OriginCountry })},
	{"time_position", nullableSeconds(func(s *StateVector) **time.Time { return &s.TimePosition })},
	{"last_contact", orZero(func(s *StateVector) *int64 { return &s.LastContact })},
	{"longitude", nullable(func(s *StateVector) **float64 { return &s.Longitude })},
	{"latitude", nullable(func(s *StateVector) **float64 { return &s.Latitude })},
	{"baro_altitude", nullable(func(s *StateVector) **float64 { return &s.BaroAltitude })},
	{"on_ground", orZero(func(s *StateVector) *bool { return &s.OnGround })},
	{"velocity", nullable(func(s *StateVector) **float64 { return &s.Velocity })},
	{"true_track", nullable(func(s *StateVector) **float64 { return &s.TrueTrack })},
	{"vertical_rate", nullable(func(s *StateVector) **float64 { return &s.VerticalRate })},
	{"sensors", orZero(func(s *StateVector) *[]int { return &s.Sensors })},
	{"geo_altitude", nullable(func(s *StateVector) **float64 { return &s.GeoAltitude })},
	{"squawk", nullable(func(s *StateVector) **string { return &s.Squawk })},
	{"spi", orZero(func(s *StateVector) *bool { return &s.SPI })},
	{"position_source", orZero(func(s *StateVector) *PositionSource { return &s.PositionSource })},
}

// DecodeStateVectors decodes the API's array-of-arrays state encoding.
// A JSON null decodes to an empty slice.
func DecodeStateVectors(data []byte) ([]StateVector, error) {
	return decodePositionalArray(data, stateVectorFields)
}

// DecodeStateVector decodes a single array-encoded state vector.
func DecodeStateVector(data []byte) (StateVector, error) {
	var sv StateVector
	err := decodePositional(data, stateVectorFields, &sv)
	return sv, err
}

// stateVectorJSON drops StateVector's methods so the keyed form can be
// decoded without recursing into UnmarshalJSON.
type stateVectorJSON StateVector

// UnmarshalJSON accepts either the positional array form sent by the API or
// the keyed object form produced by json.Marshal.
func (s *StateVector) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, (*stateVectorJSON)(s)); err != nil {
			return &DecodeError{Field: "record", Index: -1, Token: clip(trimmed), Err: err}
		}
		return nil
	}

	sv, err := DecodeStateVector(trimmed)
	if err != nil {
		return err
	}
	*s = sv
	return nil
}
