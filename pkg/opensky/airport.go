package opensky

import "encoding/json"

// Airport is the metadata of one airport.
type Airport struct {
	ICAO         string          `json:"icao"`
	IATA         string          `json:"iata"`
	Name         string          `json:"name"`
	City         string          `json:"city"`
	Type         string          `json:"type"`
	Position     AirportPosition `json:"position"`
	Continent    string          `json:"continent"`
	Country      string          `json:"country"`
	Region       string          `json:"region"`
	Municipality string          `json:"municipality"`
	GPSCode      string          `json:"gpsCode"`
	Homepage     string          `json:"homepage"`
	Wikipedia    string          `json:"wikipedia"`
}

// AirportPosition is the surveyed location of an airport.
type AirportPosition struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Altitude  float64 `json:"altitude"`

	// Reasonable reports whether the position is considered accurate
	Reasonable bool `json:"reasonable"`
}

// DecodeAirport decodes a single airport body.
func DecodeAirport(data []byte) (*Airport, error) {
	if isNull(data) {
		return nil, nil
	}
	var a Airport
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, asDecodeError("airport", data, err)
	}
	return &a, nil
}

// DecodeAirports decodes an airport list. Null decodes to an empty slice.
func DecodeAirports(data []byte) ([]Airport, error) {
	if isNull(data) {
		return []Airport{}, nil
	}
	var airports []Airport
	if err := json.Unmarshal(data, &airports); err != nil {
		return nil, asDecodeError("airports", data, err)
	}
	return airports, nil
}
