package opensky

import "encoding/json"

// Flight is one flight as estimated by the flights endpoints.
type Flight struct {
	// ICAO24 is the transponder address of the aircraft
	ICAO24 string `json:"icao24"`

	// FirstSeen is the estimated departure time
	FirstSeen Timestamp `json:"firstSeen"`

	// EstDepartureAirport is the ICAO code of the estimated departure
	// airport, nil if it could not be identified
	EstDepartureAirport *string `json:"estDepartureAirport"`

	// LastSeen is the estimated arrival time
	LastSeen Timestamp `json:"lastSeen"`

	// EstArrivalAirport is the ICAO code of the estimated arrival airport
	EstArrivalAirport *string `json:"estArrivalAirport"`

	Callsign *string `json:"callsign"`

	// Distances in meters from the last received position to the
	// estimated airports
	EstDepartureAirportHorizDistance *int `json:"estDepartureAirportHorizDistance"`
	EstDepartureAirportVertDistance  *int `json:"estDepartureAirportVertDistance"`
	EstArrivalAirportHorizDistance   *int `json:"estArrivalAirportHorizDistance"`
	EstArrivalAirportVertDistance    *int `json:"estArrivalAirportVertDistance"`

	// Number of other candidate airports near the estimated ones
	DepartureAirportCandidatesCount *int `json:"departureAirportCandidatesCount"`
	ArrivalAirportCandidatesCount   *int `json:"arrivalAirportCandidatesCount"`
}

// DecodeFlights decodes a flights response body. Null decodes to an empty slice.
func DecodeFlights(data []byte) ([]Flight, error) {
	if isNull(data) {
		return []Flight{}, nil
	}
	var flights []Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, asDecodeError("flights", data, err)
	}
	return flights, nil
}
