package opensky

import "encoding/json"

// Registration is the metadata record of an aircraft.
type Registration struct {
	ICAO24              string `json:"icao24"`
	Registration        string `json:"registration"`
	ManufacturerName    string `json:"manufacturerName"`
	ManufacturerICAO    string `json:"manufacturerIcao"`
	Model               string `json:"model"`
	Typecode            string `json:"typecode"`
	SerialNumber        string `json:"serialNumber"`
	LineNumber          string `json:"lineNumber"`
	ICAOAircraftClass   string `json:"icaoAircraftClass"`
	SelCal              string `json:"selCal"`
	Operator            string `json:"operator"`
	OperatorCallsign    string `json:"operatorCallsign"`
	OperatorICAO        string `json:"operatorIcao"`
	OperatorIATA        string `json:"operatorIata"`
	Owner               string `json:"owner"`
	CategoryDescription string `json:"categoryDescription"`
	Status              string `json:"status"`
	Engines             string `json:"engines"`
	Notes               string `json:"notes"`
	Country             string `json:"country"`

	Registered      FlexTimestamp `json:"registered"`
	RegisteredUntil FlexTimestamp `json:"regUntil"`
	Built           FlexTimestamp `json:"built"`
	FirstFlightDate FlexTimestamp `json:"firstFlightDate"`

	// Capability flags
	ModeS bool `json:"modes"`
	ADSB  bool `json:"adsb"`
	ACARS bool `json:"acars"`
	VDL   bool `json:"vdl"`

	LastSeen  Timestamp `json:"lastSeen"`
	FirstSeen Timestamp `json:"firstSeen"`

	// Timestamp is when the record was last updated. Some records carry
	// values that are not valid times; those decode as not Valid.
	Timestamp FlexTimestamp `json:"timestamp"`
}

// DecodeRegistration decodes an aircraft metadata body.
func DecodeRegistration(data []byte) (*Registration, error) {
	if isNull(data) {
		return nil, nil
	}
	var r Registration
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, asDecodeError("registration", data, err)
	}
	return &r, nil
}
