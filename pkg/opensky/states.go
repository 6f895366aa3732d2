package opensky

import (
	"encoding/json"
	"fmt"
	"time"
)

// States is the response of the state vector endpoints: a snapshot time
// and the vectors that matched the query.
type States struct {
	// Time is the instant the state vectors are associated with
	Time time.Time `json:"time"`

	// States is never nil after a successful decode
	States []StateVector `json:"states"`
}

// statesEnvelope is the keyed outer object; the states array is decoded
// separately because its elements are positional.
type statesEnvelope struct {
	Time   json.RawMessage `json:"time"`
	States json.RawMessage `json:"states"`
}

// UnmarshalJSON decodes the API envelope. "time" is required; a null or
// missing "states" decodes to an empty slice.
func (s *States) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return &DecodeError{Field: "states envelope", Index: -1, Token: "null", Err: errRequired}
	}

	var env statesEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return &DecodeError{Field: "states envelope", Index: -1, Token: clip(data), Err: err}
	}

	if isNull(env.Time) {
		return &DecodeError{Field: "time", Index: -1, Token: clip(env.Time), Err: errRequired}
	}
	ts, err := decodeEnvelopeTime(env.Time)
	if err != nil {
		return &DecodeError{Field: "time", Index: -1, Token: clip(env.Time), Err: unwrapDecode(err)}
	}
	if ts == nil {
		return &DecodeError{Field: "time", Index: -1, Token: clip(env.Time), Err: fmt.Errorf("negative timestamp")}
	}

	vectors, err := decodeStatesField(env.States)
	if err != nil {
		return err
	}

	*s = States{Time: *ts, States: vectors}
	return nil
}

// decodeStatesField also accepts the keyed form written by json.Marshal,
// so snapshots republished by this package decode with the same type.
func decodeStatesField(data json.RawMessage) ([]StateVector, error) {
	if isNull(data) {
		return []StateVector{}, nil
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, &DecodeError{Field: "states", Index: -1, Token: clip(data), Err: err}
	}

	out := make([]StateVector, 0, len(rows))
	for n, row := range rows {
		var sv StateVector
		if err := sv.UnmarshalJSON(row); err != nil {
			return nil, fmt.Errorf("states record %d: %w", n, err)
		}
		out = append(out, sv)
	}
	return out, nil
}

// Len returns the number of state vectors; it is safe on a nil *States.
func (s *States) Len() int {
	if s == nil {
		return 0
	}
	return len(s.States)
}

// decodeEnvelopeTime reads epoch seconds, or the RFC 3339 string that
// json.Marshal writes for a republished snapshot.
func decodeEnvelopeTime(data json.RawMessage) (*time.Time, error) {
	if len(data) > 0 && data[0] == '"' {
		var ts time.Time
		if err := json.Unmarshal(data, &ts); err != nil {
			return nil, err
		}
		ts = ts.UTC()
		return &ts, nil
	}
	return decodeUnixSeconds(data)
}

func unwrapDecode(err error) error {
	if de, ok := IsDecodeError(err); ok && de.Err != nil {
		return de.Err
	}
	return err
}
