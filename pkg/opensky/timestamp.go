package opensky

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Timestamp is a nullable Unix timestamp in whole seconds.
//
// JSON null, a negative value, or an absent key all decode to Valid == false.
// Encoding is not supported; MarshalJSON always fails.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	ts, err := decodeUnixSeconds(data)
	if err != nil {
		return err
	}
	if ts == nil {
		*t = Timestamp{}
		return nil
	}
	*t = Timestamp{Time: *ts, Valid: true}
	return nil
}

// MarshalJSON implements json.Marshaler and always returns ErrEncodingUnsupported.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return nil, ErrEncodingUnsupported
}

// Ptr returns the time as a pointer, nil when not valid.
func (t Timestamp) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// FlexTimestamp is a Unix timestamp whose unit is inferred from its magnitude.
//
// Values that fit the signed 32-bit seconds range are seconds (any fraction is
// truncated); larger values are milliseconds. The API is not consistent about
// which unit it sends for track and metadata times, so the magnitude is the
// only signal available.
//
// Calendar date strings ("2006-01-02" or RFC 3339) are accepted as well,
// since the aircraft metadata endpoint sends registration dates that way.
type FlexTimestamp struct {
	Time  time.Time
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *FlexTimestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		ts, err := decodeDateString(data)
		if err != nil {
			return err
		}
		*t = FlexTimestamp{}
		if ts != nil {
			*t = FlexTimestamp{Time: *ts, Valid: true}
		}
		return nil
	}

	ts, err := decodeUnixFlex(data)
	if err != nil {
		return err
	}
	if ts == nil {
		*t = FlexTimestamp{}
		return nil
	}
	*t = FlexTimestamp{Time: *ts, Valid: true}
	return nil
}

// MarshalJSON implements json.Marshaler and always returns ErrEncodingUnsupported.
func (t FlexTimestamp) MarshalJSON() ([]byte, error) {
	return nil, ErrEncodingUnsupported
}

// Ptr returns the time as a pointer, nil when not valid.
func (t FlexTimestamp) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// FromUnixSeconds converts epoch seconds to a UTC time.
func FromUnixSeconds(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// FromUnixMillis converts epoch milliseconds to a UTC time.
func FromUnixMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// unixSeconds encodes a time for a query parameter.
// Times before the epoch encode as -1.
func unixSeconds(t time.Time) int64 {
	sec := t.UTC().Unix()
	if sec < 0 {
		return -1
	}
	return sec
}

var errNotNumber = errors.New("not a number")

func isNull(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) == 0 || bytes.Equal(data, []byte("null"))
}

// parseNumber parses a JSON number token. Integers are returned exactly in i
// (isInt true); anything else comes back as a float.
func parseNumber(data []byte) (i int64, f float64, isInt bool, err error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || !(data[0] == '-' || (data[0] >= '0' && data[0] <= '9')) {
		return 0, 0, false, errNotNumber
	}
	s := string(data)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, float64(i), true, nil
	}
	f, err = strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, 0, false, errNotNumber
	}
	return 0, f, false, nil
}

// decodeUnixSeconds decodes an epoch-seconds token. Null and negative
// values yield nil.
func decodeUnixSeconds(data []byte) (*time.Time, error) {
	if isNull(data) {
		return nil, nil
	}
	i, f, isInt, err := parseNumber(data)
	if err != nil {
		return nil, &DecodeError{Field: "timestamp", Index: -1, Token: string(data), Err: err}
	}
	if !isInt {
		if f >= math.MaxInt64 || f < math.MinInt64 {
			return nil, &DecodeError{Field: "timestamp", Index: -1, Token: string(data), Err: errors.New("out of range")}
		}
		i = int64(f)
	}
	if i < 0 {
		return nil, nil
	}
	ts := FromUnixSeconds(i)
	return &ts, nil
}

// decodeUnixFlex decodes a seconds-or-milliseconds token by magnitude.
// Null and negative values yield nil.
func decodeUnixFlex(data []byte) (*time.Time, error) {
	if isNull(data) {
		return nil, nil
	}
	i, f, isInt, err := parseNumber(data)
	if err != nil {
		return nil, &DecodeError{Field: "timestamp", Index: -1, Token: string(data), Err: err}
	}
	if f < 0 {
		return nil, nil
	}

	var ts time.Time
	switch {
	case f <= math.MaxInt32:
		ts = FromUnixSeconds(int64(f))
	case isInt:
		ts = FromUnixMillis(i)
	case f < math.MaxInt64:
		ts = FromUnixMillis(int64(f))
	default:
		return nil, &DecodeError{Field: "timestamp", Index: -1, Token: string(data), Err: errors.New("out of range")}
	}
	return &ts, nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func decodeDateString(data []byte) (*time.Time, error) {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return nil, &DecodeError{Field: "timestamp", Index: -1, Token: string(data), Err: err}
	}
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			ts = ts.UTC()
			return &ts, nil
		}
	}
	return nil, &DecodeError{Field: "timestamp", Index: -1, Token: string(data), Err: fmt.Errorf("unrecognised date %q", s)}
}
