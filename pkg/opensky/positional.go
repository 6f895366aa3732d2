package opensky

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// positionalField binds one slot of an array-encoded record to a field of T.
// A table of these defines the whole wire layout of a record type.
type positionalField[T any] struct {
	name   string
	decode func(dst *T, raw json.RawMessage) error
}

var errRequired = errors.New("required value is null")

// decodePositionalArray decodes a JSON array of array-encoded records.
// A null array decodes to an empty, non-nil slice.
func decodePositionalArray[T any](data []byte, fields []positionalField[T]) ([]T, error) {
	if isNull(data) {
		return []T{}, nil
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, &DecodeError{Field: "records", Index: -1, Token: clip(data), Err: err}
	}

	out := make([]T, 0, len(rows))
	for n, row := range rows {
		var rec T
		if err := decodePositional(row, fields, &rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", n, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// decodePositional decodes a single array-encoded record into dst.
// Slots beyond the end of the table are ignored.
func decodePositional[T any](data []byte, fields []positionalField[T], dst *T) error {
	if isNull(data) {
		return &DecodeError{Field: "record", Index: -1, Token: "null", Err: errRequired}
	}

	var slots []json.RawMessage
	if err := json.Unmarshal(data, &slots); err != nil {
		return &DecodeError{Field: "record", Index: -1, Token: clip(data), Err: err}
	}
	if len(slots) < len(fields) {
		missing := len(slots)
		return &DecodeError{
			Field: fields[missing].name,
			Index: missing,
			Err:   fmt.Errorf("record has %d of %d slots", len(slots), len(fields)),
		}
	}

	for i, f := range fields {
		if err := f.decode(dst, slots[i]); err != nil {
			var inner *DecodeError
			if errors.As(err, &inner) && inner.Err != nil {
				err = inner.Err
			}
			return &DecodeError{Field: f.name, Index: i, Token: clip(slots[i]), Err: err}
		}
	}
	return nil
}

// clip bounds the size of a token quoted in an error message.
func clip(data []byte) string {
	const limit = 64
	s := strings.TrimSpace(string(data))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

// Slot decoders

// required decodes a non-null value; null is an error.
func required[T, V any](get func(*T) *V) func(*T, json.RawMessage) error {
	return func(dst *T, raw json.RawMessage) error {
		if isNull(raw) {
			return errRequired
		}
		return json.Unmarshal(raw, get(dst))
	}
}

// orZero decodes a value the API does not null; a null leaves the zero value.
func orZero[T, V any](get func(*T) *V) func(*T, json.RawMessage) error {
	return func(dst *T, raw json.RawMessage) error {
		p := get(dst)
		if isNull(raw) {
			var zero V
			*p = zero
			return nil
		}
		return json.Unmarshal(raw, p)
	}
}

// nullable decodes an optional value; null becomes nil.
func nullable[T, V any](get func(*T) **V) func(*T, json.RawMessage) error {
	return func(dst *T, raw json.RawMessage) error {
		p := get(dst)
		if isNull(raw) {
			*p = nil
			return nil
		}
		var v V
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		*p = &v
		return nil
	}
}

// nullableTrimmed is nullable for strings padded with trailing whitespace.
func nullableTrimmed[T any](get func(*T) **string) func(*T, json.RawMessage) error {
	decode := nullable(get)
	return func(dst *T, raw json.RawMessage) error {
		if err := decode(dst, raw); err != nil {
			return err
		}
		if p := get(dst); *p != nil {
			s := strings.TrimRight(**p, " \t\r\n")
			*p = &s
		}
		return nil
	}
}

// nullableSeconds decodes an optional epoch-seconds timestamp.
func nullableSeconds[T any](get func(*T) **time.Time) func(*T, json.RawMessage) error {
	return func(dst *T, raw json.RawMessage) error {
		ts, err := decodeUnixSeconds(raw)
		if err != nil {
			return err
		}
		*get(dst) = ts
		return nil
	}
}

// flexTime decodes a seconds-or-milliseconds timestamp; null leaves the zero time.
func flexTime[T any](get func(*T) *time.Time) func(*T, json.RawMessage) error {
	return func(dst *T, raw json.RawMessage) error {
		ts, err := decodeUnixFlex(raw)
		if err != nil {
			return err
		}
		p := get(dst)
		if ts == nil {
			*p = time.Time{}
			return nil
		}
		*p = *ts
		return nil
	}
}
