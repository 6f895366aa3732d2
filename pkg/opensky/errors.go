package opensky

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEncodingUnsupported is returned when a wire timestamp type is asked to
// encode itself. The API is read-only, so there is no valid encoding.
var ErrEncodingUnsupported = errors.New("opensky: encoding timestamps is not supported")

// RequestRejectedError reports arguments that violate an API constraint.
// It is returned before any request is sent.
type RequestRejectedError struct {
	// Op is the client operation that rejected the request (e.g. "GetStates")
	Op string

	// Reason describes the violated constraint
	Reason string
}

func (e *RequestRejectedError) Error() string {
	return fmt.Sprintf("opensky: %s rejected: %s", e.Op, e.Reason)
}

func rejected(op, format string, args ...interface{}) error {
	return &RequestRejectedError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// DecodeError reports a response body that does not match the expected shape.
type DecodeError struct {
	// Field is the semantic name of the offending field (e.g. "latitude")
	Field string

	// Index is the positional slot for array-encoded records, -1 for keyed fields
	Index int

	// Token is the raw JSON received for the field, empty when the slot is missing
	Token string

	// Err is the underlying cause, if any
	Err error
}

func (e *DecodeError) Error() string {
	var where string
	if e.Index >= 0 {
		where = fmt.Sprintf("field %q (index %d)", e.Field, e.Index)
	} else {
		where = fmt.Sprintf("field %q", e.Field)
	}

	switch {
	case e.Token == "" && e.Err != nil:
		return fmt.Sprintf("opensky: decode %s: %v", where, e.Err)
	case e.Token == "":
		return fmt.Sprintf("opensky: decode %s: missing", where)
	case e.Err != nil:
		return fmt.Sprintf("opensky: decode %s: unexpected token %s: %v", where, e.Token, e.Err)
	default:
		return fmt.Sprintf("opensky: decode %s: unexpected token %s", where, e.Token)
	}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// TransportError wraps a network-level failure from the Fetcher.
type TransportError struct {
	Path string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("opensky: request %s: %v", e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRequestRejected checks if an error is (or wraps) a RequestRejectedError.
func IsRequestRejected(err error) (*RequestRejectedError, bool) {
	var rre *RequestRejectedError
	if errors.As(err, &rre) {
		return rre, true
	}
	return nil, false
}

// IsDecodeError checks if an error is (or wraps) a DecodeError.
func IsDecodeError(err error) (*DecodeError, bool) {
	var de *DecodeError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsTransportError checks if an error is (or wraps) a TransportError.
func IsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// asDecodeError converts a json.Unmarshal failure into a DecodeError, keeping
// one that was already produced by a nested decoder.
func asDecodeError(field string, data []byte, err error) error {
	if _, ok := IsDecodeError(err); ok {
		return err
	}
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) {
		name := field
		if ute.Field != "" {
			name = ute.Field
		}
		return &DecodeError{Field: name, Index: -1, Token: ute.Value, Err: err}
	}
	return &DecodeError{Field: field, Index: -1, Token: clip(data), Err: err}
}
