package opensky

import (
	"encoding/json"
	"testing"
)

// TestStatesUnmarshal tests the states envelope.
func TestStatesUnmarshal(t *testing.T) {
	t.Run("Envelope with vectors", func(t *testing.T) {
		var s States
		data := `{"time":1609459200,"states":[` + fullVector + `]}`
		if err := json.Unmarshal([]byte(data), &s); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if !s.Time.Equal(newYear2021) {
			t.Errorf("Expected time %v, got %v", newYear2021, s.Time)
		}
		if s.Len() != 1 || s.States[0].ICAO24 != "3c6444" {
			t.Errorf("Expected one vector for 3c6444, got %+v", s.States)
		}
	})

	t.Run("Null states", func(t *testing.T) {
		var s States
		if err := json.Unmarshal([]byte(`{"time":1609459200,"states":null}`), &s); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if s.States == nil || len(s.States) != 0 {
			t.Errorf("Expected empty non-nil states, got %v", s.States)
		}
	})

	t.Run("Missing states", func(t *testing.T) {
		var s States
		if err := json.Unmarshal([]byte(`{"time":1609459200}`), &s); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if s.States == nil {
			t.Error("Expected empty non-nil states")
		}
	})

	t.Run("Missing time", func(t *testing.T) {
		var s States
		err := json.Unmarshal([]byte(`{"states":[]}`), &s)
		de, ok := IsDecodeError(err)
		if !ok {
			t.Fatalf("Expected DecodeError, got %v", err)
		}
		if de.Field != "time" {
			t.Errorf("Expected field time, got %s", de.Field)
		}
	})

	t.Run("Null time", func(t *testing.T) {
		var s States
		err := json.Unmarshal([]byte(`{"time":null,"states":[]}`), &s)
		if _, ok := IsDecodeError(err); !ok {
			t.Fatalf("Expected DecodeError, got %v", err)
		}
	})

	t.Run("Bad vector", func(t *testing.T) {
		var s States
		err := json.Unmarshal([]byte(`{"time":1609459200,"states":[["abc"]]}`), &s)
		if _, ok := IsDecodeError(err); !ok {
			t.Fatalf("Expected DecodeError, got %v", err)
		}
	})

	t.Run("Republished snapshot", func(t *testing.T) {
		var s States
		if err := json.Unmarshal([]byte(`{"time":1609459200,"states":[`+fullVector+`]}`), &s); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		data, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		var back States
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if !back.Time.Equal(s.Time) || back.Len() != 1 || back.States[0].ICAO24 != "3c6444" {
			t.Errorf("Expected %+v, got %+v", s, back)
		}
	})

	t.Run("Len on nil", func(t *testing.T) {
		var s *States
		if s.Len() != 0 {
			t.Errorf("Expected 0, got %d", s.Len())
		}
	})
}
