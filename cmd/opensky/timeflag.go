package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/unklstewy/opensky/pkg/opensky"
)

// now is swapped in tests.
var now = time.Now

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTime reads a time flag. The empty string yields the zero time.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return time.Time{}, nil
	case strings.EqualFold(s, "now"):
		return now().UTC(), nil
	case strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+"):
		d, err := time.ParseDuration(s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid time offset %q: %w", s, err)
		}
		return now().UTC().Add(d), nil
	}

	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return opensky.FromUnixSeconds(sec), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}

// parseEnd reads an --end flag, defaulting to now.
func parseEnd(s string) (time.Time, error) {
	t, err := parseTime(s)
	if err != nil {
		return time.Time{}, err
	}
	if t.IsZero() {
		return now().UTC(), nil
	}
	return t, nil
}
