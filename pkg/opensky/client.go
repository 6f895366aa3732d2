// Package opensky provides a typed client for the OpenSky Network REST API.
//
// The client builds query strings from typed parameters, issues one GET
// request per call and decodes the reply into plain Go values. The API's
// encodings (epoch seconds or milliseconds, nullable numbers, positional
// state vector arrays) are translated into time.Time, pointers and structs.
//
// The client does not cache, retry or rate limit. Requests that would
// violate a documented API limit fail with a *RequestRejectedError before
// anything is sent.
//
// API Documentation: https://openskynetwork.github.io/opensky-api/rest.html
package opensky

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// API limits on query windows.
const (
	// MaxStatesAge is how far back state vectors can be requested
	MaxStatesAge = time.Hour

	// MaxFlightsWindow is the longest interval for all-flights queries
	MaxFlightsWindow = 2 * time.Hour

	// MaxAircraftFlightsWindow is the longest interval for per-aircraft flights
	MaxAircraftFlightsWindow = 30 * 24 * time.Hour

	// MaxAirportFlightsWindow is the longest interval for arrivals and departures
	MaxAirportFlightsWindow = 7 * 24 * time.Hour

	// MaxTrackAge is how far back tracks can be requested
	MaxTrackAge = 30 * 24 * time.Hour

	// DefaultSearchAmount is the page size used when none is given
	DefaultSearchAmount = 50
)

// Config contains configuration for the OpenSky client.
type Config struct {
	// BaseURL overrides DefaultBaseURL (useful for testing)
	BaseURL string

	// Username and Password enable basic auth. Both or neither must be set
	Username string
	Password string

	// UserAgent overrides DefaultUserAgent
	UserAgent string

	// Timeout for each request, DefaultTimeout when zero
	Timeout time.Duration

	// Fetcher replaces the HTTP transport. BaseURL, credentials, UserAgent
	// and Timeout are ignored when it is set
	Fetcher Fetcher

	// Logger receives debug entries for requests and decodes. Discarded when nil
	Logger logrus.FieldLogger

	// Now is the clock used for window checks, time.Now when nil
	Now func() time.Time
}

// Client is an OpenSky API client. It is safe for concurrent use.
type Client struct {
	fetcher       Fetcher
	authenticated bool
	log           logrus.FieldLogger
	now           func() time.Time
}

// NewClient creates a new OpenSky client.
// A username without a password, or the reverse, is rejected.
func NewClient(cfg Config) (*Client, error) {
	user := strings.TrimSpace(cfg.Username)
	pass := strings.TrimSpace(cfg.Password)
	if user == "" && pass != "" {
		return nil, rejected("NewClient", "password given without username")
	}
	if user != "" && pass == "" {
		return nil, rejected("NewClient", "username given without password")
	}

	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = NewHTTPFetcher(cfg.BaseURL, cfg.Username, cfg.Password, cfg.UserAgent, cfg.Timeout)
	}

	log := cfg.Logger
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		fetcher:       fetcher,
		authenticated: user != "",
		log:           log,
		now:           now,
	}, nil
}

// Authenticated reports whether the client sends credentials.
func (c *Client) Authenticated() bool {
	return c.authenticated
}

// StatesQuery selects state vectors. Zero fields are not sent.
type StatesQuery struct {
	// ICAO24 restricts the result to these transponder addresses
	ICAO24 []string

	// Time of the snapshot. Zero means the most recent one
	Time time.Time

	// Region restricts the result to a bounding box
	Region *Region

	// Extended asks for the aircraft category slot
	Extended bool
}

// OwnStatesQuery selects state vectors from the caller's own receivers.
type OwnStatesQuery struct {
	ICAO24  []string
	Time    time.Time
	Serials []int
}

// GetState returns the state of one aircraft at a time within the last hour.
// A zero time asks for the most recent state.
func (c *Client) GetState(ctx context.Context, icao24 string, at time.Time) (*States, error) {
	if strings.TrimSpace(icao24) == "" {
		return nil, rejected("GetState", "icao24 is required")
	}
	return c.GetStates(ctx, StatesQuery{ICAO24: []string{icao24}, Time: at})
}

// GetStates returns state vectors matching q.
//
// Returns nil, nil when the API answers with a non-success status.
func (c *Client) GetStates(ctx context.Context, q StatesQuery) (*States, error) {
	const op = "GetStates"
	if !q.Time.IsZero() && c.now().Sub(q.Time) > MaxStatesAge {
		return nil, rejected(op, "cannot retrieve states more than %s in the past", MaxStatesAge)
	}

	params := newQuery()
	if !q.Time.IsZero() {
		params.addTime("time", q.Time)
	}
	params.addStrings("icao24", q.ICAO24)
	if q.Region != nil {
		if err := q.Region.validate(); err != nil {
			return nil, rejected(op, "%v", err)
		}
		params.addRegion(*q.Region)
	}
	if q.Extended {
		params.addInt("extended", 1)
	}

	return fetchDecode(ctx, c, op, "states/all", params.Values, decodeStates)
}

// GetMyStates returns state vectors seen by the caller's own receivers.
// Anonymous clients are rejected.
func (c *Client) GetMyStates(ctx context.Context, q OwnStatesQuery) (*States, error) {
	const op = "GetMyStates"
	if !c.authenticated {
		return nil, rejected(op, "not allowed for anonymous users")
	}

	params := newQuery()
	if !q.Time.IsZero() {
		params.addTime("time", q.Time)
	}
	params.addStrings("icao24", q.ICAO24)
	params.addInts("serials", q.Serials)

	return fetchDecode(ctx, c, op, "states/own", params.Values, decodeStates)
}

// GetFlights returns all flights in [begin, end]. The window may not
// exceed two hours.
func (c *Client) GetFlights(ctx context.Context, begin, end time.Time) ([]Flight, error) {
	const op = "GetFlights"
	if err := checkWindow(op, begin, end, MaxFlightsWindow); err != nil {
		return nil, err
	}
	return fetchDecode(ctx, c, op, "flights/all", windowQuery(nil, begin, end), DecodeFlights)
}

// GetRecentFlights returns all flights in the two hours before end.
func (c *Client) GetRecentFlights(ctx context.Context, end time.Time) ([]Flight, error) {
	return c.GetFlights(ctx, end.Add(-MaxFlightsWindow), end)
}

// GetFlightsByAircraft returns the flights of one aircraft in [begin, end].
// The window may not exceed 30 days.
func (c *Client) GetFlightsByAircraft(ctx context.Context, icao24 string, begin, end time.Time) ([]Flight, error) {
	const op = "GetFlightsByAircraft"
	if strings.TrimSpace(icao24) == "" {
		return nil, rejected(op, "icao24 is required")
	}
	if err := checkWindow(op, begin, end, MaxAircraftFlightsWindow); err != nil {
		return nil, err
	}
	params := windowQuery(map[string]string{"icao24": icao24}, begin, end)
	return fetchDecode(ctx, c, op, "flights/aircraft", params, DecodeFlights)
}

// GetRecentFlightsByAircraft returns one aircraft's flights in the 30 days before end.
func (c *Client) GetRecentFlightsByAircraft(ctx context.Context, icao24 string, end time.Time) ([]Flight, error) {
	return c.GetFlightsByAircraft(ctx, icao24, end.Add(-MaxAircraftFlightsWindow), end)
}

// GetAirportArrivals returns flights that arrived at an airport in [begin, end].
// The window may not exceed 7 days.
func (c *Client) GetAirportArrivals(ctx context.Context, airport string, begin, end time.Time) ([]Flight, error) {
	return c.airportFlights(ctx, "GetAirportArrivals", "flights/arrival", airport, begin, end)
}

// GetRecentAirportArrivals returns arrivals in the 7 days before end.
func (c *Client) GetRecentAirportArrivals(ctx context.Context, airport string, end time.Time) ([]Flight, error) {
	return c.GetAirportArrivals(ctx, airport, end.Add(-MaxAirportFlightsWindow), end)
}

// GetAirportDepartures returns flights that departed an airport in [begin, end].
// The window may not exceed 7 days.
func (c *Client) GetAirportDepartures(ctx context.Context, airport string, begin, end time.Time) ([]Flight, error) {
	return c.airportFlights(ctx, "GetAirportDepartures", "flights/departure", airport, begin, end)
}

// GetRecentAirportDepartures returns departures in the 7 days before end.
func (c *Client) GetRecentAirportDepartures(ctx context.Context, airport string, end time.Time) ([]Flight, error) {
	return c.GetAirportDepartures(ctx, airport, end.Add(-MaxAirportFlightsWindow), end)
}

func (c *Client) airportFlights(ctx context.Context, op, path, airport string, begin, end time.Time) ([]Flight, error) {
	if strings.TrimSpace(airport) == "" {
		return nil, rejected(op, "airport ICAO code is required")
	}
	if err := checkWindow(op, begin, end, MaxAirportFlightsWindow); err != nil {
		return nil, err
	}
	params := windowQuery(map[string]string{"airport": airport}, begin, end)
	return fetchDecode(ctx, c, op, path, params, DecodeFlights)
}

// GetTrackByAircraft returns the track of an aircraft at a time within the
// last 30 days. A zero time asks for the live track (time=0).
func (c *Client) GetTrackByAircraft(ctx context.Context, icao24 string, at time.Time) (*Track, error) {
	const op = "GetTrackByAircraft"
	if strings.TrimSpace(icao24) == "" {
		return nil, rejected(op, "icao24 is required")
	}
	if !at.IsZero() && c.now().Sub(at) > MaxTrackAge {
		return nil, rejected(op, "cannot retrieve tracks more than 30 days in the past")
	}

	params := newQuery()
	params.addString("icao24", icao24)
	if at.IsZero() {
		params.addInt("time", 0)
	} else {
		params.addTime("time", at)
	}
	return fetchDecode(ctx, c, op, "tracks/all", params.Values, DecodeTrack)
}

// GetAircraftRegistration returns the metadata record of an aircraft.
func (c *Client) GetAircraftRegistration(ctx context.Context, icao24 string) (*Registration, error) {
	const op = "GetAircraftRegistration"
	icao24 = strings.TrimSpace(icao24)
	if icao24 == "" {
		return nil, rejected(op, "icao24 is required")
	}
	path := "metadata/aircraft/icao/" + url.PathEscape(icao24)
	return fetchDecode(ctx, c, op, path, nil, DecodeRegistration)
}

// SearchAircraft returns the first page of aircraft matching term.
// An amount of zero or less uses DefaultSearchAmount.
func (c *Client) SearchAircraft(ctx context.Context, term string, amount int) (*SearchResults, error) {
	const op = "SearchAircraft"
	if strings.TrimSpace(term) == "" {
		return nil, rejected(op, "search term is required")
	}
	if amount <= 0 {
		amount = DefaultSearchAmount
	}

	params := newQuery()
	params.addInt("n", int64(amount))
	params.addInt("p", 1)
	params.addString("q", term)
	return fetchDecode(ctx, c, op, "metadata/aircraft/list", params.Values, DecodeSearchResults)
}

// GetAirportInfo returns the metadata of one airport.
func (c *Client) GetAirportInfo(ctx context.Context, icao string) (*Airport, error) {
	const op = "GetAirportInfo"
	if strings.TrimSpace(icao) == "" {
		return nil, rejected(op, "airport ICAO code is required")
	}
	params := newQuery()
	params.addString("icao", icao)
	return fetchDecode(ctx, c, op, "airports", params.Values, DecodeAirport)
}

// GetAirportsByRegion returns the airports inside a bounding box.
func (c *Client) GetAirportsByRegion(ctx context.Context, region Region) ([]Airport, error) {
	const op = "GetAirportsByRegion"
	if err := region.validate(); err != nil {
		return nil, rejected(op, "%v", err)
	}
	params := newQuery()
	params.addRegion(region)
	return fetchDecode(ctx, c, op, "airports/region", params.Values, DecodeAirports)
}

// checkWindow validates a [begin, end] interval against an endpoint limit.
func checkWindow(op string, begin, end time.Time, limit time.Duration) error {
	switch {
	case begin.IsZero() || end.IsZero():
		return rejected(op, "begin and end times must be provided")
	case end.Before(begin):
		return rejected(op, "end %s is before begin %s", end.UTC().Format(time.RFC3339), begin.UTC().Format(time.RFC3339))
	case end.Sub(begin) > limit:
		return rejected(op, "interval %s exceeds the maximum of %s", end.Sub(begin), limit)
	}
	return nil
}

func windowQuery(extra map[string]string, begin, end time.Time) url.Values {
	params := newQuery()
	for k, v := range extra {
		params.addString(k, v)
	}
	params.addTime("begin", begin)
	params.addTime("end", end)
	return params.Values
}

func decodeStates(data []byte) (*States, error) {
	var s States
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, asDecodeError("states", data, err)
	}
	return &s, nil
}

// fetchDecode issues one request and decodes a successful reply. A non-2xx
// status yields the zero T (nil) and no error.
func fetchDecode[T any](ctx context.Context, c *Client, op, path string, params url.Values, decode func([]byte) (T, error)) (T, error) {
	var zero T

	start := time.Now()
	status, body, err := c.fetcher.Fetch(ctx, path, params)
	if err != nil {
		if _, ok := IsTransportError(err); !ok {
			err = &TransportError{Path: path, Err: err}
		}
		return zero, err
	}
	// A reply that raced a cancellation is discarded rather than decoded.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, &TransportError{Path: path, Err: ctxErr}
	}

	entry := c.log.WithFields(logrus.Fields{
		"op":       op,
		"path":     path,
		"status":   status,
		"bytes":    len(body),
		"duration": time.Since(start),
	})
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		entry.Debug("opensky: non-success status, returning empty result")
		return zero, nil
	}
	entry.Debug("opensky: request complete")

	result, err := decode(body)
	if err != nil {
		c.log.WithFields(logrus.Fields{"op": op, "path": path}).WithError(err).Debug("opensky: decode failed")
		return zero, err
	}
	c.log.WithFields(logrus.Fields{"op": op, "records": recordCount(result)}).Debug("opensky: decoded")
	return result, nil
}

func recordCount(v interface{}) int {
	switch r := v.(type) {
	case *States:
		return r.Len()
	case []Flight:
		return len(r)
	case []Airport:
		return len(r)
	case *Track:
		if r == nil {
			return 0
		}
		return len(r.Path)
	case *SearchResults:
		if r == nil {
			return 0
		}
		return len(r.Content)
	case nil:
		return 0
	default:
		return 1
	}
}
