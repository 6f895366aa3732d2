package opensky

import (
	"net/url"
	"strconv"
	"time"
)

// query wraps url.Values with typed setters. List parameters repeat the
// key, which is what the API expects (icao24=a&icao24=b).
type query struct {
	url.Values
}

func newQuery() query {
	return query{Values: url.Values{}}
}

func (q query) addString(key, value string) {
	q.Add(key, value)
}

func (q query) addStrings(key string, values []string) {
	for _, v := range values {
		q.Add(key, v)
	}
}

func (q query) addInt(key string, v int64) {
	q.Add(key, strconv.FormatInt(v, 10))
}

func (q query) addInts(key string, values []int) {
	for _, v := range values {
		q.Add(key, strconv.Itoa(v))
	}
}

func (q query) addFloat(key string, v float64) {
	q.Add(key, formatFloat(v))
}

func (q query) addTime(key string, t time.Time) {
	q.addInt(key, unixSeconds(t))
}

func (q query) addRegion(r Region) {
	q.addFloat("lamin", r.MinLatitude)
	q.addFloat("lomin", r.MinLongitude)
	q.addFloat("lamax", r.MaxLatitude)
	q.addFloat("lomax", r.MaxLongitude)
}

// formatFloat uses the shortest representation that round-trips.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
