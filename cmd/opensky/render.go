package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unklstewy/opensky/pkg/opensky"
)

const (
	placeholder = "-"
	timeLayout  = "2006-01-02 15:04:05"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	oddRowStyle = cellStyle.Foreground(lipgloss.Color("245"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(22)
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

// newTable returns a table in the shared output style.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row%2 == 1:
				return oddRowStyle
			default:
				return cellStyle
			}
		})
}

func writeEmpty(w io.Writer) {
	fmt.Fprintln(w, emptyStyle.Render("no results"))
}

func writeTitle(w io.Writer, title string) {
	fmt.Fprintln(w, titleStyle.Render(title))
}

// Cell formatters

func fmtString(p *string) string {
	if p == nil || *p == "" {
		return placeholder
	}
	return *p
}

func fmtText(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

func fmtFloat(p *float64, decimals int) string {
	if p == nil {
		return placeholder
	}
	return strconv.FormatFloat(*p, 'f', decimals, 64)
}

func fmtInt(p *int) string {
	if p == nil {
		return placeholder
	}
	return strconv.Itoa(*p)
}

func fmtTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return placeholder
	}
	return t.UTC().Format(timeLayout)
}

func fmtBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func fmtSensors(s []int) string {
	if len(s) == 0 {
		return placeholder
	}
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// Renderers

func renderStates(w io.Writer, states *opensky.States) {
	if states.Len() == 0 {
		writeEmpty(w)
		return
	}
	writeTitle(w, fmt.Sprintf("%d state vectors at %s", states.Len(), states.Time.Format(timeLayout)))

	t := newTable("ICAO24", "CALLSIGN", "COUNTRY", "LAT", "LON", "BARO ALT m", "GEO ALT m",
		"SPEED m/s", "TRACK", "V/S m/s", "GROUND", "SQUAWK", "SOURCE", "LAST CONTACT")
	for _, sv := range states.States {
		lastContact := sv.LastContactTime()
		t.Row(
			sv.ICAO24,
			fmtString(sv.Callsign),
			fmtText(sv.OriginCountry),
			fmtFloat(sv.Latitude, 4),
			fmtFloat(sv.Longitude, 4),
			fmtFloat(sv.BaroAltitude, 0),
			fmtFloat(sv.GeoAltitude, 0),
			fmtFloat(sv.Velocity, 1),
			fmtFloat(sv.TrueTrack, 0),
			fmtFloat(sv.VerticalRate, 1),
			fmtBool(sv.OnGround),
			fmtString(sv.Squawk),
			sv.PositionSource.String(),
			fmtTime(&lastContact),
		)
	}
	fmt.Fprintln(w, t.Render())
}

func renderFlights(w io.Writer, flights []opensky.Flight) {
	if len(flights) == 0 {
		writeEmpty(w)
		return
	}
	writeTitle(w, fmt.Sprintf("%d flights", len(flights)))

	t := newTable("ICAO24", "CALLSIGN", "FROM", "FIRST SEEN", "TO", "LAST SEEN", "DEP DIST m", "ARR DIST m")
	for _, f := range flights {
		t.Row(
			f.ICAO24,
			fmtString(f.Callsign),
			fmtString(f.EstDepartureAirport),
			fmtTime(f.FirstSeen.Ptr()),
			fmtString(f.EstArrivalAirport),
			fmtTime(f.LastSeen.Ptr()),
			fmtInt(f.EstDepartureAirportHorizDistance),
			fmtInt(f.EstArrivalAirportHorizDistance),
		)
	}
	fmt.Fprintln(w, t.Render())
}

func renderTrack(w io.Writer, track *opensky.Track) {
	if track == nil {
		writeEmpty(w)
		return
	}
	writeTitle(w, fmt.Sprintf("Track of %s (%s) from %s to %s, %d waypoints",
		track.ICAO24,
		fmtString(track.Callsign),
		fmtTime(track.StartTime.Ptr()),
		fmtTime(track.EndTime.Ptr()),
		len(track.Path),
	))
	if len(track.Path) == 0 {
		return
	}

	t := newTable("TIME", "LAT", "LON", "BARO ALT m", "TRACK", "GROUND")
	for _, wp := range track.Path {
		ts := wp.Time
		t.Row(
			fmtTime(&ts),
			fmtFloat(wp.Latitude, 4),
			fmtFloat(wp.Longitude, 4),
			fmtFloat(wp.BaroAltitude, 0),
			fmtFloat(wp.TrueTrack, 0),
			fmtBool(wp.OnGround),
		)
	}
	fmt.Fprintln(w, t.Render())
}

// renderFields prints label/value pairs one per line.
func renderFields(w io.Writer, fields [][2]string) {
	for _, f := range fields {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(f[0]), fmtText(f[1]))
	}
}

func renderRegistration(w io.Writer, r *opensky.Registration) {
	if r == nil {
		writeEmpty(w)
		return
	}
	writeTitle(w, fmt.Sprintf("Aircraft %s", r.ICAO24))
	renderFields(w, [][2]string{
		{"Registration", r.Registration},
		{"Manufacturer", r.ManufacturerName},
		{"Model", r.Model},
		{"Typecode", r.Typecode},
		{"Serial number", r.SerialNumber},
		{"Aircraft class", r.ICAOAircraftClass},
		{"Category", r.CategoryDescription},
		{"Engines", r.Engines},
		{"Operator", r.Operator},
		{"Operator callsign", r.OperatorCallsign},
		{"Operator ICAO/IATA", joinNonEmpty("/", r.OperatorICAO, r.OperatorIATA)},
		{"Owner", r.Owner},
		{"Country", r.Country},
		{"Status", r.Status},
		{"Built", fmtDate(r.Built)},
		{"First flight", fmtDate(r.FirstFlightDate)},
		{"Registered", fmtDate(r.Registered)},
		{"Registered until", fmtDate(r.RegisteredUntil)},
		{"Capabilities", capabilities(r)},
		{"Last updated", fmtTime(r.Timestamp.Ptr())},
	})
}

func renderSearch(w io.Writer, results *opensky.SearchResults) {
	if results == nil || len(results.Content) == 0 {
		writeEmpty(w)
		return
	}
	writeTitle(w, fmt.Sprintf("%d of %d matches", len(results.Content), results.TotalElements))

	t := newTable("ICAO24", "REGISTRATION", "MODEL", "OPERATOR", "COUNTRY")
	for _, r := range results.Content {
		t.Row(r.ICAO24, fmtText(r.Registration), fmtText(r.Model), fmtText(r.Operator), fmtText(r.Country))
	}
	fmt.Fprintln(w, t.Render())
}

func renderAirport(w io.Writer, a *opensky.Airport) {
	if a == nil {
		writeEmpty(w)
		return
	}
	writeTitle(w, fmt.Sprintf("%s %s", a.ICAO, a.Name))
	renderFields(w, [][2]string{
		{"IATA", a.IATA},
		{"Type", a.Type},
		{"City", joinNonEmpty(", ", a.City, a.Municipality)},
		{"Country", a.Country},
		{"Region", a.Region},
		{"Position", fmt.Sprintf("%.4f, %.4f (%.0f m)", a.Position.Latitude, a.Position.Longitude, a.Position.Altitude)},
		{"GPS code", a.GPSCode},
		{"Homepage", a.Homepage},
		{"Wikipedia", a.Wikipedia},
	})
}

func renderAirports(w io.Writer, airports []opensky.Airport) {
	if len(airports) == 0 {
		writeEmpty(w)
		return
	}
	writeTitle(w, fmt.Sprintf("%d airports", len(airports)))

	t := newTable("ICAO", "IATA", "NAME", "TYPE", "COUNTRY", "LAT", "LON")
	for _, a := range airports {
		lat, lon := a.Position.Latitude, a.Position.Longitude
		t.Row(fmtText(a.ICAO), fmtText(a.IATA), fmtText(a.Name), fmtText(a.Type), fmtText(a.Country),
			fmtFloat(&lat, 4), fmtFloat(&lon, 4))
	}
	fmt.Fprintln(w, t.Render())
}

func fmtDate(t opensky.FlexTimestamp) string {
	if !t.Valid {
		return ""
	}
	return t.Time.Format("2006-01-02")
}

func capabilities(r *opensky.Registration) string {
	var caps []string
	if r.ModeS {
		caps = append(caps, "Mode S")
	}
	if r.ADSB {
		caps = append(caps, "ADS-B")
	}
	if r.ACARS {
		caps = append(caps, "ACARS")
	}
	if r.VDL {
		caps = append(caps, "VDL")
	}
	return strings.Join(caps, ", ")
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
