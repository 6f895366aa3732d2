package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/opensky/pkg/config"
	"github.com/unklstewy/opensky/pkg/geo"
	"github.com/unklstewy/opensky/pkg/opensky"
)

// visibleRows is how many aircraft the list shows at once.
const visibleRows = 15

type statesSource interface {
	GetStates(ctx context.Context, q opensky.StatesQuery) (*opensky.States, error)
}

// sortMode orders the aircraft list.
type sortMode int

const (
	sortCallsign sortMode = iota
	sortAltitude
	sortVelocity
)

func (s sortMode) String() string {
	switch s {
	case sortAltitude:
		return "altitude"
	case sortVelocity:
		return "velocity"
	default:
		return "callsign"
	}
}

func (s sortMode) next() sortMode {
	return (s + 1) % 3
}

// tickMsg triggers a poll. Only the tick matching model.tickID is acted on,
// so a manual refresh cannot leave a second polling loop running.
type tickMsg struct {
	id int
	at time.Time
}

// statesMsg carries a completed fetch or a snapshot pushed over NATS.
type statesMsg struct {
	states *opensky.States
	err    error
	at     time.Time
}

type model struct {
	client  statesSource
	region  config.RegionConfig
	refresh time.Duration

	// live is true when snapshots arrive from NATS instead of polling
	live bool

	aircraft  []opensky.StateVector
	snapshot  time.Time
	updatedAt time.Time
	selected  int
	sortBy    sortMode
	fetching  bool
	tickID    int
	err       error
}

func newModel(client statesSource, region config.RegionConfig, refresh time.Duration) model {
	return model{
		client:  client,
		region:  region,
		refresh: refresh,
	}
}

func tick(d time.Duration, id int) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg{id: id, at: t}
	})
}

// fetch polls the region once.
func (m model) fetch() tea.Cmd {
	client := m.client
	box := m.region.ToRegion()
	timeout := m.refresh
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		states, err := client.GetStates(ctx, opensky.StatesQuery{Region: &box})
		return statesMsg{states: states, err: err, at: time.Now()}
	}
}

func (m model) Init() tea.Cmd {
	if m.live {
		return nil
	}
	return m.fetch()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.aircraft)-1 {
				m.selected++
			}
		case "s":
			m.sortBy = m.sortBy.next()
			m.applySort()
		case "r":
			if !m.live && !m.fetching {
				m.fetching = true
				return m, m.fetch()
			}
		}

	case tickMsg:
		if msg.id != m.tickID || m.fetching {
			return m, nil
		}
		m.fetching = true
		return m, m.fetch()

	case statesMsg:
		m.fetching = false
		m.apply(msg)
		if m.live {
			return m, nil
		}
		m.tickID++
		return m, tick(m.refresh, m.tickID)
	}

	return m, nil
}

// apply stores a snapshot, keeping the selected aircraft selected.
func (m *model) apply(msg statesMsg) {
	if msg.err != nil {
		m.err = msg.err
		return
	}
	m.err = nil
	m.updatedAt = msg.at

	var selectedICAO string
	if m.selected < len(m.aircraft) {
		selectedICAO = m.aircraft[m.selected].ICAO24
	}

	if msg.states == nil {
		m.aircraft = nil
		m.selected = 0
		return
	}
	m.snapshot = msg.states.Time
	m.aircraft = append([]opensky.StateVector(nil), msg.states.States...)
	m.applySort()

	m.selected = 0
	for i, sv := range m.aircraft {
		if sv.ICAO24 == selectedICAO {
			m.selected = i
			break
		}
	}
}

func (m *model) applySort() {
	less := func(i, j int) bool {
		return callsign(m.aircraft[i]) < callsign(m.aircraft[j])
	}
	switch m.sortBy {
	case sortAltitude:
		less = func(i, j int) bool { return value(m.aircraft[i].BaroAltitude) > value(m.aircraft[j].BaroAltitude) }
	case sortVelocity:
		less = func(i, j int) bool { return value(m.aircraft[i].Velocity) > value(m.aircraft[j].Velocity) }
	}
	sort.SliceStable(m.aircraft, less)
}

// callsign sorts aircraft without a callsign last.
func callsign(sv opensky.StateVector) string {
	if sv.Callsign == nil || *sv.Callsign == "" {
		return "~" + sv.ICAO24
	}
	return *sv.Callsign
}

// value returns -1 for unknown so unknowns sort last in descending order.
func value(p *float64) float64 {
	if p == nil {
		return -1
	}
	return *p
}

func (m model) View() string {
	var s strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)
	s.WriteString(titleStyle.Render("OPENSKY WATCH: " + strings.ToUpper(m.region.Name)))
	s.WriteString("\n\n")

	infoStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	source := fmt.Sprintf("polling every %s", m.refresh)
	if m.live {
		source = "live from NATS"
	}
	snapshot := "waiting for data"
	if !m.snapshot.IsZero() {
		snapshot = "snapshot " + m.snapshot.UTC().Format("15:04:05") + " UTC"
	}
	s.WriteString(infoStyle.Render(fmt.Sprintf("%s  |  %s  |  sort: %s", source, snapshot, m.sortBy)))
	s.WriteString("\n\n")

	if m.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		s.WriteString(errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n\n")
	}

	s.WriteString(m.renderAircraftList())
	s.WriteString("\n")
	s.WriteString(m.renderDetail())
	s.WriteString("\n")

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	s.WriteString(helpStyle.Render("↑/↓: Select  S: Sort  R: Refresh  Q: Quit"))
	s.WriteString("\n")

	return s.String()
}

func (m model) renderAircraftList() string {
	var list strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	list.WriteString(headerStyle.Render("Aircraft:"))
	list.WriteString(fmt.Sprintf(" (%d)", len(m.aircraft)))
	list.WriteString("\n\n")

	if len(m.aircraft) == 0 {
		list.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("  No aircraft in region"))
		list.WriteString("\n")
		return list.String()
	}

	start := 0
	if m.selected > visibleRows/2 && len(m.aircraft) > visibleRows {
		start = m.selected - visibleRows/2
	}
	end := start + visibleRows
	if end > len(m.aircraft) {
		end = len(m.aircraft)
		if end-visibleRows > 0 {
			start = end - visibleRows
		}
	}

	for i := start; i < end; i++ {
		sv := m.aircraft[i]

		prefix := "  "
		if i == m.selected {
			prefix = "→ "
		}

		name := "--------"
		if sv.Callsign != nil && *sv.Callsign != "" {
			name = *sv.Callsign
		}

		// Age of the last contact
		age := m.updatedAt.Sub(sv.LastContactTime()).Seconds()
		ageStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
		if age > 30 {
			ageStyle = ageStyle.Foreground(lipgloss.Color("226"))
		}
		if age > 60 {
			ageStyle = ageStyle.Foreground(lipgloss.Color("196"))
		}

		status := ""
		if sv.OnGround {
			status = " [GND]"
		}

		line := fmt.Sprintf("%s%-8s  %s  %6s m  %5s m/s  %3s°  %-18s",
			prefix,
			name,
			sv.ICAO24,
			format(sv.BaroAltitude, "%.0f"),
			format(sv.Velocity, "%.0f"),
			format(sv.TrueTrack, "%.0f"),
			truncate(sv.OriginCountry, 18),
		)
		if i == m.selected {
			line = lipgloss.NewStyle().Background(lipgloss.Color("237")).Render(line)
		}

		list.WriteString(line)
		list.WriteString(ageStyle.Render(fmt.Sprintf(" %4.0fs", age)))
		list.WriteString(status)
		list.WriteString("\n")
	}

	return list.String()
}

func (m model) renderDetail() string {
	if m.selected >= len(m.aircraft) {
		return ""
	}
	sv := m.aircraft[m.selected]

	detailStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	pos := "position unknown"
	if p, ok := geo.FromState(sv); ok {
		center := geo.Center(m.region.ToRegion())
		pos = fmt.Sprintf("%.4f, %.4f (%.0f km %s of center)",
			p.Latitude, p.Longitude,
			geo.DistanceKm(center, p), geo.Compass(geo.Bearing(center, p)))
	}
	squawk := "----"
	if sv.Squawk != nil {
		squawk = *sv.Squawk
	}

	return detailStyle.Render(fmt.Sprintf("%s  %s  geo alt %s m  v/s %s m/s  squawk %s  via %s",
		sv.ICAO24,
		pos,
		format(sv.GeoAltitude, "%.0f"),
		format(sv.VerticalRate, "%.1f"),
		squawk,
		sv.PositionSource,
	))
}

func format(p *float64, verb string) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf(verb, *p)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
