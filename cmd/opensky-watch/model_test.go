package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unklstewy/opensky/pkg/config"
	"github.com/unklstewy/opensky/pkg/opensky"
)

type fakeSource struct {
	states *opensky.States
	err    error
	query  opensky.StatesQuery
}

func (f *fakeSource) GetStates(ctx context.Context, q opensky.StatesQuery) (*opensky.States, error) {
	f.query = q
	return f.states, f.err
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func testStates() *opensky.States {
	return &opensky.States{
		Time: time.Date(2021, 1, 1, 12, 0, 0, 0, time.UTC),
		States: []opensky.StateVector{
			{ICAO24: "4b1805", Callsign: strPtr("SWR100"), BaroAltitude: floatPtr(3000), Velocity: floatPtr(150)},
			{ICAO24: "3c6444", Callsign: strPtr("DLH9LF"), BaroAltitude: floatPtr(11000), Velocity: floatPtr(230),
				Latitude: floatPtr(47.8), Longitude: floatPtr(8.2)},
			{ICAO24: "4b1a2b", BaroAltitude: floatPtr(500), Velocity: floatPtr(260)},
		},
	}
}

func testModel(src *fakeSource) model {
	region := config.RegionConfig{Name: "switzerland", MinLatitude: 45.8, MaxLatitude: 47.8, MinLongitude: 5.9, MaxLongitude: 10.5}
	return newModel(src, region, time.Second)
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

// TestFetchQueriesRegion tests that the fetch command polls the configured bounding box
func TestFetchQueriesRegion(t *testing.T) {
	src := &fakeSource{states: testStates()}
	m := testModel(src)

	msg := m.Init()()
	sm, ok := msg.(statesMsg)
	if !ok {
		t.Fatalf("Expected statesMsg, got %T", msg)
	}
	if src.query.Region == nil || src.query.Region.MaxLongitude != 10.5 {
		t.Errorf("Expected region query, got %+v", src.query.Region)
	}
	if sm.states.Len() != 3 {
		t.Errorf("Expected 3 states, got %d", sm.states.Len())
	}
}

// TestStatesMsgSortsAndSchedules tests that a snapshot is sorted and the next poll scheduled
func TestStatesMsgSortsAndSchedules(t *testing.T) {
	m := testModel(&fakeSource{})

	m, cmd := update(t, m, statesMsg{states: testStates(), at: time.Now()})
	if cmd == nil {
		t.Error("Expected next tick to be scheduled")
	}
	if len(m.aircraft) != 3 {
		t.Fatalf("Expected 3 aircraft, got %d", len(m.aircraft))
	}
	// Callsign order, unknown callsign last
	want := []string{"3c6444", "4b1805", "4b1a2b"}
	for i, icao := range want {
		if m.aircraft[i].ICAO24 != icao {
			t.Errorf("Expected %s at %d, got %s", icao, i, m.aircraft[i].ICAO24)
		}
	}
}

// TestSortCycle tests that the sort key cycles and reorders the list
func TestSortCycle(t *testing.T) {
	m := testModel(&fakeSource{})
	m, _ = update(t, m, statesMsg{states: testStates(), at: time.Now()})

	m, _ = update(t, m, key("s"))
	if m.sortBy != sortAltitude || m.aircraft[0].ICAO24 != "3c6444" {
		t.Errorf("Expected altitude sort with 3c6444 first, got %s with %s", m.sortBy, m.aircraft[0].ICAO24)
	}

	m, _ = update(t, m, key("s"))
	if m.sortBy != sortVelocity || m.aircraft[0].ICAO24 != "4b1a2b" {
		t.Errorf("Expected velocity sort with 4b1a2b first, got %s with %s", m.sortBy, m.aircraft[0].ICAO24)
	}

	m, _ = update(t, m, key("s"))
	if m.sortBy != sortCallsign {
		t.Errorf("Expected callsign sort, got %s", m.sortBy)
	}
}

// TestSelectionFollowsAircraft tests that the selected aircraft stays selected across refreshes
func TestSelectionFollowsAircraft(t *testing.T) {
	m := testModel(&fakeSource{})
	m, _ = update(t, m, statesMsg{states: testStates(), at: time.Now()})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.aircraft[m.selected].ICAO24 != "4b1805" {
		t.Fatalf("Expected 4b1805 selected, got %s", m.aircraft[m.selected].ICAO24)
	}

	m.sortBy = sortAltitude
	m, _ = update(t, m, statesMsg{states: testStates(), at: time.Now()})
	if m.aircraft[m.selected].ICAO24 != "4b1805" {
		t.Errorf("Expected 4b1805 still selected, got %s", m.aircraft[m.selected].ICAO24)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.selected != 0 {
		t.Errorf("Expected selection clamped at 0, got %d", m.selected)
	}
}

// TestManualRefreshKeepsOneLoop tests that pressing r while a tick is pending
// does not start a second polling loop
func TestManualRefreshKeepsOneLoop(t *testing.T) {
	m := testModel(&fakeSource{states: testStates()})

	// First snapshot schedules the pending tick
	m, cmd := update(t, m, statesMsg{states: testStates(), at: time.Now()})
	if cmd == nil {
		t.Fatal("Expected first tick to be scheduled")
	}
	pending := m.tickID

	m, cmd = update(t, m, key("r"))
	if cmd == nil {
		t.Fatal("Expected manual refresh to fetch")
	}
	m, cmd = update(t, m, cmd())
	if cmd == nil {
		t.Fatal("Expected manual refresh result to schedule a tick")
	}
	if m.tickID == pending {
		t.Fatalf("Expected a new tick id after refresh, still %d", m.tickID)
	}

	// The tick scheduled before the refresh fires and must be ignored
	m, cmd = update(t, m, tickMsg{id: pending, at: time.Now()})
	if cmd != nil {
		t.Error("Expected stale tick to be dropped")
	}
	if m.fetching {
		t.Error("Expected no fetch from a stale tick")
	}

	// The current tick still polls, and its result schedules exactly one tick
	m, cmd = update(t, m, tickMsg{id: m.tickID, at: time.Now()})
	if cmd == nil || !m.fetching {
		t.Fatal("Expected current tick to fetch")
	}
	current := m.tickID
	m, cmd = update(t, m, cmd())
	if cmd == nil || m.tickID != current+1 {
		t.Errorf("Expected one new tick with id %d, got %d", current+1, m.tickID)
	}
}

// TestErrorKeepsAircraft tests that a failed fetch keeps the last snapshot on screen
func TestErrorKeepsAircraft(t *testing.T) {
	m := testModel(&fakeSource{})
	m, _ = update(t, m, statesMsg{states: testStates(), at: time.Now()})
	m, _ = update(t, m, statesMsg{err: errors.New("connection refused"), at: time.Now()})

	if len(m.aircraft) != 3 {
		t.Errorf("Expected 3 aircraft kept, got %d", len(m.aircraft))
	}
	if !strings.Contains(m.View(), "connection refused") {
		t.Error("Expected error in view")
	}
}

// TestLiveModeDoesNotPoll tests that NATS-fed models never schedule polling
func TestLiveModeDoesNotPoll(t *testing.T) {
	m := testModel(&fakeSource{})
	m.live = true

	if cmd := m.Init(); cmd != nil {
		t.Error("Expected no initial fetch in live mode")
	}
	_, cmd := update(t, m, statesMsg{states: testStates(), at: time.Now()})
	if cmd != nil {
		t.Error("Expected no tick in live mode")
	}
}

// TestView tests the rendered list
func TestView(t *testing.T) {
	m := testModel(&fakeSource{})
	if !strings.Contains(m.View(), "No aircraft in region") {
		t.Error("Expected empty notice before the first snapshot")
	}

	m, _ = update(t, m, statesMsg{states: testStates(), at: time.Now()})
	view := m.View()
	for _, want := range []string{"SWITZERLAND", "DLH9LF", "--------", "sort: callsign", "km N of center"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q", want)
		}
	}
}

// TestQuit tests the quit key
func TestQuit(t *testing.T) {
	m := testModel(&fakeSource{})
	_, cmd := update(t, m, key("q"))
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}
