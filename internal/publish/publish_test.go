package publish

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/unklstewy/opensky/pkg/opensky"
)

// fakeJetStream records published messages instead of sending them.
type fakeJetStream struct {
	subjects []string
	payloads [][]byte
	err      error
	handler  nats.MsgHandler
}

func (f *fakeJetStream) Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.subjects = append(f.subjects, subj)
	f.payloads = append(f.payloads, data)
	return &nats.PubAck{Stream: "OPENSKY", Sequence: uint64(len(f.subjects))}, nil
}

func (f *fakeJetStream) Subscribe(subj string, cb nats.MsgHandler, opts ...nats.SubOpt) (*nats.Subscription, error) {
	f.subjects = append(f.subjects, subj)
	f.handler = cb
	return &nats.Subscription{Subject: subj}, nil
}

func testSnapshot() Snapshot {
	callsign := "SWR123"
	return Snapshot{
		RunID:     uuid.MustParse("6f1c2b9e-2d4a-4f6e-9b43-0c1e7d5a8b21"),
		Region:    "Swiss Alps",
		FetchedAt: time.Date(2021, 1, 1, 0, 0, 2, 0, time.UTC),
		States: &opensky.States{
			Time: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
			States: []opensky.StateVector{
				{ICAO24: "4b1814", Callsign: &callsign, OriginCountry: "Switzerland", LastContact: 1609459200},
			},
		},
	}
}

// TestSubject tests subject naming.
func TestSubject(t *testing.T) {
	p := NewPublisher(&fakeJetStream{}, "")
	tests := map[string]string{
		"alps":       "opensky.states.alps",
		"Swiss Alps": "opensky.states.swiss_alps",
		"eu.west":    "opensky.states.eu_west",
		"a*b>c":      "opensky.states.a_b_c",
		"  ":         "opensky.states._",
	}
	for region, want := range tests {
		if got := p.Subject(region); got != want {
			t.Errorf("Subject(%q): expected %s, got %s", region, want, got)
		}
	}

	custom := NewPublisher(&fakeJetStream{}, "adsb.live")
	if got := custom.Subject("alps"); got != "adsb.live.alps" {
		t.Errorf("Expected custom prefix, got %s", got)
	}
}

// TestPublishSnapshot tests publishing and decoding a snapshot.
func TestPublishSnapshot(t *testing.T) {
	t.Run("Round trip", func(t *testing.T) {
		js := &fakeJetStream{}
		p := NewPublisher(js, "")

		if err := p.PublishSnapshot(testSnapshot()); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(js.subjects) != 1 || js.subjects[0] != "opensky.states.swiss_alps" {
			t.Fatalf("Unexpected subjects %v", js.subjects)
		}

		got, err := DecodeSnapshot(js.payloads[0])
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if got.Region != "Swiss Alps" || got.RunID != testSnapshot().RunID {
			t.Errorf("Unexpected snapshot %+v", got)
		}
		if got.States.Len() != 1 || *got.States.States[0].Callsign != "SWR123" {
			t.Errorf("Unexpected states %+v", got.States)
		}
		if !got.States.Time.Equal(testSnapshot().States.Time) {
			t.Errorf("Expected snapshot time %v, got %v", testSnapshot().States.Time, got.States.Time)
		}
	})

	t.Run("Publish failure", func(t *testing.T) {
		p := NewPublisher(&fakeJetStream{err: errors.New("no responders")}, "")
		if err := p.PublishSnapshot(testSnapshot()); err == nil {
			t.Error("Expected error, got nil")
		}
	})

	t.Run("Nil states", func(t *testing.T) {
		p := NewPublisher(&fakeJetStream{}, "")
		s := testSnapshot()
		s.States = nil
		if err := p.PublishSnapshot(s); err == nil {
			t.Error("Expected error for nil states")
		}
	})
}

// TestSubscribe tests snapshot delivery to the handler.
func TestSubscribe(t *testing.T) {
	js := &fakeJetStream{}
	p := NewPublisher(js, "")

	var (
		received []Snapshot
		failures []error
	)
	_, err := p.Subscribe("Swiss Alps", func(s Snapshot) {
		received = append(received, s)
	}, func(err error) {
		failures = append(failures, err)
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if js.subjects[0] != "opensky.states.swiss_alps" {
		t.Errorf("Unexpected subscription subject %s", js.subjects[0])
	}

	if err := p.PublishSnapshot(testSnapshot()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	js.handler(&nats.Msg{Data: js.payloads[0]})
	js.handler(&nats.Msg{Data: []byte("not json")})

	if len(received) != 1 || received[0].States.Len() != 1 {
		t.Errorf("Expected one delivered snapshot, got %+v", received)
	}
	if len(failures) != 1 {
		t.Errorf("Expected one decode failure, got %v", failures)
	}
}
