// Package publish sends state vector snapshots to NATS JetStream so other
// services can consume them without polling the API.
package publish

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/unklstewy/opensky/pkg/config"
	"github.com/unklstewy/opensky/pkg/opensky"
)

// DefaultSubjectPrefix is used when the config leaves it empty.
const DefaultSubjectPrefix = "opensky.states"

// JetStream is the subset of nats.JetStreamContext the publisher uses.
type JetStream interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
	Subscribe(subj string, cb nats.MsgHandler, opts ...nats.SubOpt) (*nats.Subscription, error)
}

// Snapshot is the message published for every polled region.
type Snapshot struct {
	RunID     uuid.UUID       `json:"run_id"`
	Region    string          `json:"region"`
	FetchedAt time.Time       `json:"fetched_at"`
	States    *opensky.States `json:"states"`
}

// Publisher publishes snapshots under <prefix>.<region>.
type Publisher struct {
	conn   *nats.Conn
	js     JetStream
	prefix string
}

// Connect dials NATS, makes sure the stream exists and returns a publisher.
func Connect(cfg config.NATSConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.URL, nats.Name("opensky-collector"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     cfg.Stream,
		Subjects: []string{prefix + ".>"},
		Storage:  nats.FileStorage,
		MaxAge:   24 * time.Hour,
	})
	if err != nil && !strings.Contains(err.Error(), "stream name already in use") {
		nc.Close()
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	p := NewPublisher(js, prefix)
	p.conn = nc
	return p, nil
}

// NewPublisher wraps an existing JetStream context.
func NewPublisher(js JetStream, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Publisher{js: js, prefix: prefix}
}

// Subject returns the subject a region's snapshots are published on.
// The region name is lowercased and characters NATS treats specially are
// replaced with underscores.
func (p *Publisher) Subject(region string) string {
	return p.prefix + "." + subjectToken(region)
}

func subjectToken(region string) string {
	token := strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, strings.ToLower(strings.TrimSpace(region)))
	if token == "" {
		return "_"
	}
	return token
}

// PublishSnapshot publishes one snapshot. The snapshot time and region form
// the message ID, so republishing the same snapshot is deduplicated by the
// stream.
func (p *Publisher) PublishSnapshot(s Snapshot) error {
	if s.States == nil {
		return fmt.Errorf("publish snapshot: no states")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	msgID := fmt.Sprintf("%s-%d", subjectToken(s.Region), s.States.Time.Unix())
	if _, err := p.js.Publish(p.Subject(s.Region), data, nats.MsgId(msgID)); err != nil {
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}
	return nil
}

// Subscribe delivers snapshots of one region to handler. Messages that do
// not decode are passed to onError and acknowledged.
func (p *Publisher) Subscribe(region string, handler func(Snapshot), onError func(error)) (*nats.Subscription, error) {
	sub, err := p.js.Subscribe(p.Subject(region), func(msg *nats.Msg) {
		s, err := DecodeSnapshot(msg.Data)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		handler(s)
	}, nats.DeliverNew())
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	return sub, nil
}

// DecodeSnapshot decodes a published snapshot message.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if s.States == nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: no states")
	}
	return s, nil
}

// Close closes the NATS connection, if the publisher owns one.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
