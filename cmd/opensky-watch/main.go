// Command opensky-watch shows the aircraft in a region in a live terminal view.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/unklstewy/opensky/internal/logging"
	"github.com/unklstewy/opensky/internal/publish"
	"github.com/unklstewy/opensky/pkg/config"
	"github.com/unklstewy/opensky/pkg/opensky"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file (.json or .yaml)")
	regionName := flag.String("region", "", "Collector region to watch (default from config)")
	live := flag.Bool("live", false, "Receive snapshots from opensky-collector over NATS instead of polling")
	logFile := flag.String("log-file", "", "Write logs to this file (default discard)")
	flag.Parse()

	if err := run(*configPath, *regionName, *live, *logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, regionName string, live bool, logFile string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// The terminal belongs to the UI, so logs go to a file or nowhere
	var out io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	log, err := logging.NewWithOutput(cfg.Logging, out)
	if err != nil {
		return err
	}

	if regionName == "" {
		regionName = cfg.Watch.Region
	}
	region, ok := cfg.Collector.FindRegion(regionName)
	if !ok {
		return fmt.Errorf("unknown region %q", regionName)
	}

	clientCfg := cfg.OpenSky.ClientConfig()
	clientCfg.Logger = log
	client, err := opensky.NewClient(clientCfg)
	if err != nil {
		return err
	}

	refresh := time.Duration(cfg.Watch.RefreshSeconds) * time.Second
	if refresh <= 0 {
		refresh = 10 * time.Second
	}

	m := newModel(client, region, refresh)
	m.live = live
	p := tea.NewProgram(m, tea.WithAltScreen())

	if live {
		if !cfg.NATS.Enabled {
			return fmt.Errorf("--live needs nats.enabled in %s", configPath)
		}
		sub, err := subscribe(cfg.NATS, region.Name, p, log)
		if err != nil {
			return err
		}
		defer sub.Close()
	}

	_, err = p.Run()
	return err
}

// subscription ties a NATS subscription to the connection that owns it.
type subscription struct {
	publisher *publish.Publisher
	unsub     func() error
}

func (s *subscription) Close() {
	_ = s.unsub()
	s.publisher.Close()
}

// subscribe forwards snapshots of region to the running program.
func subscribe(cfg config.NATSConfig, region string, p *tea.Program, log logrus.FieldLogger) (*subscription, error) {
	publisher, err := publish.Connect(cfg)
	if err != nil {
		return nil, err
	}

	sub, err := publisher.Subscribe(region,
		func(s publish.Snapshot) {
			log.WithFields(logrus.Fields{"region": s.Region, "count": s.States.Len()}).Debug("snapshot received")
			p.Send(statesMsg{states: s.States, at: s.FetchedAt})
		},
		func(err error) {
			p.Send(statesMsg{err: err, at: time.Now()})
		},
	)
	if err != nil {
		publisher.Close()
		return nil, err
	}
	return &subscription{publisher: publisher, unsub: sub.Unsubscribe}, nil
}
