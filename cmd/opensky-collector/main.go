// Command opensky-collector polls the OpenSky API for the configured regions,
// stores every snapshot in PostgreSQL and publishes it to NATS JetStream.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/unklstewy/opensky/internal/db"
	"github.com/unklstewy/opensky/internal/logging"
	"github.com/unklstewy/opensky/internal/publish"
	"github.com/unklstewy/opensky/pkg/config"
	"github.com/unklstewy/opensky/pkg/opensky"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file (.json or .yaml)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "opensky-collector: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}

	regions := cfg.Collector.EnabledRegions()
	if len(regions) == 0 {
		return fmt.Errorf("no enabled collector regions in %s", configPath)
	}
	for _, r := range regions {
		log.WithFields(logrus.Fields{
			"region": r.Name,
			"lamin":  r.MinLatitude,
			"lamax":  r.MaxLatitude,
			"lomin":  r.MinLongitude,
			"lomax":  r.MaxLongitude,
		}).Info("collecting region")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clientCfg := cfg.OpenSky.ClientConfig()
	clientCfg.Logger = log
	client, err := opensky.NewClient(clientCfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	collector := NewCollector(client, regions, cfg.Collector.Interval(), log)
	collector.retention = cfg.Collector.Retention()
	collector.pruneInterval = cfg.Collector.PruneInterval()

	if cfg.Database.Enabled {
		database, err := db.ReconnectWithRetry(ctx, cfg.Database, 5, 2*time.Second, log)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		defer func() { database.Close() }()

		if err := db.HealthCheck(ctx, database); err != nil {
			return err
		}
		if err := database.InitSchema(ctx); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
		log.Info("database schema initialized")

		useDatabase := func(d *db.DB) {
			database = d
			collector.snapshots = db.NewSnapshotRepository(d)
			collector.aircraft = db.NewAircraftRepository(d)
			collector.pruner = d
		}
		useDatabase(database)
		collector.ensureStorage = func(ctx context.Context) error {
			next, err := db.EnsureConnection(ctx, database, cfg.Database, log)
			if err != nil {
				return err
			}
			if next != database {
				useDatabase(next)
			}
			return nil
		}
	}

	if cfg.NATS.Enabled {
		publisher, err := publish.Connect(cfg.NATS)
		if err != nil {
			return err
		}
		defer publisher.Close()
		collector.publisher = publisher
		log.WithField("subject_prefix", cfg.NATS.SubjectPrefix).Info("publishing snapshots")
	}

	collector.Run(ctx)
	return nil
}
