package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/unklstewy/opensky/internal/publish"
	"github.com/unklstewy/opensky/pkg/config"
	"github.com/unklstewy/opensky/pkg/opensky"
)

// statesSource is the part of the API client the collector needs.
type statesSource interface {
	GetStates(ctx context.Context, q opensky.StatesQuery) (*opensky.States, error)
}

type snapshotStore interface {
	SaveSnapshot(ctx context.Context, runID uuid.UUID, region string, states *opensky.States, fetchedAt time.Time) (int64, error)
}

type aircraftStore interface {
	UpsertStates(ctx context.Context, region string, states *opensky.States, seenAt time.Time) error
}

type snapshotPruner interface {
	PruneSnapshots(ctx context.Context, maxAge time.Duration, now time.Time) (int64, error)
}

type snapshotPublisher interface {
	PublishSnapshot(s publish.Snapshot) error
}

// RegionStats tracks per-region collection statistics.
type RegionStats struct {
	Fetched    int
	Failures   int
	Polls      int
	LastUpdate time.Time
}

// Collector polls every enabled region once per cycle, stores the results
// and publishes them. Storage and publication are optional.
type Collector struct {
	client    statesSource
	snapshots snapshotStore
	aircraft  aircraftStore
	pruner    snapshotPruner
	publisher snapshotPublisher
	log       logrus.FieldLogger

	// ensureStorage runs before each cycle and may replace the stores
	ensureStorage func(ctx context.Context) error

	runID         uuid.UUID
	regions       []config.RegionConfig
	limiter       *rate.Limiter
	retention     time.Duration
	pruneInterval time.Duration
	statsInterval time.Duration
	now           func() time.Time

	regionStats map[string]*RegionStats
	cycles      int
	lastPrune   time.Time
	lastStats   time.Time
}

// NewCollector creates a collector polling at interval. A zero retention
// disables pruning.
func NewCollector(client statesSource, regions []config.RegionConfig, interval time.Duration, log logrus.FieldLogger) *Collector {
	return &Collector{
		client:      client,
		log:         log,
		runID:         uuid.New(),
		regions:       regions,
		limiter:       rate.NewLimiter(rate.Every(interval), 1),
		statsInterval: 30 * time.Second,
		now:           time.Now,
		regionStats:   make(map[string]*RegionStats),
	}
}

// Run polls until ctx is done. The first cycle runs immediately.
func (c *Collector) Run(ctx context.Context) {
	c.log.WithFields(logrus.Fields{
		"run_id":  c.runID,
		"regions": len(c.regions),
	}).Info("collector started")

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			c.printStats()
			c.log.WithField("cycles", c.cycles).Info("collector stopped")
			return
		}
		c.update(ctx)
		c.maybePrune(ctx)
		c.maybePrintStats()
	}
}

// update polls every region once. A failed region is logged and skipped;
// it is polled again on the next cycle.
func (c *Collector) update(ctx context.Context) {
	c.cycles++
	total := 0

	if c.ensureStorage != nil {
		if err := c.ensureStorage(ctx); err != nil {
			c.log.WithError(err).WithField("cycle", c.cycles).Error("storage unavailable, skipping cycle")
			return
		}
	}

	for _, region := range c.regions {
		if ctx.Err() != nil {
			return
		}
		n, err := c.pollRegion(ctx, region)
		stats := c.stats(region.Name)
		stats.Polls++
		if err != nil {
			stats.Failures++
			c.log.WithError(err).WithField("region", region.Name).Warn("region poll failed")
			continue
		}
		stats.Fetched = n
		stats.LastUpdate = c.now().UTC()
		total += n
	}

	c.log.WithFields(logrus.Fields{
		"cycle":   c.cycles,
		"regions": len(c.regions),
		"count":   total,
	}).Info("cycle complete")
}

func (c *Collector) pollRegion(ctx context.Context, region config.RegionConfig) (int, error) {
	box := region.ToRegion()
	states, err := c.client.GetStates(ctx, opensky.StatesQuery{Region: &box})
	if err != nil {
		return 0, err
	}
	fetchedAt := c.now().UTC()
	if states == nil {
		c.log.WithField("region", region.Name).Debug("no states returned")
		return 0, nil
	}

	entry := c.log.WithFields(logrus.Fields{
		"region": region.Name,
		"run_id": c.runID,
		"count":  states.Len(),
	})

	if c.snapshots != nil {
		id, err := c.snapshots.SaveSnapshot(ctx, c.runID, region.Name, states, fetchedAt)
		if err != nil {
			return 0, err
		}
		entry = entry.WithField("snapshot_id", id)
	}
	if c.aircraft != nil {
		if err := c.aircraft.UpsertStates(ctx, region.Name, states, fetchedAt); err != nil {
			return 0, err
		}
	}
	if c.publisher != nil {
		err := c.publisher.PublishSnapshot(publish.Snapshot{
			RunID:     c.runID,
			Region:    region.Name,
			FetchedAt: fetchedAt,
			States:    states,
		})
		if err != nil {
			// The snapshot is stored; a publish failure does not fail the poll
			entry.WithError(err).Warn("publish failed")
		}
	}

	entry.Debug("region polled")
	return states.Len(), nil
}

func (c *Collector) maybePrune(ctx context.Context) {
	if c.pruner == nil || c.retention <= 0 {
		return
	}
	now := c.now()
	if !c.lastPrune.IsZero() && now.Sub(c.lastPrune) < c.pruneInterval {
		return
	}
	c.lastPrune = now

	removed, err := c.pruner.PruneSnapshots(ctx, c.retention, now)
	if err != nil {
		c.log.WithError(err).Warn("prune failed")
		return
	}
	c.log.WithFields(logrus.Fields{
		"removed":   removed,
		"retention": c.retention,
	}).Info("pruned old snapshots")
}

func (c *Collector) maybePrintStats() {
	now := c.now()
	if !c.lastStats.IsZero() && now.Sub(c.lastStats) < c.statsInterval {
		return
	}
	c.lastStats = now
	c.printStats()
}

// printStats logs one entry per region, in config order.
func (c *Collector) printStats() {
	for _, region := range c.regions {
		s, ok := c.regionStats[region.Name]
		if !ok {
			continue
		}
		entry := c.log.WithFields(logrus.Fields{
			"region":   region.Name,
			"polls":    s.Polls,
			"failures": s.Failures,
			"count":    s.Fetched,
		})
		if !s.LastUpdate.IsZero() {
			entry = entry.WithField("last_update", s.LastUpdate.Format(time.RFC3339))
		}
		entry.Info("region stats")
	}
}

func (c *Collector) stats(region string) *RegionStats {
	s, ok := c.regionStats[region]
	if !ok {
		s = &RegionStats{}
		c.regionStats[region] = s
	}
	return s
}
