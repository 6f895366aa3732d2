package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/unklstewy/opensky/internal/db"
)

var (
	historySince  string
	historyLimit  int
	historyRegion string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query state vectors recorded by opensky-collector",
	Long: `Query the PostgreSQL database filled by opensky-collector.
The database section of the config file must be enabled.`,
}

// withDatabase opens the configured database for one command.
func withDatabase(cmd *cobra.Command, fn func(ctx context.Context, s *session, database *db.DB) error) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	if !s.cfg.Database.Enabled {
		return fmt.Errorf("database is not enabled in %s", configPath)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	database, err := db.Connect(ctx, s.cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close()

	return fn(ctx, s, database)
}

var historyVectorsCmd = &cobra.Command{
	Use:   "vectors <icao24>",
	Short: "Show the stored state vectors of one aircraft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		since, err := parseSince(historySince)
		if err != nil {
			return err
		}
		return withDatabase(cmd, func(ctx context.Context, s *session, database *db.DB) error {
			vectors, err := db.NewSnapshotRepository(database).VectorsForAircraft(ctx, args[0], since, historyLimit)
			if err != nil {
				return err
			}
			renderStoredVectors(s.out, vectors)
			return nil
		})
	},
}

var historyAircraftCmd = &cobra.Command{
	Use:   "aircraft <icao24>",
	Short: "Show the latest stored state of one aircraft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd, func(ctx context.Context, s *session, database *db.DB) error {
			ac, err := db.NewAircraftRepository(database).GetAircraft(ctx, args[0])
			if err != nil {
				return err
			}
			if ac == nil {
				writeEmpty(s.out)
				return nil
			}
			renderAircraft(s.out, []db.Aircraft{*ac})
			return nil
		})
	},
}

var historySeenCmd = &cobra.Command{
	Use:   "seen",
	Short: "List aircraft seen in a region since a time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		since, err := parseSince(historySince)
		if err != nil {
			return err
		}
		return withDatabase(cmd, func(ctx context.Context, s *session, database *db.DB) error {
			aircraft, err := db.NewAircraftRepository(database).SeenSince(ctx, historyRegion, since)
			if err != nil {
				return err
			}
			renderAircraft(s.out, aircraft)
			return nil
		})
	},
}

var historyLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recent stored snapshot of a region",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyRegion == "" {
			return fmt.Errorf("--region is required")
		}
		return withDatabase(cmd, func(ctx context.Context, s *session, database *db.DB) error {
			states, err := db.NewSnapshotRepository(database).LatestSnapshot(ctx, historyRegion)
			if err != nil {
				return err
			}
			renderStates(s.out, states)
			return nil
		})
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how much data is stored",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd, func(ctx context.Context, s *session, database *db.DB) error {
			stats, err := database.GetStats(ctx)
			if err != nil {
				return err
			}
			renderDBStats(s.out, stats)
			return nil
		})
	},
}

// parseSince reads a --since flag; empty means the last 24 hours.
func parseSince(s string) (time.Time, error) {
	if s == "" {
		return now().UTC().Add(-24 * time.Hour), nil
	}
	return parseTime(s)
}

func renderStoredVectors(w io.Writer, vectors []db.StoredVector) {
	if len(vectors) == 0 {
		writeEmpty(w)
		return
	}
	t := newTable("SNAPSHOT", "REGION", "TIME", "CALLSIGN", "LAT", "LON", "BARO ALT m", "SPEED m/s", "TRACK", "SENSORS")
	for _, v := range vectors {
		ts := v.SnapshotTime
		t.Row(
			fmt.Sprintf("%d", v.SnapshotID),
			v.Region,
			fmtTime(&ts),
			fmtString(v.Callsign),
			fmtFloat(v.Latitude, 4),
			fmtFloat(v.Longitude, 4),
			fmtFloat(v.BaroAltitude, 0),
			fmtFloat(v.Velocity, 1),
			fmtFloat(v.TrueTrack, 0),
			fmtSensors(v.Sensors),
		)
	}
	fmt.Fprintln(w, t.Render())
}

func renderAircraft(w io.Writer, aircraft []db.Aircraft) {
	if len(aircraft) == 0 {
		writeEmpty(w)
		return
	}
	t := newTable("ICAO24", "CALLSIGN", "COUNTRY", "REGION", "LAT", "LON", "BARO ALT m", "FIRST SEEN", "LAST SEEN", "SIGHTINGS")
	for _, a := range aircraft {
		first, last := a.FirstSeen, a.LastSeen
		t.Row(
			a.ICAO24,
			fmtString(a.Callsign),
			fmtText(a.OriginCountry),
			fmtText(a.Region),
			fmtFloat(a.Latitude, 4),
			fmtFloat(a.Longitude, 4),
			fmtFloat(a.BaroAltitude, 0),
			fmtTime(&first),
			fmtTime(&last),
			fmt.Sprintf("%d", a.SightingCount),
		)
	}
	fmt.Fprintln(w, t.Render())
}

func renderDBStats(w io.Writer, s *db.Stats) {
	renderFields(w, [][2]string{
		{"Snapshots", fmt.Sprintf("%d", s.Snapshots)},
		{"State vectors", fmt.Sprintf("%d", s.StateVectors)},
		{"Aircraft", fmt.Sprintf("%d", s.Aircraft)},
		{"Oldest snapshot", fmtTime(s.Oldest)},
		{"Newest snapshot", fmtTime(s.Newest)},
	})
}

func init() {
	for _, c := range []*cobra.Command{historyVectorsCmd, historySeenCmd} {
		c.Flags().StringVar(&historySince, "since", "", "Earliest time to include (default 24 hours ago)")
	}
	historyVectorsCmd.Flags().IntVar(&historyLimit, "limit", 100, "Maximum number of vectors")
	historySeenCmd.Flags().StringVar(&historyRegion, "region", "", "Collector region (default all)")
	historyLatestCmd.Flags().StringVar(&historyRegion, "region", "", "Collector region")

	historyCmd.AddCommand(historyVectorsCmd, historyAircraftCmd, historySeenCmd, historyLatestCmd, historyStatsCmd)
	RootCmd.AddCommand(historyCmd)
}
