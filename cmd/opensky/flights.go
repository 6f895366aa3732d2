package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/unklstewy/opensky/pkg/opensky"
)

var (
	flightsBegin string
	flightsEnd   string
)

// windowFunc runs a flights query over [begin, end].
type windowFunc func(ctx context.Context, begin, end time.Time) ([]opensky.Flight, error)

// runFlights runs ranged when --begin is set and recent otherwise.
func runFlights(cmd *cobra.Command, s *session, ranged windowFunc, recent func(ctx context.Context, end time.Time) ([]opensky.Flight, error)) error {
	begin, err := parseTime(flightsBegin)
	if err != nil {
		return err
	}
	end, err := parseEnd(flightsEnd)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	var flights []opensky.Flight
	if begin.IsZero() {
		flights, err = recent(ctx, end)
	} else {
		flights, err = ranged(ctx, begin, end)
	}
	if err != nil {
		return err
	}
	renderFlights(s.out, flights)
	return nil
}

var flightsCmd = &cobra.Command{
	Use:   "flights",
	Short: "Show all flights in a window of up to two hours",
	Long: `Show all flights in a time window. Without --begin the two hours before
--end (default now) are used. Flights are updated by a nightly batch, so
the previous day or earlier is the useful range.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		return runFlights(cmd, s, s.client.GetFlights, s.client.GetRecentFlights)
	},
}

var aircraftFlightsCmd = &cobra.Command{
	Use:   "aircraft-flights <icao24>",
	Short: "Show the flights of one aircraft in a window of up to 30 days",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		icao24 := args[0]
		return runFlights(cmd, s,
			func(ctx context.Context, begin, end time.Time) ([]opensky.Flight, error) {
				return s.client.GetFlightsByAircraft(ctx, icao24, begin, end)
			},
			func(ctx context.Context, end time.Time) ([]opensky.Flight, error) {
				return s.client.GetRecentFlightsByAircraft(ctx, icao24, end)
			})
	},
}

var arrivalsCmd = &cobra.Command{
	Use:   "arrivals <airport>",
	Short: "Show arrivals at an airport in a window of up to 7 days",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		airport := args[0]
		return runFlights(cmd, s,
			func(ctx context.Context, begin, end time.Time) ([]opensky.Flight, error) {
				return s.client.GetAirportArrivals(ctx, airport, begin, end)
			},
			func(ctx context.Context, end time.Time) ([]opensky.Flight, error) {
				return s.client.GetRecentAirportArrivals(ctx, airport, end)
			})
	},
}

var departuresCmd = &cobra.Command{
	Use:   "departures <airport>",
	Short: "Show departures from an airport in a window of up to 7 days",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		airport := args[0]
		return runFlights(cmd, s,
			func(ctx context.Context, begin, end time.Time) ([]opensky.Flight, error) {
				return s.client.GetAirportDepartures(ctx, airport, begin, end)
			},
			func(ctx context.Context, end time.Time) ([]opensky.Flight, error) {
				return s.client.GetRecentAirportDepartures(ctx, airport, end)
			})
	},
}

func init() {
	for _, c := range []*cobra.Command{flightsCmd, aircraftFlightsCmd, arrivalsCmd, departuresCmd} {
		c.Flags().StringVar(&flightsBegin, "begin", "", "Start of the window (default end minus the maximum window)")
		c.Flags().StringVar(&flightsEnd, "end", "", "End of the window (default now)")
		RootCmd.AddCommand(c)
	}
}
