package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	airportsRegion string
	airportsBox    []float64
)

var airportCmd = &cobra.Command{
	Use:   "airport <icao>",
	Short: "Show the details of an airport",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		a, err := s.client.GetAirportInfo(ctx, args[0])
		if err != nil {
			return err
		}
		renderAirport(s.out, a)
		return nil
	},
}

var airportsCmd = &cobra.Command{
	Use:   "airports",
	Short: "List the airports inside a bounding box",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		region, err := resolveRegion(s, airportsRegion, airportsBox)
		if err != nil {
			return err
		}
		if region == nil {
			return fmt.Errorf("one of --region or --box is required")
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		airports, err := s.client.GetAirportsByRegion(ctx, *region)
		if err != nil {
			return err
		}
		renderAirports(s.out, airports)
		return nil
	},
}

func init() {
	airportsCmd.Flags().StringVar(&airportsRegion, "region", "", "Named region from the config file")
	airportsCmd.Flags().Float64SliceVar(&airportsBox, "box", nil, "Bounding box lamin,lamax,lomin,lomax")
	RootCmd.AddCommand(airportCmd, airportsCmd)
}
