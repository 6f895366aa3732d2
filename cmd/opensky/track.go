package main

import (
	"github.com/spf13/cobra"
)

var trackTime string

var trackCmd = &cobra.Command{
	Use:   "track <icao24>",
	Short: "Show the flight track of an aircraft",
	Long: `Show the trajectory of an aircraft at a time within the last 30 days.
Without --time the live track of an aircraft currently in flight is shown.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		at, err := parseTime(trackTime)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		track, err := s.client.GetTrackByAircraft(ctx, args[0], at)
		if err != nil {
			return err
		}
		renderTrack(s.out, track)
		return nil
	},
}

func init() {
	trackCmd.Flags().StringVar(&trackTime, "time", "", "Any time during the flight (default live track)")
	RootCmd.AddCommand(trackCmd)
}
