package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/unklstewy/opensky/pkg/opensky"
)

var searchAmount int

var registrationCmd = &cobra.Command{
	Use:   "registration <icao24>",
	Short: "Show the registration record of an aircraft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		r, err := s.client.GetAircraftRegistration(ctx, args[0])
		if err != nil {
			return err
		}
		renderRegistration(s.out, r)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <term>...",
	Short: "Search the aircraft database",
	Long: `Search aircraft by registration, transponder address, model or
operator. Only the first page of results is fetched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		results, err := s.client.SearchAircraft(ctx, strings.Join(args, " "), searchAmount)
		if err != nil {
			return err
		}
		renderSearch(s.out, results)
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchAmount, "amount", "n", opensky.DefaultSearchAmount, "Maximum number of results")
	RootCmd.AddCommand(registrationCmd, searchCmd)
}
