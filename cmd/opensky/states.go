package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unklstewy/opensky/pkg/opensky"
)

var (
	statesICAO24   []string
	statesTime     string
	statesRegion   string
	statesBox      []float64
	statesExtended bool
	ownSerials     []int
)

var statesCmd = &cobra.Command{
	Use:   "states",
	Short: "Show live or recent state vectors",
	Long: `Show state vectors for all aircraft, a set of transponder addresses, or
a bounding box.

A bounding box is given either as --box lamin,lamax,lomin,lomax or by the
name of a collector region from the config file with --region.

Examples:
  opensky states --region switzerland
  opensky states --icao24 3c6444,3e1bf9
  opensky states --box 45.8,47.8,5.9,10.5 --time -10m`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		at, err := parseTime(statesTime)
		if err != nil {
			return err
		}
		region, err := resolveRegion(s, statesRegion, statesBox)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		states, err := s.client.GetStates(ctx, opensky.StatesQuery{
			ICAO24:   statesICAO24,
			Time:     at,
			Region:   region,
			Extended: statesExtended,
		})
		if err != nil {
			return err
		}
		renderStates(s.out, states)
		return nil
	},
}

var ownStatesCmd = &cobra.Command{
	Use:   "own-states",
	Short: "Show state vectors from your own receivers",
	Long: `Show state vectors seen by the receivers registered to your account.
Requires credentials.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		at, err := parseTime(statesTime)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		states, err := s.client.GetMyStates(ctx, opensky.OwnStatesQuery{
			ICAO24:  statesICAO24,
			Time:    at,
			Serials: ownSerials,
		})
		if err != nil {
			return err
		}
		renderStates(s.out, states)
		return nil
	},
}

// resolveRegion picks a bounding box from --region or --box; nil when neither is set.
func resolveRegion(s *session, name string, box []float64) (*opensky.Region, error) {
	if name != "" && len(box) > 0 {
		return nil, fmt.Errorf("use either --region or --box, not both")
	}
	if name != "" {
		rc, ok := s.cfg.Collector.FindRegion(name)
		if !ok {
			return nil, fmt.Errorf("unknown region %q", name)
		}
		r := rc.ToRegion()
		return &r, nil
	}
	if len(box) == 0 {
		return nil, nil
	}
	if len(box) != 4 {
		return nil, fmt.Errorf("--box needs 4 values (lamin,lamax,lomin,lomax), got %d", len(box))
	}
	r := opensky.NewRegion(box[0], box[1], box[2], box[3])
	return &r, nil
}

func init() {
	for _, c := range []*cobra.Command{statesCmd, ownStatesCmd} {
		c.Flags().StringSliceVar(&statesICAO24, "icao24", nil, "Transponder addresses (hex), comma separated")
		c.Flags().StringVar(&statesTime, "time", "", "Snapshot time within the last hour (default most recent)")
		RootCmd.AddCommand(c)
	}
	statesCmd.Flags().StringVar(&statesRegion, "region", "", "Named region from the config file")
	statesCmd.Flags().Float64SliceVar(&statesBox, "box", nil, "Bounding box lamin,lamax,lomin,lomax")
	statesCmd.Flags().BoolVar(&statesExtended, "extended", false, "Request the extended aircraft category slot")
	ownStatesCmd.Flags().IntSliceVar(&ownSerials, "serials", nil, "Receiver serial numbers, comma separated")
}
