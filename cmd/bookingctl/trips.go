package main

import (
	"fmt"

	"github.com/Domenick1991/travelbooking/internal/bootstrap"
	"github.com/spf13/cobra"
)

func newCompleteTripsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "complete-trips",
		Short: "Mark every booking whose check-out date has passed as completed",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := bootstrap.Open(cmd.Context(), opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer deps.Close()

			n, err := deps.Bookings.CompleteEndedTrips(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "completed %d bookings\n", n)
			return err
		},
	}
}
