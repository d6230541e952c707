package main

import (
	"encoding/json"

	"github.com/Domenick1991/travelbooking/internal/bootstrap"
	"github.com/Domenick1991/travelbooking/internal/service/booking"
	"github.com/spf13/cobra"
)

func newQuoteCmd(opts *rootOptions) *cobra.Command {
	var input booking.QuoteInput

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a trip without booking it",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := bootstrap.Open(cmd.Context(), opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer deps.Close()

			quote, err := deps.Bookings.Quote(cmd.Context(), input)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(quote)
		},
	}

	cmd.Flags().Int64Var(&input.DestinationID, "destination", 0, "destination id")
	cmd.Flags().IntVar(&input.Guests, "guests", 1, "number of guests")
	cmd.Flags().StringVar(&input.TravelClass, "class", "economy", "travel class: economy or business")
	cmd.Flags().StringSliceVar(&input.Upgrades, "upgrade", nil, "upgrade id, repeatable")
	cmd.Flags().StringVar(&input.CouponCode, "coupon", "", "coupon code")
	_ = cmd.MarkFlagRequired("destination")
	return cmd
}
