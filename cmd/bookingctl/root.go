package main

import (
	"log/slog"
	"os"

	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/bootstrap"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "bookingctl",
		Short: "Administrative tool for the travel booking service",
		Long: `bookingctl runs maintenance tasks against the booking database.

Examples:
  bookingctl migrate
  bookingctl quote --destination 1 --guests 2 --class business --upgrade spa-package
  bookingctl complete-trips
  bookingctl token --user 42 --role admin`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.logger = bootstrap.NewLogger(cfg)
			return nil
		},
	}

	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "config.yaml"
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultPath, "path to the YAML config file")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newQuoteCmd(opts),
		newCompleteTripsCmd(opts),
		newTokenCmd(opts),
	)
	return cmd
}
