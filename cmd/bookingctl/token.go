package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/travelbooking/api"
	"github.com/spf13/cobra"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		userID int64
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not configured")
			}
			if userID <= 0 {
				return errors.New("--user must be a positive id")
			}
			token, err := api.IssueToken(opts.cfg.Auth.JWTSecret, userID, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id placed in the subject claim")
	cmd.Flags().StringVar(&role, "role", "", `role claim, "admin" grants administrator access`)
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
