package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fadhlanhapp/egov-portal/config"
	"github.com/fadhlanhapp/egov-portal/handlers"
)

func tokenCmd() *cobra.Command {
	var (
		role string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token [user-id]",
		Short: "Sign a bearer token for local testing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var userID int64
			if _, err := fmt.Sscan(args[0], &userID); err != nil || userID <= 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			token, err := handlers.GenerateToken(config.Load().Auth.JWTSecret, userID, role, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", handlers.RoleCitizen, "citizen, assessor or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
