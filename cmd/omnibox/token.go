package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/omniboxai/omnibox/internal/auth"
	"github.com/omniboxai/omnibox/internal/config"
)

func newTokenCmd() *cobra.Command {
	var tenantID string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a tenant API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			expiresIn, err := time.ParseDuration(cfg.Auth.JWTExpiresIn)
			if err != nil {
				return fmt.Errorf("parse jwt_expires_in: %w", err)
			}
			token, expiresAt, err := auth.GenerateToken(tenantID, cfg.Auth.JWTSecret, expiresIn)
			if err != nil {
				return err
			}
			fmt.Println(token)
			fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant id to issue the token for")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
