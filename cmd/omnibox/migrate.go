package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/omniboxai/omnibox/internal/config"
)

func newMigrateCmd() *cobra.Command {
	var (
		down bool
		path string
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			m, err := migrate.New("file://"+path, cfg.Postgres.DSN())
			if err != nil {
				return fmt.Errorf("open migrations: %w", err)
			}
			defer m.Close()

			if down {
				err = m.Steps(-1)
			} else {
				err = m.Up()
			}
			if errors.Is(err, migrate.ErrNoChange) {
				fmt.Println("database is up to date")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Println("migrations applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll back the most recent migration")
	cmd.Flags().StringVar(&path, "path", "internal/db/migrations", "migrations directory")
	return cmd
}
