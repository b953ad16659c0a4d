package main

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/fadhlanhapp/egov-portal/config"
)

var migrationsPath string

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate [up|down|version|force N]",
		Short: "Apply database schema migrations",
		Long: `Apply the SQL migrations in ./migrations to the configured database.

Examples:
  egov-portal migrate up
  egov-portal migrate down
  egov-portal migrate version
  egov-portal migrate force 1`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runMigrate,
	}
	cmd.Flags().StringVar(&migrationsPath, "path", "migrations", "directory holding the migration files")
	return cmd
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	m, err := migrate.New("file://"+migrationsPath, cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			log.Printf("failed to close migration resources: %v, %v", sourceErr, dbErr)
		}
	}()

	switch args[0] {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "force":
		if len(args) < 2 {
			return errors.New("force needs a version")
		}
		version, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		err = m.Force(version)
	case "version":
		version, dirty, verErr := m.Version()
		if errors.Is(verErr, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied")
			return nil
		}
		if verErr != nil {
			return verErr
		}
		fmt.Printf("version %d (dirty: %t)\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("unknown migrate command %q", args[0])
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Println("no change")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", args[0], err)
	}
	log.Printf("migration %s complete", args[0])
	return nil
}
