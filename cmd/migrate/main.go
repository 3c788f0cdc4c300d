// Package main provides the schema migration CLI for the scored payments store.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/spf13/cobra"

	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/jnst/fraud-scoring-pipeline/internal/config"
	"github.com/jnst/fraud-scoring-pipeline/internal/logger"
	"github.com/jnst/fraud-scoring-pipeline/internal/repository"
)

const exitCode = 1

var (
	driverFlag string
	urlFlag    string
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the scored_payments schema",
	Long: `Apply or revert the versioned scored_payments schema.

Connection settings default to DATABASE_DRIVER and DATABASE_URL.

Examples:
  migrate up
  migrate down --steps 1
  migrate version --driver postgres --url postgres://localhost:5432/scoring_db`,
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		return withMigrator(func(m *migrate.Migrate) error {
			if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("failed to run up migrations: %w", err)
			}

			slog.Info("migrations applied")

			return nil
		})
	},
}

var downSteps int

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert migrations",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		return withMigrator(func(m *migrate.Migrate) error {
			var err error
			if downSteps > 0 {
				err = m.Steps(-downSteps)
			} else {
				err = m.Down()
			}

			if err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("failed to run down migrations: %w", err)
			}

			slog.Info("migrations reverted", slog.Int("steps", downSteps))

			return nil
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrator(func(m *migrate.Migrate) error {
			v, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Fprintln(cmd.OutOrStdout(), "version: none")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to get version: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "version: %d, dirty: %v\n", v, dirty)

			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&driverFlag, "driver", "", "database driver (mysql or postgres), defaults to DATABASE_DRIVER")
	rootCmd.PersistentFlags().StringVar(&urlFlag, "url", "", "database connection string, defaults to DATABASE_URL")
	downCmd.Flags().IntVar(&downSteps, "steps", 0, "number of migrations to revert, 0 reverts all")

	rootCmd.AddCommand(upCmd, downCmd, versionCmd)
}

// migrateURL turns a DATABASE_URL into the URL golang-migrate expects for driver.
func migrateURL(driver, url string) (string, error) {
	switch driver {
	case repository.DriverMySQL:
		return "mysql://" + strings.TrimPrefix(url, "mysql://"), nil
	case repository.DriverPostgres:
		if !strings.HasPrefix(url, "postgres://") && !strings.HasPrefix(url, "postgresql://") {
			return "", fmt.Errorf("postgres url must start with postgres://, got %q", url)
		}

		return url, nil
	default:
		return "", fmt.Errorf("no migrations for driver %q", driver)
	}
}

func withMigrator(fn func(m *migrate.Migrate) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.SetDefault(logger.Setup(cfg.LogLevel))

	driver, url := cfg.DatabaseDriver, cfg.DatabaseURL
	if driverFlag != "" {
		driver = driverFlag
	}
	if urlFlag != "" {
		url = urlFlag
	}

	dir, err := repository.MigrationsDir(driver)
	if err != nil {
		return err
	}

	databaseURL, err := migrateURL(driver, url)
	if err != nil {
		return err
	}

	source, err := iofs.New(repository.Migrations, dir)
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			slog.Warn("failed to close migrator", slog.Any("source_error", srcErr), slog.Any("database_error", dbErr))
		}
	}()

	slog.Info("running migrations", slog.String("driver", driver), slog.String("dir", dir))

	return fn(m)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode)
	}
}
