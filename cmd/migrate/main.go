package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/lws-dev/hiring/backend/internal/migrations"
	"github.com/spf13/cobra"
	"github.com/stokaro/ptah/dbschema"
	"github.com/stokaro/ptah/migration/migrator"
)

// only the database settings, the full config asks for smtp and friends
type migrateConfig struct {
	DSN     string `env:"DATABASE_DSN"`
	Timeout int    `env:"DATABASE_MIGRATION_TIMEOUT" envDefault:"300"`
}

var (
	cfg migrateConfig

	rootCmd = &cobra.Command{
		Use:           "migrate",
		Short:         "migrate applies the embedded database migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DSN == "" {
				return fmt.Errorf("a database url is required (--dsn or DATABASE_DSN)")
			}
			return nil
		},
	}

	upCmd = &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *migrator.Migrator) error {
				return m.MigrateUp(ctx)
			})
		},
	}

	downCmd = &cobra.Command{
		Use:   "down",
		Short: "Revert the latest applied migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *migrator.Migrator) error {
				return m.MigrateDown(ctx)
			})
		},
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "List applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *migrator.Migrator) error {
				status, err := m.GetMigrationStatus(ctx)
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "current version: %d\n\n", status.CurrentVersion)
				fmt.Fprintln(tw, "VERSION\tDESCRIPTION\tSTATUS")
				for _, migration := range m.MigrationProvider().Migrations() {
					state := "applied"
					if slices.Contains(status.PendingMigrations, migration.Version) {
						state = "pending"
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\n", migration.Version, migration.Description, state)
				}
				return tw.Flush()
			})
		},
	}
)

func withMigrator(ctx context.Context, run func(ctx context.Context, m *migrator.Migrator) error) error {
	conn, err := dbschema.ConnectToDatabase(cfg.DSN)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer conn.Close()

	m, err := migrations.NewMigrator(conn, slog.Default())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Timeout)*time.Second)
	defer cancel()

	return run(ctx, m)
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := env.Parse(&cfg); err != nil {
		logger.Error("could not load config", "error", err)
		os.Exit(1)
	}

	rootCmd.PersistentFlags().StringVar(&cfg.DSN, "dsn", cfg.DSN, "postgres connection url")
	rootCmd.AddCommand(upCmd, downCmd, statusCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}
}
