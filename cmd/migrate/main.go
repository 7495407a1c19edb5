package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hazina/backend/internal/infrastructure/config"
	"github.com/hazina/backend/internal/infrastructure/logger"
	"github.com/hazina/backend/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

type cli struct {
	migrationsPath string
	logLevel       string
	log            *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Hazina database migration tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				logger.Sync(c.log)
			}
		},
	}
	root.PersistentFlags().StringVar(&c.migrationsPath, "path", "", "path to migrations directory (default: ./migrations)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withMigrator(func(m *migration.Migrator) error { return m.Up() })
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withMigrator(func(m *migration.Migrator) error { return m.Down() })
			},
		},
		&cobra.Command{
			Use:   "steps <n>",
			Short: "Apply n migrations (positive=up, negative=down)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return c.withMigrator(func(m *migration.Migrator) error { return m.Steps(n) })
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show the current migration version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withMigrator(func(m *migration.Migrator) error {
					version, dirty, err := m.Version()
					if err != nil {
						return err
					}
					if version == 0 {
						c.log.Info("No migrations applied")
						return nil
					}
					c.log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Force the recorded version after a failed migration",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				c.log.Warn("Forcing migration version", zap.Int("version", version))
				return c.withMigrator(func(m *migration.Migrator) error { return m.Force(version) })
			},
		},
		&cobra.Command{
			Use:   "create <name> [description]",
			Short: "Create a new migration file pair",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				description := ""
				if len(args) > 1 {
					description = args[1]
				}
				mf, err := migration.CreateMigration(c.migrationsPath, args[0], description, time.Now())
				if err != nil {
					return err
				}
				c.log.Info("Migration created",
					zap.String("version", mf.Version),
					zap.String("up_file", mf.UpPath),
					zap.String("down_file", mf.DownPath),
				)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List available migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				migrations, err := migration.ListMigrations(c.migrationsPath)
				if err != nil {
					return err
				}
				for _, m := range migrations {
					fmt.Fprintln(cmd.OutOrStdout(), m)
				}
				return nil
			},
		},
	)
	return root
}

func (c *cli) init() error {
	log, err := logger.New(&logger.Config{
		Level:      c.logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.log = log

	path := c.migrationsPath
	if path == "" {
		path = findMigrationsDir()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve migrations path: %w", err)
	}
	c.migrationsPath = abs
	return nil
}

// findMigrationsDir looks in the working directory, then next to the binary
func findMigrationsDir() string {
	if _, err := os.Stat(defaultMigrationsPath); err == nil {
		return defaultMigrationsPath
	}
	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), "..", "..", defaultMigrationsPath)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return defaultMigrationsPath
}

func (c *cli) withMigrator(fn func(m *migration.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("migrations require database.driver=postgres, got %q", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.log.Info("Running migration command", zap.String("migrations_path", c.migrationsPath))
	m, err := migration.New(db, c.migrationsPath, c.log)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}
