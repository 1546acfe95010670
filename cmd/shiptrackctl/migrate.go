package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/oopsinfosolutions/feed-sub001/internal/model"
	"github.com/oopsinfosolutions/feed-sub001/pkg/database"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withDB(func(db *gorm.DB) error {
					return database.Migrate(db, a.cfg.Database.Driver, a.logger, model.All()...)
				})
			},
		},
		&cobra.Command{
			Use:   "down [n]",
			Short: "Roll back n migrations (default 1)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n < 1 {
						return fmt.Errorf("n must be a positive integer, got %q", args[0])
					}
					steps = n
				}
				return a.withMigrator(func(m *migrate.Migrate) error {
					if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
						return fmt.Errorf("migrate down: %w", err)
					}
					a.logger.Info("rolled back", zap.Int("steps", steps))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withMigrator(func(m *migrate.Migrate) error {
					version, dirty, err := m.Version()
					if errors.Is(err, migrate.ErrNilVersion) {
						fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
						return nil
					}
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty=%t)\n", version, dirty)
					return nil
				})
			},
		},
	)

	return cmd
}

func (a *app) withDB(fn func(db *gorm.DB) error) error {
	db, err := database.NewDB(&a.cfg.Database, a.cfg.Log.Level, a.logger)
	if err != nil {
		return err
	}
	defer database.Close(db)
	return fn(db)
}

func (a *app) withMigrator(fn func(m *migrate.Migrate) error) error {
	return a.withDB(func(db *gorm.DB) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		m, err := database.NewMigrator(sqlDB, a.cfg.Database.Driver)
		if errors.Is(err, database.ErrNoMigrations) {
			return fmt.Errorf("%s schema is managed by migrate up only", a.cfg.Database.Driver)
		}
		if err != nil {
			return err
		}
		return fn(m)
	})
}
