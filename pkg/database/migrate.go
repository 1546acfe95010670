package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed migrations/mysql/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// ErrNoMigrations sqlite has no versioned schema; it is built with AutoMigrate.
var ErrNoMigrations = errors.New("driver has no versioned migrations")

// NewMigrator builds a golang-migrate instance over an open connection,
// reading the SQL embedded for the driver's dialect.
func NewMigrator(db *sql.DB, driver string) (*migrate.Migrate, error) {
	sub, err := fs.Sub(migrationsFS, "migrations/"+driver)
	if err != nil {
		return nil, fmt.Errorf("locate %s migrations: %w", driver, err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}

	var m *migrate.Migrate
	switch driver {
	case "mysql":
		inst, err := migratemysql.WithInstance(db, &migratemysql.Config{})
		if err != nil {
			return nil, fmt.Errorf("mysql migrate driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", source, "mysql", inst)
		if err != nil {
			return nil, fmt.Errorf("init migrate: %w", err)
		}
	case "postgres":
		inst, err := migratepg.WithInstance(db, &migratepg.Config{})
		if err != nil {
			return nil, fmt.Errorf("postgres migrate driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", source, "postgres", inst)
		if err != nil {
			return nil, fmt.Errorf("init migrate: %w", err)
		}
	default:
		return nil, ErrNoMigrations
	}
	return m, nil
}

// Migrate brings the schema up to date. Versioned SQL for mysql/postgres,
// gorm AutoMigrate of the given models for sqlite.
func Migrate(db *gorm.DB, driver string, logger *zap.Logger, models ...interface{}) error {
	if driver == "sqlite" {
		if err := db.AutoMigrate(models...); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		logger.Info("sqlite schema synced", zap.Int("models", len(models)))
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	m, err := NewMigrator(sqlDB, driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}

	logVersion(m, logger)
	return nil
}

type versioner interface {
	Version() (version uint, dirty bool, err error)
}

func logVersion(m versioner, logger *zap.Logger) {
	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Info("no migrations applied")
	case err != nil:
		logger.Warn("read migration version failed", zap.Error(err))
	case dirty:
		logger.Warn("migrations left dirty", zap.Uint("version", version))
	default:
		logger.Info("migrations applied", zap.Uint("version", version))
	}
}
