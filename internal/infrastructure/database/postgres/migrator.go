package postgres

import (
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/ipfolio/ipfolio/internal/config"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/logging"
	"github.com/ipfolio/ipfolio/pkg/errors"
)

// Migrator applies versioned SQL migrations from the configured directory.
type Migrator struct {
	dsn    string
	path   string
	logger logging.Logger
}

// NewMigrator builds a migrator for the configured database and migration
// directory.
func NewMigrator(cfg config.DatabaseConfig, logger logging.Logger) *Migrator {
	return &Migrator{dsn: DSN(cfg), path: cfg.MigrationPath, logger: logger}
}

// Up applies every pending migration. A database already at the latest
// version is not an error.
func (m *Migrator) Up() error {
	mg, err := migrate.New("file://"+m.path, m.dsn)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "opening migration source")
	}
	defer mg.Close()

	if err := mg.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "applying migrations")
	}

	version, dirty, err := mg.Version()
	if err != nil && err != migrate.ErrNilVersion {
		m.logger.Warn("reading migration version failed", logging.Err(err))
		return nil
	}
	m.logger.Info("migrations applied",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty),
	)
	return nil
}

// Down rolls back the most recent migration.
func (m *Migrator) Down() error {
	mg, err := migrate.New("file://"+m.path, m.dsn)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "opening migration source")
	}
	defer mg.Close()

	if err := mg.Steps(-1); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "rolling back migration")
	}
	m.logger.Info("rolled back one migration")
	return nil
}
