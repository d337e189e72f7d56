package db

import (
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var fs embed.FS

func newMigrate(dbPath string) (*migrate.Migrate, error) {
	// Create a new source instance using the embedded migrations
	d, err := iofs.New(fs, "migrations")
	if err != nil {
		return nil, err
	}

	return migrate.NewWithSourceInstance("iofs", d, "sqlite://"+dbPath)
}

// Migrate runs the SQLite database migrations using golang-migrate.
// Migrations are additive only; existing rows are never touched.
func Migrate(dbPath string) error {
	log.WithField("database", dbPath).Info("Running migrations")

	m, err := newMigrate(dbPath)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

// Rollback reverts the most recent migration.
func Rollback(dbPath string) error {
	log.WithField("database", dbPath).Info("Rolling back last migration")

	m, err := newMigrate(dbPath)
	if err != nil {
		return err
	}

	if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}
