package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// applySchema brings the database at dbPath to the single schema version.
// Running it against an up-to-date database is a no-op.
func applySchema(dbPath string) error {
	// Separate connection: the migrate driver closes the handle it is given.
	schemaDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open schema database: %w", err)
	}
	defer schemaDB.Close()

	driver, err := sqlite.WithInstance(schemaDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply schema: %w", err)
	}

	return nil
}
