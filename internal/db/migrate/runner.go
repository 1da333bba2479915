// Package migrate applies the embedded schema migrations with golang-migrate.
package migrate

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"crm-campaigns/backend/internal/db"
)

// Direction is the migration direction accepted by Run.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

var errNoDSN = errors.New("DATABASE_URL is not set; create a .env or set DATABASE_URL")

// Run applies all migrations in direction. Being already at the target version is not an error.
func Run(dsn string, direction Direction) error {
	if direction != Up && direction != Down {
		return fmt.Errorf("direction must be up or down, got %q", direction)
	}
	m, err := open(dsn)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if direction == Up {
		err = m.Up()
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Version reports the applied schema version. A database with no migrations applied reports 0.
// dirty is true when a previous migration failed halfway and needs manual repair.
func Version(dsn string) (version uint, dirty bool, err error) {
	m, err := open(dsn)
	if err != nil {
		return 0, false, err
	}
	defer func() { _, _ = m.Close() }()

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func open(dsn string) (*migrate.Migrate, error) {
	if dsn == "" {
		return nil, errNoDSN
	}
	src, err := iofs.New(db.MigrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrate source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return m, nil
}
