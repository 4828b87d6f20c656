package discovery

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/arjunv/headlamp/schema"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate runs schema migrations for the discovery cache's SQL backends,
// used by the `cache migrate` maintenance subcommand to bring a shared
// MySQL/PostgreSQL discovery cache up to the current schema version without
// requiring every client to race on an implicit CREATE TABLE IF NOT EXISTS.
// If targetVersion < 0, migrates to the latest version.
func Migrate(backend schema.CacheBackend, connStr string, targetVersion int) error {
	if backend == schema.NoneBackend || backend == schema.SQLiteBackend {
		return fmt.Errorf("migrations are only needed for shared SQL backends (mysql, postgresql)")
	}

	var db *sql.DB
	var err error
	var driverName string

	switch backend {
	case schema.MySQLBackend:
		driverName = "mysql"
	case schema.PostgreSQLBackend:
		driverName = "pgx"
	default:
		return fmt.Errorf("unsupported backend: %s", backend)
	}

	db, err = sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to open %s database: %w", backend, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", backend, err)
	}

	var driver database.Driver
	switch backend {
	case schema.MySQLBackend:
		driver, err = mysql.WithInstance(db, &mysql.Config{})
	case schema.PostgreSQLBackend:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	}
	if err != nil {
		return fmt.Errorf("failed to create %s migrate driver: %w", backend, err)
	}

	migrationFS, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to access migrations directory: %w", err)
	}
	sourceDriver, err := iofs.New(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "headlamp_discovery", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if targetVersion < 0 {
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			return fmt.Errorf("failed to migrate discovery cache to latest: %w", err)
		}
		return nil
	}
	if err := m.Migrate(uint(targetVersion)); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to migrate discovery cache to version %d: %w", targetVersion, err)
	}
	return nil
}
