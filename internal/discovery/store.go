// Package discovery implements the discovery engine (spec.md §4.3): given a
// project's runner config and an argument slice, it produces the set of
// test files the runner would execute, cached by (config path, argument
// signature, repository head commit).
package discovery

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver

	"github.com/arjunv/headlamp/internal/contract"
	"github.com/arjunv/headlamp/schema"
)

const discoveryTable = "discovery_cache"

// Store handles durable storage of discovery results, grounded on the
// teacher's internal/iocache.CacheStoreImpl backend-switch shape.
type Store struct {
	db         *sql.DB
	backend    schema.CacheBackend
	driverName string
	connStr    string
}

var _ contract.CacheStore = &Store{}

// NewStore opens (and migrates) the discovery cache store for the given
// backend. NoneBackend returns a working no-op store.
func NewStore(backend schema.CacheBackend, connStr string) (*Store, error) {
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return nil, err
	}

	var db *sql.DB
	var err error
	var driverName string

	switch backend {
	case schema.SQLiteBackend:
		driverName = "sqlite3"
		dbPath := connStr
		if dbPath == "" {
			dbPath = contract.DiscoveryCacheDBFilePath(".")
		}
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite discovery cache directory for %q: %w", dbPath, err)
		}
		db, err = sql.Open(driverName, dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite discovery cache at %q: %w", dbPath, err)
		}
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		driverName = "mysql"
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MySQL discovery cache: %w", err)
		}

	case schema.PostgreSQLBackend:
		driverName = "pgx"
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL discovery cache: %w", err)
		}

	case schema.NoneBackend, "":
		return &Store{backend: schema.NoneBackend}, nil

	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", backend)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s discovery cache: %w", backend, err)
	}

	if _, err := db.Exec(createTableQuery(backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create discovery cache table: %w", err)
	}

	return &Store{db: db, backend: backend, driverName: driverName, connStr: connStr}, nil
}

func createTableQuery(backend schema.CacheBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				cache_key VARCHAR(255) PRIMARY KEY,
				cache_value BLOB NOT NULL,
				cache_version INT NOT NULL,
				cache_timestamp BIGINT NOT NULL
			);
		`, discoveryTable)
	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				cache_key TEXT PRIMARY KEY,
				cache_value BYTEA NOT NULL,
				cache_version INTEGER NOT NULL,
				cache_timestamp BIGINT NOT NULL
			);
		`, discoveryTable)
	default:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				cache_key TEXT PRIMARY KEY,
				cache_value BLOB NOT NULL,
				cache_version INTEGER NOT NULL,
				cache_timestamp INTEGER NOT NULL
			);
		`, discoveryTable)
	}
}

func (s *Store) placeholder() string {
	if s.backend == schema.PostgreSQLBackend {
		return "$1"
	}
	return "?"
}

// Get retrieves a cached value by key.
func (s *Store) Get(key string) ([]byte, int, int64, error) {
	if s.backend == schema.NoneBackend || s.db == nil {
		return nil, 0, 0, sql.ErrNoRows
	}
	query := fmt.Sprintf(`SELECT cache_value, cache_version, cache_timestamp FROM %s WHERE cache_key = %s`, discoveryTable, s.placeholder())
	var value []byte
	var version int
	var ts int64
	if err := s.db.QueryRow(query, key).Scan(&value, &version, &ts); err != nil {
		return nil, 0, 0, err
	}
	return value, version, ts, nil
}

// Set inserts or replaces a cached key/value pair.
func (s *Store) Set(key string, value []byte, version int, timestamp int64) error {
	if s.backend == schema.NoneBackend || s.db == nil {
		return nil
	}
	_, err := s.db.Exec(s.upsertQuery(), key, value, version, timestamp)
	return err
}

func (s *Store) upsertQuery() string {
	switch s.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (cache_key, cache_value, cache_version, cache_timestamp) VALUES (?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE cache_value = new.cache_value, cache_version = new.cache_version, cache_timestamp = new.cache_timestamp`, discoveryTable)
	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (cache_key, cache_value, cache_version, cache_timestamp) VALUES ($1, $2, $3, $4)
			ON CONFLICT (cache_key) DO UPDATE SET cache_value = EXCLUDED.cache_value, cache_version = EXCLUDED.cache_version, cache_timestamp = EXCLUDED.cache_timestamp`, discoveryTable)
	default:
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (cache_key, cache_value, cache_version, cache_timestamp) VALUES (?, ?, ?, ?)`, discoveryTable)
	}
}

// Close closes the underlying connection, if any.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetStatus reports cache population stats, used by the `cache status`
// subcommand.
func (s *Store) GetStatus() (schema.CacheStatus, error) {
	status := schema.CacheStatus{Backend: string(s.backend), Connected: s.db != nil}
	if s.backend == schema.NoneBackend || s.db == nil {
		return status, nil
	}

	if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", discoveryTable)).Scan(&status.TotalEntries); err != nil {
		return status, fmt.Errorf("failed to count entries: %w", err)
	}
	if status.TotalEntries == 0 {
		return status, nil
	}

	var lastTs, oldestTs int64
	if err := s.db.QueryRow(fmt.Sprintf("SELECT MAX(cache_timestamp) FROM %s", discoveryTable)).Scan(&lastTs); err != nil {
		return status, fmt.Errorf("failed to get last entry time: %w", err)
	}
	status.LastEntryTime = time.Unix(lastTs, 0)
	if err := s.db.QueryRow(fmt.Sprintf("SELECT MIN(cache_timestamp) FROM %s", discoveryTable)).Scan(&oldestTs); err != nil {
		return status, fmt.Errorf("failed to get oldest entry time: %w", err)
	}
	status.OldestEntryTime = time.Unix(oldestTs, 0)

	switch s.backend {
	case schema.SQLiteBackend:
		row := s.db.QueryRow("SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
		if err := row.Scan(&status.TableSizeBytes); err != nil {
			status.TableSizeBytes = 0
		}
	case schema.MySQLBackend:
		status.TableSizeBytes = status.TotalEntries * 1000
		if cfg, err := mysql.ParseDSN(s.connStr); err == nil && cfg.DBName != "" {
			row := s.db.QueryRow("SELECT data_length + index_length FROM information_schema.tables WHERE table_schema = ? AND table_name = ?", cfg.DBName, discoveryTable)
			_ = row.Scan(&status.TableSizeBytes)
		}
	case schema.PostgreSQLBackend:
		row := s.db.QueryRow("SELECT pg_total_relation_size($1)", discoveryTable)
		if err := row.Scan(&status.TableSizeBytes); err != nil {
			status.TableSizeBytes = status.TotalEntries * 1000
		}
	}
	return status, nil
}
