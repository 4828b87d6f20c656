package discovery

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/arjunv/headlamp/internal/contract"
	"github.com/arjunv/headlamp/schema"
)

// Manager owns the process-lifetime discovery store, mirroring the
// teacher's global cache-manager-with-sync.Once idiom.
type Manager struct {
	mu    sync.Mutex
	store *Store
}

var (
	global   = &Manager{}
	initOnce sync.Once
)

var _ contract.CacheManager = &Manager{}

// GetDiscoveryStore returns the process-wide discovery store.
func (m *Manager) GetDiscoveryStore() contract.CacheStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store
}

// Init opens the global discovery store exactly once per process.
func Init(backend schema.CacheBackend, connStr string) error {
	var initErr error
	initOnce.Do(func() {
		store, err := NewStore(backend, connStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize discovery cache: %w", err)
			return
		}
		global.mu.Lock()
		global.store = store
		global.mu.Unlock()
	})
	return initErr
}

// Global returns the process-wide manager.
func Global() *Manager { return global }

// Close releases the global discovery store's resources.
func Close() {
	global.mu.Lock()
	defer global.mu.Unlock()
	if global.store != nil {
		_ = global.store.Close()
		global.store = nil
	}
}

// Clear drops the discovery cache for the given backend, per spec.md §9
// `cache clear`: removes the SQLite file, or drops the table for SQL backends.
func Clear(backend schema.CacheBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite discovery cache file %s: %w", dbFilePath, err)
		}
		return nil
	case schema.MySQLBackend, schema.PostgreSQLBackend:
		return clearSQLTable(backend, connStr)
	case schema.NoneBackend, "":
		return nil
	default:
		return fmt.Errorf("unsupported cache backend for clearing: %s", backend)
	}
}

func clearSQLTable(backend schema.CacheBackend, connStr string) error {
	store, err := NewStore(backend, connStr)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	if store.db == nil {
		return nil
	}
	_, err = store.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", discoveryTable))
	return err
}

// CacheKey computes the discovery cache key per spec.md §3:
// hash(config_absolute_path ∥ normalized_argument_list ∥ repo_head_commit).
func CacheKey(configPath string, args []string, repoHeadCommit string) string {
	h := sha256.New()
	h.Write([]byte(configPath))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(args, "\x1f")))
	h.Write([]byte{0})
	h.Write([]byte(repoHeadCommit))
	return hex.EncodeToString(h.Sum(nil))
}
