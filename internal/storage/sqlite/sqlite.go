// Package sqlite implements the storage interface using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/picket-dev/picket/internal/storage"

	// Import SQLite driver
	_ "modernc.org/sqlite"
)

// Store implements the storage.Storage interface using SQLite
type Store struct {
	db     *sql.DB
	dbPath string
	closed atomic.Bool // Tracks whether Close() has been called
}

// DefaultIssuePrefix is used for generated issue IDs when a store has no
// issue_prefix config set.
const DefaultIssuePrefix = "pk"

// connString builds the SQLite connection string with the pragma set used
// for every store: WAL for concurrent readers, foreign keys on, a busy
// timeout so parallel writers wait instead of failing immediately, and
// automatic DATETIME parsing to time.Time.
func connString(path string) string {
	if path == ":memory:" {
		// Shared in-memory database so multiple connections see the same data.
		// WAL does not apply to memory databases.
		return "file::memory:?cache=shared&_pragma=foreign_keys(ON)&_pragma=busy_timeout(30000)&_time_format=sqlite"
	}
	connStr := path
	if strings.Contains(path, "?") {
		connStr += "&"
	} else {
		connStr += "?"
	}
	return connStr + "_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(30000)&_time_format=sqlite"
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", connString(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// In-memory databases are per-connection unless the pool is pinned to one.
	if strings.Contains(path, ":memory:") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, mapError(err)
	}
	return db, nil
}

// Init creates a fresh, empty, schema-valid store at path, overwriting any
// prior content (including a corrupt file). Re-initialization is tolerant:
// an existing store at the same path is simply replaced.
func Init(path string) (*Store, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", mapError(err))
		}
		// Remove the old file and WAL/SHM sidecars so a corrupt store
		// cannot leak into the fresh one.
		for _, p := range []string{path, path + "-wal", path + "-shm"} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to remove %s: %w", p, mapError(err))
			}
		}
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", mapError(err))
	}

	store, err := newStore(db, path)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	// Seed the default ID prefix so generated IDs are stable for this store.
	if err := store.SetConfig(context.Background(), "issue_prefix", DefaultIssuePrefix); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Open opens an existing store at path. A missing file fails with
// storage.ErrNotFound; a file that exists but is not a valid store of this
// schema fails with storage.ErrIntegrity. Corruption is surfaced here, at
// open time, never deferred to first write.
func Open(path string) (*Store, error) {
	if path == ":memory:" {
		// Memory stores are always fresh; route through Init.
		return Init(path)
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("database %s: %w", path, storage.ErrNotFound)
		}
		return nil, mapError(err)
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	if err := verifyStore(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database %s: %w", path, err)
	}

	return newStore(db, path)
}

func newStore(db *sql.DB, path string) (*Store, error) {
	absPath := path
	if path != ":memory:" {
		var err error
		absPath, err = filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
	}
	return &Store{db: db, dbPath: absPath}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	s.closed.Store(true)
	return s.db.Close()
}

// Path returns the absolute path to the database file
func (s *Store) Path() string {
	return s.dbPath
}

// IsClosed returns true if Close() has been called on this store
func (s *Store) IsClosed() bool {
	return s.closed.Load()
}

// UnderlyingDB returns the underlying *sql.DB connection.
// The schema enforces enum, required-field, and foreign-key constraints, so
// direct writers are held to the same rules as the storage methods.
// DO NOT call Close() on the returned handle; use Store.Close().
func (s *Store) UnderlyingDB() *sql.DB {
	return s.db
}

// UnderlyingConn returns a single connection from the pool for scoped use.
// The caller MUST close the connection when done.
func (s *Store) UnderlyingConn(ctx context.Context) (*sql.Conn, error) {
	return s.db.Conn(ctx)
}

// SetConfig sets a per-store configuration value
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// GetConfig gets a per-store configuration value; missing keys return ""
func (s *Store) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", mapError(err)
	}
	return value, nil
}
