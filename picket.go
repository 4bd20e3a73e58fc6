// Package picket provides a minimal public API for driving the picket issue
// tracker from Go orchestration code.
//
// Most agent harnesses should shell out to the pk CLI; this package exports
// the essential types and functions for harnesses that want to use picket's
// storage layer programmatically.
package picket

import (
	"os"
	"path/filepath"

	"github.com/picket-dev/picket/internal/storage"
	"github.com/picket-dev/picket/internal/storage/sqlite"
	"github.com/picket-dev/picket/internal/types"
)

// Core types for working with issues
type (
	Issue       = types.Issue
	Priority    = types.Priority
	Status      = types.Status
	WorkStatus  = types.WorkStatus
	ThreadEntry = types.ThreadEntry
	Report      = types.Report
	Statistics  = types.Statistics
	IssueFilter = types.IssueFilter
)

// Status constants
const (
	StatusOutstanding = types.StatusOutstanding
	StatusInProgress  = types.StatusInProgress
	StatusResolved    = types.StatusResolved
	StatusFailed      = types.StatusFailed
)

// Priority constants
const (
	PriorityCritical = types.PriorityCritical
	PriorityHigh     = types.PriorityHigh
	PriorityMedium   = types.PriorityMedium
)

// Work status constants
const (
	WorkAvailable = types.WorkAvailable
	WorkLocked    = types.WorkLocked
)

// Storage provides the claim-and-lifecycle interface for orchestration
type Storage = storage.Storage

// NewSQLiteStorage opens an existing picket store for programmatic access.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	return sqlite.Open(dbPath)
}

// InitSQLiteStorage creates a fresh picket store, replacing any existing
// file at dbPath.
func InitSQLiteStorage(dbPath string) (Storage, error) {
	return sqlite.Init(dbPath)
}

// FindDatabasePath discovers the picket store path using pk's standard
// search order:
//  1. $PICKET_DB environment variable
//  2. .picket/*.db in current directory or ancestors
//  3. ~/.picket/default.db (fallback)
//
// Returns empty string if nothing is found.
func FindDatabasePath() string {
	if envDB := os.Getenv("PICKET_DB"); envDB != "" {
		return envDB
	}

	if foundDB := findDatabaseInTree(); foundDB != "" {
		return foundDB
	}

	if home, err := os.UserHomeDir(); err == nil {
		defaultDB := filepath.Join(home, ".picket", "default.db")
		if _, err := os.Stat(defaultDB); err == nil {
			return defaultDB
		}
	}

	return ""
}

// findDatabaseInTree walks up the directory tree looking for .picket/*.db
func findDatabaseInTree() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		picketDir := filepath.Join(dir, ".picket")
		if info, err := os.Stat(picketDir); err == nil && info.IsDir() {
			matches, err := filepath.Glob(filepath.Join(picketDir, "*.db"))
			if err == nil && len(matches) > 0 {
				return matches[0]
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
