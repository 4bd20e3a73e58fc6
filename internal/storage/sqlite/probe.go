// Package sqlite - store validity probing at open time
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/picket-dev/picket/internal/storage"
)

// expectedSchema defines the tables and required columns a valid store must
// carry. Used to reject files that are valid SQLite but not picket stores.
var expectedSchema = map[string][]string{
	"issues": {
		"issue_id", "title", "description", "priority", "status",
		"work_status", "locked_by", "project", "issue_type", "location",
		"root_cause", "required_fix", "attempt_count", "created_at", "updated_at",
	},
	"issue_thread": {"id", "issue_id", "entry_type", "author", "body", "payload", "created_at"},
	"config":       {"key", "value"},
}

// probeResult contains the results of a schema compatibility check
type probeResult struct {
	compatible     bool
	missingTables  []string
	missingColumns map[string][]string // table -> missing columns
}

func (r probeResult) message() string {
	var parts []string
	if len(r.missingTables) > 0 {
		parts = append(parts, fmt.Sprintf("missing tables: %s", strings.Join(r.missingTables, ", ")))
	}
	for table, cols := range r.missingColumns {
		parts = append(parts, fmt.Sprintf("missing columns in %s: %s", table, strings.Join(cols, ", ")))
	}
	return strings.Join(parts, "; ")
}

// probeSchema verifies all expected tables and columns exist
func probeSchema(db *sql.DB) probeResult {
	result := probeResult{
		compatible:     true,
		missingColumns: make(map[string][]string),
	}

	for table, expectedCols := range expectedSchema {
		query := fmt.Sprintf("SELECT %s FROM %s LIMIT 0", strings.Join(expectedCols, ", "), table)
		_, err := db.Exec(query)
		if err == nil {
			continue
		}

		errMsg := err.Error()
		if strings.Contains(errMsg, "no such table") {
			result.compatible = false
			result.missingTables = append(result.missingTables, table)
			continue
		}
		if strings.Contains(errMsg, "no such column") {
			result.compatible = false
			if missing := findMissingColumns(db, table, expectedCols); len(missing) > 0 {
				result.missingColumns[table] = missing
			}
		}
	}

	return result
}

// findMissingColumns determines which columns are missing from a table
func findMissingColumns(db *sql.DB, table string, expectedCols []string) []string {
	var missing []string
	for _, col := range expectedCols {
		query := fmt.Sprintf("SELECT %s FROM %s LIMIT 0", col, table)
		if _, err := db.Exec(query); err != nil && strings.Contains(err.Error(), "no such column") {
			missing = append(missing, col)
		}
	}
	return missing
}

// verifyStore gates Open: a quick integrity check catches truncated or
// overwritten files, then the schema probe catches valid SQLite files that
// are not picket stores. Either failure surfaces as storage.ErrIntegrity.
func verifyStore(db *sql.DB) error {
	var result string
	if err := db.QueryRow("PRAGMA integrity_check(1)").Scan(&result); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrIntegrity, err)
	}
	if result != "ok" {
		return fmt.Errorf("%w: %s", storage.ErrIntegrity, result)
	}

	if probe := probeSchema(db); !probe.compatible {
		return fmt.Errorf("%w: %s", storage.ErrIntegrity, probe.message())
	}
	return nil
}
