// Package storage defines the interface for issue storage backends.
package storage

import (
	"context"
	"database/sql"

	"github.com/picket-dev/picket/internal/types"
)

// Storage defines the interface for issue storage backends
type Storage interface {
	// Issues
	CreateIssue(ctx context.Context, issue *types.Issue, actor string) error
	GetIssue(ctx context.Context, issueID string) (*types.Issue, error)
	ListIssues(ctx context.Context, filter types.IssueFilter) ([]*types.Issue, error)

	// Claim engine
	CheckoutIssue(ctx context.Context, issueID, agentName string) error
	ReleaseIssue(ctx context.Context, issueID, agentName string) error

	// Lifecycle
	UpdateStatus(ctx context.Context, issueID string, newStatus types.Status, author string, unlockIfResolved bool) error

	// Thread & reports
	AddComment(ctx context.Context, issueID, author, comment string) (*types.ThreadEntry, error)
	SubmitReport(ctx context.Context, issueID string, report *types.Report, agentName string) error
	GetThread(ctx context.Context, issueID string, limit int) ([]*types.ThreadEntry, error)

	// Statistics
	GetStatistics(ctx context.Context) (*types.Statistics, error)

	// Config (per-store settings like issue_prefix, max_attempts)
	SetConfig(ctx context.Context, key, value string) error
	GetConfig(ctx context.Context, key string) (string, error)

	// Lifecycle
	Close() error

	// Database path (for serve-mode validation)
	Path() string

	// UnderlyingDB returns the underlying *sql.DB connection.
	// Provided for extensions that need to create their own tables in the
	// same database. Constraint enforcement lives in the schema, so direct
	// writers are bound by the same enums and foreign keys.
	// WARNING: Direct database access bypasses the storage layer. Use with caution.
	UnderlyingDB() *sql.DB

	// UnderlyingConn returns a single connection from the pool for scoped use.
	// The caller MUST close the connection when done to return it to the pool.
	UnderlyingConn(ctx context.Context) (*sql.Conn, error)
}
