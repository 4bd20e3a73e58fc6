package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/picket-dev/picket/internal/storage"
	"github.com/picket-dev/picket/internal/types"
)

const issueColumns = `issue_id, title, description, priority, status, work_status, locked_by,
	project, issue_type, location, root_cause, required_fix, attempt_count, created_at, updated_at`

// CreateIssue creates a new issue and records a creation thread entry in the
// same transaction. The new row starts outstanding/available.
func (s *Store) CreateIssue(ctx context.Context, issue *types.Issue, actor string) error {
	if issue.Status == "" {
		issue.Status = types.StatusOutstanding
	}
	if issue.WorkStatus == "" {
		issue.WorkStatus = types.WorkAvailable
	}
	if err := issue.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrConstraint, err)
	}

	now := time.Now().UTC()
	issue.CreatedAt = now
	issue.UpdatedAt = now

	return s.withImmediateTx(ctx, func(conn *sql.Conn) error {
		if issue.IssueID == "" {
			prefix, err := configValue(ctx, conn, "issue_prefix")
			if err != nil {
				return err
			}
			issue.IssueID = generateIssueID(prefix)
		}

		_, err := conn.ExecContext(ctx, `
			INSERT INTO issues (
				issue_id, title, description, priority, status, work_status, locked_by,
				project, issue_type, location, root_cause, required_fix,
				attempt_count, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			issue.IssueID, issue.Title, issue.Description, issue.Priority,
			issue.Status, issue.WorkStatus, issue.LockedBy,
			issue.Project, issue.IssueType, issue.Location, issue.RootCause,
			issue.RequiredFix, issue.AttemptCount, issue.CreatedAt, issue.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert issue: %w", mapError(err))
		}

		return appendThreadEntry(ctx, conn, issue.IssueID, types.EntryCreated, actor,
			fmt.Sprintf("created with priority %s", issue.Priority), "", now)
	})
}

// GetIssue retrieves an issue by ID; a missing issue fails with storage.ErrNotFound
func (s *Store) GetIssue(ctx context.Context, issueID string) (*types.Issue, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+issueColumns+`
		FROM issues
		WHERE issue_id = ?
	`, issueID)

	issue, err := scanIssue(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("issue %s: %w", issueID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get issue: %w", mapError(err))
	}
	return issue, nil
}

// ListIssues returns issues matching the filter, critical first, oldest
// first within a priority band. Reads reflect all committed writes.
func (s *Store) ListIssues(ctx context.Context, filter types.IssueFilter) ([]*types.Issue, error) {
	var whereClauses []string
	var args []interface{}

	if filter.Status != nil {
		whereClauses = append(whereClauses, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Priority != nil {
		whereClauses = append(whereClauses, "priority = ?")
		args = append(args, *filter.Priority)
	}
	if filter.Project != nil {
		whereClauses = append(whereClauses, "project = ?")
		args = append(args, *filter.Project)
	}
	if filter.WorkStatus != nil {
		whereClauses = append(whereClauses, "work_status = ?")
		args = append(args, *filter.WorkStatus)
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	limitSQL := ""
	if filter.Limit > 0 {
		limitSQL = " LIMIT ?"
		args = append(args, filter.Limit)
	}

	// #nosec G201 - clauses are assembled from fixed column predicates
	query := fmt.Sprintf(`
		SELECT `+issueColumns+`
		FROM issues
		%s
		ORDER BY CASE priority
			WHEN 'critical' THEN 0
			WHEN 'high' THEN 1
			ELSE 2
		END, created_at ASC
		%s
	`, whereSQL, limitSQL)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", mapError(err))
	}
	defer func() { _ = rows.Close() }()

	var issues []*types.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating issues: %w", mapError(err))
	}
	return issues, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanIssue(row rowScanner) (*types.Issue, error) {
	var issue types.Issue
	err := row.Scan(
		&issue.IssueID, &issue.Title, &issue.Description, &issue.Priority,
		&issue.Status, &issue.WorkStatus, &issue.LockedBy,
		&issue.Project, &issue.IssueType, &issue.Location, &issue.RootCause,
		&issue.RequiredFix, &issue.AttemptCount, &issue.CreatedAt, &issue.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

// configValue reads a config key on the transaction's connection so ID
// generation sees a consistent prefix.
func configValue(ctx context.Context, conn *sql.Conn, key string) (string, error) {
	var value string
	err := conn.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read config %s: %w", key, mapError(err))
	}
	return value, nil
}
