package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/picket-dev/picket/internal/storage"
	"github.com/picket-dev/picket/internal/types"
)

// appendThreadEntry inserts one audit record. Entries are append-only:
// nothing in this package ever updates or deletes an issue_thread row.
func appendThreadEntry(ctx context.Context, conn *sql.Conn, issueID string, entryType types.EntryType, author, body, payload string, at time.Time) error {
	_, err := conn.ExecContext(ctx, `
		INSERT INTO issue_thread (issue_id, entry_type, author, body, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, issueID, entryType, author, body, payload, at)
	if err != nil {
		return fmt.Errorf("failed to append thread entry: %w", mapError(err))
	}
	return nil
}

// AddComment appends a comment thread entry and refreshes the issue's
// updated_at in the same transaction.
func (s *Store) AddComment(ctx context.Context, issueID, author, comment string) (*types.ThreadEntry, error) {
	now := time.Now().UTC()
	entry := &types.ThreadEntry{
		IssueID:   issueID,
		EntryType: types.EntryComment,
		Author:    author,
		Body:      comment,
		CreatedAt: now,
	}

	err := s.withImmediateTx(ctx, func(conn *sql.Conn) error {
		if err := requireIssue(ctx, conn, issueID); err != nil {
			return err
		}

		result, err := conn.ExecContext(ctx, `
			INSERT INTO issue_thread (issue_id, entry_type, author, body, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, issueID, types.EntryComment, author, comment, now)
		if err != nil {
			return fmt.Errorf("failed to add comment: %w", mapError(err))
		}
		entry.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get comment ID: %w", err)
		}

		return touchIssue(ctx, conn, issueID, now)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetThread returns the audit trail for an issue in creation order
func (s *Store) GetThread(ctx context.Context, issueID string, limit int) ([]*types.ThreadEntry, error) {
	args := []interface{}{issueID}
	limitSQL := ""
	if limit > 0 {
		limitSQL = " LIMIT ?"
		args = append(args, limit)
	}

	query := `
		SELECT id, issue_id, entry_type, author, body, payload, created_at
		FROM issue_thread
		WHERE issue_id = ?
		ORDER BY created_at ASC, id ASC
	` + limitSQL

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", mapError(err))
	}
	defer func() { _ = rows.Close() }()

	var entries []*types.ThreadEntry
	for rows.Next() {
		var entry types.ThreadEntry
		err := rows.Scan(
			&entry.ID, &entry.IssueID, &entry.EntryType, &entry.Author,
			&entry.Body, &entry.Payload, &entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thread entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating thread: %w", mapError(err))
	}
	return entries, nil
}

// requireIssue fails with storage.ErrNotFound if the issue does not exist
func requireIssue(ctx context.Context, conn *sql.Conn, issueID string) error {
	var exists bool
	err := conn.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM issues WHERE issue_id = ?)`, issueID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check issue existence: %w", mapError(err))
	}
	if !exists {
		return fmt.Errorf("issue %s: %w", issueID, storage.ErrNotFound)
	}
	return nil
}

// touchIssue bumps updated_at, keeping created_at <= updated_at
func touchIssue(ctx context.Context, conn *sql.Conn, issueID string, now time.Time) error {
	_, err := conn.ExecContext(ctx, `
		UPDATE issues SET updated_at = MAX(created_at, ?) WHERE issue_id = ?
	`, now, issueID)
	if err != nil {
		return fmt.Errorf("failed to update timestamp: %w", mapError(err))
	}
	return nil
}
