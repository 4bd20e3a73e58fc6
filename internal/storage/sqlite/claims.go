package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/picket-dev/picket/internal/storage"
	"github.com/picket-dev/picket/internal/types"
)

// CheckoutIssue atomically claims an issue for an agent. The claim is a
// single conditional update predicated on work_status = 'available', so of
// any number of concurrent attempts on one issue, whether goroutines or
// separate processes, at most one observes success; the rest fail with
// storage.ErrAlreadyLocked. The lock is never partially applied.
func (s *Store) CheckoutIssue(ctx context.Context, issueID, agentName string) error {
	if agentName == "" {
		return fmt.Errorf("%w: agent name is required", storage.ErrConstraint)
	}
	now := time.Now().UTC()

	return s.withImmediateTx(ctx, func(conn *sql.Conn) error {
		result, err := conn.ExecContext(ctx, `
			UPDATE issues
			SET work_status = ?, locked_by = ?, updated_at = MAX(created_at, ?)
			WHERE issue_id = ? AND work_status = ?
		`, types.WorkLocked, agentName, now, issueID, types.WorkAvailable)
		if err != nil {
			return fmt.Errorf("failed to checkout issue: %w", mapError(err))
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}
		if affected == 0 {
			// Lost the claim or the issue never existed; the IMMEDIATE
			// transaction keeps this read consistent with the update above.
			var holder string
			err := conn.QueryRowContext(ctx,
				`SELECT locked_by FROM issues WHERE issue_id = ?`, issueID).Scan(&holder)
			if err == sql.ErrNoRows {
				return fmt.Errorf("issue %s: %w", issueID, storage.ErrNotFound)
			}
			if err != nil {
				return fmt.Errorf("failed to inspect lock holder: %w", mapError(err))
			}
			return fmt.Errorf("issue %s held by %s: %w", issueID, holder, storage.ErrAlreadyLocked)
		}

		return appendThreadEntry(ctx, conn, issueID, types.EntryCheckout, agentName,
			fmt.Sprintf("checked out by %s", agentName), "", now)
	})
}

// ReleaseIssue returns an issue to the available pool, clearing the holder.
// Used on both successful resolution and abandoned attempts. Releasing an
// already-available issue is a no-op refresh of updated_at.
func (s *Store) ReleaseIssue(ctx context.Context, issueID, agentName string) error {
	now := time.Now().UTC()

	return s.withImmediateTx(ctx, func(conn *sql.Conn) error {
		if err := requireIssue(ctx, conn, issueID); err != nil {
			return err
		}

		result, err := conn.ExecContext(ctx, `
			UPDATE issues
			SET work_status = ?, locked_by = '', updated_at = MAX(created_at, ?)
			WHERE issue_id = ? AND work_status = ?
		`, types.WorkAvailable, now, issueID, types.WorkLocked)
		if err != nil {
			return fmt.Errorf("failed to release issue: %w", mapError(err))
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}
		if affected == 0 {
			// Already available; refresh the timestamp only.
			return touchIssue(ctx, conn, issueID, now)
		}

		return appendThreadEntry(ctx, conn, issueID, types.EntryRelease, agentName,
			fmt.Sprintf("released by %s", agentName), "", now)
	})
}
