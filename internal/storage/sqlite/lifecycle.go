package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/picket-dev/picket/internal/storage"
	"github.com/picket-dev/picket/internal/types"
)

// validTransitions is the status state machine. Terminal statuses have no
// outgoing edges; a same-status update is handled separately as a no-op.
var validTransitions = map[types.Status][]types.Status{
	types.StatusOutstanding: {types.StatusInProgress, types.StatusResolved, types.StatusFailed},
	types.StatusInProgress:  {types.StatusOutstanding, types.StatusResolved, types.StatusFailed},
	types.StatusResolved:    {},
	types.StatusFailed:      {},
}

func transitionAllowed(from, to types.Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// UpdateStatus moves an issue through the status state machine and records a
// status_change thread entry. Setting the current status again is an
// idempotent no-op with no thread entry. unlockIfResolved additionally
// releases the work lock when the new status is terminal.
func (s *Store) UpdateStatus(ctx context.Context, issueID string, newStatus types.Status, author string, unlockIfResolved bool) error {
	if !newStatus.IsValid() {
		return fmt.Errorf("%w: unknown status %q", storage.ErrInvalidStatus, newStatus)
	}
	now := time.Now().UTC()

	return s.withImmediateTx(ctx, func(conn *sql.Conn) error {
		var current types.Status
		err := conn.QueryRowContext(ctx,
			`SELECT status FROM issues WHERE issue_id = ?`, issueID).Scan(&current)
		if err == sql.ErrNoRows {
			return fmt.Errorf("issue %s: %w", issueID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to read status: %w", mapError(err))
		}

		if current == newStatus {
			// Accepted no-op so concurrent retries cannot corrupt state.
			return touchIssue(ctx, conn, issueID, now)
		}
		if !transitionAllowed(current, newStatus) {
			return fmt.Errorf("%w: cannot move %s from %s to %s",
				storage.ErrInvalidStatus, issueID, current, newStatus)
		}

		if unlockIfResolved && newStatus.IsTerminal() {
			_, err = conn.ExecContext(ctx, `
				UPDATE issues
				SET status = ?, work_status = ?, locked_by = '', updated_at = MAX(created_at, ?)
				WHERE issue_id = ?
			`, newStatus, types.WorkAvailable, now, issueID)
		} else {
			_, err = conn.ExecContext(ctx, `
				UPDATE issues
				SET status = ?, updated_at = MAX(created_at, ?)
				WHERE issue_id = ?
			`, newStatus, now, issueID)
		}
		if err != nil {
			return fmt.Errorf("failed to update status: %w", mapError(err))
		}

		return appendThreadEntry(ctx, conn, issueID, types.EntryStatusChange, author,
			fmt.Sprintf("status changed from %s to %s", current, newStatus), "", now)
	})
}
