package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/picket-dev/picket/internal/storage"
	"github.com/picket-dev/picket/internal/types"
)

// SubmitReport stores a structured attempt report as a thread entry and
// advances the issue according to the outcome, all in one transaction:
//
//   - SUCCESS: status becomes resolved. The work lock is left in place;
//     releasing it is an explicit follow-up.
//   - FAILURE: attempt_count increments, the lock is released, and the issue
//     returns to outstanding. If a max_attempts policy is configured and the
//     new count reaches it, the issue is marked failed instead.
func (s *Store) SubmitReport(ctx context.Context, issueID string, report *types.Report, agentName string) error {
	if err := report.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrConstraint, err)
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	now := time.Now().UTC()

	return s.withImmediateTx(ctx, func(conn *sql.Conn) error {
		var (
			current      types.Status
			attemptCount int
		)
		err := conn.QueryRowContext(ctx,
			`SELECT status, attempt_count FROM issues WHERE issue_id = ?`, issueID).
			Scan(&current, &attemptCount)
		if err == sql.ErrNoRows {
			return fmt.Errorf("issue %s: %w", issueID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to read issue: %w", mapError(err))
		}

		err = appendThreadEntry(ctx, conn, issueID, types.EntryReport, agentName,
			fmt.Sprintf("attempt %d reported %s", report.AttemptNumber, report.Outcome.Result),
			string(payload), now)
		if err != nil {
			return err
		}

		switch report.Outcome.Result {
		case types.OutcomeSuccess:
			if current == types.StatusResolved {
				// Report retry after resolution; nothing more to record.
				return touchIssue(ctx, conn, issueID, now)
			}
			_, err := conn.ExecContext(ctx, `
				UPDATE issues
				SET status = ?, updated_at = MAX(created_at, ?)
				WHERE issue_id = ?
			`, types.StatusResolved, now, issueID)
			if err != nil {
				return fmt.Errorf("failed to resolve issue: %w", mapError(err))
			}
			return appendThreadEntry(ctx, conn, issueID, types.EntryStatusChange, agentName,
				fmt.Sprintf("status changed from %s to %s", current, types.StatusResolved), "", now)

		case types.OutcomeFailure:
			maxAttempts, err := maxAttemptsPolicy(ctx, conn)
			if err != nil {
				return err
			}
			newCount := attemptCount + 1
			next := types.StatusOutstanding
			if maxAttempts > 0 && newCount >= maxAttempts {
				next = types.StatusFailed
			}
			_, err = conn.ExecContext(ctx, `
				UPDATE issues
				SET status = ?, work_status = ?, locked_by = '',
					attempt_count = ?, updated_at = MAX(created_at, ?)
				WHERE issue_id = ?
			`, next, types.WorkAvailable, newCount, now, issueID)
			if err != nil {
				return fmt.Errorf("failed to record failed attempt: %w", mapError(err))
			}
			if next == current {
				return nil
			}
			return appendThreadEntry(ctx, conn, issueID, types.EntryStatusChange, agentName,
				fmt.Sprintf("status changed from %s to %s", current, next), "", now)

		default:
			return fmt.Errorf("%w: unknown outcome %q", storage.ErrConstraint, report.Outcome.Result)
		}
	})
}

// maxAttemptsPolicy reads the per-store attempt ceiling. Zero or unset means
// unlimited attempts.
func maxAttemptsPolicy(ctx context.Context, conn *sql.Conn) (int, error) {
	raw, err := configValue(ctx, conn, "max_attempts")
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid max_attempts value %q", storage.ErrConstraint, raw)
	}
	return n, nil
}
