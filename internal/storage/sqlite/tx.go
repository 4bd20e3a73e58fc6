package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// withImmediateTx runs fn inside a BEGIN IMMEDIATE transaction on a dedicated
// connection. IMMEDIATE acquires the write lock up front, which serializes
// conditional updates against all other writers, including independent
// processes sharing the storage file. database/sql cannot express the
// transaction mode, so BEGIN/COMMIT run as raw statements on one connection.
func (s *Store) withImmediateTx(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", mapError(err))
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("failed to begin immediate transaction: %w", mapError(err))
	}

	// ROLLBACK uses context.Background() so cleanup happens even if ctx is canceled.
	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	if err := fn(conn); err != nil {
		return err
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapError(err))
	}
	committed = true
	return nil
}
