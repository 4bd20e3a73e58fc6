package sqlite

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/picket-dev/picket/internal/storage"
)

// mapError translates driver and OS failures into the storage taxonomy so
// callers can branch with errors.Is without knowing the backend. The driver
// does not export typed errors for these conditions, so the mapping keys off
// the SQLite result-code text, same as the schema probe does for "no such
// table".
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) ||
		errors.Is(err, storage.ErrIntegrity) ||
		errors.Is(err, storage.ErrConstraint) ||
		errors.Is(err, storage.ErrAlreadyLocked) ||
		errors.Is(err, storage.ErrInvalidStatus) ||
		errors.Is(err, storage.ErrPermissionDenied) ||
		errors.Is(err, storage.ErrBusy) {
		return err
	}

	if os.IsPermission(err) {
		return fmt.Errorf("%w: %v", storage.ErrPermissionDenied, err)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked"):
		return fmt.Errorf("%w: %v", storage.ErrBusy, err)
	case strings.Contains(msg, "constraint failed") || strings.Contains(msg, "SQLITE_CONSTRAINT"):
		return fmt.Errorf("%w: %v", storage.ErrConstraint, err)
	case strings.Contains(msg, "SQLITE_READONLY") || strings.Contains(msg, "readonly database") ||
		strings.Contains(msg, "SQLITE_CANTOPEN") || strings.Contains(msg, "permission denied"):
		return fmt.Errorf("%w: %v", storage.ErrPermissionDenied, err)
	case strings.Contains(msg, "file is not a database") || strings.Contains(msg, "SQLITE_NOTADB") ||
		strings.Contains(msg, "database disk image is malformed") || strings.Contains(msg, "SQLITE_CORRUPT"):
		return fmt.Errorf("%w: %v", storage.ErrIntegrity, err)
	}
	return err
}
