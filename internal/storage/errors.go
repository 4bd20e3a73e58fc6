package storage

import "errors"

// Error taxonomy shared by all backends. Callers branch with errors.Is;
// backends wrap these with operation detail.
var (
	// ErrNotFound is returned for a missing store path or missing issue id
	ErrNotFound = errors.New("not found")

	// ErrIntegrity is returned when the store file exists but fails the
	// validity check at open time. Never repaired silently; the caller
	// decides whether to re-initialize.
	ErrIntegrity = errors.New("integrity check failed")

	// ErrConstraint is returned for enum, required-field, or foreign-key
	// violations on write
	ErrConstraint = errors.New("constraint violation")

	// ErrAlreadyLocked is returned when a checkout loses to a concurrent holder
	ErrAlreadyLocked = errors.New("issue already locked")

	// ErrInvalidStatus is returned for an unrecognized status transition target
	ErrInvalidStatus = errors.New("invalid status")

	// ErrPermissionDenied is returned when the store file is not writable
	ErrPermissionDenied = errors.New("permission denied")

	// ErrBusy is a transient contention failure on the storage file.
	// The engine fails fast; callers may retry with backoff.
	ErrBusy = errors.New("database busy")
)
