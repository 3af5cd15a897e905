package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when a record does not exist or belongs to
	// another advisor.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a unique constraint (advisor email or
	// record ID) would be violated.
	ErrConflict = errors.New("record already exists")
)
