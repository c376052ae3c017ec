package postgres

import (
	"errors"
	"strings"
)

// Common store errors.
var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateKey is returned when attempting to create a resource with a
	// duplicate key.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrDuplicateRevision is returned when an (event, revision number) pair
	// already exists. The snapshotter retries with the next number.
	ErrDuplicateRevision = errors.New("duplicate revision number")
)

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	// PostgreSQL error code 23505 is unique_violation
	return strings.Contains(err.Error(), "23505") ||
		strings.Contains(err.Error(), "unique constraint") ||
		strings.Contains(err.Error(), "duplicate key")
}
