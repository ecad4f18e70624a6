// Package repository holds the storage error vocabulary shared by every
// persistence implementation. Domain services match these sentinels with
// errors.Is and translate them into their own error taxonomy.
package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a serialized read-modify-write loses to a
	// concurrent writer
	ErrConflict = errors.New("conflict: entity was modified concurrently")

	// ErrForeignKeyViolation is returned when a foreign key constraint fails
	ErrForeignKeyViolation = errors.New("foreign key violation")

	// ErrLimitExceeded is returned when a counted update would pass its limit
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)
