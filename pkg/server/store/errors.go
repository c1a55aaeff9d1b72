package store

import "errors"

var (
	// ErrNotFound is returned when a requested row doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a uniqueness constraint
	ErrConflict = errors.New("conflicts with an existing row")

	// ErrInvalidReference is returned when a write references a missing row
	ErrInvalidReference = errors.New("references a row that does not exist")

	// ErrInvalidInput is returned when the database rejects a value
	ErrInvalidInput = errors.New("invalid input")
)
