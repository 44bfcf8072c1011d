package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrInvalidKey is returned when a key is empty.
	ErrInvalidKey = errors.New("persistence: invalid key")
	// ErrLocked is returned when the backing database stayed busy after retries.
	ErrLocked = errors.New("persistence: database locked")
)
