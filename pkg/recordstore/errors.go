package recordstore

import "errors"

var (
	// ErrNotFound is returned when the referenced record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned by conditional updates whose guard predicate
	// no longer holds (the record changed since it was read)
	ErrConflict = errors.New("record version conflict")

	// ErrUnavailable is returned when the external store cannot be reached
	// or answers with a transport-level failure
	ErrUnavailable = errors.New("record store unavailable")
)
