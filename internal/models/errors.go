package models

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
	// ErrDanglingReference indicates a foreign id with no corresponding record.
	ErrDanglingReference = errors.New("dangling reference")
)
