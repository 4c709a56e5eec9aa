package repository

import "errors"

// Storage-level errors. Implementations translate driver errors into these so
// callers never inspect driver types.
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrDuplicateEmail    = errors.New("duplicate email")
)
