package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrConflict is the parent of every uniqueness violation at registration.
	ErrConflict = errors.New("conflict")
	// ErrDuplicateUsername is returned when the username is already registered.
	ErrDuplicateUsername = fmt.Errorf("%w: username already exists", ErrConflict)
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = fmt.Errorf("%w: email already exists", ErrConflict)
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	// Unknown usernames and wrong passwords both produce it.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound indicates the target user or feedback does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized indicates the session identity may not act on the target.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrStorageDisabled is returned by exports when no bucket is configured.
	ErrStorageDisabled = errors.New("export storage not configured")
)

// ValidationError lists field constraint violations, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func fieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}
