// Package apperr defines the error kinds the API layer maps to HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks client input that failed validation (HTTP 400).
	ErrValidation = errors.New("validation failed")
	// ErrAuth marks a missing or invalid credential (HTTP 401).
	ErrAuth = errors.New("unauthorized")
	// ErrNotFound marks an entry that does not exist or belongs to another user (HTTP 404).
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a version mismatch or duplicate resource (HTTP 409).
	ErrConflict = errors.New("conflict")
	// ErrExternal marks a failed call to an external service such as the
	// sentiment classifier (HTTP 500, cause logged but not sent to clients).
	ErrExternal = errors.New("external service error")
	// ErrStorage marks a failed persistence read or write (HTTP 500, same policy).
	ErrStorage = errors.New("storage error")
)

// Validation returns a validation error carrying a client-safe message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// External wraps a failure from an outbound service call.
func External(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrExternal, op, err)
}

// Storage wraps a failed persistence operation.
func Storage(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}

// Message returns the part of err suitable for a client response: the text
// after the sentinel prefix for validation errors, or the sentinel text
// itself for everything else.
func Message(err error) string {
	for _, sentinel := range []error{ErrValidation, ErrAuth, ErrNotFound, ErrConflict} {
		if errors.Is(err, sentinel) {
			msg := err.Error()
			prefix := sentinel.Error() + ": "
			if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
				return msg[len(prefix):]
			}
			return sentinel.Error()
		}
	}
	return "internal error"
}
