package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("already accepted by someone else")
	ErrForbidden     = errors.New("not allowed for this caller")
	ErrTerminalState = errors.New("request is already fulfilled or cancelled")
	ErrValidation    = errors.New("validation failed")
	ErrTimeout       = errors.New("operation timed out")

	// ErrInvalidTransition is an event the live request's current status does not allow.
	ErrInvalidTransition = errors.New("request is not in a state that allows this")
)

// Validationf wraps ErrValidation with a field level detail.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
