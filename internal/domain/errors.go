package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
	ErrConflict = errors.New("conflict")
)

// NotFoundError reports a fixture lookup by an id that is not in the collection.
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Kind)
}

func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Invalidf builds an ErrInvalid-wrapping error with a user-facing message.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
