package books

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when an operation targets a missing record.
	ErrNotFound = errors.New("not found")
	// ErrStorage wraps failures of the store. The books are unchanged.
	ErrStorage = errors.New("storage failure")
	// ErrCrypto is returned when a backup cannot be encrypted or decrypted,
	// most likely because of a wrong passphrase.
	ErrCrypto = errors.New("encryption failure")
)

// ValidationError is a rejected user input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func notFound(what, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, what, id)
}

func storageError(err error) error {
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
