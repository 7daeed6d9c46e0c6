package model

import (
	"errors"
	"fmt"
)

// Reservation error taxonomy. Transient storage conflicts never surface here:
// the reservation service retries them internally and reports ErrSystemBusy
// after the retry budget is spent.
var (
	// ErrSlotUnavailable means the slot was lost to a race or disabled.
	// The caller may re-search; the coordinator does not retry it.
	ErrSlotUnavailable = errors.New("slot is not available")

	// ErrSystemBusy is returned after the transient-conflict retry budget
	// is exhausted.
	ErrSystemBusy = errors.New("system busy, try again later")

	// ErrNotFound means a referenced mentor, slot or booking does not exist.
	ErrNotFound = errors.New("not found")
)

// ValidationError is malformed input or a mismatched slot/mentor pairing.
// Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NewValidationError создаёт ошибку валидации
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation проверяет является ли ошибка ошибкой валидации
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
