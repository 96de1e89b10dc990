package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPlayerNotFound aborts the enclosing unit; nothing is persisted.
	ErrPlayerNotFound = errors.New("player not found")

	// ErrMatchAlreadyProcessed signals that the matchId was seen before;
	// effects from the first submission stand.
	ErrMatchAlreadyProcessed = errors.New("match already processed")

	// ErrLockContention means a player row could not be acquired in time.
	// The unit was never applied; callers may retry with backoff.
	ErrLockContention = errors.New("player lock contention")
)

// ValidationError rejects malformed or self-contradictory match input
// before any state is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
