package entities

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrValidation marks input that fails a constructor or transition check.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition marks a status change not allowed from the current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrConfirmationExpired is returned when a requester confirms after the deadline.
	ErrConfirmationExpired = errors.New("confirmation window expired")
)

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func transitionf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransition, fmt.Sprintf(format, args...))
}

// NewID returns a random record identifier.
func NewID() string {
	return uuid.NewString()
}
