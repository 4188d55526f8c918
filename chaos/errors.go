package chaos

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange matches any *OutOfRangeError.
	ErrOutOfRange = errors.New("chaos: injection rate out of range")

	// ErrCancelled matches any *CancelledError.
	ErrCancelled = errors.New("chaos: cancelled")

	// ErrConfiguration matches any *ConfigurationError.
	ErrConfiguration = errors.New("chaos: invalid configuration")
)

// Reasons reported by OutOfRangeError.
const (
	ReasonNegative   = "negative"
	ReasonTooLarge   = "too-large"
	ReasonNotANumber = "not-a-number"
)

// OutOfRangeError reports an injection rate outside [0, 1].
type OutOfRangeError struct {
	Reason string
	Rate   float64
}

func (e *OutOfRangeError) Error() string {
	switch e.Reason {
	case ReasonNegative:
		return fmt.Sprintf("chaos: injection rate %g must be between 0 and 1; never a negative number", e.Rate)
	case ReasonTooLarge:
		return fmt.Sprintf("chaos: injection rate %g must be between 0 and 1; never a number greater than 1", e.Rate)
	default:
		return fmt.Sprintf("chaos: injection rate %g must be between 0 and 1", e.Rate)
	}
}

func (e *OutOfRangeError) Is(target error) bool { return target == ErrOutOfRange }

// CancelledError reports a cancellation observed at a checkpoint. Cause is
// the context error (context.Canceled or context.DeadlineExceeded).
type CancelledError struct {
	Cause error
}

func (e *CancelledError) Error() string {
	if e.Cause == nil {
		return ErrCancelled.Error()
	}
	return "chaos: cancelled: " + e.Cause.Error()
}

func (e *CancelledError) Is(target error) bool { return target == ErrCancelled }

func (e *CancelledError) Unwrap() error { return e.Cause }

// ConfigurationError is returned by strategy constructors when a required
// delegate is missing. It is never returned during invocation.
type ConfigurationError struct {
	Strategy Kind
	Field    string
	Err      error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("chaos: %s strategy: %s", e.Strategy, e.Field)
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg + " is required"
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

func (e *ConfigurationError) Unwrap() error { return e.Err }
