package chaos

import "math"

// ValidateRate checks that an injection rate lies within [0, 1]. It is used
// for literal rates when a strategy is configured and for provider rates on
// every invocation.
func ValidateRate(rate float64) error {
	switch {
	case math.IsNaN(rate):
		return &OutOfRangeError{Reason: ReasonNotANumber, Rate: rate}
	case rate < 0:
		return &OutOfRangeError{Reason: ReasonNegative, Rate: rate}
	case rate > 1:
		return &OutOfRangeError{Reason: ReasonTooLarge, Rate: rate}
	}
	return nil
}
