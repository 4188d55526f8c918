package chaos

import "context"

// Gate decides whether a single invocation is disrupted.
type Gate struct {
	source RandomSource
}

// NewGate returns a gate drawing from source, or from DefaultSource when
// source is nil.
func NewGate(source RandomSource) *Gate {
	if source == nil {
		source = DefaultSource()
	}
	return &Gate{source: source}
}

// ShouldInject runs the three-stage decision: enabled, then rate, then a
// uniform draw. Cancellation is polled before enabled and after each
// delegate returns. rate is never evaluated when enabled reports false.
func (g *Gate) ShouldInject(ctx context.Context, vals Values, enabled Func[bool], rate Func[float64]) (bool, error) {
	if err := checkpoint(ctx); err != nil {
		return false, err
	}

	on, err := enabled(ctx, vals)
	if err != nil {
		return false, err
	}
	if !on {
		return false, nil
	}

	if err := checkpoint(ctx); err != nil {
		return false, err
	}

	threshold, err := rate(ctx, vals)
	if err != nil {
		return false, err
	}

	if err := checkpoint(ctx); err != nil {
		return false, err
	}

	if err := ValidateRate(threshold); err != nil {
		return false, err
	}
	return g.source.Float64() < threshold, nil
}
