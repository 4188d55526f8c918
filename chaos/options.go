package chaos

// Option configures a strategy at construction time.
type Option func(*settings) error

type settings struct {
	name    string
	enabled Func[bool]
	rate    Func[float64]
	before  Hook
	source  RandomSource
}

// Enabled switches a strategy on or off for every invocation.
func Enabled(on bool) Option {
	return func(s *settings) error {
		s.enabled = Const(on)
		return nil
	}
}

// EnabledWhen decides enablement per invocation. Use Await to supply a
// suspending predicate.
func EnabledWhen(fn Func[bool]) Option {
	return func(s *settings) error {
		s.enabled = fn
		return nil
	}
}

// InjectionRate sets a literal rate, validated immediately.
func InjectionRate(rate float64) Option {
	return func(s *settings) error {
		if err := ValidateRate(rate); err != nil {
			return err
		}
		s.rate = Const(rate)
		return nil
	}
}

// InjectionRateFunc computes the rate per invocation. The returned value is
// validated on every call.
func InjectionRateFunc(fn Func[float64]) Option {
	return func(s *settings) error {
		s.rate = fn
		return nil
	}
}

// BeforeInject registers a hook that runs only when injection is about to
// happen, strictly before the effect.
func BeforeInject(h Hook) Option {
	return func(s *settings) error {
		s.before = h
		return nil
	}
}

// WithRandomSource replaces the draw used by the gate.
func WithRandomSource(src RandomSource) Option {
	return func(s *settings) error {
		s.source = src
		return nil
	}
}

// WithName labels the strategy for logs and metrics.
func WithName(name string) Option {
	return func(s *settings) error {
		s.name = name
		return nil
	}
}
