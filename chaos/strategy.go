package chaos

import (
	"context"
	"time"
)

// Kind names a strategy's effect.
type Kind string

const (
	KindBehavior Kind = "behavior"
	KindFault    Kind = "fault"
	KindResult   Kind = "result"
	KindLatency  Kind = "latency"
)

// Strategy wraps a callable with a gate and exactly one effect. It is
// immutable once built and safe for concurrent use.
type Strategy[T any] struct {
	name    string
	gate    *Gate
	enabled Func[bool]
	rate    Func[float64]
	before  Hook
	effect  effect[T]
}

// effect is the per-kind disruption. Each kind has exactly one
// implementation, so a strategy can never hold zero or two providers.
type effect[T any] interface {
	kind() Kind
	run(ctx context.Context, vals Values, s *Strategy[T], fn Func[T]) (T, error)
}

// NewBehavior returns a strategy that runs behavior before the callable
// whenever the gate fires. The callable always runs afterwards.
func NewBehavior[T any](behavior Hook, opts ...Option) (*Strategy[T], error) {
	if behavior == nil {
		return nil, &ConfigurationError{Strategy: KindBehavior, Field: "behavior"}
	}
	return newStrategy(behaviorEffect[T]{k: KindBehavior, behavior: behavior}, opts)
}

// NewFault returns a strategy that fails the call with the provider's error
// instead of running the callable. A provider yielding nil lets the call
// through.
func NewFault[T any](fault Func[error], opts ...Option) (*Strategy[T], error) {
	if fault == nil {
		return nil, &ConfigurationError{Strategy: KindFault, Field: "fault provider"}
	}
	return newStrategy(faultEffect[T]{fault: fault}, opts)
}

// NewResult returns a strategy that substitutes the provider's value for the
// callable's result.
func NewResult[T any](result Func[T], opts ...Option) (*Strategy[T], error) {
	if result == nil {
		return nil, &ConfigurationError{Strategy: KindResult, Field: "result provider"}
	}
	return newStrategy(resultEffect[T]{result: result}, opts)
}

// NewLatency returns a strategy that delays the callable by the provider's
// duration. The delay ends early with *CancelledError when ctx is done.
func NewLatency[T any](latency Func[time.Duration], opts ...Option) (*Strategy[T], error) {
	if latency == nil {
		return nil, &ConfigurationError{Strategy: KindLatency, Field: "latency provider"}
	}
	delay := func(ctx context.Context, vals Values) error {
		d, err := latency(ctx, vals)
		if err != nil {
			return err
		}
		if err := checkpoint(ctx); err != nil {
			return err
		}
		return sleep(ctx, d)
	}
	return newStrategy(behaviorEffect[T]{k: KindLatency, behavior: delay}, opts)
}

func newStrategy[T any](e effect[T], opts []Option) (*Strategy[T], error) {
	var cfg settings
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if cfg.enabled == nil {
		return nil, &ConfigurationError{Strategy: e.kind(), Field: "enabled"}
	}
	if cfg.rate == nil {
		return nil, &ConfigurationError{Strategy: e.kind(), Field: "injection rate"}
	}
	name := cfg.name
	if name == "" {
		name = string(e.kind())
	}
	return &Strategy[T]{
		name:    name,
		gate:    NewGate(cfg.source),
		enabled: cfg.enabled,
		rate:    cfg.rate,
		before:  cfg.before,
		effect:  e,
	}, nil
}

// Name returns the strategy's label.
func (s *Strategy[T]) Name() string { return s.name }

// Kind reports which effect the strategy applies.
func (s *Strategy[T]) Kind() Kind { return s.effect.kind() }

// Execute runs fn through the strategy in blocking mode.
func (s *Strategy[T]) Execute(ctx context.Context, vals Values, fn Func[T]) (T, error) {
	if fn == nil {
		var zero T
		return zero, ErrNilCallable
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return s.effect.run(ctx, vals, s, fn)
}

// ExecuteAsync runs a suspending callable through the strategy. Every
// checkpoint is polled as soon as the awaited delegate resumes.
func (s *Strategy[T]) ExecuteAsync(ctx context.Context, vals Values, fn AsyncFunc[T]) (T, error) {
	return s.Execute(ctx, vals, Await(fn))
}

func (s *Strategy[T]) shouldInject(ctx context.Context, vals Values) (bool, error) {
	return s.gate.ShouldInject(ctx, vals, s.enabled, s.rate)
}

func (s *Strategy[T]) beforeInject(ctx context.Context, vals Values) error {
	if s.before == nil {
		return nil
	}
	if err := s.before(ctx, vals); err != nil {
		return err
	}
	return checkpoint(ctx)
}

type behaviorEffect[T any] struct {
	k        Kind
	behavior Hook
}

func (e behaviorEffect[T]) kind() Kind { return e.k }

func (e behaviorEffect[T]) run(ctx context.Context, vals Values, s *Strategy[T], fn Func[T]) (T, error) {
	var zero T
	inject, err := s.shouldInject(ctx, vals)
	if err != nil {
		return zero, err
	}
	if inject {
		if err := s.beforeInject(ctx, vals); err != nil {
			return zero, err
		}
		if err := e.behavior(ctx, vals); err != nil {
			return zero, err
		}
	}
	if err := checkpoint(ctx); err != nil {
		return zero, err
	}
	return fn(ctx, vals)
}

type faultEffect[T any] struct {
	fault Func[error]
}

func (faultEffect[T]) kind() Kind { return KindFault }

func (e faultEffect[T]) run(ctx context.Context, vals Values, s *Strategy[T], fn Func[T]) (T, error) {
	var zero T
	inject, err := s.shouldInject(ctx, vals)
	if err != nil {
		return zero, err
	}
	if inject {
		fault, err := e.fault(ctx, vals)
		if err != nil {
			return zero, err
		}
		if err := checkpoint(ctx); err != nil {
			return zero, err
		}
		if fault != nil {
			if err := s.beforeInject(ctx, vals); err != nil {
				return zero, err
			}
			return zero, fault
		}
	}
	return fn(ctx, vals)
}

type resultEffect[T any] struct {
	result Func[T]
}

func (resultEffect[T]) kind() Kind { return KindResult }

func (e resultEffect[T]) run(ctx context.Context, vals Values, s *Strategy[T], fn Func[T]) (T, error) {
	var zero T
	inject, err := s.shouldInject(ctx, vals)
	if err != nil {
		return zero, err
	}
	if inject {
		if err := s.beforeInject(ctx, vals); err != nil {
			return zero, err
		}
		v, err := e.result(ctx, vals)
		if err != nil {
			return zero, err
		}
		if err := checkpoint(ctx); err != nil {
			return zero, err
		}
		return v, nil
	}
	if err := checkpoint(ctx); err != nil {
		return zero, err
	}
	return fn(ctx, vals)
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return checkpoint(ctx)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return &CancelledError{Cause: ctx.Err()}
	case <-timer.C:
		return nil
	}
}
