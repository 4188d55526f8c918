package chaos

import (
	"context"
	"errors"
)

// ErrNilCallable is returned when Execute is given no callable.
var ErrNilCallable = errors.New("chaos: nil callable")

// Func is a blocking delegate: a provider, predicate or user callable.
type Func[T any] func(ctx context.Context, vals Values) (T, error)

// AsyncFunc is a suspending delegate returning a future.
type AsyncFunc[T any] func(ctx context.Context, vals Values) *Future[T]

// Hook is a blocking side-effecting delegate.
type Hook func(ctx context.Context, vals Values) error

// AsyncHook is a suspending side-effecting delegate.
type AsyncHook func(ctx context.Context, vals Values) *Future[struct{}]

// Const returns a delegate that always yields v.
func Const[T any](v T) Func[T] {
	return func(context.Context, Values) (T, error) { return v, nil }
}

// Await adapts a suspending delegate to the blocking form by waiting on its
// future. Strategies poll cancellation as soon as the wait returns.
func Await[T any](fn AsyncFunc[T]) Func[T] {
	if fn == nil {
		return nil
	}
	return func(ctx context.Context, vals Values) (T, error) {
		return fn(ctx, vals).Await()
	}
}

// AwaitHook adapts a suspending hook to the blocking form.
func AwaitHook(fn AsyncHook) Hook {
	if fn == nil {
		return nil
	}
	return func(ctx context.Context, vals Values) error {
		_, err := fn(ctx, vals).Await()
		return err
	}
}

// checkpoint fails with *CancelledError once ctx is done.
func checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &CancelledError{Cause: err}
	}
	return nil
}
