package chaos

import (
	"context"
	"sync"
)

// Future is the result of a suspending delegate. It is resolved exactly
// once; later Resolve/Reject calls are ignored.
type Future[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

// NewFuture returns an unresolved future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future already completed with v.
func Resolved[T any](v T) *Future[T] {
	f := NewFuture[T]()
	f.Resolve(v)
	return f
}

// Rejected returns a future already completed with err.
func Rejected[T any](err error) *Future[T] {
	f := NewFuture[T]()
	f.Reject(err)
	return f
}

// Go runs fn on a new goroutine and returns its future. Strategies never
// call it; it is a convenience for building suspending delegates.
func Go[T any](ctx context.Context, vals Values, fn Func[T]) *Future[T] {
	f := NewFuture[T]()
	go func() {
		v, err := fn(ctx, vals)
		f.complete(v, err)
	}()
	return f
}

// Resolve completes the future with v.
func (f *Future[T]) Resolve(v T) { f.complete(v, nil) }

// Reject completes the future with err.
func (f *Future[T]) Reject(err error) {
	var zero T
	f.complete(zero, err)
}

func (f *Future[T]) complete(v T, err error) {
	f.once.Do(func() {
		f.val, f.err = v, err
		close(f.done)
	})
}

// Done is closed once the future completes.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the future completes. A nil future awaits as the zero
// value.
func (f *Future[T]) Await() (T, error) {
	if f == nil {
		var zero T
		return zero, nil
	}
	<-f.done
	return f.val, f.err
}
