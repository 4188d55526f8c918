package chaos

import "context"

// Policy is anything that wraps a blocking callable.
type Policy[T any] interface {
	Execute(ctx context.Context, vals Values, fn Func[T]) (T, error)
}

// AsyncPolicy is anything that wraps a suspending callable.
type AsyncPolicy[T any] interface {
	ExecuteAsync(ctx context.Context, vals Values, fn AsyncFunc[T]) (T, error)
}

var (
	_ Policy[int]      = (*Strategy[int])(nil)
	_ AsyncPolicy[int] = (*Strategy[int])(nil)
	_ Policy[int]      = (*Pipeline[int])(nil)
	_ AsyncPolicy[int] = (*Pipeline[int])(nil)
)

// Pipeline nests policies: the first one is outermost.
type Pipeline[T any] struct {
	policies []Policy[T]
}

// Wrap composes policies by delegation, outer first. Nil entries are
// dropped.
func Wrap[T any](outer Policy[T], inner ...Policy[T]) *Pipeline[T] {
	all := make([]Policy[T], 0, len(inner)+1)
	for _, p := range append([]Policy[T]{outer}, inner...) {
		if p != nil {
			all = append(all, p)
		}
	}
	return &Pipeline[T]{policies: all}
}

// Len reports the number of composed policies.
func (p *Pipeline[T]) Len() int { return len(p.policies) }

// Execute runs fn inside every policy, outermost first.
func (p *Pipeline[T]) Execute(ctx context.Context, vals Values, fn Func[T]) (T, error) {
	if fn == nil {
		var zero T
		return zero, ErrNilCallable
	}
	next := fn
	for i := len(p.policies) - 1; i >= 0; i-- {
		policy, inner := p.policies[i], next
		next = func(ctx context.Context, vals Values) (T, error) {
			return policy.Execute(ctx, vals, inner)
		}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return next(ctx, vals)
}

// ExecuteAsync runs a suspending callable inside every policy.
func (p *Pipeline[T]) ExecuteAsync(ctx context.Context, vals Values, fn AsyncFunc[T]) (T, error) {
	return p.Execute(ctx, vals, Await(fn))
}
