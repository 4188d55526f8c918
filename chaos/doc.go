// Package chaos injects disruption into a unit of work so that callers can
// check how a system copes with induced failure.
//
// A [Strategy] wraps a callable and, on each invocation, asks a [Gate]
// whether to disrupt it. The gate runs three ordered stages:
//   - enabled: a predicate; when it reports false nothing else is evaluated
//   - injection rate: a value in [0, 1], validated with [ValidateRate]
//   - a uniform draw from a [RandomSource]; the call is disrupted when the
//     draw is below the rate
//
// Cancellation, carried by the context, is polled before the gate starts
// and after every delegate returns.
//
// # Strategies
//
//   - [NewBehavior]: run a side effect, then the callable
//   - [NewFault]: return an error instead of running the callable
//   - [NewResult]: return a substitute value instead of running the callable
//   - [NewLatency]: sleep (interruptibly), then run the callable
//
// # Basic Usage
//
//	fault, err := chaos.NewFault[*Order](
//		chaos.Const[error](errors.New("chaos: order service down")),
//		chaos.Enabled(true),
//		chaos.InjectionRate(0.1),
//	)
//	if err != nil {
//		return err
//	}
//	order, err := fault.Execute(ctx, chaos.Values{"tenant": "acme"}, placeOrder)
//
// # Suspending Delegates
//
// Delegates that complete asynchronously return a [Future]. Adapt them with
// [Await] / [AwaitHook], or hand a suspending callable to
// [Strategy.ExecuteAsync]. The strategy awaits each future on the calling
// goroutine and never starts goroutines of its own.
//
// # Composition
//
// Strategies satisfy [Policy] and [AsyncPolicy]; [Wrap] nests several of
// them, outermost first.
//
// # Errors
//
// Rates outside [0, 1] yield [*OutOfRangeError]; cancellation yields
// [*CancelledError]; a missing delegate at construction yields
// [*ConfigurationError]. Injected faults and any error from a delegate are
// returned unmodified.
package chaos
