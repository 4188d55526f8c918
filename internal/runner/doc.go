// Package runner drives a Requester concurrently under a request budget, a
// time limit and an arrival rate.
//
//	r := runner.New(runner.Options{
//		Concurrency:   10,
//		TotalRequests: 1000,
//		Duration:      time.Minute,
//		RatePerSecond: 100,
//		ArrivalModel:  runner.ArrivalModelPoisson,
//		Requester:     req,
//	})
//	result := r.Run(ctx)
//
// Uniform arrival paces through a golang.org/x/time/rate limiter; Poisson
// arrival sleeps for exponentially distributed gaps with the same mean.
//
// [WithLogging] reports failed requests to a [FailureLogger].
package runner
