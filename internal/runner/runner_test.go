package runner_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/torosent/chaosfire/internal/runner"
)

// fakeRequester simulates performing a request with fixed latency.
type fakeRequester struct {
	latency   time.Duration
	calls     *int64
	failAfter int64 // if >0, fails after this many successful calls
}

func (f *fakeRequester) Do(ctx context.Context) error {
	if f.calls != nil {
		atomic.AddInt64(f.calls, 1)
	}
	select {
	case <-time.After(f.latency):
	case <-ctx.Done():
		return ctx.Err()
	}
	if f.failAfter > 0 && atomic.LoadInt64(f.calls) > f.failAfter {
		return errors.New("injected fault")
	}
	return nil
}

// TestRunnerRespectsTotalRequests ensures total limit stops execution.
func TestRunnerRespectsTotalRequests(t *testing.T) {
	var calls int64
	r := runner.New(runner.Options{
		Concurrency:   4,
		TotalRequests: 25,
		Requester:     &fakeRequester{latency: 1 * time.Millisecond, calls: &calls},
	})
	res := r.Run(context.Background())
	if res.Total != 25 {
		t.Fatalf("expected total 25, got %d", res.Total)
	}
	if calls != 25 {
		t.Fatalf("expected requester called 25 times, got %d", calls)
	}
}

func TestRunnerCountsErrors(t *testing.T) {
	var calls int64
	r := runner.New(runner.Options{
		Concurrency:   1,
		TotalRequests: 10,
		Requester:     &fakeRequester{calls: &calls, failAfter: 6},
	})
	res := r.Run(context.Background())
	if res.Total != 10 || res.Errors != 4 {
		t.Fatalf("expected 10 total / 4 errors, got %d / %d", res.Total, res.Errors)
	}
}

// TestRunnerHonorsDuration ensures duration cap stops even if total not reached.
func TestRunnerHonorsDuration(t *testing.T) {
	var calls int64
	r := runner.New(runner.Options{
		Concurrency:   10,
		Duration:      50 * time.Millisecond,
		TotalRequests: 0,
		Requester:     &fakeRequester{latency: 5 * time.Millisecond, calls: &calls},
	})
	start := time.Now()
	res := r.Run(context.Background())
	elapsed := time.Since(start)
	if elapsed < 50*time.Millisecond || elapsed > 250*time.Millisecond {
		// allow some scheduling fudge but not extremely off
		t.Fatalf("duration enforcement off: %s", elapsed)
	}
	if res.Duration <= 0 {
		t.Fatalf("result duration not recorded")
	}
	if res.Total <= 0 {
		t.Fatalf("expected some requests executed")
	}
	if atomic.LoadInt64(&calls) != res.Total {
		t.Fatalf("calls mismatch: %d vs %d", calls, res.Total)
	}
}

// TestRateLimiterCapsThroughput ensures rate limiter restricts RPS.
func TestRateLimiterCapsThroughput(t *testing.T) {
	var calls int64
	rateLimit := 100 // requests per second theoretical maximum
	duration := 100 * time.Millisecond
	r := runner.New(runner.Options{
		Concurrency:    20,
		Duration:       duration,
		RatePerSecond:  rateLimit,
		Requester:      &fakeRequester{latency: 0, calls: &calls},
		LimiterFactory: func(rps int) *rate.Limiter { return rate.NewLimiter(rate.Limit(rps), 1) },
	})
	res := r.Run(context.Background())
	// expected upper bound ~ rateLimit * (duration seconds)
	maxExpected := int(float64(rateLimit) * (float64(duration) / float64(time.Second)) * 1.20) // 20% slack
	if int(res.Total) > maxExpected {
		t.Fatalf("rate limiter exceeded: total=%d max=%d", res.Total, maxExpected)
	}
	if calls != res.Total {
		t.Fatalf("calls mismatch: %d vs %d", calls, res.Total)
	}
}

func TestPoissonArrivalPacesRequests(t *testing.T) {
	var calls int64
	r := runner.New(runner.Options{
		Concurrency:    4,
		TotalRequests:  5,
		RatePerSecond:  100,
		ArrivalModel:   runner.ArrivalModelPoisson,
		PoissonSampler: func() float64 { return 1 },
		Requester:      &fakeRequester{calls: &calls},
	})
	start := time.Now()
	res := r.Run(context.Background())
	if res.Total != 5 {
		t.Fatalf("expected total 5, got %d", res.Total)
	}
	// Five fixed gaps of 10ms each.
	if elapsed := time.Since(start); elapsed < 45*time.Millisecond {
		t.Fatalf("poisson pacing too fast: %s", elapsed)
	}
}

func TestRunnerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var once sync.Once
	req := runner.RequesterFunc(func(ctx context.Context) error {
		once.Do(cancel)
		<-ctx.Done()
		return ctx.Err()
	})
	done := make(chan runner.Result, 1)
	go func() { done <- runner.New(runner.Options{Concurrency: 2, Requester: req}).Run(ctx) }()

	select {
	case res := <-done:
		if res.Total < 1 {
			t.Fatalf("expected at least one request, got %d", res.Total)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancellation")
	}
}

type testLogger struct {
	mu   sync.Mutex
	errs []error
}

func (l *testLogger) LogFailure(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, err)
}

func TestWithLoggingReportsFailures(t *testing.T) {
	boom := errors.New("boom")
	var n int64
	inner := runner.RequesterFunc(func(context.Context) error {
		if atomic.AddInt64(&n, 1)%2 == 0 {
			return boom
		}
		return nil
	})
	logger := &testLogger{}
	r := runner.New(runner.Options{
		Concurrency:   1,
		TotalRequests: 4,
		Requester:     runner.WithLogging(inner, logger),
	})

	res := r.Run(context.Background())

	if res.Total != 4 || res.Errors != 2 {
		t.Fatalf("expected 4 total / 2 errors, got %d / %d", res.Total, res.Errors)
	}
	if len(logger.errs) != 2 || !errors.Is(logger.errs[0], boom) {
		t.Fatalf("expected 2 logged failures, got %v", logger.errs)
	}
}

func TestWithLoggingNilLogger(t *testing.T) {
	inner := runner.RequesterFunc(func(context.Context) error { return nil })
	if got := runner.WithLogging(inner, nil); got == nil {
		t.Fatal("WithLogging(nil logger) returned nil")
	}
}
