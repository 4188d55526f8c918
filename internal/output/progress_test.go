package output

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/torosent/chaosfire/internal/metrics"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestProgressLine(t *testing.T) {
	line := progressLine(metrics.Stats{
		Total:          10,
		Successes:      7,
		Failures:       3,
		InjectedTotal:  4,
		RequestsPerSec: 5,
		P95LatencyMs:   12.5,
	})
	assert.Equal(t, "\rRequests: 10 | Successes: 7 | Failures: 3 | Injected: 4 | RPS: 5.0 | P95: 12.5ms", line)
}

func TestProgressReporterStopWithoutStart(t *testing.T) {
	reporter := NewProgressReporter(metrics.NewCollector(), 100*time.Millisecond, nil)
	reporter.Stop()
	reporter.Stop()
}

func TestProgressReporterWritesUpdates(t *testing.T) {
	collector := metrics.NewCollector()
	collector.Start()
	collector.RecordRequest(50*time.Millisecond, nil, nil)
	collector.RecordInjection("latency", "slow")

	var buf syncBuffer
	reporter := NewProgressReporter(collector, 20*time.Millisecond, &buf)
	reporter.Start()
	reporter.Start()

	assert.Eventually(t, func() bool {
		return bytes.Contains([]byte(buf.String()), []byte("Injected: 1"))
	}, time.Second, 10*time.Millisecond)
	reporter.Stop()
}
