package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Status bucket sources.
const (
	SourceUpstream = "upstream"
	SourceInjected = "injected"
)

// RequestMetadata describes how a request ended.
type RequestMetadata struct {
	StatusCode string // HTTP status, or "fault" when no response exists
	Injected   bool   // outcome was produced by a chaos strategy
}

// Recorder receives per-request outcomes and injections.
type Recorder interface {
	RecordRequest(latency time.Duration, err error, meta *RequestMetadata)
	RecordInjection(kind, strategy string)
}

// Collector records per-request metrics in a thread-safe manner.
type Collector struct {
	mu            sync.Mutex
	hist          *hdrhistogram.Histogram
	successes     int64
	failures      int64
	minLatency    time.Duration
	maxLatency    time.Duration
	sumLatency    time.Duration
	errorsByType  map[string]int64
	statusBuckets map[string]map[string]int
	injections    map[string]int64
	byStrategy    map[string]int64
	start         time.Time
}

var _ Recorder = (*Collector)(nil)

// Stats represents aggregated metrics.
type Stats struct {
	Total          int64         `json:"total"`
	Successes      int64         `json:"successes"`
	Failures       int64         `json:"failures"`
	MinLatency     time.Duration `json:"-"`
	MaxLatency     time.Duration `json:"-"`
	MeanLatency    time.Duration `json:"-"`
	P50Latency     time.Duration `json:"-"`
	P90Latency     time.Duration `json:"-"`
	P95Latency     time.Duration `json:"-"`
	P99Latency     time.Duration `json:"-"`
	Duration       time.Duration `json:"-"`
	RequestsPerSec float64       `json:"requests_per_sec"`

	// JSON-friendly millisecond fields.
	MinLatencyMs  float64 `json:"min_latency_ms"`
	MaxLatencyMs  float64 `json:"max_latency_ms"`
	MeanLatencyMs float64 `json:"mean_latency_ms"`
	P50LatencyMs  float64 `json:"p50_latency_ms"`
	P90LatencyMs  float64 `json:"p90_latency_ms"`
	P95LatencyMs  float64 `json:"p95_latency_ms"`
	P99LatencyMs  float64 `json:"p99_latency_ms"`
	DurationMs    float64 `json:"duration_ms"`

	Errors        map[string]int            `json:"errors,omitempty"`
	StatusBuckets map[string]map[string]int `json:"status_buckets,omitempty"`

	// Chaos injections keyed by kind and by strategy name.
	InjectedTotal        int64            `json:"injected_total"`
	Injections           map[string]int64 `json:"injections,omitempty"`
	InjectionsByStrategy map[string]int64 `json:"injections_by_strategy,omitempty"`
}

func NewCollector() *Collector {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Collector{
		hist:          h,
		errorsByType:  make(map[string]int64),
		statusBuckets: make(map[string]map[string]int),
		injections:    make(map[string]int64),
		byStrategy:    make(map[string]int64),
		start:         time.Now(),
	}
}

// Start resets the clock used by Elapsed.
func (c *Collector) Start() {
	c.mu.Lock()
	c.start = time.Now()
	c.mu.Unlock()
}

// Elapsed is the time since Start or construction.
func (c *Collector) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.start)
}

// RecordRequest records a single request's latency and error state.
func (c *Collector) RecordRequest(latency time.Duration, err error, meta *RequestMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if latency > 0 {
		us := latency.Microseconds()
		if us < c.hist.LowestTrackableValue() {
			us = c.hist.LowestTrackableValue()
		}
		if us > c.hist.HighestTrackableValue() {
			us = c.hist.HighestTrackableValue()
		}
		_ = c.hist.RecordValue(us)
	}
	c.sumLatency += latency

	if c.minLatency == 0 || latency < c.minLatency {
		c.minLatency = latency
	}
	if latency > c.maxLatency {
		c.maxLatency = latency
	}

	if err == nil {
		c.successes++
	} else {
		c.failures++
		c.errorsByType[fmt.Sprintf("%T", err)]++
	}

	if meta != nil && meta.StatusCode != "" {
		source := SourceUpstream
		if meta.Injected {
			source = SourceInjected
		}
		codes := c.statusBuckets[source]
		if codes == nil {
			codes = make(map[string]int)
			c.statusBuckets[source] = codes
		}
		codes[meta.StatusCode]++
	}
}

// RecordInjection counts one injection by kind and strategy name.
func (c *Collector) RecordInjection(kind, strategy string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.injections[kind]++
	if strategy != "" {
		c.byStrategy[strategy]++
	}
}

// Stats computes and returns current aggregated statistics.
func (c *Collector) Stats(elapsed time.Duration) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.successes + c.failures
	stats := Stats{
		Total:      total,
		Successes:  c.successes,
		Failures:   c.failures,
		MinLatency: c.minLatency,
		MaxLatency: c.maxLatency,
	}

	if total > 0 {
		stats.MeanLatency = time.Duration(int64(c.sumLatency) / total)
	}

	if c.hist.TotalCount() > 0 {
		stats.P50Latency = time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond
		stats.P90Latency = time.Duration(c.hist.ValueAtQuantile(90)) * time.Microsecond
		stats.P95Latency = time.Duration(c.hist.ValueAtQuantile(95)) * time.Microsecond
		stats.P99Latency = time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond
	}

	stats.MinLatencyMs = toMs(stats.MinLatency)
	stats.MaxLatencyMs = toMs(stats.MaxLatency)
	stats.MeanLatencyMs = toMs(stats.MeanLatency)
	stats.P50LatencyMs = toMs(stats.P50Latency)
	stats.P90LatencyMs = toMs(stats.P90Latency)
	stats.P95LatencyMs = toMs(stats.P95Latency)
	stats.P99LatencyMs = toMs(stats.P99Latency)

	stats.Duration = elapsed
	stats.DurationMs = toMs(elapsed)
	if elapsed > 0 && total > 0 {
		stats.RequestsPerSec = float64(total) / elapsed.Seconds()
	}

	if len(c.errorsByType) > 0 {
		stats.Errors = make(map[string]int, len(c.errorsByType))
		for k, v := range c.errorsByType {
			stats.Errors[k] = int(v)
		}
	}

	if len(c.statusBuckets) > 0 {
		stats.StatusBuckets = make(map[string]map[string]int, len(c.statusBuckets))
		for source, codes := range c.statusBuckets {
			cp := make(map[string]int, len(codes))
			for code, n := range codes {
				cp[code] = n
			}
			stats.StatusBuckets[source] = cp
		}
	}

	if len(c.injections) > 0 {
		stats.Injections = make(map[string]int64, len(c.injections))
		for k, v := range c.injections {
			stats.Injections[k] = v
			stats.InjectedTotal += v
		}
	}
	if len(c.byStrategy) > 0 {
		stats.InjectionsByStrategy = make(map[string]int64, len(c.byStrategy))
		for k, v := range c.byStrategy {
			stats.InjectionsByStrategy[k] = v
		}
	}

	return stats
}

func toMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// GetErrorBreakdown returns a map of error types to their counts.
func (c *Collector) GetErrorBreakdown() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make(map[string]int)
	for k, v := range c.errorsByType {
		result[k] = int(v)
	}
	return result
}

// Tee fans every record out to each non-nil recorder.
func Tee(recorders ...Recorder) Recorder {
	out := make(tee, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

type tee []Recorder

func (t tee) RecordRequest(latency time.Duration, err error, meta *RequestMetadata) {
	for _, r := range t {
		r.RecordRequest(latency, err, meta)
	}
}

func (t tee) RecordInjection(kind, strategy string) {
	for _, r := range t {
		r.RecordInjection(kind, strategy)
	}
}
