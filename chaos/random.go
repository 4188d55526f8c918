package chaos

import (
	"math"
	"math/rand/v2"
	"sync"
)

// RandomSource yields uniform values in [0, 1).
type RandomSource interface {
	Float64() float64
}

// SourceFunc adapts a function to RandomSource.
type SourceFunc func() float64

func (f SourceFunc) Float64() float64 { return f() }

// runtimeSource draws from the runtime generator, whose state lives per
// thread, so concurrent callers never contend on a lock.
type runtimeSource struct{}

func (runtimeSource) Float64() float64 { return rand.Float64() }

// DefaultSource returns the process-wide generator used when no source is
// configured.
func DefaultSource() RandomSource { return runtimeSource{} }

// FixedSource always returns the same value.
type FixedSource struct {
	value float64
}

// NewFixedSource returns a source that always yields v, clamped into [0, 1).
func NewFixedSource(v float64) *FixedSource {
	if math.IsNaN(v) {
		v = 0
	}
	return &FixedSource{value: math.Max(0, math.Min(v, math.Nextafter(1, 0)))}
}

func (f *FixedSource) Float64() float64 { return f.value }

// SeededSource is a deterministic stream for reproducible experiments.
type SeededSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSeededSource returns a deterministic source seeded with seed.
func NewSeededSource(seed uint64) *SeededSource {
	return &SeededSource{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *SeededSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}
