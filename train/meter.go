// Package train - Training loop for the verb-composition head: explicit
// engine state with injected lifecycle hooks, momentum SGD with
// multi-step learning-rate decay, per-epoch checkpointing and AP
// tracking.
package train

import "time"

// NumericalMeter keeps a bounded window of recent values for running
// statistics in progress reports.
type NumericalMeter struct {
	maxLen int
	vals   []float64
}

// NewNumericalMeter creates a meter holding at most maxLen values;
// maxLen <= 0 means unbounded.
func NewNumericalMeter(maxLen int) *NumericalMeter {
	return &NumericalMeter{maxLen: maxLen}
}

// Append adds a value, evicting the oldest once the window is full.
func (m *NumericalMeter) Append(v float64) {
	if m.maxLen > 0 && len(m.vals) == m.maxLen {
		copy(m.vals, m.vals[1:])
		m.vals = m.vals[:len(m.vals)-1]
	}
	m.vals = append(m.vals, v)
}

// Len returns the number of held values.
func (m *NumericalMeter) Len() int { return len(m.vals) }

// MaxLen returns the window capacity; zero or below means unbounded.
func (m *NumericalMeter) MaxLen() int { return m.maxLen }

// Sum returns the sum of held values.
func (m *NumericalMeter) Sum() float64 {
	var s float64
	for _, v := range m.vals {
		s += v
	}
	return s
}

// Mean returns the mean of held values, zero when empty.
func (m *NumericalMeter) Mean() float64 {
	if len(m.vals) == 0 {
		return 0
	}
	return m.Sum() / float64(len(m.vals))
}

// Reset drops all held values.
func (m *NumericalMeter) Reset() { m.vals = m.vals[:0] }

// Stopwatch times successive segments, for "eval time / total time"
// report lines.
type Stopwatch struct {
	segments []float64
}

// Time runs f and records its wall-clock duration in seconds.
func (s *Stopwatch) Time(f func()) {
	start := time.Now()
	f()
	s.segments = append(s.segments, time.Since(start).Seconds())
}

// Segment returns the i-th recorded duration in seconds.
func (s *Stopwatch) Segment(i int) float64 { return s.segments[i] }
