package train

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumericalMeterWindow(t *testing.T) {
	m := NewNumericalMeter(3)
	m.Append(1)
	m.Append(2)
	m.Append(3)
	assert.Equal(t, 3, m.Len())
	assert.InDelta(t, 6.0, m.Sum(), 1e-12)
	assert.InDelta(t, 2.0, m.Mean(), 1e-12)

	// A fourth value evicts the oldest.
	m.Append(10)
	assert.Equal(t, 3, m.Len())
	assert.InDelta(t, 15.0, m.Sum(), 1e-12)
	assert.InDelta(t, 5.0, m.Mean(), 1e-12)
}

func TestNumericalMeterUnbounded(t *testing.T) {
	m := NewNumericalMeter(0)
	for i := 0; i < 100; i++ {
		m.Append(1)
	}
	assert.Equal(t, 100, m.Len())
	assert.InDelta(t, 100.0, m.Sum(), 1e-12)
}

func TestNumericalMeterReset(t *testing.T) {
	m := NewNumericalMeter(5)
	m.Append(4)
	m.Reset()
	assert.Equal(t, 0, m.Len())
	assert.Zero(t, m.Mean())
	assert.Zero(t, m.Sum())
}

func TestStopwatchSegments(t *testing.T) {
	var sw Stopwatch
	sw.Time(func() {})
	sw.Time(func() {})
	assert.GreaterOrEqual(t, sw.Segment(0), 0.0)
	assert.GreaterOrEqual(t, sw.Segment(1), 0.0)
}
