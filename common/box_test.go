package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoxIoU(t *testing.T) {
	a := Box{0, 0, 100, 100}
	b := Box{50, 50, 150, 150}

	assert.InDelta(t, 2500.0, float64(a.Intersection(b)), 1e-4)
	// union = 10000 + 10000 - 2500
	assert.InDelta(t, 2500.0/17500.0, float64(a.IoU(b)), 1e-5)
}

func TestBoxIoUDisjoint(t *testing.T) {
	a := Box{0, 0, 10, 10}
	b := Box{20, 20, 30, 30}

	assert.Equal(t, float32(0), a.Intersection(b))
	assert.Equal(t, float32(0), a.IoU(b))
}

func TestBoxIoUIdentical(t *testing.T) {
	a := Box{5, 5, 25, 45}
	assert.InDelta(t, 1.0, float64(a.IoU(a)), 1e-6)
}

func TestBoxIoUDegenerate(t *testing.T) {
	// Zero-area boxes must not divide by zero.
	a := Box{10, 10, 10, 10}
	assert.Equal(t, float32(0), a.IoU(a))
}

func TestPairwiseIoU(t *testing.T) {
	a := []Box{{0, 0, 10, 10}, {0, 0, 20, 20}}
	b := []Box{{0, 0, 10, 10}}

	m := PairwiseIoU(a, b)
	assert.Len(t, m, 2)
	assert.Len(t, m[0], 1)
	assert.InDelta(t, 1.0, float64(m[0][0]), 1e-6)
	assert.InDelta(t, 0.25, float64(m[1][0]), 1e-6)
}

func TestPairwiseIoUEmpty(t *testing.T) {
	m := PairwiseIoU(nil, []Box{{0, 0, 1, 1}})
	assert.Empty(t, m)
}
