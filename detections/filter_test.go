package detections

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hoi-lab/go-hoi/common"
)

func TestFilterThresholdBoundary(t *testing.T) {
	det := &Detection{
		Boxes:  []common.Box{{0, 0, 1, 1}, {0, 0, 1, 1}, {0, 0, 1, 1}},
		Labels: []int{49, 49, 49},
		Scores: []float32{0.5, 0.49999, 0.9},
	}
	out := Filter(det, FilterConfig{HumanIdx: 49, HumanThresh: 0.5, ObjectThresh: 0.5})

	// Score exactly at the threshold is kept, just below is dropped.
	assert.Equal(t, []float32{0.5, 0.9}, out.Scores)
}

func TestFilterSplitsHumanAndObjectThresholds(t *testing.T) {
	det := &Detection{
		Boxes:  []common.Box{{0, 0, 1, 1}, {0, 0, 2, 2}, {0, 0, 3, 3}, {0, 0, 4, 4}},
		Labels: []int{7, 49, 7, 49},
		Scores: []float32{0.35, 0.25, 0.6, 0.8},
	}
	out := Filter(det, FilterConfig{HumanIdx: 49, HumanThresh: 0.2, ObjectThresh: 0.4})

	// Humans first, then objects, original relative order within each.
	assert.Equal(t, []int{49, 49, 7}, out.Labels)
	assert.Equal(t, []float32{0.25, 0.8, 0.6}, out.Scores)
	assert.Equal(t, common.Box{0, 0, 2, 2}, out.Boxes[0])
	assert.Equal(t, common.Box{0, 0, 3, 3}, out.Boxes[2])
}

func TestFilterEmptyResult(t *testing.T) {
	det := &Detection{
		Boxes:  []common.Box{{0, 0, 1, 1}},
		Labels: []int{7},
		Scores: []float32{0.1},
	}
	out := Filter(det, FilterConfig{HumanIdx: 49, HumanThresh: 0.5, ObjectThresh: 0.5})

	assert.NotNil(t, out)
	assert.Equal(t, 0, out.Len())
	assert.NotNil(t, out.Boxes)
	assert.NotNil(t, out.Scores)
}

func TestFilterNoDetections(t *testing.T) {
	out := Filter(&Detection{}, FilterConfig{HumanIdx: 49})
	assert.Equal(t, 0, out.Len())
}
