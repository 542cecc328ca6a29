package train

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiStepSchedule(t *testing.T) {
	s := MultiStepSchedule{Base: 0.001, Milestones: []int{10, 15}, Gamma: 0.1}

	assert.InDelta(t, 0.001, s.Rate(0), 1e-12)
	assert.InDelta(t, 0.001, s.Rate(9), 1e-12)
	assert.InDelta(t, 0.0001, s.Rate(10), 1e-12)
	assert.InDelta(t, 0.0001, s.Rate(14), 1e-12)
	assert.InDelta(t, 0.00001, s.Rate(15), 1e-12)
	assert.InDelta(t, 0.00001, s.Rate(30), 1e-12)
}

func TestMultiStepScheduleNoMilestones(t *testing.T) {
	s := MultiStepSchedule{Base: 0.05, Gamma: 0.1}
	assert.InDelta(t, 0.05, s.Rate(100), 1e-12)
}
