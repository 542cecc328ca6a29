package train

// MultiStepSchedule decays the learning rate by Gamma at each milestone
// epoch, mirroring the usual multi-step schedule.
type MultiStepSchedule struct {
	// Base is the initial learning rate.
	Base float64
	// Milestones are the epoch counts (number of completed epochs) at
	// which the rate decays. Must be ascending.
	Milestones []int
	// Gamma is the decay multiplier per milestone.
	Gamma float64
}

// Rate returns the learning rate in effect after `completed` epochs have
// finished.
func (s MultiStepSchedule) Rate(completed int) float64 {
	lr := s.Base
	for _, m := range s.Milestones {
		if completed >= m {
			lr *= s.Gamma
		}
	}
	return lr
}
