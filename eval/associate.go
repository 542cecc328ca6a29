package eval

import (
	"sort"

	"github.com/hoi-lab/go-hoi/common"
)

// DefaultMinIoU is the standard overlap threshold for a prediction to
// cover a ground-truth box pair.
const DefaultMinIoU = 0.5

// PairAssociator labels predicted box pairs against ground-truth box
// pairs for one interaction class within one image.
type PairAssociator struct {
	// MinIoU is the threshold both the human-box and object-box overlaps
	// must reach for a prediction to cover a ground-truth pair.
	MinIoU float32
}

// NewPairAssociator returns an associator with the given threshold;
// values <= 0 fall back to DefaultMinIoU.
func NewPairAssociator(minIoU float32) PairAssociator {
	if minIoU <= 0 {
		minIoU = DefaultMinIoU
	}
	return PairAssociator{MinIoU: minIoU}
}

// Associate computes a binary correctness label per predicted pair.
//
// The overlap between a prediction and a ground-truth pair is the minimum
// of the human-box IoU and the object-box IoU, so both boxes must clear
// MinIoU. Predictions are processed in descending score order (equal
// scores keep original order); each claims the highest-overlap ground
// truth still unclaimed among those it covers. A ground-truth pair is
// claimed at most once, which caps true positives at one per instance and
// keeps duplicate detections from inflating precision.
//
// Arguments:
// - gtH, gtO: Ground-truth human and object boxes, parallel.
// - detH, detO: Predicted human and object boxes, parallel.
// - scores: Prediction confidences, parallel with detH.
//
// Returns:
// - A label per prediction: 1 for a true positive, 0 otherwise. All zeros
//   when there is no ground truth.
func (a PairAssociator) Associate(gtH, gtO, detH, detO []common.Box, scores []float32) []float32 {
	labels := make([]float32, len(detH))
	if len(gtH) == 0 {
		return labels
	}

	iouH := common.PairwiseIoU(detH, gtH)
	iouO := common.PairwiseIoU(detO, gtO)

	order := make([]int, len(detH))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		return scores[order[x]] > scores[order[y]]
	})

	claimed := make([]bool, len(gtH))
	for _, d := range order {
		best := -1
		var bestOverlap float32
		for g := range gtH {
			if claimed[g] {
				continue
			}
			overlap := iouH[d][g]
			if iouO[d][g] < overlap {
				overlap = iouO[d][g]
			}
			if overlap >= a.MinIoU && (best == -1 || overlap > bestOverlap) {
				best = g
				bestOverlap = overlap
			}
		}
		if best >= 0 {
			claimed[best] = true
			labels[d] = 1
		}
	}
	return labels
}
