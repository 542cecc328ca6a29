package detections

import "github.com/hoi-lab/go-hoi/common"

// FilterConfig controls confidence filtering of raw detections.
//
// The human class gets its own threshold because human boxes anchor every
// predicted pair and are typically kept at a lower bar than object boxes.
type FilterConfig struct {
	// HumanIdx is the reserved object-class id for humans.
	HumanIdx int
	// HumanThresh is the minimum score for human boxes (inclusive).
	HumanThresh float32
	// ObjectThresh is the minimum score for all other boxes (inclusive).
	ObjectThresh float32
}

// Filter removes low-confidence boxes from a detection record.
//
// Despite what the upstream system called this step, no non-maximum
// suppression happens here; the observed behavior is score thresholding
// only. A box scoring exactly at its threshold is kept. Kept boxes come
// out humans first, then objects, each partition in its original relative
// order. Downstream consumers address boxes by index, so the partition
// order carries no ranking meaning.
//
// Returns:
// - A new record with the surviving boxes; zero-length (never nil slices)
//   when nothing survives.
func Filter(d *Detection, cfg FilterConfig) *Detection {
	keep := make([]int, 0, d.Len())
	for i, label := range d.Labels {
		if label == cfg.HumanIdx && d.Scores[i] >= cfg.HumanThresh {
			keep = append(keep, i)
		}
	}
	for i, label := range d.Labels {
		if label != cfg.HumanIdx && d.Scores[i] >= cfg.ObjectThresh {
			keep = append(keep, i)
		}
	}

	out := &Detection{
		Boxes:  make([]common.Box, 0, len(keep)),
		Labels: make([]int, 0, len(keep)),
		Scores: make([]float32, 0, len(keep)),
	}
	for _, i := range keep {
		out.Boxes = append(out.Boxes, d.Boxes[i])
		out.Labels = append(out.Labels, d.Labels[i])
		out.Scores = append(out.Scores, d.Scores[i])
	}
	return out
}
