package eval

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Algorithm selects how average precision integrates the precision-recall
// curve.
type Algorithm string

const (
	// Alg11P is 11-point interpolation: mean of the max precision at the
	// recall thresholds 0, 0.1, ..., 1.0.
	Alg11P Algorithm = "11P"
	// AlgINT integrates the area under the monotone precision envelope.
	AlgINT Algorithm = "INT"
)

type entry struct {
	score  float32
	label  float32
	unique uint64
}

// Meter accumulates per-class (score, correctness) pairs over an
// evaluation pass and computes per-class average precision on demand.
//
// States: Accumulating -> Evaluated. Append is valid only while
// accumulating; Eval transitions the meter and further appends error out
// until Reset. The meter is not safe for concurrent use; multi-process
// evaluation exchanges Partial snapshots instead (see Merge).
type Meter struct {
	classes   [][]entry
	numGT     []int
	alg       Algorithm
	shard     uint64
	counter   uint64
	evaluated bool
}

// MeterOption configures a Meter.
type MeterOption func(*Meter)

// WithAlgorithm selects the AP integration algorithm (default Alg11P).
func WithAlgorithm(alg Algorithm) MeterOption {
	return func(m *Meter) { m.alg = alg }
}

// WithNumGT fixes the per-class ground-truth counts used as recall
// denominators. Without it, counts are inferred from the accumulated
// positive labels at Eval time.
func WithNumGT(numGT []int) MeterOption {
	return func(m *Meter) { m.numGT = numGT }
}

// WithShard tags this meter's entries with a shard rank so that partials
// gathered from several processes carry globally distinct unique ids.
func WithShard(rank int) MeterOption {
	return func(m *Meter) { m.shard = uint64(rank) }
}

// NewMeter creates a meter over numClasses interaction classes.
func NewMeter(numClasses int, opts ...MeterOption) *Meter {
	m := &Meter{
		classes: make([][]entry, numClasses),
		alg:     Alg11P,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NumClasses returns the size of the label space.
func (m *Meter) NumClasses() int { return len(m.classes) }

// Append records a batch of predictions. The three slices are parallel:
// sample i scored scores[i] for class classes[i] and was labeled
// labels[i] (1 true positive, 0 false positive) by the associator.
func (m *Meter) Append(scores []float32, classes []int, labels []float32) error {
	if m.evaluated {
		return errors.New("append after eval: reset the meter first")
	}
	if len(classes) != len(scores) || len(labels) != len(scores) {
		return errors.Errorf("unequal append slices: scores=%d classes=%d labels=%d",
			len(scores), len(classes), len(labels))
	}
	for i, c := range classes {
		if c < 0 || c >= len(m.classes) {
			return errors.Errorf("class %d out of range [0, %d)", c, len(m.classes))
		}
		m.counter++
		m.classes[c] = append(m.classes[c], entry{
			score:  scores[i],
			label:  labels[i],
			unique: m.shard<<48 | m.counter,
		})
	}
	return nil
}

// Eval computes the per-class average precision vector and transitions
// the meter to Evaluated.
//
// Per class, entries sort by score descending (ties keep insertion
// order), cumulative true/false positives give the precision-recall
// curve, and the configured algorithm integrates it. A class with zero
// ground truth has AP 0, never NaN.
func (m *Meter) Eval() ([]float64, error) {
	if m.evaluated {
		return nil, errors.New("meter already evaluated")
	}
	m.evaluated = true

	ap := make([]float64, len(m.classes))
	for c, ents := range m.classes {
		numGT := 0
		if m.numGT != nil {
			numGT = m.numGT[c]
		} else {
			for _, e := range ents {
				if e.label > 0 {
					numGT++
				}
			}
		}
		ap[c] = classAP(ents, numGT, m.alg)
	}
	return ap, nil
}

// Reset drops all accumulated state and returns the meter to
// Accumulating.
func (m *Meter) Reset() {
	for c := range m.classes {
		m.classes[c] = nil
	}
	m.counter = 0
	m.evaluated = false
}

func classAP(ents []entry, numGT int, alg Algorithm) float64 {
	if numGT == 0 || len(ents) == 0 {
		return 0
	}
	sorted := make([]entry, len(ents))
	copy(sorted, ents)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].score > sorted[b].score
	})

	tp := make([]float64, len(sorted))
	fp := make([]float64, len(sorted))
	for i, e := range sorted {
		tp[i] = float64(e.label)
		fp[i] = 1 - float64(e.label)
	}
	floats.CumSum(tp, tp)
	floats.CumSum(fp, fp)

	prec := make([]float64, len(sorted))
	rec := make([]float64, len(sorted))
	for i := range sorted {
		if denom := tp[i] + fp[i]; denom > 0 {
			prec[i] = tp[i] / denom
		}
		rec[i] = tp[i] / float64(numGT)
	}

	switch alg {
	case AlgINT:
		return apIntegral(prec, rec)
	default:
		return ap11Point(prec, rec)
	}
}

// ap11Point averages, over the recall thresholds 0, 0.1, ..., 1.0, the
// maximum precision achieved at or beyond each threshold.
func ap11Point(prec, rec []float64) float64 {
	var sum float64
	for t := 0; t <= 10; t++ {
		threshold := float64(t) / 10
		var best float64
		for k := range rec {
			if rec[k] >= threshold && prec[k] > best {
				best = prec[k]
			}
		}
		sum += best
	}
	return sum / 11
}

// apIntegral computes the area under the precision-recall curve with the
// monotone precision envelope: the precision credited at each recall
// level is the maximum precision at that or any higher recall.
func apIntegral(prec, rec []float64) float64 {
	env := make([]float64, len(prec))
	var running float64
	for k := len(prec) - 1; k >= 0; k-- {
		if prec[k] > running {
			running = prec[k]
		}
		env[k] = running
	}
	var ap, prev float64
	for k := range rec {
		ap += (rec[k] - prev) * env[k]
		prev = rec[k]
	}
	return ap
}

// MeanAP is the mean over all classes of the AP vector.
func MeanAP(ap []float64) float64 {
	if len(ap) == 0 {
		return 0
	}
	return stat.Mean(ap, nil)
}

// MeanAPSubset averages AP over the classes flagged by mask. Zero when
// the mask selects nothing.
func MeanAPSubset(ap []float64, mask []bool) float64 {
	var sum float64
	var n int
	for i, keep := range mask {
		if keep && i < len(ap) {
			sum += ap[i]
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
