package eval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeterPerfectRanking(t *testing.T) {
	m := NewMeter(1, WithAlgorithm(AlgINT), WithNumGT([]int{3}))
	err := m.Append(
		[]float32{0.9, 0.8, 0.7, 0.6, 0.5},
		[]int{0, 0, 0, 0, 0},
		[]float32{1, 1, 1, 0, 0},
	)
	require.NoError(t, err)

	ap, err := m.Eval()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ap[0], 1e-9)
}

func TestMeterWorstRanking(t *testing.T) {
	scores := []float32{0.9, 0.8, 0.7, 0.6, 0.5}
	classes := []int{0, 0, 0, 0, 0}
	labels := []float32{0, 0, 1, 1, 1}

	mInt := NewMeter(1, WithAlgorithm(AlgINT), WithNumGT([]int{3}))
	require.NoError(t, mInt.Append(scores, classes, labels))
	apInt, err := mInt.Eval()
	require.NoError(t, err)
	assert.Less(t, apInt[0], 1.0)
	assert.Greater(t, apInt[0], 0.0)

	// On a monotone tail the two algorithms agree closely.
	m11 := NewMeter(1, WithAlgorithm(Alg11P), WithNumGT([]int{3}))
	require.NoError(t, m11.Append(scores, classes, labels))
	ap11, err := m11.Eval()
	require.NoError(t, err)
	assert.InDelta(t, apInt[0], ap11[0], 0.1)
}

func TestMeterZeroGroundTruth(t *testing.T) {
	m := NewMeter(2, WithAlgorithm(AlgINT), WithNumGT([]int{0, 3}))
	require.NoError(t, m.Append(
		[]float32{0.9, 0.8},
		[]int{0, 0},
		[]float32{0, 0},
	))

	ap, err := m.Eval()
	require.NoError(t, err)
	assert.Equal(t, 0.0, ap[0])
	assert.False(t, math.IsNaN(ap[0]))
	// Class 1 saw no predictions at all: AP 0, not NaN.
	assert.Equal(t, 0.0, ap[1])
}

func TestMeterInferredNumGT(t *testing.T) {
	// Without WithNumGT, the positive-label count is the denominator.
	m := NewMeter(1, WithAlgorithm(AlgINT))
	require.NoError(t, m.Append(
		[]float32{0.9, 0.8},
		[]int{0, 0},
		[]float32{1, 1},
	))
	ap, err := m.Eval()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ap[0], 1e-9)
}

func TestMeterAppendAfterEvalFails(t *testing.T) {
	m := NewMeter(1)
	require.NoError(t, m.Append([]float32{0.5}, []int{0}, []float32{1}))
	_, err := m.Eval()
	require.NoError(t, err)

	err = m.Append([]float32{0.5}, []int{0}, []float32{1})
	assert.Error(t, err)
	_, err = m.Eval()
	assert.Error(t, err)

	m.Reset()
	assert.NoError(t, m.Append([]float32{0.5}, []int{0}, []float32{1}))
}

func TestMeterScoreTiesStable(t *testing.T) {
	// Equal scores keep insertion order, so the result is deterministic.
	run := func() []float64 {
		m := NewMeter(1, WithAlgorithm(AlgINT), WithNumGT([]int{1}))
		require.NoError(t, m.Append(
			[]float32{0.5, 0.5, 0.5},
			[]int{0, 0, 0},
			[]float32{0, 1, 0},
		))
		ap, err := m.Eval()
		require.NoError(t, err)
		return ap
	}
	assert.Equal(t, run(), run())
}

func TestMeterRejectsUnequalSlices(t *testing.T) {
	m := NewMeter(1)
	assert.Error(t, m.Append([]float32{0.5}, []int{0, 0}, []float32{1}))
}

func TestRareNonRareSplit(t *testing.T) {
	// Class A: gt=5 (rare), AP 0.2. Class B: gt=50 (non-rare), AP 0.8.
	ap := []float64{0.2, 0.8}
	counts := []int{5, 50}

	rare := make([]bool, len(counts))
	nonRare := make([]bool, len(counts))
	for i, n := range counts {
		rare[i] = n < 10
		nonRare[i] = !rare[i]
	}

	assert.InDelta(t, 0.2, MeanAPSubset(ap, rare), 1e-9)
	assert.InDelta(t, 0.8, MeanAPSubset(ap, nonRare), 1e-9)
	assert.InDelta(t, 0.5, MeanAP(ap), 1e-9)
}

func TestMeanAPSubsetEmptyMask(t *testing.T) {
	assert.Equal(t, 0.0, MeanAPSubset([]float64{0.5}, []bool{false}))
	assert.Equal(t, 0.0, MeanAP(nil))
}

func TestMeterMergeDeduplicates(t *testing.T) {
	m := NewMeter(1, WithAlgorithm(AlgINT), WithNumGT([]int{1}), WithShard(0))
	shard := NewMeter(1, WithAlgorithm(AlgINT), WithNumGT([]int{1}), WithShard(1))
	require.NoError(t, shard.Append([]float32{0.9}, []int{0}, []float32{1}))

	// The same partial gathered twice contributes exactly once.
	partial := shard.Partial()
	require.NoError(t, m.Merge(partial, partial))

	ap, err := m.Eval()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ap[0], 1e-9)

	total := 0
	for _, ents := range m.classes {
		total += len(ents)
	}
	assert.Equal(t, 1, total)
}

func TestMeterMergeConflictingRanks(t *testing.T) {
	// Two processes that both left the default rank mint the same unique
	// ids for different predictions. Merge must refuse rather than drop
	// one shard's entries as duplicates.
	a := NewMeter(1, WithNumGT([]int{2}))
	b := NewMeter(1, WithNumGT([]int{2}))
	require.NoError(t, a.Append([]float32{0.9}, []int{0}, []float32{1}))
	require.NoError(t, b.Append([]float32{0.4}, []int{0}, []float32{0}))

	m := NewMeter(1, WithNumGT([]int{2}))
	err := m.Merge(a.Partial(), b.Partial())
	require.Error(t, err)

	// The failed merge left the meter untouched.
	total := 0
	for _, ents := range m.classes {
		total += len(ents)
	}
	assert.Zero(t, total)
}

func TestMeterMergeShardMismatch(t *testing.T) {
	m := NewMeter(2)
	other := NewMeter(3)
	err := m.Merge(other.Partial())
	assert.Error(t, err)
}
