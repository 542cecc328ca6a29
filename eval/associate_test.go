package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoi-lab/go-hoi/common"
)

func TestAssociateGreedyScoreOrder(t *testing.T) {
	// One ground-truth pair; p1 overlaps it tightly (IoU 0.95) but scores
	// lower than p2 (IoU 0.75). The higher score claims the instance and
	// the tighter fit becomes a false positive.
	gtH := []common.Box{{0, 0, 100, 100}}
	gtO := []common.Box{{0, 0, 100, 100}}

	p1H := common.Box{0, 0, 100, 95}
	p2H := common.Box{0, 25, 100, 100}
	detH := []common.Box{p1H, p2H}
	detO := []common.Box{p1H, p2H}
	scores := []float32{0.9, 0.95}

	a := NewPairAssociator(0.5)
	labels := a.Associate(gtH, gtO, detH, detO, scores)

	assert.Equal(t, []float32{0, 1}, labels)
}

func TestAssociateAtMostOneMatch(t *testing.T) {
	gtH := []common.Box{{0, 0, 100, 100}}
	gtO := []common.Box{{0, 0, 100, 100}}
	// Three near-identical predictions for the same instance.
	detH := []common.Box{{0, 0, 100, 99}, {0, 0, 99, 100}, {1, 0, 100, 100}}
	detO := []common.Box{{0, 0, 100, 99}, {0, 0, 99, 100}, {1, 0, 100, 100}}
	scores := []float32{0.7, 0.9, 0.8}

	a := NewPairAssociator(0.5)
	labels := a.Associate(gtH, gtO, detH, detO, scores)

	var matches float32
	for _, l := range labels {
		matches += l
	}
	assert.Equal(t, float32(1), matches)
	assert.Equal(t, float32(1), labels[1]) // highest score wins

	// Determinism: identical inputs yield identical labels.
	again := a.Associate(gtH, gtO, detH, detO, scores)
	assert.Equal(t, labels, again)
}

func TestAssociateScoreTieKeepsInputOrder(t *testing.T) {
	gtH := []common.Box{{0, 0, 100, 100}}
	gtO := []common.Box{{0, 0, 100, 100}}
	detH := []common.Box{{0, 0, 100, 100}, {0, 0, 100, 100}}
	detO := []common.Box{{0, 0, 100, 100}, {0, 0, 100, 100}}
	scores := []float32{0.8, 0.8}

	labels := NewPairAssociator(0.5).Associate(gtH, gtO, detH, detO, scores)
	assert.Equal(t, []float32{1, 0}, labels)
}

func TestAssociateBothBoxesMustOverlap(t *testing.T) {
	gtH := []common.Box{{0, 0, 100, 100}}
	gtO := []common.Box{{200, 200, 300, 300}}
	// Human box matches, object box does not.
	detH := []common.Box{{0, 0, 100, 100}}
	detO := []common.Box{{0, 0, 100, 100}}

	labels := NewPairAssociator(0.5).Associate(gtH, gtO, detH, detO, []float32{0.9})
	assert.Equal(t, []float32{0}, labels)
}

func TestAssociateNoGroundTruth(t *testing.T) {
	detH := []common.Box{{0, 0, 10, 10}, {5, 5, 20, 20}}
	detO := detH

	labels := NewPairAssociator(0.5).Associate(nil, nil, detH, detO, []float32{0.5, 0.6})
	assert.Equal(t, []float32{0, 0}, labels)
}

func TestAssociateClaimsBestUnclaimed(t *testing.T) {
	// Two ground-truth pairs; the top-scoring prediction covers both and
	// claims the tighter one, leaving the other for the runner-up.
	gtH := []common.Box{{0, 0, 100, 100}, {0, 0, 80, 80}}
	gtO := gtH
	detH := []common.Box{{0, 0, 100, 100}, {0, 0, 80, 80}}
	detO := detH
	scores := []float32{0.9, 0.8}

	labels := NewPairAssociator(0.5).Associate(gtH, gtO, detH, detO, scores)
	require.Equal(t, []float32{1, 1}, labels)
}
