package train

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointName(t *testing.T) {
	assert.Equal(t, "ckpt_00320_01.gob", CheckpointName(320, 1))
	assert.Equal(t, "ckpt_12800_20.gob", CheckpointName(12800, 20))
}

func TestCheckpointRoundTrip(t *testing.T) {
	ck := &Checkpoint{
		Iteration:    640,
		Epoch:        2,
		LearningRate: 0.001,
		Weights: []WeightTensor{
			{Name: "w0", Shape: []int{2, 3}, Data: []float32{1, 2, 3, 4, 5, 6}},
			{Name: "b0", Shape: []int{1, 3}, Data: []float32{0.1, 0.2, 0.3}},
		},
	}
	path := filepath.Join(t.TempDir(), CheckpointName(ck.Iteration, ck.Epoch))
	require.NoError(t, SaveCheckpoint(path, ck))

	got, err := LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, ck.Iteration, got.Iteration)
	assert.Equal(t, ck.Epoch, got.Epoch)
	assert.Equal(t, ck.LearningRate, got.LearningRate)
	assert.Equal(t, ck.Weights, got.Weights)
}

func TestLoadCheckpointMissingFile(t *testing.T) {
	_, err := LoadCheckpoint(filepath.Join(t.TempDir(), "nope.gob"))
	assert.Error(t, err)
}
