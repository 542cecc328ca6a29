package train

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoi-lab/go-hoi/hicodet"
)

func fixtureLabelSet(n int) *LabelSet {
	set := &LabelSet{
		Prior:  make([][]float32, n),
		Labels: make([][]float32, n),
	}
	for i := 0; i < n; i++ {
		prior := make([]float32, hicodet.NumVerbs)
		labels := make([]float32, hicodet.NumVerbs)
		// Sample i activates verb slot i%NumVerbs with a positive label.
		prior[i%hicodet.NumVerbs] = 1
		labels[i%hicodet.NumVerbs] = 1
		set.Prior[i] = prior
		set.Labels[i] = labels
	}
	return set
}

func TestLabelSetValidate(t *testing.T) {
	set := fixtureLabelSet(4)
	require.NoError(t, set.Validate())

	set.Labels[2] = set.Labels[2][:10]
	assert.Error(t, set.Validate())

	set = fixtureLabelSet(4)
	set.Prior = set.Prior[:3]
	assert.Error(t, set.Validate())
}

func TestLabelSetGobRoundTrip(t *testing.T) {
	set := fixtureLabelSet(6)
	path := filepath.Join(t.TempDir(), "labels.gob")
	require.NoError(t, set.Save(path))

	got, err := LoadLabelSet(path)
	require.NoError(t, err)
	assert.Equal(t, set.Prior, got.Prior)
	assert.Equal(t, set.Labels, got.Labels)
}

func TestBatchesDropsRemainder(t *testing.T) {
	set := fixtureLabelSet(10)
	batches := set.Batches(4, false, 0)
	require.Len(t, batches, 2)
	for _, b := range batches {
		assert.Equal(t, 4, b.Size)
		assert.Len(t, b.Prior, 4*hicodet.NumVerbs)
		assert.Len(t, b.Labels, 4*hicodet.NumVerbs)
	}
}

func TestBatchesPreserveOrderWithoutShuffle(t *testing.T) {
	set := fixtureLabelSet(4)
	batches := set.Batches(2, false, 0)
	require.Len(t, batches, 2)

	// Sample 0 activates verb 0, sample 1 verb 1, and so on.
	assert.Equal(t, float32(1), batches[0].Labels[0])
	assert.Equal(t, float32(1), batches[0].Labels[hicodet.NumVerbs+1])
	assert.Equal(t, float32(1), batches[1].Labels[2])
	assert.Equal(t, float32(1), batches[1].Labels[hicodet.NumVerbs+3])
}

func TestBatchesShuffleDeterminism(t *testing.T) {
	set := fixtureLabelSet(32)
	a := set.Batches(8, true, 42)
	b := set.Batches(8, true, 42)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Labels, b[i].Labels)
		assert.Equal(t, a[i].Prior, b[i].Prior)
	}

	c := set.Batches(8, true, 43)
	different := false
	for i := range a {
		if !assert.ObjectsAreEqual(a[i].Labels, c[i].Labels) {
			different = true
			break
		}
	}
	assert.True(t, different, "distinct seeds should permute differently")
}

func TestBatchMask(t *testing.T) {
	b := Batch{Prior: []float32{0, 0.5, 0, 1, 0.25, 0}, Size: 1}
	assert.Equal(t, []float32{0, 1, 0, 1, 1, 0}, b.Mask())
}
