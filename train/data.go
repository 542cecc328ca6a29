package train

import (
	"encoding/gob"
	"math/rand"
	"os"

	"github.com/pkg/errors"

	"github.com/hoi-lab/go-hoi/hicodet"
)

// LabelSet is a preprocessed verb-label dataset: per sample a prior
// vector (which verb slots are active) and a target label vector, both of
// length hicodet.NumVerbs.
type LabelSet struct {
	Prior  [][]float32
	Labels [][]float32
}

// Len returns the number of samples.
func (s *LabelSet) Len() int { return len(s.Labels) }

// Validate checks the row shapes.
func (s *LabelSet) Validate() error {
	if len(s.Prior) != len(s.Labels) {
		return errors.Errorf("prior rows %d != label rows %d", len(s.Prior), len(s.Labels))
	}
	for i := range s.Prior {
		if len(s.Prior[i]) != hicodet.NumVerbs || len(s.Labels[i]) != hicodet.NumVerbs {
			return errors.Errorf("row %d: expected width %d, got prior=%d labels=%d",
				i, hicodet.NumVerbs, len(s.Prior[i]), len(s.Labels[i]))
		}
	}
	return nil
}

// LoadLabelSet reads a gob-encoded label set.
func LoadLabelSet(path string) (*LabelSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open label set %s", path)
	}
	defer f.Close()
	var set LabelSet
	if err := gob.NewDecoder(f).Decode(&set); err != nil {
		return nil, errors.Wrapf(err, "decode label set %s", path)
	}
	if err := set.Validate(); err != nil {
		return nil, errors.Wrapf(err, "label set %s", path)
	}
	return &set, nil
}

// Save writes the label set as gob.
func (s *LabelSet) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create label set %s", path)
	}
	defer f.Close()
	return errors.Wrapf(gob.NewEncoder(f).Encode(s), "encode label set %s", path)
}

// Batch is a flattened row-major slice of `Size` samples.
type Batch struct {
	Prior  []float32
	Labels []float32
	Size   int
}

// Batches splits the set into fixed-size batches. The graph shape is
// fixed per batch size, so a trailing partial batch is dropped. With
// shuffle, sample order is permuted deterministically from the seed.
func (s *LabelSet) Batches(size int, shuffle bool, seed int64) []Batch {
	n := s.Len()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if shuffle {
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	var batches []Batch
	for start := 0; start+size <= n; start += size {
		b := Batch{
			Prior:  make([]float32, 0, size*hicodet.NumVerbs),
			Labels: make([]float32, 0, size*hicodet.NumVerbs),
			Size:   size,
		}
		for _, i := range order[start : start+size] {
			b.Prior = append(b.Prior, s.Prior[i]...)
			b.Labels = append(b.Labels, s.Labels[i]...)
		}
		batches = append(batches, b)
	}
	return batches
}

// Mask returns the 0/1 mask of active prior positions, flattened like the
// batch rows.
func (b *Batch) Mask() []float32 {
	mask := make([]float32, len(b.Prior))
	for i, p := range b.Prior {
		if p != 0 {
			mask[i] = 1
		}
	}
	return mask
}
