package train

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// WeightTensor is one parameter tensor in transferable form.
type WeightTensor struct {
	Name  string
	Shape []int
	Data  []float32
}

// Checkpoint is the training state persisted after every epoch: model
// weights plus the counters needed to resume.
type Checkpoint struct {
	Iteration    int
	Epoch        int
	LearningRate float64
	Weights      []WeightTensor
}

// CheckpointName formats the per-epoch checkpoint filename.
func CheckpointName(iteration, epoch int) string {
	return fmt.Sprintf("ckpt_%05d_%02d.gob", iteration, epoch)
}

// SaveCheckpoint writes a checkpoint as gob.
func SaveCheckpoint(path string, ck *Checkpoint) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create checkpoint %s", path)
	}
	defer f.Close()
	return errors.Wrapf(gob.NewEncoder(f).Encode(ck), "encode checkpoint %s", path)
}

// LoadCheckpoint reads a gob checkpoint.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open checkpoint %s", path)
	}
	defer f.Close()
	var ck Checkpoint
	if err := gob.NewDecoder(f).Decode(&ck); err != nil {
		return nil, errors.Wrapf(err, "decode checkpoint %s", path)
	}
	return &ck, nil
}

// StateDict exports the head's parameters by name.
func (h *VerbHead) StateDict() ([]WeightTensor, error) {
	var weights []WeightTensor
	for _, node := range h.Learnables() {
		val := node.Value()
		if val == nil {
			return nil, errors.Errorf("parameter %s has no value", node.Name())
		}
		t, ok := val.(tensor.Tensor)
		if !ok {
			return nil, errors.Errorf("parameter %s is not a tensor", node.Name())
		}
		data, ok := t.Data().([]float32)
		if !ok {
			return nil, errors.Errorf("parameter %s is not float32", node.Name())
		}
		w := WeightTensor{
			Name:  node.Name(),
			Shape: append([]int(nil), t.Shape()...),
			Data:  append([]float32(nil), data...),
		}
		weights = append(weights, w)
	}
	return weights, nil
}

// LoadStateDict restores parameters by name. Every learnable must be
// present with a matching shape.
func (h *VerbHead) LoadStateDict(weights []WeightTensor) error {
	byName := make(map[string]WeightTensor, len(weights))
	for _, w := range weights {
		byName[w.Name] = w
	}
	for _, node := range h.Learnables() {
		w, ok := byName[node.Name()]
		if !ok {
			return errors.Errorf("checkpoint is missing parameter %s", node.Name())
		}
		want := node.Shape()
		if len(w.Shape) != len(want) {
			return errors.Errorf("parameter %s: checkpoint rank %d, graph rank %d",
				node.Name(), len(w.Shape), len(want))
		}
		size := 1
		for i, d := range w.Shape {
			if d != want[i] {
				return errors.Errorf("parameter %s: checkpoint shape %v, graph shape %v",
					node.Name(), w.Shape, want)
			}
			size *= d
		}
		if len(w.Data) != size {
			return errors.Errorf("parameter %s: %d values for shape %v", node.Name(), len(w.Data), w.Shape)
		}
		backing := append([]float32(nil), w.Data...)
		t := tensor.New(tensor.WithShape(w.Shape...), tensor.WithBacking(backing))
		if err := G.Let(node, t); err != nil {
			return errors.Wrapf(err, "restore parameter %s", node.Name())
		}
	}
	return nil
}
