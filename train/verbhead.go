package train

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/hoi-lab/go-hoi/hicodet"
)

// RepresentationSize is the hidden width of the verb-composition head.
const RepresentationSize = 1024

// VerbHead is a three-layer MLP over verb-label vectors. It reconstructs
// the label vector at the positions the prior marks active, trained with
// masked binary cross-entropy.
//
// The computation graph has a fixed batch dimension; one head instance
// serves one batch size.
type VerbHead struct {
	g     *G.ExprGraph
	batch int

	input  *G.Node // label vectors   [batch, NumVerbs]
	mask   *G.Node // active prior positions, 0/1
	target *G.Node

	w0, b0, w1, b1, w2, b2 *G.Node

	probs *G.Node
	loss  *G.Node

	probsVal G.Value
	lossVal  G.Value

	vm G.VM
}

// NewVerbHead builds the graph and tape machine for the given batch size.
func NewVerbHead(batch int) (*VerbHead, error) {
	if batch < 1 {
		return nil, errors.Errorf("batch size %d < 1", batch)
	}
	g := G.NewGraph()
	h := &VerbHead{g: g, batch: batch}

	h.input = G.NewMatrix(g, tensor.Float32, G.WithShape(batch, hicodet.NumVerbs), G.WithName("input"))
	h.mask = G.NewMatrix(g, tensor.Float32, G.WithShape(batch, hicodet.NumVerbs), G.WithName("mask"))
	h.target = G.NewMatrix(g, tensor.Float32, G.WithShape(batch, hicodet.NumVerbs), G.WithName("target"))

	h.w0 = G.NewMatrix(g, tensor.Float32, G.WithShape(hicodet.NumVerbs, RepresentationSize),
		G.WithName("w0"), G.WithInit(G.GlorotN(1.0)))
	h.b0 = G.NewMatrix(g, tensor.Float32, G.WithShape(1, RepresentationSize),
		G.WithName("b0"), G.WithInit(G.Zeroes()))
	h.w1 = G.NewMatrix(g, tensor.Float32, G.WithShape(RepresentationSize, RepresentationSize),
		G.WithName("w1"), G.WithInit(G.GlorotN(1.0)))
	h.b1 = G.NewMatrix(g, tensor.Float32, G.WithShape(1, RepresentationSize),
		G.WithName("b1"), G.WithInit(G.Zeroes()))
	h.w2 = G.NewMatrix(g, tensor.Float32, G.WithShape(RepresentationSize, hicodet.NumVerbs),
		G.WithName("w2"), G.WithInit(G.GlorotN(1.0)))
	h.b2 = G.NewMatrix(g, tensor.Float32, G.WithShape(1, hicodet.NumVerbs),
		G.WithName("b2"), G.WithInit(G.Zeroes()))

	if err := h.build(); err != nil {
		return nil, err
	}

	if _, err := G.Grad(h.loss, h.Learnables()...); err != nil {
		return nil, errors.Wrap(err, "build gradient")
	}
	h.vm = G.NewTapeMachine(g, G.BindDualValues(h.Learnables()...))
	return h, nil
}

func (h *VerbHead) build() error {
	layer := func(x, w, b *G.Node) (*G.Node, error) {
		xw, err := G.Mul(x, w)
		if err != nil {
			return nil, err
		}
		return G.BroadcastAdd(xw, b, nil, []byte{0})
	}

	h0, err := layer(h.input, h.w0, h.b0)
	if err != nil {
		return errors.Wrap(err, "layer 0")
	}
	h0 = G.Must(G.Rectify(h0))
	h1, err := layer(h0, h.w1, h.b1)
	if err != nil {
		return errors.Wrap(err, "layer 1")
	}
	h1 = G.Must(G.Rectify(h1))
	logits, err := layer(h1, h.w2, h.b2)
	if err != nil {
		return errors.Wrap(err, "layer 2")
	}

	probs, err := G.Sigmoid(logits)
	if err != nil {
		return errors.Wrap(err, "sigmoid")
	}
	h.probs = probs
	G.Read(h.probs, &h.probsVal)

	// Masked binary cross-entropy, averaged over active positions.
	one := G.NewConstant(float32(1.0))
	eps := G.NewConstant(float32(1e-8))
	posTerm := G.Must(G.HadamardProd(h.target, G.Must(G.Log(G.Must(G.Add(probs, eps))))))
	negTerm := G.Must(G.HadamardProd(
		G.Must(G.Sub(one, h.target)),
		G.Must(G.Log(G.Must(G.Add(G.Must(G.Sub(one, probs)), eps))))))
	bce := G.Must(G.Neg(G.Must(G.Add(posTerm, negTerm))))
	masked := G.Must(G.HadamardProd(bce, h.mask))

	total := G.Must(G.Sum(masked))
	count := G.Must(G.Add(G.Must(G.Sum(h.mask)), eps))
	loss, err := G.Div(total, count)
	if err != nil {
		return errors.Wrap(err, "loss")
	}
	h.loss = loss
	G.Read(h.loss, &h.lossVal)
	return nil
}

// Learnables returns the trainable parameters.
func (h *VerbHead) Learnables() G.Nodes {
	return G.Nodes{h.w0, h.b0, h.w1, h.b1, h.w2, h.b2}
}

// Batch returns the fixed batch size of the graph.
func (h *VerbHead) Batch() int { return h.batch }

func (h *VerbHead) bind(b Batch) error {
	if b.Size != h.batch {
		return errors.Errorf("batch size %d does not match graph batch %d", b.Size, h.batch)
	}
	shape := tensor.WithShape(h.batch, hicodet.NumVerbs)
	if err := G.Let(h.input, tensor.New(shape, tensor.WithBacking(b.Labels))); err != nil {
		return errors.Wrap(err, "bind input")
	}
	if err := G.Let(h.mask, tensor.New(shape, tensor.WithBacking(b.Mask()))); err != nil {
		return errors.Wrap(err, "bind mask")
	}
	if err := G.Let(h.target, tensor.New(shape, tensor.WithBacking(b.Labels))); err != nil {
		return errors.Wrap(err, "bind target")
	}
	return nil
}

// Forward runs one batch without updating weights.
//
// Returns:
// - The sigmoid outputs, flattened row-major [batch * NumVerbs].
// - The masked BCE loss.
func (h *VerbHead) Forward(b Batch) ([]float32, float64, error) {
	if err := h.bind(b); err != nil {
		return nil, 0, err
	}
	defer h.vm.Reset()
	if err := h.vm.RunAll(); err != nil {
		return nil, 0, errors.Wrap(err, "run forward pass")
	}
	return h.outputs()
}

// Step runs one batch and applies a solver update.
func (h *VerbHead) Step(b Batch, solver G.Solver) ([]float32, float64, error) {
	if err := h.bind(b); err != nil {
		return nil, 0, err
	}
	defer h.vm.Reset()
	if err := h.vm.RunAll(); err != nil {
		return nil, 0, errors.Wrap(err, "run training pass")
	}
	if err := solver.Step(G.NodesToValueGrads(h.Learnables())); err != nil {
		return nil, 0, errors.Wrap(err, "solver step")
	}
	return h.outputs()
}

func (h *VerbHead) outputs() ([]float32, float64, error) {
	probsT, ok := h.probsVal.(tensor.Tensor)
	if !ok {
		return nil, 0, errors.New("probabilities value is not a tensor")
	}
	data, ok := probsT.Data().([]float32)
	if !ok {
		return nil, 0, errors.New("probabilities are not float32")
	}
	out := make([]float32, len(data))
	copy(out, data)

	var loss float64
	switch v := h.lossVal.Data().(type) {
	case float32:
		loss = float64(v)
	case float64:
		loss = v
	default:
		return nil, 0, errors.New("loss value has unexpected type")
	}
	return out, loss, nil
}

// Close releases the tape machine.
func (h *VerbHead) Close() error {
	return h.vm.Close()
}

// NewSolver builds the momentum SGD solver used between milestone
// decays.
func NewSolver(lr, momentum, weightDecay float64) G.Solver {
	return G.NewMomentum(
		G.WithLearnRate(lr),
		G.WithMomentum(momentum),
		G.WithL2Reg(weightDecay),
	)
}
