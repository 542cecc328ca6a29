package train

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/hoi-lab/go-hoi/eval"
	"github.com/hoi-lab/go-hoi/hicodet"
)

// Config tunes a training run.
type Config struct {
	Epochs        int
	BatchSize     int
	LearningRate  float64
	Momentum      float64
	WeightDecay   float64
	Milestones    []int
	Gamma         float64
	PrintInterval int
	CacheDir      string
	Seed          int64
}

// State is the explicit training state the engine threads through its
// lifecycle. Hooks receive and may inspect it; the engine owns mutation.
type State struct {
	// Epoch is 1-based once training starts; Iteration counts batches
	// across epochs.
	Epoch     int
	Iteration int
	LR        float64
	Head      *VerbHead

	RunningLoss *NumericalMeter
	TData       *NumericalMeter
	TIter       *NumericalMeter

	// TrainAP and TestAP hold the most recent per-class AP vectors,
	// populated at each epoch end.
	TrainAP []float64
	TestAP  []float64
}

// Hooks are optional lifecycle extension points. Nil hooks are skipped.
// An error from a hook aborts the run.
type Hooks struct {
	OnStartEpoch     func(*State) error
	OnStartIteration func(*State) error
	// OnEachIteration runs after the weight update, before the iteration
	// bookkeeping completes.
	OnEachIteration func(*State) error
	OnEndIteration  func(*State) error
	OnEndEpoch      func(*State) error
}

// Engine drives the verb-head training loop: per-epoch shuffled batches,
// momentum SGD with multi-step decay, AP meters over the sigmoid
// outputs, and a checkpoint after every epoch.
type Engine struct {
	cfg      Config
	head     *VerbHead
	trainSet *LabelSet
	testSet  *LabelSet
	hooks    Hooks
	schedule MultiStepSchedule
	state    State
}

// NewEngine wires a training run. The head's batch size must match
// cfg.BatchSize.
func NewEngine(head *VerbHead, trainSet, testSet *LabelSet, cfg Config, hooks Hooks) (*Engine, error) {
	if head.Batch() != cfg.BatchSize {
		return nil, errors.Errorf("head batch %d does not match config batch %d",
			head.Batch(), cfg.BatchSize)
	}
	if cfg.PrintInterval < 1 {
		cfg.PrintInterval = 100
	}
	e := &Engine{
		cfg:      cfg,
		head:     head,
		trainSet: trainSet,
		testSet:  testSet,
		hooks:    hooks,
		schedule: MultiStepSchedule{Base: cfg.LearningRate, Milestones: cfg.Milestones, Gamma: cfg.Gamma},
	}
	e.state = State{
		Head:        head,
		LR:          cfg.LearningRate,
		RunningLoss: NewNumericalMeter(cfg.PrintInterval),
		TData:       NewNumericalMeter(cfg.PrintInterval),
		TIter:       NewNumericalMeter(cfg.PrintInterval),
	}
	return e, nil
}

// State exposes the current training state, e.g. for resuming.
func (e *Engine) State() *State { return &e.state }

// Resume restores counters and weights from a checkpoint.
func (e *Engine) Resume(ck *Checkpoint) error {
	if err := e.head.LoadStateDict(ck.Weights); err != nil {
		return err
	}
	e.state.Epoch = ck.Epoch
	e.state.Iteration = ck.Iteration
	return nil
}

// Run executes the remaining epochs.
func (e *Engine) Run() error {
	dawn := time.Now()
	for e.state.Epoch < e.cfg.Epochs {
		if err := e.runEpoch(); err != nil {
			return err
		}
	}
	log.Printf("training finished at (+%.2fs)", time.Since(dawn).Seconds())
	return nil
}

func (e *Engine) runEpoch() error {
	s := &e.state
	s.Epoch++
	s.LR = e.schedule.Rate(s.Epoch - 1)
	solver := NewSolver(s.LR, e.cfg.Momentum, e.cfg.WeightDecay)

	if err := callHook(e.hooks.OnStartEpoch, s); err != nil {
		return err
	}

	apTrain := eval.NewMeter(hicodet.NumVerbs, eval.WithAlgorithm(eval.Alg11P))
	batches := e.trainSet.Batches(e.cfg.BatchSize, true, e.cfg.Seed+int64(s.Epoch))
	numIter := len(batches)
	timestamp := time.Now()

	for _, b := range batches {
		s.Iteration++
		s.TData.Append(time.Since(timestamp).Seconds())
		if err := callHook(e.hooks.OnStartIteration, s); err != nil {
			return err
		}

		probs, loss, err := e.head.Step(b, solver)
		if err != nil {
			return errors.Wrapf(err, "iteration %d", s.Iteration)
		}
		if err := callHook(e.hooks.OnEachIteration, s); err != nil {
			return err
		}
		if err := appendMasked(apTrain, probs, &b); err != nil {
			return err
		}

		s.RunningLoss.Append(loss)
		s.TIter.Append(time.Since(timestamp).Seconds())
		timestamp = time.Now()
		if err := callHook(e.hooks.OnEndIteration, s); err != nil {
			return err
		}

		if s.Iteration%e.cfg.PrintInterval == 0 {
			width := len(fmt.Sprint(numIter))
			log.Printf("Epoch [%d/%d], Iter. [%0*d/%d], Loss: %.4f, Time[Data/Iter.]: [%.2fs/%.2fs]",
				s.Epoch, e.cfg.Epochs,
				width, s.Iteration-numIter*(s.Epoch-1), numIter,
				s.RunningLoss.Mean(), s.TData.Sum(), s.TIter.Sum())
			s.RunningLoss.Reset()
			s.TData.Reset()
			s.TIter.Reset()
		}
	}

	if err := e.endEpoch(apTrain); err != nil {
		return err
	}
	return callHook(e.hooks.OnEndEpoch, s)
}

func (e *Engine) endEpoch(apTrain *eval.Meter) error {
	s := &e.state

	weights, err := e.head.StateDict()
	if err != nil {
		return err
	}
	ck := &Checkpoint{
		Iteration:    s.Iteration,
		Epoch:        s.Epoch,
		LearningRate: s.LR,
		Weights:      weights,
	}
	path := filepath.Join(e.cfg.CacheDir, CheckpointName(s.Iteration, s.Epoch))
	if err := SaveCheckpoint(path, ck); err != nil {
		return err
	}

	var timer Stopwatch
	var evalErr error
	timer.Time(func() {
		s.TrainAP, evalErr = apTrain.Eval()
	})
	if evalErr != nil {
		return evalErr
	}
	timer.Time(func() {
		s.TestAP, evalErr = e.testAP()
	})
	if evalErr != nil {
		return evalErr
	}

	log.Printf("Epoch: %d | training mAP: %.4f, eval. time: %.2fs | test mAP: %.4f, total time: %.2fs",
		s.Epoch, eval.MeanAP(s.TrainAP), timer.Segment(0),
		eval.MeanAP(s.TestAP), timer.Segment(1))
	return nil
}

// testAP runs the test set through the head without weight updates and
// aggregates verb-classification AP.
func (e *Engine) testAP() ([]float64, error) {
	meter := eval.NewMeter(hicodet.NumVerbs, eval.WithAlgorithm(eval.Alg11P))
	for _, b := range e.testSet.Batches(e.cfg.BatchSize, false, 0) {
		probs, _, err := e.head.Forward(b)
		if err != nil {
			return nil, err
		}
		if err := appendMasked(meter, probs, &b); err != nil {
			return nil, err
		}
	}
	return meter.Eval()
}

// appendMasked feeds the active (sample, verb) positions of a batch into
// the AP meter: the verb index is the class, the sigmoid output the
// score, the target the correctness label.
func appendMasked(meter *eval.Meter, probs []float32, b *Batch) error {
	var scores, labels []float32
	var classes []int
	for i := 0; i < b.Size; i++ {
		for j := 0; j < hicodet.NumVerbs; j++ {
			k := i*hicodet.NumVerbs + j
			if b.Prior[k] == 0 {
				continue
			}
			scores = append(scores, probs[k])
			classes = append(classes, j)
			labels = append(labels, b.Labels[k])
		}
	}
	return meter.Append(scores, classes, labels)
}

func callHook(h func(*State) error, s *State) error {
	if h == nil {
		return nil
	}
	return h(s)
}
