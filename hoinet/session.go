package hoinet

import (
	"image"
	"os"
	"runtime"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/hoi-lab/go-hoi/common"
	"github.com/hoi-lab/go-hoi/detections"
)

// SessionConfig describes the exported interaction-network model.
type SessionConfig struct {
	// ModelPath is the ONNX model file.
	ModelPath string
	// InputWidth and InputHeight are the fixed model input dimensions the
	// image is resized to.
	InputWidth  int
	InputHeight int
}

// Session runs the exported interaction network over ONNX Runtime.
//
// Tensor contract, all batch-free:
//
//	inputs:  image  float32 [1, 3, H, W]
//	         boxes  float32 [N, 4]   (input-frame coordinates)
//	         labels int64   [N]
//	         scores float32 [N]
//	outputs: pair_index  int64   [M, 2]  (human, object indices into boxes)
//	         pred_verb   int64   [M]
//	         pred_score  float32 [M]
//
// The network internals are out of scope here; this is glue around a
// fixed contract.
type Session struct {
	cfg     SessionConfig
	session *ort.DynamicAdvancedSession
}

var inputNames = []string{"image", "boxes", "labels", "scores"}
var outputNames = []string{"pair_index", "pred_verb", "pred_score"}

// NewSession initializes the ONNX Runtime environment and loads the
// model. Call Destroy when done.
func NewSession(cfg SessionConfig) (*Session, error) {
	ort.SetSharedLibraryPath(sharedLibPath())
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, errors.Wrap(err, "initialize onnxruntime environment")
		}
	}
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "create session options")
	}
	defer opts.Destroy()

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, inputNames, outputNames, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "load interaction network %s", cfg.ModelPath)
	}
	return &Session{cfg: cfg, session: session}, nil
}

// Destroy releases the underlying ONNX Runtime session.
func (s *Session) Destroy() error {
	return s.session.Destroy()
}

// Predict implements Net. A nil prediction means the network produced no
// box pairs for this image.
func (s *Session) Predict(img image.Image, det *detections.Detection) (*Prediction, error) {
	if det.Len() == 0 {
		return nil, nil
	}
	if img == nil {
		return nil, errors.New("interaction network consumes pixels: no image provided")
	}
	bounds := img.Bounds()

	flat := make([]float32, 0, det.Len()*4)
	for _, b := range det.Boxes {
		flat = append(flat, b.X1, b.Y1, b.X2, b.Y2)
	}
	scaled := scaleBoxes(flat, bounds.Dx(), bounds.Dy(), s.cfg.InputWidth, s.cfg.InputHeight)
	labels := make([]int64, det.Len())
	for i, l := range det.Labels {
		labels[i] = int64(l)
	}

	imageTensor, err := ort.NewTensor(
		ort.NewShape(1, 3, int64(s.cfg.InputHeight), int64(s.cfg.InputWidth)),
		imageToCHW(img, s.cfg.InputWidth, s.cfg.InputHeight))
	if err != nil {
		return nil, errors.Wrap(err, "create image tensor")
	}
	defer imageTensor.Destroy()
	boxTensor, err := ort.NewTensor(ort.NewShape(int64(det.Len()), 4), scaled)
	if err != nil {
		return nil, errors.Wrap(err, "create box tensor")
	}
	defer boxTensor.Destroy()
	labelTensor, err := ort.NewTensor(ort.NewShape(int64(det.Len())), labels)
	if err != nil {
		return nil, errors.Wrap(err, "create label tensor")
	}
	defer labelTensor.Destroy()
	scoreTensor, err := ort.NewTensor(ort.NewShape(int64(det.Len())), det.Scores)
	if err != nil {
		return nil, errors.Wrap(err, "create score tensor")
	}
	defer scoreTensor.Destroy()

	outputs := make([]ort.Value, len(outputNames))
	err = s.session.Run(
		[]ort.Value{imageTensor, boxTensor, labelTensor, scoreTensor}, outputs)
	if err != nil {
		return nil, errors.Wrap(err, "run interaction network")
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				o.Destroy()
			}
		}
	}()

	pairIndex, ok := outputs[0].(*ort.Tensor[int64])
	if !ok {
		return nil, errors.New("pair_index output has unexpected element type")
	}
	predVerb, ok := outputs[1].(*ort.Tensor[int64])
	if !ok {
		return nil, errors.New("pred_verb output has unexpected element type")
	}
	predScore, ok := outputs[2].(*ort.Tensor[float32])
	if !ok {
		return nil, errors.New("pred_score output has unexpected element type")
	}

	return s.decode(det, pairIndex.GetData(), predVerb.GetData(), predScore.GetData())
}

// decode resolves pair indices back to original-frame boxes and derives
// the implicit object class from the object box's detection label.
func (s *Session) decode(det *detections.Detection, pairs, verbs []int64, scores []float32) (*Prediction, error) {
	m := len(scores)
	if len(verbs) != m || len(pairs) != 2*m {
		return nil, errors.Errorf("inconsistent output sizes: pairs=%d verbs=%d scores=%d",
			len(pairs), len(verbs), m)
	}
	if m == 0 {
		return nil, nil
	}
	pred := &Prediction{
		BoxesH:  make([]common.Box, m),
		BoxesO:  make([]common.Box, m),
		Objects: make([]int, m),
		Verbs:   make([]int, m),
		Scores:  scores,
	}
	for i := 0; i < m; i++ {
		h, o := int(pairs[2*i]), int(pairs[2*i+1])
		if h < 0 || h >= det.Len() || o < 0 || o >= det.Len() {
			return nil, errors.Errorf("pair %d references box (%d, %d) outside [0, %d)",
				i, h, o, det.Len())
		}
		pred.BoxesH[i] = det.Boxes[h]
		pred.BoxesO[i] = det.Boxes[o]
		pred.Objects[i] = det.Labels[o]
		pred.Verbs[i] = int(verbs[i])
	}
	return pred, nil
}

// sharedLibPath locates the ONNX Runtime shared library, preferring the
// ONNXRUNTIME_SHARED_LIBRARY_PATH environment variable.
func sharedLibPath() string {
	if p := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); p != "" {
		return p
	}
	switch runtime.GOOS {
	case "windows":
		return "third_party/onnxruntime.dll"
	case "darwin":
		if runtime.GOARCH == "arm64" {
			return "third_party/onnxruntime_arm64.dylib"
		}
		return "third_party/onnxruntime_amd64.dylib"
	default:
		if runtime.GOARCH == "arm64" {
			return "third_party/onnxruntime_arm64.so"
		}
		return "third_party/onnxruntime.so"
	}
}
