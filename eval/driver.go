package eval

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/hoi-lab/go-hoi/common"
	"github.com/hoi-lab/go-hoi/detections"
	"github.com/hoi-lab/go-hoi/hicodet"
	"github.com/hoi-lab/go-hoi/hoinet"
)

// Config tunes one evaluation pass.
type Config struct {
	// MinIoU is the association overlap threshold (DefaultMinIoU when 0).
	MinIoU float32
	// Algorithm integrates the precision-recall curve (Alg11P when "").
	Algorithm Algorithm
	// ImageDir holds the partition's images. Empty means the network does
	// not consume pixels and Predict receives a nil image.
	ImageDir string
	// TrainCounts are the per-interaction ground-truth counts of the
	// training partition, used for the rare/non-rare split. Nil disables
	// the split.
	TrainCounts []int
}

// Report aggregates one evaluation pass.
type Report struct {
	// AP is the per-interaction-class average precision vector.
	AP []float64
	// Full is the mean over all classes.
	Full float64
	// Rare and NonRare are sub-means over classes with fewer than /at
	// least RareThreshold training instances. Zero when no split was
	// requested.
	Rare    float64
	NonRare float64
	// Images is the number of images that contributed predictions;
	// Skipped counts images dropped for load failures.
	Images  int
	Skipped int
}

// Evaluate runs the network over a partition and aggregates detection
// mAP. Inference is sequential with batch size 1; the loader prefetches
// and filters samples in the background.
//
// Failed sample loads are logged and skipped. An undefined (object, verb)
// combination aborts the pass: it signals a label-space inconsistency,
// not a bad image.
func Evaluate(net hoinet.Net, loader *detections.Loader, ds *hicodet.Dataset, cfg Config) (*Report, error) {
	associator := NewPairAssociator(cfg.MinIoU)
	alg := cfg.Algorithm
	if alg == "" {
		alg = Alg11P
	}
	meter := NewMeter(hicodet.NumInteractions,
		WithAlgorithm(alg),
		WithNumGT(ds.AnnoInteraction()))

	report := &Report{}
	for sample := range loader.Samples() {
		if sample.Err != nil {
			log.Printf("skipping %s: %v", sample.Filename, sample.Err)
			report.Skipped++
			continue
		}
		if sample.Detection.Len() == 0 {
			continue
		}
		img, err := loadImage(cfg.ImageDir, sample.Filename)
		if err != nil {
			log.Printf("skipping %s: %v", sample.Filename, err)
			report.Skipped++
			continue
		}
		pred, err := net.Predict(img, sample.Detection)
		if err != nil {
			return nil, errors.Wrapf(err, "inference on %s", sample.Filename)
		}
		if pred == nil || pred.Len() == 0 {
			continue
		}
		if err := scoreImage(meter, associator, pred, sample.Anno, ds); err != nil {
			return nil, errors.Wrapf(err, "image %s", sample.Filename)
		}
		report.Images++
	}

	ap, err := meter.Eval()
	if err != nil {
		return nil, err
	}
	report.AP = ap
	report.Full = MeanAP(ap)
	if cfg.TrainCounts != nil {
		rare := make([]bool, len(cfg.TrainCounts))
		nonRare := make([]bool, len(cfg.TrainCounts))
		for i, n := range cfg.TrainCounts {
			rare[i] = n < hicodet.RareThreshold
			nonRare[i] = !rare[i]
		}
		report.Rare = MeanAPSubset(ap, rare)
		report.NonRare = MeanAPSubset(ap, nonRare)
	}
	return report, nil
}

// scoreImage associates one image's predictions with its ground truth and
// appends the labeled scores to the meter, grouped by interaction class.
func scoreImage(meter *Meter, associator PairAssociator, pred *hoinet.Prediction, anno *hicodet.ImageAnno, lookup Lookup) error {
	interactions, runs, err := GroupByInteraction(pred.Objects, pred.Verbs, lookup)
	if err != nil {
		return err
	}

	labels := make([]float32, pred.Len())
	for _, run := range runs {
		gtH, gtO := gtPairs(anno, run.Class)
		if len(gtH) == 0 {
			continue // every prediction of this class stays a false positive
		}
		detH := make([]common.Box, len(run.Index))
		detO := make([]common.Box, len(run.Index))
		scores := make([]float32, len(run.Index))
		for i, idx := range run.Index {
			detH[i] = pred.BoxesH[idx]
			detO[i] = pred.BoxesO[idx]
			scores[i] = pred.Scores[idx]
		}
		runLabels := associator.Associate(gtH, gtO, detH, detO, scores)
		for i, idx := range run.Index {
			labels[idx] = runLabels[i]
		}
	}
	return meter.Append(pred.Scores, interactions, labels)
}

// gtPairs collects the ground-truth box pairs of one interaction class.
func gtPairs(anno *hicodet.ImageAnno, class int) ([]common.Box, []common.Box) {
	var h, o []common.Box
	for i, hoi := range anno.Interactions {
		if hoi == class {
			h = append(h, anno.BoxesH[i])
			o = append(o, anno.BoxesO[i])
		}
	}
	return h, o
}

func loadImage(dir, filename string) (image.Image, error) {
	if dir == "" {
		return nil, nil
	}
	f, err := os.Open(filepath.Join(dir, filename))
	if err != nil {
		return nil, errors.Wrap(err, "open image")
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, errors.Wrap(err, "decode image")
}
