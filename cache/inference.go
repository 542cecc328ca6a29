package cache

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/hoi-lab/go-hoi/detections"
	"github.com/hoi-lab/go-hoi/eval"
	"github.com/hoi-lab/go-hoi/hicodet"
	"github.com/hoi-lab/go-hoi/hoinet"
)

// RunInference fills a sparse results matrix by running the network over
// the partition, batch size 1, grouping each image's predictions by
// interaction class exactly as the evaluator does.
//
// Cells are addressed by the global image index, so images the iteration
// skips (no ground truth, no predictions, failed loads) stay as empty
// placeholders in the artifact.
func RunInference(net hoinet.Net, loader *detections.Loader, ds *hicodet.Dataset, imageDir string) (*Results, error) {
	results := NewResults(hicodet.NumInteractions, ds.NumImages())

	for sample := range loader.Samples() {
		if sample.Err != nil {
			log.Printf("skipping %s: %v", sample.Filename, sample.Err)
			continue
		}
		if sample.Detection.Len() == 0 {
			continue
		}
		img, err := loadImage(imageDir, sample.Filename)
		if err != nil {
			log.Printf("skipping %s: %v", sample.Filename, err)
			continue
		}
		pred, err := net.Predict(img, sample.Detection)
		if err != nil {
			return nil, errors.Wrapf(err, "inference on %s", sample.Filename)
		}
		if pred == nil || pred.Len() == 0 {
			continue
		}
		_, runs, err := eval.GroupByInteraction(pred.Objects, pred.Verbs, ds)
		if err != nil {
			return nil, errors.Wrapf(err, "image %s", sample.Filename)
		}
		for _, run := range runs {
			for _, idx := range run.Index {
				row := NewRow(pred.BoxesH[idx], pred.BoxesO[idx], pred.Scores[idx])
				if err := results.Append(run.Class, sample.Image, row); err != nil {
					return nil, errors.Wrapf(err, "image %s", sample.Filename)
				}
			}
		}
	}
	return results, nil
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
