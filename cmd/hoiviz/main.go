// Command hoiviz renders the interaction network's predictions for a
// single image: human and object boxes, their pairing and the
// interaction score.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"

	"github.com/hoi-lab/go-hoi/detections"
	"github.com/hoi-lab/go-hoi/hicodet"
	"github.com/hoi-lab/go-hoi/hoinet"
	"github.com/hoi-lab/go-hoi/render"
)

func main() {
	var (
		dataRoot     string
		detectionDir string
		imageDir     string
		partition    string
		modelPath    string
		outputDir    string
		index        int
		minScore     float64
		humanThresh  float64
		objectThresh float64
		inputWidth   int
		inputHeight  int
	)
	flag.StringVar(&dataRoot, "data-root", "./hicodet", "Directory with instances_<partition>.json files")
	flag.StringVar(&detectionDir, "detection-dir", "", "Directory with per-image detection JSON files")
	flag.StringVar(&imageDir, "image-dir", "", "Directory with partition images")
	flag.StringVar(&partition, "partition", "test2015", "Dataset partition")
	flag.StringVar(&modelPath, "model-path", "", "Path to the exported ONNX interaction network")
	flag.StringVar(&outputDir, "output-dir", "./rendered", "Output directory for annotated images")
	flag.IntVar(&index, "index", 0, "Intra index of the image to render")
	flag.Float64Var(&minScore, "min-score", 0.2, "Hide pairs scored below this")
	flag.Float64Var(&humanThresh, "human-thresh", 0.2, "Confidence threshold for human detections")
	flag.Float64Var(&objectThresh, "object-thresh", 0.2, "Confidence threshold for object detections")
	flag.IntVar(&inputWidth, "input-width", 800, "Model input width")
	flag.IntVar(&inputHeight, "input-height", 800, "Model input height")
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if detectionDir == "" || imageDir == "" || modelPath == "" {
		log.Fatal("-detection-dir, -image-dir and -model-path are required")
	}

	ds, err := hicodet.Load(filepath.Join(dataRoot, fmt.Sprintf("instances_%s.json", partition)))
	if err != nil {
		log.Fatalf("load %s partition: %v", partition, err)
	}
	if index < 0 || index >= ds.Len() {
		log.Fatalf("index %d outside [0, %d)", index, ds.Len())
	}

	cfg := detections.FilterConfig{
		HumanIdx:     hicodet.HumanIdx,
		HumanThresh:  float32(humanThresh),
		ObjectThresh: float32(objectThresh),
	}
	loader := detections.NewLoader(ds, detectionDir, cfg, 1)
	filename := ds.Filename(index)
	det, err := detections.Load(loader.DetectionPath(filename))
	if err != nil {
		log.Fatalf("load detections: %v", err)
	}
	det = detections.Filter(det, cfg)

	net, err := hoinet.NewSession(hoinet.SessionConfig{
		ModelPath:   modelPath,
		InputWidth:  inputWidth,
		InputHeight: inputHeight,
	})
	if err != nil {
		log.Fatalf("load interaction network: %v", err)
	}
	defer net.Destroy()

	imagePath := filepath.Join(imageDir, filename)
	img, err := decodeImage(imagePath)
	if err != nil {
		log.Fatalf("load image: %v", err)
	}
	pred, err := net.Predict(img, det)
	if err != nil {
		log.Fatalf("inference on %s: %v", filename, err)
	}

	canvas, err := render.LoadImage(imagePath)
	if err != nil {
		log.Fatalf("load canvas: %v", err)
	}
	defer canvas.Close()

	opts := render.DefaultOptions()
	opts.MinScore = float32(minScore)
	drawn := render.DrawPairs(&canvas, pred, opts)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}
	outPath := filepath.Join(outputDir, filename)
	if err := render.SaveImage(outPath, canvas); err != nil {
		log.Fatalf("save annotated image: %v", err)
	}
	log.Printf("rendered %d pairs for %s to %s", drawn, filename, outPath)
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}
