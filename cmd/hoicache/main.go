// Command hoicache runs an exported interaction network over a
// partition and caches its raw output as one JSON file per COCO object
// category, for consumption by external evaluation tooling.
package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"github.com/hoi-lab/go-hoi/cache"
	"github.com/hoi-lab/go-hoi/detections"
	"github.com/hoi-lab/go-hoi/hicodet"
	"github.com/hoi-lab/go-hoi/hoinet"
)

const (
	// DefaultThresh is the confidence cut-off for cached detections; higher
	// than evaluation thresholds since the artifact keeps only confident
	// output.
	DefaultThresh = 0.5
)

func main() {
	var (
		dataRoot     string
		detectionDir string
		imageDir     string
		cacheDir     string
		partition    string
		modelPath    string
		cocoMapPath  string
		humanThresh  float64
		objectThresh float64
		numWorkers   int
		inputWidth   int
		inputHeight  int
	)
	flag.StringVar(&dataRoot, "data-root", "./hicodet", "Directory with instances_<partition>.json files")
	flag.StringVar(&detectionDir, "detection-dir", "", "Directory with per-image detection JSON files")
	flag.StringVar(&imageDir, "image-dir", "", "Directory with partition images")
	flag.StringVar(&cacheDir, "cache-dir", "./cache", "Output directory for per-category files")
	flag.StringVar(&partition, "partition", "test2015", "Dataset partition to cache")
	flag.StringVar(&modelPath, "model-path", "", "Path to the exported ONNX interaction network")
	flag.StringVar(&cocoMapPath, "coco-map", "coco80tohico80.json", "COCO index to HICO object class map")
	flag.Float64Var(&humanThresh, "human-thresh", DefaultThresh, "Confidence threshold for human detections")
	flag.Float64Var(&objectThresh, "object-thresh", DefaultThresh, "Confidence threshold for object detections")
	flag.IntVar(&numWorkers, "num-workers", 4, "Detection prefetch workers")
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
	cocoToHICO, err := hicodet.LoadCOCOToHICO(cocoMapPath)
	if err != nil {
		log.Fatalf("load COCO map: %v", err)
	}

	net, err := hoinet.NewSession(hoinet.SessionConfig{
		ModelPath:   modelPath,
		InputWidth:  inputWidth,
		InputHeight: inputHeight,
	})
	if err != nil {
		log.Fatalf("load interaction network: %v", err)
	}
	defer net.Destroy()

	loader := detections.NewLoader(ds, detectionDir, detections.FilterConfig{
		HumanIdx:     hicodet.HumanIdx,
		HumanThresh:  float32(humanThresh),
		ObjectThresh: float32(objectThresh),
	}, numWorkers)

	results, err := cache.RunInference(net, loader, ds, imageDir)
	if err != nil {
		log.Fatalf("run inference: %v", err)
	}
	if err := cache.WriteCategoryFiles(cacheDir, results, cocoToHICO, ds); err != nil {
		log.Fatalf("write cache: %v", err)
	}
	log.Printf("cached %d occupied cells to %s", results.Occupied(), cacheDir)
}
