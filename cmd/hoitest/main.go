// Command hoitest evaluates an exported interaction network on a
// HICO-DET partition and reports full, rare and non-rare mAP.
package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"github.com/hoi-lab/go-hoi/detections"
	"github.com/hoi-lab/go-hoi/eval"
	"github.com/hoi-lab/go-hoi/hicodet"
	"github.com/hoi-lab/go-hoi/hoinet"
)

const (
	// DefaultHumanThresh keeps human detections scored at or above it.
	DefaultHumanThresh = 0.2
	// DefaultObjectThresh keeps object detections scored at or above it.
	DefaultObjectThresh = 0.2
)

func main() {
	var (
		dataRoot     string
		detectionDir string
		imageDir     string
		partition    string
		modelPath    string
		humanThresh  float64
		objectThresh float64
		minIoU       float64
		numWorkers   int
		inputWidth   int
		inputHeight  int
	)
	flag.StringVar(&dataRoot, "data-root", "./hicodet", "Directory with instances_<partition>.json files")
	flag.StringVar(&detectionDir, "detection-dir", "", "Directory with per-image detection JSON files")
	flag.StringVar(&imageDir, "image-dir", "", "Directory with partition images")
	flag.StringVar(&partition, "partition", "test2015", "Dataset partition to evaluate")
	flag.StringVar(&modelPath, "model-path", "", "Path to the exported ONNX interaction network")
	flag.Float64Var(&humanThresh, "human-thresh", DefaultHumanThresh, "Confidence threshold for human detections")
	flag.Float64Var(&objectThresh, "object-thresh", DefaultObjectThresh, "Confidence threshold for object detections")
	flag.Float64Var(&minIoU, "min-iou", float64(eval.DefaultMinIoU), "Box pair association IoU threshold")
	flag.IntVar(&numWorkers, "num-workers", 4, "Detection prefetch workers")
	flag.IntVar(&inputWidth, "input-width", 800, "Model input width")
	flag.IntVar(&inputHeight, "input-height", 800, "Model input height")
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if detectionDir == "" || imageDir == "" || modelPath == "" {
		log.Fatal("-detection-dir, -image-dir and -model-path are required")
	}

	testSet, err := hicodet.Load(filepath.Join(dataRoot, fmt.Sprintf("instances_%s.json", partition)))
	if err != nil {
		log.Fatalf("load %s partition: %v", partition, err)
	}
	trainSet, err := hicodet.Load(filepath.Join(dataRoot, "instances_train2015.json"))
	if err != nil {
		log.Fatalf("load train2015 partition: %v", err)
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

	loader := detections.NewLoader(testSet, detectionDir, detections.FilterConfig{
		HumanIdx:     hicodet.HumanIdx,
		HumanThresh:  float32(humanThresh),
		ObjectThresh: float32(objectThresh),
	}, numWorkers)

	report, err := eval.Evaluate(net, loader, testSet, eval.Config{
		MinIoU:      float32(minIoU),
		ImageDir:    imageDir,
		TrainCounts: trainSet.AnnoInteraction(),
	})
	if err != nil {
		log.Fatalf("evaluate %s: %v", partition, err)
	}

	log.Printf("evaluated %d images, skipped %d", report.Images, report.Skipped)
	fmt.Printf("Full: %.4f, rare: %.4f, non-rare: %.4f\n", report.Full, report.Rare, report.NonRare)
}
