// Command hoitrain trains the verb-composition head on preprocessed
// verb-label sets, checkpointing after every epoch.
package main

import (
	"flag"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/hoi-lab/go-hoi/train"
)

const (
	DefaultEpochs        = 20
	DefaultBatchSize     = 32
	DefaultLearningRate  = 0.001
	DefaultMomentum      = 0.9
	DefaultWeightDecay   = 1e-4
	DefaultLRDecay       = 0.1
	DefaultMilestones    = "10,15"
	DefaultPrintInterval = 100
	DefaultSeed          = 1
)

func main() {
	var (
		trainLabels   string
		testLabels    string
		cacheDir      string
		resumePath    string
		numEpochs     int
		batchSize     int
		learningRate  float64
		momentum      float64
		weightDecay   float64
		lrDecay       float64
		milestoneCSV  string
		printInterval int
		randomSeed    int64
	)
	flag.StringVar(&trainLabels, "train-labels", "", "Training verb-label set (gob)")
	flag.StringVar(&testLabels, "test-labels", "", "Test verb-label set (gob)")
	flag.StringVar(&cacheDir, "cache-dir", "./checkpoints", "Checkpoint output directory")
	flag.StringVar(&resumePath, "resume", "", "Checkpoint to resume from")
	flag.IntVar(&numEpochs, "num-epochs", DefaultEpochs, "Total epochs to train")
	flag.IntVar(&batchSize, "batch-size", DefaultBatchSize, "Batch size")
	flag.Float64Var(&learningRate, "learning-rate", DefaultLearningRate, "Initial learning rate")
	flag.Float64Var(&momentum, "momentum", DefaultMomentum, "SGD momentum")
	flag.Float64Var(&weightDecay, "weight-decay", DefaultWeightDecay, "L2 regularisation strength")
	flag.Float64Var(&lrDecay, "lr-decay", DefaultLRDecay, "Learning rate decay factor per milestone")
	flag.StringVar(&milestoneCSV, "milestones", DefaultMilestones, "Comma-separated epoch milestones for decay")
	flag.IntVar(&printInterval, "print-interval", DefaultPrintInterval, "Iterations between progress lines")
	flag.Int64Var(&randomSeed, "random-seed", DefaultSeed, "Shuffle seed")
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if trainLabels == "" || testLabels == "" {
		log.Fatal("both -train-labels and -test-labels are required")
	}
	milestones, err := parseMilestones(milestoneCSV)
	if err != nil {
		log.Fatalf("parse milestones: %v", err)
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		log.Fatalf("create cache dir: %v", err)
	}

	trainSet, err := train.LoadLabelSet(trainLabels)
	if err != nil {
		log.Fatalf("load training labels: %v", err)
	}
	testSet, err := train.LoadLabelSet(testLabels)
	if err != nil {
		log.Fatalf("load test labels: %v", err)
	}
	log.Printf("loaded %d training and %d test samples", trainSet.Len(), testSet.Len())

	head, err := train.NewVerbHead(batchSize)
	if err != nil {
		log.Fatalf("build verb head: %v", err)
	}
	defer head.Close()

	engine, err := train.NewEngine(head, trainSet, testSet, train.Config{
		Epochs:        numEpochs,
		BatchSize:     batchSize,
		LearningRate:  learningRate,
		Momentum:      momentum,
		WeightDecay:   weightDecay,
		Milestones:    milestones,
		Gamma:         lrDecay,
		PrintInterval: printInterval,
		CacheDir:      cacheDir,
		Seed:          randomSeed,
	}, train.Hooks{})
	if err != nil {
		log.Fatalf("build engine: %v", err)
	}

	if resumePath != "" {
		ck, err := train.LoadCheckpoint(resumePath)
		if err != nil {
			log.Fatalf("load checkpoint: %v", err)
		}
		if err := engine.Resume(ck); err != nil {
			log.Fatalf("resume: %v", err)
		}
		log.Printf("resumed from epoch %d, iteration %d", ck.Epoch, ck.Iteration)
	}

	if err := engine.Run(); err != nil {
		log.Fatalf("training failed: %v", err)
	}
}

func parseMilestones(csv string) ([]int, error) {
	var milestones []int
	for _, field := range strings.Split(csv, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		m, err := strconv.Atoi(field)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	return milestones, nil
}
