package detections

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/hoi-lab/go-hoi/hicodet"
)

// Sample pairs one image's filtered detections with its ground truth.
//
// Err is set when the detection file for this image failed to load; the
// consumer decides whether to skip the sample or abort the pass.
type Sample struct {
	// Index is the intra index within the non-empty images of the partition.
	Index int
	// Image is the global image index, used to address cache cells.
	Image int
	// Filename of the source image.
	Filename string
	Detection *Detection
	Anno      *hicodet.ImageAnno
	Err       error
}

// Loader prefetches filtered samples with a pool of worker goroutines.
//
// Workers share nothing mutable: each reads its own detection file and
// filters it against the read-only dataset. Samples are delivered in
// dataset order regardless of worker scheduling.
type Loader struct {
	dataset *hicodet.Dataset
	dir     string
	cfg     FilterConfig
	workers int
}

// NewLoader creates a loader over a dataset partition.
//
// Arguments:
// - dataset: The partition whose non-empty images are iterated.
// - dir: Directory holding one detection JSON file per image.
// - cfg: Confidence filter applied to every record.
// - workers: Number of prefetch goroutines; values below 1 mean 1.
func NewLoader(dataset *hicodet.Dataset, dir string, cfg FilterConfig, workers int) *Loader {
	if workers < 1 {
		workers = 1
	}
	return &Loader{dataset: dataset, dir: dir, cfg: cfg, workers: workers}
}

// DetectionPath returns the detection file path for an image filename:
// same basename, .json extension.
func (l *Loader) DetectionPath(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	return filepath.Join(l.dir, base+".json")
}

// Samples streams the partition in order. The channel is closed after the
// last sample; the caller must drain it.
func (l *Loader) Samples() <-chan Sample {
	n := l.dataset.Len()
	slots := make([]chan Sample, n)
	for i := range slots {
		slots[i] = make(chan Sample, 1)
	}
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < l.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				slots[i] <- l.load(i)
			}
		}()
	}
	go func() {
		for i := 0; i < n; i++ {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	}()

	out := make(chan Sample)
	go func() {
		defer close(out)
		for i := 0; i < n; i++ {
			out <- <-slots[i]
		}
	}()
	return out
}

func (l *Loader) load(i int) Sample {
	s := Sample{
		Index:    i,
		Image:    l.dataset.ImageIndex(i),
		Filename: l.dataset.Filename(i),
		Anno:     l.dataset.Anno(i),
	}
	det, err := Load(l.DetectionPath(s.Filename))
	if err != nil {
		s.Err = err
		return s
	}
	s.Detection = Filter(det, l.cfg)
	return s
}
