// Package detections - Per-image object detection records: file I/O,
// confidence filtering and a prefetching sample loader.
package detections

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/hoi-lab/go-hoi/common"
)

// Detection holds one image's object detections as parallel slices.
//
// Invariant: Boxes, Labels and Scores have equal length. A zero-length
// record is well-formed and means "no detections".
type Detection struct {
	Boxes  []common.Box
	Labels []int
	Scores []float32
}

// Len returns the number of detected boxes.
func (d *Detection) Len() int { return len(d.Boxes) }

type detectionJSON struct {
	Boxes  [][4]float32 `json:"boxes"`
	Labels []int        `json:"labels"`
	Scores []float32    `json:"scores"`
}

// Load reads one per-image detection file.
//
// A missing or corrupt file is a hard error; emptiness is handled by the
// filter, not substituted at the I/O layer.
func Load(path string) (*Detection, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read detection file %s", path)
	}
	var file detectionJSON
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, errors.Wrapf(err, "decode detection file %s", path)
	}
	if len(file.Labels) != len(file.Boxes) || len(file.Scores) != len(file.Boxes) {
		return nil, errors.Errorf("detection file %s: unequal slices boxes=%d labels=%d scores=%d",
			path, len(file.Boxes), len(file.Labels), len(file.Scores))
	}
	det := &Detection{
		Boxes:  make([]common.Box, len(file.Boxes)),
		Labels: file.Labels,
		Scores: file.Scores,
	}
	for i, b := range file.Boxes {
		det.Boxes[i] = common.Box{X1: b[0], Y1: b[1], X2: b[2], Y2: b[3]}
		if !det.Boxes[i].Valid() {
			return nil, errors.Errorf("detection file %s: box %d is non-canonical", path, i)
		}
	}
	return det, nil
}

// Save writes a detection record in the on-disk JSON schema. Loading the
// written file yields an identical record.
func Save(path string, d *Detection) error {
	file := detectionJSON{
		Boxes:  make([][4]float32, d.Len()),
		Labels: d.Labels,
		Scores: d.Scores,
	}
	if file.Labels == nil {
		file.Labels = []int{}
	}
	if file.Scores == nil {
		file.Scores = []float32{}
	}
	for i, b := range d.Boxes {
		file.Boxes[i] = [4]float32{b.X1, b.Y1, b.X2, b.Y2}
	}
	raw, err := json.Marshal(file)
	if err != nil {
		return errors.Wrap(err, "encode detection record")
	}
	return errors.Wrapf(os.WriteFile(path, raw, 0o644), "write detection file %s", path)
}
