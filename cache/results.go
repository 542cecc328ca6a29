// Package cache - Sparse per-class, per-image detection results and the
// per-category artifact files written for downstream tools.
package cache

import (
	"github.com/pkg/errors"

	"github.com/hoi-lab/go-hoi/common"
)

// Row is one cached box pair: human box, object box, confidence.
type Row [9]float32

// NewRow packs a box pair and its score.
func NewRow(h, o common.Box, score float32) Row {
	return Row{h.X1, h.Y1, h.X2, h.Y2, o.X1, o.Y1, o.X2, o.Y2, score}
}

type cellKey struct {
	Class int
	Image int
}

// Results is a sparse matrix of detection rows with the fixed logical
// shape [numClasses x numImages]. Most cells of the interaction label
// space are empty; only occupied cells are stored.
type Results struct {
	numClasses int
	numImages  int
	cells      map[cellKey][]Row
}

// NewResults creates an empty sparse matrix of the given logical shape.
func NewResults(numClasses, numImages int) *Results {
	return &Results{
		numClasses: numClasses,
		numImages:  numImages,
		cells:      make(map[cellKey][]Row),
	}
}

// NumClasses returns the class dimension of the logical shape.
func (r *Results) NumClasses() int { return r.numClasses }

// NumImages returns the image dimension of the logical shape.
func (r *Results) NumImages() int { return r.numImages }

// Append adds one box pair to the (class, image) cell.
func (r *Results) Append(class, image int, row Row) error {
	if class < 0 || class >= r.numClasses {
		return errors.Errorf("class %d out of range [0, %d)", class, r.numClasses)
	}
	if image < 0 || image >= r.numImages {
		return errors.Errorf("image %d out of range [0, %d)", image, r.numImages)
	}
	key := cellKey{Class: class, Image: image}
	r.cells[key] = append(r.cells[key], row)
	return nil
}

// Cell returns the rows stored at (class, image); nil for an empty cell.
// An empty cell is the explicit zero-size placeholder of the artifact
// format, not an error.
func (r *Results) Cell(class, image int) []Row {
	return r.cells[cellKey{Class: class, Image: image}]
}

// Occupied returns the number of non-empty cells.
func (r *Results) Occupied() int { return len(r.cells) }
