// Package common - Shared geometric primitives for detection boxes.
package common

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Box is an axis-aligned bounding box in pixel coordinates.
//
// Coordinates satisfy X2 >= X1 and Y2 >= Y1. Boxes are value types;
// collections reference them by index rather than copying box data around.
type Box struct {
	X1, Y1, X2, Y2 float32
}

// String formats the box coordinates for display.
func (b Box) String() string {
	return fmt.Sprintf("(%.2f, %.2f), (%.2f, %.2f)", b.X1, b.Y1, b.X2, b.Y2)
}

// Valid reports whether the box coordinates are canonical.
func (b Box) Valid() bool {
	return b.X2 >= b.X1 && b.Y2 >= b.Y1
}

// Area returns the area of the box in square pixels.
func (b Box) Area() float32 {
	return (b.X2 - b.X1) * (b.Y2 - b.Y1)
}

// Intersection calculates the intersection area between two boxes.
//
// Arguments:
// - other: The other box to intersect with.
//
// Returns:
// - The area of the overlap in square pixels, zero when disjoint.
func (b Box) Intersection(other Box) float32 {
	w := math32.Min(b.X2, other.X2) - math32.Max(b.X1, other.X1)
	h := math32.Min(b.Y2, other.Y2) - math32.Max(b.Y1, other.Y1)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// IoU calculates the Intersection over Union between two boxes.
//
// Association of predicted box pairs with ground truth relies on exact
// float overlap, so no rounding to integral rectangles happens here.
//
// Returns:
// - The IoU value in [0, 1]; zero when the union is degenerate.
func (b Box) IoU(other Box) float32 {
	inter := b.Intersection(other)
	union := b.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// PairwiseIoU computes the dense IoU matrix between two box sets.
//
// Arguments:
// - a: First box set, indexes the rows.
// - b: Second box set, indexes the columns.
//
// Returns:
// - A len(a) x len(b) matrix where cell [i][j] is a[i].IoU(b[j]).
func PairwiseIoU(a, b []Box) [][]float32 {
	m := make([][]float32, len(a))
	for i := range a {
		row := make([]float32, len(b))
		for j := range b {
			row[j] = a[i].IoU(b[j])
		}
		m[i] = row
	}
	return m
}
