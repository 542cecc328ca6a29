// Package render draws detected human-object pairs onto images for
// visual inspection of model output.
package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/hoi-lab/go-hoi/common"
	"github.com/hoi-lab/go-hoi/hoinet"
)

var (
	humanColor  = color.RGBA{0, 0, 255, 0}
	objectColor = color.RGBA{0, 255, 0, 0}
	linkColor   = color.RGBA{255, 255, 255, 0}
	textColor   = color.RGBA{0, 0, 255, 0}
)

// Options tunes pair rendering.
type Options struct {
	// MinScore hides pairs scored below it.
	MinScore float32
	// Thickness is the rectangle and line stroke width in pixels.
	Thickness int
}

// DefaultOptions returns the rendering defaults.
func DefaultOptions() Options {
	return Options{MinScore: 0.2, Thickness: 2}
}

// LoadImage reads an image file into a Mat.
func LoadImage(path string) (gocv.Mat, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		return img, errors.Errorf("read image %s", path)
	}
	return img, nil
}

// DrawPairs renders each predicted pair onto img: the human box in blue,
// the object box in green, a line joining the box centers and the
// interaction score next to the human box.
func DrawPairs(img *gocv.Mat, pred *hoinet.Prediction, opts Options) int {
	if pred == nil {
		return 0
	}
	drawn := 0
	for i := range pred.Scores {
		if pred.Scores[i] < opts.MinScore {
			continue
		}
		h := toRect(pred.BoxesH[i])
		o := toRect(pred.BoxesO[i])
		gocv.Rectangle(img, h, humanColor, opts.Thickness)
		gocv.Rectangle(img, o, objectColor, opts.Thickness)
		gocv.Line(img, center(h), center(o), linkColor, opts.Thickness)

		label := fmt.Sprintf("%.2f", pred.Scores[i])
		gocv.PutText(img, label, labelOrigin(h),
			gocv.FontHersheyPlain, 1.2, textColor, opts.Thickness)
		drawn++
	}
	return drawn
}

// SaveImage writes the Mat to path.
func SaveImage(path string, img gocv.Mat) error {
	if ok := gocv.IMWrite(path, img); !ok {
		return errors.Errorf("write image %s", path)
	}
	return nil
}

// labelOrigin places the score text above the box, moving it inside when
// the box touches the top edge so the text stays on canvas.
func labelOrigin(r image.Rectangle) image.Point {
	y := r.Min.Y - 4
	if y < 12 {
		y = r.Min.Y + 14
	}
	return image.Pt(r.Min.X, y)
}

func toRect(b common.Box) image.Rectangle {
	return image.Rect(int(b.X1), int(b.Y1), int(b.X2), int(b.Y2))
}

func center(r image.Rectangle) image.Point {
	return image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
}
