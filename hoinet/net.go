// Package hoinet - The interaction network collaborator. The network
// itself is external; this package fixes its input/output contract and
// wraps an ONNX Runtime session behind it.
package hoinet

import (
	"image"

	"github.com/hoi-lab/go-hoi/common"
	"github.com/hoi-lab/go-hoi/detections"
)

// Prediction is one image's box-pair predictions, index-resolved: entry i
// is the pair (BoxesH[i], BoxesO[i]) predicted to perform verb Verbs[i]
// on an object of class Objects[i] with confidence Scores[i]. The object
// class comes from the object box's detection label, not from the
// network.
type Prediction struct {
	BoxesH  []common.Box
	BoxesO  []common.Box
	Objects []int
	Verbs   []int
	Scores  []float32
}

// Len returns the number of predicted box pairs.
func (p *Prediction) Len() int { return len(p.Scores) }

// Net runs the interaction network on one image.
//
// A nil prediction with nil error means the network produced no box
// pairs; callers skip the image. Implementations are synchronous and not
// required to be safe for concurrent use.
type Net interface {
	Predict(img image.Image, det *detections.Detection) (*Prediction, error)
}
