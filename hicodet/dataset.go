// Package hicodet - Annotation loading and label-space tables for the
// HICO-DET human-object interaction dataset.
package hicodet

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/hoi-lab/go-hoi/common"
)

const (
	// NumObjects is the number of object classes in the label space.
	NumObjects = 80
	// NumVerbs is the number of verb classes in the label space.
	NumVerbs = 117
	// NumInteractions is the number of global interaction classes.
	NumInteractions = 600
	// HumanIdx is the reserved object-class id for humans.
	HumanIdx = 49
	// RareThreshold splits interaction classes into rare and non-rare by
	// their ground-truth instance count in the training partition.
	RareThreshold = 10
)

// ImageAnno holds the ground-truth interaction instances of one image.
//
// All slices are parallel: entry i is the box pair (BoxesH[i], BoxesO[i])
// annotated with object class Objects[i], verb Verbs[i] and the global
// interaction class Interactions[i].
type ImageAnno struct {
	BoxesH       []common.Box
	BoxesO       []common.Box
	Objects      []int
	Verbs        []int
	Interactions []int
}

// Len returns the number of ground-truth box pairs in the image.
func (a *ImageAnno) Len() int { return len(a.Interactions) }

// Dataset is one partition of HICO-DET, loaded once at startup.
//
// Lookup tables are built at load time and read-only afterwards.
type Dataset struct {
	// Filenames of all images in the partition, including those without
	// any ground-truth box pair.
	Filenames []string
	// ObjectNames and VerbNames index the label spaces.
	ObjectNames []string
	VerbNames   []string
	// Correspondence maps an interaction id to its (object, verb) pair.
	Correspondence [][2]int

	annos           []ImageAnno
	intraIndex      []int
	objectVerbToInt []map[int]int
	objectToInts    [][]int
	annoInteraction []int
}

type imageAnnoJSON struct {
	BoxesH [][4]float32 `json:"boxes_h"`
	BoxesO [][4]float32 `json:"boxes_o"`
	Object []int        `json:"object"`
	Verb   []int        `json:"verb"`
	HOI    []int        `json:"hoi"`
}

type annoFileJSON struct {
	Filenames      []string        `json:"filenames"`
	Annotation     []imageAnnoJSON `json:"annotation"`
	Correspondence [][2]int        `json:"correspondence"`
	Objects        []string        `json:"objects"`
	Verbs          []string        `json:"verbs"`
}

// Load reads a partition annotation file (instances_<partition>.json).
//
// Ground-truth boxes are stored as 1-based pixel indices; the loader
// converts them to 0-based coordinates by shifting the top-left corner.
// Images without any ground-truth box pair are kept in Filenames but
// excluded from the iteration index.
//
// Returns:
// - The loaded dataset with all lookup tables built.
// - An error if the file is missing, malformed or inconsistent.
func Load(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read annotation file %s", path)
	}
	var file annoFileJSON
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, errors.Wrapf(err, "decode annotation file %s", path)
	}
	if len(file.Annotation) != len(file.Filenames) {
		return nil, errors.Errorf("annotation count %d does not match filename count %d",
			len(file.Annotation), len(file.Filenames))
	}
	if len(file.Correspondence) != NumInteractions {
		return nil, errors.Errorf("expected %d interaction correspondences, got %d",
			NumInteractions, len(file.Correspondence))
	}

	ds := &Dataset{
		Filenames:       file.Filenames,
		ObjectNames:     file.Objects,
		VerbNames:       file.Verbs,
		Correspondence:  file.Correspondence,
		annoInteraction: make([]int, NumInteractions),
	}

	ds.objectVerbToInt = make([]map[int]int, NumObjects)
	ds.objectToInts = make([][]int, NumObjects)
	for hoi, ov := range file.Correspondence {
		obj, verb := ov[0], ov[1]
		if obj < 0 || obj >= NumObjects || verb < 0 || verb >= NumVerbs {
			return nil, errors.Errorf("correspondence %d out of range: object=%d verb=%d", hoi, obj, verb)
		}
		if ds.objectVerbToInt[obj] == nil {
			ds.objectVerbToInt[obj] = make(map[int]int)
		}
		ds.objectVerbToInt[obj][verb] = hoi
		ds.objectToInts[obj] = append(ds.objectToInts[obj], hoi)
	}

	ds.annos = make([]ImageAnno, len(file.Annotation))
	for i, a := range file.Annotation {
		anno, err := convertAnno(a)
		if err != nil {
			return nil, errors.Wrapf(err, "image %d (%s)", i, file.Filenames[i])
		}
		ds.annos[i] = anno
		if anno.Len() > 0 {
			ds.intraIndex = append(ds.intraIndex, i)
		}
		for _, hoi := range anno.Interactions {
			if hoi < 0 || hoi >= NumInteractions {
				return nil, errors.Errorf("image %d: interaction id %d out of range", i, hoi)
			}
			ds.annoInteraction[hoi]++
		}
	}
	return ds, nil
}

func convertAnno(a imageAnnoJSON) (ImageAnno, error) {
	n := len(a.HOI)
	if len(a.BoxesH) != n || len(a.BoxesO) != n || len(a.Object) != n || len(a.Verb) != n {
		return ImageAnno{}, errors.Errorf(
			"unequal instance slices: boxes_h=%d boxes_o=%d object=%d verb=%d hoi=%d",
			len(a.BoxesH), len(a.BoxesO), len(a.Object), len(a.Verb), n)
	}
	anno := ImageAnno{
		BoxesH:       make([]common.Box, n),
		BoxesO:       make([]common.Box, n),
		Objects:      a.Object,
		Verbs:        a.Verb,
		Interactions: a.HOI,
	}
	for i := 0; i < n; i++ {
		anno.BoxesH[i] = toBox(a.BoxesH[i])
		anno.BoxesO[i] = toBox(a.BoxesO[i])
		if !anno.BoxesH[i].Valid() || !anno.BoxesO[i].Valid() {
			return ImageAnno{}, errors.Errorf("instance %d has non-canonical box coordinates", i)
		}
	}
	return anno, nil
}

// toBox converts a 1-based pixel-index box to 0-based coordinates. Only
// the top-left corner shifts; the bottom-right index already equals the
// exclusive coordinate.
func toBox(v [4]float32) common.Box {
	return common.Box{X1: v[0] - 1, Y1: v[1] - 1, X2: v[2], Y2: v[3]}
}

// Len returns the number of images that carry at least one ground-truth
// box pair. Iteration indices below this bound are "intra" indices.
func (d *Dataset) Len() int { return len(d.intraIndex) }

// NumImages returns the total image count of the partition, including
// images without ground truth. Cache artifacts are shaped by this count.
func (d *Dataset) NumImages() int { return len(d.Filenames) }

// ImageIndex maps an intra index to the global image index.
func (d *Dataset) ImageIndex(i int) int { return d.intraIndex[i] }

// Anno returns the ground truth of the i-th non-empty image.
func (d *Dataset) Anno(i int) *ImageAnno { return &d.annos[d.intraIndex[i]] }

// Filename returns the image filename of the i-th non-empty image.
func (d *Dataset) Filename(i int) string { return d.Filenames[d.intraIndex[i]] }

// Interaction resolves an (object, verb) combination to its global
// interaction id. The second return is false when the combination does
// not exist in the label space.
func (d *Dataset) Interaction(object, verb int) (int, bool) {
	if object < 0 || object >= NumObjects {
		return 0, false
	}
	hoi, ok := d.objectVerbToInt[object][verb]
	return hoi, ok
}

// ObjectInteractions returns the interaction ids involving an object
// class, in ascending id order.
func (d *Dataset) ObjectInteractions(object int) []int {
	if object < 0 || object >= NumObjects {
		return nil
	}
	return d.objectToInts[object]
}

// AnnoInteraction returns the per-interaction ground-truth instance count
// across the partition. The returned slice is shared and read-only.
func (d *Dataset) AnnoInteraction() []int { return d.annoInteraction }

// RareMask flags interaction classes with fewer than threshold
// ground-truth instances.
func (d *Dataset) RareMask(threshold int) []bool {
	mask := make([]bool, len(d.annoInteraction))
	for i, n := range d.annoInteraction {
		mask[i] = n < threshold
	}
	return mask
}
