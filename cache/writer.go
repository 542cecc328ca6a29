package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// CategoryFile is the on-disk artifact for one COCO object category:
// every occupied cell of the interaction classes that involve the
// category. Cells absent from Entries are empty placeholders.
type CategoryFile struct {
	// Interactions lists the interaction-class ids of this category, in
	// ascending order, defining the logical row block.
	Interactions []int `json:"interactions"`
	// NumImages is the column count of the logical shape.
	NumImages int `json:"num_images"`
	// Entries holds the occupied cells.
	Entries []CategoryEntry `json:"entries"`
}

// CategoryEntry is one occupied (interaction, image) cell.
type CategoryEntry struct {
	Interaction int   `json:"interaction"`
	Image       int   `json:"image"`
	Rows        []Row `json:"rows"`
}

// ObjectInteractions resolves a HICO object class to its interaction ids.
type ObjectInteractions interface {
	ObjectInteractions(object int) []int
}

// WriteCategoryFiles persists the results as one JSON file per COCO
// category, named detections_<idx>.json with a 2-digit zero-padded COCO
// index. The artifact is language-agnostic and deterministic: entries
// sort by (interaction, image).
//
// Arguments:
// - dir: Output directory, created if missing.
// - results: The filled sparse matrix.
// - cocoToHICO: COCO detector index to HICO object class.
// - lookup: Interaction ids per HICO object class.
func WriteCategoryFiles(dir string, results *Results, cocoToHICO map[int]int, lookup ObjectInteractions) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create cache dir %s", dir)
	}
	for coco, hico := range cocoToHICO {
		interactions := lookup.ObjectInteractions(hico)
		file := CategoryFile{
			Interactions: interactions,
			NumImages:    results.NumImages(),
			Entries:      []CategoryEntry{},
		}
		for _, hoi := range interactions {
			for img := 0; img < results.NumImages(); img++ {
				if rows := results.Cell(hoi, img); len(rows) > 0 {
					file.Entries = append(file.Entries, CategoryEntry{
						Interaction: hoi,
						Image:       img,
						Rows:        rows,
					})
				}
			}
		}
		sort.Slice(file.Entries, func(a, b int) bool {
			if file.Entries[a].Interaction != file.Entries[b].Interaction {
				return file.Entries[a].Interaction < file.Entries[b].Interaction
			}
			return file.Entries[a].Image < file.Entries[b].Image
		})

		raw, err := json.Marshal(file)
		if err != nil {
			return errors.Wrapf(err, "encode category %d", coco)
		}
		path := filepath.Join(dir, fmt.Sprintf("detections_%02d.json", coco))
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			return errors.Wrapf(err, "write %s", path)
		}
	}
	return nil
}

// ReadCategoryFile loads one per-category artifact.
func ReadCategoryFile(path string) (*CategoryFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read cache file %s", path)
	}
	var file CategoryFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, errors.Wrapf(err, "decode cache file %s", path)
	}
	return &file, nil
}
