package hicodet

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// LoadCOCOToHICO reads the coco80tohico80.json category remap: COCO
// 80-class detector indices to HICO-DET object-class indices. Keys are
// stored as strings on disk.
func LoadCOCOToHICO(path string) (map[int]int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read category map %s", path)
	}
	var byName map[string]int
	if err := json.Unmarshal(raw, &byName); err != nil {
		return nil, errors.Wrapf(err, "decode category map %s", path)
	}
	remap := make(map[int]int, len(byName))
	for k, v := range byName {
		coco, err := strconv.Atoi(k)
		if err != nil {
			return nil, errors.Wrapf(err, "category map key %q", k)
		}
		if v < 0 || v >= NumObjects {
			return nil, errors.Errorf("category map value %d for key %q out of range", v, k)
		}
		remap[coco] = v
	}
	return remap, nil
}
