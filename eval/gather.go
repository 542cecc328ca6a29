package eval

import (
	"sort"

	"github.com/pkg/errors"
)

// PartialEntry is one accumulated sample in transferable form.
type PartialEntry struct {
	Score  float32
	Label  float32
	Unique uint64
}

// Partial is a snapshot of one process's meter state, suitable for
// gob/JSON transfer in an all-gather step.
type Partial struct {
	NumClasses int
	Entries    [][]PartialEntry
}

// Partial exports the meter's accumulated state without consuming it.
func (m *Meter) Partial() *Partial {
	p := &Partial{
		NumClasses: len(m.classes),
		Entries:    make([][]PartialEntry, len(m.classes)),
	}
	for c, ents := range m.classes {
		out := make([]PartialEntry, len(ents))
		for i, e := range ents {
			out[i] = PartialEntry{Score: e.score, Label: e.label, Unique: e.unique}
		}
		p.Entries[c] = out
	}
	return p
}

// Merge folds gathered partials into the meter before Eval.
//
// Every partial must cover the same number of classes; a mismatch means
// the shards disagree on the label space and is fatal. Entries whose
// unique id is already present in a class with the same payload are
// dropped, so a prediction gathered more than once still contributes
// exactly one label. An id carrying a different score or label is fatal:
// two shards produced it independently, which happens when they skipped
// WithShard and share rank 0. The meter is unchanged on error.
func (m *Meter) Merge(partials ...*Partial) error {
	if m.evaluated {
		return errors.New("merge after eval: reset the meter first")
	}
	for i, p := range partials {
		if p.NumClasses != len(m.classes) || len(p.Entries) != p.NumClasses {
			return errors.Errorf("shard %d has %d classes, meter has %d",
				i, p.NumClasses, len(m.classes))
		}
	}

	seen := make([]map[uint64]entry, len(m.classes))
	for c, ents := range m.classes {
		seen[c] = make(map[uint64]entry, len(ents))
		for _, e := range ents {
			seen[c][e.unique] = e
		}
	}
	additions := make([][]entry, len(m.classes))
	for _, p := range partials {
		for c, ents := range p.Entries {
			for _, pe := range ents {
				if prev, ok := seen[c][pe.Unique]; ok {
					if prev.score != pe.Score || prev.label != pe.Label {
						return errors.Errorf(
							"class %d: unique id %d carries conflicting entries; shards must use distinct ranks",
							c, pe.Unique)
					}
					continue
				}
				e := entry{score: pe.Score, label: pe.Label, unique: pe.Unique}
				seen[c][pe.Unique] = e
				additions[c] = append(additions[c], e)
			}
		}
	}
	for c, add := range additions {
		if len(add) == 0 {
			continue
		}
		m.classes[c] = append(m.classes[c], add...)
		// Keep determinism independent of gather order.
		sort.SliceStable(m.classes[c], func(a, b int) bool {
			return m.classes[c][a].unique < m.classes[c][b].unique
		})
	}
	return nil
}
