// Package eval - Association of predicted box pairs with ground truth and
// mean average-precision aggregation over the interaction label space.
package eval

import (
	"fmt"
	"sort"
)

// Lookup resolves an (object, verb) combination to a global interaction
// id. The boolean is false when the combination is not part of the label
// space.
type Lookup interface {
	Interaction(object, verb int) (int, bool)
}

// UndefinedMappingError signals a data-integrity bug: a prediction named
// an (object, verb) combination that no interaction class covers. It must
// never be defaulted to "no interaction".
type UndefinedMappingError struct {
	Object int
	Verb   int
}

func (e *UndefinedMappingError) Error() string {
	return fmt.Sprintf("no interaction class for object %d, verb %d", e.Object, e.Verb)
}

// Run is one contiguous group of predictions sharing an interaction class.
// Index holds original entry positions.
type Run struct {
	Class int
	Index []int
}

// GroupByInteraction maps every (object, verb) entry to its interaction
// class and groups entries by that class.
//
// Entries are stable-sorted by interaction id ascending, ties keeping
// input order, so each class forms one contiguous run. The union of all
// run indices covers every input entry exactly once.
//
// Returns:
// - The per-entry interaction ids, in input order.
// - The contiguous runs in ascending class order.
// - An *UndefinedMappingError when an entry has no interaction class.
func GroupByInteraction(objects, verbs []int, lookup Lookup) ([]int, []Run, error) {
	n := len(objects)
	interactions := make([]int, n)
	for i := 0; i < n; i++ {
		hoi, ok := lookup.Interaction(objects[i], verbs[i])
		if !ok {
			return nil, nil, &UndefinedMappingError{Object: objects[i], Verb: verbs[i]}
		}
		interactions[i] = hoi
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return interactions[order[a]] < interactions[order[b]]
	})

	var runs []Run
	for k := 0; k < n; {
		class := interactions[order[k]]
		j := k
		for j < n && interactions[order[j]] == class {
			j++
		}
		runs = append(runs, Run{Class: class, Index: order[k:j:j]})
		k = j
	}
	return interactions, runs, nil
}
