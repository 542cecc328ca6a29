package eval

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapLookup map[[2]int]int

func (m mapLookup) Interaction(object, verb int) (int, bool) {
	hoi, ok := m[[2]int{object, verb}]
	return hoi, ok
}

func TestGroupByInteraction(t *testing.T) {
	lookup := mapLookup{
		{4, 1}: 10,
		{4, 2}: 11,
		{7, 1}: 42,
	}
	objects := []int{4, 7, 4, 4, 7}
	verbs := []int{2, 1, 1, 2, 1}

	interactions, runs, err := GroupByInteraction(objects, verbs, lookup)
	require.NoError(t, err)

	assert.Equal(t, []int{11, 42, 10, 11, 42}, interactions)
	require.Len(t, runs, 3)
	assert.Equal(t, Run{Class: 10, Index: []int{2}}, runs[0])
	// Ties keep input order within a class.
	assert.Equal(t, Run{Class: 11, Index: []int{0, 3}}, runs[1])
	assert.Equal(t, Run{Class: 42, Index: []int{1, 4}}, runs[2])
}

func TestGroupByInteractionCompleteness(t *testing.T) {
	lookup := mapLookup{}
	n := 50
	objects := make([]int, n)
	verbs := make([]int, n)
	for i := range objects {
		objects[i] = i % 7
		verbs[i] = i % 3
		lookup[[2]int{objects[i], verbs[i]}] = (i % 7) * (i % 3)
	}

	_, runs, err := GroupByInteraction(objects, verbs, lookup)
	require.NoError(t, err)

	// Union of all run indices covers every entry exactly once.
	var all []int
	for _, run := range runs {
		all = append(all, run.Index...)
	}
	require.Len(t, all, n)
	sort.Ints(all)
	for i, idx := range all {
		assert.Equal(t, i, idx)
	}

	// Runs are ascending and classes do not repeat.
	for i := 1; i < len(runs); i++ {
		assert.Greater(t, runs[i].Class, runs[i-1].Class)
	}
}

func TestGroupByInteractionUndefinedMapping(t *testing.T) {
	lookup := mapLookup{{1, 1}: 5}

	_, _, err := GroupByInteraction([]int{1, 2}, []int{1, 1}, lookup)
	require.Error(t, err)

	var undef *UndefinedMappingError
	require.ErrorAs(t, err, &undef)
	assert.Equal(t, 2, undef.Object)
	assert.Equal(t, 1, undef.Verb)
}

func TestGroupByInteractionEmpty(t *testing.T) {
	interactions, runs, err := GroupByInteraction(nil, nil, mapLookup{})
	require.NoError(t, err)
	assert.Empty(t, interactions)
	assert.Empty(t, runs)
}
