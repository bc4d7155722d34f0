package graph

import (
	"testing"

	"golang.org/x/exp/slices"
)

// A graph with three non-trivial components: {0, 1, 4}, {2, 3, 7} and
// {5, 6}. Nodes 9 to 13 form an acyclic tail below 2.
var sampleEdges = map[int][]int{
	0: {1, 8}, 1: {4, 5, 2}, 2: {6, 3, 9}, 3: {2, 7},
	4: {0, 5}, 5: {6}, 6: {5}, 7: {3, 6},
	8: {}, 9: {10, 11}, 10: {12, 13}, 11: {12, 13},
	12: {}, 13: {},
}

var sample = OfHashable(func(i int) []int { return sampleEdges[i] })

func TestEdgesAreCached(t *testing.T) {
	calls := 0
	g := OfHashable(func(i int) []int {
		calls++
		return []int{i + 1}
	})

	for i := 0; i < 3; i++ {
		if succ := g.Edges(1); !slices.Equal(succ, []int{2}) {
			t.Errorf("Unexpected successors of 1: %v", succ)
		}
	}
	g.Edges(2)
	if calls != 2 {
		t.Errorf("Expected the edge function to be called once per node, got %d calls", calls)
	}
}

func TestReverseUniverse(t *testing.T) {
	// Only edges leaving the universe are inverted.
	rev := Reverse(sample, []int{1, 2, 3})

	tests := []struct {
		node  int
		preds []int
	}{
		{2, []int{1, 3}},
		{5, []int{1}},
		{4, []int{1}},
		{3, []int{2}},
		{0, nil},
		{12, nil},
	}
	for _, test := range tests {
		preds := rev.Edges(test.node)
		slices.Sort(preds)
		if !slices.Equal(preds, test.preds) {
			t.Errorf("Expected the predecessors of %d to be %v, got %v", test.node, test.preds, preds)
		}
	}
}
