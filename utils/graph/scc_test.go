package graph

import (
	"testing"

	"golang.org/x/exp/slices"
)

func TestSCCComponents(t *testing.T) {
	scc := sample.SCC([]int{0})

	sameComponent := [][]int{{0, 1, 4}, {2, 3, 7}, {5, 6}}
	for _, group := range sameComponent {
		for _, n := range group[1:] {
			if scc.ComponentOf(n) != scc.ComponentOf(group[0]) {
				t.Errorf("Expected %d and %d to be in the same component", n, group[0])
			}
		}
	}

	if scc.ComponentOf(8) == scc.ComponentOf(0) {
		t.Error("8 should be in a component of its own")
	}

	if got := len(scc.Components); got != 9 {
		t.Errorf("Expected 9 components, got %d: %v", got, scc.Components)
	}
}

func TestSCCTopologicalOrder(t *testing.T) {
	scc := sample.SCC([]int{0})

	for i, comp := range scc.Components {
		for _, n := range comp {
			for _, e := range sample.Edges(n) {
				if j := scc.ComponentOf(e); j > i {
					t.Errorf("Edge %d -> %d goes from component %d to later component %d", n, e, i, j)
				}
			}
		}
	}
}

func TestSCCCyclic(t *testing.T) {
	scc := sample.SCC([]int{0})
	selfLoop := OfHashable(func(i int) []int { return []int{i} }).SCC([]int{0})

	tests := []struct {
		scc      SCCDecomposition[int]
		node     int
		expected bool
	}{
		{scc, 0, true},
		{scc, 5, true},
		{scc, 7, true},
		{scc, 8, false},
		{scc, 12, false},
		{scc, 42, false},
		{selfLoop, 0, true},
	}

	for _, test := range tests {
		if got := test.scc.Cyclic(test.node); got != test.expected {
			t.Errorf("Cyclic(%d) = %v, expected %v", test.node, got, test.expected)
		}
	}
}

func TestSCCToGraph(t *testing.T) {
	scc := sample.SCC([]int{0})
	dag := scc.ToGraph()

	for i := range scc.Components {
		for _, j := range dag.Edges(i) {
			if i == j {
				t.Errorf("Component %d has an edge to itself in the condensation", i)
			}
		}
	}
}

func TestReachableAndReverse(t *testing.T) {
	reach := sample.Reachable(9)
	slices.Sort(reach)
	if !slices.Equal(reach, []int{9, 10, 11, 12, 13}) {
		t.Errorf("Unexpected nodes reachable from 9: %v", reach)
	}

	universe := make([]int, 0, len(sampleEdges))
	for n := range sampleEdges {
		universe = append(universe, n)
	}
	preds := Reverse(sample, universe).Edges(5)
	slices.Sort(preds)
	if !slices.Equal(preds, []int{1, 4, 6}) {
		t.Errorf("Unexpected predecessors of 5: %v", preds)
	}
}
