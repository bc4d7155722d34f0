package graph

import (
	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/ssa"
)

// Creates a Graph from a callgraph with *ssa.Functions as nodes.
// Duplicate edges in the callgraph are pruned.
func FromCallGraph(cg *callgraph.Graph) Graph[*ssa.Function] {
	return OfHashable(func(fun *ssa.Function) (ret []*ssa.Function) {
		node, found := cg.Nodes[fun]
		if !found {
			return
		}

		dedup := map[*ssa.Function]bool{}
		for _, edge := range node.Out {
			if callee := edge.Callee.Func; !dedup[callee] {
				dedup[callee] = true
				ret = append(ret, callee)
			}
		}
		return
	})
}

// Nodes are BB indices.
func FromBasicBlocks(fun *ssa.Function) Graph[int] {
	return OfHashable(func(node int) (ret []int) {
		bb := fun.Blocks[node]
		for _, succ := range bb.Succs {
			ret = append(ret, succ.Index)
		}
		return
	})
}
