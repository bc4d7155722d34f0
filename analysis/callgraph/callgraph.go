package callgraph

import (
	"fmt"

	"github.com/cs-au-dk/golisa/analysis/cfg"
	"github.com/cs-au-dk/golisa/analysis/program"
	"github.com/cs-au-dk/golisa/utils/dot"
	"github.com/cs-au-dk/golisa/utils/graph"

	"github.com/pkg/errors"
)

// ErrUnresolved is the cause of construction failures caused by calls that
// are not open but have no target in the program.
var ErrUnresolved = errors.New("unresolved call")

// Graph is the call graph of a finalized program. Calls with a receiver are
// resolved with class-hierarchy analysis over the unit instances.
type Graph struct {
	prog *program.Program

	targets map[*cfg.Node][]*cfg.CFG
	callees map[*cfg.CFG][]*cfg.CFG
	callers map[*cfg.CFG][]*cfg.CFG
	sites   map[*cfg.CFG][]*cfg.Node

	G   graph.Graph[*cfg.CFG]
	rev graph.Graph[*cfg.CFG]
	scc graph.SCCDecomposition[*cfg.CFG]
}

// Build resolves every call of the program.
func Build(prog *program.Program) (*Graph, error) {
	if !prog.Finalized() {
		return nil, errors.New("the program must be finalized before building its call graph")
	}

	cg := &Graph{
		prog:    prog,
		targets: make(map[*cfg.Node][]*cfg.CFG),
		callees: make(map[*cfg.CFG][]*cfg.CFG),
		callers: make(map[*cfg.CFG][]*cfg.CFG),
		sites:   make(map[*cfg.CFG][]*cfg.Node),
	}

	for _, g := range prog.CFGs() {
		seen := map[*cfg.CFG]bool{}
		for _, call := range g.Calls() {
			targets, err := resolve(prog, call)
			if err != nil {
				return nil, err
			}
			cg.targets[call] = targets

			for _, target := range targets {
				cg.sites[target] = append(cg.sites[target], call)
				if !seen[target] {
					seen[target] = true
					cg.callees[g] = append(cg.callees[g], target)
					cg.callers[target] = append(cg.callers[target], g)
				}
			}
		}
	}

	cg.G = graph.OfHashable(func(g *cfg.CFG) []*cfg.CFG { return cg.callees[g] })
	cg.rev = graph.Reverse(cg.G, prog.CFGs())
	cg.scc = cg.G.SCC(prog.CFGs())
	return cg, nil
}

func resolve(prog *program.Program, call *cfg.Node) ([]*cfg.CFG, error) {
	c := call.Stmt.(cfg.Call)
	if c.Open {
		return nil, nil
	}

	var targets []*cfg.CFG
	if c.Receiver == "" {
		if g, ok := prog.CFG(c.Callee); ok && !g.Desc.Abstract {
			targets = append(targets, g)
		}
	} else {
		u, ok := prog.Unit(c.Receiver)
		if !ok {
			return nil, errors.Wrapf(ErrUnresolved, "%s at %s: unknown unit %s", c, call.Location(), c.Receiver)
		}

		seen := map[*cfg.CFG]bool{}
		for _, inst := range u.Instances() {
			if g := lookup(prog, inst, c.Callee); g != nil && !g.Desc.Abstract && !seen[g] {
				seen[g] = true
				targets = append(targets, g)
			}
		}
	}

	if len(targets) == 0 {
		return nil, errors.Wrapf(ErrUnresolved, "%s at %s", c, call.Location())
	}
	return targets, nil
}

// lookup finds the most specific definition of a method for an instance,
// searching its supers depth-first.
func lookup(prog *program.Program, u *program.Unit, name string) *cfg.CFG {
	if g, ok := u.Member(name); ok {
		return g
	}
	for _, super := range u.Supers {
		if s, ok := prog.Unit(super); ok {
			if g := lookup(prog, s, name); g != nil {
				return g
			}
		}
	}
	return nil
}

// Program is the program the call graph was built for.
func (cg *Graph) Program() *program.Program { return cg.prog }

// Nodes lists every CFG of the program.
func (cg *Graph) Nodes() []*cfg.CFG { return cg.prog.CFGs() }

// Resolve lists the possible targets of a call. Open calls have none.
func (cg *Graph) Resolve(call *cfg.Node) []*cfg.CFG { return cg.targets[call] }

func (cg *Graph) Callees(g *cfg.CFG) []*cfg.CFG { return cg.callees[g] }

func (cg *Graph) Callers(g *cfg.CFG) []*cfg.CFG { return cg.callers[g] }

// CallSites lists the calls that may target the CFG.
func (cg *Graph) CallSites(g *cfg.CFG) []*cfg.Node { return cg.sites[g] }

// CalleesTransitively lists every CFG reachable through calls from g.
func (cg *Graph) CalleesTransitively(g *cfg.CFG) []*cfg.CFG {
	return cg.G.Reachable(cg.callees[g]...)
}

// CallersTransitively lists the given CFGs and every CFG that may
// transitively call them.
func (cg *Graph) CallersTransitively(gs ...*cfg.CFG) []*cfg.CFG {
	return cg.rev.Reachable(gs...)
}

// Recursive checks whether the CFG lies on a cycle of the call graph.
func (cg *Graph) Recursive(g *cfg.CFG) bool { return cg.scc.Cyclic(g) }

// Component lists the CFGs in the strongly connected component of g.
func (cg *Graph) Component(g *cfg.CFG) []*cfg.CFG {
	idx := cg.scc.ComponentOf(g)
	if idx < 0 {
		return nil
	}
	return cg.scc.Components[idx]
}

func (cg *Graph) ToDot() *dot.DotGraph {
	G := &dot.DotGraph{
		Title:   "Call graph",
		Options: map[string]string{"name": "callgraph"},
	}

	nodes := make(map[*cfg.CFG]*dot.DotNode)
	for i, g := range cg.Nodes() {
		attrs := dot.DotAttrs{"label": g.Desc.String()}
		if cg.Recursive(g) {
			attrs["fillcolor"] = "lightpink"
		}
		dn := &dot.DotNode{ID: fmt.Sprintf("f%d", i), Attrs: attrs}
		nodes[g] = dn
		G.Nodes = append(G.Nodes, dn)
	}

	for _, g := range cg.Nodes() {
		for _, callee := range cg.callees[g] {
			G.Edges = append(G.Edges, &dot.DotEdge{From: nodes[g], To: nodes[callee], Attrs: dot.DotAttrs{}})
		}
	}
	return G
}
