package cfg

import (
	"strings"

	"github.com/cs-au-dk/golisa/analysis/symbolic"
)

// Descriptor holds the signature of a CFG.
type Descriptor struct {
	// Name is the qualified name of the CFG. Members of units are named
	// Unit.method.
	Name string
	// Unit is the name of the unit the CFG is a member of, if any.
	Unit    string
	Formals []symbolic.Identifier
	// Void CFGs do not return a value.
	Void     bool
	Location string
	// Abstract CFGs have no body.
	Abstract bool
}

// ReturnVar is the meta-variable holding the value returned by the CFG. It
// is not scoped, so it survives leaving the callee.
func (d Descriptor) ReturnVar() symbolic.Identifier {
	return symbolic.Global("ret$" + d.Name)
}

func (d Descriptor) String() string {
	formals := make([]string, 0, len(d.Formals))
	for _, f := range d.Formals {
		formals = append(formals, f.String())
	}

	str := d.Name + "(" + strings.Join(formals, ", ") + ")"
	if d.Abstract {
		str = "abstract " + str
	}
	if d.Void {
		str += " void"
	}
	return str
}

// CFG is the control-flow graph of a procedure.
type CFG struct {
	Desc Descriptor

	nodes []*Node
	entry *Node

	// Derived from the edges and reset whenever the graph changes.
	rpo     []*Node
	wpoints map[*Node]bool
}

// New creates an empty CFG.
func New(desc Descriptor) *CFG {
	return &CFG{Desc: desc}
}

func (g *CFG) Name() string { return g.Desc.Name }

func (g *CFG) String() string { return g.Desc.Name }

// AddNode adds a node carrying the statement. The first node added is the
// entry of the CFG.
func (g *CFG) AddNode(stmt Statement, pos string) *Node {
	n := &Node{Stmt: stmt, Pos: pos, cfg: g, index: len(g.nodes)}
	g.nodes = append(g.nodes, n)
	if g.entry == nil {
		g.entry = n
	}
	g.invalidate()
	return n
}

// AddEdge connects two nodes of the CFG.
func (g *CFG) AddEdge(from, to *Node, kind EdgeKind) {
	e := Edge{From: from, To: to, Kind: kind}
	from.out = append(from.out, e)
	to.in = append(to.in, e)
	g.invalidate()
}

func (g *CFG) invalidate() {
	g.rpo, g.wpoints = nil, nil
}

// Entry returns the node at which the execution of the CFG starts. It is nil
// for abstract CFGs.
func (g *CFG) Entry() *Node { return g.entry }

// Nodes lists the nodes in creation order.
func (g *CFG) Nodes() []*Node { return g.nodes }

// Size is the number of nodes.
func (g *CFG) Size() int { return len(g.nodes) }

// ReturnNodes lists the nodes at which the execution of the CFG may end:
// return statements and nodes without successors.
func (g *CFG) ReturnNodes() (res []*Node) {
	for _, n := range g.nodes {
		if _, ok := n.Stmt.(Return); ok || len(n.out) == 0 {
			res = append(res, n)
		}
	}
	return
}

// Calls lists the nodes carrying calls.
func (g *CFG) Calls() (res []*Node) {
	for _, n := range g.nodes {
		if n.IsCall() {
			res = append(res, n)
		}
	}
	return
}

// ReversePostorder orders the nodes reachable from the entry in reverse
// postorder of a depth-first traversal. Unreachable nodes follow in
// creation order.
func (g *CFG) ReversePostorder() []*Node {
	if g.rpo == nil {
		g.traverse()
	}
	return g.rpo
}

// IsWideningPoint checks whether the node is the target of a back edge.
// States are widened at these nodes.
func (g *CFG) IsWideningPoint(n *Node) bool {
	if g.wpoints == nil {
		g.traverse()
	}
	return g.wpoints[n]
}

// WideningPoints lists the targets of back edges in creation order.
func (g *CFG) WideningPoints() (res []*Node) {
	for _, n := range g.nodes {
		if g.IsWideningPoint(n) {
			res = append(res, n)
		}
	}
	return
}

func (g *CFG) traverse() {
	const (
		unvisited = iota
		active
		done
	)

	state := make(map[*Node]int, len(g.nodes))
	wpoints := make(map[*Node]bool)
	post := make([]*Node, 0, len(g.nodes))

	var visit func(*Node)
	visit = func(n *Node) {
		state[n] = active
		for _, e := range n.out {
			switch state[e.To] {
			case unvisited:
				visit(e.To)
			case active:
				wpoints[e.To] = true
			}
		}
		state[n] = done
		post = append(post, n)
	}

	if g.entry != nil {
		visit(g.entry)
	}

	rpo := make([]*Node, 0, len(g.nodes))
	for i := len(post) - 1; i >= 0; i-- {
		rpo = append(rpo, post[i])
	}
	for _, n := range g.nodes {
		if state[n] == unvisited {
			rpo = append(rpo, n)
		}
	}

	g.rpo, g.wpoints = rpo, wpoints
}
