package cfg

import (
	"fmt"
	"strings"

	"github.com/cs-au-dk/golisa/analysis/symbolic"
	"github.com/cs-au-dk/golisa/analysis/types"
)

// Statement is the instruction carried by a CF-node.
type Statement interface {
	fmt.Stringer
	isStatement()
}

type (
	// Assign binds the value of an expression to an identifier.
	Assign struct {
		Target symbolic.Identifier
		Value  symbolic.Expression
	}

	// Branch is a conditional jump. The condition holds on the outgoing True
	// edge and does not hold on the outgoing False edge.
	Branch struct {
		Cond symbolic.Expression
	}

	// Call invokes a CFG. Static calls name their target. Calls with a
	// receiver name a method of the receiver unit, and are dispatched to
	// every instance of that unit. Open calls have no target in the program.
	Call struct {
		Callee   string
		Receiver string
		Args     []symbolic.Expression
		// Result holds the returned value. It is the zero identifier for
		// calls whose result is discarded.
		Result symbolic.Identifier
		Open   bool
	}

	// Return leaves the CFG. Value is nil in void CFGs.
	Return struct {
		Value symbolic.Expression
	}

	NoOp struct{}
)

func (Assign) isStatement() {}
func (Branch) isStatement() {}
func (Call) isStatement()   {}
func (Return) isStatement() {}
func (NoOp) isStatement()   {}

func (s Assign) String() string {
	return s.Target.String() + " = " + s.Value.String()
}

func (s Branch) String() string {
	return "if " + s.Cond.String()
}

// HasResult checks whether the result of the call is kept.
func (s Call) HasResult() bool {
	return s.Result.Name != ""
}

// Target is the name of the invoked CFG, or of the invoked method for calls
// with a receiver.
func (s Call) Target() string {
	if s.Receiver != "" {
		return s.Receiver + "." + s.Callee
	}
	return s.Callee
}

func (s Call) String() string {
	args := make([]string, 0, len(s.Args))
	for _, arg := range s.Args {
		args = append(args, arg.String())
	}

	str := s.Target() + "(" + strings.Join(args, ", ") + ")"
	if s.Open {
		str = "open " + str
	}
	if s.HasResult() {
		str = s.Result.String() + " = " + str
	}
	return str
}

func (s Return) String() string {
	if s.Value == nil {
		return "return"
	}
	return "return " + s.Value.String()
}

func (NoOp) String() string { return "nop" }

// Expressions lists the expressions evaluated by a statement.
func Expressions(s Statement) []symbolic.Expression {
	switch s := s.(type) {
	case Assign:
		return []symbolic.Expression{s.Value}
	case Branch:
		return []symbolic.Expression{s.Cond}
	case Call:
		return s.Args
	case Return:
		if s.Value != nil {
			return []symbolic.Expression{s.Value}
		}
	}
	return nil
}

type EdgeKind int

const (
	Seq EdgeKind = iota
	True
	False
)

func (k EdgeKind) String() string {
	switch k {
	case True:
		return "true"
	case False:
		return "false"
	}
	return ""
}

// Edge connects two nodes of the same CFG.
type Edge struct {
	From, To *Node
	Kind     EdgeKind
}

// Node is a CF-node. It is the program point at which its statement is
// evaluated.
type Node struct {
	Stmt Statement
	// Pos is the source position of the statement, if any.
	Pos string

	cfg   *CFG
	index int
	out   []Edge
	in    []Edge

	runtimeTypes types.Set
	typed        bool
}

// CFG returns the graph the node belongs to.
func (n *Node) CFG() *CFG { return n.cfg }

// Index is the position of the node in the creation order of its CFG.
func (n *Node) Index() int { return n.index }

// ID is a unique name of the node in the program.
func (n *Node) ID() string {
	return fmt.Sprintf("%s#%d", n.cfg.Name(), n.index)
}

func (n *Node) Outgoing() []Edge { return n.out }

func (n *Node) Incoming() []Edge { return n.in }

// Successors lists the targets of the outgoing edges.
func (n *Node) Successors() []*Node {
	res := make([]*Node, 0, len(n.out))
	for _, e := range n.out {
		res = append(res, e.To)
	}
	return res
}

func (n *Node) String() string {
	return n.Stmt.String()
}

// Location is the source position of the node, or its ID for nodes without
// one.
func (n *Node) Location() string {
	if n.Pos != "" {
		return n.Pos
	}
	return n.ID()
}

// IsCall checks whether the node carries a call.
func (n *Node) IsCall() bool {
	_, ok := n.Stmt.(Call)
	return ok
}

// RuntimeTypes returns the types inferred for the value computed by the
// node, if type inference ran.
func (n *Node) RuntimeTypes() (types.Set, bool) {
	return n.runtimeTypes, n.typed
}

func (n *Node) SetRuntimeTypes(ts types.Set) {
	n.runtimeTypes, n.typed = ts, true
}
