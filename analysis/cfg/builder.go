package cfg

import "github.com/cs-au-dk/golisa/analysis/symbolic"

// Builder constructs a CFG by appending statements after a cursor node.
//
//	b := NewBuilder(desc)
//	loop := b.If(cond).Node()
//	b.From(loop, True).Assign(x, e).Link(loop)
//	b.From(loop, False).Return(x)
//	g := b.Build()
type Builder struct {
	g    *CFG
	cur  *Node
	kind EdgeKind
	pos  string
}

func NewBuilder(desc Descriptor) *Builder {
	return &Builder{g: New(desc)}
}

// Then appends a statement after the cursor and moves the cursor to it.
func (b *Builder) Then(stmt Statement) *Builder {
	n := b.g.AddNode(stmt, b.pos)
	b.pos = ""
	if b.cur != nil {
		b.g.AddEdge(b.cur, n, b.kind)
	}
	b.cur, b.kind = n, Seq
	return b
}

// At sets the source position of the next statement.
func (b *Builder) At(pos string) *Builder {
	b.pos = pos
	return b
}

func (b *Builder) Assign(id symbolic.Identifier, e symbolic.Expression) *Builder {
	return b.Then(Assign{Target: id, Value: e})
}

func (b *Builder) If(cond symbolic.Expression) *Builder {
	return b.Then(Branch{Cond: cond})
}

// Call appends a static call. The result is discarded when res is the zero
// identifier.
func (b *Builder) Call(res symbolic.Identifier, callee string, args ...symbolic.Expression) *Builder {
	return b.Then(Call{Callee: callee, Args: args, Result: res})
}

// Return appends a return statement. A nil value returns from a void CFG.
func (b *Builder) Return(e symbolic.Expression) *Builder {
	return b.Then(Return{Value: e})
}

func (b *Builder) NoOp() *Builder {
	return b.Then(NoOp{})
}

// From moves the cursor to n. The next statement is reached from n through
// an edge of the given kind.
func (b *Builder) From(n *Node, kind EdgeKind) *Builder {
	b.cur, b.kind = n, kind
	return b
}

// Link connects the cursor to an existing node, and moves the cursor to it.
func (b *Builder) Link(to *Node) *Builder {
	b.g.AddEdge(b.cur, to, b.kind)
	b.cur, b.kind = to, Seq
	return b
}

// Node returns the node under the cursor.
func (b *Builder) Node() *Node { return b.cur }

func (b *Builder) Build() *CFG { return b.g }
