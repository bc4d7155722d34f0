package frontend

import (
	"go/constant"
	"go/token"
	"go/types"
	"sort"

	"github.com/cs-au-dk/golisa/analysis/cfg"
	S "github.com/cs-au-dk/golisa/analysis/symbolic"
	T "github.com/cs-au-dk/golisa/analysis/types"
	"github.com/cs-au-dk/golisa/utils"
	"github.com/cs-au-dk/golisa/utils/graph"

	"golang.org/x/tools/go/ssa"
)

var binaryOps = map[token.Token]S.BinaryOp{
	token.ADD: S.Add,
	token.SUB: S.Sub,
	token.MUL: S.Mul,
	token.QUO: S.Div,
	token.REM: S.Rem,
	token.EQL: S.Eq,
	token.NEQ: S.Ne,
	token.LSS: S.Lt,
	token.LEQ: S.Le,
	token.GTR: S.Gt,
	token.GEQ: S.Ge,
}

// lowerBody adds the nodes of the blocks reachable from the entry block. Phi
// nodes become assignments on the incoming edges.
func (l *lowering) lowerBody(fun *ssa.Function, g *cfg.CFG) {
	blocks := graph.FromBasicBlocks(fun).Reachable(0)
	sort.Ints(blocks)

	heads := make(map[int]*cfg.Node, len(blocks))
	tails := make(map[int]*cfg.Node, len(blocks))
	for _, i := range blocks {
		var head, tail *cfg.Node
		add := func(stmt cfg.Statement, pos token.Pos) {
			n := g.AddNode(stmt, l.position(pos))
			if tail == nil {
				head = n
			} else {
				g.AddEdge(tail, n, cfg.Seq)
			}
			tail = n
		}

		for _, instr := range fun.Blocks[i].Instrs {
			if stmt, ok := l.statement(instr); ok {
				add(stmt, instr.Pos())
			}
		}
		if head == nil {
			add(cfg.NoOp{}, token.NoPos)
		}
		heads[i], tails[i] = head, tail
	}

	for _, i := range blocks {
		b := fun.Blocks[i]
		_, branch := b.Instrs[len(b.Instrs)-1].(*ssa.If)

		for k, succ := range b.Succs {
			from, kind := tails[i], cfg.Seq
			if branch && k == 0 {
				kind = cfg.True
			} else if branch {
				kind = cfg.False
			}

			for _, stmt := range l.phiMoves(b, succ) {
				n := g.AddNode(stmt, "")
				g.AddEdge(from, n, kind)
				from, kind = n, cfg.Seq
			}
			g.AddEdge(from, heads[succ.Index], kind)
		}
	}
	l.log.Debugf("Lowered %s into %d nodes", utils.SSAFunString(fun), g.Size())
}

// phiMoves lists the assignments performed by the phis of succ when control
// comes from pred. Moves go through temporaries when a phi reads another phi
// of the same block.
func (l *lowering) phiMoves(pred, succ *ssa.BasicBlock) (res []cfg.Statement) {
	k := -1
	for j, p := range succ.Preds {
		if p == pred {
			k = j
			break
		}
	}
	if k < 0 {
		return nil
	}

	var phis []*ssa.Phi
	parallel := false
	for _, instr := range succ.Instrs {
		phi, ok := instr.(*ssa.Phi)
		if !ok {
			break
		}
		if phi.Edges[k] == phi {
			continue
		}
		if in, ok := phi.Edges[k].(*ssa.Phi); ok && in.Block() == succ {
			parallel = true
		}
		phis = append(phis, phi)
	}

	temp := func(phi *ssa.Phi) S.Identifier {
		return S.Var("phi$" + phi.Name()).Typed(l.mapType(phi.Type()))
	}

	for _, phi := range phis {
		target := l.ident(phi)
		if parallel {
			target = temp(phi)
		}
		res = append(res, cfg.Assign{Target: target, Value: l.expr(phi.Edges[k])})
	}
	if parallel {
		for _, phi := range phis {
			res = append(res, cfg.Assign{Target: l.ident(phi), Value: temp(phi)})
		}
	}
	return
}

// statement lowers an instruction. The second result is false for
// instructions that have no effect on the analysed state.
func (l *lowering) statement(instr ssa.Instruction) (cfg.Statement, bool) {
	switch instr := instr.(type) {
	case *ssa.Phi, *ssa.Jump:
		return nil, false
	case *ssa.If:
		return cfg.Branch{Cond: l.cond(instr.Cond)}, true
	case *ssa.Return:
		switch len(instr.Results) {
		case 0:
			return cfg.Return{}, true
		case 1:
			return cfg.Return{Value: l.expr(instr.Results[0])}, true
		default:
			return cfg.Return{Value: S.Any()}, true
		}
	case *ssa.Panic:
		return cfg.NoOp{}, true
	case *ssa.Store:
		if glob, ok := instr.Addr.(*ssa.Global); ok {
			return cfg.Assign{Target: l.global(glob), Value: l.expr(instr.Val)}, true
		}
	case *ssa.Call:
		return l.call(instr), true
	case ssa.Value:
		return cfg.Assign{Target: l.ident(instr), Value: l.value(instr)}, true
	}
	// Goroutines, deferred calls and stores to memory are not modelled.
	l.log.Tracef("Skipping %s", utils.SSAInstrString(instr))
	return nil, false
}

func (l *lowering) call(instr *ssa.Call) cfg.Call {
	common := instr.Common()

	var c cfg.Call
	if common.Signature().Results().Len() > 0 {
		c.Result = l.ident(instr)
	}
	for _, arg := range common.Args {
		c.Args = append(c.Args, l.expr(arg))
	}

	if common.IsInvoke() {
		c.Args = append([]S.Expression{l.expr(common.Value)}, c.Args...)
		method := common.Method.Name()
		if iface := l.unitName(common.Value.Type()); l.units[iface] != nil && l.hasImplementation(iface, method) {
			c.Receiver, c.Callee = iface, method
		} else {
			c.Callee, c.Open = common.Method.FullName(), true
		}
		return c
	}

	if callee := common.StaticCallee(); callee != nil {
		if g, ok := l.cfgs[callee]; ok {
			c.Callee = g.Name()
		} else {
			c.Callee, c.Open = callee.String(), true
		}
		return c
	}

	c.Callee, c.Open = common.Value.String(), true
	return c
}

// value is the expression computed by a value instruction. Unsupported
// instructions push an unknown value of their type.
func (l *lowering) value(v ssa.Value) S.Expression {
	switch v := v.(type) {
	case *ssa.BinOp:
		if op, ok := binaryOps[v.Op]; ok && l.supported(op, v.X.Type()) {
			return S.Binary(op, l.expr(v.X), l.expr(v.Y))
		}
	case *ssa.UnOp:
		switch {
		case v.Op == token.SUB && l.mapType(v.X.Type()) == T.Int:
			return S.Unary(S.Neg, l.expr(v.X))
		case v.Op == token.NOT:
			return S.Unary(S.Not, l.expr(v.X))
		case v.Op == token.MUL:
			if glob, ok := v.X.(*ssa.Global); ok {
				return l.global(glob)
			}
		}
	case *ssa.Convert:
		if t := l.mapType(v.Type()); t != T.Untyped && t == l.mapType(v.X.Type()) {
			return l.expr(v.X)
		}
	case *ssa.ChangeType:
		return l.expr(v.X)
	case *ssa.MakeInterface:
		return l.expr(v.X)
	}
	return S.PushAny{Type: l.mapType(v.Type())}
}

// cond inlines the comparisons tested by conditional jumps, so that
// branches refine their operands.
func (l *lowering) cond(v ssa.Value) S.Expression {
	switch v := v.(type) {
	case *ssa.BinOp:
		if op, ok := binaryOps[v.Op]; ok && op.IsComparison() && l.supported(op, v.X.Type()) {
			return S.Binary(op, l.expr(v.X), l.expr(v.Y))
		}
	case *ssa.UnOp:
		if v.Op == token.NOT {
			return S.Negate(l.cond(v.X))
		}
	}
	return l.expr(v)
}

// supported checks whether the operator is modelled for operands of the
// given type.
func (l *lowering) supported(op S.BinaryOp, t types.Type) bool {
	switch l.mapType(t) {
	case T.Int:
		return op.IsArithmetic() || op.IsComparison()
	case T.Bool:
		return op == S.Eq || op == S.Ne
	}
	return false
}

// expr is the expression denoting an operand.
func (l *lowering) expr(v ssa.Value) S.Expression {
	switch v := v.(type) {
	case *ssa.Const:
		return l.constant(v)
	case *ssa.Parameter, ssa.Instruction:
		return l.ident(v)
	}
	return S.PushAny{Type: l.mapType(v.Type())}
}

func (l *lowering) constant(c *ssa.Const) S.Expression {
	t := l.mapType(c.Type())
	if c.Value != nil {
		switch c.Value.Kind() {
		case constant.Bool:
			return S.Bool(constant.BoolVal(c.Value))
		case constant.String:
			return S.Str(constant.StringVal(c.Value))
		case constant.Int:
			if i, exact := constant.Int64Val(c.Value); exact && t == T.Int {
				return S.Int(int(i))
			}
		}
	}
	return S.PushAny{Type: t}
}

func (l *lowering) ident(v ssa.Value) S.Identifier {
	return l.param(v.Name(), v.Type())
}

func (l *lowering) param(name string, t types.Type) S.Identifier {
	return S.Var(name).Typed(l.mapType(t))
}

// global is the identifier of a package-level variable. It is not scoped,
// so every CFG sees it.
func (l *lowering) global(glob *ssa.Global) S.Identifier {
	t := glob.Type().(*types.Pointer).Elem()
	return S.Global(l.qualify(glob.Pkg.Pkg, glob.Name())).Typed(l.mapType(t))
}

// mapType is the runtime type of the values of a Go type. Named types of
// the local packages are the types of their units.
func (l *lowering) mapType(t types.Type) T.Type {
	if b, ok := t.Underlying().(*types.Basic); ok {
		switch info := b.Info(); {
		case info&types.IsBoolean != 0:
			return T.Bool
		case info&types.IsInteger != 0:
			return T.Int
		case info&types.IsString != 0:
			return T.String
		}
	}
	if name := l.unitName(t); l.units[name] != nil {
		return T.Unit(name)
	}
	return T.Untyped
}
