package absint

import (
	"github.com/cs-au-dk/golisa/analysis/cfg"
	"github.com/cs-au-dk/golisa/analysis/symbolic"

	"github.com/pkg/errors"
)

// CallResolver computes the post-state of a call from its pre-state. The
// interprocedural engines implement it.
type CallResolver[A State[A]] interface {
	ResolveCall(call *cfg.Node, pre AnalysisState[A]) (AnalysisState[A], error)
}

// OpenCallPolicy decides the post-state of calls whose target is not part of
// the program.
type OpenCallPolicy[A State[A]] interface {
	Apply(call *cfg.Node, pre AnalysisState[A]) (AnalysisState[A], error)
}

// WorstCase assumes that an open call may change anything: the post-state
// is top.
type WorstCase[A State[A]] struct{}

func (WorstCase[A]) Apply(call *cfg.Node, pre AnalysisState[A]) (AnalysisState[A], error) {
	if pre.State.IsBot() {
		return pre.Bot(), nil
	}
	res := pre.Top()
	if c := call.Stmt.(cfg.Call); c.HasResult() {
		res.Computed = []symbolic.Identifier{c.Result}
	}
	return res, nil
}

// ReturnTop assumes that an open call has no side effects and returns an
// unknown value.
type ReturnTop[A State[A]] struct{}

func (ReturnTop[A]) Apply(call *cfg.Node, pre AnalysisState[A]) (AnalysisState[A], error) {
	c := call.Stmt.(cfg.Call)
	if !c.HasResult() {
		return pre.with(pre.State, nil), nil
	}
	return pre.Assign(c.Result, symbolic.PushAny{Type: c.Result.Type}, call)
}

// Semantics is the transfer function of a node. Calls are delegated to the
// resolver. Returns assign the returned value to the return meta-variable
// of the CFG.
func Semantics[A State[A]](n *cfg.Node, pre AnalysisState[A], resolver CallResolver[A]) (AnalysisState[A], error) {
	if pre.State.IsBot() {
		return pre.Bot(), nil
	}

	switch s := n.Stmt.(type) {
	case cfg.Assign:
		return pre.Assign(s.Target, s.Value, n)
	case cfg.Branch, cfg.NoOp:
		return pre.with(pre.State, nil), nil
	case cfg.Call:
		if resolver == nil {
			return pre, errors.Errorf("no resolver for call %s at %s", n, n.Location())
		}
		return resolver.ResolveCall(n, pre)
	case cfg.Return:
		if s.Value == nil {
			return pre.with(pre.State, nil), nil
		}
		return pre.Assign(n.CFG().Desc.ReturnVar(), s.Value, n)
	}
	return pre, errors.Errorf("unsupported statement %s at %s", n, n.Location())
}

// Traverse computes the state flowing along an edge. The condition of a
// branch is assumed on its true edge and negated on its false edge.
func Traverse[A State[A]](e cfg.Edge, post AnalysisState[A]) (AnalysisState[A], error) {
	br, ok := e.From.Stmt.(cfg.Branch)
	if !ok || e.Kind == cfg.Seq {
		return post, nil
	}

	cond := br.Cond
	if e.Kind == cfg.False {
		cond = symbolic.Negate(cond)
	}
	return post.Assume(cond, e.From)
}
