package absint

import (
	"github.com/benbjohnson/immutable"
	"github.com/cs-au-dk/golisa/analysis/cfg"
	"github.com/cs-au-dk/golisa/analysis/lattice"
	"github.com/cs-au-dk/golisa/utils"
	"github.com/cs-au-dk/golisa/utils/dot"

	"github.com/pkg/errors"
)

// ErrMissingResult is returned when querying the state of a node that was
// not stored, either because it is unreachable or because the results are
// optimized.
var ErrMissingResult = errors.New("missing result")

// AnalyzedCFG holds the result of a fixpoint computation over a CFG: the
// entry and exit states, and the pre- and post-states of its nodes.
type AnalyzedCFG[A State[A]] struct {
	cfg   *cfg.CFG
	entry AnalysisState[A]
	exit  AnalysisState[A]

	pre  *immutable.Map[*cfg.Node, AnalysisState[A]]
	post *immutable.Map[*cfg.Node, AnalysisState[A]]

	conf Config
}

func newAnalyzed[A State[A]](g *cfg.CFG, entry AnalysisState[A], conf Config) *AnalyzedCFG[A] {
	return &AnalyzedCFG[A]{
		cfg:   g,
		entry: entry,
		exit:  entry.Bot(),
		pre:   utils.NewPtrMap[*cfg.Node, AnalysisState[A]](),
		post:  utils.NewPtrMap[*cfg.Node, AnalysisState[A]](),
		conf:  conf,
	}
}

func (a *AnalyzedCFG[A]) CFG() *cfg.CFG { return a.cfg }

func (a *AnalyzedCFG[A]) Entry() AnalysisState[A] { return a.entry }

// Exit is the join of the post-states of the return nodes.
func (a *AnalyzedCFG[A]) Exit() AnalysisState[A] { return a.exit }

// Optimized results only hold the post-states of widening points, hotspots
// and back-patched calls.
func (a *AnalyzedCFG[A]) Optimized() bool { return a.conf.Optimize }

func (a *AnalyzedCFG[A]) PreOf(n *cfg.Node) (AnalysisState[A], error) {
	if st, ok := a.pre.Get(n); ok {
		return st, nil
	}
	return a.entry.Bot(), errors.Wrapf(ErrMissingResult, "no pre-state for %s in %s", n.ID(), a.cfg)
}

func (a *AnalyzedCFG[A]) PostOf(n *cfg.Node) (AnalysisState[A], error) {
	if st, ok := a.post.Get(n); ok {
		return st, nil
	}
	return a.entry.Bot(), errors.Wrapf(ErrMissingResult, "no post-state for %s in %s", n.ID(), a.cfg)
}

func (a *AnalyzedCFG[A]) HasPostOf(n *cfg.Node) bool {
	_, ok := a.post.Get(n)
	return ok
}

// StorePostOf records the post-state of a node after the fact. It is used
// to back-patch the calls of optimized results.
func (a *AnalyzedCFG[A]) StorePostOf(n *cfg.Node, st AnalysisState[A]) {
	a.post = a.post.Set(n, st)
}

// Unwind recomputes every state of optimized results. The post-states of
// calls that were stored are reused instead of resolving the calls again.
// Other calls are resolved with the given resolver.
func (a *AnalyzedCFG[A]) Unwind(resolver CallResolver[A]) (*AnalyzedCFG[A], error) {
	if !a.Optimized() {
		return a, nil
	}

	conf := a.conf
	conf.Optimize = false
	return Fixpoint[A](a.cfg, a.entry, storedCalls[A]{a, resolver}, conf)
}

type storedCalls[A State[A]] struct {
	res  *AnalyzedCFG[A]
	next CallResolver[A]
}

func (s storedCalls[A]) ResolveCall(call *cfg.Node, pre AnalysisState[A]) (AnalysisState[A], error) {
	if post, ok := s.res.post.Get(call); ok {
		return post, nil
	}
	if s.next == nil {
		return pre, errors.Wrapf(ErrMissingResult, "cannot unwind call %s at %s", call, call.Location())
	}
	return s.next.ResolveCall(call, pre)
}

// Join computes the pointwise least upper bound of two results of the same
// CFG.
func (a *AnalyzedCFG[A]) Join(o *AnalyzedCFG[A]) (*AnalyzedCFG[A], error) {
	return a.merge(o, "⊔", AnalysisState[A].Join)
}

// Widen computes the pointwise widening of two results of the same CFG.
func (a *AnalyzedCFG[A]) Widen(o *AnalyzedCFG[A]) (*AnalyzedCFG[A], error) {
	return a.merge(o, "∇", AnalysisState[A].Widen)
}

type stateOp[A State[A]] func(AnalysisState[A], AnalysisState[A]) (AnalysisState[A], error)

func (a *AnalyzedCFG[A]) merge(o *AnalyzedCFG[A], name string, op stateOp[A]) (*AnalyzedCFG[A], error) {
	if a.cfg != o.cfg {
		return a, lattice.Incompatible(name, a.cfg, o.cfg)
	}

	res := newAnalyzed(a.cfg, a.entry, a.conf)
	var err error
	if res.entry, err = op(a.entry, o.entry); err != nil {
		return a, err
	}
	if res.exit, err = op(a.exit, o.exit); err != nil {
		return a, err
	}
	if res.pre, err = mergeStates(a.pre, o.pre, op); err != nil {
		return a, err
	}
	if res.post, err = mergeStates(a.post, o.post, op); err != nil {
		return a, err
	}
	return res, nil
}

func mergeStates[A State[A]](a, b *immutable.Map[*cfg.Node, AnalysisState[A]], op stateOp[A]) (*immutable.Map[*cfg.Node, AnalysisState[A]], error) {
	res := a
	for iter := b.Iterator(); !iter.Done(); {
		n, st, _ := iter.Next()
		if old, ok := res.Get(n); ok {
			var err error
			if st, err = op(old, st); err != nil {
				return a, err
			}
		}
		res = res.Set(n, st)
	}
	return res, nil
}

// Leq compares the entry, exit and stored post-states of two results of the
// same CFG. A post-state missing on the right is only covered if it is ⊥.
func (a *AnalyzedCFG[A]) Leq(o *AnalyzedCFG[A]) (bool, error) {
	if a.cfg != o.cfg {
		return false, lattice.Incompatible("⊑", a.cfg, o.cfg)
	}

	if leq, err := a.entry.Leq(o.entry); err != nil || !leq {
		return false, err
	}
	if leq, err := a.exit.Leq(o.exit); err != nil || !leq {
		return false, err
	}
	for iter := a.post.Iterator(); !iter.Done(); {
		n, st, _ := iter.Next()
		ost, ok := o.post.Get(n)
		if !ok {
			if !st.IsBot() {
				return false, nil
			}
			continue
		}
		if leq, err := st.Leq(ost); err != nil || !leq {
			return false, err
		}
	}
	return true, nil
}

func (a *AnalyzedCFG[A]) annotation(n *cfg.Node) string {
	if st, ok := a.post.Get(n); ok {
		return st.String()
	}
	return ""
}

// String dumps the CFG with the post-state of every node, followed by the
// exit state.
func (a *AnalyzedCFG[A]) String() string {
	return a.cfg.DumpWith(a.annotation) +
		lattice.Colorize.Attr("exit:") + "\n" + a.exit.String()
}

func (a *AnalyzedCFG[A]) ToDot() *dot.DotGraph {
	return a.cfg.ToDot(a.annotation)
}
