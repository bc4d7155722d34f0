package interproc

import (
	"github.com/benbjohnson/immutable"
	"github.com/cs-au-dk/golisa/analysis/absint"
	"github.com/cs-au-dk/golisa/analysis/cfg"
	"github.com/cs-au-dk/golisa/analysis/symbolic"
	"github.com/cs-au-dk/golisa/utils"
)

// RecursionSolver computes the fixpoint of the recursive chains that share
// an invocation. The calls closing the chains, the back calls, return an
// approximation of the value computed by the invocation, which is refined
// until it is stable.
type RecursionSolver[A absint.State[A]] struct {
	e    *ContextBased[A]
	recs []*Recursion[A]

	invocation *cfg.Node
	token      Token
	entry      absint.AnalysisState[A]

	// Approximation of the post-state of each back call. Missing back calls
	// are approximated by the stub of their head.
	approx *immutable.Map[*cfg.Node, absint.AnalysisState[A]]
	finals map[*cfg.Node]*backCall[A]
	order  []*cfg.Node

	round, joins int
}

// backCall is the last pre-state reaching a back call.
type backCall[A absint.State[A]] struct {
	pre   absint.AnalysisState[A]
	tok   Token
	head  *cfg.CFG
	round int
}

func newSolver[A absint.State[A]](e *ContextBased[A], recs []*Recursion[A]) *RecursionSolver[A] {
	return &RecursionSolver[A]{
		e:          e,
		recs:       recs,
		invocation: recs[0].Invocation,
		token:      recs[0].InvocationToken,
		entry:      recs[0].Entry,
		approx:     utils.NewPtrMap[*cfg.Node, absint.AnalysisState[A]](),
		finals:     make(map[*cfg.Node]*backCall[A]),
	}
}

// ResolveCall answers back calls with their approximation, and lets the
// engine resolve every other call.
func (s *RecursionSolver[A]) ResolveCall(call *cfg.Node, pre absint.AnalysisState[A]) (absint.AnalysisState[A], error) {
	if r := s.intercepts(call); r != nil {
		return s.backCall(s.token, call, pre, r)
	}
	return s.e.resolve(s.token, call, pre)
}

func (s *RecursionSolver[A]) isMember(g *cfg.CFG) bool {
	for _, r := range s.recs {
		if r.Members[g] {
			return true
		}
	}
	return false
}

// intercepts returns the recursion closed by the call, if any.
func (s *RecursionSolver[A]) intercepts(call *cfg.Node) *Recursion[A] {
	for _, r := range s.recs {
		if !r.Members[call.CFG()] {
			continue
		}
		for _, target := range s.e.cg.Resolve(call) {
			if target == r.Head {
				return r
			}
		}
	}
	return nil
}

func (s *RecursionSolver[A]) backCall(tok Token, call *cfg.Node, pre absint.AnalysisState[A], r *Recursion[A]) (absint.AnalysisState[A], error) {
	fin, ok := s.finals[call]
	switch {
	case !ok:
		fin = &backCall[A]{pre: pre, tok: tok, head: r.Head, round: s.round}
		s.finals[call] = fin
		s.order = append(s.order, call)
	case fin.round != s.round:
		fin.pre, fin.tok, fin.round = pre, tok, s.round
	default:
		var err error
		if fin.pre, err = fin.pre.Join(pre); err != nil {
			return pre, err
		}
	}

	ap, ok := s.approx.Get(call)
	if !ok {
		return recursionStub(call.Stmt.(cfg.Call), r.Head, pre), nil
	}
	return s.combine(call, pre, ap)
}

// combine computes the post-state of a back call from its pre-state and
// the approximation of the value it returns.
func (s *RecursionSolver[A]) combine(call *cfg.Node, pre, ap absint.AnalysisState[A]) (absint.AnalysisState[A], error) {
	if c := call.Stmt.(cfg.Call); c.HasResult() {
		pre = pre.Forget(c.Result)
	}
	st, err := pre.State.Join(ap.State)
	return absint.NewState(st, ap.Computed...), err
}

func (s *RecursionSolver[A]) evaluate() (absint.AnalysisState[A], error) {
	if s.invocation == nil {
		res, err := s.e.enter(frame[A]{cfg: s.recs[0].Head, token: s.token, entry: s.entry})
		if err != nil {
			return s.entry, err
		}
		return res.Exit(), nil
	}
	return absint.Semantics[A](s.invocation, s.entry, s)
}

// transfer moves the value computed by the invocation into the result of a
// back call. The locals of the invocation are dropped.
func (s *RecursionSolver[A]) transfer(call *cfg.Node, post absint.AnalysisState[A]) (absint.AnalysisState[A], error) {
	c := call.Stmt.(cfg.Call)
	meta := c.Result
	res := post
	if !s.finals[call].head.Desc.Void && c.HasResult() {
		if len(post.Computed) == 0 {
			var err error
			if res, err = post.Assign(meta, symbolic.PushAny{Type: meta.Type}, call); err != nil {
				return post, err
			}
		} else {
			res = post.Bot()
			for _, id := range post.Computed {
				st, err := post.Assign(meta, id, call)
				if err != nil {
					return post, err
				}
				if res, err = res.Join(st); err != nil {
					return post, err
				}
			}
		}
	} else {
		meta = symbolic.Identifier{}
	}

	return res.ForgetIf(func(id symbolic.Identifier) bool {
		if meta.Name != "" && id.Equal(meta) {
			return false
		}
		if id.Scoped {
			return true
		}
		for _, o := range post.Computed {
			if o.Equal(id) {
				return true
			}
		}
		return false
	}), nil
}

func (s *RecursionSolver[A]) mergeApprox(old, next absint.AnalysisState[A]) (absint.AnalysisState[A], error) {
	if thr := s.e.conf.WideningThreshold; thr >= 0 && s.joins >= thr {
		return old.Widen(next)
	}
	return old.Join(next)
}

func approxLeq[A absint.State[A]](a, b *immutable.Map[*cfg.Node, absint.AnalysisState[A]]) (bool, error) {
	for iter := a.Iterator(); !iter.Done(); {
		call, st, _ := iter.Next()
		ost, ok := b.Get(call)
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

// Solve iterates the invocation until the approximations of the back calls
// are stable, and returns the post-state of the invocation.
func (s *RecursionSolver[A]) Solve() (absint.AnalysisState[A], error) {
	e := s.e
	e.solvers = append(e.solvers, s)
	defer func() {
		e.solvers = e.solvers[:len(e.solvers)-1]
		if len(e.solvers) == 0 {
			e.fresh = make(map[*cfg.CFG]*immutable.Map[Token, bool])
		}
	}()

	loc := "entry"
	if s.invocation != nil {
		loc = s.invocation.Location()
	}
	e.Log.Infof("Solving recursion at %s for context %s", loc, s.token)
	for _, r := range s.recs {
		e.Log.Debugf("Recursion %s", r)
	}

	for {
		s.round++
		e.Log.Debugf("Evaluating the recursion at %s (round %d)", loc, s.round)

		post, err := s.evaluate()
		if err != nil {
			return s.entry, err
		}

		prev := s.approx
		next := prev
		for _, call := range s.order {
			v, err := s.transfer(call, post)
			if err != nil {
				return s.entry, err
			}
			if old, ok := prev.Get(call); ok {
				if v, err = s.mergeApprox(old, v); err != nil {
					return s.entry, err
				}
			}
			next = next.Set(call, v)
		}
		s.joins++
		s.approx = next

		if leq, err := approxLeq(next, prev); err != nil {
			return s.entry, err
		} else if leq {
			e.Log.Debugf("The recursion at %s converged after %d rounds", loc, s.round)
			if e.conf.Optimize {
				if err := s.backPatch(); err != nil {
					return s.entry, err
				}
			}
			return post, nil
		}
	}
}

// backPatch stores the post-states of the back calls in the results of
// their callers, so that unwinding optimized results does not resolve them
// again. The value returned by a back call is the one computed by the exit
// of its head.
func (s *RecursionSolver[A]) backPatch() error {
	headTok := s.token
	if s.invocation != nil {
		headTok = s.token.Push(s.invocation)
	}

	for _, call := range s.order {
		fin := s.finals[call]
		res, ok := s.e.result(call.CFG(), fin.tok)
		if !ok || res.HasPostOf(call) {
			continue
		}
		head, ok := s.e.result(fin.head, headTok)
		if !ok {
			continue
		}

		exit := head.Exit()
		polished := exit.ForgetIf(func(id symbolic.Identifier) bool {
			for _, o := range exit.Computed {
				if o.Equal(id) {
					return false
				}
			}
			return true
		})
		returned, err := fin.pre.Join(polished)
		if err != nil {
			return err
		}

		post := returned
		if c := call.Stmt.(cfg.Call); !fin.head.Desc.Void && c.HasResult() {
			post = returned.Bot()
			for _, id := range returned.Computed {
				st, err := returned.Assign(c.Result, id, call)
				if err != nil {
					return err
				}
				if post, err = post.Join(st); err != nil {
					return err
				}
			}
			for _, id := range returned.Computed {
				post = post.Forget(id)
			}
		}
		res.StorePostOf(call, post)
	}
	return nil
}
