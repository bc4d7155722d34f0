package interproc

import (
	"sort"

	"github.com/benbjohnson/immutable"
	"github.com/cs-au-dk/golisa/analysis/absint"
	"github.com/cs-au-dk/golisa/analysis/callgraph"
	"github.com/cs-au-dk/golisa/analysis/cfg"
	"github.com/cs-au-dk/golisa/analysis/program"
	"github.com/cs-au-dk/golisa/analysis/symbolic"
	"github.com/cs-au-dk/golisa/utils"

	"github.com/pkg/errors"
)

// Analysis is an interprocedural engine that can drive a whole run.
type Analysis[A absint.State[A]] interface {
	absint.CallResolver[A]

	Init(*program.Program, *callgraph.Graph, absint.OpenCallPolicy[A]) error
	Fixpoint(entry absint.AnalysisState[A], conf absint.Config) error
	ResultsOf(*cfg.CFG) ([]*absint.AnalyzedCFG[A], error)
}

// ErrInit is the cause of every initialization failure of an engine.
var ErrInit = errors.New("cannot initialize the interprocedural analysis")

// ContextBased analyzes every CFG once per calling context, as given by its
// token. Results are cached per CFG and token, and reused for calls whose
// entry state is covered by the cached one.
type ContextBased[A absint.State[A]] struct {
	Log *utils.LogGroup

	initial Token
	prog    *program.Program
	cg      *callgraph.Graph
	policy  absint.OpenCallPolicy[A]
	conf    absint.Config

	results map[*cfg.CFG]*immutable.Map[Token, *absint.AnalyzedCFG[A]]
	// Number of times the result of a CFG under a token grew. Results are
	// widened past the widening threshold.
	growth   map[*cfg.CFG]*immutable.Map[Token, int]
	triggers map[*cfg.CFG]bool
	// Results created while a recursion is being solved.
	fresh map[*cfg.CFG]*immutable.Map[Token, bool]

	stack   []frame[A]
	solvers []*RecursionSolver[A]
	pending recursions[A]
}

// frame is an active CFG on the call stack.
type frame[A absint.State[A]] struct {
	cfg   *cfg.CFG
	token Token
	entry absint.AnalysisState[A]

	// The call that entered the CFG, with the token and pre-state of the
	// caller. The call is nil for entry points.
	call        *cfg.Node
	callerToken Token
	pre         absint.AnalysisState[A]
}

// New creates an engine whose entry points are analyzed under the given
// token.
func New[A absint.State[A]](token Token) *ContextBased[A] {
	if token == nil {
		token = NewLastCall()
	}
	return &ContextBased[A]{
		Log:     utils.NewLogGroup(utils.Opts().LogLevel()),
		initial: token,
	}
}

func (e *ContextBased[A]) Init(prog *program.Program, cg *callgraph.Graph, policy absint.OpenCallPolicy[A]) error {
	switch {
	case prog == nil || len(prog.EntryPoints()) == 0:
		return errors.Wrap(ErrInit, "the program has no entry points")
	case cg == nil:
		return errors.Wrap(ErrInit, "missing call graph")
	case cg.Program() != prog:
		return errors.Wrap(ErrInit, "the call graph was built for another program")
	}

	if policy == nil {
		policy = absint.WorstCase[A]{}
	}
	e.prog, e.cg, e.policy = prog, cg, policy
	e.reset()
	return nil
}

func (e *ContextBased[A]) reset() {
	e.results = make(map[*cfg.CFG]*immutable.Map[Token, *absint.AnalyzedCFG[A]])
	e.growth = make(map[*cfg.CFG]*immutable.Map[Token, int])
	e.triggers = make(map[*cfg.CFG]bool)
	e.fresh = make(map[*cfg.CFG]*immutable.Map[Token, bool])
	e.stack, e.solvers = nil, nil
	e.pending.reset()
}

// Fixpoint analyzes every entry point from the entry state until no cached
// result grows. Failures of single entry points are logged, and the entry
// point is skipped.
func (e *ContextBased[A]) Fixpoint(entry absint.AnalysisState[A], conf absint.Config) error {
	if e.prog == nil {
		return errors.Wrap(ErrInit, "the engine was not initialized")
	}
	e.conf = conf
	e.reset()

	for pass := 1; ; pass++ {
		e.Log.Infof("Pass %d over %d entry points", pass, len(e.prog.EntryPoints()))
		e.triggers = make(map[*cfg.CFG]bool)
		e.pending.reset()

		for _, g := range e.prog.EntryPoints() {
			if err := e.runEntry(g, entry); err != nil {
				e.Log.Warnf("Skipping entry point %s: %v", g, err)
				e.stack, e.solvers = nil, nil
				e.pending.reset()
			}
		}

		if len(e.triggers) == 0 {
			return nil
		}

		triggers := make([]*cfg.CFG, 0, len(e.triggers))
		for g := range e.triggers {
			triggers = append(triggers, g)
		}
		sort.Slice(triggers, func(i, j int) bool { return triggers[i].Name() < triggers[j].Name() })
		e.Log.Debugf("The results of %v grew, recomputing their callers", triggers)

		for _, g := range e.cg.CallersTransitively(triggers...) {
			if !e.triggers[g] {
				delete(e.results, g)
			}
		}
	}
}

func (e *ContextBased[A]) runEntry(g *cfg.CFG, entry absint.AnalysisState[A]) error {
	if g.Entry() == nil {
		return errors.Errorf("%s has no body", g)
	}

	st := absint.NewState(entry.State)
	for _, formal := range g.Desc.Formals {
		var err error
		if st, err = st.Assign(formal, symbolic.PushAny{Type: formal.Type}, g.Entry()); err != nil {
			return err
		}
	}
	st = absint.NewState(st.State)

	fr := frame[A]{cfg: g, token: e.initial, entry: st}
	if _, err := e.enter(fr); err != nil {
		return err
	}

	if recs := e.pending.take(nil, e.initial, g); len(recs) > 0 {
		_, err := newSolver(e, recs).Solve()
		return err
	}
	return nil
}

// ResolveCall resolves a call under the token of the innermost active CFG.
func (e *ContextBased[A]) ResolveCall(call *cfg.Node, pre absint.AnalysisState[A]) (absint.AnalysisState[A], error) {
	tok := e.initial
	if len(e.stack) > 0 {
		tok = e.stack[len(e.stack)-1].token
	}
	return e.resolve(tok, call, pre)
}

// tokenResolver resolves the calls of a CFG analyzed under a token.
type tokenResolver[A absint.State[A]] struct {
	e   *ContextBased[A]
	tok Token
}

func (r tokenResolver[A]) ResolveCall(call *cfg.Node, pre absint.AnalysisState[A]) (absint.AnalysisState[A], error) {
	return r.e.resolve(r.tok, call, pre)
}

func (e *ContextBased[A]) resolve(tok Token, call *cfg.Node, pre absint.AnalysisState[A]) (absint.AnalysisState[A], error) {
	for i := len(e.solvers) - 1; i >= 0; i-- {
		if r := e.solvers[i].intercepts(call); r != nil {
			return e.solvers[i].backCall(tok, call, pre, r)
		}
	}

	c := call.Stmt.(cfg.Call)
	targets := e.cg.Resolve(call)
	if c.Open || len(targets) == 0 {
		return e.policy.Apply(call, pre)
	}

	e.Log.Tracef("Resolving %s at %s under %s", c, call.Location(), tok)
	calleeTok := tok.Push(call)
	res := pre.Bot()
	for _, target := range targets {
		post, err := e.callTarget(tok, calleeTok, call, target, pre)
		if err != nil {
			return pre, err
		}
		if res, err = res.Join(post); err != nil {
			return pre, err
		}
	}

	if e.solving(call, tok) {
		return res, nil
	}
	if recs := e.pending.take(call, tok, nil); len(recs) > 0 {
		return newSolver(e, recs).Solve()
	}
	return res, nil
}

func (e *ContextBased[A]) callTarget(tok, calleeTok Token, call *cfg.Node, target *cfg.CFG, pre absint.AnalysisState[A]) (absint.AnalysisState[A], error) {
	c := call.Stmt.(cfg.Call)
	if e.cg.Recursive(target) {
		if i := e.onStack(target); i >= 0 {
			e.record(i)
			return recursionStub(c, target, pre), nil
		}
	}

	entry, err := e.prepare(call, target, pre)
	if err != nil {
		return pre, err
	}

	var res *absint.AnalyzedCFG[A]
	if cached, ok := e.result(target, calleeTok); ok && e.canShortcut(target) {
		if leq, err := entry.Leq(cached.Entry()); err != nil {
			return pre, err
		} else if leq {
			e.Log.Tracef("Reusing the result of %s under %s", target, calleeTok)
			res = cached
		}
	}

	if res == nil {
		fr := frame[A]{
			cfg:         target,
			token:       calleeTok,
			entry:       entry,
			call:        call,
			callerToken: tok,
			pre:         pre,
		}
		if res, err = e.enter(fr); err != nil {
			return pre, err
		}
	}

	return e.unscope(call, target, res.Exit())
}

// recursionStub is the result of a call closing a recursive chain before
// the chain is solved.
func recursionStub[A absint.State[A]](c cfg.Call, head *cfg.CFG, pre absint.AnalysisState[A]) absint.AnalysisState[A] {
	if head.Desc.Void {
		return absint.NewState(pre.State)
	}
	if !c.HasResult() {
		return absint.NewState(pre.State.Bot())
	}
	return absint.NewState(pre.State.Bot(), c.Result)
}

// enter computes the fixpoint of a CFG with its frame on the call stack,
// and stores the result.
func (e *ContextBased[A]) enter(fr frame[A]) (*absint.AnalyzedCFG[A], error) {
	e.stack = append(e.stack, fr)
	defer func() { e.stack = e.stack[:len(e.stack)-1] }()

	e.Log.Debugf("Analyzing %s under %s", fr.cfg, fr.token)
	res, err := absint.Fixpoint[A](fr.cfg, fr.entry, tokenResolver[A]{e, fr.token}, e.conf)
	if err != nil {
		return nil, errors.WithMessagef(err, "in %s under %s", fr.cfg, fr.token)
	}
	if err := e.store(fr.cfg, fr.token, res); err != nil {
		return nil, err
	}
	return res, nil
}

// prepare computes the entry state of a callee: the state of the caller is
// hidden behind the scope of the call, and the formals are bound to the
// arguments. Missing arguments are unknown values.
func (e *ContextBased[A]) prepare(call *cfg.Node, target *cfg.CFG, pre absint.AnalysisState[A]) (absint.AnalysisState[A], error) {
	c := call.Stmt.(cfg.Call)
	scope := symbolic.Scope(call.ID())

	st := absint.NewState(pre.State.PushScope(scope))
	for i, formal := range target.Desc.Formals {
		var arg symbolic.Expression = symbolic.PushAny{Type: formal.Type}
		if i < len(c.Args) {
			arg = symbolic.ScopeIn(c.Args[i], scope)
		}

		var err error
		if st, err = st.Assign(formal, arg, call); err != nil {
			return pre, err
		}
	}
	return absint.NewState(st.State), nil
}

// unscope restores the state of the caller from the exit state of a callee,
// and moves the returned value into the result of the call.
func (e *ContextBased[A]) unscope(call *cfg.Node, target *cfg.CFG, exit absint.AnalysisState[A]) (absint.AnalysisState[A], error) {
	c := call.Stmt.(cfg.Call)
	st := absint.NewState(exit.State.PopScope(symbolic.Scope(call.ID())))
	if target.Desc.Void {
		return st, nil
	}

	ret := target.Desc.ReturnVar()
	if !c.HasResult() {
		return st.Forget(ret), nil
	}
	st, err := st.Assign(c.Result, ret, call)
	if err != nil {
		return exit, err
	}
	return st.Forget(ret), nil
}

func (e *ContextBased[A]) onStack(g *cfg.CFG) int {
	for i := len(e.stack) - 1; i >= 0; i-- {
		if e.stack[i].cfg == g {
			return i
		}
	}
	return -1
}

// record registers the recursive chain headed by the CFG of the i-th frame.
func (e *ContextBased[A]) record(i int) {
	fr := e.stack[i]
	r := &Recursion[A]{
		Invocation:      fr.call,
		InvocationToken: fr.callerToken,
		Entry:           fr.pre,
		Head:            fr.cfg,
		Members:         make(map[*cfg.CFG]bool),
	}
	if fr.call == nil {
		r.InvocationToken, r.Entry = fr.token, fr.entry
	}

	for _, f := range e.stack[i:] {
		r.Members[f.cfg] = true
	}
	for _, g := range e.cg.Component(fr.cfg) {
		r.Members[g] = true
	}

	e.Log.Debugf("Found recursion %s", r)
	e.pending.add(r)
}

// solving checks whether the recursion invoked by the call is being solved.
func (e *ContextBased[A]) solving(call *cfg.Node, tok Token) bool {
	for _, s := range e.solvers {
		if s.invocation == call && s.token.Equal(tok) {
			return true
		}
	}
	return false
}

// canShortcut is false for the members of the chains being solved, whose
// cached results are not stable yet.
func (e *ContextBased[A]) canShortcut(g *cfg.CFG) bool {
	for _, s := range e.solvers {
		if s.isMember(g) {
			return false
		}
	}
	return true
}

func (e *ContextBased[A]) table(g *cfg.CFG) *immutable.Map[Token, *absint.AnalyzedCFG[A]] {
	if tab, ok := e.results[g]; ok {
		return tab
	}
	return utils.NewImmMap[Token, *absint.AnalyzedCFG[A]]()
}

func (e *ContextBased[A]) result(g *cfg.CFG, tok Token) (*absint.AnalyzedCFG[A], bool) {
	return e.table(g).Get(tok)
}

// store merges a result into the cache. Results that grow become triggers,
// unless they were created while solving the current recursion.
func (e *ContextBased[A]) store(g *cfg.CFG, tok Token, res *absint.AnalyzedCFG[A]) error {
	tab := e.table(g)
	old, ok := tab.Get(tok)
	if !ok {
		e.results[g] = tab.Set(tok, res)
		if len(e.solvers) > 0 {
			fresh, ok := e.fresh[g]
			if !ok {
				fresh = utils.NewImmMap[Token, bool]()
			}
			e.fresh[g] = fresh.Set(tok, true)
		}
		return nil
	}

	if leq, err := res.Leq(old); err != nil {
		return err
	} else if leq {
		return nil
	}

	growth := e.growth[g]
	if growth == nil {
		growth = utils.NewImmMap[Token, int]()
	}
	n, _ := growth.Get(tok)

	var merged *absint.AnalyzedCFG[A]
	var err error
	if thr := e.conf.WideningThreshold; thr >= 0 && n >= thr {
		merged, err = old.Widen(res)
	} else {
		merged, err = old.Join(res)
	}
	if err != nil {
		return err
	}
	e.growth[g] = growth.Set(tok, n+1)
	e.results[g] = tab.Set(tok, merged)

	if fresh, ok := e.fresh[g]; !ok || !contains(fresh, tok) {
		e.Log.Tracef("The result of %s under %s grew", g, tok)
		e.triggers[g] = true
	}
	return nil
}

// ResultsOf lists the results of the CFG for every token, sorted by token.
// Optimized results are unwound. CFGs that were never reached have no
// results.
func (e *ContextBased[A]) ResultsOf(g *cfg.CFG) ([]*absint.AnalyzedCFG[A], error) {
	tab, ok := e.results[g]
	if !ok {
		return nil, nil
	}

	type entry struct {
		tok Token
		res *absint.AnalyzedCFG[A]
	}
	entries := make([]entry, 0, tab.Len())
	for iter := tab.Iterator(); !iter.Done(); {
		tok, res, _ := iter.Next()
		entries = append(entries, entry{tok, res})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].tok.String() < entries[j].tok.String() })

	res := make([]*absint.AnalyzedCFG[A], 0, len(entries))
	for _, en := range entries {
		unwound, err := en.res.Unwind(tokenResolver[A]{e, en.tok})
		if err != nil {
			return nil, err
		}
		res = append(res, unwound)
	}
	return res, nil
}

func contains(mp *immutable.Map[Token, bool], tok Token) bool {
	_, ok := mp.Get(tok)
	return ok
}
