package absint

import (
	"testing"

	"github.com/cs-au-dk/golisa/analysis/cfg"
	L "github.com/cs-au-dk/golisa/analysis/lattice"
	"github.com/cs-au-dk/golisa/analysis/nonrel"
	S "github.com/cs-au-dk/golisa/analysis/symbolic"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/sebdah/goldie/v2"
)

func init() {
	color.NoColor = true
}

type env = nonrel.Environment[L.Interval]

var (
	i, n = S.Var("i"), S.Var("n")
	ret  = S.Global("ret$loop")
)

func loopCFG() *cfg.CFG {
	b := cfg.NewBuilder(cfg.Descriptor{Name: "loop", Formals: []S.Identifier{n}})
	b.Assign(i, S.Int(0))
	head := b.If(S.Binary(S.Lt, i, n)).Node()
	b.From(head, cfg.True).Assign(i, S.Binary(S.Add, i, S.Int(1))).Link(head)
	b.From(head, cfg.False).Return(i)
	return b.Build()
}

func entryState(bound int) AnalysisState[env] {
	e := nonrel.NewEnvironment[L.Interval](nonrel.Intervals{})
	return NewState(e.Set(n, L.Singleton(bound)))
}

func analyze(t *testing.T, g *cfg.CFG, resolver CallResolver[env], conf Config) *AnalyzedCFG[env] {
	t.Helper()
	res, err := Fixpoint(g, entryState(10), resolver, conf)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestFixpointWidening(t *testing.T) {
	tests := []struct {
		name string
		conf Config
		exit L.Interval
	}{
		{"immediate widening", Config{}, L.NewInterval(L.FiniteBound(10), L.PlusInfinity{})},
		{"delayed widening", DefaultConfig(), L.NewInterval(L.FiniteBound(10), L.PlusInfinity{})},
		{"descending", Config{GLBThreshold: 3}, L.Singleton(10)},
		{"no widening", Config{WideningThreshold: -1}, L.Singleton(10)},
	}

	for _, test := range tests {
		g := loopCFG()
		res := analyze(t, g, nil, test.conf)
		t.Logf("%s:\n%s", test.name, res)

		if v := res.Exit().State.Get(ret); !v.Equal(test.exit) {
			t.Errorf("%s: expected the loop to return %s, got %s", test.name, test.exit, v)
		}
		if len(res.Exit().Computed) != 1 || !res.Exit().Computed[0].Equal(ret) {
			t.Errorf("%s: expected the return value to be computed, got %v", test.name, res.Exit().Computed)
		}

		body := g.Nodes()[2]
		pre, err := res.PreOf(body)
		if err != nil {
			t.Fatal(err)
		}
		if v := pre.State.Get(i); !v.Equal(L.FiniteInterval(0, 9)) {
			t.Errorf("%s: expected i to be refined to [0, 9] in the loop body, got %s", test.name, v)
		}
	}
}

func TestFixpointDump(t *testing.T) {
	res := analyze(t, loopCFG(), nil, Config{GLBThreshold: 1})
	goldie.New(t).Assert(t, t.Name(), []byte(res.String()))
}

func TestFixpointUnreachable(t *testing.T) {
	g := loopCFG()
	res, err := Fixpoint(g, entryState(-1), nil, Config{})
	if err != nil {
		t.Fatal(err)
	}

	st, err := res.PostOf(g.Nodes()[2])
	if err != nil {
		t.Fatal(err)
	}
	if !st.State.IsBot() {
		t.Errorf("Expected the loop body to be unreachable, got %s", st)
	}
	if v := res.Exit().State.Get(ret); !v.Equal(L.Singleton(0)) {
		t.Errorf("Expected the loop to return [0, 0], got %s", v)
	}
}

func TestOptimizedResults(t *testing.T) {
	g := loopCFG()
	full := analyze(t, g, nil, Config{GLBThreshold: 1})
	opt := analyze(t, g, nil, Config{GLBThreshold: 1, Optimize: true})

	if !opt.Optimized() || full.Optimized() {
		t.Fatalf("Unexpected optimization flags")
	}
	for _, node := range g.Nodes() {
		if has, wp := opt.HasPostOf(node), g.IsWideningPoint(node); has != wp {
			t.Errorf("Expected the post-state of %s to be kept iff it is a widening point", node.ID())
		}
		if _, err := opt.PreOf(node); errors.Cause(err) != ErrMissingResult {
			t.Errorf("Expected no pre-state for %s, got %v", node.ID(), err)
		}
	}
	if !opt.Exit().Equal(full.Exit()) {
		t.Errorf("Expected the same exit state, got %s and %s", opt.Exit(), full.Exit())
	}

	unwound, err := opt.Unwind(nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, node := range g.Nodes() {
		exp, _ := full.PostOf(node)
		got, err := unwound.PostOf(node)
		if err != nil {
			t.Fatal(err)
		}
		if !got.Equal(exp) {
			t.Errorf("Expected unwinding to recover the post-state of %s:\n%s\ngot:\n%s", node.ID(), exp, got)
		}
	}
	if leq, err := unwound.Leq(full); err != nil || !leq {
		t.Errorf("Expected the unwound results to be covered by the full results, got %v %v", leq, err)
	}
}

func TestHotspots(t *testing.T) {
	g := loopCFG()
	last := g.ReturnNodes()[0]
	res := analyze(t, g, nil, Config{Optimize: true, Hotspots: func(node *cfg.Node) bool {
		return node == last
	}})

	if !res.HasPostOf(last) {
		t.Errorf("Expected the post-state of the hotspot %s to be kept", last.ID())
	}
	if res.HasPostOf(g.Entry()) {
		t.Errorf("Expected the post-state of the entry to be dropped")
	}
}

func TestAnalyzedJoin(t *testing.T) {
	g := loopCFG()
	a, err := Fixpoint(g, entryState(2), nil, Config{GLBThreshold: 1})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Fixpoint(g, entryState(4), nil, Config{GLBThreshold: 1})
	if err != nil {
		t.Fatal(err)
	}

	j, err := a.Join(b)
	if err != nil {
		t.Fatal(err)
	}
	if v := j.Exit().State.Get(ret); !v.Equal(L.FiniteInterval(2, 4)) {
		t.Errorf("Expected the joined exit to return [2, 4], got %s", v)
	}
	for _, r := range []*AnalyzedCFG[env]{a, b} {
		if leq, err := r.Leq(j); err != nil || !leq {
			t.Errorf("Expected %s to be below the join", r.Exit())
		}
	}

	other, _ := Fixpoint(cfg.NewBuilder(cfg.Descriptor{Name: "other"}).NoOp().Build(), entryState(0), nil, Config{})
	if _, err := a.Join(other); errors.Cause(err) != L.ErrIncompatible {
		t.Errorf("Expected joining results of different CFGs to fail, got %v", err)
	}
}

type policyResolver struct {
	policy OpenCallPolicy[env]
}

func (r policyResolver) ResolveCall(call *cfg.Node, pre AnalysisState[env]) (AnalysisState[env], error) {
	return r.policy.Apply(call, pre)
}

func TestOpenCallPolicies(t *testing.T) {
	r := S.Var("r")
	b := cfg.NewBuilder(cfg.Descriptor{Name: "caller", Void: true})
	call := b.Assign(i, S.Int(1)).Call(r, "unknown", i).Node()
	b.Return(nil)
	g := b.Build()

	res := analyze(t, g, policyResolver{ReturnTop[env]{}}, Config{})
	post, err := res.PostOf(call)
	if err != nil {
		t.Fatal(err)
	}
	if v := post.State.Get(i); !v.Equal(L.Singleton(1)) {
		t.Errorf("Expected ReturnTop to keep i = [1, 1], got %s", v)
	}
	if v, ok := post.State.Lookup(r); !ok || !v.IsTop() {
		t.Errorf("Expected ReturnTop to bind r to ⊤, got %s", v)
	}

	res = analyze(t, g, policyResolver{WorstCase[env]{}}, Config{})
	if post, _ = res.PostOf(call); !post.State.IsTop() || len(post.Computed) != 1 || !post.Computed[0].Equal(r) {
		t.Errorf("Expected WorstCase to go to ⊤ with r computed, got %s", post)
	}

	if _, err := Fixpoint(g, entryState(0), nil, Config{}); err == nil {
		t.Errorf("Expected a call without resolver to fail")
	}
}
