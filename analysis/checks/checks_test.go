package checks

import (
	"testing"

	"github.com/cs-au-dk/golisa/analysis/absint"
	"github.com/cs-au-dk/golisa/analysis/cfg"
	L "github.com/cs-au-dk/golisa/analysis/lattice"
	"github.com/cs-au-dk/golisa/analysis/nonrel"
	"github.com/cs-au-dk/golisa/analysis/program"
	S "github.com/cs-au-dk/golisa/analysis/symbolic"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
)

func init() {
	color.NoColor = true
}

type env = nonrel.Environment[L.Interval]

var n, a, b, c = S.Var("n"), S.Var("a"), S.Var("b"), S.Var("c")

func divisions() (*program.Program, *cfg.CFG) {
	g := cfg.NewBuilder(cfg.Descriptor{Name: "g", Formals: []S.Identifier{n}, Void: true}).
		Assign(a, S.Binary(S.Div, S.Int(10), n)).
		Assign(b, S.Binary(S.Div, S.Int(10), S.Int(2))).
		Assign(c, S.Binary(S.Add, S.Int(1), S.Binary(S.Rem, a, S.Binary(S.Sub, b, S.Int(5))))).
		Assign(a, a).
		Return(nil).Build()

	p := program.New()
	p.AddEntryPoint(g)
	p.AddCFG(cfg.New(cfg.Descriptor{Name: "abs", Abstract: true}))
	return p, g
}

func TestSyntacticChecks(t *testing.T) {
	p, _ := divisions()
	if err := p.ValidateAndFinalize(); err != nil {
		t.Fatal(err)
	}

	tool := NewCheckTool()
	RunSyntactic(tool, p, SelfAssignment{})

	exp := []Warning{{"self-assignment", "g", "g#3", "a is assigned to itself"}}
	if diff := cmp.Diff(exp, tool.Warnings()); diff != "" {
		t.Errorf("Unexpected warnings (-want +got):\n%s", diff)
	}
}

func TestDivisionByZero(t *testing.T) {
	p, g := divisions()
	if err := p.ValidateAndFinalize(); err != nil {
		t.Fatal(err)
	}

	entry := absint.NewState(nonrel.NewEnvironment[L.Interval](nonrel.Intervals{}))
	res, err := absint.Fixpoint(g, entry, nil, absint.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	tool := NewSemanticTool(NewCheckTool(), map[*cfg.CFG][]*absint.AnalyzedCFG[env]{g: {res}})
	if err := RunSemantic[env](tool, p, DivisionByZero[env]{}); err != nil {
		t.Fatal(err)
	}

	exp := []Warning{
		{"division-by-zero", "g", "g#0", "possible division by zero: n may be 0"},
		{"division-by-zero", "g", "g#2", "division by zero: (b - 5) is always 0"},
	}
	if diff := cmp.Diff(exp, tool.Warnings()); diff != "" {
		t.Errorf("Unexpected warnings (-want +got):\n%s", diff)
	}
	for _, w := range tool.Warnings() {
		t.Log(w)
	}
}
