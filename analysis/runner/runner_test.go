package runner

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cs-au-dk/golisa/analysis/absint"
	"github.com/cs-au-dk/golisa/analysis/cfg"
	"github.com/cs-au-dk/golisa/analysis/checks"
	L "github.com/cs-au-dk/golisa/analysis/lattice"
	"github.com/cs-au-dk/golisa/analysis/nonrel"
	"github.com/cs-au-dk/golisa/analysis/program"
	S "github.com/cs-au-dk/golisa/analysis/symbolic"
	"github.com/cs-au-dk/golisa/analysis/types"
	"github.com/cs-au-dk/golisa/utils"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func init() {
	color.NoColor = true
}

type env = nonrel.Environment[L.Interval]

var x, y = S.Var("x"), S.Var("y")

func divide() *program.Program {
	main := cfg.NewBuilder(cfg.Descriptor{Name: "main", Formals: []S.Identifier{y}, Void: true}).
		Assign(x, S.Binary(S.Div, S.Int(10), y)).
		Assign(x, x).
		Call(S.Identifier{}, "half", x).
		Return(nil).Build()

	half := cfg.NewBuilder(cfg.Descriptor{Name: "half", Formals: []S.Identifier{x}}).
		Return(S.Binary(S.Div, x, S.Int(2))).Build()

	p := program.New()
	p.AddEntryPoint(main)
	p.AddCFG(half)
	return p
}

func config() Config[env] {
	st := nonrel.NewEnvironment[L.Interval](nonrel.Intervals{})
	return Config[env]{
		Fixpoint:   absint.DefaultConfig(),
		InferTypes: true,
		State:      &st,
		Syntactic:  []checks.SyntacticCheck{checks.SelfAssignment{}},
		Semantic:   []checks.SemanticCheck[env]{checks.DivisionByZero[env]{}},
		Log:        utils.Discard(),
	}
}

func TestRun(t *testing.T) {
	p := divide()
	res, err := Run(p, config())
	if err != nil {
		t.Fatal(err)
	}

	exp := []string{
		"[division-by-zero] main#0: possible division by zero: y may be 0",
		"[self-assignment] main#1: x is assigned to itself",
	}
	var got []string
	for _, w := range res.Warnings {
		got = append(got, w.String())
	}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("Unexpected warnings (-want +got):\n%s", diff)
	}

	main, _ := p.CFG("main")
	half, _ := p.CFG("half")
	if len(res.CFGs[main]) != 1 || len(res.CFGs[half]) != 1 {
		t.Errorf("Expected one result for main and half, got %d and %d", len(res.CFGs[main]), len(res.CFGs[half]))
	}

	ts, ok := main.Nodes()[0].RuntimeTypes()
	if !ok || len(ts.Types()) != 1 || !ts.Contains(types.Int) {
		t.Errorf("Expected the division to compute an int, got %v", ts)
	}
	if _, ok := main.Nodes()[3].RuntimeTypes(); ok {
		t.Errorf("Expected no runtime types for the return of a void CFG")
	}
}

func TestRunWithoutState(t *testing.T) {
	conf := config()
	conf.State = nil
	conf.InferTypes = false
	res, err := Run(divide(), conf)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.CFGs) != 0 {
		t.Errorf("Expected no results without a state, got %d", len(res.CFGs))
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Check != "self-assignment" {
		t.Errorf("Expected only the syntactic warning, got %v", res.Warnings)
	}
}

func TestRunFatal(t *testing.T) {
	tests := []struct {
		name string
		prog func() *program.Program
		msg  string
	}{
		{"duplicate CFG", func() *program.Program {
			p := divide()
			p.AddCFG(cfg.NewBuilder(cfg.Descriptor{Name: "half"}).Return(S.Int(0)).Build())
			return p
		}, "finalizing the input program"},
		{"unresolved call", func() *program.Program {
			p := program.New()
			p.AddEntryPoint(cfg.NewBuilder(cfg.Descriptor{Name: "main", Void: true}).
				Call(S.Identifier{}, "missing").Return(nil).Build())
			return p
		}, "building the call graph"},
		{"no entry points", func() *program.Program {
			p := program.New()
			p.AddCFG(cfg.NewBuilder(cfg.Descriptor{Name: "f", Void: true}).Return(nil).Build())
			return p
		}, "building the interprocedural analysis"},
	}

	for _, test := range tests {
		_, err := Run(test.prog(), config())
		if err == nil || !strings.Contains(err.Error(), test.msg) {
			t.Errorf("%s: expected an error about %q, got %v", test.name, test.msg, err)
		}
	}
}

func TestCollectSkipsFailures(t *testing.T) {
	p := divide()
	if err := p.ValidateAndFinalize(); err != nil {
		t.Fatal(err)
	}
	main, _ := p.CFG("main")
	half, _ := p.CFG("half")

	analyzed := new(absint.AnalyzedCFG[env])
	resultsOf := func(g *cfg.CFG) ([]*absint.AnalyzedCFG[env], error) {
		if g == half {
			return nil, errors.New("cannot unwind")
		}
		return []*absint.AnalyzedCFG[env]{analyzed}, nil
	}

	var buf bytes.Buffer
	log := utils.NewLogGroup(utils.WarnLevel)
	log.SetAllOutput(&buf)
	res := collect(p.CFGs(), resultsOf, log)

	if len(res) != 1 || len(res[main]) != 1 || res[main][0] != analyzed {
		t.Errorf("Expected only the results of main, got %v", res)
	}
	if !strings.Contains(buf.String(), "Skipping the results of half: cannot unwind") {
		t.Errorf("Expected the failure to be logged, got log:\n%s", buf.String())
	}
}

func TestDump(t *testing.T) {
	dir := t.TempDir()
	conf := config()
	conf.DumpDir = dir
	conf.DumpFormat = "dot"
	if _, err := Run(divide(), conf); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"main-0.dot", "half-0.dot"} {
		bs, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("Expected %s to be dumped: %v", name, err)
			continue
		}
		if !strings.HasPrefix(strings.TrimSpace(string(bs)), "digraph") {
			t.Errorf("Expected %s to hold a dot graph, got:\n%s", name, bs)
		}
	}
}
