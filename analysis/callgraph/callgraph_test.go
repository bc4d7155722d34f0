package callgraph

import (
	"testing"

	"github.com/cs-au-dk/golisa/analysis/cfg"
	"github.com/cs-au-dk/golisa/analysis/program"
	S "github.com/cs-au-dk/golisa/analysis/symbolic"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func names(gs []*cfg.CFG) (res []string) {
	for _, g := range gs {
		res = append(res, g.Name())
	}
	return
}

func leaf(name string, abstract bool) *cfg.CFG {
	if abstract {
		return cfg.New(cfg.Descriptor{Name: name, Abstract: true})
	}
	return cfg.NewBuilder(cfg.Descriptor{Name: name}).Return(S.Int(0)).Build()
}

func calling(name string, callees ...string) *cfg.CFG {
	b := cfg.NewBuilder(cfg.Descriptor{Name: name, Void: true})
	for _, callee := range callees {
		b.Call(S.Identifier{}, callee)
	}
	return b.Return(nil).Build()
}

func shapes(t *testing.T) (*program.Program, *cfg.Node) {
	p := program.New()
	shape := program.NewUnit("Shape", true)
	shape.AddMember(leaf("Shape.area", true))
	square := program.NewUnit("Square", false, "Shape")
	square.AddMember(leaf("Square.area", false))
	circle := program.NewUnit("Circle", false, "Shape")
	circle.AddMember(leaf("Circle.area", false))
	cube := program.NewUnit("Cube", false, "Square")
	for _, u := range []*program.Unit{shape, square, circle, cube} {
		p.AddUnit(u)
	}

	b := cfg.NewBuilder(cfg.Descriptor{Name: "main", Void: true})
	call := b.Then(cfg.Call{Receiver: "Shape", Callee: "area", Result: S.Var("a")}).Node()
	b.Then(cfg.Call{Callee: "print", Open: true}).Return(nil)
	p.AddEntryPoint(b.Build())

	if err := p.ValidateAndFinalize(); err != nil {
		t.Fatal(err)
	}
	return p, call
}

func TestClassHierarchyResolution(t *testing.T) {
	p, call := shapes(t)
	cg, err := Build(p)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"Circle.area", "Square.area"}, names(cg.Resolve(call))); diff != "" {
		t.Errorf("Unexpected targets of %s (-want +got):\n%s", call, diff)
	}

	main, _ := p.CFG("main")
	if diff := cmp.Diff([]string{"Circle.area", "Square.area"}, names(cg.Callees(main))); diff != "" {
		t.Errorf("Unexpected callees of main (-want +got):\n%s", diff)
	}
	square, _ := p.CFG("Square.area")
	if diff := cmp.Diff([]string{"main"}, names(cg.Callers(square))); diff != "" {
		t.Errorf("Unexpected callers of Square.area (-want +got):\n%s", diff)
	}
	if sites := cg.CallSites(square); len(sites) != 1 || sites[0] != call {
		t.Errorf("Expected %s to be the only call site of Square.area, got %v", call, sites)
	}

	open := main.Calls()[1]
	if targets := cg.Resolve(open); len(targets) != 0 {
		t.Errorf("Expected the open call to have no targets, got %v", names(targets))
	}
}

func TestRecursion(t *testing.T) {
	p := program.New()
	p.AddEntryPoint(calling("main", "even", "leaf"))
	p.AddCFG(calling("even", "odd"))
	p.AddCFG(calling("odd", "even"))
	p.AddCFG(calling("leaf"))
	p.AddCFG(calling("self", "self"))
	if err := p.ValidateAndFinalize(); err != nil {
		t.Fatal(err)
	}

	cg, err := Build(p)
	if err != nil {
		t.Fatal(err)
	}

	tests := map[string]bool{
		"main": false,
		"even": true,
		"odd":  true,
		"leaf": false,
		"self": true,
	}
	for name, exp := range tests {
		g, _ := p.CFG(name)
		if cg.Recursive(g) != exp {
			t.Errorf("Expected Recursive(%s) = %v", name, exp)
		}
	}

	even, _ := p.CFG("even")
	if got := names(cg.Component(even)); len(got) != 2 {
		t.Errorf("Expected even and odd to share a component, got %v", got)
	}

	main, _ := p.CFG("main")
	if got := names(cg.CalleesTransitively(main)); len(got) != 3 {
		t.Errorf("Expected main to reach even, odd and leaf, got %v", got)
	}
	if got := names(cg.CallersTransitively(even)); len(got) != 3 {
		t.Errorf("Expected even to be reached from main, odd and itself, got %v", got)
	}

	if G := cg.ToDot(); G.CountNodes() != 5 || len(G.Edges) != 5 {
		t.Errorf("Expected 5 nodes and 5 edges in the dot graph, got %d and %d", G.CountNodes(), len(G.Edges))
	}
}

func TestBuildFailures(t *testing.T) {
	p := program.New()
	p.AddEntryPoint(calling("main", "missing"))
	if _, err := Build(p); err == nil {
		t.Errorf("Expected building the call graph of a program that is not finalized to fail")
	}

	if err := p.ValidateAndFinalize(); err != nil {
		t.Fatal(err)
	}
	_, err := Build(p)
	if errors.Cause(err) != ErrUnresolved {
		t.Errorf("Expected an unresolved call error, got %v", err)
	} else {
		t.Log(err)
	}
}
