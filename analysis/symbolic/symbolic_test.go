package symbolic

import "testing"

func TestScopes(t *testing.T) {
	x, g := Var("x"), Global("g")

	px := x.PushScope("c1")
	if px.Equal(x) || px.InScope() {
		t.Errorf("Expected %s to be out of scope", px)
	}
	if pg := g.PushScope("c1"); !pg.Equal(g) {
		t.Errorf("Expected globals to ignore scopes, got %s", pg)
	}

	if back, ok := px.PopScope("c1"); !ok || !back.Equal(x) {
		t.Errorf("Popping c1 from %s gave %s, %v", px, back, ok)
	}
	if _, ok := px.PopScope("c2"); ok {
		t.Errorf("Expected %s to be dropped when popping c2", px)
	}
	if _, ok := x.PopScope("c1"); ok {
		t.Errorf("Expected the callee local %s to be dropped", x)
	}

	nested := x.PushScope("c1").PushScope("c2")
	once, ok := nested.PopScope("c2")
	if !ok || !once.Equal(px) {
		t.Errorf("Popping c2 from %s gave %s, expected %s", nested, once, px)
	}
	if s := nested.String(); s != "x@c2@c1" {
		t.Errorf("Unexpected string %q", s)
	}
}

func TestIdentifierJoin(t *testing.T) {
	x := Var("x")
	wx := x
	wx.Weak = true

	if !x.Equal(wx) || x.Hash() != wx.Hash() {
		t.Error("Expected weakness to be ignored by identity")
	}
	if !x.Join(wx).Weak || !wx.Join(x).Weak {
		t.Error("Expected the join of a weak and a strong identifier to be weak")
	}
}

func TestScopeInOut(t *testing.T) {
	x, g := Var("x"), Global("g")
	e := Binary(Add, x, Binary(Mul, g, Int(2)))

	in := ScopeIn(e, "c")
	ids := Identifiers(in)
	if len(ids) != 2 || ids[0].InScope() || !ids[1].InScope() {
		t.Errorf("Unexpected identifiers %v in %s", ids, in)
	}

	out := ScopeOut(in, "c")
	if out.String() != e.String() {
		t.Errorf("Expected %s, got %s", e, out)
	}

	if lost := ScopeOut(e, "c"); Identifiers(lost)[0] != g {
		t.Errorf("Expected the local to be lost: %s", lost)
	}
}

func TestNegate(t *testing.T) {
	x, y := Var("x"), Var("y")

	tests := []struct {
		e        Expression
		expected string
	}{
		{Binary(Lt, x, y), "(x >= y)"},
		{Binary(Eq, x, Int(0)), "(x != 0)"},
		{Binary(And, Binary(Le, x, y), Binary(Gt, x, Int(1))), "((x > y) || (x <= 1))"},
		{Unary(Not, x), "x"},
		{x, "!x"},
		{Bool(true), "false"},
	}

	for _, test := range tests {
		if res := Negate(test.e).String(); res != test.expected {
			t.Errorf("¬%s = %s, expected %s", test.e, res, test.expected)
		}
	}
}
