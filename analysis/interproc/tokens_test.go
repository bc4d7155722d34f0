package interproc

import (
	"testing"

	"github.com/cs-au-dk/golisa/analysis/cfg"
	S "github.com/cs-au-dk/golisa/analysis/symbolic"
)

func TestTokens(t *testing.T) {
	g := cfg.NewBuilder(cfg.Descriptor{Name: "f", Void: true}).
		Call(S.Identifier{}, "g").
		Call(S.Identifier{}, "h").
		Call(S.Identifier{}, "k").
		Return(nil).Build()
	c0, c1, c2 := g.Calls()[0], g.Calls()[1], g.Calls()[2]

	push := func(tok Token, calls ...*cfg.Node) Token {
		for _, call := range calls {
			tok = tok.Push(call)
		}
		return tok
	}

	tests := []struct {
		name string
		tok  Token
		exp  string
	}{
		{"insensitive", push(Insensitive{}, c0, c1), "*"},
		{"last call", push(NewLastCall(), c0, c1), "[f#1]"},
		{"2-depth", push(NewKDepth(2), c0, c1, c2), "[f#1, f#2]"},
		{"0-depth", push(NewKDepth(-1), c0), "[]"},
		{"full stack", push(NewFullStack(), c0, c1, c2), "[f#0, f#1, f#2]"},
	}
	for _, test := range tests {
		if str := test.tok.String(); str != test.exp {
			t.Errorf("%s: expected %s, got %s", test.name, test.exp, str)
		}
	}

	l1, l2 := push(NewLastCall(), c0, c1), push(NewLastCall(), c1)
	if !l1.Equal(l2) || l1.Hash() != l2.Hash() {
		t.Errorf("Expected %s and %s to be the same token", l1, l2)
	}
	if l1.Equal(push(NewLastCall(), c0)) {
		t.Errorf("Expected tokens of different call sites to differ")
	}
	if l1.Equal(push(NewKDepth(1), c1)) {
		t.Errorf("Expected tokens of different kinds to differ")
	}
	if !(Insensitive{}).Equal(push(Insensitive{}, c2)) {
		t.Errorf("Expected insensitive tokens to be equal")
	}
}
