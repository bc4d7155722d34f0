package nonrel

import (
	"testing"

	S "github.com/cs-au-dk/golisa/analysis/symbolic"
	"github.com/cs-au-dk/golisa/analysis/types"
)

func TestTypeDomainEval(t *testing.T) {
	reg := types.NewRegistry()
	shape, square := types.Unit("Shape"), types.Unit("Square")
	reg.Intern(shape)
	reg.SetSubtypes(shape, square)

	e := NewEnvironment[types.Set](TypeDomain{reg})

	tests := []struct {
		expr     S.Expression
		expected types.Set
	}{
		{S.Int(1), types.NewSet(reg, types.Int)},
		{S.Str("a"), types.NewSet(reg, types.String)},
		{S.Binary(S.Lt, S.Int(1), S.Int(2)), types.NewSet(reg, types.Bool)},
		{S.Binary(S.Add, S.Str("a"), S.Str("b")), types.NewSet(reg, types.String)},
		{S.Binary(S.Mul, S.Int(1), S.Int(2)), types.NewSet(reg, types.Int)},
		{S.PushAny{Type: shape}, types.NewSet(reg, shape, square)},
		{S.Any(), types.Top(reg)},
	}

	for _, test := range tests {
		res, err := e.Eval(test.expr, pp)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Equal(test.expected) {
			t.Errorf("Types of %s = %s, expected %s", test.expr, res, test.expected)
		}
	}
}

func TestTypeDomainAssignHook(t *testing.T) {
	reg := types.NewRegistry()
	e := NewEnvironment[types.Set](TypeDomain{reg})

	typed := S.Var("n").Typed(types.Int)
	res, err := e.Assign(typed, S.Any(), pp)
	if err != nil {
		t.Fatal(err)
	}
	if v := res.Get(typed); !v.Equal(types.NewSet(reg, types.Int)) {
		t.Errorf("Expected the static type to restrict the value, got %s", v)
	}
}
