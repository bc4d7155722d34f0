package nonrel

import (
	L "github.com/cs-au-dk/golisa/analysis/lattice"
	"github.com/cs-au-dk/golisa/analysis/symbolic"
	"github.com/cs-au-dk/golisa/analysis/types"
)

// TypeDomain infers the runtime types every identifier may hold.
type TypeDomain struct {
	Registry *types.Registry
}

var (
	_ Domain[types.Set]     = TypeDomain{}
	_ AssignHook[types.Set] = TypeDomain{}
)

func (d TypeDomain) Top() types.Set { return types.Top(d.Registry) }

func (d TypeDomain) Bot() types.Set { return types.Bot(d.Registry) }

func (d TypeDomain) of(ts ...types.Type) types.Set {
	return types.NewSet(d.Registry, ts...)
}

func (d TypeDomain) EvalConstant(c symbolic.Constant, _ symbolic.ProgramPoint) (types.Set, error) {
	if c.Type == nil {
		return d.of(types.Untyped), nil
	}
	return d.of(c.Type), nil
}

// EvalPushAny yields every subtype of the static type of the unknown value.
func (d TypeDomain) EvalPushAny(p symbolic.PushAny, _ symbolic.ProgramPoint) (types.Set, error) {
	if p.Type == nil || p.Type == types.Untyped {
		return d.Top(), nil
	}
	return d.of(d.Registry.Subtypes(p.Type)...), nil
}

func (d TypeDomain) EvalUnary(op symbolic.UnaryOp, v types.Set, _ symbolic.ProgramPoint) (types.Set, error) {
	switch {
	case v.IsBot():
		return v, nil
	case op == symbolic.Not:
		return d.of(types.Bool), nil
	}
	return d.of(types.Int), nil
}

func (d TypeDomain) EvalBinary(op symbolic.BinaryOp, l, r types.Set, _ symbolic.ProgramPoint) (types.Set, error) {
	switch {
	case l.IsBot() || r.IsBot():
		return d.Bot(), nil
	case op.IsComparison() || op.IsLogical():
		return d.of(types.Bool), nil
	case op == symbolic.Add && l.Contains(types.String) && r.Contains(types.String):
		if l.Contains(types.Int) && r.Contains(types.Int) {
			return d.of(types.Int, types.String), nil
		}
		return d.of(types.String), nil
	}
	return d.of(types.Int), nil
}

func (TypeDomain) SatisfiesBinary(_ symbolic.BinaryOp, l, r types.Set, _ symbolic.ProgramPoint) (L.Satisfiability, error) {
	if l.IsBot() || r.IsBot() {
		return L.BottomSat, nil
	}
	return L.Unknown, nil
}

func (TypeDomain) RefineBinary(_ symbolic.BinaryOp, l, r types.Set, _ symbolic.ProgramPoint) (types.Set, types.Set, error) {
	return l, r, nil
}

// AfterAssign restricts the inferred types to the subtypes of the static
// type of the assigned identifier.
func (d TypeDomain) AfterAssign(id symbolic.Identifier, _ symbolic.Expression, v types.Set, _ symbolic.ProgramPoint) (types.Set, error) {
	if id.Type == nil || id.Type == types.Untyped || v.IsBot() {
		return v, nil
	}

	res, err := v.Meet(d.of(d.Registry.Subtypes(id.Type)...))
	if err != nil || res.IsBot() {
		return v, err
	}
	return res, nil
}
