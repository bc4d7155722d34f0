package powerset

import (
	"github.com/cs-au-dk/golisa/analysis/lattice"
	"github.com/cs-au-dk/golisa/analysis/nonrel"
	"github.com/cs-au-dk/golisa/analysis/symbolic"
)

// Domain lifts a non-relational value domain to finite disjunctions of its
// values. Every evaluation is applied to each disjunct and canonicalized.
type Domain[V lattice.Lattice[V]] struct {
	Base     nonrel.Domain[V]
	Strategy *Strategy[V]
}

// Lift creates the powerset of a value domain.
func Lift[V lattice.Lattice[V]](base nonrel.Domain[V], strategy *Strategy[V]) Domain[V] {
	return Domain[V]{Base: base, Strategy: strategy}
}

func (d Domain[V]) empty() Set[V] {
	return Empty(d.Base.Bot(), d.Strategy)
}

func (d Domain[V]) Top() Set[V] { return d.empty().Top() }

func (d Domain[V]) Bot() Set[V] { return d.empty() }

func (d Domain[V]) of(vs ...V) (Set[V], error) {
	return d.empty().canonical(vs)
}

func (d Domain[V]) EvalConstant(c symbolic.Constant, pp symbolic.ProgramPoint) (Set[V], error) {
	v, err := d.Base.EvalConstant(c, pp)
	if err != nil {
		return d.Bot(), err
	}
	return d.of(v)
}

func (d Domain[V]) EvalPushAny(p symbolic.PushAny, pp symbolic.ProgramPoint) (Set[V], error) {
	v, err := d.Base.EvalPushAny(p, pp)
	if err != nil {
		return d.Bot(), err
	}
	return d.of(v)
}

func (d Domain[V]) EvalUnary(op symbolic.UnaryOp, s Set[V], pp symbolic.ProgramPoint) (Set[V], error) {
	res := make([]V, 0, s.Size())
	for _, e := range s.elems {
		v, err := d.Base.EvalUnary(op, e, pp)
		if err != nil {
			return d.Bot(), err
		}
		res = append(res, v)
	}
	return d.of(res...)
}

func (d Domain[V]) EvalBinary(op symbolic.BinaryOp, l, r Set[V], pp symbolic.ProgramPoint) (Set[V], error) {
	res := make([]V, 0, l.Size()*r.Size())
	for _, e1 := range l.elems {
		for _, e2 := range r.elems {
			v, err := d.Base.EvalBinary(op, e1, e2, pp)
			if err != nil {
				return d.Bot(), err
			}
			res = append(res, v)
		}
	}
	return d.of(res...)
}

// SatisfiesBinary is unknown when either operand is top, or when the
// outcomes over the pairs of disjuncts disagree or are unknown.
func (d Domain[V]) SatisfiesBinary(op symbolic.BinaryOp, l, r Set[V], pp symbolic.ProgramPoint) (lattice.Satisfiability, error) {
	switch {
	case l.IsTop() || r.IsTop():
		return lattice.Unknown, nil
	case l.IsBot() || r.IsBot():
		return lattice.BottomSat, nil
	}

	seen := make(map[lattice.Satisfiability]bool)
	for _, e1 := range l.elems {
		for _, e2 := range r.elems {
			sat, err := d.Base.SatisfiesBinary(op, e1, e2, pp)
			if err != nil {
				return lattice.Unknown, err
			}
			seen[sat] = true
		}
	}

	switch {
	case seen[lattice.Unknown] || seen[lattice.Satisfied] && seen[lattice.NotSatisfied]:
		return lattice.Unknown, nil
	case seen[lattice.Satisfied]:
		return lattice.Satisfied, nil
	case seen[lattice.NotSatisfied]:
		return lattice.NotSatisfied, nil
	}
	return lattice.Unknown, nil
}

// RefineBinary refines every pair of disjuncts. The refined operands are
// the canonical sets of the refinements of their disjuncts.
func (d Domain[V]) RefineBinary(op symbolic.BinaryOp, l, r Set[V], pp symbolic.ProgramPoint) (Set[V], Set[V], error) {
	var ls, rs []V
	for _, e1 := range l.elems {
		for _, e2 := range r.elems {
			nl, nr, err := d.Base.RefineBinary(op, e1, e2, pp)
			if err != nil {
				return l, r, err
			}
			if nl.IsBot() || nr.IsBot() {
				continue
			}
			ls, rs = append(ls, nl), append(rs, nr)
		}
	}

	nl, err := d.of(ls...)
	if err != nil {
		return l, r, err
	}
	nr, err := d.of(rs...)
	return nl, nr, err
}
