package nonrel

import (
	L "github.com/cs-au-dk/golisa/analysis/lattice"
	"github.com/cs-au-dk/golisa/analysis/symbolic"
)

// Intervals abstracts every integer variable by one interval. Values of
// other types are unconstrained.
type Intervals struct{}

var _ Domain[L.Interval] = Intervals{}

func (Intervals) Top() L.Interval { return L.IntervalTop() }

func (Intervals) Bot() L.Interval { return L.IntervalBot() }

func (Intervals) EvalConstant(c symbolic.Constant, _ symbolic.ProgramPoint) (L.Interval, error) {
	if i, ok := c.Value.(int); ok {
		return L.Singleton(i), nil
	}
	return L.IntervalTop(), nil
}

func (Intervals) EvalPushAny(symbolic.PushAny, symbolic.ProgramPoint) (L.Interval, error) {
	return L.IntervalTop(), nil
}

func (Intervals) EvalUnary(op symbolic.UnaryOp, v L.Interval, _ symbolic.ProgramPoint) (L.Interval, error) {
	switch {
	case v.IsBot():
		return v, nil
	case op == symbolic.Neg:
		return v.Neg(), nil
	}
	return L.IntervalTop(), nil
}

func (Intervals) EvalBinary(op symbolic.BinaryOp, l, r L.Interval, _ symbolic.ProgramPoint) (L.Interval, error) {
	if l.IsBot() || r.IsBot() {
		return L.IntervalBot(), nil
	}

	switch op {
	case symbolic.Add:
		return l.Plus(r), nil
	case symbolic.Sub:
		return l.Minus(r), nil
	case symbolic.Mul:
		return l.Mult(r), nil
	case symbolic.Div:
		return l.Div(r), nil
	case symbolic.Rem:
		return l.Rem(r), nil
	}
	return L.IntervalTop(), nil
}

func (d Intervals) SatisfiesBinary(op symbolic.BinaryOp, l, r L.Interval, _ symbolic.ProgramPoint) (L.Satisfiability, error) {
	if l.IsBot() || r.IsBot() {
		return L.BottomSat, nil
	}

	switch op {
	case symbolic.Eq:
		m, err := l.Meet(r)
		switch {
		case err != nil:
			return L.Unknown, err
		case m.IsBot():
			return L.NotSatisfied, nil
		case l.IsSingleton() && l.Equal(r):
			return L.Satisfied, nil
		}
	case symbolic.Ne:
		s, err := d.SatisfiesBinary(symbolic.Eq, l, r, nil)
		return s.Negate(), err
	case symbolic.Lt:
		switch {
		case l.High().Lt(r.Low()):
			return L.Satisfied, nil
		case r.High().Leq(l.Low()):
			return L.NotSatisfied, nil
		}
	case symbolic.Le:
		switch {
		case l.High().Leq(r.Low()):
			return L.Satisfied, nil
		case r.High().Lt(l.Low()):
			return L.NotSatisfied, nil
		}
	case symbolic.Gt, symbolic.Ge:
		return d.SatisfiesBinary(op.Flip(), r, l, nil)
	}
	return L.Unknown, nil
}

// RefineBinary narrows the operands of a comparison that is assumed to hold.
func (d Intervals) RefineBinary(op symbolic.BinaryOp, l, r L.Interval, _ symbolic.ProgramPoint) (L.Interval, L.Interval, error) {
	meet := func(v L.Interval, low, high L.IntervalBound) (L.Interval, error) {
		return v.Meet(L.NewInterval(low, high))
	}
	minusOne, one := L.FiniteBound(-1), L.FiniteBound(1)

	switch op {
	case symbolic.Eq:
		m, err := l.Meet(r)
		return m, m, err
	case symbolic.Ne:
		return excludeSingleton(l, r), excludeSingleton(r, l), nil
	case symbolic.Lt:
		nl, err := meet(l, L.MinusInfinity{}, r.High().Plus(minusOne))
		if err != nil {
			return l, r, err
		}
		nr, err := meet(r, l.Low().Plus(one), L.PlusInfinity{})
		return nl, nr, err
	case symbolic.Le:
		nl, err := meet(l, L.MinusInfinity{}, r.High())
		if err != nil {
			return l, r, err
		}
		nr, err := meet(r, l.Low(), L.PlusInfinity{})
		return nl, nr, err
	case symbolic.Gt, symbolic.Ge:
		nr, nl, err := d.RefineBinary(op.Flip(), r, l, nil)
		return nl, nr, err
	}
	return l, r, nil
}

// excludeSingleton removes the value of a singleton interval s from the
// bounds of v.
func excludeSingleton(v, s L.Interval) L.Interval {
	if !s.IsSingleton() || v.IsBot() {
		return v
	}
	c := s.Low()
	switch {
	case v.Low().Eq(c):
		return L.NewInterval(c.Plus(L.FiniteBound(1)), v.High())
	case v.High().Eq(c):
		return L.NewInterval(v.Low(), c.Plus(L.FiniteBound(-1)))
	}
	return v
}
