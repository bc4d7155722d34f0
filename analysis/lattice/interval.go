package lattice

import (
	"fmt"
	"strconv"
)

// Interval is a member of the interval lattice. Any interval consists of
// two interval bounds, `low` and `high`. The least element is [∞, -∞] and
// the greatest element is [-∞, ∞].
type Interval struct {
	low  IntervalBound
	high IntervalBound
}

var (
	intervalTop = Interval{low: MinusInfinity{}, high: PlusInfinity{}}
	intervalBot = Interval{low: PlusInfinity{}, high: MinusInfinity{}}
)

// IntervalTop yields [-∞, ∞].
func IntervalTop() Interval { return intervalTop }

// IntervalBot yields [∞, -∞].
func IntervalBot() Interval { return intervalBot }

// NewInterval creates an interval with possibly infinite bounds. Empty
// intervals are normalized to the least element.
func NewInterval(low, high IntervalBound) Interval {
	if high.Lt(low) || low.Eq(PlusInfinity{}) || high.Eq(MinusInfinity{}) {
		return intervalBot
	}
	return Interval{low: low, high: high}
}

// FiniteInterval creates an interval with finite bounds.
func FiniteInterval(low, high int) Interval {
	return NewInterval(FiniteBound(low), FiniteBound(high))
}

// Singleton creates the interval [c, c].
func Singleton(c int) Interval {
	return FiniteInterval(c, c)
}

func (e Interval) String() string {
	if e.IsBot() {
		return BotString()
	}
	return "[" + e.low.String() + ", " + e.high.String() + "]"
}

func (Interval) Top() Interval { return intervalTop }

func (Interval) Bot() Interval { return intervalBot }

func (e Interval) IsBot() bool {
	_, ok := e.low.(PlusInfinity)
	return ok || e.low == nil
}

func (e Interval) IsTop() bool {
	return e.low != nil && e.low.Eq(MinusInfinity{}) && e.high.Eq(PlusInfinity{})
}

// Low returns the lower bound.
func (e Interval) Low() IntervalBound { return e.low }

// High returns the upper bound.
func (e Interval) High() IntervalBound { return e.high }

// IsSingleton checks whether the interval denotes exactly one integer.
func (e Interval) IsSingleton() bool {
	return !e.IsBot() && !e.low.IsInfinite() && e.low.Eq(e.high)
}

// Contains checks whether the integer c is in the interval.
func (e Interval) Contains(c int) bool {
	return !e.IsBot() && e.low.Leq(FiniteBound(c)) && FiniteBound(c).Leq(e.high)
}

// GetFiniteBounds unpacks the interval bounds, if finite.
func (e Interval) GetFiniteBounds() (int, int, bool) {
	l, lok := e.low.(FiniteBound)
	h, hok := e.high.(FiniteBound)
	if e.IsBot() || !lok || !hok {
		return 0, 0, false
	}
	return int(l), int(h), true
}

func (e1 Interval) Equal(e2 Interval) bool {
	if e1.IsBot() || e2.IsBot() {
		return e1.IsBot() == e2.IsBot()
	}
	return e1.low.Eq(e2.low) && e1.high.Eq(e2.high)
}

func (e1 Interval) Leq(e2 Interval) (bool, error) { return Leq(e1, e2) }

func (e1 Interval) Join(e2 Interval) (Interval, error) { return Join(e1, e2) }

func (e1 Interval) Meet(e2 Interval) (Interval, error) { return Meet(e1, e2) }

func (e1 Interval) Widen(e2 Interval) (Interval, error) { return Widen(e1, e2) }

// LeqAux computes [l1, h1] ⊑ [l2, h2] as l2 ≤ l1 ∧ h1 ≤ h2.
func (e1 Interval) LeqAux(e2 Interval) (bool, error) {
	return e2.low.Leq(e1.low) && e1.high.Leq(e2.high), nil
}

// JoinAux computes [min(l1, l2), max(h1, h2)].
func (e1 Interval) JoinAux(e2 Interval) (Interval, error) {
	return Interval{
		low:  minBound(e1.low, e2.low),
		high: maxBound(e1.high, e2.high),
	}, nil
}

// MeetAux computes [max(l1, l2), min(h1, h2)], which is ⊥ when the
// intervals are disjoint.
func (e1 Interval) MeetAux(e2 Interval) (Interval, error) {
	return NewInterval(maxBound(e1.low, e2.low), minBound(e1.high, e2.high)), nil
}

// WidenAux pushes every bound that grows to infinity:
//
//	[l1, h1] ∇ [l2, h2] = [l2 < l1 ? -∞ : l1, h2 > h1 ? ∞ : h1]
func (e1 Interval) WidenAux(e2 Interval) (Interval, error) {
	res := e1
	if e2.low.Lt(e1.low) {
		res.low = MinusInfinity{}
	}
	if e1.high.Lt(e2.high) {
		res.high = PlusInfinity{}
	}
	return res, nil
}

// Plus computes [l1 + l2, h1 + h2].
func (e1 Interval) Plus(e2 Interval) Interval {
	if e1.IsBot() || e2.IsBot() {
		return intervalBot
	}
	return NewInterval(e1.low.Plus(e2.low), e1.high.Plus(e2.high))
}

// Neg computes [-h, -l].
func (e Interval) Neg() Interval {
	if e.IsBot() {
		return e
	}
	return NewInterval(e.high.Neg(), e.low.Neg())
}

// Minus computes [l1 - h2, h1 - l2].
func (e1 Interval) Minus(e2 Interval) Interval {
	return e1.Plus(e2.Neg())
}

// Mult computes the hull of the products of the bounds.
func (e1 Interval) Mult(e2 Interval) Interval {
	if e1.IsBot() || e2.IsBot() {
		return intervalBot
	}
	return hull(
		e1.low.Mult(e2.low), e1.low.Mult(e2.high),
		e1.high.Mult(e2.low), e1.high.Mult(e2.high),
	)
}

// Div computes the truncated quotient of two intervals. Division by
// exactly zero is ⊥ and a divisor that may be zero yields ⊤.
func (e1 Interval) Div(e2 Interval) Interval {
	switch {
	case e1.IsBot() || e2.IsBot():
		return intervalBot
	case e2.IsSingleton() && e2.Contains(0):
		return intervalBot
	case e2.Contains(0):
		return intervalTop
	}
	return hull(
		divBound(e1.low, e2.low), divBound(e1.low, e2.high),
		divBound(e1.high, e2.low), divBound(e1.high, e2.high),
	)
}

// Rem computes an interval containing every truncated remainder of the
// division of e1 by e2. The remainder has the sign of the dividend.
func (e1 Interval) Rem(e2 Interval) Interval {
	switch {
	case e1.IsBot() || e2.IsBot():
		return intervalBot
	case e2.IsSingleton() && e2.Contains(0):
		return intervalBot
	case e2.Contains(0) || e2.low.IsInfinite() || e2.high.IsInfinite():
		return intervalTop
	}

	m := maxBound(e2.low.abs(), e2.high.abs()).(FiniteBound) - 1
	switch {
	case FiniteBound(0).Leq(e1.low):
		return FiniteInterval(0, int(m))
	case e1.high.Leq(FiniteBound(0)):
		return FiniteInterval(-int(m), 0)
	}
	return FiniteInterval(-int(m), int(m))
}

func hull(bs ...IntervalBound) Interval {
	low, high := bs[0], bs[0]
	for _, b := range bs[1:] {
		low, high = minBound(low, b), maxBound(high, b)
	}
	return NewInterval(low, high)
}

func minBound(b1, b2 IntervalBound) IntervalBound {
	if b1.Leq(b2) {
		return b1
	}
	return b2
}

func maxBound(b1, b2 IntervalBound) IntervalBound {
	if b1.Leq(b2) {
		return b2
	}
	return b1
}

// IntervalBound is an interface implemented by all interval lattice bounds
// i.e., any FiniteBound value, PlusInfinity and MinusInfinity.
type IntervalBound interface {
	fmt.Stringer

	// IsInfinite checks whether the interval bound is infinite.
	IsInfinite() bool

	// Eq checks for interval bound equality.
	Eq(IntervalBound) bool
	// Leq computes b1 ≤ b2. The semantics is -∞ ≤ c ≤ ∞, where c ∈ ℤ.
	Leq(IntervalBound) bool
	// Lt computes b1 < b2.
	Lt(IntervalBound) bool

	// Plus computes b1 + b2. The sum of ∞ and -∞ is undefined and panics,
	// as it never arises from the bounds of a non-empty interval.
	Plus(IntervalBound) IntervalBound
	// Mult computes b1 * b2, where 0 * (-)∞ = 0.
	Mult(IntervalBound) IntervalBound
	// Neg computes -b.
	Neg() IntervalBound

	sign() int
	abs() IntervalBound
}

type (
	// FiniteBound is used to represent finite limits of an interval value.
	FiniteBound int
	// PlusInfinity represents ∞.
	PlusInfinity struct{}
	// MinusInfinity represents -∞.
	MinusInfinity struct{}
)

// rank orders the kinds of bounds: -∞ < c < ∞.
func rank(b IntervalBound) int {
	switch b.(type) {
	case MinusInfinity:
		return -1
	case PlusInfinity:
		return 1
	}
	return 0
}

func (FiniteBound) IsInfinite() bool { return false }

func (b FiniteBound) String() string {
	return Colorize.Element(strconv.Itoa(int(b)))
}

func (b1 FiniteBound) Eq(b2 IntervalBound) bool {
	f, ok := b2.(FiniteBound)
	return ok && b1 == f
}

func (b1 FiniteBound) Leq(b2 IntervalBound) bool {
	if f, ok := b2.(FiniteBound); ok {
		return b1 <= f
	}
	return rank(b2) > 0
}

func (b1 FiniteBound) Lt(b2 IntervalBound) bool {
	if f, ok := b2.(FiniteBound); ok {
		return b1 < f
	}
	return rank(b2) > 0
}

func (b1 FiniteBound) Plus(b2 IntervalBound) IntervalBound {
	if f, ok := b2.(FiniteBound); ok {
		return b1 + f
	}
	return b2
}

func (b1 FiniteBound) Mult(b2 IntervalBound) IntervalBound {
	switch b2 := b2.(type) {
	case FiniteBound:
		return b1 * b2
	default:
		return infinity(b1.sign() * b2.sign())
	}
}

func (b FiniteBound) Neg() IntervalBound { return -b }

func (b FiniteBound) sign() int {
	switch {
	case b > 0:
		return 1
	case b < 0:
		return -1
	}
	return 0
}

func (b FiniteBound) abs() IntervalBound {
	if b < 0 {
		return -b
	}
	return b
}

func (PlusInfinity) IsInfinite() bool { return true }

func (PlusInfinity) String() string { return Colorize.Element("∞") }

func (PlusInfinity) Eq(b2 IntervalBound) bool { return rank(b2) == 1 }

// Leq computes ∞ ≤ b, which only holds for b = ∞.
func (PlusInfinity) Leq(b2 IntervalBound) bool { return rank(b2) == 1 }

// Lt computes ∞ < b. It is always false as ∞ is the largest possible bound.
func (PlusInfinity) Lt(IntervalBound) bool { return false }

func (b1 PlusInfinity) Plus(b2 IntervalBound) IntervalBound {
	if rank(b2) < 0 {
		panic("∞ - ∞")
	}
	return b1
}

func (b1 PlusInfinity) Mult(b2 IntervalBound) IntervalBound {
	return infinity(b2.sign())
}

func (PlusInfinity) Neg() IntervalBound { return MinusInfinity{} }

func (PlusInfinity) sign() int { return 1 }

func (b PlusInfinity) abs() IntervalBound { return b }

func (MinusInfinity) IsInfinite() bool { return true }

func (MinusInfinity) String() string { return Colorize.Element("-∞") }

func (MinusInfinity) Eq(b2 IntervalBound) bool { return rank(b2) == -1 }

// Leq computes -∞ ≤ b. It is always true as -∞ is the smallest possible bound.
func (MinusInfinity) Leq(IntervalBound) bool { return true }

func (MinusInfinity) Lt(b2 IntervalBound) bool { return rank(b2) > -1 }

func (b1 MinusInfinity) Plus(b2 IntervalBound) IntervalBound {
	if rank(b2) > 0 {
		panic("-∞ + ∞")
	}
	return b1
}

func (MinusInfinity) Mult(b2 IntervalBound) IntervalBound {
	return infinity(-b2.sign())
}

func (MinusInfinity) Neg() IntervalBound { return PlusInfinity{} }

func (MinusInfinity) sign() int { return -1 }

func (MinusInfinity) abs() IntervalBound { return PlusInfinity{} }

// infinity picks the infinite bound with the given sign. Zero stands for
// a product with a factor of 0.
func infinity(sign int) IntervalBound {
	switch {
	case sign > 0:
		return PlusInfinity{}
	case sign < 0:
		return MinusInfinity{}
	}
	return FiniteBound(0)
}

// divBound computes b1 / b2 for a non-zero b2. A finite bound divided by
// an infinite one is 0. So is ∞ / ∞, which only arises at a corner that is
// dominated by the other corners of the quotient.
func divBound(b1, b2 IntervalBound) IntervalBound {
	f1, ok1 := b1.(FiniteBound)
	f2, ok2 := b2.(FiniteBound)
	switch {
	case ok1 && ok2:
		return f1 / f2
	case !ok2:
		return FiniteBound(0)
	}
	return infinity(b1.sign() * f2.sign())
}
