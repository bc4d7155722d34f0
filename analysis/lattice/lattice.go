package lattice

import (
	"fmt"

	"github.com/pkg/errors"
)

// Lattice is the contract every abstract value of type E satisfies.
// Values are immutable: every operation returns a fresh value.
type Lattice[E any] interface {
	fmt.Stringer

	// Top returns the greatest element of the lattice of the receiver.
	Top() E
	// Bot returns the least element of the lattice of the receiver.
	Bot() E
	IsTop() bool
	IsBot() bool

	// Leq computes e1 ⊑ e2.
	Leq(E) (bool, error)
	// Join computes e1 ⊔ e2.
	Join(E) (E, error)
	// Meet computes e1 ⊓ e2.
	Meet(E) (E, error)
	// Widen computes e1 ∇ e2. Both operands must be below the result, and
	// any chain built by repeated widening must stabilize.
	Widen(E) (E, error)
	// Equal checks for structural equality.
	Equal(E) bool
}

// Base is implemented by lattice elements that delegate the corner cases
// of the lattice operations to the generic helpers Leq, Join, Meet and
// Widen. The auxiliary operations are only invoked on non-extremal operands.
type Base[E any] interface {
	Top() E
	Bot() E
	IsTop() bool
	IsBot() bool
	Equal(E) bool

	LeqAux(E) (bool, error)
	JoinAux(E) (E, error)
	MeetAux(E) (E, error)
	WidenAux(E) (E, error)
}

// ErrIncompatible is the cause of every error raised when the operands of a
// lattice operation belong to incompatible domain instances.
var ErrIncompatible = errors.New("incompatible lattice elements")

// Incompatible reports the pair of elements that could not be combined by op.
func Incompatible(op string, e1, e2 any) error {
	return errors.Wrapf(ErrIncompatible, "%v %s %v", e1, op, e2)
}

// Leq computes e1 ⊑ e2. Bottom is below everything and everything is below
// top. Only two non-extremal, non-equal operands reach LeqAux.
func Leq[E Base[E]](e1, e2 E) (bool, error) {
	switch {
	case e1.IsBot(), e2.IsTop(), e1.Equal(e2):
		return true, nil
	case e1.IsTop(), e2.IsBot():
		return false, nil
	}
	return e1.LeqAux(e2)
}

// Join computes e1 ⊔ e2. Ordered operands are short-circuited, so JoinAux
// only sees incomparable operands.
func Join[E Base[E]](e1, e2 E) (E, error) {
	switch {
	case e2.IsBot(), e1.IsTop(), e1.Equal(e2):
		return e1, nil
	case e1.IsBot(), e2.IsTop():
		return e2, nil
	}

	if ok, err := e2.LeqAux(e1); err != nil {
		return e1, err
	} else if ok {
		return e1, nil
	}
	if ok, err := e1.LeqAux(e2); err != nil {
		return e1, err
	} else if ok {
		return e2, nil
	}

	return e1.JoinAux(e2)
}

// Meet computes e1 ⊓ e2. It is the dual of Join.
func Meet[E Base[E]](e1, e2 E) (E, error) {
	switch {
	case e2.IsTop(), e1.IsBot(), e1.Equal(e2):
		return e1, nil
	case e1.IsTop(), e2.IsBot():
		return e2, nil
	}

	if ok, err := e1.LeqAux(e2); err != nil {
		return e1, err
	} else if ok {
		return e1, nil
	}
	if ok, err := e2.LeqAux(e1); err != nil {
		return e1, err
	} else if ok {
		return e2, nil
	}

	return e1.MeetAux(e2)
}

// Widen computes e1 ∇ e2. Only the extremes and equality are
// short-circuited: an ordered pair must still be extrapolated.
func Widen[E Base[E]](e1, e2 E) (E, error) {
	switch {
	case e2.IsBot(), e1.IsTop(), e1.Equal(e2):
		return e1, nil
	case e1.IsBot(), e2.IsTop():
		return e2, nil
	}
	return e1.WidenAux(e2)
}

// JoinAll folds Join over the given elements, starting from bot.
func JoinAll[E Lattice[E]](bot E, es ...E) (res E, err error) {
	res = bot
	for _, e := range es {
		if res, err = res.Join(e); err != nil {
			return
		}
	}
	return
}

// Geq computes e1 ⊒ e2.
func Geq[E Lattice[E]](e1, e2 E) (bool, error) {
	return e2.Leq(e1)
}

// StrictlyLeq computes e1 ⊏ e2.
func StrictlyLeq[E Lattice[E]](e1, e2 E) (bool, error) {
	ok, err := e1.Leq(e2)
	if err != nil || !ok {
		return false, err
	}
	back, err := e2.Leq(e1)
	return !back, err
}
