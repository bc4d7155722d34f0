package powerset

import (
	"sort"
	"strings"

	"github.com/cs-au-dk/golisa/analysis/lattice"
)

// Strategy customizes the precision-sensitive choices of the powerset.
// A nil Merge or Connector falls back to the join.
type Strategy[E lattice.Lattice[E]] struct {
	// Merge combines two overlapping elements into one that covers both.
	Merge func(E, E) (E, error)
	// Connector computes an upper bound of two sets with respect to the
	// Egli-Milner order.
	Connector func(Set[E], Set[E]) (Set[E], error)
	// MaxDisjuncts bounds the size of joins. When a join would exceed it,
	// the operands are connected instead. Zero disables the bound.
	MaxDisjuncts int
}

// Set is a member of the non-redundant powerset of a base lattice. Its
// elements form an antichain of pairwise disjoint, non-bottom elements.
// The least element is the empty set. Any set containing the greatest
// element of the base lattice is the greatest element.
type Set[E lattice.Lattice[E]] struct {
	base     E
	strategy *Strategy[E]
	elems    []E
}

// Empty creates the empty set, where base is an element of the base lattice.
func Empty[E lattice.Lattice[E]](base E, strategy *Strategy[E]) Set[E] {
	return Set[E]{base: base.Bot(), strategy: strategy}
}

// Of creates the canonical set of the given elements.
func Of[E lattice.Lattice[E]](base E, strategy *Strategy[E], elems ...E) (Set[E], error) {
	s := Empty(base, strategy)
	return s.canonical(elems)
}

func (s Set[E]) with(elems []E) Set[E] {
	return Set[E]{base: s.base, strategy: s.strategy, elems: elems}
}

// Elements lists the disjuncts of the set.
func (s Set[E]) Elements() []E {
	return append([]E(nil), s.elems...)
}

// Size returns the number of disjuncts.
func (s Set[E]) Size() int { return len(s.elems) }

func (s Set[E]) Top() Set[E] { return s.with([]E{s.base.Top()}) }

func (s Set[E]) Bot() Set[E] { return s.with(nil) }

func (s Set[E]) IsBot() bool { return len(s.elems) == 0 }

func (s Set[E]) IsTop() bool {
	for _, e := range s.elems {
		if e.IsTop() {
			return true
		}
	}
	return false
}

// Collapse joins every disjunct into one element of the base lattice.
func (s Set[E]) Collapse() (E, error) {
	return lattice.JoinAll(s.base.Bot(), s.elems...)
}

func (s Set[E]) Equal(o Set[E]) bool {
	if len(s.elems) != len(o.elems) {
		return false
	}
	for _, e := range s.elems {
		if !contains(o.elems, e) {
			return false
		}
	}
	return true
}

func contains[E lattice.Lattice[E]](es []E, e E) bool {
	for _, x := range es {
		if x.Equal(e) {
			return true
		}
	}
	return false
}

func (s Set[E]) check(op string, o Set[E]) error {
	if s.strategy != o.strategy {
		return lattice.Incompatible(op, s, o)
	}
	return nil
}

func (s Set[E]) Leq(o Set[E]) (bool, error) { return lattice.Leq(s, o) }

func (s Set[E]) Join(o Set[E]) (Set[E], error) { return lattice.Join(s, o) }

func (s Set[E]) Meet(o Set[E]) (Set[E], error) { return lattice.Meet(s, o) }

func (s Set[E]) Widen(o Set[E]) (Set[E], error) { return lattice.Widen(s, o) }

// LeqAux is the Hoare order: every element of s is below some element of o.
func (s Set[E]) LeqAux(o Set[E]) (bool, error) {
	if err := s.check("⊑", o); err != nil {
		return false, err
	}
	for _, e1 := range s.elems {
		found := false
		for _, e2 := range o.elems {
			ok, err := e1.Leq(e2)
			if err != nil {
				return false, err
			}
			if ok {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}
	return true, nil
}

// JoinAux computes Ω(overlap(s ∪ o)). Joins exceeding the disjunct bound
// are connected instead.
func (s Set[E]) JoinAux(o Set[E]) (Set[E], error) {
	if err := s.check("⊔", o); err != nil {
		return s, err
	}
	res, err := s.canonical(append(s.Elements(), o.elems...))
	if err != nil {
		return s, err
	}
	if bound := s.maxDisjuncts(); bound > 0 && res.Size() > bound {
		return s.Connector(o)
	}
	return res, nil
}

// MeetAux computes Ω(overlap({ e1 ⊓ e2 | e1 ∈ s, e2 ∈ o })).
func (s Set[E]) MeetAux(o Set[E]) (Set[E], error) {
	if err := s.check("⊓", o); err != nil {
		return s, err
	}
	elems := make([]E, 0, len(s.elems)*len(o.elems))
	for _, e1 := range s.elems {
		for _, e2 := range o.elems {
			m, err := e1.Meet(e2)
			if err != nil {
				return s, err
			}
			elems = append(elems, m)
		}
	}
	return s.canonical(elems)
}

// WidenAux extrapolates o, or the connector of s and o when s is not below
// o in the Egli-Milner order.
func (s Set[E]) WidenAux(o Set[E]) (Set[E], error) {
	if err := s.check("∇", o); err != nil {
		return s, err
	}

	em, err := s.LeqEM(o)
	if err != nil {
		return s, err
	}
	if !em {
		if o, err = s.Connector(o); err != nil {
			return s, err
		}
	}

	res, err := s.Extrapolate(o)
	if err != nil {
		return s, err
	}
	return s.canonical(res.elems)
}

// LeqEM is the Egli-Milner order: s is below o in the Hoare order and, unless
// s is empty, every element of o is above some element of s.
func (s Set[E]) LeqEM(o Set[E]) (bool, error) {
	if ok, err := s.Leq(o); err != nil || !ok {
		return false, err
	}
	if s.IsBot() {
		return true, nil
	}

	for _, e2 := range o.elems {
		found := false
		for _, e1 := range s.elems {
			ok, err := e1.Leq(e2)
			if err != nil {
				return false, err
			}
			if ok {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}
	return true, nil
}

// Connector computes s ⊞ o, an upper bound of both sets in the Egli-Milner
// order. By default it is the singleton of the join of every element.
func (s Set[E]) Connector(o Set[E]) (Set[E], error) {
	if s.strategy != nil && s.strategy.Connector != nil {
		return s.strategy.Connector(s, o)
	}

	lub, err := lattice.JoinAll(s.base.Bot(), append(s.Elements(), o.elems...)...)
	if err != nil {
		return s, err
	}
	if lub.IsBot() {
		return s.Bot(), nil
	}
	return s.with([]E{lub}), nil
}

// Extrapolate computes Ω({ e1 ∇ e2 | e1 ∈ s, e2 ∈ o, e1 ⊏ e2 }) ⊔ o.
func (s Set[E]) Extrapolate(o Set[E]) (Set[E], error) {
	var widened []E
	for _, e1 := range s.elems {
		for _, e2 := range o.elems {
			strict, err := lattice.StrictlyLeq(e1, e2)
			if err != nil {
				return s, err
			}
			if !strict {
				continue
			}
			w, err := e1.Widen(e2)
			if err != nil {
				return s, err
			}
			widened = append(widened, w)
		}
	}

	reduced, err := s.omega(widened)
	if err != nil {
		return s, err
	}
	return s.with(reduced).Join(o)
}

func (s Set[E]) maxDisjuncts() int {
	if s.strategy == nil {
		return 0
	}
	return s.strategy.MaxDisjuncts
}

func (s Set[E]) String() string {
	if s.IsBot() {
		return lattice.BotString()
	}
	strs := make([]string, 0, len(s.elems))
	for _, e := range s.elems {
		strs = append(strs, e.String())
	}
	sort.Strings(strs)
	return "{" + strings.Join(strs, ", ") + "}"
}
