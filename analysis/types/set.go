package types

import (
	"strings"

	"github.com/cs-au-dk/golisa/analysis/lattice"

	"golang.org/x/exp/slices"
)

// Set is a member of the lattice of sets of runtime types. The greatest
// element contains every type of the registry. The lattice has finite
// height, so widening coincides with the join.
type Set struct {
	reg   *Registry
	top   bool
	names []string
}

// Top yields the set of all the types of the registry.
func Top(reg *Registry) Set { return Set{reg: reg, top: true} }

// Bot yields the empty set of types.
func Bot(reg *Registry) Set { return Set{reg: reg} }

// NewSet creates a set of the given types. The types are interned.
func NewSet(reg *Registry, ts ...Type) Set {
	names := make([]string, 0, len(ts))
	for _, t := range ts {
		reg.Intern(t)
		if !slices.Contains(names, t.String()) {
			names = append(names, t.String())
		}
	}
	slices.Sort(names)
	return Set{reg: reg, names: names}.normalize()
}

// normalize represents a set that covers the registry as top.
func (s Set) normalize() Set {
	if !s.top && s.reg != nil && len(s.names) == s.reg.Size() {
		return Set{reg: s.reg, top: true}
	}
	return s
}

func (s Set) Top() Set { return Top(s.reg) }

func (s Set) Bot() Set { return Bot(s.reg) }

func (s Set) IsTop() bool { return s.top }

func (s Set) IsBot() bool { return !s.top && len(s.names) == 0 }

// Types lists the members of the set, sorted by name.
func (s Set) Types() []Type {
	if s.top {
		if s.reg == nil {
			return nil
		}
		return s.reg.All()
	}
	res := make([]Type, 0, len(s.names))
	for _, n := range s.names {
		t, _ := s.reg.Lookup(n)
		res = append(res, t)
	}
	return res
}

// Contains checks whether the type is a member of the set.
func (s Set) Contains(t Type) bool {
	if s.top {
		return true
	}
	_, found := slices.BinarySearch(s.names, t.String())
	return found
}

func (s Set) Equal(o Set) bool {
	return s.top == o.top && slices.Equal(s.names, o.names)
}

func (s Set) Leq(o Set) (bool, error) { return lattice.Leq(s, o) }

func (s Set) Join(o Set) (Set, error) { return lattice.Join(s, o) }

func (s Set) Meet(o Set) (Set, error) { return lattice.Meet(s, o) }

func (s Set) Widen(o Set) (Set, error) { return lattice.Widen(s, o) }

func (s Set) check(op string, o Set) error {
	if s.reg != nil && o.reg != nil && s.reg != o.reg {
		return lattice.Incompatible(op, s, o)
	}
	return nil
}

// LeqAux checks set inclusion.
func (s Set) LeqAux(o Set) (bool, error) {
	if err := s.check("⊑", o); err != nil {
		return false, err
	}
	for _, n := range s.names {
		if _, found := slices.BinarySearch(o.names, n); !found {
			return false, nil
		}
	}
	return true, nil
}

// JoinAux computes the union of two sets.
func (s Set) JoinAux(o Set) (Set, error) {
	if err := s.check("⊔", o); err != nil {
		return s, err
	}
	names := slices.Clone(s.names)
	for _, n := range o.names {
		if _, found := slices.BinarySearch(s.names, n); !found {
			names = append(names, n)
		}
	}
	slices.Sort(names)
	return Set{reg: s.reg, names: names}.normalize(), nil
}

// MeetAux computes the intersection of two sets.
func (s Set) MeetAux(o Set) (Set, error) {
	if err := s.check("⊓", o); err != nil {
		return s, err
	}
	names := make([]string, 0, len(s.names))
	for _, n := range s.names {
		if _, found := slices.BinarySearch(o.names, n); found {
			names = append(names, n)
		}
	}
	return Set{reg: s.reg, names: names}, nil
}

func (s Set) WidenAux(o Set) (Set, error) {
	return s.JoinAux(o)
}

func (s Set) String() string {
	switch {
	case s.top:
		return lattice.TopString()
	case s.IsBot():
		return lattice.BotString()
	}
	strs := make([]string, 0, len(s.names))
	for _, n := range s.names {
		strs = append(strs, lattice.Colorize.Element(n))
	}
	return "{" + strings.Join(strs, ", ") + "}"
}
