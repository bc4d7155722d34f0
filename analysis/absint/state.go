package absint

import (
	"sort"
	"strings"

	"github.com/cs-au-dk/golisa/analysis/lattice"
	"github.com/cs-au-dk/golisa/analysis/symbolic"
)

// State is an abstract state over which CFGs are analyzed, such as an
// environment of a non-relational domain.
type State[A any] interface {
	lattice.Lattice[A]

	Assign(symbolic.Identifier, symbolic.Expression, symbolic.ProgramPoint) (A, error)
	Assume(symbolic.Expression, symbolic.ProgramPoint) (A, error)
	Satisfies(symbolic.Expression, symbolic.ProgramPoint) (lattice.Satisfiability, error)

	Forget(symbolic.Identifier) A
	ForgetIf(func(symbolic.Identifier) bool) A

	// PushScope hides the scoped identifiers behind a scope when entering a
	// callee, and PopScope restores them when leaving it.
	PushScope(symbolic.Scope) A
	PopScope(symbolic.Scope) A
}

// AnalysisState pairs an abstract state with the identifiers holding the
// value of the last evaluated statement, such as the result of a call.
type AnalysisState[A State[A]] struct {
	State    A
	Computed []symbolic.Identifier
}

func NewState[A State[A]](st A, computed ...symbolic.Identifier) AnalysisState[A] {
	return AnalysisState[A]{State: st, Computed: computed}
}

func (s AnalysisState[A]) with(st A, computed []symbolic.Identifier) AnalysisState[A] {
	return AnalysisState[A]{State: st, Computed: computed}
}

func (s AnalysisState[A]) Top() AnalysisState[A] { return s.with(s.State.Top(), nil) }

func (s AnalysisState[A]) Bot() AnalysisState[A] { return s.with(s.State.Bot(), nil) }

func (s AnalysisState[A]) IsTop() bool { return s.State.IsTop() && len(s.Computed) == 0 }

func (s AnalysisState[A]) IsBot() bool { return s.State.IsBot() && len(s.Computed) == 0 }

func (s AnalysisState[A]) Leq(o AnalysisState[A]) (bool, error) {
	for _, id := range s.Computed {
		if !containsID(o.Computed, id) {
			return false, nil
		}
	}
	return s.State.Leq(o.State)
}

func (s AnalysisState[A]) Join(o AnalysisState[A]) (AnalysisState[A], error) {
	st, err := s.State.Join(o.State)
	return s.with(st, unionIDs(s.Computed, o.Computed)), err
}

func (s AnalysisState[A]) Meet(o AnalysisState[A]) (AnalysisState[A], error) {
	st, err := s.State.Meet(o.State)
	var computed []symbolic.Identifier
	for _, id := range s.Computed {
		if containsID(o.Computed, id) {
			computed = append(computed, id)
		}
	}
	return s.with(st, computed), err
}

func (s AnalysisState[A]) Widen(o AnalysisState[A]) (AnalysisState[A], error) {
	st, err := s.State.Widen(o.State)
	return s.with(st, unionIDs(s.Computed, o.Computed)), err
}

func (s AnalysisState[A]) Equal(o AnalysisState[A]) bool {
	if len(s.Computed) != len(o.Computed) {
		return false
	}
	for _, id := range s.Computed {
		if !containsID(o.Computed, id) {
			return false
		}
	}
	return s.State.Equal(o.State)
}

// Assign binds the expression to the identifier, which becomes the
// computed expression.
func (s AnalysisState[A]) Assign(id symbolic.Identifier, e symbolic.Expression, pp symbolic.ProgramPoint) (AnalysisState[A], error) {
	st, err := s.State.Assign(id, e, pp)
	return s.with(st, []symbolic.Identifier{id}), err
}

func (s AnalysisState[A]) Assume(e symbolic.Expression, pp symbolic.ProgramPoint) (AnalysisState[A], error) {
	st, err := s.State.Assume(e, pp)
	return s.with(st, s.Computed), err
}

func (s AnalysisState[A]) Forget(id symbolic.Identifier) AnalysisState[A] {
	return s.with(s.State.Forget(id), removeIDs(s.Computed, func(o symbolic.Identifier) bool { return o.Equal(id) }))
}

func (s AnalysisState[A]) ForgetIf(pred func(symbolic.Identifier) bool) AnalysisState[A] {
	return s.with(s.State.ForgetIf(pred), removeIDs(s.Computed, pred))
}

// String prints the state, followed by the computed expressions if any.
func (s AnalysisState[A]) String() string {
	str := s.State.String()
	if len(s.Computed) == 0 {
		return str
	}

	ids := make([]string, 0, len(s.Computed))
	for _, id := range s.Computed {
		ids = append(ids, id.String())
	}
	sort.Strings(ids)
	return str + "\n" + lattice.Colorize.Attr("computed: ") + strings.Join(ids, ", ")
}

func containsID(ids []symbolic.Identifier, id symbolic.Identifier) bool {
	for _, o := range ids {
		if o.Equal(id) {
			return true
		}
	}
	return false
}

func unionIDs(a, b []symbolic.Identifier) []symbolic.Identifier {
	if len(b) == 0 {
		return a
	}
	res := append([]symbolic.Identifier(nil), a...)
	for _, id := range b {
		if !containsID(res, id) {
			res = append(res, id)
		}
	}
	return res
}

func removeIDs(ids []symbolic.Identifier, pred func(symbolic.Identifier) bool) (res []symbolic.Identifier) {
	for _, id := range ids {
		if !pred(id) {
			res = append(res, id)
		}
	}
	return
}
