package lattice

// Satisfiability is the outcome of evaluating a condition in an abstract state.
type Satisfiability int

const (
	// BottomSat is the outcome in unreachable states.
	BottomSat Satisfiability = iota
	Satisfied
	NotSatisfied
	Unknown
)

func (s Satisfiability) String() string {
	switch s {
	case BottomSat:
		return botString
	case Satisfied:
		return "satisfied"
	case NotSatisfied:
		return "not satisfied"
	}
	return "unknown"
}

// Negate flips a definite outcome.
func (s Satisfiability) Negate() Satisfiability {
	switch s {
	case Satisfied:
		return NotSatisfied
	case NotSatisfied:
		return Satisfied
	}
	return s
}

// And computes the outcome of a conjunction.
func (s Satisfiability) And(o Satisfiability) Satisfiability {
	switch {
	case s == BottomSat || o == BottomSat:
		return BottomSat
	case s == NotSatisfied || o == NotSatisfied:
		return NotSatisfied
	case s == Satisfied && o == Satisfied:
		return Satisfied
	}
	return Unknown
}

// Or computes the outcome of a disjunction.
func (s Satisfiability) Or(o Satisfiability) Satisfiability {
	switch {
	case s == BottomSat || o == BottomSat:
		return BottomSat
	case s == Satisfied || o == Satisfied:
		return Satisfied
	case s == NotSatisfied && o == NotSatisfied:
		return NotSatisfied
	}
	return Unknown
}

// Join merges the outcomes of the same condition in two states. Outcomes
// that disagree are unknown.
func (s Satisfiability) Join(o Satisfiability) Satisfiability {
	switch {
	case s == BottomSat:
		return o
	case o == BottomSat, s == o:
		return s
	}
	return Unknown
}

// IsDefinite holds for the outcomes that are known in every execution.
func (s Satisfiability) IsDefinite() bool {
	return s == Satisfied || s == NotSatisfied
}
