package nonrel

import (
	"github.com/cs-au-dk/golisa/analysis/lattice"
	"github.com/cs-au-dk/golisa/analysis/symbolic"
)

// Domain supplies the transfer functions of a non-relational value domain,
// whose abstract values have type V.
type Domain[V lattice.Lattice[V]] interface {
	Top() V
	Bot() V

	EvalConstant(symbolic.Constant, symbolic.ProgramPoint) (V, error)
	EvalPushAny(symbolic.PushAny, symbolic.ProgramPoint) (V, error)
	EvalUnary(symbolic.UnaryOp, V, symbolic.ProgramPoint) (V, error)
	EvalBinary(symbolic.BinaryOp, V, V, symbolic.ProgramPoint) (V, error)

	// SatisfiesBinary decides whether a comparison holds between two values.
	SatisfiesBinary(symbolic.BinaryOp, V, V, symbolic.ProgramPoint) (lattice.Satisfiability, error)
	// RefineBinary narrows both operands of a comparison under the
	// assumption that it holds.
	RefineBinary(symbolic.BinaryOp, V, V, symbolic.ProgramPoint) (V, V, error)
}

// AssignHook is implemented by domains that adjust the value stored by an
// assignment, after the assigned expression has been evaluated.
type AssignHook[V lattice.Lattice[V]] interface {
	AfterAssign(id symbolic.Identifier, e symbolic.Expression, v V, pp symbolic.ProgramPoint) (V, error)
}
