package checks

import (
	"github.com/cs-au-dk/golisa/analysis/absint"
	"github.com/cs-au-dk/golisa/analysis/cfg"
	"github.com/cs-au-dk/golisa/analysis/lattice"
	"github.com/cs-au-dk/golisa/analysis/symbolic"

	"github.com/pkg/errors"
)

// SelfAssignment flags assignments of an identifier to itself.
type SelfAssignment struct{}

func (SelfAssignment) Name() string { return "self-assignment" }

func (SelfAssignment) Before(*CheckTool) {}

func (SelfAssignment) After(*CheckTool) {}

func (SelfAssignment) VisitCFG(*CheckTool, *cfg.CFG) bool { return true }

func (c SelfAssignment) VisitNode(tool *CheckTool, _ *cfg.CFG, n *cfg.Node) {
	as, ok := n.Stmt.(cfg.Assign)
	if !ok {
		return
	}
	if id, ok := as.Value.(symbolic.Identifier); ok && id.Equal(as.Target) {
		tool.WarnOn(c.Name(), n, "%s is assigned to itself", id)
	}
}

// DivisionByZero flags divisions whose divisor is, or may be, zero in the
// pre-state of the node under some token.
type DivisionByZero[A absint.State[A]] struct{}

func (DivisionByZero[A]) Name() string { return "division-by-zero" }

func (DivisionByZero[A]) Before(*SemanticTool[A]) {}

func (DivisionByZero[A]) After(*SemanticTool[A]) {}

func (DivisionByZero[A]) VisitCFG(tool *SemanticTool[A], g *cfg.CFG) bool {
	return len(tool.ResultsOf(g)) > 0
}

func (c DivisionByZero[A]) VisitNode(tool *SemanticTool[A], g *cfg.CFG, n *cfg.Node) error {
	var divs []symbolic.Expression
	for _, e := range cfg.Expressions(n.Stmt) {
		divs = append(divs, divisors(e)...)
	}
	if len(divs) == 0 {
		return nil
	}

	for _, div := range divs {
		outcome := lattice.BottomSat
		for _, res := range tool.ResultsOf(g) {
			pre, err := res.PreOf(n)
			if errors.Cause(err) == absint.ErrMissingResult {
				continue
			} else if err != nil {
				return err
			}

			sat, err := pre.State.Satisfies(symbolic.Binary(symbolic.Eq, div, symbolic.Int(0)), n)
			if err != nil {
				return err
			}
			outcome = outcome.Join(sat)
		}

		switch outcome {
		case lattice.Satisfied:
			tool.WarnOn(c.Name(), n, "division by zero: %s is always 0", div)
		case lattice.Unknown:
			tool.WarnOn(c.Name(), n, "possible division by zero: %s may be 0", div)
		}
	}
	return nil
}

// divisors lists the right operands of the divisions and remainders in an
// expression.
func divisors(e symbolic.Expression) (res []symbolic.Expression) {
	switch e := e.(type) {
	case symbolic.UnaryExpression:
		return divisors(e.Arg)
	case symbolic.BinaryExpression:
		res = append(divisors(e.Left), divisors(e.Right)...)
		if e.Op == symbolic.Div || e.Op == symbolic.Rem {
			res = append(res, e.Right)
		}
	}
	return
}
