// Package checks inspects programs and analysis results, and reports
// warnings about them.
package checks

import (
	"fmt"
	"sort"

	"github.com/cs-au-dk/golisa/analysis/absint"
	"github.com/cs-au-dk/golisa/analysis/cfg"
	"github.com/cs-au-dk/golisa/analysis/program"

	"github.com/fatih/color"
)

// Warning is a finding of a check.
type Warning struct {
	Check    string
	CFG      string
	Location string
	Message  string
}

func (w Warning) String() string {
	return color.YellowString("[%s]", w.Check) + " " + w.Location + ": " + w.Message
}

func (w Warning) less(o Warning) bool {
	switch {
	case w.CFG != o.CFG:
		return w.CFG < o.CFG
	case w.Location != o.Location:
		return w.Location < o.Location
	case w.Check != o.Check:
		return w.Check < o.Check
	}
	return w.Message < o.Message
}

// CheckTool collects the warnings reported by checks.
type CheckTool struct {
	warnings []Warning
	seen     map[Warning]bool
}

func NewCheckTool() *CheckTool {
	return &CheckTool{seen: make(map[Warning]bool)}
}

func (t *CheckTool) add(w Warning) {
	if !t.seen[w] {
		t.seen[w] = true
		t.warnings = append(t.warnings, w)
	}
}

// WarnOn reports a warning about a node.
func (t *CheckTool) WarnOn(check string, n *cfg.Node, format string, args ...any) {
	t.add(Warning{check, n.CFG().Name(), n.Location(), fmt.Sprintf(format, args...)})
}

// WarnOnCFG reports a warning about a whole CFG.
func (t *CheckTool) WarnOnCFG(check string, g *cfg.CFG, format string, args ...any) {
	loc := g.Desc.Location
	if loc == "" {
		loc = g.Name()
	}
	t.add(Warning{check, g.Name(), loc, fmt.Sprintf(format, args...)})
}

// Warnings lists the reported warnings, sorted by CFG and location.
func (t *CheckTool) Warnings() []Warning {
	res := append([]Warning(nil), t.warnings...)
	sort.Slice(res, func(i, j int) bool { return res[i].less(res[j]) })
	return res
}

// SyntacticCheck visits the CFGs of a program before it is analyzed.
//
// VisitCFG returns false to skip the nodes of the CFG.
type SyntacticCheck interface {
	Name() string
	Before(*CheckTool)
	VisitCFG(*CheckTool, *cfg.CFG) bool
	VisitNode(*CheckTool, *cfg.CFG, *cfg.Node)
	After(*CheckTool)
}

// RunSyntactic runs the checks over every CFG with a body, in order.
func RunSyntactic(tool *CheckTool, prog *program.Program, checks ...SyntacticCheck) {
	for _, check := range checks {
		check.Before(tool)
		for _, g := range prog.CFGs() {
			if g.Entry() == nil || !check.VisitCFG(tool, g) {
				continue
			}
			for _, n := range g.Nodes() {
				check.VisitNode(tool, g, n)
			}
		}
		check.After(tool)
	}
}

// SemanticTool gives semantic checks access to the results of the
// analysis, one per token.
type SemanticTool[A absint.State[A]] struct {
	*CheckTool
	results map[*cfg.CFG][]*absint.AnalyzedCFG[A]
}

func NewSemanticTool[A absint.State[A]](tool *CheckTool, results map[*cfg.CFG][]*absint.AnalyzedCFG[A]) *SemanticTool[A] {
	return &SemanticTool[A]{tool, results}
}

func (t *SemanticTool[A]) ResultsOf(g *cfg.CFG) []*absint.AnalyzedCFG[A] {
	return t.results[g]
}

// SemanticCheck visits the CFGs of a program after it is analyzed.
type SemanticCheck[A absint.State[A]] interface {
	Name() string
	Before(*SemanticTool[A])
	VisitCFG(*SemanticTool[A], *cfg.CFG) bool
	VisitNode(*SemanticTool[A], *cfg.CFG, *cfg.Node) error
	After(*SemanticTool[A])
}

// RunSemantic runs the checks over every CFG with a body, stopping at the
// first error.
func RunSemantic[A absint.State[A]](tool *SemanticTool[A], prog *program.Program, checks ...SemanticCheck[A]) error {
	for _, check := range checks {
		check.Before(tool)
		for _, g := range prog.CFGs() {
			if g.Entry() == nil || !check.VisitCFG(tool, g) {
				continue
			}
			for _, n := range g.Nodes() {
				if err := check.VisitNode(tool, g, n); err != nil {
					return err
				}
			}
		}
		check.After(tool)
	}
	return nil
}
