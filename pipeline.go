package main

import (
	"fmt"

	"github.com/cs-au-dk/golisa/analysis/absint"
	"github.com/cs-au-dk/golisa/analysis/checks"
	"github.com/cs-au-dk/golisa/analysis/interproc"
	"github.com/cs-au-dk/golisa/analysis/lattice"
	"github.com/cs-au-dk/golisa/analysis/nonrel"
	"github.com/cs-au-dk/golisa/analysis/program"
	"github.com/cs-au-dk/golisa/analysis/runner"
	"github.com/cs-au-dk/golisa/utils"
)

// pipeline analyzes lowered programs with environments over one value
// domain.
type pipeline[V lattice.Lattice[V]] struct {
	dom nonrel.Domain[V]
	log *utils.LogGroup
}

// token is the context sensitivity selected on the command line.
func token() interproc.Token {
	switch t := opts.Token(); {
	case t.IsInsensitive():
		return interproc.Insensitive{}
	case t.IsKDepth():
		return interproc.NewKDepth(opts.K())
	case t.IsFullStack():
		return interproc.NewFullStack()
	}
	return interproc.NewLastCall()
}

func (p pipeline[V]) config() runner.Config[nonrel.Environment[V]] {
	st := nonrel.NewEnvironment(p.dom)

	conf := runner.Config[nonrel.Environment[V]]{
		Fixpoint: absint.Config{
			WideningThreshold: opts.WideningThreshold(),
			GLBThreshold:      opts.GLBThreshold(),
			Optimize:          opts.Optimize(),
		},
		InferTypes: opts.InferTypes(),
		State:      &st,
		Token:      token(),
		Policy:     absint.ReturnTop[nonrel.Environment[V]]{},
		Syntactic:  []checks.SyntacticCheck{checks.SelfAssignment{}},
		Semantic: []checks.SemanticCheck[nonrel.Environment[V]]{
			checks.DivisionByZero[nonrel.Environment[V]]{},
		},
		DumpDir:    opts.DumpDir(),
		DumpFormat: opts.OutputFormat(),
		Log:        p.log,
	}
	if opts.OpenCalls().IsWorstCase() {
		conf.Policy = absint.WorstCase[nonrel.Environment[V]]{}
	}
	return conf
}

// run analyzes the program and returns the warnings of the checks.
func (p pipeline[V]) run(prog *program.Program) ([]checks.Warning, error) {
	res, err := runner.Run(prog, p.config())
	if err != nil {
		return nil, err
	}

	p.gatherMetrics(prog, res)
	return res.Warnings, nil
}

// gatherMetrics prints the analyzed CFGs with their results in verbose mode.
func (p pipeline[V]) gatherMetrics(prog *program.Program, res *runner.Results[nonrel.Environment[V]]) {
	opts.OnVerbose(func() {
		msg := "================ Results =====================\n\n"
		for _, g := range prog.CFGs() {
			results := res.CFGs[g]
			if len(results) == 0 {
				continue
			}

			msg += fmt.Sprintf("CFG: %s\nContexts: %d\n", g.Desc, len(results))
			for _, r := range results {
				msg += r.String() + "\n"
			}
			if callees := res.CallGraph.Callees(g); len(callees) > 0 {
				msg += fmt.Sprintf("Callees: %v\n", callees)
			}
			msg += "\n"
		}
		utils.VerbosePrint("%s", msg)
	})
}
