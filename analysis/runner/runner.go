// Package runner sequences the phases of an analysis run: program
// finalization, syntactic checks, call graph construction, type inference,
// the main fixpoint and the semantic checks.
package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cs-au-dk/golisa/analysis/absint"
	"github.com/cs-au-dk/golisa/analysis/callgraph"
	"github.com/cs-au-dk/golisa/analysis/cfg"
	"github.com/cs-au-dk/golisa/analysis/checks"
	"github.com/cs-au-dk/golisa/analysis/interproc"
	"github.com/cs-au-dk/golisa/analysis/nonrel"
	"github.com/cs-au-dk/golisa/analysis/program"
	"github.com/cs-au-dk/golisa/analysis/types"
	"github.com/cs-au-dk/golisa/utils"
	"github.com/cs-au-dk/golisa/utils/dot"

	"github.com/pkg/errors"
)

// Config selects the phases of a run and tunes them.
type Config[A absint.State[A]] struct {
	Fixpoint absint.Config
	// InferTypes runs a type inference fixpoint before the main one, and
	// records the inferred types on the CFG nodes.
	InferTypes bool
	// State is a representative of the abstract state of the main
	// fixpoint, which starts from its top. A nil State skips the main
	// fixpoint and the semantic checks.
	State *A
	Token interproc.Token
	// Policy handles open calls. It defaults to absint.WorstCase.
	Policy absint.OpenCallPolicy[A]

	Syntactic []checks.SyntacticCheck
	Semantic  []checks.SemanticCheck[A]

	// DumpDir receives the analyzed CFGs in DumpFormat, which is dot or
	// any format supported by graphviz.
	DumpDir    string
	DumpFormat string

	Log *utils.LogGroup
}

// Results of a run.
type Results[A absint.State[A]] struct {
	Warnings  []checks.Warning
	CallGraph *callgraph.Graph
	// The results of every analyzed CFG, one per token.
	CFGs map[*cfg.CFG][]*absint.AnalyzedCFG[A]
}

type typeEnv = nonrel.Environment[types.Set]

// Run analyzes the program. Failures to finalize the program, to build its
// call graph or to initialize the analyses are fatal.
func Run[A absint.State[A]](prog *program.Program, conf Config[A]) (*Results[A], error) {
	log := conf.Log
	if log == nil {
		log = utils.NewLogGroup(utils.Opts().LogLevel())
	}

	if err := prog.ValidateAndFinalize(); err != nil {
		return nil, errors.WithMessage(err, "exception while finalizing the input program")
	}
	log.Infof("Finalized a program with %d CFGs and %d entry points", len(prog.CFGs()), len(prog.EntryPoints()))

	tool := checks.NewCheckTool()
	if len(conf.Syntactic) == 0 {
		log.Warnf("There are no syntactic checks to execute")
	} else {
		log.Infof("Running %d syntactic checks", len(conf.Syntactic))
		checks.RunSyntactic(tool, prog, conf.Syntactic...)
	}

	cg, err := callgraph.Build(prog)
	if err != nil {
		return nil, errors.WithMessage(err, "exception while building the call graph for the input program")
	}

	engine := interproc.New[A](conf.Token)
	engine.Log = log
	if err := engine.Init(prog, cg, conf.Policy); err != nil {
		return nil, errors.WithMessage(err, "exception while building the interprocedural analysis for the input program")
	}

	if conf.InferTypes {
		if err := inferTypes(prog, cg, conf.Token, conf.Fixpoint, log); err != nil {
			return nil, err
		}
	} else {
		log.Infof("Type inference disabled")
	}

	res := &Results[A]{
		CallGraph: cg,
		CFGs:      make(map[*cfg.CFG][]*absint.AnalyzedCFG[A]),
	}

	if conf.State == nil {
		log.Infof("No abstract state provided, skipping the analysis")
		res.Warnings = tool.Warnings()
		return res, nil
	}

	log.Infof("Computing the fixpoint over the whole program")
	entry := absint.NewState((*conf.State).Top())
	if err := engine.Fixpoint(entry, conf.Fixpoint); err != nil {
		return nil, err
	}

	res.CFGs = collect(prog.CFGs(), engine.ResultsOf, log)

	if len(conf.Semantic) == 0 {
		log.Warnf("There are no semantic checks to execute")
	} else {
		log.Infof("Running %d semantic checks", len(conf.Semantic))
		stool := checks.NewSemanticTool(tool, res.CFGs)
		if err := checks.RunSemantic(stool, prog, conf.Semantic...); err != nil {
			return nil, errors.WithMessage(err, "exception while running the semantic checks")
		}
	}

	if conf.DumpDir != "" {
		if err := dumpResults(prog, res.CFGs, conf.DumpDir, conf.DumpFormat, log); err != nil {
			return nil, err
		}
	}

	res.Warnings = tool.Warnings()
	return res, nil
}

// collect gathers the results of the CFGs that were reached. CFGs whose
// results cannot be unwound are logged and left out.
func collect[A absint.State[A]](gs []*cfg.CFG, resultsOf func(*cfg.CFG) ([]*absint.AnalyzedCFG[A], error), log *utils.LogGroup) map[*cfg.CFG][]*absint.AnalyzedCFG[A] {
	res := make(map[*cfg.CFG][]*absint.AnalyzedCFG[A])
	for _, g := range gs {
		results, err := resultsOf(g)
		if err != nil {
			log.Warnf("Skipping the results of %s: %v", g, err)
			continue
		}
		if len(results) > 0 {
			res[g] = results
		}
	}
	return res
}

// inferTypes computes the runtime types held by the computed expression of
// every node, and records them on the node.
func inferTypes(prog *program.Program, cg *callgraph.Graph, tok interproc.Token, fp absint.Config, log *utils.LogGroup) error {
	log.Infof("Computing type information")

	engine := interproc.New[typeEnv](tok)
	engine.Log = log
	if err := engine.Init(prog, cg, absint.WorstCase[typeEnv]{}); err != nil {
		return errors.WithMessage(err, "exception while building the type inference for the input program")
	}

	entry := absint.NewState(nonrel.NewEnvironment[types.Set](nonrel.TypeDomain{Registry: prog.Types}).Top())
	if err := engine.Fixpoint(entry, fp); err != nil {
		return err
	}

	for _, g := range prog.CFGs() {
		if g.Entry() == nil {
			continue
		}

		results, err := engine.ResultsOf(g)
		if err != nil {
			log.Warnf("Skipping the types of %s: %v", g, err)
			continue
		}
		if len(results) == 0 {
			log.Warnf("No type information for %s: it is unreachable from the entry points", g)
			continue
		}

		merged := results[0]
		for _, r := range results[1:] {
			if merged, err = merged.Join(r); err != nil {
				return err
			}
		}

		for _, n := range g.Nodes() {
			post, err := merged.PostOf(n)
			if err != nil || len(post.Computed) == 0 {
				continue
			}

			ts := types.Bot(prog.Types)
			for _, id := range post.Computed {
				if ts, err = ts.Join(post.State.Get(id)); err != nil {
					return err
				}
			}
			n.SetRuntimeTypes(ts)
		}
	}
	return nil
}

func dumpResults[A absint.State[A]](prog *program.Program, results map[*cfg.CFG][]*absint.AnalyzedCFG[A], dir, format string, log *utils.LogGroup) error {
	if format == "" {
		format = "dot"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}

	sanitize := strings.NewReplacer("/", "_", "*", "_", " ", "_", "(", "_", ")", "_")
	for _, g := range prog.CFGs() {
		for i, res := range results[g] {
			bs, err := res.ToDot().Bytes()
			if err != nil {
				return err
			}

			base := filepath.Join(dir, fmt.Sprintf("%s-%d", sanitize.Replace(g.Name()), i))
			path, err := dot.DotToImage(base, format, bs)
			if err != nil {
				return err
			}
			log.Debugf("Dumped %s to %s", g, path)
		}
	}
	return nil
}
