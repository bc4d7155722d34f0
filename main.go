package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cs-au-dk/golisa/analysis/checks"
	L "github.com/cs-au-dk/golisa/analysis/lattice"
	"github.com/cs-au-dk/golisa/analysis/nonrel"
	"github.com/cs-au-dk/golisa/analysis/powerset"
	"github.com/cs-au-dk/golisa/analysis/program"
	"github.com/cs-au-dk/golisa/frontend"
	"github.com/cs-au-dk/golisa/pkgutil"
	"github.com/cs-au-dk/golisa/utils"
)

var opts = utils.Opts()

func main() {
	utils.ParseArgs()
	path := utils.MakePath()
	lg := utils.NewLogGroup(opts.LogLevel())

	pkgs, err := pkgutil.LoadPackages(pkgutil.LoadConfig{
		GoPath:       opts.GoPath(),
		ModulePath:   opts.ModulePath(),
		IncludeTests: opts.IncludeTests(),
	}, path)
	if err != nil {
		log.Println("Failed pkgutil.LoadPackages")
		log.Println(err)
		os.Exit(1)
	}

	prog, err := frontend.Lower(pkgs, opts.Function())
	if err != nil {
		log.Println("Failed to lower", path)
		log.Println(err)
		os.Exit(1)
	}

	start := time.Now()
	warnings, err := analyze(prog, lg)
	if err != nil {
		lg.Errorf("%v", err)
		os.Exit(1)
	}
	opts.OnVerbose(func() { utils.TimeTrack(start, "Analysis") })

	report(warnings)
}

// analyze runs the analysis with the value domain selected on the command
// line.
func analyze(prog *program.Program, lg *utils.LogGroup) ([]checks.Warning, error) {
	if opts.Domain().IsPowerset() {
		dom := powerset.Lift[L.Interval](nonrel.Intervals{}, &powerset.Strategy[L.Interval]{
			MaxDisjuncts: opts.MaxDisjuncts(),
		})
		return pipeline[powerset.Set[L.Interval]]{dom, lg}.run(prog)
	}
	return pipeline[L.Interval]{nonrel.Intervals{}, lg}.run(prog)
}

func report(warnings []checks.Warning) {
	if len(warnings) == 0 {
		fmt.Println("No warnings")
		return
	}

	counts := make(map[string]int)
	for _, w := range warnings {
		fmt.Println(w)
		counts[w.Check]++
	}

	fmt.Println()
	for _, check := range utils.SortedKeys(counts) {
		fmt.Printf("%s: %d\n", check, counts[check])
	}
}
