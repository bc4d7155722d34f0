package utils

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

type options struct {
	k            uint
	widen        int
	glb          int
	maxDisjuncts int
	function     string
	domain       string
	token        string
	openCalls    string
	gopath       string
	modulePath   string
	dump         string
	outputFormat string
	config       string
	logLevel     string
	noColorize   bool
	verbose      bool
	includeTests bool
	optimize     bool
	inferTypes   bool
}

const (
	_DOMAIN_INTERVAL = iota
	_DOMAIN_POWERSET
)

const (
	_TOKEN_INSENSITIVE = iota
	_TOKEN_LAST
	_TOKEN_KDEPTH
	_TOKEN_FULL
)

// CanColorize wraps a color printing function, disabling it when colors were
// turned off on the command line.
func CanColorize(col func(...interface{}) string) func(...interface{}) string {
	if opts.noColorize {
		return func(is ...interface{}) string {
			return fmt.Sprintf(strings.Repeat("%s", len(is)), is...)
		}
	}
	return col
}

var domains = []struct{ flag, explanation string }{{
	"interval",
	"Each variable is abstracted by one interval",
}, {
	"powerset",
	"Each variable is abstracted by a non-redundant set of intervals",
}}

var tokens = []struct{ flag, explanation string }{{
	"insensitive",
	"A single context for every call",
}, {
	"last",
	"Contexts are distinguished by the last call site",
}, {
	"kdepth",
	"Contexts are distinguished by the last k call sites (see -k)",
}, {
	"full",
	"Contexts are distinguished by the whole call string",
}}

var openCalls = []struct{ flag, explanation string }{{
	"top",
	"Open calls return an unknown value and have no side effects",
}, {
	"worst",
	"Open calls may change anything: the state after them is top",
}}

var opts = &options{}

type optInterface struct{}

type domainInterface struct{}

type tokenInterface struct{}

type openCallInterface struct{}

func Opts() optInterface {
	return optInterface{}
}

func (optInterface) NoColorize() bool {
	return opts.noColorize
}
func (optInterface) Function() string {
	return opts.function
}
func (optInterface) OutputFormat() string {
	return opts.outputFormat
}
func (optInterface) GoPath() string {
	return opts.gopath
}
func (optInterface) ModulePath() string {
	return opts.modulePath
}
func (optInterface) IncludeTests() bool {
	return opts.includeTests
}
func (optInterface) Verbose() bool {
	return opts.verbose
}
func (optInterface) K() int {
	return int(opts.k)
}
func (optInterface) WideningThreshold() int {
	return opts.widen
}
func (optInterface) GLBThreshold() int {
	return opts.glb
}
func (optInterface) MaxDisjuncts() int {
	return opts.maxDisjuncts
}
func (optInterface) Optimize() bool {
	return opts.optimize
}
func (optInterface) InferTypes() bool {
	return opts.inferTypes
}
func (optInterface) DumpDir() string {
	return opts.dump
}
func (optInterface) ConfigFile() string {
	return opts.config
}
func (optInterface) LogLevel() LogLevel {
	return ParseLogLevel(opts.logLevel)
}
func (optInterface) Domain() domainInterface {
	return domainInterface{}
}
func (domainInterface) IsInterval() bool {
	return opts.domain == domains[_DOMAIN_INTERVAL].flag
}
func (domainInterface) IsPowerset() bool {
	return opts.domain == domains[_DOMAIN_POWERSET].flag
}
func (optInterface) Token() tokenInterface {
	return tokenInterface{}
}
func (tokenInterface) IsInsensitive() bool {
	return opts.token == tokens[_TOKEN_INSENSITIVE].flag
}
func (tokenInterface) IsLastCall() bool {
	return opts.token == tokens[_TOKEN_LAST].flag
}
func (tokenInterface) IsKDepth() bool {
	return opts.token == tokens[_TOKEN_KDEPTH].flag
}
func (tokenInterface) IsFullStack() bool {
	return opts.token == tokens[_TOKEN_FULL].flag
}

func (optInterface) OpenCalls() openCallInterface {
	return openCallInterface{}
}
func (openCallInterface) IsReturnTop() bool {
	return opts.openCalls == openCalls[0].flag
}
func (openCallInterface) IsWorstCase() bool {
	return opts.openCalls == openCalls[1].flag
}

func (optInterface) OnVerbose(do func()) {
	if Opts().Verbose() {
		do()
	}
}

func init() {
	domainFlag := "\n"
	for _, domain := range domains {
		domainFlag += domain.flag + " -- " + domain.explanation + "\n"
	}
	domainFlag += "\n"
	tokenFlag := "\n"
	for _, token := range tokens {
		tokenFlag += token.flag + " -- " + token.explanation + "\n"
	}
	tokenFlag += "\n"
	openCallFlag := "\n"
	for _, policy := range openCalls {
		openCallFlag += policy.flag + " -- " + policy.explanation + "\n"
	}
	openCallFlag += "\n"

	flag.StringVar(&(opts.function), "fun", "main", "entry function of the analysis.\n"+
		"- Use '.' to analyze every exported function of the main package as an entry point.\n")
	flag.StringVar(&(opts.gopath), "gopath", "examples", "specify GOPATH to be used for packages.Load")
	flag.StringVar(&(opts.modulePath), "modulepath", "", `specify a path to a directory containing a Go module.
- If provided this will make our code loading tools (that piggyback on Go's tools) run
in "module-aware" mode (GO111MODULE=on).`)
	flag.StringVar(&(opts.domain), "domain", domains[_DOMAIN_INTERVAL].flag, "Value domain of the analysis. Options:"+domainFlag)
	flag.StringVar(&(opts.token), "token", tokens[_TOKEN_LAST].flag, "Context sensitivity of the interprocedural analysis. Options:"+tokenFlag)
	flag.StringVar(&(opts.openCalls), "open-calls", openCalls[0].flag, "Handling of calls to functions that are not analyzed. Options:"+openCallFlag)
	flag.UintVar(&(opts.k), "k", 2, "Call string length for -token=kdepth")
	flag.IntVar(&(opts.widen), "widen", 5, "Number of joins at a widening point before widening is applied. Negative values disable widening.")
	flag.IntVar(&(opts.glb), "glb", 0, "Number of descending iterations with glb after the ascending fixpoint.")
	flag.IntVar(&(opts.maxDisjuncts), "max-disjuncts", 0, "Bound on the number of disjuncts kept by -domain=powerset (0 is unbounded).")
	flag.StringVar(&(opts.dump), "dump", "", "Directory where the analyzed control-flow graphs are dumped.")
	flag.StringVar(&(opts.outputFormat), "format", "dot", "output file format for -dump [dot | svg | png | jpg | ...]")
	flag.StringVar(&(opts.config), "config", "", "yaml file overriding the command line options")
	flag.StringVar(&(opts.logLevel), "log-level", "info", "Logging level [error | warn | info | debug | trace]")
	flag.BoolVar(&(opts.noColorize), "no-colorize", false, "Disable pretty printer colorization")
	flag.BoolVar(&(opts.verbose), "verbose", false, "enable verbose output")
	flag.BoolVar(&(opts.includeTests), "include-tests", false, "include main package test files in the analysis.")
	flag.BoolVar(&(opts.optimize), "optimize", false, "only store the states of hotspots and recompute the others on demand")
	flag.BoolVar(&(opts.inferTypes), "infer-types", true, "run the runtime type inference pass before the main analysis")

	// Set up logging
	log.SetFlags(log.Ltime | log.Lshortfile)
}

func ParseArgs() {
	// Calling flag.Parse in init messes up unit tests.
	// See https://stackoverflow.com/questions/60235896/flag-provided-but-not-defined-test-v
	flag.Parse()

	if path := opts.config; path != "" {
		conf, err := LoadConfig(path)
		if err != nil {
			log.Fatalln(err)
		}
		conf.apply(opts)
	}

	checkChoice := func(name, value string, choices []struct{ flag, explanation string }) {
		for _, choice := range choices {
			if choice.flag == value {
				return
			}
		}
		log.Fatalf("Value \"%s\" is not valid for -%s", value, name)
	}
	checkChoice("domain", opts.domain, domains)
	checkChoice("token", opts.token, tokens)
	checkChoice("open-calls", opts.openCalls, openCalls)

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		opts.noColorize = true
	}
	if opts.outputFormat != "dot" && opts.dump == "" {
		log.Println("-format has no effect without -dump")
	}
	color.NoColor = opts.noColorize
}
