package pkgutil

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/tools/go/packages"
)

// LoadConfig is a structure according to which Go pacakge loading is configured.
// It loads a package in module-aware mode, or GOPATH mode based on how the .GoPath
// and .ModulePath fields are set. If IncludeTests is true, package loading will also
// expose test functions.
type LoadConfig struct {
	GoPath, ModulePath string
	IncludeTests       bool
}

// loadMode avoids deprecation warnings from using packages.LoadAllSyntax.
// It sets all packages.Need* options.
const loadMode packages.LoadMode = packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
	packages.NeedImports | packages.NeedTypes | packages.NeedTypesSizes | packages.NeedSyntax |
	packages.NeedTypesInfo | packages.NeedDeps

var (
	// moduleRegex is a regular expression according to which a go.mod file can be parsed.
	moduleRegex = regexp.MustCompile(`(?m)^module\s+(.*)$`)

	// cwd is the working directory of the process at startup.
	cwd = func() string {
		if dir, err := os.Getwd(); err == nil {
			return dir
		} else {
			panic(err)
		}
	}()
)

// relativizingParseFile is a ParseFile implementation that relativizes
// filenames according to CWD. This is an easy way to globally make paths
// system agnostic, which is useful for golden tests involving file paths.
// The alternative is to manually relativize paths at every location we
// print one, but that is made difficult by us relying on built-in
// implementations of String methods, which we would have to circumvent.
func relativizingParseFile(fset *token.FileSet, filename string, src []byte) (*ast.File, error) {
	if rel, err := filepath.Rel(cwd, filename); err == nil {
		filename = rel
	}
	const mode = parser.AllErrors | parser.ParseComments
	return parser.ParseFile(fset, filename, src, mode)
}

// LoadPackages loads the AST of the specified packaged according to the provided LoadConfig.
func LoadPackages(cfg LoadConfig, packageName string) ([]*packages.Package, error) {
	gopath, err := filepath.Abs(cfg.GoPath)
	if err != nil {
		return nil, err
	}

	config := &packages.Config{
		Mode:      loadMode,
		Tests:     cfg.IncludeTests,
		ParseFile: relativizingParseFile,
	}

	if modulePath := cfg.ModulePath; modulePath != "" {
		// Load packages according to the new "module-aware" mode (GO111MODULE=on).
		pkgPath, err := filepath.Abs(modulePath)
		if err != nil {
			return nil, err
		}

		contents, err := os.ReadFile(filepath.Join(pkgPath, "go.mod"))
		if err != nil {
			return nil, errors.Wrapf(err, "unable to load the go.mod file at %s", modulePath)
		}

		if m := moduleRegex.FindSubmatch(contents); len(m) <= 1 {
			return nil, errors.Errorf("unable to locate the module name in %s", filepath.Join(modulePath, "go.mod"))
		}

		config.Dir = pkgPath
		config.Env = append(os.Environ(), "GOPATH="+gopath, "GO111MODULE=on")
	} else {
		// Load packages according to the legacy "module-unaware" mode (GO111MODULE=off).
		config.Env = append(os.Environ(), "GOPATH="+gopath, "GO111MODULE=off")
	}

	return loadPackagesWithConfig(config, packageName)
}

// fakePackage is the directory of the package loaded from source strings.
const fakePackage = "/fake/testpackage"

// LoadPackagesFromSource loads a main package made of a single file given as
// a string. It is mainly useful for testing.
func LoadPackagesFromSource(source string) ([]*packages.Package, error) {
	return LoadPackagesFromFiles(map[string]string{"main.go": source})
}

// LoadPackagesFromFiles loads a package made of the given files, keyed by
// their base name.
func LoadPackagesFromFiles(files map[string]string) ([]*packages.Package, error) {
	if len(files) == 0 {
		return nil, errors.New("no source files")
	}

	// We use the Overlay mechanism to allow the tool to load non-existent files.
	overlay := make(map[string][]byte, len(files))
	paths := make([]string, 0, len(files))
	for name, src := range files {
		path := filepath.Join(fakePackage, name)
		overlay[path] = []byte(src)
		paths = append(paths, path)
	}
	sort.Strings(paths)

	config := &packages.Config{
		Mode:    loadMode,
		Tests:   false,
		Env:     append(os.Environ(), "GO111MODULE=off", "GOPATH=/fake"),
		Overlay: overlay,
	}

	return loadPackagesWithConfig(config, paths...)
}

// loadPackagesWithConfig wraps around packages.Load, that loads the packages specified
// by the queries according to the given configuration, and performs additional filtering when
// loading includes test packages.
func loadPackagesWithConfig(config *packages.Config, queries ...string) ([]*packages.Package, error) {
	query := strings.Join(queries, " ")
	pkgs, err := packages.Load(config, queries...)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", query)
	} else if n := packages.PrintErrors(pkgs); n > 0 {
		return nil, errors.Errorf("%d errors encountered while loading %s", n, query)
	}
	if config.Tests {
		// Deduplicate packages that have test functions (such packages are
		// returned twice, once with no tests and once with tests. We discard
		// the package without tests.) This prevents duplicate versions of the
		// same types, functions, ssa values, etc., which can be very confusing
		// when debugging.
		packageIDs := map[string]bool{}
		for _, pkg := range pkgs {
			packageIDs[pkg.ID] = true
		}

		filteredPkgs := []*packages.Package{}
		for _, pkg := range pkgs {
			if !packageIDs[fmt.Sprintf("%s [%s.test]", pkg.ID, pkg.ID)] {
				filteredPkgs = append(filteredPkgs, pkg)
			}
		}
		pkgs = filteredPkgs
	}
	return pkgs, nil
}
