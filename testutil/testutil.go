// Package testutil loads and lowers the example programs used by tests.
package testutil

import (
	"bytes"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/cs-au-dk/golisa/analysis/program"
	"github.com/cs-au-dk/golisa/frontend"
	"github.com/cs-au-dk/golisa/pkgutil"

	"golang.org/x/tools/go/packages"
)

// LoadExampleAsPackages loads an example package to be used for a test.
func LoadExampleAsPackages(t *testing.T, pathToRoot string, pkg string) []*packages.Package {
	// Invoking the package tools is slow because it uses `go list` under the hood.
	// If the package doesn't have imports we can take a fast path by loading the
	// code manually and parsing it ourselves.
	srcDir := filepath.Join(pathToRoot, "examples", "src", pkg)
	if entries, err := os.ReadDir(srcDir); err == nil && len(entries) == 1 {
		if entry := entries[0]; !entry.IsDir() && entry.Name() == "main.go" {
			if content, err := os.ReadFile(filepath.Join(srcDir, "main.go")); err == nil &&
				!bytes.Contains(content, []byte("import")) {
				return LoadSourceAsPackages(t, pkg, string(content))
			}
		}
	}

	pkgs, err := pkgutil.LoadPackages(pkgutil.LoadConfig{GoPath: filepath.Join(pathToRoot, "examples")}, pkg)
	if err != nil {
		t.Fatal(err)
	}
	return pkgs
}

// LoadSourceAsPackages type checks a main package made of one file.
func LoadSourceAsPackages(t *testing.T, importPath string, content string) []*packages.Package {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "main.go", content, parser.ParseComments)
	if err != nil {
		t.Fatal(err)
	}

	files := []*ast.File{file}

	// First argument is package path, the second is name.
	pkg := types.NewPackage(importPath, "main")
	info := &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Implicits:  make(map[ast.Node]types.Object),
		Instances:  make(map[*ast.Ident]types.Instance),
		Scopes:     make(map[ast.Node]*types.Scope),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
	}
	if err := types.NewChecker(
		&types.Config{Importer: importer.Default()},
		fset, pkg, info).Files(files); err != nil {
		t.Fatal(err)
	}

	// If the package does not have imports we can take a fast path.
	if len(pkg.Imports()) == 0 {
		return []*packages.Package{{
			ID:        "pkg-loaded-from-src",
			Name:      pkg.Name(),
			PkgPath:   pkg.Path(),
			Types:     pkg,
			Fset:      fset,
			Syntax:    files,
			TypesInfo: info,
		}}
	}

	// Otherwise we need to invoke the packages tool that can import code for
	// dependencies.
	pkgs, err := pkgutil.LoadPackagesFromSource(content)
	if err != nil {
		t.Fatal(err)
	}
	return pkgs
}

// LowerExample loads and lowers an example package.
func LowerExample(t *testing.T, pathToRoot, pkg, entry string) (*program.Program, []*packages.Package) {
	pkgs := LoadExampleAsPackages(t, pathToRoot, pkg)
	prog, err := frontend.Lower(pkgs, entry)
	if err != nil {
		t.Fatal(err)
	}
	return prog, pkgs
}

// LowerSource loads and lowers a main package made of one file.
func LowerSource(t *testing.T, content, entry string) *program.Program {
	prog, err := frontend.Lower(LoadSourceAsPackages(t, "main", content), entry)
	if err != nil {
		t.Fatal(err)
	}
	return prog
}

// ListAnnotatedExamples lists the example packages with a main.go holding
// at least one note.
func ListAnnotatedExamples(t *testing.T, pathToRoot string) (res []string) {
	dir := filepath.Join(pathToRoot, "examples", "src")
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, entry.Name(), "main.go"))
		if err == nil && bytes.Contains(content, []byte("//@")) {
			res = append(res, entry.Name())
		}
	}
	sort.Strings(res)
	return
}
