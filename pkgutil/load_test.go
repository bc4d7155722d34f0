package pkgutil

import (
	"testing"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

func TestLoadWithModule(t *testing.T) {
	if pkgs, err := LoadPackages(LoadConfig{
		GoPath:     "../examples",
		ModulePath: "../examples/src/pkg-with-module",
	}, "unrelated-name/..."); err != nil {
		t.Fatal(err)
	} else if len(pkgs) != 2 {
		t.Errorf("Expected load result to contain 2 packages, got: %s", pkgs)
	}
}

func TestLoadFromGoPath(t *testing.T) {
	pkgs, err := LoadPackages(LoadConfig{GoPath: "../examples"}, "pkg-with-test/...")
	if err != nil {
		t.Fatal(err)
	} else if len(pkgs) != 2 {
		t.Errorf("Expected load result to contain 2 packages, got: %s", pkgs)
	}
}

func TestLoadWithTests(t *testing.T) {
	pkgs, err := LoadPackages(LoadConfig{GoPath: "../examples", IncludeTests: true}, "pkg-with-test")
	if err != nil {
		t.Fatal(err)
	}

	prog, _ := ssautil.AllPackages(pkgs, 0)
	prog.Build()

	var names []string
	for _, fun := range TestFunctions(prog) {
		names = append(names, fun.Name())
	}
	if len(names) != 2 || names[0] != "TestHi" || names[1] != "TestLocalFunc" {
		t.Errorf("Expected TestHi and TestLocalFunc, got %v", names)
	}
}

func TestLocalPackages(t *testing.T) {
	pkgs, err := LoadPackagesFromFiles(map[string]string{
		"main.go": `package main

import "strings"

func main() {
	println(helper(strings.Repeat("a", 3)))
}`,
		"helper.go": `package main

func helper(s string) int {
	return len(s)
}`,
	})
	if err != nil {
		t.Fatal(err)
	}

	prog, _ := ssautil.AllPackages(pkgs, 0)
	prog.Build()

	all := AllPackages(prog)
	if err := GetLocalPackages(ssautil.MainPackages(all), all); err != nil {
		t.Fatal(err)
	}

	main := GetMain(ssautil.MainPackages(all))
	if main == nil {
		t.Fatal("Expected a main package")
	}
	if helper := main.Func("helper"); !IsLocal(helper) {
		t.Errorf("Expected %v to be local", helper)
	}

	strs := prog.ImportedPackage("strings")
	if strs == nil {
		t.Fatal("Expected the strings package to be loaded")
	}
	if fun := strs.Func("Repeat"); IsLocal(fun) {
		t.Errorf("Expected %v not to be local", fun)
	}

	var nilFun *ssa.Function
	if IsLocal(nilFun) || IsLocal(nil) {
		t.Errorf("Expected nil values not to be local")
	}
}
