package pkgutil

import (
	"sort"
	"strings"

	"github.com/cs-au-dk/golisa/utils"

	"golang.org/x/tools/go/ssa"
)

// opts is a shorthand for the CLI option API.
var opts = utils.Opts()

// GetMain determines what is the main package as follows:
// 1. Skip the packages suffixed with .test
// 2. Take the package with the most members
func GetMain(mains []*ssa.Package) (main *ssa.Package) {
	for _, mp := range mains {
		if strings.HasSuffix(mp.String(), ".test") {
			continue
		}
		if main == nil || len(main.Members) < len(mp.Members) {
			main = mp
		}
	}
	return
}

// AllPackages lists the packages of the program that are not synthetic
// test mains. When a package has several versions, as happens when tests
// are loaded, the one with the most members is kept. The result is sorted
// by path.
func AllPackages(prog *ssa.Program) []*ssa.Package {
	mp := make(map[string]*ssa.Package)

	for _, pkg := range prog.AllPackages() {
		if strings.HasSuffix(pkg.String(), ".test") {
			continue
		}

		opkg, ok := mp[pkg.String()]
		if !ok || len(pkg.Members) > len(opkg.Members) {
			mp[pkg.String()] = pkg
		}
	}

	res := make([]*ssa.Package, 0, len(mp))
	for _, pkg := range mp {
		res = append(res, pkg)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Pkg.Path() < res[j].Pkg.Path() })

	return res
}
