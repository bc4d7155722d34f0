package pkgutil

import (
	"go/types"
	"sort"
	"strings"

	"golang.org/x/tools/go/ssa"
)

// TestFunctions lists the functions of the form TestX(*testing.T), sorted by
// their qualified name. There are none unless the packages were loaded with
// their tests.
func TestFunctions(prog *ssa.Program) (res []*ssa.Function) {
	testingPkg := prog.ImportedPackage("testing")
	if testingPkg == nil {
		// testing package is not loaded so no tests are defined.
		return
	}

	arg0Type := types.NewPointer(testingPkg.Type("T").Type())

	for _, pkg := range AllPackages(prog) {
		for name, member := range pkg.Members {
			if fun, ok := member.(*ssa.Function); ok && strings.HasPrefix(name, "Test") &&
				len(fun.Params) == 1 && types.Identical(arg0Type, fun.Params[0].Type()) {

				res = append(res, fun)
			}
		}
	}

	sort.Slice(res, func(i, j int) bool { return res[i].String() < res[j].String() })
	return
}
