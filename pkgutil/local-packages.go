package pkgutil

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/tools/go/ssa"
)

// LocalPkgs are the packages whose functions are lowered. It is populated
// by GetLocalPackages.
var LocalPkgs map[*ssa.Package]bool

// localDepth is the number of leading path segments a package must share
// with the main package to be local.
const localDepth = 3

func pkgQualifiedPath(pkg *ssa.Package) []string {
	path := strings.Split(strings.TrimSuffix(pkg.Pkg.Path(), ".test"), "/")

	if path[0] == "vendor" {
		path = path[1:]
	}

	return path
}

// GetLocalPackages finds the packages that share a path prefix with the
// main package.
func GetLocalPackages(mains []*ssa.Package, pkgs []*ssa.Package) error {
	if len(mains) == 0 {
		return errors.New("gather local packages error: no main packages found")
	}

	LocalPkgs = make(map[*ssa.Package]bool)
	mp := GetMain(mains)
	if mp == nil {
		// Only test mains were found.
		mp = mains[0]
	}

	mainpath := pkgQualifiedPath(mp)

	for _, p := range pkgs {
		pkgpath := pkgQualifiedPath(p)
		isLocal := true
		for i := 0; isLocal && i < localDepth && i < len(mainpath) && i < len(pkgpath); i++ {
			isLocal = mainpath[i] == pkgpath[i]
		}
		if isLocal {
			LocalPkgs[p] = true
		}
	}

	opts.OnVerbose(func() {
		fmt.Println("Main package:", mp.Pkg.Path())

		fmt.Println("Local packages:")
		for _, p := range pkgs {
			if LocalPkgs[p] {
				fmt.Println("-", p.Pkg.Path())
			}
		}
	})

	return nil
}

// IsLocal checks whether a value belongs to a local package. Values other
// than functions belong to the package of their enclosing function.
func IsLocal(val ssa.Value) bool {
	switch v := val.(type) {
	case nil:
		return false
	case *ssa.Function:
		return v != nil && v.Pkg != nil && LocalPkgs[v.Pkg]
	default:
		if fun := v.Parent(); fun != nil {
			return IsLocal(fun)
		}
	}
	return false
}
