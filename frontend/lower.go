// Package frontend lowers Go programs, in SSA form, into analysis programs.
//
// Only the functions of the local packages that are reachable from the entry
// points in a class hierarchy call graph are lowered. Calls to anything else
// are open calls.
package frontend

import (
	"fmt"
	"go/token"
	"go/types"
	"sort"

	"github.com/cs-au-dk/golisa/analysis/cfg"
	"github.com/cs-au-dk/golisa/analysis/program"
	"github.com/cs-au-dk/golisa/pkgutil"
	"github.com/cs-au-dk/golisa/utils"
	"github.com/cs-au-dk/golisa/utils/graph"

	"github.com/pkg/errors"
	"golang.org/x/tools/go/callgraph/cha"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// ErrNoEntry is the cause of failures to find the entry function.
var ErrNoEntry = errors.New("no entry function")

// AllExported selects every exported function of the main package, and
// main itself, as entry points.
const AllExported = "."

type lowering struct {
	prog *ssa.Program
	fset *token.FileSet
	main *types.Package

	out   *program.Program
	units map[string]*program.Unit

	// The CFG of every lowered function. Bodies are filled in once every
	// function has its CFG.
	cfgs map[*ssa.Function]*cfg.CFG
	// Entry points are added to the program last.
	entries map[*ssa.Function]bool

	log *utils.LogGroup
}

// Lower builds the SSA form of the packages and lowers it. The entry is the
// name of a function of the main package, defaulting to main, or
// AllExported. Test functions of the local packages are also entry points
// when the packages were loaded with their tests.
func Lower(pkgs []*packages.Package, entry string) (*program.Program, error) {
	prog, _ := ssautil.AllPackages(pkgs, 0)
	prog.Build()

	all := pkgutil.AllPackages(prog)
	mains := ssautil.MainPackages(all)
	if err := pkgutil.GetLocalPackages(mains, all); err != nil {
		return nil, err
	}

	mainPkg := pkgutil.GetMain(mains)
	if mainPkg == nil {
		mainPkg = mains[0]
	}

	l := &lowering{
		prog:    prog,
		fset:    prog.Fset,
		main:    mainPkg.Pkg,
		out:     program.New(),
		units:   make(map[string]*program.Unit),
		cfgs:    make(map[*ssa.Function]*cfg.CFG),
		entries: make(map[*ssa.Function]bool),
		log:     utils.NewLogGroup(utils.Opts().LogLevel()),
	}

	entries, err := l.entryPoints(mainPkg, entry)
	if err != nil {
		return nil, err
	}
	for _, fun := range entries {
		l.entries[fun] = true
	}

	l.lowerUnits(all)

	cg := cha.CallGraph(prog)
	reachable := graph.FromCallGraph(cg).Reachable(entries...)
	for _, fun := range reachable {
		if l.lowerable(fun) {
			l.declare(fun)
		}
	}

	for _, fun := range reachable {
		if g, ok := l.cfgs[fun]; ok {
			l.lowerBody(fun, g)
		}
	}

	for _, fun := range entries {
		g, ok := l.cfgs[fun]
		if !ok {
			return nil, errors.Wrapf(ErrNoEntry, "%s has no body", fun)
		}
		l.out.AddEntryPoint(g)
	}

	l.log.Infof("Lowered %d of %d reachable functions", len(l.cfgs), len(reachable))
	return l.out, nil
}

func (l *lowering) entryPoints(mainPkg *ssa.Package, entry string) (res []*ssa.Function, err error) {
	if entry == "" {
		entry = "main"
	}

	switch entry {
	default:
		fun := mainPkg.Func(entry)
		if fun == nil {
			return nil, errors.Wrapf(ErrNoEntry, "%s in package %s", entry, mainPkg.Pkg.Path())
		}
		res = append(res, fun)
	case AllExported:
		for name, member := range mainPkg.Members {
			if fun, ok := member.(*ssa.Function); ok && (name == "main" || token.IsExported(name)) {
				res = append(res, fun)
			}
		}
		if len(res) == 0 {
			return nil, errors.Wrapf(ErrNoEntry, "no exported functions in package %s", mainPkg.Pkg.Path())
		}
	}

	for _, fun := range pkgutil.TestFunctions(l.prog) {
		if pkgutil.IsLocal(fun) {
			res = append(res, fun)
		}
	}

	sort.Slice(res, func(i, j int) bool { return res[i].String() < res[j].String() })
	return res, nil
}

// lowerable functions have a body, are declared in a local package, and do
// not capture variables.
func (l *lowering) lowerable(fun *ssa.Function) bool {
	return fun != nil &&
		fun.Blocks != nil &&
		fun.Synthetic == "" &&
		len(fun.FreeVars) == 0 &&
		pkgutil.IsLocal(fun)
}

// lowerUnits creates a unit for every named type of the local packages.
// Interfaces are abstract units with a member per method. Concrete types
// extend the local interfaces they implement.
func (l *lowering) lowerUnits(pkgs []*ssa.Package) {
	var named []*types.Named
	for _, pkg := range pkgs {
		if !pkgutil.LocalPkgs[pkg] {
			continue
		}
		for _, member := range pkg.Members {
			if t, ok := member.(*ssa.Type); ok {
				if n, ok := t.Type().(*types.Named); ok {
					named = append(named, n)
				}
			}
		}
	}
	sort.Slice(named, func(i, j int) bool { return l.unitName(named[i]) < l.unitName(named[j]) })

	var ifaces []*types.Named
	for _, n := range named {
		if _, ok := n.Underlying().(*types.Interface); ok {
			ifaces = append(ifaces, n)
		}
	}

	for _, n := range named {
		name := l.unitName(n)

		if iface, ok := n.Underlying().(*types.Interface); ok {
			u := program.NewUnit(name, true)
			for i := 0; i < iface.NumMethods(); i++ {
				m := iface.Method(i)
				sig := m.Type().(*types.Signature)
				desc := cfg.Descriptor{
					Name:     name + "." + m.Name(),
					Void:     sig.Results().Len() == 0,
					Location: l.position(m.Pos()),
					Abstract: true,
				}
				desc.Formals = append(desc.Formals, l.param("recv", n))
				for j := 0; j < sig.Params().Len(); j++ {
					p := sig.Params().At(j)
					pname := p.Name()
					if pname == "" || pname == "_" {
						pname = fmt.Sprintf("p%d", j)
					}
					desc.Formals = append(desc.Formals, l.param(pname, p.Type()))
				}
				u.AddMember(cfg.New(desc))
			}
			l.units[name] = u
			l.out.AddUnit(u)
			continue
		}

		var supers []string
		for _, i := range ifaces {
			iface := i.Underlying().(*types.Interface)
			if iface.NumMethods() > 0 && (types.Implements(n, iface) || types.Implements(types.NewPointer(n), iface)) {
				supers = append(supers, l.unitName(i))
			}
		}
		u := program.NewUnit(name, false, supers...)
		l.units[name] = u
		l.out.AddUnit(u)
	}
}

// declare creates the CFG of a function, with its signature but no body.
// Methods become members of the unit of their receiver.
func (l *lowering) declare(fun *ssa.Function) {
	desc := cfg.Descriptor{
		Name:     l.funName(fun),
		Void:     fun.Signature.Results().Len() == 0,
		Location: l.position(fun.Pos()),
	}
	for _, p := range fun.Params {
		desc.Formals = append(desc.Formals, l.ident(p))
	}

	g := cfg.New(desc)
	l.cfgs[fun] = g

	if recv := fun.Signature.Recv(); recv != nil {
		if u, ok := l.units[l.unitName(recv.Type())]; ok {
			u.AddMember(g)
			return
		}
	}
	if !l.entries[fun] {
		l.out.AddCFG(g)
	}
}

// unitName is the name of the unit of a named type, or of a pointer to one.
// Types of the main package are not qualified.
func (l *lowering) unitName(t types.Type) string {
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	n, ok := t.(*types.Named)
	if !ok {
		return ""
	}
	return l.qualify(n.Obj().Pkg(), n.Obj().Name())
}

func (l *lowering) funName(fun *ssa.Function) string {
	if recv := fun.Signature.Recv(); recv != nil {
		return l.unitName(recv.Type()) + "." + fun.Name()
	}
	if fun.Pkg == nil {
		return fun.Name()
	}
	return l.qualify(fun.Pkg.Pkg, fun.Name())
}

func (l *lowering) qualify(pkg *types.Package, name string) string {
	if pkg == nil || pkg == l.main {
		return name
	}
	return pkg.Path() + "." + name
}

func (l *lowering) position(pos token.Pos) string {
	if !pos.IsValid() {
		return ""
	}
	return l.fset.Position(pos).String()
}

// hasImplementation checks whether some unit extending the interface unit
// defines the method.
func (l *lowering) hasImplementation(iface, method string) bool {
	for _, u := range l.units {
		for _, s := range u.Supers {
			if s != iface {
				continue
			}
			if _, ok := u.Member(method); ok {
				return true
			}
		}
	}
	return false
}
