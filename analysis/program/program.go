package program

import (
	"sort"
	"strings"

	"github.com/cs-au-dk/golisa/analysis/cfg"
	"github.com/cs-au-dk/golisa/analysis/types"

	"github.com/pkg/errors"
)

// ErrInvalidProgram is the cause of every finalization failure.
var ErrInvalidProgram = errors.New("invalid program")

// Unit groups the CFGs of a named type. Units form a hierarchy through
// their supers.
type Unit struct {
	Name     string
	Supers   []string
	Abstract bool

	members   map[string]*cfg.CFG
	instances []*Unit
}

func NewUnit(name string, abstract bool, supers ...string) *Unit {
	return &Unit{
		Name:     name,
		Supers:   supers,
		Abstract: abstract,
		members:  make(map[string]*cfg.CFG),
	}
}

// AddMember adds a CFG to the unit. Its method name is the suffix of its
// qualified name.
func (u *Unit) AddMember(g *cfg.CFG) {
	g.Desc.Unit = u.Name
	u.members[strings.TrimPrefix(g.Name(), u.Name+".")] = g
}

// Member finds a method of the unit.
func (u *Unit) Member(name string) (*cfg.CFG, bool) {
	g, ok := u.members[name]
	return g, ok
}

// Members lists the CFGs of the unit, sorted by name.
func (u *Unit) Members() []*cfg.CFG {
	res := make([]*cfg.CFG, 0, len(u.members))
	for _, g := range u.members {
		res = append(res, g)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name() < res[j].Name() })
	return res
}

// Instances lists the units inheriting from u, u included, sorted by name.
// It is only available after finalization.
func (u *Unit) Instances() []*Unit {
	return u.instances
}

// Instantiable units may have concrete values.
func (u *Unit) Instantiable() bool {
	return !u.Abstract
}

func (u *Unit) Type() types.Type {
	return types.Unit(u.Name)
}

func (u *Unit) String() string { return u.Name }

// Program is the input of the analysis: free CFGs, units with their member
// CFGs, and the entry points.
type Program struct {
	// Types is the registry of the runtime types of the program. It is reset
	// when the program is finalized.
	Types *types.Registry

	units   map[string]*Unit
	cfgs    []*cfg.CFG
	entries []*cfg.CFG

	all       []*cfg.CFG
	byName    map[string]*cfg.CFG
	finalized bool
}

func New() *Program {
	return &Program{
		Types: types.NewRegistry(),
		units: make(map[string]*Unit),
	}
}

func (p *Program) AddUnit(u *Unit) {
	p.units[u.Name] = u
	p.finalized = false
}

// AddCFG adds a CFG that is not a member of any unit.
func (p *Program) AddCFG(g *cfg.CFG) {
	p.cfgs = append(p.cfgs, g)
	p.finalized = false
}

// AddEntryPoint adds a CFG and marks it as an entry point.
func (p *Program) AddEntryPoint(g *cfg.CFG) {
	if g.Desc.Unit == "" {
		p.AddCFG(g)
	}
	p.entries = append(p.entries, g)
}

func (p *Program) EntryPoints() []*cfg.CFG { return p.entries }

// Unit finds a unit by name.
func (p *Program) Unit(name string) (*Unit, bool) {
	u, ok := p.units[name]
	return u, ok
}

// Units lists the units sorted by name.
func (p *Program) Units() []*Unit {
	res := make([]*Unit, 0, len(p.units))
	for _, u := range p.units {
		res = append(res, u)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}

// CFGs lists every CFG of the program, free ones first, then the members of
// the units. It is only available after finalization.
func (p *Program) CFGs() []*cfg.CFG { return p.all }

// CFG finds a CFG by qualified name. It is only available after
// finalization.
func (p *Program) CFG(name string) (*cfg.CFG, bool) {
	g, ok := p.byName[name]
	return g, ok
}

func (p *Program) Finalized() bool { return p.finalized }

// ValidateAndFinalize resolves the unit hierarchy and indexes the CFGs. The
// type registry is reset and populated with the unit types, where the
// subtypes of a unit are its instances.
func (p *Program) ValidateAndFinalize() error {
	p.Types.Reset()

	units := p.Units()
	for _, u := range units {
		if err := p.checkHierarchy(u, map[string]bool{}); err != nil {
			return err
		}
	}

	for _, u := range units {
		u.instances = nil
	}
	for _, u := range units {
		for _, anc := range p.ancestors(u) {
			anc.instances = append(anc.instances, u)
		}
	}
	for _, u := range units {
		sort.Slice(u.instances, func(i, j int) bool { return u.instances[i].Name < u.instances[j].Name })

		subs := make([]types.Type, 0, len(u.instances))
		for _, inst := range u.instances {
			subs = append(subs, p.Types.Intern(inst.Type()))
		}
		p.Types.SetSubtypes(p.Types.Intern(u.Type()), subs...)
	}

	p.all = nil
	p.byName = make(map[string]*cfg.CFG)
	add := func(g *cfg.CFG) error {
		if _, dup := p.byName[g.Name()]; dup {
			return errors.Wrapf(ErrInvalidProgram, "duplicate CFG %s", g.Name())
		}
		p.byName[g.Name()] = g
		p.all = append(p.all, g)
		return nil
	}

	for _, g := range p.cfgs {
		if err := add(g); err != nil {
			return err
		}
	}
	for _, u := range units {
		for _, g := range u.Members() {
			if g.Desc.Abstract && u.Instantiable() {
				return errors.Wrapf(ErrInvalidProgram, "abstract CFG %s in instantiable unit %s", g.Name(), u.Name)
			}
			if err := add(g); err != nil {
				return err
			}
		}
	}

	for _, g := range p.entries {
		if p.byName[g.Name()] != g {
			return errors.Wrapf(ErrInvalidProgram, "entry point %s is not part of the program", g.Name())
		}
	}

	p.finalized = true
	return nil
}

// checkHierarchy visits the supers of u depth-first, failing if a unit is
// reached again along the current path.
func (p *Program) checkHierarchy(u *Unit, path map[string]bool) error {
	if path[u.Name] {
		return errors.Wrapf(ErrInvalidProgram, "loop in the hierarchy of unit %s", u.Name)
	}
	path[u.Name] = true
	defer delete(path, u.Name)

	for _, name := range u.Supers {
		super, ok := p.units[name]
		if !ok {
			return errors.Wrapf(ErrInvalidProgram, "unit %s extends unknown unit %s", u.Name, name)
		}
		if err := p.checkHierarchy(super, path); err != nil {
			return err
		}
	}
	return nil
}

// ancestors lists u and every unit it transitively inherits from.
func (p *Program) ancestors(u *Unit) []*Unit {
	seen := map[string]bool{u.Name: true}
	res := []*Unit{u}
	for i := 0; i < len(res); i++ {
		for _, name := range res[i].Supers {
			if !seen[name] {
				seen[name] = true
				res = append(res, p.units[name])
			}
		}
	}
	return res
}
