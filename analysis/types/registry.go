package types

import (
	"golang.org/x/exp/slices"
)

// Registry interns the runtime types of one analysis run. It replaces any
// process-wide type cache: every run owns a registry and resets it first.
type Registry struct {
	types    map[string]Type
	subtypes map[string][]string
}

// NewRegistry creates a registry that only knows the basic types.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// Reset forgets every interned type except the basic ones.
func (r *Registry) Reset() {
	r.types = make(map[string]Type)
	r.subtypes = make(map[string][]string)
	for _, t := range []Type{Int, Bool, String, Untyped} {
		r.types[t.String()] = t
	}
}

// Intern registers the type, or returns the already registered type with
// the same name.
func (r *Registry) Intern(t Type) Type {
	if old, ok := r.types[t.String()]; ok {
		return old
	}
	r.types[t.String()] = t
	return t
}

// Lookup finds the type with the given name.
func (r *Registry) Lookup(name string) (Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// All lists every interned type, sorted by name.
func (r *Registry) All() []Type {
	res := make([]Type, 0, len(r.types))
	for _, t := range r.types {
		res = append(res, t)
	}
	slices.SortFunc(res, func(a, b Type) bool {
		return a.String() < b.String()
	})
	return res
}

// Size returns the number of interned types.
func (r *Registry) Size() int {
	return len(r.types)
}

// SetSubtypes records the types whose values may flow into an identifier
// of type t. The type itself is always a subtype of itself.
func (r *Registry) SetSubtypes(t Type, subs ...Type) {
	r.Intern(t)
	names := []string{t.String()}
	for _, s := range subs {
		r.Intern(s)
		if !slices.Contains(names, s.String()) {
			names = append(names, s.String())
		}
	}
	slices.Sort(names)
	r.subtypes[t.String()] = names
}

// Subtypes lists the registered subtypes of t, sorted by name. Types
// without recorded subtypes only have themselves.
func (r *Registry) Subtypes(t Type) []Type {
	names, ok := r.subtypes[t.String()]
	if !ok {
		return []Type{r.Intern(t)}
	}

	res := make([]Type, 0, len(names))
	for _, n := range names {
		res = append(res, r.types[n])
	}
	return res
}
