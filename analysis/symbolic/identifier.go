package symbolic

import (
	"strings"

	"github.com/cs-au-dk/golisa/analysis/types"
	"github.com/cs-au-dk/golisa/utils"
)

// Scope is the token pushed onto scoped identifiers when control enters a
// callee. It names the call site that pushed it.
type Scope string

const scopeSep = "\x00"

// Identifier is a symbolic variable. Identity is given by the name and by the
// chain of scopes the identifier was pushed behind. Weakness and the static
// type do not take part in equality.
type Identifier struct {
	Name string
	// Weak identifiers accumulate values instead of being overwritten.
	Weak bool
	// Scoped identifiers are local to a CFG and are hidden while a callee runs.
	Scoped bool
	Type   types.Type

	outer string
}

// Var creates a scoped local variable.
func Var(name string) Identifier {
	return Identifier{Name: name, Scoped: true, Type: types.Untyped}
}

// Global creates an identifier that is visible in every CFG.
func Global(name string) Identifier {
	return Identifier{Name: name, Type: types.Untyped}
}

// Typed returns a copy of the identifier with the given static type.
func (id Identifier) Typed(t types.Type) Identifier {
	id.Type = t
	return id
}

// Key is a comparable representation of the identity of an identifier.
type Key struct {
	name, outer string
}

// Key returns the identity of the identifier, usable as a Go map key.
func (id Identifier) Key() Key {
	return Key{id.Name, id.outer}
}

func (id Identifier) Hash() uint32 {
	return utils.HashCombine(utils.HashString(id.Name), utils.HashString(id.outer))
}

func (id Identifier) Equal(o Identifier) bool {
	return id.Name == o.Name && id.outer == o.outer
}

// Join merges two equal identifiers. The result is weak if either is.
func (id Identifier) Join(o Identifier) Identifier {
	id.Weak = id.Weak || o.Weak
	return id
}

// InScope checks that the identifier is not hidden behind any scope.
func (id Identifier) InScope() bool {
	return id.outer == ""
}

// PushScope hides a scoped identifier behind the scope.
func (id Identifier) PushScope(s Scope) Identifier {
	if !id.Scoped {
		return id
	}
	if id.outer == "" {
		id.outer = string(s)
	} else {
		id.outer = id.outer + scopeSep + string(s)
	}
	return id
}

// PopScope restores an identifier that was hidden behind the scope. Scoped
// identifiers that are in scope, or were hidden behind a different scope,
// do not survive. Identifiers that are not scoped are untouched.
func (id Identifier) PopScope(s Scope) (Identifier, bool) {
	if !id.Scoped {
		return id, true
	}

	i := strings.LastIndex(id.outer, scopeSep)
	last, rest := id.outer, ""
	if i >= 0 {
		last, rest = id.outer[i+len(scopeSep):], id.outer[:i]
	}
	if id.outer == "" || last != string(s) {
		return id, false
	}

	id.outer = rest
	return id, true
}

func (id Identifier) String() string {
	str := id.Name
	if id.outer != "" {
		scopes := strings.Split(id.outer, scopeSep)
		for i := len(scopes) - 1; i >= 0; i-- {
			str += "@" + scopes[i]
		}
	}
	if id.Weak {
		str += "*"
	}
	return str
}

func (Identifier) isExpression() {}
