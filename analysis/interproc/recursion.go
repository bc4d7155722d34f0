package interproc

import (
	"sort"
	"strings"

	"github.com/cs-au-dk/golisa/analysis/absint"
	"github.com/cs-au-dk/golisa/analysis/cfg"

	uf "github.com/spakin/disjoint"
)

// Recursion describes a recursive chain found on the call stack: the head
// is the CFG called again while still active, and the members are the CFGs
// the chain goes through.
type Recursion[A absint.State[A]] struct {
	// Invocation is the call that entered the head from outside the chain.
	// It is nil when the head is an entry point.
	Invocation      *cfg.Node
	InvocationToken Token
	// Entry is the pre-state of the invocation, or the entry state of the
	// head when it is an entry point.
	Entry absint.AnalysisState[A]

	Head    *cfg.CFG
	Members map[*cfg.CFG]bool
}

func (r *Recursion[A]) invokedBy(call *cfg.Node, tok Token) bool {
	return r.Invocation == call && r.InvocationToken.Equal(tok)
}

// joins checks whether the chains are solved together: they are entered by
// the same invocation, and either share their head or each goes through the
// head of the other.
func (r *Recursion[A]) joins(o *Recursion[A]) bool {
	if !r.invokedBy(o.Invocation, o.InvocationToken) {
		return false
	}
	return r.Head == o.Head || (r.Members[o.Head] && o.Members[r.Head])
}

func (r *Recursion[A]) String() string {
	members := make([]string, 0, len(r.Members))
	for g := range r.Members {
		members = append(members, g.Name())
	}
	sort.Strings(members)

	loc := "entry"
	if r.Invocation != nil {
		loc = r.Invocation.Location()
	}
	return r.Head.Name() + " at " + loc + " under " + r.InvocationToken.String() +
		" {" + strings.Join(members, ", ") + "}"
}

// recursions holds the chains found during a pass that are waiting for
// their invocation to return. Chains that join are kept in one set.
type recursions[A absint.State[A]] struct {
	elems []*uf.Element
}

func (rs *recursions[A]) add(r *Recursion[A]) {
	el := uf.NewElement()
	el.Data = r
	for _, other := range rs.elems {
		if other.Data.(*Recursion[A]).joins(r) {
			uf.Union(other, el)
		}
	}
	rs.elems = append(rs.elems, el)
}

// take removes the chains invoked by the call under the token, and returns
// one descriptor per set. The descriptor takes the head of the chain found
// first, and the members of the whole set.
func (rs *recursions[A]) take(call *cfg.Node, tok Token, head *cfg.CFG) (res []*Recursion[A]) {
	merged := make(map[*uf.Element]*Recursion[A])
	kept := rs.elems[:0]
	for _, el := range rs.elems {
		r := el.Data.(*Recursion[A])
		if !r.invokedBy(call, tok) || (head != nil && r.Head != head) {
			kept = append(kept, el)
			continue
		}

		root := el.Find()
		m, ok := merged[root]
		if !ok {
			m = &Recursion[A]{
				Invocation:      r.Invocation,
				InvocationToken: r.InvocationToken,
				Entry:           r.Entry,
				Head:            r.Head,
				Members:         make(map[*cfg.CFG]bool),
			}
			merged[root] = m
			res = append(res, m)
		}
		for g := range r.Members {
			m.Members[g] = true
		}
	}
	rs.elems = kept
	return
}

func (rs *recursions[A]) reset() {
	rs.elems = nil
}
