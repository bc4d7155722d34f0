package interproc

import (
	"testing"

	"github.com/cs-au-dk/golisa/analysis/cfg"

	"github.com/google/go-cmp/cmp"
)

func members(gs ...*cfg.CFG) map[*cfg.CFG]bool {
	res := make(map[*cfg.CFG]bool)
	for _, g := range gs {
		res[g] = true
	}
	return res
}

func memberNames(r *Recursion[env]) (res []string) {
	for _, g := range []string{"even", "odd", "f", "g"} {
		for m := range r.Members {
			if m.Name() == g {
				res = append(res, g)
			}
		}
	}
	return
}

func TestPendingRecursions(t *testing.T) {
	even := countdown("even", "odd", n, 1, identity)
	odd := countdown("odd", "even", m, 0, identity)
	f := countdown("f", "f", n, 0, identity)
	g := countdown("g", "g", n, 0, identity)
	call := caller("even").Calls()[0]
	tok := NewLastCall()
	deeper := tok.Push(call)

	chain := func(head *cfg.CFG, tok Token, gs ...*cfg.CFG) *Recursion[env] {
		return &Recursion[env]{
			Invocation:      call,
			InvocationToken: tok,
			Entry:           emptyState(),
			Head:            head,
			Members:         members(gs...),
		}
	}

	var rs recursions[env]
	rs.add(chain(even, tok, even, odd))
	// Joins the first chain through its members.
	rs.add(chain(odd, tok, odd, even))
	// Joins the first chain through its head.
	rs.add(chain(even, tok, even, f))
	// Shares no head with the others.
	rs.add(chain(g, tok, g))
	// Entered under another token.
	rs.add(chain(even, deeper, even))

	recs := rs.take(call, tok, nil)
	if len(recs) != 2 {
		t.Fatalf("Expected two descriptors, got %v", recs)
	}
	if recs[0].Head != even {
		t.Errorf("Expected the merged chain to be headed by even, got %s", recs[0])
	}
	if diff := cmp.Diff([]string{"even", "odd", "f"}, memberNames(recs[0])); diff != "" {
		t.Errorf("Unexpected members of the merged chain (-want +got):\n%s", diff)
	}
	if recs[1].Head != g || len(recs[1].Members) != 1 {
		t.Errorf("Expected the chain of g to stay apart, got %s", recs[1])
	}

	if recs := rs.take(call, tok, nil); len(recs) != 0 {
		t.Errorf("Expected the chains to be taken once, got %v", recs)
	}
	if recs := rs.take(call, deeper, nil); len(recs) != 1 || recs[0].Head != even {
		t.Errorf("Expected the chain under %s to be kept, got %v", deeper, recs)
	}
}

func TestPendingRecursionsByHead(t *testing.T) {
	f := countdown("f", "f", n, 0, identity)
	g := countdown("g", "g", n, 0, identity)
	tok := NewLastCall()

	var rs recursions[env]
	for _, h := range []*cfg.CFG{f, g} {
		rs.add(&Recursion[env]{InvocationToken: tok, Entry: emptyState(), Head: h, Members: members(h)})
	}

	if recs := rs.take(nil, tok, g); len(recs) != 1 || recs[0].Head != g {
		t.Errorf("Expected only the chain headed by g, got %v", recs)
	}
	if recs := rs.take(nil, tok, f); len(recs) != 1 || recs[0].Head != f {
		t.Errorf("Expected the chain headed by f to be kept, got %v", recs)
	}
}
