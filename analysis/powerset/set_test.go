package powerset

import (
	"testing"

	L "github.com/cs-au-dk/golisa/analysis/lattice"
	"github.com/fatih/color"
	"github.com/pkg/errors"
)

func init() {
	color.NoColor = true
}

type itvs = Set[L.Interval]

var (
	i   = L.FiniteInterval
	one = L.Singleton
)

func mk(t *testing.T, strategy *Strategy[L.Interval], elems ...L.Interval) itvs {
	t.Helper()
	s, err := Of(L.IntervalBot(), strategy, elems...)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestCanonicalForm(t *testing.T) {
	tests := []struct {
		elems    []L.Interval
		expected string
	}{
		{[]L.Interval{one(0), one(1)}, "{[0, 0], [1, 1]}"},
		{[]L.Interval{i(0, 2), i(1, 3)}, "{[0, 3]}"},
		{[]L.Interval{one(0), i(0, 1)}, "{[0, 1]}"},
		{[]L.Interval{one(5), one(5), L.IntervalBot()}, "{[5, 5]}"},
		{[]L.Interval{i(0, 2), i(1, 3), one(7)}, "{[0, 3], [7, 7]}"},
		{[]L.Interval{i(0, 2), i(2, 4), i(4, 6)}, "{[0, 6]}"},
		{[]L.Interval{L.IntervalBot()}, "⊥"},
	}

	for _, test := range tests {
		s := mk(t, nil, test.elems...)
		if s.String() != test.expected {
			t.Errorf("Canonical form of %v is %s, expected %s", test.elems, s, test.expected)
		}

		again := mk(t, nil, s.Elements()...)
		if !again.Equal(s) {
			t.Errorf("Canonical form of %s is not idempotent: %s", s, again)
		}

		elems := s.Elements()
		for a, e1 := range elems {
			for b, e2 := range elems {
				if a == b {
					continue
				}
				if ok, _ := e1.Leq(e2); ok {
					t.Errorf("%s is dominated by %s in %s", e1, e2, s)
				}
				if m, _ := e1.Meet(e2); !m.IsBot() {
					t.Errorf("%s overlaps %s in %s", e1, e2, s)
				}
			}
		}
	}
}

func TestSetJoin(t *testing.T) {
	tests := []struct {
		a, b     []L.Interval
		expected string
	}{
		{[]L.Interval{one(0)}, []L.Interval{one(1)}, "{[0, 0], [1, 1]}"},
		{[]L.Interval{i(0, 2)}, []L.Interval{i(1, 3)}, "{[0, 3]}"},
		{[]L.Interval{one(0)}, []L.Interval{i(0, 1)}, "{[0, 1]}"},
		{[]L.Interval{one(0), one(4)}, nil, "{[0, 0], [4, 4]}"},
		{[]L.Interval{one(0)}, []L.Interval{L.IntervalTop()}, "{[-∞, ∞]}"},
	}

	for _, test := range tests {
		a, b := mk(t, nil, test.a...), mk(t, nil, test.b...)
		res, err := a.Join(b)
		if err != nil {
			t.Fatal(err)
		}
		if res.String() != test.expected {
			t.Errorf("%s ⊔ %s = %s, expected %s", a, b, res, test.expected)
		}

		for _, op := range []itvs{a, b} {
			if ok, _ := op.Leq(res); !ok {
				t.Errorf("%s is not below %s ⊔ %s = %s", op, a, b, res)
			}
		}
	}
}

func TestSetMeetAndLeq(t *testing.T) {
	a := mk(t, nil, i(0, 3), i(6, 9))
	b := mk(t, nil, i(2, 7))

	res, err := a.Meet(b)
	if err != nil {
		t.Fatal(err)
	}
	if res.String() != "{[2, 3], [6, 7]}" {
		t.Errorf("%s ⊓ %s = %s, expected {[2, 3], [6, 7]}", a, b, res)
	}

	if ok, _ := res.Leq(a); !ok {
		t.Errorf("Expected %s ⊑ %s", res, a)
	}
	if ok, _ := a.Leq(b); ok {
		t.Errorf("Expected %s ⋢ %s", a, b)
	}

	disjoint, err := mk(t, nil, one(0)).Meet(mk(t, nil, one(1)))
	if err != nil {
		t.Fatal(err)
	}
	if !disjoint.IsBot() {
		t.Errorf("Expected the meet of disjoint sets to be ⊥, got %s", disjoint)
	}
}

func TestEgliMilnerOrder(t *testing.T) {
	tests := []struct {
		a, b     []L.Interval
		expected bool
	}{
		{[]L.Interval{one(0)}, []L.Interval{i(0, 1)}, true},
		{[]L.Interval{i(0, 1)}, []L.Interval{one(0)}, false},
		{[]L.Interval{one(0)}, []L.Interval{one(0), one(2)}, false},
		{[]L.Interval{one(0), one(2)}, []L.Interval{i(0, 1), one(2)}, true},
		{nil, []L.Interval{one(3)}, true},
	}

	for _, test := range tests {
		a, b := mk(t, nil, test.a...), mk(t, nil, test.b...)
		res, err := a.LeqEM(b)
		if err != nil {
			t.Fatal(err)
		}
		if res != test.expected {
			t.Errorf("%s ⊑EM %s is %v, expected %v", a, b, res, test.expected)
		}
	}
}

func TestSetWiden(t *testing.T) {
	tests := []struct {
		a, b     []L.Interval
		expected string
	}{
		// Not ordered in the Egli-Milner order, so the operands are connected.
		{[]L.Interval{one(0)}, []L.Interval{one(0), one(2)}, "{[0, ∞]}"},
		{[]L.Interval{one(0)}, []L.Interval{one(0), one(1)}, "{[0, ∞]}"},
		{[]L.Interval{one(0)}, []L.Interval{i(0, 1)}, "{[0, ∞]}"},
		{[]L.Interval{one(-5), one(0)}, []L.Interval{one(-5), i(0, 1)}, "{[-5, -5], [0, ∞]}"},
		{[]L.Interval{one(3)}, []L.Interval{one(3)}, "{[3, 3]}"},
	}

	for _, test := range tests {
		a, b := mk(t, nil, test.a...), mk(t, nil, test.b...)
		res, err := a.Widen(b)
		if err != nil {
			t.Fatal(err)
		}
		if res.String() != test.expected {
			t.Errorf("%s ∇ %s = %s, expected %s", a, b, res, test.expected)
		}
		if ok, _ := b.Leq(res); !ok {
			t.Errorf("%s is not below %s ∇ %s = %s", b, a, b, res)
		}
	}
}

func TestSetWideningStabilizes(t *testing.T) {
	cur := mk(t, nil, one(0))
	for n := 1; n < 20; n++ {
		next, err := cur.Join(mk(t, nil, one(2*n)))
		if err != nil {
			t.Fatal(err)
		}
		widened, err := cur.Widen(next)
		if err != nil {
			t.Fatal(err)
		}
		if widened.Equal(cur) {
			t.Logf("Stabilized at %s after %d iterations", cur, n)
			return
		}
		cur = widened
	}
	t.Errorf("Widening did not stabilize, reached %s", cur)
}

func TestMaxDisjuncts(t *testing.T) {
	strategy := &Strategy[L.Interval]{MaxDisjuncts: 2}
	a := mk(t, strategy, one(0), one(2))
	b := mk(t, strategy, one(4))

	res, err := a.Join(b)
	if err != nil {
		t.Fatal(err)
	}
	if res.String() != "{[0, 4]}" {
		t.Errorf("Expected the bounded join to connect the operands, got %s", res)
	}
}

func TestCustomStrategy(t *testing.T) {
	strategy := &Strategy[L.Interval]{
		Merge: func(e1, e2 L.Interval) (L.Interval, error) {
			return L.IntervalTop(), nil
		},
	}

	s := mk(t, strategy, i(0, 2), i(1, 3), one(9))
	if !s.IsTop() {
		t.Errorf("Expected the merge of overlapping elements to be ⊤, got %s", s)
	}
}

func TestIncompatibleStrategies(t *testing.T) {
	a := mk(t, &Strategy[L.Interval]{}, one(0))
	b := mk(t, &Strategy[L.Interval]{}, one(1))

	if _, err := a.Join(b); errors.Cause(err) != L.ErrIncompatible {
		t.Errorf("Expected an incompatibility error, got %v", err)
	}
}

func TestCollapse(t *testing.T) {
	s := mk(t, nil, one(0), one(5), i(8, 9))
	res, err := s.Collapse()
	if err != nil {
		t.Fatal(err)
	}
	if !res.Equal(i(0, 9)) {
		t.Errorf("Expected %s to collapse to [0, 9], got %s", s, res)
	}
}

func TestConnector(t *testing.T) {
	a := mk(t, nil, one(0))
	b := mk(t, nil, one(1), one(2))

	res, err := a.Connector(b)
	if err != nil {
		t.Fatal(err)
	}
	if res.String() != "{[0, 2]}" {
		t.Errorf("%s ⊞ %s = %s, expected {[0, 2]}", a, b, res)
	}
	for _, op := range []itvs{a, b} {
		if ok, _ := op.LeqEM(res); !ok {
			t.Errorf("%s is not below %s in the Egli-Milner order", op, res)
		}
	}
}

func TestJoinThenWiden(t *testing.T) {
	joined, err := mk(t, nil, one(0)).Join(mk(t, nil, one(1)))
	if err != nil {
		t.Fatal(err)
	}
	if joined.String() != "{[0, 0], [1, 1]}" {
		t.Fatalf("Expected {[0, 0], [1, 1]}, got %s", joined)
	}

	next := mk(t, nil, one(2))
	res, err := joined.Widen(next)
	if err != nil {
		t.Fatal(err)
	}
	if res.String() != "{[-∞, ∞]}" {
		t.Errorf("%s ∇ %s = %s, expected {[-∞, ∞]}", joined, next, res)
	}
}
