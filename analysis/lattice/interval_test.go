package lattice

import (
	"testing"

	"github.com/fatih/color"
)

func init() {
	color.NoColor = true
}

type (
	b = FiniteBound
	P = PlusInfinity
	M = MinusInfinity
)

var itv = NewInterval

func TestIntervalJoin(t *testing.T) {
	tests := []struct {
		a, b, expected Interval
	}{
		{IntervalBot(), IntervalBot(), IntervalBot()},
		{IntervalBot(), IntervalTop(), IntervalTop()},
		{IntervalTop(), IntervalBot(), IntervalTop()},
		{IntervalTop(), IntervalTop(), IntervalTop()},
		{IntervalBot(), itv(b(0), b(0)), itv(b(0), b(0))},
		{itv(b(0), b(0)), IntervalBot(), itv(b(0), b(0))},
		{itv(b(0), b(0)), itv(b(1), b(1)), itv(b(0), b(1))},
		{itv(b(1), b(1)), itv(b(0), b(0)), itv(b(0), b(1))},
		{itv(b(1), b(2)), itv(b(3), b(4)), itv(b(1), b(4))},
		{itv(b(-1), b(0)), itv(b(0), b(1)), itv(b(-1), b(1))},
		{itv(b(0), b(1024)), itv(b(0), P{}), itv(b(0), P{})},
		{itv(b(0), P{}), itv(b(0), b(1024)), itv(b(0), P{})},
		{itv(b(-1024), b(0)), itv(b(0), P{}), itv(b(-1024), P{})},
		{itv(M{}, b(0)), itv(b(-1024), b(0)), itv(M{}, b(0))},
		{itv(M{}, b(-1024)), itv(b(1024), P{}), IntervalTop()},
	}

	for _, test := range tests {
		res, err := test.a.Join(test.b)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Equal(test.expected) {
			t.Errorf("%s ⊔ %s = %s, expected %s\n", test.a, test.b, res, test.expected)
		} else {
			t.Logf("%s ⊔ %s = %s\n", test.a, test.b, res)
		}
	}
}

func TestIntervalMeet(t *testing.T) {
	tests := []struct {
		a, b, expected Interval
	}{
		{IntervalBot(), IntervalTop(), IntervalBot()},
		{IntervalTop(), itv(b(0), b(3)), itv(b(0), b(3))},
		{itv(b(0), b(3)), itv(b(2), b(5)), itv(b(2), b(3))},
		{itv(b(0), b(1)), itv(b(2), b(5)), IntervalBot()},
		{itv(M{}, b(1)), itv(b(0), P{}), itv(b(0), b(1))},
		{itv(b(0), b(10)), itv(b(2), b(3)), itv(b(2), b(3))},
	}

	for _, test := range tests {
		res, err := test.a.Meet(test.b)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Equal(test.expected) {
			t.Errorf("%s ⊓ %s = %s, expected %s\n", test.a, test.b, res, test.expected)
		}
	}
}

func TestIntervalLeq(t *testing.T) {
	tests := []struct {
		a, b     Interval
		expected bool
	}{
		{IntervalBot(), IntervalBot(), true},
		{IntervalBot(), itv(b(0), b(0)), true},
		{itv(b(0), b(0)), IntervalBot(), false},
		{itv(b(0), b(0)), IntervalTop(), true},
		{IntervalTop(), itv(b(0), b(0)), false},
		{itv(b(1), b(2)), itv(b(0), b(3)), true},
		{itv(b(0), b(3)), itv(b(1), b(2)), false},
		{itv(b(0), b(1)), itv(b(1), b(2)), false},
		{itv(b(0), P{}), itv(M{}, P{}), true},
	}

	for _, test := range tests {
		res, err := test.a.Leq(test.b)
		if err != nil {
			t.Fatal(err)
		}
		if res != test.expected {
			t.Errorf("%s ⊑ %s = %v, expected %v\n", test.a, test.b, res, test.expected)
		}
	}
}

func TestIntervalWiden(t *testing.T) {
	tests := []struct {
		a, b, expected Interval
	}{
		{IntervalBot(), itv(b(0), b(0)), itv(b(0), b(0))},
		{itv(b(0), b(0)), itv(b(0), b(0)), itv(b(0), b(0))},
		{itv(b(0), b(0)), itv(b(0), b(1)), itv(b(0), P{})},
		{itv(b(0), b(0)), itv(b(-1), b(0)), itv(M{}, b(0))},
		{itv(b(0), b(5)), itv(b(1), b(2)), itv(b(0), b(5))},
		{itv(b(0), b(5)), itv(b(-1), b(6)), IntervalTop()},
	}

	for _, test := range tests {
		res, err := test.a.Widen(test.b)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Equal(test.expected) {
			t.Errorf("%s ∇ %s = %s, expected %s\n", test.a, test.b, res, test.expected)
		}
	}
}

func TestIntervalWideningStabilizes(t *testing.T) {
	// x := 0; loop { x := x + 1 }
	acc := Singleton(0)
	for i := 0; i < 10; i++ {
		next, err := acc.Widen(acc.Plus(Singleton(1)))
		if err != nil {
			t.Fatal(err)
		}
		if next.Equal(acc) {
			if i > 2 {
				t.Errorf("Widening took %d steps to stabilize", i)
			}
			if !acc.Equal(itv(b(0), P{})) {
				t.Errorf("Widening stabilized at %s, expected [0, ∞]", acc)
			}
			return
		}
		acc = next
	}
	t.Errorf("Widening did not stabilize: %s", acc)
}

func TestIntervalArithmetic(t *testing.T) {
	tests := []struct {
		name           string
		op             func(Interval, Interval) Interval
		a, b, expected Interval
	}{
		{"+", Interval.Plus, itv(b(0), b(1)), itv(b(2), b(3)), itv(b(2), b(4))},
		{"+", Interval.Plus, itv(b(0), P{}), itv(b(2), b(3)), itv(b(2), P{})},
		{"+", Interval.Plus, IntervalBot(), itv(b(2), b(3)), IntervalBot()},
		{"-", Interval.Minus, itv(b(0), b(1)), itv(b(2), b(3)), itv(b(-3), b(-1))},
		{"-", Interval.Minus, itv(b(0), P{}), itv(b(1), b(1)), itv(b(-1), P{})},
		{"*", Interval.Mult, itv(b(-2), b(3)), itv(b(4), b(5)), itv(b(-10), b(15))},
		{"*", Interval.Mult, itv(b(0), b(0)), IntervalTop(), itv(b(0), b(0))},
		{"*", Interval.Mult, itv(b(1), P{}), itv(b(-1), b(-1)), itv(M{}, b(-1))},
		{"/", Interval.Div, itv(b(10), b(20)), itv(b(2), b(5)), itv(b(2), b(10))},
		{"/", Interval.Div, itv(b(10), b(20)), itv(b(0), b(0)), IntervalBot()},
		{"/", Interval.Div, itv(b(10), b(20)), itv(b(-1), b(1)), IntervalTop()},
		{"/", Interval.Div, itv(b(1), P{}), itv(b(2), P{}), itv(b(0), P{})},
		{"%", Interval.Rem, itv(b(0), b(20)), itv(b(3), b(3)), itv(b(0), b(2))},
		{"%", Interval.Rem, itv(b(-5), b(5)), itv(b(-4), b(-2)), itv(b(-3), b(3))},
		{"%", Interval.Rem, itv(b(0), b(20)), itv(b(0), b(3)), IntervalTop()},
	}

	for _, test := range tests {
		if res := test.op(test.a, test.b); !res.Equal(test.expected) {
			t.Errorf("%s %s %s = %s, expected %s\n", test.a, test.name, test.b, res, test.expected)
		}
	}
}

func TestIntervalString(t *testing.T) {
	tests := []struct {
		i        Interval
		expected string
	}{
		{IntervalBot(), "⊥"},
		{IntervalTop(), "[-∞, ∞]"},
		{FiniteInterval(1, 2), "[1, 2]"},
		{FiniteInterval(2, 1), "⊥"},
	}

	for _, test := range tests {
		if s := test.i.String(); s != test.expected {
			t.Errorf("Expected %q, got %q", test.expected, s)
		}
	}
}

func TestIntervalLaws(t *testing.T) {
	values := []Interval{
		IntervalBot(), IntervalTop(),
		Singleton(0), Singleton(1), FiniteInterval(-3, 2),
		itv(b(0), P{}), itv(M{}, b(-1)),
	}

	for _, a := range values {
		if j, _ := a.Join(a); !j.Equal(a) {
			t.Errorf("%s ⊔ %s = %s", a, a, j)
		}
		if ok, _ := IntervalBot().Leq(a); !ok {
			t.Errorf("⊥ ⋢ %s", a)
		}
		if ok, _ := a.Leq(IntervalTop()); !ok {
			t.Errorf("%s ⋢ ⊤", a)
		}

		for _, b := range values {
			ab, _ := a.Join(b)
			ba, _ := b.Join(a)
			if !ab.Equal(ba) {
				t.Errorf("%s ⊔ %s = %s, but %s ⊔ %s = %s", a, b, ab, b, a, ba)
			}
			if ok, _ := a.Leq(ab); !ok {
				t.Errorf("%s ⋢ %s ⊔ %s", a, a, b)
			}
			if ok, _ := b.Leq(ab); !ok {
				t.Errorf("%s ⋢ %s ⊔ %s", b, a, b)
			}

			w, _ := a.Widen(b)
			if ok, _ := a.Leq(w); !ok {
				t.Errorf("%s ⋢ %s ∇ %s", a, a, b)
			}
			if ok, _ := b.Leq(w); !ok {
				t.Errorf("%s ⋢ %s ∇ %s", b, a, b)
			}

			m, _ := a.Meet(b)
			if ok, _ := m.Leq(a); !ok {
				t.Errorf("%s ⊓ %s ⋢ %s", a, b, a)
			}
		}
	}
}
