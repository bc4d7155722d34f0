package nonrel

import (
	"sort"
	"strings"

	"github.com/cs-au-dk/golisa/analysis/lattice"
	"github.com/cs-au-dk/golisa/analysis/symbolic"
	"github.com/cs-au-dk/golisa/utils"

	"github.com/benbjohnson/immutable"
)

// Environment maps identifiers to the abstract values of a non-relational
// domain. Top and bottom are sentinel flags with an empty mapping, and are
// checked before any pointwise operation.
type Environment[V lattice.Lattice[V]] struct {
	dom      Domain[V]
	top, bot bool
	mp       *immutable.Map[symbolic.Identifier, V]
}

// NewEnvironment creates an environment with no bindings.
func NewEnvironment[V lattice.Lattice[V]](dom Domain[V]) Environment[V] {
	return Environment[V]{
		dom: dom,
		mp:  utils.NewImmMap[symbolic.Identifier, V](),
	}
}

// Domain returns the value domain of the environment.
func (e Environment[V]) Domain() Domain[V] { return e.dom }

func (e Environment[V]) Top() Environment[V] {
	return Environment[V]{dom: e.dom, top: true, mp: utils.NewImmMap[symbolic.Identifier, V]()}
}

func (e Environment[V]) Bot() Environment[V] {
	return Environment[V]{dom: e.dom, bot: true, mp: utils.NewImmMap[symbolic.Identifier, V]()}
}

func (e Environment[V]) IsTop() bool { return e.top }

func (e Environment[V]) IsBot() bool { return e.bot }

// Get retrieves the value bound to an identifier. Unbound identifiers are
// unconstrained.
func (e Environment[V]) Get(id symbolic.Identifier) V {
	switch {
	case e.bot:
		return e.dom.Bot()
	case e.top:
		return e.dom.Top()
	}
	if v, found := e.mp.Get(id); found {
		return v
	}
	return e.dom.Top()
}

// Lookup retrieves the value bound to an identifier, if any.
func (e Environment[V]) Lookup(id symbolic.Identifier) (V, bool) {
	if e.top || e.bot {
		var v V
		return v, false
	}
	return e.mp.Get(id)
}

// Len returns the number of bindings.
func (e Environment[V]) Len() int { return e.mp.Len() }

// ForEach executes the given procedure for every binding.
func (e Environment[V]) ForEach(do func(symbolic.Identifier, V)) {
	for iter := e.mp.Iterator(); !iter.Done(); {
		id, v, _ := iter.Next()
		do(id, v)
	}
}

// Set binds an identifier to a value, without evaluating anything.
func (e Environment[V]) Set(id symbolic.Identifier, v V) Environment[V] {
	if e.bot {
		return e
	}
	return Environment[V]{dom: e.dom, mp: e.mp.Set(id, v)}
}

// Eval computes the value of an expression in the environment.
func (e Environment[V]) Eval(expr symbolic.Expression, pp symbolic.ProgramPoint) (V, error) {
	if e.bot {
		return e.dom.Bot(), nil
	}

	switch expr := expr.(type) {
	case symbolic.Identifier:
		return e.Get(expr), nil
	case symbolic.Constant:
		return e.dom.EvalConstant(expr, pp)
	case symbolic.PushAny:
		return e.dom.EvalPushAny(expr, pp)
	case symbolic.UnaryExpression:
		arg, err := e.Eval(expr.Arg, pp)
		if err != nil {
			return arg, err
		}
		return e.dom.EvalUnary(expr.Op, arg, pp)
	case symbolic.BinaryExpression:
		l, err := e.Eval(expr.Left, pp)
		if err != nil {
			return l, err
		}
		r, err := e.Eval(expr.Right, pp)
		if err != nil {
			return r, err
		}
		return e.dom.EvalBinary(expr.Op, l, r, pp)
	}
	return e.dom.Top(), nil
}

// Assign evaluates the expression and binds the identifier to its value.
// Weak identifiers accumulate the new value with the old one.
func (e Environment[V]) Assign(id symbolic.Identifier, expr symbolic.Expression, pp symbolic.ProgramPoint) (Environment[V], error) {
	if e.bot {
		return e, nil
	}

	v, err := e.Eval(expr, pp)
	if err != nil {
		return e, err
	}
	if id.Weak {
		if v, err = v.Join(e.Get(id)); err != nil {
			return e, err
		}
	}
	if hook, ok := e.dom.(AssignHook[V]); ok {
		if v, err = hook.AfterAssign(id, expr, v, pp); err != nil {
			return e, err
		}
	}

	mp := e.mp
	if e.top {
		mp = utils.NewImmMap[symbolic.Identifier, V]()
	}
	return Environment[V]{dom: e.dom, mp: mp.Set(id, v)}, nil
}

// Satisfies decides whether a condition holds in the environment.
func (e Environment[V]) Satisfies(expr symbolic.Expression, pp symbolic.ProgramPoint) (lattice.Satisfiability, error) {
	if e.bot {
		return lattice.BottomSat, nil
	}

	switch expr := expr.(type) {
	case symbolic.Constant:
		if b, ok := expr.Value.(bool); ok {
			if b {
				return lattice.Satisfied, nil
			}
			return lattice.NotSatisfied, nil
		}
	case symbolic.UnaryExpression:
		if expr.Op == symbolic.Not {
			s, err := e.Satisfies(expr.Arg, pp)
			return s.Negate(), err
		}
	case symbolic.BinaryExpression:
		switch {
		case expr.Op.IsLogical():
			l, err := e.Satisfies(expr.Left, pp)
			if err != nil {
				return l, err
			}
			r, err := e.Satisfies(expr.Right, pp)
			if err != nil {
				return r, err
			}
			if expr.Op == symbolic.And {
				return l.And(r), nil
			}
			return l.Or(r), nil
		case expr.Op.IsComparison():
			l, err := e.Eval(expr.Left, pp)
			if err != nil {
				return lattice.Unknown, err
			}
			r, err := e.Eval(expr.Right, pp)
			if err != nil {
				return lattice.Unknown, err
			}
			return e.dom.SatisfiesBinary(expr.Op, l, r, pp)
		}
	}
	return lattice.Unknown, nil
}

// Assume restricts the environment to the executions where the condition
// holds. A condition that never holds yields bottom and one that always
// holds leaves the environment unchanged. Otherwise the environment is
// narrowed with the refinement computed by the domain.
func (e Environment[V]) Assume(expr symbolic.Expression, pp symbolic.ProgramPoint) (Environment[V], error) {
	sat, err := e.Satisfies(expr, pp)
	switch {
	case err != nil:
		return e, err
	case sat == lattice.NotSatisfied || sat == lattice.BottomSat:
		return e.Bot(), nil
	case sat == lattice.Satisfied:
		return e, nil
	}

	refined, err := e.refine(expr, pp)
	if err != nil {
		return e, err
	}
	return e.Meet(refined)
}

func (e Environment[V]) refine(expr symbolic.Expression, pp symbolic.ProgramPoint) (Environment[V], error) {
	switch expr := expr.(type) {
	case symbolic.UnaryExpression:
		if expr.Op != symbolic.Not {
			break
		}
		if neg := symbolic.Negate(expr.Arg); !isNegation(neg) {
			return e.Assume(neg, pp)
		}
	case symbolic.BinaryExpression:
		switch {
		case expr.Op == symbolic.And:
			l, err := e.Assume(expr.Left, pp)
			if err != nil {
				return e, err
			}
			return l.Assume(expr.Right, pp)
		case expr.Op == symbolic.Or:
			l, err := e.Assume(expr.Left, pp)
			if err != nil {
				return e, err
			}
			r, err := e.Assume(expr.Right, pp)
			if err != nil {
				return e, err
			}
			return l.Join(r)
		case expr.Op.IsComparison():
			l, err := e.Eval(expr.Left, pp)
			if err != nil {
				return e, err
			}
			r, err := e.Eval(expr.Right, pp)
			if err != nil {
				return e, err
			}
			nl, nr, err := e.dom.RefineBinary(expr.Op, l, r, pp)
			if err != nil {
				return e, err
			}

			res := e
			for _, side := range []struct {
				expr symbolic.Expression
				v    V
			}{{expr.Left, nl}, {expr.Right, nr}} {
				if id, ok := side.expr.(symbolic.Identifier); ok {
					if side.v.IsBot() {
						return e.Bot(), nil
					}
					res = res.Set(id, side.v)
				}
			}
			return res, nil
		}
	}
	return e, nil
}

// Forget removes the binding of an identifier.
func (e Environment[V]) Forget(id symbolic.Identifier) Environment[V] {
	if e.top || e.bot {
		return e
	}
	return Environment[V]{dom: e.dom, mp: e.mp.Delete(id)}
}

// ForgetIf removes every binding whose identifier satisfies the predicate.
func (e Environment[V]) ForgetIf(pred func(symbolic.Identifier) bool) Environment[V] {
	if e.top || e.bot {
		return e
	}
	mp := e.mp
	e.ForEach(func(id symbolic.Identifier, _ V) {
		if pred(id) {
			mp = mp.Delete(id)
		}
	})
	return Environment[V]{dom: e.dom, mp: mp}
}

// PushScope hides every scoped identifier behind the scope.
func (e Environment[V]) PushScope(s symbolic.Scope) Environment[V] {
	return e.rename(func(id symbolic.Identifier) (symbolic.Identifier, bool) {
		return id.PushScope(s), true
	})
}

// PopScope restores the identifiers hidden behind the scope. The scoped
// identifiers that were never hidden are dropped.
func (e Environment[V]) PopScope(s symbolic.Scope) Environment[V] {
	return e.rename(func(id symbolic.Identifier) (symbolic.Identifier, bool) {
		return id.PopScope(s)
	})
}

func (e Environment[V]) rename(f func(symbolic.Identifier) (symbolic.Identifier, bool)) Environment[V] {
	if e.top || e.bot {
		return e
	}
	mp := utils.NewImmMap[symbolic.Identifier, V]()
	e.ForEach(func(id symbolic.Identifier, v V) {
		if id, ok := f(id); ok {
			mp = mp.Set(id, v)
		}
	})
	return Environment[V]{dom: e.dom, mp: mp}
}

func (e Environment[V]) Equal(o Environment[V]) bool {
	if e.top || e.bot || o.top || o.bot {
		return e.top == o.top && e.bot == o.bot
	}
	if e.mp.Len() != o.mp.Len() {
		return false
	}
	for iter := e.mp.Iterator(); !iter.Done(); {
		id, v, _ := iter.Next()
		if ov, found := o.mp.Get(id); !found || !v.Equal(ov) {
			return false
		}
	}
	return true
}

func (e Environment[V]) Leq(o Environment[V]) (bool, error) { return lattice.Leq(e, o) }

func (e Environment[V]) Join(o Environment[V]) (Environment[V], error) { return lattice.Join(e, o) }

func (e Environment[V]) Meet(o Environment[V]) (Environment[V], error) { return lattice.Meet(e, o) }

func (e Environment[V]) Widen(o Environment[V]) (Environment[V], error) { return lattice.Widen(e, o) }

// LeqAux checks that every binding of the receiver is below the binding of
// the other environment. A missing binding counts as bottom.
func (e Environment[V]) LeqAux(o Environment[V]) (bool, error) {
	for iter := e.mp.Iterator(); !iter.Done(); {
		id, v, _ := iter.Next()
		ov, found := o.mp.Get(id)
		if !found {
			if !v.IsBot() {
				return false, nil
			}
			continue
		}
		if ok, err := v.Leq(ov); err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (e Environment[V]) JoinAux(o Environment[V]) (Environment[V], error) {
	return e.lift(o, V.Join)
}

func (e Environment[V]) WidenAux(o Environment[V]) (Environment[V], error) {
	return e.lift(o, V.Widen)
}

// MeetAux computes the pointwise meet. Bindings present on one side only
// are kept. A binding that meets to bottom makes the environment bottom.
func (e Environment[V]) MeetAux(o Environment[V]) (Environment[V], error) {
	res, err := e.lift(o, V.Meet)
	if err != nil {
		return res, err
	}
	for iter := res.mp.Iterator(); !iter.Done(); {
		if _, v, _ := iter.Next(); v.IsBot() {
			return e.Bot(), nil
		}
	}
	return res, nil
}

// lift combines the bindings present on both sides with op, and keeps the
// bindings present on one side only. Common identifiers are merged.
func (e Environment[V]) lift(o Environment[V], op func(V, V) (V, error)) (Environment[V], error) {
	keys := make(map[symbolic.Key]symbolic.Identifier, e.mp.Len())
	e.ForEach(func(id symbolic.Identifier, _ V) {
		keys[id.Key()] = id
	})

	mp := e.mp
	for iter := o.mp.Iterator(); !iter.Done(); {
		id, ov, _ := iter.Next()
		v, found := e.mp.Get(id)
		if !found {
			mp = mp.Set(id, ov)
			continue
		}

		res, err := op(v, ov)
		if err != nil {
			return e, err
		}
		mp = mp.Delete(id).Set(keys[id.Key()].Join(id), res)
	}
	return Environment[V]{dom: e.dom, mp: mp}, nil
}

func isNegation(e symbolic.Expression) bool {
	u, ok := e.(symbolic.UnaryExpression)
	return ok && u.Op == symbolic.Not
}

func (e Environment[V]) String() string {
	switch {
	case e.top:
		return lattice.TopString()
	case e.bot:
		return lattice.BotString()
	}

	type entry struct {
		id symbolic.Identifier
		v  V
	}
	entries := make([]entry, 0, e.mp.Len())
	e.ForEach(func(id symbolic.Identifier, v V) {
		entries = append(entries, entry{id, v})
	})
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].id.String() < entries[j].id.String()
	})

	strs := make([]string, 0, len(entries))
	for _, en := range entries {
		strs = append(strs, lattice.Colorize.Key(en.id.String())+": "+en.v.String())
	}
	return strings.Join(strs, "\n")
}
