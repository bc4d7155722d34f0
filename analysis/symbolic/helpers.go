package symbolic

// Identifiers lists the identifiers occurring in an expression, from left
// to right.
func Identifiers(e Expression) (res []Identifier) {
	var visit func(Expression)
	visit = func(e Expression) {
		switch e := e.(type) {
		case Identifier:
			res = append(res, e)
		case UnaryExpression:
			visit(e.Arg)
		case BinaryExpression:
			visit(e.Left)
			visit(e.Right)
		}
	}
	visit(e)
	return
}

// ScopeIn hides every scoped identifier of the expression behind the scope.
func ScopeIn(e Expression, s Scope) Expression {
	return rename(e, func(id Identifier) Expression {
		return id.PushScope(s)
	})
}

// ScopeOut restores every identifier hidden behind the scope. Identifiers
// that do not survive become unknown values of their type.
func ScopeOut(e Expression, s Scope) Expression {
	return rename(e, func(id Identifier) Expression {
		if popped, ok := id.PopScope(s); ok {
			return popped
		}
		return PushAny{id.Type}
	})
}

func rename(e Expression, f func(Identifier) Expression) Expression {
	switch e := e.(type) {
	case Identifier:
		return f(e)
	case UnaryExpression:
		return UnaryExpression{e.Op, rename(e.Arg, f)}
	case BinaryExpression:
		return BinaryExpression{e.Op, rename(e.Left, f), rename(e.Right, f)}
	}
	return e
}

// Negate negates a condition, pushing the negation through comparisons and
// connectives.
func Negate(e Expression) Expression {
	switch e := e.(type) {
	case Constant:
		if b, ok := e.Value.(bool); ok {
			return Bool(!b)
		}
	case UnaryExpression:
		if e.Op == Not {
			return e.Arg
		}
	case BinaryExpression:
		switch {
		case e.Op.IsComparison():
			return BinaryExpression{e.Op.Negate(), e.Left, e.Right}
		case e.Op == And:
			return BinaryExpression{Or, Negate(e.Left), Negate(e.Right)}
		case e.Op == Or:
			return BinaryExpression{And, Negate(e.Left), Negate(e.Right)}
		}
	}
	return UnaryExpression{Not, e}
}
