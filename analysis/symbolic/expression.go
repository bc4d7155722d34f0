package symbolic

import (
	"fmt"

	"github.com/cs-au-dk/golisa/analysis/types"
)

// Expression is a symbolic expression, the language in which statements
// are presented to abstract states.
type Expression interface {
	fmt.Stringer
	isExpression()
}

// ProgramPoint locates the evaluation of an expression. It is implemented
// by CFG nodes.
type ProgramPoint interface {
	fmt.Stringer
	Location() string
}

type (
	// Constant is a literal integer, boolean or string value.
	Constant struct {
		Value interface{}
		Type  types.Type
	}

	// PushAny is an unknown value of the given type.
	PushAny struct {
		Type types.Type
	}

	UnaryExpression struct {
		Op  UnaryOp
		Arg Expression
	}

	BinaryExpression struct {
		Op          BinaryOp
		Left, Right Expression
	}
)

// Int creates an integer constant.
func Int(v int) Constant { return Constant{v, types.Int} }

// Bool creates a boolean constant.
func Bool(v bool) Constant { return Constant{v, types.Bool} }

// Str creates a string constant.
func Str(v string) Constant { return Constant{v, types.String} }

// Any creates an unknown value of an unknown type.
func Any() PushAny { return PushAny{types.Untyped} }

func Unary(op UnaryOp, arg Expression) UnaryExpression {
	return UnaryExpression{op, arg}
}

func Binary(op BinaryOp, l, r Expression) BinaryExpression {
	return BinaryExpression{op, l, r}
}

func (c Constant) String() string {
	if s, ok := c.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", c.Value)
}

func (p PushAny) String() string {
	if p.Type == nil || p.Type == types.Untyped {
		return "?"
	}
	return "?" + p.Type.String()
}

func (e UnaryExpression) String() string {
	return e.Op.String() + e.Arg.String()
}

func (e BinaryExpression) String() string {
	return "(" + e.Left.String() + " " + e.Op.String() + " " + e.Right.String() + ")"
}

func (Constant) isExpression()         {}
func (PushAny) isExpression()          {}
func (UnaryExpression) isExpression()  {}
func (BinaryExpression) isExpression() {}

// StaticType approximates the type of the values an expression evaluates to.
func StaticType(e Expression) types.Type {
	switch e := e.(type) {
	case Identifier:
		return e.Type
	case Constant:
		return e.Type
	case PushAny:
		return e.Type
	case UnaryExpression:
		if e.Op == Not {
			return types.Bool
		}
		return types.Int
	case BinaryExpression:
		switch {
		case e.Op.IsComparison(), e.Op.IsLogical():
			return types.Bool
		case e.Op == Add && StaticType(e.Left) == types.String:
			return types.String
		}
		return types.Int
	}
	return types.Untyped
}
