package symbolic

type (
	UnaryOp  int
	BinaryOp int
)

const (
	Neg UnaryOp = iota
	Not
)

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Rem
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	And
	Or
)

func (op UnaryOp) String() string {
	if op == Not {
		return "!"
	}
	return "-"
}

var binaryOps = [...]string{
	Add: "+",
	Sub: "-",
	Mul: "*",
	Div: "/",
	Rem: "%",
	Eq:  "==",
	Ne:  "!=",
	Lt:  "<",
	Le:  "<=",
	Gt:  ">",
	Ge:  ">=",
	And: "&&",
	Or:  "||",
}

func (op BinaryOp) String() string {
	return binaryOps[op]
}

func (op BinaryOp) IsComparison() bool {
	return Eq <= op && op <= Ge
}

func (op BinaryOp) IsLogical() bool {
	return op == And || op == Or
}

func (op BinaryOp) IsArithmetic() bool {
	return op <= Rem
}

// Negate gives the comparison that holds exactly when op does not.
func (op BinaryOp) Negate() BinaryOp {
	switch op {
	case Eq:
		return Ne
	case Ne:
		return Eq
	case Lt:
		return Ge
	case Le:
		return Gt
	case Gt:
		return Le
	case Ge:
		return Lt
	}
	return op
}

// Flip gives the comparison obtained by swapping the operands.
func (op BinaryOp) Flip() BinaryOp {
	switch op {
	case Lt:
		return Gt
	case Le:
		return Ge
	case Gt:
		return Lt
	case Ge:
		return Le
	}
	return op
}
