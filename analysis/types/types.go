package types

// Type is a runtime type of the analysed program. Types are identified by
// their name and interned in a Registry.
type Type interface {
	String() string
	isType()
}

type (
	basicType string

	// UnitType is the type of the instances of a compilation unit.
	UnitType struct {
		Name string
	}
)

// The basic types every registry starts from.
var (
	Int     Type = basicType("int")
	Bool    Type = basicType("bool")
	String  Type = basicType("string")
	Untyped Type = basicType("untyped")
)

func (t basicType) String() string { return string(t) }

func (basicType) isType() {}

func (t *UnitType) String() string { return t.Name }

func (*UnitType) isType() {}

// Unit creates the type of a compilation unit.
func Unit(name string) *UnitType {
	return &UnitType{Name: name}
}

// IsUnit checks whether the type is the type of a compilation unit.
func IsUnit(t Type) bool {
	_, ok := t.(*UnitType)
	return ok
}
