package coreir

import (
	"fmt"
	"strings"

	"github.com/plasma-lang/plasmac/internal/ids"
)

// Builtin enumerates the built-in scalar types (spec.md §3).
type Builtin int

const (
	BuiltinInt Builtin = iota
	BuiltinString
	BuiltinCodepoint
)

func (b Builtin) String() string {
	switch b {
	case BuiltinInt:
		return "int"
	case BuiltinString:
		return "string"
	case BuiltinCodepoint:
		return "codepoint"
	default:
		return fmt.Sprintf("builtin(%d)", int(b))
	}
}

// Type is a Plasma core type: a builtin scalar, a reference to a
// user-declared type applied to argument types, or a free type
// variable scoped to the enclosing declaration. Exactly these three
// shapes exist in the core IR (spec.md §3); there is no structural
// record/union/function-type machinery to support.
type Type interface {
	isType()
	String() string
}

// TBuiltin is one of the built-in scalar types.
type TBuiltin struct {
	Kind Builtin
}

func (TBuiltin) isType()          {}
func (t TBuiltin) String() string { return t.Kind.String() }

// TRef references a user-declared type applied to argument types.
// len(Args) must equal the declared arity of Type.
type TRef struct {
	Type ids.TypeID
	Name string // display name, for diagnostics only
	Args []Type
}

func (TRef) isType() {}
func (t TRef) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", t.Name, strings.Join(parts, ", "))
}

// TVar is a free type variable scoped to the enclosing declaration.
type TVar struct {
	Name string
}

func (TVar) isType()          {}
func (t TVar) String() string { return t.Name }

// Field is one named, typed field of a constructor.
type Field struct {
	Name string
	Type Type
}

// Constructor is one constructor of a user-declared algebraic type.
type Constructor struct {
	Type           ids.TypeID
	Name           string
	TypeParameters []string
	Fields         []Field
}

// IsNullary reports whether the constructor has no fields.
func (c *Constructor) IsNullary() bool {
	return len(c.Fields) == 0
}

// TypeDef is a user-declared algebraic type: a name, its declared
// arity (number of type parameters), and its constructors in
// declaration order.
type TypeDef struct {
	ID         ids.TypeID
	Name       ids.QualifiedName
	Arity      int
	Ctors      []ids.CtorID // declaration order
}

// ResourceDef is a declared resource (e.g. IO, Environment, Time).
type ResourceDef struct {
	ID   ids.ResourceID
	Name ids.QualifiedName
}
