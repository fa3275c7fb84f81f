package coreir

import "github.com/plasma-lang/plasmac/internal/ids"

// Varmap maps a function's internal Var handles to display names.
// Display names need not be unique; fresh vars come from a counter
// scoped to the function.
type Varmap struct {
	names []string
}

// Fresh allocates a new Var with the given display name.
func (vm *Varmap) Fresh(displayName string) Var {
	v := Var(len(vm.names))
	vm.names = append(vm.names, displayName)
	return v
}

// Name returns the display name of v.
func (vm *Varmap) Name(v Var) string {
	if int(v) < 0 || int(v) >= len(vm.names) {
		return "<invalid-var>"
	}
	return vm.names[v]
}

// Count returns how many vars have been allocated.
func (vm *Varmap) Count() int {
	return len(vm.names)
}

// FuncSig is a function's signature: input/output types, the
// resources it uses or observes, and its declared arity (number of
// results — Plasma functions are multiple-return).
type FuncSig struct {
	InputTypes        []Type
	OutputTypes       []Type
	UsesResources     []ids.ResourceID
	ObservesResources []ids.ResourceID
	DeclaredArity     int
}

// FuncBody is present for functions with a body (absent for imports).
type FuncBody struct {
	Varmap       Varmap
	ParameterVars []Var
	Expr         *Expr
}

// Function is (signature, body?). Imported functions carry no body.
type Function struct {
	ID        ids.FuncID
	Name      ids.QualifiedName
	Signature FuncSig
	Body      *FuncBody // nil for imported functions
}

// IsImported reports whether this function has no body.
func (f *Function) IsImported() bool {
	return f.Body == nil
}
