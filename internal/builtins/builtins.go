// Package builtins installs the fixed set of builtin operators,
// resources, and runtime-provided functions described in spec.md §4.5
// into a fresh Core, before any user function is added. Every builtin
// is registered with a Category recording how the code generator
// should handle it: spliced inline (Inline), compiled from a real
// Core body (Core — only bool_to_string), or resolved by the runtime
// at load time (Runtime).
//
// Grounded on the teacher's native-function registration pattern
// (internal/vm/vm_builtins.go: a table of name -> implementation
// installed once at VM start) and its named builtin-string-constant
// idiom (internal/config/constants.go, e.g. PrintFuncName) — adapted
// from "native Go closures called by the VM" to "Category + canned
// instruction sequence consulted by the code generator", since this
// compiler never executes anything itself.
package builtins

import (
	"github.com/plasma-lang/plasmac/internal/coreir"
	"github.com/plasma-lang/plasmac/internal/ids"
)

// Category is how the code generator handles a call to this builtin.
type Category int

const (
	// Inline: splice Ops (a sequence of OpPrim instructions) in place
	// of the call.
	Inline Category = iota
	// Core: a real Core function with a body, compiled through the
	// ordinary pipeline like any user function.
	Core
	// Runtime: a named import resolved by the runtime; the code
	// generator emits a PZProc marked Imported with ImportName set,
	// never a body.
	Runtime
)

// Builtin is one entry of the fixed builtin table.
type Builtin struct {
	FuncID   ids.FuncID
	Name     string
	Category Category
	// Ops is the canned primitive-name sequence for an Inline builtin,
	// one OpPrim per name (almost always exactly one, e.g. "add_int").
	Ops []string
	// ImportName is the runtime symbol a Runtime builtin resolves to.
	ImportName string
}

// Table is the whole installed builtin set, keyed by the FuncID
// Install gave each builtin in core.
type Table struct {
	byFunc map[ids.FuncID]*Builtin

	BoolType  ids.TypeID
	FalseCtor ids.CtorID
	TrueCtor  ids.CtorID

	ListType ids.TypeID
	NilCtor  ids.CtorID
	ConsCtor ids.CtorID

	IOResource          ids.ResourceID
	EnvironmentResource ids.ResourceID
	TimeResource        ids.ResourceID
}

// Lookup returns the Builtin registered under fid, if any.
func (t *Table) Lookup(fid ids.FuncID) (*Builtin, bool) {
	b, ok := t.byFunc[fid]
	return b, ok
}

func mustName(seg string) ids.QualifiedName {
	return ids.QualifiedName{"builtin", seg}
}

// Install registers every builtin named in spec.md §4.5 into core,
// returning the lookup Table the rest of the pipeline consults. Call
// this once, before adding any user-authored function, type, or
// resource to core.
func Install(core *coreir.Core) *Table {
	t := &Table{byFunc: map[ids.FuncID]*Builtin{}}

	installBoolType(core, t)
	installListType(core, t)
	installResources(core, t)
	installArithmetic(core, t)
	installRuntimeFuncs(core, t)
	installBoolToString(core, t)

	return t
}

func installBoolType(core *coreir.Core, t *Table) {
	typeID := core.NewTypeID()
	falseID := core.NewCtorID()
	trueID := core.NewCtorID()
	core.AddType(&coreir.TypeDef{ID: typeID, Name: mustName("Bool"), Arity: 0})
	// Declaration order matters: False=0, True=1 (spec.md §4.5 scenario 2).
	core.AddCtor(falseID, &coreir.Constructor{Type: typeID, Name: "False"})
	core.AddCtor(trueID, &coreir.Constructor{Type: typeID, Name: "True"})
	t.BoolType, t.FalseCtor, t.TrueCtor = typeID, falseID, trueID
}

func installListType(core *coreir.Core, t *Table) {
	typeID := core.NewTypeID()
	core.AddType(&coreir.TypeDef{ID: typeID, Name: mustName("List"), Arity: 1})
	elemT := coreir.TVar{Name: "t"}
	listOfT := coreir.TRef{Type: typeID, Name: "List", Args: []coreir.Type{elemT}}

	nilID := core.NewCtorID()
	core.AddCtor(nilID, &coreir.Constructor{Type: typeID, Name: "Nil", TypeParameters: []string{"t"}})

	consID := core.NewCtorID()
	core.AddCtor(consID, &coreir.Constructor{
		Type: typeID, Name: "Cons", TypeParameters: []string{"t"},
		Fields: []coreir.Field{{Name: "head", Type: elemT}, {Name: "tail", Type: listOfT}},
	})
	t.ListType, t.NilCtor, t.ConsCtor = typeID, nilID, consID
}

func installResources(core *coreir.Core, t *Table) {
	t.IOResource = core.NewResourceID()
	core.AddResource(&coreir.ResourceDef{ID: t.IOResource, Name: mustName("IO")})
	t.EnvironmentResource = core.NewResourceID()
	core.AddResource(&coreir.ResourceDef{ID: t.EnvironmentResource, Name: mustName("Environment")})
	t.TimeResource = core.NewResourceID()
	core.AddResource(&coreir.ResourceDef{ID: t.TimeResource, Name: mustName("Time")})
}

var arithmeticOps = []string{
	"add_int", "sub_int", "mul_int", "div_int", "mod_int",
	"lt_int", "le_int", "gt_int", "ge_int", "eq_int", "ne_int",
	"and_bool", "or_bool", "not_bool",
	"and_bits", "or_bits", "xor_bits",
}

func installArithmetic(core *coreir.Core, t *Table) {
	intT := coreir.TBuiltin{Kind: coreir.BuiltinInt}
	boolT := coreir.TRef{Type: t.BoolType, Name: "Bool"}

	for _, name := range arithmeticOps {
		var sig coreir.FuncSig
		switch name {
		case "not_bool":
			sig = coreir.FuncSig{InputTypes: []coreir.Type{boolT}, OutputTypes: []coreir.Type{boolT}, DeclaredArity: 1}
		case "and_bool", "or_bool":
			sig = coreir.FuncSig{InputTypes: []coreir.Type{boolT, boolT}, OutputTypes: []coreir.Type{boolT}, DeclaredArity: 1}
		case "lt_int", "le_int", "gt_int", "ge_int", "eq_int", "ne_int":
			sig = coreir.FuncSig{InputTypes: []coreir.Type{intT, intT}, OutputTypes: []coreir.Type{boolT}, DeclaredArity: 1}
		default:
			sig = coreir.FuncSig{InputTypes: []coreir.Type{intT, intT}, OutputTypes: []coreir.Type{intT}, DeclaredArity: 1}
		}
		registerInline(core, t, name, sig)
	}
}

func installRuntimeFuncs(core *coreir.Core, t *Table) {
	intT := coreir.TBuiltin{Kind: coreir.BuiltinInt}
	stringT := coreir.TBuiltin{Kind: coreir.BuiltinString}
	unitT := coreir.TBuiltin{Kind: coreir.BuiltinInt} // no dedicated unit type in the core IR; side-effecting runtime funcs return an Int discard value

	registerRuntime(core, t, "print", coreir.FuncSig{
		InputTypes: []coreir.Type{stringT}, OutputTypes: []coreir.Type{unitT},
		UsesResources: []ids.ResourceID{t.IOResource}, DeclaredArity: 1,
	})
	registerRuntime(core, t, "int_to_string", coreir.FuncSig{
		InputTypes: []coreir.Type{intT}, OutputTypes: []coreir.Type{stringT}, DeclaredArity: 1,
	})
	registerRuntime(core, t, "concat_string", coreir.FuncSig{
		InputTypes: []coreir.Type{stringT, stringT}, OutputTypes: []coreir.Type{stringT}, DeclaredArity: 1,
	})
	registerRuntime(core, t, "setenv", coreir.FuncSig{
		InputTypes: []coreir.Type{stringT, stringT}, OutputTypes: []coreir.Type{unitT},
		UsesResources: []ids.ResourceID{t.EnvironmentResource}, DeclaredArity: 1,
	})
	registerRuntime(core, t, "gettimeofday", coreir.FuncSig{
		InputTypes: nil, OutputTypes: []coreir.Type{intT},
		ObservesResources: []ids.ResourceID{t.TimeResource}, DeclaredArity: 1,
	})
	registerRuntime(core, t, "set_parameter", coreir.FuncSig{
		InputTypes: []coreir.Type{stringT, intT}, OutputTypes: []coreir.Type{unitT}, DeclaredArity: 1,
	})
	registerRuntime(core, t, "die", coreir.FuncSig{
		InputTypes: []coreir.Type{stringT}, OutputTypes: nil, DeclaredArity: 0,
	})
}

func registerInline(core *coreir.Core, t *Table, name string, sig coreir.FuncSig) {
	fid := core.NewFuncID()
	core.AddFunction(&coreir.Function{ID: fid, Name: mustName(name), Signature: sig})
	t.byFunc[fid] = &Builtin{FuncID: fid, Name: name, Category: Inline, Ops: []string{name}}
}

func registerRuntime(core *coreir.Core, t *Table, name string, sig coreir.FuncSig) {
	fid := core.NewFuncID()
	core.AddFunction(&coreir.Function{ID: fid, Name: mustName(name), Signature: sig})
	t.byFunc[fid] = &Builtin{FuncID: fid, Name: name, Category: Runtime, ImportName: name}
}

// installBoolToString gives bool_to_string a real Core body — the one
// builtin spec.md §4.5 says must be "core": `match b { True -> "True";
// False -> "False" }`, compiled through the ordinary pipeline rather
// than spliced or imported.
func installBoolToString(core *coreir.Core, t *Table) {
	boolT := coreir.TRef{Type: t.BoolType, Name: "Bool"}
	stringT := coreir.TBuiltin{Kind: coreir.BuiltinString}

	fid := core.NewFuncID()
	var vm coreir.Varmap
	bVar := vm.Fresh("b")

	pos := coreir.Pos{File: "<builtin:bool_to_string>"}
	trueCase := coreir.MatchCase{
		Pattern: coreir.PCtor{Ctor: t.TrueCtor},
		Body:    coreir.NewExpr(coreir.EConstant{Const: coreir.CString{Value: "True"}}, pos),
	}
	falseCase := coreir.MatchCase{
		Pattern: coreir.PCtor{Ctor: t.FalseCtor},
		Body:    coreir.NewExpr(coreir.EConstant{Const: coreir.CString{Value: "False"}}, pos),
	}
	body := coreir.NewExpr(coreir.EMatch{Scrutinee: bVar, Cases: []coreir.MatchCase{trueCase, falseCase}}, pos)

	fn := &coreir.Function{
		ID:   fid,
		Name: mustName("bool_to_string"),
		Signature: coreir.FuncSig{
			InputTypes: []coreir.Type{boolT}, OutputTypes: []coreir.Type{stringT}, DeclaredArity: 1,
		},
		Body: &coreir.FuncBody{Varmap: vm, ParameterVars: []coreir.Var{bVar}, Expr: body},
	}
	core.AddFunction(fn)
	t.byFunc[fid] = &Builtin{FuncID: fid, Name: "bool_to_string", Category: Core}
}
