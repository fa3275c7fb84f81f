package builtins

import (
	"testing"

	"github.com/plasma-lang/plasmac/internal/coreir"
	"github.com/plasma-lang/plasmac/internal/ids"
)

func findFunc(core *coreir.Core, simpleName string) ids.FuncID {
	for id, fn := range core.Functions {
		if fn.Name.String() == "builtin."+simpleName {
			return id
		}
	}
	panic("builtin." + simpleName + " not found")
}

func TestInstallRegistersArithmeticAsInline(t *testing.T) {
	core := coreir.New()
	table := Install(core)

	fid := findFunc(core, "add_int")
	b, ok := table.Lookup(fid)
	if !ok {
		t.Fatal("add_int not registered in table")
	}
	if b.Category != Inline {
		t.Errorf("add_int Category = %v, want Inline", b.Category)
	}
	if len(b.Ops) != 1 || b.Ops[0] != "add_int" {
		t.Errorf("add_int Ops = %v, want [add_int]", b.Ops)
	}
}

func TestInstallRegistersPrintAsRuntime(t *testing.T) {
	core := coreir.New()
	table := Install(core)

	fid := findFunc(core, "print")
	b, ok := table.Lookup(fid)
	if !ok {
		t.Fatal("print not registered in table")
	}
	if b.Category != Runtime {
		t.Errorf("print Category = %v, want Runtime", b.Category)
	}
	if b.ImportName != "print" {
		t.Errorf("print ImportName = %q, want %q", b.ImportName, "print")
	}
}

func TestInstallBoolToStringIsCoreWithValidBody(t *testing.T) {
	core := coreir.New()
	table := Install(core)

	fid := findFunc(core, "bool_to_string")
	b, ok := table.Lookup(fid)
	if !ok {
		t.Fatal("bool_to_string not registered in table")
	}
	if b.Category != Core {
		t.Errorf("bool_to_string Category = %v, want Core", b.Category)
	}

	fn := core.Functions[fid]
	if fn.Body == nil || fn.Body.Expr == nil {
		t.Fatal("bool_to_string has no body")
	}
	if err := core.Validate(); err != nil {
		t.Errorf("Validate() after Install = %v, want nil", err)
	}
}

func TestInstallBoolCtorOrderFalseThenTrue(t *testing.T) {
	core := coreir.New()
	table := Install(core)

	falseCtor := core.Ctors[table.FalseCtor]
	trueCtor := core.Ctors[table.TrueCtor]
	if falseCtor.Name != "False" {
		t.Errorf("FalseCtor name = %q, want False", falseCtor.Name)
	}
	if trueCtor.Name != "True" {
		t.Errorf("TrueCtor name = %q, want True", trueCtor.Name)
	}
	typ := core.Types[table.BoolType]
	if len(typ.Ctors) != 2 || typ.Ctors[0] != table.FalseCtor || typ.Ctors[1] != table.TrueCtor {
		t.Errorf("Bool.Ctors = %v, want [False, True] in declaration order", typ.Ctors)
	}
}

func TestInstallListTypeHasNilAndCons(t *testing.T) {
	core := coreir.New()
	table := Install(core)

	nilCtor := core.Ctors[table.NilCtor]
	consCtor := core.Ctors[table.ConsCtor]
	if nilCtor.Name != "Nil" || !nilCtor.IsNullary() {
		t.Errorf("NilCtor = %+v, want nullary Nil", nilCtor)
	}
	if consCtor.Name != "Cons" || consCtor.IsNullary() {
		t.Errorf("ConsCtor = %+v, want non-nullary Cons", consCtor)
	}
	if len(consCtor.Fields) != 2 {
		t.Errorf("Cons fields = %d, want 2 (head, tail)", len(consCtor.Fields))
	}
}

func TestInstallResourcesAreDistinct(t *testing.T) {
	core := coreir.New()
	table := Install(core)

	if table.IOResource == table.EnvironmentResource ||
		table.IOResource == table.TimeResource ||
		table.EnvironmentResource == table.TimeResource {
		t.Error("IO, Environment, and Time resources should all be distinct ids")
	}
	if _, ok := core.Resources[table.IOResource]; !ok {
		t.Error("IOResource not registered in core.Resources")
	}
}

func TestInstallArithmeticCoversComparisonAndBitwiseOps(t *testing.T) {
	core := coreir.New()
	table := Install(core)

	for _, name := range []string{"lt_int", "eq_int", "and_bool", "not_bool", "and_bits", "xor_bits"} {
		fid := findFunc(core, name)
		b, ok := table.Lookup(fid)
		if !ok {
			t.Errorf("%s not registered in table", name)
			continue
		}
		if b.Category != Inline {
			t.Errorf("%s Category = %v, want Inline", name, b.Category)
		}
	}
}
