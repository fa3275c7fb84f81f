package constdata

import (
	"testing"

	"github.com/plasma-lang/plasmac/internal/coreir"
	"github.com/plasma-lang/plasmac/internal/ids"
)

func strConst(s string) *coreir.Expr {
	return coreir.NewExpr(coreir.EConstant{Const: coreir.CString{Value: s}}, coreir.Pos{File: "f.yaml", Line: 1})
}

func TestInternDeduplicatesByValue(t *testing.T) {
	core := coreir.New()
	fid := core.NewFuncID()
	body := coreir.NewExpr(coreir.ETuple{Exprs: []*coreir.Expr{
		strConst("hello"),
		strConst("hello"),
		strConst("world"),
	}}, coreir.Pos{})
	core.AddFunction(&coreir.Function{ID: fid, Name: ids.QualifiedName{"f"}, Body: &coreir.FuncBody{Expr: body}})

	var alloc ids.Allocator[ids.DataID]
	table, cord := Intern(core, &alloc)
	if !cord.IsEmpty() {
		t.Fatalf("unexpected diagnostics: %v", cord.Errors())
	}
	if len(table.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2 (hello, world deduplicated)", len(table.Entries))
	}

	helloID, ok := table.Lookup("hello")
	if !ok {
		t.Fatal("Lookup(hello) missing")
	}
	worldID, ok := table.Lookup("world")
	if !ok {
		t.Fatal("Lookup(world) missing")
	}
	if helloID == worldID {
		t.Error("hello and world should get distinct data ids")
	}
}

func TestInternTrailingNUL(t *testing.T) {
	core := coreir.New()
	fid := core.NewFuncID()
	core.AddFunction(&coreir.Function{ID: fid, Name: ids.QualifiedName{"f"}, Body: &coreir.FuncBody{Expr: strConst("hi")}})

	var alloc ids.Allocator[ids.DataID]
	table, _ := Intern(core, &alloc)
	if len(table.Entries) != 1 {
		t.Fatalf("len(Entries) = %d, want 1", len(table.Entries))
	}
	want := []byte{'h', 'i', 0}
	got := table.Entries[0].Bytes
	if string(got) != string(want) {
		t.Errorf("Bytes = %v, want %v", got, want)
	}
}

func TestInternRejectsNonASCII(t *testing.T) {
	core := coreir.New()
	fid := core.NewFuncID()
	core.AddFunction(&coreir.Function{ID: fid, Name: ids.QualifiedName{"f"}, Body: &coreir.FuncBody{Expr: strConst("café")}})

	var alloc ids.Allocator[ids.DataID]
	table, cord := Intern(core, &alloc)
	if cord.IsEmpty() {
		t.Fatal("expected a DL-NON-ASCII-STRING diagnostic")
	}
	if len(table.Entries) != 0 {
		t.Errorf("rejected string should not be interned, got %d entries", len(table.Entries))
	}
}

func TestInternIsDeterministicAcrossFunctionOrder(t *testing.T) {
	build := func() *coreir.Core {
		core := coreir.New()
		fidA := core.NewFuncID()
		fidB := core.NewFuncID()
		core.AddFunction(&coreir.Function{ID: fidB, Name: ids.QualifiedName{"b"}, Body: &coreir.FuncBody{Expr: strConst("second")}})
		core.AddFunction(&coreir.Function{ID: fidA, Name: ids.QualifiedName{"a"}, Body: &coreir.FuncBody{Expr: strConst("first")}})
		return core
	}

	var alloc1, alloc2 ids.Allocator[ids.DataID]
	t1, _ := Intern(build(), &alloc1)
	t2, _ := Intern(build(), &alloc2)

	if len(t1.Entries) != len(t2.Entries) {
		t.Fatalf("entry counts differ: %d vs %d", len(t1.Entries), len(t2.Entries))
	}
	for i := range t1.Entries {
		if string(t1.Entries[i].Bytes) != string(t2.Entries[i].Bytes) {
			t.Errorf("entry %d differs: %q vs %q", i, t1.Entries[i].Bytes, t2.Entries[i].Bytes)
		}
	}
}
