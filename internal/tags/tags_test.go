package tags

import (
	"testing"

	"github.com/plasma-lang/plasmac/internal/coreir"
	"github.com/plasma-lang/plasmac/internal/ids"
	"github.com/plasma-lang/plasmac/internal/pzconfig"
)

// Bool = False | True: both nullary, so the whole type is a strict
// enum (spec.md §8's Bool tag-assignment scenario).
func TestAssignBoolIsConstantNoTag(t *testing.T) {
	core := coreir.New()
	typeID := core.NewTypeID()
	falseID := core.NewCtorID()
	trueID := core.NewCtorID()
	core.AddType(&coreir.TypeDef{ID: typeID, Name: ids.QualifiedName{"Bool"}})
	core.AddCtor(falseID, &coreir.Constructor{Type: typeID, Name: "False"})
	core.AddCtor(trueID, &coreir.Constructor{Type: typeID, Name: "True"})

	table, cord := Assign(core, pzconfig.Default())
	if !cord.IsEmpty() {
		t.Fatalf("unexpected diagnostics: %v", cord.Errors())
	}

	falseInfo := table[falseID]
	trueInfo := table[trueID]
	if falseInfo.Kind != KindConstantNoTag || falseInfo.WordBits != 0 {
		t.Errorf("False = %+v, want {Kind: KindConstantNoTag, WordBits: 0}", falseInfo)
	}
	if trueInfo.Kind != KindConstantNoTag || trueInfo.WordBits != 1 {
		t.Errorf("True = %+v, want {Kind: KindConstantNoTag, WordBits: 1}", trueInfo)
	}
}

// List(t) = Nil | Cons(t, List(t)): Nil is nullary (constant, primary
// tag 0), Cons has fields (tagged pointer, primary tag 1) — spec.md
// §8's List tag-assignment scenario.
func TestAssignListMixesConstantAndTaggedPointer(t *testing.T) {
	core := coreir.New()
	typeID := core.NewTypeID()
	nilID := core.NewCtorID()
	consID := core.NewCtorID()
	core.AddType(&coreir.TypeDef{ID: typeID, Name: ids.QualifiedName{"List"}, Arity: 1})
	core.AddCtor(nilID, &coreir.Constructor{Type: typeID, Name: "Nil"})
	core.AddCtor(consID, &coreir.Constructor{
		Type: typeID, Name: "Cons",
		Fields: []coreir.Field{{Name: "head"}, {Name: "tail"}},
	})

	table, cord := Assign(core, pzconfig.Default())
	if !cord.IsEmpty() {
		t.Fatalf("unexpected diagnostics: %v", cord.Errors())
	}

	nilInfo := table[nilID]
	consInfo := table[consID]
	if nilInfo.Kind != KindConstant || nilInfo.PrimaryTag != 0 || nilInfo.WordBits != 0 {
		t.Errorf("Nil = %+v, want {Kind: KindConstant, PrimaryTag: 0, WordBits: 0}", nilInfo)
	}
	if consInfo.Kind != KindTaggedPointer || consInfo.PrimaryTag != 1 {
		t.Errorf("Cons = %+v, want {Kind: KindTaggedPointer, PrimaryTag: 1}", consInfo)
	}
}

// A type with 5 non-nullary constructors overflows 2 ptag bits (4
// available primary tags) and must report the secondary-tag
// limitation rather than silently misencoding — spec.md §8's 5-ctor
// failure scenario.
func TestAssignFiveCtorsOverflowsPrimaryTags(t *testing.T) {
	core := coreir.New()
	typeID := core.NewTypeID()
	core.AddType(&coreir.TypeDef{ID: typeID, Name: ids.QualifiedName{"Five"}})

	var cids []ids.CtorID
	for i := 0; i < 5; i++ {
		cid := core.NewCtorID()
		core.AddCtor(cid, &coreir.Constructor{
			Type: typeID, Name: "C",
			Fields: []coreir.Field{{Name: "x"}},
		})
		cids = append(cids, cid)
	}

	table, cord := Assign(core, pzconfig.Default())
	if cord.IsEmpty() {
		t.Fatal("expected a DL-SECONDARY-TAG limitation diagnostic")
	}
	errs := cord.Errors()
	if errs[0].Code != "DL-SECONDARY-TAG" {
		t.Errorf("Code = %v, want DL-SECONDARY-TAG", errs[0].Code)
	}

	for _, cid := range cids {
		if _, ok := table[cid]; ok {
			t.Errorf("ctor %v should be omitted from the table after overflow", cid)
			break
		}
	}
}

func TestAssignDeterministicAcrossCalls(t *testing.T) {
	build := func() *coreir.Core {
		core := coreir.New()
		typeID := core.NewTypeID()
		core.AddType(&coreir.TypeDef{ID: typeID, Name: ids.QualifiedName{"Bool"}})
		falseID := core.NewCtorID()
		trueID := core.NewCtorID()
		core.AddCtor(falseID, &coreir.Constructor{Type: typeID, Name: "False"})
		core.AddCtor(trueID, &coreir.Constructor{Type: typeID, Name: "True"})
		return core
	}

	t1, _ := Assign(build(), pzconfig.Default())
	t2, _ := Assign(build(), pzconfig.Default())

	if len(t1) != len(t2) {
		t.Fatalf("table sizes differ: %d vs %d", len(t1), len(t2))
	}
	for cid, info := range t1 {
		if t2[cid] != info {
			t.Errorf("ctor %v: %+v vs %+v across identical runs", cid, info, t2[cid])
		}
	}
}
