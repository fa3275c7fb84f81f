package solver

import (
	"testing"

	"github.com/plasma-lang/plasmac/internal/coreir"
	"github.com/plasma-lang/plasmac/internal/ids"
)

func TestUnifyBuiltinWithItself(t *testing.T) {
	s, err := Unify(Builtin{Kind: coreir.BuiltinInt}, Builtin{Kind: coreir.BuiltinInt})
	if err != nil {
		t.Fatalf("Unify(Int, Int) returned error: %v", err)
	}
	if len(s) != 0 {
		t.Errorf("expected empty substitution, got %v", s)
	}
}

func TestUnifyBuiltinMismatch(t *testing.T) {
	_, err := Unify(Builtin{Kind: coreir.BuiltinInt}, Builtin{Kind: coreir.BuiltinString})
	if err == nil {
		t.Fatal("Unify(Int, String) should fail")
	}
}

func TestUnifyVarBindsToBuiltin(t *testing.T) {
	s, err := Unify(Var{Name: "t0"}, Builtin{Kind: coreir.BuiltinInt})
	if err != nil {
		t.Fatalf("Unify(t0, Int) returned error: %v", err)
	}
	got, ok := s["t0"]
	if !ok {
		t.Fatalf("substitution missing t0: %v", s)
	}
	if got.String() != "int" {
		t.Errorf("s[t0] = %v, want int", got)
	}
}

func TestUnifyOccursCheckRejectsInfiniteType(t *testing.T) {
	listID := ids.TypeID(1)
	selfRef := User{Type: listID, Name: "List", Args: []Type{Var{Name: "t0"}}}
	_, err := Unify(Var{Name: "t0"}, selfRef)
	if err == nil {
		t.Fatal("Unify(t0, List(t0)) should fail the occurs check")
	}
}

func TestUnifyUserTypeArgsRecursively(t *testing.T) {
	listID := ids.TypeID(1)
	a := User{Type: listID, Name: "List", Args: []Type{Var{Name: "t0"}}}
	b := User{Type: listID, Name: "List", Args: []Type{Builtin{Kind: coreir.BuiltinInt}}}

	s, err := Unify(a, b)
	if err != nil {
		t.Fatalf("Unify(List(t0), List(Int)) returned error: %v", err)
	}
	if got := s["t0"]; got == nil || got.String() != "int" {
		t.Errorf("s[t0] = %v, want int", got)
	}
}

func TestUnifyUserTypeConstructorMismatch(t *testing.T) {
	listID := ids.TypeID(1)
	optionID := ids.TypeID(2)
	a := User{Type: listID, Name: "List", Args: []Type{Builtin{Kind: coreir.BuiltinInt}}}
	b := User{Type: optionID, Name: "Option", Args: []Type{Builtin{Kind: coreir.BuiltinInt}}}

	if _, err := Unify(a, b); err == nil {
		t.Fatal("Unify(List(Int), Option(Int)) should fail: different type constructors")
	}
}

func TestUnifyAbstractRejectsNonVar(t *testing.T) {
	a := Abstract{TVarName: "t"}
	if _, err := Unify(a, Builtin{Kind: coreir.BuiltinInt}); err == nil {
		t.Fatal("Abstract type should not unify with a concrete builtin")
	}
	if _, err := Unify(a, Abstract{TVarName: "t"}); err != nil {
		t.Fatalf("Abstract should unify with itself: %v", err)
	}
}

func TestSubstComposeAppliesInOrder(t *testing.T) {
	s2 := Subst{"t0": Var{Name: "t1"}}
	s1 := Subst{"t1": Builtin{Kind: coreir.BuiltinInt}}

	composed := s1.Compose(s2)
	got, ok := composed["t0"]
	if !ok {
		t.Fatalf("composed substitution missing t0: %v", composed)
	}
	if got.String() != "int" {
		t.Errorf("composed[t0] = %v, want int (t0 -> t1 -> Int)", got)
	}
}

func TestVarApplyFollowsChain(t *testing.T) {
	s := Subst{"t0": Var{Name: "t1"}, "t1": Builtin{Kind: coreir.BuiltinString}}
	got := Var{Name: "t0"}.Apply(s)
	if got.String() != "string" {
		t.Errorf("t0.Apply(s) = %v, want string", got)
	}
}
