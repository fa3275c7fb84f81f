package diagnostics

import "testing"

func TestPosString(t *testing.T) {
	tests := []struct {
		name string
		pos  Pos
		want string
	}{
		{"file and line", Pos{File: "f.yaml", Line: 12}, "f.yaml:12"},
		{"file only", Pos{File: "f.yaml"}, "f.yaml"},
		{"unknown", Pos{}, "<unknown>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pos.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewConstructsCompileError(t *testing.T) {
	d := New(ErrTypeMismatch, Pos{File: "f.yaml", Line: 3}, "cannot unify %s with %s", "Int", "String")
	if d.Kind != KindCompileError {
		t.Errorf("Kind = %v, want KindCompileError", d.Kind)
	}
	if d.Code != ErrTypeMismatch {
		t.Errorf("Code = %v, want %v", d.Code, ErrTypeMismatch)
	}
	want := "cannot unify Int with String"
	if d.Msg != want {
		t.Errorf("Msg = %q, want %q", d.Msg, want)
	}
}

func TestNewInternalTagsPass(t *testing.T) {
	d := NewInternal("infer.types", Pos{}, "substitution cycle on %s", "t3")
	if d.Kind != KindInternalError {
		t.Errorf("Kind = %v, want KindInternalError", d.Kind)
	}
	want := "internal error in infer.types: substitution cycle on t3"
	if d.Msg != want {
		t.Errorf("Msg = %q, want %q", d.Msg, want)
	}
}

func TestCordHasInternalError(t *testing.T) {
	c := &Cord{}
	c.Add(New(ErrTypeMismatch, Pos{}, "boom"))
	if c.HasInternalError() {
		t.Fatal("HasInternalError() = true with only a compile error")
	}
	c.Add(NewInternal("gen", Pos{}, "boom"))
	if !c.HasInternalError() {
		t.Fatal("HasInternalError() = false after adding an internal error")
	}
}

func TestCordIsEmpty(t *testing.T) {
	c := &Cord{}
	if !c.IsEmpty() {
		t.Fatal("fresh Cord should be empty")
	}
	c.Add(New(ErrTypeMismatch, Pos{}, "boom"))
	if c.IsEmpty() {
		t.Fatal("Cord with one diagnostic should not be empty")
	}
}

func TestCordUnionPreservesOrder(t *testing.T) {
	a := &Cord{}
	a.Add(New(ErrArityParameterNumber, Pos{}, "first"))
	b := &Cord{}
	b.Add(New(ErrArityArgNotSingle, Pos{}, "second"))

	a.Union(b)

	errs := a.Errors()
	if len(errs) != 2 {
		t.Fatalf("len(Errors()) = %d, want 2", len(errs))
	}
	if errs[0].Msg != "first" || errs[1].Msg != "second" {
		t.Errorf("Union did not preserve order: got %q, %q", errs[0].Msg, errs[1].Msg)
	}
}

func TestCordUnionNilIsNoOp(t *testing.T) {
	a := &Cord{}
	a.Add(New(ErrArityParameterNumber, Pos{}, "only"))
	a.Union(nil)
	if len(a.Errors()) != 1 {
		t.Fatalf("Union(nil) changed the cord: len = %d", len(a.Errors()))
	}
}
