package infer

import (
	"testing"

	"github.com/plasma-lang/plasmac/internal/builtins"
	"github.com/plasma-lang/plasmac/internal/coreir"
	"github.com/plasma-lang/plasmac/internal/ids"
)

func addIntFunc(table *builtins.Table, core *coreir.Core) ids.FuncID {
	for fid, fn := range core.Functions {
		if fn.Name.String() == "builtin.add_int" {
			return fid
		}
	}
	panic("builtin.add_int not found")
}

// f() -> Int = 1 + 2, spec.md §8's canonical arity/type scenario.
func buildOnePlusTwo(core *coreir.Core, table *builtins.Table) ids.FuncID {
	addInt := addIntFunc(table, core)
	intT := coreir.TBuiltin{Kind: coreir.BuiltinInt}

	fid := core.NewFuncID()
	body := coreir.NewExpr(coreir.ECall{
		Func: addInt,
		Args: []*coreir.Expr{
			coreir.NewExpr(coreir.EConstant{Const: coreir.CNumber{Value: 1}}, coreir.Pos{}),
			coreir.NewExpr(coreir.EConstant{Const: coreir.CNumber{Value: 2}}, coreir.Pos{}),
		},
	}, coreir.Pos{})

	core.AddFunction(&coreir.Function{
		ID:   fid,
		Name: ids.QualifiedName{"f"},
		Signature: coreir.FuncSig{
			OutputTypes:   []coreir.Type{intT},
			DeclaredArity: 1,
		},
		Body: &coreir.FuncBody{Expr: body},
	})
	return fid
}

func TestInferArityOnePlusTwo(t *testing.T) {
	core := coreir.New()
	table := builtins.Install(core)
	fid := buildOnePlusTwo(core, table)

	res := InferArity(core)
	if !res.Cord.IsEmpty() {
		t.Fatalf("unexpected diagnostics: %v", res.Cord.Errors())
	}
	if res.Failed[fid] {
		t.Fatal("f should not be marked failed")
	}
	fn := core.Functions[fid]
	if fn.Body.Expr.Info.Arity != 1 {
		t.Errorf("body arity = %d, want 1", fn.Body.Expr.Info.Arity)
	}
}

func TestInferArityDeclaredMismatchFails(t *testing.T) {
	core := coreir.New()
	table := builtins.Install(core)
	addInt := addIntFunc(table, core)

	fid := core.NewFuncID()
	body := coreir.NewExpr(coreir.ETuple{Exprs: []*coreir.Expr{
		coreir.NewExpr(coreir.ECall{Func: addInt, Args: []*coreir.Expr{
			coreir.NewExpr(coreir.EConstant{Const: coreir.CNumber{Value: 1}}, coreir.Pos{}),
			coreir.NewExpr(coreir.EConstant{Const: coreir.CNumber{Value: 2}}, coreir.Pos{}),
		}}, coreir.Pos{}),
	}}, coreir.Pos{})

	core.AddFunction(&coreir.Function{
		ID:        fid,
		Name:      ids.QualifiedName{"g"},
		Signature: coreir.FuncSig{DeclaredArity: 2}, // body produces a 1-tuple, declared says 2
		Body:      &coreir.FuncBody{Expr: body},
	})

	res := InferArity(core)
	if res.Cord.IsEmpty() {
		t.Fatal("expected an arity-mismatch diagnostic")
	}
	if !res.Failed[fid] {
		t.Error("g should be marked failed")
	}
}

func TestInferArityWrongArgCountFails(t *testing.T) {
	core := coreir.New()
	table := builtins.Install(core)
	addInt := addIntFunc(table, core)

	fid := core.NewFuncID()
	body := coreir.NewExpr(coreir.ECall{
		Func: addInt,
		Args: []*coreir.Expr{coreir.NewExpr(coreir.EConstant{Const: coreir.CNumber{Value: 1}}, coreir.Pos{})},
	}, coreir.Pos{})

	core.AddFunction(&coreir.Function{
		ID:        fid,
		Name:      ids.QualifiedName{"h"},
		Signature: coreir.FuncSig{DeclaredArity: 1},
		Body:      &coreir.FuncBody{Expr: body},
	})

	res := InferArity(core)
	if res.Cord.IsEmpty() {
		t.Fatal("expected a wrong-argument-count diagnostic")
	}
	if !res.Failed[fid] {
		t.Error("h should be marked failed")
	}
}

func TestInferArityMutualRecursionReportsLimitation(t *testing.T) {
	core := coreir.New()
	builtins.Install(core)

	aID := core.NewFuncID()
	bID := core.NewFuncID()
	core.AddFunction(&coreir.Function{
		ID:   aID,
		Name: ids.QualifiedName{"a"},
		Body: &coreir.FuncBody{Expr: coreir.NewExpr(coreir.ECall{Func: bID}, coreir.Pos{})},
	})
	core.AddFunction(&coreir.Function{
		ID:   bID,
		Name: ids.QualifiedName{"b"},
		Body: &coreir.FuncBody{Expr: coreir.NewExpr(coreir.ECall{Func: aID}, coreir.Pos{})},
	})

	res := InferArity(core)
	if res.Cord.IsEmpty() {
		t.Fatal("expected a mutual-recursion limitation diagnostic")
	}
	if !res.Failed[aID] || !res.Failed[bID] {
		t.Error("both mutually recursive functions should be marked failed")
	}
}
