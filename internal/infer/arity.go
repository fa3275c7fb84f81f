// Package infer implements the two inference passes of spec.md §4.1
// and §4.2: arity inference (how many values each expression
// produces) and Hindley-Milner-style type inference over the
// Herbrand unification engine in internal/solver. Both are driven
// over the call graph's strongly connected components, callees before
// callers, exactly as the teacher's analyzer drives its own
// per-declaration inference (internal/analyzer/inference.go) — minus
// the trait/witness machinery Plasma's core IR has no use for.
package infer

import (
	"github.com/plasma-lang/plasmac/internal/coreir"
	"github.com/plasma-lang/plasmac/internal/diagnostics"
	"github.com/plasma-lang/plasmac/internal/ids"
)

// Result is what every pass in this package returns: the accumulated
// diagnostics plus the set of functions downstream passes must skip
// because this pass could not annotate them (spec.md §7: "Passes that
// depend on a failed predecessor are skipped for the affected
// function but the pipeline continues for other functions").
type Result struct {
	Cord   *diagnostics.Cord
	Failed map[ids.FuncID]bool
}

func newResult() *Result {
	return &Result{Cord: &diagnostics.Cord{}, Failed: map[ids.FuncID]bool{}}
}

// InferArity annotates every sub-expression's CodeInfo.Arity in every
// function reachable from a singleton call-graph SCC. Non-singleton
// SCCs (mutual recursion) are an acknowledged, explicitly out-of-scope
// extension point (spec.md §1, §9): each member is reported with a
// DL-MUTUAL-RECURSION diagnostic and marked failed so later passes
// skip it.
func InferArity(core *coreir.Core) *Result {
	core.ComputeSCCs()
	res := newResult()

	for _, scc := range core.SCCs() {
		if len(scc) > 1 {
			reportMutualRecursion(core, scc, res)
			continue
		}
		fid := scc[0]
		fn := core.Functions[fid]
		if fn == nil || fn.IsImported() {
			continue
		}
		w := &arityWalker{core: core, cord: res.Cord}
		bodyArity := w.walk(fn.Body.Expr)
		if w.failed {
			res.Failed[fid] = true
			continue
		}
		if bodyArity != fn.Signature.DeclaredArity {
			res.Cord.Add(diagnostics.New(
				diagnostics.ErrArityMismatchFunc,
				fn.Body.Expr.Info.Pos,
				"function %s: body has arity %d, declared arity is %d",
				fn.Name, bodyArity, fn.Signature.DeclaredArity,
			))
			res.Failed[fid] = true
		}
	}
	return res
}

func reportMutualRecursion(core *coreir.Core, scc []ids.FuncID, res *Result) {
	var pos diagnostics.Pos
	names := ""
	for i, fid := range scc {
		res.Failed[fid] = true
		fn := core.Functions[fid]
		if fn == nil {
			continue
		}
		if i > 0 {
			names += ", "
		}
		names += fn.Name.String()
		if i == 0 && fn.Body != nil {
			info := fn.Body.Expr.Info
			pos = diagnostics.Pos{File: info.Pos.File, Line: info.Pos.Line, Column: info.Pos.Column}
		}
	}
	res.Cord.Add(diagnostics.NewLimitation(
		diagnostics.ErrMutualRecursion, pos,
		"mutual recursion unimplemented: functions %s form a cycle of size %d", names, len(scc),
	))
}

// arityWalker computes CodeInfo.Arity bottom-up over one function
// body. It is not reused across functions (spec.md doesn't describe
// any cross-function state for this pass).
type arityWalker struct {
	core   *coreir.Core
	cord   *diagnostics.Cord
	failed bool
}

func (w *arityWalker) fail(pos coreir.Pos, code diagnostics.ErrorCode, format string, args ...any) {
	w.failed = true
	w.cord.Add(diagnostics.New(code, toDiagPos(pos), format, args...))
}

func toDiagPos(p coreir.Pos) diagnostics.Pos {
	return diagnostics.Pos{File: p.File, Line: p.Line, Column: p.Column}
}

// walk computes and records e.Info.Arity, returning it. On a local
// failure it records a diagnostic, marks the walker failed, and
// returns a stand-in arity (the callee's declared arity for a bad
// call, the first case's arity for disagreeing match cases, 1
// otherwise) so traversal can continue and surface further errors in
// the same function rather than stopping at the first one.
func (w *arityWalker) walk(e *coreir.Expr) int {
	if e == nil {
		return 0
	}
	arity := 1
	switch k := e.Kind.(type) {
	case coreir.ESequence:
		for i, sub := range k.Exprs {
			a := w.walk(sub)
			if i == len(k.Exprs)-1 {
				arity = a
			}
		}
	case coreir.ELet:
		w.walk(k.Rhs)
		arity = w.walk(k.Body)
	case coreir.ETuple:
		for _, sub := range k.Exprs {
			if a := w.walk(sub); a != 1 {
				w.fail(sub.Info.Pos, diagnostics.ErrArityArgNotSingle,
					"tuple element has arity %d, expected 1", a)
			}
		}
		arity = len(k.Exprs)
	case coreir.ECall:
		fn := w.core.Functions[k.Func]
		if fn == nil {
			w.fail(e.Info.Pos, diagnostics.ErrArityParameterNumber, "call to unknown function %v", k.Func)
			break
		}
		for _, arg := range k.Args {
			if a := w.walk(arg); a != 1 {
				w.fail(arg.Info.Pos, diagnostics.ErrArityArgNotSingle,
					"call argument has arity %d, expected 1", a)
			}
		}
		if len(k.Args) != len(fn.Signature.InputTypes) {
			w.fail(e.Info.Pos, diagnostics.ErrArityParameterNumber,
				"call to %s passes %d arguments, expects %d", fn.Name, len(k.Args), len(fn.Signature.InputTypes))
		}
		arity = fn.Signature.DeclaredArity
	case coreir.EVar, coreir.EConstant, coreir.EConstruction:
		if cons, ok := k.(coreir.EConstruction); ok {
			for _, arg := range cons.Args {
				if a := w.walk(arg); a != 1 {
					w.fail(arg.Info.Pos, diagnostics.ErrArityArgNotSingle,
						"construction argument has arity %d, expected 1", a)
				}
			}
		}
		arity = 1
	case coreir.EMatch:
		if len(k.Cases) == 0 {
			w.fail(e.Info.Pos, diagnostics.ErrArityMismatchCase, "match has no cases")
			break
		}
		first := -1
		for _, mc := range k.Cases {
			a := w.walk(mc.Body)
			if first == -1 {
				first = a
			} else if a != first {
				w.fail(mc.Body.Info.Pos, diagnostics.ErrArityMismatchCase,
					"match case bodies disagree on arity: %d vs %d", first, a)
			}
		}
		arity = first
	default:
		w.fail(e.Info.Pos, diagnostics.ErrInternal, "unknown expression kind %T", k)
	}
	e.Info.Arity = arity
	return arity
}
