package infer

import (
	"fmt"
	"strings"

	"github.com/plasma-lang/plasmac/internal/coreir"
	"github.com/plasma-lang/plasmac/internal/diagnostics"
	"github.com/plasma-lang/plasmac/internal/ids"
	"github.com/plasma-lang/plasmac/internal/solver"
)

// constraintKind records why a constraint was posted, purely for
// documentation/debugging — solving itself only needs Var and Term.
type constraintKind int

const (
	kindBuiltin constraintKind = iota
	kindUserType
	kindAbstract
	kindAlias
)

type constraint struct {
	kind constraintKind
	v    solver.Var
	term solver.Type
	pos  coreir.Pos
}

// ictx (inference context) holds all per-function state for one pass
// of constraint posting: the var-name allocator, the program-variable
// scope, the memoized per-declaration type-variable maps, and the
// posted constraint list in document order. One ictx serves exactly
// one function (spec.md §4.2: each function is generalized/pinned
// before being used polymorphically at its call sites, so there is no
// need to share solver state across functions).
type ictx struct {
	core    *coreir.Core
	fn      *coreir.Function
	varScope map[coreir.Var]solver.Var
	nodeVars map[*coreir.Expr][]solver.Var

	// sigTVars maps this function's own declared type-variable names
	// (e.g. "t" in `t -> t`) to the solver var name standing for them.
	// Populated once, while translating the function's own signature.
	sigTVars map[string]string

	constraints []constraint
	exprCounter int
	varCounter  int
	genCounter  int

	cord *diagnostics.Cord
}

func newICtx(core *coreir.Core, fn *coreir.Function) *ictx {
	return &ictx{
		core:     core,
		fn:       fn,
		varScope: map[coreir.Var]solver.Var{},
		nodeVars: map[*coreir.Expr][]solver.Var{},
		sigTVars: map[string]string{},
		cord:     &diagnostics.Cord{},
	}
}

func (c *ictx) freshVar() solver.Var {
	c.varCounter++
	return solver.Var{Name: fmt.Sprintf("v(%d,%d)", c.fn.ID, c.varCounter)}
}

func (c *ictx) freshAbstractName(hint string) string {
	c.genCounter++
	return fmt.Sprintf("%s#%d.%d", hint, c.fn.ID, c.genCounter)
}

func (c *ictx) toDiagPos(p coreir.Pos) diagnostics.Pos {
	return diagnostics.Pos{File: p.File, Line: p.Line, Column: p.Column}
}

func (c *ictx) post(kind constraintKind, v solver.Var, term solver.Type, pos coreir.Pos) {
	c.constraints = append(c.constraints, constraint{kind: kind, v: v, term: term, pos: pos})
}

func (c *ictx) postBuiltin(v solver.Var, b coreir.Builtin, pos coreir.Pos) {
	c.post(kindBuiltin, v, solver.Builtin{Kind: b}, pos)
}

func (c *ictx) postUserType(v solver.Var, typeID ids.TypeID, name string, args []solver.Type, pos coreir.Pos) {
	c.post(kindUserType, v, solver.User{Type: typeID, Name: name, Args: args}, pos)
}

func (c *ictx) postAbstract(v solver.Var, tvarName string, pos coreir.Pos) {
	c.post(kindAbstract, v, solver.Abstract{TVarName: tvarName}, pos)
}

func (c *ictx) postAlias(a, b solver.Var, pos coreir.Pos) {
	c.post(kindAlias, a, b, pos)
}

// varsFor returns (allocating on first use) the solver vars standing
// for each of e's results; e.Info.Arity must already be set by
// InferArity.
func (c *ictx) varsFor(e *coreir.Expr) []solver.Var {
	if vars, ok := c.nodeVars[e]; ok {
		return vars
	}
	arity := e.Info.Arity
	if arity < 1 {
		arity = 1
	}
	c.exprCounter++
	num := c.exprCounter
	vars := make([]solver.Var, arity)
	for i := range vars {
		vars[i] = solver.Var{Name: fmt.Sprintf("tp_expr(%d,%d,%d)", c.fn.ID, num, i)}
	}
	c.nodeVars[e] = vars
	return vars
}

// translateInto posts the constraint(s) making v equal to t, resolving
// any TVar occurrence against tvars — a map scoped to one declaration
// (the function's own signature, or one call/construction site's
// fresh instantiation of a callee's or constructor's type parameters).
func (c *ictx) translateInto(v solver.Var, t coreir.Type, tvars map[string]string, pos coreir.Pos) {
	switch tt := t.(type) {
	case coreir.TBuiltin:
		c.postBuiltin(v, tt.Kind, pos)
	case coreir.TRef:
		args := make([]solver.Type, len(tt.Args))
		for i, a := range tt.Args {
			av := c.freshVar()
			c.translateInto(av, a, tvars, pos)
			args[i] = av
		}
		c.postUserType(v, tt.Type, tt.Name, args, pos)
	case coreir.TVar:
		name, ok := tvars[tt.Name]
		if !ok {
			name = c.freshAbstractName(tt.Name)
			tvars[tt.Name] = name
		}
		c.postAbstract(v, name, pos)
	default:
		c.cord.Add(diagnostics.NewInternal("infer", c.toDiagPos(pos), "unknown core type %T", t))
	}
}

// walkFunction posts every constraint for fn's signature and body.
func (c *ictx) walkFunction() {
	fn := c.fn
	for i, t := range fn.Signature.InputTypes {
		v := solver.Var{Name: fmt.Sprintf("tp_input(%d,%d)", fn.ID, i)}
		pos := bodyPos(fn)
		c.translateInto(v, t, c.sigTVars, pos)
		if fn.Body != nil && i < len(fn.Body.ParameterVars) {
			c.varScope[fn.Body.ParameterVars[i]] = v
		}
	}
	var outputVars []solver.Var
	for i, t := range fn.Signature.OutputTypes {
		v := solver.Var{Name: fmt.Sprintf("tp_output(%d,%d)", fn.ID, i)}
		c.translateInto(v, t, c.sigTVars, bodyPos(fn))
		outputVars = append(outputVars, v)
	}
	if fn.Body == nil {
		return
	}
	resultVars := c.walkExpr(fn.Body.Expr)
	for i, ov := range outputVars {
		if i < len(resultVars) {
			c.postAlias(ov, resultVars[i], fn.Body.Expr.Info.Pos)
		}
	}
}

func bodyPos(fn *coreir.Function) coreir.Pos {
	if fn.Body != nil {
		return fn.Body.Expr.Info.Pos
	}
	return coreir.Pos{}
}

// walkExpr posts constraints for e and every sub-expression, returning
// e's result vars.
func (c *ictx) walkExpr(e *coreir.Expr) []solver.Var {
	pos := e.Info.Pos
	switch k := e.Kind.(type) {
	case coreir.ESequence:
		var last []solver.Var
		for _, sub := range k.Exprs {
			last = c.walkExpr(sub)
		}
		rv := c.varsFor(e)
		for i, v := range rv {
			if i < len(last) {
				c.postAlias(v, last[i], pos)
			}
		}
		return rv

	case coreir.ELet:
		rhsVars := c.walkExpr(k.Rhs)
		for i, v := range k.Vars {
			if i < len(rhsVars) {
				c.varScope[v] = rhsVars[i]
			}
		}
		bodyVars := c.walkExpr(k.Body)
		rv := c.varsFor(e)
		for i, v := range rv {
			if i < len(bodyVars) {
				c.postAlias(v, bodyVars[i], pos)
			}
		}
		return rv

	case coreir.ETuple:
		rv := c.varsFor(e)
		for i, sub := range k.Exprs {
			subVars := c.walkExpr(sub)
			if i < len(rv) && len(subVars) > 0 {
				c.postAlias(rv[i], subVars[0], pos)
			}
		}
		return rv

	case coreir.ECall:
		fn := c.core.Functions[k.Func]
		rv := c.varsFor(e)
		if fn == nil {
			c.cord.Add(diagnostics.NewInternal("infer", c.toDiagPos(pos), "call to unknown function %v", k.Func))
			return rv
		}
		argVars := make([][]solver.Var, len(k.Args))
		for i, a := range k.Args {
			argVars[i] = c.walkExpr(a)
		}
		callTVars := map[string]string{}
		for i, inputType := range fn.Signature.InputTypes {
			if i >= len(argVars) || len(argVars[i]) == 0 {
				continue
			}
			v := c.freshVar()
			c.translateInto(v, inputType, callTVars, pos)
			c.postAlias(v, argVars[i][0], pos)
		}
		for i, outputType := range fn.Signature.OutputTypes {
			if i < len(rv) {
				c.translateInto(rv[i], outputType, callTVars, pos)
			}
		}
		return rv

	case coreir.EVar:
		rv := c.varsFor(e)
		if pv, ok := c.varScope[k.Var]; ok {
			c.postAlias(rv[0], pv, pos)
		} else {
			c.cord.Add(diagnostics.NewInternal("infer", c.toDiagPos(pos), "reference to unbound variable %v", k.Var))
		}
		return rv

	case coreir.EConstant:
		rv := c.varsFor(e)
		switch con := k.Const.(type) {
		case coreir.CString:
			c.postBuiltin(rv[0], coreir.BuiltinString, pos)
		case coreir.CNumber:
			c.postBuiltin(rv[0], coreir.BuiltinInt, pos)
		case coreir.CFunc:
			// Core has no function-type former (spec.md §3 lists only
			// builtin/type_ref/tvar); a c_func constant's identity is
			// its FuncID, so it's pinned abstract under a name unique
			// to that one function — it can only ever unify with
			// itself or a still-free var, never with an unrelated type.
			c.postAbstract(rv[0], fmt.Sprintf("$func:%d", con.Func), pos)
		case coreir.CCtor:
			ctor := c.core.Ctors[con.Ctor]
			if ctor == nil {
				c.cord.Add(diagnostics.NewInternal("infer", c.toDiagPos(pos), "constant of unknown ctor %v", con.Ctor))
				break
			}
			args := make([]solver.Type, len(ctor.TypeParameters))
			for i, tp := range ctor.TypeParameters {
				args[i] = solver.Abstract{TVarName: c.freshAbstractName(tp)}
			}
			name := ctor.Name
			if td := c.core.Types[ctor.Type]; td != nil {
				name = td.Name.String()
			}
			c.postUserType(rv[0], ctor.Type, name, args, pos)
		}
		return rv

	case coreir.EConstruction:
		ctor := c.core.Ctors[k.Ctor]
		rv := c.varsFor(e)
		if ctor == nil {
			c.cord.Add(diagnostics.NewInternal("infer", c.toDiagPos(pos), "construction of unknown ctor %v", k.Ctor))
			return rv
		}
		argVars := make([][]solver.Var, len(k.Args))
		for i, a := range k.Args {
			argVars[i] = c.walkExpr(a)
		}
		ctorTVars := map[string]string{}
		for i, field := range ctor.Fields {
			if i >= len(argVars) || len(argVars[i]) == 0 {
				continue
			}
			v := c.freshVar()
			c.translateInto(v, field.Type, ctorTVars, pos)
			c.postAlias(v, argVars[i][0], pos)
		}
		typeDef := c.core.Types[ctor.Type]
		args := make([]solver.Type, len(ctor.TypeParameters))
		for i, tp := range ctor.TypeParameters {
			name, ok := ctorTVars[tp]
			if !ok {
				name = c.freshAbstractName(tp)
				ctorTVars[tp] = name
			}
			args[i] = solver.Abstract{TVarName: name}
		}
		name := ctor.Name
		if typeDef != nil {
			name = typeDef.Name.String()
		}
		c.postUserType(rv[0], ctor.Type, name, args, pos)
		return rv

	case coreir.EMatch:
		rv := c.varsFor(e)
		scrutVar, ok := c.varScope[k.Scrutinee]
		if !ok {
			c.cord.Add(diagnostics.NewInternal("infer", c.toDiagPos(pos), "match scrutinee %v is unbound", k.Scrutinee))
			return rv
		}
		for _, mc := range k.Cases {
			c.bindPattern(mc.Pattern, scrutVar, pos)
			caseVars := c.walkExpr(mc.Body)
			for i, v := range rv {
				if i < len(caseVars) {
					c.postAlias(v, caseVars[i], mc.Body.Info.Pos)
				}
			}
		}
		return rv

	default:
		c.cord.Add(diagnostics.NewInternal("infer", c.toDiagPos(pos), "unknown expression kind %T", k))
		return c.varsFor(e)
	}
}

func (c *ictx) bindPattern(p coreir.Pattern, v solver.Var, pos coreir.Pos) {
	switch pp := p.(type) {
	case coreir.PVar:
		c.varScope[pp.Var] = v
	case coreir.PWildcard:
		// no binding, no constraint
	case coreir.PLiteralInt:
		c.postBuiltin(v, coreir.BuiltinInt, pos)
	case coreir.PCtor:
		ctor := c.core.Ctors[pp.Ctor]
		if ctor == nil {
			c.cord.Add(diagnostics.NewInternal("infer", c.toDiagPos(pos), "pattern for unknown ctor %v", pp.Ctor))
			return
		}
		patTVars := map[string]string{}
		args := make([]solver.Type, len(ctor.TypeParameters))
		for i, tp := range ctor.TypeParameters {
			name := c.freshAbstractName(tp)
			patTVars[tp] = name
			args[i] = solver.Abstract{TVarName: name}
		}
		typeDef := c.core.Types[ctor.Type]
		name := ctor.Name
		if typeDef != nil {
			name = typeDef.Name.String()
		}
		c.postUserType(v, ctor.Type, name, args, pos)
		for i, sub := range pp.Subs {
			if i >= len(ctor.Fields) {
				continue
			}
			fv := c.freshVar()
			c.translateInto(fv, ctor.Fields[i].Type, patTVars, pos)
			c.bindPattern(sub, fv, pos)
		}
	}
}

// solveAndLabel runs the propagation phase (plain left-to-right
// unification over every posted constraint — Plasma's core IR has no
// trait/witness resolution to make the teacher's multi-round fixpoint
// necessary) and then the two-phase labeling pass (spec.md §4.2):
// free solver variables not connected to the function's own signature
// are labeled first, then any remaining free signature-connected
// variables are labeled last, taking the function's own declared
// type-variable name when one applies. This order means an unrelated
// free local can never leak its invented name into the function's
// generalized signature.
func (c *ictx) solveAndLabel() solver.Subst {
	subst := solver.Subst{}
	for _, ct := range c.constraints {
		lhs := solver.Type(ct.v).Apply(subst)
		rhs := ct.term.Apply(subst)
		s, err := solver.Unify(lhs, rhs)
		if err != nil {
			code := diagnostics.ErrTypeMismatch
			if strings.HasPrefix(err.Error(), "infinite type") {
				code = diagnostics.ErrTypeOccursCheck
			}
			c.cord.Add(diagnostics.New(code, c.toDiagPos(ct.pos), "%s", err.Error()))
			continue
		}
		subst = s.Compose(subst)
	}

	allNames := map[string]bool{}
	sigNames := map[string]bool{}
	for i := range c.fn.Signature.InputTypes {
		sigNames[fmt.Sprintf("tp_input(%d,%d)", c.fn.ID, i)] = true
	}
	for i := range c.fn.Signature.OutputTypes {
		sigNames[fmt.Sprintf("tp_output(%d,%d)", c.fn.ID, i)] = true
	}
	declaredTVarNames := map[string]bool{}
	for _, scopedName := range c.sigTVars {
		declaredTVarNames[scopedName] = true
	}
	for _, ct := range c.constraints {
		allNames[ct.v.Name] = true
		if v, ok := ct.term.(solver.Var); ok {
			allNames[v.Name] = true
		}
	}

	repr := func(name string) string {
		seen := map[string]bool{}
		cur := name
		for {
			if seen[cur] {
				return cur
			}
			seen[cur] = true
			t, ok := subst[cur]
			if !ok {
				return cur
			}
			v, isVar := t.(solver.Var)
			if !isVar {
				return cur
			}
			cur = v.Name
		}
	}

	isSigConnected := func(name string) bool {
		return sigNames[name] || declaredTVarNames[name]
	}

	genLabel := 0
	labeled := map[string]bool{}

	// Phase 1: non-signature-connected free variables.
	for name := range allNames {
		r := repr(name)
		if labeled[r] {
			continue
		}
		if _, stillFree := subst[r]; stillFree {
			continue // resolved to something other than itself upstream
		}
		if isSigConnected(r) {
			continue // defer: this equivalence class touches the signature
		}
		genLabel++
		subst[r] = solver.Abstract{TVarName: fmt.Sprintf("gen#%d.%d", c.fn.ID, genLabel)}
		labeled[r] = true
	}

	// Phase 2: remaining free signature-connected variables.
	for name := range allNames {
		r := repr(name)
		if labeled[r] {
			continue
		}
		if _, stillFree := subst[r]; stillFree {
			continue
		}
		label := ""
		for orig, scoped := range c.sigTVars {
			if scoped == r {
				label = orig
				break
			}
		}
		if label == "" {
			genLabel++
			label = fmt.Sprintf("gen#%d.%d", c.fn.ID, genLabel)
		}
		subst[r] = solver.Abstract{TVarName: label}
		labeled[r] = true
	}

	return subst
}

func solverToCore(t solver.Type) coreir.Type {
	switch tt := t.(type) {
	case solver.Builtin:
		return coreir.TBuiltin{Kind: tt.Kind}
	case solver.User:
		args := make([]coreir.Type, len(tt.Args))
		for i, a := range tt.Args {
			args[i] = solverToCore(a)
		}
		return coreir.TRef{Type: tt.Type, Name: tt.Name, Args: args}
	case solver.Abstract:
		return coreir.TVar{Name: tt.TVarName}
	case solver.Var:
		return coreir.TVar{Name: tt.Name}
	default:
		return coreir.TVar{Name: "<unresolved>"}
	}
}

// attach walks the body once more (after solving), resolving every
// node's result vars through subst and recording them in CodeInfo.
func (c *ictx) attach(subst solver.Subst) {
	for e, vars := range c.nodeVars {
		types := make([]coreir.Type, len(vars))
		for i, v := range vars {
			resolved := solver.Type(v).Apply(subst)
			types[i] = solverToCore(resolved)
		}
		e.Info.ResultTypes = types
	}
}

// InferTypes runs type inference over every function not already
// marked failed (by InferArity or an earlier SCC in this same pass),
// processing singleton call-graph SCCs in dependency order so a
// callee's signature is always available, fully resolved, by the time
// its callers instantiate it polymorphically at each call site.
func InferTypes(core *coreir.Core, arity *Result) *Result {
	res := newResult()
	for fid, failed := range arity.Failed {
		if failed {
			res.Failed[fid] = true
		}
	}

	for _, scc := range core.SCCs() {
		if len(scc) != 1 {
			continue // already reported by InferArity
		}
		fid := scc[0]
		if res.Failed[fid] {
			continue
		}
		fn := core.Functions[fid]
		if fn == nil || fn.IsImported() {
			continue
		}
		c := newICtx(core, fn)
		c.walkFunction()
		if c.cord.HasInternalError() {
			res.Cord.Union(c.cord)
			res.Failed[fid] = true
			continue
		}
		subst := c.solveAndLabel()
		res.Cord.Union(c.cord)
		if !c.cord.IsEmpty() {
			res.Failed[fid] = true
			continue
		}
		c.attach(subst)
	}
	return res
}
