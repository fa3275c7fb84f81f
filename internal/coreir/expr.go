package coreir

import "github.com/plasma-lang/plasmac/internal/ids"

// Var is an opaque handle to a program variable, fresh-allocated by a
// Varmap. It is not a display name; a Varmap resolves it to one.
type Var int

// Pos is a source location, threaded from the front end (or, in this
// repo, from internal/fixture) so diagnostics can point at real
// source context.
type Pos struct {
	File   string
	Line   int
	Column int
}

// CodeInfo records the source context of an expression plus the two
// fields populated by later passes: Arity (§4.1) and ResultTypes
// (§4.2). Arity is -1 and ResultTypes nil until their pass has run.
type CodeInfo struct {
	Pos Pos

	// Arity is the number of values this expression produces. Set by
	// arity inference; -1 means "not yet annotated".
	Arity int

	// ResultTypes holds one Type per result, once type inference has
	// run. len(ResultTypes) == Arity when populated.
	ResultTypes []Type
}

// NewCodeInfo returns a CodeInfo for the given position, with Arity
// left unannotated.
func NewCodeInfo(pos Pos) CodeInfo {
	return CodeInfo{Pos: pos, Arity: -1}
}

// Constant is a literal value embedded in an expression.
type Constant interface {
	isConstant()
}

type CString struct{ Value string }
type CNumber struct{ Value int64 }
type CFunc struct{ Func ids.FuncID }
type CCtor struct{ Ctor ids.CtorID }

func (CString) isConstant() {}
func (CNumber) isConstant() {}
func (CFunc) isConstant()   {}
func (CCtor) isConstant()   {}

// ExprKind is the tagged variant of a core expression's shape
// (spec.md §3). Exactly these eight kinds exist.
type ExprKind interface {
	isExprKind()
}

// ESequence: value is the value of its last element; exprs is non-empty.
type ESequence struct{ Exprs []*Expr }

// ELet: bind the results of Rhs to Vars, evaluate Body.
type ELet struct {
	Vars []Var
	Rhs  *Expr
	Body *Expr
}

// ETuple: tuple of sub-expressions.
type ETuple struct{ Exprs []*Expr }

// ECall: saturated call; each arg carries exactly one result.
type ECall struct {
	Func ids.FuncID
	Args []*Expr
}

// EVar: reference to a program variable.
type EVar struct{ Var Var }

// EConstant: a literal constant.
type EConstant struct{ Const Constant }

// EConstruction: build a value of an algebraic type.
type EConstruction struct {
	Ctor ids.CtorID
	Args []*Expr
}

// EMatch: dispatch on Scrutinee's value against an ordered, non-empty
// list of (pattern, body) cases.
type EMatch struct {
	Scrutinee Var
	Cases     []MatchCase
}

type MatchCase struct {
	Pattern Pattern
	Body    *Expr
}

func (ESequence) isExprKind()    {}
func (ELet) isExprKind()         {}
func (ETuple) isExprKind()       {}
func (ECall) isExprKind()        {}
func (EVar) isExprKind()         {}
func (EConstant) isExprKind()    {}
func (EConstruction) isExprKind() {}
func (EMatch) isExprKind()       {}

// Expr is expr(expr_type, code_info): a tagged-variant expression node
// carrying its source context, and (once the relevant passes have run)
// its arity and per-result types.
type Expr struct {
	Kind ExprKind
	Info CodeInfo
}

// NewExpr wraps kind with a fresh, unannotated CodeInfo at pos.
func NewExpr(kind ExprKind, pos Pos) *Expr {
	return &Expr{Kind: kind, Info: NewCodeInfo(pos)}
}

// Pattern is a case pattern in an EMatch. Exactly four shapes exist
// (spec.md §3): variable-binding, wildcard, literal integer, or a
// constructor pattern over sub-patterns.
type Pattern interface {
	isPattern()
	// BoundVars returns every variable this pattern introduces.
	BoundVars() []Var
}

type PVar struct{ Var Var }
type PWildcard struct{}
type PLiteralInt struct{ Value int64 }
type PCtor struct {
	Ctor ids.CtorID
	Subs []Pattern
}

func (PVar) isPattern()        {}
func (PWildcard) isPattern()   {}
func (PLiteralInt) isPattern() {}
func (PCtor) isPattern()       {}

func (p PVar) BoundVars() []Var        { return []Var{p.Var} }
func (PWildcard) BoundVars() []Var     { return nil }
func (PLiteralInt) BoundVars() []Var   { return nil }
func (p PCtor) BoundVars() []Var {
	var vars []Var
	for _, sub := range p.Subs {
		vars = append(vars, sub.BoundVars()...)
	}
	return vars
}
