// Package coreir implements the typed, named core intermediate
// representation shared by every pass in this compiler (spec.md §3):
// the Core module, its Type/Constructor/Function/Expr data model, and
// the four structural invariants every well-formed Core must satisfy.
package coreir

import (
	"fmt"

	"github.com/plasma-lang/plasmac/internal/ids"
)

// Core is a mapping from ids to their definitions, with four
// sub-tables (functions, types, constructors, resources) plus the
// call-graph topological order once computed. It is created empty by
// the driver, populated incrementally by the front end (here, by
// internal/fixture), and threaded through each pass as an
// immutable-with-updates value: a pass may add entries or update a
// function's body, but must never remove an id.
type Core struct {
	funcAlloc     ids.Allocator[ids.FuncID]
	typeAlloc     ids.Allocator[ids.TypeID]
	ctorAlloc     ids.Allocator[ids.CtorID]
	resourceAlloc ids.Allocator[ids.ResourceID]

	Functions map[ids.FuncID]*Function
	Types     map[ids.TypeID]*TypeDef
	Ctors     map[ids.CtorID]*Constructor
	Resources map[ids.ResourceID]*ResourceDef

	sccs [][]ids.FuncID // set by ComputeSCCs; nil until then
}

// New returns an empty Core ready for incremental population.
func New() *Core {
	return &Core{
		Functions: make(map[ids.FuncID]*Function),
		Types:     make(map[ids.TypeID]*TypeDef),
		Ctors:     make(map[ids.CtorID]*Constructor),
		Resources: make(map[ids.ResourceID]*ResourceDef),
	}
}

// NewFuncID allocates a fresh FuncID. Callers pass it as fn.ID before
// registering fn with AddFunction.
func (c *Core) NewFuncID() ids.FuncID { return c.funcAlloc.Next() }

// NewTypeID allocates a fresh TypeID.
func (c *Core) NewTypeID() ids.TypeID { return c.typeAlloc.Next() }

// NewCtorID allocates a fresh CtorID.
func (c *Core) NewCtorID() ids.CtorID { return c.ctorAlloc.Next() }

// NewResourceID allocates a fresh ResourceID.
func (c *Core) NewResourceID() ids.ResourceID { return c.resourceAlloc.Next() }

// AddFunction registers fn (whose ID must already be allocated via
// NewFuncID) in the function table.
func (c *Core) AddFunction(fn *Function) {
	c.Functions[fn.ID] = fn
}

// AddType registers a type definition.
func (c *Core) AddType(t *TypeDef) {
	c.Types[t.ID] = t
}

// AddCtor registers a constructor, appending its id to its owning
// type's Ctors list in declaration order.
func (c *Core) AddCtor(id ids.CtorID, ctor *Constructor) {
	c.Ctors[id] = ctor
	if t, ok := c.Types[ctor.Type]; ok {
		t.Ctors = append(t.Ctors, id)
	}
}

// AddResource registers a resource.
func (c *Core) AddResource(r *ResourceDef) {
	c.Resources[r.ID] = r
}

// SCCs returns the call-graph's strongly connected components in
// dependency order (callees before callers), computed by the most
// recent call to ComputeSCCs. Exposed as a first-class result (not
// just an inference-driver internal) so the CLI can name every member
// of a rejected mutual-recursion SCC precisely.
func (c *Core) SCCs() [][]ids.FuncID {
	return c.sccs
}

// Validate checks the four structural invariants of spec.md §3:
//   - every CtorID referenced in a type belongs to that type
//   - every FuncID mentioned in an expression exists in the function table
//   - every ResourceID named in a function signature exists in the
//     resource table
//   - (transitively, via validateExpr) every e_match pattern is
//     well-formed: its CtorID exists, its sub-pattern count matches that
//     constructor's field count, and it binds every variable it
//     introduces with pattern variables disjoint from the ones already
//     bound in scope. Whether the CtorID belongs to the scrutinee's type
//     is not checked here.
func (c *Core) Validate() error {
	for typeID, t := range c.Types {
		for _, cid := range t.Ctors {
			ctor, ok := c.Ctors[cid]
			if !ok {
				return fmt.Errorf("coreir: type %v references unknown ctor %v", typeID, cid)
			}
			if ctor.Type != typeID {
				return fmt.Errorf("coreir: ctor %v claims type %v, but is listed under type %v", cid, ctor.Type, typeID)
			}
		}
	}

	for fid, fn := range c.Functions {
		for _, rid := range fn.Signature.UsesResources {
			if _, ok := c.Resources[rid]; !ok {
				return fmt.Errorf("coreir: function %v uses unknown resource %v", fid, rid)
			}
		}
		for _, rid := range fn.Signature.ObservesResources {
			if _, ok := c.Resources[rid]; !ok {
				return fmt.Errorf("coreir: function %v observes unknown resource %v", fid, rid)
			}
		}
		if fn.Body != nil {
			if err := c.validateExpr(fn.Body.Expr, nil); err != nil {
				return fmt.Errorf("coreir: function %v: %w", fid, err)
			}
		}
	}
	return nil
}

func (c *Core) validateExpr(e *Expr, bound map[Var]bool) error {
	if e == nil {
		return fmt.Errorf("nil expression")
	}
	switch k := e.Kind.(type) {
	case ESequence:
		for _, sub := range k.Exprs {
			if err := c.validateExpr(sub, bound); err != nil {
				return err
			}
		}
	case ELet:
		if err := c.validateExpr(k.Rhs, bound); err != nil {
			return err
		}
		inner := extendBound(bound, k.Vars...)
		if err := c.validateExpr(k.Body, inner); err != nil {
			return err
		}
	case ETuple:
		for _, sub := range k.Exprs {
			if err := c.validateExpr(sub, bound); err != nil {
				return err
			}
		}
	case ECall:
		fn, ok := c.Functions[k.Func]
		if !ok {
			return fmt.Errorf("call references unknown function %v", k.Func)
		}
		if len(k.Args) != len(fn.Signature.InputTypes) {
			return fmt.Errorf("call to %v passes %d args, expected %d", k.Func, len(k.Args), len(fn.Signature.InputTypes))
		}
		for _, arg := range k.Args {
			if err := c.validateExpr(arg, bound); err != nil {
				return err
			}
		}
	case EVar:
		// Variable scoping for EVar references into the enclosing
		// function's parameter/let-bound vars is checked by the
		// inference passes (which have the full scope map); Validate
		// only checks the structural, type-independent invariants.
	case EConstant:
		if cf, ok := k.Const.(CFunc); ok {
			if _, ok := c.Functions[cf.Func]; !ok {
				return fmt.Errorf("function constant references unknown function %v", cf.Func)
			}
		}
	case EConstruction:
		ctor, ok := c.Ctors[k.Ctor]
		if !ok {
			return fmt.Errorf("construction references unknown ctor %v", k.Ctor)
		}
		if len(k.Args) != len(ctor.Fields) {
			return fmt.Errorf("construction of %s passes %d args, expected %d fields", ctor.Name, len(k.Args), len(ctor.Fields))
		}
		for _, arg := range k.Args {
			if err := c.validateExpr(arg, bound); err != nil {
				return err
			}
		}
	case EMatch:
		if len(k.Cases) == 0 {
			return fmt.Errorf("match has no cases")
		}
		for _, mc := range k.Cases {
			if err := c.validatePattern(mc.Pattern, bound); err != nil {
				return err
			}
			inner := extendBound(bound, mc.Pattern.BoundVars()...)
			if err := c.validateExpr(mc.Body, inner); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown expression kind %T", k)
	}
	return nil
}

func (c *Core) validatePattern(p Pattern, bound map[Var]bool) error {
	seen := map[Var]bool{}
	var walk func(Pattern) error
	walk = func(p Pattern) error {
		switch pp := p.(type) {
		case PCtor:
			ctor, ok := c.Ctors[pp.Ctor]
			if !ok {
				return fmt.Errorf("pattern references unknown ctor %v", pp.Ctor)
			}
			if len(pp.Subs) != len(ctor.Fields) {
				return fmt.Errorf("pattern for %s has %d sub-patterns, expected %d", ctor.Name, len(pp.Subs), len(ctor.Fields))
			}
			for _, sub := range pp.Subs {
				if err := walk(sub); err != nil {
					return err
				}
			}
		case PVar:
			if bound[pp.Var] || seen[pp.Var] {
				return fmt.Errorf("pattern variable %v is not disjoint from outer scope", pp.Var)
			}
			seen[pp.Var] = true
		}
		return nil
	}
	return walk(p)
}

func extendBound(bound map[Var]bool, vars ...Var) map[Var]bool {
	out := make(map[Var]bool, len(bound)+len(vars))
	for k, v := range bound {
		out[k] = v
	}
	for _, v := range vars {
		out[v] = true
	}
	return out
}
