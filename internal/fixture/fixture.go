// Package fixture is a stand-in for the front end spec.md places out
// of scope (concrete-syntax parsing, tokenizing, name resolution). It
// defines a YAML document shape that is a direct textual rendering of
// the Core IR model in spec.md §3 — functions, types, constructors,
// and expressions, named and already resolved — so that cmd/plasmac
// has something concrete to read end to end without reimplementing
// any part of the out-of-scope surface syntax.
//
// This is deliberately NOT a parser: it has no precedence, no infix
// operators, no layout rules, nothing a real front end would need to
// turn source text into this shape. It is the shape a real front end
// would already have produced.
//
// Grounded on the teacher's YAML-based module conventions
// (internal/evaluator/builtins_yaml.go uses gopkg.in/yaml.v3 for a
// structurally similar job: decoding a data document into typed Go
// values and resolving names against an existing environment).
package fixture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/plasma-lang/plasmac/internal/coreir"
	"github.com/plasma-lang/plasmac/internal/ids"
)

type document struct {
	Types     []typeDoc     `yaml:"types"`
	Resources []resourceDoc `yaml:"resources"`
	Functions []funcDoc     `yaml:"functions"`
}

type typeDoc struct {
	Name  string    `yaml:"name"`
	Arity int       `yaml:"arity"`
	Ctors []ctorDoc `yaml:"ctors"`
}

type ctorDoc struct {
	Name           string     `yaml:"name"`
	TypeParameters []string   `yaml:"type_parameters,omitempty"`
	Fields         []fieldDoc `yaml:"fields,omitempty"`
}

type fieldDoc struct {
	Name string     `yaml:"name"`
	Type typeRefDoc `yaml:"type"`
}

type typeRefDoc struct {
	Builtin string       `yaml:"builtin,omitempty"`
	Ref     string       `yaml:"ref,omitempty"`
	Args    []typeRefDoc `yaml:"args,omitempty"`
	TVar    string       `yaml:"tvar,omitempty"`
}

type resourceDoc struct {
	Name string `yaml:"name"`
}

type funcDoc struct {
	Name     string       `yaml:"name"`
	Inputs   []typeRefDoc `yaml:"inputs,omitempty"`
	Outputs  []typeRefDoc `yaml:"outputs,omitempty"`
	Uses     []string     `yaml:"uses,omitempty"`
	Observes []string     `yaml:"observes,omitempty"`
	Arity    int          `yaml:"arity"`
	Params   []string     `yaml:"params,omitempty"`
	Body     *exprDoc     `yaml:"body,omitempty"`
}

type exprDoc struct {
	Kind string `yaml:"kind"`
	Pos  posDoc `yaml:"pos,omitempty"`

	Exprs []*exprDoc `yaml:"exprs,omitempty"` // sequence, tuple

	Vars []string `yaml:"vars,omitempty"` // let
	Rhs  *exprDoc `yaml:"rhs,omitempty"`
	Body *exprDoc `yaml:"body,omitempty"`

	Func string     `yaml:"func,omitempty"` // call
	Args []*exprDoc `yaml:"args,omitempty"` // call, construction

	Var string `yaml:"var,omitempty"` // var reference

	Number *int64  `yaml:"number,omitempty"` // const_number
	String *string `yaml:"string,omitempty"` // const_string
	Ctor   string  `yaml:"ctor,omitempty"`   // const_ctor, construction

	Scrutinee string    `yaml:"scrutinee,omitempty"` // match
	Cases     []caseDoc `yaml:"cases,omitempty"`
}

type posDoc struct {
	Line   int `yaml:"line,omitempty"`
	Column int `yaml:"column,omitempty"`
}

type caseDoc struct {
	Pattern patternDoc `yaml:"pattern"`
	Body    *exprDoc   `yaml:"body"`
}

type patternDoc struct {
	Kind  string       `yaml:"kind"` // var, wildcard, literal_int, ctor
	Var   string       `yaml:"var,omitempty"`
	Value int64        `yaml:"value,omitempty"`
	Ctor  string       `yaml:"ctor,omitempty"`
	Subs  []patternDoc `yaml:"subs,omitempty"`
}

// Load reads a YAML fixture from path and adds every type, resource,
// and function it declares to core, resolving references (call
// targets, constructor names, resource names) against both core's
// pre-existing entries (the builtin table, typically) and the
// fixture's own declarations. Functions may call, construct, or
// otherwise reference anything declared anywhere in the same file
// (earlier or later) or already present in core.
func Load(path string, core *coreir.Core) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("fixture: reading %s: %w", path, err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("fixture: parsing %s: %w", path, err)
	}
	return build(&doc, path, core)
}

type builder struct {
	core *coreir.Core
	file string

	funcByName map[string]ids.FuncID
	typeIDByN  map[string]ids.TypeID
	ctorByName map[string]ids.CtorID
	resByName  map[string]ids.ResourceID
}

func build(doc *document, file string, core *coreir.Core) error {
	b := &builder{
		core:       core,
		file:       file,
		funcByName: map[string]ids.FuncID{},
		typeIDByN:  map[string]ids.TypeID{},
		ctorByName: map[string]ids.CtorID{},
		resByName:  map[string]ids.ResourceID{},
	}
	b.scanExisting()

	for _, td := range doc.Types {
		id := core.NewTypeID()
		b.typeIDByN[td.Name] = id
		for _, cd := range td.Ctors {
			b.ctorByName[cd.Name] = core.NewCtorID()
		}
	}
	for _, rd := range doc.Resources {
		id := core.NewResourceID()
		b.resByName[rd.Name] = id
		core.AddResource(&coreir.ResourceDef{ID: id, Name: ids.QualifiedName{rd.Name}})
	}
	for _, fd := range doc.Functions {
		b.funcByName[fd.Name] = core.NewFuncID()
	}

	for _, td := range doc.Types {
		typeID := b.typeIDByN[td.Name]
		core.AddType(&coreir.TypeDef{ID: typeID, Name: ids.QualifiedName{td.Name}, Arity: td.Arity})
		for _, cd := range td.Ctors {
			cid := b.ctorByName[cd.Name]
			fields := make([]coreir.Field, len(cd.Fields))
			for i, fdoc := range cd.Fields {
				t, err := b.resolveType(fdoc.Type)
				if err != nil {
					return fmt.Errorf("fixture: type %s ctor %s field %s: %w", td.Name, cd.Name, fdoc.Name, err)
				}
				fields[i] = coreir.Field{Name: fdoc.Name, Type: t}
			}
			core.AddCtor(cid, &coreir.Constructor{
				Type: typeID, Name: cd.Name, TypeParameters: cd.TypeParameters, Fields: fields,
			})
		}
	}

	for _, fd := range doc.Functions {
		if err := b.buildFunction(fd); err != nil {
			return fmt.Errorf("fixture: function %s: %w", fd.Name, err)
		}
	}
	return nil
}

// scanExisting indexes every type/ctor/function/resource already in
// core (typically the builtin table, installed before Load is
// called) by its display name, so fixture expressions can reference
// builtins by simple name (e.g. "add_int").
func (b *builder) scanExisting() {
	for id, t := range b.core.Types {
		b.typeIDByN[lastSegment(t.Name)] = id
	}
	for id, c := range b.core.Ctors {
		b.ctorByName[c.Name] = id
	}
	for id, fn := range b.core.Functions {
		b.funcByName[lastSegment(fn.Name)] = id
	}
	for id, r := range b.core.Resources {
		b.resByName[lastSegment(r.Name)] = id
	}
}

func lastSegment(q ids.QualifiedName) string {
	if len(q) == 0 {
		return ""
	}
	return q[len(q)-1]
}

func (b *builder) resolveType(t typeRefDoc) (coreir.Type, error) {
	switch {
	case t.Builtin != "":
		switch t.Builtin {
		case "int":
			return coreir.TBuiltin{Kind: coreir.BuiltinInt}, nil
		case "string":
			return coreir.TBuiltin{Kind: coreir.BuiltinString}, nil
		case "codepoint":
			return coreir.TBuiltin{Kind: coreir.BuiltinCodepoint}, nil
		default:
			return nil, fmt.Errorf("unknown builtin type %q", t.Builtin)
		}
	case t.Ref != "":
		typeID, ok := b.typeIDByN[t.Ref]
		if !ok {
			return nil, fmt.Errorf("reference to unknown type %q", t.Ref)
		}
		args := make([]coreir.Type, len(t.Args))
		for i, a := range t.Args {
			rt, err := b.resolveType(a)
			if err != nil {
				return nil, err
			}
			args[i] = rt
		}
		return coreir.TRef{Type: typeID, Name: t.Ref, Args: args}, nil
	case t.TVar != "":
		return coreir.TVar{Name: t.TVar}, nil
	default:
		return nil, fmt.Errorf("empty type reference")
	}
}

func (b *builder) buildFunction(fd funcDoc) error {
	fid := b.funcByName[fd.Name]
	inputs := make([]coreir.Type, len(fd.Inputs))
	for i, t := range fd.Inputs {
		rt, err := b.resolveType(t)
		if err != nil {
			return err
		}
		inputs[i] = rt
	}
	outputs := make([]coreir.Type, len(fd.Outputs))
	for i, t := range fd.Outputs {
		rt, err := b.resolveType(t)
		if err != nil {
			return err
		}
		outputs[i] = rt
	}
	uses, err := b.resolveResources(fd.Uses)
	if err != nil {
		return err
	}
	observes, err := b.resolveResources(fd.Observes)
	if err != nil {
		return err
	}

	fn := &coreir.Function{
		ID:   fid,
		Name: ids.QualifiedName{fd.Name},
		Signature: coreir.FuncSig{
			InputTypes: inputs, OutputTypes: outputs,
			UsesResources: uses, ObservesResources: observes,
			DeclaredArity: fd.Arity,
		},
	}

	if fd.Body != nil {
		var vm coreir.Varmap
		scope := map[string]coreir.Var{}
		params := make([]coreir.Var, len(fd.Params))
		for i, p := range fd.Params {
			v := vm.Fresh(p)
			scope[p] = v
			params[i] = v
		}
		expr, err := b.buildExpr(fd.Body, &vm, scope)
		if err != nil {
			return err
		}
		fn.Body = &coreir.FuncBody{Varmap: vm, ParameterVars: params, Expr: expr}
	}

	b.core.AddFunction(fn)
	return nil
}

func (b *builder) resolveResources(names []string) ([]ids.ResourceID, error) {
	out := make([]ids.ResourceID, len(names))
	for i, n := range names {
		id, ok := b.resByName[n]
		if !ok {
			return nil, fmt.Errorf("reference to unknown resource %q", n)
		}
		out[i] = id
	}
	return out, nil
}

func copyScope(s map[string]coreir.Var) map[string]coreir.Var {
	out := make(map[string]coreir.Var, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func (b *builder) pos(d posDoc) coreir.Pos {
	return coreir.Pos{File: b.file, Line: d.Line, Column: d.Column}
}

func (b *builder) buildExpr(e *exprDoc, vm *coreir.Varmap, scope map[string]coreir.Var) (*coreir.Expr, error) {
	pos := b.pos(e.Pos)
	switch e.Kind {
	case "sequence":
		subs, err := b.buildExprs(e.Exprs, vm, scope)
		if err != nil {
			return nil, err
		}
		return coreir.NewExpr(coreir.ESequence{Exprs: subs}, pos), nil

	case "let":
		if e.Rhs == nil || e.Body == nil {
			return nil, fmt.Errorf("let expression missing rhs or body")
		}
		rhs, err := b.buildExpr(e.Rhs, vm, scope)
		if err != nil {
			return nil, err
		}
		inner := copyScope(scope)
		vars := make([]coreir.Var, len(e.Vars))
		for i, name := range e.Vars {
			v := vm.Fresh(name)
			inner[name] = v
			vars[i] = v
		}
		body, err := b.buildExpr(e.Body, vm, inner)
		if err != nil {
			return nil, err
		}
		return coreir.NewExpr(coreir.ELet{Vars: vars, Rhs: rhs, Body: body}, pos), nil

	case "tuple":
		subs, err := b.buildExprs(e.Exprs, vm, scope)
		if err != nil {
			return nil, err
		}
		return coreir.NewExpr(coreir.ETuple{Exprs: subs}, pos), nil

	case "call":
		fid, ok := b.funcByName[e.Func]
		if !ok {
			return nil, fmt.Errorf("call to unknown function %q", e.Func)
		}
		args, err := b.buildExprs(e.Args, vm, scope)
		if err != nil {
			return nil, err
		}
		return coreir.NewExpr(coreir.ECall{Func: fid, Args: args}, pos), nil

	case "var":
		v, ok := scope[e.Var]
		if !ok {
			return nil, fmt.Errorf("reference to unbound variable %q", e.Var)
		}
		return coreir.NewExpr(coreir.EVar{Var: v}, pos), nil

	case "const_number":
		if e.Number == nil {
			return nil, fmt.Errorf("const_number missing number field")
		}
		return coreir.NewExpr(coreir.EConstant{Const: coreir.CNumber{Value: *e.Number}}, pos), nil

	case "const_string":
		if e.String == nil {
			return nil, fmt.Errorf("const_string missing string field")
		}
		return coreir.NewExpr(coreir.EConstant{Const: coreir.CString{Value: *e.String}}, pos), nil

	case "const_ctor":
		cid, ok := b.ctorByName[e.Ctor]
		if !ok {
			return nil, fmt.Errorf("reference to unknown constructor %q", e.Ctor)
		}
		return coreir.NewExpr(coreir.EConstant{Const: coreir.CCtor{Ctor: cid}}, pos), nil

	case "construction":
		cid, ok := b.ctorByName[e.Ctor]
		if !ok {
			return nil, fmt.Errorf("construction of unknown constructor %q", e.Ctor)
		}
		args, err := b.buildExprs(e.Args, vm, scope)
		if err != nil {
			return nil, err
		}
		return coreir.NewExpr(coreir.EConstruction{Ctor: cid, Args: args}, pos), nil

	case "match":
		scrut, ok := scope[e.Scrutinee]
		if !ok {
			return nil, fmt.Errorf("match scrutinee %q is unbound", e.Scrutinee)
		}
		cases := make([]coreir.MatchCase, len(e.Cases))
		for i, cd := range e.Cases {
			innerScope := copyScope(scope)
			pat, err := b.buildPattern(cd.Pattern, vm, innerScope)
			if err != nil {
				return nil, err
			}
			body, err := b.buildExpr(cd.Body, vm, innerScope)
			if err != nil {
				return nil, err
			}
			cases[i] = coreir.MatchCase{Pattern: pat, Body: body}
		}
		return coreir.NewExpr(coreir.EMatch{Scrutinee: scrut, Cases: cases}, pos), nil

	default:
		return nil, fmt.Errorf("unknown expression kind %q", e.Kind)
	}
}

func (b *builder) buildExprs(docs []*exprDoc, vm *coreir.Varmap, scope map[string]coreir.Var) ([]*coreir.Expr, error) {
	out := make([]*coreir.Expr, len(docs))
	for i, d := range docs {
		e, err := b.buildExpr(d, vm, scope)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// buildPattern builds a Pattern, adding any variable it binds (PVar,
// or nested PVars inside a PCtor) to scope.
func (b *builder) buildPattern(p patternDoc, vm *coreir.Varmap, scope map[string]coreir.Var) (coreir.Pattern, error) {
	switch p.Kind {
	case "var":
		v := vm.Fresh(p.Var)
		scope[p.Var] = v
		return coreir.PVar{Var: v}, nil
	case "wildcard":
		return coreir.PWildcard{}, nil
	case "literal_int":
		return coreir.PLiteralInt{Value: p.Value}, nil
	case "ctor":
		cid, ok := b.ctorByName[p.Ctor]
		if !ok {
			return nil, fmt.Errorf("pattern references unknown constructor %q", p.Ctor)
		}
		subs := make([]coreir.Pattern, len(p.Subs))
		for i, sp := range p.Subs {
			sub, err := b.buildPattern(sp, vm, scope)
			if err != nil {
				return nil, err
			}
			subs[i] = sub
		}
		return coreir.PCtor{Ctor: cid, Subs: subs}, nil
	default:
		return nil, fmt.Errorf("unknown pattern kind %q", p.Kind)
	}
}
