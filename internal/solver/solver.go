// Package solver implements the Herbrand-term unification engine used
// by arity+type inference (spec.md §2.2, §4.2). It is a deliberately
// narrow reading of the teacher's internal/typesystem engine
// (unify.go, types.go): the same Type/Subst/Unify/Bind/OccursCheck
// shapes, specialized to the three type forms Plasma's core IR
// actually has (builtin, type_ref, type variable) instead of funxy's
// full structural-type zoo (records, unions, traits, row
// polymorphism, rank-N quantifiers) — none of which the core IR in
// spec.md §3 has any use for.
package solver

import (
	"fmt"

	"github.com/plasma-lang/plasmac/internal/coreir"
	"github.com/plasma-lang/plasmac/internal/ids"
)

// Type is a solver-internal term: either a solver variable, a builtin
// scalar, or a user type applied to argument terms.
type Type interface {
	Apply(Subst) Type
	FreeVars() []string
	String() string
}

// Var is a named solver variable (spec.md §4.2: v_named(...)).
type Var struct {
	Name string
}

func (v Var) Apply(s Subst) Type {
	return applyWithCycleCheck(v, s, map[string]bool{})
}
func (v Var) FreeVars() []string { return []string{v.Name} }
func (v Var) String() string     { return v.Name }

// Builtin is a resolved built-in scalar type.
type Builtin struct {
	Kind coreir.Builtin
}

func (b Builtin) Apply(Subst) Type     { return b }
func (b Builtin) FreeVars() []string   { return nil }
func (b Builtin) String() string       { return b.Kind.String() }

// User is type_id(args...): a reference to a user-declared type
// applied to argument terms.
type User struct {
	Type ids.TypeID
	Name string // display name only
	Args []Type
}

func (u User) Apply(s Subst) Type {
	return applyWithCycleCheck(u, s, map[string]bool{})
}
func (u User) FreeVars() []string {
	var out []string
	for _, a := range u.Args {
		out = append(out, a.FreeVars()...)
	}
	return out
}
func (u User) String() string {
	if len(u.Args) == 0 {
		return u.Name
	}
	s := u.Name + "("
	for i, a := range u.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ")"
}

// Abstract is a type pinned to stay abstract, scoped to a type
// variable from the surface declaration (post_constraint_abstract).
// It never unifies with anything but itself or another Var.
type Abstract struct {
	TVarName string
}

func (a Abstract) Apply(Subst) Type   { return a }
func (a Abstract) FreeVars() []string { return nil }
func (a Abstract) String() string     { return a.TVarName }

// Subst is a substitution from solver variable names to terms.
type Subst map[string]Type

// Compose returns the substitution equivalent to applying s1 after s2.
func (s1 Subst) Compose(s2 Subst) Subst {
	out := Subst{}
	for k, v := range s2 {
		out[k] = v.Apply(s1)
	}
	for k, v := range s1 {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

func applyWithCycleCheck(t Type, s Subst, visited map[string]bool) Type {
	switch tt := t.(type) {
	case Var:
		if visited[tt.Name] {
			return tt
		}
		replacement, ok := s[tt.Name]
		if !ok {
			return tt
		}
		if rv, ok := replacement.(Var); ok && rv.Name == tt.Name {
			return tt
		}
		nv := make(map[string]bool, len(visited)+1)
		for k := range visited {
			nv[k] = true
		}
		nv[tt.Name] = true
		return applyWithCycleCheck(replacement, s, nv)
	case User:
		args := make([]Type, len(tt.Args))
		for i, a := range tt.Args {
			args[i] = applyWithCycleCheck(a, s, visited)
		}
		return User{Type: tt.Type, Name: tt.Name, Args: args}
	default:
		return t
	}
}

// Unify finds a substitution making t1 and t2 syntactically equal
// (Herbrand unification with occurs check). Unlike the teacher's
// engine, there is no "allow extra fields" width-subtyping mode:
// Plasma's core IR has no record/row types to subtype.
func Unify(t1, t2 Type) (Subst, error) {
	switch a := t1.(type) {
	case Var:
		return bind(a, t2)
	case Abstract:
		if b, ok := t2.(Abstract); ok && b.TVarName == a.TVarName {
			return Subst{}, nil
		}
		if v, ok := t2.(Var); ok {
			return bind(v, a)
		}
		return nil, fmt.Errorf("cannot unify abstract type %s with %s", a, t2)
	case Builtin:
		switch b := t2.(type) {
		case Var:
			return bind(b, a)
		case Builtin:
			if a.Kind == b.Kind {
				return Subst{}, nil
			}
			return nil, fmt.Errorf("type mismatch: %s vs %s", a, b)
		default:
			return nil, fmt.Errorf("type mismatch: %s vs %s", a, t2)
		}
	case User:
		switch b := t2.(type) {
		case Var:
			return bind(b, a)
		case User:
			if a.Type != b.Type {
				return nil, fmt.Errorf("type mismatch: %s vs %s", a, b)
			}
			if len(a.Args) != len(b.Args) {
				return nil, fmt.Errorf("type %s: argument count mismatch %d vs %d", a.Name, len(a.Args), len(b.Args))
			}
			s := Subst{}
			for i := range a.Args {
				arg1 := a.Args[i].Apply(s)
				arg2 := b.Args[i].Apply(s)
				s2, err := Unify(arg1, arg2)
				if err != nil {
					return nil, err
				}
				s = s2.Compose(s)
			}
			return s, nil
		default:
			return nil, fmt.Errorf("type mismatch: %s vs %s", a, t2)
		}
	default:
		return nil, fmt.Errorf("unknown solver type %T", t1)
	}
}

// bind binds a solver variable to a term, performing the occurs check
// to reject infinite types.
func bind(v Var, t Type) (Subst, error) {
	if tv, ok := t.(Var); ok && tv.Name == v.Name {
		return Subst{}, nil
	}
	for _, name := range t.FreeVars() {
		if name == v.Name {
			return nil, fmt.Errorf("infinite type: %s occurs in %s", v.Name, t)
		}
	}
	return Subst{v.Name: t}, nil
}
