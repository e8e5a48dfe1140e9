package ast

import (
	"fmt"

	"github.com/cottand/tlbc/frontend/lattice"
)

// Namer resolves interned identifiers
type Namer interface {
	SymName(id SymId) string
}

// Arena owns every expression, constructor and type of a compilation.
// Nodes refer to each other through NodeId, ConsId and TypeId handles
// and are never freed individually.
type Arena struct {
	exprs        []TypeExpr
	Types        []*Type
	Constructors []*Constructor
	Names        Namer

	lastDeclared int
}

func NewArena(names Namer) *Arena {
	return &Arena{
		exprs: []TypeExpr{nil},
		Names: names,
	}
}

// Add stores e in the arena
func (a *Arena) Add(e TypeExpr) NodeId {
	a.exprs = append(a.exprs, e)
	return NodeId(len(a.exprs) - 1)
}

func (a *Arena) Node(id NodeId) TypeExpr {
	return a.exprs[id]
}

func (a *Arena) Info(id NodeId) *ExprInfo {
	return a.exprs[id].Info()
}

// Arg returns the i-th argument of the expression id
func (a *Arena) Arg(id NodeId, i int) NodeId {
	return a.exprs[id].Info().Args[i]
}

func (a *Arena) NodeCount() int {
	return len(a.exprs) - 1
}

func (a *Arena) Type(id TypeId) *Type {
	return a.Types[id]
}

func (a *Arena) Cons(id ConsId) *Constructor {
	return a.Constructors[id]
}

// TypeCons returns the constructors of t in declaration order
func (a *Arena) TypeCons(t *Type) []*Constructor {
	res := make([]*Constructor, len(t.Constructors))
	for i, c := range t.Constructors {
		res[i] = a.Constructors[c]
	}
	return res
}

// NewType appends a fresh type with no constructors
func (a *Arena) NewType(name SymId) *Type {
	t := &Type{
		Idx:              TypeId(len(a.Types)),
		Name:             name,
		Arity:            -1,
		IsEnum:           true,
		IsSimpleEnum:     true,
		ConstParamIdx:    -1,
		ParentTypeIdx:    -1,
		Conflict1:        -1,
		Conflict2:        -1,
		Size:             lattice.Impossible,
		AdmissibleParams: lattice.NewAdmissibilityInfo(),
	}
	a.Types = append(a.Types, t)
	return t
}

// NewConstructor allocates a constructor not yet bound to any type
func (a *Arena) NewConstructor(where Range, name SymId, tag uint64) *Constructor {
	c := &Constructor{
		Idx:              ConsId(len(a.Constructors)),
		Name:             name,
		Where:            where,
		TypeDefined:      NoType,
		Size:             lattice.Impossible,
		AdmissibleParams: lattice.NewAdmissibilityInfo(),
	}
	c.SetTag(tag)
	a.Constructors = append(a.Constructors, c)
	return c
}

// RenewLastDeclared marks t as the most recently declared type
func (a *Arena) RenewLastDeclared(t *Type) {
	a.lastDeclared++
	t.LastDeclared = a.lastDeclared
}

// Equal reports whether two expressions are structurally identical
func (a *Arena) Equal(x, y NodeId) bool {
	ex, ey := a.exprs[x], a.exprs[y]
	if ex.Kind() != ey.Kind() || ValueOf(ex) != ValueOf(ey) || AppliedType(ex) != AppliedType(ey) {
		return false
	}
	ax, ay := ex.Info().Args, ey.Info().Args
	if len(ax) != len(ay) {
		return false
	}
	for i := range ax {
		if !a.Equal(ax[i], ay[i]) {
			return false
		}
	}
	return true
}

// FieldIsomorphic compares two fields by position, kind, name and type
func (a *Arena) FieldIsomorphic(f, g *Field, allowOtherNames bool) bool {
	if f.Idx != g.Idx || f.Implicit != g.Implicit || f.Constraint != g.Constraint ||
		(!allowOtherNames && f.Name != g.Name) {
		return false
	}
	return a.Equal(f.Type, g.Type)
}

// ConsIsomorphic compares two constructors up to the identity of their nodes
func (a *Arena) ConsIsomorphic(c, d *Constructor, allowOtherNames bool) bool {
	if c.Name != d.Name || c.Tag != d.Tag || len(c.Fields) != len(d.Fields) ||
		c.Arity != d.Arity || len(c.Params) != len(d.Params) {
		return false
	}
	for i := range c.Fields {
		if !a.FieldIsomorphic(&c.Fields[i], &d.Fields[i], allowOtherNames) {
			return false
		}
	}
	for i := range c.Params {
		if !a.Equal(c.Params[i], d.Params[i]) {
			return false
		}
	}
	return true
}

// UniqueConstructorEquals reports whether t has exactly one constructor, isomorphic to c
func (a *Arena) UniqueConstructorEquals(t *Type, c *Constructor) bool {
	return len(t.Constructors) == 1 && a.ConsIsomorphic(a.Cons(t.Constructors[0]), c, false)
}

// IsAnon reports whether id is an application of an anonymous type without arguments
func (a *Arena) IsAnon(id NodeId) bool {
	apply, ok := a.exprs[id].(*Apply)
	return ok && len(apply.Args) == 0 && a.Types[apply.Type].IsAnon
}

// IsRefToAnon reports whether id is ^[ ... ]
func (a *Arena) IsRefToAnon(id NodeId) bool {
	ref, ok := a.exprs[id].(*Ref)
	return ok && a.IsAnon(ref.Args[0])
}

func (a *Arena) SymName(id SymId) string {
	if a.Names == nil {
		return fmt.Sprintf("sym%d", id)
	}
	return a.Names.SymName(id)
}

// TypeName returns the name of t, or TYPE_<idx> for anonymous types
func (a *Arena) TypeName(t *Type) string {
	if t.Name != 0 {
		return a.SymName(t.Name)
	}
	return fmt.Sprintf("TYPE_%d", t.Idx)
}

// FieldName returns the name of f, or the empty string
func (a *Arena) FieldName(f *Field) string {
	if f.Name == 0 {
		return ""
	}
	return a.SymName(f.Name)
}

func (a *Arena) ConsName(c *Constructor) string {
	if c.Name == 0 {
		return "_"
	}
	return a.SymName(c.Name)
}

// QualifiedName is Type::cons
func (a *Arena) QualifiedName(c *Constructor) string {
	typeName := a.SymName(c.TypeName)
	if c.TypeDefined != NoType {
		typeName = a.TypeName(a.Types[c.TypeDefined])
	}
	return typeName + "::" + a.ConsName(c)
}
