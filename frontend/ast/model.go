package ast

import (
	"math/bits"

	"github.com/cottand/tlbc/frontend/lattice"
)

// Field is a field, implicit parameter or constraint of a Constructor
type Field struct {
	Idx   int
	Name  SymId
	Type  NodeId
	Where Range

	Implicit   bool
	Constraint bool
	// Known is set once the binder has determined a value flows into the field
	Known bool
	// Used is set when the value of the field is referred to after being known
	Used bool
	// Subrec marks a reference to an anonymous constructor, stored as a nested record
	Subrec bool
}

// IsExplicit reports whether the field is actually serialized
func (f *Field) IsExplicit() bool {
	return !f.Implicit && !f.Constraint
}

// ArgFlags describe one parameter position of a Type
type ArgFlags uint8

const (
	ArgIsType ArgFlags = 1 << iota
	ArgIsNat
	ArgIsPos
	ArgIsNeg
	ArgNonConst
)

func (f ArgFlags) Has(flag ArgFlags) bool { return f&flag != 0 }

// Constructor is one alternative of a Type
type Constructor struct {
	Idx         ConsId
	Name        SymId
	TypeName    SymId
	TypeDefined TypeId
	Where       Range

	Fields        []Field
	Tag           uint64
	TagBits       int
	Arity         int
	Params        []NodeId
	ParamNegated  []bool
	ParamConstVal []int

	BeginsWith       lattice.BitPfxCollection
	Size             lattice.MinMaxSize
	AdmissibleParams lattice.AdmissibilityInfo

	IsFwd        bool
	IsEnum       bool
	IsSimpleEnum bool
	HasFixedSize bool
	AnyBits      bool
	IsSpecial    bool
}

// SetTag sets the tag, a left-aligned prefix terminated by a marker bit
func (c *Constructor) SetTag(tag uint64) {
	c.Tag = tag
	if tag == 0 {
		c.TagBits = 0
		return
	}
	c.TagBits = 63 - bits.TrailingZeros64(tag)
}

// ConstParam returns the constant value of parameter idx, or -1
func (c *Constructor) ConstParam(idx int) int {
	if idx < 0 || idx >= len(c.ParamConstVal) {
		return -1
	}
	return c.ParamConstVal[idx]
}

// Type is a TL-B type, a collection of constructors
type Type struct {
	Idx   TypeId
	Name  SymId
	Arity int
	Args  []ArgFlags

	Constructors []ConsId

	IsEnum                bool
	IsSimpleEnum          bool
	IsPfxDeterm           bool
	IsParamDeterm         bool
	IsConstParamDeterm    bool
	IsConstParamPfxDeterm bool
	IsParamPfxDeterm      bool
	IsDeterm              bool
	IsUnit                bool
	IsBool                bool
	IsSpecial             bool
	IsFinal               bool
	IsAuto                bool
	IsAnon                bool
	IsBuiltin             bool
	HasFixedSize          bool
	AnyBits               bool
	ProducesNat           bool
	// IsInteger is -1 for signed, 1 for unsigned integer builtins, 0 otherwise
	IsInteger int

	UsefulDepth      int
	CsTrie           *lattice.BinTrie
	BeginsWith       lattice.BitPfxCollection
	Size             lattice.MinMaxSize
	AdmissibleParams lattice.AdmissibilityInfo

	ConstParamIdx int
	LastDeclared  int
	// ParentTypeIdx is the type an anonymous type was first declared in,
	// -1 while unknown and -2 once it is shared by several types
	ParentTypeIdx int
	Used          int
	Conflict1     int
	Conflict2     int
}

// IsConstArg reports whether parameter p is a positive natural that is constant in every constructor
func (t *Type) IsConstArg(p int) bool {
	mask := ArgIsType | ArgIsNat | ArgIsPos | ArgIsNeg | ArgNonConst
	return t.Args[p]&mask == ArgIsNat|ArgIsPos
}

// ConsNum is the number of constructors
func (t *Type) ConsNum() int {
	return len(t.Constructors)
}
