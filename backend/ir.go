package backend

import (
	"fmt"
	"strings"
)

// Expr is a natural number or type valued expression of generated code.
// It is one of *Var, *Lit, *BinOp, *Sel or *TypeRef.
type Expr interface {
	fmt.Stringer
	expr()
}

type VarKind uint8

const (
	// VarParam is a positive parameter of the type being generated
	VarParam VarKind = iota + 1
	// VarOut is a negative parameter, returned to the caller
	VarOut
	// VarField is a field of the record being read or written
	VarField
	// VarLocal is a temporary of the method being generated
	VarLocal
)

// Var is a named storage location
type Var struct {
	Kind  VarKind
	Name  string
	Field *FieldPlan
	Param *ParamPlan
}

type Lit struct{ Value int }

type Op uint8

const (
	OpAdd Op = iota + 1
	OpMul
	// OpBit is x . y, the bit y of x
	OpBit
)

type BinOp struct {
	Op   Op
	X, Y Expr
}

// Sel is Then when Cond is not zero, and 0 otherwise
type Sel struct {
	Cond, Then Expr
}

type TypeRefKind uint8

const (
	// TypeConst is a named type constant
	TypeConst TypeRefKind = iota + 1
	// TypeVar is a type held in a parameter or field
	TypeVar
	// TypeUser is a generated type applied to its positive arguments
	TypeUser
	// TypeBuiltin is a runtime builtin applied to Args
	TypeBuiltin
)

type Builtin uint8

const (
	BuiltinNat Builtin = iota + 1
	BuiltinNatWidth
	BuiltinNatLeq
	BuiltinNatLess
	BuiltinInt
	BuiltinUint
	BuiltinBits
	BuiltinAny
	BuiltinCell
	BuiltinRef
	BuiltinTuple
	BuiltinCond
)

var builtinNames = map[Builtin]string{
	BuiltinNat:      "Nat",
	BuiltinNatWidth: "NatWidth",
	BuiltinNatLeq:   "NatLeq",
	BuiltinNatLess:  "NatLess",
	BuiltinInt:      "Int",
	BuiltinUint:     "Uint",
	BuiltinBits:     "Bits",
	BuiltinAny:      "Any",
	BuiltinCell:     "Cell",
	BuiltinRef:      "Ref",
	BuiltinTuple:    "Tuple",
	BuiltinCond:     "Cond",
}

func (b Builtin) String() string { return builtinNames[b] }

// TypeRef builds a runtime type value.
// For TypeUser, Args follow the positive parameters of Plan. For TypeBuiltin,
// nat arguments come before type arguments, as in ^X, N * X and C?X.
type TypeRef struct {
	Kind    TypeRefKind
	Name    string
	Var     *Var
	Plan    *TypePlan
	Builtin Builtin
	Args    []Expr
}

func (*Var) expr()     {}
func (*Lit) expr()     {}
func (*BinOp) expr()   {}
func (*Sel) expr()     {}
func (*TypeRef) expr() {}

func (v *Var) String() string { return v.Name }
func (l *Lit) String() string { return fmt.Sprint(l.Value) }

func (b *BinOp) String() string {
	switch b.Op {
	case OpAdd:
		return fmt.Sprintf("(%s + %s)", b.X, b.Y)
	case OpMul:
		return fmt.Sprintf("(%s * %s)", b.X, b.Y)
	}
	return fmt.Sprintf("(%s . %s)", b.X, b.Y)
}

func (s *Sel) String() string { return fmt.Sprintf("(%s ? %s : 0)", s.Cond, s.Then) }

func (t *TypeRef) String() string {
	switch t.Kind {
	case TypeConst:
		return t.Name
	case TypeVar:
		return t.Var.String()
	}
	name := t.Name
	if t.Kind == TypeBuiltin {
		name = t.Builtin.String()
	}
	if len(t.Args) == 0 {
		return name
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return name + "(" + strings.Join(args, ", ") + ")"
}

// ConstValue folds e when it only involves literals
func ConstValue(e Expr) (int, bool) {
	switch e := e.(type) {
	case *Lit:
		return e.Value, true
	case *BinOp:
		x, ok1 := ConstValue(e.X)
		y, ok2 := ConstValue(e.Y)
		if !ok1 || !ok2 {
			return 0, false
		}
		switch e.Op {
		case OpAdd:
			return x + y, true
		case OpMul:
			return x * y, true
		}
		if y >= 0 && y < 32 {
			return (x >> y) & 1, true
		}
		return 0, true
	}
	return 0, false
}

// Action is one step of reading, writing or skipping a constructor.
// Fetch actions read from the slice into Dst, store actions write Src into the builder.
type Action interface {
	action()
}

type NatKind uint8

const (
	// NatFull is #, 32 bits
	NatFull NatKind = iota + 1
	// NatWidth is (## n)
	NatWidth
	// NatLeq is (#<= n)
	NatLeq
	// NatLess is (#< n)
	NatLess
)

// CmpOp is a comparison of a constraint
type CmpOp uint8

const (
	CmpEq CmpOp = iota + 1
	CmpLess
	CmpLeq
)

func (c CmpOp) String() string {
	switch c {
	case CmpLess:
		return "<"
	case CmpLeq:
		return "<="
	}
	return "=="
}

// Advance skips a fixed number of bits and references
type Advance struct{ Bits, Refs int }

// AdvanceBy skips a number of bits computed at runtime
type AdvanceBy struct{ Bits Expr }

// CheckTag consumes the constructor tag, failing unless it matches
type CheckTag struct {
	Bits int
	Tag  uint64
}

type StoreTag struct {
	Bits int
	Tag  uint64
}

// FetchNat reads a natural number of kind Kind, Arg being its bound or width
type FetchNat struct {
	Dst  *Var
	Kind NatKind
	Arg  Expr
}

type StoreNat struct {
	Src  *Var
	Kind NatKind
	Arg  Expr
}

// FetchValue reads Bits bits and Refs references as a value of type VT.
// Type is the schema type of the value, nil when it is the type being generated.
type FetchValue struct {
	Dst  *Var
	VT   ValueType
	Bits Expr
	Refs int
	Type *TypeRef
}

type StoreValue struct {
	Src  *Var
	VT   ValueType
	Bits Expr
	Refs int
}

// FetchRef loads a reference without looking into it
type FetchRef struct{ Dst *Var }

type StoreRef struct{ Src *Var }

// FetchSubrecord loads a reference holding the only constructor of an anonymous type
type FetchSubrecord struct {
	Dst *Var
	Rec *RecordPlan
}

type StoreSubrecord struct {
	Src *Var
	Rec *RecordPlan
}

// CallSkip skips a value of Type, nil meaning the type being generated with
// the same parameters. Outs receive its negative parameters. OnEmpty runs
// the skip over an empty slice, which only computes the outputs.
type CallSkip struct {
	Type     *TypeRef
	Validate bool
	Outs     []*Var
	OnEmpty  bool
}

// FetchType reads one value of Type. Enum values are read with the enum
// helpers of Type, anything else is kept undecoded.
type FetchType struct {
	Dst      *Var
	Type     *TypeRef
	Enum     bool
	Validate bool
	Outs     []*Var
}

// StoreType writes Src, a value of Type. Outs are recomputed from the stored value.
type StoreType struct {
	Src  *Var
	Type *TypeRef
	Enum bool
	Outs []*Var
}

// ValidateRef loads a reference and checks that it holds one value of Type.
// Dst is nil when the reference is skipped.
type ValidateRef struct {
	Dst  *Var
	Type *TypeRef
}

type Assign struct {
	Dst   *Var
	Value Expr
}

// Check fails unless X Op Y holds. Text is the constraint as written in the schema.
type Check struct {
	X    Expr
	Op   CmpOp
	Y    Expr
	Text string
}

// Invert solves Dst + Y = Z (OpAdd) or Y * Dst = Z (OpMul) for Dst
type Invert struct {
	Dst *Var
	Op  Op
	Z   Expr
	Y   Expr
}

// Guard runs Then only when every condition is non-zero
type Guard struct {
	Conds []Expr
	Then  Action
}

func (*Advance) action()        {}
func (*AdvanceBy) action()      {}
func (*CheckTag) action()       {}
func (*StoreTag) action()       {}
func (*FetchNat) action()       {}
func (*StoreNat) action()       {}
func (*FetchValue) action()     {}
func (*StoreValue) action()     {}
func (*FetchRef) action()       {}
func (*StoreRef) action()       {}
func (*FetchSubrecord) action() {}
func (*StoreSubrecord) action() {}
func (*CallSkip) action()       {}
func (*FetchType) action()      {}
func (*StoreType) action()      {}
func (*ValidateRef) action()    {}
func (*Assign) action()         {}
func (*Check) action()          {}
func (*Invert) action()         {}
func (*Guard) action()          {}

// isConstraint reports whether a does not touch the slice or builder
func isConstraint(a Action) bool {
	switch a.(type) {
	case *Check, *Invert, *Assign:
		return true
	}
	return false
}

// Body is the action list of one constructor in one method
type Body struct {
	Cons    *ConsPlan
	Locals  []*Var
	Actions []Action
}

type TagNodeKind uint8

const (
	// TagConst always yields Value
	TagConst TagNodeKind = iota + 1
	// TagPreload maps the next Bits bits to Values, fewer bits left giving -1
	TagPreload
	// TagBSelect counts Mask bits up to the next Bits bits, indexing Values.
	// Ext reads missing bits as zeroes.
	TagBSelect
	// TagSwitchParam branches on the value of parameter Param
	TagSwitchParam
	// TagSwitchBits branches on the next Bits bits, Default handling the values no case names
	TagSwitchBits
	// TagBit branches on the bit at Pos: Then when set, Else when clear
	TagBit
	// TagParamPattern is Values[1] when the pattern Pattern holds for parameter Param, Values[0] otherwise
	TagParamPattern
	// TagParamTable indexes Values by the abstract values of Params
	TagParamTable
)

// TagCase is one branch of a switch
type TagCase struct {
	Values []int
	Node   *TagNode
}

// TagNode is a node of the decision tree computing the enum value of the
// constructor a slice starts with. Every value is an enum value, or -1 when
// no constructor matches.
type TagNode struct {
	Kind    TagNodeKind
	Value   int
	Bits    int
	Ext     bool
	Mask    uint64
	Values  []int
	Param   *ParamPlan
	Params  []*ParamPlan
	Pattern ParamPattern
	Cases   []TagCase
	Default *TagNode
	Pos     int
	Then    *TagNode
	Else    *TagNode
}

// ParamPattern is a test on the value n of a natural parameter
type ParamPattern uint8

const (
	// PatNonZero is n != 0
	PatNonZero ParamPattern = iota + 1
	// PatOne is n == 1
	PatOne
	// PatAtMostOne is n <= 1
	PatAtMostOne
	// PatOdd is n odd
	PatOdd
	// PatEvenNonZero is n even and non-zero
	PatEvenNonZero
	// PatOddAboveOne is n odd and above 1
	PatOddAboveOne
)
