package ast

// SymId is an interned identifier. The zero SymId denotes an anonymous name.
type SymId int

// NodeId addresses a TypeExpr inside an Arena. The zero NodeId is no expression.
type NodeId int32

const NoNode NodeId = 0

// TypeId addresses a Type inside an Arena
type TypeId int

// ConsId addresses a Constructor inside an Arena
type ConsId int

const NoType TypeId = -1

// Kind enumerates the variants of TypeExpr
type Kind uint8

const (
	KindType Kind = iota + 1
	KindParam
	KindApply
	KindAdd
	KindGetBit
	KindMulConst
	KindIntConst
	KindTuple
	KindRef
	KindCondType
)

func (k Kind) String() string {
	switch k {
	case KindType:
		return "Type"
	case KindParam:
		return "Param"
	case KindApply:
		return "Apply"
	case KindAdd:
		return "Add"
	case KindGetBit:
		return "GetBit"
	case KindMulConst:
		return "MulConst"
	case KindIntConst:
		return "IntConst"
	case KindTuple:
		return "Tuple"
	case KindRef:
		return "Ref"
	case KindCondType:
		return "CondType"
	}
	return "Unknown"
}

// ExprInfo is the data every TypeExpr variant carries
type ExprInfo struct {
	Where Range
	Args  []NodeId

	// Negated marks an expression of negative polarity, whose value is
	// computed while deserializing rather than supplied by the caller
	Negated bool
	// IsNat is set for natural number expressions
	IsNat bool
	// IsNatSubtype is set for types whose values are natural numbers, like # or (## n)
	IsNatSubtype bool
	// TchkOnly is set for expressions only usable in a type-checking context, such as comparisons
	TchkOnly bool
	// ConstExpr is the id of this expression in the constant table,
	// 0 when not (yet) known to be constant
	ConstExpr int
}

func (i *ExprInfo) Info() *ExprInfo { return i }

// TypeExpr is a node of a type or natural number expression.
// It is one of *TypeSort, *Param, *Apply, *Add, *GetBit, *MulConst, *IntConst,
// *Tuple, *Ref or *CondType.
type TypeExpr interface {
	Kind() Kind
	Info() *ExprInfo
}

// TypeSort is the sort `Type` of implicit type parameters
type TypeSort struct{ ExprInfo }

// Param refers to a field of the enclosing constructor
type Param struct {
	ExprInfo
	Field int
}

// Apply is a type applied to Args. Comparisons are applications of the builtins =, < and <=.
type Apply struct {
	ExprInfo
	Type TypeId
	Name SymId
}

// Add is Args[0] + Args[1]
type Add struct{ ExprInfo }

// GetBit is Args[0] . Args[1]
type GetBit struct{ ExprInfo }

// MulConst is Factor * Args[0]
type MulConst struct {
	ExprInfo
	Factor int
}

type IntConst struct {
	ExprInfo
	Value int
}

// Tuple is Args[0] * Args[1], a repetition of the type Args[1]
type Tuple struct{ ExprInfo }

// Ref is ^Args[0], the type stored in a referenced cell
type Ref struct{ ExprInfo }

// CondType is Args[0]?Args[1]
type CondType struct{ ExprInfo }

func (*TypeSort) Kind() Kind { return KindType }
func (*Param) Kind() Kind    { return KindParam }
func (*Apply) Kind() Kind    { return KindApply }
func (*Add) Kind() Kind      { return KindAdd }
func (*GetBit) Kind() Kind   { return KindGetBit }
func (*MulConst) Kind() Kind { return KindMulConst }
func (*IntConst) Kind() Kind { return KindIntConst }
func (*Tuple) Kind() Kind    { return KindTuple }
func (*Ref) Kind() Kind      { return KindRef }
func (*CondType) Kind() Kind { return KindCondType }

// ValueOf returns the scalar payload of an expression:
// the field index of a Param, the constant of an IntConst, the factor of a MulConst, or 0
func ValueOf(e TypeExpr) int {
	switch e := e.(type) {
	case *Param:
		return e.Field
	case *IntConst:
		return e.Value
	case *MulConst:
		return e.Factor
	}
	return 0
}

// AppliedType returns the type of an Apply, or NoType
func AppliedType(e TypeExpr) TypeId {
	if apply, ok := e.(*Apply); ok {
		return apply.Type
	}
	return NoType
}
