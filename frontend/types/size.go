package types

import (
	"math/bits"

	"github.com/cottand/tlbc/frontend/ast"
	"github.com/cottand/tlbc/frontend/lattice"
)

// AbstractInterpretNat approximates the values a natural expression can take,
// as a set of lattice.NatZero, NatOne, NatEven and NatOdd
func (e *Env) AbstractInterpretNat(id ast.NodeId) int {
	node := e.Node(id)
	info := node.Info()
	if !info.IsNat || info.TchkOnly {
		return 0
	}
	switch node := node.(type) {
	case *ast.Param:
		return lattice.NatAnyBits
	case *ast.Add:
		return lattice.NatAdd(e.AbstractInterpretNat(node.Args[0]), e.AbstractInterpretNat(node.Args[1]))
	case *ast.GetBit:
		return lattice.NatGetBit(e.AbstractInterpretNat(node.Args[0]), e.AbstractInterpretNat(node.Args[1]))
	case *ast.IntConst:
		return lattice.NatConst(node.Value)
	case *ast.MulConst:
		return lattice.NatMul(e.AbstractInterpretNat(node.Args[0]), lattice.NatConst(node.Factor))
	}
	return lattice.NatAnyBits
}

// constArg returns the value of the only argument of an application when it is a constant
func (e *Env) constArg(apply *ast.Apply) (int, bool) {
	if len(apply.Args) != 1 {
		return 0, false
	}
	c, ok := e.Node(apply.Args[0]).(*ast.IntConst)
	if !ok {
		return 0, false
	}
	return c.Value, true
}

// ComputeSize bounds the bits and references a value of type id occupies
func (e *Env) ComputeSize(id ast.NodeId) lattice.MinMaxSize {
	node := e.Node(id)
	if node.Info().IsNat {
		return 0
	}
	switch node := node.(type) {
	case *ast.TypeSort:
		return 0
	case *ast.Param:
		return lattice.Any
	case *ast.Ref:
		if e.ComputeSize(node.Args[0]).IsPossible() {
			return lattice.OneRef
		}
		return lattice.Impossible
	case *ast.CondType:
		z := e.AbstractInterpretNat(node.Args[0])
		if z&^1 == 0 {
			return 0
		}
		t := e.ComputeSize(node.Args[1])
		if z&1 != 0 {
			t = t.ClearMin()
		}
		return t
	case *ast.Tuple:
		z := e.AbstractInterpretNat(node.Args[0])
		if z&^1 == 0 {
			return 0
		}
		t := e.ComputeSize(node.Args[1])
		if count, ok := e.Node(node.Args[0]).(*ast.IntConst); ok {
			return t.Repeat(count.Value)
		}
		if z&1 != 0 {
			t = t.ClearMin()
		}
		if z&12 != 0 {
			least := 2
			switch {
			case z&1 != 0:
				least = 0
			case z&2 != 0:
				least = 1
			}
			t = t.RepeatAtLeast(least)
		}
		return t
	case *ast.Apply:
		if n, ok := e.constArg(node); ok {
			switch node.Type {
			case e.NatWidth, e.Int, e.UInt, e.Bits:
				return lattice.FixedSize(min(n, 2047))
			case e.NatLeq:
				return lattice.FixedSize(32 - bits.LeadingZeros32(uint32(n)))
			case e.NatLess:
				if n == 0 {
					return lattice.FixedSize(2047)
				}
				return lattice.FixedSize(32 - bits.LeadingZeros32(uint32(n-1)))
			}
		}
		return e.Type(node.Type).Size
	}
	return 0
}

// ComputeAnyBits reports whether every bitstring of the right size is a valid value of id
func (e *Env) ComputeAnyBits(id ast.NodeId) bool {
	node := e.Node(id)
	if node.Info().IsNat {
		return true
	}
	switch node := node.(type) {
	case *ast.TypeSort, *ast.Ref:
		return true
	case *ast.Param:
		return false
	case *ast.Tuple, *ast.CondType:
		args := node.Info().Args
		if e.AbstractInterpretNat(args[0])&^1 == 0 {
			return true
		}
		return e.ComputeAnyBits(args[1])
	case *ast.Apply:
		if n, ok := e.constArg(node); ok {
			switch node.Type {
			case e.NatLeq:
				return n&(n+1) == 0
			case e.NatLess:
				return n&(n-1) == 0
			}
		}
		return e.Type(node.Type).AnyBits
	}
	return false
}

// IsInteger is 1 for unsigned integer types, -1 for signed ones and 0 for anything else
func (e *Env) IsInteger(id ast.NodeId) int {
	node := e.Node(id)
	if node.Info().IsNat {
		return 1
	}
	apply, ok := node.(*ast.Apply)
	if !ok {
		return 0
	}
	switch apply.Type {
	case e.Int:
		return -1
	case e.UInt:
		return 1
	}
	t := e.Type(apply.Type)
	if t.IsBool {
		return 1
	}
	if t.IsBuiltin {
		return t.IsInteger
	}
	return 0
}
