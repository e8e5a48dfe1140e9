package python

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cottand/tlbc/backend"
)

var builtinNames = map[backend.Builtin]string{
	backend.BuiltinNat:      "NatT",
	backend.BuiltinNatWidth: "NatWidth",
	backend.BuiltinNatLeq:   "NatLeq",
	backend.BuiltinNatLess:  "NatLess",
	backend.BuiltinInt:      "Int",
	backend.BuiltinUint:     "UInt",
	backend.BuiltinBits:     "Bits",
	backend.BuiltinAny:      "Anything",
	backend.BuiltinCell:     "CellT",
	backend.BuiltinRef:      "RefT",
	backend.BuiltinTuple:    "TupleT",
	backend.BuiltinCond:     "CondT",
}

// scope renders the variables of one method, where t is the type instance
type scope struct {
	w  *writer
	tp *backend.TypePlan
}

func (s scope) varName(v *backend.Var) string {
	switch v.Kind {
	case backend.VarParam:
		return "t." + v.Param.Name
	case backend.VarField:
		return "self." + v.Field.Name
	}
	return v.Name
}

func (s scope) expr(e backend.Expr) string {
	switch e := e.(type) {
	case *backend.Var:
		return s.varName(e)
	case *backend.Lit:
		return strconv.Itoa(e.Value)
	case *backend.BinOp:
		x, y := s.expr(e.X), s.expr(e.Y)
		switch e.Op {
		case backend.OpAdd:
			return "(" + x + " + " + y + ")"
		case backend.OpMul:
			return "(" + x + " * " + y + ")"
		}
		return "((" + x + " >> " + y + ") & 1)"
	case *backend.Sel:
		return fmt.Sprintf("(%s if %s else 0)", s.expr(e.Then), s.expr(e.Cond))
	case *backend.TypeRef:
		return typeExpr(s, e)
	}
	panic(fmt.Sprintf("unexpected expression %T", e))
}

// typeExpr is a TLB instance, nil standing for t
func typeExpr(s scope, r *backend.TypeRef) string {
	if r == nil {
		return "t"
	}
	switch r.Kind {
	case backend.TypeConst:
		return fmt.Sprintf("TLBComplex.constants[%q]", r.Name)
	case backend.TypeVar:
		return s.varName(r.Var)
	case backend.TypeUser:
		args := make([]string, len(r.Args))
		for i, a := range r.Args {
			args[i] = s.expr(a)
		}
		return r.Plan.Class + "(" + strings.Join(args, ", ") + ")"
	}
	args := make([]string, len(r.Args))
	for i, a := range r.Args {
		args[i] = s.expr(a)
	}
	name := builtinNames[r.Builtin]
	if name == "" {
		panic(fmt.Sprintf("unexpected builtin %v", r.Builtin))
	}
	return name + "(" + strings.Join(args, ", ") + ")"
}
