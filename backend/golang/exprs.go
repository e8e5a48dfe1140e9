package golang

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cottand/tlbc/backend"
)

// scope renders the variables of one method
type scope struct {
	g  *Emitter
	tp *backend.TypePlan
}

func (s scope) varName(v *backend.Var) string {
	switch v.Kind {
	case backend.VarParam:
		return "t." + s.g.types[s.tp].params[v.Param.Idx]
	case backend.VarField:
		return "rec." + s.g.fields[v.Field]
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
		return fmt.Sprintf("tlbrt.Cond(%s, %s)", s.expr(e.Cond), s.expr(e.Then))
	case *backend.TypeRef:
		return s.typeExpr(e)
	}
	panic(fmt.Sprintf("unexpected expression %T", e))
}

// typeExpr is a tlbrt.Type value, nil standing for the receiver
func (s scope) typeExpr(r *backend.TypeRef) string {
	if r == nil {
		return "t"
	}
	switch r.Kind {
	case backend.TypeConst:
		return r.Name
	case backend.TypeVar:
		return s.varName(r.Var)
	case backend.TypeUser:
		n := s.g.types[r.Plan]
		args := make([]string, 0, len(r.Args))
		for i, pp := range r.Plan.PosParams() {
			if i < len(r.Args) {
				args = append(args, n.params[pp.Idx]+": "+s.expr(r.Args[i]))
			}
		}
		return n.class + "{" + strings.Join(args, ", ") + "}"
	}
	arg := func(i int) string {
		if i < len(r.Args) {
			return s.expr(r.Args[i])
		}
		return "0"
	}
	switch r.Builtin {
	case backend.BuiltinNat:
		return "tlbrt.Nat{}"
	case backend.BuiltinNatWidth:
		return "tlbrt.NatWidth{N: " + arg(0) + "}"
	case backend.BuiltinNatLeq:
		return "tlbrt.NatLeq{N: " + arg(0) + "}"
	case backend.BuiltinNatLess:
		return "tlbrt.NatLess{N: " + arg(0) + "}"
	case backend.BuiltinInt:
		return "tlbrt.Int{N: " + arg(0) + "}"
	case backend.BuiltinUint:
		return "tlbrt.Uint{N: " + arg(0) + "}"
	case backend.BuiltinBits:
		return "tlbrt.BitsT{N: " + arg(0) + "}"
	case backend.BuiltinAny:
		return "tlbrt.Any{}"
	case backend.BuiltinCell:
		return "tlbrt.CellT{}"
	case backend.BuiltinRef:
		return "tlbrt.RefT{X: " + arg(0) + "}"
	case backend.BuiltinTuple:
		return "tlbrt.TupleT{N: " + arg(0) + ", X: " + arg(1) + "}"
	case backend.BuiltinCond:
		return "tlbrt.CondT{C: " + arg(0) + ", X: " + arg(1) + "}"
	}
	panic(fmt.Sprintf("unexpected builtin %v", r.Builtin))
}

// recv is a type used as a method receiver, composite literals being parenthesized
func (s scope) recv(r *backend.TypeRef) string {
	e := s.typeExpr(r)
	if strings.HasSuffix(e, "}") {
		return "(" + e + ")"
	}
	return e
}

// typeExpr renders a constant type expression
func (g *Emitter) typeExpr(r *backend.TypeRef) string {
	return scope{g: g}.typeExpr(r)
}
