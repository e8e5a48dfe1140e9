package types

import (
	"fmt"
	"strings"

	"github.com/cottand/tlbc/frontend/ast"
	"github.com/cottand/tlbc/frontend/tlberr"
)

const (
	constHtableSize = 170239
	maxConstExpr    = 100000
)

// constTable deduplicates constant type expressions by structure.
// It is an open-addressing hash table keyed on the node kind, its payload, the
// applied type and the constant ids of its arguments.
type constTable struct {
	htable []ast.NodeId
	// exprs[i] is the first expression found with constant id i; exprs[0] is unused
	exprs []ast.NodeId
}

func newConstTable() constTable {
	return constTable{
		htable: make([]ast.NodeId, constHtableSize),
		exprs:  []ast.NodeId{ast.NoNode},
	}
}

func (e *Env) constHash(node ast.TypeExpr) uint64 {
	h := uint64(node.Kind())*17239 + uint64(int64(ast.ValueOf(node)))*23917 + 1
	if t := ast.AppliedType(node); t != ast.NoType {
		h += 239017 * uint64(t)
	}
	for _, arg := range node.Info().Args {
		h *= 170239
		if info := e.Info(arg); !info.Negated {
			h += uint64(int64(info.ConstExpr))
		}
	}
	return h
}

func (e *Env) sameConst(x, y ast.TypeExpr) bool {
	if x.Kind() != y.Kind() || ast.ValueOf(x) != ast.ValueOf(y) || ast.AppliedType(x) != ast.AppliedType(y) {
		return false
	}
	xa, ya := x.Info().Args, y.Info().Args
	if len(xa) != len(ya) {
		return false
	}
	for i := range xa {
		xi, yi := e.Info(xa[i]), e.Info(ya[i])
		if xi.Negated != yi.Negated || xi.ConstExpr != yi.ConstExpr {
			return false
		}
	}
	return true
}

// DetectConstExpr assigns a constant id to id and its subexpressions when they
// do not depend on any field. Structurally equal constants share one id.
func (e *Env) DetectConstExpr(id ast.NodeId) (bool, tlberr.TlbError) {
	node := e.Node(id)
	info := node.Info()
	if info.ConstExpr != 0 {
		return true, nil
	}
	isConst := !info.Negated
	for _, arg := range info.Args {
		argConst, err := e.DetectConstExpr(arg)
		if err != nil {
			return false, err
		}
		if !argConst && !e.Info(arg).Negated {
			isConst = false
		}
	}
	if _, isParam := node.(*ast.Param); !isConst || isParam {
		return false, nil
	}
	hash := e.constHash(node)
	h1, h2 := hash%constHtableSize, 1+hash%(constHtableSize+1)
	for e.consts.htable[h1] != ast.NoNode {
		other := e.Node(e.consts.htable[h1])
		if e.sameConst(other, node) {
			info.ConstExpr = other.Info().ConstExpr
			return true, nil
		}
		h1 += h2
		if h1 >= constHtableSize {
			h1 -= constHtableSize
		}
	}
	if len(e.consts.exprs) >= maxConstExpr-1 {
		return false, syntaxErr(info.Where, "too many constant type expressions")
	}
	info.ConstExpr = len(e.consts.exprs)
	e.consts.exprs = append(e.consts.exprs, id)
	e.consts.htable[h1] = id
	return true, nil
}

// ConstExprs returns the representative expression of every constant id, starting from id 1
func (e *Env) ConstExprs() []ast.NodeId {
	return e.consts.exprs[1:]
}

// ConstTypeName derives an identifier fragment describing a constant expression, like _Maybe_Cell
func (e *Env) ConstTypeName(id ast.NodeId) string {
	sb := strings.Builder{}
	e.constTypeName(&sb, id)
	return sb.String()
}

func (e *Env) constTypeName(sb *strings.Builder, id ast.NodeId) {
	node := e.Node(id)
	if node.Info().Negated {
		return
	}
	switch node := node.(type) {
	case *ast.TypeSort:
		sb.WriteString("_Type")
	case *ast.Param:
	case *ast.Add:
		e.constTypeName(sb, node.Args[0])
		sb.WriteString("_plus")
		e.constTypeName(sb, node.Args[1])
	case *ast.GetBit:
		e.constTypeName(sb, node.Args[0])
		sb.WriteString("_bit")
		e.constTypeName(sb, node.Args[1])
	case *ast.IntConst:
		fmt.Fprintf(sb, "_%d", node.Value)
	case *ast.MulConst:
		fmt.Fprintf(sb, "_mul%d", node.Factor)
	case *ast.Ref:
		sb.WriteString("_Ref")
		e.constTypeName(sb, node.Args[0])
	case *ast.Tuple:
		sb.WriteString("_tuple")
		e.constTypeName(sb, node.Args[0])
		e.constTypeName(sb, node.Args[1])
	case *ast.CondType:
		sb.WriteString("_if")
		e.constTypeName(sb, node.Args[0])
		e.constTypeName(sb, node.Args[1])
	case *ast.Apply:
		sb.WriteByte('_')
		t := e.Type(node.Type)
		if t.ProducesNat {
			switch node.Type {
			case e.Nat:
				sb.WriteString("nat")
			case e.NatWidth:
				sb.WriteString("natwidth")
			case e.NatLeq:
				sb.WriteString("natleq")
			case e.NatLess:
				sb.WriteString("natless")
			}
		} else {
			sb.WriteString(e.TypeName(t))
		}
		for _, arg := range node.Args {
			e.constTypeName(sb, arg)
		}
	}
}
