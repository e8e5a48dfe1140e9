package types

import (
	"fmt"
	"strconv"

	"github.com/cottand/tlbc/frontend/ast"
	"github.com/cottand/tlbc/frontend/tlberr"
)

// Expression modes, combined as bit flags
const (
	// ModeType allows type expressions
	ModeType = 1
	// ModeNat allows natural number expressions
	ModeNat = 2
	// ModeAutoNegate makes unknown fields negated, as in the parameters of a constructor's result type
	ModeAutoNegate = 4
	// ModeTchk allows expressions only meaningful when checking a type, such as comparisons
	ModeTchk = 8
)

func exprSortErr(where ast.Positioner, msg string) tlberr.TlbError {
	return tlberr.New(tlberr.NewExprSort{Positioner: where, Msg: msg})
}

func polarityErr(where ast.Positioner, msg string) tlberr.TlbError {
	return tlberr.New(tlberr.NewPolarity{Positioner: where, Msg: msg})
}

func syntaxErr(where ast.Positioner, format string, args ...any) tlberr.TlbError {
	return tlberr.New(tlberr.NewSyntax{Positioner: where, Msg: fmt.Sprintf(format, args...)})
}

// CheckMode verifies that id is of a sort allowed by mode
func (e *Env) CheckMode(where ast.Range, id ast.NodeId, mode int) tlberr.TlbError {
	info := e.Info(id)
	sortBit := ModeType
	if info.IsNat {
		sortBit = ModeNat
	}
	if mode&sortBit == 0 {
		if info.IsNat {
			return exprSortErr(where, "type expression required")
		}
		return exprSortErr(where, "integer expression required")
	}
	if info.TchkOnly && mode&ModeTchk == 0 {
		return exprSortErr(info.Where, "type expression can be used only in a type-checking context")
	}
	return nil
}

// NoTchk rejects expressions only usable when checking types
func (e *Env) NoTchk(id ast.NodeId) tlberr.TlbError {
	info := e.Info(id)
	if info.TchkOnly {
		return exprSortErr(info.Where, "type expression can be used only in a type-checking context")
	}
	return nil
}

// MkIntConst parses a decimal literal, which must fit in 31 bits
func (e *Env) MkIntConst(where ast.Range, literal string) (ast.NodeId, tlberr.TlbError) {
	value, err := strconv.ParseInt(literal, 0, 64)
	if err != nil || value < 0 || value >= 1<<31 {
		return ast.NoNode, tlberr.New(tlberr.NewIntRange{
			Positioner: where,
			Msg:        "integer constant does not fit in an unsigned 31-bit integer",
		})
	}
	return e.MkIntConstValue(where, int(value)), nil
}

func (e *Env) MkIntConstValue(where ast.Range, value int) ast.NodeId {
	return e.Add(&ast.IntConst{ExprInfo: ast.ExprInfo{Where: where, IsNat: true}, Value: value})
}

// MkApplyEmpty is the type t not applied to anything yet
func (e *Env) MkApplyEmpty(where ast.Range, name ast.SymId, t ast.TypeId) ast.NodeId {
	typ := e.Type(t)
	return e.Add(&ast.Apply{
		ExprInfo: ast.ExprInfo{Where: where, IsNatSubtype: typ.ProducesNat && typ.Arity == 0},
		Type:     t,
		Name:     name,
	})
}

// MkApplyGen applies the application fn to one more argument
func (e *Env) MkApplyGen(where ast.Range, fn, arg ast.NodeId) (ast.NodeId, tlberr.TlbError) {
	apply, ok := e.Node(fn).(*ast.Apply)
	if !ok {
		return ast.NoNode, syntaxErr(where, "cannot apply one expression to the other")
	}
	apply.Args = append(apply.Args, arg)
	return fn, nil
}

// MkMulInt builds x * y where one side is constant
func (e *Env) MkMulInt(where ast.Range, x, y ast.NodeId) (ast.NodeId, tlberr.TlbError) {
	_, xConst := e.Node(x).(*ast.IntConst)
	yc, yConst := e.Node(y).(*ast.IntConst)
	if !xConst && !yConst {
		return ast.NoNode, syntaxErr(where, "multiplication allowed only by constant values")
	}
	if !yConst {
		x, y = y, x
		yc = e.Node(y).(*ast.IntConst)
	}
	xInfo := e.Info(x)
	if !xInfo.IsNat {
		return ast.NoNode, exprSortErr(xInfo.Where, "argument to integer multiplication should be a number")
	}
	if xc, ok := e.Node(x).(*ast.IntConst); ok {
		product := int64(xc.Value) * int64(yc.Value)
		if product < 0 || product >= 1<<31 {
			return ast.NoNode, tlberr.New(tlberr.NewIntRange{Positioner: where, Msg: "product does not fit in 31 bits"})
		}
		return e.MkIntConstValue(where, int(product)), nil
	}
	if yc.Value == 0 {
		return y, nil
	}
	return e.Add(&ast.MulConst{
		ExprInfo: ast.ExprInfo{Where: where, Args: []ast.NodeId{x}, IsNat: true, Negated: xInfo.Negated},
		Factor:   yc.Value,
	}), nil
}

// MkAdd is x + y, negated when either side is
func (e *Env) MkAdd(where ast.Range, x, y ast.NodeId) ast.NodeId {
	return e.Add(&ast.Add{ExprInfo: ast.ExprInfo{
		Where:   where,
		Args:    []ast.NodeId{x, y},
		IsNat:   true,
		Negated: e.Info(x).Negated || e.Info(y).Negated,
	}})
}

func (e *Env) MkGetBit(where ast.Range, x, y ast.NodeId) ast.NodeId {
	return e.Add(&ast.GetBit{ExprInfo: ast.ExprInfo{Where: where, Args: []ast.NodeId{x, y}, IsNat: true}})
}

func (e *Env) MkTuple(where ast.Range, count, elem ast.NodeId) ast.NodeId {
	return e.Add(&ast.Tuple{ExprInfo: ast.ExprInfo{Where: where, Args: []ast.NodeId{count, elem}}})
}

func (e *Env) MkCondType(where ast.Range, cond, elem ast.NodeId) ast.NodeId {
	return e.Add(&ast.CondType{ExprInfo: ast.ExprInfo{Where: where, Args: []ast.NodeId{cond, elem}}})
}

func (e *Env) MkRef(where ast.Range, x ast.NodeId) ast.NodeId {
	return e.Add(&ast.Ref{ExprInfo: ast.ExprInfo{Where: where, Args: []ast.NodeId{x}}})
}

func (e *Env) MkParam(where ast.Range, field int, isNat, negated bool) ast.NodeId {
	return e.Add(&ast.Param{ExprInfo: ast.ExprInfo{Where: where, IsNat: isNat, Negated: negated}, Field: field})
}

// Close finishes an application once all its arguments are known. It fixes
// the arity of the applied type on first use and the sort and polarity of
// each of its parameters.
func (e *Env) Close(id ast.NodeId) tlberr.TlbError {
	apply, ok := e.Node(id).(*ast.Apply)
	if !ok {
		return nil
	}
	t := e.Type(apply.Type)
	if t.Arity < 0 {
		t.Arity = len(apply.Args)
		t.Args = make([]ast.ArgFlags, t.Arity)
	} else if t.Arity != len(apply.Args) {
		return tlberr.New(tlberr.NewArity{Positioner: apply.Where, TypeName: e.SymName(t.Name)})
	}
	apply.IsNatSubtype = t.ProducesNat
	isEq := t.Idx == e.Eq
	negCount := 0
	for i, argId := range apply.Args {
		arg := e.Info(argId)
		if arg.Negated {
			negCount++
			if !isEq {
				if t.Args[i].Has(ast.ArgIsPos) {
					return polarityErr(arg.Where, fmt.Sprintf("passed an argument of incorrect polarity to `%s`", e.SymName(t.Name)))
				}
				t.Args[i] |= ast.ArgIsNeg
			} else if negCount == 2 {
				return polarityErr(apply.Where, "cannot equate two expressions of negative polarity")
			}
		}
		if err := e.NoTchk(argId); err != nil {
			return err
		}
		if arg.IsNat {
			t.Args[i] |= ast.ArgIsNat
		} else {
			t.Args[i] |= ast.ArgIsType
			if arg.Negated {
				return polarityErr(arg.Where, "cannot use negative types as arguments to other types")
			}
		}
	}
	apply.Negated = negCount > 0
	apply.TchkOnly = negCount > 0
	return nil
}

// BindValue propagates which fields of cs get known values when a value flows
// into expression id. valueNegated is set when the expression is computed and
// returned rather than compared, and checkingType when id is the type of a field.
func (e *Env) BindValue(id ast.NodeId, valueNegated bool, cs *ast.Constructor, checkingType bool) tlberr.TlbError {
	node := e.Node(id)
	info := node.Info()
	if !checkingType {
		if err := e.NoTchk(id); err != nil {
			return err
		}
	} else {
		if info.IsNat {
			return exprSortErr(info.Where, "cannot use check a type against an integer expression")
		}
		if valueNegated {
			return polarityErr(info.Where, "cannot compute a value knowing only its type")
		}
	}
	if info.Negated && valueNegated {
		return polarityErr(info.Where, "expression has wrong polarity")
	}
	if !info.IsNat && !checkingType {
		if !info.Negated && !valueNegated {
			if apply, ok := node.(*ast.Apply); ok && len(apply.Args) == 0 {
				return syntaxErr(info.Where, "use of a global type or an undeclared variable")
			}
			return syntaxErr(info.Where, "cannot check type expressions for equality")
		}
		if _, isParam := node.(*ast.Param); info.Negated && !isParam {
			return polarityErr(info.Where, "types can be assigned only to free type variables")
		}
	}
	switch node := node.(type) {
	case *ast.Add:
		return e.bindInvertible(node.Args, info.Negated, cs)
	case *ast.IntConst, *ast.TypeSort:
		return nil
	case *ast.MulConst:
		return e.BindValue(node.Args[0], valueNegated, cs, false)
	case *ast.GetBit:
		if err := e.BindValue(node.Args[0], false, cs, false); err != nil {
			return err
		}
		return e.BindValue(node.Args[1], false, cs, false)
	case *ast.Param:
		field := &cs.Fields[node.Field]
		if !info.Negated || checkingType {
			if !field.Known {
				return tlberr.New(tlberr.NewUnbound{Positioner: info.Where, Field: e.FieldName(field), BeforeAssign: true})
			}
			field.Used = true
		} else if !field.Known {
			field.Known = true
			e.binderLog.Debug("field assigned", "field", e.FieldName(field), "cons", e.QualifiedName(cs))
		}
		return nil
	case *ast.Apply:
		if node.Type == e.Eq {
			return e.bindInvertible(node.Args, info.Negated, cs)
		}
		for _, arg := range node.Args {
			if !e.Info(arg).Negated {
				if err := e.BindValue(arg, true, cs, false); err != nil {
					return err
				}
			}
		}
		for _, arg := range node.Args {
			if e.Info(arg).Negated {
				if err := e.BindValue(arg, false, cs, false); err != nil {
					return err
				}
			}
		}
		return nil
	case *ast.CondType, *ast.Tuple:
		args := node.Info().Args
		if err := e.BindValue(args[0], true, cs, false); err != nil {
			return err
		}
		return e.BindValue(args[1], true, cs, false)
	case *ast.Ref:
		return e.BindValue(node.Args[0], valueNegated, cs, checkingType)
	}
	return syntaxErr(info.Where, "cannot bind a value to an expression of unknown sort")
}

// bindInvertible binds a + b or a = b, where at most one side is negated.
// The positive side is computed first, then its value is assigned to the negated one.
func (e *Env) bindInvertible(args []ast.NodeId, negated bool, cs *ast.Constructor) tlberr.TlbError {
	i := 0
	if e.Info(args[0]).Negated {
		i = 1
	}
	if err := e.BindValue(args[i], negated, cs, false); err != nil {
		return err
	}
	return e.BindValue(args[1-i], false, cs, false)
}
