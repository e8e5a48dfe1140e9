package types

import (
	"fmt"
	"hash/crc32"

	"github.com/cottand/tlbc/frontend/ast"
	"github.com/cottand/tlbc/frontend/tlberr"
)

// ComputeTag is the CRC32 of the canonical rendering of cs, as a 32-bit tag
func (e *Env) ComputeTag(cs *ast.Constructor) uint64 {
	repr := e.ShowConstructor(cs, ast.ShowFlat|ast.ShowNoTag)
	crc := crc32.ChecksumIEEE([]byte(repr))
	e.binderLog.Debug("computed tag", "repr", repr, "crc32", fmt.Sprintf("%08x", crc))
	return uint64(crc)<<32 | 0x80000000
}

func (e *Env) computeIsFwd(cs *ast.Constructor) bool {
	if cs.Name != 0 || cs.TagBits != 0 || cs.Arity != 0 || len(cs.Fields) != 1 {
		cs.IsFwd = false
		return false
	}
	cs.IsFwd = cs.Fields[0].IsExplicit()
	return cs.IsFwd
}

// checkAssignTag gives named constructors without a tag their computed one.
// An explicit tag is always kept, even when it differs from the computed one.
func (e *Env) checkAssignTag(cs *ast.Constructor) {
	switch {
	case cs.Name != 0 && (cs.Tag == 0 || cs.Tag&(1<<63) != 0):
		computed := e.ComputeTag(cs)
		if cs.Tag == 0 {
			cs.SetTag(computed)
			if e.Opts.TagWarnings {
				e.warn(cs.Where, "constructor `%s` had no tag, assigned %s", e.QualifiedName(cs), ast.ShowTag(computed))
			}
		} else if cs.Tag != computed && e.Opts.TagWarnings {
			e.warn(cs.Where, "constructor `%s` has explicit tag %s different from its computed tag %s",
				e.QualifiedName(cs), ast.ShowTag(cs.Tag), ast.ShowTag(computed))
		}
	case cs.Name == 0 && cs.Tag == 0:
		cs.SetTag(1 << 63)
	}
}

// BindConstructor adds cs to t once its fields and parameters are parsed.
// It checks the parameters agree with the earlier constructors of t, and that
// every field gets a value either from the serialized data or from the parameters.
func (e *Env) BindConstructor(where ast.Range, t *ast.Type, cs *ast.Constructor) tlberr.TlbError {
	typeName := e.SymName(t.Name)
	if t.IsFinal {
		return tlberr.New(tlberr.NewFinalizedType{Positioner: where, TypeName: typeName, ConsName: e.SymName(cs.Name)})
	}
	if t.Arity < 0 {
		t.Arity = cs.Arity
		t.Args = make([]ast.ArgFlags, t.Arity)
	} else if t.Arity != cs.Arity {
		return tlberr.New(tlberr.NewArity{Positioner: where, TypeName: typeName, Redefined: true})
	}
	trueParams := 0
	for i, param := range cs.Params {
		info := e.Info(param)
		negated := cs.ParamNegated[i]
		if info.IsNat {
			t.Args[i] |= ast.ArgIsNat
		} else {
			t.Args[i] |= ast.ArgIsType
		}
		if t.Args[i].Has(ast.ArgIsNat) && t.Args[i].Has(ast.ArgIsType) {
			return exprSortErr(info.Where, fmt.Sprintf("formal parameter to type `%s` has incorrect type", typeName))
		}
		if negated {
			t.Args[i] |= ast.ArgIsNeg
		} else {
			t.Args[i] |= ast.ArgIsPos
			trueParams++
		}
		if t.Args[i].Has(ast.ArgIsPos) && t.Args[i].Has(ast.ArgIsNeg) {
			return polarityErr(info.Where, fmt.Sprintf("formal parameter to type `%s` has incorrect polarity", typeName))
		}
		if cs.ParamConstVal[i] < 0 {
			t.Args[i] |= ast.ArgNonConst
		}
	}
	explicitFields := 0
	for i := range cs.Fields {
		field := &cs.Fields[i]
		if field.Implicit && !field.Constraint {
			continue
		}
		if !field.Constraint {
			explicitFields++
		}
		if err := e.BindValue(field.Type, false, cs, true); err != nil {
			return err
		}
		field.Known = true
	}
	cs.IsEnum = explicitFields == 0
	cs.IsSimpleEnum = cs.IsEnum && trueParams == 0
	for i, param := range cs.Params {
		if cs.ParamNegated[i] {
			if err := e.BindValue(param, true, cs, false); err != nil {
				return err
			}
		}
	}
	for i := range cs.Fields {
		if field := &cs.Fields[i]; !field.Known {
			return tlberr.New(tlberr.NewUnbound{Positioner: field.Where, Field: e.FieldName(field)})
		}
	}
	if cs.Name != 0 {
		for _, other := range e.TypeCons(t) {
			if other.Name == cs.Name {
				return tlberr.New(tlberr.NewRedefinition{
					Positioner: cs.Where,
					What:       "constructor",
					Name:       typeName + "::" + e.SymName(cs.Name),
				})
			}
		}
	}
	if cs.TypeDefined == ast.NoType {
		cs.TypeDefined = t.Idx
	}
	e.checkAssignTag(cs)
	e.computeIsFwd(cs)
	t.IsEnum = t.IsEnum && cs.IsEnum
	t.IsSimpleEnum = t.IsSimpleEnum && cs.IsSimpleEnum
	if len(t.Constructors) > 0 && t.IsSpecial != cs.IsSpecial {
		return syntaxErr(cs.Where, "type `%s` has mixed special and non-special constructors", typeName)
	}
	t.IsSpecial = cs.IsSpecial
	t.Constructors = append(t.Constructors, cs.Idx)
	e.binderLog.Info("bound constructor", "cons", e.SlogCons(cs))
	return nil
}
