package types

import (
	"fmt"
	"io"
)

func flag(set bool, text string) string {
	if set {
		return text
	}
	return ""
}

// DumpTypes writes a human-readable report of every used builtin and every user type
func (e *Env) DumpTypes(w io.Writer) {
	fmt.Fprintf(w, "%d types defined, out of them %d built-in, %d user-defined\n",
		len(e.Types), e.BuiltinTypesNum, len(e.Types)-e.BuiltinTypesNum)
	for i, t := range e.Types[:e.BuiltinTypesNum] {
		if t.Used == 0 {
			continue
		}
		fmt.Fprintf(w, "built-in type #%d: `%s`, arity %d; prefixes %s; size %s%s%s\n",
			i, e.TypeName(t), t.Arity, t.BeginsWith, t.Size, flag(t.IsUnit, " (UNIT)"), flag(t.IsBool, " (BOOL)"))
	}
	for _, t := range e.UserTypes() {
		fmt.Fprintf(w, "type #%d: `%s`, arity %d, %d constructors\n", t.Idx, e.TypeName(t), t.Arity, t.ConsNum())
		if t.ConstParamIdx >= 0 {
			fmt.Fprint(w, "  constant parameters:")
			for j := 0; j < t.Arity; j++ {
				if t.IsConstArg(j) {
					fmt.Fprint(w, " const")
				} else {
					fmt.Fprint(w, " *")
				}
			}
			fmt.Fprintln(w)
		}
		for _, cs := range e.TypeCons(t) {
			fmt.Fprintf(w, "  constructor `%s`%s\n\t%s\n", e.ConsName(cs), flag(cs.IsFwd, " (simple forwarder)"), e.ShowConstructor(cs, 0))
			fmt.Fprintf(w, "\tbegins with %s\n", cs.BeginsWith)
			if !cs.AdmissibleParams.IsSetAll() {
				fmt.Fprintf(w, "\tadmissibility %s\n", cs.AdmissibleParams)
			}
			if t.ConstParamIdx >= 0 {
				fmt.Fprintf(w, "\tconstant parameter #%d = %d\n", t.ConstParamIdx+1, cs.ConstParam(t.ConstParamIdx))
			}
			fmt.Fprintf(w, "\tsize %s%s%s\n", cs.Size, flag(cs.HasFixedSize, " (fixed)"), flag(cs.AnyBits, " (any bits)"))
			for i := range cs.Fields {
				field := &cs.Fields[i]
				fmt.Fprintf(w, "\t\tfield `%s`: %s (used=%t) (is_nat_subtype=%t)\n",
					e.FieldName(field), e.ShowExpr(field.Type, cs), field.Used, e.Info(field.Type).IsNatSubtype)
			}
		}
		fmt.Fprint(w, flag(t.IsUnit, "  (UNIT)\n"), flag(t.IsBool, "  (BOOL)\n"))
		if t.IsEnum {
			if t.IsSimpleEnum {
				fmt.Fprintln(w, "  (SIMPLE ENUM)")
			} else {
				fmt.Fprintln(w, "  (ENUM)")
			}
		}
		if t.ConsNum() > 1 {
			fmt.Fprint(w, "  constructor detection: ")
			if t.IsPfxDeterm {
				fmt.Fprintf(w, "PFX(%d) ", t.UsefulDepth)
			}
			if t.IsParamDeterm {
				fmt.Fprint(w, "PARAM ")
			}
			if t.IsConstParamDeterm {
				fmt.Fprint(w, "CONST_PARAM ")
			}
			if t.IsConstParamPfxDeterm && !t.IsPfxDeterm && !t.IsConstParamDeterm {
				fmt.Fprintf(w, "PFX(%d)+CONST_PARAM ", t.UsefulDepth)
			}
			if t.IsParamPfxDeterm && !t.IsPfxDeterm && !t.IsParamDeterm && !t.IsConstParamPfxDeterm {
				fmt.Fprintf(w, "PFX(%d)+PARAM ", t.UsefulDepth)
			}
			if t.IsDeterm && !t.IsConstParamPfxDeterm && !t.IsParamPfxDeterm {
				fmt.Fprintf(w, "PFX(%d)+CONST_PARAM+PARAM ", t.UsefulDepth)
			}
			if !t.IsDeterm {
				fmt.Fprint(w, "<CONFLICT>")
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "  type size %s%s%s\n", t.Size, flag(t.HasFixedSize, " (fixed)"), flag(t.AnyBits, " (any bits)"))
		fmt.Fprintf(w, "  type begins with %s\n", t.BeginsWith)
		if !t.AdmissibleParams.IsSetAll() {
			fmt.Fprintf(w, "  type admissibility %s\n", t.AdmissibleParams)
		}
		fmt.Fprintln(w)
	}
}

// DumpConstExprs lists the deduplicated constant type expressions
func (e *Env) DumpConstExprs(w io.Writer) {
	exprs := e.ConstExprs()
	fmt.Fprintf(w, "****************\n%d constant expressions:\n", len(exprs))
	for i, id := range exprs {
		fmt.Fprintf(w, "expr #%d: %s\n", i+1, e.ShowExpr(id, nil))
	}
}
