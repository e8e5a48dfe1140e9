package python

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cottand/tlbc/backend"
)

func (s scope) body(b *backend.Body) {
	var names, zeros []string
	for _, pp := range s.tp.OutParams() {
		names, zeros = append(names, pp.Name), append(zeros, "0")
	}
	for _, v := range b.Locals {
		names, zeros = append(names, v.Name), append(zeros, "0")
	}
	if len(names) > 0 {
		s.w.p("%s = %s", strings.Join(names, ", "), strings.Join(zeros, ", "))
	}
	for _, a := range b.Actions {
		s.action(a)
	}
}

// unpackTo is the left side of an assignment from a tuple
func (s scope) unpackTo(vs []*backend.Var) string {
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = s.varName(v)
	}
	if len(names) == 1 {
		return names[0] + ","
	}
	return strings.Join(names, ", ")
}

// outs is the tuple of the negative parameters of the type being generated
func outs(tp *backend.TypePlan) string {
	var names []string
	for _, pp := range tp.OutParams() {
		names = append(names, pp.Name)
	}
	if len(names) == 1 {
		return "(" + names[0] + ",)"
	}
	return "(" + strings.Join(names, ", ") + ")"
}

// call runs a method returning a tuple of outputs, assigning them to vs
func (s scope) call(vs []*backend.Var, format string, args ...any) {
	call := fmt.Sprintf(format, args...)
	if len(vs) == 0 {
		s.w.p("%s", call)
		return
	}
	s.w.p("%s = %s", s.unpackTo(vs), call)
}

// recv is a type expression usable before a method call
func (s scope) recv(r *backend.TypeRef) string {
	return typeExpr(s, r)
}

func (s scope) action(a backend.Action) {
	w := s.w
	switch a := a.(type) {
	case *backend.Advance:
		if a.Bits > 0 {
			w.p("assert cs.advance(%d)", a.Bits)
		}
		if a.Refs > 0 {
			w.p("assert cs.advance_refs(%d)", a.Refs)
		}
	case *backend.AdvanceBy:
		w.p("assert cs.advance(%s)", s.expr(a.Bits))
	case *backend.CheckTag:
		w.p("assert cs.load_uint(%d) == %#x", a.Bits, a.Tag)
	case *backend.StoreTag:
		w.p("cb.store_uint(%#x, %d)", a.Tag, a.Bits)
	case *backend.FetchNat:
		dst := s.varName(a.Dst)
		switch a.Kind {
		case backend.NatFull:
			w.p("%s = cs.load_uint(32)", dst)
		case backend.NatWidth:
			w.p("%s = cs.load_uint(%s)", dst, s.expr(a.Arg))
		case backend.NatLeq:
			w.p("%s = cs.load_uint_leq(%s)", dst, s.expr(a.Arg))
		case backend.NatLess:
			w.p("%s = cs.load_uint_less(%s)", dst, s.expr(a.Arg))
		}
	case *backend.StoreNat:
		src := s.varName(a.Src)
		switch a.Kind {
		case backend.NatFull:
			w.p("cb.store_uint(%s, 32)", src)
		case backend.NatWidth:
			w.p("cb.store_uint(%s, %s)", src, s.expr(a.Arg))
		case backend.NatLeq:
			w.p("cb.store_uint_leq(%s, %s)", s.expr(a.Arg), src)
		case backend.NatLess:
			w.p("cb.store_uint_less(%s, %s)", s.expr(a.Arg), src)
		}
	case *backend.FetchValue:
		w.p("%s = %s", s.varName(a.Dst), loadValue(a.VT, a.Dst.Field != nil && a.Dst.Field.Signed, s.expr(a.Bits), a.Refs))
	case *backend.StoreValue:
		w.p("%s", storeValue(a.VT, a.Src.Field != nil && a.Src.Field.Signed, s.varName(a.Src), s.expr(a.Bits)))
	case *backend.FetchRef:
		w.p("%s = cs.load_ref()", s.varName(a.Dst))
	case *backend.StoreRef:
		w.p("cb.store_ref(%s)", s.varName(a.Src))
	case *backend.FetchSubrecord:
		dst := s.varName(a.Dst)
		w.p("%s = %s.%s()", dst, a.Rec.Type.Class, a.Rec.Name)
		w.p("assert %s.cell_unpack(cs.load_ref())", dst)
	case *backend.StoreSubrecord:
		w.p("cb.store_ref(%s.cell_pack())", s.varName(a.Src))
	case *backend.CallSkip:
		method := "skip_out"
		if a.Validate {
			method = "validate_skip_out"
		}
		src := "cs"
		if a.OnEmpty {
			src = "CellBuilder().end_cell().begin_parse()"
		}
		s.call(a.Outs, "%s.%s(%s)", s.recv(a.Type), method, src)
	case *backend.FetchType:
		dst := s.varName(a.Dst)
		if a.Enum {
			w.p("%s = %s.fetch_enum(cs)", dst, s.recv(a.Type))
			return
		}
		method := "skip_out"
		if a.Validate {
			method = "validate_skip_out"
		}
		w.p("save = cs.copy()")
		s.call(a.Outs, "%s.%s(cs)", s.recv(a.Type), method)
		w.p("%s = save.load_subslice(save.bits - cs.bits, save.refs - cs.refs)", dst)
	case *backend.StoreType:
		src := s.varName(a.Src)
		if a.Enum {
			w.p("%s.store_enum_from(cb, %s)", s.recv(a.Type), src)
			return
		}
		w.p("cb.store_slice(%s)", src)
		if len(a.Outs) > 0 {
			s.call(a.Outs, "%s.skip_out(%s.copy())", s.recv(a.Type), src)
		}
	case *backend.ValidateRef:
		if a.Dst == nil {
			w.p("assert %s.validate_ref(cs.load_ref())", s.recv(a.Type))
			return
		}
		dst := s.varName(a.Dst)
		w.p("%s = cs.load_ref()", dst)
		w.p("assert %s.validate_ref(%s)", s.recv(a.Type), dst)
	case *backend.Assign:
		w.p("%s = %s", s.varName(a.Dst), s.expr(a.Value))
	case *backend.Check:
		w.p("assert %s %s %s, %s", s.expr(a.X), a.Op, s.expr(a.Y), strconv.Quote(a.Text))
	case *backend.Invert:
		dst, z, y := s.varName(a.Dst), s.expr(a.Z), s.expr(a.Y)
		if a.Op == backend.OpMul {
			w.p("assert %s != 0 and %s %% %s == 0", y, z, y)
			w.p("%s = %s // %s", dst, z, y)
		} else {
			w.p("%s = %s - %s", dst, z, y)
			w.p("assert %s >= 0", dst)
		}
	case *backend.Guard:
		conds := make([]string, len(a.Conds))
		for i, c := range a.Conds {
			conds[i] = s.expr(c) + " != 0"
		}
		w.p("if %s:", strings.Join(conds, " and "))
		w.in()
		s.action(a.Then)
		w.out()
	default:
		panic(fmt.Sprintf("unexpected action %T", a))
	}
}

func loadValue(vt backend.ValueType, signed bool, bits string, refs int) string {
	switch vt {
	case backend.VtCell:
		return "cs.load_ref()"
	case backend.VtBits, backend.VtBitstring:
		return "cs.load_bitstring(" + bits + ")"
	case backend.VtBool:
		return "cs.load_bool()"
	case backend.VtInt32, backend.VtUint32, backend.VtNat, backend.VtInt64, backend.VtUint64, backend.VtInteger:
		if signed {
			return "cs.load_int(" + bits + ")"
		}
		return "cs.load_uint(" + bits + ")"
	}
	return fmt.Sprintf("cs.load_subslice(%s, %d)", bits, refs)
}

func storeValue(vt backend.ValueType, signed bool, src, bits string) string {
	switch vt {
	case backend.VtCell:
		return "cb.store_ref(" + src + ")"
	case backend.VtBits, backend.VtBitstring:
		return "cb.store_bitstring(" + src + ")"
	case backend.VtBool:
		return "cb.store_bool(" + src + ")"
	case backend.VtInt32, backend.VtUint32, backend.VtNat, backend.VtInt64, backend.VtUint64, backend.VtInteger:
		if signed {
			return "cb.store_int(" + src + ", " + bits + ")"
		}
		return "cb.store_uint(" + src + ", " + bits + ")"
	}
	return "cb.store_slice(" + src + ")"
}
