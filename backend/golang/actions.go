package golang

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cottand/tlbc/backend"
)

func (g *Emitter) body(tp *backend.TypePlan, b *backend.Body) {
	start := g.buf.Len()
	g.actions(tp, b)
	code := string(g.buf.Bytes()[start:])

	var names, blanks []string
	for _, v := range b.Locals {
		if mentions(code, v.Name) {
			names = append(names, v.Name)
			blanks = append(blanks, "_")
		}
	}
	if len(names) == 0 {
		return
	}
	g.buf.Truncate(start)
	g.p("var %s uint32", strings.Join(names, ", "))
	g.p("%s = %s", strings.Join(blanks, ", "), strings.Join(names, ", "))
	g.buf.WriteString(code)
}

// mentions reports whether code uses the local variable name, as opposed to a selector of the same name
func mentions(code, name string) bool {
	for i := 0; ; {
		j := strings.Index(code[i:], name)
		if j < 0 {
			return false
		}
		j += i
		end := j + len(name)
		if (j == 0 || !isIdentByte(code[j-1]) && code[j-1] != '.') && (end == len(code) || !isIdentByte(code[end])) {
			return true
		}
		i = end
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func (g *Emitter) actions(tp *backend.TypePlan, b *backend.Body) {
	s := scope{g: g, tp: tp}
	for _, a := range b.Actions {
		g.action(s, a)
	}
}

// try calls call, assigning its results but the error to lhs, and returns on failure
func (g *Emitter) try(lhs, format string, args ...any) {
	call := fmt.Sprintf(format, args...)
	if lhs == "" {
		g.p("if err = %s; err != nil {", call)
	} else {
		g.p("if %s, err = %s; err != nil {", lhs, call)
	}
	g.p("return")
	g.p("}")
}

func (s scope) vars(vs []*backend.Var) string {
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = s.varName(v)
	}
	return strings.Join(names, ", ")
}

func isSigned(v *backend.Var) bool {
	return v.Field != nil && v.Field.Signed
}

func (g *Emitter) action(s scope, a backend.Action) {
	switch a := a.(type) {
	case *backend.Advance:
		if a.Bits > 0 {
			g.try("", "cs.Advance(%d)", a.Bits)
		}
		if a.Refs > 0 {
			g.try("", "cs.AdvanceRefs(%d)", a.Refs)
		}
	case *backend.AdvanceBy:
		g.try("", "cs.Advance(%s)", s.expr(a.Bits))
	case *backend.CheckTag:
		g.try("", "cs.ExpectTag(%d, %#x)", a.Bits, a.Tag)
	case *backend.StoreTag:
		g.try("", "cb.StoreUint(%#x, %d)", a.Tag, a.Bits)
	case *backend.FetchNat:
		dst := s.varName(a.Dst)
		switch a.Kind {
		case backend.NatFull:
			g.try(dst, "cs.LoadNat(32)")
		case backend.NatWidth:
			g.try(dst, "cs.LoadNat(%s)", s.expr(a.Arg))
		case backend.NatLeq:
			g.try(dst, "cs.LoadUintLeq(%s)", s.expr(a.Arg))
		case backend.NatLess:
			g.try(dst, "cs.LoadUintLess(%s)", s.expr(a.Arg))
		}
	case *backend.StoreNat:
		src := s.varName(a.Src)
		switch a.Kind {
		case backend.NatFull:
			g.try("", "cb.StoreNat(%s, 32)", src)
		case backend.NatWidth:
			g.try("", "cb.StoreNat(%s, %s)", src, s.expr(a.Arg))
		case backend.NatLeq:
			g.try("", "cb.StoreUintLeq(%s, %s)", s.expr(a.Arg), src)
		case backend.NatLess:
			g.try("", "cb.StoreUintLess(%s, %s)", s.expr(a.Arg), src)
		}
	case *backend.FetchValue:
		g.try(s.varName(a.Dst), "%s", loadValue(a.VT, isSigned(a.Dst), s.expr(a.Bits), a.Refs))
	case *backend.StoreValue:
		g.try("", "%s", storeValue(a.VT, isSigned(a.Src), s.varName(a.Src), s.expr(a.Bits), a.Refs))
	case *backend.FetchRef:
		g.try(s.varName(a.Dst), "cs.LoadRef()")
	case *backend.StoreRef:
		g.try("", "cb.StoreRef(%s)", s.varName(a.Src))
	case *backend.FetchSubrecord:
		sub := g.types[a.Rec.Type]
		g.p("{")
		g.p("var c *tlbrt.Cell")
		g.try("c", "cs.LoadRef()")
		g.try(s.varName(a.Dst), "%s.Unpack%sCell(c)", subRecv(a.Rec.Type, sub), sub.methods[a.Rec.Cons.Idx])
		g.p("}")
	case *backend.StoreSubrecord:
		sub := g.types[a.Rec.Type]
		g.p("{")
		g.p("var c *tlbrt.Cell")
		g.try("c", "%s.Pack%sCell(%s)", subRecv(a.Rec.Type, sub), sub.methods[a.Rec.Cons.Idx], s.varName(a.Src))
		g.try("", "cb.StoreRef(c)")
		g.p("}")
	case *backend.CallSkip:
		method := "Skip"
		if a.Validate {
			method = "ValidateSkip"
		}
		if len(a.Outs) > 0 {
			method += "Out"
		}
		src := "cs"
		if a.OnEmpty {
			src = "tlbrt.NewSlice(nil)"
		}
		g.try(s.vars(a.Outs), "%s.%s(%s)", s.recv(a.Type), method, src)
	case *backend.FetchType:
		dst := s.varName(a.Dst)
		switch {
		case a.Enum:
			g.try(dst, "%s.FetchEnum(cs)", s.recv(a.Type))
		case len(a.Outs) > 0:
			method := "SkipOut"
			if a.Validate {
				method = "ValidateSkipOut"
			}
			g.p("{")
			g.p("save := cs.Copy()")
			g.try(s.vars(a.Outs), "%s.%s(cs)", s.recv(a.Type), method)
			g.try(dst, "cs.CutRaw(save)")
			g.p("}")
		default:
			g.try(dst, "tlbrt.FetchRaw(cs, %s, %t)", s.typeExpr(a.Type), a.Validate)
		}
	case *backend.StoreType:
		src := s.varName(a.Src)
		switch {
		case a.Enum:
			g.try("", "%s.StoreEnum(cb, %s)", s.recv(a.Type), src)
		default:
			g.try("", "cb.StoreRaw(%s)", src)
			if len(a.Outs) > 0 {
				g.try(s.vars(a.Outs), "%s.SkipOut(%s.Parse())", s.recv(a.Type), src)
			}
		}
	case *backend.ValidateRef:
		dst := "_"
		if a.Dst != nil {
			dst = s.varName(a.Dst)
		}
		g.try(dst, "tlbrt.ValidateRef(cs, %s)", s.typeExpr(a.Type))
	case *backend.Assign:
		g.p("%s = %s", s.varName(a.Dst), s.expr(a.Value))
	case *backend.Check:
		g.try("", "tlbrt.Check(%s %s %s, %s)", s.expr(a.X), a.Op, s.expr(a.Y), strconv.Quote(a.Text))
	case *backend.Invert:
		fn := "tlbrt.AddR1"
		if a.Op == backend.OpMul {
			fn = "tlbrt.MulR1"
		}
		g.try(s.varName(a.Dst), "%s(%s, %s)", fn, s.expr(a.Z), s.expr(a.Y))
	case *backend.Guard:
		conds := make([]string, len(a.Conds))
		for i, c := range a.Conds {
			conds[i] = s.expr(c) + " != 0"
		}
		g.p("if %s {", strings.Join(conds, " && "))
		g.action(s, a.Then)
		g.p("}")
	default:
		panic(fmt.Sprintf("unexpected action %T", a))
	}
}

// subRecv is the type holding a subrecord, which has no parameters
func subRecv(tp *backend.TypePlan, n *typeNames) string {
	if tp.Var != "" {
		return tp.Var
	}
	return "(" + n.class + "{})"
}

func loadValue(vt backend.ValueType, signed bool, bits string, refs int) string {
	switch vt {
	case backend.VtCell:
		return "cs.LoadRef()"
	case backend.VtBits, backend.VtBitstring:
		return "cs.LoadBits(" + bits + ")"
	case backend.VtBool:
		return "cs.LoadBool()"
	case backend.VtInt32:
		if signed {
			return "cs.LoadInt32(" + bits + ")"
		}
		return "cs.LoadNat(" + bits + ")"
	case backend.VtUint32, backend.VtNat:
		return "cs.LoadNat(" + bits + ")"
	case backend.VtInt64:
		if signed {
			return "cs.LoadInt(" + bits + ")"
		}
		return "cs.LoadUint(" + bits + ")"
	case backend.VtUint64:
		return "cs.LoadUint(" + bits + ")"
	case backend.VtInteger:
		if signed {
			return "cs.LoadBigInt(" + bits + ")"
		}
		return "cs.LoadBigUint(" + bits + ")"
	}
	return fmt.Sprintf("cs.LoadRaw(%s, %d)", bits, refs)
}

func storeValue(vt backend.ValueType, signed bool, src, bits string, refs int) string {
	switch vt {
	case backend.VtCell:
		return "cb.StoreRef(" + src + ")"
	case backend.VtBits, backend.VtBitstring:
		return "cb.StoreBits(" + src + ", " + bits + ")"
	case backend.VtBool:
		return "cb.StoreBool(" + src + ")"
	case backend.VtInt32:
		if signed {
			return "cb.StoreInt32(" + src + ", " + bits + ")"
		}
		return "cb.StoreNat(" + src + ", " + bits + ")"
	case backend.VtUint32, backend.VtNat:
		return "cb.StoreNat(" + src + ", " + bits + ")"
	case backend.VtInt64:
		if signed {
			return "cb.StoreInt(" + src + ", " + bits + ")"
		}
		return "cb.StoreUint(" + src + ", " + bits + ")"
	case backend.VtUint64:
		return "cb.StoreUint(" + src + ", " + bits + ")"
	case backend.VtInteger:
		if signed {
			return "cb.StoreBigInt(" + src + ", " + bits + ")"
		}
		return "cb.StoreBigUint(" + src + ", " + bits + ")"
	}
	return fmt.Sprintf("cb.StoreRawSized(%s, %s, %d)", src, bits, refs)
}
