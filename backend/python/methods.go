package python

import (
	"fmt"
	"strings"

	"github.com/cottand/tlbc/backend"
)

func intList(values []int) string {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(s, ", ") + "]"
}

func isIdentity(values []int) bool {
	for i, v := range values {
		if v != i {
			return false
		}
	}
	return true
}

func (g *Emitter) GetTag(tp *backend.TypePlan, tree *backend.TagNode) {
	w := g.class(tp).methods
	cls := tp.Class
	w.p("")
	w.p("def get_tag(self, cs: CellSlice) -> Optional[%q]:", cls+".Tag")
	w.in()
	w.p("tag = self.get_tag_index(cs)")
	w.p("return None if tag < 0 else %s.Tag(tag)", cls)
	w.out()
	w.p("")
	w.p("def get_tag_index(self, cs: CellSlice) -> int:")
	w.in()
	w.p("t = self")
	tagNode(w, tp, tree)
	w.out()
	w.p("")
	w.p("def unpack(self, cs: CellSlice) -> Optional[RecordBase]:")
	w.in()
	w.p("tag = self.get_tag_index(cs)")
	for _, cp := range tp.ByEnum {
		w.p("if tag == %d:", cp.Enum)
		w.p("    rec = %s.%s(self)", cls, cp.Record.Name)
		w.p("    return rec if rec.unpack(cs) else None")
	}
	w.p("return None")
	w.out()
}

func tagNode(w *writer, tp *backend.TypePlan, node *backend.TagNode) {
	switch node.Kind {
	case backend.TagConst:
		w.p("return %d", node.Value)
	case backend.TagPreload:
		w.p("if cs.bits < %d:", node.Bits)
		w.p("    return -1")
		if isIdentity(node.Values) {
			w.p("return cs.preload_uint(%d)", node.Bits)
		} else {
			w.p("return %s[cs.preload_uint(%d)]", intList(node.Values), node.Bits)
		}
	case backend.TagBSelect:
		sel := fmt.Sprintf("%s(%d, %#x)", bselect(node.Ext), node.Bits, node.Mask)
		if node.Values[0] == -1 && isIdentity(node.Values[1:]) {
			w.p("return %s", sel)
			return
		}
		w.p("return %s[1 + %s]", intList(node.Values), sel)
	case backend.TagSwitchParam:
		w.p("sel = t.%s", node.Param.Name)
		tagCases(w, tp, node.Cases)
		tagNode(w, tp, node.Default)
	case backend.TagSwitchBits:
		if node.Mask != 0 {
			w.p("sel = %s(%d, %#x)", bselect(node.Ext), node.Bits, node.Mask)
		} else {
			w.p("sel = cs.preload_uint(%d) if cs.bits >= %d else -1", node.Bits, node.Bits)
		}
		tagCases(w, tp, node.Cases)
		tagNode(w, tp, node.Default)
	case backend.TagBit:
		w.p("if cs.bit_at(%d):", node.Pos)
		w.in()
		tagNode(w, tp, node.Then)
		w.out()
		tagNode(w, tp, node.Else)
	case backend.TagParamPattern:
		x := "t." + node.Param.Name
		var cond string
		switch node.Pattern {
		case backend.PatNonZero:
			cond = x + " != 0"
		case backend.PatOne:
			cond = x + " == 1"
		case backend.PatAtMostOne:
			cond = x + " <= 1"
		case backend.PatOdd:
			cond = x + " & 1 != 0"
		case backend.PatEvenNonZero:
			cond = x + " != 0 and " + x + " & 1 == 0"
		case backend.PatOddAboveOne:
			cond = x + " > 1 and " + x + " & 1 != 0"
		}
		w.p("if %s:", cond)
		w.p("    return %d", node.Values[1])
		w.p("return %d", node.Values[0])
	case backend.TagParamTable:
		idx := ""
		for i, pp := range node.Params {
			if i > 0 {
				idx = "(" + idx + ") * 4 + "
			}
			idx += "nat_abs(t." + pp.Name + ")"
		}
		w.p("return %s[%s]", intList(node.Values), idx)
	default:
		panic(fmt.Sprintf("unexpected tag node %v in %s", node.Kind, tp.TypeName))
	}
}

// tagCases renders the branches of a switch on sel
func tagCases(w *writer, tp *backend.TypePlan, cases []backend.TagCase) {
	for _, c := range cases {
		values := make([]string, len(c.Values))
		for i, v := range c.Values {
			values[i] = fmt.Sprint(v)
		}
		if len(values) == 1 {
			w.p("if sel == %s:", values[0])
		} else {
			w.p("if sel in (%s):", strings.Join(values, ", "))
		}
		w.in()
		tagNode(w, tp, c.Node)
		w.out()
	}
}

func bselect(ext bool) string {
	if ext {
		return "cs.bselect_ext"
	}
	return "cs.bselect"
}

func (g *Emitter) Skip(tp *backend.TypePlan, validate bool, bodies []*backend.Body) {
	w := g.class(tp).methods
	name := "skip"
	if validate {
		name = "validate_skip"
	}
	w.p("")
	w.p("def %s(self, cs: CellSlice) -> bool:", name)
	w.in()
	w.p("try:")
	w.p("    self.%s_out(cs)", name)
	w.p("except (RuntimeError, AssertionError):")
	w.p("    return False")
	w.p("return True")
	w.out()
	w.p("")
	w.p("def %s_out(self, cs: CellSlice) -> tuple:", name)
	w.in()
	w.p("t = self")
	s := scope{w: w, tp: tp}
	inline := tp.InlineSkip
	if validate {
		inline = tp.InlineValidateSkip
	}
	switch {
	case inline:
		s.action(&backend.Advance{Bits: tp.MinBits, Refs: tp.MinRefs})
		w.p("return ()")
	case len(bodies) == 1:
		s.body(bodies[0])
		w.p("return %s", outs(tp))
	default:
		w.p("tag = self.get_tag_index(cs)")
		for _, b := range bodies {
			w.p("if tag == %d:", b.Cons.Enum)
			w.in()
			s.body(b)
			w.p("return %s", outs(tp))
			w.out()
		}
		w.p("raise RuntimeError(%q)", "no matching constructor of "+tp.TypeName)
	}
	w.out()
}

func (g *Emitter) Unpack(tp *backend.TypePlan, r *backend.RecordPlan, body *backend.Body) {
	w := g.record(tp, r)
	w.p("")
	w.p("def unpack(self, cs: CellSlice) -> bool:")
	w.in()
	w.p("try:")
	w.p("    self.unpack_out(cs)")
	w.p("except (RuntimeError, AssertionError):")
	w.p("    return False")
	w.p("return True")
	w.out()
	w.p("")
	w.p("def unpack_out(self, cs: CellSlice) -> tuple:")
	w.in()
	w.p("t = self.type_class")
	scope{w: w, tp: tp}.body(body)
	w.p("return %s", outs(tp))
	w.out()
	w.p("")
	w.p("def cell_unpack(self, cell_ref: Cell) -> bool:")
	w.in()
	w.p("if cell_ref is None or cell_ref.is_null():")
	w.p("    return False")
	w.p("cs = cell_ref.begin_parse()")
	w.p("return self.unpack(cs) and cs.empty_ext()")
	w.out()
}

func (g *Emitter) Pack(tp *backend.TypePlan, r *backend.RecordPlan, body *backend.Body) {
	w := g.record(tp, r)
	w.p("")
	w.p("def pack(self, cb: CellBuilder) -> bool:")
	w.in()
	w.p("try:")
	w.p("    self.pack_out(cb)")
	w.p("except (RuntimeError, AssertionError):")
	w.p("    return False")
	w.p("return True")
	w.out()
	w.p("")
	w.p("def pack_out(self, cb: CellBuilder) -> tuple:")
	w.in()
	w.p("t = self.type_class")
	scope{w: w, tp: tp}.body(body)
	w.p("return %s", outs(tp))
	w.out()
	w.p("")
	w.p("def cell_pack(self) -> Cell:")
	w.in()
	w.p("cb = CellBuilder()")
	w.p("self.pack_out(cb)")
	w.p("return cb.end_cell()")
	w.out()
}

func (g *Emitter) EnumHelpers(tp *backend.TypePlan) {
	w := g.class(tp).methods
	cls := tp.Class
	count := len(tp.Cons)
	w.p("")
	w.p("def fetch_enum(self, cs: CellSlice) -> int:")
	w.in()
	switch {
	case tp.CommonLen == 0:
		w.p("return 0")
	case tp.IncrementalTags && tp.CommonLen > 0:
		w.p("value = cs.load_uint(%d)", tp.CommonLen)
		if count < 1<<tp.CommonLen {
			w.p("assert value < %d, %q", count, "no matching constructor of "+tp.TypeName)
		}
		w.p("return value")
	default:
		w.p("tag = self.get_tag_index(cs)")
		w.p("assert tag >= 0, %q", "no matching constructor of "+tp.TypeName)
		w.p("assert cs.load_uint(%s) == %s.cons_tag[tag]", consLen(tp, "tag"), cls)
		w.p("return tag")
	}
	w.out()
	w.p("")
	w.p("def store_enum_from(self, cb: CellBuilder, tag: int) -> None:")
	w.in()
	w.p("assert 0 <= tag < %d, %q", count, "no constructor of "+tp.TypeName+" with this tag")
	if tp.CommonLen == 0 {
		w.p("return")
	} else {
		w.p("cb.store_uint(%s.cons_tag[tag], %s)", cls, consLen(tp, "tag"))
	}
	w.out()
}
