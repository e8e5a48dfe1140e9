package golang

import (
	"fmt"
	"strings"

	"github.com/cottand/tlbc/backend"
)

func intTable(values []int) string {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = fmt.Sprint(v)
	}
	return "[...]int{" + strings.Join(s, ", ") + "}"
}

// isIdentity reports whether values[i] is i
func isIdentity(values []int) bool {
	for i, v := range values {
		if v != i {
			return false
		}
	}
	return true
}

func (g *Emitter) GetTag(tp *backend.TypePlan, tree *backend.TagNode) {
	n := g.types[tp]
	g.p("// GetTag returns the constructor cs starts with, or -1 when there is none")
	g.p("func (t %s) GetTag(cs *tlbrt.Slice) int {", n.class)
	g.tagNode(tp, tree)
	g.p("}\n")

	g.p("func (t %s) ConsName(tag int) string {", n.class)
	g.p("switch tag {")
	for _, cp := range tp.ByEnum {
		g.p("case %s:", n.enum[cp.Idx])
		g.p("return %q", cp.Name)
	}
	g.p("}")
	g.p("return \"\"")
	g.p("}\n")

	g.p("// Unpack reads a value of any constructor of %s, returning its record", n.class)
	g.p("func (t %s) Unpack(cs *tlbrt.Slice) (rec any, err error) {", n.class)
	g.p("switch t.GetTag(cs) {")
	blanks := strings.Repeat("_, ", len(tp.OutParams()))
	for _, cp := range tp.ByEnum {
		g.p("case %s:", n.enum[cp.Idx])
		g.p("rec, %serr = t.Unpack%s(cs)", blanks, n.methods[cp.Idx])
		g.p("return")
	}
	g.p("}")
	g.p("err = tlbrt.NoTag(%q)", tp.TypeName)
	g.p("return")
	g.p("}\n")
}

func (g *Emitter) tagNode(tp *backend.TypePlan, node *backend.TagNode) {
	param := func(pp *backend.ParamPlan) string {
		return "t." + g.types[tp].params[pp.Idx]
	}
	switch node.Kind {
	case backend.TagConst:
		g.p("return %d", node.Value)
	case backend.TagPreload:
		if isIdentity(node.Values) {
			g.p("return cs.PrefetchIndex(%d)", node.Bits)
			return
		}
		g.p("if i := cs.PrefetchIndex(%d); i >= 0 {", node.Bits)
		g.p("return %s[i]", intTable(node.Values))
		g.p("}")
		g.p("return -1")
	case backend.TagBSelect:
		sel := fmt.Sprintf("%s(%d, %#x)", bselect(node.Ext), node.Bits, node.Mask)
		if node.Values[0] == -1 && isIdentity(node.Values[1:]) {
			g.p("return %s", sel)
			return
		}
		g.p("return %s[1+%s]", intTable(node.Values), sel)
	case backend.TagSwitchParam:
		g.p("switch %s {", param(node.Param))
		for _, c := range node.Cases {
			g.tagCase(tp, c)
		}
		g.p("}")
		g.tagNode(tp, node.Default)
	case backend.TagSwitchBits:
		sel := fmt.Sprintf("cs.PrefetchIndex(%d)", node.Bits)
		if node.Mask != 0 {
			sel = fmt.Sprintf("%s(%d, %#x)", bselect(node.Ext), node.Bits, node.Mask)
		}
		g.p("switch %s {", sel)
		for _, c := range node.Cases {
			g.tagCase(tp, c)
		}
		g.p("}")
		g.tagNode(tp, node.Default)
	case backend.TagBit:
		g.p("if cs.BitAt(%d) {", node.Pos)
		g.tagNode(tp, node.Then)
		g.p("}")
		g.tagNode(tp, node.Else)
	case backend.TagParamPattern:
		x := param(node.Param)
		var cond string
		switch node.Pattern {
		case backend.PatNonZero:
			cond = x + " != 0"
		case backend.PatOne:
			cond = x + " == 1"
		case backend.PatAtMostOne:
			cond = x + " <= 1"
		case backend.PatOdd:
			cond = x + "&1 != 0"
		case backend.PatEvenNonZero:
			cond = x + " != 0 && " + x + "&1 == 0"
		case backend.PatOddAboveOne:
			cond = x + " > 1 && " + x + "&1 != 0"
		}
		g.p("if %s {", cond)
		g.p("return %d", node.Values[1])
		g.p("}")
		g.p("return %d", node.Values[0])
	case backend.TagParamTable:
		idx := ""
		for i, pp := range node.Params {
			if i > 0 {
				idx = "(" + idx + ")*4 + "
			}
			idx += "tlbrt.NatAbs(" + param(pp) + ")"
		}
		g.p("return %s[%s]", intTable(node.Values), idx)
	default:
		panic(fmt.Sprintf("unexpected tag node %v in %s", node.Kind, tp.TypeName))
	}
}

func (g *Emitter) tagCase(tp *backend.TypePlan, c backend.TagCase) {
	values := make([]string, len(c.Values))
	for i, v := range c.Values {
		values[i] = fmt.Sprint(v)
	}
	g.p("case %s:", strings.Join(values, ", "))
	g.tagNode(tp, c.Node)
}

func bselect(ext bool) string {
	if ext {
		return "cs.BSelectExt"
	}
	return "cs.BSelect"
}

// results renders the named results of a method computing the outputs of tp
func results(tp *backend.TypePlan, n *typeNames, first ...string) string {
	res := first
	for _, pp := range tp.OutParams() {
		res = append(res, n.params[pp.Idx]+" "+paramType(pp))
	}
	return strings.Join(append(res, "err error"), ", ")
}

// outNames lists the outputs of tp, followed by more
func outNames(tp *backend.TypePlan, n *typeNames, more ...string) string {
	var res []string
	for _, pp := range tp.OutParams() {
		res = append(res, n.params[pp.Idx])
	}
	return strings.Join(append(res, more...), ", ")
}

func (g *Emitter) Skip(tp *backend.TypePlan, validate bool, bodies []*backend.Body) {
	n := g.types[tp]
	name := "Skip"
	if validate {
		name = "ValidateSkip"
		g.p("// ValidateSkip consumes one value of %s, checking tags and constraints", n.class)
	} else {
		g.p("// Skip consumes one value of %s", n.class)
	}
	if len(tp.OutParams()) > 0 {
		g.p("func (t %s) %s(cs *tlbrt.Slice) error {", n.class, name)
		g.p("%serr := t.%sOut(cs)", strings.Repeat("_, ", len(tp.OutParams())), name)
		g.p("return err")
		g.p("}\n")
		name += "Out"
	}
	g.p("func (t %s) %s(cs *tlbrt.Slice) (%s) {", n.class, name, results(tp, n))
	inline := tp.InlineSkip
	if validate {
		inline = tp.InlineValidateSkip
	}
	switch {
	case inline:
		g.actions(tp, &backend.Body{Actions: []backend.Action{&backend.Advance{Bits: tp.MinBits, Refs: tp.MinRefs}}})
		g.p("return")
	case len(bodies) == 1:
		g.body(tp, bodies[0])
		g.p("return")
	default:
		g.p("switch t.GetTag(cs) {")
		for _, b := range bodies {
			g.p("case %s:", n.enum[b.Cons.Idx])
			g.body(tp, b)
			g.p("return")
		}
		g.p("}")
		g.p("err = tlbrt.NoTag(%q)", tp.TypeName)
		g.p("return")
	}
	g.p("}\n")
}

func (g *Emitter) Unpack(tp *backend.TypePlan, r *backend.RecordPlan, body *backend.Body) {
	n := g.types[tp]
	method := "Unpack" + n.methods[r.Cons.Idx]
	rec := g.records[r]
	g.p("// %s reads %s", method, strings.ReplaceAll(r.Cons.Show, "\n", " "))
	g.p("func (t %s) %s(cs *tlbrt.Slice) (%s) {", n.class, method, results(tp, n, "rec "+rec))
	g.body(tp, body)
	g.p("return")
	g.p("}\n")

	g.p("// %sCell reads a cell holding exactly %s", method, r.Cons.Name)
	g.p("func (t %s) %sCell(c *tlbrt.Cell) (%s) {", n.class, method, results(tp, n, "rec "+rec))
	g.p("cs := tlbrt.NewSlice(c)")
	g.p("if rec, %s = t.%s(cs); err != nil {", outNames(tp, n, "err"), method)
	g.p("return")
	g.p("}")
	g.p("err = tlbrt.CheckEmpty(cs)")
	g.p("return")
	g.p("}\n")
}

func (g *Emitter) Pack(tp *backend.TypePlan, r *backend.RecordPlan, body *backend.Body) {
	n := g.types[tp]
	method := "Pack" + n.methods[r.Cons.Idx]
	rec := g.records[r]
	g.p("// %s writes %s", method, strings.ReplaceAll(r.Cons.Show, "\n", " "))
	g.p("func (t %s) %s(cb *tlbrt.Builder, rec %s) (%s) {", n.class, method, rec, results(tp, n))
	g.body(tp, body)
	g.p("return")
	g.p("}\n")

	g.p("func (t %s) %sCell(rec %s) (%s) {", n.class, method, rec, results(tp, n, "c *tlbrt.Cell"))
	g.p("cb := tlbrt.NewBuilder()")
	g.p("if %s = t.%s(cb, rec); err != nil {", outNames(tp, n, "err"), method)
	g.p("return")
	g.p("}")
	g.p("c = cb.EndCell()")
	g.p("return")
	g.p("}\n")
}

func (g *Emitter) EnumHelpers(tp *backend.TypePlan) {
	n := g.types[tp]
	count := len(tp.Cons)
	g.p("// FetchEnum reads a constructor of %s, returning its tag", n.class)
	g.p("func (t %s) FetchEnum(cs *tlbrt.Slice) (int, error) {", n.class)
	switch {
	case tp.CommonLen == 0:
		g.p("return 0, nil")
	case tp.IncrementalTags && tp.CommonLen > 0 && tp.CommonLen <= 32:
		g.p("v, err := cs.LoadUint(%d)", tp.CommonLen)
		g.p("if err != nil {")
		g.p("return -1, err")
		g.p("}")
		if count < 1<<tp.CommonLen {
			g.p("if v >= %d {", count)
			g.p("return -1, tlbrt.NoTag(%q)", tp.TypeName)
			g.p("}")
		}
		g.p("return int(v), nil")
	default:
		g.p("tag := t.GetTag(cs)")
		g.p("if tag < 0 {")
		g.p("return -1, tlbrt.NoTag(%q)", tp.TypeName)
		g.p("}")
		g.p("if err := cs.ExpectTag(%s, %s[tag]); err != nil {", g.consLen(tp, "tag"), n.consTag)
		g.p("return -1, err")
		g.p("}")
		g.p("return tag, nil")
	}
	g.p("}\n")

	g.p("// StoreEnum writes the constructor of %s with the given tag", n.class)
	g.p("func (t %s) StoreEnum(cb *tlbrt.Builder, tag int) error {", n.class)
	g.p("if tag < 0 || tag >= %d {", count)
	g.p("return tlbrt.NoTag(%q)", tp.TypeName)
	g.p("}")
	if tp.CommonLen == 0 {
		g.p("return nil")
	} else {
		g.p("return cb.StoreUint(%s[tag], %s)", n.consTag, g.consLen(tp, "tag"))
	}
	g.p("}\n")
}

// consLen is the tag length of the constructor with enum value idx
func (g *Emitter) consLen(tp *backend.TypePlan, idx string) string {
	n := g.types[tp]
	if tp.CommonLen >= 0 {
		return n.consLen
	}
	return n.consLen + "[" + idx + "]"
}
