package python

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cottand/tlbc/backend"
)

func (g *Emitter) TypeDecl(tp *backend.TypePlan) {
	w := g.class(tp).head
	if len(tp.Cons) > 0 {
		w.p(`"""`)
		for _, cp := range tp.Cons {
			w.p("%s", strings.ReplaceAll(cp.Show, "\n", " "))
		}
		w.p(`"""`)
	}
	pos := tp.PosParams()
	if len(pos) == 0 {
		return
	}
	args := []string{"self"}
	for _, pp := range pos {
		args = append(args, pp.Name+": "+paramType(pp))
	}
	w.p("")
	w.p("def __init__(%s):", strings.Join(args, ", "))
	w.in()
	w.p("super().__init__()")
	for _, pp := range pos {
		w.p("self.%s = %s", pp.Name, pp.Name)
	}
	w.out()
}

func (g *Emitter) TagEnum(tp *backend.TypePlan) {
	if len(tp.Cons) == 0 {
		return
	}
	w := g.class(tp).head
	w.p("")
	w.p("class Tag(Enum):")
	w.in()
	for _, cp := range tp.ByEnum {
		w.p("%s = %d", cp.Name, cp.Enum)
	}
	w.out()
}

func (g *Emitter) TagTables(tp *backend.TypePlan) {
	if len(tp.Cons) == 0 {
		return
	}
	w := g.class(tp).head
	w.p("")
	if tp.CommonLen >= 0 {
		w.p("cons_len_exact = %d", tp.CommonLen)
	} else {
		lens := make([]string, len(tp.ByEnum))
		for i, cp := range tp.ByEnum {
			lens[i] = strconv.Itoa(cp.TagBits)
		}
		w.p("cons_len = [%s]", strings.Join(lens, ", "))
	}
	tags := make([]string, len(tp.ByEnum))
	for i, cp := range tp.ByEnum {
		tags[i] = fmt.Sprintf("%#x", cp.Tag)
	}
	w.p("cons_tag = [%s]", strings.Join(tags, ", "))
}

// consLen is the tag length of the constructor with enum value idx
func consLen(tp *backend.TypePlan, idx string) string {
	if tp.CommonLen >= 0 {
		return tp.Class + ".cons_len_exact"
	}
	return tp.Class + ".cons_len[" + idx + "]"
}

func (g *Emitter) Record(tp *backend.TypePlan, r *backend.RecordPlan) {
	w := g.record(tp, r)
	cls := tp.Class
	w.p("def get_tag_enum(self):")
	w.p("    return %s.Tag.%s", cls, r.Cons.Name)
	w.p("")
	w.p("def get_tag(self):")
	w.p("    return %s.cons_tag[self.get_tag_enum().value]", cls)
	w.p("")
	w.p("def get_tag_len(self):")
	w.p("    return %s", consLen(tp, "self.get_tag_enum().value"))
	w.p("")
	w.p("def get_type_class(self):")
	w.p("    return %s", cls)
	w.p("")
	for _, fp := range r.Fields {
		if fp.Show != "" {
			w.p("# %s", strings.ReplaceAll(fp.Show, "\n", " "))
		}
		w.p("%s: %s = None", fp.Name, pyType(fp))
	}
	if len(r.Fields) > 0 {
		w.p("")
	}
	args := []string{"self", fmt.Sprintf("type_class: %q = None", cls)}
	for _, fp := range r.Fields {
		args = append(args, fmt.Sprintf("%s: %s = None", fp.Name, pyType(fp)))
	}
	w.p("def __init__(%s):", strings.Join(args, ", "))
	w.in()
	w.p("super().__init__()")
	w.p("self.type_class = type_class if type_class is not None else %s", g.owner(tp))
	w.p("self.field_names = []")
	for _, fp := range r.Fields {
		w.p("self.%s = %s", fp.Name, fp.Name)
		w.p("self.field_names.append(%q)", fp.Name)
	}
	w.out()
}

// owner is a default instance of tp, None when tp has parameters
func (g *Emitter) owner(tp *backend.TypePlan) string {
	if len(tp.PosParams()) > 0 {
		return "None"
	}
	return tp.Class + "()"
}

func (g *Emitter) Constants(consts []*backend.ConstPlan) {
	w := &g.tail
	for _, tp := range g.file.Types {
		if tp.Var != "" {
			w.p("TLBComplex.constants[%q] = %s()", tp.Var, tp.Class)
		}
	}
	for _, c := range consts {
		w.p("# %s", c.Show)
		w.p("TLBComplex.constants[%q] = %s", c.Name, typeExpr(scope{}, c.Value))
	}
}
