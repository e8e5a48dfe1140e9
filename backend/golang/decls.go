package golang

import (
	"fmt"
	"strings"

	"github.com/cottand/tlbc/backend"
)

func (g *Emitter) TypeDecl(tp *backend.TypePlan) {
	n := g.types[tp]
	if len(tp.Cons) > 0 {
		g.p("// %s is the TL-B type %s:", n.class, tp.TypeName)
		g.p("//")
		for _, cp := range tp.Cons {
			g.p("//\t%s", strings.ReplaceAll(cp.Show, "\n", " "))
		}
	}
	g.p("type %s struct {", n.class)
	for _, pp := range tp.Params {
		if !pp.IsNeg {
			g.p("%s %s", n.params[pp.Idx], paramType(pp))
		}
	}
	g.p("}\n")
	if tp.Var != "" {
		g.p("var %s = %s{}\n", tp.Var, n.class)
	}
}

func (g *Emitter) TagEnum(tp *backend.TypePlan) {
	if len(tp.Cons) == 0 {
		return
	}
	n := g.types[tp]
	g.p("// Constructors of %s, as returned by GetTag", n.class)
	g.p("const (")
	for _, cp := range tp.ByEnum {
		g.p("%s = %d", n.enum[cp.Idx], cp.Enum)
	}
	g.p(")\n")
}

func (g *Emitter) TagTables(tp *backend.TypePlan) {
	if len(tp.Cons) == 0 {
		return
	}
	n := g.types[tp]
	if tp.CommonLen >= 0 {
		g.p("// %s is the tag length of every constructor of %s", n.consLen, n.class)
		g.p("const %s = %d\n", n.consLen, tp.CommonLen)
	} else {
		lens := make([]string, len(tp.ByEnum))
		for i, cp := range tp.ByEnum {
			lens[i] = fmt.Sprint(cp.TagBits)
		}
		g.p("var %s = [...]uint32{%s}\n", n.consLen, strings.Join(lens, ", "))
	}
	tags := make([]string, len(tp.ByEnum))
	for i, cp := range tp.ByEnum {
		tags[i] = fmt.Sprintf("%#x", cp.Tag)
	}
	g.p("var %s = [...]uint64{%s}\n", n.consTag, strings.Join(tags, ", "))
}

func (g *Emitter) Record(tp *backend.TypePlan, r *backend.RecordPlan) {
	name := g.records[r]
	g.p("// %s holds the fields of constructor %s of %s", name, r.Cons.Name, tp.TypeName)
	g.p("type %s struct {", name)
	for _, fp := range r.Fields {
		if fp.Show != "" {
			g.p("%s %s // %s", g.fields[fp], g.goType(fp), strings.ReplaceAll(fp.Show, "\n", " "))
		} else {
			g.p("%s %s", g.fields[fp], g.goType(fp))
		}
	}
	g.p("}\n")
}

func (g *Emitter) Constants(consts []*backend.ConstPlan) {
	if len(consts) == 0 {
		return
	}
	g.p("var (")
	for _, c := range consts {
		g.p("// %s", c.Show)
		g.p("%s = %s", c.Name, g.typeExpr(c.Value))
	}
	g.p(")")
}
