// Package python renders planned TL-B types as tonpy style Python classes.
//
// Every type becomes a TLBComplex subclass with a nested Tag enum and one
// RecordBase subclass per constructor. Values are read and written through
// the CellSlice and CellBuilder bindings of tonpy.
package python

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cottand/tlbc/backend"
	"github.com/cottand/tlbc/internal/log"
)

var reservedWords = []string{
	// keywords
	"False", "None", "True", "and", "as", "assert", "async", "await", "break", "class", "continue", "def", "del",
	"elif", "else", "except", "finally", "for", "from", "global", "if", "import", "in", "is", "lambda", "nonlocal",
	"not", "or", "pass", "raise", "return", "try", "while", "with", "yield", "match", "case",
	// builtins generated code calls
	"int", "bool", "str", "tuple", "super", "self", "object", "type",
	// imported names
	"Enum", "bitstring", "TLB", "TLBComplex", "Cell", "CellSlice", "CellBuilder", "RecordBase", "Optional",
	"Union", "NatT", "NatWidth", "NatLeq", "NatLess", "Int", "UInt", "Bits", "Anything", "CellT", "RefT",
	"TupleT", "CondT", "tlb_classes", "nat_abs",
}

// localNames are declared by generated methods
var localNames = []string{"t", "cs", "cb", "cell_ref", "save", "tag", "sel", "rec"}

var builtinImports = []string{"NatT", "NatWidth", "NatLeq", "NatLess", "Int", "UInt", "Bits", "Anything", "CellT",
	"RefT", "TupleT", "CondT"}

// writer accumulates indented lines
type writer struct {
	buf   bytes.Buffer
	depth int
}

func (w *writer) p(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if line != "" {
		w.buf.WriteString(strings.Repeat("    ", w.depth))
		w.buf.WriteString(line)
	}
	w.buf.WriteByte('\n')
}

func (w *writer) in()  { w.depth++ }
func (w *writer) out() { w.depth-- }

// class gathers the parts of one Python class, which the walker visits out of order
type class struct {
	tp      *backend.TypePlan
	head    *writer
	records []*backend.RecordPlan
	recs    map[*backend.RecordPlan]*writer
	methods *writer
}

// Emitter produces one Python module. It is not reusable.
type Emitter struct {
	file    *backend.FilePlan
	classes []*class
	byType  map[*backend.TypePlan]*class
	tail    writer

	logger *slog.Logger
}

func New() *Emitter {
	return &Emitter{
		byType: map[*backend.TypePlan]*class{},
		logger: log.DefaultLogger.With("section", log.SectionCodegen, "emitter", "python"),
	}
}

func (g *Emitter) Name() string       { return "python" }
func (g *Emitter) FileSuffix() string { return ".py" }

func (g *Emitter) ReservedWords() backend.Reserved {
	return backend.Reserved{Keywords: reservedWords, Locals: localNames}
}

func (g *Emitter) Begin(f *backend.FilePlan) {
	g.file = f
}

// class returns the class of tp, starting it on first use
func (g *Emitter) class(tp *backend.TypePlan) *class {
	if c := g.byType[tp]; c != nil {
		return c
	}
	c := &class{
		tp:      tp,
		head:    &writer{depth: 1},
		recs:    map[*backend.RecordPlan]*writer{},
		methods: &writer{depth: 1},
	}
	g.byType[tp] = c
	g.classes = append(g.classes, c)
	return c
}

// record returns the writer of the body of record r
func (g *Emitter) record(tp *backend.TypePlan, r *backend.RecordPlan) *writer {
	c := g.class(tp)
	if w := c.recs[r]; w != nil {
		return w
	}
	w := &writer{depth: 2}
	c.recs[r] = w
	c.records = append(c.records, r)
	return w
}

func (g *Emitter) End() ([]byte, error) {
	var out bytes.Buffer
	out.WriteString("# Code generated by tlbc")
	if len(g.file.Options.Sources) > 0 {
		out.WriteString(" from " + strings.Join(g.file.Options.Sources, ", "))
	}
	out.WriteString(". DO NOT EDIT.\n")
	out.WriteString("from enum import Enum\n")
	out.WriteString("import bitstring\n")
	out.WriteString("from tonpy.types import TLB, TLBComplex, Cell, CellSlice, CellBuilder, RecordBase\n")
	out.WriteString("from tonpy.types import " + strings.Join(builtinImports, ", ") + "\n")
	out.WriteString("from typing import Optional, Union\n\n")
	out.WriteString("tlb_classes = []\n\n\n")
	out.WriteString("def nat_abs(x: int) -> int:\n")
	out.WriteString("    return (x & 1) + (2 if x > 1 else 0)\n\n")

	for _, c := range g.classes {
		out.WriteString("\n")
		fmt.Fprintf(&out, "# class for type `%s`\n", c.tp.TypeName)
		fmt.Fprintf(&out, "class %s(TLBComplex):\n", c.tp.Class)
		empty := c.head.buf.Len() == 0
		out.Write(c.head.buf.Bytes())
		for _, r := range c.records {
			fmt.Fprintf(&out, "\n    class %s(RecordBase):\n", r.Name)
			out.Write(c.recs[r].buf.Bytes())
			empty = false
		}
		if c.methods.buf.Len() > 0 {
			out.Write(c.methods.buf.Bytes())
			empty = false
		}
		if empty {
			out.WriteString("    pass\n")
		}
		fmt.Fprintf(&out, "\n\ntlb_classes.append(%q)\n\n", c.tp.Class)
	}
	out.Write(g.tail.buf.Bytes())
	g.logger.Debug("emitted python module", "classes", len(g.classes), "bytes", out.Len())
	return out.Bytes(), nil
}

// pyType is the annotation of a record field
func pyType(fp *backend.FieldPlan) string {
	switch fp.VT {
	case backend.VtCell:
		return "Cell"
	case backend.VtBits, backend.VtBitstring:
		return "bitstring.BitArray"
	case backend.VtBool:
		return "bool"
	case backend.VtInt32, backend.VtUint32, backend.VtNat, backend.VtInt64, backend.VtUint64, backend.VtInteger,
		backend.VtEnum:
		return "int"
	case backend.VtSubrecord:
		return fmt.Sprintf("%q", fp.Subrec.Type.Class+"."+fp.Subrec.Name)
	case backend.VtTypeRef:
		return "TLB"
	}
	return "CellSlice"
}

func paramType(pp *backend.ParamPlan) string {
	if pp.IsNat {
		return "int"
	}
	return "TLB"
}
