// Package golang renders planned TL-B types as Go source code.
// The generated code depends on github.com/cottand/tlbc/tlbrt.
package golang

import (
	"bytes"
	"fmt"
	goast "go/ast"
	"go/format"
	"go/parser"
	"go/printer"
	"go/token"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/cottand/tlbc/backend"
	"github.com/cottand/tlbc/internal/log"
	"github.com/cottand/tlbc/util"
)

const runtimePath = "github.com/cottand/tlbc/tlbrt"

// DefaultPackage is the package name used when no namespace is given
const DefaultPackage = "tlb"

var reservedWords = []string{
	// keywords
	"break", "case", "chan", "const", "continue", "default", "defer", "else", "fallthrough", "for", "func", "go",
	"goto", "if", "import", "interface", "map", "package", "range", "return", "select", "struct", "switch", "type",
	"var",
	// predeclared identifiers
	"any", "bool", "byte", "comparable", "complex64", "complex128", "error", "float32", "float64", "int", "int8",
	"int16", "int32", "int64", "rune", "string", "uint", "uint8", "uint16", "uint32", "uint64", "uintptr", "true",
	"false", "iota", "nil", "append", "cap", "clear", "close", "complex", "copy", "delete", "imag", "len", "make",
	"max", "min", "new", "panic", "print", "println", "real", "recover",
	// imported packages
	"tlbrt", "big",
}

// localNames are declared by generated methods
var localNames = []string{"cs", "cb", "c", "t", "rec", "err", "save", "tag", "i"}

// typeNames are the Go identifiers declared for one type
type typeNames struct {
	class   string
	params  []string
	enum    []string
	methods []string
	consLen string
	consTag string
}

// Emitter produces one Go file. It is not reusable.
type Emitter struct {
	file *backend.FilePlan
	pkg  string
	buf  bytes.Buffer

	global  *util.IdentSet
	types   map[*backend.TypePlan]*typeNames
	records map[*backend.RecordPlan]string
	fields  map[*backend.FieldPlan]string
	useBig  bool

	logger *slog.Logger
}

func New() *Emitter {
	return &Emitter{
		types:   map[*backend.TypePlan]*typeNames{},
		records: map[*backend.RecordPlan]string{},
		fields:  map[*backend.FieldPlan]string{},
		logger:  log.DefaultLogger.With("section", log.SectionCodegen, "emitter", "go"),
	}
}

func (g *Emitter) Name() string       { return "go" }
func (g *Emitter) FileSuffix() string { return ".go" }

func (g *Emitter) ReservedWords() backend.Reserved {
	return backend.Reserved{Keywords: reservedWords, Locals: localNames}
}

func (g *Emitter) p(format string, args ...any) {
	fmt.Fprintf(&g.buf, format, args...)
	g.buf.WriteByte('\n')
}

// Begin assigns Go names to everything the file declares
func (g *Emitter) Begin(f *backend.FilePlan) {
	g.file = f
	g.pkg = f.Options.Namespace
	if g.pkg == "" {
		g.pkg = DefaultPackage
	}
	g.global = util.NewIdentSet(util.NewKeywords(append(slices.Clone(reservedWords), localNames...)...))
	for _, tp := range f.Types {
		if tp.Var != "" {
			g.global.Insert(tp.Var)
		}
	}
	for _, c := range f.Consts {
		g.global.Insert(c.Name)
	}
	for _, tp := range f.Types {
		g.types[tp] = &typeNames{class: g.global.New(util.Exported(tp.Class), 0, "")}
	}
	for _, tp := range f.Types {
		g.nameType(tp)
	}
}

func (g *Emitter) nameType(tp *backend.TypePlan) {
	n := g.types[tp]
	n.consLen = g.global.New(n.class+"ConsLen", 0, "")
	if tp.CommonLen >= 0 {
		n.consLen = g.global.New(n.class+"ConsLenExact", 0, "")
	}
	n.consTag = g.global.New(n.class+"ConsTag", 0, "")
	n.enum = make([]string, len(tp.Cons))
	n.methods = make([]string, len(tp.Cons))
	members := util.NewIdentSet(util.NewKeywords("GetTag", "ConsName", "Skip", "SkipOut", "ValidateSkip",
		"ValidateSkipOut", "Unpack", "FetchEnum", "StoreEnum"))
	for _, cp := range tp.Cons {
		n.enum[cp.Idx] = g.global.New(n.class+"_"+cp.Name, 0, "")
		n.methods[cp.Idx] = members.New(util.Exported(cp.Name), 0, "")
		rec := cp.Record
		g.records[rec] = g.global.New(n.class+util.Exported(rec.Name), 0, "")
		fields := util.NewIdentSet(util.NewKeywords())
		for _, fp := range rec.Fields {
			g.fields[fp] = fields.New(util.Exported(fp.Name), 0, "")
		}
	}
	params := util.NewIdentSet(util.NewKeywords())
	for _, pp := range tp.Params {
		name := util.Exported(pp.Name)
		if pp.IsNeg {
			// outputs are named results, which keep their schema names
			name = pp.Name
		}
		n.params = append(n.params, params.New(name, 0, ""))
	}
}

// End assembles the file and formats it
func (g *Emitter) End() ([]byte, error) {
	var src bytes.Buffer
	src.WriteString("// Code generated by tlbc")
	if len(g.file.Options.Sources) > 0 {
		src.WriteString(" from " + strings.Join(g.file.Options.Sources, ", "))
	}
	src.WriteString(". DO NOT EDIT.\n\n")
	fmt.Fprintf(&src, "package %s\n\n", g.pkg)

	imports := &goast.GenDecl{Tok: token.IMPORT, Lparen: 1}
	paths := []string{runtimePath}
	if g.useBig {
		paths = []string{"math/big", runtimePath}
	}
	for _, path := range paths {
		imports.Specs = append(imports.Specs, &goast.ImportSpec{
			Path: &goast.BasicLit{Kind: token.STRING, Value: strconv.Quote(path)},
		})
	}
	if err := printer.Fprint(&src, token.NewFileSet(), imports); err != nil {
		return nil, errors.Wrap(err, "printing imports")
	}
	src.WriteString("\n\n")
	src.Write(g.buf.Bytes())

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", src.Bytes(), parser.ParseComments)
	if err != nil {
		g.logger.Error("generated code does not parse", "err", err)
		return nil, errors.Wrap(err, "generated Go code does not parse")
	}
	var out bytes.Buffer
	if err := format.Node(&out, fset, file); err != nil {
		return nil, errors.Wrap(err, "formatting generated Go code")
	}
	return out.Bytes(), nil
}

// goType is the Go type of a record field
func (g *Emitter) goType(fp *backend.FieldPlan) string {
	switch fp.VT {
	case backend.VtCell:
		return "*tlbrt.Cell"
	case backend.VtBits, backend.VtBitstring:
		return "tlbrt.Bits"
	case backend.VtBool:
		return "bool"
	case backend.VtInt32:
		if fp.Signed {
			return "int32"
		}
		return "uint32"
	case backend.VtUint32, backend.VtNat:
		return "uint32"
	case backend.VtInt64:
		if fp.Signed {
			return "int64"
		}
		return "uint64"
	case backend.VtUint64:
		return "uint64"
	case backend.VtInteger:
		g.useBig = true
		return "*big.Int"
	case backend.VtEnum:
		return "int"
	case backend.VtSubrecord:
		return g.records[fp.Subrec]
	case backend.VtTypeRef:
		return "tlbrt.Type"
	}
	return "tlbrt.Raw"
}

func paramType(pp *backend.ParamPlan) string {
	if pp.IsNat {
		return "uint32"
	}
	return "tlbrt.Type"
}

// comment writes text as line comments
func (g *Emitter) comment(text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		g.p("// %s", line)
	}
}
