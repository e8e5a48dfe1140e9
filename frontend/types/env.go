package types

import (
	"fmt"
	"log/slog"

	"github.com/cottand/tlbc/frontend/ast"
	"github.com/cottand/tlbc/frontend/lattice"
	"github.com/cottand/tlbc/frontend/lexer"
	"github.com/cottand/tlbc/frontend/tlberr"
	"github.com/cottand/tlbc/internal/log"
)

type Options struct {
	// TagWarnings reports constructors without tags, and explicit tags which differ from the computed one
	TagWarnings bool
}

// Builtins holds the ids of the types every scheme can refer to
type Builtins struct {
	Nat, NatWidth, NatLess, NatLeq ast.TypeId
	Any, Cell                      ast.TypeId
	Int, UInt, Bits                ast.TypeId
	Eq, Less, Leq                  ast.TypeId

	NatName, EqName, LessName, LeqName ast.SymId
}

// Env holds the types, constructors and constant expressions of one compilation
type Env struct {
	*ast.Arena
	Builtins

	Syms *lexer.Symbols
	Opts Options
	// BuiltinTypesNum is the index of the first user-defined type
	BuiltinTypesNum int
	Warnings        []tlberr.Warning

	consts   constTable
	typeSort ast.NodeId

	binderLog   *slog.Logger
	analyzerLog *slog.Logger
}

func NewEnv(syms *lexer.Symbols, opts Options) *Env {
	e := &Env{
		Arena:       ast.NewArena(syms),
		Syms:        syms,
		Opts:        opts,
		binderLog:   log.DefaultLogger.With("section", log.SectionBinder),
		analyzerLog: log.DefaultLogger.With("section", log.SectionAnalyzer),
	}
	e.consts = newConstTable()
	e.typeSort = e.Add(&ast.TypeSort{})
	e.defineBuiltins()
	return e
}

// TypeSort is the expression `Type`, shared by all implicit type parameters
func (e *Env) TypeSort() ast.NodeId {
	return e.typeSort
}

// UserTypes returns every type which is not builtin, in declaration order
func (e *Env) UserTypes() []*ast.Type {
	return e.Types[e.BuiltinTypesNum:]
}

// LookupType resolves a global type name, returning nil when unknown
func (e *Env) LookupType(name string) *ast.Type {
	id := e.Syms.Lookup(name)
	if id == 0 {
		return nil
	}
	def := e.Syms.LookupDef(id, lexer.LookupGlobal)
	if def == nil || def.Kind != lexer.DefTypename {
		return nil
	}
	return e.Type(def.Type)
}

func (e *Env) warn(where ast.Positioner, format string, args ...any) {
	w := tlberr.Warning{Msg: fmt.Sprintf(format, args...)}
	if where != nil {
		w.Where = where.Pos()
	}
	e.Warnings = append(e.Warnings, w)
	e.binderLog.Debug(w.Msg, "pos", w.Where)
}

func (e *Env) defineBuiltin(name, args string, producesNat bool, size, minSize int, anyBits bool, isInt int) ast.TypeId {
	sym := e.Syms.Intern(name)
	t := e.NewType(sym)
	t.ProducesNat = producesNat
	t.Arity = len(args)
	t.IsFinal = true
	t.IsBuiltin = true
	t.BeginsWith = lattice.SinglePfx(lattice.All)
	t.Args = make([]ast.ArgFlags, len(args))
	var f ast.ArgFlags
	if name != "#" {
		f = ast.ArgIsPos
	}
	for i := range args {
		if args[i] == '#' {
			t.Args[i] = f | ast.ArgIsNat
		} else {
			t.Args[i] = f | ast.ArgIsType
		}
	}
	t.IsInteger = isInt
	switch {
	case size < 0:
		t.Size = lattice.Any
	case minSize >= 0 && minSize != size:
		t.Size = lattice.SizeRange(minSize, size)
	default:
		t.Size = lattice.FixedSize(size)
		t.HasFixedSize = true
	}
	t.AnyBits = anyBits
	e.Syms.DefineGlobal(sym, lexer.SymDef{Kind: lexer.DefTypename, Type: t.Idx})
	return t.Idx
}

func (e *Env) defineBuiltins() {
	e.Nat = e.defineBuiltin("#", "", true, 32, 32, true, 0)
	e.NatWidth = e.defineBuiltin("##", "#", true, 32, 0, true, 0)
	e.NatLess = e.defineBuiltin("#<", "#", true, 32, 0, false, 0)
	e.NatLeq = e.defineBuiltin("#<=", "#", true, 32, 0, false, 0)
	e.Any = e.defineBuiltin("Any", "", false, -1, -1, false, 0)
	e.Cell = e.defineBuiltin("Cell", "", false, -1, -1, false, 0)
	e.Int = e.defineBuiltin("int", "#", false, 257, 0, true, -1)
	e.UInt = e.defineBuiltin("uint", "#", false, 256, 0, true, 1)
	e.Bits = e.defineBuiltin("bits", "#", false, 1023, 0, true, 0)
	for i := 1; i <= 257; i++ {
		e.defineBuiltin(fmt.Sprintf("int%d", i), "", false, i, i, true, -1)
		if i < 257 {
			e.defineBuiltin(fmt.Sprintf("uint%d", i), "", false, i, i, true, 1)
		}
	}
	for i := 1; i <= 1023; i++ {
		e.defineBuiltin(fmt.Sprintf("bits%d", i), "", false, i, i, true, 0)
	}
	e.Eq = e.defineBuiltin("=", "##", false, 0, 0, true, 0)
	e.Less = e.defineBuiltin("<", "##", false, 0, 0, true, 0)
	e.Leq = e.defineBuiltin("<=", "##", false, 0, 0, true, 0)
	e.NatName = e.Syms.Lookup("#")
	e.EqName = e.Syms.Lookup("=")
	e.LessName = e.Syms.Lookup("<")
	e.LeqName = e.Syms.Lookup("<=")
	e.BuiltinTypesNum = len(e.Types)
}

// RegisterNewType declares a type which is referred to before any of its constructors
func (e *Env) RegisterNewType(where ast.Range, name ast.SymId) (*ast.Type, tlberr.TlbError) {
	if !e.Syms.IsUcIdent(name) {
		return nil, tlberr.New(tlberr.NewImplicitType{Positioner: where, TypeName: e.SymName(name)})
	}
	t := e.NewType(name)
	e.Syms.DefineGlobal(name, lexer.SymDef{Kind: lexer.DefTypename, Type: t.Idx, Where: where.Pos()})
	e.binderLog.Debug("registered new type", "name", e.SymName(name), "idx", t.Idx)
	return t, nil
}

func (e *Env) IsBuiltin(t ast.TypeId) bool {
	return int(t) < e.BuiltinTypesNum
}
