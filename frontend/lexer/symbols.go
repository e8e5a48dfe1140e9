package lexer

import (
	"go/token"

	"github.com/cottand/tlbc/frontend/ast"
	"github.com/cottand/tlbc/util"
)

// Subclass classifies identifiers by their first significant character
type Subclass uint8

const (
	Other Subclass = iota
	// Lc identifiers start with a lowercase letter, like constructor names
	Lc
	// Uc identifiers start with an uppercase letter, like type names
	Uc
	// Blc identifiers are lowercase ones prefixed by !, used for special constructors
	Blc
)

// ComputeSubclass looks at the first letter after the last . of name.
// Cyrillic letters encoded in UTF-8 count as letters.
func ComputeSubclass(name string) Subclass {
	res := Other
	t, s := 0, 0
	for i := 0; i < len(name); i++ {
		c := int(name[i])
		if c == '.' {
			res = Other
			s, t = 0, 0
			continue
		}
		if res != Other {
			continue
		}
		if s == 0 {
			if c == '!' {
				s = 1
			} else {
				s = -1
			}
		}
		if lower := c | 0x20; lower >= 'a' && lower <= 'z' {
			if c&0x20 != 0 {
				res = Lc
			} else {
				res = Uc
			}
		}
		if t != 0 && c&0xc0 == 0x80 {
			t = t<<6 | c&0x3f
			if t >= 0x410 && t < 0x450 {
				if t < 0x430 {
					res = Uc
				} else {
					res = Lc
				}
			}
		}
		if c&0xe0 == 0xc0 {
			t = c & 0x1f
		} else {
			t = 0
		}
	}
	if s == 1 && res == Lc {
		res = Blc
	}
	return res
}

// DefKind distinguishes what a name is bound to
type DefKind uint8

const (
	DefTypename DefKind = iota + 1
	DefParam
)

// SymDef binds a name in some scope
type SymDef struct {
	Level int
	Kind  DefKind
	Where token.Pos

	// Type is set for DefTypename
	Type ast.TypeId
	// Field and FieldType are set for DefParam
	Field     int
	FieldType ast.NodeId
}

type undoEntry struct {
	sym    ast.SymId
	prev   *SymDef
	marker bool
}

// Symbols interns identifiers and keywords, and resolves them in nested scopes.
// Global definitions hold type names; local ones hold the fields of the
// constructors being parsed.
type Symbols struct {
	names    []string
	ids      map[string]ast.SymId
	subclass []Subclass
	keywords map[ast.SymId]Kind

	global map[ast.SymId]*SymDef
	local  map[ast.SymId]*SymDef
	level  int
	undo   util.Stack[undoEntry]
}

func NewSymbols() *Symbols {
	s := &Symbols{
		names:    []string{""},
		ids:      map[string]ast.SymId{},
		subclass: []Subclass{Other},
		keywords: map[ast.SymId]Kind{},
		global:   map[ast.SymId]*SymDef{},
		local:    map[ast.SymId]*SymDef{},
	}
	for _, c := range "+-*:;(){}[]=_?.~^" {
		s.addKeyword(string(c), Kind(c))
	}
	s.addKeyword("==", Eq)
	s.addKeyword("<=", Leq)
	s.addKeyword(">=", Geq)
	s.addKeyword("!=", Neq)
	s.addKeyword("Type", KwType)
	s.addKeyword("EMPTY", KwEmpty)
	return s
}

func (s *Symbols) addKeyword(name string, kind Kind) {
	s.keywords[s.Intern(name)] = kind
}

// Intern returns the id of name, allocating one if needed
func (s *Symbols) Intern(name string) ast.SymId {
	if id, ok := s.ids[name]; ok {
		return id
	}
	id := ast.SymId(len(s.names))
	s.names = append(s.names, name)
	s.subclass = append(s.subclass, ComputeSubclass(name))
	s.ids[name] = id
	return id
}

// Lookup returns the id of name without interning it, or 0
func (s *Symbols) Lookup(name string) ast.SymId {
	return s.ids[name]
}

func (s *Symbols) SymName(id ast.SymId) string {
	if id <= 0 || int(id) >= len(s.names) {
		return ""
	}
	return s.names[id]
}

func (s *Symbols) Subclass(id ast.SymId) Subclass {
	if id <= 0 || int(id) >= len(s.subclass) {
		return Other
	}
	return s.subclass[id]
}

func (s *Symbols) IsLcIdent(id ast.SymId) bool {
	sc := s.Subclass(id)
	return sc == Lc || sc == Blc
}

func (s *Symbols) IsSpecialLcIdent(id ast.SymId) bool {
	return s.Subclass(id) == Blc
}

func (s *Symbols) IsUcIdent(id ast.SymId) bool {
	return s.Subclass(id) == Uc
}

func (s *Symbols) keyword(id ast.SymId) (Kind, bool) {
	k, ok := s.keywords[id]
	return k, ok
}

// Scope lookups
const (
	LookupLocal  = 1
	LookupGlobal = 2
	LookupAny    = LookupLocal | LookupGlobal
)

// LookupDef resolves id, preferring the innermost local definition
func (s *Symbols) LookupDef(id ast.SymId, flags int) *SymDef {
	if id == 0 {
		return nil
	}
	if flags&LookupLocal != 0 {
		if def := s.local[id]; def != nil {
			return def
		}
	}
	if flags&LookupGlobal != 0 {
		if def := s.global[id]; def != nil {
			return def
		}
	}
	return nil
}

func (s *Symbols) Level() int {
	return s.level
}

func (s *Symbols) OpenScope() {
	s.level++
	s.undo.Push(undoEntry{marker: true})
}

// CloseScope drops every local definition of the innermost scope
func (s *Symbols) CloseScope() {
	for {
		entry, ok := s.undo.Pop()
		if !ok || entry.marker {
			break
		}
		if entry.prev == nil {
			delete(s.local, entry.sym)
		} else {
			s.local[entry.sym] = entry.prev
		}
	}
	if s.level > 0 {
		s.level--
	}
}

// DefineLocal binds id in the current scope, shadowing outer definitions
func (s *Symbols) DefineLocal(id ast.SymId, def SymDef) *SymDef {
	def.Level = s.level
	s.undo.Push(undoEntry{sym: id, prev: s.local[id]})
	s.local[id] = &def
	return &def
}

// DefineGlobal binds id at the top level
func (s *Symbols) DefineGlobal(id ast.SymId, def SymDef) *SymDef {
	def.Level = 0
	s.global[id] = &def
	return &def
}
