package lexer

import (
	"fmt"
	"go/token"
	"log/slog"

	"github.com/cottand/tlbc/frontend/ast"
	"github.com/cottand/tlbc/frontend/tlberr"
	"github.com/cottand/tlbc/internal/log"
)

var logger = log.DefaultLogger.With("section", log.SectionLexer)

// Kind is the kind of a Lexem. Single-character punctuation uses the character itself.
type Kind int

const (
	Eof Kind = -iota - 1
	Ident
	Number
	Special
	Eq
	Leq
	Geq
	Neq
	KwType
	KwEmpty
)

func (k Kind) String() string {
	switch k {
	case Eof:
		return "end of file"
	case Ident:
		return "identifier"
	case Number:
		return "number"
	case Special:
		return "special value"
	case Eq:
		return "`==`"
	case Leq:
		return "`<=`"
	case Geq:
		return "`>=`"
	case Neq:
		return "`!=`"
	case KwType:
		return "`Type`"
	case KwEmpty:
		return "`EMPTY`"
	}
	if k > 0 {
		return fmt.Sprintf("`%c`", rune(k))
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// Lexem is a single token
type Lexem struct {
	Kind Kind
	Str  string
	// Val is the symbol of identifiers and keywords
	Val ast.SymId
	// Special is the decoded value of a Special lexem
	Special uint64
	ast.Range
}

func (l Lexem) String() string {
	if l.Kind == Eof {
		return "end of file"
	}
	return l.Str
}

// Lexer splits a schema source into Lexems, with one token of lookahead
type Lexer struct {
	src  []byte
	file *token.File
	syms *Symbols

	off     int
	cur     Lexem
	peek    Lexem
	hasPeek bool
	err     tlberr.TlbError
}

// New positions the lexer on the first token of src and fills the line table of file.
// file must have size len(src).
func New(file *token.File, src []byte, syms *Symbols) *Lexer {
	file.SetLinesForContent(src)
	l := &Lexer{src: src, file: file, syms: syms}
	l.Next()
	return l
}

func (l *Lexer) Cur() Lexem {
	return l.cur
}

func (l *Lexer) Kind() Kind {
	return l.cur.Kind
}

// Err returns the error which stopped tokenizing early, if any
func (l *Lexer) Err() tlberr.TlbError {
	return l.err
}

func (l *Lexer) Symbols() *Symbols {
	return l.syms
}

// Next advances to the following token and returns it
func (l *Lexer) Next() Lexem {
	if l.hasPeek {
		l.cur, l.hasPeek = l.peek, false
		return l.cur
	}
	l.cur = l.scan()
	return l.cur
}

// Peek returns the token after the current one without consuming it
func (l *Lexer) Peek() Lexem {
	if !l.hasPeek {
		l.peek = l.scan()
		l.hasPeek = true
	}
	return l.peek
}

// Expect consumes a token of kind k, or returns an error describing what was found
func (l *Lexer) Expect(k Kind, what string) tlberr.TlbError {
	if l.cur.Kind != k {
		return l.Unexpected(what)
	}
	l.Next()
	return nil
}

// Unexpected reports the current token where what was expected
func (l *Lexer) Unexpected(what string) tlberr.TlbError {
	found := l.cur.Str
	if l.cur.Kind == Eof {
		found = ""
	}
	return tlberr.New(tlberr.NewUnexpectedToken{
		Positioner: l.cur.Range,
		Expected:   what,
		Found:      found,
	})
}

// SkipPast discards tokens up to and including the next k
func (l *Lexer) SkipPast(k Kind) {
	for l.cur.Kind != k && l.cur.Kind != Eof {
		l.Next()
	}
	if l.cur.Kind == k {
		l.Next()
	}
}

func (l *Lexer) pos(off int) token.Pos {
	return l.file.Pos(off)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// active characters always form a token on their own
func isActive(c byte) bool {
	switch c {
	case '(', ')', '{', '}', ':', ';', '?', '[', ']', '.':
		return true
	}
	return false
}

// left-active characters start a new token
func isLeftActive(c byte) bool {
	return isActive(c) || c == '#' || c == '$'
}

// right-active characters end the token they belong to
func isRightActive(c byte) bool {
	return isActive(c) || c == '^' || c == '~'
}

func isRepeatable(c byte) bool {
	return c == '#'
}

func (l *Lexer) startsComment(off int) bool {
	return off+1 < len(l.src) && l.src[off] == '/' && (l.src[off+1] == '/' || l.src[off+1] == '*')
}

// skipBlank skips whitespace and comments, and reports false on an unterminated comment
func (l *Lexer) skipBlank() bool {
	for l.off < len(l.src) {
		c := l.src[l.off]
		switch {
		case isSpace(c):
			l.off++
		case c == '/' && l.off+1 < len(l.src) && l.src[l.off+1] == '/':
			for l.off < len(l.src) && l.src[l.off] != '\n' {
				l.off++
			}
		case c == '/' && l.off+1 < len(l.src) && l.src[l.off+1] == '*':
			start := l.off
			l.off += 2
			for {
				if l.off+1 >= len(l.src) {
					l.off = len(l.src)
					l.err = tlberr.New(tlberr.NewSyntax{
						Positioner: ast.Range{PosStart: l.pos(start), PosEnd: l.pos(start + 2)},
						Msg:        "comment extends past end of file",
					})
					return false
				}
				if l.src[l.off] == '*' && l.src[l.off+1] == '/' {
					l.off += 2
					break
				}
				l.off++
			}
		default:
			return true
		}
	}
	return true
}

func (l *Lexer) scan() Lexem {
	if !l.skipBlank() || l.off >= len(l.src) {
		at := l.pos(len(l.src))
		return Lexem{Kind: Eof, Range: ast.Range{PosStart: at, PosEnd: at}}
	}
	start := l.off
	end := start
	prev := -1
	for end < len(l.src) {
		c := l.src[end]
		repeated := int(c) == prev && isRepeatable(c)
		if isSpace(c) || (end > start && isLeftActive(c) && !repeated) ||
			(end > start && l.startsComment(end)) {
			break
		}
		end++
		if isRightActive(c) {
			break
		}
		prev = int(c)
	}
	l.off = end
	lex := Lexem{
		Str:   string(l.src[start:end]),
		Range: ast.Range{PosStart: l.pos(start), PosEnd: l.pos(end)},
	}
	l.classify(&lex)
	logger.Debug("token", "str", lex.Str, "kind", lex.Kind)
	return lex
}

func (l *Lexer) classify(lex *Lexem) {
	if id := l.syms.Lookup(lex.Str); id != 0 {
		if kind, ok := l.syms.keyword(id); ok {
			lex.Kind, lex.Val = kind, id
			return
		}
	}
	if isNumber(lex.Str) {
		lex.Kind = Number
		return
	}
	if val, ok := ParseSpecialValue(lex.Str); ok {
		lex.Kind, lex.Special = Special, val
		return
	}
	lex.Kind = Ident
	lex.Val = l.syms.Intern(lex.Str)
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// LogValue lets a lexem be logged as its text and position offset
func (l Lexem) LogValue() slog.Value {
	return slog.GroupValue(slog.String("str", l.Str), slog.Int("pos", int(l.PosStart)))
}
