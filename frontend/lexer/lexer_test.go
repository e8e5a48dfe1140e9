package lexer

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, src string) []Lexem {
	t.Helper()
	fset := token.NewFileSet()
	file := fset.AddFile("test.tlb", -1, len(src))
	l := New(file, []byte(src), NewSymbols())
	var res []Lexem
	for l.Kind() != Eof {
		res = append(res, l.Cur())
		l.Next()
	}
	require.Nil(t, l.Err())
	return res
}

func strs(lexems []Lexem) []string {
	res := make([]string, len(lexems))
	for i, l := range lexems {
		res[i] = l.Str
	}
	return res
}

func TestTokenize(t *testing.T) {
	cases := []struct {
		src  string
		want []string
	}{
		{"bool_false$0 = Bool;", []string{"bool_false", "$0", "=", "Bool", ";"}},
		{"unary_succ$1 {n:#} x:(Unary ~n) = Unary ~(n + 1);",
			[]string{"unary_succ", "$1", "{", "n", ":", "#", "}", "x", ":", "(", "Unary", "~", "n", ")",
				"=", "Unary", "~", "(", "n", "+", "1", ")", ";"}},
		{"a:(## 32) b:(#<= n)", []string{"a", ":", "(", "##", "32", ")", "b", ":", "(", "#<=", "n", ")"}},
		{"x:^[ a:# ]", []string{"x", ":", "^", "[", "a", ":", "#", "]"}},
		{"ahme_empty#_ // comment\n/* block\n comment */ = X;", []string{"ahme_empty", "#_", "=", "X", ";"}},
		{"n.1", []string{"n", ".", "1"}},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			assert.Equal(t, c.want, strs(lexAll(t, c.src)))
		})
	}
}

func TestClassify(t *testing.T) {
	lexems := lexAll(t, "foo 42 #f1 $_ <= == Type EMPTY = ~")
	kinds := make([]Kind, len(lexems))
	for i, l := range lexems {
		kinds[i] = l.Kind
	}
	assert.Equal(t, []Kind{Ident, Number, Special, Special, Leq, Eq, KwType, KwEmpty, Kind('='), Kind('~')}, kinds)
	assert.Equal(t, uint64(0xf1)<<56|1<<55, lexems[2].Special)
	assert.Equal(t, uint64(1)<<63, lexems[3].Special)
}

func TestUnterminatedComment(t *testing.T) {
	src := "a /* b"
	fset := token.NewFileSet()
	file := fset.AddFile("test.tlb", -1, len(src))
	l := New(file, []byte(src), NewSymbols())
	assert.Equal(t, "a", l.Cur().Str)
	l.Next()
	assert.Equal(t, Eof, l.Kind())
	require.NotNil(t, l.Err())
	assert.Equal(t, "test.tlb:1:3", fset.Position(l.Err().Pos()).String())
}

func TestPositionsAcrossLines(t *testing.T) {
	src := "a = A;\n  b$1 = B;\n"
	fset := token.NewFileSet()
	l := New(fset.AddFile("test.tlb", -1, len(src)), []byte(src), NewSymbols())
	for l.Cur().Str != "b" {
		l.Next()
	}
	assert.Equal(t, "test.tlb:2:3", fset.Position(l.Cur().Pos()).String())
}

func TestPeek(t *testing.T) {
	src := "a : b"
	fset := token.NewFileSet()
	l := New(fset.AddFile("x", -1, len(src)), []byte(src), NewSymbols())
	assert.Equal(t, Kind(':'), l.Peek().Kind)
	assert.Equal(t, "a", l.Cur().Str)
	assert.Equal(t, Kind(':'), l.Next().Kind)
	assert.Equal(t, "b", l.Next().Str)
}

func TestParseSpecialValue(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"$0", 1 << 62, true},
		{"$1", 1<<63 | 1<<62, true},
		{"$10", 1<<63 | 1<<61, true},
		{"$_", 1 << 63, true},
		{"#_", 1 << 63, true},
		{"#0", 1 << 59, true},
		{"#a", 0xa<<60 | 1<<59, true},
		{"#deadbeef", 0xdeadbeef<<32 | 1<<31, true},
		// trailing _ drops the zeros and the final one bit: #8_ is the empty tag
		{"#8_", 1 << 63, true},
		// #4_ = 0100 -> 01, then strip the one bit -> 0
		{"#4_", 1 << 62, true},
		{"#c_", 1<<63 | 1<<62, true},
		{"$2", 0, false},
		{"#g", 0, false},
		{"#", 0, false},
		{"abc", 0, false},
		{"#0123456789abcdef", 0, false},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, ok := ParseSpecialValue(c.in)
			assert.Equal(t, c.ok, ok)
			if c.ok {
				assert.Equal(t, c.want, got)
			}
		})
	}
}

func TestSubclass(t *testing.T) {
	assert.Equal(t, Lc, ComputeSubclass("bool_false"))
	assert.Equal(t, Uc, ComputeSubclass("Bool"))
	assert.Equal(t, Blc, ComputeSubclass("!merkle_proof"))
	assert.Equal(t, Other, ComputeSubclass("_"))
	assert.Equal(t, Other, ComputeSubclass("##"))
	assert.Equal(t, Uc, ComputeSubclass("tonNode.BlockId"))
	assert.Equal(t, Lc, ComputeSubclass("_foo"))
	assert.Equal(t, Uc, ComputeSubclass("Тип"))
	assert.Equal(t, Lc, ComputeSubclass("тип"))
}

func TestScopes(t *testing.T) {
	s := NewSymbols()
	n := s.Intern("n")
	typ := s.Intern("Foo")
	s.DefineGlobal(typ, SymDef{Kind: DefTypename, Type: 3})

	s.OpenScope()
	s.DefineLocal(n, SymDef{Kind: DefParam, Field: 0})
	s.OpenScope()
	def := s.LookupDef(n, LookupAny)
	require.NotNil(t, def)
	assert.Equal(t, 1, def.Level)
	assert.Equal(t, 2, s.Level())
	s.DefineLocal(n, SymDef{Kind: DefParam, Field: 5})
	assert.Equal(t, 5, s.LookupDef(n, LookupLocal).Field)
	s.CloseScope()
	assert.Equal(t, 0, s.LookupDef(n, LookupLocal).Field)
	s.CloseScope()
	assert.Nil(t, s.LookupDef(n, LookupAny))
	assert.Nil(t, s.LookupDef(typ, LookupLocal))
	assert.Equal(t, 3, int(s.LookupDef(typ, LookupAny).Type))
}
