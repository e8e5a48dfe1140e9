package parser

import (
	"go/token"
	"hash/crc32"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cottand/tlbc/frontend/ast"
	"github.com/cottand/tlbc/frontend/lexer"
	"github.com/cottand/tlbc/frontend/tlberr"
	"github.com/cottand/tlbc/frontend/types"
)

func parse(t *testing.T, src string, interactive bool) (*types.Env, *tlberr.Errors, *token.FileSet) {
	t.Helper()
	fset := token.NewFileSet()
	file := fset.AddFile("test.tlb", -1, len(src))
	env := types.NewEnv(lexer.NewSymbols(), types.Options{})
	errs := ParseSource(env, file, []byte(src), interactive)
	return env, errs, fset
}

func mustParse(t *testing.T, src string) *types.Env {
	t.Helper()
	env, errs, fset := parse(t, src, false)
	require.False(t, errs.HasError(), errs.Format(fset))
	return env
}

func parseErr(t *testing.T, src string) string {
	t.Helper()
	_, errs, _ := parse(t, src, false)
	require.True(t, errs.HasError(), "expected an error parsing %q", src)
	require.Len(t, errs.Errors(), 1)
	return errs.Errors()[0].Error()
}

func TestBool(t *testing.T) {
	env := mustParse(t, "bool_false$0 = Bool; bool_true$1 = Bool;")
	b := env.LookupType("Bool")
	require.NotNil(t, b)
	assert.Equal(t, 0, b.Arity)
	require.Equal(t, 2, b.ConsNum())
	cons := env.TypeCons(b)
	assert.Equal(t, "bool_false", env.ConsName(cons[0]))
	assert.Equal(t, 1, cons[0].TagBits)
	assert.Equal(t, uint64(1)<<62, cons[0].Tag)
	assert.Equal(t, uint64(3)<<62, cons[1].Tag)
	assert.True(t, b.IsEnum)
	assert.True(t, b.IsSimpleEnum)
}

func TestUnary(t *testing.T) {
	env := mustParse(t, `
unary_zero$0 = Unary ~0;
unary_succ$1 {n:#} x:(Unary ~n) = Unary ~(n + 1);
`)
	u := env.LookupType("Unary")
	require.NotNil(t, u)
	require.Equal(t, 1, u.Arity)
	assert.True(t, u.Args[0].Has(ast.ArgIsNat))
	assert.True(t, u.Args[0].Has(ast.ArgIsNeg))
	assert.False(t, u.Args[0].Has(ast.ArgIsPos))

	succ := env.TypeCons(u)[1]
	require.Len(t, succ.Fields, 2)
	n, x := succ.Fields[0], succ.Fields[1]
	assert.True(t, n.Implicit)
	assert.True(t, n.Known)
	assert.True(t, n.Used)
	assert.True(t, x.IsExplicit())
	assert.True(t, succ.ParamNegated[0])
	assert.Equal(t, -1, succ.ParamConstVal[0])
	assert.True(t, strings.HasPrefix(env.ShowConstructor(succ, 0), "unary_succ$1 {n:#} x:(Unary ~n) = Unary ~("))
}

func TestConstParams(t *testing.T) {
	env := mustParse(t, `
hme_empty$0 {n:#} {X:Type} = HashmapE n X;
hme_root$1 {n:#} {X:Type} root:^(Hashmap n X) = HashmapE n X;
hm_edge#_ {n:#} {X:Type} {l:#} {m:#} label:(HmLabel ~l n) {n = (~m) + l} node:(HashmapNode m X) = Hashmap n X;
hmn_leaf#_ {X:Type} value:X = HashmapNode 0 X;
hmn_fork#_ {n:#} {X:Type} left:^(Hashmap n X) right:^(Hashmap n X) = HashmapNode (n + 1) X;
hml_short$0 {m:#} {n:#} len:(Unary ~n) {n <= m} s:(n * Bit) = HmLabel ~n m;
hml_long$10 {m:#} n:(#<= m) s:(n * Bit) = HmLabel ~n m;
hml_same$11 {m:#} v:Bit n:(#<= m) = HmLabel ~n m;
unary_zero$0 = Unary ~0;
unary_succ$1 {n:#} x:(Unary ~n) = Unary ~(n + 1);
bit$_ (## 1) = Bit;
`)
	node := env.LookupType("HashmapNode")
	require.NotNil(t, node)
	cons := env.TypeCons(node)
	assert.Equal(t, []int{0, -1}, []int{cons[0].ParamConstVal[0], cons[1].ParamConstVal[0]})
	assert.True(t, node.Args[0].Has(ast.ArgIsPos))
	assert.True(t, node.Args[1].Has(ast.ArgIsType))

	label := env.LookupType("HmLabel")
	require.NotNil(t, label)
	assert.True(t, label.Args[0].Has(ast.ArgIsNeg))
	assert.True(t, label.Args[1].Has(ast.ArgIsPos))

	short := env.TypeCons(label)[0]
	cmp, ok := env.Node(short.Fields[3].Type).(*ast.Apply)
	require.True(t, ok)
	assert.Equal(t, env.Leq, cmp.Type)
	assert.True(t, short.Fields[3].Constraint)
}

func TestComparisonSwap(t *testing.T) {
	env := mustParse(t, "a$_ x:(## 8) { x > 3 } { 7 >= x } = A;")
	cs := env.TypeCons(env.LookupType("A"))[0]
	gt := env.Node(cs.Fields[1].Type).(*ast.Apply)
	assert.Equal(t, env.Less, gt.Type)
	_, isConst := env.Node(gt.Args[0]).(*ast.IntConst)
	assert.True(t, isConst)
	geq := env.Node(cs.Fields[2].Type).(*ast.Apply)
	assert.Equal(t, env.Leq, geq.Type)
	_, isParam := env.Node(geq.Args[0]).(*ast.Param)
	assert.True(t, isParam)
}

func TestAnonymousDedup(t *testing.T) {
	env := mustParse(t, `
a$0 _:^[ p:# q:# ] _:^[ p:# q:# ] = A;
b$1 _:^[ p:# q:# ] = B;
`)
	a, b := env.LookupType("A"), env.LookupType("B")
	var anon []*ast.Type
	for _, t := range env.UserTypes() {
		if t.IsAnon {
			anon = append(anon, t)
		}
	}
	require.Len(t, anon, 1)
	assert.True(t, anon[0].IsFinal)
	assert.True(t, anon[0].IsAuto)
	assert.Equal(t, -2, anon[0].ParentTypeIdx)
	csA := env.TypeCons(a)[0]
	assert.True(t, csA.Fields[0].Subrec)
	assert.True(t, env.Equal(csA.Fields[0].Type, env.TypeCons(b)[0].Fields[0].Type))
}

func TestAnonymousParent(t *testing.T) {
	env := mustParse(t, "a$0 x:# _:^[ p:# ] = A;")
	for _, typ := range env.UserTypes() {
		if typ.IsAnon {
			assert.Equal(t, int(env.LookupType("A").Idx), typ.ParentTypeIdx)
		}
	}
}

func TestComputedTag(t *testing.T) {
	env := mustParse(t, "a x:# = A;")
	cs := env.TypeCons(env.LookupType("A"))[0]
	crc := crc32.ChecksumIEEE([]byte("a x:# = A"))
	assert.Equal(t, uint64(crc)<<32|0x80000000, cs.Tag)
	assert.Equal(t, 32, cs.TagBits)
}

func TestExplicitTagKept(t *testing.T) {
	fset := token.NewFileSet()
	src := "a#deadbeef x:# = A;"
	file := fset.AddFile("test.tlb", -1, len(src))
	env := types.NewEnv(lexer.NewSymbols(), types.Options{TagWarnings: true})
	errs := ParseSource(env, file, []byte(src), false)
	require.False(t, errs.HasError())
	cs := env.TypeCons(env.LookupType("A"))[0]
	assert.Equal(t, uint64(0xdeadbeef80000000), cs.Tag)
	require.Len(t, env.Warnings, 1)
	assert.Contains(t, env.Warnings[0].Msg, "different from its computed tag")
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name, src, msg string
	}{
		{"uppercase constructor", "Foo = A;", "constructor name lowercase identifier expected"},
		{"lowercase type", "foo = a;", "type name uppercase identifier expected"},
		{"redefined field", "foo x:# x:# = A;", "redefined field or parameter x"},
		{"negated type", "foo = A; bar x:~A = A;", "cannot negate a type"},
		{"negated explicit", "foo x:# y:(A ~x) = A;", "cannot negate an explicit field"},
		{"bad implicit", "foo {x:A} = A;", "either `Type` or `#` implicit parameter type expected"},
		{"missing semicolon", "foo = A", "expected"},
		{"big constant", "foo = A 2147483648;", "does not fit"},
		{"unbound", "foo {n:#} = A;", "field `n` is left unbound"},
		{"arity", "foo = A; bar = A 1;", "redefined with different arity"},
		{"sum as type", "foo {n:#} x:(n + 1) = A;", "type expression required"},
		{"finalized builtin", "foo = Cell;", "cannot add new constructor to a finalized type `Cell`"},
		{"outer scope", "foo n:# _:^[ x:(## n) ] = A;", "cannot access field `n` from outer scope"},
		{"bit of type", "foo x:(A . 1) = A;", "cannot apply bit selection operator `.` to types"},
		{"multiply types", "foo x:(A * A) = A;", "cannot apply `*` to types"},
		{"type result", "foo {X:Type} = A ~X;", "cannot return type expressions"},
		{"named anonymous ref", "foo x:^[ a:# ] = A;", "anonymous constructor"},
		{"unterminated comment", "foo = A; /* foo", "comment extends past end of file"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Contains(t, parseErr(t, c.src), c.msg)
		})
	}
}

func TestErrorPosition(t *testing.T) {
	_, errs, fset := parse(t, "a = A;\nb x:# x:# = B;", false)
	require.True(t, errs.HasError())
	assert.Contains(t, errs.Format(fset), "test.tlb:2:")
}

func TestInteractiveRecovery(t *testing.T) {
	env, errs, _ := parse(t, "a x:# x:# = A; b$0 = B; C = C; c$1 = B;", true)
	require.Len(t, errs.Errors(), 2)
	b := env.LookupType("B")
	require.NotNil(t, b)
	assert.Equal(t, 2, b.ConsNum())
	assert.Equal(t, 0, env.Syms.Level())
}
