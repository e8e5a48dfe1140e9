package tlbc

import (
	"bytes"
	"embed"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/cottand/tlbc/backend"
	"github.com/cottand/tlbc/backend/golang"
	"github.com/cottand/tlbc/backend/python"
	"github.com/cottand/tlbc/frontend/ast"
	"github.com/cottand/tlbc/frontend/tlberr"
	"github.com/cottand/tlbc/tlbrt/tlbrtsyms"
)

//go:embed testdata
var testdata embed.FS

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	src, err := testdata.ReadFile(path.Join("testdata", name))
	require.NoError(t, err)
	return src
}

func checked(t *testing.T, name string, src []byte) *Session {
	t.Helper()
	s := NewSession(Options{})
	errs := s.ParseSource(name, src, false)
	require.False(t, errs.HasError(), errs.Format(s.FileSet()))
	require.NoError(t, s.Check())
	return s
}

func compile(t *testing.T, name string, src []byte, e backend.Emitter) []byte {
	t.Helper()
	out, err := checked(t, name, src).Generate(e, backend.Options{})
	require.NoError(t, err)
	return out
}

func unifiedDiff(a, b []byte) string {
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: "first",
		ToFile:   "second",
		Context:  3,
	})
	return diff
}

func TestFixturesCompile(t *testing.T) {
	for _, name := range []string{"coins.tlb", "hashmap.tlb", "block.tlb"} {
		t.Run(name, func(t *testing.T) {
			src := fixture(t, name)
			goOut := compile(t, name, src, golang.New())
			assert.Contains(t, string(goOut), "// Code generated by tlbc from "+name+". DO NOT EDIT.")
			pyOut := compile(t, name, src, python.New())
			assert.Contains(t, string(pyOut), "# Code generated by tlbc from "+name+". DO NOT EDIT.")
		})
	}
}

func TestBlockSchemaTypes(t *testing.T) {
	s := checked(t, "block.tlb", fixture(t, "block.tlb"))
	env := s.Env()

	message := env.LookupType("Message")
	require.NotNil(t, message)
	assert.Equal(t, 1, message.Arity)

	hashmap := env.LookupType("Hashmap")
	require.NotNil(t, hashmap)
	assert.Equal(t, 2, hashmap.Arity)
	assert.True(t, hashmap.Args[0].Has(ast.ArgIsNat))
	assert.True(t, hashmap.Args[1].Has(ast.ArgIsType))

	label := env.LookupType("HmLabel")
	require.NotNil(t, label)
	assert.True(t, label.Args[0].Has(ast.ArgIsNeg))
	assert.Equal(t, 3, label.ConsNum())

	py, err := s.Generate(python.New(), backend.Options{})
	require.NoError(t, err)
	assert.Contains(t, string(py), "class HashmapE(TLBComplex):")
	assert.Contains(t, string(py), "class Message(TLBComplex):")
}

// compiling the same text in two sessions gives the same output
func TestIdempotentRecompile(t *testing.T) {
	for _, e := range []func() backend.Emitter{
		func() backend.Emitter { return golang.New() },
		func() backend.Emitter { return python.New() },
	} {
		src := fixture(t, "hashmap.tlb")
		first := compile(t, "hashmap.tlb", src, e())
		second := compile(t, "hashmap.tlb", src, e())
		if !bytes.Equal(first, second) {
			t.Errorf("%s output differs between compilations:\n%s", e().Name(), unifiedDiff(first, second))
		}
	}
}

func TestBoolScenario(t *testing.T) {
	s := checked(t, "bool.tlb", []byte("bool_false$0 = Bool;\nbool_true$1 = Bool;\n"))
	b := s.Env().LookupType("Bool")
	require.NotNil(t, b)
	assert.True(t, b.IsSimpleEnum)
	assert.Equal(t, 2, b.ConsNum())

	f, err := backend.Plan(s.Env(), backend.Options{}, python.New().ReservedWords())
	require.NoError(t, err)
	tp := f.Types[0]
	assert.Equal(t, 1, tp.CommonLen)
	assert.Equal(t, 1, tp.TagTree.Bits)

	py, err := s.Generate(python.New(), backend.Options{})
	require.NoError(t, err)
	assert.Contains(t, string(py), "        bool_false = 0\n        bool_true = 1\n")
	assert.Contains(t, string(py), "cons_tag = [0x0, 0x1]")
	assert.Contains(t, string(py), "cons_len_exact = 1")
}

func TestMaybeScenario(t *testing.T) {
	s := checked(t, "maybe.tlb", []byte("nothing$0 {X:Type} = Maybe X;\njust$1 {X:Type} value:X = Maybe X;\n"))
	maybe := s.Env().LookupType("Maybe")
	require.NotNil(t, maybe)
	assert.Equal(t, 1, maybe.Arity)
	assert.True(t, maybe.Args[0].Has(ast.ArgIsType))
	assert.True(t, maybe.Args[0].Has(ast.ArgIsPos))
	assert.False(t, maybe.Args[0].Has(ast.ArgIsNeg))

	f, err := backend.Plan(s.Env(), backend.Options{}, golang.New().ReservedWords())
	require.NoError(t, err)
	var just *backend.ConsPlan
	for _, cp := range f.Types[0].Cons {
		if cp.Name == "just" {
			just = cp
		}
	}
	require.NotNil(t, just)
	require.Len(t, just.Record.Fields, 1)
	assert.Equal(t, "value", just.Record.Fields[0].Name)
}

const labels = `
bit$_ (## 1) = Bit;
unary_zero$0 = Unary ~0;
unary_succ$1 {n:#} x:(Unary ~n) = Unary ~(n + 1);
hml_short$0 {m:#} {n:#} len:(Unary ~n) {n <= m} s:(n * Bit) = HmLabel ~n m;
hml_long$10 {m:#} n:(#<= m) s:(n * Bit) = HmLabel ~n m;
hml_same$11 {m:#} v:Bit n:(#<= m) = HmLabel ~n m;
`

func dstName(a backend.Action) string {
	switch a := a.(type) {
	case *backend.FetchNat:
		return a.Dst.Name
	case *backend.FetchValue:
		return a.Dst.Name
	case *backend.FetchType:
		return a.Dst.Name
	}
	return ""
}

func TestLabelScenario(t *testing.T) {
	s := checked(t, "labels.tlb", []byte(labels))
	label := s.Env().LookupType("HmLabel")
	require.NotNil(t, label)
	assert.True(t, label.Args[0].Has(ast.ArgIsNeg), "the label length is computed")
	assert.True(t, label.Args[1].Has(ast.ArgIsPos))

	f, err := backend.Plan(s.Env(), backend.Options{}, golang.New().ReservedWords())
	require.NoError(t, err)
	var tp *backend.TypePlan
	for _, p := range f.Types {
		if p.TypeName == "HmLabel" {
			tp = p
		}
	}
	require.NotNil(t, tp)
	assert.Len(t, tp.OutParams(), 1)

	var long *backend.ConsPlan
	for _, cp := range tp.Cons {
		if cp.Name == "hml_long" {
			long = cp
		}
	}
	require.NotNil(t, long)
	fetchN, fetchS := -1, -1
	for i, a := range tp.UnpackBodies[long.Idx].Actions {
		switch dstName(a) {
		case "n":
			if nat, ok := a.(*backend.FetchNat); ok {
				assert.Equal(t, backend.NatLeq, nat.Kind)
				fetchN = i
			}
		case "s":
			fetchS = i
		}
	}
	require.NotEqual(t, -1, fetchN, "n is read from a #<= m field")
	require.NotEqual(t, -1, fetchS)
	assert.Less(t, fetchN, fetchS, "n is known before sizing s")
}

func TestConflictingConstructors(t *testing.T) {
	s := NewSession(Options{})
	require.False(t, s.ParseSource("conflict.tlb", []byte("a$0 = T;\nb$0 = T;\n"), false).HasError())
	err := s.Check()
	var fatal *tlberr.Fatal
	require.ErrorAs(t, err, &fatal)
	assert.Contains(t, fatal.Msg, "conflicts between constructors")
	assert.NotEmpty(t, fatal.Details)

	_, err = s.Generate(golang.New(), backend.Options{})
	assert.ErrorAs(t, err, &fatal)
}

func TestExplicitTagWins(t *testing.T) {
	s := NewSession(Options{TagWarnings: true})
	require.False(t, s.ParseSource("tags.tlb", []byte("foo#f2345678 = Foo;\nbar = Bar;\n"), false).HasError())
	require.NoError(t, s.Check())
	foo := s.Env().LookupType("Foo")
	require.NotNil(t, foo)
	assert.Equal(t, uint64(0xf2345678)<<32|0x80000000, s.Env().TypeCons(foo)[0].Tag)

	warnings := s.FormatWarnings()
	assert.Contains(t, warnings, "different from its computed tag")
	assert.Contains(t, warnings, "had no tag")
	assert.Contains(t, warnings, "tags.tlb:1:")
	assert.Contains(t, warnings, "tags.tlb:2:")
}

func TestDiagnosticsCarryLines(t *testing.T) {
	s := NewSession(Options{})
	errs := s.ParseSource("x.tlb", []byte("a = A;\nb x:# x:# = B;\n"), false)
	require.True(t, errs.HasError())
	assert.Contains(t, s.FormatError(errs), "x.tlb:2:")
	assert.NotContains(t, s.FormatError(errs), "x.tlb:1:")
}

func TestNoTagWarningsByDefault(t *testing.T) {
	s := checked(t, "tags.tlb", []byte("bar = Bar;\n"))
	assert.Empty(t, s.Warnings())
}

func TestParseFileErrors(t *testing.T) {
	s := NewSession(Options{})
	err := s.ParseFile("")
	var fatal *tlberr.Fatal
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, "source file name is an empty string", fatal.Msg)

	err = s.ParseFile(filepath.Join(t.TempDir(), "missing.tlb"))
	require.ErrorAs(t, err, &fatal)
	assert.True(t, strings.HasPrefix(fatal.Msg, "cannot open source file `"), fatal.Msg)
}

func TestErrorsStopCheck(t *testing.T) {
	s := NewSession(Options{})
	errs := s.ParseSource("bad.tlb", []byte("bool_false$0 = Bool\nbool_true$1 = ;\n"), false)
	require.True(t, errs.HasError())
	assert.Contains(t, s.FormatError(errs), "bad.tlb:")

	var fatal *tlberr.Fatal
	require.ErrorAs(t, s.Check(), &fatal)
	_, err := s.Generate(python.New(), backend.Options{})
	assert.Error(t, err)
}

func TestInteractiveRecovers(t *testing.T) {
	s := NewSession(Options{})
	src := "broken$0 = ;\nbool_false$0 = Bool;\nbool_true$1 = Bool;\n"
	err := s.ParseReader("<stdin>", strings.NewReader(src), true)
	require.Error(t, err)
	assert.NotNil(t, s.Env().LookupType("Bool"), "definitions after the error are still parsed")
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "coins.tlb")
	require.NoError(t, os.WriteFile(file, fixture(t, "coins.tlb"), 0o644))

	s := NewSession(Options{})
	require.NoError(t, s.ParseFile(file))
	require.NoError(t, s.Check())
	assert.Equal(t, []string{file}, s.Sources())

	var dump bytes.Buffer
	s.DumpTypes(&dump)
	assert.Contains(t, dump.String(), "`Grams`")
	dump.Reset()
	s.DumpConstExprs(&dump)
	assert.Contains(t, dump.String(), "VarUInteger 16")
}

func TestGramsUnderInterpreter(t *testing.T) {
	out := compile(t, "coins.tlb", fixture(t, "coins.tlb"), golang.New())
	i := interp.New(interp.Options{})
	require.NoError(t, i.Use(stdlib.Symbols))
	require.NoError(t, i.Use(tlbrtsyms.Symbols))
	_, err := i.Eval(string(out) + `
func GramsLeft(n, value uint64) (uint32, error) {
	cb := tlbrt.NewBuilder()
	if err := cb.StoreUint(n, 4); err != nil {
		return 0, err
	}
	if err := cb.StoreUint(value, uint32(n*8)); err != nil {
		return 0, err
	}
	if err := cb.StoreUint(5, 3); err != nil {
		return 0, err
	}
	cs := tlbrt.NewSlice(cb.EndCell())
	if err := t_Grams.ValidateSkip(cs); err != nil {
		return 0, err
	}
	return cs.BitsLeft(), nil
}
`)
	require.NoError(t, err, string(out))
	v, err := i.Eval(golang.DefaultPackage + ".GramsLeft")
	require.NoError(t, err)
	gramsLeft, ok := v.Interface().(func(uint64, uint64) (uint32, error))
	require.True(t, ok)

	for _, n := range []uint64{0, 1, 3} {
		left, err := gramsLeft(n, 0)
		require.NoError(t, err)
		assert.Equal(t, uint32(3), left, "len %d", n)
	}
	left, err := gramsLeft(2, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), left)
}

func TestPlayground(t *testing.T) {
	res := CompileForPlayground("bool_false$0 = Bool;\nbool_true$1 = Bool;\n")
	require.Empty(t, res.Error)
	assert.Contains(t, res.Types, "`Bool`")
	assert.Contains(t, res.GoOutput, "package tlb")
	assert.Contains(t, res.PyOutput, "class Bool(TLBComplex):")

	res = CompileForPlayground("a$0 = T;\nb$0 = T;\n")
	assert.Contains(t, res.Error, "the schema is invalid")
	assert.Empty(t, res.GoOutput)

	res = CompileForPlayground("a$0 = ;\n")
	assert.Contains(t, res.Error, "schema.tlb:1:")
}
