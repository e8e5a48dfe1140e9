package types_test

import (
	"bytes"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cottand/tlbc/frontend/lattice"
	"github.com/cottand/tlbc/frontend/lexer"
	"github.com/cottand/tlbc/frontend/parser"
	"github.com/cottand/tlbc/frontend/tlberr"
	"github.com/cottand/tlbc/frontend/types"
	"github.com/cottand/tlbc/internal/tlbtest"
)

func parsed(t *testing.T, src string) *types.Env {
	t.Helper()
	fset := token.NewFileSet()
	file := fset.AddFile("test.tlb", -1, len(src))
	env := types.NewEnv(lexer.NewSymbols(), types.Options{})
	errs := parser.ParseSource(env, file, []byte(src), false)
	require.False(t, errs.HasError(), errs.Format(fset))
	return env
}

const hashmap = tlbtest.Unary + `
bit$_ (## 1) = Bit;
hm_edge#_ {n:#} {X:Type} {l:#} {m:#} label:(HmLabel ~l n)
          {n = (~m) + l} node:(HashmapNode m X) = Hashmap n X;
hmn_leaf#_ {X:Type} value:X = HashmapNode 0 X;
hmn_fork#_ {n:#} {X:Type} left:^(Hashmap n X)
           right:^(Hashmap n X) = HashmapNode (n + 1) X;
hml_short$0 {m:#} {n:#} len:(Unary ~n) {n <= m} s:(n * Bit) = HmLabel ~n m;
hml_long$10 {m:#} n:(#<= m) s:(n * Bit) = HmLabel ~n m;
hml_same$11 {m:#} v:Bit n:(#<= m) = HmLabel ~n m;
hme_empty$0 {n:#} {X:Type} = HashmapE n X;
hme_root$1 {n:#} {X:Type} root:^(Hashmap n X) = HashmapE n X;
`

func TestFixedSizes(t *testing.T) {
	env := tlbtest.Env(t, tlbtest.Bool+tlbtest.Maybe+`
point$_ x:(## 8) y:int16 flag:Bool = Point;
wrapped$_ c:^Cell = Wrapped;
opt$_ c:(Maybe ^Cell) = Opt;
`)
	point := env.LookupType("Point")
	require.NotNil(t, point)
	assert.Equal(t, lattice.FixedSize(25), point.Size)
	assert.True(t, point.HasFixedSize)

	wrapped := env.LookupType("Wrapped")
	assert.Equal(t, lattice.OneRef, wrapped.Size)

	// applications take the size of the applied type, and Maybe's value is a bare type parameter
	opt := env.LookupType("Opt")
	assert.Equal(t, 1, opt.Size.MinBits())
	assert.Equal(t, 0, opt.Size.MinRefs())
	assert.Equal(t, lattice.Any.MaxBits(), opt.Size.MaxBits())
	assert.Equal(t, lattice.Any.MaxRefs(), opt.Size.MaxRefs())
	assert.False(t, opt.HasFixedSize)
}

// every constructor size lies within the size of its type
func TestSizeMonotonicity(t *testing.T) {
	env := tlbtest.Env(t, hashmap+tlbtest.Bool+tlbtest.Maybe)
	for _, tp := range env.UserTypes() {
		for _, cs := range env.TypeCons(tp) {
			assert.GreaterOrEqual(t, cs.Size.MinBits(), tp.Size.MinBits(), env.QualifiedName(cs))
			assert.GreaterOrEqual(t, cs.Size.MinRefs(), tp.Size.MinRefs(), env.QualifiedName(cs))
			assert.LessOrEqual(t, cs.Size.MaxBits(), tp.Size.MaxBits(), env.QualifiedName(cs))
			assert.LessOrEqual(t, cs.Size.MaxRefs(), tp.Size.MaxRefs(), env.QualifiedName(cs))
		}
	}
}

func TestTagsAreDistinct(t *testing.T) {
	env := tlbtest.Env(t, hashmap+tlbtest.Bool+tlbtest.Maybe)
	for _, tp := range env.UserTypes() {
		seen := map[uint64]string{}
		for _, cs := range env.TypeCons(tp) {
			if cs.TagBits == 0 {
				continue
			}
			if prev, ok := seen[cs.Tag]; ok {
				t.Errorf("constructors %s and %s of %s share tag %#x", prev, env.ConsName(cs), env.TypeName(tp), cs.Tag)
			}
			seen[cs.Tag] = env.ConsName(cs)
		}
	}
}

func TestDeterminism(t *testing.T) {
	env := tlbtest.Env(t, hashmap)
	unary := env.LookupType("Unary")
	assert.True(t, unary.IsPfxDeterm)
	assert.True(t, unary.IsDeterm)

	node := env.LookupType("HashmapNode")
	assert.False(t, node.IsPfxDeterm, "leaf and fork share the empty tag")
	assert.True(t, node.IsDeterm, "the first parameter tells leaf from fork")
}

func TestUndefinedType(t *testing.T) {
	env := parsed(t, "a$0 x:Foo = A;")
	err := env.CheckScheme()
	require.Error(t, err)
	tlbErr, ok := err.(tlberr.TlbError)
	require.True(t, ok, "%T", err)
	assert.Equal(t, tlberr.ImplicitType, tlbErr.Code())
	assert.Contains(t, err.Error(), "`Foo` has no constructors")
}

func TestConflict(t *testing.T) {
	env := parsed(t, "a$0 = T;\nb$0 = T;\n")
	var fatal *tlberr.Fatal
	require.ErrorAs(t, env.CheckScheme(), &fatal)
	require.NotEmpty(t, fatal.Details)
	assert.Contains(t, fatal.Details[0], "found conflict between constructors of type `T`")
}

func TestConflictResolvedByParams(t *testing.T) {
	env := parsed(t, "a$_ = T 0;\nb$_ {n:#} x:(## 8) = T (n + 1);\n")
	require.NoError(t, env.CheckScheme())
	assert.True(t, env.LookupType("T").IsDeterm)
}

func TestTooBig(t *testing.T) {
	env := parsed(t, "big$_ a:bits1000 b:bits1000 = Big;")
	var fatal *tlberr.Fatal
	require.ErrorAs(t, env.CheckScheme(), &fatal)
	assert.Contains(t, fatal.Msg, "do not fit into cells")
}

func TestDumps(t *testing.T) {
	env := tlbtest.Env(t, tlbtest.Unary+tlbtest.Bool+tlbtest.Maybe+"wrap$_ a:(Maybe ^Cell) = Wrap;")
	var buf bytes.Buffer
	env.DumpTypes(&buf)
	assert.Contains(t, buf.String(), "user-defined")
	assert.Contains(t, buf.String(), "constructor `unary_succ`")

	buf.Reset()
	env.DumpConstExprs(&buf)
	assert.Contains(t, buf.String(), "constant expressions:")
	assert.Contains(t, buf.String(), "Maybe ^Cell")
}
