package golang

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/cottand/tlbc/backend"
	"github.com/cottand/tlbc/internal/tlbtest"
	"github.com/cottand/tlbc/tlbrt"
	"github.com/cottand/tlbc/tlbrt/tlbrtsyms"
)

func generate(t *testing.T, src string) string {
	t.Helper()
	out, err := backend.Generate(tlbtest.Env(t, src), New(), backend.Options{Sources: []string{"test.tlb"}})
	require.NoError(t, err)
	return string(out)
}

// interpret evaluates generated code together with helpers written against it
func interpret(t *testing.T, generated, helpers string) *interp.Interpreter {
	t.Helper()
	i := interp.New(interp.Options{})
	require.NoError(t, i.Use(stdlib.Symbols))
	require.NoError(t, i.Use(tlbrtsyms.Symbols))
	_, err := i.Eval(generated + "\n" + helpers)
	require.NoError(t, err, generated)
	return i
}

func lookup[T any](t *testing.T, i *interp.Interpreter, name string) T {
	t.Helper()
	v, err := i.Eval(DefaultPackage + "." + name)
	require.NoError(t, err)
	fn, ok := v.Interface().(T)
	require.True(t, ok, "%s has type %s", name, v.Type())
	return fn
}

func TestGenerateHeader(t *testing.T) {
	src := generate(t, tlbtest.Bool)
	assert.Contains(t, src, "// Code generated by tlbc from test.tlb. DO NOT EDIT.")
	assert.Contains(t, src, "package tlb\n")
	assert.Contains(t, src, `"github.com/cottand/tlbc/tlbrt"`)
	assert.NotContains(t, src, `"math/big"`)
	assert.Contains(t, src, "func (t Bool) GetTag(cs *tlbrt.Slice) int {")
	assert.Contains(t, src, "Bool_bool_false = 0")
	assert.Contains(t, src, "Bool_bool_true  = 1")
	assert.Contains(t, src, "const BoolConsLenExact = 1")
	assert.Contains(t, src, "func (t Bool) FetchEnum(cs *tlbrt.Slice) (int, error) {")
	assert.Contains(t, src, "var t_Bool = Bool{}")
}

func TestGenerateIsStable(t *testing.T) {
	schema := tlbtest.Bool + tlbtest.Unary + tlbtest.Maybe + "wrap$_ a:(Maybe ^Cell) b:int257 = Wrap;"
	first := generate(t, schema)
	assert.Equal(t, first, generate(t, schema))
	assert.Contains(t, first, `"math/big"`)
	assert.Contains(t, first, "*big.Int")
}

func TestNamespace(t *testing.T) {
	out, err := backend.Generate(tlbtest.Env(t, tlbtest.Bool), New(), backend.Options{Namespace: "schema"})
	require.NoError(t, err)
	assert.Contains(t, string(out), "package schema\n")
	assert.Contains(t, string(out), "// Code generated by tlbc. DO NOT EDIT.")
}

func TestBoolEnum(t *testing.T) {
	i := interpret(t, generate(t, tlbtest.Bool), `
func BoolRoundTrip(tag int) (int, error) {
	cb := tlbrt.NewBuilder()
	if err := t_Bool.StoreEnum(cb, tag); err != nil {
		return -1, err
	}
	return t_Bool.FetchEnum(tlbrt.NewSlice(cb.EndCell()))
}
`)
	roundTrip := lookup[func(int) (int, error)](t, i, "BoolRoundTrip")
	for _, tag := range []int{0, 1} {
		got, err := roundTrip(tag)
		require.NoError(t, err)
		assert.Equal(t, tag, got)
	}
	_, err := roundTrip(2)
	assert.ErrorIs(t, err, tlbrt.ErrTag)
}

func TestUnaryOutputs(t *testing.T) {
	i := interpret(t, generate(t, tlbtest.Unary), `
func UnaryDepth(n int) (uint32, error) {
	cb := tlbrt.NewBuilder()
	for k := 0; k < n; k++ {
		if err := cb.StoreUint(1, 1); err != nil {
			return 0, err
		}
	}
	if err := cb.StoreUint(0, 1); err != nil {
		return 0, err
	}
	return t_Unary.ValidateSkipOut(tlbrt.NewSlice(cb.EndCell()))
}
`)
	depth := lookup[func(int) (uint32, error)](t, i, "UnaryDepth")
	for _, n := range []int{0, 2, 5} {
		m, err := depth(n)
		require.NoError(t, err)
		assert.Equal(t, uint32(n), m)
	}
}

const point = tlbtest.Bool + `
point$_ x:(## 8) y:int16 flag:Bool = Point;
small$_ a:(## 4) { a <= 10 } = Small;
`

func TestRecordRoundTrip(t *testing.T) {
	i := interpret(t, generate(t, point), `
func PointRoundTrip(x uint32, y int32, flag bool) (uint32, int32, bool, error) {
	c, err := t_Point.PackPointCell(PointRecord{X: x, Y: y, Flag: flag})
	if err != nil {
		return 0, 0, false, err
	}
	rec, err := t_Point.UnpackPointCell(c)
	return rec.X, rec.Y, rec.Flag, err
}

func SmallPack(a uint32) error {
	_, err := t_Small.PackSmallCell(SmallRecord{A: a})
	return err
}

func SmallUnpack(a uint64) error {
	cb := tlbrt.NewBuilder()
	if err := cb.StoreUint(a, 4); err != nil {
		return err
	}
	_, err := t_Small.UnpackSmallCell(cb.EndCell())
	return err
}
`)
	roundTrip := lookup[func(uint32, int32, bool) (uint32, int32, bool, error)](t, i, "PointRoundTrip")
	x, y, flag, err := roundTrip(200, -5, true)
	require.NoError(t, err)
	assert.Equal(t, uint32(200), x)
	assert.Equal(t, int32(-5), y)
	assert.True(t, flag)

	_, _, _, err = roundTrip(300, 0, false)
	assert.ErrorIs(t, err, tlbrt.ErrRange)

	pack := lookup[func(uint32) error](t, i, "SmallPack")
	assert.NoError(t, pack(10))
	assert.ErrorIs(t, pack(12), tlbrt.ErrConstraint)

	unpack := lookup[func(uint64) error](t, i, "SmallUnpack")
	assert.NoError(t, unpack(3))
	assert.ErrorIs(t, unpack(11), tlbrt.ErrConstraint)
}

func TestTrailingData(t *testing.T) {
	i := interpret(t, generate(t, point), `
func PointWithTrailer() error {
	cb := tlbrt.NewBuilder()
	if err := cb.StoreUint(0, 8+16+1+3); err != nil {
		return err
	}
	_, err := t_Point.UnpackPointCell(cb.EndCell())
	return err
}
`)
	run := lookup[func() error](t, i, "PointWithTrailer")
	assert.ErrorIs(t, run(), tlbrt.ErrTrailing)
}

const varUint = `
var_uint$_ {n:#} len:(#< n) value:(uint (len * 8)) = VarUInteger n;
nanograms$_ amount:(VarUInteger 16) = Grams;
`

var localDecl = regexp.MustCompile(`(?m)^\t+var ([a-z0-9_, ]+) uint32\n\t+[_, ]+ = [a-z0-9_, ]+$`)

func TestLocalsAreUsed(t *testing.T) {
	src := generate(t, varUint+tlbtest.Unary)
	for _, fn := range strings.Split(src, "\nfunc ")[1:] {
		for _, m := range localDecl.FindAllStringSubmatch(fn, -1) {
			for _, name := range strings.Split(m[1], ", ") {
				rest := strings.Replace(fn, m[0], "", 1)
				assert.True(t, mentions(rest, name), "%s is declared but never used in\n%s", name, fn)
			}
		}
	}
}

func TestMentions(t *testing.T) {
	assert.True(t, mentions("if len1, err = cs.LoadUintLess(n); err != nil {", "len1"))
	assert.True(t, mentions("return t1", "t1"))
	assert.False(t, mentions("rec.len1 = 2", "len1"))
	assert.False(t, mentions("t10 = 2", "t1"))
	assert.False(t, mentions("xlen1 = 2", "len1"))
}

func TestConstructorNamesKept(t *testing.T) {
	src := generate(t, "c$0 = T;\ncs$1 x:# = T;\n")
	assert.Contains(t, src, "T_c ")
	assert.Contains(t, src, "T_cs ")
	assert.Contains(t, src, "func (t T) UnpackC(")
	assert.Contains(t, src, "func (t T) UnpackCs(")
	assert.NotContains(t, src, "UnpackC1")
}

const shapes = tlbtest.Bool + tlbtest.Unary + `
bit$_ (## 1) = Bit;
shape_dot$00 = Shape;
shape_line$01 len:(## 8) = Shape;
shape_box$1 w:(## 4) h:(## 4) = Shape;
vec$_ {n:#} items:(n * (## 4)) = Vec n;
flagged$_ f:(## 1) x:f?(## 8) = Flagged;
masked$_ m:(## 4) a:(m . 0)?(## 8) b:(m . 3)?^Cell = Masked;
pair$_ a:(## 8) ^[ c:(## 8) d:Bool ] = Pair;
hml_short$0 {m:#} {n:#} len:(Unary ~n) {n <= m} s:(n * Bit) = HmLabel ~n m;
hml_long$10 {m:#} n:(#<= m) s:(n * Bit) = HmLabel ~n m;
hml_same$11 {m:#} v:Bit n:(#<= m) = HmLabel ~n m;
wide$_ n:(## 40) s:(n * Bit) = Wide;
`

const shapeHelpers = `
func RoundTripShape(c *tlbrt.Cell) (*tlbrt.Cell, error) {
	switch t_Shape.GetTag(tlbrt.NewSlice(c)) {
	case Shape_shape_dot:
		rec, err := t_Shape.UnpackShapeDotCell(c)
		if err != nil {
			return nil, err
		}
		return t_Shape.PackShapeDotCell(rec)
	case Shape_shape_line:
		rec, err := t_Shape.UnpackShapeLineCell(c)
		if err != nil {
			return nil, err
		}
		return t_Shape.PackShapeLineCell(rec)
	case Shape_shape_box:
		rec, err := t_Shape.UnpackShapeBoxCell(c)
		if err != nil {
			return nil, err
		}
		return t_Shape.PackShapeBoxCell(rec)
	}
	return nil, tlbrt.ErrTag
}

func RoundTripVec(n uint32) func(c *tlbrt.Cell) (*tlbrt.Cell, error) {
	return func(c *tlbrt.Cell) (*tlbrt.Cell, error) {
		rec, err := Vec{M: n}.UnpackVecCell(c)
		if err != nil {
			return nil, err
		}
		return Vec{M: n}.PackVecCell(rec)
	}
}

func RoundTripFlagged(c *tlbrt.Cell) (*tlbrt.Cell, error) {
	rec, err := t_Flagged.UnpackFlaggedCell(c)
	if err != nil {
		return nil, err
	}
	return t_Flagged.PackFlaggedCell(rec)
}

func RoundTripMasked(c *tlbrt.Cell) (*tlbrt.Cell, error) {
	rec, err := t_Masked.UnpackMaskedCell(c)
	if err != nil {
		return nil, err
	}
	return t_Masked.PackMaskedCell(rec)
}

func RoundTripPair(c *tlbrt.Cell) (*tlbrt.Cell, error) {
	rec, err := t_Pair.UnpackPairCell(c)
	if err != nil {
		return nil, err
	}
	return t_Pair.PackPairCell(rec)
}

func RoundTripWide(c *tlbrt.Cell) (*tlbrt.Cell, error) {
	rec, err := t_Wide.UnpackWideCell(c)
	if err != nil {
		return nil, err
	}
	return t_Wide.PackWideCell(rec)
}

func RoundTripUnary(c *tlbrt.Cell) (*tlbrt.Cell, error) {
	if t_Unary.GetTag(tlbrt.NewSlice(c)) == Unary_unary_zero {
		rec, _, err := t_Unary.UnpackUnaryZeroCell(c)
		if err != nil {
			return nil, err
		}
		c, _, err := t_Unary.PackUnaryZeroCell(rec)
		return c, err
	}
	rec, _, err := t_Unary.UnpackUnarySuccCell(c)
	if err != nil {
		return nil, err
	}
	c, _, err = t_Unary.PackUnarySuccCell(rec)
	return c, err
}

// RoundTripHmLabel round-trips labels of at most m bits
func RoundTripHmLabel(m uint32) func(c *tlbrt.Cell) (*tlbrt.Cell, error) {
	t := HmLabel{N: m}
	return func(c *tlbrt.Cell) (*tlbrt.Cell, error) {
		switch t.GetTag(tlbrt.NewSlice(c)) {
		case HmLabel_hml_short:
			rec, _, err := t.UnpackHmlShortCell(c)
			if err != nil {
				return nil, err
			}
			c, _, err := t.PackHmlShortCell(rec)
			return c, err
		case HmLabel_hml_long:
			rec, _, err := t.UnpackHmlLongCell(c)
			if err != nil {
				return nil, err
			}
			c, _, err := t.PackHmlLongCell(rec)
			return c, err
		case HmLabel_hml_same:
			rec, _, err := t.UnpackHmlSameCell(c)
			if err != nil {
				return nil, err
			}
			c, _, err := t.PackHmlSameCell(rec)
			return c, err
		}
		return nil, tlbrt.ErrTag
	}
}
`

// cellOf builds a cell from a string of 0 and 1, ignoring spaces
func cellOf(t *testing.T, bits string, refs ...*tlbrt.Cell) *tlbrt.Cell {
	t.Helper()
	cb := tlbrt.NewBuilder()
	for _, b := range bits {
		if b == ' ' {
			continue
		}
		require.NoError(t, cb.StoreUint(uint64(b-'0'), 1))
	}
	for _, r := range refs {
		require.NoError(t, cb.StoreRef(r))
	}
	return cb.EndCell()
}

func TestUnpackPackRoundTrip(t *testing.T) {
	i := interpret(t, generate(t, shapes), shapeHelpers)
	type roundTrip = func(*tlbrt.Cell) (*tlbrt.Cell, error)
	shape := lookup[roundTrip](t, i, "RoundTripShape")
	flagged := lookup[roundTrip](t, i, "RoundTripFlagged")
	masked := lookup[roundTrip](t, i, "RoundTripMasked")
	pair := lookup[roundTrip](t, i, "RoundTripPair")
	wide := lookup[roundTrip](t, i, "RoundTripWide")
	unary := lookup[roundTrip](t, i, "RoundTripUnary")
	vec := lookup[func(uint32) roundTrip](t, i, "RoundTripVec")
	label := lookup[func(uint32) roundTrip](t, i, "RoundTripHmLabel")

	leaf := cellOf(t, "1010")
	tests := []struct {
		name string
		f    roundTrip
		in   *tlbrt.Cell
	}{
		{"multi constructor dot", shape, cellOf(t, "00")},
		{"multi constructor line", shape, cellOf(t, "01 10110011")},
		{"multi constructor box", shape, cellOf(t, "1 0011 1100")},
		{"tuple of 0", vec(0), cellOf(t, "")},
		{"tuple of 1", vec(1), cellOf(t, "0110")},
		{"tuple of 3", vec(3), cellOf(t, "0110 1111 0001")},
		{"tuple of 7", vec(7), cellOf(t, "0001 0010 0011 0100 0101 0110 0111")},
		{"conditional absent", flagged, cellOf(t, "0")},
		{"conditional present", flagged, cellOf(t, "1 11001010")},
		{"bit select none", masked, cellOf(t, "0000")},
		{"bit select low", masked, cellOf(t, "0001 10000001")},
		{"bit select high", masked, cellOf(t, "1000", leaf)},
		{"bit select both", masked, cellOf(t, "1111 01111110", leaf)},
		{"sub record", pair, cellOf(t, "00000111", cellOf(t, "11111111 1"))},
		{"negative parameter zero", unary, cellOf(t, "0")},
		{"negative parameter", unary, cellOf(t, "1110")},
		{"short label", label(8), cellOf(t, "0 110 10")},
		{"long label", label(8), cellOf(t, "10 0101 10110")},
		{"same label", label(8), cellOf(t, "11 1 0110")},
		{"wide natural", wide, cellOf(t, "0000000000000000000000000000000000000101 11111")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.f(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.in.Hash(), out.Hash())
		})
	}
}

func TestWideNaturalOutOfRange(t *testing.T) {
	i := interpret(t, generate(t, shapes), shapeHelpers)
	wide := lookup[func(*tlbrt.Cell) (*tlbrt.Cell, error)](t, i, "RoundTripWide")
	// 2^32 does not fit the uint32 the field is held in
	_, err := wide(cellOf(t, "0000000100000000000000000000000000000000"))
	assert.ErrorIs(t, err, tlbrt.ErrRange)
}
