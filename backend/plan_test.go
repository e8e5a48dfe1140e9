package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cottand/tlbc/frontend/tlberr"
	"github.com/cottand/tlbc/internal/tlbtest"
)

func plan(t *testing.T, src string) *FilePlan {
	t.Helper()
	f, err := Plan(tlbtest.Env(t, src), Options{}, Reserved{Keywords: []string{"type", "func"}, Locals: []string{"cs", "t"}})
	require.NoError(t, err)
	return f
}

func typePlan(t *testing.T, f *FilePlan, name string) *TypePlan {
	t.Helper()
	for _, tp := range f.Types {
		if tp.TypeName == name {
			return tp
		}
	}
	require.Failf(t, "type not planned", "no plan for %s", name)
	return nil
}

func TestPlanBool(t *testing.T) {
	tp := typePlan(t, plan(t, tlbtest.Bool), "Bool")
	assert.Equal(t, "Bool", tp.Class)
	assert.Equal(t, "t_Bool", tp.Var)
	assert.Empty(t, tp.Params)
	require.Len(t, tp.Cons, 2)
	assert.Equal(t, "bool_false", tp.ByEnum[0].Name)
	assert.Equal(t, "bool_true", tp.ByEnum[1].Name)
	assert.Equal(t, []int{0, 1}, []int{tp.Cons[0].Enum, tp.Cons[1].Enum})
	assert.Equal(t, 1, tp.CommonLen)
	assert.True(t, tp.IsSimpleEnum)
	assert.True(t, tp.InlineSkip)
	assert.Nil(t, tp.SkipBodies[0])

	require.Equal(t, TagPreload, tp.TagTree.Kind)
	assert.Equal(t, 1, tp.TagTree.Bits)
	assert.Equal(t, []int{0, 1}, tp.TagTree.Values)

	assert.Equal(t, []Action{&CheckTag{Bits: 1, Tag: 1}}, tp.UnpackBodies[1].Actions)
	assert.Equal(t, []Action{&StoreTag{Bits: 1, Tag: 1}}, tp.PackBodies[1].Actions)
	assert.Equal(t, "Record_bool_true", tp.Cons[1].Record.Name)
	assert.Empty(t, tp.Cons[1].Record.Fields)
}

func TestPlanRecordFields(t *testing.T) {
	f := plan(t, tlbtest.Bool+tlbtest.Maybe+`
point$_ x:(## 8) y:int16 flag:Bool extra:(Maybe ^Cell) = Point;
`)
	tp := typePlan(t, f, "Point")
	require.Len(t, tp.Cons, 1)
	rec := tp.Cons[0].Record
	assert.Equal(t, "Record", rec.Name)
	require.Len(t, rec.Fields, 4)

	names := make([]string, len(rec.Fields))
	vts := make([]ValueType, len(rec.Fields))
	for i, fp := range rec.Fields {
		names[i], vts[i] = fp.Name, fp.VT
	}
	assert.Equal(t, []string{"x", "y", "flag", "extra"}, names)
	assert.Equal(t, []ValueType{VtNat, VtInt32, VtBool, VtSlice}, vts)
	assert.True(t, rec.Fields[1].Signed)
	assert.False(t, rec.Fields[0].Signed)

	acts := tp.UnpackBodies[0].Actions
	require.Len(t, acts, 4)
	nat, ok := acts[0].(*FetchNat)
	require.True(t, ok, "%T", acts[0])
	assert.Equal(t, NatWidth, nat.Kind)
	assert.Equal(t, VarField, nat.Dst.Kind)
	value, ok := acts[1].(*FetchValue)
	require.True(t, ok, "%T", acts[1])
	assert.Equal(t, VtInt32, value.VT)
	assert.Equal(t, "16", value.Bits.String())
	fetch, ok := acts[3].(*FetchType)
	require.True(t, ok, "%T", acts[3])
	require.Equal(t, TypeConst, fetch.Type.Kind)
	var maybe *ConstPlan
	for _, c := range f.Consts {
		if c.Name == fetch.Type.Name {
			maybe = c
		}
	}
	require.NotNil(t, maybe, "Maybe ^Cell is declared as a constant")
	assert.Equal(t, TypeUser, maybe.Value.Kind)
	assert.Equal(t, "Maybe", maybe.Value.Plan.Class)
}

func TestPlanNegativeParams(t *testing.T) {
	tp := typePlan(t, plan(t, tlbtest.Unary), "Unary")
	require.Len(t, tp.Params, 1)
	assert.Equal(t, "m", tp.Params[0].Name)
	assert.True(t, tp.Params[0].IsNeg)
	assert.Len(t, tp.OutParams(), 1)
	assert.Empty(t, tp.PosParams())
	assert.Equal(t, "t_Unary", tp.Var)
	assert.False(t, tp.InlineSkip)

	succ := tp.Cons[1]
	require.Equal(t, "unary_succ", succ.Name)
	body := tp.SkipBodies[1][succ.Idx]
	var skip *CallSkip
	for _, a := range body.Actions {
		if cs, ok := a.(*CallSkip); ok {
			skip = cs
		}
	}
	require.NotNil(t, skip, "validate skip of unary_succ calls itself")
	assert.True(t, skip.Validate)
	assert.Len(t, skip.Outs, 1)
}

func TestPlanConstraint(t *testing.T) {
	tp := typePlan(t, plan(t, "small$_ a:(## 4) { a <= 10 } = Small;"), "Small")
	var check *Check
	for _, a := range tp.UnpackBodies[0].Actions {
		if c, ok := a.(*Check); ok {
			check = c
		}
	}
	require.NotNil(t, check)
	assert.Equal(t, CmpLeq, check.Op)
	assert.Equal(t, "10", check.Y.String())
}

func TestPlanReservedNames(t *testing.T) {
	f := plan(t, "func$_ type:# = Func;")
	tp := typePlan(t, f, "Func")
	assert.NotEqual(t, "type", tp.Cons[0].Record.Fields[0].Name)
	assert.NotEqual(t, "func", tp.Cons[0].Name)
}

func TestPlanLocalNames(t *testing.T) {
	f := plan(t, tlbtest.Unary+"cs$_ t:# = Cs;")
	tp := typePlan(t, f, "Cs")
	assert.Equal(t, "cs", tp.Cons[0].Name, "constructor names never become locals")
	assert.Equal(t, "t", tp.Cons[0].Record.Fields[0].Name)

	f, err := Plan(tlbtest.Env(t, tlbtest.Unary), Options{}, Reserved{Locals: []string{"m"}})
	require.NoError(t, err)
	unary := typePlan(t, f, "Unary")
	require.Len(t, unary.Params, 1)
	assert.Equal(t, "m1", unary.Params[0].Name, "outputs are declared in method bodies")
}

func TestRecoverFatal(t *testing.T) {
	err := func() (err error) {
		defer recoverFatal(&err)
		fatalf("cannot generate `%s`", "X")
		return nil
	}()
	var fatal *tlberr.Fatal
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, "cannot generate `X`", fatal.Msg)

	assert.Panics(t, func() {
		var err error
		defer recoverFatal(&err)
		panic("not a bailout")
	})
}

func TestParts(t *testing.T) {
	assert.True(t, Parts(0).Has(PartHeader))
	assert.True(t, Parts(0).Has(PartSource))
	assert.True(t, PartHeader.Has(PartHeader))
	assert.False(t, PartHeader.Has(PartSource))
}

func TestConstValue(t *testing.T) {
	v, ok := ConstValue(&BinOp{Op: OpAdd, X: &Lit{Value: 2}, Y: &BinOp{Op: OpMul, X: &Lit{Value: 3}, Y: &Lit{Value: 4}}})
	require.True(t, ok)
	assert.Equal(t, 14, v)
	v, ok = ConstValue(&BinOp{Op: OpBit, X: &Lit{Value: 5}, Y: &Lit{Value: 2}})
	require.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = ConstValue(&Var{Name: "n"})
	assert.False(t, ok)
}
