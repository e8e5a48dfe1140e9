package tlbrt

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, f func(cb *Builder) error) *Slice {
	t.Helper()
	cb := NewBuilder()
	require.NoError(t, f(cb))
	return NewSlice(cb.EndCell())
}

func TestScalarsRoundTrip(t *testing.T) {
	cs := build(t, func(cb *Builder) error {
		for _, err := range []error{
			cb.StoreUint(5, 3),
			cb.StoreInt(-2, 4),
			cb.StoreBool(true),
			cb.StoreBigUint(big.NewInt(300), 100),
			cb.StoreBigInt(big.NewInt(-300), 257),
			cb.StoreUintLeq(10, 7),
			cb.StoreUintLess(8, 7),
		} {
			if err != nil {
				return err
			}
		}
		return nil
	})
	u, err := cs.LoadUint(3)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), u)
	i, err := cs.LoadInt(4)
	require.NoError(t, err)
	assert.Equal(t, int64(-2), i)
	b, err := cs.LoadBool()
	require.NoError(t, err)
	assert.True(t, b)
	bu, err := cs.LoadBigUint(100)
	require.NoError(t, err)
	assert.Equal(t, int64(300), bu.Int64())
	bi, err := cs.LoadBigInt(257)
	require.NoError(t, err)
	assert.Equal(t, int64(-300), bi.Int64())
	leq, err := cs.LoadUintLeq(10)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), leq)
	less, err := cs.LoadUintLess(8)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), less)
	assert.True(t, cs.Empty())
}

func TestStoreRange(t *testing.T) {
	cb := NewBuilder()
	assert.True(t, errors.Is(cb.StoreUint(8, 3), ErrRange))
	assert.True(t, errors.Is(cb.StoreInt(8, 4), ErrRange))
	assert.True(t, errors.Is(cb.StoreUintLeq(3, 4), ErrConstraint))
	assert.True(t, errors.Is(cb.StoreBits(NewBits([]byte{0xff}, 8), 4), ErrRange))
	assert.True(t, errors.Is(cb.StoreRef(nil), ErrRange))
}

func TestWideNats(t *testing.T) {
	for _, n := range []uint32{40, 64, 100} {
		cs := build(t, func(cb *Builder) error { return cb.StoreNat(5, n) })
		v, err := cs.LoadNat(n)
		require.NoError(t, err, "%d bits", n)
		assert.Equal(t, uint32(5), v)
		assert.True(t, cs.Empty())
	}

	cs := build(t, func(cb *Builder) error { return cb.StoreUint(1<<32, 40) })
	_, err := cs.LoadNat(40)
	assert.ErrorIs(t, err, ErrRange)

	cs = build(t, func(cb *Builder) error { return cb.StoreBigUint(new(big.Int).Lsh(big.NewInt(1), 80), 100) })
	_, err = cs.LoadNat(100)
	assert.ErrorIs(t, err, ErrRange)
}

func TestUnderflow(t *testing.T) {
	cs := build(t, func(cb *Builder) error { return cb.StoreUint(1, 2) })
	_, err := cs.LoadUint(3)
	assert.Equal(t, ErrUnderflow, errors.Cause(err))
	_, err = cs.LoadRef()
	assert.Equal(t, ErrUnderflow, errors.Cause(err))
}

func TestExpectTag(t *testing.T) {
	cs := build(t, func(cb *Builder) error { return cb.StoreUint(0b10, 2) })
	err := cs.Copy().ExpectTag(2, 0b11)
	assert.Equal(t, ErrTag, errors.Cause(err))
	assert.NoError(t, cs.ExpectTag(2, 0b10))
}

func TestBSelect(t *testing.T) {
	// mask 0b1011: values 0, 1 and 3 start a new entry
	cs := build(t, func(cb *Builder) error { return cb.StoreUint(0b10, 2) })
	assert.Equal(t, 1, cs.BSelect(2, 0b1011))
	cs = build(t, func(cb *Builder) error { return cb.StoreUint(0b11, 2) })
	assert.Equal(t, 2, cs.BSelect(2, 0b1011))
	cs = build(t, func(cb *Builder) error { return cb.StoreUint(1, 1) })
	assert.Equal(t, -1, cs.BSelect(2, 0b1011))
	assert.Equal(t, 1, cs.BSelectExt(2, 0b1011))
}

func TestBitAt(t *testing.T) {
	cs := build(t, func(cb *Builder) error { return cb.StoreUint(0b0100, 4) })
	assert.False(t, cs.BitAt(0))
	assert.True(t, cs.BitAt(1))
	assert.False(t, cs.BitAt(3))
	assert.False(t, cs.BitAt(10))
	assert.Equal(t, 4, cs.PrefetchIndex(4))
	assert.Equal(t, -1, cs.PrefetchIndex(5))
	assert.Equal(t, uint32(4), cs.BitsLeft())
}

func TestFetchRaw(t *testing.T) {
	inner := NewBuilder().EndCell()
	cs := build(t, func(cb *Builder) error {
		if err := cb.StoreUint(0xabc, 12); err != nil {
			return err
		}
		if err := cb.StoreRef(inner); err != nil {
			return err
		}
		return cb.StoreUint(1, 1)
	})
	raw, err := FetchRaw(cs, TupleT{N: 3, X: NatWidth{N: 4}}, false)
	require.NoError(t, err)
	assert.Equal(t, uint32(12), raw.Len)
	assert.Empty(t, raw.Refs)
	v, err := raw.Parse().LoadUint(12)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xabc), v)

	ref, err := FetchRaw(cs, RefT{X: CellT{}}, false)
	require.NoError(t, err)
	assert.Len(t, ref.Refs, 1)
	assert.Equal(t, uint32(1), cs.BitsLeft())
}

func TestValidateRef(t *testing.T) {
	full := NewBuilder()
	require.NoError(t, full.StoreUint(3, 8))
	cs := build(t, func(cb *Builder) error { return cb.StoreRef(full.EndCell()) })
	_, err := ValidateRef(cs.Copy(), NatWidth{N: 4})
	assert.Equal(t, ErrTrailing, errors.Cause(err))
	_, err = ValidateRef(cs, NatWidth{N: 8})
	assert.NoError(t, err)
}

func TestCondAndNatLess(t *testing.T) {
	cs := build(t, func(cb *Builder) error { return cb.StoreUint(0b11, 2) })
	require.NoError(t, CondT{C: 0, X: Nat{}}.Skip(cs))
	assert.Equal(t, uint32(2), cs.BitsLeft())
	err := NatLess{N: 3}.ValidateSkip(cs)
	assert.Equal(t, ErrConstraint, errors.Cause(err))
}

func TestArithmeticInverses(t *testing.T) {
	x, err := AddR1(10, 3)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), x)
	_, err = AddR1(2, 3)
	assert.Equal(t, ErrConstraint, errors.Cause(err))

	x, err = MulR1(12, 4)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), x)
	_, err = MulR1(13, 4)
	assert.Equal(t, ErrConstraint, errors.Cause(err))
}

func TestNatAbs(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2, 3, 2, 3}, []int{NatAbs(0), NatAbs(1), NatAbs(2), NatAbs(3), NatAbs(4), NatAbs(7)})
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check(true, "x == y"))
	err := Check(false, "x == y")
	assert.Equal(t, ErrConstraint, errors.Cause(err))
	assert.Contains(t, err.Error(), "x == y")
}
