package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	pfx0 uint64 = 1 << 62 // the one bit prefix 0
	pfx1 uint64 = 3 << 62 // the one bit prefix 1
)

func TestMinMaxSizeString(t *testing.T) {
	cases := []struct {
		size     MinMaxSize
		expected string
	}{
		{FixedSize(32), "=32"},
		{SizeRange(0, 32), "0..32"},
		{Any, "0..infty"},
		{OneRef, "=0+1R"},
		{FixedSize(8).Add(OneRef), "=8+1R"},
		{OneRef.Add(Any), "0+1R..infty"},
	}
	for _, c := range cases {
		t.Run(c.expected, func(t *testing.T) {
			assert.Equal(t, c.expected, c.size.String())
		})
	}
}

func TestMinMaxSizeAlgebra(t *testing.T) {
	assert.Equal(t, FixedSize(32), FixedSize(8).Repeat(4))
	assert.Equal(t, FixedSize(2047), FixedSize(1000).Repeat(3))
	assert.False(t, FixedSize(1000).Repeat(3).FitsIntoCell())
	assert.Equal(t, 7, OneRef.Repeat(10).MinRefs())
	assert.Equal(t, SizeRange(1, 3), FixedSize(1).Join(FixedSize(3)))
	assert.Equal(t, MinMaxSize(0), FixedSize(5).Repeat(0))

	atLeast := FixedSize(3).RepeatAtLeast(2)
	assert.Equal(t, 6, atLeast.MinBits())
	assert.Equal(t, 2047, atLeast.MaxBits())

	assert.True(t, FixedSize(7).IsFixed())
	assert.Equal(t, 7, FixedSize(7).FixedBitSize())
	assert.Equal(t, -1, OneRef.FixedBitSize())
	assert.Equal(t, 0, SizeRange(4, 9).ClearMin().MinBits())
	assert.Equal(t, 0x100, FixedSize(1).MinSize())
}

func TestMinMaxSizePossible(t *testing.T) {
	assert.False(t, Impossible.IsPossible())
	assert.True(t, Any.IsPossible())
	assert.True(t, OneRef.IsPossible())
	assert.False(t, OneRef.Repeat(5).FitsIntoCell())
	assert.True(t, OneRef.Repeat(4).FitsIntoCell())
}

func TestBitPfxUnionMergesSiblings(t *testing.T) {
	zero, one := SinglePfx(pfx0), SinglePfx(pfx1)
	assert.Equal(t, "{0*}", zero.String())

	union := zero.Union(one)
	assert.True(t, union.IsAll())
	assert.Equal(t, "{*}", union.String())

	assert.True(t, FromPrefixes(pfx1, pfx0, pfx1).IsAll())
	assert.Equal(t, "{}", BitPfxCollection{}.String())
}

func TestBitPfxAddReportsChanges(t *testing.T) {
	p := SinglePfx(pfx0)
	assert.False(t, p.Add(SinglePfx(pfx0)))
	assert.True(t, p.Add(SinglePfx(pfx1)))
	assert.True(t, p.IsAll())
	assert.False(t, p.Add(SinglePfx(pfx0)), "a prefix covered by the collection is no change")
}

func TestBitPfxPrepend(t *testing.T) {
	all := SinglePfx(All)
	assert.Equal(t, []uint64{pfx0}, all.Prepend(pfx0).Pfx)
	assert.Equal(t, all, all.Prepend(All))
	assert.True(t, all.Prepend(0).Empty())

	// 1 followed by {0*} is 10*
	assert.Equal(t, "{10*}", SinglePfx(pfx0).Prepend(pfx1).String())
	assert.Equal(t, pfx0, SinglePfx(pfx0).Min())
}

func TestBinTrieDistinctPrefixes(t *testing.T) {
	var trie *BinTrie
	trie = InsertPath(trie, pfx0, 1)
	trie = InsertPath(trie, pfx1, 2)
	require.NotNil(t, trie)

	assert.Equal(t, 1, trie.ComputeUsefulDepth(0))
	assert.Zero(t, trie.FindConflictPath(0, ^uint64(0)))
	assert.True(t, trie.LookupNode(pfx0).IsUnique())
	assert.Equal(t, 1, trie.LookupNode(pfx1).UniqueValue())
	assert.Equal(t, uint64(3), trie.DownTag)

	var gr ConflictGraph
	trie.SetConflictGraph(&gr, 0)
	assert.False(t, gr.Conflicts(0, 1))
}

func TestBinTrieConflict(t *testing.T) {
	var trie *BinTrie
	trie = InsertPaths(trie, SinglePfx(pfx0), 1)
	trie = InsertPaths(trie, SinglePfx(All), 2)

	assert.Equal(t, 0, trie.ComputeUsefulDepth(0))
	assert.Equal(t, pfx0, trie.FindConflictPath(0, ^uint64(0)))

	var gr ConflictGraph
	trie.SetConflictGraph(&gr, 0)
	assert.True(t, gr.Conflicts(0, 1))
}

func TestBinTrieSubmap(t *testing.T) {
	var trie *BinTrie
	trie = InsertPath(trie, pfx0, 1)
	trie = InsertPath(trie, pfx1, 2)
	trie.ComputeUsefulDepth(0)

	a := make([]uint64, 2)
	runs := trie.BuildSubmap(1, a)
	assert.Equal(t, []uint64{1, 2}, a)
	assert.Equal(t, uint64(3), runs)
}

func TestAdmissibility(t *testing.T) {
	zero, nonZero := NewAdmissibilityInfo(), NewAdmissibilityInfo()
	zero.SetByPattern([]int{NatZero})
	nonZero.SetByPattern([]int{NatOne | NatEven | NatOdd})

	assert.Equal(t, "[1000]", zero.String())
	assert.False(t, zero.ConflictsWith(nonZero))

	var table [4]int
	assert.True(t, zero.Extract1(&table, 1, 0))
	assert.True(t, nonZero.Extract1(&table, 2, 0))
	assert.Equal(t, [4]int{1, 2, 2, 2}, table)

	anything := NewAdmissibilityInfo()
	anything.SetAll(true)
	assert.False(t, anything.Extract1(&table, 3, 0))
	assert.Equal(t, 0, anything.ConflictsAt(zero))

	zero.Or(nonZero)
	assert.True(t, zero.IsSetAll())
}

func TestAdmissibilityExtend(t *testing.T) {
	a := NewAdmissibilityInfo()
	a.SetByPattern([]int{NatOne, NatAnyBits})
	assert.Equal(t, 2, a.Dim)
	assert.True(t, a.Get(1))
	assert.True(t, a.Get(1+4*3))
	assert.False(t, a.Get(0))

	var table [4][4]int
	assert.True(t, a.Extract2(&table, 1, 0, 1))
	assert.Equal(t, 1, table[1][2])
	assert.Equal(t, 0, table[0][2])
}

func TestNatAbstractTables(t *testing.T) {
	assert.Equal(t, NatEven, NatAdd(NatConst(1), NatConst(1)))
	assert.Equal(t, NatZero, NatMul(NatAnyBits, NatConst(0)))
	assert.Equal(t, NatOdd, NatAdd(NatConst(2), NatConst(1)))
	assert.Equal(t, NatZero|NatOne, NatGetBit(NatConst(2), NatConst(1)))
	assert.Equal(t, 3, NatAbs(5))
	assert.Equal(t, 2, NatAbs(4))
	assert.Equal(t, 1, NatAbs(1))
}
