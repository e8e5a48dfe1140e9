package lattice

import (
	"fmt"
	"math/bits"
	"strings"
)

// BinTrie is a binary trie over constructor prefixes.
// Tag is the set of constructors (as a bitmask) whose prefix ends at or
// above this node, DownTag additionally includes the constructors below.
type BinTrie struct {
	Left, Right *BinTrie
	Tag         uint64
	DownTag     uint64
	UsefulDepth int
}

const lowMask uint64 = All - 1

func (t *BinTrie) insPath(path, newTag uint64) {
	if path == 0 || newTag == 0 {
		return
	}
	if path&lowMask == 0 {
		t.Tag |= newTag
		return
	} else if int64(path) >= 0 {
		t.Left = InsertPath(t.Left, path<<1, newTag)
	} else {
		t.Right = InsertPath(t.Right, path<<1, newTag)
	}
	if t.Left != nil && t.Right != nil {
		t.Tag |= t.Left.Tag & t.Right.Tag
	}
}

// InsertPath adds tag at the node for path, creating nodes as needed, and returns the new root
func InsertPath(root *BinTrie, path, tag uint64) *BinTrie {
	if path == 0 || tag == 0 {
		return root
	}
	if root != nil {
		root.insPath(path, tag)
		return root
	}
	if path&lowMask == 0 {
		return &BinTrie{Tag: tag}
	}
	if int64(path) >= 0 {
		return &BinTrie{Left: InsertPath(nil, path<<1, tag)}
	}
	return &BinTrie{Right: InsertPath(nil, path<<1, tag)}
}

// InsertPaths adds tag at every prefix of paths
func InsertPaths(root *BinTrie, paths BitPfxCollection, tag uint64) *BinTrie {
	if tag != 0 {
		for _, x := range paths.Pfx {
			root = InsertPath(root, x, tag)
		}
	}
	return root
}

// LookupNode returns the node at path, or nil
func (t *BinTrie) LookupNode(path uint64) *BinTrie {
	node := t
	for node != nil {
		if path == 0 {
			return nil
		}
		if path&lowMask == 0 {
			return node
		}
		if int64(path) >= 0 {
			node = node.Left
		} else {
			node = node.Right
		}
		path <<= 1
	}
	return nil
}

func (t *BinTrie) LookupTag(path uint64) uint64 {
	if node := t.LookupNode(path); node != nil {
		return node.Tag
	}
	return 0
}

// IsUnique reports whether exactly one constructor can be found at or below this node
func (t *BinTrie) IsUnique() bool {
	return t.DownTag != 0 && t.DownTag&(t.DownTag-1) == 0
}

// UniqueValue is the index of the lowest constructor at or below this node, or -1
func (t *BinTrie) UniqueValue() int {
	if t.DownTag == 0 {
		return -1
	}
	return bits.TrailingZeros64(t.DownTag)
}

// SetConflictGraph marks every set of constructors sharing a leaf as pairwise conflicting
func (t *BinTrie) SetConflictGraph(gr *ConflictGraph, colors uint64) {
	colors |= t.Tag
	if t.Left == nil || t.Right == nil {
		gr.SetClique(ConflictSet(colors))
	}
	if t.Left != nil {
		t.Left.SetConflictGraph(gr, colors)
	}
	if t.Right != nil {
		t.Right.SetConflictGraph(gr, colors)
	}
}

// ComputeUsefulDepth fills DownTag and UsefulDepth, returning the depth of
// bits that still help telling constructors apart
func (t *BinTrie) ComputeUsefulDepth(colors uint64) int {
	res := 0
	colors |= t.Tag
	t.Tag = colors
	t.DownTag = colors
	if t.Left != nil {
		res = t.Left.ComputeUsefulDepth(colors)
		t.DownTag |= t.Left.DownTag
	}
	if t.Right != nil {
		res = max(res, t.Right.ComputeUsefulDepth(colors))
		t.DownTag |= t.Right.DownTag
	}
	if res > 0 {
		t.UsefulDepth = res + 1
		return t.UsefulDepth
	}
	if t.Left != nil && t.Right != nil && t.Left.DownTag&^t.Right.DownTag != 0 && t.Right.DownTag&^t.Left.DownTag != 0 {
		t.UsefulDepth = 1
		return 1
	}
	t.UsefulDepth = 0
	return 0
}

// BuildSubmap fills a[0:1<<depth] with the DownTag of every node depth levels
// below, the top bit of an entry being set when the node is still ambiguous.
// The result has bit i set when a[i] starts a new run of entries.
func (t *BinTrie) BuildSubmap(depth int, a []uint64) uint64 {
	if depth == 0 {
		a[0] = t.DownTag
		if t.UsefulDepth != 0 {
			a[0] |= All
		}
		if t.DownTag != 0 {
			return 1
		}
		return 0
	}
	n := 1 << (depth - 1)
	var r1, r2 uint64
	if t.Left != nil {
		r1 = t.Left.BuildSubmap(depth-1, a[:n])
	} else {
		clear(a[:n])
	}
	if t.Right != nil {
		r2 = t.Right.BuildSubmap(depth-1, a[n:2*n])
	} else {
		clear(a[n : 2*n])
	}
	if a[n] != a[n-1] || int64(a[n]) < 0 {
		r2 |= 1
	} else {
		r2 &^= 1
	}
	return r1 | r2<<n
}

// BuildSubmapAt is BuildSubmap for the node at pfx
func (t *BinTrie) BuildSubmapAt(depth int, a []uint64, pfx uint64) uint64 {
	node := t.LookupNode(pfx)
	if node == nil {
		clear(a[:1<<depth])
		return 0
	}
	return node.BuildSubmap(depth, a)
}

// FindConflictPath returns a prefix at which two or more constructors of mask
// are both possible, or 0 when there is none
func (t *BinTrie) FindConflictPath(colors, mask uint64) uint64 {
	colors |= t.Tag & mask
	if t.Left == nil && t.Right == nil {
		if colors&(colors-1) != 0 {
			return All
		}
		return 0
	}
	if t.Left == nil {
		if colors&(colors-1) != 0 {
			return 1 << 62
		}
		x := t.Right.FindConflictPath(colors, mask)
		if x != 0 {
			return x>>1 | All
		}
		return 0
	} else if t.Right == nil {
		if colors&(colors-1) != 0 {
			return 3 << 62
		}
		return t.Left.FindConflictPath(colors, mask) >> 1
	}
	x := t.Left.FindConflictPath(colors, mask)
	y := t.Right.FindConflictPath(colors, mask)
	if LowerBit(y) > LowerBit(x) {
		return y>>1 | All
	}
	return x >> 1
}

// String dumps the trie one node per line
func (t *BinTrie) String() string {
	sb := &strings.Builder{}
	t.show(sb, All)
	return sb.String()
}

func (t *BinTrie) show(sb *strings.Builder, pfx uint64) {
	x, u := pfx, LowerBit(pfx)>>1
	for x&lowMask != 0 {
		sb.WriteByte('0' + byte(x>>63))
		x <<= 1
	}
	_, _ = fmt.Fprintf(sb, " t=%d; dt=%d; ud=%d\n", t.Tag, t.DownTag, t.UsefulDepth)
	if t.Left != nil {
		t.Left.show(sb, pfx-u)
	}
	if t.Right != nil {
		t.Right.show(sb, pfx+u)
	}
}

// ConflictSet is a set of up to 64 constructor indices
type ConflictSet uint64

func (s ConflictSet) Has(i int) bool { return s>>i&1 != 0 }
func (s ConflictSet) Size() int      { return bits.OnesCount64(uint64(s)) }
func (s *ConflictSet) Remove(i int)  { *s &^= 1 << i }

// ConflictGraph is an adjacency matrix over up to 64 constructors
type ConflictGraph [64]ConflictSet

// SetClique marks every pair in set as conflicting
func (g *ConflictGraph) SetClique(set ConflictSet) {
	if set == 0 {
		return
	}
	for i := 0; i < 64; i++ {
		if set.Has(i) {
			g[i] |= set
		}
	}
}

// Conflicts reports whether constructors i and j share a prefix
func (g *ConflictGraph) Conflicts(i, j int) bool {
	return g[i].Has(j)
}
