package backend

import (
	"math/bits"
	"slices"

	"github.com/cottand/tlbc/frontend/lattice"
)

func constTag(v int) *TagNode {
	return &TagNode{Kind: TagConst, Value: v}
}

// enumOf is the enum value of the single constructor in the bitmask tag, or -1
func enumOf(tp *TypePlan, tag uint64) int {
	if tag == 0 {
		return -1
	}
	if tag&(tag-1) != 0 {
		fatalf("constructors %#x of type `%s` cannot be told apart by their prefixes", tag, tp.TypeName)
	}
	return tp.Cons[bits.TrailingZeros64(tag)].Enum
}

// tagTree builds the decision tree of GetTag, marking the constructors whose
// tag it fully checks as TagExact
func (p *planner) tagTree(tp *TypePlan) *TagNode {
	t := tp.Type
	d := t.UsefulDepth
	if t.IsPfxDeterm {
		if len(tp.Cons) == 0 {
			return constTag(-1)
		}
		if d == 0 {
			tp.Cons[0].TagExact = tp.Cons[0].TagBits == 0
			return constTag(tp.Cons[0].Enum)
		}
		always := d <= tp.MinBits
		if d <= 6 && tp.SimpleTags {
			sm := tp.selectorMask()
			if always && sm+1 == 2<<((1<<d)-1) {
				values := make([]int, 1<<d)
				for i := range values {
					values[i] = i
				}
				for _, cp := range tp.Cons {
					cp.TagExact = cp.TagBits <= d
				}
				return &TagNode{Kind: TagPreload, Bits: d, Values: values}
			}
			for _, cp := range tp.Cons {
				l := cp.TagBits
				if l > d {
					continue
				}
				tag := cp.Cons.Tag
				a := int((tag & (tag - 1)) >> (64 - d))
				b := a + 1<<(d-l)
				cp.TagExact = (sm>>a)&1 != 0 && (b == 1<<d || (sm>>b)&1 != 0)
			}
			values := []int{-1}
			for i := 0; i < bits.OnesCount64(sm); i++ {
				values = append(values, i)
			}
			return &TagNode{Kind: TagBSelect, Bits: d, Mask: sm, Ext: !always, Values: values}
		}
		if d <= 6 {
			return p.pfxSelector(tp, t.CsTrie, d)
		}
	}
	if t.IsConstParamDeterm || t.IsConstParamPfxDeterm {
		pi := t.ConstParamIdx
		if pi < 0 {
			fatalf("type `%s` has no constant parameter to tell its constructors apart", tp.TypeName)
		}
		node := &TagNode{Kind: TagSwitchParam, Param: tp.Params[pi], Default: constTag(-1)}
		for _, pv := range p.env.AllParamValues(t, pi) {
			node.Cases = append(node.Cases, TagCase{
				Values: []int{pv},
				Node:   p.pfxDistinguisher(tp, p.env.ConsByParamValue(t, pi, pv)),
			})
		}
		return node
	}
	if d > 0 {
		return p.bitSwitch(tp, d)
	}
	return p.tagSubcase(tp, t.CsTrie, 0)
}

// selectorMask has bit v set when the tag map starts a new constructor at v
func (tp *TypePlan) selectorMask() uint64 {
	var z uint64
	c := 0
	for i, v := range tp.consTagMap {
		if v > c {
			c = v
			z |= 1 << i
		}
	}
	return z
}

// pfxSelector tells constructors apart by the first d bits, d being at most 6
func (p *planner) pfxSelector(tp *TypePlan, trie *lattice.BinTrie, d int) *TagNode {
	n := 1 << d
	a := make([]uint64, n)
	mask := trie.BuildSubmap(d, a)
	if bits.OnesCount64(mask) > n/2 {
		values := make([]int, n)
		for i := range values {
			values[i] = enumOf(tp, a[i])
		}
		return &TagNode{Kind: TagPreload, Bits: d, Values: values}
	}
	values := []int{-1}
	for i := 0; i < n; i++ {
		if (mask>>i)&1 != 0 {
			values = append(values, enumOf(tp, a[i]))
		}
	}
	return &TagNode{Kind: TagBSelect, Bits: d, Mask: mask, Ext: d > tp.MinBits, Values: values}
}

// pfxDistinguisher tells apart the constructors with indices in list by their prefixes alone
func (p *planner) pfxDistinguisher(tp *TypePlan, list []int) *TagNode {
	switch len(list) {
	case 0:
		return constTag(-1)
	case 1:
		return constTag(tp.Cons[list[0]].Enum)
	}
	var trie *lattice.BinTrie
	for _, i := range list {
		trie = lattice.InsertPaths(trie, tp.Cons[i].Cons.BeginsWith, 1<<i)
	}
	if trie == nil {
		return constTag(-1)
	}
	d := trie.ComputeUsefulDepth(0)
	if trie.FindConflictPath(0, ^uint64(0)) != 0 {
		fatalf("constructors of type `%s` with equal parameters share a prefix", tp.TypeName)
	}
	if d > 6 {
		fatalf("constructors of type `%s` with equal parameters differ too deep in their prefixes", tp.TypeName)
	}
	return p.pfxSelector(tp, trie, d)
}

// bitSwitch branches on up to six leading bits, going deeper where that is not enough
func (p *planner) bitSwitch(tp *TypePlan, d int) *TagNode {
	trie := tp.Type.CsTrie
	d1 := min(6, d)
	n := 1 << d1
	a := make([]uint64, n)
	mask := trie.BuildSubmap(d1, a)
	l := bits.OnesCount64(mask)
	simple := l > n/2 || n <= 8
	b := make([]uint64, n)
	if simple {
		for i := range b {
			b[i] = uint64(2*i+1) << (63 - d1)
		}
		l = n
	} else {
		j := 0
		for i := 0; i < n; i++ {
			if (mask>>i)&1 != 0 {
				b[j] = uint64(2*i+1) << (63 - d1)
				a[j] = a[i]
				j++
			}
		}
	}
	node := &TagNode{Kind: TagSwitchBits, Bits: d1, Default: constTag(-1), Ext: d1 > tp.MinBits}
	if !simple {
		node.Mask = mask
	}
	for i := 0; i < l; i++ {
		if a[i] == 0 {
			continue
		}
		if int64(a[i]) < 0 {
			node.Cases = append(node.Cases, TagCase{
				Values: []int{i},
				Node:   p.tagSubcase(tp, trie.LookupNode(b[i]), d1),
			})
			continue
		}
		if slices.Index(a[:i], a[i]) >= 0 {
			continue
		}
		tc := TagCase{Values: []int{i}, Node: p.tagParam(tp, a[i])}
		for j := i + 1; j < l; j++ {
			if a[j] == a[i] {
				tc.Values = append(tc.Values, j)
			}
		}
		node.Cases = append(node.Cases, tc)
	}
	return node
}

func (p *planner) tagSubcase(tp *TypePlan, trie *lattice.BinTrie, depth int) *TagNode {
	switch {
	case trie == nil || trie.DownTag == 0:
		return constTag(-1)
	case trie.IsUnique():
		return constTag(tp.Cons[trie.UniqueValue()].Enum)
	case trie.UsefulDepth == 0:
		return p.tagParam(tp, trie.DownTag)
	case trie.Right == nil:
		return p.tagSubcase(tp, trie.Left, depth+1)
	case trie.Left == nil:
		return p.tagSubcase(tp, trie.Right, depth+1)
	}
	return &TagNode{
		Kind: TagBit,
		Pos:  depth,
		Then: p.tagSubcase(tp, trie.Right, depth+1),
		Else: p.tagSubcase(tp, trie.Left, depth+1),
	}
}

var paramPatterns = []struct {
	mask    int
	pattern ParamPattern
}{
	{14, PatNonZero},
	{2, PatOne},
	{3, PatAtMostOne},
	{10, PatOdd},
	{4, PatEvenNonZero},
	{8, PatOddAboveOne},
}

// tagParam tells apart the constructors in the bitmask tag by the values of up to three parameters
func (p *planner) tagParam(tp *TypePlan, tag uint64) *TagNode {
	if tag == 0 {
		return constTag(-1)
	}
	if tag&(tag-1) == 0 {
		return constTag(tp.Cons[bits.TrailingZeros64(tag)].Enum)
	}
	var list []int
	mdim, mmdim := 0, 0
	for c := 0; c < 64; c++ {
		if (tag>>c)&1 == 0 {
			continue
		}
		list = append(list, c)
		dim := tp.Cons[c].Cons.AdmissibleParams.Dim
		if dim > mdim {
			mmdim, mdim = mdim, dim
		} else if dim > mmdim {
			mmdim = dim
		}
	}
	enum := func(v int) int {
		if v <= 0 {
			return -1
		}
		return tp.Cons[v-1].Enum
	}
	param := func(k int) *ParamPlan {
		pp := tp.NatParam(k)
		if pp == nil {
			fatalf("type `%s` has no natural parameter #%d", tp.TypeName, k)
		}
		return pp
	}
	for p1 := 0; p1 < mmdim; p1++ {
		var a [4]int
		if !allAdmit(list, func(c int) bool { return tp.Cons[c].Cons.AdmissibleParams.Extract1(&a, c+1, p1) }) {
			continue
		}
		for _, pat := range paramPatterns {
			if v, w, ok := matchParamPattern(a, pat.mask); ok {
				return &TagNode{Kind: TagParamPattern, Param: param(p1), Pattern: pat.pattern,
					Values: []int{enum(w), enum(v)}}
			}
		}
		node := &TagNode{Kind: TagParamTable, Params: []*ParamPlan{param(p1)}}
		for _, v := range a {
			node.Values = append(node.Values, enum(v))
		}
		return node
	}
	for p2 := 0; p2 < mmdim; p2++ {
		for p1 := 0; p1 < p2; p1++ {
			var a [4][4]int
			if !allAdmit(list, func(c int) bool { return tp.Cons[c].Cons.AdmissibleParams.Extract2(&a, c+1, p1, p2) }) {
				continue
			}
			node := &TagNode{Kind: TagParamTable, Params: []*ParamPlan{param(p1), param(p2)}}
			for i := 0; i < 16; i++ {
				node.Values = append(node.Values, enum(a[i>>2][i&3]))
			}
			return node
		}
	}
	for p3 := 0; p3 < mmdim; p3++ {
		for p2 := 0; p2 < p3; p2++ {
			for p1 := 0; p1 < p2; p1++ {
				var a [4][4][4]int
				if !allAdmit(list, func(c int) bool {
					return tp.Cons[c].Cons.AdmissibleParams.Extract3(&a, c+1, p1, p2, p3)
				}) {
					continue
				}
				node := &TagNode{Kind: TagParamTable, Params: []*ParamPlan{param(p1), param(p2), param(p3)}}
				for i := 0; i < 64; i++ {
					node.Values = append(node.Values, enum(a[i>>4][(i>>2)&3][i&3]))
				}
				return node
			}
		}
	}
	fatalf("cannot generate `%s::get_tag()` method for type `%s`", tp.Class, tp.TypeName)
	return nil
}

func allAdmit(list []int, extract func(c int) bool) bool {
	for _, c := range list {
		if !extract(c) {
			return false
		}
	}
	return true
}

// matchParamPattern finds v, the only tag where mask has a bit, and w, the only other tag
func matchParamPattern(a [4]int, mask int) (v, w int, ok bool) {
	for i, x := range a {
		if x == 0 {
			continue
		}
		if (mask>>i)&1 != 0 {
			if v != 0 && v != x {
				v = -1
			} else if v != -1 {
				v = x
			}
		} else {
			if w != 0 && w != x {
				w = -1
			} else if w != -1 {
				w = x
			}
		}
	}
	return v, w, v > 0 && w > 0
}
