package lattice

import (
	"math/bits"
	"sort"
	"strings"

	xset "github.com/xtgo/set"
)

// All is the empty prefix, matching every bitstring
const All uint64 = 1 << 63

// LowerBit returns the lowest set bit of x
func LowerBit(x uint64) uint64 {
	return x & -x
}

// PrefixLen is the number of bits in a left-aligned prefix terminated by a marker bit
func PrefixLen(pfx uint64) int {
	return 63 - bits.TrailingZeros64(pfx)
}

// BitPfxCollection is a canonical sorted set of bit prefixes.
// Each prefix is left-aligned with a marker bit right after its last bit,
// so 1<<63 is the empty prefix and 0b01<<62 is the prefix "0".
// A collection never contains two prefixes one of which extends the other,
// and two sibling prefixes are always merged into their parent.
type BitPfxCollection struct {
	Pfx []uint64
}

// SinglePfx is the collection containing only pfx, or the empty collection when pfx is 0
func SinglePfx(pfx uint64) BitPfxCollection {
	if pfx == 0 {
		return BitPfxCollection{}
	}
	return BitPfxCollection{Pfx: []uint64{pfx}}
}

func (p BitPfxCollection) IsAll() bool {
	return len(p.Pfx) == 1 && p.Pfx[0] == All
}

func (p BitPfxCollection) Empty() bool {
	return len(p.Pfx) == 0
}

// Min returns the smallest prefix, or the largest uint64 for an empty collection
func (p BitPfxCollection) Min() uint64 {
	if len(p.Pfx) == 0 {
		return ^uint64(0)
	}
	return p.Pfx[0]
}

func (p BitPfxCollection) Equal(o BitPfxCollection) bool {
	if len(p.Pfx) != len(o.Pfx) {
		return false
	}
	for i := range p.Pfx {
		if p.Pfx[i] != o.Pfx[i] {
			return false
		}
	}
	return true
}

func (p *BitPfxCollection) Clear() {
	p.Pfx = nil
}

func (p *BitPfxCollection) mergeBack(z uint64) {
	if len(p.Pfx) == 0 {
		p.Pfx = append(p.Pfx, z)
		return
	}
	w := LowerBit(z)
	for len(p.Pfx) > 0 {
		t := z ^ p.Pfx[len(p.Pfx)-1]
		if t == 0 {
			return
		}
		if t != w<<1 {
			break
		}
		z -= w
		w <<= 1
		p.Pfx = p.Pfx[:len(p.Pfx)-1]
	}
	p.Pfx = append(p.Pfx, z)
}

// Prepend returns the collection of prepend followed by each prefix of p.
// Prefixes longer than 63 bits are truncated.
func (p BitPfxCollection) Prepend(prepend uint64) BitPfxCollection {
	if prepend == 0 {
		return BitPfxCollection{}
	}
	if prepend == All {
		return p
	}
	res := BitPfxCollection{Pfx: make([]uint64, 0, len(p.Pfx))}
	l := PrefixLen(prepend)
	prepend &= prepend - 1
	for _, z := range p.Pfx {
		zw := LowerBit(z)
		z >>= l
		z |= prepend
		if zw>>l == 0 {
			z |= 1
		}
		res.mergeBack(z)
	}
	return res
}

type interval struct {
	z, a, b uint64
}

func newInterval(z uint64) interval {
	return interval{z: z, a: z & (z - 1), b: z | (z - 1)}
}

// Union returns the canonical collection matching any string either side matches
func (p BitPfxCollection) Union(other BitPfxCollection) BitPfxCollection {
	if len(other.Pfx) == 0 {
		return p
	}
	if len(p.Pfx) == 0 {
		return other
	}
	res := BitPfxCollection{Pfx: make([]uint64, 0, len(p.Pfx)+len(other.Pfx))}
	i, j, m, n := 0, 0, len(p.Pfx), len(other.Pfx)
	u, v := newInterval(p.Pfx[0]), newInterval(other.Pfx[0])
	for i < m && j < n {
		if u.b < v.b || (u.b == v.b && u.a >= v.a) {
			if u.a < v.a {
				res.mergeBack(u.z)
			}
			if i++; i == m {
				break
			}
			u = newInterval(p.Pfx[i])
		} else {
			if v.a < u.a {
				res.mergeBack(v.z)
			}
			if j++; j == n {
				break
			}
			v = newInterval(other.Pfx[j])
		}
	}
	for ; i < m; i++ {
		res.mergeBack(p.Pfx[i])
	}
	for ; j < n; j++ {
		res.mergeBack(other.Pfx[j])
	}
	return res
}

// Add merges other into p, reporting whether p changed
func (p *BitPfxCollection) Add(other BitPfxCollection) bool {
	tmp := p.Union(other)
	if p.Equal(tmp) {
		return false
	}
	*p = tmp
	return true
}

// FromPrefixes builds a canonical collection out of arbitrary prefixes
func FromPrefixes(pfx ...uint64) BitPfxCollection {
	sorted := make(uint64s, 0, len(pfx))
	for _, z := range pfx {
		if z != 0 {
			sorted = append(sorted, z)
		}
	}
	sort.Sort(sorted)
	sorted = sorted[:xset.Uniq(sorted)]
	res := BitPfxCollection{}
	for _, z := range sorted {
		res = res.Union(SinglePfx(z))
	}
	return res
}

type uint64s []uint64

func (u uint64s) Len() int           { return len(u) }
func (u uint64s) Less(i, j int) bool { return u[i] < u[j] }
func (u uint64s) Swap(i, j int)      { u[i], u[j] = u[j], u[i] }

// String renders the collection as {0*,10*}
func (p BitPfxCollection) String() string {
	sb := strings.Builder{}
	first := byte('{')
	for _, val := range p.Pfx {
		sb.WriteByte(first)
		for val&(All-1) != 0 {
			sb.WriteByte('0' + byte(val>>63))
			val <<= 1
		}
		sb.WriteByte('*')
		first = ','
	}
	if first == '{' {
		sb.WriteByte('{')
	}
	sb.WriteByte('}')
	return sb.String()
}
