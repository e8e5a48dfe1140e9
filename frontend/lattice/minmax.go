// Package lattice holds the value domains the type checker computes over:
// bit/ref size ranges, bit prefix collections, constructor tries,
// parameter admissibility and abstract natural numbers.
package lattice

import (
	"fmt"
	"strings"
)

// MinMaxSize packs a [min, max] range of (bits, refs) sizes into 64 bits.
// The low word holds the maximum and the high word the minimum, each as
// bits*0x100 + refs, with 11 bits for bits and 3 bits for refs.
// Values past the limits saturate at 2047 bits and 7 refs.
type MinMaxSize uint64

const (
	// Any is the size of a value that may take anything from 0 to infinity
	Any MinMaxSize = 0x7ff07
	// OneRef is the size of a single reference
	OneRef MinMaxSize = 0x100000001
	// Impossible is the size of a type that has no values
	Impossible MinMaxSize = 0x7ff07 << 32

	maxBits = 0x7ff
	maxRefs = 7
)

// FixedSize is the size of exactly bits bits and no refs
func FixedSize(bits int) MinMaxSize {
	return MinMaxSize(uint64(bits) * 0x10000000100)
}

// SizeRange is the size of min to max bits and no refs
func SizeRange(minBits, maxBits int) MinMaxSize {
	return MinMaxSize(uint64(minBits)<<40 + uint64(maxBits)<<8)
}

func (m *MinMaxSize) nrm(a, b uint64) {
	if uint64(*m)&a != 0 {
		*m = MinMaxSize((uint64(*m) | a | b) - a)
	}
}

// Normalize saturates overflown counters
func (m MinMaxSize) Normalize() MinMaxSize {
	if uint64(m)&(0xfff800f8*0x100000001) != 0 {
		m.nrm(0xf8, 0x7)
		m.nrm(0xfff80000, 0x7ff00)
		m.nrm(0xf8<<32, 7<<32)
		m.nrm(0xfff80000<<32, 0x7ff00<<32)
	}
	return m
}

type unpacked struct {
	minBits, minRefs, maxBits, maxRefs int
}

func (m MinMaxSize) unpack() unpacked {
	v := uint64(m.Normalize())
	return unpacked{
		maxRefs: int(v & 0xff),
		maxBits: int((v >> 8) & maxBits),
		minRefs: int((v >> 32) & 0xff),
		minBits: int((v >> 40) & maxBits),
	}
}

func (z unpacked) pack() MinMaxSize {
	t := uint64(z.minBits*0x100+z.minRefs) << 32
	t += uint64(z.maxBits*0x100 + z.maxRefs)
	return MinMaxSize(t)
}

func (m MinMaxSize) MinBits() int { return m.unpack().minBits }
func (m MinMaxSize) MinRefs() int { return m.unpack().minRefs }
func (m MinMaxSize) MaxBits() int { return m.unpack().maxBits }
func (m MinMaxSize) MaxRefs() int { return m.unpack().maxRefs }

// MinSize is the packed lower bound, bits*0x100 + refs
func (m MinMaxSize) MinSize() int { return int(uint64(m) >> 32) }

// MaxSize is the packed upper bound, bits*0x100 + refs
func (m MinMaxSize) MaxSize() int { return int(uint64(m) & 0xffffffff) }

// Add is the size of a value followed by another
func (m MinMaxSize) Add(y MinMaxSize) MinMaxSize {
	return MinMaxSize(uint64(m) + uint64(y)).Normalize()
}

// Join is the smallest range containing both m and y
func (m MinMaxSize) Join(y MinMaxSize) MinMaxSize {
	z, w := m.unpack(), y.unpack()
	z.minRefs = min(z.minRefs, w.minRefs)
	z.minBits = min(z.minBits, w.minBits)
	z.maxRefs = max(z.maxRefs, w.maxRefs)
	z.maxBits = max(z.maxBits, w.maxBits)
	return z.pack()
}

// ClearMin sets the lower bound to zero
func (m MinMaxSize) ClearMin() MinMaxSize {
	return m & 0xffffffff
}

// Repeat is the size of count consecutive values
func (m MinMaxSize) Repeat(count int) MinMaxSize {
	if count <= 0 {
		return 0
	}
	if count == 1 {
		return m
	}
	z := m.unpack()
	count = min(count, 1024)
	z.maxRefs = min(z.maxRefs*count, maxRefs)
	z.maxBits = min(z.maxBits*count, maxBits)
	z.minRefs = min(z.minRefs*count, maxRefs)
	z.minBits = min(z.minBits*count, maxBits)
	return z.pack()
}

// RepeatAtLeast is the size of count or more consecutive values
func (m MinMaxSize) RepeatAtLeast(count int) MinMaxSize {
	count = min(max(count, 0), 1024)
	z := m.unpack()
	if z.maxRefs != 0 {
		z.maxRefs = maxRefs
	}
	if z.maxBits != 0 {
		z.maxBits = maxBits
	}
	z.minRefs = min(z.minRefs*count, maxRefs)
	z.minBits = min(z.minBits*count, maxBits)
	return z.pack()
}

func (m MinMaxSize) IsFixed() bool {
	return uint64(m)>>32 == uint64(m)&0xffffffff
}

func (m MinMaxSize) IsPossible() bool {
	z := m.unpack()
	return z.minBits <= z.maxBits && z.minRefs <= z.maxRefs
}

// FitsIntoCell reports whether the smallest value fits into a single cell
func (m MinMaxSize) FitsIntoCell() bool {
	z := m.unpack()
	return z.minBits <= 1023 && z.minRefs <= 4
}

// FixedBitSize returns the number of bits of a fixed size without refs, or -1
func (m MinMaxSize) FixedBitSize() int {
	if !m.IsFixed() || m.MaxRefs() != 0 {
		return -1
	}
	return m.MaxBits()
}

// String renders the size like =32, 0..1023+4R or infty
func (m MinMaxSize) String() string {
	z := m.unpack()
	sb := strings.Builder{}
	fixed := z.minBits == z.maxBits && z.minRefs == z.maxRefs
	if fixed {
		sb.WriteByte('=')
	}
	writeBound(&sb, z.minBits, z.minRefs)
	if !fixed {
		sb.WriteString("..")
		writeBound(&sb, z.maxBits, z.maxRefs)
	}
	return sb.String()
}

func writeBound(sb *strings.Builder, bits, refs int) {
	if bits >= 1024 && refs >= 7 {
		sb.WriteString("infty")
		return
	}
	_, _ = fmt.Fprintf(sb, "%d", bits)
	if refs != 0 {
		_, _ = fmt.Fprintf(sb, "+%dR", refs)
	}
}
