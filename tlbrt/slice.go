// Package tlbrt is the runtime support of Go code generated by tlbc.
//
// Generated types read from a Slice and write to a Builder, both thin wrappers
// around the cells of github.com/xssnick/tonutils-go. Bit counts are uint32,
// the type natural numbers have in generated code.
package tlbrt

import (
	"math"
	"math/big"
	"math/bits"

	"github.com/pkg/errors"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Cell is a TON cell
type Cell = cell.Cell

// Slice is a read cursor over the bits and references of a cell
type Slice struct {
	s *cell.Slice
}

// NewSlice starts reading c from its first bit
func NewSlice(c *Cell) *Slice {
	if c == nil {
		return &Slice{s: cell.BeginCell().EndCell().BeginParse()}
	}
	return &Slice{s: c.BeginParse()}
}

func (cs *Slice) BitsLeft() uint32 { return uint32(cs.s.BitsLeft()) }
func (cs *Slice) RefsLeft() int    { return cs.s.RefsNum() }

// Empty reports whether neither bits nor references are left
func (cs *Slice) Empty() bool {
	return cs.s.BitsLeft() == 0 && cs.s.RefsNum() == 0
}

// Copy returns an independent cursor at the same position
func (cs *Slice) Copy() *Slice {
	return &Slice{s: cs.s.Copy()}
}

func (cs *Slice) need(n uint32) error {
	if cs.BitsLeft() < n {
		return errors.Wrapf(ErrUnderflow, "need %d bits, %d left", n, cs.BitsLeft())
	}
	return nil
}

func (cs *Slice) LoadUint(n uint32) (uint64, error) {
	if n > 64 {
		return 0, errors.Errorf("cannot load %d bits into uint64", n)
	}
	if n == 0 {
		return 0, nil
	}
	if err := cs.need(n); err != nil {
		return 0, err
	}
	return cs.s.LoadUInt(uint(n))
}

func (cs *Slice) LoadInt(n uint32) (int64, error) {
	if n > 64 {
		return 0, errors.Errorf("cannot load %d bits into int64", n)
	}
	if n == 0 {
		return 0, nil
	}
	if err := cs.need(n); err != nil {
		return 0, err
	}
	return cs.s.LoadInt(uint(n))
}

// LoadNat loads an n-bit natural number. Fields wider than 32 bits are accepted
// as long as the value itself fits into uint32.
func (cs *Slice) LoadNat(n uint32) (uint32, error) {
	if n <= 64 {
		v, err := cs.LoadUint(n)
		if err != nil {
			return 0, err
		}
		if v > math.MaxUint32 {
			return 0, errors.Wrapf(ErrRange, "natural number %d of %d bits does not fit into 32 bits", v, n)
		}
		return uint32(v), nil
	}
	v, err := cs.LoadBigUint(n)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() || v.Uint64() > math.MaxUint32 {
		return 0, errors.Wrapf(ErrRange, "natural number %s of %d bits does not fit into 32 bits", v, n)
	}
	return uint32(v.Uint64()), nil
}

func (cs *Slice) LoadInt32(n uint32) (int32, error) {
	if n > 32 {
		return 0, errors.Errorf("cannot load %d bits into int32", n)
	}
	v, err := cs.LoadInt(n)
	return int32(v), err
}

func (cs *Slice) LoadBool() (bool, error) {
	if err := cs.need(1); err != nil {
		return false, err
	}
	return cs.s.LoadBoolBit()
}

func (cs *Slice) LoadBigUint(n uint32) (*big.Int, error) {
	if n == 0 {
		return new(big.Int), nil
	}
	if err := cs.need(n); err != nil {
		return nil, err
	}
	return cs.s.LoadBigUInt(uint(n))
}

func (cs *Slice) LoadBigInt(n uint32) (*big.Int, error) {
	if n == 0 {
		return new(big.Int), nil
	}
	if err := cs.need(n); err != nil {
		return nil, err
	}
	return cs.s.LoadBigInt(uint(n))
}

func (cs *Slice) LoadBits(n uint32) (Bits, error) {
	if n == 0 {
		return Bits{}, nil
	}
	if err := cs.need(n); err != nil {
		return Bits{}, err
	}
	data, err := cs.s.LoadSlice(uint(n))
	if err != nil {
		return Bits{}, err
	}
	return Bits{Data: data, Len: n}, nil
}

// LoadUintLeq loads a number in 0..max, stored in as few bits as max needs
func (cs *Slice) LoadUintLeq(max uint32) (uint32, error) {
	v, err := cs.LoadNat(uint32(bits.Len32(max)))
	if err != nil {
		return 0, err
	}
	if v > max {
		return 0, errors.Wrapf(ErrConstraint, "%d exceeds %d", v, max)
	}
	return v, nil
}

// LoadUintLess loads a number in 0..bound-1, stored in as few bits as bound-1 needs
func (cs *Slice) LoadUintLess(bound uint32) (uint32, error) {
	if bound == 0 {
		return 0, errors.Wrap(ErrConstraint, "no natural number is less than 0")
	}
	return cs.LoadUintLeq(bound - 1)
}

func (cs *Slice) LoadRef() (*Cell, error) {
	if cs.RefsLeft() == 0 {
		return nil, errors.Wrap(ErrUnderflow, "no references left")
	}
	return cs.s.LoadRefCell()
}

// LoadRaw cuts the next n bits and refs references out of the slice
func (cs *Slice) LoadRaw(n uint32, refs int) (Raw, error) {
	b, err := cs.LoadBits(n)
	if err != nil {
		return Raw{}, err
	}
	r := Raw{Data: b.Data, Len: n}
	for i := 0; i < refs; i++ {
		c, err := cs.LoadRef()
		if err != nil {
			return Raw{}, err
		}
		r.Refs = append(r.Refs, c)
	}
	return r, nil
}

// PrefetchUint reads n bits without consuming them
func (cs *Slice) PrefetchUint(n uint32) (uint64, error) {
	return cs.Copy().LoadUint(n)
}

// PrefetchIndex is the value of the next n bits, or -1 when fewer are left
func (cs *Slice) PrefetchIndex(n uint32) int {
	v, err := cs.PrefetchUint(n)
	if err != nil {
		return -1
	}
	return int(v)
}

// prefetchExt reads up to n bits without consuming them, padding with zeroes past the end
func (cs *Slice) prefetchExt(n uint32) uint64 {
	have := min(n, cs.BitsLeft())
	v, err := cs.PrefetchUint(have)
	if err != nil {
		return 0
	}
	return v << (n - have)
}

// BitAt reports whether the bit pos positions ahead is set. Missing bits read as zero.
func (cs *Slice) BitAt(pos uint32) bool {
	if pos >= cs.BitsLeft() {
		return false
	}
	return cs.prefetchExt(pos+1)&1 != 0
}

// BSelect looks at the next n bits as a number v and returns how many bits of
// mask are set at positions up to v, minus one. It is -1 when fewer than n bits are left.
func (cs *Slice) BSelect(n uint32, mask uint64) int {
	v, err := cs.PrefetchUint(n)
	if err != nil {
		return -1
	}
	return bits.OnesCount64(mask&((2<<v)-1)) - 1
}

// BSelectExt is BSelect reading missing bits as zeroes
func (cs *Slice) BSelectExt(n uint32, mask uint64) int {
	v := cs.prefetchExt(n)
	return bits.OnesCount64(mask&((2<<v)-1)) - 1
}

func (cs *Slice) Advance(n uint32) error {
	if n == 0 {
		return nil
	}
	if err := cs.need(n); err != nil {
		return err
	}
	_, err := cs.s.LoadSlice(uint(n))
	return err
}

func (cs *Slice) AdvanceRefs(n int) error {
	for i := 0; i < n; i++ {
		if _, err := cs.LoadRef(); err != nil {
			return err
		}
	}
	return nil
}

// AdvanceAll consumes every remaining bit and reference
func (cs *Slice) AdvanceAll() error {
	if err := cs.Advance(cs.BitsLeft()); err != nil {
		return err
	}
	return cs.AdvanceRefs(cs.RefsLeft())
}

// ExpectTag consumes n bits and fails with ErrTag unless they equal tag
func (cs *Slice) ExpectTag(n uint32, tag uint64) error {
	v, err := cs.LoadUint(n)
	if err != nil {
		return err
	}
	if v != tag {
		return errors.Wrapf(ErrTag, "expected tag %#x, got %#x", tag, v)
	}
	return nil
}

// CutRaw returns what was consumed between before, an earlier copy of cs, and cs
func (cs *Slice) CutRaw(before *Slice) (Raw, error) {
	n := before.BitsLeft() - cs.BitsLeft()
	refs := before.RefsLeft() - cs.RefsLeft()
	return before.Copy().LoadRaw(n, refs)
}
