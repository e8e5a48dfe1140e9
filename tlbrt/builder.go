package tlbrt

import (
	"math/big"
	"math/bits"

	"github.com/pkg/errors"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Builder accumulates bits and references of a new cell
type Builder struct {
	b *cell.Builder
}

func NewBuilder() *Builder {
	return &Builder{b: cell.BeginCell()}
}

func (cb *Builder) EndCell() *Cell {
	return cb.b.EndCell()
}

func (cb *Builder) BitsUsed() uint32 { return uint32(cb.b.BitsUsed()) }
func (cb *Builder) RefsUsed() int    { return cb.b.RefsUsed() }

func (cb *Builder) StoreUint(v uint64, n uint32) error {
	if n < 64 && v>>n != 0 {
		return errors.Wrapf(ErrRange, "%d does not fit into %d bits", v, n)
	}
	if n == 0 {
		return nil
	}
	if n > 64 {
		return cb.StoreBigUint(new(big.Int).SetUint64(v), n)
	}
	return cb.b.StoreUInt(v, uint(n))
}

func (cb *Builder) StoreInt(v int64, n uint32) error {
	if n == 0 {
		if v != 0 {
			return errors.Wrapf(ErrRange, "%d does not fit into 0 bits", v)
		}
		return nil
	}
	if n < 64 && (v >= 1<<(n-1) || v < -(1<<(n-1))) {
		return errors.Wrapf(ErrRange, "%d does not fit into %d signed bits", v, n)
	}
	if n > 64 {
		return cb.StoreBigInt(big.NewInt(v), n)
	}
	return cb.b.StoreInt(v, uint(n))
}

func (cb *Builder) StoreNat(v uint32, n uint32) error {
	return cb.StoreUint(uint64(v), n)
}

func (cb *Builder) StoreInt32(v int32, n uint32) error {
	return cb.StoreInt(int64(v), n)
}

func (cb *Builder) StoreBool(v bool) error {
	return cb.b.StoreBoolBit(v)
}

func (cb *Builder) StoreBigUint(v *big.Int, n uint32) error {
	if v == nil || v.Sign() < 0 || v.BitLen() > int(n) {
		return errors.Wrapf(ErrRange, "%v does not fit into %d bits", v, n)
	}
	if n == 0 {
		return nil
	}
	return cb.b.StoreBigUInt(v, uint(n))
}

func (cb *Builder) StoreBigInt(v *big.Int, n uint32) error {
	if v == nil {
		return errors.Wrap(ErrRange, "nil integer")
	}
	if n == 0 {
		if v.Sign() != 0 {
			return errors.Wrapf(ErrRange, "%v does not fit into 0 bits", v)
		}
		return nil
	}
	return cb.b.StoreBigInt(v, uint(n))
}

// StoreUintLeq stores v in 0..max in as few bits as max needs
func (cb *Builder) StoreUintLeq(max, v uint32) error {
	if v > max {
		return errors.Wrapf(ErrConstraint, "%d exceeds %d", v, max)
	}
	return cb.StoreNat(v, uint32(bits.Len32(max)))
}

// StoreUintLess stores v in 0..bound-1 in as few bits as bound-1 needs
func (cb *Builder) StoreUintLess(bound, v uint32) error {
	if v >= bound {
		return errors.Wrapf(ErrConstraint, "%d is not less than %d", v, bound)
	}
	return cb.StoreUintLeq(bound-1, v)
}

// StoreBits stores exactly n bits of b
func (cb *Builder) StoreBits(b Bits, n uint32) error {
	if b.Len != n {
		return errors.Wrapf(ErrRange, "expected %d bits, got %d", n, b.Len)
	}
	if n == 0 {
		return nil
	}
	return cb.b.StoreSlice(b.Data, uint(n))
}

func (cb *Builder) StoreRef(c *Cell) error {
	if c == nil {
		return errors.Wrap(ErrRange, "nil cell reference")
	}
	return cb.b.StoreRef(c)
}

func (cb *Builder) StoreRaw(r Raw) error {
	if r.Len > 0 {
		if err := cb.b.StoreSlice(r.Data, uint(r.Len)); err != nil {
			return err
		}
	}
	for _, c := range r.Refs {
		if err := cb.StoreRef(c); err != nil {
			return err
		}
	}
	return nil
}

// StoreRawSized stores r after checking it holds n bits and refs references
func (cb *Builder) StoreRawSized(r Raw, n uint32, refs int) error {
	if r.Len != n || len(r.Refs) != refs {
		return errors.Wrapf(ErrRange, "expected %d bits and %d refs, got %d bits and %d refs", n, refs, r.Len, len(r.Refs))
	}
	return cb.StoreRaw(r)
}
