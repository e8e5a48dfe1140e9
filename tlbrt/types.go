package tlbrt

import (
	"github.com/pkg/errors"
)

// Type is a TL-B type that can be skipped over in a Slice.
// Every generated type, as well as the builtins below, implements it.
type Type interface {
	// Skip consumes one value of the type without checking it
	Skip(cs *Slice) error
	// ValidateSkip consumes one value, checking tags and constraints on the way
	ValidateSkip(cs *Slice) error
}

// Nat is #, a 32-bit natural number
type Nat struct{}

func (Nat) Skip(cs *Slice) error         { return cs.Advance(32) }
func (Nat) ValidateSkip(cs *Slice) error { return cs.Advance(32) }

// NatWidth is (## N)
type NatWidth struct{ N uint32 }

func (t NatWidth) Skip(cs *Slice) error         { return cs.Advance(t.N) }
func (t NatWidth) ValidateSkip(cs *Slice) error { return cs.Advance(t.N) }

// NatLeq is (#<= N)
type NatLeq struct{ N uint32 }

func (t NatLeq) Skip(cs *Slice) error {
	_, err := cs.LoadUintLeq(t.N)
	return err
}

func (t NatLeq) ValidateSkip(cs *Slice) error { return t.Skip(cs) }

// NatLess is (#< N)
type NatLess struct{ N uint32 }

func (t NatLess) Skip(cs *Slice) error {
	_, err := cs.LoadUintLess(t.N)
	return err
}

func (t NatLess) ValidateSkip(cs *Slice) error { return t.Skip(cs) }

// Int is (int N)
type Int struct{ N uint32 }

func (t Int) Skip(cs *Slice) error         { return cs.Advance(t.N) }
func (t Int) ValidateSkip(cs *Slice) error { return cs.Advance(t.N) }

// Uint is (uint N)
type Uint struct{ N uint32 }

func (t Uint) Skip(cs *Slice) error         { return cs.Advance(t.N) }
func (t Uint) ValidateSkip(cs *Slice) error { return cs.Advance(t.N) }

// BitsT is (bits N)
type BitsT struct{ N uint32 }

func (t BitsT) Skip(cs *Slice) error         { return cs.Advance(t.N) }
func (t BitsT) ValidateSkip(cs *Slice) error { return cs.Advance(t.N) }

// Any matches whatever is left of a slice
type Any struct{}

func (Any) Skip(cs *Slice) error         { return cs.AdvanceAll() }
func (Any) ValidateSkip(cs *Slice) error { return cs.AdvanceAll() }

// CellT is Cell, the rest of a slice taken as a cell
type CellT struct{}

func (CellT) Skip(cs *Slice) error         { return cs.AdvanceAll() }
func (CellT) ValidateSkip(cs *Slice) error { return cs.AdvanceAll() }

// RefT is ^X
type RefT struct{ X Type }

func (t RefT) Skip(cs *Slice) error { return cs.AdvanceRefs(1) }

func (t RefT) ValidateSkip(cs *Slice) error {
	_, err := ValidateRef(cs, t.X)
	return err
}

// TupleT is N * X
type TupleT struct {
	N uint32
	X Type
}

func (t TupleT) Skip(cs *Slice) error {
	for i := uint32(0); i < t.N; i++ {
		if err := t.X.Skip(cs); err != nil {
			return err
		}
	}
	return nil
}

func (t TupleT) ValidateSkip(cs *Slice) error {
	for i := uint32(0); i < t.N; i++ {
		if err := t.X.ValidateSkip(cs); err != nil {
			return err
		}
	}
	return nil
}

// CondT is C?X, present only when C is not zero
type CondT struct {
	C uint32
	X Type
}

func (t CondT) Skip(cs *Slice) error {
	if t.C == 0 {
		return nil
	}
	return t.X.Skip(cs)
}

func (t CondT) ValidateSkip(cs *Slice) error {
	if t.C == 0 {
		return nil
	}
	return t.X.ValidateSkip(cs)
}

// FetchRaw consumes one value of t and returns it undecoded
func FetchRaw(cs *Slice, t Type, validate bool) (Raw, error) {
	before := cs.Copy()
	var err error
	if validate {
		err = t.ValidateSkip(cs)
	} else {
		err = t.Skip(cs)
	}
	if err != nil {
		return Raw{}, err
	}
	return cs.CutRaw(before)
}

// ValidateRef loads a reference and checks that it holds exactly one value of t
func ValidateRef(cs *Slice, t Type) (*Cell, error) {
	c, err := cs.LoadRef()
	if err != nil {
		return nil, err
	}
	if err := ValidateCell(c, t); err != nil {
		return nil, err
	}
	return c, nil
}

// ValidateCell checks that c holds exactly one value of t
func ValidateCell(c *Cell, t Type) error {
	cs := NewSlice(c)
	if err := t.ValidateSkip(cs); err != nil {
		return err
	}
	if !cs.Empty() {
		return errors.Wrapf(ErrTrailing, "%d bits and %d refs", cs.BitsLeft(), cs.RefsLeft())
	}
	return nil
}
