package tlbrt

import (
	"github.com/pkg/errors"
)

var (
	// ErrConstraint is returned when a value breaks an equation or comparison of its constructor
	ErrConstraint = errors.New("constraint violated")
	// ErrTag is returned when no constructor matches the data
	ErrTag = errors.New("no matching constructor")
	// ErrTrailing is returned when a cell holds more than the value read from it
	ErrTrailing = errors.New("unexpected trailing data")
	// ErrUnderflow is returned when reading past the end of a cell
	ErrUnderflow = errors.New("cell underflow")
	// ErrRange is returned when a value does not fit the field it is stored into
	ErrRange = errors.New("value out of range")
)

// NatAbs classifies x as 0, 1, an even number above 1 (2) or an odd number above 1 (3)
func NatAbs(x uint32) int {
	r := int(x & 1)
	if x > 1 {
		r += 2
	}
	return r
}

// Check fails with ErrConstraint, mentioning what, unless ok holds
func Check(ok bool, what string) error {
	if ok {
		return nil
	}
	return errors.Wrap(ErrConstraint, what)
}

// AddR1 solves x + y = z for x
func AddR1(z, y uint32) (uint32, error) {
	if y > z {
		return 0, errors.Wrapf(ErrConstraint, "cannot subtract %d from %d", y, z)
	}
	return z - y, nil
}

// MulR1 solves k * x = z for x
func MulR1(z, k uint32) (uint32, error) {
	if k == 0 || z%k != 0 {
		return 0, errors.Wrapf(ErrConstraint, "%d is not a multiple of %d", z, k)
	}
	return z / k, nil
}

// CheckEmpty fails with ErrTrailing unless cs was read to the end
func CheckEmpty(cs *Slice) error {
	if cs.Empty() {
		return nil
	}
	return errors.Wrapf(ErrTrailing, "%d bits and %d refs", cs.BitsLeft(), cs.RefsLeft())
}

// NoTag is the error of a value whose constructor could not be told apart
func NoTag(typeName string) error {
	return errors.Wrapf(ErrTag, "in %s", typeName)
}

// Cond is n when c is not zero, the size of c?X when X has n bits
func Cond(c, n uint32) uint32 {
	if c != 0 {
		return n
	}
	return 0
}
