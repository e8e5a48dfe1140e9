package tlbrt

import (
	"encoding/hex"
	"fmt"

	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Bits is a bit string of Len bits, left-aligned in Data
type Bits struct {
	Data []byte
	Len  uint32
}

// NewBits keeps the first n bits of data
func NewBits(data []byte, n uint32) Bits {
	return Bits{Data: data, Len: n}
}

func (b Bits) String() string {
	return fmt.Sprintf("%d:%s", b.Len, hex.EncodeToString(b.Data))
}

// Raw is an opaque piece of a cell: some bits followed by some references
type Raw struct {
	Data []byte
	Len  uint32
	Refs []*Cell
}

func (r Raw) IsZero() bool {
	return r.Len == 0 && len(r.Refs) == 0
}

// Cell builds a cell holding exactly r
func (r Raw) Cell() (*Cell, error) {
	cb := NewBuilder()
	if err := cb.StoreRaw(r); err != nil {
		return nil, err
	}
	return cb.EndCell(), nil
}

// Parse returns a slice over the contents of r
func (r Raw) Parse() *Slice {
	c, err := r.Cell()
	if err != nil {
		return &Slice{s: cell.BeginCell().EndCell().BeginParse()}
	}
	return NewSlice(c)
}

func (r Raw) Store(cb *Builder) error {
	return cb.StoreRaw(r)
}

func (r Raw) String() string {
	return fmt.Sprintf("%d:%s+%dref", r.Len, hex.EncodeToString(r.Data), len(r.Refs))
}
