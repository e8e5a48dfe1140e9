// Package tlbrtsyms exports tlbrt to the yaegi interpreter, so that generated
// code can be interpreted without being compiled in. Only tests need it.
package tlbrtsyms

import (
	"reflect"

	"github.com/traefik/yaegi/interp"

	"github.com/cottand/tlbc/tlbrt"
)

// Symbols is the symbol table of tlbrt, for interp.Interpreter.Use
var Symbols = interp.Exports{}

func init() {
	Symbols["github.com/cottand/tlbc/tlbrt/tlbrt"] = map[string]reflect.Value{
		// functions and variables
		"AddR1":         reflect.ValueOf(tlbrt.AddR1),
		"Check":         reflect.ValueOf(tlbrt.Check),
		"Cond":          reflect.ValueOf(tlbrt.Cond),
		"CheckEmpty":    reflect.ValueOf(tlbrt.CheckEmpty),
		"ErrConstraint": reflect.ValueOf(&tlbrt.ErrConstraint).Elem(),
		"ErrRange":      reflect.ValueOf(&tlbrt.ErrRange).Elem(),
		"ErrTag":        reflect.ValueOf(&tlbrt.ErrTag).Elem(),
		"ErrTrailing":   reflect.ValueOf(&tlbrt.ErrTrailing).Elem(),
		"ErrUnderflow":  reflect.ValueOf(&tlbrt.ErrUnderflow).Elem(),
		"FetchRaw":      reflect.ValueOf(tlbrt.FetchRaw),
		"MulR1":         reflect.ValueOf(tlbrt.MulR1),
		"NatAbs":        reflect.ValueOf(tlbrt.NatAbs),
		"NewBits":       reflect.ValueOf(tlbrt.NewBits),
		"NewBuilder":    reflect.ValueOf(tlbrt.NewBuilder),
		"NewSlice":      reflect.ValueOf(tlbrt.NewSlice),
		"NoTag":         reflect.ValueOf(tlbrt.NoTag),
		"ValidateCell":  reflect.ValueOf(tlbrt.ValidateCell),
		"ValidateRef":   reflect.ValueOf(tlbrt.ValidateRef),

		// types
		"Any":      reflect.ValueOf((*tlbrt.Any)(nil)),
		"Bits":     reflect.ValueOf((*tlbrt.Bits)(nil)),
		"BitsT":    reflect.ValueOf((*tlbrt.BitsT)(nil)),
		"Builder":  reflect.ValueOf((*tlbrt.Builder)(nil)),
		"Cell":     reflect.ValueOf((*tlbrt.Cell)(nil)),
		"CellT":    reflect.ValueOf((*tlbrt.CellT)(nil)),
		"CondT":    reflect.ValueOf((*tlbrt.CondT)(nil)),
		"Int":      reflect.ValueOf((*tlbrt.Int)(nil)),
		"Nat":      reflect.ValueOf((*tlbrt.Nat)(nil)),
		"NatLeq":   reflect.ValueOf((*tlbrt.NatLeq)(nil)),
		"NatLess":  reflect.ValueOf((*tlbrt.NatLess)(nil)),
		"NatWidth": reflect.ValueOf((*tlbrt.NatWidth)(nil)),
		"Raw":      reflect.ValueOf((*tlbrt.Raw)(nil)),
		"RefT":     reflect.ValueOf((*tlbrt.RefT)(nil)),
		"Slice":    reflect.ValueOf((*tlbrt.Slice)(nil)),
		"TupleT":   reflect.ValueOf((*tlbrt.TupleT)(nil)),
		"Type":     reflect.ValueOf((*tlbrt.Type)(nil)),
		"Uint":     reflect.ValueOf((*tlbrt.Uint)(nil)),

		// interface wrappers
		"_Type": reflect.ValueOf((*_github_com_cottand_tlbc_tlbrt_Type)(nil)),
	}
}

// _github_com_cottand_tlbc_tlbrt_Type lets interpreted values implement Type
type _github_com_cottand_tlbc_tlbrt_Type struct {
	IValue        interface{}
	WSkip         func(cs *tlbrt.Slice) error
	WValidateSkip func(cs *tlbrt.Slice) error
}

func (W _github_com_cottand_tlbc_tlbrt_Type) Skip(cs *tlbrt.Slice) error {
	return W.WSkip(cs)
}

func (W _github_com_cottand_tlbc_tlbrt_Type) ValidateSkip(cs *tlbrt.Slice) error {
	return W.WValidateSkip(cs)
}
