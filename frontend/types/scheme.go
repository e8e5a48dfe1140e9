package types

import (
	"fmt"

	"github.com/cottand/tlbc/frontend/ast"
	"github.com/cottand/tlbc/frontend/lattice"
	"github.com/cottand/tlbc/frontend/lexer"
	"github.com/cottand/tlbc/frontend/tlberr"
)

// CheckScheme computes the derived properties of every user type and verifies
// that every type is instantiable, fits into a cell, and has constructors which
// can be told apart when deserializing.
// It returns a tlberr.TlbError for types referred to but never defined,
// and a *tlberr.Fatal when the scheme as a whole is invalid.
func (e *Env) CheckScheme() error {
	if err := e.checkUndefinedTypes(); err != nil {
		return err
	}
	e.computeAdmissibleParams()
	e.computeBeginsWith()
	e.computeMinMaxSizes()
	e.computeAnyBits()
	e.detectBasicTypes()
	if details := e.sizeErrors(); len(details) > 0 {
		return &tlberr.Fatal{
			Msg:     "invalid scheme: some constructors or types cannot be instantiated or do not fit into cells",
			Details: details,
		}
	}
	details, err := e.checkConflicts()
	if err != nil {
		return err
	}
	if len(details) > 0 {
		return &tlberr.Fatal{
			Msg:     "invalid scheme: have conflicts between constructors of some types",
			Details: details,
		}
	}
	return nil
}

func (e *Env) checkUndefinedTypes() tlberr.TlbError {
	for _, t := range e.UserTypes() {
		if len(t.Constructors) > 0 || t.IsFinal {
			continue
		}
		var where ast.Range
		if def := e.Syms.LookupDef(t.Name, lexer.LookupGlobal); def != nil {
			where = ast.Range{PosStart: def.Where, PosEnd: def.Where}
		}
		return tlberr.New(tlberr.NewImplicitType{Positioner: where, TypeName: e.TypeName(t), NoConstructors: true})
	}
	return nil
}

func (e *Env) consAdmissibleParams(cs *ast.Constructor) bool {
	var abs []int
	for i, param := range cs.Params {
		if cs.ParamNegated[i] || !e.Info(param).IsNat {
			continue
		}
		v := e.AbstractInterpretNat(param)
		abs = append(abs, v)
		if v == 0 {
			cs.AdmissibleParams.ClearAll()
			return false
		}
		if len(abs) == 4 {
			break
		}
	}
	for len(abs) > 0 && abs[len(abs)-1] == lattice.NatAnyBits {
		abs = abs[:len(abs)-1]
	}
	if len(abs) == 0 {
		cs.AdmissibleParams.SetAll(true)
		return true
	}
	cs.AdmissibleParams.SetByPattern(abs)
	return true
}

func (e *Env) computeAdmissibleParams() {
	for _, t := range e.UserTypes() {
		for _, cs := range e.TypeCons(t) {
			e.consAdmissibleParams(cs)
			t.AdmissibleParams.Or(cs.AdmissibleParams)
		}
	}
}

func (e *Env) consRecomputeBeginsWith(cs *ast.Constructor) bool {
	for i := range cs.Fields {
		field := &cs.Fields[i]
		if !field.IsExplicit() {
			continue
		}
		node := e.Node(field.Type)
		if _, isRef := node.(*ast.Ref); isRef {
			continue
		}
		apply, ok := node.(*ast.Apply)
		if !ok {
			break
		}
		return cs.BeginsWith.Add(e.Type(apply.Type).BeginsWith.Prepend(cs.Tag))
	}
	own := lattice.SinglePfx(cs.Tag)
	if cs.BeginsWith.Equal(own) {
		return false
	}
	cs.BeginsWith.Add(own)
	return true
}

func (e *Env) computeBeginsWith() {
	for changes := true; changes; {
		changes = false
		for _, t := range e.UserTypes() {
			for _, cs := range e.TypeCons(t) {
				if e.consRecomputeBeginsWith(cs) {
					changes = t.BeginsWith.Add(cs.BeginsWith) || changes
				}
			}
		}
	}
}

func (e *Env) consRecomputeMinMaxSize(cs *ast.Constructor) bool {
	sz := lattice.FixedSize(cs.TagBits)
	for i := range cs.Fields {
		if field := &cs.Fields[i]; field.IsExplicit() {
			sz = sz.Add(e.ComputeSize(field.Type))
		}
	}
	if sz == cs.Size {
		return false
	}
	cs.Size = sz
	cs.HasFixedSize = sz.IsFixed()
	return true
}

func (e *Env) computeMinMaxSizes() {
	for changes := true; changes; {
		changes = false
		for _, t := range e.UserTypes() {
			sz := lattice.Impossible
			for _, cs := range e.TypeCons(t) {
				changes = e.consRecomputeMinMaxSize(cs) || changes
				sz = sz.Join(cs.Size)
			}
			if sz != t.Size {
				t.Size = sz
				t.HasFixedSize = sz.IsFixed()
				changes = true
			}
		}
	}
}

func (e *Env) consRecomputeAnyBits(cs *ast.Constructor) bool {
	res := true
	for i := range cs.Fields {
		if field := &cs.Fields[i]; field.IsExplicit() {
			res = e.ComputeAnyBits(field.Type) && res
		}
	}
	if res == cs.AnyBits {
		return false
	}
	cs.AnyBits = res
	return true
}

func (e *Env) computeAnyBits() {
	for changes := true; changes; {
		changes = false
		for _, t := range e.UserTypes() {
			res := t.BeginsWith.IsAll()
			for _, cs := range e.TypeCons(t) {
				changes = e.consRecomputeAnyBits(cs) || changes
				res = res && cs.AnyBits
			}
			if res != t.AnyBits {
				t.AnyBits = res
				changes = true
			}
		}
	}
}

func (e *Env) detectBasicTypes() {
	for _, t := range e.UserTypes() {
		if t.Arity == 0 && len(t.Constructors) > 0 && t.Size.IsFixed() && t.AnyBits {
			t.IsUnit = t.Size.MinSize() == 0
			t.IsBool = t.Size.MinSize() == 0x100
			e.analyzerLog.Debug("basic type", "type", e.TypeName(t), "unit", t.IsUnit, "bool", t.IsBool)
		}
	}
}

func sizeProblem(sz lattice.MinMaxSize) string {
	if !sz.IsPossible() {
		return "cannot be instantiated"
	}
	return "never fits into a cell"
}

// sizeErrors describes every type and constructor which cannot be instantiated or never fits into a cell
func (e *Env) sizeErrors() []string {
	var res []string
	for _, t := range e.UserTypes() {
		if !t.Size.FitsIntoCell() || !t.Size.IsPossible() {
			msg := fmt.Sprintf("error: type `%s` %s (size %s)", e.TypeName(t), sizeProblem(t.Size), t.Size)
			res = append(res, msg)
			e.analyzerLog.Debug(msg)
		}
		for _, cs := range e.TypeCons(t) {
			if !cs.Size.FitsIntoCell() || !cs.Size.IsPossible() {
				msg := fmt.Sprintf("error: constructor `%s` %s (size %s)", e.QualifiedName(cs), sizeProblem(cs.Size), cs.Size)
				res = append(res, msg, "\t"+e.ShowConstructor(cs, 0))
				e.analyzerLog.Debug(msg, "cons", e.SlogCons(cs))
			}
		}
	}
	return res
}
