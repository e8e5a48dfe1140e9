package types

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xtgo/set"

	"github.com/cottand/tlbc/frontend/ast"
	"github.com/cottand/tlbc/frontend/lattice"
	"github.com/cottand/tlbc/frontend/tlberr"
)

// ConsAllExact reports whether the tags of t partition all bitstrings exactly
func (e *Env) ConsAllExact(t *ast.Type) bool {
	var sum uint64
	for _, cs := range e.TypeCons(t) {
		sum += 1 << (63 - cs.TagBits)
	}
	return sum == 1<<63
}

// ConsCommonLen is the tag length shared by all constructors of t, or -1
func (e *Env) ConsCommonLen(t *ast.Type) int {
	cons := e.TypeCons(t)
	if len(cons) == 0 {
		return -1
	}
	l := cons[0].TagBits
	for _, cs := range cons {
		if cs.TagBits != l {
			return -1
		}
	}
	return l
}

func detectConstParams(t *ast.Type) int {
	t.ConstParamIdx = -1
	for i := 0; i < t.Arity; i++ {
		if t.IsConstArg(i) {
			t.ConstParamIdx = i
			break
		}
	}
	return t.ConstParamIdx
}

// AllParamValues returns the distinct values parameter p takes across the constructors of t, sorted
func (e *Env) AllParamValues(t *ast.Type, p int) []int {
	if p < 0 || p >= t.Arity {
		return nil
	}
	res := make([]int, 0, len(t.Constructors))
	for _, cs := range e.TypeCons(t) {
		res = append(res, cs.ParamConstVal[p])
	}
	data := sort.IntSlice(res)
	sort.Sort(data)
	return res[:set.Uniq(data)]
}

// ConsByParamValue returns the indices of the constructors of t where parameter p equals pv
func (e *Env) ConsByParamValue(t *ast.Type, p, pv int) []int {
	if p < 0 || p >= t.Arity {
		return nil
	}
	var res []int
	for i, cs := range e.TypeCons(t) {
		if cs.ParamConstVal[p] == pv {
			res = append(res, i)
		}
	}
	return res
}

func (e *Env) computeConstructorTrie(t *ast.Type) tlberr.TlbError {
	if t.CsTrie != nil || len(t.Constructors) == 0 {
		return nil
	}
	for i, cs := range e.TypeCons(t) {
		if i >= 64 {
			return tlberr.New(tlberr.NewTooManyConstructors{Positioner: cs.Where, TypeName: e.TypeName(t)})
		}
		t.CsTrie = lattice.InsertPaths(t.CsTrie, cs.BeginsWith, 1<<i)
	}
	if t.CsTrie == nil {
		t.UsefulDepth = 0
		t.IsPfxDeterm = true
		return nil
	}
	t.UsefulDepth = t.CsTrie.ComputeUsefulDepth(0)
	t.IsPfxDeterm = t.CsTrie.FindConflictPath(0, ^uint64(0)) == 0
	return nil
}

// typeCheckConflicts computes how the constructors of t are told apart:
// by their prefix, by the value of a constant parameter, by the abstract
// values of the parameters, or a combination. It reports whether some
// pair of constructors cannot be distinguished at all.
func (e *Env) typeCheckConflicts(t *ast.Type) (bool, tlberr.TlbError) {
	if err := e.computeConstructorTrie(t); err != nil {
		return false, err
	}
	cp := detectConstParams(t)
	t.IsParamPfxDeterm, t.IsParamDeterm, t.IsDeterm = true, true, true
	t.IsConstParamDeterm = cp >= 0
	t.IsConstParamPfxDeterm = cp >= 0
	if len(t.Constructors) == 0 || t.CsTrie == nil {
		return false, nil
	}
	var pfxGraph lattice.ConflictGraph
	t.CsTrie.SetConflictGraph(&pfxGraph, 0)
	cons := e.TypeCons(t)
	for i := range cons {
		ap1 := cons[i].AdmissibleParams
		for j := 0; j < i; j++ {
			cpSame := cons[i].ConstParam(cp) == cons[j].ConstParam(cp)
			if cpSame {
				t.IsConstParamDeterm = false
				if pfxGraph.Conflicts(i, j) {
					t.IsConstParamPfxDeterm = false
				}
			}
			if ap1.ConflictsWith(cons[j].AdmissibleParams) {
				t.IsParamDeterm = false
				if pfxGraph.Conflicts(i, j) {
					t.IsParamPfxDeterm = false
					if cpSame {
						t.Conflict1 = j
						t.Conflict2 = i
						t.IsDeterm = false
					}
				}
			}
		}
	}
	return !t.IsDeterm, nil
}

// ShowConstructorConflict explains why Conflict1 and Conflict2 of t cannot be told apart
func (e *Env) ShowConstructorConflict(t *ast.Type) []string {
	i, j := t.Conflict1, t.Conflict2
	cons := e.TypeCons(t)
	pfx := t.CsTrie.FindConflictPath(0, 1<<i|1<<j)
	csSet := lattice.ConflictSet(t.CsTrie.LookupTag(pfx))
	info1, info2 := cons[i].AdmissibleParams, cons[j].AdmissibleParams
	needParams := !(info1.IsSetAll() && info2.IsSetAll())
	params := info1.ConflictsAt(info2)
	for s := 0; s < 64 && s < len(cons); s++ {
		if !csSet.Has(s) {
			continue
		}
		admissible := cons[s].AdmissibleParams.IsSetAll()
		if needParams {
			admissible = cons[s].AdmissibleParams.Get(params)
		}
		if !admissible {
			csSet.Remove(s)
		}
	}
	res := []string{fmt.Sprintf("found conflict between constructors of type `%s`: prefix %s can be present in %d constructors:",
		e.TypeName(t), ast.ShowTag(pfx), csSet.Size())}
	for s := 0; s < 64 && s < len(cons); s++ {
		if csSet.Has(s) {
			res = append(res, "\t"+e.ShowConstructor(cons[s], 0))
		}
	}
	if needParams {
		sb := strings.Builder{}
		fmt.Fprintf(&sb, "when type parameters are instantiated as %s", e.TypeName(t))
		nat, typ := 'a', 'A'
		natIdx := 0
		for _, x := range t.Args {
			switch {
			case x.Has(ast.ArgIsNeg) && x.Has(ast.ArgIsNat):
				fmt.Fprintf(&sb, " ~%c", nat)
				nat++
			case x.Has(ast.ArgIsNeg):
				fmt.Fprintf(&sb, " ~%c", typ)
				typ++
			case x.Has(ast.ArgIsType):
				fmt.Fprintf(&sb, " %c", typ)
				typ++
			default:
				v := (params >> (2 * natIdx)) & 3
				natIdx++
				fmt.Fprintf(&sb, " %d", v)
				if v&2 != 0 {
					fmt.Fprintf(&sb, "+2*%c", nat)
					nat++
				}
			}
		}
		res = append(res, sb.String())
	}
	return res
}

// checkConflicts returns the diagnostics of every type with indistinguishable constructors
func (e *Env) checkConflicts() ([]string, tlberr.TlbError) {
	var res []string
	for _, t := range e.UserTypes() {
		conflict, err := e.typeCheckConflicts(t)
		if err != nil {
			return nil, err
		}
		if conflict {
			details := e.ShowConstructorConflict(t)
			e.analyzerLog.Debug("constructor conflict", "type", e.TypeName(t), "details", details)
			res = append(res, details...)
		}
	}
	return res, nil
}
