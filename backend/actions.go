package backend

import (
	"fmt"

	"github.com/cottand/tlbc/frontend/ast"
	"github.com/cottand/tlbc/frontend/types"
	"github.com/cottand/tlbc/util"
)

type mode uint8

const (
	modeUnpack mode = iota + 1
	modePack
	modeSkip
)

// postponedEq binds a negative type argument once the value it is read into is known
type postponedEq struct {
	tmp *Var
	arg ast.NodeId
}

// consContext is the state of generating one method of one constructor.
// Every field of the constructor has a variable once its value is reachable,
// and is set once that variable holds the value.
type consContext struct {
	p        *planner
	env      *types.Env
	tp       *TypePlan
	cp       *ConsPlan
	cs       *ast.Constructor
	mode     mode
	validate bool

	fieldVars []*Var
	fieldSet  []bool
	paramUsed []bool
	params    []*Var
	temps     *util.IdentSet
	tmpCount  int
	postponed []postponedEq
	body      *Body
}

func (p *planner) newContext(tp *TypePlan, cp *ConsPlan, m mode, validate bool) *consContext {
	n := len(cp.Cons.Fields)
	c := &consContext{
		p:         p,
		env:       p.env,
		tp:        tp,
		cp:        cp,
		cs:        cp.Cons,
		mode:      m,
		validate:  validate,
		fieldVars: make([]*Var, n),
		fieldSet:  make([]bool, n),
		paramUsed: make([]bool, len(tp.Params)),
		temps:     p.global.Fork(),
		body:      &Body{Cons: cp},
	}
	for _, name := range p.locals {
		c.temps.Insert(name)
	}
	for _, pp := range tp.Params {
		kind := VarParam
		if pp.IsNeg {
			kind = VarOut
		}
		c.params = append(c.params, &Var{Kind: kind, Name: pp.Name, Param: pp})
		c.temps.Insert(pp.Name)
	}
	return c
}

func (p *planner) bodies(tp *TypePlan) {
	for _, cp := range tp.Cons {
		tp.UnpackBodies = append(tp.UnpackBodies, p.unpackBody(tp, cp))
		tp.PackBodies = append(tp.PackBodies, p.packBody(tp, cp))
	}
	for v, inline := range [2]bool{tp.InlineSkip, tp.InlineValidateSkip} {
		if inline {
			continue
		}
		for _, cp := range tp.Cons {
			tp.SkipBodies[v] = append(tp.SkipBodies[v], p.skipBody(tp, cp, v == 1))
		}
	}
}

func (p *planner) unpackBody(tp *TypePlan, cp *ConsPlan) *Body {
	c := p.newContext(tp, cp, modeUnpack, false)
	c.bindRecord(false)
	c.identifyParams()
	c.identifyNegParams()
	c.checkTag(true)
	c.eachField(c.unpackField)
	c.remainingParams()
	return c.body
}

func (p *planner) packBody(tp *TypePlan, cp *ConsPlan) *Body {
	c := p.newContext(tp, cp, modePack, false)
	c.bindRecord(true)
	c.identifyParams()
	c.identifyNegParams()
	if cp.TagBits > 0 {
		c.push(&StoreTag{Bits: cp.TagBits, Tag: cp.Tag})
	}
	c.eachField(c.packField)
	c.remainingParams()
	return c.body
}

func (p *planner) skipBody(tp *TypePlan, cp *ConsPlan, validate bool) *Body {
	c := p.newContext(tp, cp, modeSkip, validate)
	c.identifyParams()
	c.identifyNegParams()
	c.checkTag(false)
	c.eachField(func(j int, f *ast.Field, _ *FieldPlan) { c.skipField(j, f) })
	c.remainingParams()
	return c.body
}

// push appends a, merging consecutive advances and moving constraints ahead of them
func (c *consContext) push(a Action) {
	acts := c.body.Actions
	n := len(acts)
	if adv, ok := a.(*Advance); ok {
		if adv.Bits == 0 && adv.Refs == 0 {
			return
		}
		if n > 0 {
			if last, ok := acts[n-1].(*Advance); ok {
				acts[n-1] = &Advance{Bits: last.Bits + adv.Bits, Refs: last.Refs + adv.Refs}
				return
			}
		}
	}
	if isConstraint(a) && n > 0 {
		if last, ok := acts[n-1].(*Advance); ok {
			acts[n-1] = a
			c.body.Actions = append(acts, last)
			return
		}
	}
	c.body.Actions = append(acts, a)
}

func (c *consContext) newTemp(hint string) *Var {
	var name string
	if hint == "" || hint == "_" {
		for {
			c.tmpCount++
			name = fmt.Sprintf("t%d", c.tmpCount)
			if c.temps.IsGood(name) {
				c.temps.Insert(name)
				break
			}
		}
	} else {
		name = c.temps.New(hint, 0, "")
	}
	v := &Var{Kind: VarLocal, Name: name}
	c.body.Locals = append(c.body.Locals, v)
	return v
}

// fieldVar returns the variable of field j, allocating a temporary for natural fields
func (c *consContext) fieldVar(j int) *Var {
	if v := c.fieldVars[j]; v != nil {
		return v
	}
	f := &c.cs.Fields[j]
	if !c.env.Info(f.Type).IsNatSubtype {
		fatalf("cannot compute implicit field `%s` of type `%s` in constructor `%s`",
			c.env.FieldName(f), c.env.ShowExpr(f.Type, c.cs), c.env.QualifiedName(c.cs))
	}
	c.fieldVars[j] = c.newTemp(c.env.FieldName(f))
	return c.fieldVars[j]
}

func (c *consContext) recordField(j int) *FieldPlan {
	for _, fp := range c.cp.Record.Fields {
		if fp.Idx == j {
			return fp
		}
	}
	return nil
}

// bindRecord gives record fields their record variables. Fields being
// written are known from the start, implicit ones being recomputed instead.
func (c *consContext) bindRecord(readOnly bool) {
	for _, fp := range c.cp.Record.Fields {
		if readOnly && fp.Implicit {
			continue
		}
		c.fieldVars[fp.Idx] = &Var{Kind: VarField, Name: fp.Name, Field: fp}
		c.fieldSet[fp.Idx] = readOnly
	}
}

func (c *consContext) eachField(explicit func(j int, f *ast.Field, fp *FieldPlan)) {
	for j := range c.cs.Fields {
		f := &c.cs.Fields[j]
		switch {
		case f.Constraint:
			c.constraint(f)
		case !f.Implicit:
			explicit(j, f, c.recordField(j))
		default:
			c.computeImplicit(j, f)
		}
	}
}

func eqText(x, y Expr) string {
	return x.String() + " == " + y.String()
}

// checkParam checks positive parameter k against value. Types are not compared.
func (c *consContext) checkParam(k int, value Expr) {
	c.paramUsed[k] = true
	if !c.tp.Params[k].IsNat {
		return
	}
	c.push(&Check{X: c.params[k], Op: CmpEq, Y: value, Text: eqText(c.params[k], value)})
}

func (c *consContext) identifyParams() {
	for k, pid := range c.cs.Params {
		param, ok := c.env.Node(pid).(*ast.Param)
		if !ok || c.tp.Params[k].IsNeg {
			continue
		}
		i := param.Field
		if c.fieldSet[i] {
			c.checkParam(k, c.fieldVars[i])
		} else if c.fieldVars[i] == nil {
			c.fieldVars[i] = c.params[k]
			c.fieldSet[i] = true
			c.paramUsed[k] = true
		}
	}
}

func (c *consContext) identifyNegParams() {
	for k, pid := range c.cs.Params {
		param, ok := c.env.Node(pid).(*ast.Param)
		if !ok || !c.tp.Params[k].IsNeg {
			continue
		}
		i := param.Field
		if !c.fieldSet[i] && c.fieldVars[i] == nil {
			c.fieldVars[i] = c.params[k]
			c.paramUsed[k] = true
		}
	}
}

// checkTag consumes the tag, checking it unless the caller already did
func (c *consContext) checkTag(always bool) {
	cp := c.cp
	if cp.TagBits == 0 {
		return
	}
	if always || (c.validate && (len(c.tp.Cons) == 1 || !cp.TagExact)) {
		c.push(&CheckTag{Bits: cp.TagBits, Tag: cp.Tag})
		return
	}
	c.push(&Advance{Bits: cp.TagBits})
}

// checkParamExpr checks positive parameter k against the expression pid
func (c *consContext) checkParamExpr(k int, pid ast.NodeId) {
	if !c.tp.Params[k].IsNat {
		c.paramUsed[k] = true
		return
	}
	c.checkParam(k, c.natExpr(pid))
}

func (c *consContext) remainingParams() {
	for k, pid := range c.cs.Params {
		if c.paramUsed[k] {
			continue
		}
		if c.tp.Params[k].IsNeg {
			c.push(&Assign{Dst: c.params[k], Value: c.natExpr(pid)})
		} else {
			c.checkParamExpr(k, pid)
		}
		c.paramUsed[k] = true
	}
}

// natExpr renders a positive natural expression
func (c *consContext) natExpr(id ast.NodeId) Expr {
	env := c.env
	node := env.Node(id)
	if node.Info().Negated {
		fatalf("cannot convert negated expression `%s` into code", env.ShowExpr(id, c.cs))
	}
	switch node := node.(type) {
	case *ast.Param:
		v := c.fieldVars[node.Field]
		if v == nil {
			fatalf("field `%s` of constructor `%s` is used before it is known",
				env.FieldName(&c.cs.Fields[node.Field]), env.QualifiedName(c.cs))
		}
		return v
	case *ast.IntConst:
		return &Lit{Value: node.Value}
	case *ast.Add:
		return &BinOp{Op: OpAdd, X: c.natExpr(node.Args[0]), Y: c.natExpr(node.Args[1])}
	case *ast.MulConst:
		return &BinOp{Op: OpMul, X: &Lit{Value: node.Factor}, Y: c.natExpr(node.Args[0])}
	case *ast.GetBit:
		return &BinOp{Op: OpBit, X: c.natExpr(node.Args[0]), Y: c.natExpr(node.Args[1])}
	}
	fatalf("cannot convert `%s` into code", env.ShowExpr(id, c.cs))
	return nil
}

// typeRef renders a type expression, which may apply a type to negative arguments
func (c *consContext) typeRef(id ast.NodeId) *TypeRef {
	node := c.env.Node(id)
	if param, ok := node.(*ast.Param); ok {
		v := c.fieldVars[param.Field]
		if v == nil {
			fatalf("type field `%s` of constructor `%s` is used before it is known",
				c.env.FieldName(&c.cs.Fields[param.Field]), c.env.QualifiedName(c.cs))
		}
		return &TypeRef{Kind: TypeVar, Var: v}
	}
	if apply, ok := node.(*ast.Apply); ok && !c.env.IsBuiltin(apply.Type) && posArgs(c.env, apply) == 0 {
		return &TypeRef{Kind: TypeConst, Name: c.p.types[apply.Type].Var}
	}
	if cp := c.p.consts[node.Info().ConstExpr]; cp != nil && !node.Info().Negated {
		return cp.Ref()
	}
	return c.p.buildTypeRef(id, c.natExpr, c.typeRef)
}

// isSelf reports whether id is the type being generated with the parameters of the constructor
func (c *consContext) isSelf(id ast.NodeId) bool {
	apply, ok := c.env.Node(id).(*ast.Apply)
	if !ok || apply.Type != c.tp.Type.Idx || len(apply.Args) != len(c.tp.Params) {
		return false
	}
	for i, arg := range apply.Args {
		if !c.tp.Params[i].IsNeg && !c.env.Equal(arg, c.cs.Params[i]) {
			return false
		}
	}
	return true
}

// fieldType is the type of a field value, nil when it is the type being generated
func (c *consContext) fieldType(id ast.NodeId) *TypeRef {
	if c.isSelf(id) {
		return nil
	}
	return c.typeRef(id)
}

func (c *consContext) canCompute(id ast.NodeId) bool {
	node := c.env.Node(id)
	if node.Info().Negated {
		return false
	}
	if param, ok := node.(*ast.Param); ok {
		return c.fieldSet[param.Field]
	}
	for _, arg := range node.Info().Args {
		if !c.canCompute(arg) {
			return false
		}
	}
	return true
}

// canUseToCompute reports whether knowing the value of id determines field i
func (c *consContext) canUseToCompute(id ast.NodeId, i int) bool {
	node := c.env.Node(id)
	info := node.Info()
	if !info.Negated || !info.IsNat {
		return false
	}
	if param, ok := node.(*ast.Param); ok {
		return param.Field == i
	}
	for _, arg := range info.Args {
		if c.env.Info(arg).Negated {
			if !c.canUseToCompute(arg, i) {
				return false
			}
		} else if !c.canCompute(arg) {
			return false
		}
	}
	return true
}

// computeTarget picks where the value of the negated operand x goes: field i
// when x is that field, and a new temporary to solve further otherwise
func (c *consContext) computeTarget(x ast.NodeId, i int) (dst *Var, field int, more bool) {
	if param, ok := c.env.Node(x).(*ast.Param); ok && (param.Field == i || i < 0) && !c.fieldSet[param.Field] {
		v := c.fieldVar(param.Field)
		c.fieldSet[param.Field] = true
		return v, param.Field, false
	}
	return c.newTemp(""), i, true
}

// compute solves the negated expression id = bindTo for its unknown fields
func (c *consContext) compute(id ast.NodeId, i int, bindTo Expr) {
	switch node := c.env.Node(id).(type) {
	case *ast.MulConst:
		x := node.Args[0]
		dst, field, more := c.computeTarget(x, i)
		c.push(&Invert{Dst: dst, Op: OpMul, Z: bindTo, Y: &Lit{Value: node.Factor}})
		if more {
			c.compute(x, field, dst)
		}
		return
	case *ast.Add:
		x, y := node.Args[0], node.Args[1]
		if !c.env.Info(x).Negated {
			x, y = y, x
		}
		dst, field, more := c.computeTarget(x, i)
		c.push(&Invert{Dst: dst, Op: OpAdd, Z: bindTo, Y: c.natExpr(y)})
		if more {
			c.compute(x, field, dst)
		}
		return
	case *ast.Param:
		if i < 0 || node.Field == i {
			v := c.fieldVar(node.Field)
			if !c.fieldSet[node.Field] {
				c.push(&Assign{Dst: v, Value: bindTo})
				c.fieldSet[node.Field] = true
			} else {
				c.push(&Check{X: v, Op: CmpEq, Y: bindTo, Text: eqText(v, bindTo)})
			}
			return
		}
	}
	fatalf("cannot use expression `%s` = %s to set field variable", c.env.ShowExpr(id, c.cs), bindTo)
}

func (c *consContext) constraint(f *ast.Field) {
	env := c.env
	apply, ok := env.Node(f.Type).(*ast.Apply)
	var op CmpOp
	switch {
	case !ok:
	case apply.Type == env.Eq:
		op = CmpEq
	case apply.Type == env.Less:
		op = CmpLess
	case apply.Type == env.Leq:
		op = CmpLeq
	}
	if op == 0 {
		fatalf("constraint `%s` of constructor `%s` is not a comparison", env.ShowExpr(f.Type, c.cs), env.QualifiedName(c.cs))
	}
	x, y := apply.Args[0], apply.Args[1]
	if env.Info(x).Negated || env.Info(y).Negated {
		if op != CmpEq {
			fatalf("only equations can bind fields, not `%s`", env.ShowExpr(f.Type, c.cs))
		}
		if !env.Info(x).Negated {
			x, y = y, x
		}
		c.compute(x, -1, c.natExpr(y))
		return
	}
	c.push(&Check{X: c.natExpr(x), Op: op, Y: c.natExpr(y), Text: env.ShowExpr(f.Type, c.cs)})
}

func (c *consContext) computeImplicit(j int, f *ast.Field) {
	for k, pid := range c.cs.Params {
		if c.paramUsed[k] || c.tp.Params[k].IsNeg {
			continue
		}
		param, isParam := c.env.Node(pid).(*ast.Param)
		switch {
		case !c.fieldSet[j] && isParam && param.Field == j:
			if v := c.fieldVars[j]; v != nil && v.Kind == VarField {
				c.push(&Assign{Dst: v, Value: c.params[k]})
			}
			c.fieldVars[j] = c.params[k]
			c.fieldSet[j] = true
			c.paramUsed[k] = true
		case c.canCompute(pid):
			c.checkParamExpr(k, pid)
		case !c.fieldSet[j] && c.canUseToCompute(pid, j):
			c.fieldVar(j)
			c.compute(pid, j, c.params[k])
			c.paramUsed[k] = true
		}
	}
}

// negativeOutputs lists where the negative arguments of a field type are computed into
func (c *consContext) negativeOutputs(id ast.NodeId) []*Var {
	apply, ok := c.env.Node(id).(*ast.Apply)
	if !ok {
		fatalf("cannot compute negative arguments of `%s`", c.env.ShowExpr(id, c.cs))
	}
	var outs []*Var
	for _, arg := range apply.Args {
		if !c.env.Info(arg).Negated {
			continue
		}
		if param, ok := c.env.Node(arg).(*ast.Param); ok && !c.fieldSet[param.Field] {
			outs = append(outs, c.fieldVar(param.Field))
			c.fieldSet[param.Field] = true
			continue
		}
		tmp := c.newTemp("")
		outs = append(outs, tmp)
		c.postponed = append(c.postponed, postponedEq{tmp: tmp, arg: arg})
	}
	return outs
}

func (c *consContext) equatePostponed() {
	for _, eq := range c.postponed {
		c.compute(eq.arg, -1, eq.tmp)
	}
	c.postponed = nil
}

func (c *consContext) isCell(id ast.NodeId) bool {
	apply, ok := c.env.Node(id).(*ast.Apply)
	return ok && (apply.Type == c.env.Cell || apply.Type == c.env.Any)
}

func (c *consContext) isRefToCell(id ast.NodeId) bool {
	ref, ok := c.env.Node(id).(*ast.Ref)
	return ok && c.isCell(ref.Args[0])
}

func (c *consContext) canSizeof(id ast.NodeId) bool {
	info := c.env.Info(id)
	if info.Negated || info.IsNat {
		return false
	}
	sz := c.env.ComputeSize(id)
	if sz.IsFixed() {
		return sz.MinRefs() == 0
	}
	switch node := c.env.Node(id).(type) {
	case *ast.Apply:
		switch node.Type {
		case c.env.Int, c.env.UInt, c.env.NatWidth, c.env.Bits:
			return true
		}
	case *ast.CondType:
		return c.canSizeof(node.Args[1])
	case *ast.Tuple:
		return c.canSizeof(node.Args[1])
	}
	return false
}

// sizeof is the bit size of values of id, which canSizeof accepts
func (c *consContext) sizeof(id ast.NodeId) Expr {
	sz := c.env.ComputeSize(id)
	if sz.IsFixed() {
		return &Lit{Value: sz.MinBits()}
	}
	switch node := c.env.Node(id).(type) {
	case *ast.CondType:
		return &Sel{Cond: c.natExpr(node.Args[0]), Then: c.sizeof(node.Args[1])}
	case *ast.Tuple:
		if n, ok := c.env.Node(node.Args[0]).(*ast.IntConst); ok && n.Value == 1 {
			return c.sizeof(node.Args[1])
		}
		if elem := c.env.ComputeSize(node.Args[1]); elem.IsFixed() && elem.MinBits() == 1 && elem.MinRefs() == 0 {
			return c.natExpr(node.Args[0])
		}
		return &BinOp{Op: OpMul, X: c.natExpr(node.Args[0]), Y: c.sizeof(node.Args[1])}
	case *ast.Apply:
		return c.natExpr(node.Args[0])
	}
	fatalf("cannot compute the size of `%s`", c.env.ShowExpr(id, c.cs))
	return nil
}

// unwrapCond strips a chain of conditional types, returning their conditions
func (c *consContext) unwrapCond(id ast.NodeId) ([]Expr, ast.NodeId) {
	var conds []Expr
	for {
		cond, ok := c.env.Node(id).(*ast.CondType)
		if !ok {
			return conds, id
		}
		conds = append(conds, c.natExpr(cond.Args[0]))
		id = cond.Args[1]
	}
}

func guarded(conds []Expr, a Action) Action {
	if len(conds) == 0 {
		return a
	}
	return &Guard{Conds: conds, Then: a}
}

func (c *consContext) natKind(id ast.NodeId) (NatKind, Expr) {
	env := c.env
	if apply, ok := env.Node(id).(*ast.Apply); ok {
		switch apply.Type {
		case env.Nat:
			return NatFull, nil
		case env.NatWidth:
			return NatWidth, c.natExpr(apply.Args[0])
		case env.NatLeq:
			return NatLeq, c.natExpr(apply.Args[0])
		case env.NatLess:
			return NatLess, c.natExpr(apply.Args[0])
		}
	}
	fatalf("cannot use fields of non-`#` type `%s`", env.ShowExpr(id, c.cs))
	return 0, nil
}

// fetchNat reads natural field j, checking it against its value when that is already known
func (c *consContext) fetchNat(j int, f *ast.Field) {
	kind, arg := c.natKind(f.Type)
	if c.fieldSet[j] {
		tmp := c.newTemp(c.env.FieldName(f))
		c.push(&FetchNat{Dst: tmp, Kind: kind, Arg: arg})
		c.push(&Check{X: tmp, Op: CmpEq, Y: c.fieldVars[j], Text: eqText(tmp, c.fieldVars[j])})
		return
	}
	c.push(&FetchNat{Dst: c.fieldVar(j), Kind: kind, Arg: arg})
	c.fieldSet[j] = true
}

func (c *consContext) unpackField(j int, f *ast.Field, fp *FieldPlan) {
	if fp == nil {
		c.skipField(j, f)
		return
	}
	env := c.env
	expr := f.Type
	info := env.Info(expr)
	if f.Used || info.IsNatSubtype {
		c.fetchNat(j, f)
		return
	}
	sz := env.ComputeSize(expr)
	anyBits := env.ComputeAnyBits(expr)
	dst := c.fieldVar(j)
	defer func() { c.fieldSet[j] = true }()
	if sz.IsFixed() && fp.VT != VtEnum && (!c.validate || (sz.MinRefs() == 0 && anyBits)) {
		if f.Subrec {
			c.push(&FetchSubrecord{Dst: dst, Rec: fp.Subrec})
		} else {
			c.push(&FetchValue{Dst: dst, VT: fp.VT, Bits: &Lit{Value: sz.MinBits()}, Refs: sz.MinRefs(), Type: c.fieldType(expr)})
		}
		return
	}
	if info.Negated {
		fetch := &FetchType{Dst: dst, Type: c.fieldType(expr), Validate: c.validate}
		fetch.Outs = c.negativeOutputs(expr)
		c.push(fetch)
		c.equatePostponed()
		return
	}
	if c.isRefToCell(expr) {
		c.push(&FetchRef{Dst: dst})
		return
	}
	conds, inner := c.unwrapCond(expr)
	if (!c.validate || anyBits) && c.canSizeof(inner) && fp.VT != VtEnum {
		c.push(guarded(conds, &FetchValue{Dst: dst, VT: fp.VT, Bits: c.sizeof(inner), Type: c.fieldType(inner)}))
		return
	}
	ref, isRef := env.Node(inner).(*ast.Ref)
	switch {
	case !isRef:
		c.push(guarded(conds, &FetchType{Dst: dst, Type: c.fieldType(inner), Enum: fp.VT == VtEnum, Validate: c.validate}))
	case !c.validate || c.isCell(ref.Args[0]):
		c.push(guarded(conds, &FetchRef{Dst: dst}))
	default:
		c.push(guarded(conds, &ValidateRef{Dst: dst, Type: c.fieldType(ref.Args[0])}))
	}
}

func (c *consContext) packField(j int, f *ast.Field, fp *FieldPlan) {
	env := c.env
	expr := f.Type
	info := env.Info(expr)
	if fp == nil {
		// nothing to store, but negative arguments and used naturals still need values
		switch {
		case f.Used || info.IsNatSubtype:
			c.push(&Assign{Dst: c.fieldVar(j), Value: &Lit{}})
			c.fieldSet[j] = true
		case info.Negated:
			skip := &CallSkip{Type: c.fieldType(expr), OnEmpty: true}
			skip.Outs = c.negativeOutputs(expr)
			c.push(skip)
			c.equatePostponed()
		}
		return
	}
	src := c.fieldVar(j)
	if f.Used || info.IsNatSubtype {
		kind, arg := c.natKind(expr)
		c.push(&StoreNat{Src: src, Kind: kind, Arg: arg})
		c.fieldSet[j] = true
		return
	}
	sz := env.ComputeSize(expr)
	defer func() { c.fieldSet[j] = true }()
	if sz.IsFixed() && fp.VT != VtEnum {
		if f.Subrec {
			c.push(&StoreSubrecord{Src: src, Rec: fp.Subrec})
		} else {
			c.push(&StoreValue{Src: src, VT: fp.VT, Bits: &Lit{Value: sz.MinBits()}, Refs: sz.MinRefs()})
		}
		return
	}
	if info.Negated {
		store := &StoreType{Src: src, Type: c.fieldType(expr)}
		store.Outs = c.negativeOutputs(expr)
		c.push(store)
		c.equatePostponed()
		return
	}
	if c.isRefToCell(expr) {
		c.push(&StoreRef{Src: src})
		return
	}
	conds, inner := c.unwrapCond(expr)
	if c.canSizeof(inner) && fp.VT != VtEnum {
		c.push(guarded(conds, &StoreValue{Src: src, VT: fp.VT, Bits: c.sizeof(inner)}))
		return
	}
	if env.Node(inner).Kind() != ast.KindRef {
		c.push(guarded(conds, &StoreType{Src: src, Type: c.fieldType(inner), Enum: fp.VT == VtEnum}))
		return
	}
	c.push(guarded(conds, &StoreRef{Src: src}))
}

func (c *consContext) skipField(j int, f *ast.Field) {
	env := c.env
	expr := f.Type
	info := env.Info(expr)
	sz := env.ComputeSize(expr)
	anyBits := env.ComputeAnyBits(expr)
	if f.Used || (c.validate && info.IsNatSubtype && !anyBits) {
		c.fetchNat(j, f)
		return
	}
	if sz.IsFixed() && (!c.validate || (sz.MinRefs() == 0 && anyBits)) {
		c.push(&Advance{Bits: sz.MinBits(), Refs: sz.MinRefs()})
		return
	}
	if info.Negated {
		skip := &CallSkip{Type: c.fieldType(expr), Validate: c.validate}
		skip.Outs = c.negativeOutputs(expr)
		c.push(skip)
		c.equatePostponed()
		return
	}
	if c.isRefToCell(expr) {
		c.push(&Advance{Refs: 1})
		return
	}
	conds, inner := c.unwrapCond(expr)
	if (!c.validate || anyBits) && c.canSizeof(inner) {
		c.push(guarded(conds, &AdvanceBy{Bits: c.sizeof(inner)}))
		return
	}
	ref, isRef := env.Node(inner).(*ast.Ref)
	switch {
	case !isRef:
		c.push(guarded(conds, &CallSkip{Type: c.fieldType(inner), Validate: c.validate}))
	case !c.validate || c.isCell(ref.Args[0]):
		c.push(guarded(conds, &Advance{Refs: 1}))
	default:
		c.push(guarded(conds, &ValidateRef{Type: c.fieldType(ref.Args[0])}))
	}
}
