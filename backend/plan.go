package backend

import (
	"cmp"
	"fmt"
	"log/slog"
	"math/bits"
	"slices"

	"github.com/cottand/tlbc/frontend/ast"
	"github.com/cottand/tlbc/frontend/types"
	"github.com/cottand/tlbc/internal/log"
	"github.com/cottand/tlbc/util"
)

// ValueType is how a field is held in generated code
type ValueType uint8

const (
	VtUnknown ValueType = iota
	// VtSlice is an undecoded part of a cell
	VtSlice
	// VtCell is a reference to a cell
	VtCell
	// VtBits is a bit string of at most 256 bits
	VtBits
	// VtBitstring is a longer bit string
	VtBitstring
	VtBool
	VtInt32
	VtUint32
	VtInt64
	VtUint64
	// VtInteger is an arbitrary precision integer
	VtInteger
	// VtEnum is the enum value of a simple enum type
	VtEnum
	// VtSubrecord is the record of an anonymous constructor stored in a reference
	VtSubrecord
	// VtNat is a natural number, the value of # and its subtypes
	VtNat
	// VtTypeRef is a type, the value of an implicit Type field
	VtTypeRef
)

var valueTypeNames = [...]string{"unknown", "slice", "cell", "bits", "bitstring", "bool", "int32", "uint32",
	"int64", "uint64", "integer", "enum", "subrecord", "nat", "typeref"}

func (v ValueType) String() string {
	if int(v) < len(valueTypeNames) {
		return valueTypeNames[v]
	}
	return fmt.Sprintf("ValueType(%d)", v)
}

// Parts selects the halves of the output. Zero means both.
type Parts uint8

const (
	PartHeader Parts = 1 << iota
	PartSource
)

func (p Parts) Has(part Parts) bool {
	return p == 0 || p&part != 0
}

type Options struct {
	// Namespace names the generated package or module
	Namespace string
	// TypeMembers keeps used implicit Type fields in records
	TypeMembers bool
	Parts       Parts
	// Sources lists the schema files, mentioned in the output header
	Sources []string
}

// ParamPlan is a parameter of a type
type ParamPlan struct {
	Name  string
	Idx   int
	IsNat bool
	IsNeg bool
}

// FieldPlan is a field of a record
type FieldPlan struct {
	Name     string
	Idx      int
	Implicit bool
	VT       ValueType
	// FixedBits is the size of the field when it is fixed and has no references, -1 otherwise
	FixedBits int
	// Signed is set for signed integers
	Signed bool
	Subrec *RecordPlan
	Show   string
}

// RecordPlan is the decoded form of a constructor
type RecordPlan struct {
	Name   string
	Type   *TypePlan
	Cons   *ConsPlan
	Fields []*FieldPlan

	IsTrivial bool
	IsSmall   bool
	Inline    bool
	// TrivConflict is set when another constructor of the type has fields of the same value types
	TrivConflict bool
}

// ConsPlan is a constructor of a type
type ConsPlan struct {
	Cons *ast.Constructor
	Idx  int
	Name string
	// Enum is the position of the constructor in the tag enumeration
	Enum    int
	TagBits int
	// Tag holds the TagBits tag bits, right-aligned
	Tag uint64
	// TagExact is set when the get_tag decision alone proves the tag is present
	TagExact bool
	Record   *RecordPlan
	Show     string
}

// TypePlan is everything an emitter needs to generate one type
type TypePlan struct {
	Type     *ast.Type
	TypeName string
	Class    string
	// Var names a constant holding the type, for types without positive parameters
	Var    string
	Params []*ParamPlan
	Cons   []*ConsPlan
	ByEnum []*ConsPlan

	// CommonLen is the tag length shared by all constructors, or -1
	CommonLen       int
	AllExact        bool
	SimpleTags      bool
	IncrementalTags bool
	InlineGetTag    bool
	// InlineSkip and InlineValidateSkip are set when skipping is a fixed advance
	InlineSkip         bool
	InlineValidateSkip bool
	MinBits, MinRefs   int
	MaxBits, MaxRefs   int
	IsSimpleEnum       bool
	IsSpecial          bool

	TagTree *TagNode
	// SkipBodies holds per constructor actions of Skip (0) and ValidateSkip (1)
	SkipBodies   [2][]*Body
	UnpackBodies []*Body
	PackBodies   []*Body

	consTagMap []int
	local      *util.IdentSet
}

func (t *TypePlan) PosParams() []*ParamPlan {
	var res []*ParamPlan
	for _, p := range t.Params {
		if !p.IsNeg {
			res = append(res, p)
		}
	}
	return res
}

// OutParams are the negative parameters, computed while reading a value
func (t *TypePlan) OutParams() []*ParamPlan {
	var res []*ParamPlan
	for _, p := range t.Params {
		if p.IsNeg {
			res = append(res, p)
		}
	}
	return res
}

// NatParam returns the k-th positive natural parameter
func (t *TypePlan) NatParam(k int) *ParamPlan {
	for _, p := range t.Params {
		if !p.IsNeg && p.IsNat {
			if k == 0 {
				return p
			}
			k--
		}
	}
	return nil
}

func (t *TypePlan) Records() []*RecordPlan {
	res := make([]*RecordPlan, len(t.Cons))
	for i, c := range t.Cons {
		res[i] = c.Record
	}
	return res
}

// ConstPlan is a constant type expression
type ConstPlan struct {
	Id   int
	Name string
	Expr ast.NodeId
	// Simple constants are not declared, Value being used in their place
	Simple bool
	Value  *TypeRef
	Show   string
}

// Ref is the expression referring to the constant
func (c *ConstPlan) Ref() *TypeRef {
	if c.Simple {
		return c.Value
	}
	return &TypeRef{Kind: TypeConst, Name: c.Name}
}

// FilePlan is the input of an emitter
type FilePlan struct {
	Options Options
	Types   []*TypePlan
	// Consts holds the declared constants in dependency order
	Consts []*ConstPlan
}

// bailout carries a fatal error out of deep recursion, see fatalf
type bailout struct{ msg string }

func fatalf(format string, args ...any) {
	panic(bailout{msg: fmt.Sprintf(format, args...)})
}

var stdFieldNames = []string{"x", "y", "z", "t", "u", "v", "w"}

type planner struct {
	env      *types.Env
	opts     Options
	reserved util.Keywords
	locals   []string
	global   *util.IdentSet
	types    map[ast.TypeId]*TypePlan
	order    []*TypePlan
	consts   map[int]*ConstPlan
	logger   *slog.Logger
}

func newPlanner(env *types.Env, opts Options, reserved Reserved) *planner {
	kw := util.NewKeywords(reserved.Keywords...)
	return &planner{
		env:      env,
		opts:     opts,
		reserved: kw,
		locals:   reserved.Locals,
		global:   util.NewIdentSet(kw),
		types:    map[ast.TypeId]*TypePlan{},
		consts:   map[int]*ConstPlan{},
		logger:   log.DefaultLogger.With("section", log.SectionCodegen),
	}
}

// genOrder sorts the user types by the time they were last declared
func (p *planner) genOrder() []*ast.Type {
	res := slices.Clone(p.env.UserTypes())
	slices.SortStableFunc(res, func(a, b *ast.Type) int {
		return cmp.Or(cmp.Compare(a.LastDeclared, b.LastDeclared), cmp.Compare(a.Idx, b.Idx))
	})
	return res
}

func (p *planner) plan() *FilePlan {
	for _, t := range p.genOrder() {
		tp := p.declareType(t)
		p.order = append(p.order, tp)
		p.types[t.Idx] = tp
	}
	for _, tp := range p.order {
		p.nameMembers(tp)
	}
	for _, tp := range p.order {
		p.records(tp)
	}
	declared := p.assignConsts()
	for _, tp := range p.order {
		tp.TagTree = p.tagTree(tp)
		p.bodies(tp)
		p.logger.Debug("planned type", "class", tp.Class, "cons", len(tp.Cons), "inlineSkip", tp.InlineSkip,
			"simpleTags", tp.SimpleTags)
	}
	return &FilePlan{Options: p.opts, Types: p.order, Consts: declared}
}

func (p *planner) className(t *ast.Type) string {
	name := p.env.TypeName(t)
	if t.Name == 0 && t.ParentTypeIdx >= 0 {
		var sym ast.SymId
		for i := t.ParentTypeIdx; ; {
			parent := p.env.Type(ast.TypeId(i))
			sym = parent.Name
			if sym != 0 || parent.ParentTypeIdx < 0 {
				break
			}
			i = parent.ParentTypeIdx
		}
		if sym != 0 {
			name = p.env.SymName(sym) + "_aux"
		}
	}
	return name
}

func (p *planner) declareType(t *ast.Type) *TypePlan {
	tp := &TypePlan{
		Type:         t,
		TypeName:     p.env.TypeName(t),
		Class:        p.global.New(p.className(t), 0, ""),
		IsSimpleEnum: t.IsSimpleEnum,
		IsSpecial:    t.IsSpecial,
		MinBits:      t.Size.MinBits(),
		MinRefs:      t.Size.MinRefs(),
		MaxBits:      t.Size.MaxBits(),
		MaxRefs:      t.Size.MaxRefs(),
	}
	for i, arg := range t.Args {
		tp.Params = append(tp.Params, &ParamPlan{Idx: i, IsNat: arg.Has(ast.ArgIsNat), IsNeg: arg.Has(ast.ArgIsNeg)})
	}
	if len(tp.PosParams()) == 0 {
		tp.Var = p.global.New("t_"+tp.Class, 0, "")
	}
	return tp
}

func (p *planner) nameMembers(tp *TypePlan) {
	t := tp.Type
	local := util.NewIdentSet(p.reserved)
	tp.local = local
	for i, cs := range p.env.TypeCons(t) {
		cp := &ConsPlan{Cons: cs, Idx: i, TagBits: cs.TagBits, Show: p.env.ShowConstructor(cs, 0)}
		if cs.TagBits > 0 {
			cp.Tag = cs.Tag >> (64 - cs.TagBits)
		}
		switch {
		case cs.Name != 0:
			cp.Name = local.New(p.env.SymName(cs.Name), 0, "")
		case t.ConstParamIdx >= 0:
			pv := cs.ConstParam(t.ConstParamIdx)
			if pv != 0 {
				cp.Name = local.New("cons", pv, "")
			} else {
				cp.Name = local.New("cons0", 0, "")
			}
		default:
			cp.Name = local.New("cons", i+1, "")
		}
		tp.Cons = append(tp.Cons, cp)
	}
	// outputs are declared in method bodies
	for _, name := range p.locals {
		local.Insert(name)
	}
	natName, typeName := 'm', 'X'
	for _, pp := range tp.Params {
		if pp.IsNat {
			pp.Name = local.New(string(natName), 0, "")
			if natName != 't' {
				natName++
			}
		} else {
			pp.Name = local.New(string(typeName), 0, "")
			if typeName != 'Z' {
				typeName++
			} else {
				typeName = 'T'
			}
		}
	}
	tp.ByEnum = slices.Clone(tp.Cons)
	slices.SortStableFunc(tp.ByEnum, func(a, b *ConsPlan) int {
		return cmp.Or(cmp.Compare(a.Cons.BeginsWith.Min(), b.Cons.BeginsWith.Min()), cmp.Compare(a.Idx, b.Idx))
	})
	for i, cp := range tp.ByEnum {
		cp.Enum = i
	}
	tp.InlineSkip = t.HasFixedSize && len(tp.OutParams()) == 0
	tp.InlineValidateSkip = tp.InlineSkip && t.AnyBits && tp.MinRefs == 0
	tp.InlineGetTag = t.IsPfxDeterm && t.UsefulDepth <= 6
	tp.SimpleTags = p.simpleConsTags(tp)
	tp.CommonLen = p.env.ConsCommonLen(t)
	tp.AllExact = p.env.ConsAllExact(t)
	tp.IncrementalTags = incrementalConsTags(tp)
}

// simpleConsTags reports whether the first UsefulDepth bits map to enum values in increasing order
func (p *planner) simpleConsTags(tp *TypePlan) bool {
	t := tp.Type
	if !t.IsPfxDeterm || t.UsefulDepth > 8 {
		return false
	}
	d := t.UsefulDepth
	tp.consTagMap = make([]int, 1<<d)
	for _, cp := range tp.Cons {
		v := cp.Enum + 1
		for _, z := range cp.Cons.BeginsWith.Pfx {
			l := min(63-bits.TrailingZeros64(z), d)
			a := 0
			if d > 0 {
				a = int((z & (z - 1)) >> (64 - d))
			}
			for b := 1 << (d - l); b > 0; b-- {
				tp.consTagMap[a] = v
				a++
			}
		}
	}
	c := 0
	for _, v := range tp.consTagMap {
		if v == 0 || v == c {
			continue
		}
		c++
		if v != c {
			return false
		}
	}
	return true
}

func incrementalConsTags(tp *TypePlan) bool {
	if len(tp.Cons) == 0 || tp.CommonLen < 0 {
		return false
	}
	l := tp.CommonLen
	if l == 0 || l > 32 {
		return true
	}
	for _, cp := range tp.Cons {
		if cp.Tag != uint64(cp.Enum) {
			return false
		}
	}
	return true
}

// detectValueType decides how values of the type expression id are held
func (p *planner) detectValueType(id ast.NodeId) ValueType {
	env := p.env
	node := env.Node(id)
	info := node.Info()
	if node.Kind() == ast.KindRef {
		return VtCell
	}
	if info.IsNat || info.IsNatSubtype {
		return VtNat
	}
	sz := env.ComputeSize(id)
	if cond, ok := node.(*ast.CondType); ok {
		sub := p.detectValueType(cond.Args[1])
		switch sub {
		case VtSlice, VtCell, VtInteger, VtBitstring, VtEnum:
			return sub
		case VtNat:
			// only sized naturals can be read under a condition
			if apply, ok := env.Node(cond.Args[1]).(*ast.Apply); ok && (apply.Type == env.Nat || apply.Type == env.NatWidth) {
				return sub
			}
		case VtInt32, VtInt64:
			if env.IsInteger(cond.Args[1]) > 0 {
				return sub
			}
		}
		return VtSlice
	}
	if sz.MaxRefs() != 0 {
		return VtSlice
	}
	l := sz.FixedBitSize()
	x := env.IsInteger(id)
	if x == 0 {
		bitsType := func(l int) ValueType {
			if l >= 0 && l <= 256 {
				return VtBits
			}
			return VtBitstring
		}
		switch node := node.(type) {
		case *ast.Apply:
			ta := env.Type(node.Type)
			if ta.IsSimpleEnum && !ta.IsBuiltin {
				return VtEnum
			}
			if env.IsBuiltin(node.Type) && (node.Type == env.Bits || env.TypeName(ta)[0] == 'b') {
				return bitsType(l)
			}
		case *ast.Tuple:
			if apply, ok := env.Node(node.Args[1]).(*ast.Apply); ok && env.Type(apply.Type).IsBool {
				return bitsType(l)
			}
		}
		return VtSlice
	}
	l = sz.MaxBits()
	switch {
	case x > 0 && l == 1:
		return VtBool
	case l < 32:
		return VtInt32
	case l == 32 && x < 0:
		return VtInt32
	case l == 32:
		return VtUint32
	case l < 64:
		return VtInt64
	case l == 64 && x < 0:
		return VtInt64
	case l == 64:
		return VtUint64
	}
	return VtInteger
}

func (p *planner) records(tp *TypePlan) {
	for _, cp := range tp.Cons {
		p.record(tp, cp)
	}
}

// record computes the record of cp once, subrecords of anonymous types first
func (p *planner) record(tp *TypePlan, cp *ConsPlan) *RecordPlan {
	if cp.Record != nil {
		return cp.Record
	}
	env := p.env
	name := "Record"
	if len(tp.Cons) > 1 {
		name = "Record_" + cp.Name
	}
	rec := &RecordPlan{Name: tp.local.New(name, 0, ""), Type: tp, Cons: cp}
	cp.Record = rec
	ids := util.NewIdentSet(p.reserved)
	ids.Insert("type_class")
	ids.Insert(rec.Name)
	for j := range cp.Cons.Fields {
		f := &cp.Cons.Fields[j]
		switch {
		case f.Constraint:
		case !f.Implicit:
			sz := env.ComputeSize(f.Type)
			if sz.MaxSize() == 0 {
				continue
			}
			fp := &FieldPlan{
				Idx:       j,
				VT:        p.detectValueType(f.Type),
				FixedBits: sz.FixedBitSize(),
				Signed:    env.IsInteger(f.Type) < 0,
				Show:      env.ShowExpr(f.Type, cp.Cons),
			}
			switch {
			case f.Name != 0:
				fp.Name = ids.New(env.FieldName(f), 0, "")
			case f.Subrec:
				fp.Name = ids.New("r", 1, "")
			case env.Node(f.Type).Kind() == ast.KindRef:
				fp.Name = ids.New("ref", 1, "")
			}
			if f.Subrec {
				fp.VT = VtSubrecord
				anon := env.Arg(f.Type, 0)
				sub := p.types[ast.AppliedType(env.Node(anon))]
				fp.Subrec = p.record(sub, sub.Cons[0])
			}
			rec.Fields = append(rec.Fields, fp)
		case f.Used && (p.opts.TypeMembers || env.Info(f.Type).IsNatSubtype):
			fp := &FieldPlan{
				Name:      ids.New(env.FieldName(f), 0, ""),
				Idx:       j,
				Implicit:  true,
				VT:        VtTypeRef,
				FixedBits: -1,
				Show:      env.ShowExpr(f.Type, cp.Cons),
			}
			if env.Info(f.Type).IsNatSubtype {
				fp.VT = VtNat
			}
			rec.Fields = append(rec.Fields, fp)
		}
	}
	q := 0
	for _, fp := range rec.Fields {
		if fp.Name != "" {
			continue
		}
		for q < len(stdFieldNames) && ids.Contains(stdFieldNames[q]) {
			q++
		}
		if q < len(stdFieldNames) {
			fp.Name = ids.New(stdFieldNames[q], 0, "")
			q++
		} else {
			fp.Name = ids.New("f", 1, "")
		}
	}
	rec.IsTrivial = len(rec.Fields) <= 1
	rec.IsSmall = len(rec.Fields) <= 3
	rec.Inline = len(rec.Fields) <= 2
	var shape []ValueType
	for _, fp := range rec.Fields {
		if fp.VT == VtSubrecord {
			rec.IsTrivial, rec.IsSmall = false, false
		} else if !fp.Implicit {
			shape = append(shape, fp.VT)
		}
	}
	for _, other := range tp.Cons[:cp.Idx] {
		if other.Record != nil && slices.Equal(recordShape(other.Record), shape) {
			rec.TrivConflict, other.Record.TrivConflict = true, true
			break
		}
	}
	return rec
}

func recordShape(r *RecordPlan) []ValueType {
	var shape []ValueType
	for _, fp := range r.Fields {
		if fp.VT != VtSubrecord && !fp.Implicit {
			shape = append(shape, fp.VT)
		}
	}
	return shape
}

// assignConsts names the constant type expressions, returning those to declare
func (p *planner) assignConsts() []*ConstPlan {
	env := p.env
	var declared []*ConstPlan
	for i, id := range env.ConstExprs() {
		cid := i + 1
		node := env.Node(id)
		if node.Info().IsNat || !p.isRuntimeType(id) {
			continue
		}
		c := &ConstPlan{Id: cid, Expr: id, Show: env.ShowExpr(id, nil)}
		p.consts[cid] = c
		switch node := node.(type) {
		case *ast.Ref:
			if apply, ok := env.Node(node.Args[0]).(*ast.Apply); ok && (apply.Type == env.Any || apply.Type == env.Cell) {
				c.Simple = true
				c.Value = &TypeRef{Kind: TypeBuiltin, Builtin: BuiltinRef,
					Args: []Expr{&TypeRef{Kind: TypeBuiltin, Builtin: BuiltinCell}}}
			}
		case *ast.Apply:
			switch {
			case node.Type == env.Any:
				c.Simple, c.Value = true, &TypeRef{Kind: TypeBuiltin, Builtin: BuiltinAny}
			case node.Type == env.Cell:
				c.Simple, c.Value = true, &TypeRef{Kind: TypeBuiltin, Builtin: BuiltinCell}
			case node.Type == env.Nat:
				c.Simple, c.Value = true, &TypeRef{Kind: TypeBuiltin, Builtin: BuiltinNat}
			case !env.IsBuiltin(node.Type):
				if tp := p.types[node.Type]; tp != nil && tp.Var != "" {
					c.Simple, c.Value = true, &TypeRef{Kind: TypeConst, Name: tp.Var}
				}
			}
		}
		if !c.Simple {
			c.Name = p.global.New("t"+env.ConstTypeName(id), 0, "")
			c.Value = p.buildTypeRef(id, p.constNat, p.constTypeRef)
			declared = append(declared, c)
		}
	}
	return declared
}

// isRuntimeType reports whether id denotes a type that has values at run time
func (p *planner) isRuntimeType(id ast.NodeId) bool {
	switch node := p.env.Node(id).(type) {
	case *ast.TypeSort:
		return false
	case *ast.Apply:
		switch node.Type {
		case p.env.Eq, p.env.Less, p.env.Leq:
			return false
		}
		for _, arg := range node.Args {
			if !p.env.Info(arg).IsNat && !p.isRuntimeType(arg) {
				return false
			}
		}
	case *ast.Ref:
		return p.isRuntimeType(node.Args[0])
	case *ast.Tuple:
		return p.isRuntimeType(node.Args[1])
	case *ast.CondType:
		return p.isRuntimeType(node.Args[1])
	}
	return true
}

func (p *planner) constNat(id ast.NodeId) Expr {
	switch node := p.env.Node(id).(type) {
	case *ast.IntConst:
		return &Lit{Value: node.Value}
	case *ast.Add:
		return &BinOp{Op: OpAdd, X: p.constNat(node.Args[0]), Y: p.constNat(node.Args[1])}
	case *ast.MulConst:
		return &BinOp{Op: OpMul, X: &Lit{Value: node.Factor}, Y: p.constNat(node.Args[0])}
	case *ast.GetBit:
		return &BinOp{Op: OpBit, X: p.constNat(node.Args[0]), Y: p.constNat(node.Args[1])}
	}
	fatalf("`%s` is not a constant natural number", p.env.ShowExpr(id, nil))
	return nil
}

func (p *planner) constTypeRef(id ast.NodeId) *TypeRef {
	node := p.env.Node(id)
	if apply, ok := node.(*ast.Apply); ok && !p.env.IsBuiltin(apply.Type) && posArgs(p.env, apply) == 0 {
		return &TypeRef{Kind: TypeConst, Name: p.types[apply.Type].Var}
	}
	if c := p.consts[node.Info().ConstExpr]; c != nil {
		return c.Ref()
	}
	return p.buildTypeRef(id, p.constNat, p.constTypeRef)
}

func posArgs(env *types.Env, apply *ast.Apply) int {
	n := 0
	for _, arg := range apply.Args {
		if !env.Info(arg).Negated {
			n++
		}
	}
	return n
}

// buildTypeRef spells out the type expression id, nat and typ rendering its arguments
func (p *planner) buildTypeRef(id ast.NodeId, nat func(ast.NodeId) Expr, typ func(ast.NodeId) *TypeRef) *TypeRef {
	env := p.env
	switch node := env.Node(id).(type) {
	case *ast.Ref:
		return &TypeRef{Kind: TypeBuiltin, Builtin: BuiltinRef, Args: []Expr{typ(node.Args[0])}}
	case *ast.Tuple:
		return &TypeRef{Kind: TypeBuiltin, Builtin: BuiltinTuple, Args: []Expr{nat(node.Args[0]), typ(node.Args[1])}}
	case *ast.CondType:
		return &TypeRef{Kind: TypeBuiltin, Builtin: BuiltinCond, Args: []Expr{nat(node.Args[0]), typ(node.Args[1])}}
	case *ast.Apply:
		if !env.IsBuiltin(node.Type) {
			tp := p.types[node.Type]
			ref := &TypeRef{Kind: TypeUser, Name: tp.Class, Plan: tp}
			for _, arg := range node.Args {
				switch {
				case env.Info(arg).Negated:
				case env.Info(arg).IsNat:
					ref.Args = append(ref.Args, nat(arg))
				default:
					ref.Args = append(ref.Args, typ(arg))
				}
			}
			return ref
		}
		ref := &TypeRef{Kind: TypeBuiltin}
		t := env.Type(node.Type)
		switch node.Type {
		case env.Nat:
			ref.Builtin = BuiltinNat
		case env.NatWidth:
			ref.Builtin = BuiltinNatWidth
		case env.NatLeq:
			ref.Builtin = BuiltinNatLeq
		case env.NatLess:
			ref.Builtin = BuiltinNatLess
		case env.Int:
			ref.Builtin = BuiltinInt
		case env.UInt:
			ref.Builtin = BuiltinUint
		case env.Bits:
			ref.Builtin = BuiltinBits
		case env.Any:
			ref.Builtin = BuiltinAny
		case env.Cell:
			ref.Builtin = BuiltinCell
		default:
			// intN, uintN and bitsN take their width as an implicit argument
			switch {
			case t.IsInteger < 0:
				ref.Builtin = BuiltinInt
			case t.IsInteger > 0:
				ref.Builtin = BuiltinUint
			case t.Arity == 0 && t.HasFixedSize:
				ref.Builtin = BuiltinBits
			default:
				fatalf("type `%s` has no run-time representation", env.TypeName(t))
			}
			ref.Args = []Expr{&Lit{Value: t.Size.FixedBitSize()}}
			return ref
		}
		for _, arg := range node.Args {
			ref.Args = append(ref.Args, nat(arg))
		}
		return ref
	}
	fatalf("cannot convert `%s` into a type", env.ShowExpr(id, nil))
	return nil
}
