package parser

import (
	"github.com/cottand/tlbc/frontend/ast"
	"github.com/cottand/tlbc/frontend/lexer"
	"github.com/cottand/tlbc/frontend/tlberr"
)

// newField appends a field to cs, rejecting names already bound in an enclosing
// constructor. It returns the index of the field, since cs.Fields may move.
func (p *Parser) newField(cs *ast.Constructor, where ast.Range, implicit bool, name ast.SymId) int {
	if name != 0 && p.syms.LookupDef(name, lexer.LookupLocal) != nil {
		p.fail(tlberr.New(tlberr.NewRedefinition{Positioner: where, What: "field or parameter", Name: p.syms.SymName(name)}))
	}
	idx := len(cs.Fields)
	cs.Fields = append(cs.Fields, ast.Field{Idx: idx, Name: name, Where: where, Implicit: implicit, Type: ast.NoNode})
	return idx
}

func (p *Parser) registerField(cs *ast.Constructor, idx int) {
	field := &cs.Fields[idx]
	if field.Name == 0 {
		return
	}
	p.syms.DefineLocal(field.Name, lexer.SymDef{
		Kind:      lexer.DefParam,
		Where:     field.Where.Pos(),
		Field:     idx,
		FieldType: field.Type,
	})
}

// finishFieldType closes the type of a field and records whether it is constant
func (p *Parser) finishFieldType(cs *ast.Constructor, idx int, expr ast.NodeId) {
	p.close(expr)
	_, err := p.env.DetectConstExpr(expr)
	p.check(err)
	field := &cs.Fields[idx]
	field.Type = expr
	field.Where = p.since(field.Where)
}

// parseParam parses an explicit field, `name:T`, `_:T` or just `T`
func (p *Parser) parseParam(cs *ast.Constructor, named bool) {
	start := p.here()
	if named && p.kind() == '_' {
		p.next()
		p.expect(':', "`:`")
		named = false
	}
	var name ast.SymId
	if named {
		if p.kind() != lexer.Ident {
			p.fail(p.lex.Unexpected("identifier"))
		}
		name = p.lex.Cur().Val
		p.next()
		p.expect(':', "`:`")
	}
	idx := p.newField(cs, start, false, name)
	p.finishFieldType(cs, idx, p.parseExpr95(cs, modeType|modeTchk))
	field := &cs.Fields[idx]
	field.Subrec = p.env.IsRefToAnon(field.Type)
	if field.Subrec && field.Name != 0 {
		p.failSyntax(field.Where, "a reference to an anonymous constructor cannot be a named field")
	}
	p.registerField(cs, idx)
}

// parseConstraint parses the body of `{ expr }`
func (p *Parser) parseConstraint(cs *ast.Constructor) {
	idx := p.newField(cs, p.here(), true, 0)
	p.finishFieldType(cs, idx, p.parseExpr(cs, modeType|modeTchk))
	cs.Fields[idx].Constraint = true
}

// parseImplicitParam parses the body of `{ name:# }` or `{ name:Type }`.
// A parenthesized natural subtype such as (## 8) is accepted too.
func (p *Parser) parseImplicitParam(cs *ast.Constructor) {
	if p.kind() != lexer.Ident {
		p.fail(p.lex.Unexpected("identifier"))
	}
	cur := p.lex.Cur()
	idx := p.newField(cs, cur.Range, true, cur.Val)
	p.next()
	p.expect(':', "`:`")
	var typ ast.NodeId
	switch cur := p.lex.Cur(); {
	case cur.Kind == lexer.KwType:
		typ = p.env.TypeSort()
		p.next()
	case cur.Kind == lexer.Ident && cur.Val == p.env.NatName:
		typ = p.env.MkApplyEmpty(cur.Range, p.env.NatName, p.env.Nat)
		p.next()
	case cur.Kind == '(':
		typ = p.parseTerm(cs, modeType)
		p.close(typ)
		if !p.info(typ).IsNatSubtype {
			p.failSyntax(p.info(typ).Where, "either `Type` or `#` implicit parameter type expected")
		}
		_, err := p.env.DetectConstExpr(typ)
		p.check(err)
	default:
		p.failSyntax(cur.Range, "either `Type` or `#` implicit parameter type expected")
	}
	field := &cs.Fields[idx]
	field.Type = typ
	field.Where = p.since(field.Where)
	p.registerField(cs, idx)
}

func (p *Parser) parseFieldList(cs *ast.Constructor) {
	for p.kind() != '=' && p.kind() != ']' {
		switch {
		case p.kind() == '{':
			p.next()
			if p.kind() == lexer.Ident && p.lex.Peek().Kind == ':' {
				p.parseImplicitParam(cs)
			} else {
				p.parseConstraint(cs)
			}
			p.expect('}', "`}`")
		case (p.kind() == lexer.Ident || p.kind() == '_') && p.lex.Peek().Kind == ':':
			p.parseParam(cs, true)
		default:
			p.parseParam(cs, false)
		}
	}
}

// parseAnonymousConstructor parses the fields of `[ ... ]` into a type of its
// own, or reuses an earlier anonymous type with the same single constructor.
// The closing bracket is left for the caller.
func (p *Parser) parseAnonymousConstructor(outer *ast.Constructor) ast.NodeId {
	p.syms.OpenScope()
	start := p.here()
	cs := p.env.NewConstructor(start, 0, 0)
	p.parseFieldList(cs)
	if p.kind() != ']' {
		p.fail(p.lex.Unexpected("`]`"))
	}
	cs.Where = p.since(start)
	cs.SetTag(1 << 63)
	for _, t := range p.env.UserTypes() {
		if t.IsAuto && t.IsFinal && p.env.UniqueConstructorEquals(t, cs) {
			p.syms.CloseScope()
			if t.ParentTypeIdx >= 0 {
				t.ParentTypeIdx = -2
			}
			p.logger.Debug("reusing anonymous type", "type", t.Idx, "in", p.env.ConsName(outer))
			return p.env.MkApplyEmpty(p.here(), 0, t.Idx)
		}
	}
	t := p.env.NewType(0)
	p.check(p.env.BindConstructor(p.here(), t, cs))
	t.IsFinal = true
	t.IsAuto = true
	t.IsAnon = true
	p.env.RenewLastDeclared(t)
	p.syms.CloseScope()
	return p.env.MkApplyEmpty(p.here(), 0, t.Idx)
}

// parseConstructorDef parses one `name#tag fields = Type args;` definition
func (p *Parser) parseConstructorDef() {
	cur := p.lex.Cur()
	if cur.Kind != '_' && (cur.Kind != lexer.Ident || !p.syms.IsLcIdent(cur.Val)) {
		p.failSyntax(cur.Range, "constructor name lowercase identifier expected")
	}
	isSpecial := cur.Kind == lexer.Ident && p.syms.IsSpecialLcIdent(cur.Val)
	p.syms.OpenScope()
	origTypesNum := len(p.env.Types)
	var name ast.SymId
	if cur.Kind == lexer.Ident {
		name = cur.Val
	}
	p.next()
	var tag uint64
	if p.kind() == lexer.Special {
		tag = p.lex.Cur().Special
		p.next()
	}
	cs := p.env.NewConstructor(cur.Range, name, tag)
	cs.IsSpecial = isSpecial
	p.parseFieldList(cs)
	p.expect('=', "`=`")

	tcur := p.lex.Cur()
	if tcur.Kind != lexer.Ident || !p.syms.IsUcIdent(tcur.Val) {
		p.failSyntax(tcur.Range, "type name uppercase identifier expected")
	}
	def := p.syms.LookupDef(tcur.Val, lexer.LookupGlobal)
	if def == nil {
		_, err := p.env.RegisterNewType(tcur.Range, tcur.Val)
		p.check(err)
		def = p.syms.LookupDef(tcur.Val, lexer.LookupGlobal)
	}
	if def.Kind != lexer.DefTypename {
		p.failSyntax(tcur.Range, "parametrized type identifier expected")
	}
	t := p.env.Type(def.Type)
	cs.TypeName = tcur.Val
	cs.TypeDefined = t.Idx
	cs.Arity = 0
	if t.IsFinal {
		p.fail(tlberr.New(tlberr.NewFinalizedType{Positioner: tcur.Range, TypeName: tcur.Str}))
	}
	p.next()

	for p.kind() != ';' {
		negated := p.kind() == '~'
		if negated {
			p.next()
		}
		mode := modeAny | modeNeg
		if negated {
			mode = modeAny
		}
		param := p.parseTerm(cs, mode)
		p.close(param)
		constVal := -1
		if c, ok := p.env.Node(param).(*ast.IntConst); ok && !negated {
			constVal = c.Value
		}
		if !negated {
			p.check(p.env.BindValue(param, false, cs, false))
		} else if !p.info(param).IsNat {
			p.sortErr(p.info(param).Where, "cannot return type expressions")
		}
		cs.Params = append(cs.Params, param)
		cs.ParamNegated = append(cs.ParamNegated, negated)
		cs.ParamConstVal = append(cs.ParamConstVal, constVal)
		cs.Arity++
	}
	p.check(p.env.BindConstructor(p.here(), t, cs))
	p.env.RenewLastDeclared(t)
	p.expect(';', "`;`")
	p.syms.CloseScope()
	for _, nt := range p.env.Types[origTypesNum:] {
		if nt.IsAuto && nt.ParentTypeIdx == -1 {
			nt.ParentTypeIdx = int(t.Idx)
		}
	}
}
