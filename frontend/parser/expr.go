package parser

import (
	"fmt"

	"github.com/cottand/tlbc/frontend/ast"
	"github.com/cottand/tlbc/frontend/lexer"
	"github.com/cottand/tlbc/frontend/tlberr"
	"github.com/cottand/tlbc/frontend/types"
)

const (
	modeType = types.ModeType
	modeNat  = types.ModeNat
	modeNeg  = types.ModeAutoNegate
	modeTchk = types.ModeTchk
	modeAny  = modeType | modeNat
)

func (p *Parser) sortErr(where ast.Positioner, msg string) {
	p.fail(tlberr.New(tlberr.NewExprSort{Positioner: where, Msg: msg}))
}

func (p *Parser) polarityErr(where ast.Positioner, msg string) {
	p.fail(tlberr.New(tlberr.NewPolarity{Positioner: where, Msg: msg}))
}

func (p *Parser) checkMode(start ast.Range, id ast.NodeId, mode int) {
	p.check(p.env.CheckMode(p.since(start), id, mode))
}

func (p *Parser) close(id ast.NodeId) {
	p.check(p.env.Close(id))
}

func (p *Parser) info(id ast.NodeId) *ast.ExprInfo {
	return p.env.Info(id)
}

// parseTerm parses a parenthesized expression, a constant, an anonymous
// constructor, a cell reference, a type name or a field name
func (p *Parser) parseTerm(cs *ast.Constructor, mode int) ast.NodeId {
	start := p.here()
	switch p.kind() {
	case '(':
		p.next()
		expr := p.parseExpr(cs, mode)
		p.checkMode(start, expr, mode)
		p.expect(')', "`)`")
		return expr
	case lexer.Number:
		expr, err := p.env.MkIntConst(start, p.lex.Cur().Str)
		p.check(err)
		p.checkMode(start, expr, mode)
		p.next()
		return expr
	case '[':
		p.next()
		expr := p.parseAnonymousConstructor(cs)
		p.checkMode(start, expr, mode)
		p.expect(']', "`]`")
		return expr
	case '^':
		p.next()
		expr := p.parseTerm(cs, mode&^modeNat)
		p.close(expr)
		if p.info(expr).IsNat {
			p.sortErr(start, "cannot create a cell reference type to a natural number")
		}
		return p.env.MkRef(p.since(start), expr)
	case '~':
		p.next()
		if p.kind() != lexer.Ident {
			p.fail(p.lex.Unexpected("field identifier"))
		}
		return p.parseIdent(cs, mode, true, start)
	case lexer.Ident:
		return p.parseIdent(cs, mode, false, start)
	}
	p.fail(p.lex.Unexpected("type identifier"))
	return ast.NoNode
}

func (p *Parser) parseIdent(cs *ast.Constructor, mode int, negate bool, start ast.Range) ast.NodeId {
	cur := p.lex.Cur()
	def := p.syms.LookupDef(cur.Val, lexer.LookupAny)
	if def == nil {
		if negate {
			p.failSyntax(cur.Range, "field identifier expected")
		}
		t, err := p.env.RegisterNewType(cur.Range, cur.Val)
		p.check(err)
		def = p.syms.LookupDef(cur.Val, lexer.LookupGlobal)
		def.Type = t.Idx
	}
	switch def.Kind {
	case lexer.DefTypename:
		if negate {
			p.failSyntax(cur.Range, "cannot negate a type")
		}
		t := p.env.Type(def.Type)
		t.Used++
		expr := p.env.MkApplyEmpty(cur.Range, cur.Val, t.Idx)
		p.next()
		return expr
	case lexer.DefParam:
	default:
		p.failSyntax(cur.Range, "field identifier expected")
	}
	if def.Level != p.syms.Level() {
		p.failSyntax(cur.Range, fmt.Sprintf("cannot access field `%s` from outer scope", cur.Str))
	}
	field := &cs.Fields[def.Field]
	if mode&modeNeg != 0 && !field.Known {
		negate = true
	}
	isNat := p.info(field.Type).IsNatSubtype
	if _, isSort := p.env.Node(field.Type).(*ast.TypeSort); !isNat && !isSort {
		p.sortErr(cur.Range, "cannot use a field in an expression unless it is either an integer or a type")
	}
	if negate && !field.Implicit {
		p.polarityErr(cur.Range, "cannot negate an explicit field")
	}
	expr := p.env.MkParam(ast.RangeBetween(start, cur.Range), def.Field, isNat, negate)
	p.checkMode(cur.Range, expr, mode)
	p.next()
	return expr
}

// parseExpr97 parses the bit selection x.y
func (p *Parser) parseExpr97(cs *ast.Constructor, mode int) ast.NodeId {
	start := p.here()
	expr := p.parseTerm(cs, mode|modeAny)
	if p.kind() == '.' {
		p.close(expr)
		if mode&modeNat == 0 {
			p.sortErr(start, "bitfield expression cannot be used instead of a type expression")
		}
		if !p.info(expr).IsNat {
			p.sortErr(start, "cannot apply bit selection operator `.` to types")
		}
		p.next()
		expr2 := p.parseTerm(cs, mode&^modeType)
		p.close(expr2)
		if p.info(expr).Negated || p.info(expr2).Negated {
			p.polarityErr(start, "cannot apply bit selection operator `.` to values of negative polarity")
		}
		expr = p.env.MkGetBit(p.since(start), expr, expr2)
	}
	p.checkMode(start, expr, mode)
	return expr
}

// parseExpr95 parses the conditional type x?T
func (p *Parser) parseExpr95(cs *ast.Constructor, mode int) ast.NodeId {
	start := p.here()
	expr := p.parseExpr97(cs, mode|modeAny)
	if p.kind() != '?' {
		p.checkMode(start, expr, mode)
		return expr
	}
	p.close(expr)
	if !p.info(expr).IsNat {
		p.sortErr(start, "cannot apply `?` with non-integer selectors")
	}
	p.next()
	expr2 := p.parseTerm(cs, mode&^(modeNat|modeTchk))
	p.close(expr2)
	p.check(p.env.NoTchk(expr2))
	expr = p.env.MkCondType(p.since(start), expr, expr2)
	p.checkMode(start, expr, mode)
	return expr
}

func startsTerm(k lexer.Kind) bool {
	switch k {
	case '(', lexer.Ident, lexer.Number, '~', '^', '[':
		return true
	}
	return false
}

// parseExpr90 parses type application by juxtaposition
func (p *Parser) parseExpr90(cs *ast.Constructor, mode int) ast.NodeId {
	start := p.here()
	expr := p.parseExpr95(cs, mode|modeAny)
	for startsTerm(p.kind()) && !p.atComparison() {
		arg := p.parseExpr95(cs, mode|modeAny)
		p.close(arg)
		var err tlberr.TlbError
		expr, err = p.env.MkApplyGen(p.since(start), expr, arg)
		p.check(err)
	}
	p.checkMode(start, expr, mode)
	return expr
}

// parseExpr30 parses multiplication, either of naturals or as repetition n * T
func (p *Parser) parseExpr30(cs *ast.Constructor, mode int) ast.NodeId {
	start := p.here()
	expr := p.parseExpr90(cs, mode)
	for p.kind() == '*' {
		p.close(expr)
		if !p.info(expr).IsNat {
			p.sortErr(start, "cannot apply `*` to types")
		}
		p.next()
		expr2 := p.parseExpr90(cs, mode)
		p.close(expr2)
		if p.info(expr2).IsNat {
			var err tlberr.TlbError
			expr, err = p.env.MkMulInt(p.since(start), expr, expr2)
			p.check(err)
		} else {
			p.check(p.env.NoTchk(expr2))
			expr = p.env.MkTuple(p.since(start), expr, expr2)
		}
	}
	p.checkMode(start, expr, mode)
	return expr
}

func (p *Parser) parseExpr20(cs *ast.Constructor, mode int) ast.NodeId {
	start := p.here()
	expr := p.parseExpr30(cs, mode)
	for p.kind() == '+' {
		p.close(expr)
		if mode&modeNat == 0 {
			p.sortErr(start, "sum cannot be used instead of a type expression")
		}
		if !p.info(expr).IsNat {
			p.sortErr(start, "cannot apply `+` to types")
		}
		p.next()
		expr2 := p.parseExpr30(cs, mode&^modeType)
		p.close(expr2)
		if p.info(expr).Negated && p.info(expr2).Negated {
			p.polarityErr(start, "cannot add two values of negative polarity")
		}
		expr = p.env.MkAdd(p.since(start), expr, expr2)
	}
	p.checkMode(start, expr, mode)
	return expr
}

// atComparison reports whether the current token is one of = < > <= >=.
// The lexer yields < and > as plain identifiers.
func (p *Parser) atComparison() bool {
	switch cur := p.lex.Cur(); cur.Kind {
	case '=', lexer.Leq, lexer.Geq:
		return true
	case lexer.Ident:
		return cur.Str == "<" || cur.Str == ">"
	}
	return false
}

// parseExpr10 parses integer comparisons, which are types inhabited only when
// the comparison holds. a > b and a >= b are rewritten as b < a and b <= a.
func (p *Parser) parseExpr10(cs *ast.Constructor, mode int) ast.NodeId {
	start := p.here()
	expr := p.parseExpr20(cs, mode|modeAny)
	if !p.atComparison() {
		p.checkMode(start, expr, mode)
		return expr
	}
	op := p.lex.Cur()
	p.close(expr)
	if mode&modeType == 0 {
		p.sortErr(start, "comparison result used as an integer")
	}
	if !p.info(expr).IsNat {
		p.sortErr(start, "cannot apply integer comparison to types")
	}
	p.next()
	expr2 := p.parseExpr20(cs, (mode&^modeType)|modeNat)
	p.close(expr2)
	if !p.info(expr2).IsNat {
		p.sortErr(start, "cannot apply integer comparison to types")
	}
	name, t := p.env.EqName, p.env.Eq
	switch {
	case op.Kind == lexer.Leq || op.Kind == lexer.Geq:
		name, t = p.env.LeqName, p.env.Leq
	case op.Kind == lexer.Ident:
		name, t = p.env.LessName, p.env.Less
	}
	if op.Kind == lexer.Geq || op.Str == ">" {
		expr, expr2 = expr2, expr
	}
	where := p.since(start)
	cmp := p.env.MkApplyEmpty(op.Range, name, t)
	cmp, err := p.env.MkApplyGen(where, cmp, expr)
	p.check(err)
	cmp, err = p.env.MkApplyGen(where, cmp, expr2)
	p.check(err)
	p.info(cmp).Where = where
	p.checkMode(start, cmp, mode)
	return cmp
}

func (p *Parser) parseExpr(cs *ast.Constructor, mode int) ast.NodeId {
	return p.parseExpr10(cs, mode)
}
