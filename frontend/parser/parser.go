// Package parser turns TL-B constructor definitions into constructors bound to
// types of a types.Env.
//
// Each definition has the shape
//
//	name#tag field1:Type1 {n:#} {constraint} ... = TypeName param1 ~param2 ...;
//
// and type expressions are parsed by precedence climbing, from comparisons
// (loosest) down to terms.
package parser

import (
	"go/token"
	"log/slog"

	"github.com/cottand/tlbc/frontend/ast"
	"github.com/cottand/tlbc/frontend/lexer"
	"github.com/cottand/tlbc/frontend/tlberr"
	"github.com/cottand/tlbc/frontend/types"
	"github.com/cottand/tlbc/internal/log"
)

// bailout carries a parse error up the recursive descent, and is recovered
// before leaving the package
type bailout struct {
	err tlberr.TlbError
}

type Parser struct {
	env    *types.Env
	syms   *lexer.Symbols
	lex    *lexer.Lexer
	logger *slog.Logger

	lastEnd token.Pos
}

func newParser(env *types.Env, file *token.File, src []byte) *Parser {
	return &Parser{
		env:    env,
		syms:   env.Syms,
		lex:    lexer.New(file, src, env.Syms),
		logger: log.DefaultLogger.With("section", log.SectionParser),
	}
}

// ParseSource parses every constructor definition of src and binds it in env.
// It stops at the first error unless interactive is set, in which case the
// offending definition is skipped and parsing resumes after its `;`.
func ParseSource(env *types.Env, file *token.File, src []byte, interactive bool) *tlberr.Errors {
	p := newParser(env, file, src)
	var errs *tlberr.Errors
	for p.lex.Kind() != lexer.Eof {
		level := p.syms.Level()
		err := p.parseDefinition()
		if err == nil {
			continue
		}
		errs = errs.With(err)
		p.logger.Info("failed to parse constructor", "error", err.Error(), "pos", err.Pos())
		if !interactive {
			return errs
		}
		for p.syms.Level() > level {
			p.syms.CloseScope()
		}
		p.lex.SkipPast(';')
	}
	if err := p.lex.Err(); err != nil {
		errs = errs.With(err)
	}
	return errs
}

func (p *Parser) parseDefinition() (err tlberr.TlbError) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			err = b.err
		}
	}()
	p.parseConstructorDef()
	return nil
}

func (p *Parser) fail(err tlberr.TlbError) {
	panic(bailout{err: err})
}

func (p *Parser) check(err tlberr.TlbError) {
	if err != nil {
		p.fail(err)
	}
}

func (p *Parser) failSyntax(where ast.Positioner, msg string) {
	p.fail(tlberr.New(tlberr.NewSyntax{Positioner: where, Msg: msg}))
}

func (p *Parser) kind() lexer.Kind {
	return p.lex.Kind()
}

// here is the range of the current token
func (p *Parser) here() ast.Range {
	return p.lex.Cur().Range
}

// since spans from start to the end of the last consumed token
func (p *Parser) since(start ast.Range) ast.Range {
	if p.lastEnd < start.PosStart {
		return start
	}
	return ast.Range{PosStart: start.PosStart, PosEnd: p.lastEnd}
}

func (p *Parser) next() {
	p.lastEnd = p.lex.Cur().End()
	p.lex.Next()
}

func (p *Parser) expect(k lexer.Kind, what string) {
	if p.kind() != k {
		p.fail(p.lex.Unexpected(what))
	}
	p.next()
}
