package tlberr

import (
	"fmt"
	"go/token"
	"runtime/debug"
	"strings"

	"github.com/cottand/tlbc/frontend/ast"
)

// enableDebugErrorPrinting makes errors include their stacktrace when printed
var enableDebugErrorPrinting = false

const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None ErrCode = iota
	Syntax
	UnexpectedToken
	Redefinition
	Arity
	Polarity
	Unbound
	ExprSort
	FinalizedType
	ImplicitType
	IntRange
	TooManyConstructors
)

// TlbError is an error positioned in a schema source
type TlbError interface {
	Error() string
	Code() ErrCode
	ast.Positioner

	withStack([]byte) TlbError
	getStack() []byte
}

// EnableDebugPrinting makes FormatWithCode include the frame that raised an error
func EnableDebugPrinting(on bool) {
	enableDebugErrorPrinting = on
}

func FormatWithCode(e TlbError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			if lines := strings.Split(stack, "\n"); len(lines) > 6 {
				stack = lines[6]
			}
		}
		return fmt.Sprintf("%s:(E%03d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

// FormatWithPosition prefixes FormatWithCode with file:line:col when fset knows the position
func FormatWithPosition(e TlbError, fset *token.FileSet) string {
	if fset == nil || !e.Pos().IsValid() {
		return FormatWithCode(e)
	}
	return fmt.Sprintf("%v: %s", fset.Position(e.Pos()), FormatWithCode(e))
}

func New[E TlbError](err E) TlbError {
	return err.withStack(debug.Stack())
}

type Unclassified struct {
	From error
	ast.Positioner
	stack []byte
}

func (e Unclassified) Error() string {
	return fmt.Sprintf("unclassified error: %v", e.From)
}
func (e Unclassified) Code() ErrCode    { return None }
func (e Unclassified) getStack() []byte { return e.stack }
func (e Unclassified) withStack(stack []byte) TlbError {
	e.stack = stack
	return e
}

// NewSyntax is a grammar violation described by its message
type NewSyntax struct {
	ast.Positioner
	Msg   string
	stack []byte
}

func (e NewSyntax) Error() string    { return e.Msg }
func (e NewSyntax) Code() ErrCode    { return Syntax }
func (e NewSyntax) getStack() []byte { return e.stack }
func (e NewSyntax) withStack(stack []byte) TlbError {
	e.stack = stack
	return e
}

type NewUnexpectedToken struct {
	ast.Positioner
	Expected string
	Found    string
	stack    []byte
}

func (e NewUnexpectedToken) Error() string {
	if e.Found == "" {
		return fmt.Sprintf("%s expected", e.Expected)
	}
	return fmt.Sprintf("%s expected instead of `%s`", e.Expected, e.Found)
}
func (e NewUnexpectedToken) Code() ErrCode    { return UnexpectedToken }
func (e NewUnexpectedToken) getStack() []byte { return e.stack }
func (e NewUnexpectedToken) withStack(stack []byte) TlbError {
	e.stack = stack
	return e
}

// NewRedefinition reports a field, parameter or constructor defined twice
type NewRedefinition struct {
	ast.Positioner
	What  string
	Name  string
	stack []byte
}

func (e NewRedefinition) Error() string {
	if e.What == "constructor" {
		return fmt.Sprintf("constructor `%s` redefined", e.Name)
	}
	return fmt.Sprintf("redefined %s %s", e.What, e.Name)
}
func (e NewRedefinition) Code() ErrCode    { return Redefinition }
func (e NewRedefinition) getStack() []byte { return e.stack }
func (e NewRedefinition) withStack(stack []byte) TlbError {
	e.stack = stack
	return e
}

type NewArity struct {
	ast.Positioner
	TypeName string
	// Redefined is set when a constructor disagrees with earlier ones, rather than an application
	Redefined bool
	stack     []byte
}

func (e NewArity) Error() string {
	if e.Redefined {
		return fmt.Sprintf("parametrized type `%s` redefined with different arity", e.TypeName)
	}
	return fmt.Sprintf("operator `%s` applied with incorrect number of arguments, partial type applications not supported", e.TypeName)
}
func (e NewArity) Code() ErrCode    { return Arity }
func (e NewArity) getStack() []byte { return e.stack }
func (e NewArity) withStack(stack []byte) TlbError {
	e.stack = stack
	return e
}

// NewPolarity reports a value used against its direction of computation
type NewPolarity struct {
	ast.Positioner
	Msg   string
	stack []byte
}

func (e NewPolarity) Error() string    { return e.Msg }
func (e NewPolarity) Code() ErrCode    { return Polarity }
func (e NewPolarity) getStack() []byte { return e.stack }
func (e NewPolarity) withStack(stack []byte) TlbError {
	e.stack = stack
	return e
}

type NewUnbound struct {
	ast.Positioner
	Field string
	// BeforeAssign is set when the field is read before it gets a value, rather than never getting one
	BeforeAssign bool
	stack        []byte
}

func (e NewUnbound) Error() string {
	if e.BeforeAssign {
		return fmt.Sprintf("variable `%s` used before being assigned to", e.Field)
	}
	return fmt.Sprintf("field `%s` is left unbound", e.Field)
}
func (e NewUnbound) Code() ErrCode    { return Unbound }
func (e NewUnbound) getStack() []byte { return e.stack }
func (e NewUnbound) withStack(stack []byte) TlbError {
	e.stack = stack
	return e
}

// NewExprSort reports a type expression where a natural number is required or the other way round
type NewExprSort struct {
	ast.Positioner
	Msg   string
	stack []byte
}

func (e NewExprSort) Error() string    { return e.Msg }
func (e NewExprSort) Code() ErrCode    { return ExprSort }
func (e NewExprSort) getStack() []byte { return e.stack }
func (e NewExprSort) withStack(stack []byte) TlbError {
	e.stack = stack
	return e
}

type NewFinalizedType struct {
	ast.Positioner
	TypeName string
	ConsName string
	stack    []byte
}

func (e NewFinalizedType) Error() string {
	if e.ConsName == "" {
		return fmt.Sprintf("cannot add new constructor to a finalized type `%s`", e.TypeName)
	}
	return fmt.Sprintf("cannot add new constructor `%s` to a finalized type `%s`", e.ConsName, e.TypeName)
}
func (e NewFinalizedType) Code() ErrCode    { return FinalizedType }
func (e NewFinalizedType) getStack() []byte { return e.stack }
func (e NewFinalizedType) withStack(stack []byte) TlbError {
	e.stack = stack
	return e
}

// NewImplicitType reports a type that is referred to but cannot be defined that way
type NewImplicitType struct {
	ast.Positioner
	TypeName string
	// NoConstructors is set when the type was referred to but never given constructors
	NoConstructors bool
	stack          []byte
}

func (e NewImplicitType) Error() string {
	if e.NoConstructors {
		return fmt.Sprintf("implicitly defined type `%s` has no constructors", e.TypeName)
	}
	return fmt.Sprintf("implicitly defined type `%s` must begin with an uppercase letter", e.TypeName)
}
func (e NewImplicitType) Code() ErrCode    { return ImplicitType }
func (e NewImplicitType) getStack() []byte { return e.stack }
func (e NewImplicitType) withStack(stack []byte) TlbError {
	e.stack = stack
	return e
}

type NewIntRange struct {
	ast.Positioner
	Msg   string
	stack []byte
}

func (e NewIntRange) Error() string    { return e.Msg }
func (e NewIntRange) Code() ErrCode    { return IntRange }
func (e NewIntRange) getStack() []byte { return e.stack }
func (e NewIntRange) withStack(stack []byte) TlbError {
	e.stack = stack
	return e
}

type NewTooManyConstructors struct {
	ast.Positioner
	TypeName string
	stack    []byte
}

func (e NewTooManyConstructors) Error() string {
	return fmt.Sprintf("cannot work with more than 64 constructors for type `%s`", e.TypeName)
}
func (e NewTooManyConstructors) Code() ErrCode    { return TooManyConstructors }
func (e NewTooManyConstructors) getStack() []byte { return e.stack }
func (e NewTooManyConstructors) withStack(stack []byte) TlbError {
	e.stack = stack
	return e
}
