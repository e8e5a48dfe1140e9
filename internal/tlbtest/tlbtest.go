// Package tlbtest parses schemas for tests of the packages that consume a checked environment.
package tlbtest

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cottand/tlbc/frontend/lexer"
	"github.com/cottand/tlbc/frontend/parser"
	"github.com/cottand/tlbc/frontend/types"
)

const (
	Bool = `
bool_false$0 = Bool;
bool_true$1 = Bool;
`
	Unary = `
unary_zero$0 = Unary ~0;
unary_succ$1 {n:#} x:(Unary ~n) = Unary ~(n + 1);
`
	Maybe = `
nothing$0 {X:Type} = Maybe X;
just$1 {X:Type} value:X = Maybe X;
`
)

// Env parses src as a single file and checks the resulting scheme
func Env(t *testing.T, src string) *types.Env {
	t.Helper()
	fset := token.NewFileSet()
	file := fset.AddFile("test.tlb", -1, len(src))
	env := types.NewEnv(lexer.NewSymbols(), types.Options{})
	errs := parser.ParseSource(env, file, []byte(src), false)
	require.False(t, errs.HasError(), errs.Format(fset))
	require.NoError(t, env.CheckScheme())
	return env
}
