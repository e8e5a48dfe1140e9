//go:build js && wasm

package tlbc

import (
	"syscall/js"
)

// CheckAndShowTypes checks the schema passed as the only argument and returns
// the type report, or the errors found in it
func CheckAndShowTypes(_ js.Value, args []js.Value) any {
	res := CompileForPlayground(args[0].String())
	if res.Error != "" {
		return res.Error
	}
	return res.Types
}

// CompileAndShowOutput compiles the schema passed as the only argument.
//
// output: { error: string } | { types: string, goOutput: string, pyOutput: string }
func CompileAndShowOutput(_ js.Value, args []js.Value) any {
	res := CompileForPlayground(args[0].String())
	if res.Error != "" {
		return js.ValueOf(map[string]any{
			"error": res.Error,
		})
	}
	return js.ValueOf(map[string]any{
		"types":    res.Types,
		"goOutput": res.GoOutput,
		"pyOutput": res.PyOutput,
	})
}
