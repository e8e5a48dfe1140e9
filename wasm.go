//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/cottand/tlbc/tlbc"
)

func main() {
	js.Global().Set("CheckAndShowTypes", js.FuncOf(tlbc.CheckAndShowTypes))
	js.Global().Set("CompileAndShowOutput", js.FuncOf(tlbc.CompileAndShowOutput))

	// wait indefinitely so that Go does not terminate execution
	// and the function remains available
	<-make(chan struct{})
}
