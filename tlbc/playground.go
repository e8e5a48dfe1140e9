package tlbc

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cottand/tlbc/backend"
	"github.com/cottand/tlbc/backend/golang"
	"github.com/cottand/tlbc/backend/python"
)

// PlaygroundResult is what the browser playground shows for a schema.
// Error is set when the schema does not compile, and the other fields are empty then.
type PlaygroundResult struct {
	Error    string
	Types    string
	GoOutput string
	PyOutput string
}

// CompileForPlayground runs a whole compilation of a single schema held in memory,
// rendering every failure as text
func CompileForPlayground(schema string) (res PlaygroundResult) {
	defer func() {
		if r := recover(); r != nil {
			res = PlaygroundResult{Error: "compiler panicked: " + fmt.Sprint(r)}
		}
	}()
	s := NewSession(Options{})
	if errs := s.ParseSource("schema.tlb", []byte(schema), true); errs.HasError() {
		return PlaygroundResult{Error: "the schema has the following errors:\n" + errs.Format(s.FileSet())}
	}
	if err := s.Check(); err != nil {
		return PlaygroundResult{Error: "the schema is invalid:\n" + err.Error()}
	}

	var types strings.Builder
	s.DumpTypes(&types)
	res.Types = types.String()

	for _, out := range []struct {
		e   backend.Emitter
		dst *string
	}{
		{golang.New(), &res.GoOutput},
		{python.New(), &res.PyOutput},
	} {
		code, err := s.Generate(out.e, backend.Options{})
		if err != nil {
			return PlaygroundResult{Error: fmt.Sprintf("the compiler encountered a failure:\n%s", err)}
		}
		*out.dst = string(bytes.TrimSpace(code))
	}
	if w := s.FormatWarnings(); w != "" {
		res.Types = w + res.Types
	}
	return res
}
