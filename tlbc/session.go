// Package tlbc compiles TL-B schemas. A Session holds the state of one compilation:
// parse every source into it, check the scheme, then generate code with a backend.Emitter.
package tlbc

import (
	"bytes"
	"fmt"
	"go/token"
	"io"
	"log/slog"
	"os"

	"github.com/cottand/tlbc/backend"
	"github.com/cottand/tlbc/frontend/lexer"
	"github.com/cottand/tlbc/frontend/parser"
	"github.com/cottand/tlbc/frontend/tlberr"
	"github.com/cottand/tlbc/frontend/types"
	"github.com/cottand/tlbc/internal/log"
)

var sessionLogger = log.DefaultLogger.With("section", log.SectionParser)

type Options struct {
	// TagWarnings reports missing and mismatching constructor tags
	TagWarnings bool
}

// Session is a single compilation. Sessions share no state, so recompiling
// a schema from scratch is a matter of making a new one.
type Session struct {
	fSet    *token.FileSet
	env     *types.Env
	errors  *tlberr.Errors
	sources []string
	checked bool
}

func NewSession(opts Options) *Session {
	return &Session{
		fSet: token.NewFileSet(),
		env:  types.NewEnv(lexer.NewSymbols(), types.Options{TagWarnings: opts.TagWarnings}),
	}
}

// ParseSource adds the definitions in src to the Session.
// In interactive mode a failed definition is reported and parsing resumes after it.
// The returned errors are also accumulated in Errors.
func (s *Session) ParseSource(name string, src []byte, interactive bool) *tlberr.Errors {
	file := s.fSet.AddFile(name, -1, len(src))
	errs := parser.ParseSource(s.env, file, src, interactive)
	s.sources = append(s.sources, name)
	s.errors = s.errors.Merge(errs)
	sessionLogger.Info("parsed source", "file", name, "bytes", len(src), "errors", errs)
	return errs
}

// ParseFile reads and parses the schema at path.
// A Fatal is returned when the file cannot be read, and parse errors are returned as *tlberr.Errors.
func (s *Session) ParseFile(path string) error {
	if path == "" {
		return tlberr.NewFatal("source file name is an empty string")
	}
	src, err := os.ReadFile(path)
	if err != nil {
		sessionLogger.Debug("failed to read source", "file", path, "err", err)
		return tlberr.NewFatal("cannot open source file `%s`", path)
	}
	if errs := s.ParseSource(path, src, false); errs.HasError() {
		return errs
	}
	return nil
}

// ParseReader parses everything r produces, named as name in diagnostics
func (s *Session) ParseReader(name string, r io.Reader, interactive bool) error {
	src, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if errs := s.ParseSource(name, src, interactive); errs.HasError() {
		return errs
	}
	return nil
}

// Check runs the scheme passes over everything parsed so far. It fails early
// when a source had errors.
func (s *Session) Check() error {
	if s.errors.HasError() {
		return tlberr.NewFatal("%d errors in sources, not checking scheme", len(s.errors.Errors()))
	}
	if err := s.env.CheckScheme(); err != nil {
		return err
	}
	s.checked = true
	return nil
}

// Generate runs the emitter over the checked scheme
func (s *Session) Generate(e backend.Emitter, opts backend.Options) ([]byte, error) {
	if !s.checked {
		if err := s.Check(); err != nil {
			return nil, err
		}
	}
	if opts.Sources == nil {
		opts.Sources = s.sources
	}
	out, err := backend.Generate(s.env, e, opts)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", e.Name(), err)
	}
	log.DefaultLogger.Info("generated code", "section", log.SectionCodegen, "emitter", e.Name(), "bytes", len(out))
	return out, nil
}

func (s *Session) DumpTypes(w io.Writer) {
	s.env.DumpTypes(w)
}

func (s *Session) DumpConstExprs(w io.Writer) {
	s.env.DumpConstExprs(w)
}

func (s *Session) Warnings() []tlberr.Warning {
	return s.env.Warnings
}

// Errors returns the parse errors of every source so far
func (s *Session) Errors() *tlberr.Errors {
	return s.errors
}

func (s *Session) FileSet() *token.FileSet {
	return s.fSet
}

// Env exposes the checked types, for callers which plan code themselves
func (s *Session) Env() *types.Env {
	return s.env
}

// Sources lists the names of the parsed sources, in order
func (s *Session) Sources() []string {
	return s.sources
}

// FormatError renders err with positions resolved against the Session's sources
func (s *Session) FormatError(err error) string {
	if errs, ok := err.(*tlberr.Errors); ok {
		return errs.Format(s.fSet)
	}
	return err.Error()
}

// FormatWarnings renders every warning on its own line
func (s *Session) FormatWarnings() string {
	var buf bytes.Buffer
	for _, w := range s.env.Warnings {
		buf.WriteString(w.Format(s.fSet))
		buf.WriteByte('\n')
	}
	return buf.String()
}

func (s *Session) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("sources", s.sources),
		slog.Int("types", len(s.env.UserTypes())),
		slog.Any("errors", s.errors),
	)
}
