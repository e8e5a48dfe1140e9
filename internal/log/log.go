package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
)

// Sections used across the compiler. Records at Warn or above are always shown.
const (
	SectionLexer    = "lexer"
	SectionParser   = "parser"
	SectionBinder   = "binder"
	SectionAnalyzer = "analyzer"
	SectionCodegen  = "codegen"
	SectionCmd      = "cmd"
	SectionWatch    = "watch"
)

var (
	mu              sync.RWMutex
	enabledSections = []string{
		SectionCmd,
		SectionWatch,
	}
	level = new(slog.LevelVar)
)

func init() {
	level.Set(slog.LevelWarn)
}

var LoggerOpts = &slog.HandlerOptions{
	AddSource: false,
	Level:     level,
	ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == "time" {
			return slog.Attr{}
		}
		return a
	},
}

var output = &switchWriter{w: os.Stderr}

var DefaultLogger = slog.New(&filteringHandler{underlying: slog.NewTextHandler(output, LoggerOpts)})

// SetOutput redirects DefaultLogger and all loggers derived from it to w
func SetOutput(w io.Writer) {
	output.mu.Lock()
	defer output.mu.Unlock()
	output.w = w
}

type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// SetLevel changes the minimum level of DefaultLogger and all loggers derived from it.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// EnableSections allows Debug and Info records of the given sections through.
// The special section "*" enables every section.
func EnableSections(sections ...string) {
	mu.Lock()
	defer mu.Unlock()
	for _, s := range sections {
		if !slices.Contains(enabledSections, s) {
			enabledSections = append(enabledSections, s)
		}
	}
}

// SetVerbosity maps a -v count to a level: 0 is Warn, 1 is Info, 2 and more is Debug with every section enabled.
func SetVerbosity(v int) {
	switch {
	case v <= 0:
		SetLevel(slog.LevelWarn)
	case v == 1:
		SetLevel(slog.LevelInfo)
		EnableSections(SectionBinder, SectionAnalyzer, SectionCodegen)
	default:
		SetLevel(slog.LevelDebug)
		EnableSections("*")
	}
}

func sectionEnabled(section string) bool {
	mu.RLock()
	defer mu.RUnlock()
	return slices.ContainsFunc(enabledSections, func(enabled string) bool {
		return enabled == "*" || strings.HasPrefix(section, enabled)
	})
}

var _ slog.Handler = &filteringHandler{}

type filteringHandler struct {
	underlying slog.Handler
	sections   []string
}

func (f filteringHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return f.underlying.Enabled(ctx, level)
}

func (f filteringHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level >= slog.LevelWarn {
		return f.underlying.Handle(ctx, record)
	}
	// sections bound through With count as well as the record's own attrs
	wantSection := slices.ContainsFunc(f.sections, sectionEnabled)
	if !wantSection {
		record.Attrs(func(attr slog.Attr) bool {
			wantSection = attr.Key == "section" && sectionEnabled(attr.Value.String())
			return !wantSection
		})
	}
	if !wantSection {
		return nil
	}
	return f.underlying.Handle(ctx, record)
}

func (f filteringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sections := slices.Clone(f.sections)
	for _, attr := range attrs {
		if attr.Key == "section" {
			sections = append(sections, attr.Value.String())
		}
	}
	return &filteringHandler{
		underlying: f.underlying.WithAttrs(attrs),
		sections:   sections,
	}
}

func (f filteringHandler) WithGroup(name string) slog.Handler {
	return &filteringHandler{
		underlying: f.underlying.WithGroup(name),
		sections:   f.sections,
	}
}
