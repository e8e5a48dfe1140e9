package tlberr

import (
	"fmt"
	"go/token"
	"log/slog"
	"strings"
)

type Errors struct {
	errs []TlbError
}

func (r *Errors) With(err ...TlbError) *Errors {
	if r == nil {
		return &Errors{errs: err}
	}
	for _, err := range err {
		r.errs = append(r.errs, err)
	}
	return r
}

func (r *Errors) Merge(err *Errors) *Errors {
	if r == nil {
		return err
	}
	if err == nil {
		return r
	}
	if len(err.errs) == 0 {
		return r
	}
	return r.With(err.errs...)
}

func (r *Errors) Errors() []TlbError {
	if r == nil {
		return nil
	}
	return r.errs
}

func (r *Errors) HasError() bool {
	if r == nil {
		return false
	}
	return len(r.errs) > 0
}

// Format renders every error on its own line, with positions resolved through fset
func (r *Errors) Format(fset *token.FileSet) string {
	sb := strings.Builder{}
	for i, err := range r.Errors() {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(FormatWithPosition(err, fset))
	}
	return sb.String()
}

// Error renders the errors without positions. Use Format when a FileSet is at hand.
func (r *Errors) Error() string {
	msgs := make([]string, 0, len(r.Errors()))
	for _, err := range r.Errors() {
		msgs = append(msgs, FormatWithCode(err))
	}
	return strings.Join(msgs, "\n")
}

func (r *Errors) LogValue() slog.Value {
	var vals []slog.Attr
	for i, v := range r.Errors() {
		vals = append(vals, slog.Attr{
			Key: fmt.Sprint("e", i),
			Value: slog.GroupValue(
				slog.Attr{
					Key:   "msg",
					Value: slog.StringValue(FormatWithCode(v)),
				},
			),
		})
	}
	return slog.GroupValue(vals...)
}

// Fatal aborts a compilation as a whole. It carries no position.
type Fatal struct {
	Msg string
	// Details holds extra diagnostic lines, such as the constructors taking part in a conflict
	Details []string
}

func (f *Fatal) Error() string {
	if len(f.Details) == 0 {
		return f.Msg
	}
	return f.Msg + "\n" + strings.Join(f.Details, "\n")
}

func NewFatal(format string, args ...any) *Fatal {
	return &Fatal{Msg: fmt.Sprintf(format, args...)}
}

// Warning is a positioned diagnostic which never stops a compilation
type Warning struct {
	Where token.Pos
	Msg   string
}

func (w Warning) Format(fset *token.FileSet) string {
	if fset == nil || !w.Where.IsValid() {
		return "warning: " + w.Msg
	}
	return fmt.Sprintf("%v: warning: %s", fset.Position(w.Where), w.Msg)
}
