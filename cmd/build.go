package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cottand/tlbc/backend"
	"github.com/cottand/tlbc/backend/golang"
	"github.com/cottand/tlbc/backend/python"
	"github.com/cottand/tlbc/frontend/tlberr"
	"github.com/cottand/tlbc/internal/log"
	"github.com/cottand/tlbc/tlbc"
)

var cmdLogger = log.DefaultLogger.With("section", log.SectionCmd)

var BuildCmd = &cobra.Command{
	Use:   "build [flags] file.tlb...",
	Short: "Check TL-B schemas and generate serialization code for them",
	Long: `Parses and checks every schema given, then generates Go code for the
types they define (Python code with -p). Without -o the code is printed to stdout.`,
	RunE:         runBuild,
	SilenceUsage: true,
}

// buildOptions are the settings of one compilation, set from flags and the config file
type buildOptions struct {
	verbosity    int
	python       bool
	checkOnly    bool
	headerOnly   bool
	sourceOnly   bool
	typeMembers  bool
	tagWarnings  bool
	appendSuffix bool
	interactive  bool
	namespace    string
	output       string
	configPath   string
}

var buildOpts buildOptions

func init() {
	addBuildFlags(BuildCmd.Flags(), &buildOpts)
}

// addBuildFlags registers the compiler flags on flags, so commands that compile share them.
// -h selects header-only output, so cobra's help flag keeps only its long form.
func addBuildFlags(flags *pflag.FlagSet, o *buildOptions) {
	flags.CountVarP(&o.verbosity, "verbose", "v", "increase verbosity; -v dumps types, -vvv also enables tag warnings")
	flags.BoolVarP(&o.python, "python", "p", false, "generate Python code")
	flags.BoolVarP(&o.checkOnly, "check", "q", false, "check the schemas without generating code")
	flags.BoolVarP(&o.headerOnly, "header", "h", false, "generate declarations only")
	flags.BoolVarP(&o.sourceOnly, "source", "c", false, "generate method implementations only")
	flags.BoolVarP(&o.typeMembers, "type-members", "T", false, "keep implicit Type fields in generated records")
	flags.BoolVarP(&o.tagWarnings, "tag-warnings", "t", false, "warn about missing or mismatching constructor tags")
	flags.BoolVarP(&o.appendSuffix, "append-suffix", "z", false, "append .go or .py to the output file name")
	flags.BoolVarP(&o.interactive, "interactive", "i", false, "also read definitions from stdin, recovering after errors")
	flags.StringVarP(&o.namespace, "namespace", "n", "", "package of the generated code (default \""+golang.DefaultPackage+"\")")
	flags.StringVarP(&o.output, "output", "o", "", "output file; stdout when empty")
	flags.StringVar(&o.configPath, "config", "", "yaml file with default settings")
	flags.Bool("help", false, "help for this command")
}

func runBuild(cmd *cobra.Command, args []string) error {
	opts, err := resolveOptions(cmd.Flags(), buildOpts)
	if err != nil {
		return err
	}
	log.SetVerbosity(opts.verbosity)
	return compile(opts, args, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// resolveOptions fills in o from the config file, for every flag not set explicitly
func resolveOptions(flags *pflag.FlagSet, o buildOptions) (buildOptions, error) {
	if o.configPath != "" {
		cfg, err := LoadConfig(o.configPath)
		if err != nil {
			return o, fmt.Errorf("could not load config: %w", err)
		}
		cfg.applyTo(flags, &o)
	}
	if o.verbosity >= 3 {
		o.tagWarnings = true
	}
	return o, nil
}

func (o buildOptions) emitter() backend.Emitter {
	if o.python {
		return python.New()
	}
	return golang.New()
}

func (o buildOptions) backendOptions() backend.Options {
	opts := backend.Options{
		Namespace:   o.namespace,
		TypeMembers: o.typeMembers,
	}
	if o.headerOnly {
		opts.Parts |= backend.PartHeader
	}
	if o.sourceOnly {
		opts.Parts |= backend.PartSource
	}
	return opts
}

// compile runs a whole compilation in a fresh Session. Errors in any source stop it
// before the scheme is checked, after every source has been reported on.
func compile(o buildOptions, files []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(files) == 0 && !o.interactive {
		return tlberr.NewFatal("no source files, no output")
	}
	s := tlbc.NewSession(tlbc.Options{TagWarnings: o.tagWarnings})
	failed := 0
	report := func(err error) error {
		var errs *tlberr.Errors
		if !errors.As(err, &errs) {
			return err
		}
		failed += len(errs.Errors())
		_, _ = fmt.Fprintln(stderr, s.FormatError(errs))
		return nil
	}
	for _, file := range files {
		if err := s.ParseFile(file); err != nil {
			if err := report(err); err != nil {
				return err
			}
		}
	}
	if o.interactive {
		if err := s.ParseReader("<stdin>", stdin, true); err != nil {
			if err := report(err); err != nil {
				return err
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d errors found in sources, no code generated", failed)
	}
	checkErr := s.Check()
	_, _ = io.WriteString(stderr, s.FormatWarnings())
	if checkErr != nil {
		return checkErr
	}
	cmdLogger.Info("scheme checked", "session", s)
	if o.verbosity > 0 {
		s.DumpTypes(stderr)
		s.DumpConstExprs(stderr)
	}
	if o.checkOnly {
		return nil
	}

	e := o.emitter()
	out, err := s.Generate(e, o.backendOptions())
	if err != nil {
		return err
	}
	if o.output == "" {
		_, err = stdout.Write(out)
		return err
	}
	path := o.output
	if o.appendSuffix {
		path += e.FileSuffix()
	}
	changed, err := writeIfChanged(path, out)
	if err != nil {
		return fmt.Errorf("could not write output: %w", err)
	}
	cmdLogger.Info("output written", "path", path, "changed", changed)
	return nil
}

// writeIfChanged leaves path untouched when it already holds data
func writeIfChanged(path string, data []byte) (bool, error) {
	old, err := os.ReadFile(path)
	if err == nil && bytes.Equal(old, data) {
		return false, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
