package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cottand/tlbc/backend"
	"github.com/cottand/tlbc/frontend/tlberr"
	"github.com/cottand/tlbc/internal/log"
)

const boolSchema = "bool_false$0 = Bool;\nbool_true$1 = Bool;\n"

func parseFlags(t *testing.T, args ...string) (buildOptions, *pflag.FlagSet) {
	t.Helper()
	var o buildOptions
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addBuildFlags(flags, &o)
	require.NoError(t, flags.Parse(args))
	return o, flags
}

func writeSchema(t *testing.T, dir, name, src string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(src), 0o644))
	return p
}

func TestFlagWiring(t *testing.T) {
	o, flags := parseFlags(t, "-vvv", "-p", "-z", "-T", "-n", "schema", "-o", "out", "-i")
	assert.Equal(t, 3, o.verbosity)
	assert.True(t, o.python)
	assert.True(t, o.appendSuffix)
	assert.True(t, o.typeMembers)
	assert.True(t, o.interactive)
	assert.Equal(t, "schema", o.namespace)
	assert.Equal(t, "out", o.output)
	assert.False(t, o.tagWarnings)

	o, err := resolveOptions(flags, o)
	require.NoError(t, err)
	assert.True(t, o.tagWarnings, "-vvv implies -t")
	assert.Equal(t, ".py", o.emitter().FileSuffix())
}

func TestPartsFlags(t *testing.T) {
	tests := []struct {
		args []string
		want backend.Parts
	}{
		{nil, 0},
		{[]string{"-h"}, backend.PartHeader},
		{[]string{"-c"}, backend.PartSource},
		{[]string{"-h", "-c"}, backend.PartHeader | backend.PartSource},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			o, _ := parseFlags(t, tt.args...)
			assert.Equal(t, tt.want, o.backendOptions().Parts)
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg := writeSchema(t, dir, "tlbc.yaml", `
namespace: fromconfig
python: true
verbosity: 1
appendSuffix: true
`)
	o, flags := parseFlags(t, "--config", cfg, "-n", "explicit")
	o, err := resolveOptions(flags, o)
	require.NoError(t, err)
	assert.Equal(t, "explicit", o.namespace)
	assert.True(t, o.python)
	assert.True(t, o.appendSuffix)
	assert.Equal(t, 1, o.verbosity)
	assert.False(t, o.tagWarnings)
}

func TestConfigUnknownKey(t *testing.T) {
	cfg := writeSchema(t, t.TempDir(), "tlbc.yaml", "namespaces: typo\n")
	_, err := LoadConfig(cfg)
	assert.ErrorContains(t, err, "namespaces")
}

func TestNoSources(t *testing.T) {
	err := compile(buildOptions{}, nil, nil, &bytes.Buffer{}, &bytes.Buffer{})
	var fatal *tlberr.Fatal
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, "no source files, no output", fatal.Msg)
}

func TestCompileToStdout(t *testing.T) {
	file := writeSchema(t, t.TempDir(), "bool.tlb", boolSchema)
	var stdout, stderr bytes.Buffer
	require.NoError(t, compile(buildOptions{namespace: "schema"}, []string{file}, nil, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "package schema\n")
	assert.Contains(t, stdout.String(), "type Bool struct")
	assert.Empty(t, stderr.String())
}

func TestCheckOnlyAndDumps(t *testing.T) {
	file := writeSchema(t, t.TempDir(), "bool.tlb", boolSchema)
	var stdout, stderr bytes.Buffer
	require.NoError(t, compile(buildOptions{checkOnly: true, verbosity: 1}, []string{file}, nil, &stdout, &stderr))
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "types defined")
	assert.Contains(t, stderr.String(), "constant expressions")
}

func TestInteractiveStdin(t *testing.T) {
	var stdout, stderr bytes.Buffer
	stdin := strings.NewReader(boolSchema)
	require.NoError(t, compile(buildOptions{interactive: true, python: true}, nil, stdin, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "class Bool(TLBComplex):")
}

func TestDiagnosticsPrintedOnce(t *testing.T) {
	var logged bytes.Buffer
	log.SetOutput(&logged)
	defer log.SetOutput(os.Stderr)
	log.SetVerbosity(0)

	file := writeSchema(t, t.TempDir(), "tags.tlb", "a = A;\nb#f2345678 = B;\n")
	var stderr bytes.Buffer
	require.NoError(t, compile(buildOptions{tagWarnings: true, checkOnly: true}, []string{file}, nil, &bytes.Buffer{}, &stderr))
	assert.Equal(t, 1, strings.Count(stderr.String(), "had no tag"), stderr.String())
	assert.Equal(t, 1, strings.Count(stderr.String(), "different from its computed tag"), stderr.String())
	assert.Contains(t, stderr.String(), "tags.tlb:1:")
	assert.Contains(t, stderr.String(), "tags.tlb:2:")
	assert.Empty(t, logged.String())

	big := writeSchema(t, t.TempDir(), "big.tlb", "big$_ a:bits1000 b:bits1000 = Big;\n")
	stderr.Reset()
	err := compile(buildOptions{checkOnly: true}, []string{big}, nil, &bytes.Buffer{}, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "never fits")
	assert.NotContains(t, logged.String(), "never fits")
}

func TestSourceErrorsSuppressOutput(t *testing.T) {
	dir := t.TempDir()
	good := writeSchema(t, dir, "good.tlb", boolSchema)
	bad := writeSchema(t, dir, "bad.tlb", "unit$_ = ;\n")
	out := filepath.Join(dir, "out.go")

	var stderr bytes.Buffer
	err := compile(buildOptions{output: out}, []string{good, bad}, nil, &bytes.Buffer{}, &stderr)
	require.Error(t, err)
	assert.Contains(t, stderr.String(), "bad.tlb:")
	assert.NoFileExists(t, out)
}

func TestMissingSource(t *testing.T) {
	err := compile(buildOptions{}, []string{filepath.Join(t.TempDir(), "nope.tlb")}, nil, &bytes.Buffer{}, &bytes.Buffer{})
	var fatal *tlberr.Fatal
	require.ErrorAs(t, err, &fatal)
	assert.Contains(t, fatal.Msg, "cannot open source file")
}

func TestOutputWrittenOnlyWhenChanged(t *testing.T) {
	dir := t.TempDir()
	file := writeSchema(t, dir, "bool.tlb", boolSchema)
	o := buildOptions{output: filepath.Join(dir, "bool"), appendSuffix: true}
	out := o.output + ".go"

	require.NoError(t, compile(o, []string{file}, nil, &bytes.Buffer{}, &bytes.Buffer{}))
	require.FileExists(t, out)
	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(out, old, old))

	require.NoError(t, compile(o, []string{file}, nil, &bytes.Buffer{}, &bytes.Buffer{}))
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(old), "unchanged output is not rewritten")

	writeSchema(t, dir, "bool.tlb", boolSchema+"unit$_ = Unit;\n")
	require.NoError(t, compile(o, []string{file}, nil, &bytes.Buffer{}, &bytes.Buffer{}))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "type Unit struct")
}

func TestWatchRebuilds(t *testing.T) {
	dir := t.TempDir()
	file := writeSchema(t, dir, "bool.tlb", boolSchema)
	out := filepath.Join(dir, "out.go")

	w, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer w.Close()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, w, buildOptions{output: out}, []string{file}, &bytes.Buffer{}, &bytes.Buffer{})
	}()

	contains := func(text string) func() bool {
		return func() bool {
			data, err := os.ReadFile(out)
			return err == nil && strings.Contains(string(data), text)
		}
	}
	require.Eventually(t, contains("type Bool struct"), 5*time.Second, 20*time.Millisecond)

	writeSchema(t, dir, "bool.tlb", boolSchema+"unit$_ = Unit;\n")
	require.Eventually(t, contains("type Unit struct"), 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
