package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/cottand/tlbc/internal/log"
)

var watchLogger = log.DefaultLogger.With("section", log.SectionWatch)

var WatchCmd = &cobra.Command{
	Use:          "watch [flags] file.tlb...",
	Short:        "Rebuild whenever one of the schemas changes",
	RunE:         runWatch,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

var watchOpts buildOptions

// settle is how long to wait for more events before rebuilding, as editors often write a file in several steps
const settle = 100 * time.Millisecond

func init() {
	addBuildFlags(WatchCmd.Flags(), &watchOpts)
}

func runWatch(cmd *cobra.Command, args []string) error {
	opts, err := resolveOptions(cmd.Flags(), watchOpts)
	if err != nil {
		return err
	}
	opts.interactive = false
	log.SetVerbosity(opts.verbosity)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not start watching: %w", err)
	}
	defer w.Close()
	return watch(cmd.Context(), w, opts, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// watch compiles files once, then again after every write to or creation of one of them,
// until ctx is done. Directories are watched rather than files so that editors replacing a file are noticed.
func watch(ctx context.Context, w *fsnotify.Watcher, o buildOptions, files []string, stdout, stderr io.Writer) error {
	watched := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("could not resolve %s: %w", f, err)
		}
		watched[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("could not watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	rebuild := func() {
		if err := compile(o, files, nil, stdout, stderr); err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			watchLogger.Warn("build failed", "err", err)
			return
		}
		watchLogger.Info("build succeeded", "files", files)
	}
	rebuild()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !watched[abs] {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			watchLogger.Debug("schema changed", "file", ev.Name, "op", ev.Op.String())
			pending = time.After(settle)
		case <-pending:
			pending = nil
			rebuild()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			watchLogger.Warn("watch error", "err", err)
		}
	}
}
