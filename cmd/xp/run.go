package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"experimental/internal/diag"
	"experimental/internal/hook"
	"experimental/internal/modrt"
	"experimental/internal/source"
	"experimental/internal/watch"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] file.py",
	Short: "Run a module with the experimental import hook installed",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().Bool("watch", false, "re-run when a source file under the search roots changes")
	runCmd.Flags().StringArray("path", nil, "extra module search root (repeatable)")
	runCmd.Flags().Bool("no-hook", false, "run without the import hook")
}

func runRun(cmd *cobra.Command, args []string) error {
	watching, _ := cmd.Flags().GetBool("watch")
	extra, _ := cmd.Flags().GetStringArray("path")
	noHook, _ := cmd.Flags().GetBool("no-hook")

	roots := current.cfg.Roots()
	for _, p := range extra {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		roots = append(roots, abs)
	}
	rt := modrt.New(modrt.Options{
		Roots:   roots,
		Stdout:  cmd.OutOrStdout(),
		Logger:  current.log,
		Metrics: current.metrics,
	})
	if !noHook {
		hook.Install(rt, current.pipeline)
	}

	ctx := cmd.Context()
	err := execMain(ctx, cmd.ErrOrStderr(), rt, args[0])
	if !watching {
		return err
	}

	w, werr := watch.New(rt, watch.Config{SkipHidden: true}, current.log)
	if werr != nil {
		return werr
	}
	defer w.Close()
	for _, r := range rt.Roots() {
		if werr := w.Add(r); werr != nil {
			return werr
		}
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "watching for changes, Ctrl-C to stop")
	return w.Run(ctx, func(ctx context.Context, changed []string) {
		current.log.Info("re-running", "changed", changed)
		_ = execMain(ctx, cmd.ErrOrStderr(), rt, args[0])
	})
}

// execMain runs path as __main__ and prints a failure with its source context.
func execMain(ctx context.Context, w io.Writer, rt *modrt.Runtime, path string) error {
	_, err := rt.ExecFile(ctx, path)
	if err == nil {
		return nil
	}
	var re *modrt.RuntimeError
	if errors.As(err, &re) {
		fmt.Fprintln(w, re.Backtrace())
	}
	return reportError(w, err, sourcesFor(err))
}

// sourcesFor loads the file an error points at so the report can quote it.
func sourcesFor(err error) *source.FileSet {
	fs := source.NewFileSet()
	d, ok := diag.FromError(err)
	if !ok || d.Pos.Path == "" {
		return fs
	}
	if _, statErr := os.Stat(filepath.FromSlash(d.Pos.Path)); statErr == nil {
		_, _ = fs.Load(filepath.FromSlash(d.Pos.Path))
	}
	return fs
}
