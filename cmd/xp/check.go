package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"experimental/internal/driver"
	"experimental/internal/observ"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] path...",
	Short: "Rewrite and compile modules without running them",
	Long: `Check runs detection, rewriting and host compilation on every *.py and *.star
file under the given paths in parallel and reports all diagnostics.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Int("jobs", 0, "parallel jobs (0 = GOMAXPROCS)")
	checkCmd.Flags().String("format", "pretty", "diagnostics format (pretty|json|sarif)")
	checkCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	checkCmd.Flags().Bool("timings", false, "print time spent per pipeline step")
}

func runCheck(cmd *cobra.Command, args []string) error {
	jobs, _ := cmd.Flags().GetInt("jobs")
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	uiValue, _ := cmd.Flags().GetString("ui")
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	timings, _ := cmd.Flags().GetBool("timings")

	opts := driver.CheckOptions{
		Pipeline:       current.pipeline,
		Jobs:           jobs,
		MaxDiagnostics: current.maxDiags,
	}
	if timings {
		opts.Timer = observ.NewTimer()
	}
	var res *driver.CheckResult
	// прогресс рисуется только рядом с текстовым выводом
	if format == "pretty" && shouldUseTUI(mode) {
		res, err = runCheckWithUI(cmd.Context(), "checking", args, opts)
	} else {
		res, err = driver.Check(cmd.Context(), args, opts)
	}
	if err != nil {
		return err
	}
	if opts.Timer != nil {
		fmt.Fprint(cmd.ErrOrStderr(), opts.Timer.Summary())
	}

	// json и sarif идут в stdout, чтобы их можно было перенаправить
	w := cmd.ErrOrStderr()
	if format != "pretty" {
		w = cmd.OutOrStdout()
	}
	if err := printDiagnostics(w, res.Bag, res.FileSet, format, args); err != nil {
		return err
	}
	for _, f := range res.Files {
		current.log.Debug("checked", "module", f.Module, "path", f.Path, "elapsed", f.Elapsed)
	}
	if res.Bag.HasErrors() {
		return errDiagnostics
	}
	if format == "pretty" {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d files ok\n", len(res.Files))
	}
	return nil
}
