package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"experimental/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "xp",
	Short: "Opt-in experimental syntax for Python-flavoured Starlark modules",
	Long: `xp rewrites modules that import features from __experimental__ into plain
host syntax, compiles them and runs them through an import hook.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setupEnv,
	PersistentPostRunE: teardownEnv,
}

func init() {
	rootCmd.Version = version.String()
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(rewriteCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	pf := rootCmd.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.String("config", "", "configuration file (default: xp.toml or xp.yaml found upwards)")
	pf.String("trace", "", "trace output file (- for stderr)")
	pf.String("trace-level", "", "trace level (off|error|stage|detail|debug)")
	pf.String("trace-mode", "", "trace storage mode (stream|ring|both)")
	pf.Int("trace-ring-size", 4096, "ring buffer size for trace events")
	pf.Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0 = off)")
	pf.String("log-level", "", "log level (debug|info|warn|error)")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	pf.Bool("no-cache", false, "do not read or write the compile cache")
	pf.Bool("metrics", false, "print load and rewrite counters on exit")
	pf.String("cpu-profile", "", "write a CPU profile to this file")
	pf.String("mem-profile", "", "write a heap profile to this file on exit")
	pf.String("runtime-trace", "", "write a Go runtime trace to this file")
}

// main executes the root command. Any error exits with status 1.
func main() {
	err := rootCmd.Execute()
	// PersistentPostRunE не вызывается, если команда упала
	_ = teardownEnv(nil, nil)
	if err != nil {
		if !errors.Is(err, errDiagnostics) {
			fmt.Fprintln(os.Stderr, "xp:", err)
		}
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
