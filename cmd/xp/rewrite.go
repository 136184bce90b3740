package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"experimental/internal/diagfmt"
	"experimental/internal/driver"
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite [flags] file.py",
	Short: "Print the rewritten source of a module",
	Long: `Rewrite runs every feature the module opts into and prints the rebuilt
source the host compiler would see. Line numbers are preserved.`,
	Args: cobra.ExactArgs(1),
	RunE: runRewrite,
}

func init() {
	rewriteCmd.Flags().Bool("diff", false, "print only the changed lines")
	rewriteCmd.Flags().Bool("casts", false, "list elided casts on stderr")
}

func runRewrite(cmd *cobra.Command, args []string) error {
	diff, _ := cmd.Flags().GetBool("diff")
	casts, _ := cmd.Flags().GetBool("casts")

	result, err := driver.Rewrite(cmd.Context(), current.pipeline, args[0], current.maxDiags)
	if err != nil {
		return err
	}
	if err := printDiagnostics(cmd.ErrOrStderr(), result.Bag, result.FileSet, "pretty", nil); err != nil {
		return err
	}
	if result.Bag.HasErrors() {
		return errDiagnostics
	}

	res := result.Result
	out := cmd.OutOrStdout()
	if diff {
		diagfmt.Preview(out, res.Original.Path, res.Original.Content, res.Output, current.color)
	} else if _, err := out.Write(res.Output); err != nil {
		return err
	}
	if casts {
		for _, c := range res.Casts {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: elided %s (%s)\n", c.Pos, c.Local, c.Qualified)
		}
	}
	return nil
}
