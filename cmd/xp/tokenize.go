package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"experimental/internal/diagfmt"
	"experimental/internal/driver"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] file.py",
	Short: "Tokenize a source file",
	Long:  `Tokenize prints the lossless token stream the rewriters work on`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func init() {
	tokenizeCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runTokenize(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	result, err := driver.Tokenize(args[0], current.maxDiags)
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}

	// Выводим диагностику в stderr, если есть
	if err := printDiagnostics(cmd.ErrOrStderr(), result.Bag, result.FileSet, "pretty", nil); err != nil {
		return err
	}

	switch format {
	case "pretty":
		err = diagfmt.FormatTokensPretty(cmd.OutOrStdout(), result.Tokens, result.File)
	case "json":
		err = diagfmt.FormatTokensJSON(cmd.OutOrStdout(), result.Tokens, result.File)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	if err == nil && result.Bag.HasErrors() {
		err = errDiagnostics
	}
	return err
}
