package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"experimental/internal/diag"
	"experimental/internal/diagfmt"
	"experimental/internal/source"
	"experimental/internal/version"
)

// errDiagnostics makes the command fail after its diagnostics were printed.
var errDiagnostics = errors.New("diagnostics reported errors")

// printDiagnostics renders bag on w in format (pretty|json|sarif).
func printDiagnostics(w io.Writer, bag *diag.Bag, fs *source.FileSet, format string, args []string) error {
	if bag.Len() == 0 && format == "pretty" {
		return nil
	}
	base, _ := os.Getwd()
	switch format {
	case "pretty":
		diagfmt.Pretty(w, bag, fs, diagfmt.PrettyOpts{
			Color:     current.color,
			Context:   2,
			PathMode:  diagfmt.PathModeAuto,
			BaseDir:   base,
			ShowNotes: true,
		})
		return nil
	case "json":
		return diagfmt.JSON(w, bag, diagfmt.JSONOpts{PathMode: diagfmt.PathModeAuto, BaseDir: base, IncludeNotes: true})
	case "sarif":
		return diagfmt.Sarif(w, bag, diagfmt.SarifRunMeta{
			ToolName:       "xp",
			ToolVersion:    version.Version,
			InvocationArgs: args,
			PathMode:       diagfmt.PathModeRelative,
			BaseDir:        base,
		})
	}
	return fmt.Errorf("unknown format: %s", format)
}

// reportError prints a single failure the way check prints diagnostics.
func reportError(w io.Writer, err error, fs *source.FileSet) error {
	bag := diag.NewBag(current.maxDiags)
	bag.AddError(err)
	if perr := printDiagnostics(w, bag, fs, "pretty", nil); perr != nil {
		return perr
	}
	return errDiagnostics
}
