// Package host is the compiler shim in front of go.starlark.net.
//
// The host dialect is Starlark with Python import statements. Lower turns those
// statements into calls of predeclared helpers; Compile parses and resolves the
// result into a starlark.Program.
package host

import (
	"errors"
	"slices"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"experimental/internal/diag"
	"experimental/internal/source"
)

// Names predeclared in every module namespace.
const (
	Import       = "__import__"
	ImportModule = "__import_module__"
	ImportFrom   = "__import_from__"
	LazyImport   = "__lazy_import__"
	Omitted      = "__omitted__"
	ModuleName   = "__name__"
	ModuleFile   = "__file__"
)

// LateBound marks a late-bound default between the token and tree stages.
// It never reaches the compiler.
const LateBound = "__late_bound__"

var predeclared = []string{Import, ImportModule, ImportFrom, LazyImport, Omitted, ModuleName, ModuleFile}

// Predeclared returns the helper names every module namespace must bind.
func Predeclared() []string { return slices.Clone(predeclared) }

// IsPredeclared reports whether name is bound by the runtime rather than the module.
func IsPredeclared(name string) bool { return slices.Contains(predeclared, name) }

var fileOptions = syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Options returns the dialect options.
func Options() *syntax.FileOptions {
	o := fileOptions
	return &o
}

// Parse parses lowered or partially rewritten source.
func Parse(path string, src []byte) (*syntax.File, error) {
	return Options().Parse(path, src, 0)
}

// Compile parses and resolves src. Imports must already be lowered.
func Compile(path string, src []byte) (*starlark.Program, error) {
	f, err := Parse(path, src)
	if err != nil {
		return nil, err
	}
	return starlark.FileProgram(f, IsPredeclared)
}

// Problem is one compiler complaint in compiled-text coordinates.
type Problem struct {
	Code diag.Code
	Line int32
	Col  int32
	Msg  string
}

// Problems flattens syntax and resolve errors.
func Problems(err error) []Problem {
	var se syntax.Error
	if errors.As(err, &se) {
		return []Problem{{Code: diag.HostSyntax, Line: se.Pos.Line, Col: se.Pos.Col, Msg: se.Msg}}
	}
	var rl resolve.ErrorList
	if errors.As(err, &rl) {
		out := make([]Problem, 0, len(rl))
		for _, e := range rl {
			out = append(out, Problem{Code: diag.HostResolve, Line: e.Pos.Line, Col: e.Pos.Col, Msg: e.Msg})
		}
		return out
	}
	return nil
}

// Offset converts a compiler position into a byte offset of compiled.
func Offset(compiled *source.File, line, col int32) uint32 {
	if line <= 0 {
		return 0
	}
	if col <= 0 {
		col = 1
	}
	return compiled.Offset(source.LineCol{Line: uint32(line), Col: uint32(col)})
}

// Locator maps an offset of the compiled text to a position in the original source.
type Locator func(off uint32) source.Pos

// WrapError converts a compiler error into *diag.HostCompileError positioned by loc.
// All problems beyond the first are kept on the wrapped error.
func WrapError(err error, compiled *source.File, loc Locator, features []string) error {
	if err == nil {
		return nil
	}
	probs := Problems(err)
	if len(probs) == 0 {
		return &diag.HostCompileError{Code: diag.HostInfo, Msg: err.Error(), Features: features, Err: err}
	}
	p := probs[0]
	return &diag.HostCompileError{
		Code:     p.Code,
		Pos:      loc(Offset(compiled, p.Line, p.Col)),
		Msg:      p.Msg,
		Features: features,
		Err:      err,
	}
}
