package modrt

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"experimental/internal/edit"
	"experimental/internal/host"
	"experimental/internal/lexer"
	"experimental/internal/source"
)

// SourceLoader runs source files through the host compiler only.
type SourceLoader struct{}

func (SourceLoader) Kind() string { return "source" }

func (SourceLoader) Exec(ctx context.Context, rt *Runtime, m *Module) error {
	f, err := ReadSource(m.Path)
	if err != nil {
		return err
	}
	c, err := CompileSource(f, host.Unit{Module: m.Name, IsPackage: m.IsPackage})
	if err != nil {
		return err
	}
	return rt.ExecProgram(ctx, m, c)
}

// ReadSource reads and normalizes a module file.
func ReadSource(path string) (*source.File, error) {
	// #nosec G304 -- path comes from a finder
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content, flags := source.Normalize(data)
	return source.NewFile(path, content, flags), nil
}

// CompileSource lowers the imports of f and compiles it. Compiler errors are
// *diag.HostCompileError positioned in f.
func CompileSource(f *source.File, u host.Unit) (Compiled, error) {
	toks, err := lexer.Tokenize(f)
	if err != nil {
		return Compiled{}, err
	}
	edits, err := host.Lower(f.Content, toks, u)
	if err != nil {
		return Compiled{}, err
	}
	lowered, m, err := edit.Apply(f.Content, edits)
	if err != nil {
		return Compiled{}, err
	}
	compiled := source.NewFile(f.Path, lowered, source.FileVirtual)
	locate := func(line, col int32) source.Pos {
		return f.Pos(m.ToInput(host.Offset(compiled, line, col)))
	}
	prog, err := host.Compile(f.Path, lowered)
	if err != nil {
		return Compiled{}, host.WrapError(err, compiled, func(off uint32) source.Pos { return f.Pos(m.ToInput(off)) }, nil)
	}
	return Compiled{Program: prog, Locate: locate}, nil
}

// ExecFile runs the file at path as module __main__ with the current source
// loader. The file's directory becomes a search root.
func (rt *Runtime) ExecFile(ctx context.Context, path string) (*Module, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	rt.AddRoot(filepath.Dir(abs))
	m := NewModule("__main__", abs, false)
	ctx = withChecker(ctx, newCycleChecker())
	if err := rt.SourceLoader().Exec(ctx, rt, m); err != nil {
		return m, &LoadError{Module: m.Name, Path: abs, Err: err}
	}
	return m, nil
}

// ModuleName derives the dotted module name of a file under root.
func ModuleName(root, path string) (name string, isPackage bool, ok bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false, false
	}
	ext := filepath.Ext(rel)
	known := false
	for _, suf := range Suffixes {
		known = known || ext == suf
	}
	if !known {
		return "", false, false
	}
	rel = strings.TrimSuffix(rel, ext)
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if parts[len(parts)-1] == "__init__" {
		parts, isPackage = parts[:len(parts)-1], true
	}
	if len(parts) == 0 {
		return "", false, false
	}
	return strings.Join(parts, "."), isPackage, true
}
