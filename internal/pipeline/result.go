package pipeline

import (
	"time"

	"go.starlark.net/starlark"

	"experimental/internal/detect"
	"experimental/internal/diag"
	"experimental/internal/edit"
	"experimental/internal/feature"
	"experimental/internal/host"
	"experimental/internal/rewrite"
	"experimental/internal/source"
)

// ModuleSource is the input of one run.
type ModuleSource struct {
	Name      string
	IsPackage bool
	File      *source.File
}

func (m *ModuleSource) unit() host.Unit {
	return host.Unit{Module: m.Name, IsPackage: m.IsPackage}
}

// Result is the outcome of a run, complete up to the last state reached.
type Result struct {
	Module   string
	Original *source.File
	Flags    feature.Set
	Requests []detect.Request

	// Output is the rebuilt source. Without active features it is the original text.
	Output []byte
	// Chain maps offsets of Output back to Original.
	Chain *edit.Chain

	// Compiled is the import-lowered text given to the host compiler.
	Compiled *source.File
	lowered  *edit.Map
	Program  *starlark.Program
	Cached   bool

	Casts []rewrite.CastUse
	// Diags holds warnings raised by the rewriters.
	Diags   *diag.Bag
	History []Step
	mark    time.Time
}

// State is the last state reached.
func (r *Result) State() State {
	if len(r.History) == 0 {
		return 0
	}
	return r.History[len(r.History)-1].State
}

// Locate maps an offset of Output to the original source.
func (r *Result) Locate(off uint32) source.Pos {
	return r.Original.Pos(r.Chain.ToOriginal(off))
}

// LocateCompiled maps a host position (1-based line, rune column) in the
// compiled text to the original source.
func (r *Result) LocateCompiled(line, col int32) source.Pos {
	if r.Compiled == nil {
		return source.Pos{Path: r.Original.Path, Line: uint32(max(line, 0)), Col: uint32(max(col, 0))}
	}
	off := host.Offset(r.Compiled, line, col)
	if r.lowered != nil {
		off = r.lowered.ToInput(off)
	}
	return r.Locate(off)
}

func (r *Result) push(s Step) {
	now := time.Now()
	if !r.mark.IsZero() {
		s.Elapsed = now.Sub(r.mark)
	}
	r.mark = now
	r.History = append(r.History, s)
}
