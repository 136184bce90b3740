package modrt

import (
	"fmt"
	"strings"

	"go.starlark.net/starlark"

	"experimental/internal/diag"
	"experimental/internal/source"
)

// LoadError wraps the failure of one module load.
type LoadError struct {
	Module string
	Path   string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("loading %s: %v", e.Module, e.Err)
	}
	return fmt.Sprintf("loading %s (%s): %v", e.Module, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// NotFoundError reports a module no finder knows about.
type NotFoundError struct {
	Name   string
	Reason string
	// Pos is the import site, when known.
	Pos source.Pos
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("no module named %q", e.Name)
	if e.Reason != "" {
		msg += "; " + e.Reason
	}
	return withPos(e.Pos, msg)
}
func (e *NotFoundError) Stage() diag.Stage    { return diag.StageLoad }
func (e *NotFoundError) Position() source.Pos { return e.Pos }
func (e *NotFoundError) FeatureName() string  { return "" }
func (e *NotFoundError) DiagCode() diag.Code  { return diag.LoadNotFound }

// ImportError reports a name missing from a loaded module.
type ImportError struct {
	Module string
	Name   string
	Pos    source.Pos
}

func (e *ImportError) Error() string {
	return withPos(e.Pos, fmt.Sprintf("cannot import name %q from %q", e.Name, e.Module))
}
func (e *ImportError) Stage() diag.Stage    { return diag.StageLoad }
func (e *ImportError) Position() source.Pos { return e.Pos }
func (e *ImportError) FeatureName() string  { return "" }
func (e *ImportError) DiagCode() diag.Code  { return diag.LoadNotFound }

// ImportCycleError reports modules that import each other while loading.
type ImportCycleError struct {
	Chain []string
}

func (e *ImportCycleError) Error() string {
	return "import cycle: " + strings.Join(e.Chain, " -> ")
}
func (e *ImportCycleError) Stage() diag.Stage    { return diag.StageLoad }
func (e *ImportCycleError) Position() source.Pos { return source.Pos{} }
func (e *ImportCycleError) FeatureName() string  { return "" }
func (e *ImportCycleError) DiagCode() diag.Code  { return diag.LoadCycle }

// Frame is one entry of a runtime backtrace, positioned in module source.
type Frame struct {
	Func string
	Pos  source.Pos
}

// RuntimeError is a failure while executing module code.
type RuntimeError struct {
	Module string
	Msg    string
	// Frames are outermost first.
	Frames []Frame
	Err    *starlark.EvalError
}

func (e *RuntimeError) Error() string { return withPos(e.Position(), e.Msg) }
func (e *RuntimeError) Unwrap() error { return e.Err }

// Position is the innermost frame with a source position.
func (e *RuntimeError) Position() source.Pos {
	for i := len(e.Frames) - 1; i >= 0; i-- {
		if e.Frames[i].Pos.Line > 0 {
			return e.Frames[i].Pos
		}
	}
	return source.Pos{}
}
func (e *RuntimeError) Stage() diag.Stage   { return diag.StageLoad }
func (e *RuntimeError) FeatureName() string { return "" }
func (e *RuntimeError) DiagCode() diag.Code { return diag.LoadExec }

// Backtrace renders the frames the way a traceback reads.
func (e *RuntimeError) Backtrace() string {
	var sb strings.Builder
	sb.WriteString("Traceback (most recent call last):\n")
	for _, f := range e.Frames {
		if f.Pos.Line == 0 {
			fmt.Fprintf(&sb, "  <builtin>: in %s\n", f.Func)
			continue
		}
		fmt.Fprintf(&sb, "  %s: in %s\n", f.Pos, f.Func)
	}
	sb.WriteString("Error: ")
	sb.WriteString(e.Msg)
	return sb.String()
}

func withPos(pos source.Pos, msg string) string {
	if pos.Line == 0 {
		return msg
	}
	return pos.String() + ": " + msg
}
