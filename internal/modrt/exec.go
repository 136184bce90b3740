package modrt

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"go.starlark.net/starlark"

	"experimental/internal/host"
	"experimental/internal/source"
)

// Compiled is a module body ready to run.
type Compiled struct {
	Program *starlark.Program
	// Locate maps a compiler position to the module source. Nil means the
	// compiled text is the source.
	Locate func(line, col int32) source.Pos
}

const (
	localContext = "xp.context"
	localChecker = "xp.checker"
	localModule  = "xp.module"
)

func (rt *Runtime) newThread(ctx context.Context, name string, cc *cycleChecker, m *Module) (*starlark.Thread, func() bool) {
	th := &starlark.Thread{Name: name, Print: rt.print}
	th.SetLocal(localContext, ctx)
	th.SetLocal(localChecker, cc)
	th.SetLocal(localModule, m)
	stop := context.AfterFunc(ctx, func() { th.Cancel(context.Cause(ctx).Error()) })
	return th, stop
}

func (rt *Runtime) predeclared(m *Module) starlark.StringDict {
	d := maps.Clone(rt.helpers)
	d[host.ModuleName] = starlark.String(m.Name)
	if m.Path != "" {
		d[host.ModuleFile] = starlark.String(m.Path)
	} else {
		d[host.ModuleFile] = starlark.None
	}
	return d
}

// ExecProgram runs c as the body of m and stores the resulting namespace.
func (rt *Runtime) ExecProgram(ctx context.Context, m *Module, c Compiled) error {
	rt.mu.Lock()
	rt.locators[c.Program.Filename()] = c.Locate
	rt.mu.Unlock()
	th, stop := rt.newThread(ctx, "exec "+m.Name, checkerFrom(ctx), m)
	defer stop()
	globals, err := c.Program.Init(th, rt.predeclared(m))
	if globals != nil {
		m.SetGlobals(globals)
	}
	if err != nil {
		return rt.wrapEval(m, err)
	}
	return nil
}

// Call calls the module attribute fn with positional args.
func (rt *Runtime) Call(ctx context.Context, m *Module, fn string, args ...starlark.Value) (starlark.Value, error) {
	v, ok := m.Get(fn)
	if !ok {
		return nil, &ImportError{Module: m.Name, Name: fn}
	}
	th, stop := rt.newThread(ctx, "call "+m.Name+"."+fn, newCycleChecker(), m)
	defer stop()
	out, err := starlark.Call(th, v, starlark.Tuple(args), nil)
	if err != nil {
		return nil, rt.wrapEval(m, err)
	}
	return out, nil
}

// wrapEval turns an evaluation error into *RuntimeError with a mapped
// backtrace. A failed nested import is passed up as a load error instead, so
// the innermost cause stays reachable through errors.As.
func (rt *Runtime) wrapEval(m *Module, err error) error {
	var ee *starlark.EvalError
	if !errors.As(err, &ee) {
		return err
	}
	var (
		le *LoadError
		nf *NotFoundError
		ie *ImportError
		ce *ImportCycleError
	)
	if errors.As(err, &le) || errors.As(err, &nf) || errors.As(err, &ie) || errors.As(err, &ce) {
		return &LoadError{Module: m.Name, Path: m.Path, Err: err}
	}
	re := &RuntimeError{Module: m.Name, Msg: ee.Msg, Err: ee}
	for _, fr := range ee.CallStack {
		re.Frames = append(re.Frames, Frame{Func: fr.Name, Pos: rt.locate(fr.Pos.Filename(), fr.Pos.Line, fr.Pos.Col)})
	}
	return re
}

// locate maps a position in compiled text of a loaded file to its source.
func (rt *Runtime) locate(path string, line, col int32) source.Pos {
	rt.mu.Lock()
	loc, known := rt.locators[path]
	rt.mu.Unlock()
	switch {
	case !known:
		return source.Pos{}
	case loc == nil:
		return source.Pos{Path: path, Line: uint32(max(line, 0)), Col: uint32(max(col, 0))}
	}
	return loc(line, col)
}

// callSite is the source position of the module code calling the running builtin.
func (rt *Runtime) callSite(th *starlark.Thread) source.Pos {
	if th.CallStackDepth() < 2 {
		return source.Pos{}
	}
	fr := th.CallFrame(1)
	return rt.locate(fr.Pos.Filename(), fr.Pos.Line, fr.Pos.Col)
}

func threadContext(th *starlark.Thread) context.Context {
	if ctx, ok := th.Local(localContext).(context.Context); ok {
		return ctx
	}
	return context.Background()
}

func threadChecker(th *starlark.Thread) *cycleChecker {
	if cc, ok := th.Local(localChecker).(*cycleChecker); ok {
		return cc
	}
	return newCycleChecker()
}

func threadModule(th *starlark.Thread) *Module {
	m, _ := th.Local(localModule).(*Module)
	return m
}

func errorf(b *starlark.Builtin, format string, args ...any) error {
	return fmt.Errorf("%s: %s", b.Name(), fmt.Sprintf(format, args...))
}
