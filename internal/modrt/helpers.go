package modrt

import (
	"errors"

	"go.starlark.net/starlark"

	"experimental/internal/host"
)

func (rt *Runtime) newHelpers() starlark.StringDict {
	return starlark.StringDict{
		host.Import:       starlark.NewBuiltin(host.Import, rt.builtinImport),
		host.ImportModule: starlark.NewBuiltin(host.ImportModule, rt.builtinImportModule),
		host.ImportFrom:   starlark.NewBuiltin(host.ImportFrom, rt.builtinImportFrom),
		host.LazyImport:   starlark.NewBuiltin(host.LazyImport, rt.builtinLazyImport),
		host.Omitted:      Omitted,
	}
}

// importAt imports name for the module running on th, attributing a missing
// module to the call site.
func (rt *Runtime) importAt(th *starlark.Thread, name string) (*Module, error) {
	m, err := rt.importName(threadContext(th), threadChecker(th), name, selfName(th))
	var nf *NotFoundError
	if errors.As(err, &nf) && nf.Pos.Line == 0 {
		nf.Pos = rt.callSite(th)
	}
	return m, err
}

// __import__("a.b") loads a and a.b and returns a.
func (rt *Runtime) builtinImport(th *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
		return nil, err
	}
	if _, err := rt.importAt(th, name); err != nil {
		return nil, err
	}
	return rt.importAt(th, topLevel(name))
}

// __import_module__("a.b") loads a and a.b and returns a.b.
func (rt *Runtime) builtinImportModule(th *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
		return nil, err
	}
	return rt.importAt(th, name)
}

// __import_from__("m", "x") returns attribute x of m, or the submodule m.x.
func (rt *Runtime) builtinImportFrom(th *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var modName, attr string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &modName, &attr); err != nil {
		return nil, err
	}
	m, err := rt.importAt(th, modName)
	if err != nil {
		return nil, err
	}
	if v, ok := m.Get(attr); ok {
		return v, nil
	}
	if m.IsPackage {
		sub, err := rt.importAt(th, modName+"."+attr)
		var nf *NotFoundError
		switch {
		case err == nil:
			return sub, nil
		case !errors.As(err, &nf) || nf.Name != modName+"."+attr:
			return nil, err
		}
	}
	return nil, &ImportError{Module: modName, Name: attr, Pos: rt.callSite(th)}
}

// __lazy_import__("a.b", top) binds a proxy; top selects a over a.b.
func (rt *Runtime) builtinLazyImport(th *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		name string
		top  bool
	)
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &name, &top); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errorf(b, "empty module name")
	}
	return &LazyModule{
		rt:    rt,
		name:  name,
		top:   top,
		owner: threadModule(th),
		ctx:   threadContext(th),
		cc:    threadChecker(th),
	}, nil
}

func selfName(th *starlark.Thread) string {
	if m := threadModule(th); m != nil {
		return m.Name
	}
	return ""
}

func topLevel(name string) string {
	for i := range len(name) {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return name
}
