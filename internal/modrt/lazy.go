package modrt

import (
	"context"
	"fmt"
	"sync"

	"go.starlark.net/starlark"
)

// LazyModule stands in for a module bound by a lazy import. The first
// attribute access imports the module; afterwards the proxy forwards to it and
// the owner's globals are rebound to the real module.
type LazyModule struct {
	rt    *Runtime
	name  string
	top   bool
	owner *Module
	ctx   context.Context
	cc    *cycleChecker

	mu  sync.Mutex
	mod *Module
}

// Name is the dotted module name the proxy imports.
func (l *LazyModule) Name() string { return l.name }

func (l *LazyModule) loaded() *Module {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mod
}

// Load imports the module if needed. A failed load is retried on the next access.
func (l *LazyModule) Load() (*Module, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mod != nil {
		return l.mod, nil
	}
	self := ""
	if l.owner != nil {
		self = l.owner.Name
	}
	leaf, err := l.rt.importName(l.ctx, l.cc, l.name, self)
	if err != nil {
		return nil, err
	}
	mod := leaf
	if l.top {
		if mod, err = l.rt.importName(l.ctx, l.cc, topLevel(l.name), self); err != nil {
			return nil, err
		}
	}
	l.mod = mod
	if l.owner != nil {
		l.owner.rebind(l, mod)
	}
	return mod, nil
}

func (l *LazyModule) String() string {
	if m := l.loaded(); m != nil {
		return m.String()
	}
	return fmt.Sprintf("<lazy module %q>", l.name)
}

func (l *LazyModule) Type() string          { return "module" }
func (l *LazyModule) Freeze()               {}
func (l *LazyModule) Truth() starlark.Bool  { return starlark.True }
func (l *LazyModule) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: module") }

func (l *LazyModule) Attr(name string) (starlark.Value, error) {
	m, err := l.Load()
	if err != nil {
		return nil, err
	}
	return m.Attr(name)
}

func (l *LazyModule) AttrNames() []string {
	m, err := l.Load()
	if err != nil {
		return nil
	}
	return m.AttrNames()
}

// omitted is the type of the sentinel that marks a parameter the caller left out.
type omitted struct{ _ byte }

// Omitted is bound as __omitted__ in every module.
var Omitted starlark.Value = &omitted{}

func (*omitted) String() string        { return "<omitted>" }
func (*omitted) Type() string          { return "omitted" }
func (*omitted) Freeze()               {}
func (*omitted) Truth() starlark.Bool  { return starlark.False }
func (*omitted) Hash() (uint32, error) { return 0, nil }
