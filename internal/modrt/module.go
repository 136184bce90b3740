// Package modrt is the module runtime: it finds, loads and caches host
// modules and binds the helpers lowered import statements call.
//
// Lookup follows a meta path of finders. The native finder serves Go-backed
// modules; the path finder asks one finder per search root, built by the path
// hooks. Source files are run by the runtime's source loader, which an import
// hook may replace.
package modrt

import (
	"fmt"
	"slices"
	"sync"

	"go.starlark.net/starlark"
)

// Module is a loaded module. Its attributes are the module globals plus the
// submodules imported through it.
type Module struct {
	Name      string
	Path      string
	IsPackage bool

	mu      sync.RWMutex
	globals starlark.StringDict
	subs    map[string]*Module
}

var (
	_ starlark.HasAttrs = (*Module)(nil)
	_ starlark.HasAttrs = (*LazyModule)(nil)
)

// NewModule returns an empty module.
func NewModule(name, path string, isPackage bool) *Module {
	return &Module{Name: name, Path: path, IsPackage: isPackage, globals: starlark.StringDict{}}
}

// Globals returns a copy of the module namespace.
func (m *Module) Globals() starlark.StringDict {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(starlark.StringDict, len(m.globals))
	for k, v := range m.globals {
		out[k] = v
	}
	return out
}

// SetGlobals replaces the namespace. Lazy proxies that already loaded are
// replaced by their module.
func (m *Module) SetGlobals(g starlark.StringDict) {
	for k, v := range g {
		if lm, ok := v.(*LazyModule); ok {
			if mod := lm.loaded(); mod != nil {
				g[k] = mod
			}
		}
	}
	m.mu.Lock()
	m.globals = g
	m.mu.Unlock()
}

// Get looks a name up in the namespace, then among submodules.
func (m *Module) Get(name string) (starlark.Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.globals[name]; ok {
		return v, true
	}
	if sub, ok := m.subs[name]; ok {
		return sub, true
	}
	return nil, false
}

func (m *Module) setSub(name string, sub *Module) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subs == nil {
		m.subs = make(map[string]*Module)
	}
	m.subs[name] = sub
}

// rebind replaces every global bound to old.
func (m *Module) rebind(old, repl starlark.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.globals {
		if v == old {
			m.globals[k] = repl
		}
	}
}

func (m *Module) String() string {
	if m.Path == "" {
		return fmt.Sprintf("<module %q (native)>", m.Name)
	}
	return fmt.Sprintf("<module %q from %q>", m.Name, m.Path)
}

func (m *Module) Type() string          { return "module" }
func (m *Module) Truth() starlark.Bool  { return starlark.True }
func (m *Module) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: module") }

// Freeze freezes the namespace values. The runtime itself never freezes modules.
func (m *Module) Freeze() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.globals.Freeze()
}

func (m *Module) Attr(name string) (starlark.Value, error) {
	if v, ok := m.Get(name); ok {
		return v, nil
	}
	return nil, nil
}

func (m *Module) AttrNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := m.globals.Keys()
	for k := range m.subs {
		if _, dup := m.globals[k]; !dup {
			names = append(names, k)
		}
	}
	slices.Sort(names)
	return names
}
