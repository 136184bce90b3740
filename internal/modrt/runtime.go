package modrt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.starlark.net/starlark"

	"experimental/internal/metrics"
	"experimental/internal/source"
	"experimental/internal/trace"
)

// Options configures a Runtime.
type Options struct {
	Roots   []string
	Stdout  io.Writer
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Runtime owns the module cache and the import machinery. Safe for concurrent
// use: each module is executed once, and concurrent importers wait for it.
type Runtime struct {
	log     *slog.Logger
	metrics *metrics.Metrics
	stdout  io.Writer
	outMu   sync.Mutex

	mu            sync.Mutex
	roots         []string
	pathHooks     []PathHook
	importerCache map[string]Finder
	metaPath      []Finder
	sourceLoader  Loader
	natives       map[string]func() starlark.StringDict
	entries       map[string]*entry
	locators      map[string]func(line, col int32) source.Pos

	helpers starlark.StringDict
}

// New returns a runtime with the native modules registered and the default
// source loader installed.
func New(opts Options) *Runtime {
	rt := &Runtime{
		log:           opts.Logger,
		metrics:       opts.Metrics,
		stdout:        opts.Stdout,
		roots:         slices.Clone(opts.Roots),
		pathHooks:     []PathHook{FileHook},
		importerCache: make(map[string]Finder),
		sourceLoader:  SourceLoader{},
		natives:       make(map[string]func() starlark.StringDict),
		entries:       make(map[string]*entry),
		locators:      make(map[string]func(line, col int32) source.Pos),
	}
	if rt.log == nil {
		rt.log = slog.New(slog.DiscardHandler)
	}
	if rt.stdout == nil {
		rt.stdout = os.Stdout
	}
	rt.metaPath = []Finder{nativeFinder{rt}, pathFinder{rt}}
	rt.helpers = rt.newHelpers()
	registerNatives(rt)
	return rt
}

var defaultRuntime = sync.OnceValue(func() *Runtime { return New(Options{}) })

// Default is the process-wide runtime.
func Default() *Runtime { return defaultRuntime() }

// Roots returns the search roots in lookup order.
func (rt *Runtime) Roots() []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return slices.Clone(rt.roots)
}

// AddRoot appends a search root unless it is already present.
func (rt *Runtime) AddRoot(dir string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if !slices.Contains(rt.roots, dir) {
		rt.roots = append(rt.roots, dir)
	}
}

// AddPathHook puts hook in front of the existing path hooks.
func (rt *Runtime) AddPathHook(hook PathHook) {
	rt.mu.Lock()
	rt.pathHooks = append([]PathHook{hook}, rt.pathHooks...)
	rt.mu.Unlock()
	rt.InvalidateCaches()
}

// SourceLoader is the loader file finders hand out for source files.
func (rt *Runtime) SourceLoader() Loader {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.sourceLoader
}

// SwapSourceLoader installs l and returns the loader it replaced.
func (rt *Runtime) SwapSourceLoader(l Loader) Loader {
	rt.mu.Lock()
	prev := rt.sourceLoader
	rt.sourceLoader = l
	rt.mu.Unlock()
	rt.InvalidateCaches()
	return prev
}

// InvalidateCaches drops the per-root finders so the next lookup rebuilds them
// through the path hooks.
func (rt *Runtime) InvalidateCaches() {
	rt.mu.Lock()
	clear(rt.importerCache)
	rt.mu.Unlock()
}

func (rt *Runtime) finderFor(root string) Finder {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if f, ok := rt.importerCache[root]; ok {
		return f
	}
	var found Finder
	for _, hook := range rt.pathHooks {
		if f, ok := hook(rt, root); ok {
			found = f
			break
		}
	}
	// nil тоже кешируется: корень без подходящего хука не проверяем повторно
	rt.importerCache[root] = found
	return found
}

// Import loads name and its parent packages and returns the leaf module.
func (rt *Runtime) Import(ctx context.Context, name string) (*Module, error) {
	return rt.importName(ctx, newCycleChecker(), name, "")
}

// IsLoaded reports whether name finished loading successfully.
func (rt *Runtime) IsLoaded(name string) bool {
	rt.mu.Lock()
	e, ok := rt.entries[name]
	rt.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case <-e.ready:
		return e.err == nil
	default:
		return false
	}
}

// Loaded returns the names of successfully loaded modules, sorted.
func (rt *Runtime) Loaded() []string {
	rt.mu.Lock()
	names := make([]string, 0, len(rt.entries))
	for name := range rt.entries {
		names = append(names, name)
	}
	rt.mu.Unlock()
	out := names[:0]
	for _, name := range names {
		if rt.IsLoaded(name) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// Invalidate forgets the named modules and their submodules, so the next
// import executes them again. Modules still loading are left alone.
func (rt *Runtime) Invalidate(names ...string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for key, e := range rt.entries {
		for _, name := range names {
			if key == name || strings.HasPrefix(key, name+".") {
				if e.finished() {
					delete(rt.entries, key)
				}
			}
		}
	}
}

// InvalidatePath forgets every module loaded from path. It reports whether any was found.
func (rt *Runtime) InvalidatePath(path string) bool {
	var names []string
	rt.mu.Lock()
	for key, e := range rt.entries {
		if e.finished() && e.mod != nil && e.mod.Path == path {
			names = append(names, key)
		}
	}
	rt.mu.Unlock()
	rt.Invalidate(names...)
	return len(names) > 0
}

// InvalidateAll forgets every module loaded from a file.
func (rt *Runtime) InvalidateAll() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for key, e := range rt.entries {
		if e.finished() && (e.mod == nil || e.mod.Path != "") {
			delete(rt.entries, key)
		}
	}
}

// importName loads every prefix of name and returns the leaf. self is the
// module whose code asks; it may see its own packages while they are still
// executing, as a package __init__ importing its submodules does.
func (rt *Runtime) importName(ctx context.Context, cc *cycleChecker, name, self string) (*Module, error) {
	if name == "" || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return nil, &NotFoundError{Name: name, Reason: "module names must be absolute"}
	}
	var parent *Module
	parts := strings.Split(name, ".")
	for i := range parts {
		prefix := strings.Join(parts[:i+1], ".")
		if parent != nil && !parent.IsPackage {
			return nil, &NotFoundError{Name: prefix, Reason: fmt.Sprintf("%q is not a package", parent.Name)}
		}
		m, err := rt.get(ctx, cc, prefix, self)
		if err != nil {
			return nil, err
		}
		if parent != nil {
			parent.setSub(parts[i], m)
		}
		parent = m
	}
	return parent, nil
}

// entry is one module in the cache. ready is closed once mod or err is set.
type entry struct {
	name    string
	owner   atomic.Pointer[cycleChecker]
	partial atomic.Pointer[Module]
	mod     *Module
	err     error
	ready   chan struct{}
}

func (e *entry) finished() bool {
	select {
	case <-e.ready:
		return true
	default:
		return false
	}
}

// cycleChecker belongs to one thread of loading: a top-level import and the
// nested imports it triggers. waitsFor is the entry it is blocked on.
type cycleChecker struct {
	waitsFor atomic.Pointer[entry]

	mu    sync.Mutex
	stack []string
}

func newCycleChecker() *cycleChecker { return &cycleChecker{} }

func (cc *cycleChecker) push(name string) {
	cc.mu.Lock()
	cc.stack = append(cc.stack, name)
	cc.mu.Unlock()
}

func (cc *cycleChecker) pop() {
	cc.mu.Lock()
	cc.stack = cc.stack[:len(cc.stack)-1]
	cc.mu.Unlock()
}

// chainTo returns the loads from name to the innermost one.
func (cc *cycleChecker) chainTo(name string) []string {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if i := slices.Index(cc.stack, name); i >= 0 {
		return slices.Clone(cc.stack[i:])
	}
	return slices.Clone(cc.stack)
}

// cycleCheck reports a path in the waits-for graph from e back to me.
func cycleCheck(e *entry, me *cycleChecker) error {
	var names []string
	for e != nil {
		cc := e.owner.Load()
		if cc == nil {
			return nil
		}
		names = append(names, e.name)
		if cc == me {
			return &ImportCycleError{Chain: append(me.chainTo(e.name), names...)}
		}
		e = cc.waitsFor.Load()
	}
	return nil
}

func (rt *Runtime) get(ctx context.Context, cc *cycleChecker, name, self string) (*Module, error) {
	rt.mu.Lock()
	e := rt.entries[name]
	if e != nil {
		rt.mu.Unlock()
		if e.owner.Load() == cc && within(self, name) {
			if m := e.partial.Load(); m != nil {
				return m, nil
			}
		}
		if err := cycleCheck(e, cc); err != nil {
			return nil, err
		}
		cc.waitsFor.Store(e)
		select {
		case <-e.ready:
		case <-ctx.Done():
			cc.waitsFor.Store(nil)
			return nil, ctx.Err()
		}
		cc.waitsFor.Store(nil)
		return e.mod, e.err
	}

	e = &entry{name: name, ready: make(chan struct{})}
	rt.entries[name] = e
	rt.mu.Unlock()

	e.owner.Store(cc)
	cc.push(name)
	e.mod, e.err = rt.load(ctx, cc, e)
	cc.pop()
	e.owner.Store(nil)
	if e.err != nil {
		// неудачную загрузку можно повторить
		rt.mu.Lock()
		if rt.entries[name] == e {
			delete(rt.entries, name)
		}
		rt.mu.Unlock()
	}
	close(e.ready)
	return e.mod, e.err
}

func (rt *Runtime) find(name string) (*Spec, error) {
	rt.mu.Lock()
	finders := slices.Clone(rt.metaPath)
	rt.mu.Unlock()
	for _, f := range finders {
		spec, err := f.FindSpec(name)
		if err != nil {
			return nil, err
		}
		if spec != nil {
			return spec, nil
		}
	}
	return nil, nil
}

func (rt *Runtime) load(ctx context.Context, cc *cycleChecker, e *entry) (mod *Module, err error) {
	name := e.name
	start := time.Now()
	ctx, sp := trace.Start(ctx, trace.ScopeModule, "load "+name)
	kind := "unknown"
	defer func() {
		sp.End(kind)
		rt.metrics.Load(kind, err)
		rt.metrics.Stage("load", time.Since(start))
	}()

	spec, err := rt.find(name)
	if err != nil {
		return nil, &LoadError{Module: name, Err: err}
	}
	if spec == nil {
		return nil, &NotFoundError{Name: name}
	}
	kind = loaderKind(spec.Loader)

	path := spec.Origin
	if spec.Namespace {
		path = ""
	}
	m := NewModule(name, path, spec.IsPackage)
	e.partial.Store(m)
	ctx = withChecker(ctx, cc)
	if err := spec.Loader.Exec(ctx, rt, m); err != nil {
		var le *LoadError
		if errors.As(err, &le) && le.Module == name {
			return nil, err
		}
		return nil, &LoadError{Module: name, Path: path, Err: err}
	}
	rt.log.Debug("module loaded", "module", name, "kind", kind, "path", path)
	return m, nil
}

// within reports whether self is pkg or lives inside it.
func within(self, pkg string) bool {
	return self == pkg || strings.HasPrefix(self, pkg+".")
}

func loaderKind(l Loader) string {
	if k, ok := l.(interface{ Kind() string }); ok {
		return k.Kind()
	}
	return "custom"
}

type checkerKey struct{}

// withChecker tunnels the cycle checker of a thread of loading through a
// loader, which only sees the context.
func withChecker(ctx context.Context, cc *cycleChecker) context.Context {
	return context.WithValue(ctx, checkerKey{}, cc)
}

func checkerFrom(ctx context.Context) *cycleChecker {
	if cc, ok := ctx.Value(checkerKey{}).(*cycleChecker); ok {
		return cc
	}
	return newCycleChecker()
}

func (rt *Runtime) print(_ *starlark.Thread, msg string) {
	rt.outMu.Lock()
	defer rt.outMu.Unlock()
	fmt.Fprintln(rt.stdout, msg) //nolint:errcheck
}
