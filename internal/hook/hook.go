// Package hook plugs the rewrite pipeline into a module runtime: once
// installed, source modules that opt into experimental features are rewritten
// before they run, and every other module loads exactly as before.
package hook

import (
	"context"
	"sync"

	"experimental/internal/detect"
	"experimental/internal/modrt"
	"experimental/internal/pipeline"
)

// Loader rewrites opted-in modules and hands the rest to Next.
type Loader struct {
	Next     modrt.Loader
	Pipeline *pipeline.Pipeline
}

func (l *Loader) Kind() string { return "experimental" }

// Exec loads m. The marker check is a byte search, so modules that never
// mention the marker module pay nothing beyond reading the file.
func (l *Loader) Exec(ctx context.Context, rt *modrt.Runtime, m *modrt.Module) error {
	f, err := modrt.ReadSource(m.Path)
	if err != nil {
		return err
	}
	if !detect.Peek(f.Content) {
		return l.Next.Exec(ctx, rt, m)
	}
	res, err := l.Pipeline.Run(ctx, &pipeline.ModuleSource{Name: m.Name, IsPackage: m.IsPackage, File: f})
	if err != nil {
		return err
	}
	return rt.ExecProgram(ctx, m, modrt.Compiled{Program: res.Program, Locate: res.LocateCompiled})
}

var mu sync.Mutex

// Install puts the experimental loader in front of rt's source loader. It
// reports false when a hook was already installed.
func Install(rt *modrt.Runtime, p *pipeline.Pipeline) bool {
	mu.Lock()
	defer mu.Unlock()
	cur := rt.SourceLoader()
	if _, ok := cur.(*Loader); ok {
		return false
	}
	if p == nil {
		p = pipeline.New(pipeline.Options{})
	}
	rt.SwapSourceLoader(&Loader{Next: cur, Pipeline: p})
	return true
}

// InstallDefault installs the hook with the default pipeline on the process runtime.
func InstallDefault() bool { return Install(modrt.Default(), nil) }

// IsInstalled reports whether rt runs source modules through the hook.
func IsInstalled(rt *modrt.Runtime) bool {
	_, ok := rt.SourceLoader().(*Loader)
	return ok
}

// Uninstall restores the loader the hook wrapped. Modules already loaded stay
// in the cache. It reports false when no hook was installed.
func Uninstall(rt *modrt.Runtime) bool {
	mu.Lock()
	defer mu.Unlock()
	l, ok := rt.SourceLoader().(*Loader)
	if !ok {
		return false
	}
	rt.SwapSourceLoader(l.Next)
	return true
}
