package modrt

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// Suffixes are the source file suffixes, in lookup order.
var Suffixes = []string{".py", ".star"}

// Spec describes a module a finder located.
type Spec struct {
	Name      string
	Origin    string
	IsPackage bool
	// Namespace marks a directory package without an __init__ file.
	Namespace bool
	Loader    Loader
}

// Finder locates modules by absolute dotted name. A nil spec means not found.
type Finder interface {
	FindSpec(name string) (*Spec, error)
}

// Loader executes a module body into m.
type Loader interface {
	Exec(ctx context.Context, rt *Runtime, m *Module) error
}

// PathHook builds the finder for one search root, or reports that it does not
// handle the root.
type PathHook func(rt *Runtime, root string) (Finder, bool)

// FileHook serves directory roots with a FileFinder.
func FileHook(rt *Runtime, root string) (Finder, bool) {
	st, err := os.Stat(root)
	if err != nil || !st.IsDir() {
		return nil, false
	}
	return &FileFinder{Root: root, rt: rt}, true
}

// FileFinder maps a.b to a/b/__init__.py, a/b.py or the namespace package a/b.
// Files are run by the runtime's current source loader.
type FileFinder struct {
	Root string
	rt   *Runtime
}

func (f *FileFinder) FindSpec(name string) (*Spec, error) {
	base := filepath.Join(append([]string{f.Root}, strings.Split(name, ".")...)...)
	loader := f.rt.SourceLoader()
	for _, suf := range Suffixes {
		init := filepath.Join(base, "__init__"+suf)
		if isFile(init) {
			return &Spec{Name: name, Origin: init, IsPackage: true, Loader: loader}, nil
		}
	}
	for _, suf := range Suffixes {
		if isFile(base + suf) {
			return &Spec{Name: name, Origin: base + suf, Loader: loader}, nil
		}
	}
	if isDir(base) {
		return &Spec{Name: name, Origin: base, IsPackage: true, Namespace: true, Loader: namespaceLoader{}}, nil
	}
	return nil, nil
}

// pathFinder asks the finder of every search root. A namespace portion is used
// only when no root has a regular module or package of that name.
type pathFinder struct {
	rt *Runtime
}

func (p pathFinder) FindSpec(name string) (*Spec, error) {
	var namespace *Spec
	for _, root := range p.rt.Roots() {
		f := p.rt.finderFor(root)
		if f == nil {
			continue
		}
		spec, err := f.FindSpec(name)
		if err != nil {
			return nil, err
		}
		if spec == nil {
			continue
		}
		if !spec.Namespace {
			return spec, nil
		}
		if namespace == nil {
			namespace = spec
		}
	}
	return namespace, nil
}

type namespaceLoader struct{}

func (namespaceLoader) Exec(context.Context, *Runtime, *Module) error { return nil }

func (namespaceLoader) Kind() string { return "namespace" }

func isFile(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

func isDir(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}
