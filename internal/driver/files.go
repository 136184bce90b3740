// Package driver runs the pipeline over files and directories for the CLI.
package driver

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"experimental/internal/modrt"
)

// Unit is one source file and the module name it has under its root.
type Unit struct {
	Path      string
	Root      string
	Module    string
	IsPackage bool
}

// Collect lists the source files named by paths. A directory contributes
// every *.py and *.star file below it, named relative to the directory; a
// file is named relative to its own directory. The result is sorted by path.
func Collect(paths []string) ([]Unit, error) {
	var units []Unit
	seen := map[string]bool{}
	add := func(root, path string) {
		if seen[path] {
			return
		}
		name, isPkg, ok := modrt.ModuleName(root, path)
		if !ok {
			return
		}
		seen[path] = true
		units = append(units, Unit{Path: path, Root: root, Module: name, IsPackage: isPkg})
	}

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(filepath.Dir(abs), abs)
			continue
		}
		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != abs && skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			add(abs, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	// Сортируем для детерминированного порядка
	slices.SortFunc(units, func(a, b Unit) int { return strings.Compare(a.Path, b.Path) })
	return units, nil
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "__pycache__"
}
