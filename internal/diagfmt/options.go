package diagfmt

import "path/filepath"

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto uses relative paths under BaseDir and absolute ones elsewhere.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	Context   int8 // строк контекста до позиции
	PathMode  PathMode
	BaseDir   string
	Width     uint8 // максимальная ширина строки, 0 - не ограничено
	ShowNotes bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode     PathMode
	BaseDir      string
	Max          int // обрезка вывода, не Bag
	IncludeNotes bool
}

// SarifRunMeta provides metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InvocationArgs []string
	PathMode       PathMode
	BaseDir        string
}

func formatPath(path string, mode PathMode, base string) string {
	if path == "" {
		return ""
	}
	native := filepath.FromSlash(path)
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(native); err == nil {
			return filepath.ToSlash(abs)
		}
	case PathModeRelative:
		if rel, err := filepath.Rel(base, native); err == nil {
			return filepath.ToSlash(rel)
		}
	case PathModeBasename:
		return filepath.Base(native)
	case PathModeAuto:
		if base != "" && filepath.IsAbs(native) {
			if rel, err := filepath.Rel(base, native); err == nil && !filepath.IsAbs(rel) && !startsWithDotDot(rel) {
				return filepath.ToSlash(rel)
			}
		}
	}
	return path
}

func startsWithDotDot(rel string) bool {
	return rel == ".." || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator)
}
