// Package feature is the registry of opt-in syntax extensions.
//
// The registry fixes the order in which rewriters run; adding a feature means
// adding an entry here and a rewriter registered for its Flag.
package feature

import (
	"strings"
	"time"

	"experimental/internal/token"
)

// MarkerModule is the sentinel module name of the opt-in import.
const MarkerModule = "__experimental__"

// Flag identifies one feature.
type Flag uint8

const (
	LateBoundDefaults Flag = 1 << iota
	InlineImport
	LazyImport
	CastElision
)

// Feature describes a registered extension.
type Feature struct {
	Flag      Flag
	Name      string
	Aliases   []string
	DateAdded time.Time
	// Reference points at the proposal the feature follows, if any.
	Reference string
	Summary   string
}

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

// registry is kept in execution order.
var registry = []Feature{
	{
		Flag:      LateBoundDefaults,
		Name:      "late_bound_arg_defaults",
		DateAdded: date(2024, time.March, 30),
		Reference: "https://peps.python.org/pep-0671/",
		Summary:   "parameter defaults written 'p=>expr' are evaluated at call time, left to right",
	},
	{
		Flag:      InlineImport,
		Name:      "inline_import",
		DateAdded: date(2024, time.April, 4),
		Reference: "https://github.com/ioistired/import-expression-parser",
		Summary:   "'pkg.mod!' inside an expression imports and yields the module",
	},
	{
		Flag:      LazyImport,
		Name:      "lazy_import",
		DateAdded: date(2024, time.April, 10),
		Reference: "https://peps.python.org/pep-0690/",
		Summary:   "plain import statements bind a proxy that loads the module on first attribute access",
	},
	{
		Flag:      CastElision,
		Name:      "cast_elision",
		Aliases:   []string{"elide_cast"},
		DateAdded: date(2024, time.May, 3),
		Summary:   "calls to typing.cast and typing.assert_type are replaced by their value argument",
	},
}

// All returns the registered features in execution order.
func All() []Feature {
	return append([]Feature(nil), registry...)
}

// Lookup resolves a feature by name or alias. Names are compared after NFKC folding.
func Lookup(name string) (Feature, bool) {
	name = token.NormalizeIdent(name)
	for _, f := range registry {
		if f.Name == name {
			return f, true
		}
		for _, a := range f.Aliases {
			if a == name {
				return f, true
			}
		}
	}
	return Feature{}, false
}

// ByFlag returns the feature registered for flag.
func ByFlag(flag Flag) (Feature, bool) {
	for _, f := range registry {
		if f.Flag == flag {
			return f, true
		}
	}
	return Feature{}, false
}

// Names lists canonical names in execution order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for _, f := range registry {
		out = append(out, f.Name)
	}
	return out
}

func (f Flag) String() string {
	if ft, ok := ByFlag(f); ok {
		return ft.Name
	}
	return "unknown"
}

// Set is a set of flags.
type Set uint8

func (s Set) Has(f Flag) bool { return s&Set(f) != 0 }
func (s Set) With(f Flag) Set { return s | Set(f) }
func (s Set) Empty() bool     { return s == 0 }

// Features returns the members of s in execution order.
func (s Set) Features() []Feature {
	var out []Feature
	for _, f := range registry {
		if s.Has(f.Flag) {
			out = append(out, f)
		}
	}
	return out
}

// Names returns canonical names of the members of s in execution order.
func (s Set) Names() []string {
	feats := s.Features()
	out := make([]string, len(feats))
	for i, f := range feats {
		out[i] = f.Name
	}
	return out
}

func (s Set) String() string {
	if s == 0 {
		return "none"
	}
	return strings.Join(s.Names(), ",")
}
