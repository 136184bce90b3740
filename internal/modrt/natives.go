package modrt

import (
	"context"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/reusee/starlarkutil"
	"go.starlark.net/lib/json"
	"go.starlark.net/lib/math"
	starlarktime "go.starlark.net/lib/time"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"experimental/internal/feature"
)

// RegisterNative makes name importable as a Go-backed module. build runs once
// per load, so every runtime gets fresh values.
func (rt *Runtime) RegisterNative(name string, build func() starlark.StringDict) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.natives[name] = build
}

// Natives lists the registered native module names, sorted.
func (rt *Runtime) Natives() []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return slices.Sorted(maps.Keys(rt.natives))
}

type nativeFinder struct {
	rt *Runtime
}

func (f nativeFinder) FindSpec(name string) (*Spec, error) {
	f.rt.mu.Lock()
	build, ok := f.rt.natives[name]
	f.rt.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return &Spec{Name: name, Loader: nativeLoader{build: build}}, nil
}

type nativeLoader struct {
	build func() starlark.StringDict
}

func (nativeLoader) Kind() string { return "native" }

func (l nativeLoader) Exec(_ context.Context, _ *Runtime, m *Module) error {
	m.SetGlobals(l.build())
	return nil
}

func registerNatives(rt *Runtime) {
	rt.RegisterNative(feature.MarkerModule, experimentalModule)
	rt.RegisterNative("collections", collectionsModule)
	rt.RegisterNative("typing", typingModule)
	rt.RegisterNative("typing_extensions", typingModule)
	rt.RegisterNative("math", structMembers(math.Module))
	rt.RegisterNative("time", structMembers(starlarktime.Module))
	rt.RegisterNative("json", jsonModule)
	rt.RegisterNative("os", osModule)
}

func structMembers(m *starlarkstruct.Module) func() starlark.StringDict {
	return func() starlark.StringDict { return maps.Clone(m.Members) }
}

// experimentalModule backs the opt-in imports: each feature name is bound to a
// record describing it.
func experimentalModule() starlark.StringDict {
	names := make([]starlark.Value, 0, len(feature.All()))
	d := starlark.StringDict{}
	for _, f := range feature.All() {
		names = append(names, starlark.String(f.Name))
		aliases := make([]starlark.Value, 0, len(f.Aliases))
		for _, a := range f.Aliases {
			aliases = append(aliases, starlark.String(a))
		}
		rec := starlarkstruct.FromStringDict(starlark.String("feature"), starlark.StringDict{
			"name":       starlark.String(f.Name),
			"aliases":    starlark.Tuple(aliases),
			"date_added": starlark.String(f.DateAdded.Format(time.DateOnly)),
			"reference":  starlark.String(f.Reference),
			"summary":    starlark.String(f.Summary),
		})
		d[f.Name] = rec
		for _, a := range f.Aliases {
			d[a] = rec
		}
	}
	d["all_feature_names"] = starlark.NewList(names)
	return d
}

func typingModule() starlark.StringDict {
	return starlark.StringDict{
		"cast": starlark.NewBuiltin("cast", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var typ, val starlark.Value
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "typ", &typ, "val", &val); err != nil {
				return nil, err
			}
			return val, nil
		}),
		"assert_type": starlark.NewBuiltin("assert_type", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var val, typ starlark.Value
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &val, &typ); err != nil {
				return nil, err
			}
			return val, nil
		}),
		"TYPE_CHECKING": starlark.False,
		"Any":           starlark.String("typing.Any"),
	}
}

func jsonModule() starlark.StringDict {
	d := maps.Clone(json.Module.Members)
	d["dumps"] = d["encode"]
	d["loads"] = d["decode"]
	return d
}

func osModule() starlark.StringDict {
	return starlark.StringDict{
		"getenv": starlark.NewBuiltin("getenv", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var (
				key string
				def starlark.Value = starlark.None
			)
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "key", &key, "default?", &def); err != nil {
				return nil, err
			}
			if v, ok := os.LookupEnv(key); ok {
				return starlark.String(v), nil
			}
			return def, nil
		}),
		"getcwd": starlarkutil.MakeFunc("getcwd", func() string {
			wd, _ := os.Getwd()
			return wd
		}),
		"getpid": starlarkutil.MakeFunc("getpid", os.Getpid),
		"sep":    starlark.String(string(filepath.Separator)),
	}
}
