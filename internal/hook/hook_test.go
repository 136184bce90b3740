package hook_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
	"golang.org/x/sync/errgroup"

	"experimental/internal/cache"
	"experimental/internal/diag"
	"experimental/internal/hook"
	"experimental/internal/modrt"
	"experimental/internal/pipeline"
)

func write(t *testing.T, root, rel, text string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))
}

func global(t *testing.T, m *modrt.Module, name string) starlark.Value {
	t.Helper()
	v, ok := m.Get(name)
	require.True(t, ok, "module %s has no %s", m.Name, name)
	return v
}

// hooked возвращает runtime с установленным хуком над root.
func hooked(t *testing.T, root string) *modrt.Runtime {
	t.Helper()
	rt := modrt.New(modrt.Options{Roots: []string{root}})
	require.True(t, hook.Install(rt, nil))
	return rt
}

func ints(vs ...int) starlark.Tuple {
	out := make(starlark.Tuple, 0, len(vs))
	for _, v := range vs {
		out = append(out, starlark.MakeInt(v))
	}
	return out
}

func TestPassThroughModule(t *testing.T) {
	root := t.TempDir()
	write(t, root, "plain.py", "x = 1\ndef f(a, b=2):\n    return a != b\n")
	rt := hooked(t, root)

	m, err := rt.Import(context.Background(), "plain")
	require.NoError(t, err)
	require.Equal(t, starlark.MakeInt(1), global(t, m, "x"))
	v, err := rt.Call(context.Background(), m, "f", starlark.MakeInt(1))
	require.NoError(t, err)
	require.Equal(t, starlark.True, v)
}

type countingLoader struct {
	calls atomic.Int32
}

func (l *countingLoader) Exec(ctx context.Context, rt *modrt.Runtime, m *modrt.Module) error {
	l.calls.Add(1)
	return modrt.SourceLoader{}.Exec(ctx, rt, m)
}

func TestDelegatesUnmarkedModules(t *testing.T) {
	root := t.TempDir()
	write(t, root, "plain.py", "x = 1\n")
	write(t, root, "opted.py", "from __experimental__ import late_bound_arg_defaults\ndef f(a, b=>a):\n    return b\n")

	rt := modrt.New(modrt.Options{Roots: []string{root}})
	next := &countingLoader{}
	rt.SwapSourceLoader(next)
	require.True(t, hook.Install(rt, nil))

	_, err := rt.Import(context.Background(), "plain")
	require.NoError(t, err)
	_, err = rt.Import(context.Background(), "opted")
	require.NoError(t, err)
	require.EqualValues(t, 1, next.calls.Load())
}

func TestLateBoundDefaults(t *testing.T) {
	root := t.TempDir()
	write(t, root, "lb.py", `from __experimental__ import late_bound_arg_defaults
def f(a, b=>a+1, c=>b+1):
    return (a, b, c)
`)
	rt := hooked(t, root)
	m, err := rt.Import(context.Background(), "lb")
	require.NoError(t, err)

	cases := []struct {
		args []int
		want starlark.Tuple
	}{
		{[]int{1}, ints(1, 2, 3)},
		{[]int{1, 5}, ints(1, 5, 6)},
		{[]int{1, 5, 9}, ints(1, 5, 9)},
	}
	for _, tc := range cases {
		args := make([]starlark.Value, 0, len(tc.args))
		for _, a := range tc.args {
			args = append(args, starlark.MakeInt(a))
		}
		v, err := rt.Call(context.Background(), m, "f", args...)
		require.NoError(t, err)
		require.Equal(t, tc.want, v, "f%v", tc.args)
	}
}

func TestLateBoundEvaluatedOnlyWhenOmitted(t *testing.T) {
	root := t.TempDir()
	write(t, root, "calls.py", `from __experimental__ import late_bound_arg_defaults
calls = []
def tick(n):
    calls.append(n)
    return n
def f(a, b=>tick(a)):
    return b
def fresh(x=>[]):
    x.append(1)
    return len(x)
`)
	rt := hooked(t, root)
	ctx := context.Background()
	m, err := rt.Import(ctx, "calls")
	require.NoError(t, err)

	_, err = rt.Call(ctx, m, "f", starlark.MakeInt(1))
	require.NoError(t, err)
	_, err = rt.Call(ctx, m, "f", starlark.MakeInt(1), starlark.MakeInt(2))
	require.NoError(t, err)
	_, err = rt.Call(ctx, m, "f", starlark.MakeInt(3))
	require.NoError(t, err)

	calls, ok := global(t, m, "calls").(*starlark.List)
	require.True(t, ok)
	require.Equal(t, 2, calls.Len())
	require.Equal(t, starlark.MakeInt(3), calls.Index(1))

	for range 2 {
		v, err := rt.Call(ctx, m, "fresh")
		require.NoError(t, err)
		require.Equal(t, starlark.MakeInt(1), v)
	}
}

func TestInlineImport(t *testing.T) {
	root := t.TempDir()
	write(t, root, "inl.py", `from __experimental__ import inline_import
C = collections!.Counter
N = C(["a", "b", "a"])["a"]
def enc(v):
    return json!.dumps(v)
`)
	rt := hooked(t, root)
	m, err := rt.Import(context.Background(), "inl")
	require.NoError(t, err)
	require.Equal(t, starlark.MakeInt(2), global(t, m, "N"))
	require.True(t, rt.IsLoaded("collections"))

	v, err := rt.Call(context.Background(), m, "enc", starlark.NewList([]starlark.Value{starlark.MakeInt(1)}))
	require.NoError(t, err)
	require.Equal(t, starlark.String("[1]"), v)
}

func TestInlineImportCounterString(t *testing.T) {
	root := t.TempDir()
	write(t, root, "cnt.py", `from __experimental__ import inline_import
counts = collections!.Counter("bccdddeeee")
`)
	rt := hooked(t, root)
	m, err := rt.Import(context.Background(), "cnt")
	require.NoError(t, err)

	d, ok := global(t, m, "counts").(*starlark.Dict)
	require.True(t, ok)
	got := map[string]int{}
	for _, item := range d.Items() {
		n, ok := item[1].(starlark.Int).Int64()
		require.True(t, ok)
		got[string(item[0].(starlark.String))] = int(n)
	}
	require.Equal(t, map[string]int{"b": 1, "c": 2, "d": 3, "e": 4}, got)
}

func TestLazyImport(t *testing.T) {
	root := t.TempDir()
	write(t, root, "lz.py", `from __experimental__ import lazy_import
import heavy
def get():
    return heavy.value
`)
	var builds atomic.Int32
	rt := hooked(t, root)
	rt.RegisterNative("heavy", func() starlark.StringDict {
		builds.Add(1)
		return starlark.StringDict{"value": starlark.MakeInt(42)}
	})

	m, err := rt.Import(context.Background(), "lz")
	require.NoError(t, err)
	require.Zero(t, builds.Load())
	require.False(t, rt.IsLoaded("heavy"))

	v, err := rt.Call(context.Background(), m, "get")
	require.NoError(t, err)
	require.Equal(t, starlark.MakeInt(42), v)
	require.EqualValues(t, 1, builds.Load())
}

func TestCastElision(t *testing.T) {
	root := t.TempDir()
	// Undefined would fail to resolve if the call survived.
	write(t, root, "ce.py", `from __experimental__ import cast_elision
from typing import cast
Y = cast(Undefined, "s")
`)
	rt := hooked(t, root)
	m, err := rt.Import(context.Background(), "ce")
	require.NoError(t, err)
	require.Equal(t, starlark.String("s"), global(t, m, "Y"))
}

func TestComposedFeatures(t *testing.T) {
	root := t.TempDir()
	write(t, root, "all.py", `from __experimental__ import late_bound_arg_defaults, inline_import
from __experimental__ import lazy_import, cast_elision
from typing import cast
import heavy
def f(a, b=>json!.dumps([a])):
    return cast(Str, b)
def get():
    return heavy.value
`)
	rt := hooked(t, root)
	rt.RegisterNative("heavy", func() starlark.StringDict {
		return starlark.StringDict{"value": starlark.String("h")}
	})
	ctx := context.Background()
	m, err := rt.Import(ctx, "all")
	require.NoError(t, err)
	require.False(t, rt.IsLoaded("heavy"))

	v, err := rt.Call(ctx, m, "f", starlark.MakeInt(1))
	require.NoError(t, err)
	require.Equal(t, starlark.String("[1]"), v)
	v, err = rt.Call(ctx, m, "f", starlark.MakeInt(1), starlark.String("x"))
	require.NoError(t, err)
	require.Equal(t, starlark.String("x"), v)
	v, err = rt.Call(ctx, m, "get")
	require.NoError(t, err)
	require.Equal(t, starlark.String("h"), v)
}

func TestUnknownFeature(t *testing.T) {
	root := t.TempDir()
	write(t, root, "bad.py", "\"doc\"\nimport json\nfrom __experimental__ import not_a_real_feature\n")
	rt := hooked(t, root)

	_, err := rt.Import(context.Background(), "bad")
	var uf *diag.UnknownFeatureError
	require.ErrorAs(t, err, &uf)
	require.Equal(t, "not_a_real_feature", uf.Name)
	require.EqualValues(t, 3, uf.Pos.Line)
	require.False(t, rt.IsLoaded("bad"))
}

func TestRewriteErrorPosition(t *testing.T) {
	root := t.TempDir()
	write(t, root, "amb.py", "from __experimental__ import inline_import\nx = 1\ny = (x)!.z\n")
	rt := hooked(t, root)

	_, err := rt.Import(context.Background(), "amb")
	var se diag.StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, diag.StageRewrite, se.Stage())
	require.Equal(t, "inline_import", se.FeatureName())
	require.EqualValues(t, 3, se.Position().Line)
	require.True(t, strings.HasSuffix(se.Position().Path, "amb.py"), se.Position().Path)
}

func TestRuntimeErrorMapsToOriginal(t *testing.T) {
	root := t.TempDir()
	write(t, root, "div.py", `from __experimental__ import late_bound_arg_defaults
def f(a, b=>1 // a):
    return b
`)
	rt := hooked(t, root)
	m, err := rt.Import(context.Background(), "div")
	require.NoError(t, err)

	_, err = rt.Call(context.Background(), m, "f", starlark.MakeInt(0))
	var re *modrt.RuntimeError
	require.ErrorAs(t, err, &re)
	pos := re.Position()
	require.EqualValues(t, 3, pos.Line)
	require.Equal(t, filepath.ToSlash(filepath.Join(root, "div.py")), pos.Path)
}

func TestWithoutHookFeaturesFail(t *testing.T) {
	root := t.TempDir()
	write(t, root, "lb.py", "from __experimental__ import late_bound_arg_defaults\ndef f(a, b=>a):\n    return b\n")
	rt := modrt.New(modrt.Options{Roots: []string{root}})

	_, err := rt.Import(context.Background(), "lb")
	var hc *diag.HostCompileError
	require.ErrorAs(t, err, &hc)
	require.EqualValues(t, 2, hc.Pos.Line)
}

func TestInstallIdempotent(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.py", "from __experimental__ import late_bound_arg_defaults\ndef f(a, b=>a):\n    return b\n")
	write(t, root, "b.py", "from __experimental__ import late_bound_arg_defaults\ndef f(a, b=>a):\n    return b\n")
	rt := modrt.New(modrt.Options{Roots: []string{root}})

	require.False(t, hook.IsInstalled(rt))
	require.True(t, hook.Install(rt, nil))
	require.False(t, hook.Install(rt, nil))
	require.True(t, hook.IsInstalled(rt))
	l, ok := rt.SourceLoader().(*hook.Loader)
	require.True(t, ok)
	_, nested := l.Next.(*hook.Loader)
	require.False(t, nested)

	_, err := rt.Import(context.Background(), "a")
	require.NoError(t, err)

	require.True(t, hook.Uninstall(rt))
	require.False(t, hook.Uninstall(rt))
	require.False(t, hook.IsInstalled(rt))

	// уже загруженный модуль остаётся, новый без хука не компилируется
	require.True(t, rt.IsLoaded("a"))
	_, err = rt.Import(context.Background(), "b")
	var hc *diag.HostCompileError
	require.ErrorAs(t, err, &hc)
}

func TestCompiledProgramsShared(t *testing.T) {
	root := t.TempDir()
	write(t, root, "lb.py", "from __experimental__ import late_bound_arg_defaults\ndef f(a, b=>a):\n    return b\n")
	c := cache.Memory()
	p := pipeline.New(pipeline.Options{Rewriters: pipeline.Default(nil), Cache: c})

	for range 2 {
		rt := modrt.New(modrt.Options{Roots: []string{root}})
		require.True(t, hook.Install(rt, p))
		m, err := rt.Import(context.Background(), "lb")
		require.NoError(t, err)
		v, err := rt.Call(context.Background(), m, "f", starlark.MakeInt(4))
		require.NoError(t, err)
		require.Equal(t, starlark.MakeInt(4), v)
	}
	hits, misses := c.Stats()
	require.EqualValues(t, 1, hits)
	require.EqualValues(t, 1, misses)
}

func TestParallelLoads(t *testing.T) {
	root := t.TempDir()
	const n = 16
	for i := range n {
		write(t, root, fmt.Sprintf("m%d.py", i), fmt.Sprintf(
			"from __experimental__ import late_bound_arg_defaults, inline_import\n"+
				"import shared\n"+
				"def f(a, b=>a * %d):\n    return b + shared.base\n"+
				"J = json!.dumps(%d)\n", i, i))
	}
	write(t, root, "shared.py", "base = 100\n")
	rt := hooked(t, root)

	var g errgroup.Group
	for i := range n {
		g.Go(func() error {
			m, err := rt.Import(context.Background(), fmt.Sprintf("m%d", i))
			if err != nil {
				return err
			}
			v, err := rt.Call(context.Background(), m, "f", starlark.MakeInt(2))
			if err != nil {
				return err
			}
			if eq, err := starlark.Equal(v, starlark.MakeInt(2*i+100)); err != nil || !eq {
				return fmt.Errorf("m%d: got %v", i, v)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	for i := range n {
		require.True(t, rt.IsLoaded(fmt.Sprintf("m%d", i)))
	}
	require.True(t, rt.IsLoaded("shared"))
}

func TestInlineImportNotFound(t *testing.T) {
	root := t.TempDir()
	write(t, root, "boom.py", "from __experimental__ import inline_import\nx = nothere!.y\n")
	rt := hooked(t, root)

	_, err := rt.Import(context.Background(), "boom")
	var le *modrt.LoadError
	require.ErrorAs(t, err, &le)
	require.Equal(t, "boom", le.Module)
	var nf *modrt.NotFoundError
	require.True(t, errors.As(err, &nf))
	require.Equal(t, "nothere", nf.Name)
}

func TestInstallDefault(t *testing.T) {
	t.Cleanup(func() { hook.Uninstall(modrt.Default()) })

	require.True(t, hook.InstallDefault())
	require.False(t, hook.InstallDefault())
	require.True(t, hook.IsInstalled(modrt.Default()))
	require.Same(t, modrt.Default(), modrt.Default())
}
