package modrt

import (
	"fmt"
	"slices"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

func collectionsModule() starlark.StringDict {
	return starlark.StringDict{
		"Counter":     starlark.NewBuiltin("Counter", counter),
		"OrderedDict": starlark.NewBuiltin("OrderedDict", orderedDict),
		"most_common": starlark.NewBuiltin("most_common", mostCommon),
	}
}

// counter returns a dict mapping each element of an iterable to its count, or
// a copy of a mapping of counts.
func counter(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var src starlark.Value = starlark.None
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0, &src); err != nil {
		return nil, err
	}
	out := starlark.NewDict(0)
	switch src := src.(type) {
	case starlark.NoneType:
	case *starlark.Dict:
		for _, item := range src.Items() {
			if err := out.SetKey(item[0], item[1]); err != nil {
				return nil, err
			}
		}
	case starlark.String:
		// строки в starlark не итерируемы; считаем символы, как Counter("abc")
		if err := countAll(out, src.Elems()); err != nil {
			return nil, err
		}
	case starlark.Iterable:
		if err := countAll(out, src); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%s: cannot count %s", b.Name(), src.Type())
	}
	return out, nil
}

func countAll(out *starlark.Dict, src starlark.Iterable) error {
	it := src.Iterate()
	defer it.Done()
	var x starlark.Value
	for it.Next(&x) {
		n := starlark.MakeInt(0)
		if v, found, err := out.Get(x); err != nil {
			return err
		} else if found {
			n = v.(starlark.Int)
		}
		if err := out.SetKey(x, n.Add(starlark.MakeInt(1))); err != nil {
			return err
		}
	}
	return nil
}

func orderedDict(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var src starlark.Value = starlark.None
	if err := starlark.UnpackPositionalArgs(b.Name(), args, nil, 0, &src); err != nil {
		return nil, err
	}
	out := starlark.NewDict(len(kwargs))
	switch src := src.(type) {
	case starlark.NoneType:
	case starlark.IterableMapping:
		for _, item := range src.Items() {
			if err := out.SetKey(item[0], item[1]); err != nil {
				return nil, err
			}
		}
	case starlark.Iterable:
		it := src.Iterate()
		defer it.Done()
		var pair starlark.Value
		for it.Next(&pair) {
			kv, ok := pair.(starlark.Indexable)
			if !ok || kv.Len() != 2 {
				return nil, fmt.Errorf("%s: expected key/value pairs, got %s", b.Name(), pair.Type())
			}
			if err := out.SetKey(kv.Index(0), kv.Index(1)); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("%s: cannot build from %s", b.Name(), src.Type())
	}
	for _, kv := range kwargs {
		if err := out.SetKey(kv[0], kv[1]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// mostCommon returns the n most frequent (element, count) pairs of a counter.
func mostCommon(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		counts *starlark.Dict
		n      = -1
	)
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &counts, &n); err != nil {
		return nil, err
	}
	items := counts.Items()
	var sortErr error
	slices.SortStableFunc(items, func(x, y starlark.Tuple) int {
		for _, c := range []struct {
			op  syntax.Token
			res int
		}{{syntax.GT, -1}, {syntax.LT, 1}} {
			ok, err := starlark.Compare(c.op, x[1], y[1])
			if err != nil {
				sortErr = err
				return 0
			}
			if ok {
				return c.res
			}
		}
		return 0
	})
	if sortErr != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), sortErr)
	}
	if n >= 0 && n < len(items) {
		items = items[:n]
	}
	out := make([]starlark.Value, len(items))
	for i, it := range items {
		out[i] = it
	}
	return starlark.NewList(out), nil
}
