package pipeline

import (
	"context"
	"testing"

	"experimental/internal/diag"
)

// Любой вход либо компилируется, либо даёт ошибку с позицией внутри исходного текста.
func FuzzRun(f *testing.F) {
	for _, s := range []string{
		"x = 1\n",
		"def f(a, b=>a+1):\n    return b\n",
		"v = json!.dumps(f(1))\n",
		"import json\nfrom typing import cast\ny = cast(int, 1)\n",
		"g = lambda a, b=>[a]: b\n",
		"z = f!x\n",
	} {
		f.Add(s)
	}
	p := New(Options{})
	f.Fuzz(func(t *testing.T, body string) {
		if len(body) > 1<<12 {
			return
		}
		src := "from __experimental__ import late_bound_arg_defaults, inline_import, lazy_import, cast_elision\n" + body
		m := module("m", src)
		res, err := p.Run(context.Background(), m)
		if err == nil {
			if res.Program == nil {
				t.Fatal("no program without error")
			}
			return
		}
		d, ok := diag.FromError(err)
		if !ok {
			return
		}
		// строка за последней допустима для ошибок на EOF
		if d.Pos.Line > uint32(m.File.LineCount())+1 {
			t.Fatalf("position %d:%d outside the source (%d lines): %v", d.Pos.Line, d.Pos.Col, m.File.LineCount(), err)
		}
	})
}
