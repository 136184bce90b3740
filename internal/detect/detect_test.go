package detect_test

import (
	"errors"
	"testing"

	"experimental/internal/detect"
	"experimental/internal/diag"
	"experimental/internal/feature"
	"experimental/internal/source"
)

func scan(t *testing.T, src string) (detect.Result, error) {
	t.Helper()
	return detect.Scan(source.NewFile("mod.py", []byte(src), source.FileVirtual), "mod")
}

func TestScanFlags(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want feature.Set
	}{
		{"none", "x = 1\n", 0},
		{"single", "from __experimental__ import inline_import\n", feature.Set(feature.InlineImport)},
		{
			"docstring and comments first",
			"'''Module doc.'''\n# comment\n\nimport os\nfrom __experimental__ import late_bound_arg_defaults, lazy_import\n",
			feature.Set(feature.LateBoundDefaults | feature.LazyImport),
		},
		{
			"parenthesised with alias",
			"from __experimental__ import (\n    elide_cast as ec,\n    inline_import,\n)\n",
			feature.Set(feature.CastElision | feature.InlineImport),
		},
		{
			"continuation and semicolons",
			"import a; from __experimental__ \\\n    import lazy_import\n",
			feature.Set(feature.LazyImport),
		},
		{
			"two opt-in statements",
			"from __experimental__ import inline_import\nfrom __experimental__ import cast_elision\n",
			feature.Set(feature.InlineImport | feature.CastElision),
		},
		{
			"after code is ignored",
			"x = 1\nfrom __experimental__ import inline_import\n",
			0,
		},
		{
			"relative and future imports are part of the prefix",
			"from __future__ import annotations\nfrom . import sibling\nfrom __experimental__ import lazy_import\n",
			feature.Set(feature.LazyImport),
		},
		{
			"marker in a string is not an opt-in",
			"'from __experimental__ import inline_import'\n",
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := scan(t, tt.src)
			if err != nil {
				t.Fatalf("Scan: %v", err)
			}
			if res.Flags != tt.want {
				t.Fatalf("flags = %v, want %v", res.Flags, tt.want)
			}
		})
	}
}

func TestScanIsBounded(t *testing.T) {
	src := "import os\nvalue = 1\n" + "broken = 'unterminated\n"
	res, err := scan(t, src)
	if err != nil {
		t.Fatalf("scan must stop before the body: %v", err)
	}
	if res.End != uint32(len("import os\n")) {
		t.Fatalf("End = %d", res.End)
	}
}

func TestUnknownFeature(t *testing.T) {
	_, err := scan(t, "from __experimental__ import inline_import, not_a_real_feature\n")
	var unk *diag.UnknownFeatureError
	if !errors.As(err, &unk) {
		t.Fatalf("expected UnknownFeatureError, got %v", err)
	}
	if unk.Name != "not_a_real_feature" || unk.Module != "mod" {
		t.Fatalf("unexpected error %+v", unk)
	}
	if unk.Pos.Line != 1 || unk.Pos.Col != 45 {
		t.Fatalf("error position %s", unk.Pos)
	}

	if _, err := scan(t, "from __experimental__ import *\n"); !errors.As(err, &unk) || unk.Name != "*" {
		t.Fatalf("star import must be rejected, got %v", err)
	}
}

func TestScanIdempotent(t *testing.T) {
	src := "from __experimental__ import inline_import, late_bound_arg_defaults\nx = 1\n"
	a, errA := scan(t, src)
	b, errB := scan(t, src)
	if errA != nil || errB != nil || a.Flags != b.Flags || len(a.Requests) != len(b.Requests) || a.End != b.End {
		t.Fatalf("non-idempotent detection: %+v vs %+v", a, b)
	}
	if a.OptIns != 1 || len(a.Requests) != 2 {
		t.Fatalf("unexpected requests %+v", a)
	}
}

func TestPeek(t *testing.T) {
	if detect.Peek([]byte("import os\n")) {
		t.Fatal("plain modules must be rejected cheaply")
	}
	if !detect.Peek([]byte("from __experimental__ import lazy_import\n")) {
		t.Fatal("marker must be seen")
	}
}
