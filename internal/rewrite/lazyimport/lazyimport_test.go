package lazyimport_test

import (
	"testing"

	"experimental/internal/host"
	"experimental/internal/rewrite/lazyimport"
	"experimental/internal/testkit"
)

func TestRewrite(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "import os\n", "os = __lazy_import__(\"os\", True)\n"},
		{"dotted binds top", "import a.b\n", "a = __lazy_import__(\"a.b\", True)\n"},
		{"alias binds leaf", "import a.b as c, d\n", "c = __lazy_import__(\"a.b\", False); d = __lazy_import__(\"d\", True)\n"},
		{"from stays", "from m import x\n", "from m import x\n"},
		{
			"function scope",
			"def f():\n    import json\n    return json\n",
			"def f():\n    json = __lazy_import__(\"json\", True)\n    return json\n",
		},
		{"same line", "import a; x = a\n", "a = __lazy_import__(\"a\", True); x = a\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := testkit.Run(lazyimport.New(), "m", tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// Число строк сохраняется, даже если импорт разбит на несколько строк.
func TestKeepsLines(t *testing.T) {
	in := "import a, \\\n    b\nx = b\n"
	got, _, err := testkit.Run(lazyimport.New(), "m", in)
	if err != nil {
		t.Fatal(err)
	}
	want := "a = __lazy_import__(\"a\", True\n); b = __lazy_import__(\"b\", True)\nx = b\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if _, err := host.Compile("m.py", []byte(got)); err != nil {
		t.Fatalf("compile: %v", err)
	}
}
