package inlineimport_test

import (
	"errors"
	"testing"

	"experimental/internal/diag"
	"experimental/internal/host"
	"experimental/internal/rewrite/inlineimport"
	"experimental/internal/testkit"
)

func TestRewrite(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"attribute", "c = collections!.Counter\n", "c = __import_module__(\"collections\").Counter\n"},
		{"dotted", "j = os.path!.join\n", "j = __import_module__(\"os.path\").join\n"},
		{"argument", "f(a.b!)\n", "f(__import_module__(\"a.b\"))\n"},
		{"two on a line", "x = a!.f(b.c!)\n", "x = __import_module__(\"a\").f(__import_module__(\"b.c\"))\n"},
		{"spaced", "x = json! .dumps\n", "x = __import_module__(\"json\") .dumps\n"},
		{"normalized name", "x = ｊｓｏｎ!.dumps\n", "x = __import_module__(\"json\").dumps\n"},
		{"not equal untouched", "y = a != b\n", "y = a != b\n"},
		{"f-string conversion untouched", "s = f\"{x!r}\"\n", "s = f\"{x!r}\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := testkit.Run(inlineimport.New(), "m", tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutputCompiles(t *testing.T) {
	got, _, err := testkit.Run(inlineimport.New(), "m", "def f():\n    return collections!.Counter\n")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := host.Compile("m.py", []byte(got)); err != nil {
		t.Fatalf("compile: %v", err)
	}
}

func TestRejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
		code diag.Code
		line uint32
		col  uint32
	}{
		{"ambiguous", "x = a!b\n", diag.RwAmbiguousBang, 1, 6},
		{"ambiguous string", "x = a!\"s\"\n", diag.RwAmbiguousBang, 1, 6},
		{"no name", "x = !a\n", diag.RwBangWithoutName, 1, 5},
		{"after literal", "x = 1!\n", diag.RwBangWithoutName, 1, 6},
		{"keyword in chain", "x = a.if!\n", diag.RwBadDottedName, 1, 9},
		{"relative", "x = .a!\n", diag.RwRelativeInline, 1, 7},
		{"call result", "x = f().a!\n", diag.RwRelativeInline, 1, 10},
		{"def name", "def f!():\n    pass\n", diag.RwBadDottedName, 1, 6},
		{"second line", "import os\ny = (a!b)\n", diag.RwAmbiguousBang, 2, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := testkit.Run(inlineimport.New(), "m", tt.in)
			var rerr *diag.SyntaxRewriteError
			if !errors.As(err, &rerr) {
				t.Fatalf("expected SyntaxRewriteError, got %v", err)
			}
			if rerr.Code != tt.code {
				t.Fatalf("code %s, want %s (%v)", rerr.Code, tt.code, err)
			}
			if rerr.Pos.Line != tt.line || rerr.Pos.Col != tt.col {
				t.Fatalf("position %d:%d, want %d:%d", rerr.Pos.Line, rerr.Pos.Col, tt.line, tt.col)
			}
		})
	}
}
