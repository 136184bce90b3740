package latebound_test

import (
	"errors"
	"testing"

	"experimental/internal/diag"
	"experimental/internal/host"
	"experimental/internal/rewrite/latebound"
	"experimental/internal/testkit"
)

func TestRewrite(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "def simple body",
			in:   "def f(a, b=>[a]):\n    return b\n",
			want: "def f(a, b=__omitted__):\n    b = ([a]) if b == __omitted__ else b; return b\n",
		},
		{
			name: "two parameters",
			in:   "def f(a, b=>a+1, c=>b*2):\n    return (a, b, c)\n",
			want: "def f(a, b=__omitted__, c=__omitted__):\n" +
				"    b = (a+1) if b == __omitted__ else b; c = (b*2) if c == __omitted__ else c; return (a, b, c)\n",
		},
		{
			name: "docstring then compound",
			in:   "def f(a, b=>[]):\n    \"doc\"\n    if a:\n        pass\n    return b\n",
			want: "def f(a, b=__omitted__):\n    \"doc\"; b = ([]) if b == __omitted__ else b\n    if a:\n        pass\n    return b\n",
		},
		{
			name: "compound first",
			in:   "def f(b=>1):\n    if b:\n        return b\n",
			want: "def f(b=__omitted__):\n    b = (1) if b == __omitted__ else b\n    if b:\n        return b\n",
		},
		{
			name: "one-line def",
			in:   "def f(a, b=>a): return b\n",
			want: "def f(a, b=__omitted__): b = (a) if b == __omitted__ else b; return b\n",
		},
		{
			name: "keyword-only",
			in:   "def f(a, *, b=>a):\n    return b\n",
			want: "def f(a, *, b=__omitted__):\n    b = (a) if b == __omitted__ else b; return b\n",
		},
		{
			name: "lambda",
			in:   "g = lambda a, b=>a+1: b\n",
			want: "g = lambda a, b=__omitted__: (lambda b: b)((a+1) if b == __omitted__ else b)\n",
		},
		{
			name: "nested call in default",
			in:   "def f(a, b=>len([a, a])):\n    return b\n",
			want: "def f(a, b=__omitted__):\n    b = (len([a, a])) if b == __omitted__ else b; return b\n",
		},
		{
			name: "arrow in string untouched",
			in:   "def f(a, b=>\"=>\"):\n    return b\n",
			want: "def f(a, b=__omitted__):\n    b = (\"=>\") if b == __omitted__ else b; return b\n",
		},
		{
			name: "no markers",
			in:   "def f(a, b=1):\n    return b\n",
			want: "def f(a, b=1):\n    return b\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := testkit.Run(latebound.New(), "m", tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got:\n%s\nwant:\n%s", got, tt.want)
			}
			if _, err := host.Parse("m.py", []byte(got)); err != nil {
				t.Fatalf("output does not parse: %v", err)
			}
		})
	}
}

// Повторный прогон по уже переписанному тексту ничего не меняет.
func TestRewriteIdempotent(t *testing.T) {
	in := "def f(a, b=>[a]):\n    return b\n"
	once, _, err := testkit.Run(latebound.New(), "m", in)
	if err != nil {
		t.Fatal(err)
	}
	twice, _, err := testkit.Run(latebound.New(), "m", once)
	if err != nil {
		t.Fatal(err)
	}
	if once != twice {
		t.Fatalf("second run changed text:\n%s\n%s", once, twice)
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
		{"outside params", "x => 1\n", diag.RwMarkerOutsideParams, 1, 3},
		{"call argument", "f(a=>1)\n", diag.RwMarkerOutsideParams, 1, 4},
		{"variadic", "def f(*a=>1):\n    pass\n", diag.RwMarkerOnVariadic, 1, 9},
		{"empty", "def f(a=>):\n    pass\n", diag.RwEmptyDefault, 1, 8},
		{"nested", "def f(a=>(lambda b=>1: b)()):\n    pass\n", diag.RwNestedMarker, 1, 19},
		{"second line", "y = 1\ndef f(a, =>1):\n    pass\n", diag.RwMarkerOutsideParams, 2, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := testkit.Run(latebound.New(), "m", tt.in)
			var rerr *diag.SyntaxRewriteError
			if !errors.As(err, &rerr) {
				t.Fatalf("expected SyntaxRewriteError, got %v", err)
			}
			if rerr.Code != tt.code {
				t.Fatalf("code %s, want %s", rerr.Code, tt.code)
			}
			if rerr.Pos.Line != tt.line || rerr.Pos.Col != tt.col {
				t.Fatalf("position %d:%d, want %d:%d", rerr.Pos.Line, rerr.Pos.Col, tt.line, tt.col)
			}
			if rerr.Feature != "late_bound_arg_defaults" {
				t.Fatalf("feature %q", rerr.Feature)
			}
		})
	}
}
