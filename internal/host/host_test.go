package host_test

import (
	"errors"
	"strings"
	"testing"

	"experimental/internal/diag"
	"experimental/internal/edit"
	"experimental/internal/host"
	"experimental/internal/imports"
	"experimental/internal/lexer"
	"experimental/internal/source"
)

func lower(t *testing.T, src string, u host.Unit) (string, error) {
	t.Helper()
	f := source.NewFile("m.py", []byte(src), source.FileVirtual)
	toks, err := lexer.Tokenize(f)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	edits, err := host.Lower(f.Content, toks, u)
	if err != nil {
		return "", err
	}
	out, _, err := edit.Apply(f.Content, edits)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	return string(out), nil
}

func TestLowerForms(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "plain",
			src:  "import a.b\n",
			want: "a = __import__(\"a.b\")\n",
		},
		{
			name: "plain alias",
			src:  "import a.b as c, d\n",
			want: "c = __import_module__(\"a.b\"); d = __import__(\"d\")\n",
		},
		{
			name: "from",
			src:  "from m.n import x, y as z\n",
			want: "x = __import_from__(\"m.n\", \"x\"); z = __import_from__(\"m.n\", \"y\")\n",
		},
		{
			name: "relative",
			src:  "from . import sib\nfrom .sub import f\n",
			want: "sib = __import_from__(\"pkg\", \"sib\")\nf = __import_from__(\"pkg.sub\", \"f\")\n",
		},
		{
			name: "nested block",
			src:  "def f():\n    import json\n    return json\n",
			want: "def f():\n    json = __import__(\"json\")\n    return json\n",
		},
		{
			name: "same line",
			src:  "import a; x = a\n",
			want: "a = __import__(\"a\"); x = a\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := lower(t, tt.src, host.Unit{Module: "pkg.mod"})
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

// многострочный список имён не должен сдвигать следующие строки
func TestLowerKeepsLineCount(t *testing.T) {
	src := "from m import (\n    x,\n    y,\n)\nq = 1\n"
	got, err := lower(t, src, host.Unit{Module: "main"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(got, "\n") != strings.Count(src, "\n") {
		t.Fatalf("line count changed:\n%s", got)
	}
	lines := strings.Split(got, "\n")
	if lines[4] != "q = 1" {
		t.Errorf("line 5 = %q", lines[4])
	}
	if !strings.Contains(lines[2], `y = __import_from__("m", "y"`) {
		t.Errorf("y is not assigned on its own line: %q", lines[2])
	}
	if _, err := host.Compile("m.py", []byte(got)); err != nil {
		t.Errorf("lowered text does not compile: %v", err)
	}
}

func TestLowerRejects(t *testing.T) {
	for _, src := range []string{
		"from m import *\n",
		"from .. import x\n",
	} {
		_, err := lower(t, src, host.Unit{Module: "top"})
		var ie *imports.Error
		if !errors.As(err, &ie) {
			t.Errorf("%q: expected *imports.Error, got %v", src, err)
		}
	}
}

func TestCompileResolvesHelpers(t *testing.T) {
	src := "x = __import__(\"a\")\ny = __omitted__\ndef f(p = __omitted__):\n    p = 1 if p == __omitted__ else p\n    return p\n"
	if _, err := host.Compile("m.py", []byte(src)); err != nil {
		t.Fatal(err)
	}
}

func TestWrapErrorMapsPosition(t *testing.T) {
	src := []byte("x = 1\ny = undefined_name\n")
	compiled := source.NewFile("m.py", src, source.FileVirtual)
	_, err := host.Compile(compiled.Path, src)
	if err == nil {
		t.Fatal("expected resolve error")
	}
	wrapped := host.WrapError(err, compiled, compiled.Pos, []string{"inline_import"})
	var hce *diag.HostCompileError
	if !errors.As(wrapped, &hce) {
		t.Fatalf("expected HostCompileError, got %T", wrapped)
	}
	if hce.Code != diag.HostResolve {
		t.Errorf("code = %v", hce.Code)
	}
	if hce.Pos.Line != 2 || hce.Pos.Col != 5 {
		t.Errorf("pos = %v", hce.Pos)
	}
	if !strings.Contains(hce.Msg, "undefined_name") {
		t.Errorf("msg = %q", hce.Msg)
	}
}

func TestSyntaxErrorProblem(t *testing.T) {
	_, err := host.Compile("m.py", []byte("def f(:\n"))
	probs := host.Problems(err)
	if len(probs) != 1 || probs[0].Code != diag.HostSyntax || probs[0].Line != 1 {
		t.Fatalf("problems = %+v", probs)
	}
}
