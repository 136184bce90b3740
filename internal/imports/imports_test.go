package imports_test

import (
	"errors"
	"testing"

	"experimental/internal/imports"
	"experimental/internal/lexer"
	"experimental/internal/source"
)

func parse(t *testing.T, src string) ([]imports.Stmt, error) {
	t.Helper()
	f := source.NewFile("m.py", []byte(src), source.FileVirtual)
	toks, err := lexer.Tokenize(f)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	return imports.Parse(toks)
}

func TestParsePlain(t *testing.T) {
	stmts, err := parse(t, "import a.b.c, d as e\nx = 1\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 1 {
		t.Fatalf("got %d statements", len(stmts))
	}
	st := stmts[0]
	if st.Kind != imports.Plain || len(st.Names) != 2 {
		t.Fatalf("unexpected statement %+v", st)
	}
	if st.Names[0].Name != "a.b.c" || st.Bound(st.Names[0]) != "a" {
		t.Errorf("first alias: %+v bound %q", st.Names[0], st.Bound(st.Names[0]))
	}
	if st.Names[1].As != "e" || st.Bound(st.Names[1]) != "e" {
		t.Errorf("second alias: %+v", st.Names[1])
	}
	if st.Span.Start != 0 || st.Span.End != 20 {
		t.Errorf("span = %v", st.Span)
	}
}

func TestParseFromParenthesised(t *testing.T) {
	src := "from ..pkg.mod import (\n    x,\n    y as z,\n)\n"
	stmts, err := parse(t, src)
	if err != nil {
		t.Fatal(err)
	}
	st := stmts[0]
	if st.Kind != imports.From || st.Level != 2 || st.Module != "pkg.mod" {
		t.Fatalf("unexpected statement %+v", st)
	}
	if len(st.Names) != 2 || st.Names[1].Name != "y" || st.Names[1].As != "z" {
		t.Fatalf("names = %+v", st.Names)
	}
	if got := src[st.Span.Start:st.Span.End]; got[len(got)-1] != ')' {
		t.Errorf("span does not end at ')': %q", got)
	}
}

func TestParseSkipsNonStatementFrom(t *testing.T) {
	stmts, err := parse(t, "def g():\n    raise E from err\n    yield from xs\nif x: from m import y\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 1 || stmts[0].Module != "m" {
		t.Fatalf("stmts = %+v", stmts)
	}
}

func TestParseStatementsOnOneLine(t *testing.T) {
	stmts, err := parse(t, "import a; from b import c; x = a\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 2 {
		t.Fatalf("got %d statements", len(stmts))
	}
}

func TestParseStar(t *testing.T) {
	stmts, err := parse(t, "from m import *\n")
	if err != nil {
		t.Fatal(err)
	}
	if !stmts[0].Star {
		t.Error("star import not recognised")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src string
		off uint32
	}{
		{"import\n", 6},
		{"import a.\n", 9},
		{"from m import (x y)\n", 17},
		{"from import x\n", 5},
		{"import a b\n", 9},
	}
	for _, tt := range tests {
		_, err := parse(t, tt.src)
		var ie *imports.Error
		if !errors.As(err, &ie) {
			t.Errorf("%q: expected *imports.Error, got %v", tt.src, err)
			continue
		}
		if ie.Off != tt.off {
			t.Errorf("%q: offset = %d, want %d", tt.src, ie.Off, tt.off)
		}
	}
}

func TestAbsolute(t *testing.T) {
	tests := []struct {
		module    string
		isPackage bool
		level     int
		name      string
		want      string
		wantErr   bool
	}{
		{"a.b", false, 1, "", "a", false},
		{"a.b", false, 1, "c", "a.c", false},
		{"a.b", true, 1, "c", "a.b.c", false},
		{"a.b.c", false, 2, "d", "a.d", false},
		{"a", false, 1, "x", "", true},
		{"a.b", false, 0, "x", "x", false},
	}
	for _, tt := range tests {
		st := imports.Stmt{Kind: imports.From, Level: tt.level, Module: tt.name}
		got, err := st.Absolute(imports.Package(tt.module, tt.isPackage))
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("%s level %d %q: got %q, %v", tt.module, tt.level, tt.name, got, err)
		}
	}
}
