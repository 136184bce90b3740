package lexer_test

import (
	"errors"
	"strings"
	"testing"

	"experimental/internal/diag"
	"experimental/internal/lexer"
	"experimental/internal/source"
	"experimental/internal/token"
)

func file(src string) *source.File {
	fs := source.NewFileSet()
	return fs.Get(fs.AddVirtual("test.py", []byte(src)))
}

func kinds(t *testing.T, src string) []token.Kind {
	t.Helper()
	toks, err := lexer.Tokenize(file(src))
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", src, err)
	}
	out := make([]token.Kind, 0, len(toks))
	for _, tk := range toks {
		out = append(out, tk.Kind)
	}
	return out
}

func expectKinds(t *testing.T, src string, want ...token.Kind) {
	t.Helper()
	got := kinds(t, src)
	if len(got) != len(want) {
		t.Fatalf("%q: got %v, want %v", src, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%q: token %d is %v, want %v (all: %v)", src, i, got[i], want[i], got)
		}
	}
}

func TestLosslessRoundTrip(t *testing.T) {
	sources := []string{
		"",
		"\n\n",
		"x = 1\n",
		"x = 1",
		"# only a comment",
		"def f(a, b=>(a + 1),\n      c=>b * 2):  # late\n    return (a, b, c)\n",
		"value = collections!.Counter('bccdddeeee')\n",
		"s = '''multi\nline''' + r\"raw\\\" \" + b'x'\n",
		"total = 1 + \\\n    2\n",
		"if x:\n\n    pass\n  # trailing comment\n",
		"print('ёжик', ｘ)\n",
		"a = [\n  1,\n  2,\n]\n",
	}
	for _, src := range sources {
		toks, err := lexer.Tokenize(file(src))
		if err != nil {
			t.Fatalf("Tokenize(%q): %v", src, err)
		}
		if got := token.Render(toks); got != src {
			t.Errorf("round trip mismatch:\n got %q\nwant %q", got, src)
		}
		last := toks[len(toks)-1]
		if last.Kind != token.EOF {
			t.Errorf("%q: last token %v, want EOF", src, last.Kind)
		}
	}
}

func TestExtensionMarkers(t *testing.T) {
	expectKinds(t, "def f(a=>1): pass",
		token.KwDef, token.Ident, token.LParen, token.Ident, token.FatArrow, token.NumberLit, token.RParen,
		token.Colon, token.KwPass, token.Newline, token.EOF)

	expectKinds(t, "a.b!.c",
		token.Ident, token.Dot, token.Ident, token.Bang, token.Dot, token.Ident, token.Newline, token.EOF)

	// maximal munch: '!=' остаётся оператором сравнения
	expectKinds(t, "x!=y", token.Ident, token.NotEq, token.Ident, token.Newline, token.EOF)
	expectKinds(t, "x! =y", token.Ident, token.Bang, token.Assign, token.Ident, token.Newline, token.EOF)
	expectKinds(t, "a==>b", token.Ident, token.EqEq, token.Gt, token.Ident, token.Newline, token.EOF)
}

func TestLogicalNewlines(t *testing.T) {
	// переводы строки внутри скобок и на пустых строках: trivia
	expectKinds(t, "f(\n1,\n2)\n\n\ng()\n",
		token.Ident, token.LParen, token.NumberLit, token.Comma, token.NumberLit, token.RParen, token.Newline,
		token.Ident, token.LParen, token.RParen, token.Newline, token.EOF)

	expectKinds(t, "x = 1 + \\\n 2\n",
		token.Ident, token.Assign, token.NumberLit, token.Plus, token.NumberLit, token.Newline, token.EOF)
}

func TestUnterminatedLastLineGetsNewline(t *testing.T) {
	toks, err := lexer.Tokenize(file("pass"))
	if err != nil {
		t.Fatal(err)
	}
	if len(toks) != 3 || toks[1].Kind != token.Newline || toks[1].Text != "" {
		t.Fatalf("expected synthetic empty Newline, got %+v", toks)
	}
}

func TestOperators(t *testing.T) {
	expectKinds(t, "a **= b // c ** d -> e := f ... @ g",
		token.Ident, token.AugAssign, token.Ident, token.SlashSlash, token.Ident, token.StarStar, token.Ident,
		token.Arrow, token.Ident, token.Walrus, token.Ident, token.Ellipsis, token.At, token.Ident,
		token.Newline, token.EOF)
	expectKinds(t, "x += 1; y <<= 2",
		token.Ident, token.AugAssign, token.NumberLit, token.Semicolon, token.Ident, token.AugAssign, token.NumberLit,
		token.Newline, token.EOF)
}

func TestNumbers(t *testing.T) {
	for _, src := range []string{"0", "123", "1_000", "0x_ff", "0o17", "0b1010", "1.5", ".5", "1.", "1e-3", "2.5E+10", "3j", "1.5J"} {
		toks, err := lexer.Tokenize(file(src))
		if err != nil {
			t.Errorf("%q: %v", src, err)
			continue
		}
		if toks[0].Kind != token.NumberLit || toks[0].Text != src {
			t.Errorf("%q lexed as %v %q", src, toks[0].Kind, toks[0].Text)
		}
	}
	for _, src := range []string{"0x", "1e", "1_"} {
		if _, err := lexer.Tokenize(file(src)); err == nil {
			t.Errorf("%q: expected LexBadNumber", src)
		}
	}
}

func TestStringPrefixes(t *testing.T) {
	for _, src := range []string{`r"\d"`, `b'x'`, `Rb"y"`, `f"{a}"`, `'''a'b''c'''`, `"a\"b"`} {
		toks, err := lexer.Tokenize(file(src))
		if err != nil {
			t.Errorf("%q: %v", src, err)
			continue
		}
		if toks[0].Kind != token.StringLit || toks[0].Text != src {
			t.Errorf("%q lexed as %v %q", src, toks[0].Kind, toks[0].Text)
		}
	}
	// rb без кавычки: обычный идентификатор
	expectKinds(t, "rb = 1", token.Ident, token.Assign, token.NumberLit, token.Newline, token.EOF)
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		src  string
		code diag.Code
		line uint32
		col  uint32
	}{
		{"x = 'abc\ny = 1\n", diag.LexUnterminatedString, 1, 5},
		{"x = '''abc\n\n", diag.LexUnterminatedString, 1, 5},
		{"x = 1\ny = \x01\n", diag.LexControlChar, 2, 5},
		{"x = $\n", diag.LexUnknownChar, 1, 5},
		{"x = 1)\n", diag.LexUnbalancedBracket, 1, 6},
		{"x = 1 \\ 2\n", diag.LexUnknownChar, 1, 7},
	}
	for _, tt := range tests {
		toks, err := lexer.Tokenize(file(tt.src))
		var lexErr *diag.LexError
		if !errors.As(err, &lexErr) {
			t.Errorf("%q: expected *diag.LexError, got %v", tt.src, err)
			continue
		}
		if lexErr.Code != tt.code || lexErr.Pos.Line != tt.line || lexErr.Pos.Col != tt.col {
			t.Errorf("%q: got %v at %d:%d, want %v at %d:%d", tt.src, lexErr.Code, lexErr.Pos.Line, lexErr.Pos.Col, tt.code, tt.line, tt.col)
		}
		if toks[len(toks)-1].Kind != token.EOF {
			t.Errorf("%q: lexer must reach EOF after an error", tt.src)
		}
	}
}

func TestReporterReceivesAllErrors(t *testing.T) {
	f := file("a = $\nb = ?\n")
	bag := diag.NewBag(10)
	lx := lexer.New(f, lexer.Options{Reporter: diag.BagReporter{Bag: bag, File: f, Stage: diag.StageScan}})
	for lx.Next().Kind != token.EOF {
	}
	if bag.Len() != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", bag.Len())
	}
	if items := bag.Items(); items[1].Pos.Line != 2 {
		t.Fatalf("second diagnostic on wrong line: %+v", items[1])
	}
}

func TestAllIsRestartable(t *testing.T) {
	seq := lexer.All(file("import a.b as c\n"), lexer.Options{})
	var first, second []string
	for tk := range seq {
		first = append(first, tk.Text)
	}
	for tk := range seq {
		second = append(second, tk.Text)
		if tk.Kind == token.Ident && tk.Text == "a" {
			break
		}
	}
	if strings.Join(first, "|") != "import|a|.|b|as|c|\n|" {
		t.Fatalf("unexpected tokens %q", first)
	}
	if strings.Join(second, "|") != "import|a" {
		t.Fatalf("restart must begin from the first token, got %q", second)
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	lx := lexer.New(file("x y"), lexer.Options{})
	if p := lx.Peek(); p.Text != "x" {
		t.Fatalf("Peek = %q", p.Text)
	}
	if n := lx.Next(); n.Text != "x" {
		t.Fatalf("Next after Peek = %q", n.Text)
	}
	if n := lx.Next(); n.Text != "y" || len(n.Leading) != 1 {
		t.Fatalf("second token %+v", n)
	}
}
