// Package imports recognises import statements in a token stream.
//
// Both the host compiler, which lowers every import statement to runtime helper
// calls, and the lazy import rewriter read statements through this package.
package imports

import (
	"fmt"
	"strings"

	"experimental/internal/source"
	"experimental/internal/token"
)

// Kind distinguishes "import a.b" from "from m import x".
type Kind uint8

const (
	Plain Kind = iota
	From
)

// Alias is one imported name with its optional "as" binding.
type Alias struct {
	Name string // dotted module name (Plain) or attribute name (From)
	As   string
	Span source.Span
}

// Stmt is a single import statement.
type Stmt struct {
	Kind Kind
	// Level counts the leading dots of a relative from-import.
	Level  int
	Module string
	Names  []Alias
	Star   bool
	// Span runs from the keyword to the end of the last token of the statement.
	Span source.Span
	// First and Last index the statement's tokens in the parsed slice.
	First, Last int
}

// Bound is the local name an alias introduces.
func (s Stmt) Bound(a Alias) string {
	if a.As != "" {
		return a.As
	}
	if s.Kind == Plain {
		top, _, _ := strings.Cut(a.Name, ".")
		return top
	}
	return a.Name
}

// Error reports a malformed import statement.
type Error struct {
	Off uint32
	Msg string
}

func (e *Error) Error() string { return e.Msg }

// Parse returns every import statement in toks, in source order.
func Parse(toks []token.Token) ([]Stmt, error) {
	p := parser{toks: toks}
	var out []Stmt
	for p.i < len(toks) {
		t := toks[p.i]
		if (t.Kind == token.KwImport || t.Kind == token.KwFrom) && p.atStatementStart() {
			var (
				st  Stmt
				err error
			)
			if t.Kind == token.KwImport {
				st, err = p.plain()
			} else {
				st, err = p.from()
			}
			if err != nil {
				return out, err
			}
			out = append(out, st)
			continue
		}
		p.i++
	}
	return out, nil
}

type parser struct {
	toks []token.Token
	i    int
}

// atStatementStart: "raise X from Y" and "yield from" put an expression token before "from".
func (p *parser) atStatementStart() bool {
	if p.i == 0 {
		return true
	}
	switch p.toks[p.i-1].Kind {
	case token.Newline, token.Semicolon, token.Colon:
		return true
	}
	return false
}

func (p *parser) peek() token.Token {
	if p.i < len(p.toks) {
		return p.toks[p.i]
	}
	return token.Token{Kind: token.EOF}
}

func (p *parser) errorf(t token.Token, format string, args ...any) error {
	return &Error{Off: t.Span.Start, Msg: fmt.Sprintf(format, args...)}
}

func endsStatement(k token.Kind) bool {
	return k == token.Newline || k == token.Semicolon || k == token.EOF
}

// dotted reads NAME ("." NAME)*.
func (p *parser) dotted() (string, source.Span, error) {
	first := p.peek()
	if first.Kind != token.Ident {
		return "", source.Span{}, p.errorf(first, "expected module name, found %s", describe(first))
	}
	var sb strings.Builder
	sp := first.Span
	for {
		t := p.peek()
		if t.Kind != token.Ident {
			return "", sp, p.errorf(t, "expected name, found %s", describe(t))
		}
		sb.WriteString(t.Text)
		sp = sp.Cover(t.Span)
		p.i++
		if p.peek().Kind != token.Dot {
			return sb.String(), sp, nil
		}
		sb.WriteByte('.')
		p.i++
	}
}

func (p *parser) alias() (string, error) {
	if p.peek().Kind != token.KwAs {
		return "", nil
	}
	p.i++
	t := p.peek()
	if t.Kind != token.Ident {
		return "", p.errorf(t, "expected name after 'as', found %s", describe(t))
	}
	p.i++
	return t.Text, nil
}

func (p *parser) plain() (Stmt, error) {
	kw := p.peek()
	st := Stmt{Kind: Plain, First: p.i}
	p.i++
	for {
		name, sp, err := p.dotted()
		if err != nil {
			return st, err
		}
		as, err := p.alias()
		if err != nil {
			return st, err
		}
		st.Names = append(st.Names, Alias{Name: name, As: as, Span: sp})
		if p.peek().Kind != token.Comma {
			break
		}
		p.i++
	}
	if t := p.peek(); !endsStatement(t.Kind) {
		return st, p.errorf(t, "unexpected %s in import statement", describe(t))
	}
	st.Last = p.i - 1
	st.Span = kw.Span.Cover(p.toks[st.Last].Span)
	return st, nil
}

func (p *parser) from() (Stmt, error) {
	kw := p.peek()
	st := Stmt{Kind: From, First: p.i}
	p.i++
	for {
		switch p.peek().Kind {
		case token.Dot:
			st.Level++
			p.i++
			continue
		case token.Ellipsis:
			st.Level += 3
			p.i++
			continue
		}
		break
	}
	if p.peek().Kind == token.Ident {
		name, _, err := p.dotted()
		if err != nil {
			return st, err
		}
		st.Module = name
	} else if st.Level == 0 {
		return st, p.errorf(p.peek(), "expected module name after 'from'")
	}
	if t := p.peek(); t.Kind != token.KwImport {
		return st, p.errorf(t, "expected 'import', found %s", describe(t))
	}
	p.i++

	if t := p.peek(); t.Kind == token.Star {
		st.Star = true
		p.i++
	} else {
		paren := t.Kind == token.LParen
		if paren {
			p.i++
		}
		for {
			n := p.peek()
			if paren && n.Kind == token.RParen && len(st.Names) > 0 {
				break // trailing comma
			}
			if n.Kind != token.Ident {
				return st, p.errorf(n, "expected name to import, found %s", describe(n))
			}
			p.i++
			as, err := p.alias()
			if err != nil {
				return st, err
			}
			st.Names = append(st.Names, Alias{Name: n.Text, As: as, Span: n.Span})
			if p.peek().Kind != token.Comma {
				break
			}
			p.i++
		}
		if paren {
			if t := p.peek(); t.Kind != token.RParen {
				return st, p.errorf(t, "expected ')' to close import list, found %s", describe(t))
			}
			p.i++
		}
	}
	if t := p.peek(); !endsStatement(t.Kind) {
		return st, p.errorf(t, "unexpected %s in import statement", describe(t))
	}
	st.Last = p.i - 1
	st.Span = kw.Span.Cover(p.toks[st.Last].Span)
	return st, nil
}

func describe(t token.Token) string {
	switch t.Kind {
	case token.EOF:
		return "end of file"
	case token.Newline:
		return "end of line"
	}
	return fmt.Sprintf("%q", t.Text)
}

// Package returns the package a module's relative imports are resolved against.
func Package(module string, isPackage bool) string {
	if isPackage {
		return module
	}
	if i := strings.LastIndexByte(module, '.'); i >= 0 {
		return module[:i]
	}
	return ""
}

// Absolute resolves the module of a from-import against pkg.
func (s Stmt) Absolute(pkg string) (string, error) {
	if s.Level == 0 {
		return s.Module, nil
	}
	base := pkg
	for range s.Level - 1 {
		i := strings.LastIndexByte(base, '.')
		if i < 0 {
			base = ""
			break
		}
		base = base[:i]
	}
	if base == "" {
		return "", &Error{Off: s.Span.Start, Msg: "attempted relative import beyond top-level package"}
	}
	if s.Module == "" {
		return base, nil
	}
	return base + "." + s.Module, nil
}

// Call is one "Target = Helper(Args...)" assignment replacing part of a statement.
// Args are host-language literals. Line is the line, relative to the statement's
// first line, where the imported name was written.
type Call struct {
	Target string
	Helper string
	Args   []string
	Line   int
}

// Render joins calls with "; " so the result spans total+1 lines. Line breaks
// go inside call parentheses, so the result stays a single logical line.
func Render(calls []Call, total int) string {
	var sb strings.Builder
	line := 0
	for i, c := range calls {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(c.Target)
		sb.WriteString(" = ")
		sb.WriteString(c.Helper)
		sb.WriteByte('(')
		sb.WriteString(strings.Join(c.Args, ", "))
		next := total
		if i+1 < len(calls) {
			next = calls[i+1].Line
		}
		if next > line {
			sb.WriteString(strings.Repeat("\n", next-line))
			line = next
		}
		sb.WriteByte(')')
	}
	return sb.String()
}

// Lines counts line breaks in src[start:end].
func Lines(src []byte, start, end uint32) int {
	end = min(end, uint32(len(src)))
	if start >= end {
		return 0
	}
	return strings.Count(string(src[start:end]), "\n")
}
