// Package inlineimport implements inline_import: a dotted name followed by "!"
// imports that module where it stands, "collections!.Counter" being the
// expression form of "import collections" followed by "collections.Counter".
package inlineimport

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"experimental/internal/diag"
	"experimental/internal/edit"
	"experimental/internal/feature"
	"experimental/internal/host"
	"experimental/internal/rewrite"
	"experimental/internal/token"
)

// Rewriter is the inline_import rewriter.
type Rewriter struct{}

// New returns the rewriter.
func New() *Rewriter { return &Rewriter{} }

func (*Rewriter) Flag() feature.Flag { return feature.InlineImport }

func (*Rewriter) Name() string { return "inline_import" }

// RewriteTokens replaces each "a.b.c!" with __import_module__("a.b.c").
func (r *Rewriter) RewriteTokens(rc *rewrite.Context, src *rewrite.Source) ([]edit.Edit, error) {
	toks, err := src.Tokens()
	if err != nil {
		return nil, err
	}
	var edits []edit.Edit
	for i, t := range toks {
		if t.Kind != token.Bang {
			continue
		}
		first, name, err := r.chain(toks, i)
		if err != nil {
			return nil, err
		}
		call := host.ImportModule + "(" + strconv.Quote(name) + ")"
		edits = append(edits, edit.Replace(toks[first].Span.Start, t.Span.End, call))
	}
	if len(edits) > 0 {
		rc.Debug("inline imports rewritten", "count", len(edits))
	}
	return edits, nil
}

// chain walks back from the '!' at toks[bang] over NAME ("." NAME)* and returns
// the index of the first name and the dotted module name, NFKC-normalized the
// way identifiers are.
func (r *Rewriter) chain(toks []token.Token, bang int) (int, string, error) {
	b := toks[bang]
	fail := func(code diag.Code, format string, args ...any) (int, string, error) {
		return 0, "", diag.NewRewriteError(r.Name(), code, b.Span.Start, format, args...)
	}

	i := bang - 1
	if i < 0 || !toks[i].IsName() {
		return fail(diag.RwBangWithoutName, "'!' must follow a module name")
	}

	// "x!r" читается и как импорт, и как конверсия в f-строке
	if next := toks[bang+1]; adjacent(b, next) && (next.IsName() || next.Kind == token.NumberLit || next.Kind == token.StringLit) {
		return fail(diag.RwAmbiguousBang, "'!' directly followed by %q is ambiguous; separate them or use a plain import", next.Text)
	}

	var parts []string
	for {
		t := toks[i]
		if t.IsKeyword() {
			if len(parts) == 0 && (i == 0 || toks[i-1].Kind != token.Dot) {
				return fail(diag.RwBangWithoutName, "'!' must follow a module name, not %q", t.Text)
			}
			return fail(diag.RwBadDottedName, "keyword %q cannot be part of a module name", t.Text)
		}
		parts = append(parts, t.Text)
		if i == 0 || toks[i-1].Kind != token.Dot {
			break
		}
		if i < 2 || !toks[i-2].IsName() {
			return fail(diag.RwRelativeInline, "inline imports must start with an absolute module name")
		}
		i -= 2
	}
	if i > 0 {
		switch toks[i-1].Kind {
		case token.KwDef, token.KwClass:
			return fail(diag.RwBadDottedName, "'!' cannot follow the name of a %s", toks[i-1].Text)
		case token.Dot, token.Ellipsis:
			return fail(diag.RwRelativeInline, "inline imports must start with an absolute module name")
		}
	}

	for l, h := 0, len(parts)-1; l < h; l, h = l+1, h-1 {
		parts[l], parts[h] = parts[h], parts[l]
	}
	return i, norm.NFKC.String(strings.Join(parts, ".")), nil
}

func adjacent(a, b token.Token) bool {
	return b.Kind != token.EOF && b.Kind != token.Newline && a.Span.End == b.Span.Start
}
