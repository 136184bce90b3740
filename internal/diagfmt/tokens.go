package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"experimental/internal/source"
	"experimental/internal/token"
)

type TokenOutput struct {
	Kind    string      `json:"kind"`
	Text    string      `json:"text,omitempty"`
	Span    source.Span `json:"span"`
	Line    uint32      `json:"line"`
	Col     uint32      `json:"col"`
	Leading []string    `json:"leading,omitempty"`
}

func leadingKinds(tok token.Token) []string {
	var leading []string
	for _, trivia := range tok.Leading {
		leading = append(leading, trivia.Kind.String())
	}
	return leading
}

// FormatTokensPretty выводит токены в человекочитаемом формате
func FormatTokensPretty(w io.Writer, tokens []token.Token, f *source.File) error {
	for i, tok := range tokens {
		start, end := f.LineCol(tok.Span.Start), f.LineCol(tok.Span.End)
		if _, err := fmt.Fprintf(w, "%3d: %-15s", i+1, tok.Kind.String()); err != nil {
			return err
		}
		if tok.Text != "" {
			fmt.Fprintf(w, " %q", tok.Text)
		}
		fmt.Fprintf(w, " at %d:%d-%d:%d", start.Line, start.Col, end.Line, end.Col)
		if leading := leadingKinds(tok); len(leading) > 0 {
			fmt.Fprintf(w, " (leading: %s)", strings.Join(leading, ", "))
		}
		fmt.Fprintln(w)

		if tok.Kind == token.EOF {
			break
		}
	}
	return nil
}

// FormatTokensJSON выводит токены в JSON формате
func FormatTokensJSON(w io.Writer, tokens []token.Token, f *source.File) error {
	output := make([]TokenOutput, 0, len(tokens))
	for _, tok := range tokens {
		lc := f.LineCol(tok.Span.Start)
		output = append(output, TokenOutput{
			Kind:    tok.Kind.String(),
			Text:    tok.Text,
			Span:    tok.Span,
			Line:    lc.Line,
			Col:     lc.Col,
			Leading: leadingKinds(tok),
		})
		if tok.Kind == token.EOF {
			break
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
