package lexer

import (
	"iter"

	"experimental/internal/source"
	"experimental/internal/token"
)

// All returns a lazy, finite token sequence ending with EOF. Each range over it
// scans the file again from the start.
func All(file *source.File, opts Options) iter.Seq[token.Token] {
	return func(yield func(token.Token) bool) {
		lx := New(file, opts)
		for {
			tok := lx.Next()
			if !yield(tok) || tok.Kind == token.EOF {
				return
			}
		}
	}
}

// Tokenize collects every token of file, EOF included, and returns the first
// lexical error as *diag.LexError. Tokens after an error are still returned.
func Tokenize(file *source.File) ([]token.Token, error) {
	lx := New(file, Options{})
	toks := make([]token.Token, 0, len(file.Content)/4+1)
	for {
		tok := lx.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks, lx.Err()
}
