package token

import (
	"strings"

	"experimental/internal/source"
)

// Token represents a single source token with its location and trivia.
type Token struct {
	Kind    Kind
	Span    source.Span
	Text    string
	Leading []Trivia
}

// IsLiteral reports whether the token is a numeric or string literal, or one of the constant keywords.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case NumberLit, StringLit, KwTrue, KwFalse, KwNone:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is a hard keyword.
func (t Token) IsKeyword() bool {
	return t.Kind > keywordBeg && t.Kind < keywordEnd
}

// IsPunctOrOp reports whether the token is a punctuation or operator.
func (t Token) IsPunctOrOp() bool {
	return t.Kind > operatorBeg && t.Kind < operatorEnd
}

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }

// IsName reports whether the token can act as a dotted-name component:
// an identifier or a keyword spelled like one.
func (t Token) IsName() bool { return t.Kind == Ident || t.IsKeyword() }

// Opens reports whether the token opens a bracket.
func (t Token) Opens() bool {
	return t.Kind == LParen || t.Kind == LBracket || t.Kind == LBrace
}

// Closes reports whether the token closes a bracket.
func (t Token) Closes() bool {
	return t.Kind == RParen || t.Kind == RBracket || t.Kind == RBrace
}

// HasNewlineBefore reports whether any leading trivia crosses a line.
func (t Token) HasNewlineBefore() bool {
	for _, tv := range t.Leading {
		if tv.Kind == TriviaNewline || tv.Kind == TriviaContinuation {
			return true
		}
	}
	return false
}

// HasSpaceBefore reports whether the token is separated from the previous one.
func (t Token) HasSpaceBefore() bool { return len(t.Leading) > 0 }

// StringPrefix returns the lower-cased prefix letters of a string literal ("", "r", "b", "rb", "f"...).
func (t Token) StringPrefix() string {
	if t.Kind != StringLit {
		return ""
	}
	i := strings.IndexAny(t.Text, `'"`)
	if i < 0 {
		return ""
	}
	return strings.ToLower(t.Text[:i])
}

// Render concatenates trivia and text of toks.
func Render(toks []Token) string {
	var sb strings.Builder
	for _, t := range toks {
		for _, tv := range t.Leading {
			sb.WriteString(tv.Text)
		}
		sb.WriteString(t.Text)
	}
	return sb.String()
}
