package token

import "experimental/internal/source"

type TriviaKind uint8

const (
	TriviaSpace TriviaKind = iota
	TriviaNewline
	TriviaComment
	// TriviaContinuation is a backslash followed by a newline.
	TriviaContinuation
)

type Trivia struct {
	Kind TriviaKind
	Span source.Span
	Text string
}

func (k TriviaKind) String() string {
	switch k {
	case TriviaSpace:
		return "Space"
	case TriviaNewline:
		return "Newline"
	case TriviaComment:
		return "Comment"
	case TriviaContinuation:
		return "Continuation"
	}
	return "TriviaKind(?)"
}
