package lexer

import (
	"experimental/internal/token"
)

// collectLeadingTrivia собирает подряд идущие trivia перед значимым токеном.
// - ' ', '\t', '\f' и одиночный '\r' коалесцируются в один TriviaSpace
// - '\n' внутри скобок или на пустой строке -> TriviaNewline (подряд идущие склеиваются)
// - '#...' до '\n' -> TriviaComment
// - '\\' + '\n' -> TriviaContinuation
// '\n', завершающий логическую строку, остаётся в курсоре: это токен Newline.
func (lx *Lexer) collectLeadingTrivia() {
	for !lx.cursor.EOF() {
		start := lx.cursor.Mark()
		b := lx.cursor.Peek()

		switch {
		case isSpace(b):
			lx.cursor.EatAll(isSpace)
			lx.pushTrivia(token.TriviaSpace, start)

		case b == '\n':
			if lx.depth == 0 && lx.lineHasToken {
				return
			}
			lx.cursor.EatAll(func(c byte) bool { return c == '\n' })
			lx.pushTrivia(token.TriviaNewline, start)

		case b == '#':
			lx.cursor.EatAll(func(c byte) bool { return c != '\n' })
			lx.pushTrivia(token.TriviaComment, start)

		case b == '\\' && lx.cursor.PeekAt(1) == '\n':
			lx.cursor.Bump()
			lx.cursor.Bump()
			lx.pushTrivia(token.TriviaContinuation, start)

		default:
			// нет больше trivia
			return
		}
	}
}

func (lx *Lexer) pushTrivia(kind token.TriviaKind, start Mark) {
	sp := lx.cursor.SpanFrom(start)
	lx.hold = append(lx.hold, token.Trivia{Kind: kind, Span: sp, Text: lx.text(sp)})
}
