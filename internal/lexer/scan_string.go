package lexer

import (
	"experimental/internal/diag"
	"experimental/internal/token"
)

// scanString сканирует строку от start (префикс уже прочитан, курсор на кавычке).
// Поддерживаются одинарные и тройные кавычки; escape-последовательности не валидируются,
// только пропускаются: '\' съедает следующий байт, включая '\n'.
func (lx *Lexer) scanString(start Mark) token.Token {
	q := lx.cursor.Bump()
	triple := lx.cursor.Peek() == q && lx.cursor.PeekAt(1) == q
	if triple {
		lx.cursor.Bump()
		lx.cursor.Bump()
	}

	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		switch {
		case b == '\\':
			lx.cursor.Bump()
			lx.cursor.Bump()
			continue
		case b == 0:
			cs := lx.cursor.Mark()
			lx.cursor.Bump()
			lx.errLex(diag.LexControlChar, lx.cursor.SpanFrom(cs), controlMessage(b))
			continue
		case b == q && !triple:
			lx.cursor.Bump()
			return lx.emit(token.StringLit, start)
		case b == q && lx.cursor.PeekAt(1) == q && lx.cursor.PeekAt(2) == q:
			lx.cursor.Off += 3
			return lx.emit(token.StringLit, start)
		case b == '\n' && !triple:
			// перевод строки в однострочном литерале
			tok := lx.emit(token.Invalid, start)
			lx.errLex(diag.LexUnterminatedString, tok.Span, "unterminated string literal")
			return tok
		}
		lx.cursor.Bump()
	}

	// EOF без закрывающей кавычки
	tok := lx.emit(token.Invalid, start)
	if triple {
		lx.errLex(diag.LexUnterminatedString, tok.Span, "unterminated triple-quoted string literal")
	} else {
		lx.errLex(diag.LexUnterminatedString, tok.Span, "unterminated string literal")
	}
	return tok
}
