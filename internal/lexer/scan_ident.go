package lexer

import (
	"strings"

	"experimental/internal/diag"
	"experimental/internal/token"
)

// scanIdentOrKeyword сканирует [Ident] и проверяет через LookupKeyword.
// Если идентификатор: это префикс строки (r, b, f, rb...) и сразу за ним кавычка, сканируем строку.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()

	r, sz := lx.peekRune()
	if sz == 0 {
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: token.Invalid, Span: sp}
	}
	if r < utf8RuneSelf {
		lx.cursor.Bump()
		lx.cursor.EatAll(isIdentContinueByte)
	} else {
		if !isIdentStartRune(r) {
			lx.bumpRune()
			sp := lx.cursor.SpanFrom(start)
			lx.errLex(diag.LexUnknownChar, sp, "unexpected character '"+lx.text(sp)+"'")
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
		}
		lx.bumpRune()
	}
	for {
		b := lx.cursor.Peek()
		if isIdentContinueByte(b) {
			lx.cursor.Bump()
			continue
		}
		if b < utf8RuneSelf {
			break
		}
		r2, sz2 := lx.peekRune()
		if sz2 == 0 || !isIdentContinueRune(r2) {
			break
		}
		lx.bumpRune()
	}

	sp := lx.cursor.SpanFrom(start)
	text := lx.text(sp)

	if q := lx.cursor.Peek(); (q == '"' || q == '\'') && isStringPrefix(text) {
		return lx.scanString(start)
	}

	// Проверка на ключевое слово (регистрозависимо)
	if k, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: k, Span: sp, Text: text}
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text}
}

func isStringPrefix(s string) bool {
	switch strings.ToLower(s) {
	case "r", "u", "b", "f", "br", "rb", "fr", "rf":
		return true
	}
	return false
}
