package lexer

import (
	"experimental/internal/diag"
	"experimental/internal/token"
)

// Поддержка: 0, 123, 1_000, 0b..., 0o..., 0x..., 1.0, .5, 1., 1e-3, 1.0e+10, 3j.
// Неверные формы: репорт, токен по возможности завершаем.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	isDecOrSep := func(b byte) bool { return isDec(b) || b == '_' }

	// ведущая точка: значит формат ".digits"
	if lx.cursor.Peek() == '.' {
		lx.cursor.Bump()
		lx.cursor.EatAll(isDecOrSep)
		return lx.finishFloat(start)
	}

	// ведущий 0 и база?
	if lx.cursor.Peek() == '0' {
		var digit func(byte) bool
		switch lx.cursor.PeekAt(1) {
		case 'b', 'B':
			digit = func(b byte) bool { return b == '0' || b == '1' || b == '_' }
		case 'o', 'O':
			digit = func(b byte) bool { return (b >= '0' && b <= '7') || b == '_' }
		case 'x', 'X':
			digit = func(b byte) bool { return isHex(b) || b == '_' }
		}
		if digit != nil {
			lx.cursor.Off += 2
			if lx.cursor.EatAll(digit) == 0 {
				return lx.badNumber(start, "missing digits after base prefix")
			}
			return lx.emit(token.NumberLit, start)
		}
	}

	// десятичная целая часть
	lx.cursor.EatAll(isDecOrSep)

	// дробная часть: "1." тоже float, но "1...": нет
	if lx.cursor.Peek() == '.' && !(lx.cursor.PeekAt(1) == '.' && lx.cursor.PeekAt(2) == '.') {
		lx.cursor.Bump()
		lx.cursor.EatAll(isDecOrSep)
	}
	return lx.finishFloat(start)
}

// finishFloat дочитывает экспоненту и мнимый суффикс.
func (lx *Lexer) finishFloat(start Mark) token.Token {
	if b := lx.cursor.Peek(); b == 'e' || b == 'E' {
		lx.cursor.Bump()
		if b := lx.cursor.Peek(); b == '+' || b == '-' {
			lx.cursor.Bump()
		}
		if lx.cursor.EatAll(func(b byte) bool { return isDec(b) || b == '_' }) == 0 {
			return lx.badNumber(start, "expected digit after exponent")
		}
	}
	if b := lx.cursor.Peek(); b == 'j' || b == 'J' {
		lx.cursor.Bump()
	}
	if lx.file.Content[lx.cursor.Off-1] == '_' {
		return lx.badNumber(start, "trailing '_' in number literal")
	}
	return lx.emit(token.NumberLit, start)
}

func (lx *Lexer) badNumber(start Mark, msg string) token.Token {
	tok := lx.emit(token.Invalid, start)
	lx.errLex(diag.LexBadNumber, tok.Span, msg)
	return tok
}
