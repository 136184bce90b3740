package lexer

import (
	"experimental/internal/diag"
	"experimental/internal/token"
)

// Жадность: сначала 3-символьные, затем 2-символьные, затем 1-символьные.
// '=>' и одиночный '!': маркеры расширений, а не ошибки.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	emit := func(k token.Kind) token.Token { return lx.emit(k, start) }

	switch {
	case lx.try3('*', '*', '='), lx.try3('/', '/', '='), lx.try3('>', '>', '='), lx.try3('<', '<', '='):
		return emit(token.AugAssign)
	case lx.try3('.', '.', '.'):
		return emit(token.Ellipsis)
	case lx.try2('*', '*'):
		return emit(token.StarStar)
	case lx.try2('/', '/'):
		return emit(token.SlashSlash)
	case lx.try2('<', '<'):
		return emit(token.Shl)
	case lx.try2('>', '>'):
		return emit(token.Shr)
	case lx.try2('<', '='):
		return emit(token.LtEq)
	case lx.try2('>', '='):
		return emit(token.GtEq)
	case lx.try2('=', '='):
		return emit(token.EqEq)
	case lx.try2('!', '='):
		return emit(token.NotEq)
	case lx.try2('-', '>'):
		return emit(token.Arrow)
	case lx.try2(':', '='):
		return emit(token.Walrus)
	case lx.try2('=', '>'):
		return emit(token.FatArrow)
	}
	if b0, b1, ok := lx.cursor.Peek2(); ok && b1 == '=' {
		switch b0 {
		case '+', '-', '*', '/', '%', '@', '&', '|', '^':
			lx.cursor.Off += 2
			return emit(token.AugAssign)
		}
	}

	// односимвольные
	ch := lx.cursor.Bump()
	switch ch {
	case '+':
		return emit(token.Plus)
	case '-':
		return emit(token.Minus)
	case '*':
		return emit(token.Star)
	case '/':
		return emit(token.Slash)
	case '%':
		return emit(token.Percent)
	case '@':
		return emit(token.At)
	case '&':
		return emit(token.Amp)
	case '|':
		return emit(token.Pipe)
	case '^':
		return emit(token.Caret)
	case '~':
		return emit(token.Tilde)
	case '<':
		return emit(token.Lt)
	case '>':
		return emit(token.Gt)
	case '=':
		return emit(token.Assign)
	case '!':
		return emit(token.Bang)
	case '(':
		return emit(token.LParen)
	case ')':
		return emit(token.RParen)
	case '[':
		return emit(token.LBracket)
	case ']':
		return emit(token.RBracket)
	case '{':
		return emit(token.LBrace)
	case '}':
		return emit(token.RBrace)
	case ',':
		return emit(token.Comma)
	case ':':
		return emit(token.Colon)
	case ';':
		return emit(token.Semicolon)
	case '.':
		return emit(token.Dot)
	}

	// неизвестный символ ('$', '?', '`', одиночный '\')
	tok := emit(token.Invalid)
	msg := "unexpected character '" + tok.Text + "'"
	if ch == '\\' {
		msg = "unexpected character after line continuation"
	}
	lx.errLex(diag.LexUnknownChar, tok.Span, msg)
	return tok
}
