package lexer

import (
	"experimental/internal/diag"
	"experimental/internal/source"
	"experimental/internal/token"
)

type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	look   *token.Token   // 1 элементный буфер для токена
	hold   []token.Trivia // накопленные leading trivia

	depth        int  // глубина скобок; внутри скобок '\n' считается trivia
	lineHasToken bool // на текущей логической строке уже был значимый токен
	done         bool
	first        *diag.LexError
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		file:   file,
		cursor: NewCursor(file),
		opts:   opts,
	}
}

// Next возвращает следующий **значимый** токен с уже собранным Leading.
// Хвостовые trivia файла приклеиваются к EOF. После EOF всегда возвращает EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}
	if lx.done {
		return token.Token{Kind: token.EOF, Span: lx.emptySpan()}
	}

	lx.collectLeadingTrivia()

	if lx.cursor.EOF() {
		// незавершённая последняя строка всё равно получает Newline
		if lx.lineHasToken {
			lx.lineHasToken = false
			return lx.attach(token.Token{Kind: token.Newline, Span: lx.emptySpan()})
		}
		lx.done = true
		return lx.attach(token.Token{Kind: token.EOF, Span: lx.emptySpan()})
	}

	ch := lx.cursor.Peek()
	var tok token.Token

	switch {
	case ch == '\n':
		// collectLeadingTrivia оставляет '\n' только в конце логической строки
		start := lx.cursor.Mark()
		lx.cursor.Bump()
		tok = lx.emit(token.Newline, start)
		lx.lineHasToken = false
		return lx.attach(tok)

	case isIdentStartByte(ch) || ch >= utf8RuneSelf:
		tok = lx.scanIdentOrKeyword()

	case isDec(ch):
		tok = lx.scanNumber()

	case ch == '.' && lx.isNumberAfterDot():
		tok = lx.scanNumber()

	case ch == '"' || ch == '\'':
		tok = lx.scanString(lx.cursor.Mark())

	case isControl(ch):
		start := lx.cursor.Mark()
		lx.cursor.Bump()
		sp := lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexControlChar, sp, controlMessage(ch))
		tok = token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}

	default:
		tok = lx.scanOperatorOrPunct()
	}

	lx.trackDepth(tok)
	lx.lineHasToken = true
	return lx.attach(tok)
}

// Peek возвращает следующий токен, не потребляя его.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

// Err returns the first lexical error seen so far.
func (lx *Lexer) Err() error {
	if lx.first == nil {
		return nil
	}
	return lx.first
}

// Depth is the bracket nesting level after the last returned token.
func (lx *Lexer) Depth() int { return lx.depth }

func (lx *Lexer) attach(tok token.Token) token.Token {
	tok.Leading = lx.hold
	lx.hold = nil
	return tok
}

func (lx *Lexer) trackDepth(tok token.Token) {
	switch {
	case tok.Opens():
		lx.depth++
	case tok.Closes():
		if lx.depth == 0 {
			lx.errLex(diag.LexUnbalancedBracket, tok.Span, "unmatched '"+tok.Text+"'")
			return
		}
		lx.depth--
	}
}

func (lx *Lexer) emit(k token.Kind, start Mark) token.Token {
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: k, Span: sp, Text: lx.text(sp)}
}

func (lx *Lexer) text(sp source.Span) string {
	return string(lx.file.Content[sp.Start:sp.End])
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}
