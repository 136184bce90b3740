package lexer

import (
	"experimental/internal/diag"
	"experimental/internal/source"
)

type Options struct {
	// Reporter может быть nil: тогда ошибки только запоминаются для Err().
	Reporter diag.Reporter
}

func (lx *Lexer) errLex(code diag.Code, sp source.Span, msg string) {
	if lx.first == nil {
		lx.first = &diag.LexError{Code: code, Msg: msg, Off: sp.Start, Pos: lx.file.Pos(sp.Start)}
	}
	if lx.opts.Reporter != nil {
		lx.opts.Reporter.Report(code, diag.SevError, sp, msg)
	}
}
