package diag

import (
	"experimental/internal/source"
)

type Note struct {
	Pos source.Pos
	Msg string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	// Pos is Primary resolved against the original module source.
	Pos     source.Pos
	Stage   Stage
	Feature string
	Notes   []Note
}

func New(sev Severity, code Code, pos source.Pos, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Pos:      pos,
		Message:  msg,
	}
}

func NewError(code Code, pos source.Pos, msg string) Diagnostic {
	return New(SevError, code, pos, msg)
}

func (d Diagnostic) WithNote(pos source.Pos, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Pos: pos, Msg: msg})
	return d
}
