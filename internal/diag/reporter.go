package diag

import "experimental/internal/source"

// Reporter: минимальный контракт получения диагностик от фаз.
type Reporter interface {
	Report(code Code, sev Severity, primary source.Span, msg string)
}

// BagReporter: адаптер, который пишет в *Bag; позиции разрешаются через File.
type BagReporter struct {
	Bag   *Bag
	File  *source.File
	Stage Stage
}

func (r BagReporter) Report(code Code, sev Severity, primary source.Span, msg string) {
	if r.Bag == nil {
		return
	}
	d := Diagnostic{
		Severity: sev, Code: code, Message: msg,
		Primary: primary, Stage: r.Stage,
	}
	if r.File != nil {
		d.Pos = r.File.Pos(primary.Start)
	}
	r.Bag.Add(d)
}

// NopReporter drops everything.
type NopReporter struct{}

func (NopReporter) Report(Code, Severity, source.Span, string) {}

// FirstError remembers the first error-level report and forwards everything to Next.
type FirstError struct {
	Next  Reporter
	Code  Code
	Span  source.Span
	Msg   string
	Found bool
}

func (r *FirstError) Report(code Code, sev Severity, primary source.Span, msg string) {
	if sev >= SevError && !r.Found {
		r.Found = true
		r.Code, r.Span, r.Msg = code, primary, msg
	}
	if r.Next != nil {
		r.Next.Report(code, sev, primary, msg)
	}
}
