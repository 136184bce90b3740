package diagfmt

import (
	"encoding/json"
	"io"

	"experimental/internal/diag"
	"experimental/internal/source"
)

// LocationJSON представляет местоположение в файле для JSON
type LocationJSON struct {
	File string `json:"file,omitempty"`
	Line uint32 `json:"line,omitempty"`
	Col  uint32 `json:"col,omitempty"`
}

// NoteJSON представляет дополнительную заметку для JSON
type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Title    string       `json:"title"`
	Message  string       `json:"message"`
	Stage    string       `json:"stage,omitempty"`
	Feature  string       `json:"feature,omitempty"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

func makeLocation(pos source.Pos, mode PathMode, base string) LocationJSON {
	return LocationJSON{File: formatPath(pos.Path, mode, base), Line: pos.Line, Col: pos.Col}
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
func BuildDiagnosticsOutput(bag *diag.Bag, opts JSONOpts) DiagnosticsOutput {
	items := bag.Items()
	if opts.Max > 0 && opts.Max < len(items) {
		items = items[:opts.Max]
	}
	diagnostics := make([]DiagnosticJSON, 0, len(items))
	for _, d := range items {
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Title:    d.Code.Title(),
			Message:  d.Message,
			Feature:  d.Feature,
			Location: makeLocation(d.Pos, opts.PathMode, opts.BaseDir),
		}
		if d.Stage != diag.StageUnknown {
			dj.Stage = d.Stage.String()
		}
		if opts.IncludeNotes && len(d.Notes) > 0 {
			dj.Notes = make([]NoteJSON, len(d.Notes))
			for j, n := range d.Notes {
				dj.Notes[j] = NoteJSON{Message: n.Msg, Location: makeLocation(n.Pos, opts.PathMode, opts.BaseDir)}
			}
		}
		diagnostics = append(diagnostics, dj)
	}
	return DiagnosticsOutput{Diagnostics: diagnostics, Count: len(diagnostics)}
}

// JSON форматирует диагностики в JSON формат.
func JSON(w io.Writer, bag *diag.Bag, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildDiagnosticsOutput(bag, opts))
}
