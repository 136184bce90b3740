package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"experimental/internal/diag"
	"experimental/internal/source"
)

const tabWidth = 4

type palette struct {
	err, warn, info, code, path, gutter, caret *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan),
		code:   color.New(color.Bold),
		path:   color.New(color.FgWhite, color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.path, p.gutter, p.caret} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждой диагностики печатает
//
//	<path>:<line>:<col>: <SEV> <CODE> [feature]: <Message>
//
// затем строки контекста из fs с кареткой под колонкой и заметки.
// fs может быть nil: тогда контекст не печатается.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	pal := newPalette(opts.Color)
	for _, d := range bag.Items() {
		prettyOne(w, d, fs, opts, pal)
	}
}

func prettyOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, pal palette) {
	var head strings.Builder
	if loc := location(d.Pos, opts.PathMode, opts.BaseDir); loc != "" {
		head.WriteString(pal.path.Sprint(loc))
		head.WriteString(": ")
	}
	head.WriteString(pal.severity(d.Severity).Sprint(d.Severity.String()))
	head.WriteString(" ")
	head.WriteString(pal.code.Sprint(d.Code.ID()))
	if d.Feature != "" {
		head.WriteString(" [" + d.Feature + "]")
	}
	head.WriteString(": ")
	head.WriteString(d.Message)
	fmt.Fprintln(w, head.String())

	if fs != nil && d.Pos.Line > 0 {
		if f, ok := fs.GetByPath(d.Pos.Path); ok {
			snippet(w, f, d.Pos, opts, pal)
		}
	}
	if opts.ShowNotes {
		for _, n := range d.Notes {
			loc := location(n.Pos, opts.PathMode, opts.BaseDir)
			if loc != "" {
				loc += ": "
			}
			fmt.Fprintf(w, "  %s %s%s\n", pal.info.Sprint("note:"), loc, n.Msg)
		}
	}
}

func location(pos source.Pos, mode PathMode, base string) string {
	pos.Path = formatPath(pos.Path, mode, base)
	return pos.String()
}

// snippet печатает строку ошибки и до opts.Context строк перед ней.
func snippet(w io.Writer, f *source.File, pos source.Pos, opts PrettyOpts, pal palette) {
	first := pos.Line
	for range max(opts.Context, 0) {
		if first <= 1 {
			break
		}
		first--
	}
	gw := len(fmt.Sprint(pos.Line))
	for line := first; line <= pos.Line; line++ {
		text := expandTabs(f.GetLine(line))
		if opts.Width > 0 {
			text = runewidth.Truncate(text, int(opts.Width), "…")
		}
		fmt.Fprintf(w, "%s %s\n", pal.gutter.Sprintf("%*d |", gw, line), text)
	}

	// колонка считается в рунах, каретка ставится по ширине на экране
	line := f.GetLine(pos.Line)
	prefix := line
	if runes := []rune(line); int(pos.Col)-1 < len(runes) && pos.Col > 0 {
		prefix = string(runes[:pos.Col-1])
	}
	pad := runewidth.StringWidth(expandTabs(prefix))
	if opts.Width > 0 && pad >= int(opts.Width) {
		return
	}
	fmt.Fprintf(w, "%s %s%s\n", pal.gutter.Sprintf("%*s |", gw, ""), strings.Repeat(" ", pad), pal.caret.Sprint("^"))
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}
