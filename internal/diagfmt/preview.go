package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"fortio.org/safecast"
	"github.com/fatih/color"
)

// LinePreview pairs a line of the original module with its rewritten form.
type LinePreview struct {
	Line   uint32
	Before string
	After  string
}

// BuildPreview lists the lines that differ between original and rewritten.
// Rewriters keep line counts, so lines are compared by number.
func BuildPreview(original, rewritten []byte) []LinePreview {
	before := splitPreviewLines(original)
	after := splitPreviewLines(rewritten)
	var out []LinePreview
	for i := range max(len(before), len(after)) {
		var b, a string
		if i < len(before) {
			b = before[i]
		}
		if i < len(after) {
			a = after[i]
		}
		if a == b {
			continue
		}
		line, err := safecast.Conv[uint32](i + 1)
		if err != nil {
			panic(fmt.Errorf("line number overflow: %w", err))
		}
		out = append(out, LinePreview{Line: line, Before: b, After: a})
	}
	return out
}

// Preview печатает изменённые строки в виде, похожем на unified diff.
func Preview(w io.Writer, path string, original, rewritten []byte, useColor bool) {
	minus := color.New(color.FgRed)
	plus := color.New(color.FgGreen)
	hunk := color.New(color.FgCyan)
	for _, c := range []*color.Color{minus, plus, hunk} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	lines := BuildPreview(original, rewritten)
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(w, "--- %s\n+++ %s (rewritten)\n", path, path)
	for _, l := range lines {
		fmt.Fprintln(w, hunk.Sprintf("@@ %d @@", l.Line))
		fmt.Fprintln(w, minus.Sprint("-"+l.Before))
		fmt.Fprintln(w, plus.Sprint("+"+l.After))
	}
}

func splitPreviewLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	// завершающий \n не даёт лишней пустой строки
	return strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
}
