// Package testkit holds checks shared by the tests of the scanner, the edit
// engine and the rewriters.
package testkit

import (
	"fmt"

	"experimental/internal/edit"
	"experimental/internal/source"
	"experimental/internal/token"
)

// CheckTokenInvariants verifies a token stream against its file:
// 1) spans are non-decreasing and inside the content
// 2) each token's Text is the content under its span
// 3) trivia and text concatenate back to the content
func CheckTokenInvariants(f *source.File, toks []token.Token) error {
	if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
		return fmt.Errorf("stream does not end with EOF")
	}
	var prev uint32
	for i, t := range toks {
		sp := t.Span
		if sp.End < sp.Start || sp.Start < prev {
			return fmt.Errorf("token %d (%s) has span %d..%d after offset %d", i, t.Kind, sp.Start, sp.End, prev)
		}
		if sp.End > f.Len() {
			return fmt.Errorf("token %d (%s) ends at %d beyond %d", i, t.Kind, sp.End, f.Len())
		}
		if got := string(f.Content[sp.Start:sp.End]); got != t.Text {
			return fmt.Errorf("token %d text %q, content %q", i, t.Text, got)
		}
		prev = sp.End
	}
	if got := token.Render(toks); got != string(f.Content) {
		return fmt.Errorf("round trip mismatch:\n got %q\nwant %q", got, f.Content)
	}
	return nil
}

// CheckMapInvariants verifies that m is monotonic and covers both texts.
func CheckMapInvariants(m *edit.Map) error {
	var prev uint32
	for off := uint32(0); off <= m.OutLen(); off++ {
		in := m.ToInput(off)
		if in < prev {
			return fmt.Errorf("offset %d maps to %d, before %d", off, in, prev)
		}
		if in > m.InLen() {
			return fmt.Errorf("offset %d maps to %d beyond input length %d", off, in, m.InLen())
		}
		prev = in
	}
	if got := m.ToInput(m.OutLen()); got != m.InLen() {
		return fmt.Errorf("end maps to %d, want %d", got, m.InLen())
	}
	return nil
}
