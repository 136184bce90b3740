package edit_test

import (
	"testing"

	"experimental/internal/edit"
	"experimental/internal/testkit"
)

func FuzzApplyReplace(f *testing.F) {
	f.Add([]byte("def f(a, b=>[a]):\n"), uint16(9), uint16(6), "b=__omitted__")
	f.Add([]byte(""), uint16(0), uint16(0), "x")
	f.Add([]byte("abc"), uint16(3), uint16(0), "")
	f.Fuzz(func(t *testing.T, src []byte, a, b uint16, text string) {
		n := uint32(len(src))
		start := uint32(a) % (n + 1)
		end := start + uint32(b)%(n-start+1)

		out, m, err := edit.Apply(src, []edit.Edit{edit.Replace(start, end, text)})
		if err != nil {
			t.Fatal(err)
		}
		want := string(src[:start]) + text + string(src[end:])
		if string(out) != want {
			t.Fatalf("got %q, want %q", out, want)
		}
		if err := testkit.CheckMapInvariants(m); err != nil {
			t.Fatal(err)
		}
	})
}
