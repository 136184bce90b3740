// Package edit applies non-overlapping text edits and keeps the offset maps needed
// to report positions in the original source after any number of rewrites.
package edit

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// Edit replaces Start..End (half-open, bytes) of the input with New.
// Start == End is an insertion.
type Edit struct {
	Start uint32
	End   uint32
	New   string
}

func Insert(at uint32, text string) Edit          { return Edit{Start: at, End: at, New: text} }
func Replace(start, end uint32, text string) Edit { return Edit{Start: start, End: end, New: text} }
func Delete(start, end uint32) Edit               { return Edit{Start: start, End: end} }

func (e Edit) IsInsert() bool { return e.Start == e.End }

func (e Edit) String() string {
	return fmt.Sprintf("[%d,%d)->%q", e.Start, e.End, e.New)
}

// ConflictError reports two edits that touch the same input bytes.
type ConflictError struct {
	A, B Edit
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("overlapping edits %s and %s", e.A, e.B)
}

// conflicts follows half-open rules: an insertion conflicts only when it lands strictly
// inside a replaced range; insertions at the same offset keep their order.
func conflicts(a, b Edit) bool {
	switch {
	case a.IsInsert() && b.IsInsert():
		return false
	case a.IsInsert():
		return b.Start < a.Start && a.Start < b.End
	case b.IsInsert():
		return a.Start < b.Start && b.Start < a.End
	}
	return a.Start < b.End && b.Start < a.End
}

// Apply returns src with edits applied and the map from output offsets back to src.
// Insertions at one offset are emitted in the order given; an insertion at the start
// of a replaced range comes before the replacement.
func Apply(src []byte, edits []Edit) ([]byte, *Map, error) {
	n := u32(len(src))
	sorted := slices.Clone(edits)
	slices.SortStableFunc(sorted, func(a, b Edit) int {
		if a.Start != b.Start {
			return cmp(a.Start, b.Start)
		}
		// вставка раньше замены с тем же началом
		return cmp(a.End, b.End)
	})

	for i, e := range sorted {
		if e.End < e.Start || e.End > n {
			return nil, nil, fmt.Errorf("edit %s out of range (len %d)", e, n)
		}
		if i > 0 && conflicts(sorted[i-1], e) {
			return nil, nil, &ConflictError{A: sorted[i-1], B: e}
		}
	}

	grow := 0
	for _, e := range sorted {
		grow += len(e.New) - int(e.End-e.Start)
	}
	out := make([]byte, 0, max(len(src)+grow, 0))
	m := &Map{inLen: n}

	var prev uint32
	for _, e := range sorted {
		if e.Start > prev {
			m.push(u32(len(out)), prev, e.Start, false)
			out = append(out, src[prev:e.Start]...)
		}
		if e.New != "" || e.End > e.Start {
			m.pushReplaced(u32(len(out)), u32(len(e.New)), e.Start, e.End)
			out = append(out, e.New...)
		}
		prev = max(prev, e.End)
	}
	if prev < n {
		m.push(u32(len(out)), prev, n, false)
		out = append(out, src[prev:]...)
	}
	m.outLen = u32(len(out))
	return out, m, nil
}

func cmp(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func u32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("offset overflow: %w", err))
	}
	return v
}
