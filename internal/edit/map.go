package edit

import "sort"

type segment struct {
	outStart, outEnd uint32
	inStart, inEnd   uint32
	// replaced segments hold new text; offsets inside map to inStart.
	replaced bool
}

// Map translates offsets of one rewrite's output back to its input.
type Map struct {
	segs   []segment
	inLen  uint32
	outLen uint32
}

// Identity is the map of a stage that changed nothing.
func Identity(n uint32) *Map {
	return &Map{
		segs:   []segment{{outStart: 0, outEnd: n, inStart: 0, inEnd: n}},
		inLen:  n,
		outLen: n,
	}
}

func (m *Map) push(outStart, inStart, inEnd uint32, replaced bool) {
	m.segs = append(m.segs, segment{
		outStart: outStart, outEnd: outStart + (inEnd - inStart),
		inStart: inStart, inEnd: inEnd, replaced: replaced,
	})
}

func (m *Map) pushReplaced(outStart, outLen, inStart, inEnd uint32) {
	m.segs = append(m.segs, segment{
		outStart: outStart, outEnd: outStart + outLen,
		inStart: inStart, inEnd: inEnd, replaced: true,
	})
}

// ToInput maps an output offset to the input offset it came from. Offsets inside
// inserted or replacing text map to the start of the edit.
func (m *Map) ToInput(off uint32) uint32 {
	if off >= m.outLen {
		return m.inLen
	}
	i := sort.Search(len(m.segs), func(i int) bool { return m.segs[i].outEnd > off })
	if i == len(m.segs) {
		return m.inLen
	}
	s := m.segs[i]
	if s.replaced {
		return s.inStart
	}
	return s.inStart + (off - s.outStart)
}

// Splits reports whether off falls strictly inside replacing text, where no
// input offset corresponds to it.
func (m *Map) Splits(off uint32) bool {
	i := sort.Search(len(m.segs), func(i int) bool { return m.segs[i].outEnd > off })
	if i == len(m.segs) {
		return false
	}
	s := m.segs[i]
	return s.replaced && s.outStart < off
}

// Translate moves edits made against the output back onto the input. It fails
// when an edit boundary splits replacing text.
func (m *Map) Translate(edits []Edit) ([]Edit, error) {
	out := make([]Edit, 0, len(edits))
	for _, e := range edits {
		if m.Splits(e.Start) || m.Splits(e.End) {
			return nil, &ConflictError{A: e, B: e}
		}
		start := m.ToInput(e.Start)
		end := m.ToInput(e.End)
		if e.IsInsert() {
			end = start
		}
		out = append(out, Edit{Start: start, End: end, New: e.New})
	}
	return out, nil
}

// Changed reports whether the stage altered its input.
func (m *Map) Changed() bool {
	for _, s := range m.segs {
		if s.replaced {
			return true
		}
	}
	return false
}

// InLen and OutLen are the input and output lengths.
func (m *Map) InLen() uint32  { return m.inLen }
func (m *Map) OutLen() uint32 { return m.outLen }

// Chain composes the maps of consecutive stages, first stage first.
type Chain struct {
	maps []*Map
}

// Push appends the map of the next stage.
func (c *Chain) Push(m *Map) {
	if m != nil {
		c.maps = append(c.maps, m)
	}
}

// Len is the number of stages recorded.
func (c *Chain) Len() int { return len(c.maps) }

// ToOriginal maps an offset in the latest output back to the first input.
func (c *Chain) ToOriginal(off uint32) uint32 {
	for i := len(c.maps) - 1; i >= 0; i-- {
		off = c.maps[i].ToInput(off)
	}
	return off
}

// Prefix returns a chain of the first n stages, used to map errors raised while
// a later stage was still reading the output of stage n.
func (c *Chain) Prefix(n int) *Chain {
	return &Chain{maps: c.maps[:min(n, len(c.maps))]}
}
