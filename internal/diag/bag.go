package diag

import (
	"fmt"
	"sort"
	"sync"
)

// Bag collects diagnostics up to a limit. Safe for concurrent Add: the driver
// feeds one Bag from several module loads.
type Bag struct {
	mu    sync.Mutex
	items []Diagnostic
	max   int
}

func NewBag(max int) *Bag {
	if max <= 0 {
		max = 1 << 16
	}
	return &Bag{
		items: make([]Diagnostic, 0, min(max, 64)),
		max:   max,
	}
}

// Add добавляет диагностику, учитывая лимит.
// Возвращает false, если диагностика не добавлена (достигнут лимит).
func (b *Bag) Add(d Diagnostic) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, d)
	return true
}

// AddError converts a stage error into a diagnostic. Errors outside the taxonomy become UnknownCode.
func (b *Bag) AddError(err error) bool {
	if err == nil {
		return false
	}
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		added := false
		for _, e := range multi.Unwrap() {
			added = b.AddError(e) || added
		}
		return added
	}
	if d, ok := FromError(err); ok {
		return b.Add(d)
	}
	return b.Add(Diagnostic{Severity: SevError, Code: UnknownCode, Message: err.Error()})
}

func (b *Bag) Cap() int {
	return b.max
}

// HasErrors возвращает true, если есть хотя бы одна диагностика с Severity >= Error
func (b *Bag) HasErrors() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// длина
func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Items возвращает копию диагностик.
func (b *Bag) Items() []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Diagnostic(nil), b.items...)
}

// Merge объединяет диагностики из другого Bag.
// Увеличивает max, если нужно вместить все элементы.
func (b *Bag) Merge(other *Bag) {
	items := other.Items()
	b.mu.Lock()
	defer b.mu.Unlock()
	if n := len(b.items) + len(items); n > b.max {
		b.max = n
	}
	b.items = append(b.items, items...)
}

// Sort сортирует диагностики по: path, line, col, severity (desc), code (asc)
// для стабильного и детерминированного порядка вывода.
func (b *Bag) Sort() {
	b.mu.Lock()
	defer b.mu.Unlock()
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Pos.Path != dj.Pos.Path {
			return di.Pos.Path < dj.Pos.Path
		}
		if di.Pos.Line != dj.Pos.Line {
			return di.Pos.Line < dj.Pos.Line
		}
		if di.Pos.Col != dj.Pos.Col {
			return di.Pos.Col < dj.Pos.Col
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code < dj.Code
	})
}

// простая дедупликация (по Code+Pos+Message)
func (b *Bag) Dedup() {
	b.mu.Lock()
	defer b.mu.Unlock()
	seen := make(map[string]bool)
	newitems := make([]Diagnostic, 0, len(b.items))
	for _, d := range b.items {
		key := fmt.Sprintf("%s:%s:%s", d.Code.ID(), d.Pos, d.Message)
		if seen[key] {
			continue
		}
		seen[key] = true
		newitems = append(newitems, d)
	}
	b.items = newitems
}
