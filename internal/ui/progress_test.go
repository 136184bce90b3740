package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"experimental/internal/driver"
)

func TestProgressModel(t *testing.T) {
	events := make(chan driver.Event)
	m := NewProgressModel("check", events).(*progressModel)

	for _, ev := range []driver.Event{
		{File: "a.py", Status: driver.StatusQueued},
		{File: "b.py", Status: driver.StatusQueued},
		{File: "a.py", Status: driver.StatusWorking},
		{File: "a.py", Status: driver.StatusDone},
		{File: "b.py", Status: driver.StatusError},
	} {
		m.Update(eventMsg(ev))
	}
	if len(m.items) != 2 {
		t.Fatalf("items %+v", m.items)
	}
	if m.percent() != 1 {
		t.Fatalf("percent %v", m.percent())
	}

	view := m.View()
	for _, want := range []string{"check (2/2)", "done", "error", "a.py", "b.py"} {
		if !strings.Contains(view, want) {
			t.Errorf("view misses %q:\n%s", want, view)
		}
	}

	_, cmd := m.Update(doneMsg{})
	if !m.done || cmd == nil {
		t.Fatal("done message must quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected quit")
	}
}

func TestPercentHalfway(t *testing.T) {
	m := NewProgressModel("check", nil).(*progressModel)
	m.applyEvent(driver.Event{File: "a.py", Status: driver.StatusWorking})
	m.applyEvent(driver.Event{File: "b.py", Status: driver.StatusQueued})
	if got := m.percent(); got != 0.25 {
		t.Fatalf("percent %v, want 0.25", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefghij", 6); got != "abc..." {
		t.Fatalf("got %q", got)
	}
	if got := truncate("abc", 6); got != "abc" {
		t.Fatalf("got %q", got)
	}
	if got := truncate("abcdef", 2); got != "ab" {
		t.Fatalf("got %q", got)
	}
}
