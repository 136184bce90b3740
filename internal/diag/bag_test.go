package diag_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"experimental/internal/diag"
	"experimental/internal/source"
)

func TestBagLimitAndSort(t *testing.T) {
	b := diag.NewBag(3)
	b.Add(diag.NewError(diag.HostSyntax, source.Pos{Path: "b.py", Line: 1, Col: 1}, "x"))
	b.Add(diag.NewError(diag.LexUnknownChar, source.Pos{Path: "a.py", Line: 9, Col: 1}, "y"))
	b.Add(diag.New(diag.SevWarning, diag.LexInfo, source.Pos{Path: "a.py", Line: 2, Col: 5}, "z"))
	if b.Add(diag.NewError(diag.LexInfo, source.Pos{}, "dropped")) {
		t.Fatalf("limit must be enforced")
	}
	b.Sort()
	items := b.Items()
	if items[0].Message != "z" || items[1].Message != "y" || items[2].Message != "x" {
		t.Fatalf("unexpected order: %+v", items)
	}
	if !b.HasErrors() {
		t.Fatalf("HasErrors must be true")
	}
}

func TestBagAddError(t *testing.T) {
	b := diag.NewBag(0)
	lex := &diag.LexError{Code: diag.LexControlChar, Pos: source.Pos{Path: "m.py", Line: 1, Col: 2}, Msg: "control character U+0001"}
	joined := errors.Join(fmt.Errorf("a: %w", lex), errors.New("plain"))
	b.AddError(joined)
	items := b.Items()
	if len(items) != 2 {
		t.Fatalf("expected two diagnostics, got %d", len(items))
	}
	if items[0].Code != diag.LexControlChar || items[1].Code != diag.UnknownCode {
		t.Fatalf("unexpected codes: %v %v", items[0].Code, items[1].Code)
	}
}

func TestBagConcurrentAdd(t *testing.T) {
	b := diag.NewBag(1000)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 50 {
				b.Add(diag.NewError(diag.LoadExec, source.Pos{Path: "m.py", Line: uint32(i*50 + j + 1)}, "boom"))
			}
		}()
	}
	wg.Wait()
	if b.Len() != 400 {
		t.Fatalf("expected 400 items, got %d", b.Len())
	}
}

func TestBagDedup(t *testing.T) {
	b := diag.NewBag(10)
	d := diag.NewError(diag.HostSyntax, source.Pos{Path: "m.py", Line: 1, Col: 1}, "same")
	b.Add(d)
	b.Add(d)
	b.Dedup()
	if b.Len() != 1 {
		t.Fatalf("duplicates must collapse, got %d", b.Len())
	}
}
