package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"experimental/internal/modrt"
)

func TestInvalidateDropsImporters(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.py"), []byte("import b\nV = b.X\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	bPath := filepath.Join(root, "b.py")
	if err := os.WriteFile(bPath, []byte("X = 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	rt := modrt.New(modrt.Options{Roots: []string{root}})
	if _, err := rt.Import(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	w, err := New(rt, Config{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if w.Invalidate([]string{filepath.Join(root, "other.py")}) {
		t.Fatal("unknown path reported as loaded")
	}
	if !w.Invalidate([]string{bPath}) {
		t.Fatal("b was loaded")
	}
	if rt.IsLoaded("a") || rt.IsLoaded("b") {
		t.Fatalf("stale modules left: %v", rt.Loaded())
	}
}

func TestRunReportsChanges(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "m.py")
	if err := os.WriteFile(path, []byte("X = 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	rt := modrt.New(modrt.Options{Roots: []string{root}})
	if _, err := rt.Import(context.Background(), "m"); err != nil {
		t.Fatal(err)
	}

	w, err := New(rt, Config{Debounce: 20 * time.Millisecond, SkipHidden: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Add(root); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	got := make(chan []string, 1)
	go func() {
		_ = w.Run(ctx, func(_ context.Context, changed []string) {
			select {
			case got <- changed:
			default:
			}
			cancel()
		})
	}()

	// несколько записей подряд схлопываются в одно событие
	for _, text := range []string{"X = 2\n", "X = 3\n", "notes\n"} {
		if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case changed := <-got:
		if len(changed) != 1 || filepath.Base(changed[0]) != "m.py" {
			t.Fatalf("changed = %v", changed)
		}
		if rt.IsLoaded("m") {
			t.Fatal("m must be invalidated before the callback")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestIsSource(t *testing.T) {
	for path, want := range map[string]bool{"a.py": true, "b/c.star": true, "d.txt": false, "e": false} {
		if isSource(path) != want {
			t.Errorf("isSource(%q) != %v", path, want)
		}
	}
}
