package prof

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSessionWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		CPU:   filepath.Join(dir, "cpu.pprof"),
		Mem:   filepath.Join(dir, "mem.pprof"),
		Trace: filepath.Join(dir, "trace.out"),
	}
	if !opts.Enabled() {
		t.Fatal("options must be enabled")
	}
	s, err := Start(opts)
	if err != nil {
		t.Fatal(err)
	}
	sum := 0
	for i := range 100000 {
		sum += i
	}
	_ = sum
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{opts.CPU, opts.Mem, opts.Trace} {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatal(err)
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", p)
		}
	}
	// повторная остановка ничего не делает, кроме записи heap-профиля
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
}

func TestStartFailsCleanly(t *testing.T) {
	dir := t.TempDir()
	_, err := Start(Options{
		CPU:   filepath.Join(dir, "cpu.pprof"),
		Trace: filepath.Join(dir, "missing", "trace.out"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	// CPU-профилировщик освобождён, новый запуск возможен
	s, err := Start(Options{CPU: filepath.Join(dir, "again.pprof")})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	if (Options{}).Enabled() {
		t.Fatal("zero options must be disabled")
	}
}
