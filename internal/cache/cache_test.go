package cache_test

import (
	"os"
	"path/filepath"
	"testing"

	"experimental/internal/cache"
	"experimental/internal/host"
)

func TestKeyDependsOnEveryInput(t *testing.T) {
	base := cache.Key([]byte("x = 1\n"), "a.py", "a", false)
	others := []cache.Digest{
		cache.Key([]byte("x = 2\n"), "a.py", "a", false),
		cache.Key([]byte("x = 1\n"), "b.py", "a", false),
		cache.Key([]byte("x = 1\n"), "a.py", "b", false),
		cache.Key([]byte("x = 1\n"), "a.py", "a", true),
	}
	for i, k := range others {
		if k == base {
			t.Errorf("variant %d collides with base key", i)
		}
	}
	if cache.Key([]byte("x = 1\n"), "a.py", "a", false) != base {
		t.Error("key is not deterministic")
	}
}

func TestMemoryCache(t *testing.T) {
	c := cache.Memory()
	key := cache.Key([]byte("x"), "m.py", "m", false)
	var p cache.Payload
	if ok, err := c.Get(key, &p); ok || err != nil {
		t.Fatalf("empty cache hit: %v %v", ok, err)
	}
	if err := c.Put(key, &cache.Payload{Module: "m", Program: []byte{1, 2}}); err != nil {
		t.Fatal(err)
	}
	if ok, err := c.Get(key, &p); !ok || err != nil || p.Module != "m" {
		t.Fatalf("miss after put: %v %v %+v", ok, err, p)
	}
	if hits, misses := c.Stats(); hits != 1 || misses != 1 {
		t.Errorf("stats = %d/%d", hits, misses)
	}
}

func TestDiskCacheSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	prog, err := host.Compile("m.py", []byte("x = 40 + 2\n"))
	if err != nil {
		t.Fatal(err)
	}
	data, err := cache.EncodeProgram(prog)
	if err != nil {
		t.Fatal(err)
	}

	c1, err := cache.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	key := cache.Key([]byte("x = 40 + 2\n"), "m.py", "m", false)
	if err := c1.Put(key, &cache.Payload{Module: "m", Path: "m.py", Program: data}); err != nil {
		t.Fatal(err)
	}

	c2, err := cache.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	var p cache.Payload
	ok, err := c2.Get(key, &p)
	if !ok || err != nil {
		t.Fatalf("reopened cache missed: %v", err)
	}
	back, err := cache.DecodeProgram(p.Program)
	if err != nil {
		t.Fatal(err)
	}
	if back.Filename() != "m.py" {
		t.Errorf("filename = %q", back.Filename())
	}

	if err := c2.DropAll(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "progs")); !os.IsNotExist(err) {
		t.Errorf("progs dir still present: %v", err)
	}
}
