// Package cache stores compiled host programs keyed by the text that was compiled.
//
// The key is taken over the rewritten source, so a module whose original text
// changes but rewrites to the same output reuses its entry, and a change to a
// rewriter invalidates exactly the modules whose output it changes.
package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.starlark.net/starlark"
)

// Текущая версия схемы: увеличивать при изменении Payload или формата ключа
const schemaVersion uint16 = 1

// Digest is a SHA-256 cache key.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// Key identifies a compilation: the program text plus everything that changes
// its meaning, the path baked into positions and the package used for relative imports.
func Key(text []byte, path, module string, isPackage bool) Digest {
	h := sha256.New()
	var hdr [3]byte
	binary.BigEndian.PutUint16(hdr[:2], schemaVersion)
	if isPackage {
		hdr[2] = 1
	}
	h.Write(hdr[:])
	for _, s := range []string{path, module} {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	h.Write(text)
	var d Digest
	h.Sum(d[:0])
	return d
}

// Payload is one cache entry.
type Payload struct {
	Schema   uint16
	Module   string
	Path     string
	Features []string
	Program  []byte
	Stored   time.Time
}

// Cache is a two-level store: an in-process map in front of an optional
// directory of msgpack files. Safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
	mem map[Digest]*Payload

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Memory returns a cache that never touches the disk.
func Memory() *Cache {
	return &Cache{mem: make(map[Digest]*Payload)}
}

// Open returns a cache persisted under dir. An empty dir selects
// $XDG_CACHE_HOME/xp (or ~/.cache/xp).
func Open(dir string) (*Cache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, "xp")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir, mem: make(map[Digest]*Payload)}, nil
}

// Dir is the backing directory, empty for memory-only caches.
func (c *Cache) Dir() string { return c.dir }

func (c *Cache) pathFor(key Digest) string {
	hexKey := key.String()
	// подкаталог по первым двум символам, чтобы не держать всё в одной папке
	return filepath.Join(c.dir, "progs", hexKey[:2], hexKey+".mp")
}

// Put stores a payload. Disk writes go through a temp file and an atomic rename.
func (c *Cache) Put(key Digest, p *Payload) error {
	if c == nil {
		return nil
	}
	p.Schema = schemaVersion
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem[key] = p
	if c.dir == "" {
		return nil
	}

	path := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name()) //nolint:errcheck

	if err := msgpack.NewEncoder(f).Encode(p); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// Get fills out from the cache. Entries written by another schema count as misses.
func (c *Cache) Get(key Digest, out *Payload) (bool, error) {
	if c == nil {
		return false, nil
	}
	ok, err := c.get(key, out)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return ok, err
}

func (c *Cache) get(key Digest, out *Payload) (bool, error) {
	c.mu.RLock()
	p, ok := c.mem[key]
	c.mu.RUnlock()
	if ok {
		*out = *p
		return true, nil
	}
	if c.dir == "" {
		return false, nil
	}

	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	var loaded Payload
	if err := msgpack.Unmarshal(data, &loaded); err != nil {
		return false, err
	}
	if loaded.Schema != schemaVersion {
		return false, nil
	}
	c.mu.Lock()
	c.mem[key] = &loaded
	c.mu.Unlock()
	*out = loaded
	return true, nil
}

// Stats returns lookup counters.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// DropAll empties the cache, disk included.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.mem)
	if c.dir == "" {
		return nil
	}
	return os.RemoveAll(filepath.Join(c.dir, "progs"))
}

// EncodeProgram serialises a compiled program for a Payload.
func EncodeProgram(prog *starlark.Program) ([]byte, error) {
	var buf bytes.Buffer
	if err := prog.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeProgram is the inverse of EncodeProgram.
func DecodeProgram(data []byte) (*starlark.Program, error) {
	return starlark.CompiledProgram(bytes.NewReader(data))
}
