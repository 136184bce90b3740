// Package config loads xp.toml (or xp.yaml) found by walking up from the
// working directory.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"experimental/internal/diag"
	"experimental/internal/logs"
	"experimental/internal/source"
	"experimental/internal/trace"
)

// Names are the file names looked up in every directory, in order.
var Names = []string{"xp.toml", "xp.yaml", "xp.yml"}

type Paths struct {
	Roots []string `toml:"roots" yaml:"roots"`
}

type Cache struct {
	Enabled *bool  `toml:"enabled" yaml:"enabled"`
	Dir     string `toml:"dir" yaml:"dir"`
}

type Cast struct {
	// Functions maps extra cast-like functions to the index of the argument
	// that carries the value.
	Functions map[string]int `toml:"functions" yaml:"functions"`
}

type Trace struct {
	Level  string `toml:"level" yaml:"level"`
	Output string `toml:"output" yaml:"output"`
}

type Log struct {
	Level   string `toml:"level" yaml:"level"`
	Journal bool   `toml:"journal" yaml:"journal"`
}

// Config is the merged project configuration. Relative paths are resolved
// against Dir, the directory of the file.
type Config struct {
	Paths Paths `toml:"paths" yaml:"paths"`
	Cache Cache `toml:"cache" yaml:"cache"`
	Cast  Cast  `toml:"cast" yaml:"cast"`
	Trace Trace `toml:"trace" yaml:"trace"`
	Log   Log   `toml:"log" yaml:"log"`

	File string `toml:"-" yaml:"-"`
	Dir  string `toml:"-" yaml:"-"`
}

// Error reports an invalid configuration file.
type Error struct {
	Path string
	Line uint32
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	pos := source.Pos{Path: e.Path, Line: e.Line}
	return fmt.Sprintf("%s: %s", pos, e.Msg)
}
func (e *Error) Unwrap() error        { return e.Err }
func (e *Error) Stage() diag.Stage    { return diag.StageUnknown }
func (e *Error) Position() source.Pos { return source.Pos{Path: e.Path, Line: e.Line} }
func (e *Error) FeatureName() string  { return "" }
func (e *Error) DiagCode() diag.Code  { return diag.CfgInvalid }

// Default is the configuration used when no file is found.
func Default() *Config {
	return &Config{}
}

// Find walks up from startDir to locate a configuration file.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		for _, name := range Names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the file Find locates, or Default when there is none.
func Discover(startDir string) (*Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load parses path as TOML or YAML depending on its extension.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(abs)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(abs, cfg); err != nil {
			e := &Error{Path: abs, Msg: "failed to parse TOML: " + err.Error(), Err: err}
			var pe toml.ParseError
			if errors.As(err, &pe) {
				if line, err := safecast.Conv[uint32](pe.Position.Line); err == nil {
					e.Line = line
				}
				e.Msg = "failed to parse TOML: " + pe.Message
			}
			return nil, e
		}
	case ".yaml", ".yml":
		// #nosec G304 -- path is provided by the caller
		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, err
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, &Error{Path: abs, Msg: "failed to parse YAML: " + err.Error(), Err: err}
		}
	default:
		return nil, &Error{Path: abs, Msg: fmt.Sprintf("unsupported config format %q", ext)}
	}
	cfg.File = abs
	cfg.Dir = filepath.Dir(abs)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	fail := func(format string, args ...any) error {
		return &Error{Path: c.File, Msg: fmt.Sprintf(format, args...)}
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return fail("[trace] level: %v", err)
	}
	if _, err := logs.ParseLevel(c.Log.Level); err != nil {
		return fail("[log] level: %v", err)
	}
	for _, name := range slices.Sorted(maps.Keys(c.Cast.Functions)) {
		if c.Cast.Functions[name] < 0 {
			return fail("[cast] functions: %s has negative argument index %d", name, c.Cast.Functions[name])
		}
		if name == "" || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
			return fail("[cast] functions: invalid name %q", name)
		}
	}
	return nil
}

// Roots returns the module search roots as absolute paths.
func (c *Config) Roots() []string {
	out := make([]string, 0, len(c.Paths.Roots))
	for _, r := range c.Paths.Roots {
		out = append(out, c.resolve(r))
	}
	return out
}

// CacheEnabled reports whether compiled programs are cached on disk. Caching
// is on unless the file disables it.
func (c *Config) CacheEnabled() bool {
	return c.Cache.Enabled == nil || *c.Cache.Enabled
}

// CacheDir is the configured cache directory, or xp under the user cache dir.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.resolve(c.Cache.Dir), nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "xp"), nil
}

// TraceOutput resolves the trace output path; "-" stays as is.
func (c *Config) TraceOutput() string {
	if c.Trace.Output == "" || c.Trace.Output == "-" {
		return c.Trace.Output
	}
	return c.resolve(c.Trace.Output)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) || c.Dir == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Dir, filepath.FromSlash(p))
}
