package source

import "fmt"

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32 // просто ID источника
	// FileFlags encodes metadata about a source file.
	FileFlags uint8 // метаданные
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, rewritten text).
	FileVirtual FileFlags = 1 << iota // добавлен не с диска
	FileHadBOM
	FileNormalizedCRLF
	// FileRewritten marks text produced by a rewrite stage rather than read from a module file.
	FileRewritten
)

// File captures metadata and content for a single source file.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol represents a human-readable position in a source file.
// Col counts runes, matching what the host compiler reports.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}

// Pos is a resolved position attributed to a file path.
type Pos struct {
	Path string
	Line uint32
	Col  uint32
}

func (p Pos) IsValid() bool { return p.Line > 0 }

func (p Pos) String() string {
	switch {
	case p.Line == 0:
		return p.Path
	case p.Col == 0:
		return fmt.Sprintf("%s:%d", p.Path, p.Line)
	}
	return fmt.Sprintf("%s:%d:%d", p.Path, p.Line, p.Col)
}
