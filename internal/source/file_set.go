package source

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"fortio.org/safecast"
)

// FileSet manages a collection of source files. It is safe for concurrent use:
// modules are loaded from several goroutines at once.
type FileSet struct {
	mu    sync.RWMutex
	files []*File
	index map[string]FileID // path -> id
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]*File, 0),
		index: make(map[string]FileID),
	}
}

// NewFile builds a standalone File that does not belong to any FileSet.
// Rewrite stages use it for intermediate texts.
func NewFile(path string, content []byte, flags FileFlags) *File {
	return &File{
		Path:    normalizePath(path),
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	}
}

// Add stores a file from normalized bytes, computes LineIdx and Hash, and returns a new FileID.
// It always creates a new FileID even if a file with the same path already exists.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	f := NewFile(path, content, flags)

	fileSet.mu.Lock()
	defer fileSet.mu.Unlock()

	lenFiles, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	f.ID = FileID(lenFiles)
	fileSet.files = append(fileSet.files, f)
	// Всегда обновляем индекс на последнюю версию файла
	fileSet.index[f.Path] = f.ID
	return f.ID
}

// Load reads a file from disk, normalizes CRLF/BOM, and calls Add.
func (fileSet *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	content, flags := Normalize(content)
	return fileSet.Add(path, content, flags), nil
}

// LoadFS is Load over an fs.FS; the stored path is the fs-relative name.
func (fileSet *FileSet) LoadFS(fsys fs.FS, name string) (FileID, error) {
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return 0, err
	}
	content, flags := Normalize(content)
	return fileSet.Add(name, content, flags), nil
}

// AddVirtual adds a virtual file (stdin, test, or generated) with the FileVirtual flag.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	return fileSet.Add(name, content, FileVirtual)
}

// Get returns the file metadata for the given ID.
func (fileSet *FileSet) Get(id FileID) *File {
	fileSet.mu.RLock()
	defer fileSet.mu.RUnlock()
	return fileSet.files[id]
}

// GetLatest returns the latest file ID for the given path, if it exists.
func (fileSet *FileSet) GetLatest(path string) (FileID, bool) {
	fileSet.mu.RLock()
	defer fileSet.mu.RUnlock()
	id, ok := fileSet.index[normalizePath(path)]
	return id, ok
}

// GetByPath returns the latest *File loaded under path.
func (fileSet *FileSet) GetByPath(path string) (*File, bool) {
	fileSet.mu.RLock()
	defer fileSet.mu.RUnlock()
	if id, ok := fileSet.index[normalizePath(path)]; ok {
		return fileSet.files[id], true
	}
	return nil, false
}

// Resolve converts a span into line and column positions.
func (fileSet *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fileSet.Get(span.File)
	return f.LineCol(span.Start), f.LineCol(span.End)
}

// Len reports the content length as uint32.
func (f *File) Len() uint32 {
	n, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}
	return n
}

// LineCol converts a byte offset into a 1-based line and rune column.
func (f *File) LineCol(off uint32) LineCol {
	if off > f.Len() {
		off = f.Len()
	}
	lc := toLineCol(f.LineIdx, off)
	start := off - (lc.Col - 1)
	lc.Col = runeCount(f.Content[start:off]) + 1
	return lc
}

// Pos is LineCol attributed to the file path.
func (f *File) Pos(off uint32) Pos {
	lc := f.LineCol(off)
	return Pos{Path: f.Path, Line: lc.Line, Col: lc.Col}
}

// LineStart returns the byte offset of the first byte of line (1-based).
// Lines past the end clamp to the content length.
func (f *File) LineStart(line uint32) uint32 {
	switch {
	case line <= 1:
		return 0
	case int(line-2) < len(f.LineIdx):
		return f.LineIdx[line-2] + 1
	}
	return f.Len()
}

// Offset is the inverse of LineCol. Columns past the end of the line clamp to the newline.
func (f *File) Offset(lc LineCol) uint32 {
	off := f.LineStart(lc.Line)
	end := f.Len()
	if int(lc.Line-1) < len(f.LineIdx) && lc.Line > 0 {
		end = f.LineIdx[lc.Line-1]
	}
	for col := uint32(1); col < lc.Col && off < end; col++ {
		off += runeLen(f.Content[off:end])
	}
	return off
}

// GetLine возвращает строку с заданным номером (1-based) из файла.
// Если строка не существует, возвращает пустую строку.
func (f *File) GetLine(lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}
	lenLineIdx, err := safecast.Conv[uint32](len(f.LineIdx))
	if err != nil {
		panic(fmt.Errorf("line index length overflow: %w", err))
	}
	lenContent := f.Len()

	var start, end uint32
	switch {
	case lineNum == 1:
		start = 0
	case (lineNum - 2) < lenLineIdx:
		start = f.LineIdx[lineNum-2] + 1
	default:
		return ""
	}

	if (lineNum - 1) < lenLineIdx {
		end = f.LineIdx[lineNum-1]
	} else {
		end = lenContent
	}

	if start >= lenContent {
		return ""
	}
	if end > lenContent {
		end = lenContent
	}

	return string(f.Content[start:end])
}

// LineCount returns the number of lines, counting a trailing unterminated line.
func (f *File) LineCount() int {
	n := len(f.LineIdx)
	if len(f.Content) > 0 && f.Content[len(f.Content)-1] != '\n' {
		n++
	}
	return n
}
