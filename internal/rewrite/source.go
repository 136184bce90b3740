package rewrite

import (
	"go.starlark.net/syntax"

	"experimental/internal/edit"
	"experimental/internal/host"
	"experimental/internal/lexer"
	"experimental/internal/source"
	"experimental/internal/token"
)

// Source is the text one stage reads. Tokens and the tree are built on first use.
type Source struct {
	Unit host.Unit
	File *source.File

	toks    []token.Token
	tokErr  error
	tokDone bool

	tree     *Tree
	treeErr  error
	treeDone bool
}

// NewSource wraps stage input text.
func NewSource(path string, text []byte, unit host.Unit) *Source {
	return &Source{Unit: unit, File: source.NewFile(path, text, source.FileVirtual)}
}

// Text returns the stage input.
func (s *Source) Text() []byte { return s.File.Content }

// Tokens scans the text once.
func (s *Source) Tokens() ([]token.Token, error) {
	if !s.tokDone {
		s.toks, s.tokErr = lexer.Tokenize(s.File)
		s.tokDone = true
	}
	return s.toks, s.tokErr
}

// Tree lowers imports and parses the result once. Errors are *diag.LexError and
// *imports.Error at source-level offsets, or syntax.Error in lowered text.
func (s *Source) Tree() (*Tree, error) {
	if s.treeDone {
		return s.tree, s.treeErr
	}
	s.treeDone = true
	s.tree, s.treeErr = s.buildTree()
	return s.tree, s.treeErr
}

func (s *Source) buildTree() (*Tree, error) {
	toks, err := s.Tokens()
	if err != nil {
		return nil, err
	}
	edits, err := host.Lower(s.File.Content, toks, s.Unit)
	if err != nil {
		return nil, err
	}
	lowered, m, err := edit.Apply(s.File.Content, edits)
	if err != nil {
		return nil, err
	}
	t := &Tree{Text: source.NewFile(s.File.Path, lowered, source.FileVirtual), Map: m}
	f, err := host.Parse(s.File.Path, lowered)
	if err != nil {
		// Text and Map stay valid so the caller can place the syntax error
		return t, err
	}
	t.File = f
	return t, nil
}

// Tree is a parsed, import-lowered view of a Source.
type Tree struct {
	File *syntax.File
	Text *source.File
	// Map translates offsets of Text back to the source-level text.
	Map *edit.Map
}

// Offset converts a parser position into an offset of Text.
func (t *Tree) Offset(p syntax.Position) uint32 {
	return host.Offset(t.Text, p.Line, p.Col)
}

// Span returns the half-open byte range of n in Text.
func (t *Tree) Span(n syntax.Node) (start, end uint32) {
	s, e := n.Span()
	return t.Offset(s), t.Offset(e)
}

// Slice returns Text between two offsets.
func (t *Tree) Slice(start, end uint32) string {
	return string(t.Text.Content[start:end])
}
