// Package detect finds the features a module opts into.
//
// Only the leading section of a module is scanned: the module docstring, blank and
// comment lines, and import statements. The first statement of any other kind ends
// the scan, so detection cost does not grow with the module body.
package detect

import (
	"bytes"

	"experimental/internal/diag"
	"experimental/internal/feature"
	"experimental/internal/lexer"
	"experimental/internal/source"
	"experimental/internal/token"
)

var marker = []byte(feature.MarkerModule)

// Peek is the cheap rejection path: false means the source cannot opt into anything.
func Peek(src []byte) bool {
	return bytes.Contains(src, marker)
}

// Request is one feature name found in an opt-in import.
type Request struct {
	Name    string
	Feature feature.Feature
	Span    source.Span
}

// Result is the outcome of a prefix scan.
type Result struct {
	Flags    feature.Set
	Requests []Request
	// OptIns counts the opt-in statements seen, including ones naming no known feature.
	OptIns int
	// End is the offset where the scan stopped.
	End uint32
}

// Scan inspects the leading import section of file. module names the module in errors.
// Unknown feature names fail with *diag.UnknownFeatureError; the scan is pure, so
// repeated calls on the same text return the same result.
func Scan(file *source.File, module string) (Result, error) {
	s := scanner{lx: lexer.New(file, lexer.Options{}), file: file}
	var res Result

	for {
		tok := s.next()
		switch tok.Kind {
		case token.Newline, token.Semicolon:
			continue
		case token.StringLit:
			if !s.skipStringStatement() {
				res.End = tok.Span.Start
				return res, s.err()
			}
			continue
		case token.KwImport:
			s.skipStatement()
			continue
		case token.KwFrom:
			names, optIn, ok := s.fromImport()
			if !ok {
				res.End = tok.Span.Start
				return res, s.err()
			}
			if !optIn {
				continue
			}
			res.OptIns++
			for _, n := range names {
				f, found := feature.Lookup(n.Text)
				if !found {
					return res, &diag.UnknownFeatureError{
						Module: module,
						Name:   n.Text,
						Pos:    file.Pos(n.Span.Start),
						Known:  feature.Names(),
					}
				}
				res.Flags = res.Flags.With(f.Flag)
				res.Requests = append(res.Requests, Request{Name: n.Text, Feature: f, Span: n.Span})
			}
			continue
		}
		res.End = tok.Span.Start
		return res, s.err()
	}
}

type scanner struct {
	lx   *lexer.Lexer
	file *source.File
	look *token.Token
}

func (s *scanner) next() token.Token {
	if s.look != nil {
		t := *s.look
		s.look = nil
		return t
	}
	return s.lx.Next()
}

func (s *scanner) peek() token.Token {
	if s.look == nil {
		t := s.lx.Next()
		s.look = &t
	}
	return *s.look
}

func (s *scanner) err() error { return s.lx.Err() }

func endsStatement(k token.Kind) bool {
	return k == token.Newline || k == token.Semicolon || k == token.EOF
}

// skipStringStatement accepts a statement made only of adjacent string literals.
func (s *scanner) skipStringStatement() bool {
	for {
		t := s.peek()
		switch {
		case endsStatement(t.Kind):
			return true
		case t.Kind == token.StringLit:
			s.next()
		default:
			return false
		}
	}
}

func (s *scanner) skipStatement() {
	for !endsStatement(s.peek().Kind) {
		s.next()
	}
}

// fromImport parses the rest of "from X import ...". optIn reports X == __experimental__;
// names are the imported names with aliases dropped.
func (s *scanner) fromImport() (names []token.Token, optIn bool, ok bool) {
	var module []byte
	for {
		t := s.peek()
		if t.Kind == token.Dot || t.Kind == token.Ellipsis || t.IsName() && t.Kind != token.KwImport {
			module = append(module, t.Text...)
			s.next()
			continue
		}
		break
	}
	if s.peek().Kind != token.KwImport {
		return nil, false, false
	}
	s.next()
	optIn = string(module) == feature.MarkerModule
	if !optIn {
		s.skipStatement()
		return nil, false, true
	}

	paren := s.peek().Kind == token.LParen
	if paren {
		s.next()
	}
	afterAs := false
	for {
		t := s.peek()
		switch {
		case t.Kind == token.RParen && paren:
			s.next()
			return names, true, true
		case endsStatement(t.Kind):
			return names, true, !paren
		case t.Kind == token.KwAs:
			afterAs = true
		case t.Kind == token.Comma:
			afterAs = false
		case t.Kind == token.Ident || t.Kind == token.Star:
			if !afterAs {
				names = append(names, t)
			}
		default:
			return names, true, false
		}
		s.next()
	}
}
