package elidecast

import "strings"

// binding is what a local name refers to. An empty binding shadows outer ones.
type binding struct {
	fn     string // designated function, qualified
	module string // imported module
}

type scope struct {
	parent *scope
	names  map[string]binding
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, names: make(map[string]binding)}
}

func (s *scope) lookup(name string) binding {
	for sc := s; sc != nil; sc = sc.parent {
		if b, ok := sc.names[name]; ok {
			return b
		}
	}
	return binding{}
}

func (s *scope) bind(name string, b binding) { s.names[name] = b }

func (s *scope) shadow(name string) { s.names[name] = binding{} }

func topLevel(module string) string {
	top, _, _ := strings.Cut(module, ".")
	return top
}
