// Package elidecast implements cast_elision: calls to typing.cast and
// typing.assert_type, which only inform static checkers, are replaced by the
// value they pass through.
//
//	y = cast(list, x)  ->  y = x
//	x = cast(list, x)  ->  pass
//
// A call is elided only when its callee resolves, through the module's own
// import bindings, to a designated function. Shadowing a binding in a nested
// function or by assignment stops elision from that point on.
package elidecast

import (
	"maps"

	"experimental/internal/feature"
)

// DefaultFunctions maps designated qualified names to the index of the value argument.
var DefaultFunctions = map[string]int{
	"typing.cast":                   1,
	"typing_extensions.cast":        1,
	"typing.assert_type":            0,
	"typing_extensions.assert_type": 0,
}

// Rewriter is the cast_elision rewriter.
type Rewriter struct {
	funcs map[string]int
}

// New returns the rewriter. extra adds designated functions to DefaultFunctions.
func New(extra map[string]int) *Rewriter {
	funcs := maps.Clone(DefaultFunctions)
	maps.Copy(funcs, extra)
	return &Rewriter{funcs: funcs}
}

func (*Rewriter) Flag() feature.Flag { return feature.CastElision }

func (*Rewriter) Name() string { return "cast_elision" }

// Designated reports the value argument index of a qualified function name.
func (r *Rewriter) Designated(qualified string) (int, bool) {
	idx, ok := r.funcs[qualified]
	return idx, ok
}
