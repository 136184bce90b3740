// Package latebound implements late_bound_arg_defaults: a parameter written
// "p=>EXPR" has EXPR evaluated on every call that omits p, in the callee's scope,
// after the parameters to its left are bound.
//
// The token stage turns "p=>EXPR" into "p=__late_bound__(EXPR)" so the text
// parses. The tree stage replaces each marked default with the __omitted__
// sentinel and evaluates EXPR in the body:
//
//	def f(a, b=>[a]):          def f(a, b=__omitted__):
//	    return b           ->      b = ([a]) if b == __omitted__ else b; return b
//
// Lambdas have no statements, so their bodies are wrapped in one single-argument
// lambda per late-bound parameter instead.
package latebound

import (
	"experimental/internal/feature"
)

// Rewriter is the late_bound_arg_defaults rewriter.
type Rewriter struct{}

// New returns the rewriter.
func New() *Rewriter { return &Rewriter{} }

func (*Rewriter) Flag() feature.Flag { return feature.LateBoundDefaults }

func (*Rewriter) Name() string { return "late_bound_arg_defaults" }
