// Package rewrite defines the contract shared by the per-feature rewriters.
//
// A rewriter never mutates its input. It reads a Source through tokens or a
// parsed tree and returns text edits; the pipeline applies them and records the
// offset map so later errors can be reported against the original text.
//
// Token stages see source-level text. Tree stages see the text after host import
// lowering, because the host parser does not accept import statements; their
// edits are translated back to source level before they are applied.
package rewrite

import (
	"log/slog"
	"slices"

	"experimental/internal/diag"
	"experimental/internal/edit"
	"experimental/internal/feature"
	"experimental/internal/source"
	"experimental/internal/trace"
)

// Rewriter is implemented by every feature rewriter, together with at least one
// of TokenRewriter and TreeRewriter.
type Rewriter interface {
	Flag() feature.Flag
	Name() string
}

// TokenRewriter rewrites over the token stream of source-level text.
type TokenRewriter interface {
	Rewriter
	RewriteTokens(rc *Context, src *Source) ([]edit.Edit, error)
}

// TreeRewriter rewrites over the parsed, import-lowered text.
// Returned edits are offsets of tree.Text.
type TreeRewriter interface {
	Rewriter
	RewriteTree(rc *Context, tree *Tree) ([]edit.Edit, error)
}

// Ordered returns rs sorted by feature registry order.
func Ordered(rs []Rewriter) []Rewriter {
	rank := make(map[feature.Flag]int)
	for i, f := range feature.All() {
		rank[f.Flag] = i
	}
	out := slices.Clone(rs)
	slices.SortStableFunc(out, func(a, b Rewriter) int { return rank[a.Flag()] - rank[b.Flag()] })
	return out
}

// CastUse records one elided cast.
type CastUse struct {
	Qualified string // e.g. "typing.cast"
	Local     string // spelling at the call site, e.g. "t.cast"
	Pos       source.Pos
}

// Context carries per-run state shared by the rewriters of one module.
// It is owned by a single pipeline run and is not safe for concurrent use.
type Context struct {
	Flags    feature.Set
	Module   string
	Original *source.File
	// Chain maps offsets of the current stage input back to Original.
	Chain  *edit.Chain
	Diags  *diag.Bag
	Tracer trace.Tracer
	Logger *slog.Logger
	// SpanID is the trace span of the running stage.
	SpanID uint64

	casts []CastUse
}

// Locate maps an offset of the current stage input to the original source.
func (c *Context) Locate(off uint32) source.Pos {
	if c.Chain != nil {
		off = c.Chain.ToOriginal(off)
	}
	return c.Original.Pos(off)
}

// RecordCast stores an elided cast for the run result.
func (c *Context) RecordCast(u CastUse) { c.casts = append(c.casts, u) }

// Casts returns the casts recorded so far.
func (c *Context) Casts() []CastUse { return slices.Clone(c.casts) }

// Warn records a rewrite warning at an offset of the current stage input.
func (c *Context) Warn(feature string, code diag.Code, off uint32, msg string) {
	if c.Diags == nil {
		return
	}
	d := diag.New(diag.SevWarning, code, c.Locate(off), msg)
	d.Stage, d.Feature = diag.StageRewrite, feature
	c.Diags.Add(d)
}

// Debug logs at debug level when a logger is configured.
func (c *Context) Debug(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Debug(msg, append([]any{"module", c.Module}, args...)...)
	}
}
