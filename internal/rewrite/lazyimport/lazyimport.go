// Package lazyimport implements lazy_import: plain import statements bind a
// proxy, and the module is loaded on the first attribute access.
//
//	import a.b      ->  a = __lazy_import__("a.b", True)
//	import a.b as c ->  c = __lazy_import__("a.b", False)
//
// The boolean tells the runtime whether the name stands for the top-level
// package or for the leaf module. From-imports bind attributes, which cannot be
// proxied without loading the module, so they stay eager.
package lazyimport

import (
	"strconv"

	"experimental/internal/edit"
	"experimental/internal/feature"
	"experimental/internal/host"
	"experimental/internal/imports"
	"experimental/internal/rewrite"
)

// Rewriter is the lazy_import rewriter.
type Rewriter struct{}

// New returns the rewriter.
func New() *Rewriter { return &Rewriter{} }

func (*Rewriter) Flag() feature.Flag { return feature.LazyImport }

func (*Rewriter) Name() string { return "lazy_import" }

// RewriteTokens turns every plain import statement into lazy bindings.
func (r *Rewriter) RewriteTokens(rc *rewrite.Context, src *rewrite.Source) ([]edit.Edit, error) {
	toks, err := src.Tokens()
	if err != nil {
		return nil, err
	}
	stmts, err := imports.Parse(toks)
	if err != nil {
		return nil, err
	}
	text := src.Text()
	var edits []edit.Edit
	for _, st := range stmts {
		if st.Kind != imports.Plain {
			continue
		}
		calls := make([]imports.Call, 0, len(st.Names))
		for _, a := range st.Names {
			top := "True"
			if a.As != "" {
				top = "False"
			}
			calls = append(calls, imports.Call{
				Target: st.Bound(a),
				Helper: host.LazyImport,
				Args:   []string{strconv.Quote(a.Name), top},
				Line:   imports.Lines(text, st.Span.Start, a.Span.Start),
			})
		}
		total := imports.Lines(text, st.Span.Start, st.Span.End)
		edits = append(edits, edit.Replace(st.Span.Start, st.Span.End, imports.Render(calls, total)))
	}
	if len(edits) > 0 {
		rc.Debug("plain imports made lazy", "statements", len(edits))
	}
	return edits, nil
}
