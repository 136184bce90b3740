package testkit

import (
	"errors"

	"experimental/internal/diag"
	"experimental/internal/edit"
	"experimental/internal/feature"
	"experimental/internal/host"
	"experimental/internal/rewrite"
	"experimental/internal/source"
)

// Run applies one rewriter, token phase then tree phase, to src and returns the
// rebuilt text together with the context it ran in. Errors are relocated to src.
// Every intermediate map is checked with CheckMapInvariants.
func Run(rw rewrite.Rewriter, module, src string) (string, *rewrite.Context, error) {
	orig := source.NewFile(module+".py", []byte(src), source.FileVirtual)
	rc := &rewrite.Context{
		Flags:    feature.Set(0).With(rw.Flag()),
		Module:   module,
		Original: orig,
		Chain:    &edit.Chain{},
		Diags:    diag.NewBag(0),
	}
	unit := host.Unit{Module: module}
	cur := orig.Content

	apply := func(edits []edit.Edit) error {
		out, m, err := edit.Apply(cur, edits)
		if err != nil {
			return err
		}
		if err := CheckMapInvariants(m); err != nil {
			return err
		}
		rc.Chain.Push(m)
		cur = out
		return nil
	}

	if tr, ok := rw.(rewrite.TokenRewriter); ok {
		edits, err := tr.RewriteTokens(rc, rewrite.NewSource(orig.Path, cur, unit))
		if err != nil {
			return "", rc, relocate(err, rc.Locate)
		}
		if err := apply(edits); err != nil {
			return "", rc, err
		}
	}
	if tr, ok := rw.(rewrite.TreeRewriter); ok {
		tree, err := rewrite.NewSource(orig.Path, cur, unit).Tree()
		if err != nil {
			return "", rc, err
		}
		edits, err := tr.RewriteTree(rc, tree)
		if err != nil {
			return "", rc, err
		}
		if edits, err = tree.Map.Translate(edits); err != nil {
			return "", rc, err
		}
		if err := apply(edits); err != nil {
			return "", rc, err
		}
	}
	return string(cur), rc, nil
}

func relocate(err error, locate func(uint32) source.Pos) error {
	var r diag.Relocatable
	if errors.As(err, &r) {
		if off, ok := r.Offset(); ok {
			r.SetPosition(locate(off))
		}
	}
	return err
}
