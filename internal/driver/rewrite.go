package driver

import (
	"context"
	"path/filepath"

	"experimental/internal/diag"
	"experimental/internal/modrt"
	"experimental/internal/pipeline"
	"experimental/internal/source"
)

type RewriteResult struct {
	FileSet *source.FileSet
	Result  *pipeline.Result
	Bag     *diag.Bag
}

// Rewrite runs the source stages on one file and stops at the rebuilt text.
// The module is named relative to the file's directory.
func Rewrite(ctx context.Context, p *pipeline.Pipeline, path string, maxDiagnostics int) (*RewriteResult, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fs := source.NewFileSet()
	id, err := fs.Load(abs)
	if err != nil {
		return nil, err
	}
	name, isPkg, ok := modrt.ModuleName(filepath.Dir(abs), abs)
	if !ok {
		name = "__main__"
	}

	bag := diag.NewBag(maxDiagnostics)
	res, err := p.Transform(ctx, &pipeline.ModuleSource{Name: name, IsPackage: isPkg, File: fs.Get(id)})
	if res != nil && res.Diags != nil {
		bag.Merge(res.Diags)
	}
	bag.AddError(err)
	return &RewriteResult{FileSet: fs, Result: res, Bag: bag}, nil
}
