// Package pipeline runs one module through detection, the active rewriters and
// the host compiler.
//
// Token stages run first, in feature order, on source-level text. Tree stages
// follow in the same order, each re-parsing the previous output. The rebuilt
// source is then lowered and compiled. Every applied edit set extends the
// offset chain, so any error, from a rewriter or from the host compiler, is
// reported at a line and column of the original text.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.starlark.net/syntax"

	"experimental/internal/cache"
	"experimental/internal/detect"
	"experimental/internal/diag"
	"experimental/internal/edit"
	"experimental/internal/host"
	"experimental/internal/imports"
	"experimental/internal/lexer"
	"experimental/internal/metrics"
	"experimental/internal/rewrite"
	"experimental/internal/rewrite/elidecast"
	"experimental/internal/rewrite/inlineimport"
	"experimental/internal/rewrite/latebound"
	"experimental/internal/rewrite/lazyimport"
	"experimental/internal/source"
	"experimental/internal/trace"
)

// Options configures a Pipeline. The zero value runs every registered feature
// without caching.
type Options struct {
	// Rewriters overrides the default rewriter set.
	Rewriters []rewrite.Rewriter
	// CastFunctions adds designated functions to cast elision.
	CastFunctions  map[string]int
	Cache          *cache.Cache
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	MaxDiagnostics int
}

// Pipeline is safe for concurrent use; each run owns its own state.
type Pipeline struct {
	opts        Options
	tokenStages []rewrite.TokenRewriter
	treeStages  []rewrite.TreeRewriter
	log         *slog.Logger
}

// Default returns one rewriter per registered feature.
func Default(castFunctions map[string]int) []rewrite.Rewriter {
	return []rewrite.Rewriter{
		latebound.New(),
		inlineimport.New(),
		lazyimport.New(),
		elidecast.New(castFunctions),
	}
}

// New builds a pipeline.
func New(opts Options) *Pipeline {
	rs := opts.Rewriters
	if rs == nil {
		rs = Default(opts.CastFunctions)
	}
	p := &Pipeline{opts: opts, log: opts.Logger}
	if p.log == nil {
		p.log = slog.New(slog.DiscardHandler)
	}
	for _, rw := range rewrite.Ordered(rs) {
		if ts, ok := rw.(rewrite.TokenRewriter); ok {
			p.tokenStages = append(p.tokenStages, ts)
		}
		if ts, ok := rw.(rewrite.TreeRewriter); ok {
			p.treeStages = append(p.treeStages, ts)
		}
	}
	return p
}

// Run transforms and compiles src.
func (p *Pipeline) Run(ctx context.Context, src *ModuleSource) (*Result, error) {
	res, err := p.Transform(ctx, src)
	if err != nil {
		return res, err
	}
	return res, p.compile(ctx, src, res)
}

// Transform stops at the Rebuilt state.
func (p *Pipeline) Transform(ctx context.Context, src *ModuleSource) (*Result, error) {
	res := &Result{
		Module:   src.Name,
		Original: src.File,
		Output:   src.File.Content,
		Chain:    &edit.Chain{},
		Diags:    diag.NewBag(p.opts.MaxDiagnostics),
		mark:     time.Now(),
	}

	_, done := p.begin(ctx, "detect")
	if detect.Peek(src.File.Content) {
		dr, err := detect.Scan(src.File, src.Name)
		if err != nil {
			done("rejected")
			return res, reject(res, err)
		}
		res.Flags, res.Requests = dr.Flags, dr.Requests
	}
	res.push(Step{State: Scanned})
	res.push(Step{State: FlagsDetected})
	done(res.Flags.String())

	if res.Flags.Empty() {
		res.push(Step{State: Rebuilt})
		return res, nil
	}

	rc := &rewrite.Context{
		Flags:    res.Flags,
		Module:   src.Name,
		Original: src.File,
		Chain:    res.Chain,
		Diags:    res.Diags,
		Tracer:   trace.FromContext(ctx),
		Logger:   p.log,
	}
	cur := src.File.Content

	for _, rw := range p.tokenStages {
		if !res.Flags.Has(rw.Flag()) {
			continue
		}
		sctx, done := p.begin(ctx, rw.Name()+"/tokens")
		rc.SpanID = trace.CurrentSpan(sctx).SpanID
		edits, err := rw.RewriteTokens(rc, rewrite.NewSource(src.File.Path, cur, src.unit()))
		if err == nil {
			cur, err = p.apply(res, rc, rw, "tokens", cur, edits)
		}
		done("")
		if err != nil {
			return res, reject(res, relocate(err, rc.Locate))
		}
	}

	for _, rw := range p.treeStages {
		if !res.Flags.Has(rw.Flag()) {
			continue
		}
		sctx, done := p.begin(ctx, rw.Name()+"/tree")
		rc.SpanID = trace.CurrentSpan(sctx).SpanID
		cur2, err := p.treeStage(rc, res, rw, src, cur)
		done("")
		if err != nil {
			return res, reject(res, err)
		}
		cur = cur2
	}

	res.Output = cur
	res.Casts = rc.Casts()
	res.push(Step{State: Rebuilt})
	p.log.Debug("module rewritten", "module", src.Name, "features", res.Flags.String(), "stages", res.Chain.Len())
	return res, nil
}

func (p *Pipeline) treeStage(rc *rewrite.Context, res *Result, rw rewrite.TreeRewriter, src *ModuleSource, cur []byte) ([]byte, error) {
	tree, err := rewrite.NewSource(src.File.Path, cur, src.unit()).Tree()
	if err != nil {
		return nil, treeError(err, tree, rc, res)
	}
	edits, err := rw.RewriteTree(rc, tree)
	if err != nil {
		return nil, relocate(err, func(off uint32) source.Pos { return rc.Locate(tree.Map.ToInput(off)) })
	}
	edits, err = tree.Map.Translate(edits)
	if err != nil {
		var ce *edit.ConflictError
		if errors.As(err, &ce) {
			return nil, relocate(diag.NewRewriteError(rw.Name(), diag.RwEditConflict, tree.Map.ToInput(ce.A.Start),
				"edit splits a lowered import statement"), rc.Locate)
		}
		return nil, err
	}
	out, err := p.apply(res, rc, rw, "tree", cur, edits)
	if err != nil {
		return nil, relocate(err, rc.Locate)
	}
	return out, nil
}

func (p *Pipeline) apply(res *Result, rc *rewrite.Context, rw rewrite.Rewriter, phase string, cur []byte, edits []edit.Edit) ([]byte, error) {
	out, m, err := edit.Apply(cur, edits)
	if err != nil {
		var ce *edit.ConflictError
		if errors.As(err, &ce) {
			return nil, diag.NewRewriteError(rw.Name(), diag.RwEditConflict, ce.B.Start, "%v", ce)
		}
		return nil, err
	}
	res.Chain.Push(m)
	res.push(Step{State: Rewritten, Feature: rw.Name(), Phase: phase, Edits: len(edits)})
	p.opts.Metrics.Rewrite(rw.Name(), len(edits))
	trace.Point(rc.Tracer, trace.ScopeEdit, rw.Name()+"/"+phase, rc.Module, rc.SpanID)
	return out, nil
}

func (p *Pipeline) compile(ctx context.Context, src *ModuleSource, res *Result) error {
	_, done := p.begin(ctx, "compile")
	defer done("")
	features := res.Flags.Names()
	path := src.File.Path

	outFile := source.NewFile(path, res.Output, source.FileVirtual)
	toks, err := lexer.Tokenize(outFile)
	if err != nil {
		return reject(res, relocate(err, res.Locate))
	}
	edits, err := host.Lower(res.Output, toks, src.unit())
	if err != nil {
		return reject(res, importError(err, res.Locate, features))
	}
	lowered, m, err := edit.Apply(res.Output, edits)
	if err != nil {
		return reject(res, err)
	}
	res.Compiled = source.NewFile(path, lowered, source.FileVirtual|source.FileRewritten)
	res.lowered = m

	key := cache.Key(res.Output, path, src.Name, src.IsPackage)
	if p.opts.Cache != nil {
		var payload cache.Payload
		hit, err := p.opts.Cache.Get(key, &payload)
		if err != nil {
			p.log.Warn("compile cache read failed", "module", src.Name, "err", err)
		}
		if hit {
			if prog, err := cache.DecodeProgram(payload.Program); err == nil {
				p.opts.Metrics.Cache(true)
				res.Program, res.Cached = prog, true
				res.push(Step{State: Compiled})
				return nil
			}
		}
		p.opts.Metrics.Cache(false)
	}

	prog, err := host.Compile(path, lowered)
	if err != nil {
		loc := func(off uint32) source.Pos { return res.Locate(m.ToInput(off)) }
		return reject(res, host.WrapError(err, res.Compiled, loc, features))
	}
	res.Program = prog
	res.push(Step{State: Compiled})

	if p.opts.Cache != nil {
		data, err := cache.EncodeProgram(prog)
		if err == nil {
			err = p.opts.Cache.Put(key, &cache.Payload{
				Module:   src.Name,
				Path:     path,
				Features: features,
				Program:  data,
				Stored:   time.Now(),
			})
		}
		if err != nil {
			p.log.Warn("compile cache write failed", "module", src.Name, "err", err)
		}
	}
	return nil
}

func (p *Pipeline) begin(ctx context.Context, name string) (context.Context, func(string)) {
	start := time.Now()
	sctx, sp := trace.Start(ctx, trace.ScopeStage, name)
	return sctx, func(detail string) {
		sp.End(detail)
		p.opts.Metrics.Stage(name, time.Since(start))
	}
}

func reject(res *Result, err error) error {
	stage := diag.StageUnknown
	var se diag.StageError
	if errors.As(err, &se) {
		stage = se.Stage()
	}
	res.push(Step{State: Rejected, Stage: stage, Err: err})
	return err
}

// relocate moves a relocatable error from stage-input coordinates to the original text.
func relocate(err error, locate func(uint32) source.Pos) error {
	var r diag.Relocatable
	if errors.As(err, &r) {
		if off, ok := r.Offset(); ok {
			r.SetPosition(locate(off))
		}
	}
	return err
}

func importError(err error, locate func(uint32) source.Pos, features []string) error {
	var ie *imports.Error
	if !errors.As(err, &ie) {
		return err
	}
	return &diag.HostCompileError{
		Code:     diag.HostImport,
		Pos:      locate(ie.Off),
		Msg:      ie.Msg,
		Features: features,
		Err:      err,
	}
}

// treeError classifies a failure to build the tree view of a stage input.
func treeError(err error, tree *rewrite.Tree, rc *rewrite.Context, res *Result) error {
	features := res.Flags.Names()
	var se syntax.Error
	if errors.As(err, &se) && tree != nil {
		loc := func(off uint32) source.Pos { return rc.Locate(tree.Map.ToInput(off)) }
		return host.WrapError(err, tree.Text, loc, features)
	}
	var ie *imports.Error
	if errors.As(err, &ie) {
		return importError(err, rc.Locate, features)
	}
	return relocate(err, rc.Locate)
}
